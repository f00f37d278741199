package greenpatch

import (
	"fmt"
	"sync"

	"github.com/baxromumarov/greenpatch/primitive"
)

// Environment is the process-scoped patching context. It owns the ambient
// bindings every consumer resolves through, the set of active primitives
// and the vault of original implementations.
//
// Activation is monotonic: there is no unpatch operation. Concurrent
// activations are serialized by a lock; the last one applied wins.
type Environment struct {
	reg *primitive.Registry
	cfg config

	mu        sync.RWMutex
	bindings  map[primitive.Name]any
	active    primitive.Set
	originals map[primitive.Name]any

	modMu   sync.Mutex
	modules map[string]*Module
	loading map[string]*inflight
}

// New creates an environment whose bindings start at the blocking
// implementation of every primitive in reg. It panics if reg is nil.
func New(reg *primitive.Registry, opts ...Option) *Environment {
	if reg == nil {
		panic("greenpatch: New requires a registry")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.catalog == nil {
		cfg.catalog = NewCatalog()
	}

	e := &Environment{
		reg:       reg,
		cfg:       cfg,
		bindings:  make(map[primitive.Name]any),
		active:    primitive.NewSet(),
		originals: make(map[primitive.Name]any),
		modules:   make(map[string]*Module),
		loading:   make(map[string]*inflight),
	}
	for _, n := range primitive.Names() {
		pair, err := reg.Lookup(n)
		if err != nil {
			panic(err)
		}
		e.bindings[n] = pair.Blocking
	}
	if cfg.eagerOriginals {
		for n, impl := range e.bindings {
			e.originals[n] = impl
		}
	}
	return e
}

// Registry returns the primitive table the environment was built from.
func (e *Environment) Registry() *primitive.Registry {
	return e.reg
}

// Catalog returns the unit catalog used by the loader.
func (e *Environment) Catalog() *Catalog {
	return e.cfg.catalog
}

// Resolve returns the implementation currently bound to name.
func (e *Environment) Resolve(name primitive.Name) (any, error) {
	e.mu.RLock()
	impl, ok := e.bindings[name]
	e.mu.RUnlock()
	if !ok {
		return nil, &primitive.UnknownPrimitiveError{Name: name}
	}
	return impl, nil
}

// Bindings returns a snapshot of the ambient bindings.
func (e *Environment) Bindings() map[primitive.Name]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[primitive.Name]any, len(e.bindings))
	for n, impl := range e.bindings {
		out[n] = impl
	}
	return out
}

// IsActive reports whether name has been activated.
func (e *Environment) IsActive(name primitive.Name) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active.Has(name)
}

// ActiveNames returns a copy of the active set.
func (e *Environment) ActiveNames() primitive.Set {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active.Clone()
}

// Resolver resolves a primitive name to an implementation handle.
// [*Environment] and [*Namespace] implement it.
type Resolver interface {
	Resolve(name primitive.Name) (any, error)
}

// Lookup resolves name through r and asserts the capability type T.
//
//	clock, err := greenpatch.Lookup[primitive.Clock](env, primitive.Time)
func Lookup[T any](r Resolver, name primitive.Name) (T, error) {
	impl, err := r.Resolve(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](name, impl)
}

// MustLookup is like [Lookup] but panics on error.
func MustLookup[T any](r Resolver, name primitive.Name) T {
	v, err := Lookup[T](r, name)
	if err != nil {
		panic(err)
	}
	return v
}

func as[T any](name primitive.Name, impl any) (T, error) {
	v, ok := impl.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s is bound to %T, want %T", ErrImplementationType, name, impl, (*T)(nil))
	}
	return v, nil
}
