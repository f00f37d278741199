package greenpatch

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/baxromumarov/greenpatch/internal/logger"
	"github.com/baxromumarov/greenpatch/primitive"
)

// defaultPatched is the dependency set [Environment.ImportPatched] and
// [Environment.Inject] substitute when the caller names none.
var defaultPatched = []primitive.Name{
	primitive.OS, primitive.Select, primitive.Socket, primitive.Thread, primitive.Time,
}

// Unit is a loadable unit of code. It resolves its dependencies through
// ns, keeps its top-level state in ns, and returns its exported value.
type Unit func(ns *Namespace) (any, error)

// Catalog maps unit names to their loaders.
type Catalog struct {
	mu    sync.RWMutex
	units map[string]Unit
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{units: make(map[string]Unit)}
}

// Register adds a unit. It panics if u is nil.
func (c *Catalog) Register(name string, u Unit) error {
	if u == nil {
		panic("greenpatch: Register requires a non-nil unit")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.units[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateUnit, name)
	}
	c.units[name] = u
	return nil
}

// MustRegister is like [Catalog.Register] but panics on error.
func (c *Catalog) MustRegister(name string, u Unit) {
	if err := c.Register(name, u); err != nil {
		panic(err)
	}
}

// Lookup returns the unit registered under name.
func (c *Catalog) Lookup(name string) (Unit, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.units[name]
	return u, ok
}

// Names returns the registered unit names in sorted order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.units))
	for n := range c.units {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Module is one loaded instance of a unit.
type Module struct {
	// ID is unique per load. Two isolated loads of the same unit differ.
	ID        uuid.UUID
	Name      string
	Isolated  bool
	Namespace *Namespace
	Value     any
}

// Namespace is the private scope a unit executes in: dependency overrides
// layered over a parent resolver, plus the unit's top-level variables.
type Namespace struct {
	parent Resolver
	load   func(unit string) (*Module, error)

	mu   sync.RWMutex
	deps map[primitive.Name]any
	vars map[string]any
}

// NewNamespace returns an empty namespace resolving through parent.
func NewNamespace(parent Resolver) *Namespace {
	return &Namespace{
		parent: parent,
		deps:   make(map[primitive.Name]any),
		vars:   make(map[string]any),
	}
}

// Resolve returns the override for name if one exists, otherwise the
// parent's binding.
func (ns *Namespace) Resolve(name primitive.Name) (any, error) {
	ns.mu.RLock()
	impl, ok := ns.deps[name]
	ns.mu.RUnlock()
	if ok {
		return impl, nil
	}
	if ns.parent == nil {
		return nil, &primitive.UnknownPrimitiveError{Name: name}
	}
	return ns.parent.Resolve(name)
}

// Override binds name to impl inside this namespace only.
func (ns *Namespace) Override(name primitive.Name, impl any) {
	ns.mu.Lock()
	ns.deps[name] = impl
	ns.mu.Unlock()
}

// Overrides returns a copy of the namespace's own dependency bindings.
func (ns *Namespace) Overrides() map[primitive.Name]any {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	out := make(map[primitive.Name]any, len(ns.deps))
	for n, impl := range ns.deps {
		out[n] = impl
	}
	return out
}

// Set stores a top-level variable.
func (ns *Namespace) Set(key string, v any) {
	ns.mu.Lock()
	ns.vars[key] = v
	ns.mu.Unlock()
}

// Get returns a top-level variable, or nil.
func (ns *Namespace) Get(key string) any {
	v, _ := ns.Lookup(key)
	return v
}

// Lookup returns a top-level variable and whether it exists.
func (ns *Namespace) Lookup(key string) (any, bool) {
	ns.mu.RLock()
	defer ns.mu.RUnlock()
	v, ok := ns.vars[key]
	return v, ok
}

// Keys returns the top-level variable names in sorted order.
func (ns *Namespace) Keys() []string {
	ns.mu.RLock()
	defer ns.mu.RUnlock()

	out := make([]string, 0, len(ns.vars))
	for k := range ns.vars {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Require loads another unit from inside a unit. Under an isolated load
// the dependency is loaded isolated with the same overrides; otherwise it
// goes through [Environment.Import].
func (ns *Namespace) Require(unit string) (*Module, error) {
	if ns.load == nil {
		return nil, fmt.Errorf("%w: %q (namespace has no loader)", ErrUnknownUnit, unit)
	}
	return ns.load(unit)
}

func (ns *Namespace) merge(src *Namespace) {
	deps := src.Overrides()

	src.mu.RLock()
	vars := make(map[string]any, len(src.vars))
	for k, v := range src.vars {
		vars[k] = v
	}
	src.mu.RUnlock()

	ns.mu.Lock()
	defer ns.mu.Unlock()
	for k, v := range vars {
		ns.vars[k] = v
	}
	for n, impl := range deps {
		ns.deps[n] = impl
	}
}

// Import loads unit through the ambient bindings and caches it in the
// environment's module table. Later imports return the cached module.
// Concurrent imports of the same unit run it once and share the result;
// a failed import is not cached.
func (e *Environment) Import(unit string) (*Module, error) {
	return e.importUnit(unit, nil)
}

// inflight is an import in progress. done closes once mod or err is set.
type inflight struct {
	done chan struct{}
	mod  *Module
	err  error
}

func (e *Environment) importUnit(unit string, chain []string) (*Module, error) {
	if err := checkCycle(unit, chain); err != nil {
		return nil, err
	}

	e.modMu.Lock()
	if mod, ok := e.modules[unit]; ok {
		e.modMu.Unlock()
		return mod, nil
	}
	if call, ok := e.loading[unit]; ok {
		e.modMu.Unlock()
		<-call.done
		return call.mod, call.err
	}
	call := &inflight{done: make(chan struct{})}
	e.loading[unit] = call
	e.modMu.Unlock()

	finish := func() {
		e.modMu.Lock()
		delete(e.loading, unit)
		if call.err == nil {
			e.modules[unit] = call.mod
		}
		e.modMu.Unlock()
		close(call.done)
	}
	defer func() {
		if r := recover(); r != nil {
			call.err = NewPanicError(r)
			finish()
			panic(r)
		}
	}()

	chain = append(slices.Clip(chain), unit)
	ns := NewNamespace(e)
	ns.load = func(dep string) (*Module, error) {
		return e.importUnit(dep, chain)
	}

	call.mod, call.err = e.execute(unit, ns, false)
	finish()
	return call.mod, call.err
}

func checkCycle(unit string, chain []string) error {
	i := slices.Index(chain, unit)
	if i < 0 {
		return nil
	}
	return &ImportCycleError{Units: append(slices.Clone(chain[i:]), unit)}
}

// Imported reports whether unit sits in the module table.
func (e *Environment) Imported(unit string) bool {
	e.modMu.Lock()
	defer e.modMu.Unlock()
	_, ok := e.modules[unit]
	return ok
}

// LoadIsolated executes unit in a fresh namespace where each name in
// overrides resolves to the supplied handle and every other dependency
// resolves through the ambient bindings. The module is never cached, so
// every call returns an independent instance. Activation state is not
// touched.
//
// An error returned by the unit is passed through unchanged; a panic
// propagates to the caller.
func (e *Environment) LoadIsolated(unit string, overrides map[primitive.Name]any) (*Module, error) {
	for n := range overrides {
		if !n.Valid() {
			return nil, &primitive.UnknownPrimitiveError{Name: n}
		}
	}
	return e.loadIsolated(unit, overrides, nil)
}

func (e *Environment) loadIsolated(unit string, overrides map[primitive.Name]any, chain []string) (*Module, error) {
	if err := checkCycle(unit, chain); err != nil {
		return nil, err
	}

	chain = append(slices.Clip(chain), unit)
	ns := NewNamespace(e)
	for n, impl := range overrides {
		ns.deps[n] = impl
	}
	ns.load = func(dep string) (*Module, error) {
		return e.loadIsolated(dep, overrides, chain)
	}
	return e.execute(unit, ns, true)
}

// ImportPatched is [Environment.LoadIsolated] with cooperative defaults:
// when overrides is empty, os, select, socket, thread and time resolve to
// their cooperative implementations.
func (e *Environment) ImportPatched(unit string, overrides map[primitive.Name]any) (*Module, error) {
	if len(overrides) == 0 {
		var err error
		overrides, err = e.cooperative(defaultPatched)
		if err != nil {
			return nil, err
		}
	}
	return e.LoadIsolated(unit, overrides)
}

// Inject loads unit isolated with overrides (cooperative defaults when
// empty) and merges the result into target: the unit's top-level
// variables and the overrides themselves. No module handle is returned.
func (e *Environment) Inject(unit string, target *Namespace, overrides map[primitive.Name]any) error {
	if target == nil {
		panic("greenpatch: Inject requires a target namespace")
	}
	mod, err := e.ImportPatched(unit, overrides)
	if err != nil {
		return err
	}
	target.merge(mod.Namespace)
	return nil
}

// Cooperative returns the cooperative handle of every name, keyed by name.
// Use it to build overrides for [Environment.LoadIsolated].
func (e *Environment) Cooperative(names ...primitive.Name) (map[primitive.Name]any, error) {
	return e.cooperative(names)
}

func (e *Environment) cooperative(names []primitive.Name) (map[primitive.Name]any, error) {
	out := make(map[primitive.Name]any, len(names))
	for _, n := range names {
		pair, err := e.reg.Lookup(n)
		if err != nil {
			return nil, err
		}
		out[n] = pair.Cooperative
	}
	return out, nil
}

func (e *Environment) execute(unit string, ns *Namespace, isolated bool) (*Module, error) {
	fn, ok := e.cfg.catalog.Lookup(unit)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, unit)
	}

	val, err := fn(ns)
	if err != nil {
		return nil, err
	}

	mod := &Module{
		ID:        uuid.New(),
		Name:      unit,
		Isolated:  isolated,
		Namespace: ns,
		Value:     val,
	}
	logger.Debug("unit loaded", "unit", unit, "isolated", isolated, "instance", mod.ID.String())
	if e.cfg.metrics != nil {
		e.cfg.metrics.RecordLoad(unit, isolated)
	}
	return mod, nil
}
