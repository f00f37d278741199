package greenpatch

import (
	"github.com/baxromumarov/greenpatch/internal/logger"
	"github.com/baxromumarov/greenpatch/primitive"
)

// Original returns the implementation name was bound to the first time
// Original was asked for it. Later calls return the cached handle even
// after activation.
//
// The guarantee of a pristine handle only holds when the first call happens
// before name is activated; a late first call captures the cooperative
// implementation. Build the environment with [WithEagerOriginals] to make
// every original pristine.
func (e *Environment) Original(name primitive.Name) (any, error) {
	if !name.Valid() {
		return nil, &primitive.UnknownPrimitiveError{Name: name}
	}

	e.mu.RLock()
	impl, ok := e.originals[name]
	e.mu.RUnlock()
	if ok {
		return impl, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if impl, ok := e.originals[name]; ok {
		return impl, nil
	}
	impl = e.bindings[name]
	if e.active.Has(name) {
		logger.Warn("original captured after activation; the cooperative implementation was frozen",
			"primitive", string(name))
	}
	e.originals[name] = impl
	return impl, nil
}

// OriginalOf is the typed form of [Environment.Original].
func OriginalOf[T any](e *Environment, name primitive.Name) (T, error) {
	impl, err := e.Original(name)
	if err != nil {
		var zero T
		return zero, err
	}
	return as[T](name, impl)
}
