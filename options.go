package greenpatch

import "github.com/baxromumarov/greenpatch/primitive"

// Metrics receives activation and loader events. The metrics package
// provides a Prometheus implementation.
type Metrics interface {
	RecordActivation(name string)
	SetActivePrimitives(n int)
	RecordLoad(unit string, isolated bool)
}

type config struct {
	eagerOriginals bool
	onActivate     []func(primitive.Name)
	metrics        Metrics
	catalog        *Catalog
}

// Option configures an [Environment].
type Option func(*config)

func defaultConfig() config {
	return config{}
}

// WithEagerOriginals captures every primitive's original implementation
// when the environment is created, so [Environment.Original] can never
// observe a patched binding.
func WithEagerOriginals() Option {
	return func(c *config) {
		c.eagerOriginals = true
	}
}

// WithOnActivate registers a hook invoked once per primitive, the first
// time it becomes active. Hooks run in registration order after the
// activation lock is released.
func WithOnActivate(fn func(primitive.Name)) Option {
	return func(c *config) {
		if fn != nil {
			c.onActivate = append(c.onActivate, fn)
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// WithCatalog sets the unit catalog used by the loader.
// It panics if cat is nil.
func WithCatalog(cat *Catalog) Option {
	return func(c *config) {
		if cat == nil {
			panic("greenpatch: WithCatalog requires a non-nil catalog")
		}
		c.catalog = cat
	}
}
