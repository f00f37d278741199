package tpool

import "time"

// DefaultMaxWorkers bounds the pool when no size is configured.
const DefaultMaxWorkers = 20

// Metrics receives offload activity.
type Metrics interface {
	ObserveOffload(d time.Duration, err error)
	SetOffloadInFlight(n int64)
	SetOffloadWorkers(n int)
}

type config struct {
	maxWorkers int
	metrics    Metrics
}

// Option configures a [Pool].
type Option func(*config)

func defaultConfig() config {
	return config{maxWorkers: DefaultMaxWorkers}
}

// WithMaxWorkers bounds the number of native workers.
// It panics if n <= 0.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n <= 0 {
			panic("tpool: WithMaxWorkers requires n > 0")
		}
		c.maxWorkers = n
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(c *config) {
		c.metrics = m
	}
}
