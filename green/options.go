package green

import "time"

type config struct {
	onSpawn func(*Task)
	onExit  func(*Task, error, time.Duration)
}

// Option configures a [Hub].
type Option func(*config)

// WithOnSpawn registers a hook invoked synchronously inside Spawn and
// SpawnN, before the task's goroutine starts.
func WithOnSpawn(fn func(*Task)) Option {
	return func(c *config) {
		c.onSpawn = fn
	}
}

// WithOnExit registers a hook invoked when each task finishes, with the
// task's error (nil on success) and wall-clock duration. It runs inside the
// task's goroutine before the task is marked finished.
func WithOnExit(fn func(*Task, error, time.Duration)) Option {
	return func(c *config) {
		c.onExit = fn
	}
}
