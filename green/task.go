package green

import (
	"context"
	"sync"
	"time"
)

// TaskFunc is the body of a task. ctx carries the task itself; retrieve it
// with [FromContext].
type TaskFunc func(ctx context.Context) error

// Task is the hub's handle for one lightweight task.
type Task struct {
	id     uint64
	daemon bool
	done   chan struct{}
	err    error

	locals sync.Map
}

// ID returns the task's identity, unique within its hub.
func (t *Task) ID() uint64 { return t.id }

// Daemon reports whether the task was spawned fire-and-forget.
func (t *Task) Daemon() bool { return t.daemon }

// Done returns a channel closed when the task reaches its terminal state.
func (t *Task) Done() <-chan struct{} { return t.done }

// Dead reports whether the task has finished.
func (t *Task) Dead() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait parks the caller until the task finishes or ctx is done. It returns
// the task's error, or ctx.Err() if ctx ended first. Waiting on a finished
// task returns immediately.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitTimeout is like Wait with a relative deadline. It reports false when
// the timeout elapsed first. A timeout <= 0 waits without limit.
func (t *Task) WaitTimeout(timeout time.Duration) bool {
	if timeout <= 0 {
		<-t.done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

// Value returns the task-local value stored under key, or nil.
func (t *Task) Value(key any) any {
	v, _ := t.locals.Load(key)
	return v
}

// LoadOrStore returns the task-local value under key if present.
// Otherwise it stores v and returns it. loaded reports which happened.
func (t *Task) LoadOrStore(key, v any) (actual any, loaded bool) {
	return t.locals.LoadOrStore(key, v)
}

type taskKey struct{}

// FromContext returns the task running with ctx.
func FromContext(ctx context.Context) (*Task, bool) {
	if ctx == nil {
		return nil, false
	}
	t, ok := ctx.Value(taskKey{}).(*Task)
	return t, ok
}
