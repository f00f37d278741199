package green

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/internal/logger"
)

// Hub spawns and tracks lightweight tasks.
type Hub struct {
	ctx context.Context
	cfg config

	nextID atomic.Uint64
	wg     sync.WaitGroup // joinable tasks only

	// Observability counters.
	totalSpawned atomic.Int64
	activeTasks  atomic.Int64
}

// NewHub returns a hub whose tasks inherit values from parent.
// Cancelling parent does not stop running tasks; they end on their own.
func NewHub(parent context.Context, opts ...Option) *Hub {
	cfg := config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Hub{
		ctx: context.WithoutCancel(parent),
		cfg: cfg,
	}
}

// Spawn starts a joinable task. The hub waits for it in [Hub.Wait].
func (h *Hub) Spawn(fn TaskFunc) *Task {
	return h.spawn(fn, nil, false)
}

// SpawnWith starts a joinable task like [Hub.Spawn] but calls init with the
// new task first. init runs on the caller's goroutine before the spawn hook
// and before fn starts.
func (h *Hub) SpawnWith(fn TaskFunc, init func(*Task)) *Task {
	return h.spawn(fn, init, false)
}

// SpawnN starts a fire-and-forget task. Nobody waits for it; a failure is
// logged and dropped.
func (h *Hub) SpawnN(fn TaskFunc) {
	h.spawn(fn, nil, true)
}

func (h *Hub) spawn(fn TaskFunc, init func(*Task), daemon bool) *Task {
	if fn == nil {
		panic("green: Spawn requires a non-nil task function")
	}

	t := &Task{
		id:     h.nextID.Add(1),
		daemon: daemon,
		done:   make(chan struct{}),
	}
	if !daemon {
		h.wg.Add(1)
	}
	h.totalSpawned.Add(1)
	h.activeTasks.Add(1)

	if init != nil {
		init(t)
	}
	if h.cfg.onSpawn != nil {
		h.cfg.onSpawn(t)
	}

	go func() {
		if !daemon {
			defer h.wg.Done()
		}

		start := time.Now()
		err := h.exec(context.WithValue(h.ctx, taskKey{}, t), fn)
		elapsed := time.Since(start)

		if h.cfg.onExit != nil {
			h.cfg.onExit(t, err, elapsed)
		}
		if err != nil && daemon {
			logger.Warn("fire-and-forget task failed", "task", t.id, "error", err)
		}

		t.err = err
		h.activeTasks.Add(-1)
		close(t.done)
	}()

	return t
}

// exec runs fn with panic recovery.
func (h *Hub) exec(ctx context.Context, fn TaskFunc) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = greenpatch.NewPanicError(r)
		}
	}()
	return fn(ctx)
}

// Sleep parks the calling task for d or until ctx is done.
func (h *Hub) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		h.Yield()
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Yield lets other tasks run.
func (h *Hub) Yield() {
	runtime.Gosched()
}

// Wait blocks until every joinable task has finished. Fire-and-forget
// tasks are not waited for.
func (h *Hub) Wait() {
	h.wg.Wait()
}

// ActiveTasks returns the number of tasks that have not finished.
func (h *Hub) ActiveTasks() int64 {
	return h.activeTasks.Load()
}

// TotalSpawned returns the number of tasks spawned so far.
func (h *Hub) TotalSpawned() int64 {
	return h.totalSpawned.Load()
}

// IsPanic reports whether err came from a panicking task.
func IsPanic(err error) bool {
	var pe *greenpatch.PanicError
	return errors.As(err, &pe)
}
