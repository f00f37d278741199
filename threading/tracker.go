package threading

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/baxromumarov/greenpatch/green"
	"github.com/baxromumarov/greenpatch/internal/logger"
	"github.com/baxromumarov/greenpatch/primitive"
)

// nativeIdentBase keeps native identities disjoint from task IDs.
const nativeIdentBase = uint64(1) << 62

// Metrics receives thread registry changes.
type Metrics interface {
	SetThreadsActive(kind string, n int)
}

// TrackerOption configures a [Tracker].
type TrackerOption func(*Tracker)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) TrackerOption {
	return func(t *Tracker) {
		t.metrics = m
	}
}

// Tracker is the registry of live thread-like handles.
//
// Attach it to a hub with [Tracker.HubOptions]. Tasks spawned directly on
// the hub are tracked only while the tracker is enabled. Threads started
// through [GreenThreads] or [Tracker.StartNative] are always tracked.
type Tracker struct {
	enabled atomic.Bool

	mu      sync.Mutex
	green   map[*green.Task]*GreenThread
	native  map[uint64]*NativeThread
	metrics Metrics

	greenSeq  atomic.Uint64
	dummySeq  atomic.Uint64
	nativeSeq atomic.Uint64
}

// NewTracker returns a disabled tracker.
func NewTracker(opts ...TrackerOption) *Tracker {
	t := &Tracker{
		green:  make(map[*green.Task]*GreenThread),
		native: make(map[uint64]*NativeThread),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Enable starts wrapping hub tasks. It is wired to the activation of the
// thread primitive and is never undone.
func (t *Tracker) Enable() {
	if t.enabled.CompareAndSwap(false, true) {
		logger.Debug("thread shim enabled")
	}
}

// Enabled reports whether hub tasks are being wrapped.
func (t *Tracker) Enabled() bool {
	return t.enabled.Load()
}

// HubOptions returns the hooks that connect the tracker to a hub.
func (t *Tracker) HubOptions() []green.Option {
	return []green.Option{
		green.WithOnSpawn(t.onSpawn),
		green.WithOnExit(t.onExit),
	}
}

func (t *Tracker) onSpawn(task *green.Task) {
	if !t.enabled.Load() {
		return
	}
	t.track(task, "")
}

func (t *Tracker) onExit(task *green.Task, _ error, _ time.Duration) {
	t.mu.Lock()
	_, ok := t.green[task]
	delete(t.green, task)
	n := len(t.green)
	t.mu.Unlock()

	if ok && t.metrics != nil {
		t.metrics.SetThreadsActive("green", n)
	}
}

// shimKey is the task-local slot holding a task's shim.
type shimKey struct{}

// track registers task before it runs. A task without a shim gets one named
// name, or the next "GreenThread-N" when name is empty. Tracking a task
// twice keeps its first shim.
func (t *Tracker) track(task *green.Task, name string) *GreenThread {
	th, ok := task.Value(shimKey{}).(*GreenThread)
	if !ok {
		if name == "" {
			name = fmt.Sprintf("GreenThread-%d", t.greenSeq.Add(1))
		}
		actual, _ := task.LoadOrStore(shimKey{}, newGreenThread(task, name))
		th = actual.(*GreenThread)
	}

	t.mu.Lock()
	t.green[task] = th
	n := len(t.green)
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.SetThreadsActive("green", n)
	}
	return th
}

// Wrap returns the shim for task. A task spawned while the tracker was
// disabled gets an untracked "Dummy-N" shim on first use, so the
// "GreenThread-N" sequence only counts tracked threads. Repeated calls
// return the same shim.
func (t *Tracker) Wrap(task *green.Task) *GreenThread {
	if th, ok := task.Value(shimKey{}).(*GreenThread); ok {
		return th
	}
	th := newGreenThread(task, fmt.Sprintf("Dummy-%d", t.dummySeq.Add(1)))
	actual, _ := task.LoadOrStore(shimKey{}, th)
	return actual.(*GreenThread)
}

// Lookup returns the tracked shim for task.
func (t *Tracker) Lookup(task *green.Task) (*GreenThread, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	th, ok := t.green[task]
	return th, ok
}

type nativeKey struct{}

// Current returns the thread running with ctx: the native thread started
// by [Tracker.StartNative], or the shim of the hub task.
func (t *Tracker) Current(ctx context.Context) (primitive.ThreadHandle, bool) {
	if n, ok := ctx.Value(nativeKey{}).(*NativeThread); ok {
		return n, true
	}
	task, ok := green.FromContext(ctx)
	if !ok {
		return nil, false
	}
	return t.Wrap(task), true
}

// Enumerate returns every live handle ordered by identity.
func (t *Tracker) Enumerate() []primitive.ThreadHandle {
	t.mu.Lock()
	out := make([]primitive.ThreadHandle, 0, len(t.green)+len(t.native))
	for _, th := range t.green {
		out = append(out, th)
	}
	for _, th := range t.native {
		out = append(out, th)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Ident() < out[j].Ident() })
	return out
}

// ActiveCount returns the number of live handles.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.green) + len(t.native)
}

// GreenCount returns the number of live green threads.
func (t *Tracker) GreenCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.green)
}

// StartNative runs fn on a goroutine locked to its own OS thread and
// tracks it until fn returns. An empty name gets the default "Thread-N".
func (t *Tracker) StartNative(name string, fn func(ctx context.Context)) *NativeThread {
	if fn == nil {
		panic("threading: StartNative requires a non-nil function")
	}

	seq := t.nativeSeq.Add(1)
	if name == "" {
		name = fmt.Sprintf("Thread-%d", seq)
	}
	th := &NativeThread{
		ident: nativeIdentBase + seq,
		done:  make(chan struct{}),
	}
	th.name.set(name)

	t.mu.Lock()
	t.native[th.ident] = th
	n := len(t.native)
	t.mu.Unlock()
	if t.metrics != nil {
		t.metrics.SetThreadsActive("native", n)
	}

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer t.nativeExit(th)

		fn(context.WithValue(context.Background(), nativeKey{}, th))
	}()
	return th
}

func (t *Tracker) nativeExit(th *NativeThread) {
	t.mu.Lock()
	delete(t.native, th.ident)
	n := len(t.native)
	t.mu.Unlock()

	if t.metrics != nil {
		t.metrics.SetThreadsActive("native", n)
	}
	close(th.done)
}
