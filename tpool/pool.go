package tpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/internal/logger"
	"github.com/baxromumarov/greenpatch/primitive"
)

// ErrPoolKilled is returned by [Pool.Execute] after [Pool.Killall].
var ErrPoolKilled = errors.New("tpool: pool has been killed")

var tracer = otel.Tracer("github.com/baxromumarov/greenpatch/tpool")

// Pool is a bounded set of native workers executing blocking calls.
type Pool struct {
	threads primitive.Threads
	cfg     config

	calls chan *call
	quit  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	killed  bool
	workers int
	idle    int
	seq     int

	// Observability counters.
	submitted atomic.Int64
	completed atomic.Int64
	errored   atomic.Int64
	inFlight  atomic.Int64
}

type call struct {
	fn   func() (any, error)
	done chan outcome
}

type outcome struct {
	val   any
	err   error
	panic *greenpatch.PanicError
}

// Stats is a point-in-time snapshot of pool activity.
type Stats struct {
	Submitted int64 // calls accepted
	Completed int64 // calls finished (success + error)
	Errored   int64 // calls that failed or panicked
	InFlight  int64 // calls currently executing
	Workers   int   // live native workers
	Idle      int   // workers waiting for a call
	Killed    bool
}

// New returns a pool that starts its workers through threads.
// It panics if threads is nil.
func New(threads primitive.Threads, opts ...Option) *Pool {
	if threads == nil {
		panic("tpool: New requires a thread provider")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Pool{
		threads: threads,
		cfg:     cfg,
		calls:   make(chan *call),
		quit:    make(chan struct{}),
	}
}

// FromEnvironment returns a pool whose workers are native threads taken
// from env's vault, so offloading keeps working after the thread
// primitive is patched.
func FromEnvironment(env *greenpatch.Environment, opts ...Option) (*Pool, error) {
	threads, err := greenpatch.OriginalOf[primitive.Threads](env, primitive.Thread)
	if err != nil {
		return nil, fmt.Errorf("tpool: resolve native threads: %w", err)
	}
	return New(threads, opts...), nil
}

// Execute runs fn on a native worker and parks the caller until it
// returns. The callable's error is returned unchanged. A panic inside fn
// is re-raised in the caller as a [*greenpatch.PanicError].
//
// If ctx ends first, Execute returns ctx.Err(); the call itself runs to
// completion on its worker.
func (p *Pool) Execute(ctx context.Context, fn func() (any, error)) (any, error) {
	if fn == nil {
		panic("tpool: Execute requires a non-nil function")
	}

	ctx, span := tracer.Start(ctx, "tpool.execute", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	c := &call{fn: fn, done: make(chan outcome, 1)}
	if err := p.submit(ctx, c); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	select {
	case out := <-c.done:
		if out.panic != nil {
			span.SetStatus(codes.Error, "panic")
			panic(out.panic)
		}
		if out.err != nil {
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
		}
		return out.val, out.err
	case <-ctx.Done():
		span.SetAttributes(attribute.Bool("tpool.abandoned", true))
		return nil, ctx.Err()
	}
}

// Call is the typed form of [Pool.Execute].
//
//	n, err := tpool.Call(ctx, pool, func() (int, error) { return len("hi"), nil })
func Call[T any](ctx context.Context, p *Pool, fn func() (T, error)) (T, error) {
	v, err := p.Execute(ctx, func() (any, error) { return fn() })
	if err != nil {
		var zero T
		return zero, err
	}
	t, _ := v.(T)
	return t, nil
}

func (p *Pool) submit(ctx context.Context, c *call) error {
	p.mu.Lock()
	if p.killed {
		p.mu.Unlock()
		return ErrPoolKilled
	}
	if p.idle == 0 && p.workers < p.cfg.maxWorkers {
		p.startWorkerLocked()
	}
	p.mu.Unlock()

	select {
	case p.calls <- c:
		p.submitted.Add(1)
		return nil
	case <-p.quit:
		return ErrPoolKilled
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) startWorkerLocked() {
	p.workers++
	p.seq++
	p.wg.Add(1)
	p.threads.Start(fmt.Sprintf("tpool-worker-%d", p.seq), p.worker)

	logger.Debug("offload worker started", "workers", p.workers, "max", p.cfg.maxWorkers)
	if p.cfg.metrics != nil {
		p.cfg.metrics.SetOffloadWorkers(p.workers)
	}
}

func (p *Pool) worker(context.Context) {
	defer p.wg.Done()

	for {
		p.mu.Lock()
		p.idle++
		p.mu.Unlock()

		select {
		case c := <-p.calls:
			p.mu.Lock()
			p.idle--
			p.mu.Unlock()
			p.run(c)

		case <-p.quit:
			p.mu.Lock()
			p.idle--
			p.workers--
			n := p.workers
			p.mu.Unlock()
			if p.cfg.metrics != nil {
				p.cfg.metrics.SetOffloadWorkers(n)
			}
			return
		}
	}
}

func (p *Pool) run(c *call) {
	if p.cfg.metrics != nil {
		p.cfg.metrics.SetOffloadInFlight(p.inFlight.Add(1))
	} else {
		p.inFlight.Add(1)
	}
	start := time.Now()

	var out outcome
	func() {
		defer func() {
			if r := recover(); r != nil {
				out.panic = greenpatch.NewPanicError(r)
			}
		}()
		out.val, out.err = c.fn()
	}()

	elapsed := time.Since(start)
	n := p.inFlight.Add(-1)
	p.completed.Add(1)

	var failure error = out.err
	if out.panic != nil {
		failure = out.panic
	}
	if failure != nil {
		p.errored.Add(1)
	}
	if p.cfg.metrics != nil {
		p.cfg.metrics.SetOffloadInFlight(n)
		p.cfg.metrics.ObserveOffload(elapsed, failure)
	}

	c.done <- out
}

// Killall retires every idle worker and invalidates the pool: later calls
// to Execute fail with [ErrPoolKilled]. Calls already running finish and
// deliver their results; Killall waits for them. Safe to call repeatedly.
func (p *Pool) Killall() {
	p.mu.Lock()
	if !p.killed {
		p.killed = true
		close(p.quit)
	}
	p.mu.Unlock()

	p.wg.Wait()
	logger.Debug("offload pool killed", "completed", p.completed.Load())
}

// Stats returns a point-in-time snapshot of pool activity.
// Safe to call concurrently.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	workers, idle, killed := p.workers, p.idle, p.killed
	p.mu.Unlock()

	return Stats{
		Submitted: p.submitted.Load(),
		Completed: p.completed.Load(),
		Errored:   p.errored.Load(),
		InFlight:  p.inFlight.Load(),
		Workers:   workers,
		Idle:      idle,
		Killed:    killed,
	}
}
