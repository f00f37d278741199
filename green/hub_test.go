package green

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baxromumarov/greenpatch"
)

func TestSpawnAndWait(t *testing.T) {
	h := NewHub(context.Background())

	var count atomic.Int32
	for range 10 {
		h.Spawn(func(context.Context) error {
			count.Add(1)
			return nil
		})
	}
	h.Wait()

	assert.Equal(t, int32(10), count.Load())
	assert.Equal(t, int64(10), h.TotalSpawned())
	assert.Equal(t, int64(0), h.ActiveTasks())
}

func TestTaskErrorAndIdentity(t *testing.T) {
	h := NewHub(context.Background())
	sentinel := errors.New("task failed")

	a := h.Spawn(func(context.Context) error { return sentinel })
	b := h.Spawn(func(context.Context) error { return nil })

	assert.Same(t, sentinel, a.Wait(context.Background()))
	assert.NoError(t, b.Wait(context.Background()))
	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, a.Dead())
	assert.False(t, a.Daemon())
}

func TestTaskPanicIsCaptured(t *testing.T) {
	h := NewHub(context.Background())
	task := h.Spawn(func(context.Context) error { panic("kaboom") })

	err := task.Wait(context.Background())
	require.Error(t, err)
	assert.True(t, IsPanic(err))

	var pe *greenpatch.PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "kaboom", pe.Value)
}

func TestTaskFromContext(t *testing.T) {
	h := NewHub(context.Background())

	seen := make(chan *Task, 1)
	task := h.Spawn(func(ctx context.Context) error {
		self, ok := FromContext(ctx)
		if ok {
			seen <- self
		}
		return nil
	})
	h.Wait()

	assert.Same(t, task, <-seen)
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

func TestWaitTimeout(t *testing.T) {
	h := NewHub(context.Background())
	release := make(chan struct{})
	task := h.Spawn(func(context.Context) error {
		<-release
		return nil
	})

	assert.False(t, task.WaitTimeout(10*time.Millisecond))
	assert.False(t, task.Dead())

	close(release)
	assert.True(t, task.WaitTimeout(0))
	assert.True(t, task.Dead())
}

func TestWaitHonoursContext(t *testing.T) {
	h := NewHub(context.Background())
	release := make(chan struct{})
	defer close(release)
	task := h.Spawn(func(context.Context) error {
		<-release
		return nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, task.Wait(ctx), context.DeadlineExceeded)
}

func TestSpawnNIsNotJoined(t *testing.T) {
	h := NewHub(context.Background())
	release := make(chan struct{})
	h.SpawnN(func(context.Context) error {
		<-release
		return errors.New("ignored")
	})

	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait must not block on fire-and-forget tasks")
	}
	assert.Equal(t, int64(1), h.ActiveTasks())
	close(release)
}

func TestHooks(t *testing.T) {
	var (
		mu      sync.Mutex
		spawned []uint64
		exited  = map[uint64]error{}
	)
	h := NewHub(context.Background(),
		WithOnSpawn(func(task *Task) {
			mu.Lock()
			spawned = append(spawned, task.ID())
			mu.Unlock()
		}),
		WithOnExit(func(task *Task, err error, _ time.Duration) {
			assert.False(t, task.Dead(), "exit hook runs before the task is marked finished")
			mu.Lock()
			exited[task.ID()] = err
			mu.Unlock()
		}),
	)

	sentinel := errors.New("bad")
	a := h.Spawn(func(context.Context) error { return nil })
	b := h.Spawn(func(context.Context) error { return sentinel })
	h.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{a.ID(), b.ID()}, spawned)
	assert.NoError(t, exited[a.ID()])
	assert.Same(t, sentinel, exited[b.ID()])
}

func TestParentCancelDoesNotStopTasks(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	h := NewHub(parent)
	cancel()

	task := h.Spawn(func(ctx context.Context) error { return ctx.Err() })
	assert.NoError(t, task.Wait(context.Background()))
}

func TestSleep(t *testing.T) {
	h := NewHub(context.Background())

	start := time.Now()
	require.NoError(t, h.Sleep(context.Background(), 5*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, h.Sleep(ctx, time.Hour), context.Canceled)
	assert.ErrorIs(t, h.Sleep(ctx, 0), context.Canceled)
}

func TestTaskLocals(t *testing.T) {
	h := NewHub(context.Background())
	task := h.Spawn(func(context.Context) error { return nil })
	h.Wait()

	assert.Nil(t, task.Value("k"))
	v, loaded := task.LoadOrStore("k", 1)
	assert.False(t, loaded)
	assert.Equal(t, 1, v)
	v, loaded = task.LoadOrStore("k", 2)
	assert.True(t, loaded)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, task.Value("k"))
}

func TestSpawnWithRunsInitFirst(t *testing.T) {
	var (
		mu    sync.Mutex
		order []string
	)
	record := func(s string) {
		mu.Lock()
		order = append(order, s)
		mu.Unlock()
	}

	h := NewHub(context.Background(), WithOnSpawn(func(task *Task) {
		assert.Equal(t, "ready", task.Value("state"))
		record("spawn hook")
	}))

	task := h.SpawnWith(func(ctx context.Context) error {
		self, _ := FromContext(ctx)
		assert.Equal(t, "ready", self.Value("state"))
		record("body")
		return nil
	}, func(task *Task) {
		task.LoadOrStore("state", "ready")
		record("init")
	})
	h.Wait()

	assert.True(t, task.Dead())
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"init", "spawn hook", "body"}, order)
}
