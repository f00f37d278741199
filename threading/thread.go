package threading

import (
	"fmt"
	"sync"
	"time"

	"github.com/baxromumarov/greenpatch/green"
	"github.com/baxromumarov/greenpatch/primitive"
)

var (
	_ primitive.ThreadHandle = (*GreenThread)(nil)
	_ primitive.ThreadHandle = (*NativeThread)(nil)
)

// nameField is the single mutable name every accessor alias reads.
type nameField struct {
	mu   sync.RWMutex
	name string
}

func (f *nameField) get() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.name
}

func (f *nameField) set(name string) {
	f.mu.Lock()
	f.name = name
	f.mu.Unlock()
}

// GreenThread presents a lightweight task as a native thread.
type GreenThread struct {
	task *green.Task
	name nameField
}

func newGreenThread(task *green.Task, name string) *GreenThread {
	g := &GreenThread{task: task}
	g.name.set(name)
	return g
}

// Task returns the wrapped task.
func (g *GreenThread) Task() *green.Task { return g.task }

func (g *GreenThread) Name() string        { return g.name.get() }
func (g *GreenThread) GetName() string     { return g.name.get() }
func (g *GreenThread) SetName(name string) { g.name.set(name) }
func (g *GreenThread) Rename(name string)  { g.name.set(name) }

// Ident is the task's identity.
func (g *GreenThread) Ident() uint64    { return g.task.ID() }
func (g *GreenThread) GetIdent() uint64 { return g.task.ID() }

func (g *GreenThread) IsAlive() bool { return !g.task.Dead() }
func (g *GreenThread) Alive() bool   { return g.IsAlive() }

// IsDaemon is true for fire-and-forget tasks, which nothing waits for at
// shutdown, and false for joinable ones. It cannot be changed.
func (g *GreenThread) IsDaemon() bool { return g.task.Daemon() }
func (g *GreenThread) Daemon() bool   { return g.IsDaemon() }

// Join parks the caller until the task finishes. It reports false when
// timeout elapsed first; timeout <= 0 waits without limit.
func (g *GreenThread) Join(timeout time.Duration) bool {
	return g.task.WaitTimeout(timeout)
}

func (g *GreenThread) String() string {
	return describe("GreenThread", g.Name(), g.Ident(), g.IsAlive(), g.IsDaemon())
}

// NativeThread is a handle for a goroutine locked to its own OS thread.
type NativeThread struct {
	ident uint64
	name  nameField
	done  chan struct{}
}

func (n *NativeThread) Name() string        { return n.name.get() }
func (n *NativeThread) GetName() string     { return n.name.get() }
func (n *NativeThread) SetName(name string) { n.name.set(name) }
func (n *NativeThread) Rename(name string)  { n.name.set(name) }

func (n *NativeThread) Ident() uint64    { return n.ident }
func (n *NativeThread) GetIdent() uint64 { return n.ident }

func (n *NativeThread) IsAlive() bool {
	select {
	case <-n.done:
		return false
	default:
		return true
	}
}
func (n *NativeThread) Alive() bool { return n.IsAlive() }

func (n *NativeThread) IsDaemon() bool { return false }
func (n *NativeThread) Daemon() bool   { return false }

// Join waits for the thread body to return.
func (n *NativeThread) Join(timeout time.Duration) bool {
	if timeout <= 0 {
		<-n.done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-n.done:
		return true
	case <-timer.C:
		return false
	}
}

func (n *NativeThread) String() string {
	return describe("Thread", n.Name(), n.Ident(), n.IsAlive(), n.IsDaemon())
}

func describe(kind, name string, ident uint64, alive, daemon bool) string {
	state := "stopped"
	if alive {
		state = "started"
	}
	if daemon {
		state += " daemon"
	}
	return fmt.Sprintf("<%s(%s, %s %d)>", kind, name, state, ident)
}
