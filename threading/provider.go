package threading

import (
	"context"

	"github.com/baxromumarov/greenpatch/green"
	"github.com/baxromumarov/greenpatch/primitive"
)

var (
	_ primitive.Threads = (*GreenThreads)(nil)
	_ primitive.Threads = (*NativeThreads)(nil)
)

// GreenThreads is the cooperative "thread" implementation: threads are
// joinable hub tasks seen through the shim.
type GreenThreads struct {
	hub     *green.Hub
	tracker *Tracker
}

// NewGreenThreads binds the provider to hub and tracker.
func NewGreenThreads(hub *green.Hub, tracker *Tracker) *GreenThreads {
	return &GreenThreads{hub: hub, tracker: tracker}
}

// Start spawns fn as a joinable task tracked from before it runs. An empty
// name gets the default "GreenThread-N".
func (g *GreenThreads) Start(name string, fn func(ctx context.Context)) primitive.ThreadHandle {
	var th *GreenThread
	g.hub.SpawnWith(func(ctx context.Context) error {
		fn(ctx)
		return nil
	}, func(task *green.Task) {
		th = g.tracker.track(task, name)
	})
	return th
}

func (g *GreenThreads) Current(ctx context.Context) (primitive.ThreadHandle, bool) {
	return g.tracker.Current(ctx)
}

func (g *GreenThreads) Enumerate() []primitive.ThreadHandle {
	return g.tracker.Enumerate()
}

func (g *GreenThreads) ActiveCount() int {
	return g.tracker.ActiveCount()
}

// NativeThreads is the blocking "thread" implementation: every thread is a
// goroutine locked to an OS thread.
type NativeThreads struct {
	tracker *Tracker
}

// NewNativeThreads binds the provider to tracker.
func NewNativeThreads(tracker *Tracker) *NativeThreads {
	return &NativeThreads{tracker: tracker}
}

func (n *NativeThreads) Start(name string, fn func(ctx context.Context)) primitive.ThreadHandle {
	return n.tracker.StartNative(name, fn)
}

func (n *NativeThreads) Current(ctx context.Context) (primitive.ThreadHandle, bool) {
	return n.tracker.Current(ctx)
}

func (n *NativeThreads) Enumerate() []primitive.ThreadHandle {
	return n.tracker.Enumerate()
}

func (n *NativeThreads) ActiveCount() int {
	return n.tracker.ActiveCount()
}
