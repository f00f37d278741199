package providers

import (
	"context"
	"time"

	"github.com/baxromumarov/greenpatch/green"
	"github.com/baxromumarov/greenpatch/primitive"
)

var (
	_ primitive.Clock = BlockingClock{}
	_ primitive.Clock = (*CooperativeClock)(nil)
)

// BlockingClock sleeps the whole goroutine and ignores ctx.
type BlockingClock struct{}

func (BlockingClock) Now() time.Time { return time.Now() }

func (BlockingClock) Sleep(_ context.Context, d time.Duration) error {
	time.Sleep(d)
	return nil
}

// CooperativeClock sleeps through the hub, waking early when ctx ends.
type CooperativeClock struct {
	hub *green.Hub
}

func (*CooperativeClock) Now() time.Time { return time.Now() }

func (c *CooperativeClock) Sleep(ctx context.Context, d time.Duration) error {
	return c.hub.Sleep(ctx, d)
}
