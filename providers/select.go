package providers

import (
	"context"
	"reflect"
	"time"

	"github.com/baxromumarov/greenpatch/primitive"
)

var (
	_ primitive.Selector = BlockingSelector{}
	_ primitive.Selector = CooperativeSelector{}
)

// BlockingSelector waits on the channels and the timeout only.
type BlockingSelector struct{}

func (BlockingSelector) Select(_ context.Context, timeout time.Duration, ready ...<-chan struct{}) (int, error) {
	return selectReady(nil, timeout, ready), nil
}

// CooperativeSelector also wakes up when ctx is done.
type CooperativeSelector struct{}

func (CooperativeSelector) Select(ctx context.Context, timeout time.Duration, ready ...<-chan struct{}) (int, error) {
	i := selectReady(ctx.Done(), timeout, ready)
	if i == -2 {
		return -1, ctx.Err()
	}
	return i, nil
}

// selectReady returns the index of the first ready channel, -1 on timeout
// and -2 when done fired. Nil channels never become ready.
//
// reflect.Select costs more than a static select; one selection per call
// keeps that acceptable.
func selectReady(done <-chan struct{}, timeout time.Duration, ready []<-chan struct{}) int {
	cases := make([]reflect.SelectCase, 0, len(ready)+2)
	for _, ch := range ready {
		c := reflect.SelectCase{Dir: reflect.SelectRecv}
		if ch != nil {
			c.Chan = reflect.ValueOf(ch)
		}
		cases = append(cases, c)
	}

	timeoutIdx, doneIdx := -1, -1
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutIdx = len(cases)
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(timer.C)})
	}
	if done != nil {
		doneIdx = len(cases)
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(done)})
	}

	chosen, _, _ := reflect.Select(cases)
	switch chosen {
	case timeoutIdx:
		return -1
	case doneIdx:
		return -2
	default:
		return chosen
	}
}
