package providers

import (
	"context"
	"net"

	"github.com/baxromumarov/greenpatch/primitive"
)

var (
	_ primitive.Sockets = BlockingSockets{}
	_ primitive.Sockets = CooperativeSockets{}
)

// BlockingSockets dials and listens without cancellation.
type BlockingSockets struct{}

func (BlockingSockets) Dial(_ context.Context, network, address string) (net.Conn, error) {
	return net.Dial(network, address)
}

func (BlockingSockets) Listen(_ context.Context, network, address string) (net.Listener, error) {
	return net.Listen(network, address)
}

// CooperativeSockets dials and listens under the caller's context.
type CooperativeSockets struct {
	Dialer net.Dialer
}

func (s CooperativeSockets) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	return s.Dialer.DialContext(ctx, network, address)
}

func (CooperativeSockets) Listen(ctx context.Context, network, address string) (net.Listener, error) {
	var lc net.ListenConfig
	return lc.Listen(ctx, network, address)
}
