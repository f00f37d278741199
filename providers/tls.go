package providers

import (
	"context"
	"crypto/tls"
	"net"

	"github.com/baxromumarov/greenpatch/primitive"
)

var (
	_ primitive.TLS = BlockingTLS{}
	_ primitive.TLS = CooperativeTLS{}
)

// BlockingTLS handshakes without cancellation.
type BlockingTLS struct{}

func (BlockingTLS) Client(_ context.Context, conn net.Conn, cfg *tls.Config) (*tls.Conn, error) {
	c := tls.Client(conn, cfg)
	if err := c.Handshake(); err != nil {
		return nil, err
	}
	return c, nil
}

// CooperativeTLS aborts the handshake when ctx ends.
type CooperativeTLS struct{}

func (CooperativeTLS) Client(ctx context.Context, conn net.Conn, cfg *tls.Config) (*tls.Conn, error) {
	c := tls.Client(conn, cfg)
	if err := c.HandshakeContext(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
