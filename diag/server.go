package diag

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/baxromumarov/greenpatch/internal/logger"
)

// Server runs the diagnostics router until its context is cancelled.
type Server struct {
	server *http.Server
}

// NewServer returns a stopped server listening on port once started.
func NewServer(port int, src Sources) *Server {
	return &Server{server: &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           NewRouter(src),
		ReadHeaderTimeout: 10 * time.Second,
	}}
}

// Start serves until ctx is cancelled, then shuts down gracefully.
// It returns nil after a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("diagnostics server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("diagnostics server shutdown: %w", err)
		}
		return nil
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return fmt.Errorf("diagnostics server: %w", err)
	}
}
