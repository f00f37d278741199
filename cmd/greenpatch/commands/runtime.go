package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/config"
	"github.com/baxromumarov/greenpatch/internal/logger"
	"github.com/baxromumarov/greenpatch/metrics"
	"github.com/baxromumarov/greenpatch/providers"
	"github.com/baxromumarov/greenpatch/threading"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, nil
}

// newRuntime wires a runtime for cfg. A nil registry leaves the metrics
// collectors unregistered.
func newRuntime(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*providers.Runtime, *metrics.Metrics, error) {
	m := metrics.New(reg)

	opts := []greenpatch.Option{greenpatch.WithMetrics(m)}
	if cfg.EagerOriginals {
		opts = append(opts, greenpatch.WithEagerOriginals())
	}

	rt, err := providers.Setup(ctx, opts, threading.WithMetrics(m))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up runtime: %w", err)
	}
	return rt, m, nil
}
