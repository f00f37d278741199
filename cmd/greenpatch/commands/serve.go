package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/baxromumarov/greenpatch"
	"github.com/baxromumarov/greenpatch/config"
	"github.com/baxromumarov/greenpatch/diag"
	"github.com/baxromumarov/greenpatch/internal/logger"
	"github.com/baxromumarov/greenpatch/tpool"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Activate the configured primitives and serve diagnostics",
	Long: `Activate the configured primitives, start the offload pool and, when
metrics are enabled, serve the diagnostics HTTP endpoints until interrupted.

Environment variables override the file, for example:
  GREENPATCH_LOGGING_LEVEL=DEBUG greenpatch serve`,
	RunE: runServe,
}

var serveWatch bool

func init() {
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the config file on change (log level and additional activations)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	rt, m, err := newRuntime(ctx, cfg, registry)
	if err != nil {
		return err
	}

	// The pool takes native threads from the vault, so build it before
	// the thread primitive can be activated.
	pool, err := tpool.FromEnvironment(rt.Env,
		tpool.WithMaxWorkers(cfg.Offload.MaxWorkers),
		tpool.WithMetrics(m),
	)
	if err != nil {
		return err
	}
	defer killPool(pool, cfg.Offload.ShutdownTimeout)

	active, err := rt.Env.Activate(cfg.Settings()...)
	if err != nil {
		return err
	}
	logger.Info("primitives active", "set", active.String())

	if serveWatch {
		go watchConfig(ctx, rt.Env)
	}

	if !cfg.Metrics.Enabled {
		logger.Info("diagnostics disabled; waiting for interrupt")
		<-ctx.Done()
		return nil
	}

	srv := diag.NewServer(cfg.Metrics.Port, diag.Sources{
		Env:      rt.Env,
		Tracker:  rt.Tracker,
		Pool:     pool,
		Gatherer: registry,
	})
	return srv.Start(ctx)
}

func killPool(pool *tpool.Pool, timeout time.Duration) {
	done := make(chan struct{})
	go func() {
		pool.Killall()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
		logger.Warn("offload pool did not drain before timeout", "timeout", timeout.String())
	}
}

// watchConfig applies config changes while serving. Activation is
// monotonic, so a reload can only add primitives.
func watchConfig(ctx context.Context, env *greenpatch.Environment) {
	path := cfgFile
	if path == "" {
		path = config.DefaultPath()
	}
	err := config.Watch(ctx, path, func(cfg *config.Config) {
		logger.SetLevel(cfg.Logging.Level)
		active, err := env.Activate(cfg.Settings()...)
		if err != nil {
			logger.Warn("config reload: activation rejected", "error", err)
			return
		}
		logger.Info("config reload: primitives active", "set", active.String())
	})
	if err != nil {
		logger.Error("config watcher stopped", "error", err)
	}
}
