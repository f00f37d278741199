package config

import (
	"strings"
	"time"

	"github.com/baxromumarov/greenpatch/tpool"
)

// Default returns a configuration with every default applied. Its patch
// section is empty, which activates the built-in default set.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero values.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	cfg.Logging.Level = strings.ToUpper(cfg.Logging.Level)
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}

	if cfg.Patch == nil {
		cfg.Patch = map[string]bool{}
	}

	if cfg.Offload.MaxWorkers == 0 {
		cfg.Offload.MaxWorkers = tpool.DefaultMaxWorkers
	}
	if cfg.Offload.ShutdownTimeout == 0 {
		cfg.Offload.ShutdownTimeout = 30 * time.Second
	}

	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9090
	}
}
