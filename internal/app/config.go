package app

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelsPath string // directory searched for model manifests

	LogFormat string
	LogLevel  string

	// HTTPPort serves /health and /metrics, plus the editing API in serve
	// mode. Zero disables the server.
	HTTPPort    int
	WorkerCount int

	IndexThreshold  int
	DebounceQuiet   time.Duration
	MaxExportSolids int

	ViewerURL         string
	ViewerNamespace   string
	ViewerInsecure    bool
	ViewerIncludeMesh bool
}

// NewConfig validates cfg and returns a copy.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	if cfg.HTTPPort < 0 || cfg.HTTPPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid HTTP port %d", cfg.HTTPPort))
	}
	if cfg.WorkerCount < 0 {
		errs = append(errs, errors.New("worker count cannot be negative"))
	}
	if cfg.DebounceQuiet < 0 {
		errs = append(errs, errors.New("debounce window cannot be negative"))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &cfg, nil
}
