package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/atlasgrid/internal/cache"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/export"
	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/specialistvlad/atlasgrid/internal/geometry/boxkernel"
	"github.com/specialistvlad/atlasgrid/internal/notify"
	"github.com/specialistvlad/atlasgrid/internal/orchestrator"
	"github.com/specialistvlad/atlasgrid/internal/registry"
	"github.com/specialistvlad/atlasgrid/internal/workerpool"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	ctx    context.Context
	config *Config

	registry  *registry.Registry
	backend   geometry.Backend
	pool      *workerpool.Pool
	orch      *orchestrator.Orchestrator
	debouncer *orchestrator.Debouncer
	exporter  *export.Coordinator
	uploader  *export.Uploader
	notifier  notify.Notifier

	httpServer *http.Server

	loopCancel context.CancelFunc
	loopDone   chan struct{}
	closeOnce  sync.Once
}

// Option customises an App.
type Option func(*options)

type options struct {
	backend  geometry.Backend
	modules  []registry.Module
	notifier notify.Notifier
}

// WithBackend replaces the built-in box kernel.
func WithBackend(b geometry.Backend) Option { return func(o *options) { o.backend = b } }

// WithModules replaces the compiled-in model families.
func WithModules(m ...registry.Module) Option { return func(o *options) { o.modules = m } }

// WithNotifier replaces the notifiers derived from the configuration.
func WithNotifier(n notify.Notifier) Option { return func(o *options) { o.notifier = n } }

// NewApp is the constructor for the main application. It returns a fully
// initialized App with its own isolated logger and registry. The
// orchestrator loop is started; Close releases everything.
func NewApp(outW io.Writer, cfg *Config, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.backend == nil {
		o.backend = boxkernel.New()
	}
	if len(o.modules) == 0 {
		o.modules = coreModules
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	reg := registry.New(cfg.ModelsPath)
	if err := reg.Init(ctx, o.modules...); err != nil {
		return nil, fmt.Errorf("failed to load models: %w", err)
	}
	logger.Debug("All Go modules registered.", "count", len(o.modules))

	notifier := o.notifier
	if notifier == nil {
		n, err := newNotifier(ctx, cfg)
		if err != nil {
			_ = reg.Teardown(ctx)
			return nil, err
		}
		notifier = n
	}

	pool := workerpool.New(ctx, "pipeline", cfg.WorkerCount)
	geomCache := cache.New(o.backend, cache.Options{IndexThreshold: indexThreshold(cfg)})
	orch := orchestrator.New(reg, geomCache, pool, orchestrator.Options{})

	a := &App{
		outW:      outW,
		logger:    logger,
		ctx:       ctx,
		config:    cfg,
		registry:  reg,
		backend:   o.backend,
		pool:      pool,
		orch:      orch,
		debouncer: orchestrator.NewDebouncer(cfg.DebounceQuiet, orch.Start),
		uploader:  &export.Uploader{},
		notifier:  notifier,
		loopDone:  make(chan struct{}),
	}
	a.exporter = export.New(ctx, orch, a.debouncer, o.backend, export.Options{MaxSolids: cfg.MaxExportSolids})

	loopCtx, cancel := context.WithCancel(ctx)
	a.loopCancel = cancel
	go func() {
		defer close(a.loopDone)
		if err := orch.Run(loopCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Orchestrator loop stopped unexpectedly.", "error", err)
		}
	}()

	return a, nil
}

func indexThreshold(cfg *Config) int {
	if cfg.IndexThreshold == 0 {
		return cache.DefaultIndexThreshold
	}
	return cfg.IndexThreshold
}

func newNotifier(ctx context.Context, cfg *Config) (notify.Notifier, error) {
	if cfg.ViewerURL == "" {
		return notify.Log{}, nil
	}
	sio, err := notify.DialSocketIO(ctx, notify.SocketIOConfig{
		URL:                cfg.ViewerURL,
		Namespace:          cfg.ViewerNamespace,
		InsecureSkipVerify: cfg.ViewerInsecure,
		IncludeMesh:        cfg.ViewerIncludeMesh,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to viewer: %w", err)
	}
	return notify.Multi{notify.Log{}, sio}, nil
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Close stops the orchestrator and releases every resource. It is safe to
// call more than once.
func (a *App) Close() error {
	var errs []error
	a.closeOnce.Do(func() {
		a.logger.Debug("Closing application...")
		a.debouncer.Stop()
		a.loopCancel()
		<-a.loopDone
		a.exporter.Close()
		a.pool.Close()
		errs = append(errs, a.closeHTTPServer())
		errs = append(errs, a.notifier.Close())
		errs = append(errs, a.registry.Teardown(a.ctx))
		a.logger.Debug("Application closed.")
	})
	return errors.Join(errs...)
}
