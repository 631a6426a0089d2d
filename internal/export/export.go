// Package export writes the published assembly's compound to a STEP file on a
// dedicated worker, one export at a time.
package export

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/specialistvlad/atlasgrid/internal/metrics"
	"github.com/specialistvlad/atlasgrid/internal/workerpool"
	"golang.org/x/sync/semaphore"
)

const (
	// BytesPerSolid is the rough STEP size of one box-like solid.
	BytesPerSolid = 19500
	// DefaultMaxSolids is the solid count above which an export needs
	// confirmation.
	DefaultMaxSolids = 50000
)

// Source supplies the assembly to export.
type Source interface {
	Current() *assembly.Assembly
}

// Canceler drops a pending debounced regeneration.
type Canceler interface {
	Cancel() bool
}

// ConfirmFunc is asked whether a large export should proceed.
type ConfirmFunc func(solids int, estimateBytes int64) bool

// Options tunes a Coordinator.
type Options struct {
	MaxSolids int
}

// Result describes a finished export. Err is nil on success.
type Result struct {
	Path          string
	Duration      time.Duration
	Solids        int
	EstimateBytes int64
	// UploadStatus is set by callers that copy the file elsewhere.
	UploadStatus string
	Err          error
}

// Coordinator serializes STEP exports of the current assembly.
type Coordinator struct {
	source    Source
	debouncer Canceler
	backend   geometry.Backend
	opts      Options

	sem  *semaphore.Weighted
	pool *workerpool.Pool
}

// New creates a Coordinator with its own single-worker pool. debouncer may be
// nil. Close releases the pool.
func New(ctx context.Context, source Source, debouncer Canceler, backend geometry.Backend, opts Options) *Coordinator {
	if opts.MaxSolids <= 0 {
		opts.MaxSolids = DefaultMaxSolids
	}
	return &Coordinator{
		source:    source,
		debouncer: debouncer,
		backend:   backend,
		opts:      opts,
		sem:       semaphore.NewWeighted(1),
		pool:      workerpool.New(ctx, "export", 1),
	}
}

// Close waits for a running export and stops the worker.
func (c *Coordinator) Close() { c.pool.Close() }

// Export starts writing the current assembly to path. The returned channel
// yields exactly one Result. Errors that prevent the export from starting are
// returned directly and the backend is not called.
func (c *Coordinator) Export(ctx context.Context, path string, confirm ConfirmFunc) (<-chan Result, error) {
	logger := ctxlog.FromContext(ctx)

	if c.debouncer != nil && c.debouncer.Cancel() {
		logger.Debug("Dropped pending regeneration before export.")
	}

	asm := c.source.Current()
	if asm == nil || asm.Compound == nil {
		metrics.RecordExport("nothing", 0)
		return nil, ErrNothingToExport
	}

	solids := assembly.CountSolids(asm)
	estimate := int64(solids) * BytesPerSolid
	if solids > c.opts.MaxSolids && (confirm == nil || !confirm(solids, estimate)) {
		metrics.RecordExport("aborted", 0)
		logger.Info("Large export not confirmed.", "solids", solids, "estimate_bytes", estimate)
		return nil, &ExportSizeAbortedError{Solids: solids, EstimateBytes: estimate}
	}

	if !c.sem.TryAcquire(1) {
		return nil, ErrExportInProgress
	}

	out := make(chan Result, 1)
	compound := asm.Compound
	err := c.pool.Submit(ctx, func(workerCtx context.Context) {
		res := c.write(workerCtx, compound, path, solids, estimate)
		// Released before the send so a caller holding the result can
		// start the next export.
		c.sem.Release(1)
		out <- res
	})
	if err != nil {
		c.sem.Release(1)
		return nil, fmt.Errorf("schedule export: %w", err)
	}
	logger.Info("Export started.", "path", path, "solids", solids, "estimate_bytes", estimate)
	return out, nil
}

func (c *Coordinator) write(ctx context.Context, compound geometry.Shape, path string, solids int, estimate int64) (res Result) {
	logger := ctxlog.FromContext(ctx)
	t := metrics.NewTimer()
	res = Result{Path: path, Solids: solids, EstimateBytes: estimate}

	defer func() {
		if r := recover(); r != nil {
			res.Duration = t.Duration()
			res.Err = &ExportBackendError{Path: path, Err: fmt.Errorf("panic: %v", r)}
			metrics.RecordExport("error", res.Duration)
			logger.Error("Export backend panicked.", "path", path, "panic", fmt.Sprint(r))
		}
	}()

	err := c.backend.ExportStep(ctx, compound, path)
	if err == nil {
		err = checkHeader(path)
	}
	res.Duration = t.Duration()
	if err != nil {
		res.Err = &ExportBackendError{Path: path, Err: err}
		metrics.RecordExport("error", res.Duration)
		logger.Error("Export failed.", "path", path, "error", err)
		return res
	}

	metrics.RecordExport("success", res.Duration)
	logger.Info("Export finished.", "path", path, "duration_ms", res.Duration.Milliseconds())
	return res
}

var errBadHeader = errors.New("output is not a STEP file")

func checkHeader(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return fmt.Errorf("%w: %v", errBadHeader, err)
	}
	if !strings.HasPrefix(line, geometry.StepHeader) {
		return errBadHeader
	}
	return nil
}
