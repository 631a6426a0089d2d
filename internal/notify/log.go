package notify

import (
	"context"

	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/export"
	"github.com/specialistvlad/atlasgrid/internal/orchestrator"
)

// Log writes outcomes to the context logger.
type Log struct{}

func (Log) Published(ctx context.Context, res orchestrator.Result) error {
	p := NewPublished(res, false)
	ctxlog.FromContext(ctx).Info("Assembly published.",
		"run_id", p.RunID,
		"model", p.Model,
		"triangles", p.Triangles,
		"solids", p.Solids,
		"bom_lines", len(p.BOM),
		"total_ms", p.TotalMs,
	)
	return nil
}

func (Log) Failed(ctx context.Context, err error) error {
	ctxlog.FromContext(ctx).Error("Regeneration failed.", "error", err)
	return nil
}

func (Log) Exported(ctx context.Context, res export.Result) error {
	logger := ctxlog.FromContext(ctx)
	if res.Err != nil {
		logger.Error("Export failed.", "path", res.Path, "error", res.Err)
		return nil
	}
	logger.Info("Export written.", "path", res.Path, "duration_ms", res.Duration.Milliseconds(), "solids", res.Solids)
	return nil
}

func (Log) Close() error { return nil }
