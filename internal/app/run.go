package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/atlasgrid/internal/bom"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/export"
	"github.com/specialistvlad/atlasgrid/internal/orchestrator"
	"github.com/zclconf/go-cty/cty"
)

// RunOptions describes a one-shot regeneration.
type RunOptions struct {
	Model  string
	Params map[string]string
	// ExportPath, when set, writes the result as a STEP file.
	ExportPath string
	// ConfirmLarge answers the large-export confirmation.
	ConfirmLarge bool
	// UploadURL, when set with ExportPath, receives the STEP file via PUT.
	UploadURL string
}

// Run builds one model, prints its bill of materials and optionally exports
// it. Pipeline failures are returned.
func (a *App) Run(ctx context.Context, opts RunOptions) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "model", opts.Model)

	a.startHTTPServer(a.observabilityMux())

	a.orch.Start(orchestrator.Request{Model: opts.Model, Params: stringParams(opts.Params)})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-a.orch.Errors():
		_ = a.notifier.Failed(ctx, err)
		return fmt.Errorf("regeneration failed: %w", err)
	case res := <-a.orch.Results():
		if err := a.notifier.Published(ctx, res); err != nil {
			a.logger.Warn("Notifier failed to deliver result.", "error", err)
		}
		if err := bom.Write(a.outW, res.Assembly.BOM); err != nil {
			return fmt.Errorf("write bill of materials: %w", err)
		}
	}

	if opts.ExportPath == "" {
		return nil
	}
	ch, err := a.exporter.Export(ctx, opts.ExportPath, func(solids int, estimate int64) bool {
		a.logger.Warn("Large export requested.", "solids", solids, "estimate_mb", estimate/(1<<20), "confirmed", opts.ConfirmLarge)
		return opts.ConfirmLarge
	})
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		res = a.upload(ctx, res, opts.UploadURL)
		_ = a.notifier.Exported(ctx, res)
		return res.Err
	}
}

// upload copies a successful export to url when one is given.
func (a *App) upload(ctx context.Context, res export.Result, url string) export.Result {
	if url == "" || res.Err != nil {
		return res
	}
	status, err := a.uploader.Upload(ctx, res.Path, url)
	res.UploadStatus = status
	if err != nil {
		res.Err = err
	}
	return res
}

func stringParams(raw map[string]string) map[string]cty.Value {
	out := make(map[string]cty.Value, len(raw))
	for k, v := range raw {
		out[k] = cty.StringVal(v)
	}
	return out
}
