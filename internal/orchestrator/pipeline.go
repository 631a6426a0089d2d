package orchestrator

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/cache"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/metrics"
	"github.com/specialistvlad/atlasgrid/internal/params"
	"github.com/specialistvlad/atlasgrid/internal/registry"
)

// Stage names used for metrics and logs.
const (
	StageModel     = "model"
	StageNormalize = "normalize"
	StageCache     = "cache"
)

// pipeline resolves the model, evaluates it, normalizes the output and builds
// the geometry cache. It runs on a worker goroutine.
func (o *Orchestrator) pipeline(ctx context.Context, req Request) (res Result, err error) {
	stats := Stats{RunID: uuid.NewString()}
	ctx = ctxlog.With(ctx, "run_id", stats.RunID, "model", req.Model)
	logger := ctxlog.FromContext(ctx)
	m := metrics.NewPipelineMetrics(req.Model)
	total := metrics.NewTimer()

	stage := StageModel
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Regeneration panicked.", "stage", stage, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			m.RecordRun("error")
			res, err = Result{}, stagePanic(req.Model, stage, r)
		}
	}()

	fam, err := o.reg.Lookup(req.Model)
	if err != nil {
		m.RecordRun("error")
		return Result{}, &ModelEvaluationError{Model: req.Model, Err: err}
	}
	values := params.Bind(ctx, fam.Schema, req.Params)

	logger.Debug("Evaluating model.", "params", values.Native())
	t := metrics.NewTimer()
	out, err := evaluate(ctx, fam.Fn, values)
	stats.Model = t.Duration()
	m.RecordStage(StageModel, stats.Model)
	if err != nil {
		m.RecordRun("error")
		return Result{}, &ModelEvaluationError{Model: req.Model, Err: err}
	}

	stage = StageNormalize
	t = metrics.NewTimer()
	asm, err := assembly.Normalize(out)
	stats.Normalize = t.Duration()
	m.RecordStage(StageNormalize, stats.Normalize)
	if err != nil {
		m.RecordRun("error")
		return Result{}, err
	}

	stage = StageCache
	t = metrics.NewTimer()
	err = o.cache.Build(ctx, asm)
	stats.Cache = t.Duration()
	m.RecordStage(StageCache, stats.Cache)
	if err != nil {
		m.RecordRun("error")
		return Result{}, err
	}

	stats.Total = total.Duration()
	stats.Triangles = asm.Triangles()
	stats.Solids = assembly.CountSolids(asm)
	m.RecordRun("success")
	logger.Info("Regeneration finished.",
		"model_ms", stats.Model.Milliseconds(),
		"normalize_ms", stats.Normalize.Milliseconds(),
		"cache_ms", stats.Cache.Milliseconds(),
		"total_ms", stats.Total.Milliseconds(),
		"triangles", stats.Triangles,
		"solids", stats.Solids,
	)

	return Result{Request: req, Params: values, Assembly: asm, Stats: stats}, nil
}

// evaluate calls the model function, turning a panic into an error.
func evaluate(ctx context.Context, fn registry.ModelFunc, values params.Values) (out any, err error) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Model function panicked.", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn(ctx, values)
}

// stagePanic turns a panic that escaped a stage into that stage's error type.
func stagePanic(model, stage string, r any) error {
	err := fmt.Errorf("panic: %v", r)
	if stage == StageCache {
		return &cache.GeometryBuildError{Stage: stage, Err: err}
	}
	return &ModelEvaluationError{Model: model, Err: err}
}
