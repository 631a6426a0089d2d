package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/specialistvlad/atlasgrid/internal/bom"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/export"
	"github.com/specialistvlad/atlasgrid/internal/notify"
	"github.com/specialistvlad/atlasgrid/internal/orchestrator"
	"github.com/specialistvlad/atlasgrid/internal/registry"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// Serve runs the editing API until ctx is cancelled. Results and errors are
// forwarded to the notifiers as they complete.
func (a *App) Serve(ctx context.Context) error {
	if a.config.HTTPPort <= 0 {
		return errors.New("serve requires an HTTP port")
	}
	ctx = ctxlog.WithLogger(ctx, a.logger)

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		notify.Forward(ctx, a.orch.Results(), a.orch.Errors(), a.notifier)
	}()

	a.startHTTPServer(a.Handler())
	a.logger.Info("Serving models.", "models", len(a.registry.Families()))

	<-ctx.Done()
	err := a.closeHTTPServer()
	<-forwardDone
	return err
}

// Handler returns the full HTTP API.
func (a *App) Handler() http.Handler {
	mux := a.observabilityMux()
	mux.HandleFunc("GET /models", a.handleModels)
	mux.HandleFunc("POST /models/rescan", a.handleRescan)
	mux.HandleFunc("POST /edit", a.handleEdit)
	mux.HandleFunc("POST /regenerate", a.handleRegenerate)
	mux.HandleFunc("POST /export", a.handleExport)
	mux.HandleFunc("GET /bom", a.handleBOM)
	return mux
}

type paramInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Default     any      `json:"default"`
	Label       string   `json:"label"`
	Unit        string   `json:"unit,omitempty"`
	Description string   `json:"description,omitempty"`
	Min         *float64 `json:"min,omitempty"`
	Max         *float64 `json:"max,omitempty"`
	Step        *float64 `json:"step,omitempty"`
	Choices     []string `json:"choices,omitempty"`
}

type modelInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Source      string      `json:"source"`
	Params      []paramInfo `json:"params"`
}

func describe(f *registry.Family) modelInfo {
	defaults := f.Schema.Defaults().Native()
	info := modelInfo{Name: f.Name, Description: f.Description, Source: f.Source, Params: make([]paramInfo, 0, len(f.Schema))}
	for _, p := range f.Schema {
		info.Params = append(info.Params, paramInfo{
			Name:        p.Name,
			Type:        p.Kind.String(),
			Default:     defaults[p.Name],
			Label:       p.DisplayLabel(),
			Unit:        p.Unit,
			Description: p.Description,
			Min:         p.Min,
			Max:         p.Max,
			Step:        p.Step,
			Choices:     p.Choices,
		})
	}
	return info
}

func (a *App) handleModels(w http.ResponseWriter, _ *http.Request) {
	fams := a.registry.Families()
	out := make([]modelInfo, 0, len(fams))
	for _, f := range fams {
		out = append(out, describe(f))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *App) handleRescan(w http.ResponseWriter, r *http.Request) {
	if err := a.registry.Rescan(ctxlog.WithLogger(r.Context(), a.logger)); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	a.handleModels(w, r)
}

// regenerateRequest is the body of /edit and /regenerate. Params holds raw
// JSON values; they are checked against the model's schema on the worker.
type regenerateRequest struct {
	Model  string                     `json:"model"`
	Params map[string]json.RawMessage `json:"params"`
}

func (a *App) decodeRegenerate(r *http.Request) (orchestrator.Request, error) {
	var body regenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return orchestrator.Request{}, fmt.Errorf("invalid request body: %w", err)
	}
	if _, err := a.registry.Lookup(body.Model); err != nil {
		return orchestrator.Request{}, err
	}
	vals, err := jsonParams(body.Params)
	if err != nil {
		return orchestrator.Request{}, err
	}
	return orchestrator.Request{Model: body.Model, Params: vals}, nil
}

// jsonParams converts each raw JSON value to the cty value it implies.
func jsonParams(raw map[string]json.RawMessage) (map[string]cty.Value, error) {
	out := make(map[string]cty.Value, len(raw))
	for name, msg := range raw {
		ty, err := ctyjson.ImpliedType(msg)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", name, err)
		}
		v, err := ctyjson.Unmarshal(msg, ty)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func (a *App) handleEdit(w http.ResponseWriter, r *http.Request) {
	req, err := a.decodeRegenerate(r)
	if err != nil {
		writeError(w, requestStatus(err), err)
		return
	}
	a.debouncer.Touch(req)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (a *App) handleRegenerate(w http.ResponseWriter, r *http.Request) {
	req, err := a.decodeRegenerate(r)
	if err != nil {
		writeError(w, requestStatus(err), err)
		return
	}
	a.debouncer.Cancel()
	a.orch.Start(req)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

type exportRequest struct {
	Path      string `json:"path"`
	Confirm   bool   `json:"confirm"`
	UploadURL string `json:"upload_url"`
}

func (a *App) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := ctxlog.WithLogger(r.Context(), a.logger)
	var body exportRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Path == "" {
		writeError(w, http.StatusBadRequest, errors.New("body must be {\"path\": ...}"))
		return
	}

	ch, err := a.exporter.Export(ctx, body.Path, func(int, int64) bool { return body.Confirm })
	var sizeErr *export.ExportSizeAbortedError
	switch {
	case errors.As(err, &sizeErr):
		writeJSON(w, http.StatusPreconditionFailed, map[string]any{
			"error":          err.Error(),
			"solids":         sizeErr.Solids,
			"estimate_bytes": sizeErr.EstimateBytes,
		})
		return
	case errors.Is(err, export.ErrNothingToExport), errors.Is(err, export.ErrExportInProgress):
		writeError(w, http.StatusConflict, err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	select {
	case res := <-ch:
		res = a.upload(ctx, res, body.UploadURL)
		_ = a.notifier.Exported(ctx, res)
		status := http.StatusOK
		if res.Err != nil {
			status = http.StatusBadGateway
		}
		writeJSON(w, status, notify.NewExported(res))
	case <-r.Context().Done():
		a.logger.Info("Export client went away; export continues in background.", "path", body.Path)
	}
}

func (a *App) handleBOM(w http.ResponseWriter, r *http.Request) {
	asm := a.orch.Current()
	if asm == nil {
		writeError(w, http.StatusNotFound, errors.New("no assembly has been built yet"))
		return
	}
	if r.URL.Query().Get("format") == "table" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_ = bom.Write(w, asm.BOM)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"assembly_id": asm.ID,
		"total":       bom.Total(asm.BOM),
		"lines":       notify.BOMLines(asm.BOM),
	})
}

func requestStatus(err error) int {
	if errors.Is(err, registry.ErrModelNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
