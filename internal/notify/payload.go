package notify

import (
	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/export"
	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/specialistvlad/atlasgrid/internal/orchestrator"
)

// BOMLine is the wire form of an aggregated BOM line.
type BOMLine struct {
	PartNumber  string  `json:"part_number"`
	Qty         float64 `json:"qty"`
	Unit        string  `json:"unit"`
	Description string  `json:"description,omitempty"`
}

// Mesh is the wire form of an indexed mesh.
type Mesh struct {
	Points       [][3]float32 `json:"points"`
	Connectivity []int64      `json:"connectivity"`
	Offsets      []int64      `json:"offsets"`
}

// Published is sent when a new assembly becomes current.
type Published struct {
	RunID       string         `json:"run_id"`
	AssemblyID  string         `json:"assembly_id"`
	Model       string         `json:"model"`
	Params      map[string]any `json:"params"`
	Triangles   int            `json:"triangles"`
	Solids      int            `json:"solids"`
	ModelMs     int64          `json:"model_ms"`
	NormalizeMs int64          `json:"normalize_ms"`
	CacheMs     int64          `json:"cache_ms"`
	TotalMs     int64          `json:"total_ms"`
	BOM         []BOMLine      `json:"bom"`
	Mesh        *Mesh          `json:"mesh,omitempty"`
}

// Failure is sent when a regeneration fails.
type Failure struct {
	Error string `json:"error"`
}

// Exported is sent when an export finishes.
type Exported struct {
	Path          string `json:"path"`
	DurationMs    int64  `json:"duration_ms"`
	Solids        int    `json:"solids"`
	EstimateBytes int64  `json:"estimate_bytes"`
	UploadStatus  string `json:"upload_status,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewPublished converts a result. The mesh is attached only when withMesh is
// set, reusing the cached index when the assembly has one.
func NewPublished(res orchestrator.Result, withMesh bool) Published {
	p := Published{
		RunID:       res.Stats.RunID,
		Model:       res.Request.Model,
		Params:      res.Params.Native(),
		Triangles:   res.Stats.Triangles,
		Solids:      res.Stats.Solids,
		ModelMs:     res.Stats.Model.Milliseconds(),
		NormalizeMs: res.Stats.Normalize.Milliseconds(),
		CacheMs:     res.Stats.Cache.Milliseconds(),
		TotalMs:     res.Stats.Total.Milliseconds(),
	}
	if res.Assembly == nil {
		return p
	}
	p.AssemblyID = res.Assembly.ID
	p.BOM = BOMLines(res.Assembly.BOM)
	if withMesh {
		idx := res.Assembly.Indexed
		if idx == nil {
			idx = geometry.Index(res.Assembly.Mesh)
		}
		p.Mesh = &Mesh{Points: idx.Points, Connectivity: idx.Connectivity, Offsets: idx.Offsets}
	}
	return p
}

// BOMLines converts aggregated lines to their wire form.
func BOMLines(lines []assembly.BOMLine) []BOMLine {
	out := make([]BOMLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, BOMLine{PartNumber: l.PartNumber, Qty: l.Qty, Unit: l.Unit, Description: l.Description})
	}
	return out
}

// NewExported converts an export result.
func NewExported(res export.Result) Exported {
	e := Exported{
		Path:          res.Path,
		DurationMs:    res.Duration.Milliseconds(),
		Solids:        res.Solids,
		EstimateBytes: res.EstimateBytes,
		UploadStatus:  res.UploadStatus,
	}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	return e
}
