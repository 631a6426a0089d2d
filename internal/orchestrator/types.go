package orchestrator

import (
	"time"

	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/params"
	"github.com/zclconf/go-cty/cty"
)

// Request asks for one regeneration of a model. Params are raw values; they
// are bound against the model's schema on the worker, and invalid entries fall
// back to their defaults.
type Request struct {
	Model  string
	Params map[string]cty.Value
}

// Stats describes one pipeline run.
type Stats struct {
	RunID     string
	Model     time.Duration
	Normalize time.Duration
	Cache     time.Duration
	Total     time.Duration
	Triangles int
	Solids    int
}

// Result is a successfully published run.
type Result struct {
	Request  Request
	Params   params.Values
	Assembly *assembly.Assembly
	Stats    Stats
}
