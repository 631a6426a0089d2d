// Package box provides the "box" model: one box of configurable size.
package box

import (
	"context"
	_ "embed"

	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/specialistvlad/atlasgrid/internal/geometry/boxkernel"
	"github.com/specialistvlad/atlasgrid/internal/params"
	"github.com/specialistvlad/atlasgrid/internal/registry"
)

//go:embed manifest.hcl
var manifest []byte

// Module implements the registry.Module interface for this package.
type Module struct{}

// Build is the model function.
func Build(ctx context.Context, p params.Values) (any, error) {
	w, h, d := p.Float("width"), p.Float("height"), p.Float("depth")
	ctxlog.FromContext(ctx).Debug("Building box.", "width", w, "height", h, "depth", d)
	return []geometry.Shape{boxkernel.MakeBox(w, h, d)}, nil
}

// Register registers the model function with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModel("box", Build)
}

// Manifest implements registry.ManifestProvider.
func (m *Module) Manifest() (string, []byte) {
	return "box/manifest.hcl", manifest
}
