// Package boxgrid provides the "boxgrid" model: a 3D grid of identical boxes
// placed as instances of one shared part.
package boxgrid

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
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
	nx, ny, nz := p.Int("count_x"), p.Int("count_y"), p.Int("count_z")
	s := p.Float("spacing_factor")
	ctxlog.FromContext(ctx).Debug("Building box grid.", "count", nx*ny*nz)

	part := &assembly.PartDefinition{
		ID:          "box",
		Shape:       boxkernel.MakeBox(w, h, d),
		PartNumber:  fmt.Sprintf("BOX-%gx%gx%g", w, h, d),
		Description: fmt.Sprintf("Box %g x %g x %g mm", w, h, d),
	}

	children := make([]*assembly.Instance, 0, nx*ny*nz)
	for iz := range nz {
		for iy := range ny {
			for ix := range nx {
				inst := assembly.NewInstance(part)
				inst.Transform = assembly.Translate(float64(ix)*w*s, float64(iy)*h*s, float64(iz)*d*s)
				children = append(children, inst)
			}
		}
	}

	root := assembly.NewInstance(&assembly.PartDefinition{
		ID:         assembly.RootID,
		PartNumber: assembly.RootPartNumber,
	}, children...)
	return assembly.New(root), nil
}

// Register registers the model function with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterModel("boxgrid", Build)
}

// Manifest implements registry.ManifestProvider.
func (m *Module) Manifest() (string, []byte) {
	return "boxgrid/manifest.hcl", manifest
}
