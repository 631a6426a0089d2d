// Package boxkernel is a minimal geometry.Backend that only knows about
// axis-aligned boxes. It exists so the engine can run end-to-end without a
// real solid-modeling kernel; it performs no boolean operations.
package boxkernel

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/specialistvlad/atlasgrid/internal/geometry"
)

// Box is an axis-aligned box handle.
type Box struct {
	Min [3]float64
	Max [3]float64
}

// Compound groups placed boxes. Nested compounds are flattened on creation.
type Compound struct {
	Boxes []*Box
}

// ErrEmptyCompound is returned by MakeCompound for empty input.
var ErrEmptyCompound = errors.New("boxkernel: cannot make a compound from zero shapes")

// Kernel implements geometry.Backend. The zero value is ready to use.
type Kernel struct{}

var _ geometry.Backend = (*Kernel)(nil)

// New returns a ready kernel.
func New() *Kernel { return &Kernel{} }

// MakeBox returns a box of the given size with one corner at the origin.
func MakeBox(width, height, depth float64) *Box {
	return &Box{Max: [3]float64{width, height, depth}}
}

// MakeCompound implements geometry.Backend.
func (k *Kernel) MakeCompound(ctx context.Context, shapes []geometry.Shape) (geometry.Shape, error) {
	if len(shapes) == 0 {
		return nil, ErrEmptyCompound
	}
	out := &Compound{Boxes: make([]*Box, 0, len(shapes))}
	for i, s := range shapes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch v := s.(type) {
		case *Box:
			out.Boxes = append(out.Boxes, v)
		case *Compound:
			out.Boxes = append(out.Boxes, v.Boxes...)
		default:
			return nil, fmt.Errorf("boxkernel: shape %d has unsupported type %T", i, s)
		}
	}
	return out, nil
}

// Triangulate implements geometry.Backend.
func (k *Kernel) Triangulate(ctx context.Context, shape geometry.Shape) (geometry.Mesh, error) {
	switch v := shape.(type) {
	case *Box:
		return v.triangles(), nil
	case *Compound:
		mesh := make(geometry.Mesh, 0, len(v.Boxes)*12)
		for _, b := range v.Boxes {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			mesh = append(mesh, b.triangles()...)
		}
		return mesh, nil
	default:
		return nil, fmt.Errorf("boxkernel: cannot triangulate %T", shape)
	}
}

// Translate implements geometry.Backend.
func (k *Kernel) Translate(_ context.Context, shape geometry.Shape, dx, dy, dz float64) (geometry.Shape, error) {
	switch v := shape.(type) {
	case *Box:
		return v.moved(dx, dy, dz), nil
	case *Compound:
		out := &Compound{Boxes: make([]*Box, len(v.Boxes))}
		for i, b := range v.Boxes {
			out.Boxes[i] = b.moved(dx, dy, dz)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("boxkernel: cannot translate %T", shape)
	}
}

// ExportStep implements geometry.Backend. It writes one MANIFOLD_SOLID_BREP
// placeholder entity per box, enough for downstream tools to count solids.
func (k *Kernel) ExportStep(ctx context.Context, compound geometry.Shape, path string) error {
	var boxes []*Box
	switch v := compound.(type) {
	case *Box:
		boxes = []*Box{v}
	case *Compound:
		boxes = v.Boxes
	default:
		return fmt.Errorf("boxkernel: cannot export %T", compound)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)

	fmt.Fprintf(w, "%s;\nHEADER;\n", geometry.StepHeader)
	fmt.Fprintf(w, "FILE_DESCRIPTION(('atlasgrid box export'),'2;1');\n")
	fmt.Fprintf(w, "FILE_NAME('%s','%s',(''),(''),'boxkernel','','');\n", path, time.Now().UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "FILE_SCHEMA(('AUTOMOTIVE_DESIGN'));\nENDSEC;\nDATA;\n")
	for i, b := range boxes {
		if err := ctx.Err(); err != nil {
			f.Close()
			return err
		}
		fmt.Fprintf(w, "#%d=MANIFOLD_SOLID_BREP('box',(%g,%g,%g),(%g,%g,%g));\n",
			i+1, b.Min[0], b.Min[1], b.Min[2], b.Max[0], b.Max[1], b.Max[2])
	}
	fmt.Fprintf(w, "ENDSEC;\nEND-%s;\n", geometry.StepHeader)

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func (b *Box) moved(dx, dy, dz float64) *Box {
	return &Box{
		Min: [3]float64{b.Min[0] + dx, b.Min[1] + dy, b.Min[2] + dz},
		Max: [3]float64{b.Max[0] + dx, b.Max[1] + dy, b.Max[2] + dz},
	}
}

// triangles returns the 12 triangles of the box surface.
func (b *Box) triangles() geometry.Mesh {
	x0, y0, z0 := b.Min[0], b.Min[1], b.Min[2]
	x1, y1, z1 := b.Max[0], b.Max[1], b.Max[2]
	c := [8][3]float64{
		{x0, y0, z0}, {x1, y0, z0}, {x1, y1, z0}, {x0, y1, z0},
		{x0, y0, z1}, {x1, y0, z1}, {x1, y1, z1}, {x0, y1, z1},
	}
	faces := [12][3]int{
		{0, 2, 1}, {0, 3, 2}, // bottom
		{4, 5, 6}, {4, 6, 7}, // top
		{0, 1, 5}, {0, 5, 4}, // front
		{2, 3, 7}, {2, 7, 6}, // back
		{1, 2, 6}, {1, 6, 5}, // right
		{3, 0, 4}, {3, 4, 7}, // left
	}
	mesh := make(geometry.Mesh, 0, len(faces))
	for _, f := range faces {
		var tri geometry.Triangle
		for v, idx := range f {
			copy(tri[v*3:v*3+3], c[idx][:])
		}
		mesh = append(mesh, tri)
	}
	return mesh
}
