package geometry

import "context"

// Shape is an opaque geometry handle produced by a Backend. Compounds are
// shapes too.
type Shape interface{}

// Backend is the geometry kernel consumed by the cache and export layers.
// Implementations own their thread-safety.
type Backend interface {
	// MakeCompound unions the shapes into a single compound. It returns an
	// error for empty input.
	MakeCompound(ctx context.Context, shapes []Shape) (Shape, error)

	// Triangulate meshes a shape into triangles.
	Triangulate(ctx context.Context, shape Shape) (Mesh, error)

	// Translate returns a new handle placed at the offset. The input handle
	// is left untouched.
	Translate(ctx context.Context, shape Shape, dx, dy, dz float64) (Shape, error)

	// ExportStep writes the compound to path as an ISO-10303-21 file.
	ExportStep(ctx context.Context, compound Shape, path string) error
}

// Translator is the part of Backend needed to place shapes.
type Translator interface {
	Translate(ctx context.Context, shape Shape, dx, dy, dz float64) (Shape, error)
}

// StepHeader is the token every exported STEP file starts with.
const StepHeader = "ISO-10303-21"
