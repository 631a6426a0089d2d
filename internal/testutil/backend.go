package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/specialistvlad/atlasgrid/internal/geometry"
)

// Shape is the handle type produced and accepted by SpyBackend.
type Shape struct {
	Name   string
	Offset [3]float64
}

// Compound is what SpyBackend.MakeCompound returns.
type Compound struct {
	Parts []geometry.Shape
}

// SpyBackend is a geometry.Backend that counts calls and can be told to fail
// or to block inside MakeCompound.
type SpyBackend struct {
	// TrianglesPerShape is how many triangles each compound member yields.
	// Zero means one.
	TrianglesPerShape int

	CompoundErr    error
	TriangulateErr error
	TranslateErr   error
	ExportErr      error

	// SkipHeader makes ExportStep write a file without the STEP header.
	SkipHeader bool

	// TriangulatePanic and ExportPanic, when non-nil, are the values
	// Triangulate and ExportStep panic with.
	TriangulatePanic any
	ExportPanic      any

	// Gate, when set, is received from once at the start of every
	// MakeCompound and ExportStep call.
	Gate chan struct{}

	// Entered, when set, is sent to (non-blocking) whenever a gated call
	// starts waiting.
	Entered chan struct{}

	compounds   atomic.Int64
	triangulate atomic.Int64
	translate   atomic.Int64
	exports     atomic.Int64

	mu          sync.Mutex
	exportPaths []string
}

var _ geometry.Backend = (*SpyBackend)(nil)

// MakeCompound implements geometry.Backend.
func (b *SpyBackend) MakeCompound(ctx context.Context, shapes []geometry.Shape) (geometry.Shape, error) {
	b.compounds.Add(1)
	if err := b.wait(ctx); err != nil {
		return nil, err
	}
	if b.CompoundErr != nil {
		return nil, b.CompoundErr
	}
	if len(shapes) == 0 {
		return nil, fmt.Errorf("spy: empty compound")
	}
	parts := make([]geometry.Shape, len(shapes))
	copy(parts, shapes)
	return &Compound{Parts: parts}, nil
}

// Triangulate implements geometry.Backend.
func (b *SpyBackend) Triangulate(_ context.Context, shape geometry.Shape) (geometry.Mesh, error) {
	b.triangulate.Add(1)
	if b.TriangulatePanic != nil {
		panic(b.TriangulatePanic)
	}
	if b.TriangulateErr != nil {
		return nil, b.TriangulateErr
	}
	per := b.TrianglesPerShape
	if per == 0 {
		per = 1
	}
	n := 1
	if c, ok := shape.(*Compound); ok {
		n = len(c.Parts)
	}
	mesh := make(geometry.Mesh, 0, n*per)
	for i := 0; i < n*per; i++ {
		f := float64(i)
		mesh = append(mesh, geometry.Triangle{f, 0, 0, f + 1, 0, 0, f, 1, 0})
	}
	return mesh, nil
}

// Translate implements geometry.Backend.
func (b *SpyBackend) Translate(_ context.Context, shape geometry.Shape, dx, dy, dz float64) (geometry.Shape, error) {
	b.translate.Add(1)
	if b.TranslateErr != nil {
		return nil, b.TranslateErr
	}
	s, ok := shape.(*Shape)
	if !ok {
		return nil, fmt.Errorf("spy: cannot translate %T", shape)
	}
	return &Shape{Name: s.Name, Offset: [3]float64{s.Offset[0] + dx, s.Offset[1] + dy, s.Offset[2] + dz}}, nil
}

// ExportStep implements geometry.Backend.
func (b *SpyBackend) ExportStep(ctx context.Context, _ geometry.Shape, path string) error {
	b.exports.Add(1)
	if err := b.wait(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	b.exportPaths = append(b.exportPaths, path)
	b.mu.Unlock()
	if b.ExportPanic != nil {
		panic(b.ExportPanic)
	}
	if b.ExportErr != nil {
		return b.ExportErr
	}
	content := geometry.StepHeader + ";\nEND-" + geometry.StepHeader + ";\n"
	if b.SkipHeader {
		content = "garbage\n"
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func (b *SpyBackend) wait(ctx context.Context) error {
	if b.Gate == nil {
		return nil
	}
	if b.Entered != nil {
		select {
		case b.Entered <- struct{}{}:
		default:
		}
	}
	select {
	case <-b.Gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CompoundCalls returns how many times MakeCompound ran.
func (b *SpyBackend) CompoundCalls() int { return int(b.compounds.Load()) }

// TriangulateCalls returns how many times Triangulate ran.
func (b *SpyBackend) TriangulateCalls() int { return int(b.triangulate.Load()) }

// TranslateCalls returns how many times Translate ran.
func (b *SpyBackend) TranslateCalls() int { return int(b.translate.Load()) }

// ExportCalls returns how many times ExportStep ran.
func (b *SpyBackend) ExportCalls() int { return int(b.exports.Load()) }

// ExportPaths returns the paths passed to ExportStep.
func (b *SpyBackend) ExportPaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.exportPaths...)
}
