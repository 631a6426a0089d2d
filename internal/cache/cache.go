// Package cache builds the derived artifacts of an Assembly (compound, mesh,
// BOM totals) and stores them on the Assembly, guarded by its dirty flag.
//
// An Assembly whose artifacts are valid is never rebuilt: calling Build twice
// without marking the Assembly dirty in between reaches the backend at most
// once. Concurrent Build calls for the same *Assembly share a single build.
package cache

import (
	"context"
	"fmt"

	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/bom"
	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/specialistvlad/atlasgrid/internal/metrics"
	"golang.org/x/sync/singleflight"
)

// DefaultIndexThreshold is the triangle count above which an indexed mesh is
// prepared alongside the triangle soup.
const DefaultIndexThreshold = 5000

// Options tunes a Cache.
type Options struct {
	// IndexThreshold enables vertex deduplication for meshes with more
	// triangles than this. Zero or less disables it.
	IndexThreshold int
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{IndexThreshold: DefaultIndexThreshold}
}

// Cache builds assembly artifacts through a geometry backend.
type Cache struct {
	backend geometry.Backend
	opts    Options
	sf      singleflight.Group
}

// New returns a cache backed by backend.
func New(backend geometry.Backend, opts Options) *Cache {
	return &Cache{backend: backend, opts: opts}
}

// Backend returns the geometry backend used by the cache.
func (c *Cache) Backend() geometry.Backend {
	return c.backend
}

// Build makes sure asm carries a valid compound, mesh and BOM. On failure
// the assembly stays dirty and Build may be retried.
func (c *Cache) Build(ctx context.Context, asm *assembly.Assembly) error {
	if asm == nil {
		return fmt.Errorf("cache build: assembly is nil")
	}
	// Keyed by pointer so only calls for the same *Assembly are joined.
	key := fmt.Sprintf("%p", asm)
	_, err, shared := c.sf.Do(key, func() (any, error) {
		return nil, c.build(ctx, asm)
	})
	if shared {
		ctxlog.FromContext(ctx).Debug("Joined in-flight geometry build.", "assembly", asm.ID)
	}
	return err
}

func (c *Cache) build(ctx context.Context, asm *assembly.Assembly) (err error) {
	logger := ctxlog.FromContext(ctx).With("assembly", asm.ID)

	// A panicking backend fails the build like an error would and leaves
	// the assembly dirty.
	stage := StagePlace
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Geometry backend panicked.", "stage", stage, "panic", fmt.Sprint(r))
			metrics.RecordCacheBuild("error")
			err = &GeometryBuildError{Stage: stage, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	if !asm.Dirty && asm.Compound != nil && asm.Mesh != nil {
		logger.Debug("Geometry cache hit.")
		metrics.RecordCacheBuild("hit")
		return nil
	}

	shapes, err := assembly.CollectShapes(ctx, asm, c.backend)
	if err != nil {
		metrics.RecordCacheBuild("error")
		return &GeometryBuildError{Stage: StagePlace, Err: err}
	}

	totals := bom.Rollup(assembly.FlatBOM(asm))

	if len(shapes) == 0 {
		logger.Debug("Assembly has no geometry, caching empty mesh.")
		asm.Compound = nil
		asm.Mesh = geometry.Mesh{}
		asm.Indexed = nil
		asm.BOM = totals
		asm.Dirty = false
		metrics.RecordCacheBuild("empty")
		return nil
	}

	logger.Debug("Building compound.", "shapes", len(shapes))
	stage = StageCompound
	compound, err := c.backend.MakeCompound(ctx, shapes)
	if err != nil {
		metrics.RecordCacheBuild("error")
		return &GeometryBuildError{Stage: StageCompound, Err: err}
	}

	stage = StageTriangulate
	mesh, err := c.backend.Triangulate(ctx, compound)
	if err != nil {
		metrics.RecordCacheBuild("error")
		return &GeometryBuildError{Stage: StageTriangulate, Err: err}
	}
	if mesh == nil {
		mesh = geometry.Mesh{}
	}

	var indexed *geometry.IndexedMesh
	if c.opts.IndexThreshold > 0 && len(mesh) > c.opts.IndexThreshold {
		indexed = geometry.Index(mesh)
		logger.Debug("Indexed mesh prepared.", "triangles", len(mesh), "points", len(indexed.Points))
	}

	asm.Compound = compound
	asm.Mesh = mesh
	asm.Indexed = indexed
	asm.BOM = totals
	asm.Dirty = false

	logger.Debug("Geometry cache built.", "triangles", len(mesh))
	metrics.RecordCacheBuild("build")
	return nil
}
