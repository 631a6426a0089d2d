package cache

import (
	"errors"
	"fmt"
)

// Build stages reported by GeometryBuildError.
const (
	StagePlace       = "place"
	StageCompound    = "compound"
	StageTriangulate = "triangulate"
)

// ErrGeometryBuild matches every *GeometryBuildError.
var ErrGeometryBuild = errors.New("geometry build failed")

// GeometryBuildError wraps a backend failure during a cache build. The
// assembly it was building is left dirty.
type GeometryBuildError struct {
	Stage string
	Err   error
}

func (e *GeometryBuildError) Error() string {
	return fmt.Sprintf("geometry build failed during %s: %v", e.Stage, e.Err)
}

func (e *GeometryBuildError) Unwrap() []error {
	return []error{ErrGeometryBuild, e.Err}
}
