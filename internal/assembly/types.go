package assembly

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/atlasgrid/internal/geometry"
)

// Synthetic root identity used by Normalize.
const (
	RootID         = "_ASM_ROOT"
	RootPartNumber = "ASM-ROOT"
)

// DefaultUnit is the unit of BOM lines derived from leaf parts.
const DefaultUnit = "pcs"

// PartDefinition is the immutable identity of a part. A nil Shape marks a
// purely structural part that never contributes geometry.
type PartDefinition struct {
	ID          string
	Shape       geometry.Shape
	PartNumber  string
	Description string
	Material    string
	Drawings    []string
	Props       map[string]string

	// BOMLine, when set, replaces the derived BOM line for every instance of
	// this part. Its Qty is per instance.
	BOMLine *BOMLine
}

// Instance places a PartDefinition in the tree.
type Instance struct {
	Part      *PartDefinition
	Transform Transform
	Qty       int
	Children  []*Instance
	Role      string
	Overrides map[string]string
}

// NewInstance returns an instance of part with quantity 1 at the origin.
func NewInstance(part *PartDefinition, children ...*Instance) *Instance {
	return &Instance{Part: part, Transform: Identity(), Qty: 1, Children: children}
}

// IsLeaf reports whether the instance has no children.
func (i *Instance) IsLeaf() bool {
	return len(i.Children) == 0
}

// BOMLine is one row of a bill of materials.
type BOMLine struct {
	PartNumber  string
	Qty         float64
	Unit        string
	Description string
	Props       map[string]string
}

// Assembly is an instance tree plus the artifacts derived from it. The cache
// fields are only meaningful while Dirty is false.
type Assembly struct {
	ID   string
	Root *Instance

	Compound geometry.Shape
	Mesh     geometry.Mesh
	Indexed  *geometry.IndexedMesh
	BOM      []BOMLine
	Dirty    bool
}

// New returns a dirty assembly rooted at root.
func New(root *Instance) *Assembly {
	return &Assembly{ID: uuid.NewString(), Root: root, Dirty: true}
}

// MarkDirty invalidates the cached artifacts. Callers must do this after any
// structural or geometric change to the tree.
func (a *Assembly) MarkDirty() {
	a.Dirty = true
}

// Cached reports whether the compound and mesh are valid for the current tree.
func (a *Assembly) Cached() bool {
	return !a.Dirty && a.Mesh != nil
}

// Triangles returns the number of cached triangles.
func (a *Assembly) Triangles() int {
	if a == nil {
		return 0
	}
	return len(a.Mesh)
}
