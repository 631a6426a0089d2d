package assembly

import "fmt"

// Transform is the placement of an instance relative to its parent. Only
// Translation composes along the tree; any other transform is carried as
// Opaque and replaces the accumulated placement instead of composing with it.
// Rotated sub-assemblies therefore do not rotate their children.
type Transform interface {
	isTransform()
}

// Translation is a pure offset.
type Translation struct {
	X, Y, Z float64
}

func (Translation) isTransform() {}

// IsZero reports whether the offset is the identity.
func (t Translation) IsZero() bool {
	return t.X == 0 && t.Y == 0 && t.Z == 0
}

func (t Translation) String() string {
	return fmt.Sprintf("(%g, %g, %g)", t.X, t.Y, t.Z)
}

// Opaque wraps a transform the engine cannot compose, such as a rotation
// matrix understood only by the geometry backend.
type Opaque struct {
	Value any
}

func (Opaque) isTransform() {}

// Identity returns the zero translation.
func Identity() Transform {
	return Translation{}
}

// Translate is shorthand for a Translation transform.
func Translate(x, y, z float64) Transform {
	return Translation{X: x, Y: y, Z: z}
}

// Compose places child inside parent. Two translations add; in every other
// case the child transform is returned unchanged.
func Compose(parent, child Transform) Transform {
	if child == nil {
		child = Identity()
	}
	if parent == nil {
		parent = Identity()
	}
	p, pok := parent.(Translation)
	c, cok := child.(Translation)
	if !pok || !cok {
		return child
	}
	return Translation{X: p.X + c.X, Y: p.Y + c.Y, Z: p.Z + c.Z}
}
