package assembly

import (
	"fmt"
	"reflect"

	"github.com/specialistvlad/atlasgrid/internal/geometry"
)

// Normalize converts a model function's return value into an Assembly.
//
// Accepted values are an *Assembly (returned as is), a []*PartDefinition, a
// []geometry.Shape, a []any holding only parts or only geometry handles, and
// nil. Every list element becomes a child of a synthetic root with quantity 1
// at the origin; bare handles are wrapped in generated part definitions.
// Anything else yields an *InvalidModelOutputError.
func Normalize(out any) (*Assembly, error) {
	switch v := out.(type) {
	case nil:
		return newRooted(nil), nil
	case *Assembly:
		if v == nil {
			return newRooted(nil), nil
		}
		if v.Root == nil {
			return nil, invalid(out, "assembly has no root instance")
		}
		return v, nil
	case []*PartDefinition:
		return fromParts(out, v)
	case []geometry.Shape:
		return fromShapes(out, v)
	case []any:
		return fromMixed(out, v)
	default:
		return nil, invalid(out, "expected an assembly, a list of parts or a list of shapes")
	}
}

func fromParts(out any, parts []*PartDefinition) (*Assembly, error) {
	children := make([]*Instance, 0, len(parts))
	for i, p := range parts {
		if p == nil {
			return nil, invalid(out, fmt.Sprintf("part %d is nil", i))
		}
		children = append(children, NewInstance(p))
	}
	return newRooted(children), nil
}

func fromShapes(out any, shapes []geometry.Shape) (*Assembly, error) {
	children := make([]*Instance, 0, len(shapes))
	for i, s := range shapes {
		if !isHandle(s) {
			return nil, invalid(out, fmt.Sprintf("element %d (%T) is not a geometry handle", i, s))
		}
		children = append(children, NewInstance(&PartDefinition{
			ID:         fmt.Sprintf("_P%d", i+1),
			Shape:      s,
			PartNumber: fmt.Sprintf("P-%d", i+1),
		}))
	}
	return newRooted(children), nil
}

// fromMixed classifies an untyped list by its first element.
func fromMixed(out any, items []any) (*Assembly, error) {
	if len(items) == 0 {
		return newRooted(nil), nil
	}
	if _, ok := items[0].(*PartDefinition); ok {
		parts := make([]*PartDefinition, len(items))
		for i, it := range items {
			p, ok := it.(*PartDefinition)
			if !ok {
				return nil, invalid(out, fmt.Sprintf("element %d (%T) is not a part definition", i, it))
			}
			parts[i] = p
		}
		return fromParts(out, parts)
	}
	shapes := make([]geometry.Shape, len(items))
	for i, it := range items {
		shapes[i] = it
	}
	return fromShapes(out, shapes)
}

func newRooted(children []*Instance) *Assembly {
	root := NewInstance(&PartDefinition{ID: RootID, PartNumber: RootPartNumber}, children...)
	return New(root)
}

// isHandle rejects values that cannot be backend handles: nil, scalars,
// strings and containers.
func isHandle(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(*PartDefinition); ok {
		return false
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Struct:
		return true
	case reflect.Pointer, reflect.UnsafePointer:
		return !reflect.ValueOf(v).IsNil()
	default:
		return false
	}
}

func invalid(out any, reason string) error {
	return &InvalidModelOutputError{Type: fmt.Sprintf("%T", out), Reason: reason}
}
