package assembly

import (
	"context"
	"fmt"

	"github.com/specialistvlad/atlasgrid/internal/geometry"
)

// Placement is a node visited by Walk with its absolute quantity and
// transform.
type Placement struct {
	Node      *Instance
	Qty       int
	Transform Transform
	Depth     int
}

// Walk visits root and its descendants depth-first, parents before
// children, in child order. fn returning false stops the walk.
//
// A quantity below zero counts as zero; a zero quantity suppresses the node
// and everything below it from geometry and the BOM but the nodes are still
// visited.
func Walk(root *Instance, fn func(Placement) bool) {
	if root == nil {
		return
	}
	walk(root, 1, Identity(), 0, fn)
}

func walk(inst *Instance, parentQty int, parentXf Transform, depth int, fn func(Placement) bool) bool {
	qty := inst.Qty
	if qty < 0 {
		qty = 0
	}
	p := Placement{
		Node:      inst,
		Qty:       parentQty * qty,
		Transform: Compose(parentXf, inst.Transform),
		Depth:     depth,
	}
	if !fn(p) {
		return false
	}
	for _, ch := range inst.Children {
		if ch == nil {
			continue
		}
		if !walk(ch, p.Qty, p.Transform, depth+1, fn) {
			return false
		}
	}
	return true
}

// Flatten returns every placement of the tree in Walk order.
func Flatten(root *Instance) []Placement {
	var out []Placement
	Walk(root, func(p Placement) bool {
		out = append(out, p)
		return true
	})
	return out
}

// CollectShapes places every geometry-bearing node and repeats the placed
// handle once per unit of absolute quantity. Translations go through placer;
// opaque transforms leave the handle as is.
func CollectShapes(ctx context.Context, asm *Assembly, placer geometry.Translator) ([]geometry.Shape, error) {
	var (
		shapes []geometry.Shape
		err    error
	)
	Walk(asm.Root, func(p Placement) bool {
		if p.Node.Part == nil || p.Node.Part.Shape == nil || p.Qty == 0 {
			return true
		}
		if err = ctx.Err(); err != nil {
			return false
		}
		var placed geometry.Shape
		placed, err = place(ctx, placer, p.Node.Part.Shape, p.Transform)
		if err != nil {
			err = fmt.Errorf("place part %q: %w", p.Node.Part.ID, err)
			return false
		}
		for i := 0; i < p.Qty; i++ {
			shapes = append(shapes, placed)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return shapes, nil
}

func place(ctx context.Context, placer geometry.Translator, shape geometry.Shape, xf Transform) (geometry.Shape, error) {
	t, ok := xf.(Translation)
	if !ok || t.IsZero() {
		return shape, nil
	}
	return placer.Translate(ctx, shape, t.X, t.Y, t.Z)
}

// FlatBOM lists one BOM line per contributing node, quantities already
// multiplied down the tree. The synthetic root is skipped. A part with an
// explicit BOMLine contributes that line; otherwise only leaves with a part
// number contribute, so a sub-assembly is never counted next to its own
// leaves.
func FlatBOM(asm *Assembly) []BOMLine {
	var lines []BOMLine
	Walk(asm.Root, func(p Placement) bool {
		part := p.Node.Part
		if part == nil || part.PartNumber == RootPartNumber || p.Qty == 0 {
			return true
		}
		if ov := part.BOMLine; ov != nil {
			lines = append(lines, BOMLine{
				PartNumber:  ov.PartNumber,
				Qty:         ov.Qty * float64(p.Qty),
				Unit:        ov.Unit,
				Description: ov.Description,
				Props:       ov.Props,
			})
			return true
		}
		if p.Node.IsLeaf() && part.PartNumber != "" {
			lines = append(lines, BOMLine{
				PartNumber:  part.PartNumber,
				Qty:         float64(p.Qty),
				Unit:        DefaultUnit,
				Description: part.Description,
				Props:       part.Props,
			})
		}
		return true
	})
	return lines
}

// CountSolids sums the absolute quantity of geometry-bearing leaves.
func CountSolids(asm *Assembly) int {
	if asm == nil {
		return 0
	}
	n := 0
	Walk(asm.Root, func(p Placement) bool {
		if p.Node.IsLeaf() && p.Node.Part != nil && p.Node.Part.Shape != nil {
			n += p.Qty
		}
		return true
	})
	return n
}
