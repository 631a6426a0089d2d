package assembly

import (
	"context"
	"errors"
	"testing"

	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/specialistvlad/atlasgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// nestedTree builds root -> frame(qty 2, +10x) -> bolt(qty 3, +1y).
func nestedTree() (*Assembly, *Instance, *Instance) {
	bolt := &Instance{
		Part:      &PartDefinition{ID: "bolt", PartNumber: "B-1", Shape: &testutil.Shape{Name: "bolt"}},
		Transform: Translate(0, 1, 0),
		Qty:       3,
	}
	frame := &Instance{
		Part:      &PartDefinition{ID: "frame", PartNumber: "F-1"},
		Transform: Translate(10, 0, 0),
		Qty:       2,
		Children:  []*Instance{bolt},
	}
	asm := New(NewInstance(&PartDefinition{ID: RootID, PartNumber: RootPartNumber}, frame))
	return asm, frame, bolt
}

func TestWalk(t *testing.T) {
	t.Run("quantity and translation accumulate", func(t *testing.T) {
		asm, frame, bolt := nestedTree()

		got := Flatten(asm.Root)
		require.Len(t, got, 3)

		assert.Same(t, asm.Root, got[0].Node)
		assert.Equal(t, 0, got[0].Depth)

		assert.Same(t, frame, got[1].Node)
		assert.Equal(t, 2, got[1].Qty)
		assert.Equal(t, Translate(10, 0, 0), got[1].Transform)

		assert.Same(t, bolt, got[2].Node)
		assert.Equal(t, 6, got[2].Qty)
		assert.Equal(t, Translate(10, 1, 0), got[2].Transform)
		assert.Equal(t, 2, got[2].Depth)
	})

	t.Run("flatten is idempotent", func(t *testing.T) {
		asm, _, _ := nestedTree()
		assert.Equal(t, Flatten(asm.Root), Flatten(asm.Root))
	})

	t.Run("opaque transform passes through", func(t *testing.T) {
		rot := Opaque{Value: "rotate 90 z"}
		child := &Instance{Part: &PartDefinition{ID: "c"}, Transform: Translate(1, 1, 1), Qty: 1}
		mid := &Instance{Part: &PartDefinition{ID: "m"}, Transform: rot, Qty: 1, Children: []*Instance{child}}
		root := &Instance{Part: &PartDefinition{ID: "r"}, Transform: Translate(5, 0, 0), Qty: 1, Children: []*Instance{mid}}

		got := Flatten(root)
		require.Len(t, got, 3)
		assert.Equal(t, rot, got[1].Transform, "opaque replaces accumulated translation")
		assert.Equal(t, Translate(1, 1, 1), got[2].Transform, "translation under opaque is not composed")
	})

	t.Run("early stop", func(t *testing.T) {
		asm, _, _ := nestedTree()
		visited := 0
		Walk(asm.Root, func(Placement) bool {
			visited++
			return visited < 2
		})
		assert.Equal(t, 2, visited)
	})

	t.Run("nil root", func(t *testing.T) {
		assert.Empty(t, Flatten(nil))
	})
}

func TestCompose(t *testing.T) {
	assert.Equal(t, Translate(1, 2, 3), Compose(nil, Translate(1, 2, 3)))
	assert.Equal(t, Translate(1, 2, 3), Compose(Translate(1, 2, 3), nil))
	assert.Equal(t, Translate(2, 4, 6), Compose(Translate(1, 2, 3), Translate(1, 2, 3)))
	assert.Equal(t, Opaque{Value: 1}, Compose(Translate(1, 2, 3), Opaque{Value: 1}))
}

func TestCollectShapes(t *testing.T) {
	ctx := context.Background()

	t.Run("placed handle is repeated by absolute quantity", func(t *testing.T) {
		asm, _, _ := nestedTree()
		spy := &testutil.SpyBackend{}

		shapes, err := CollectShapes(ctx, asm, spy)
		require.NoError(t, err)
		require.Len(t, shapes, 6)
		for _, s := range shapes {
			assert.Same(t, shapes[0], s)
		}
		assert.Equal(t, [3]float64{10, 1, 0}, shapes[0].(*testutil.Shape).Offset)
		assert.Equal(t, 1, spy.TranslateCalls())
	})

	t.Run("structural parts and zero quantities contribute nothing", func(t *testing.T) {
		off := &Instance{Part: &PartDefinition{ID: "off", Shape: &testutil.Shape{}}, Transform: Identity(), Qty: 0}
		asm := New(NewInstance(&PartDefinition{ID: "root"}, off))
		shapes, err := CollectShapes(ctx, asm, &testutil.SpyBackend{})
		require.NoError(t, err)
		assert.Empty(t, shapes)
	})

	t.Run("identity placement skips the backend", func(t *testing.T) {
		asm, err := Normalize([]geometry.Shape{&testutil.Shape{Name: "a"}, &testutil.Shape{Name: "b"}})
		require.NoError(t, err)
		spy := &testutil.SpyBackend{}

		shapes, err := CollectShapes(ctx, asm, spy)
		require.NoError(t, err)
		assert.Len(t, shapes, 2)
		assert.Equal(t, 0, spy.TranslateCalls())
	})

	t.Run("translate failure is returned", func(t *testing.T) {
		asm, _, _ := nestedTree()
		boom := errors.New("boom")
		_, err := CollectShapes(ctx, asm, &testutil.SpyBackend{TranslateErr: boom})
		assert.ErrorIs(t, err, boom)
		assert.ErrorContains(t, err, `place part "bolt"`)
	})
}

func TestFlatBOM(t *testing.T) {
	t.Run("leaf lines carry absolute quantity", func(t *testing.T) {
		asm, _, _ := nestedTree()
		lines := FlatBOM(asm)
		require.Len(t, lines, 1, "sub-assembly without override is not listed next to its leaves")
		assert.Equal(t, "B-1", lines[0].PartNumber)
		assert.Equal(t, 6.0, lines[0].Qty)
		assert.Equal(t, DefaultUnit, lines[0].Unit)
	})

	t.Run("override line is multiplied", func(t *testing.T) {
		asm, frame, _ := nestedTree()
		frame.Part = &PartDefinition{
			ID:         "frame",
			PartNumber: "F-1",
			BOMLine:    &BOMLine{PartNumber: "TUBE-40", Qty: 1.5, Unit: "m", Description: "tube"},
		}

		lines := FlatBOM(asm)
		require.Len(t, lines, 2)
		assert.Equal(t, BOMLine{PartNumber: "TUBE-40", Qty: 3, Unit: "m", Description: "tube"}, lines[0])
		assert.Equal(t, "B-1", lines[1].PartNumber)
	})

	t.Run("two parts", func(t *testing.T) {
		asm, err := Normalize([]*PartDefinition{
			{ID: "a", PartNumber: "PN-A", Shape: &testutil.Shape{}},
			{ID: "b", PartNumber: "PN-B", Shape: &testutil.Shape{}},
		})
		require.NoError(t, err)

		lines := FlatBOM(asm)
		require.Len(t, lines, 2)
		assert.Equal(t, 1.0, lines[0].Qty)
		assert.Equal(t, 1.0, lines[1].Qty)
	})

	t.Run("leaf without part number is skipped", func(t *testing.T) {
		asm, err := Normalize([]*PartDefinition{{ID: "anon", Shape: &testutil.Shape{}}})
		require.NoError(t, err)
		assert.Empty(t, FlatBOM(asm))
	})
}

func TestCountSolids(t *testing.T) {
	asm, _, _ := nestedTree()
	assert.Equal(t, 6, CountSolids(asm))
	assert.Equal(t, 0, CountSolids(nil))
}
