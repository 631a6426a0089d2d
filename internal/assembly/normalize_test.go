package assembly

import (
	"testing"

	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/specialistvlad/atlasgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("nil and empty inputs give an empty root", func(t *testing.T) {
		for _, in := range []any{nil, []*PartDefinition{}, []geometry.Shape{}, []any{}, (*Assembly)(nil)} {
			asm, err := Normalize(in)
			require.NoError(t, err, "%T", in)
			require.NotNil(t, asm.Root)
			assert.Empty(t, asm.Root.Children)
			assert.True(t, asm.Dirty)
			assert.Equal(t, RootID, asm.Root.Part.ID)
			assert.Nil(t, asm.Root.Part.Shape)
			assert.Equal(t, 1, asm.Root.Qty)
			assert.Equal(t, Identity(), asm.Root.Transform)
		}
	})

	t.Run("assembly is returned unchanged", func(t *testing.T) {
		in := New(NewInstance(&PartDefinition{ID: "top"}))
		asm, err := Normalize(in)
		require.NoError(t, err)
		assert.Same(t, in, asm)
	})

	t.Run("parts become children of a synthetic root", func(t *testing.T) {
		a := &PartDefinition{ID: "a", PartNumber: "PN-A", Shape: &testutil.Shape{Name: "a"}}
		b := &PartDefinition{ID: "b", PartNumber: "PN-B", Shape: &testutil.Shape{Name: "b"}}

		asm, err := Normalize([]*PartDefinition{a, b})
		require.NoError(t, err)
		require.Len(t, asm.Root.Children, 2)
		assert.Same(t, a, asm.Root.Children[0].Part)
		assert.Same(t, b, asm.Root.Children[1].Part)
		for _, ch := range asm.Root.Children {
			assert.Equal(t, 1, ch.Qty)
			assert.Equal(t, Identity(), ch.Transform)
		}
	})

	t.Run("untyped part list", func(t *testing.T) {
		a := &PartDefinition{ID: "a"}
		asm, err := Normalize([]any{a, a})
		require.NoError(t, err)
		require.Len(t, asm.Root.Children, 2)
		assert.Same(t, asm.Root.Children[0].Part, asm.Root.Children[1].Part, "shared definition is not copied")
	})

	t.Run("bare shapes are wrapped", func(t *testing.T) {
		s1, s2 := &testutil.Shape{Name: "1"}, &testutil.Shape{Name: "2"}
		asm, err := Normalize([]geometry.Shape{s1, s2})
		require.NoError(t, err)
		require.Len(t, asm.Root.Children, 2)
		assert.Equal(t, "_P1", asm.Root.Children[0].Part.ID)
		assert.Equal(t, "P-2", asm.Root.Children[1].Part.PartNumber)
		assert.Same(t, s2, asm.Root.Children[1].Part.Shape)
	})

	t.Run("invalid outputs", func(t *testing.T) {
		cases := map[string]any{
			"map":             map[string]any{"a": 1},
			"scalar":          42,
			"string":          "box",
			"scalar list":     []any{1, 2},
			"mixed list":      []any{&PartDefinition{ID: "a"}, &testutil.Shape{}},
			"nil part":        []*PartDefinition{nil},
			"nil handle":      []geometry.Shape{nil},
			"rootless":        &Assembly{},
			"nested map list": []any{map[string]int{}},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := Normalize(in)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidModelOutput)
				var target *InvalidModelOutputError
				assert.ErrorAs(t, err, &target)
			})
		}
	})
}
