package boxkernel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/atlasgrid/internal/geometry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeCompound(t *testing.T) {
	k := New()
	ctx := context.Background()

	t.Run("empty input is rejected", func(t *testing.T) {
		_, err := k.MakeCompound(ctx, nil)
		assert.ErrorIs(t, err, ErrEmptyCompound)
	})

	t.Run("nested compounds are flattened", func(t *testing.T) {
		inner, err := k.MakeCompound(ctx, []geometry.Shape{MakeBox(1, 1, 1), MakeBox(2, 2, 2)})
		require.NoError(t, err)

		outer, err := k.MakeCompound(ctx, []geometry.Shape{inner, MakeBox(3, 3, 3)})
		require.NoError(t, err)
		assert.Len(t, outer.(*Compound).Boxes, 3)
	})

	t.Run("foreign handles are rejected", func(t *testing.T) {
		_, err := k.MakeCompound(ctx, []geometry.Shape{"not a shape"})
		assert.ErrorContains(t, err, "unsupported type")
	})
}

func TestTranslateDoesNotMutate(t *testing.T) {
	k := New()
	box := MakeBox(1, 2, 3)

	moved, err := k.Translate(context.Background(), box, 10, 0, -1)
	require.NoError(t, err)

	assert.Equal(t, [3]float64{0, 0, 0}, box.Min)
	assert.Equal(t, [3]float64{10, 0, -1}, moved.(*Box).Min)
	assert.Equal(t, [3]float64{11, 2, 2}, moved.(*Box).Max)
}

func TestTriangulate(t *testing.T) {
	k := New()
	ctx := context.Background()

	mesh, err := k.Triangulate(ctx, MakeBox(1, 1, 1))
	require.NoError(t, err)
	assert.Len(t, mesh, 12)

	comp, err := k.MakeCompound(ctx, []geometry.Shape{MakeBox(1, 1, 1), MakeBox(1, 1, 1)})
	require.NoError(t, err)
	mesh, err = k.Triangulate(ctx, comp)
	require.NoError(t, err)
	assert.Len(t, mesh, 24)

	idx := geometry.Index(mesh)
	assert.Len(t, idx.Points, 8, "coincident boxes share all eight corners")
}

func TestExportStep(t *testing.T) {
	k := New()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out.step")

	comp, err := k.MakeCompound(ctx, []geometry.Shape{MakeBox(1, 1, 1), MakeBox(2, 2, 2)})
	require.NoError(t, err)
	require.NoError(t, k.ExportStep(ctx, comp, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), geometry.StepHeader))
	assert.Equal(t, 2, strings.Count(string(data), "MANIFOLD_SOLID_BREP"))
}
