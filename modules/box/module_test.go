package box

import (
	"context"
	"testing"

	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/specialistvlad/atlasgrid/internal/geometry/boxkernel"
	"github.com/specialistvlad/atlasgrid/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox(t *testing.T) {
	ctx := context.Background()
	reg := registry.New("")
	require.NoError(t, reg.Init(ctx, &Module{}))

	fam, err := reg.Lookup("box")
	require.NoError(t, err)
	assert.Equal(t, []string{"width", "height", "depth"}, fam.Schema.Names())

	out, err := fam.Fn(ctx, fam.Schema.Defaults())
	require.NoError(t, err)
	asm, err := assembly.Normalize(out)
	require.NoError(t, err)

	require.Len(t, asm.Root.Children, 1)
	b, ok := asm.Root.Children[0].Part.Shape.(*boxkernel.Box)
	require.True(t, ok)
	assert.Equal(t, [3]float64{100, 50, 25}, b.Max)
	assert.Equal(t, "P-1", asm.Root.Children[0].Part.PartNumber)
}
