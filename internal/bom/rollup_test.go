package bom

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/specialistvlad/atlasgrid/internal/assembly"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollup(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, Rollup(nil))
	})

	t.Run("distinct part numbers stay separate", func(t *testing.T) {
		got := Rollup([]assembly.BOMLine{
			{PartNumber: "A", Qty: 1, Unit: "pcs"},
			{PartNumber: "B", Qty: 1, Unit: "pcs"},
		})
		assert.Len(t, got, 2)
	})

	t.Run("identical part numbers are summed", func(t *testing.T) {
		got := Rollup([]assembly.BOMLine{
			{PartNumber: "A", Qty: 1, Unit: "pcs"},
			{PartNumber: "A", Qty: 1, Unit: "pcs"},
		})
		require.Len(t, got, 1)
		assert.Equal(t, 2.0, got[0].Qty)
	})

	t.Run("unit is part of the key", func(t *testing.T) {
		got := Rollup([]assembly.BOMLine{
			{PartNumber: "TUBE", Qty: 1.5, Unit: "m"},
			{PartNumber: "TUBE", Qty: 2, Unit: "pcs"},
			{PartNumber: "TUBE", Qty: 0.5, Unit: "m"},
		})
		want := []assembly.BOMLine{
			{PartNumber: "TUBE", Qty: 2, Unit: "m"},
			{PartNumber: "TUBE", Qty: 2, Unit: "pcs"},
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Rollup() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty unit joins the pcs group", func(t *testing.T) {
		got := Rollup([]assembly.BOMLine{
			{PartNumber: "A", Qty: 2},
			{PartNumber: "A", Qty: 3, Unit: assembly.DefaultUnit},
		})
		require.Len(t, got, 1)
		assert.Equal(t, assembly.DefaultUnit, got[0].Unit)
		assert.Equal(t, 5.0, got[0].Qty)
	})

	t.Run("last non-empty description wins", func(t *testing.T) {
		got := Rollup([]assembly.BOMLine{
			{PartNumber: "A", Qty: 1, Description: "first"},
			{PartNumber: "A", Qty: 1, Description: "second"},
			{PartNumber: "A", Qty: 1},
		})
		require.Len(t, got, 1)
		assert.Equal(t, "second", got[0].Description)
		assert.Equal(t, assembly.DefaultUnit, got[0].Unit)
		assert.Equal(t, 3.0, got[0].Qty)
	})

	t.Run("idempotent", func(t *testing.T) {
		in := []assembly.BOMLine{
			{PartNumber: "A", Qty: 2, Unit: "pcs", Description: "x"},
			{PartNumber: "B", Qty: 1, Unit: "m"},
			{PartNumber: "A", Qty: 3, Unit: "pcs"},
			{PartNumber: "C", Qty: 4},
		}
		once := Rollup(in)
		if diff := cmp.Diff(once, Rollup(once)); diff != "" {
			t.Errorf("Rollup is not idempotent (-once +twice):\n%s", diff)
		}
	})
}

func TestTotal(t *testing.T) {
	assert.Equal(t, 3.5, Total([]assembly.BOMLine{{Qty: 1}, {Qty: 2.5}}))
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []assembly.BOMLine{{PartNumber: "BOX-100", Qty: 12, Unit: "pcs", Description: "box"}}))
	assert.Contains(t, buf.String(), "PART NUMBER")
	assert.Contains(t, buf.String(), "BOX-100")
	assert.Contains(t, buf.String(), "12")
}
