// Package bom aggregates flat bill-of-materials lines into totals.
package bom

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/specialistvlad/atlasgrid/internal/assembly"
)

type groupKey struct {
	partNumber string
	unit       string
}

// Rollup groups lines by part number and unit and sums their quantities.
// An empty unit is counted as assembly.DefaultUnit, so "" and "pcs" lines of
// one part land in the same group. Input order carries no meaning, so for
// the description the last non-empty value seen in a group wins. Groups are
// emitted in order of first appearance. Rollup(Rollup(x)) equals Rollup(x).
func Rollup(lines []assembly.BOMLine) []assembly.BOMLine {
	out := make([]assembly.BOMLine, 0, len(lines))
	index := make(map[groupKey]int, len(lines))

	for _, ln := range lines {
		unit := ln.Unit
		if unit == "" {
			unit = assembly.DefaultUnit
		}
		k := groupKey{partNumber: ln.PartNumber, unit: unit}
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, assembly.BOMLine{PartNumber: ln.PartNumber, Unit: unit})
		}
		out[i].Qty += ln.Qty
		if ln.Description != "" {
			out[i].Description = ln.Description
		}
	}
	return out
}

// Total returns the sum of all quantities, regardless of unit.
func Total(lines []assembly.BOMLine) float64 {
	var sum float64
	for _, ln := range lines {
		sum += ln.Qty
	}
	return sum
}

// Write renders lines as an aligned text table.
func Write(w io.Writer, lines []assembly.BOMLine) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PART NUMBER\tQTY\tUNIT\tDESCRIPTION")
	for _, ln := range lines {
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\n", ln.PartNumber, ln.Qty, ln.Unit, ln.Description)
	}
	return tw.Flush()
}
