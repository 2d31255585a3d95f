// Package models defines the records shared by the extraction pipeline.
package models

import "fmt"

// CellRange represents cell coordinate bounds on a sheet.
type CellRange struct {
	// R1 is the start row (1-based).
	R1 int `json:"r1"`
	// C1 is the start column (1-based).
	C1 int `json:"c1"`
	// R2 is the end row (1-based, inclusive).
	R2 int `json:"r2"`
	// C2 is the end column (1-based, inclusive).
	C2 int `json:"c2"`
}

// Intersects reports whether r and o share at least one cell.
func (r CellRange) Intersects(o CellRange) bool {
	return r.R1 <= o.R2 && o.R1 <= r.R2 && r.C1 <= o.C2 && o.C1 <= r.C2
}

func (r CellRange) String() string {
	return fmt.Sprintf("R%dC%d:R%dC%d", r.R1, r.C1, r.R2, r.C2)
}

// Region is a maximal rectangular block of non-empty cells, treated as one
// logical table during rearrangement.
type Region struct {
	// Top is the first row of the region (1-based).
	Top int `json:"top"`
	// Bottom is the last row of the region (1-based, inclusive).
	Bottom int `json:"bottom"`
	// Right is the last non-empty column over all rows. Regions always start at column 1.
	Right int `json:"right"`
	// Label is set once the rightmost column has been classified as a label column.
	Label bool `json:"label"`
}

// Bounds returns the region as a cell range anchored at column 1.
func (r Region) Bounds() CellRange {
	return CellRange{R1: r.Top, C1: 1, R2: r.Bottom, C2: r.Right}
}

// Height returns the number of rows in the region.
func (r Region) Height() int {
	return r.Bottom - r.Top + 1
}
