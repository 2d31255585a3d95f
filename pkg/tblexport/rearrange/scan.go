// Package rearrange post-processes a filled sheet: it finds the table
// regions, normalises the gaps between them, drops source merges, draws
// borders and moves textual label columns to the left edge.
package rearrange

import (
	"strings"

	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/parser"
)

// ScanConfig holds the region boundary thresholds. The single-sheet and
// split passes share it.
type ScanConfig struct {
	// RegionGap is the number of blank rows left between regions.
	RegionGap int
	// EmptyRowLimit stops the scan after this many consecutive blank rows.
	EmptyRowLimit int
}

// DefaultScanConfig returns default scan thresholds.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		RegionGap:     2,
		EmptyRowLimit: 10,
	}
}

// block is a region together with its cell texts at scan time.
type block struct {
	models.Region
	rows [][]string
}

// Scan finds the regions of a sheet snapshot, as returned by Sheet.Rows.
func Scan(rows [][]string, cfg ScanConfig) []models.Region {
	blocks := scan(rows, cfg)
	regions := make([]models.Region, len(blocks))
	for i, b := range blocks {
		regions[i] = b.Region
	}
	return regions
}

func scan(rows [][]string, cfg ScanConfig) []block {
	var blocks []block
	r := 0
	for r < len(rows) {
		if rowEmpty(rows[r]) {
			blank := 0
			for r < len(rows) && rowEmpty(rows[r]) {
				blank++
				r++
			}
			if cfg.EmptyRowLimit > 0 && blank >= cfg.EmptyRowLimit {
				break
			}
			continue
		}

		start := r
		right := 0
		for r < len(rows) && !rowEmpty(rows[r]) {
			if w := rowWidth(rows[r]); w > right {
				right = w
			}
			r++
		}
		blocks = append(blocks, block{
			Region: models.Region{Top: start + 1, Bottom: r, Right: right},
			rows:   rows[start:r],
		})
	}
	return blocks
}

// rowWidth returns the 1-based column of the last non-empty cell, 0 if none.
func rowWidth(row []string) int {
	for c := len(row) - 1; c >= 0; c-- {
		if strings.TrimSpace(row[c]) != "" {
			return c + 1
		}
	}
	return 0
}

func rowEmpty(row []string) bool {
	return rowWidth(row) == 0
}

// column returns the cell texts of 1-based column col, "" where a row is short.
func column(rows [][]string, col int) []string {
	values := make([]string, len(rows))
	for i, row := range rows {
		if col-1 < len(row) {
			values[i] = row[col-1]
		}
	}
	return values
}

// IsLabelColumn reports whether every value is empty or text that is
// neither a number nor the dash placeholder.
func IsLabelColumn(values []string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if parser.IsNumeric(v) || parser.IsDash(v) {
			return false
		}
	}
	return true
}

// Relabel moves the last of width columns to the front, shifting the
// others one column right.
func Relabel(rows [][]string, width int) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		padded := make([]string, width)
		copy(padded, row)
		shifted := make([]string, 0, width)
		shifted = append(shifted, padded[width-1])
		shifted = append(shifted, padded[:width-1]...)
		out[i] = shifted
	}
	return out
}
