// Package tblexport extracts the tables of a word-processor document into
// a spreadsheet workbook, one sheet per page range.
package tblexport

import (
	"path/filepath"
	"strings"

	"github.com/ukaji3/tblexport-go/pkg/tblexport/layout"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/rearrange"
)

// OutputSuffix is appended to the input's stem to name the workbook.
const OutputSuffix = "_converted.xlsx"

// Options configures an export run.
type Options struct {
	// OutputDir is the directory the workbook is written to.
	// If empty, the input's directory is used.
	OutputDir string
	// OutputName is the workbook's file name.
	// If empty, defaults to "<input stem>_converted.xlsx".
	OutputName string
	// SplitFirstSheet splits the first sheet into plain and labeled sheets.
	SplitFirstSheet bool
	// MaxRowHeight clamps the display height of written rows, in points.
	MaxRowHeight float64
	// TableGap is the number of blank rows left after each table.
	TableGap int
	// Scan holds the region thresholds used by rearrangement.
	Scan rearrange.ScanConfig
	// JournalPath is the run journal database. Empty disables the journal.
	JournalPath string
}

// DefaultOptions returns default export options.
func DefaultOptions() Options {
	return Options{
		MaxRowHeight: layout.DefaultMaxRowHeight,
		TableGap:     2,
		Scan:         rearrange.DefaultScanConfig(),
	}
}

// OutputPath returns the requested workbook path for input, before
// collision resolution.
func (o Options) OutputPath(input string) string {
	dir := o.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	name := o.OutputName
	if name == "" {
		base := filepath.Base(input)
		name = strings.TrimSuffix(base, filepath.Ext(base)) + OutputSuffix
	}
	return filepath.Join(dir, name)
}
