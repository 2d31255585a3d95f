// Package spreadsheet adapts excelize workbooks to the grid operations the
// extractor needs.
package spreadsheet

import (
	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
)

// Sheet is the capability surface of one worksheet. Rows and columns are 1-based.
type Sheet interface {
	// Name returns the sheet name.
	Name() string
	// Value returns the displayed text of a cell.
	Value(row, col int) (string, error)
	// SetValue writes text into a cell; an empty string clears it.
	SetValue(row, col int, value string) error
	// Rows returns a snapshot of cell texts, trailing empty cells trimmed.
	Rows() ([][]string, error)
	// Merge merges a range of cells.
	Merge(r models.CellRange) error
	// MergedRanges lists the merged ranges of the sheet.
	MergedRanges() ([]models.CellRange, error)
	// Unmerge removes the merge covering exactly r.
	Unmerge(r models.CellRange) error
	// SetBorder draws a thin solid border around and within r.
	SetBorder(r models.CellRange) error
	// DeleteRows removes n rows starting at row, shifting later rows up.
	DeleteRows(row, n int) error
	// InsertRows inserts n blank rows before row.
	InsertRows(row, n int) error
	// RowHeight returns the display height of a row in points.
	RowHeight(row int) (float64, error)
	// SetRowHeight sets the display height of a row in points.
	SetRowHeight(row int, height float64) error
}

// Workbook is the capability surface of a workbook.
type Workbook interface {
	// Path returns the file the workbook saves to.
	Path() string
	// SheetCount returns the number of sheets.
	SheetCount() int
	// Sheet returns the sheet at a 0-based index.
	Sheet(index int) (Sheet, error)
	// AddSheet appends a new empty sheet.
	AddSheet() (Sheet, error)
	// CopySheet appends a copy of src named name.
	CopySheet(src Sheet, name string) (Sheet, error)
	// Save writes the workbook to Path.
	Save() error
	// Close releases the workbook.
	Close() error
}

// Creator creates a new workbook at path.
type Creator func(path string) (Workbook, error)
