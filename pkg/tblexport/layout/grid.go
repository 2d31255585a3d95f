// Package layout places parsed tables onto a sheet, one table after another.
package layout

import (
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/xuri/excelize/v2"
)

var log = commonlog.GetLogger("tblexport.layout")

// DefaultMaxRowHeight is the display height, in points, rows are clamped to.
const DefaultMaxRowHeight = 100.0

// Target is the part of a sheet the layout engine writes to.
type Target interface {
	SetValue(row, col int, value string) error
	Merge(r models.CellRange) error
	RowHeight(row int) (float64, error)
	SetRowHeight(row int, height float64) error
}

// OutputGrid is the append-only write position on one sheet.
type OutputGrid struct {
	Sheet Target
	// RowIndex is the next row to write (1-based).
	RowIndex int
	// MaxRowHeight clamps the display height of written rows; 0 disables it.
	MaxRowHeight float64
}

// NewGrid starts a grid at row start.
func NewGrid(sheet Target, start int) *OutputGrid {
	if start < 1 {
		start = 1
	}
	return &OutputGrid{
		Sheet:        sheet,
		RowIndex:     start,
		MaxRowHeight: DefaultMaxRowHeight,
	}
}

// Skip leaves n blank rows.
func (g *OutputGrid) Skip(n int) {
	if n > 0 {
		g.RowIndex += n
	}
}

// PlaceTable writes table at the grid's row index and returns the advanced
// row index. Cells are written one paragraph line per sheet row; horizontal
// spans are merged on every written line.
func PlaceTable(g *OutputGrid, table *models.ParsedTable) (int, error) {
	first := g.RowIndex
	for _, row := range table.Rows {
		for _, cell := range row.Cells {
			if err := placeCell(g, cell); err != nil {
				return g.RowIndex, err
			}
		}
		g.RowIndex += RowAdvance(row)
	}

	if g.MaxRowHeight > 0 {
		if err := ClampRowHeights(g.Sheet, first, g.RowIndex-1, g.MaxRowHeight); err != nil {
			return g.RowIndex, err
		}
	}
	log.Debugf("placed %d rows at %d..%d", len(table.Rows), first, g.RowIndex-1)
	return g.RowIndex, nil
}

func placeCell(g *OutputGrid, cell models.TableCell) error {
	col := Column(cell)
	for i, line := range cell.Lines {
		if err := g.Sheet.SetValue(g.RowIndex+i, col, line); err != nil {
			return fmt.Errorf("writing row %d column %d: %w", g.RowIndex+i, col, err)
		}
	}

	last := LastColumn(cell)
	if last != col+cell.ColSpan-1 && cell.ColSpan > 1 {
		log.Warningf("clamping span of cell at column %d from %d to %d columns", col, cell.ColSpan, last-col+1)
	}
	if last <= col {
		return nil
	}
	lines := len(cell.Lines)
	if lines < 1 {
		lines = 1
	}
	for i := 0; i < lines; i++ {
		r := models.CellRange{R1: g.RowIndex + i, C1: col, R2: g.RowIndex + i, C2: last}
		if err := g.Sheet.Merge(r); err != nil {
			return fmt.Errorf("merging %s: %w", r, err)
		}
	}
	return nil
}

// Column returns the 1-based sheet column of a cell, clamped to the
// sheet's columns.
func Column(cell models.TableCell) int {
	switch {
	case cell.ColAddr < 0:
		return 1
	case cell.ColAddr >= excelize.MaxColumns:
		log.Warningf("clamping cell column %d to %d", cell.ColAddr+1, excelize.MaxColumns)
		return excelize.MaxColumns
	}
	return cell.ColAddr + 1
}

// LastColumn returns the 1-based sheet column a cell's span ends on,
// clamped to the sheet's columns.
func LastColumn(cell models.TableCell) int {
	col := Column(cell)
	span := cell.ColSpan
	if span < 1 {
		span = 1
	}
	if span-1 > excelize.MaxColumns-col {
		return excelize.MaxColumns
	}
	return col + span - 1
}

// RowAdvance returns how many sheet rows a table row occupies: the most
// lines of any cell, at least 1. A row holding a vertically spanned cell
// occupies a single sheet row, since the span already reaches downward.
func RowAdvance(row models.TableRow) int {
	height := 1
	for _, cell := range row.Cells {
		if cell.RowSpan > 1 {
			return 1
		}
		if len(cell.Lines) > height {
			height = len(cell.Lines)
		}
	}
	return height
}

// ClampRowHeights limits the display height of rows first..last to max.
func ClampRowHeights(sheet Target, first, last int, max float64) error {
	for row := first; row <= last; row++ {
		h, err := sheet.RowHeight(row)
		if err != nil {
			return err
		}
		if h > max {
			if err := sheet.SetRowHeight(row, max); err != nil {
				return err
			}
		}
	}
	return nil
}
