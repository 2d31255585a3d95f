package models

// TableCell is one cell of an exported table with its span metadata.
type TableCell struct {
	// ColAddr is the 0-based column address reported by the document.
	ColAddr int `json:"col_addr"`
	// ColSpan is the number of columns covered (>= 1).
	ColSpan int `json:"col_span"`
	// RowSpan is the number of rows covered (>= 1).
	RowSpan int `json:"row_span"`
	// Lines holds the trimmed, non-empty paragraph texts in order.
	Lines []string `json:"lines,omitempty"`
}

// TableRow is an ordered list of cells.
type TableRow struct {
	Cells []TableCell `json:"cells"`
}

// ParsedTable is the structural dump of one exported table.
type ParsedTable struct {
	Rows []TableRow `json:"rows"`
}

// HasContent reports whether any cell of the table carries text.
func (t *ParsedTable) HasContent() bool {
	for _, row := range t.Rows {
		for _, cell := range row.Cells {
			if len(cell.Lines) > 0 {
				return true
			}
		}
	}
	return false
}
