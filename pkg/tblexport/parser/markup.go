package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/document"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"golang.org/x/text/unicode/norm"
)

var log = commonlog.GetLogger("tblexport.parser")

// ErrNoTableAtCursor indicates the control under the cursor is not a table.
var ErrNoTableAtCursor = errors.New("no table at cursor")

// ErrMarkupParse indicates the exported markup is not well formed.
var ErrMarkupParse = errors.New("markup parse error")

// ErrEmptyTable indicates the table has no cell with text.
var ErrEmptyTable = errors.New("empty table")

var (
	// footnotePattern matches footnote and endnote bodies, which the host
	// renders out of band.
	footnotePattern = regexp.MustCompile(`(?is)<(FOOTNOTE|ENDNOTE)\b[^>]*/>|<(FOOTNOTE|ENDNOTE)\b.*?</(FOOTNOTE|ENDNOTE)\s*>`)
	// tableTagPattern matches TABLE open, close and self-closing tags.
	tableTagPattern = regexp.MustCompile(`(?is)<(/?)TABLE\b[^>]*?(/?)>`)
)

// ExtractTable selects the table under cursor, exports it and parses the
// export.
func ExtractTable(doc document.Engine, cursor document.Cursor) (*models.ParsedTable, error) {
	if cursor == nil || doc.AnchorKind(cursor) != document.AnchorTable {
		return nil, ErrNoTableAtCursor
	}
	if err := doc.SetViewPosition(cursor); err != nil {
		return nil, fmt.Errorf("selecting table: %w", err)
	}
	markup, err := doc.ExportSelectionMarkup()
	if err != nil {
		return nil, fmt.Errorf("exporting selection: %w", err)
	}
	return ParseMarkup(markup)
}

// ParseMarkup parses a block export into rows of cells. Footnotes are
// removed first and only the outermost TABLE elements are kept.
func ParseMarkup(markup string) (*models.ParsedTable, error) {
	markup = footnotePattern.ReplaceAllString(markup, "")

	tables, err := isolateTables(markup)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, ErrNoTableAtCursor
	}

	root, err := parseTree(strings.NewReader("<TABLES>" + strings.Join(tables, "") + "</TABLES>"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMarkupParse, err)
	}

	result := &models.ParsedTable{}
	for _, table := range root.collect("TABLE", nil) {
		for _, row := range table.childrenNamed("ROW") {
			cells := parseRow(row)
			if len(cells) == 0 {
				continue
			}
			result.Rows = append(result.Rows, models.TableRow{Cells: cells})
		}
	}

	if !result.HasContent() {
		return nil, ErrEmptyTable
	}
	log.Debugf("parsed table with %d rows", len(result.Rows))
	return result, nil
}

// isolateTables returns the outermost TABLE elements of markup in order.
// A TABLE left open or a stray closing tag means the export was cut short.
func isolateTables(markup string) ([]string, error) {
	var tables []string
	depth, start := 0, 0
	for _, m := range tableTagPattern.FindAllStringSubmatchIndex(markup, -1) {
		closing := m[3] > m[2]
		selfClosing := m[5] > m[4]
		switch {
		case selfClosing:
			if depth == 0 {
				tables = append(tables, markup[m[0]:m[1]])
			}
		case closing:
			if depth == 0 {
				return nil, fmt.Errorf("%w: unbalanced TABLE: closing tag at offset %d", ErrMarkupParse, m[0])
			}
			depth--
			if depth == 0 {
				tables = append(tables, markup[start:m[1]])
			}
		default:
			if depth == 0 {
				start = m[0]
			}
			depth++
		}
	}
	if depth > 0 {
		return nil, fmt.Errorf("%w: unbalanced TABLE: %d left open", ErrMarkupParse, depth)
	}
	return tables, nil
}

// parseRow reads the CELL children of a ROW element.
func parseRow(row *node) []models.TableCell {
	var cells []models.TableCell
	nextAddr := 0
	for _, cell := range row.childrenNamed("CELL") {
		c := models.TableCell{
			ColAddr: intAttr(cell, "ColAddr", nextAddr),
			ColSpan: spanAttr(cell, "ColSpan"),
			RowSpan: spanAttr(cell, "RowSpan"),
			Lines:   cellLines(cell),
		}
		nextAddr = c.ColAddr + c.ColSpan
		cells = append(cells, c)
	}
	return cells
}

// cellLines collects the trimmed, non-empty paragraph texts of a cell.
func cellLines(cell *node) []string {
	var lines []string
	for _, p := range cell.collect("P", nil) {
		text := strings.TrimSpace(norm.NFC.String(p.textContent()))
		if text != "" {
			lines = append(lines, text)
		}
	}
	return lines
}

func intAttr(n *node, name string, fallback int) int {
	v, ok := n.attr(name)
	if !ok {
		return fallback
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || i < 0 {
		return fallback
	}
	return i
}

// spanAttr reads a span attribute, defaulting missing or invalid spans to 1.
func spanAttr(n *node, name string) int {
	if span := intAttr(n, name, 1); span >= 1 {
		return span
	}
	return 1
}
