package document

import (
	"encoding/xml"
	"strconv"
	"strings"
)

const markupProlog = `<?xml version="1.0" encoding="UTF-8" standalone="no" ?>`

var emptyMarkup = markupProlog + `<HWPML Version="2.8"><HEAD/><BODY><SECTION Id="0"/></BODY></HWPML>`

// markupWriter renders block exports in the HWPML dialect: TABLE > ROW >
// CELL > PARALIST > P > TEXT > CHAR, with FOOTNOTE bodies inline.
type markupWriter struct {
	sb strings.Builder
}

func (w *markupWriter) open(name string, attrs ...string) {
	w.sb.WriteByte('<')
	w.sb.WriteString(name)
	for i := 0; i+1 < len(attrs); i += 2 {
		w.sb.WriteByte(' ')
		w.sb.WriteString(attrs[i])
		w.sb.WriteString(`="`)
		xml.EscapeText(&w.sb, []byte(attrs[i+1]))
		w.sb.WriteByte('"')
	}
	w.sb.WriteByte('>')
}

func (w *markupWriter) close(name string) {
	w.sb.WriteString("</")
	w.sb.WriteString(name)
	w.sb.WriteByte('>')
}

func (w *markupWriter) text(s string) {
	xml.EscapeText(&w.sb, []byte(s))
}

func (w *markupWriter) table(t *hwpxTable) {
	w.open("TABLE", "RowCount", strconv.Itoa(t.RowCnt), "ColCount", strconv.Itoa(t.ColCnt))
	for _, row := range t.Rows {
		w.open("ROW")
		for _, cell := range row.Cells {
			attrs := []string{
				"ColAddr", strconv.Itoa(cell.Addr.Col),
				"RowAddr", strconv.Itoa(cell.Addr.Row),
			}
			// Spans of 1 are omitted, as the host does.
			if cell.Span.Col > 1 {
				attrs = append(attrs, "ColSpan", strconv.Itoa(cell.Span.Col))
			}
			if cell.Span.Row > 1 {
				attrs = append(attrs, "RowSpan", strconv.Itoa(cell.Span.Row))
			}
			w.open("CELL", attrs...)
			w.paraList(cell.Paragraphs)
			w.close("CELL")
		}
		w.close("ROW")
	}
	w.close("TABLE")
}

func (w *markupWriter) paraList(paragraphs []hwpxParagraph) {
	w.open("PARALIST", "LineWrap", "Break")
	for _, p := range paragraphs {
		w.open("P")
		w.open("TEXT")
		for _, run := range p.Runs {
			for _, t := range run.Texts {
				w.open("CHAR")
				w.text(t)
				w.close("CHAR")
			}
			for _, ctrl := range run.Ctrls {
				if ctrl.FootNote != nil {
					w.open("FOOTNOTE")
					w.paraList(ctrl.FootNote.Paragraphs)
					w.close("FOOTNOTE")
				}
				if ctrl.EndNote != nil {
					w.open("ENDNOTE")
					w.paraList(ctrl.EndNote.Paragraphs)
					w.close("ENDNOTE")
				}
			}
		}
		w.close("TEXT")
		w.close("P")
	}
	w.close("PARALIST")
}

// tableMarkup renders a block export whose selection is a single table.
func tableMarkup(t *hwpxTable) string {
	var w markupWriter
	w.sb.WriteString(markupProlog)
	w.open("HWPML", "Version", "2.8")
	w.sb.WriteString("<HEAD/>")
	w.open("BODY")
	w.open("SECTION", "Id", "0")
	w.open("P")
	w.open("TEXT")
	w.table(t)
	w.close("TEXT")
	w.close("P")
	w.close("SECTION")
	w.close("BODY")
	w.close("HWPML")
	return w.sb.String()
}
