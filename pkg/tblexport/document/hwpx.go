package document

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("tblexport.document")

var sectionPattern = regexp.MustCompile(`^Contents/section(\d+)\.xml$`)

// controlElements are inline objects that occupy an anchor in the control
// stream without being tables.
var controlElements = map[string]bool{
	"secPr":     true,
	"ctrl":      true,
	"pic":       true,
	"equation":  true,
	"rect":      true,
	"ellipse":   true,
	"line":      true,
	"arc":       true,
	"polygon":   true,
	"curve":     true,
	"container": true,
	"ole":       true,
	"textart":   true,
}

// hwpxTable mirrors an OWPML hp:tbl element.
type hwpxTable struct {
	RowCnt int       `xml:"rowCnt,attr"`
	ColCnt int       `xml:"colCnt,attr"`
	Rows   []hwpxRow `xml:"tr"`
}

type hwpxRow struct {
	Cells []hwpxCell `xml:"tc"`
}

type hwpxCell struct {
	Paragraphs []hwpxParagraph `xml:"subList>p"`
	Addr       struct {
		Col int `xml:"colAddr,attr"`
		Row int `xml:"rowAddr,attr"`
	} `xml:"cellAddr"`
	Span struct {
		Col int `xml:"colSpan,attr"`
		Row int `xml:"rowSpan,attr"`
	} `xml:"cellSpan"`
}

type hwpxParagraph struct {
	Runs []hwpxRun `xml:"run"`
}

type hwpxRun struct {
	Texts []string   `xml:"t"`
	Ctrls []hwpxCtrl `xml:"ctrl"`
}

type hwpxCtrl struct {
	FootNote *hwpxNote `xml:"footNote"`
	EndNote  *hwpxNote `xml:"endNote"`
}

type hwpxNote struct {
	Paragraphs []hwpxParagraph `xml:"subList>p"`
}

// Open opens a document file as an Engine. Only the XML-based HWPX
// container is supported.
func Open(path string) (Engine, error) {
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".hwpx" {
		return nil, fmt.Errorf("unsupported document format %q (expected .hwpx)", ext)
	}
	return OpenHWPX(path)
}

// OpenHWPX reads an HWPX container and builds its anchor stream. Pages are
// counted from section starts and explicit page breaks.
func OpenHWPX(path string) (*Outline, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening HWPX archive: %w", err)
	}
	defer r.Close()

	sections := sectionFiles(&r.Reader)
	if len(sections) == 0 {
		return nil, fmt.Errorf("missing required file: %s", "Contents/section0.xml")
	}

	b := &outlineBuilder{page: 1}
	for i, f := range sections {
		if i > 0 {
			b.page++
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("opening %s: %w", f.Name, err)
		}
		err = b.parseSection(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", f.Name, err)
		}
	}

	log.Debugf("loaded %s: %d anchors over %d pages", filepath.Base(path), len(b.anchors), b.page)
	return NewOutline(b.anchors), nil
}

// sectionFiles returns the section parts ordered by section number.
func sectionFiles(r *zip.Reader) []*zip.File {
	type numbered struct {
		n int
		f *zip.File
	}
	var found []numbered
	for _, f := range r.File {
		m := sectionPattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[1])
		found = append(found, numbered{n, f})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].n < found[j].n })

	files := make([]*zip.File, len(found))
	for i, nf := range found {
		files[i] = nf.f
	}
	return files
}

type outlineBuilder struct {
	anchors []Anchor
	page    int
}

// parseSection streams one section part, emitting an anchor per control.
func (b *outlineBuilder) parseSection(r io.Reader) error {
	decoder := xml.NewDecoder(r)
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		se, ok := token.(xml.StartElement)
		if !ok {
			continue
		}

		switch {
		case se.Name.Local == "p":
			if isPageBreak(se) {
				b.page++
			}
		case se.Name.Local == "tbl":
			var tbl hwpxTable
			if err := decoder.DecodeElement(&tbl, &se); err != nil {
				return err
			}
			b.anchors = append(b.anchors, Anchor{
				Kind:   AnchorTable,
				Page:   b.page,
				Markup: tableMarkup(&tbl),
			})
		case controlElements[se.Name.Local]:
			if err := decoder.Skip(); err != nil {
				return err
			}
			b.anchors = append(b.anchors, Anchor{
				Kind:   AnchorOther,
				Page:   b.page,
				Markup: emptyMarkup,
			})
		}
	}
}

func isPageBreak(se xml.StartElement) bool {
	for _, attr := range se.Attr {
		if attr.Name.Local == "pageBreak" {
			return attr.Value == "1" || strings.EqualFold(attr.Value, "true")
		}
	}
	return false
}
