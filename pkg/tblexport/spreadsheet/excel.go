package spreadsheet

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/parser"
	"github.com/xuri/excelize/v2"
)

// maxSheetNameLength is Excel's limit on sheet names.
const maxSheetNameLength = 31

// maxNumberDigits is the precision Excel keeps for numbers; longer digit
// runs such as identifiers stay text.
const maxNumberDigits = 15

// File is a Workbook backed by an excelize file.
type File struct {
	f      *excelize.File
	path   string
	border int
}

// Create creates an empty workbook and saves it to path right away, so the
// output file exists even if extraction fails before the first save.
func Create(path string) (*File, error) {
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		f.Close()
		return nil, err
	}
	return &File{f: f, path: path}, nil
}

// Open opens an existing workbook.
func Open(path string) (*File, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	return &File{f: f, path: path}, nil
}

// CreateWorkbook is a Creator backed by Create.
func CreateWorkbook(path string) (Workbook, error) {
	file, err := Create(path)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Path implements Workbook.
func (w *File) Path() string { return w.path }

// SheetCount implements Workbook.
func (w *File) SheetCount() int { return len(w.f.GetSheetList()) }

// Sheet implements Workbook.
func (w *File) Sheet(index int) (Sheet, error) {
	names := w.f.GetSheetList()
	if index < 0 || index >= len(names) {
		return nil, fmt.Errorf("sheet index %d out of range (%d sheets)", index, len(names))
	}
	return &Worksheet{file: w, name: names[index]}, nil
}

// AddSheet implements Workbook.
func (w *File) AddSheet() (Sheet, error) {
	n := len(w.f.GetSheetList()) + 1
	name := fmt.Sprintf("Sheet%d", n)
	for w.hasSheet(name) {
		n++
		name = fmt.Sprintf("Sheet%d", n)
	}
	if _, err := w.f.NewSheet(name); err != nil {
		return nil, err
	}
	return &Worksheet{file: w, name: name}, nil
}

// CopySheet implements Workbook.
func (w *File) CopySheet(src Sheet, name string) (Sheet, error) {
	name = truncateName(name)
	if w.hasSheet(name) {
		return nil, fmt.Errorf("sheet %q already exists", name)
	}
	from, err := w.f.GetSheetIndex(src.Name())
	if err != nil {
		return nil, err
	}
	if from < 0 {
		return nil, fmt.Errorf("sheet %q not found", src.Name())
	}
	to, err := w.f.NewSheet(name)
	if err != nil {
		return nil, err
	}
	if err := w.f.CopySheet(from, to); err != nil {
		return nil, err
	}
	return &Worksheet{file: w, name: name}, nil
}

// Save implements Workbook.
func (w *File) Save() error {
	return w.f.SaveAs(w.path)
}

// Close implements Workbook.
func (w *File) Close() error {
	return w.f.Close()
}

func (w *File) hasSheet(name string) bool {
	idx, err := w.f.GetSheetIndex(name)
	return err == nil && idx >= 0
}

func (w *File) borderStyle() (int, error) {
	if w.border != 0 {
		return w.border, nil
	}
	style, err := w.f.NewStyle(&excelize.Style{
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return 0, err
	}
	w.border = style
	return style, nil
}

func truncateName(name string) string {
	if utf8.RuneCountInString(name) <= maxSheetNameLength {
		return name
	}
	return string([]rune(name)[:maxSheetNameLength])
}

// Worksheet is a Sheet of a File.
type Worksheet struct {
	file *File
	name string
}

// Name implements Sheet.
func (s *Worksheet) Name() string { return s.name }

// Value implements Sheet.
func (s *Worksheet) Value(row, col int) (string, error) {
	cell, err := cellName(row, col)
	if err != nil {
		return "", err
	}
	return s.file.f.GetCellValue(s.name, cell)
}

// SetValue implements Sheet.
func (s *Worksheet) SetValue(row, col int, value string) error {
	cell, err := cellName(row, col)
	if err != nil {
		return err
	}
	if value == "" {
		return s.file.f.SetCellValue(s.name, cell, nil)
	}
	if v, ok := typedValue(value); ok {
		return s.file.f.SetCellValue(s.name, cell, v)
	}
	return s.file.f.SetCellStr(s.name, cell, value)
}

// typedValue returns the number a cell text reads as. Percentages keep
// their text form.
func typedValue(value string) (interface{}, bool) {
	if strings.Contains(value, "%") || len(strings.TrimSpace(value)) > maxNumberDigits {
		return nil, false
	}
	v := parser.ParseValue(value)
	if _, isString := v.(string); isString {
		return nil, false
	}
	return v, true
}

// Rows implements Sheet.
func (s *Worksheet) Rows() ([][]string, error) {
	return s.file.f.GetRows(s.name)
}

// Merge implements Sheet.
func (s *Worksheet) Merge(r models.CellRange) error {
	topLeft, bottomRight, err := rangeNames(r)
	if err != nil {
		return err
	}
	return s.file.f.MergeCell(s.name, topLeft, bottomRight)
}

// MergedRanges implements Sheet.
func (s *Worksheet) MergedRanges() ([]models.CellRange, error) {
	merges, err := s.file.f.GetMergeCells(s.name)
	if err != nil {
		return nil, err
	}
	ranges := make([]models.CellRange, 0, len(merges))
	for _, mc := range merges {
		r, err := ParseRange(mc.GetStartAxis() + ":" + mc.GetEndAxis())
		if err != nil {
			return nil, err
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

// Unmerge implements Sheet.
func (s *Worksheet) Unmerge(r models.CellRange) error {
	topLeft, bottomRight, err := rangeNames(r)
	if err != nil {
		return err
	}
	return s.file.f.UnmergeCell(s.name, topLeft, bottomRight)
}

// SetBorder implements Sheet.
func (s *Worksheet) SetBorder(r models.CellRange) error {
	style, err := s.file.borderStyle()
	if err != nil {
		return err
	}
	topLeft, bottomRight, err := rangeNames(r)
	if err != nil {
		return err
	}
	return s.file.f.SetCellStyle(s.name, topLeft, bottomRight, style)
}

// DeleteRows implements Sheet.
func (s *Worksheet) DeleteRows(row, n int) error {
	for i := 0; i < n; i++ {
		if err := s.file.f.RemoveRow(s.name, row); err != nil {
			return err
		}
	}
	return nil
}

// InsertRows implements Sheet.
func (s *Worksheet) InsertRows(row, n int) error {
	if n <= 0 {
		return nil
	}
	return s.file.f.InsertRows(s.name, row, n)
}

// RowHeight implements Sheet.
func (s *Worksheet) RowHeight(row int) (float64, error) {
	return s.file.f.GetRowHeight(s.name, row)
}

// SetRowHeight implements Sheet.
func (s *Worksheet) SetRowHeight(row int, height float64) error {
	return s.file.f.SetRowHeight(s.name, row, height)
}
