package tblexport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ukaji3/tblexport-go/pkg/tblexport/document"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/journal"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/spreadsheet"
)

// tableMarkup renders a block export of a table, one cell per value.
func tableMarkup(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><HWPML><BODY><SECTION><P><TEXT><TABLE>`)
	for _, row := range rows {
		sb.WriteString("<ROW>")
		for col, v := range row {
			fmt.Fprintf(&sb, `<CELL ColAddr="%d"><PARALIST><P><TEXT><CHAR>%s</CHAR></TEXT></P></PARALIST></CELL>`, col, v)
		}
		sb.WriteString("</ROW>")
	}
	sb.WriteString(`</TABLE></TEXT></P></SECTION></BODY></HWPML>`)
	return sb.String()
}

func openerFor(doc document.Engine) document.Opener {
	return func(string) (document.Engine, error) { return doc, nil }
}

type collector struct {
	events []Progress
}

func (c *collector) Report(p Progress) { c.events = append(c.events, p) }

func (c *collector) statuses() []string {
	var s []string
	for _, e := range c.events {
		s = append(s, e.Status)
	}
	return s
}

func (c *collector) has(status string) bool {
	for _, e := range c.events {
		if e.Status == status {
			return true
		}
	}
	return false
}

func testOptions(t *testing.T) Options {
	t.Helper()
	opts := DefaultOptions()
	opts.OutputDir = t.TempDir()
	return opts
}

func openOutput(t *testing.T, path string) *spreadsheet.File {
	t.Helper()
	file, err := spreadsheet.Open(path)
	if err != nil {
		t.Fatalf("Failed to open output: %v", err)
	}
	t.Cleanup(func() { file.Close() })
	return file
}

func expectValues(t *testing.T, sheet spreadsheet.Sheet, expected map[[2]int]string) {
	t.Helper()
	for pos, want := range expected {
		got, err := sheet.Value(pos[0], pos[1])
		if err != nil {
			t.Fatalf("Value(%d, %d) failed: %v", pos[0], pos[1], err)
		}
		if got != want {
			t.Errorf("%s (%d, %d) = %q, expected %q", sheet.Name(), pos[0], pos[1], got, want)
		}
	}
}

func TestRunCompleted(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorOther, Page: 1},
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"10", "20", "Alpha"}, []string{"30", "40", "Beta"})},
		{Kind: document.AnchorTable, Page: 2, Markup: tableMarkup([]string{"x", "1.5"})},
		{Kind: document.AnchorOther, Page: 3},
		{Kind: document.AnchorTable, Page: 4, Markup: tableMarkup([]string{"7", "8"})},
	})
	opts := testOptions(t)
	session := NewSession(models.Plan{{Start: 1, End: 2}, {Start: 4, End: 4}})
	progress := &collector{}

	outcome := NewExporter(openerFor(doc), nil, opts).Run(context.Background(), session, "report.hwpx", progress)
	if outcome.Status != StatusCompleted {
		t.Fatalf("Expected completed, got %s: %v", outcome.Status, outcome.Err)
	}
	if outcome.Total != 3 || outcome.Exported != 3 || outcome.Tables != 3 {
		t.Errorf("Unexpected counters: %+v", outcome)
	}
	if outcome.OutputPath != filepath.Join(opts.OutputDir, "report_converted.xlsx") {
		t.Errorf("Unexpected output path %q", outcome.OutputPath)
	}
	if session.State() != StateCompleted {
		t.Errorf("Expected state completed, got %s", session.State())
	}

	file := openOutput(t, outcome.OutputPath)
	if file.SheetCount() != 2 {
		t.Fatalf("Expected 2 sheets, got %d", file.SheetCount())
	}
	first, _ := file.Sheet(0)
	expectValues(t, first, map[[2]int]string{
		{1, 1}: "Alpha", {1, 2}: "10", {1, 3}: "20",
		{2, 1}: "Beta", {2, 2}: "30", {2, 3}: "40",
		{3, 1}: "", {4, 1}: "",
		{5, 1}: "x", {5, 2}: "1.5",
	})
	second, _ := file.Sheet(1)
	expectValues(t, second, map[[2]int]string{
		{1, 1}: "7", {1, 2}: "8",
	})

	last := progress.events[len(progress.events)-1]
	if last.Percent != 100 || last.Status != "Export Completed." {
		t.Errorf("Unexpected final progress %+v", last)
	}
	for _, status := range []string{
		"Extracting sheets... 1/2",
		"Moving to start page 1...",
		"Exporting pages 1 to 2...",
		"Exporting page 2...",
		"Extracting sheets... 2/2",
		"Moving to start page 4...",
		"Rearranging...",
	} {
		if !progress.has(status) {
			t.Errorf("Missing status %q in %q", status, progress.statuses())
		}
	}

	previous := 0
	for _, e := range progress.events {
		if e.Percent < previous {
			t.Errorf("Progress went backwards: %q", progress.statuses())
			break
		}
		previous = e.Percent
	}
}

func TestRunResolvesOutputCollision(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"1"})},
	})
	opts := testOptions(t)
	existing := filepath.Join(opts.OutputDir, "report_converted.xlsx")
	if err := os.WriteFile(existing, []byte("taken"), 0644); err != nil {
		t.Fatalf("Failed to create existing file: %v", err)
	}

	outcome := NewExporter(openerFor(doc), nil, opts).Run(context.Background(), NewSession(models.Plan{{Start: 1, End: 1}}), "report.hwpx", nil)
	if outcome.Status != StatusCompleted {
		t.Fatalf("Expected completed, got %s: %v", outcome.Status, outcome.Err)
	}
	if filepath.Base(outcome.OutputPath) != "report_converted(1).xlsx" {
		t.Errorf("Unexpected output path %q", outcome.OutputPath)
	}
}

func TestRunCancelledMidRange(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"1", "Alpha"})},
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"2", "Beta"})},
	})
	session := NewSession(models.Plan{{Start: 1, End: 1}})
	progress := &collector{}
	sink := ProgressFunc(func(p Progress) {
		progress.Report(p)
		if session.Tables == 1 {
			session.Cancel()
		}
	})

	outcome := NewExporter(openerFor(doc), nil, testOptions(t)).Run(context.Background(), session, "report.hwpx", sink)
	if outcome.Status != StatusCancelled {
		t.Fatalf("Expected cancelled, got %s: %v", outcome.Status, outcome.Err)
	}
	if outcome.Tables != 1 {
		t.Errorf("Expected 1 table placed, got %d", outcome.Tables)
	}
	if session.State() != StateCancelled {
		t.Errorf("Expected state cancelled, got %s", session.State())
	}
	if session.Cancelled() {
		t.Error("Expected the cancellation flag to be reset")
	}
	if progress.has("Rearranging...") {
		t.Error("Expected no rearrangement after cancellation")
	}
	if last := progress.events[len(progress.events)-1]; last.Status != "Cancelled." {
		t.Errorf("Unexpected final status %q", last.Status)
	}

	file := openOutput(t, outcome.OutputPath)
	sheet, _ := file.Sheet(0)
	// Not relabeled, and the second table was never placed.
	expectValues(t, sheet, map[[2]int]string{
		{1, 1}: "1", {1, 2}: "Alpha",
		{4, 1}: "", {4, 2}: "",
	})
}

func TestRunFailurePreservesPartialOutput(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"kept"})},
		{Kind: document.AnchorTable, Page: 2, Markup: `<TABLE><ROW><CELL></ROW></TABLE>`},
		{Kind: document.AnchorTable, Page: 3, Markup: tableMarkup([]string{"never"})},
	})
	progress := &collector{}

	outcome := NewExporter(openerFor(doc), nil, testOptions(t)).Run(context.Background(), NewSession(models.Plan{{Start: 1, End: 3}}), "report.hwpx", progress)
	if outcome.Status != StatusFailed {
		t.Fatalf("Expected failure, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, ErrMarkupParse) {
		t.Errorf("Expected ErrMarkupParse, got %v", outcome.Err)
	}
	var stageErr *StageError
	if !errors.As(outcome.Err, &stageErr) || stageErr.Stage != StageExtract || stageErr.Page != 2 {
		t.Errorf("Expected an extract StageError on page 2, got %v", outcome.Err)
	}
	if last := progress.events[len(progress.events)-1]; !strings.HasPrefix(last.Status, "Error: ") {
		t.Errorf("Unexpected final status %q", last.Status)
	}

	file := openOutput(t, outcome.OutputPath)
	sheet, _ := file.Sheet(0)
	expectValues(t, sheet, map[[2]int]string{{1, 1}: "kept"})
	rows, _ := sheet.Rows()
	for _, row := range rows {
		for _, v := range row {
			if v == "never" {
				t.Error("Expected extraction to stop at the failing table")
			}
		}
	}
}

func TestRunSkipsEmptyTables(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{""})},
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"5"})},
	})

	outcome := NewExporter(openerFor(doc), nil, testOptions(t)).Run(context.Background(), NewSession(models.Plan{{Start: 1, End: 1}}), "report.hwpx", nil)
	if outcome.Status != StatusCompleted {
		t.Fatalf("Expected completed, got %s: %v", outcome.Status, outcome.Err)
	}
	if outcome.Tables != 1 {
		t.Errorf("Expected the empty table to be skipped, got %d tables", outcome.Tables)
	}
}

func TestRunRangePastEndOfDocument(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"5"})},
	})

	outcome := NewExporter(openerFor(doc), nil, testOptions(t)).Run(context.Background(), NewSession(models.Plan{{Start: 1, End: 1}, {Start: 9, End: 12}}), "report.hwpx", nil)
	if outcome.Status != StatusCompleted {
		t.Fatalf("Expected completed, got %s: %v", outcome.Status, outcome.Err)
	}
	if outcome.Total != 5 || outcome.Exported != 1 {
		t.Errorf("Unexpected counters %+v", outcome)
	}

	file := openOutput(t, outcome.OutputPath)
	if file.SheetCount() != 2 {
		t.Errorf("Expected a sheet per range, got %d", file.SheetCount())
	}
}

func TestRunOpenEndedRange(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"skipped"})},
		{Kind: document.AnchorTable, Page: 2, Markup: tableMarkup([]string{"1"})},
		{Kind: document.AnchorTable, Page: 3, Markup: tableMarkup([]string{"2"})},
		{Kind: document.AnchorTable, Page: 4, Markup: tableMarkup([]string{"3"})},
	})
	plan, err := models.ParsePlan("2")
	if err != nil {
		t.Fatalf("ParsePlan failed: %v", err)
	}

	outcome := NewExporter(openerFor(doc), nil, testOptions(t)).Run(context.Background(), NewSession(plan), "report.hwpx", nil)
	if outcome.Status != StatusCompleted {
		t.Fatalf("Expected completed, got %s: %v", outcome.Status, outcome.Err)
	}
	if outcome.Tables != 3 {
		t.Errorf("Expected 3 tables, got %d", outcome.Tables)
	}
	if outcome.Total != 1 || outcome.Exported > outcome.Total+1 {
		t.Errorf("Unexpected counters %+v", outcome)
	}

	file := openOutput(t, outcome.OutputPath)
	sheet, _ := file.Sheet(0)
	expectValues(t, sheet, map[[2]int]string{{1, 1}: "1", {4, 1}: "2", {7, 1}: "3"})
}

func TestRunSplitFirstSheet(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"1", "Alpha"})},
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"2", "3"})},
	})
	opts := testOptions(t)
	opts.SplitFirstSheet = true

	outcome := NewExporter(openerFor(doc), nil, opts).Run(context.Background(), NewSession(models.Plan{{Start: 1, End: 1}}), "report.hwpx", nil)
	if outcome.Status != StatusCompleted {
		t.Fatalf("Expected completed, got %s: %v", outcome.Status, outcome.Err)
	}

	file := openOutput(t, outcome.OutputPath)
	if file.SheetCount() != 2 {
		t.Fatalf("Expected plain and labeled sheets, got %d", file.SheetCount())
	}
	plain, _ := file.Sheet(0)
	expectValues(t, plain, map[[2]int]string{{1, 1}: "2", {1, 2}: "3"})
	labeled, _ := file.Sheet(1)
	if !strings.HasSuffix(labeled.Name(), " labeled") {
		t.Errorf("Unexpected labeled sheet name %q", labeled.Name())
	}
	expectValues(t, labeled, map[[2]int]string{{1, 1}: "Alpha", {1, 2}: "1"})
}

func TestRunResourceOpenFailure(t *testing.T) {
	opener := func(string) (document.Engine, error) { return nil, os.ErrNotExist }
	opts := testOptions(t)

	outcome := NewExporter(opener, nil, opts).Run(context.Background(), NewSession(models.Plan{{Start: 1, End: 1}}), "missing.hwpx", nil)
	if outcome.Status != StatusFailed {
		t.Fatalf("Expected failure, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, ErrResourceOpen) || !errors.Is(outcome.Err, os.ErrNotExist) {
		t.Errorf("Expected ErrResourceOpen wrapping os.ErrNotExist, got %v", outcome.Err)
	}
	if outcome.OutputPath != "" {
		t.Errorf("Expected no output, got %q", outcome.OutputPath)
	}
	entries, _ := os.ReadDir(opts.OutputDir)
	if len(entries) != 0 {
		t.Errorf("Expected no files written, got %d", len(entries))
	}
}

func TestRunInvalidPlan(t *testing.T) {
	doc := document.NewOutline(nil)
	outcome := NewExporter(openerFor(doc), nil, testOptions(t)).Run(context.Background(), NewSession(models.Plan{{Start: 5, End: 2}}), "report.hwpx", nil)
	if !errors.Is(outcome.Err, ErrInvalidPlan) {
		t.Errorf("Expected ErrInvalidPlan, got %v", outcome.Err)
	}
}

type memoryRecorder struct {
	runs []journal.Run
}

func (m *memoryRecorder) Record(run journal.Run) (int64, error) {
	m.runs = append(m.runs, run)
	return int64(len(m.runs)), nil
}

func TestRunRecordsJournal(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"5"})},
	})
	recorder := &memoryRecorder{}

	exporter := NewExporter(openerFor(doc), nil, testOptions(t)).WithRecorder(recorder)
	outcome := exporter.Run(context.Background(), NewSession(models.Plan{{Start: 1, End: 1}, {Start: 3, End: models.OpenEnd}}), "report.hwpx", nil)

	if len(recorder.runs) != 1 {
		t.Fatalf("Expected 1 recorded run, got %d", len(recorder.runs))
	}
	run := recorder.runs[0]
	if run.Status != outcome.Status.String() || run.Output != outcome.OutputPath {
		t.Errorf("Unexpected journal entry %+v", run)
	}
	if run.Plan != "1:1, 3:" {
		t.Errorf("Unexpected plan %q", run.Plan)
	}
}

// copyRefusingWorkbook fails every sheet copy.
type copyRefusingWorkbook struct {
	spreadsheet.Workbook
}

func (copyRefusingWorkbook) CopySheet(spreadsheet.Sheet, string) (spreadsheet.Sheet, error) {
	return nil, errors.New("copy refused")
}

func TestRunRearrangeFailureKeepsOutput(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"1", "Alpha"})},
	})
	creator := func(path string) (spreadsheet.Workbook, error) {
		wb, err := spreadsheet.CreateWorkbook(path)
		if err != nil {
			return nil, err
		}
		return copyRefusingWorkbook{wb}, nil
	}
	opts := testOptions(t)
	opts.SplitFirstSheet = true

	outcome := NewExporter(openerFor(doc), creator, opts).Run(context.Background(), NewSession(models.Plan{{Start: 1, End: 1}}), "report.hwpx", nil)
	if outcome.Status != StatusFailed {
		t.Fatalf("Expected failure, got %s", outcome.Status)
	}
	if !errors.Is(outcome.Err, ErrRearrange) {
		t.Errorf("Expected ErrRearrange, got %v", outcome.Err)
	}
	var stageErr *StageError
	if !errors.As(outcome.Err, &stageErr) || stageErr.Stage != StageRearrange {
		t.Errorf("Expected a rearrange StageError, got %v", outcome.Err)
	}

	file := openOutput(t, outcome.OutputPath)
	sheet, _ := file.Sheet(0)
	expectValues(t, sheet, map[[2]int]string{{1, 1}: "1", {1, 2}: "Alpha"})
}

func TestRunCancelledWhileRearranging(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"1", "Alpha"})},
		{Kind: document.AnchorTable, Page: 2, Markup: tableMarkup([]string{"2", "Beta"})},
	})
	session := NewSession(models.Plan{{Start: 1, End: 1}, {Start: 2, End: 2}})
	sink := ProgressFunc(func(p Progress) {
		if p.Status == "Rearranging..." {
			session.Cancel()
		}
	})

	outcome := NewExporter(openerFor(doc), nil, testOptions(t)).Run(context.Background(), session, "report.hwpx", sink)
	if outcome.Status != StatusCancelled {
		t.Fatalf("Expected cancelled, got %s: %v", outcome.Status, outcome.Err)
	}
	if session.State() != StateCancelled {
		t.Errorf("Expected state cancelled, got %s", session.State())
	}

	file := openOutput(t, outcome.OutputPath)
	for i, label := range []string{"Alpha", "Beta"} {
		sheet, _ := file.Sheet(i)
		expectValues(t, sheet, map[[2]int]string{{1, 2}: label})
	}
}

func TestRunClearsCancellationFromContext(t *testing.T) {
	doc := document.NewOutline([]document.Anchor{
		{Kind: document.AnchorTable, Page: 1, Markup: tableMarkup([]string{"1"})},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	session := NewSession(models.Plan{{Start: 1, End: 1}})

	outcome := NewExporter(openerFor(doc), nil, testOptions(t)).Run(ctx, session, "report.hwpx", nil)
	if outcome.Status == StatusFailed {
		t.Fatalf("Unexpected failure: %v", outcome.Err)
	}
	if session.Cancelled() {
		t.Error("Expected the cancellation flag to be cleared once the run ends")
	}
}
