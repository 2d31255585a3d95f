package tblexport

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/tliron/commonlog"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/document"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/journal"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/layout"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/navigator"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/parser"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/rearrange"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/spreadsheet"
)

var log = commonlog.GetLogger("tblexport")

// Status is how a run ended.
type Status int

const (
	StatusCompleted Status = iota
	StatusCancelled
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "failed"
	}
}

// Outcome is the result of a run.
type Outcome struct {
	Status Status
	// Err is set when Status is StatusFailed.
	Err error
	// OutputPath is the workbook path, empty if it was never created.
	OutputPath string
	Exported   int
	Tables     int
	Total      int
}

// Recorder stores finished runs.
type Recorder interface {
	Record(run journal.Run) (int64, error)
}

// Exporter runs extraction plans against documents.
type Exporter struct {
	opts           Options
	openDocument   document.Opener
	createWorkbook spreadsheet.Creator
	recorder       Recorder
}

// NewExporter creates an Exporter. Nil openers default to the HWPX loader
// and the excelize workbook.
func NewExporter(openDocument document.Opener, createWorkbook spreadsheet.Creator, opts Options) *Exporter {
	if openDocument == nil {
		openDocument = document.Open
	}
	if createWorkbook == nil {
		createWorkbook = spreadsheet.CreateWorkbook
	}
	return &Exporter{
		opts:           opts,
		openDocument:   openDocument,
		createWorkbook: createWorkbook,
	}
}

// WithRecorder makes the exporter record every finished run.
func (e *Exporter) WithRecorder(r Recorder) *Exporter {
	e.recorder = r
	return e
}

// run holds the resources of one Run call.
type run struct {
	*Exporter
	session *Session
	sink    ProgressSink
	doc     document.Engine
	wb      spreadsheet.Workbook
	nav     *navigator.Navigator
	sheets  []spreadsheet.Sheet
}

// Run exports the tables of input according to session's plan.
// Cancelling ctx has the same effect as session.Cancel. Whatever was
// written is saved on every exit path once the workbook exists.
func (e *Exporter) Run(ctx context.Context, session *Session, input string, sink ProgressSink) Outcome {
	if sink == nil {
		sink = discardSink{}
	}
	started := time.Now()
	cancelled := make(chan struct{})
	stop := context.AfterFunc(ctx, func() {
		session.Cancel()
		close(cancelled)
	})

	r := &run{Exporter: e, session: session, sink: sink}
	outcome := r.execute(input)
	outcome.Exported = session.Exported
	outcome.Tables = session.Tables
	outcome.Total = session.Total

	switch outcome.Status {
	case StatusCompleted:
		session.setState(StateCompleted)
		sink.Report(Progress{Percent: 100, Status: "Export Completed."})
	case StatusCancelled:
		session.setState(StateCancelled)
		r.report("Cancelled.")
	default:
		session.setState(StateFailed)
		r.report("Error: " + outcome.Err.Error())
	}
	log.Infof("export of %s %s: %d/%d", input, outcome.Status, outcome.Exported, outcome.Total)

	e.record(input, session, outcome, started)
	if !stop() {
		// ctx is done: let the pending Cancel land before the flag is cleared.
		<-cancelled
	}
	session.reset()
	return outcome
}

func (e *Exporter) record(input string, session *Session, outcome Outcome, started time.Time) {
	if e.recorder == nil {
		return
	}
	entry := journal.Run{
		Input:      input,
		Output:     outcome.OutputPath,
		Plan:       planString(session.Plan),
		Status:     outcome.Status.String(),
		Exported:   outcome.Exported,
		Total:      outcome.Total,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if outcome.Err != nil {
		entry.Error = outcome.Err.Error()
	}
	if _, err := e.recorder.Record(entry); err != nil {
		log.Warningf("recording run: %s", err)
	}
}

func planString(plan models.Plan) string {
	s := ""
	for i, r := range plan {
		if i > 0 {
			s += ", "
		}
		s += r.String()
	}
	return s
}

func (r *run) execute(input string) Outcome {
	r.session.setState(StatePreparing)
	if err := r.session.Plan.Validate(); err != nil {
		return Outcome{Status: StatusFailed, Err: NewStageError(StageOpen, 0, err)}
	}
	r.session.Total = r.session.Plan.TotalCount()
	r.session.Exported, r.session.Tables = 0, 0

	doc, err := r.openDocument(input)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: NewStageError(StageOpen, 0, fmt.Errorf("%w: %s: %w", ErrResourceOpen, input, err))}
	}
	r.doc = doc
	defer func() {
		if err := doc.Close(); err != nil {
			log.Warningf("closing %s: %s", input, err)
		}
	}()

	path := r.opts.OutputPath(input)
	if r.opts.OutputDir != "" {
		if err := os.MkdirAll(r.opts.OutputDir, 0755); err != nil {
			return Outcome{Status: StatusFailed, Err: NewStageError(StageOpen, 0, fmt.Errorf("%w: %w", ErrResourceOpen, err))}
		}
	}
	path = spreadsheet.UniqueFilename(path)
	wb, err := r.createWorkbook(path)
	if err != nil {
		return Outcome{Status: StatusFailed, Err: NewStageError(StageOpen, 0, fmt.Errorf("%w: %s: %w", ErrResourceOpen, path, err))}
	}
	r.wb = wb
	defer func() {
		if err := wb.Close(); err != nil {
			log.Warningf("closing %s: %s", path, err)
		}
	}()
	log.Infof("exporting %s to %s", input, path)

	outcome := Outcome{Status: StatusCompleted, OutputPath: path}
	if err := r.extract(); err != nil {
		outcome.Status, outcome.Err = StatusFailed, err
	} else if r.session.Cancelled() {
		outcome.Status = StatusCancelled
	} else if done, err := r.rearrange(); err != nil {
		outcome.Status, outcome.Err = StatusFailed, err
	} else if !done {
		outcome.Status = StatusCancelled
	}

	if err := wb.Save(); err != nil {
		saveErr := NewStageError(StageSave, 0, err)
		if outcome.Err != nil {
			log.Errorf("saving partial output: %s", err)
		} else {
			outcome.Status, outcome.Err = StatusFailed, saveErr
		}
	}
	return outcome
}

// extract fills one sheet per range. It returns nil when cancelled.
func (r *run) extract() error {
	r.nav = navigator.New(r.doc)
	plan := r.session.Plan

	for i, pr := range plan {
		if r.session.Cancelled() {
			return nil
		}
		r.session.setState(StateExtracting)
		r.session.RangeIndex = i
		r.report(fmt.Sprintf("Extracting sheets... %d/%d", i+1, len(plan)))

		sheet, err := r.sheetFor(i)
		if err != nil {
			return NewStageError(StageLayout, 0, err)
		}
		r.sheets = append(r.sheets, sheet)

		if err := r.extractRange(pr, sheet); err != nil {
			return err
		}
	}
	return nil
}

func (r *run) sheetFor(index int) (spreadsheet.Sheet, error) {
	if index < r.wb.SheetCount() {
		return r.wb.Sheet(index)
	}
	return r.wb.AddSheet()
}

func (r *run) extractRange(pr models.PageRange, sheet spreadsheet.Sheet) error {
	r.session.lastPage = 0
	r.report(fmt.Sprintf("Moving to start page %d...", pr.Start))
	if err := r.nav.SeekToPage(pr.Start); err != nil {
		if errors.Is(err, ErrEndOfDocument) {
			log.Infof("range %s: %s", pr, err)
			return nil
		}
		return NewStageError(StageSeek, pr.Start, err)
	}
	if pr.Open() {
		r.report(fmt.Sprintf("Exporting pages %d to end...", pr.Start))
	} else {
		r.report(fmt.Sprintf("Exporting pages %d to %d...", pr.Start, pr.End))
	}

	grid := layout.NewGrid(sheet, 1)
	grid.MaxRowHeight = r.opts.MaxRowHeight

	for {
		if r.session.Cancelled() {
			return nil
		}

		if r.doc.AnchorKind(r.nav.Cursor()) == document.AnchorTable {
			page, err := r.nav.Sync()
			if err != nil {
				return NewStageError(StageSeek, r.nav.Page(), err)
			}
			r.session.Page = page
			if !pr.Open() && page > pr.End {
				return nil
			}
			if page >= pr.Start {
				if err := r.exportTable(grid, page); err != nil {
					return err
				}
			}
		}

		if r.session.Cancelled() {
			return nil
		}
		if !r.nav.Advance() {
			log.Debugf("range %s: end of document", pr)
			return nil
		}
	}
}

func (r *run) exportTable(grid *layout.OutputGrid, page int) error {
	r.report(fmt.Sprintf("Exporting page %d...", page))
	table, err := parser.ExtractTable(r.doc, r.nav.Cursor())
	if err != nil {
		if errors.Is(err, ErrEmptyTable) || errors.Is(err, ErrNoTableAtCursor) {
			log.Warningf("skipping table on page %d: %s", page, err)
			return nil
		}
		return NewStageError(StageExtract, page, err)
	}

	if _, err := layout.PlaceTable(grid, table); err != nil {
		return NewStageError(StageLayout, page, err)
	}
	grid.Skip(r.opts.TableGap)

	r.session.countTable(page)
	log.Debugf("table %d placed from page %d", r.session.Tables, page)
	r.report(fmt.Sprintf("Exporting page %d...", page))
	return nil
}

// rearrange post-processes every sheet. Cancellation is polled between
// sheets; it reports false when it stopped early.
func (r *run) rearrange() (bool, error) {
	r.session.setState(StateRearranging)
	r.report("Rearranging...")
	for i, sheet := range r.sheets {
		if r.session.Cancelled() {
			log.Infof("rearrangement cancelled after %d of %d sheets", i, len(r.sheets))
			return false, nil
		}
		var err error
		if i == 0 && r.opts.SplitFirstSheet {
			_, err = rearrange.Split(r.wb, sheet, r.opts.Scan)
		} else {
			_, err = rearrange.Rearrange(sheet, r.opts.Scan)
		}
		if err != nil {
			return false, NewStageError(StageRearrange, 0, err)
		}
	}
	return true, nil
}

func (r *run) report(status string) {
	r.sink.Report(Progress{Percent: r.session.Percent(), Status: status})
}
