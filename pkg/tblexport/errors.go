package tblexport

import (
	"errors"
	"fmt"

	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/navigator"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/parser"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/rearrange"
)

// ErrResourceOpen indicates the document or the workbook could not be opened.
var ErrResourceOpen = errors.New("cannot open resource")

// Errors raised by the pipeline stages, re-exported for errors.Is checks.
var (
	ErrEndOfDocument   = navigator.ErrEndOfDocument
	ErrNavigation      = navigator.ErrNavigation
	ErrNoTableAtCursor = parser.ErrNoTableAtCursor
	ErrMarkupParse     = parser.ErrMarkupParse
	ErrEmptyTable      = parser.ErrEmptyTable
	ErrRearrange       = rearrange.ErrRearrange
	ErrInvalidPlan     = models.ErrInvalidPlan
)

// Stage names used in StageError.
const (
	StageOpen      = "open"
	StageSeek      = "seek"
	StageExtract   = "extract"
	StageLayout    = "layout"
	StageRearrange = "rearrange"
	StageSave      = "save"
)

// StageError represents a failure at one stage of a run.
type StageError struct {
	Stage string
	Page  int // 0 when the failure is not tied to a page
	Err   error
}

func (e *StageError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("%s failed on page %d: %v", e.Stage, e.Page, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// NewStageError creates a new StageError.
func NewStageError(stage string, page int, err error) *StageError {
	return &StageError{
		Stage: stage,
		Page:  page,
		Err:   err,
	}
}
