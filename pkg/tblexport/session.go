package tblexport

import (
	"sync/atomic"

	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
)

// State is the lifecycle state of a Session.
type State int32

const (
	StatePreparing State = iota
	StateExtracting
	StateRearranging
	StateCompleted
	StateCancelling
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePreparing:
		return "preparing"
	case StateExtracting:
		return "extracting"
	case StateRearranging:
		return "rearranging"
	case StateCompleted:
		return "completed"
	case StateCancelling:
		return "cancelling"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// Session is the run state of one export. The cancellation flag and the
// state may be read and written from any goroutine; the counters belong
// to the goroutine executing Run.
type Session struct {
	Plan models.Plan

	RangeIndex int
	Page       int
	// Exported counts the pages tables were exported from. It drives the
	// progress percentage and never exceeds Total+1.
	Exported int
	// Tables counts the tables placed.
	Tables int
	Total  int

	lastPage int

	cancelled atomic.Bool
	state     atomic.Int32
}

// NewSession creates a session for plan.
func NewSession(plan models.Plan) *Session {
	return &Session{
		Plan:  plan,
		Total: plan.TotalCount(),
	}
}

// Cancel requests cooperative cancellation. The run stops at its next
// checkpoint, saving what it has written.
func (s *Session) Cancel() {
	s.cancelled.Store(true)
	for {
		cur := s.state.Load()
		if State(cur).terminal() || State(cur) == StateCancelling {
			return
		}
		if s.state.CompareAndSwap(cur, int32(StateCancelling)) {
			return
		}
	}
}

// Cancelled reports whether cancellation was requested.
func (s *Session) Cancelled() bool {
	return s.cancelled.Load()
}

// State returns the session's lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

func (s *Session) setState(state State) {
	if state.terminal() {
		s.state.Store(int32(state))
		return
	}
	for {
		cur := s.state.Load()
		if State(cur) == StateCancelling || State(cur).terminal() {
			return
		}
		if s.state.CompareAndSwap(cur, int32(state)) {
			return
		}
	}
}

// countTable records a table placed from page.
func (s *Session) countTable(page int) {
	s.Tables++
	if page == s.lastPage || s.Exported > s.Total {
		return
	}
	s.lastPage = page
	s.Exported++
}

// Percent returns the progress percentage, capped at 100.
func (s *Session) Percent() int {
	if s.Total <= 0 {
		return 0
	}
	p := s.Exported * 100 / s.Total
	if p > 100 {
		p = 100
	}
	return p
}

// reset clears the run state once a run ends. Counters are kept so the
// outcome can be inspected.
func (s *Session) reset() {
	s.RangeIndex = 0
	s.Page = 0
	s.lastPage = 0
	s.cancelled.Store(false)
}
