// Package navigator walks a document's anchor stream to reach a page and
// to step from one table to the next.
package navigator

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/document"
)

var log = commonlog.GetLogger("tblexport.navigator")

// ErrEndOfDocument indicates no further anchor exists before the target.
var ErrEndOfDocument = errors.New("end of document")

// ErrNavigation indicates the host reported a malformed document state.
var ErrNavigation = errors.New("navigation failed")

// State is the navigator's position in the seek state machine.
type State int

const (
	Idle State = iota
	SeekingForward
	SeekingBackward
	AtTarget
)

func (s State) String() string {
	switch s {
	case SeekingForward:
		return "seeking-forward"
	case SeekingBackward:
		return "seeking-backward"
	case AtTarget:
		return "at-target"
	default:
		return "idle"
	}
}

// Navigator owns the traversal cursor of one extraction session.
type Navigator struct {
	doc    document.Engine
	cursor document.Cursor
	page   int
	state  State
}

// New starts a navigator at the head anchor, on page 1.
func New(doc document.Engine) *Navigator {
	return &Navigator{
		doc:    doc,
		cursor: doc.HeadAnchor(),
		page:   1,
	}
}

// Cursor returns the anchor under the navigator.
func (n *Navigator) Cursor() document.Cursor { return n.cursor }

// Page returns the logical current page.
func (n *Navigator) Page() int { return n.page }

// State returns the seek state.
func (n *Navigator) State() State { return n.state }

// SeekToPage moves the navigator to target. See SeekToPage.
func (n *Navigator) SeekToPage(target int) error {
	n.state = Idle
	cursor, page, err := seek(n.doc, n.cursor, n.page, target, func(s State) { n.state = s })
	n.cursor, n.page = cursor, page
	if err != nil {
		n.state = Idle
		return err
	}
	n.state = AtTarget
	return nil
}

// Sync positions the view on the current anchor and refreshes the page
// from the host.
func (n *Navigator) Sync() (int, error) {
	page, err := pageAt(n.doc, n.cursor)
	if err != nil {
		return n.page, err
	}
	n.page = page
	return page, nil
}

// Advance steps to the successor anchor. It reports false, leaving the
// cursor in place, at the end of the stream.
func (n *Navigator) Advance() bool {
	if n.cursor == nil {
		return false
	}
	next := n.doc.Next(n.cursor)
	if next == nil {
		return false
	}
	n.cursor = next
	return true
}

// SeekToPage walks from cursor, currently on page, until the view reaches
// target and returns the new cursor and page.
//
// Seeking forward only refreshes the page at table anchors. Seeking
// backward commits a page only when the anchor before the candidate sits
// on a different page, so the cursor lands on the first anchor of a page.
// A forward step that passes target stops on that table: target holds no
// tables, and each direction only ever moves one way, so the walk ends.
func SeekToPage(doc document.Engine, cursor document.Cursor, page, target int) (document.Cursor, int, error) {
	return seek(doc, cursor, page, target, nil)
}

func seek(doc document.Engine, cursor document.Cursor, page, target int, observe func(State)) (document.Cursor, int, error) {
	if target < 1 {
		return cursor, page, fmt.Errorf("%w: target page %d", ErrNavigation, target)
	}
	if cursor == nil {
		return cursor, page, ErrEndOfDocument
	}
	if observe == nil {
		observe = func(State) {}
	}

	for page != target {
		forward := page < target
		if forward {
			observe(SeekingForward)
			next := doc.Next(cursor)
			if next == nil {
				return cursor, page, fmt.Errorf("%w: page %d not reached (last table on page %d)", ErrEndOfDocument, target, page)
			}
			cursor = next
			if doc.AnchorKind(cursor) == document.AnchorTable {
				p, err := pageAt(doc, cursor)
				if err != nil {
					return cursor, page, err
				}
				page = p
			}
		} else {
			observe(SeekingBackward)
			prev := doc.Prev(cursor)
			if prev == nil {
				log.Debugf("page %d precedes the first anchor, staying on page %d", target, page)
				break
			}
			cursor = prev
			candidate, err := pageAt(doc, cursor)
			if err != nil {
				return cursor, page, err
			}
			before := doc.Prev(cursor)
			if before == nil {
				page = candidate
			} else {
				beforePage, err := pageAt(doc, before)
				if err != nil {
					return cursor, page, err
				}
				if candidate != beforePage {
					page = candidate
				}
			}
		}

		if err := doc.GotoPage(page); err != nil {
			return cursor, page, fmt.Errorf("%w: showing page %d: %v", ErrNavigation, page, err)
		}

		if forward && page > target {
			log.Debugf("page %d has no tables, stopping on page %d", target, page)
			break
		}
	}
	return cursor, page, nil
}

func pageAt(doc document.Engine, cursor document.Cursor) (int, error) {
	if err := doc.SetViewPosition(cursor); err != nil {
		return 0, fmt.Errorf("%w: positioning at anchor %d: %v", ErrNavigation, cursor.Anchor(), err)
	}
	page, err := doc.CurrentPage()
	if err != nil {
		return 0, fmt.Errorf("%w: reading current page: %v", ErrNavigation, err)
	}
	return page, nil
}
