// Package document models the host document engine the extractor walks:
// a paginated document exposed as a stream of anchors, some of which are
// tables whose current selection can be exported as structural markup.
package document

import "errors"

// ErrClosed is returned by operations on a closed document.
var ErrClosed = errors.New("document is closed")

// ErrInvalidCursor is returned when a cursor does not belong to the document.
var ErrInvalidCursor = errors.New("cursor does not belong to this document")

// AnchorKind classifies the control under a cursor.
type AnchorKind int

const (
	// AnchorOther is any control that is not a table.
	AnchorOther AnchorKind = iota
	// AnchorTable is a table control.
	AnchorTable
)

func (k AnchorKind) String() string {
	if k == AnchorTable {
		return "table"
	}
	return "other"
}

// Cursor is a borrowed handle into the anchor stream of an open Engine.
// It is only valid while the engine that issued it stays open.
type Cursor interface {
	// Anchor returns the position of the anchor in the stream.
	Anchor() int
}

// Engine is the capability surface of the host document engine.
type Engine interface {
	// CurrentPage returns the page of the current view position.
	CurrentPage() (int, error)
	// HeadAnchor returns the first anchor, or nil for an empty document.
	HeadAnchor() Cursor
	// Next returns the successor of c, or nil at the end of the stream.
	Next(c Cursor) Cursor
	// Prev returns the predecessor of c, or nil at the head of the stream.
	Prev(c Cursor) Cursor
	// AnchorKind reports what the control under c is.
	AnchorKind(c Cursor) AnchorKind
	// SetViewPosition moves the view and selection to the anchor under c.
	SetViewPosition(c Cursor) error
	// ExportSelectionMarkup dumps the current selection as structural markup.
	ExportSelectionMarkup() (string, error)
	// GotoPage moves the view to the start of page n.
	GotoPage(n int) error
	// Close releases the document.
	Close() error
}

// Opener opens a document engine session for a file.
type Opener func(path string) (Engine, error)
