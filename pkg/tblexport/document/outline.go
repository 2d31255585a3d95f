package document

import (
	"fmt"
	"strings"
)

// Anchor is one entry of an Outline's control stream.
type Anchor struct {
	// Kind classifies the control.
	Kind AnchorKind
	// Page is the 1-based page the anchor sits on.
	Page int
	// Markup is what a selection of this anchor exports.
	Markup string
}

// Outline is an Engine over an in-memory anchor stream.
type Outline struct {
	anchors []Anchor
	pages   int
	page    int
	view    int // anchor index under the selection, -1 when none
	closed  bool
}

type outlineCursor int

func (c outlineCursor) Anchor() int { return int(c) }

// NewOutline creates an Outline over anchors, viewing page 1.
func NewOutline(anchors []Anchor) *Outline {
	pages := 1
	for _, a := range anchors {
		if a.Page > pages {
			pages = a.Page
		}
	}
	return &Outline{
		anchors: anchors,
		pages:   pages,
		page:    1,
		view:    -1,
	}
}

// PageCount returns the number of pages the outline spans.
func (o *Outline) PageCount() int {
	return o.pages
}

// Anchors returns the anchor stream.
func (o *Outline) Anchors() []Anchor {
	return o.anchors
}

func (o *Outline) index(c Cursor) (int, bool) {
	oc, ok := c.(outlineCursor)
	if !ok || int(oc) < 0 || int(oc) >= len(o.anchors) {
		return 0, false
	}
	return int(oc), true
}

// CurrentPage implements Engine.
func (o *Outline) CurrentPage() (int, error) {
	if o.closed {
		return 0, ErrClosed
	}
	return o.page, nil
}

// HeadAnchor implements Engine.
func (o *Outline) HeadAnchor() Cursor {
	if o.closed || len(o.anchors) == 0 {
		return nil
	}
	return outlineCursor(0)
}

// Next implements Engine.
func (o *Outline) Next(c Cursor) Cursor {
	i, ok := o.index(c)
	if o.closed || !ok || i+1 >= len(o.anchors) {
		return nil
	}
	return outlineCursor(i + 1)
}

// Prev implements Engine.
func (o *Outline) Prev(c Cursor) Cursor {
	i, ok := o.index(c)
	if o.closed || !ok || i == 0 {
		return nil
	}
	return outlineCursor(i - 1)
}

// AnchorKind implements Engine.
func (o *Outline) AnchorKind(c Cursor) AnchorKind {
	i, ok := o.index(c)
	if !ok {
		return AnchorOther
	}
	return o.anchors[i].Kind
}

// SetViewPosition implements Engine.
func (o *Outline) SetViewPosition(c Cursor) error {
	if o.closed {
		return ErrClosed
	}
	i, ok := o.index(c)
	if !ok {
		return ErrInvalidCursor
	}
	o.view = i
	o.page = o.anchors[i].Page
	return nil
}

// ExportSelectionMarkup implements Engine. Without a selection it exports
// an empty body.
func (o *Outline) ExportSelectionMarkup() (string, error) {
	if o.closed {
		return "", ErrClosed
	}
	if o.view < 0 {
		return emptyMarkup, nil
	}
	return o.anchors[o.view].Markup, nil
}

// GotoPage implements Engine. It clears the selection.
func (o *Outline) GotoPage(n int) error {
	if o.closed {
		return ErrClosed
	}
	if n < 1 || n > o.pages {
		return fmt.Errorf("page %d out of range 1..%d", n, o.pages)
	}
	o.page = n
	o.view = -1
	return nil
}

// Close implements Engine.
func (o *Outline) Close() error {
	if o.closed {
		return ErrClosed
	}
	o.closed = true
	return nil
}

func (o *Outline) String() string {
	var sb strings.Builder
	for i, a := range o.anchors {
		fmt.Fprintf(&sb, "%d:%s@%d ", i, a.Kind, a.Page)
	}
	return strings.TrimSpace(sb.String())
}
