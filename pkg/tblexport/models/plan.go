package models

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrInvalidPlan indicates a malformed page range list.
var ErrInvalidPlan = errors.New("invalid page range plan")

// OpenEnd marks a range that runs to the end of the document.
const OpenEnd = math.MaxInt

// PageRange is an inclusive, 1-based span of pages.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Open reports whether the range has no explicit end.
func (r PageRange) Open() bool {
	return r.End == OpenEnd
}

// Count returns the number of pages the range contributes to progress
// accounting. Open ranges count as a single unit.
func (r PageRange) Count() int {
	if r.Open() {
		return 1
	}
	return r.End - r.Start + 1
}

// Validate checks that the range is well formed.
func (r PageRange) Validate() error {
	if r.Start < 1 {
		return fmt.Errorf("%w: start page %d must be >= 1", ErrInvalidPlan, r.Start)
	}
	if r.End < r.Start {
		return fmt.Errorf("%w: start page %d is after end page %d", ErrInvalidPlan, r.Start, r.End)
	}
	return nil
}

func (r PageRange) String() string {
	if r.Open() {
		return fmt.Sprintf("%d:", r.Start)
	}
	return fmt.Sprintf("%d:%d", r.Start, r.End)
}

// Plan is an ordered list of page ranges, one output sheet per range.
type Plan []PageRange

// TotalCount returns the progress denominator for the plan.
func (p Plan) TotalCount() int {
	total := 0
	for _, r := range p {
		total += r.Count()
	}
	return total
}

// Validate checks every range of the plan.
func (p Plan) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("%w: no ranges", ErrInvalidPlan)
	}
	for i, r := range p {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("range %d: %w", i+1, err)
		}
	}
	return nil
}

var planSeparators = regexp.MustCompile(`[:,.~ ]`)

// ParsePlan parses a free-form list of page numbers such as "124:200, 203:400".
// Numbers are paired in order; an unpaired trailing number starts an open range.
func ParsePlan(s string) (Plan, error) {
	var pages []int
	for _, field := range planSeparators.Split(s, -1) {
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a page number", ErrInvalidPlan, field)
		}
		pages = append(pages, n)
	}

	var plan Plan
	for i := 0; i < len(pages); i += 2 {
		r := PageRange{Start: pages[i], End: OpenEnd}
		if i+1 < len(pages) {
			r.End = pages[i+1]
		}
		plan = append(plan, r)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return plan, nil
}
