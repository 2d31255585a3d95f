package rearrange

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/ukaji3/tblexport-go/pkg/tblexport/spreadsheet"
)

var log = commonlog.GetLogger("tblexport.rearrange")

// ErrRearrange wraps host failures during rearrangement.
var ErrRearrange = errors.New("rearrange failed")

// LabeledSuffix is appended to the first sheet's name for the copy that
// keeps the labeled regions in split mode.
const LabeledSuffix = " labeled"

// SheetCopier duplicates sheets within a workbook.
type SheetCopier interface {
	CopySheet(src spreadsheet.Sheet, name string) (spreadsheet.Sheet, error)
}

// Rearrange prepares every region of sheet and moves label columns to the
// left edge. It returns the regions with their classification.
func Rearrange(sheet spreadsheet.Sheet, cfg ScanConfig) ([]models.Region, error) {
	blocks, err := prepare(sheet, cfg)
	if err != nil {
		return nil, err
	}

	regions := make([]models.Region, len(blocks))
	for i, b := range blocks {
		if b.Label {
			if err := relabel(sheet, b); err != nil {
				return nil, err
			}
		}
		regions[i] = b.Region
	}
	log.Infof("rearranged %q: %d regions", sheet.Name(), len(regions))
	return regions, nil
}

// Split prepares sheet like Rearrange, then copies it: the original keeps
// only plain regions, the copy keeps only labeled regions, relabeled.
// Region order is preserved in both.
func Split(wb SheetCopier, sheet spreadsheet.Sheet, cfg ScanConfig) (spreadsheet.Sheet, error) {
	blocks, err := prepare(sheet, cfg)
	if err != nil {
		return nil, err
	}

	labeled, err := wb.CopySheet(sheet, sheet.Name()+LabeledSuffix)
	if err != nil {
		return nil, fmt.Errorf("%w: copying %q: %v", ErrRearrange, sheet.Name(), err)
	}

	for _, b := range blocks {
		if b.Label {
			if err := relabel(labeled, b); err != nil {
				return nil, err
			}
		}
	}
	if err := dropBlocks(labeled, blocks, false); err != nil {
		return nil, err
	}
	if err := dropBlocks(sheet, blocks, true); err != nil {
		return nil, err
	}

	log.Infof("split %q into %q and %q", sheet.Name(), sheet.Name(), labeled.Name())
	return labeled, nil
}

// prepare scans sheet, normalises gaps, removes merges inside regions,
// borders every region and classifies its rightmost column.
func prepare(sheet spreadsheet.Sheet, cfg ScanConfig) ([]block, error) {
	rows, err := sheet.Rows()
	if err != nil {
		return nil, fmt.Errorf("%w: reading %q: %v", ErrRearrange, sheet.Name(), err)
	}

	blocks := scan(rows, cfg)
	if err := normalizeGaps(sheet, blocks, cfg.RegionGap); err != nil {
		return nil, err
	}

	merges, err := sheet.MergedRanges()
	if err != nil {
		return nil, fmt.Errorf("%w: listing merges: %v", ErrRearrange, err)
	}
	for _, m := range merges {
		for _, b := range blocks {
			if m.Intersects(b.Bounds()) {
				if err := sheet.Unmerge(m); err != nil {
					return nil, fmt.Errorf("%w: unmerging %s: %v", ErrRearrange, m, err)
				}
				break
			}
		}
	}

	for i := range blocks {
		b := &blocks[i]
		if err := sheet.SetBorder(b.Bounds()); err != nil {
			return nil, fmt.Errorf("%w: bordering %s: %v", ErrRearrange, b.Bounds(), err)
		}
		b.Label = IsLabelColumn(column(b.rows, b.Right))
		log.Debugf("region %s label=%v", b.Bounds(), b.Label)
	}
	return blocks, nil
}

// normalizeGaps leaves exactly gap blank rows between consecutive blocks
// and updates their positions.
func normalizeGaps(sheet spreadsheet.Sheet, blocks []block, gap int) error {
	if gap < 1 {
		gap = 1
	}
	for i := len(blocks) - 1; i > 0; i-- {
		after := blocks[i-1].Bottom + 1
		current := blocks[i].Top - after
		switch {
		case current > gap:
			if err := sheet.DeleteRows(after, current-gap); err != nil {
				return fmt.Errorf("%w: deleting rows at %d: %v", ErrRearrange, after, err)
			}
		case current < gap:
			if err := sheet.InsertRows(after, gap-current); err != nil {
				return fmt.Errorf("%w: inserting rows at %d: %v", ErrRearrange, after, err)
			}
		}
	}
	for i := 1; i < len(blocks); i++ {
		height := blocks[i].Height()
		blocks[i].Top = blocks[i-1].Bottom + gap + 1
		blocks[i].Bottom = blocks[i].Top + height - 1
	}
	return nil
}

// relabel writes a label region with its rightmost column moved to column 1.
func relabel(sheet spreadsheet.Sheet, b block) error {
	for i, row := range Relabel(b.rows, b.Right) {
		for c, value := range row {
			if err := sheet.SetValue(b.Top+i, c+1, value); err != nil {
				return fmt.Errorf("%w: writing row %d: %v", ErrRearrange, b.Top+i, err)
			}
		}
	}
	return nil
}

// dropBlocks deletes the blocks whose Label equals label, together with
// the gap rows that follow them.
func dropBlocks(sheet spreadsheet.Sheet, blocks []block, label bool) error {
	for i := len(blocks) - 1; i >= 0; i-- {
		b := blocks[i]
		if b.Label != label {
			continue
		}
		end := b.Bottom
		if i+1 < len(blocks) {
			end = blocks[i+1].Top - 1
		}
		if err := sheet.DeleteRows(b.Top, end-b.Top+1); err != nil {
			return fmt.Errorf("%w: deleting region %s: %v", ErrRearrange, b.Bounds(), err)
		}
	}
	return nil
}
