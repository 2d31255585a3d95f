package spreadsheet

import (
	"fmt"
	"strings"

	"github.com/ukaji3/tblexport-go/pkg/tblexport/models"
	"github.com/xuri/excelize/v2"
)

// ParseRange parses a range string like $A$1:$D$10 or A1 into a CellRange.
func ParseRange(ref string) (models.CellRange, error) {
	// Drop a sheet qualifier and $ signs
	if idx := strings.LastIndex(ref, "!"); idx >= 0 {
		ref = ref[idx+1:]
	}
	ref = strings.ReplaceAll(ref, "$", "")

	parts := strings.Split(ref, ":")
	if len(parts) > 2 {
		return models.CellRange{}, fmt.Errorf("invalid range reference %q", ref)
	}

	startCol, startRow, err := excelize.CellNameToCoordinates(parts[0])
	if err != nil {
		return models.CellRange{}, err
	}
	endCol, endRow := startCol, startRow
	if len(parts) == 2 {
		endCol, endRow, err = excelize.CellNameToCoordinates(parts[1])
		if err != nil {
			return models.CellRange{}, err
		}
	}

	return models.CellRange{
		R1: startRow,
		C1: startCol,
		R2: endRow,
		C2: endCol,
	}, nil
}

// cellName converts 1-based coordinates to an A1 reference.
func cellName(row, col int) (string, error) {
	return excelize.CoordinatesToCellName(col, row)
}

// rangeNames returns the top-left and bottom-right references of r.
func rangeNames(r models.CellRange) (string, string, error) {
	topLeft, err := cellName(r.R1, r.C1)
	if err != nil {
		return "", "", err
	}
	bottomRight, err := cellName(r.R2, r.C2)
	if err != nil {
		return "", "", err
	}
	return topLeft, bottomRight, nil
}
