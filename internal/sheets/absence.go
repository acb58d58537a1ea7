package sheets

import (
	"context"
	"errors"
	"fmt"

	"github.com/zeprog/absentee-table/internal/domain"
)

const (
	// classColumn holds class labels, one row per class.
	classColumn = "A:A"
	// DisplayRange is the window shown by /read.
	DisplayRange = "A1:G32"
)

// ErrClassNotFound means no row of the class column matches the class.
var ErrClassNotFound = errors.New("class not found in sheet")

// FindClassRow scans rows top to bottom and returns the 1-based number of the
// first row whose first cell equals class exactly, or 0.
func FindClassRow(rows [][]string, class string) int {
	for i, row := range rows {
		if len(row) > 0 && row[0] == class {
			return i + 1
		}
	}
	return 0
}

// AbsenceRange is the B..G span of a class row.
func AbsenceRange(row int) string {
	return fmt.Sprintf("B%d:G%d", row, row)
}

// RecordAbsences resolves the sheet code from the chosen label, locates the
// class row and writes tokens into columns B..G of that row. It returns the
// resolved sheet and the range written.
func RecordAbsences(ctx context.Context, gw Gateway, sheetLabel, class string, tokens []string) (sheet, cellRange string, err error) {
	sheet, err = domain.SheetCode(sheetLabel)
	if err != nil {
		return "", "", err
	}

	rows, err := gw.ReadRange(ctx, sheet, classColumn)
	if err != nil {
		return sheet, "", err
	}

	row := FindClassRow(rows, class)
	if row == 0 {
		return sheet, "", fmt.Errorf("%w: %q", ErrClassNotFound, class)
	}

	cellRange = AbsenceRange(row)
	if err := gw.WriteRange(ctx, sheet, cellRange, tokens); err != nil {
		return sheet, cellRange, err
	}
	return sheet, cellRange, nil
}
