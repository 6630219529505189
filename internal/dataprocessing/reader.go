package dataprocessing

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

// ReadGrid reads the first worksheet of an export workbook. Cells come
// back with their number format applied, as the analytics UI shows them.
func ReadGrid(filePath string) (domain.Grid, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeMalformedExport,
			"failed to open workbook", err).WithContext("path", filePath)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewMalformedExportError("workbook has no sheets").
			WithContext("path", filePath)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.NewAppError(apperrors.ErrTypeMalformedExport,
			fmt.Sprintf("failed to read sheet %q", sheets[0]), err).WithContext("path", filePath)
	}

	return domain.Grid(rows), nil
}
