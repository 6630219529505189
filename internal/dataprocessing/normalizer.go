package dataprocessing

import (
	"fmt"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

// TransposePairs turns a two-column label/value table into one record whose
// fields are the labels, in table order. A repeated label is an
// AMBIGUOUS_LABEL error; any other shape is a MALFORMED_EXPORT error.
func TransposePairs(table *domain.LabeledTable) (*domain.Record, error) {
	if len(table.Header) != 2 {
		return nil, apperrors.NewMalformedExportError(
			fmt.Sprintf("label/value table needs 2 columns, found %d", len(table.Header))).
			WithContext("table", table.Name)
	}

	record := domain.NewRecord()
	for i, row := range table.Rows {
		label := ""
		if len(row) > 0 {
			label = cleanLabel(row[0])
		}
		if label == "" {
			return nil, apperrors.NewMalformedExportError(
				fmt.Sprintf("blank label in data row %d", i+1)).
				WithContext("table", table.Name)
		}
		if record.Has(label) {
			return nil, apperrors.NewAmbiguousLabelError(table.Name, label)
		}
		value := ""
		if len(row) > 1 {
			value = row[1]
		}
		record.Set(label, value)
	}

	return record, nil
}

// Passthrough keeps a tall table as it is: one record per data row, with
// the header as the column order. Short rows read as blank cells.
func Passthrough(table *domain.LabeledTable) *domain.Dataset {
	ds := domain.NewDataset(table.Header...)
	for _, row := range table.Rows {
		r := domain.NewRecord()
		for c, col := range table.Header {
			v := ""
			if c < len(row) {
				v = row[c]
			}
			r.Set(col, v)
		}
		ds.Append(r)
	}
	return ds
}
