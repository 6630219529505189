package exporter

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"wxdata/pkg/contracts/domain"
)

// ReadDataset loads a CSV file written by WriteDataset. found is false
// when the file does not exist. Any parse problem (ragged rows, a repeated
// header, bad quoting) is returned as an error so callers never mistake a
// damaged file for an empty one. Empty cells read back as unset fields.
func ReadDataset(filePath string) (ds *domain.Dataset, found bool, err error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	reader := csv.NewReader(bytes.NewReader(data))

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return domain.NewDataset(), true, nil
	}
	if err != nil {
		return nil, true, fmt.Errorf("failed to read header of %s: %w", filePath, err)
	}

	seen := make(map[string]bool, len(header))
	for _, h := range header {
		if seen[h] {
			return nil, true, fmt.Errorf("header %q repeats in %s", h, filePath)
		}
		seen[h] = true
	}

	ds = domain.NewDataset(header...)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, true, fmt.Errorf("failed to parse %s: %w", filePath, err)
		}

		r := domain.NewRecord()
		for i, col := range header {
			if row[i] != "" {
				r.Set(col, row[i])
			}
		}
		ds.Rows = append(ds.Rows, r)
	}

	return ds, true, nil
}
