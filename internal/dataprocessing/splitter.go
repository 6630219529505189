package dataprocessing

import (
	"fmt"
	"strings"

	"golang.org/x/text/width"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

// cleanLabel trims a name or header cell and folds full-width ASCII
// (e.g. "（" or "Ａ") to its half-width form so labels compare reliably.
func cleanLabel(s string) string {
	return strings.TrimSpace(width.Fold.String(strings.TrimSpace(s)))
}

func cleanCell(s string) string {
	return strings.TrimSpace(s)
}

// nonBlankColumns returns the indexes of the columns that hold at least one
// non-blank cell, in order.
func nonBlankColumns(g domain.Grid) []int {
	var cols []int
	for c := 0; c < g.Width(); c++ {
		for r := range g {
			if cleanCell(g.Cell(r, c)) != "" {
				cols = append(cols, c)
				break
			}
		}
	}
	return cols
}

// project keeps only the given columns of g, padding short rows with "".
func project(g domain.Grid, cols []int) domain.Grid {
	out := make(domain.Grid, len(g))
	for r := range g {
		row := make([]string, len(cols))
		for i, c := range cols {
			row[i] = cleanCell(g.Cell(r, c))
		}
		out[r] = row
	}
	return out
}

// regions splits g at all-blank rows into maximal non-blank runs.
func regions(g domain.Grid) []domain.Grid {
	var out []domain.Grid
	var cur domain.Grid
	for r := range g {
		if g.RowBlank(r) {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, g[r])
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out
}

// SplitTables splits a composite worksheet into its named sub-tables.
//
// Columns blank in every row are dropped first. The sheet is then cut at
// all-blank rows; in each region the first non-blank cell of row 0 names
// the table, row 1 is the header and the remaining rows are data. Columns
// blank within a region are dropped before the header is read. A region
// without a header row is a MALFORMED_EXPORT error naming its position.
func SplitTables(grid domain.Grid) ([]domain.LabeledTable, error) {
	g := project(grid, nonBlankColumns(grid))

	var tables []domain.LabeledTable
	for i, region := range regions(g) {
		position := i + 1
		name := tableName(region[0])
		if len(region) < 2 {
			return nil, apperrors.NewMalformedExportError(
				fmt.Sprintf("table %d has no header row", position)).
				WithContext("table", name).
				WithContext("position", position)
		}

		// The name row is excluded so a long title does not keep an
		// otherwise empty column alive.
		body := region[1:]
		body = project(body, nonBlankColumns(body))

		header := make([]string, len(body[0]))
		for c, h := range body[0] {
			header[c] = cleanLabel(h)
		}

		tables = append(tables, domain.LabeledTable{
			Name:     name,
			Kind:     domain.KindForName(name),
			Position: position,
			Header:   header,
			Rows:     body[1:],
		})
	}

	return tables, nil
}

func tableName(row []string) string {
	for _, cell := range row {
		if name := cleanLabel(cell); name != "" {
			return name
		}
	}
	return ""
}

// ReadTallTable reads a single-table export whose first non-blank row is
// the header, as the traffic and 7-day article exports are laid out.
func ReadTallTable(grid domain.Grid) (*domain.Dataset, error) {
	var rows domain.Grid
	for r := range grid {
		if !grid.RowBlank(r) {
			rows = append(rows, grid[r])
		}
	}
	if len(rows) == 0 {
		return nil, apperrors.NewMalformedExportError("export is empty")
	}
	rows = project(rows, nonBlankColumns(rows))

	header := make([]string, len(rows[0]))
	seen := make(map[string]bool, len(header))
	for c, h := range rows[0] {
		h = cleanLabel(h)
		if h == "" {
			return nil, apperrors.NewMalformedExportError(
				fmt.Sprintf("blank header in column %d", c+1))
		}
		if seen[h] {
			return nil, apperrors.NewMalformedExportError(
				fmt.Sprintf("header %q repeats", h))
		}
		seen[h] = true
		header[c] = h
	}

	ds := domain.NewDataset(header...)
	for _, row := range rows[1:] {
		ds.Append(domain.RecordFrom(header, row))
	}
	return ds, nil
}
