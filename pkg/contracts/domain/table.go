package domain

import "strings"

// Grid is the raw cell content of one worksheet, rows by columns.
// Rows may be ragged; an empty string is a blank cell.
type Grid [][]string

// Cell returns the cell at row r, column c, or "" when out of range.
func (g Grid) Cell(r, c int) string {
	if r < 0 || r >= len(g) || c < 0 || c >= len(g[r]) {
		return ""
	}
	return g[r][c]
}

// Width returns the length of the longest row.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// RowBlank reports whether every cell of row r is blank.
func (g Grid) RowBlank(r int) bool {
	for _, cell := range g[r] {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// TableKind identifies one of the known sub-tables of an article detail
// export. It is resolved once, from the table name, when the worksheet is
// split.
type TableKind int

const (
	TableUnknown TableKind = iota
	TableSummary
	TableReadConversion
	TableRecommendConversion
	TableTrend
	TableGender
	TableAge
	TableRegion
)

// String returns the export's own name for the table.
func (k TableKind) String() string {
	switch k {
	case TableSummary:
		return "数据概况"
	case TableReadConversion:
		return "阅读转化"
	case TableRecommendConversion:
		return "推荐转化"
	case TableTrend:
		return "数据趋势明细"
	case TableGender:
		return "性别分布"
	case TableAge:
		return "年龄分布"
	case TableRegion:
		return "地域分布"
	default:
		return "unknown"
	}
}

// TableKinds lists every known kind in export order.
var TableKinds = []TableKind{
	TableSummary,
	TableReadConversion,
	TableRecommendConversion,
	TableTrend,
	TableGender,
	TableAge,
	TableRegion,
}

// KindForName resolves a table name to its kind.
func KindForName(name string) TableKind {
	name = strings.TrimSpace(name)
	for _, k := range TableKinds {
		if k.String() == name {
			return k
		}
	}
	return TableUnknown
}

// LabeledTable is one named, contiguous region of a worksheet.
type LabeledTable struct {
	Name     string
	Kind     TableKind
	Position int // 1-based order of the region within the sheet
	Header   []string
	Rows     [][]string
}

// Records converts the data rows into header-keyed records.
func (t *LabeledTable) Records() []*Record {
	out := make([]*Record, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, RecordFrom(t.Header, row))
	}
	return out
}

// ColumnIndex returns the index of a header column, or -1.
func (t *LabeledTable) ColumnIndex(name string) int {
	for i, h := range t.Header {
		if h == name {
			return i
		}
	}
	return -1
}
