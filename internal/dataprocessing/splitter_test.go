package dataprocessing

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "wxdata/internal/errors"
	"wxdata/pkg/contracts/domain"
)

// writeWorkbook saves rows to the first sheet of a new workbook. Empty
// strings are left as blank cells.
func writeWorkbook(t *testing.T, path string, rows [][]string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellStr(sheet, cell, v))
		}
	}
	require.NoError(t, f.SaveAs(path))
}

// articleExport is a composite article detail sheet with all seven tables.
// Column A is blank on purpose.
func articleExport() [][]string {
	return [][]string{
		{"", "数据概况"},
		{"", "数据指标", "数值"},
		{"", "阅读次数", "100"},
		{"", "完读率", "50%"},
		{},
		{"", "阅读转化"},
		{"", "数据指标", "数值"},
		{"", "关注人数", "3"},
		{},
		{"", "推荐转化"},
		{"", "数据指标", "数值"},
		{"", "推荐阅读", "40"},
		{"", "阅读次数", "60"},
		{},
		{"", "数据趋势明细"},
		{"", "日期", "传播渠道", "阅读次数"},
		{"", "2024/01/03", "全部", "20"},
		{"", "2024/01/02", "全部", "80"},
		{"", "", "", ""},
		{"", "性别分布"},
		{"", "性别", "人数", "占比"},
		{"", "男", "30", "30%"},
		{"", "女", "70", "70%"},
		{},
		{"", "年龄分布"},
		{"", "年龄", "人数", "占比"},
		{"", "18-25岁", "50", "50%"},
		{},
		{"", "地域分布"},
		{"", "省份/直辖市", "人数", "占比"},
		{"", "全国", "100", "100%"},
		{"", "广东", "60", "60%"},
		{"", "北京", "40", "40%"},
	}
}

func TestSplitTables(t *testing.T) {
	tables, err := SplitTables(domain.Grid(articleExport()))
	require.NoError(t, err)
	require.Len(t, tables, 7)

	for i, kind := range domain.TableKinds {
		assert.Equal(t, kind, tables[i].Kind)
		assert.Equal(t, kind.String(), tables[i].Name)
		assert.Equal(t, i+1, tables[i].Position)
	}

	summary := tables[0]
	assert.Equal(t, []string{"数据指标", "数值"}, summary.Header)
	assert.Equal(t, [][]string{{"阅读次数", "100"}, {"完读率", "50%"}}, summary.Rows)

	trend := tables[3]
	assert.Equal(t, []string{"日期", "传播渠道", "阅读次数"}, trend.Header)
	assert.Len(t, trend.Rows, 2, "whitespace-only row separates tables")
}

func TestSplitTables_FoldsFullWidthHeaders(t *testing.T) {
	grid := domain.Grid{
		{" 性别分布 "},
		{"性别", "人数", "占比（％）"},
		{"男", "1", "100%"},
	}

	tables, err := SplitTables(grid)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, domain.TableGender, tables[0].Kind)
	assert.Equal(t, "占比(%)", tables[0].Header[2])
}

func TestSplitTables_LocalBlankColumnsDropped(t *testing.T) {
	grid := domain.Grid{
		{"数据概况"},
		{"数据指标", "", "数值"},
		{"阅读次数", "", "1"},
		{},
		{"数据趋势明细"},
		{"日期", "x", "阅读次数"},
		{"2024-01-01", "y", "1"},
	}

	tables, err := SplitTables(grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"数据指标", "数值"}, tables[0].Header)
	assert.Equal(t, []string{"日期", "x", "阅读次数"}, tables[1].Header)
}

func TestSplitTables_RegionWithoutHeader(t *testing.T) {
	grid := domain.Grid{
		{"数据概况"},
		{"数据指标", "数值"},
		{},
		{"阅读转化"},
	}

	_, err := SplitTables(grid)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedExport))

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 2, appErr.Context["position"])
	assert.Equal(t, "阅读转化", appErr.Context["table"])
}

func TestReadTallTable(t *testing.T) {
	grid := domain.Grid{
		{},
		{"", "日期", "渠道", "阅读次数"},
		{"", "2024-01-02", "全部", "5"},
		{"", "2024-01-02", "搜一搜"},
	}

	ds, err := ReadTallTable(grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"日期", "渠道", "阅读次数"}, ds.Columns)
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "", ds.Rows[1].Value("阅读次数"))
}

func TestReadTallTable_Errors(t *testing.T) {
	tests := []struct {
		name string
		grid domain.Grid
	}{
		{"empty", domain.Grid{{}, {" "}}},
		{"duplicate header", domain.Grid{{"日期", "日期"}, {"a", "b"}}},
		{"blank header", domain.Grid{{"日期", ""}, {"a", "b"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTallTable(tt.grid)
			assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedExport), "got %v", err)
		})
	}
}

func TestReadGrid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.xlsx")
	writeWorkbook(t, path, articleExport())

	grid, err := ReadGrid(path)
	require.NoError(t, err)

	tables, err := SplitTables(grid)
	require.NoError(t, err)
	assert.Len(t, tables, 7)
}

func TestReadGrid_NotAWorkbook(t *testing.T) {
	_, err := ReadGrid(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeMalformedExport))
}
