package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_SetGetDelete(t *testing.T) {
	r := NewRecord()
	r.Set("b", "2")
	r.Set("a", "")
	r.Set("b", "3")

	assert.Equal(t, []string{"b", "a"}, r.Columns())
	v, ok := r.Get("a")
	assert.True(t, ok, "empty value is still set")
	assert.Empty(t, v)
	_, ok = r.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, "3", r.Value("b"))

	r.Delete("b")
	assert.False(t, r.Has("b"))
	assert.Equal(t, []string{"a"}, r.Columns())
	assert.Equal(t, 1, r.Len())
}

func TestRecordFrom_RaggedRow(t *testing.T) {
	r := RecordFrom([]string{"日期", "渠道", "阅读次数"}, []string{"2024-01-01", "全部"})

	assert.Equal(t, "全部", r.Value("渠道"))
	assert.False(t, r.Has("阅读次数"))
	assert.Equal(t, []string{"2024-01-01", "全部", ""}, r.Cells([]string{"日期", "渠道", "阅读次数"}))
}

func TestRecord_CloneIsDeep(t *testing.T) {
	r := NewRecord()
	r.Set("x", "1")
	c := r.Clone()
	c.Set("x", "2")
	c.Set("y", "3")

	assert.Equal(t, "1", r.Value("x"))
	assert.False(t, r.Has("y"))
}

func TestDataset_ColumnsFollowFirstSeenOrder(t *testing.T) {
	d := NewDataset("a")
	r1 := NewRecord()
	r1.Set("b", "1")
	r1.Set("a", "1")
	r2 := NewRecord()
	r2.Set("c", "2")
	d.Append(r1)
	d.Append(r2)

	assert.Equal(t, []string{"a", "b", "c"}, d.Columns)
	assert.Equal(t, 2, d.Len())

	d.SetAll(ColArticleTitle, "标题")
	assert.Equal(t, "标题", d.Rows[1].Value(ColArticleTitle))

	d.DropColumn("b")
	assert.False(t, d.HasColumn("b"))
	assert.False(t, d.Rows[0].Has("b"))
}

func TestDataset_Filter(t *testing.T) {
	d := NewDataset(ColChannel)
	for _, ch := range []string{ChannelAll, "搜一搜", ChannelAll} {
		r := NewRecord()
		r.Set(ColChannel, ch)
		d.Append(r)
	}

	all := d.Filter(func(r *Record) bool { return r.Value(ColChannel) == ChannelAll })
	require.Equal(t, 2, all.Len())
	assert.Equal(t, d.Columns, all.Columns)
	assert.Same(t, d.Rows[0], all.Rows[0])

	var nilSet *Dataset
	assert.Zero(t, nilSet.Len())
}

func TestNaturalKey(t *testing.T) {
	key := NaturalKey{ColArticleTitle, ColDate}
	r := NewRecord()
	r.Set(ColArticleTitle, "a")
	r.Set(ColDate, "2024-01-01")

	assert.Equal(t, "a\x1f2024-01-01", key.Tuple(r))
	assert.Empty(t, key.Missing(r))
	assert.Equal(t, []string{ColSpreadChan}, key.With(ColSpreadChan).Missing(r))
	assert.Equal(t, "文章标题+日期", key.String())
	assert.Len(t, key, 2, "With must not alias the receiver")

	// ("a b", "c") and ("a", "b c") must not collide
	k := NaturalKey{"x", "y"}
	r1, r2 := NewRecord(), NewRecord()
	r1.Set("x", "a b")
	r1.Set("y", "c")
	r2.Set("x", "a")
	r2.Set("y", "b c")
	assert.NotEqual(t, k.Tuple(r1), k.Tuple(r2))
}

func TestGrid(t *testing.T) {
	g := Grid{{"a", "b"}, {" ", ""}, {"c"}}

	assert.Equal(t, 2, g.Width())
	assert.Equal(t, "", g.Cell(2, 1))
	assert.Equal(t, "", g.Cell(5, 0))
	assert.True(t, g.RowBlank(1))
	assert.False(t, g.RowBlank(2))
}

func TestKindForName(t *testing.T) {
	for _, k := range TableKinds {
		assert.Equal(t, k, KindForName(" "+k.String()+" "))
	}
	assert.Equal(t, TableUnknown, KindForName("其他"))
	assert.Equal(t, "unknown", TableUnknown.String())
}

func TestLabeledTable(t *testing.T) {
	tbl := LabeledTable{
		Name:   "性别分布",
		Kind:   TableGender,
		Header: []string{ColGender, ColHeadcount, ColShare},
		Rows:   [][]string{{"男", "10", "50%"}, {"女", "10", "50%"}},
	}

	recs := tbl.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "女", recs[1].Value(ColGender))
	assert.Equal(t, 2, tbl.ColumnIndex(ColShare))
	assert.Equal(t, -1, tbl.ColumnIndex(ColRegion))
}
