package domain

// Column names of the analytics exports and of the persisted datasets.
// They are the export's own headers so persisted files stay readable next
// to the downloaded workbooks.
const (
	ColArticleTitle = "文章标题"
	ColPublishDate  = "发表日期"

	// traffic export
	ColDate    = "日期"
	ColChannel = "渠道"

	// 7-day article export
	ColContentTitle = "内容标题"
	ColPublishTime  = "发表时间"

	// article detail sub-tables
	ColMetric     = "数据指标"
	ColValue      = "数值"
	ColSpreadChan = "传播渠道"
	ColGender     = "性别"
	ColAge        = "年龄"
	ColRegion     = "省份/直辖市"
	ColHeadcount  = "人数"
	ColShare      = "占比"
)

// Sentinel cell values
const (
	// ChannelAll marks the all-channel aggregate row of the traffic export.
	ChannelAll = "全部"
	// RegionNationwide marks the nationwide total row of the region table.
	RegionNationwide = "全国"
)
