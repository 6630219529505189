package config

import (
	"time"

	"wxdata/pkg/contracts"
)

// Application constants
const (
	AppName    = "wxdata"
	AppVersion = contracts.Version

	// EnvPrefix namespaces every environment variable, e.g. WXDATA_ROOT_DIR.
	EnvPrefix = "WXDATA"

	// Directory layout relative to the root directory
	DefaultDataDir    = "datas/wechat_operation_data"
	DefaultTmpDir     = "tmp/data/wechat"
	DefaultLocksDir   = "tmp/locks"
	DefaultSessionDir = "tmp/session/wechat"
	DefaultLogsDir    = "logs"

	// Lock file recording the last successful download date per account
	DownloadLockFile = "wechat_operation_data.lock"

	// Download file names inside the temp directory
	TrafficDownloadFile   = "traffic_data.xlsx"
	Article7dDownloadFile = "article_7d_data.xlsx"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/wxdata.log"

	DefaultParallelNum = 4
)

// Scraper defaults
const (
	WechatBaseURL          = "https://mp.weixin.qq.com/"
	DefaultScraperTimeout  = 30 * time.Minute
	DefaultDownloadTimeout = 60 * time.Second
	DefaultLoginTimeout    = 5 * time.Minute
	DefaultActionInterval  = 1500 * time.Millisecond

	// Back-days applied to the recorded last download date per export kind.
	// Article data keeps changing for 7 days (list) and 30 days (detail)
	// after publication.
	TrafficBackDays       = 0
	Article7dBackDays     = 7
	ArticleDetailBackDays = 30

	// DefaultLookbackDays is used when no download has been recorded yet.
	DefaultLookbackDays = 30
)
