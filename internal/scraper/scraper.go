// Package scraper drives the official account analytics backend in a
// Chrome instance and downloads the exports the analyzer consumes.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"golang.org/x/time/rate"

	"wxdata/internal/config"
	apperrors "wxdata/internal/errors"
	"wxdata/internal/files"
	"wxdata/internal/locker"
)

// Page elements of the analytics backend.
const (
	selIndexMenu    = `#js_index_menu`
	selAccountName  = `div.account_box-body > span.acount_box-nickname`
	selAnalytics    = `//a[contains(., "数据分析")]`
	selContent      = `//a[contains(., "内容分析")]`
	selNotified     = `//a[contains(., "已通知内容")]`
	selDownload     = `(//a[contains(., "下载数据明细")])[1]`
	selTrafficForm  = `//form[contains(@class, "mass_all_filter")]`
	selPanelForm    = `//div[contains(@class, "weui-desktop-panel__bd")]//form`
	selArticleTable = `//table[contains(@class, "weui-desktop-table")]`
	selArticleTitle = `//div[contains(@class, "top_title")]//span[contains(@class, "weui-desktop-breadcrum")]`
)

// Range bounds a download run. Zero fields are derived: End defaults to
// yesterday and Begin comes from the download record.
type Range struct {
	Begin time.Time
	End   time.Time
}

// Result is what one run downloaded.
type Result struct {
	Account   string
	Downloads files.Downloads
}

// Fetcher downloads the traffic, 7-day and article detail exports of the
// logged-in account.
type Fetcher struct {
	cfg     config.ScraperConfig
	paths   *config.Paths
	locker  *locker.Locker
	manager *files.Manager
	limiter *rate.Limiter
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a fetcher. UI actions are spaced at least
// cfg.ActionInterval apart.
func New(cfg config.ScraperConfig, paths *config.Paths, lk *locker.Locker, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.ActionInterval > 0 {
		limit = rate.Every(cfg.ActionInterval)
	}
	return &Fetcher{
		cfg:     cfg,
		paths:   paths,
		locker:  lk,
		manager: files.NewManager(logger),
		limiter: rate.NewLimiter(limit, 1),
		logger:  logger.With(slog.String("component", "scraper")),
		now:     time.Now,
	}
}

// DownloadAll logs in, downloads every export into the temp directory and
// records today as the account's last download.
func (f *Fetcher) DownloadAll(ctx context.Context, r Range) (*Result, error) {
	end := r.End
	if end.IsZero() {
		end = day(f.now()).AddDate(0, 0, -1)
	}

	if err := f.prepare(); err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
	)
	if f.cfg.RememberSession {
		opts = append(opts, chromedp.UserDataDir(f.paths.SessionDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	if err := f.login(bctx); err != nil {
		return nil, err
	}
	account, err := f.accountName(bctx)
	if err != nil {
		return nil, err
	}
	f.logger.InfoContext(ctx, "Logged in", slog.String("account", account))

	result := &Result{Account: account}

	result.Downloads.Traffic, err = f.downloadTraffic(bctx, account, r.Begin, end)
	if err != nil {
		return nil, fmt.Errorf("traffic download failed: %w", err)
	}
	result.Downloads.Article7d, err = f.downloadArticle7d(bctx, account, r.Begin, end)
	if err != nil {
		return nil, fmt.Errorf("7-day article download failed: %w", err)
	}
	result.Downloads.ArticleDetails, err = f.downloadArticleDetails(bctx, account, r.Begin, end)
	if err != nil {
		return nil, fmt.Errorf("article detail download failed: %w", err)
	}

	if err := f.locker.RecordDownload(account, f.now()); err != nil {
		return nil, err
	}

	f.logger.InfoContext(ctx, "Downloads complete",
		slog.String("account", account),
		slog.Int("article_details", len(result.Downloads.ArticleDetails)))
	return result, nil
}

// prepare empties the download directory so only this run's exports are
// picked up.
func (f *Fetcher) prepare() error {
	if err := f.manager.EnsureDirectory(f.paths.TmpDir); err != nil {
		return apperrors.NewStorageError("failed to create download directory", err)
	}
	if err := f.manager.ClearDirectory(f.paths.TmpDir); err != nil {
		return apperrors.NewStorageError("failed to clear download directory", err)
	}
	if f.cfg.RememberSession {
		if err := f.manager.EnsureDirectory(f.paths.SessionDir); err != nil {
			return apperrors.NewStorageError("failed to create session directory", err)
		}
	}
	return nil
}

func (f *Fetcher) login(ctx context.Context) error {
	if err := chromedp.Run(ctx, chromedp.Navigate(f.cfg.BaseURL)); err != nil {
		return apperrors.NewNetworkError("failed to open the analytics backend", err)
	}

	f.logger.Info("Waiting for QR code login", slog.Duration("timeout", f.cfg.LoginTimeout))
	lctx, cancel := context.WithTimeout(ctx, f.cfg.LoginTimeout)
	defer cancel()
	if err := chromedp.Run(lctx, chromedp.WaitVisible(selIndexMenu, chromedp.ByQuery)); err != nil {
		return apperrors.NewNetworkError("login did not complete", err)
	}
	return nil
}

func (f *Fetcher) accountName(ctx context.Context) (string, error) {
	var name string
	tctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()
	if err := chromedp.Run(tctx, chromedp.Text(selAccountName, &name, chromedp.ByQuery)); err != nil {
		return "", apperrors.NewNetworkError("failed to read account name", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.NewNetworkError("account name is empty", nil)
	}
	return name, nil
}

// dateRange resolves the range of one export kind.
func (f *Fetcher) dateRange(account string, begin, end time.Time, backDays int) (DateRange, error) {
	b, err := f.locker.BeginDate(account, begin, end, backDays)
	if err != nil {
		return DateRange{}, err
	}
	if begin.IsZero() {
		if clamped := ClampBegin(b, end); !clamped.Equal(b) {
			f.logger.Warn("Download range shortened",
				slog.String("account", account),
				slog.String("requested", b.Format(time.DateOnly)),
				slog.String("begin", clamped.Format(time.DateOnly)))
			b = clamped
		}
	}
	r := DateRange{Begin: b, End: day(end)}
	return r, ValidateRange(r, f.now())
}

func (f *Fetcher) openContentAnalysis(ctx context.Context) error {
	var visible bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(visibleJS("内容分析"), &visible)); err != nil {
		return apperrors.NewNetworkError("failed to inspect menu", err)
	}
	if !visible {
		if err := f.click(ctx, selAnalytics); err != nil {
			return err
		}
	}
	return f.click(ctx, selContent)
}

func (f *Fetcher) downloadTraffic(ctx context.Context, account string, begin, end time.Time) (string, error) {
	r, err := f.dateRange(account, begin, end, config.TrafficBackDays)
	if err != nil {
		return "", err
	}
	if err := f.openContentAnalysis(ctx); err != nil {
		return "", err
	}
	if err := f.waitVisible(ctx, selDownload); err != nil {
		return "", err
	}
	if err := f.pickDates(ctx, selTrafficForm, r); err != nil {
		return "", err
	}
	return f.download(ctx, clickAction(selDownload), config.TrafficDownloadFile)
}

func (f *Fetcher) downloadArticle7d(ctx context.Context, account string, begin, end time.Time) (string, error) {
	r, err := f.dateRange(account, begin, end, config.Article7dBackDays)
	if err != nil {
		return "", err
	}
	if err := f.openContentAnalysis(ctx); err != nil {
		return "", err
	}
	if err := f.click(ctx, selNotified); err != nil {
		return "", err
	}
	if err := f.waitVisible(ctx, selDownload); err != nil {
		return "", err
	}
	if err := f.pickDates(ctx, selPanelForm, r); err != nil {
		return "", err
	}
	return f.download(ctx, clickAction(selDownload), config.Article7dDownloadFile)
}

// downloadArticleDetails opens every article of the published list, page
// by page, and downloads its detail export named after the article.
func (f *Fetcher) downloadArticleDetails(ctx context.Context, account string, begin, end time.Time) ([]string, error) {
	r, err := f.dateRange(account, begin, end, config.ArticleDetailBackDays)
	if err != nil {
		return nil, err
	}
	if err := f.openContentAnalysis(ctx); err != nil {
		return nil, err
	}
	if err := f.click(ctx, selNotified); err != nil {
		return nil, err
	}
	if err := f.waitVisible(ctx, selArticleTable); err != nil {
		return nil, err
	}
	if err := f.pickDates(ctx, selPanelForm, r); err != nil {
		return nil, err
	}

	var paths []string
	for page := 1; ; page++ {
		if err := f.waitVisible(ctx, selArticleTable); err != nil {
			return nil, err
		}

		var rows int
		if err := chromedp.Run(ctx, chromedp.Evaluate(
			`document.querySelectorAll('table.weui-desktop-table tbody tr').length`, &rows)); err != nil {
			return nil, apperrors.NewNetworkError("failed to count articles", err)
		}
		f.logger.Info("Processing article page", slog.Int("page", page), slog.Int("rows", rows))

		for i := 1; i <= rows; i++ {
			link := fmt.Sprintf(`(%s//tbody/tr)[%d]//a[contains(., "详情")]`, selArticleTable, i)
			var nodes int
			if err := chromedp.Run(ctx, chromedp.Evaluate(countJS(link), &nodes)); err != nil {
				return nil, apperrors.NewNetworkError("failed to inspect article row", err)
			}
			if nodes == 0 {
				continue
			}
			path, err := f.downloadArticle(ctx, link)
			if err != nil {
				return nil, err
			}
			paths = append(paths, path)
		}

		var more bool
		if err := chromedp.Run(ctx, chromedp.Evaluate(visibleJS("下一页"), &more)); err != nil {
			return nil, apperrors.NewNetworkError("failed to inspect pagination", err)
		}
		if !more {
			return paths, nil
		}
		if err := f.click(ctx, `//a[contains(., "下一页")]`); err != nil {
			return nil, err
		}
		if err := chromedp.Run(ctx, chromedp.Evaluate(`window.scrollTo(0, 0)`, nil)); err != nil {
			return nil, apperrors.NewNetworkError("failed to scroll", err)
		}
	}
}

// downloadArticle opens the detail tab behind link, downloads the export
// and closes the tab again.
func (f *Fetcher) downloadArticle(ctx context.Context, link string) (string, error) {
	opened := chromedp.WaitNewTarget(ctx, func(info *target.Info) bool {
		return info.Type == "page"
	})
	if err := f.click(ctx, link); err != nil {
		return "", err
	}

	var id target.ID
	select {
	case id = <-opened:
	case <-time.After(f.cfg.Timeout):
		return "", apperrors.NewNetworkError("article detail tab did not open", nil)
	case <-ctx.Done():
		return "", ctx.Err()
	}

	tab, closeTab := chromedp.NewContext(ctx, chromedp.WithTargetID(id))
	defer closeTab()

	if err := f.waitVisible(tab, selDownload); err != nil {
		return "", err
	}
	var title string
	if err := chromedp.Run(tab, chromedp.Text(selArticleTitle, &title, chromedp.BySearch)); err != nil {
		return "", apperrors.NewNetworkError("failed to read article title", err)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperrors.NewNetworkError("article title is empty", nil)
	}

	return f.download(tab, clickAction(selDownload), config.SanitizeName(title)+".xlsx")
}

// pace blocks until the next UI action is allowed.
func (f *Fetcher) pace(ctx context.Context) error {
	if err := f.limiter.Wait(ctx); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("action pacing: %w", err)
	}
	return nil
}

func (f *Fetcher) click(ctx context.Context, sel string) error {
	if err := f.pace(ctx); err != nil {
		return err
	}
	tctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()
	if err := chromedp.Run(tctx, clickAction(sel)); err != nil {
		return apperrors.NewNetworkError("click failed", err).WithContext("selector", sel)
	}
	return nil
}

func (f *Fetcher) waitVisible(ctx context.Context, sel string) error {
	tctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()
	if err := chromedp.Run(tctx, chromedp.WaitVisible(sel, chromedp.BySearch)); err != nil {
		return apperrors.NewNetworkError("element did not appear", err).WithContext("selector", sel)
	}
	return nil
}

func clickAction(sel string) chromedp.Action {
	return chromedp.Tasks{
		chromedp.WaitVisible(sel, chromedp.BySearch),
		chromedp.ScrollIntoView(sel, chromedp.BySearch),
		chromedp.Click(sel, chromedp.BySearch),
	}
}

// visibleJS reports whether a rendered link contains text.
func visibleJS(text string) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll('a')).some(a => a.textContent.includes(%q) && a.offsetParent !== null)`, text)
}

// countJS counts the nodes matching an XPath expression.
func countJS(xpath string) string {
	return fmt.Sprintf(`document.evaluate(%q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`, xpath)
}
