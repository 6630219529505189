package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"

	apperrors "wxdata/internal/errors"
)

// downloadTracker waits for the browser to report the end of a download.
type downloadTracker struct {
	done   chan string
	failed chan string
}

func newDownloadTracker() *downloadTracker {
	return &downloadTracker{
		done:   make(chan string, 1),
		failed: make(chan string, 1),
	}
}

// handle is a chromedp target listener.
func (d *downloadTracker) handle(ev interface{}) {
	e, ok := ev.(*browser.EventDownloadProgress)
	if !ok {
		return
	}
	switch e.State {
	case browser.DownloadProgressStateCompleted:
		select {
		case d.done <- e.GUID:
		default:
		}
	case browser.DownloadProgressStateCanceled:
		select {
		case d.failed <- e.GUID:
		default:
		}
	}
}

// wait returns the GUID of the completed download.
func (d *downloadTracker) wait(ctx context.Context, timeout time.Duration) (string, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case guid := <-d.done:
		return guid, nil
	case guid := <-d.failed:
		return "", apperrors.NewNetworkError(fmt.Sprintf("download %s was canceled", guid), nil)
	case <-timer.C:
		return "", apperrors.NewNetworkError(fmt.Sprintf("download did not finish within %s", timeout), nil)
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// download runs trigger in the tab of ctx and saves the file it starts as
// name inside the download directory.
func (f *Fetcher) download(ctx context.Context, trigger chromedp.Action, name string) (string, error) {
	lctx, cancel := context.WithCancel(ctx)
	defer cancel()

	tracker := newDownloadTracker()
	chromedp.ListenTarget(lctx, tracker.handle)

	dir := f.paths.TmpDir
	if err := chromedp.Run(ctx, browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorAllowAndName).
		WithDownloadPath(dir).
		WithEventsEnabled(true)); err != nil {
		return "", apperrors.NewNetworkError("failed to enable downloads", err)
	}

	if err := f.pace(ctx); err != nil {
		return "", err
	}
	if err := chromedp.Run(ctx, trigger); err != nil {
		return "", apperrors.NewNetworkError("failed to start download", err).
			WithContext("file", name)
	}

	guid, err := tracker.wait(ctx, f.cfg.DownloadTimeout)
	if err != nil {
		return "", err
	}

	dest := filepath.Join(dir, name)
	if err := f.manager.MoveFile(filepath.Join(dir, guid), dest); err != nil {
		return "", apperrors.NewStorageError("failed to name download", err).
			WithContext("file", name)
	}

	f.logger.InfoContext(ctx, "File downloaded", slog.String("file", name))
	return dest, nil
}
