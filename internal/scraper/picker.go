package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	apperrors "wxdata/internal/errors"
)

// pickDates selects r in the two-panel date picker inside form.
func (f *Fetcher) pickDates(ctx context.Context, form string, r DateRange) error {
	if err := ValidateRange(r, f.now()); err != nil {
		return err
	}

	icon := form + `//span[contains(@class, "weui-desktop-picker__icon-wrap")]`
	panels := form + `//dd[contains(@class, "weui-desktop-picker__dd")]/div[contains(@class, "weui-desktop-picker__panel_day")]`
	left := fmt.Sprintf(`(%s)[1]`, panels)
	right := fmt.Sprintf(`(%s)[2]`, panels)

	f.logger.InfoContext(ctx, "Picking dates", slog.String("range", r.String()))

	if err := f.click(ctx, icon); err != nil {
		return err
	}
	if err := f.pickDay(ctx, left, right, r.Begin); err != nil {
		return err
	}
	if err := f.pickDay(ctx, left, right, r.End); err != nil {
		return err
	}
	return f.click(ctx, icon)
}

// pickDay turns the picker until target is in view and clicks its day.
func (f *Fetcher) pickDay(ctx context.Context, left, right string, target time.Time) error {
	shown, err := f.panelMonth(ctx, left)
	if err != nil {
		return err
	}

	turns := pageTurns(shown, target)
	button := fmt.Sprintf(`(%s//button)[1]`, left)
	if turns > 0 {
		button = fmt.Sprintf(`(%s//button)[1]`, right)
	} else {
		turns = -turns
	}
	for i := 0; i < turns; i++ {
		if err := f.click(ctx, button); err != nil {
			return err
		}
	}

	shown, err = f.panelMonth(ctx, left)
	if err != nil {
		return err
	}
	panel := left
	switch monthsBetween(shown, target) {
	case 0:
	case 1:
		panel = right
	default:
		return apperrors.NewNetworkError(
			fmt.Sprintf("date picker shows %s, cannot reach %s",
				shown.Format("2006-01"), target.Format(time.DateOnly)), nil)
	}

	return f.click(ctx, fmt.Sprintf(
		`%s//tbody//a[not(contains(@class, "weui-desktop-picker__faded")) and normalize-space(text())="%d"]`,
		panel, target.Day()))
}

func (f *Fetcher) panelMonth(ctx context.Context, panel string) (time.Time, error) {
	var head string
	tctx, cancel := context.WithTimeout(ctx, f.cfg.Timeout)
	defer cancel()
	sel := panel + `//div[contains(@class, "weui-desktop-picker__panel__hd")]`
	if err := chromedp.Run(tctx, chromedp.Text(sel, &head, chromedp.BySearch)); err != nil {
		return time.Time{}, apperrors.NewNetworkError("failed to read date picker", err)
	}
	month, err := parsePanelHead(head)
	if err != nil {
		return time.Time{}, apperrors.NewNetworkError("failed to read date picker", err)
	}
	return month, nil
}
