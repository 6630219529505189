package main

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"wxdata/internal/locker"
	"wxdata/internal/scraper"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Download, reconcile and publish the logged-in account",
		Long: `Run opens the analytics backend in Chrome, waits for a QR code login,
downloads the traffic, 7-day article and article detail exports, merges them
into the account's datasets and publishes the account directory.

Without --begin the range restarts from the last recorded download of the
account (each export kind looks back a few extra days). Without --end the
range ends yesterday.

Examples:
  # Incremental run
  wxdata run

  # Explicit range
  wxdata run --begin 2024-01-01 --end 2024-01-31`,
		Args: cobra.NoArgs,
		RunE: runRunCmd,
	}

	cmd.Flags().String("begin", "", "First day to download (YYYY-MM-DD)")
	cmd.Flags().String("end", "", "Last day to download (YYYY-MM-DD), before today")
	cmd.Flags().Bool("headless", false, "Run Chrome without a window (needs a remembered session)")

	return cmd
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	r, err := parseRange(cmd)
	if err != nil {
		return err
	}

	ctx, env, cancel, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cancel()

	if cmd.Flags().Changed("headless") {
		env.cfg.Scraper.Headless, _ = cmd.Flags().GetBool("headless")
	}

	lk := locker.NewForPaths(env.paths, env.logger)
	fetcher := scraper.New(env.cfg.Scraper, env.paths, lk, env.logger)

	result, err := fetcher.DownloadAll(ctx, r)
	if err != nil {
		if errors.Is(err, locker.ErrAlreadyDownloaded) {
			env.logger.WarnContext(ctx, "Already downloaded today, nothing to do")
		}
		return env.finish(ctx, err)
	}

	a, err := env.newAnalyzer(result.Account)
	if err != nil {
		return env.finish(ctx, err)
	}
	report, err := a.Process(ctx, result.Downloads)
	return env.finish(ctx, env.reportResult(ctx, report, err))
}

func parseRange(cmd *cobra.Command) (scraper.Range, error) {
	var r scraper.Range
	for _, f := range []struct {
		name string
		dst  *time.Time
	}{
		{"begin", &r.Begin},
		{"end", &r.End},
	} {
		v, _ := cmd.Flags().GetString(f.name)
		if v == "" {
			continue
		}
		t, err := time.ParseInLocation(time.DateOnly, v, time.Local)
		if err != nil {
			return r, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", f.name, v)
		}
		*f.dst = t
	}
	if !r.Begin.IsZero() && !r.End.IsZero() && r.Begin.After(r.End) {
		return r, fmt.Errorf("--begin %s is after --end %s",
			r.Begin.Format(time.DateOnly), r.End.Format(time.DateOnly))
	}
	slog.Debug("Download range", slog.Time("begin", r.Begin), slog.Time("end", r.End))
	return r, nil
}
