// Package publisher copies reconciled account datasets to the delivery
// directory.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"wxdata/internal/config"
	apperrors "wxdata/internal/errors"
	"wxdata/internal/files"
	"wxdata/internal/infrastructure"
)

// Publisher copies <data_dir>/<account> to <publish_dir>/<account>,
// overwriting files that already exist there.
type Publisher struct {
	paths       *config.Paths
	manager     *files.Manager
	concurrency int
	logger      *slog.Logger
	metrics     *infrastructure.PipelineMetrics
}

// New creates a publisher copying up to concurrency files at once.
// metrics may be nil.
func New(paths *config.Paths, concurrency int, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Publisher{
		paths:       paths,
		manager:     files.NewManager(logger),
		concurrency: concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// Enabled reports whether a publish directory is configured.
func (p *Publisher) Enabled() bool {
	return p.paths.PublishDir != ""
}

// Publish copies every file of the account directory. It stops at the
// first failed copy; files already copied stay in place.
func (p *Publisher) Publish(ctx context.Context, account string) (int, error) {
	if !p.Enabled() {
		p.logger.InfoContext(ctx, "Publish directory not configured, skipping publish")
		return 0, nil
	}

	src := p.paths.AccountDir(account)
	dst := p.paths.PublishAccountDir(account)

	names, err := p.manager.ListFiles(src)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to list account directory", err).
			WithContext("path", src)
	}

	p.logger.InfoContext(ctx, "Publishing account data",
		slog.String("account", account),
		slog.String("src", src),
		slog.String("dst", dst),
		slog.Int("files", len(names)),
		slog.Int("concurrency", p.concurrency))

	startTime := time.Now()
	var copied atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := p.manager.CopyFile(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
				return apperrors.NewStorageError(fmt.Sprintf("failed to publish %s", name), err).
					WithContext("account", account)
			}
			copied.Add(1)
			return nil
		})
	}

	err = g.Wait()
	n := int(copied.Load())

	if p.metrics != nil {
		p.metrics.FilesPublished.Add(ctx, int64(n),
			metric.WithAttributes(infrastructure.AccountAttr(account)))
	}

	if err != nil {
		return n, err
	}

	p.logger.InfoContext(ctx, "Publish complete",
		slog.String("account", account),
		slog.Int("files", n),
		slog.Duration("elapsed", time.Since(startTime)))
	return n, nil
}
