// Package analyzer orchestrates the reconciliation of one account's
// downloaded exports.
//
// Three independent pipelines (traffic, 7-day article rollup and article
// detail) read their exports, normalize them and merge the result into the
// account's datasets. A failing input is recorded in the Report and the
// remaining inputs are still processed. Publishing runs last.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"wxdata/internal/dataprocessing"
	"wxdata/internal/files"
	"wxdata/internal/infrastructure"
	"wxdata/internal/reconcile"
	"wxdata/pkg/contracts/domain"
)

// Publisher delivers an account's datasets once processing is done.
type Publisher interface {
	Publish(ctx context.Context, account string) (int, error)
}

// Options configures an Analyzer. Zero values are valid.
type Options struct {
	Catalog   reconcile.Catalog
	Publisher Publisher
	Logger    *slog.Logger
	Tracer    trace.Tracer
	Metrics   *infrastructure.PipelineMetrics
}

// Analyzer is the WeChat data analyzer for one account.
type Analyzer struct {
	account   string
	store     *reconcile.Store
	catalog   reconcile.Catalog
	publisher Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	metrics   *infrastructure.PipelineMetrics
}

// New creates an analyzer merging into store.
func New(account string, store *reconcile.Store, opts Options) (*Analyzer, error) {
	a := &Analyzer{
		account:   account,
		store:     store,
		catalog:   opts.Catalog,
		publisher: opts.Publisher,
		logger:    opts.Logger,
		tracer:    opts.Tracer,
		metrics:   opts.Metrics,
	}
	if a.catalog == nil {
		c, err := reconcile.NewCatalog(nil)
		if err != nil {
			return nil, err
		}
		a.catalog = c
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With(slog.String("account", account))
	if a.tracer == nil {
		a.tracer = noop.NewTracerProvider().Tracer("analyzer")
	}
	return a, nil
}

// Process runs the three pipelines over d and then publishes. Input
// failures are collected in the report; the returned error is set only
// when the run was cancelled or publishing failed. Publish failures do not
// undo merged datasets.
func (a *Analyzer) Process(ctx context.Context, d files.Downloads) (*Report, error) {
	ctx, span := a.tracer.Start(ctx, "analyzer.process",
		trace.WithAttributes(infrastructure.AccountAttr(a.account)))
	defer span.End()

	report := &Report{Account: a.account}

	if d.Traffic != "" {
		results, err := a.ProcessTraffic(ctx, d.Traffic)
		report.Results = append(report.Results, results...)
		a.collect(ctx, report, PipelineTraffic, d.Traffic, err)
	}

	if d.Article7d != "" {
		results, err := a.ProcessArticle7d(ctx, d.Article7d)
		report.Results = append(report.Results, results...)
		a.collect(ctx, report, PipelineArticle7d, d.Article7d, err)
	}

	if len(d.ArticleDetails) > 0 {
		results, failures := a.ProcessArticleDetail(ctx, d.ArticleDetails)
		report.Results = append(report.Results, results...)
		report.Failures = append(report.Failures, failures...)
	}

	a.logger.InfoContext(ctx, "Processing finished",
		slog.Int("datasets_written", len(report.Written())),
		slog.Int("failures", len(report.Failures)))

	if err := ctx.Err(); err != nil {
		infrastructure.RecordError(span, err)
		return report, err
	}

	if a.publisher != nil {
		n, err := a.publisher.Publish(ctx, a.account)
		report.Published = n
		if err != nil {
			infrastructure.RecordError(span, err)
			return report, fmt.Errorf("publish failed: %w", err)
		}
	}

	return report, nil
}

// collect records the outcome of a single-file pipeline.
func (a *Analyzer) collect(ctx context.Context, report *Report, pipeline, path string, err error) {
	if err == nil {
		a.count(ctx, pipeline, true)
		return
	}
	a.count(ctx, pipeline, false)
	for _, e := range unjoin(err) {
		f := newFailure(pipeline, path, e)
		a.logFailure(ctx, f)
		report.Failures = append(report.Failures, f)
	}
}

// ProcessTraffic reconciles a traffic export: all-channel rows go to the
// traffic summary, per-channel rows to the traffic dataset. A no-op when
// path is empty.
func (a *Analyzer) ProcessTraffic(ctx context.Context, path string) ([]*reconcile.MergeResult, error) {
	if path == "" {
		return nil, nil
	}
	ctx, span := a.startPipeline(ctx, PipelineTraffic, path)
	defer span.End()

	ds, err := readTall(path)
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}
	summary, channels, err := dataprocessing.PartitionTraffic(ds)
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	return a.reconcileAll(ctx, span, []merge{
		{a.catalog.Get(reconcile.TrafficSummary), summary},
		{a.catalog.Get(reconcile.Traffic), channels},
	})
}

// ProcessArticle7d reconciles the 7-day article rollup. A no-op when path
// is empty.
func (a *Analyzer) ProcessArticle7d(ctx context.Context, path string) ([]*reconcile.MergeResult, error) {
	if path == "" {
		return nil, nil
	}
	ctx, span := a.startPipeline(ctx, PipelineArticle7d, path)
	defer span.End()

	ds, err := readTall(path)
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}
	ds, err = dataprocessing.Project("article_7d", dataprocessing.Article7dPolicy, ds)
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	return a.reconcileAll(ctx, span, []merge{
		{a.catalog.Get(reconcile.Article7d), ds},
	})
}

// ProcessArticleDetail reconciles each article detail export in turn. A
// broken export is recorded and skipped; the others are still merged.
func (a *Analyzer) ProcessArticleDetail(ctx context.Context, paths []string) ([]*reconcile.MergeResult, []Failure) {
	var results []*reconcile.MergeResult
	var failures []Failure

	for _, path := range paths {
		if ctx.Err() != nil {
			failures = append(failures, newFailure(PipelineArticleDetail, path, ctx.Err()))
			continue
		}
		res, err := a.processArticle(ctx, path)
		results = append(results, res...)
		a.count(ctx, PipelineArticleDetail, err == nil)
		for _, e := range unjoin(err) {
			f := newFailure(PipelineArticleDetail, path, e)
			a.logFailure(ctx, f)
			failures = append(failures, f)
		}
	}

	return results, failures
}

func (a *Analyzer) processArticle(ctx context.Context, path string) ([]*reconcile.MergeResult, error) {
	ctx, span := a.startPipeline(ctx, PipelineArticleDetail, path)
	defer span.End()

	grid, err := dataprocessing.ReadGrid(path)
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	title := files.ArticleTitle(path)
	detail, err := dataprocessing.ExtractArticleDetail(grid, title,
		a.logger.With(slog.String("path", path)))
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(
		attribute.String("article.title", title),
		attribute.String("article.publish_date", detail.PublishDate))

	merges := []merge{
		{a.catalog.Get(reconcile.ArticleDetail), detail.Detail},
		{a.catalog.Get(reconcile.ArticleTrend), detail.Trend},
	}
	for _, kind := range []domain.TableKind{domain.TableGender, domain.TableAge, domain.TableRegion} {
		if ds, ok := detail.Distributions[kind]; ok {
			merges = append(merges, merge{a.catalog.Get(reconcile.Distributions[kind]), ds})
		}
	}

	return a.reconcileAll(ctx, span, merges)
}

type merge struct {
	spec     reconcile.DatasetSpec
	incoming *domain.Dataset
}

// reconcileAll runs every merge even when an earlier one fails, so one
// unreadable dataset file does not hold back the others.
func (a *Analyzer) reconcileAll(ctx context.Context, span trace.Span, merges []merge) ([]*reconcile.MergeResult, error) {
	var results []*reconcile.MergeResult
	var errs []error
	for _, m := range merges {
		res, err := a.store.Reconcile(ctx, m.spec, m.incoming)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		results = append(results, res)
	}
	err := errors.Join(errs...)
	infrastructure.RecordError(span, err)
	return results, err
}

func (a *Analyzer) startPipeline(ctx context.Context, pipeline, path string) (context.Context, trace.Span) {
	a.logger.InfoContext(ctx, "Processing export",
		slog.String("pipeline", pipeline),
		slog.String("path", path))
	return a.tracer.Start(ctx, "analyzer."+pipeline, trace.WithAttributes(
		infrastructure.AccountAttr(a.account),
		attribute.String("path", path)))
}

func (a *Analyzer) logFailure(ctx context.Context, f Failure) {
	a.logger.ErrorContext(ctx, "Export skipped",
		slog.String("pipeline", f.Pipeline),
		slog.String("path", f.Path),
		slog.String("table", f.Table),
		slog.String("dataset", f.Dataset),
		slog.String("error", f.Err.Error()))
}

func (a *Analyzer) count(ctx context.Context, pipeline string, ok bool) {
	if a.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("pipeline", pipeline))
	if ok {
		a.metrics.ExportsProcessed.Add(ctx, 1, attrs)
	} else {
		a.metrics.ExportsFailed.Add(ctx, 1, attrs)
	}
}

func readTall(path string) (*domain.Dataset, error) {
	grid, err := dataprocessing.ReadGrid(path)
	if err != nil {
		return nil, err
	}
	return dataprocessing.ReadTallTable(grid)
}

// unjoin splits an errors.Join result back into its parts.
func unjoin(err error) []error {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		return j.Unwrap()
	}
	return []error{err}
}
