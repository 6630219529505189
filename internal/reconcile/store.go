package reconcile

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	apperrors "wxdata/internal/errors"
	"wxdata/internal/exporter"
	"wxdata/internal/infrastructure"
	"wxdata/pkg/contracts/domain"
)

// MergeResult reports one Reconcile call.
type MergeResult struct {
	Dataset *domain.Dataset
	Path    string
	MergeStats
	Total   int
	Written bool
}

// Store reconciles incoming datasets into the CSV files of one account
// directory.
type Store struct {
	dir     string
	writer  *exporter.CSVWriter
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *infrastructure.PipelineMetrics
}

// Option configures a Store
type Option func(*Store)

// WithTracer traces every Reconcile call
func WithTracer(tracer trace.Tracer) Option {
	return func(s *Store) { s.tracer = tracer }
}

// WithMetrics records row counts and durations
func WithMetrics(m *infrastructure.PipelineMetrics) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a store rooted at dir
func NewStore(dir string, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		dir:    dir,
		writer: exporter.NewCSVWriter(logger),
		logger: logger,
		tracer: noop.NewTracerProvider().Tracer("reconcile"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the account directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing a dataset
func (s *Store) Path(spec DatasetSpec) string {
	return filepath.Join(s.dir, spec.FileName())
}

// Load reads a persisted dataset; nil when it does not exist yet. A file
// that exists but cannot be parsed is a STORAGE error.
func (s *Store) Load(spec DatasetSpec) (*domain.Dataset, error) {
	path := s.Path(spec)
	ds, _, err := exporter.ReadDataset(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to load existing dataset", err).
			WithContext("dataset", spec.Name).
			WithContext("path", path)
	}
	return ds, nil
}

// Reconcile merges incoming into the persisted dataset and rewrites it.
// When the existing file cannot be read nothing is written, so stored
// history is never replaced by incoming rows alone. An empty result
// writes nothing.
func (s *Store) Reconcile(ctx context.Context, spec DatasetSpec, incoming *domain.Dataset) (*MergeResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "reconcile."+spec.Name,
		trace.WithAttributes(infrastructure.DatasetAttr(spec.Name)))
	defer span.End()
	start := time.Now()

	existing, err := s.Load(spec)
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	merged, stats, err := Merge(existing, incoming, spec, s.logger)
	if err != nil {
		infrastructure.RecordError(span, err)
		return nil, err
	}

	result := &MergeResult{
		Dataset:    merged,
		Path:       s.Path(spec),
		MergeStats: stats,
		Total:      merged.Len(),
	}

	if merged.Len() > 0 {
		if err := s.writer.WriteDataset(result.Path, merged); err != nil {
			err = apperrors.NewStorageError("failed to write dataset", err).
				WithContext("dataset", spec.Name).
				WithContext("path", result.Path)
			infrastructure.RecordError(span, err)
			return nil, err
		}
		result.Written = true
	}

	span.SetAttributes(
		attribute.Int("rows.kept", stats.Kept),
		attribute.Int("rows.replaced", stats.Replaced),
		attribute.Int("rows.added", stats.Added),
		attribute.Int("rows.total", result.Total),
	)
	s.record(ctx, spec, result, time.Since(start))

	s.logger.InfoContext(ctx, "Dataset reconciled",
		slog.String("dataset", spec.Name),
		slog.Int("kept", stats.Kept),
		slog.Int("replaced", stats.Replaced),
		slog.Int("added", stats.Added),
		slog.Int("collapsed", stats.Collapsed),
		slog.Int("total", result.Total),
		slog.Bool("written", result.Written))

	return result, nil
}

func (s *Store) record(ctx context.Context, spec DatasetSpec, r *MergeResult, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	attrs := metric.WithAttributes(infrastructure.DatasetAttr(spec.Name))
	s.metrics.RowsIncoming.Add(ctx, int64(r.Added+r.Collapsed), attrs)
	s.metrics.RowsReplaced.Add(ctx, int64(r.Replaced), attrs)
	s.metrics.KeyCollisions.Add(ctx, int64(r.Collapsed), attrs)
	if r.Written {
		s.metrics.RowsWritten.Add(ctx, int64(r.Total), attrs)
	}
	s.metrics.MergeDuration.Record(ctx, elapsed.Seconds(), attrs)
}
