package infrastructure

import (
	"go.opentelemetry.io/otel/metric"
)

// PipelineMetrics holds the instruments recorded by the analyzer, the
// dataset store and the publisher.
type PipelineMetrics struct {
	ExportsProcessed metric.Int64Counter
	ExportsFailed    metric.Int64Counter
	RowsIncoming     metric.Int64Counter
	RowsWritten      metric.Int64Counter
	RowsReplaced     metric.Int64Counter
	KeyCollisions    metric.Int64Counter
	MergeDuration    metric.Float64Histogram
	FilesPublished   metric.Int64Counter
}

// NewPipelineMetrics creates the pipeline instruments on meter
func NewPipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	var err error

	if m.ExportsProcessed, err = meter.Int64Counter(
		"wxdata_exports_processed_total",
		metric.WithDescription("Export files processed successfully"),
	); err != nil {
		return nil, err
	}

	if m.ExportsFailed, err = meter.Int64Counter(
		"wxdata_exports_failed_total",
		metric.WithDescription("Export files skipped because of an error"),
	); err != nil {
		return nil, err
	}

	if m.RowsIncoming, err = meter.Int64Counter(
		"wxdata_rows_incoming_total",
		metric.WithDescription("Rows extracted from exports"),
	); err != nil {
		return nil, err
	}

	if m.RowsWritten, err = meter.Int64Counter(
		"wxdata_rows_written_total",
		metric.WithDescription("Rows written to datasets"),
	); err != nil {
		return nil, err
	}

	if m.RowsReplaced, err = meter.Int64Counter(
		"wxdata_rows_replaced_total",
		metric.WithDescription("Existing rows superseded by incoming rows"),
	); err != nil {
		return nil, err
	}

	if m.KeyCollisions, err = meter.Int64Counter(
		"wxdata_key_collisions_total",
		metric.WithDescription("Duplicate keys found within one incoming batch"),
	); err != nil {
		return nil, err
	}

	if m.MergeDuration, err = meter.Float64Histogram(
		"wxdata_merge_duration_seconds",
		metric.WithDescription("Dataset reconcile duration in seconds"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	if m.FilesPublished, err = meter.Int64Counter(
		"wxdata_files_published_total",
		metric.WithDescription("Files copied to the publish directory"),
	); err != nil {
		return nil, err
	}

	return m, nil
}
