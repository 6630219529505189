package infrastructure

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"

	"wxdata/internal/config"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestInitializeOTel_Disabled(t *testing.T) {
	tel, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none"}, quietLogger())
	require.NoError(t, err)

	assert.Nil(t, tel.TracerProvider)
	assert.Nil(t, tel.MeterProvider)
	assert.Nil(t, tel.Gatherer())
	// no-op instruments still work
	require.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.Meter)
	_, span := tel.Tracer.Start(context.Background(), "noop")
	span.End()

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestInitializeOTel_UnsupportedExporter(t *testing.T) {
	_, err := InitializeOTel(config.TelemetryConfig{EnableTracing: true, TraceExporter: "otlp"}, quietLogger())
	assert.Error(t, err)
}

func TestMetricsTextfile(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "wxdata.prom")
	tel, err := InitializeOTel(config.TelemetryConfig{
		TraceExporter:   "none",
		EnableMetrics:   true,
		MetricsTextfile: textfile,
	}, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, tel.Gatherer())

	m, err := NewPipelineMetrics(tel.Meter)
	require.NoError(t, err)
	m.RowsWritten.Add(context.Background(), 42, metric.WithAttributes(DatasetAttr("traffic")))

	families, err := tel.Gatherer().Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "wxdata_rows_written_total")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, tel.Shutdown(ctx))

	content, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `wxdata_rows_written_total{dataset="traffic"`)
}

func TestRunMetrics(t *testing.T) {
	tel, err := InitializeOTel(config.TelemetryConfig{TraceExporter: "none", EnableMetrics: true}, quietLogger())
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	rm, err := NewRunMetrics(tel.Meter)
	require.NoError(t, err)

	stats := rm.Collect(context.Background(), time.Now().Add(-time.Second), assert.AnError)
	assert.True(t, stats.Failed)
	assert.GreaterOrEqual(t, stats.Duration, time.Second)
	assert.Positive(t, stats.GoRoutines)
}
