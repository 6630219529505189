package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RunMetrics records process level gauges once per run, right before the
// metrics textfile is written.
type RunMetrics struct {
	goRoutines    metric.Int64Gauge
	memoryUsage   metric.Int64Gauge
	memorySystem  metric.Int64Gauge
	runDuration   metric.Float64Gauge
	lastRunFailed metric.Int64Gauge
}

// RunStats is a snapshot of the process at the end of a run
type RunStats struct {
	GoRoutines   int64
	MemoryUsage  int64
	MemorySystem int64
	Duration     time.Duration
	Failed       bool
}

// NewRunMetrics creates the run gauges on meter
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"wxdata_goroutines",
		metric.WithDescription("Number of goroutines at the end of the run"),
	)
	if err != nil {
		return nil, err
	}

	memoryUsage, err := meter.Int64Gauge(
		"wxdata_memory_usage_bytes",
		metric.WithDescription("Heap bytes in use at the end of the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"wxdata_memory_system_bytes",
		metric.WithDescription("Memory obtained from the OS in bytes"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Gauge(
		"wxdata_run_duration_seconds",
		metric.WithDescription("Wall time of the last run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	lastRunFailed, err := meter.Int64Gauge(
		"wxdata_last_run_failed",
		metric.WithDescription("1 when the last run ended with an error"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		goRoutines:    goRoutines,
		memoryUsage:   memoryUsage,
		memorySystem:  memorySystem,
		runDuration:   runDuration,
		lastRunFailed: lastRunFailed,
	}, nil
}

// Collect records the end-of-run gauges and returns what it recorded
func (rm *RunMetrics) Collect(ctx context.Context, startTime time.Time, runErr error) *RunStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &RunStats{
		GoRoutines:   int64(runtime.NumGoroutine()),
		MemoryUsage:  int64(memStats.Alloc),
		MemorySystem: int64(memStats.Sys),
		Duration:     time.Since(startTime),
		Failed:       runErr != nil,
	}

	rm.goRoutines.Record(ctx, stats.GoRoutines)
	rm.memoryUsage.Record(ctx, stats.MemoryUsage)
	rm.memorySystem.Record(ctx, stats.MemorySystem)
	rm.runDuration.Record(ctx, stats.Duration.Seconds())
	failed := int64(0)
	if stats.Failed {
		failed = 1
	}
	rm.lastRunFailed.Record(ctx, failed)

	return stats
}
