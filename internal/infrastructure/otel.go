package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"wxdata/internal/config"
)

// InstrumentationName names the tracer and meter
const InstrumentationName = "wxdata"

// Telemetry holds the OpenTelemetry providers of one run. A zero-config
// Telemetry hands out no-op tracers and meters.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter

	registry *prometheus.Registry
	textfile string
	logger   *slog.Logger
}

// InitializeOTel sets up tracing and metrics as configured. Metrics go
// through the OpenTelemetry Prometheus exporter into a private registry,
// which Shutdown dumps to cfg.MetricsTextfile when set.
func InitializeOTel(cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}

	t := &Telemetry{
		Tracer:   tracenoop.NewTracerProvider().Tracer(InstrumentationName),
		Meter:    noop.NewMeterProvider().Meter(InstrumentationName),
		textfile: cfg.MetricsTextfile,
		logger:   logger,
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(config.AppName),
		semconv.ServiceVersion(config.AppVersion),
	)

	if cfg.EnableTracing && cfg.TraceExporter != "none" {
		if err := t.initializeTracing(cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := t.initializeMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	logger.Debug("OpenTelemetry initialized",
		slog.Bool("tracing_enabled", t.TracerProvider != nil),
		slog.Bool("metrics_enabled", t.MeterProvider != nil))

	return t, nil
}

func (t *Telemetry) initializeTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	t.TracerProvider = tp
	t.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(config.AppVersion))
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(mp)

	t.registry = registry
	t.MeterProvider = mp
	t.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(config.AppVersion))
	return nil
}

// Gatherer exposes the metrics registry, or nil when metrics are disabled.
func (t *Telemetry) Gatherer() prometheus.Gatherer {
	if t.registry == nil {
		return nil
	}
	return t.registry
}

// Shutdown flushes spans, writes the metrics textfile and stops providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.registry != nil && t.textfile != "" {
		if err := os.MkdirAll(filepath.Dir(t.textfile), 0755); err != nil {
			errs = append(errs, fmt.Errorf("failed to create metrics directory: %w", err))
		} else if err := prometheus.WriteToTextfile(t.textfile, t.registry); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics textfile: %w", err))
		} else {
			t.logger.Info("Metrics written", slog.String("path", t.textfile))
		}
	}

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown tracer provider: %w", err))
		}
	}

	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown meter provider: %w", err))
		}
	}

	return errors.Join(errs...)
}

// RecordError marks the span failed and attaches the error
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// DatasetAttr is the span/metric attribute naming a dataset
func DatasetAttr(name string) attribute.KeyValue {
	return attribute.String("dataset", name)
}

// AccountAttr is the span/metric attribute naming an account
func AccountAttr(account string) attribute.KeyValue {
	return attribute.String("account", account)
}
