// Package telemetry exports OpenTelemetry metrics and traces to size-rotated
// JSON files.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	serviceName = "larder"

	// DefaultInterval is how often metrics are exported.
	DefaultInterval = 30 * time.Second
)

// Config configures telemetry export.
type Config struct {
	// MetricsFile receives one JSON document per export. Required.
	MetricsFile string

	// TracesFile receives finished spans. Empty disables tracing.
	TracesFile string

	// Interval between metric exports. Defaults to DefaultInterval.
	Interval time.Duration

	// Version is reported as the service version resource attribute.
	Version string
}

// Telemetry owns the meter and tracer providers and their output files.
type Telemetry struct {
	meters  *sdkmetric.MeterProvider
	tracers *sdktrace.TracerProvider
	files   []io.Closer
}

// New starts metric export, and trace export when a traces file is set.
func New(ctx context.Context, c Config) (*Telemetry, error) {
	if c.MetricsFile == "" {
		return nil, errors.New("metrics file is required")
	}
	if c.Interval <= 0 {
		c.Interval = DefaultInterval
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(c.Version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	t := &Telemetry{}

	metricsFile, err := rotatingFile(c.MetricsFile)
	if err != nil {
		return nil, err
	}
	t.files = append(t.files, metricsFile)

	metricExporter, err := stdoutmetric.New(stdoutmetric.WithWriter(metricsFile))
	if err != nil {
		_ = t.closeFiles()
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	t.meters = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(
			sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(c.Interval)),
		),
		sdkmetric.WithResource(res),
	)

	if c.TracesFile != "" {
		tracesFile, err := rotatingFile(c.TracesFile)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
		t.files = append(t.files, tracesFile)

		traceExporter, err := stdouttrace.New(stdouttrace.WithWriter(tracesFile))
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("creating trace exporter: %w", err)
		}

		t.tracers = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(traceExporter),
			sdktrace.WithResource(res),
		)
	}

	return t, nil
}

// Meter returns the larder meter.
func (t *Telemetry) Meter() metric.Meter {
	return t.meters.Meter(serviceName)
}

// Tracer returns the larder tracer, or nil when tracing is disabled.
func (t *Telemetry) Tracer() trace.Tracer {
	if t.tracers == nil {
		return nil
	}
	return t.tracers.Tracer(serviceName)
}

// Shutdown flushes pending metrics and spans, then closes the output files.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.tracers != nil {
		if err := t.tracers.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down tracer provider: %w", err))
		}
	}
	if t.meters != nil {
		if err := t.meters.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down meter provider: %w", err))
		}
	}
	if err := t.closeFiles(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (t *Telemetry) closeFiles() error {
	var errs []error
	for _, f := range t.files {
		if err := f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing telemetry file: %w", err))
		}
	}
	t.files = nil
	return errors.Join(errs...)
}

func rotatingFile(path string) (*lumberjack.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating telemetry directory: %w", err)
	}

	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	}, nil
}
