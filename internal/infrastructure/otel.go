package infrastructure

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"

	"databoard/internal/config"
	"databoard/pkg/contracts"
)

// ServiceName identifies this process in traces and metrics.
const ServiceName = "databoard"

// OTelProviders bundles the configured OpenTelemetry providers and the
// Prometheus registry backing the /metrics endpoint.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	Registry       *prometheus.Registry

	logger *slog.Logger
}

// InitOTel configures the global tracer and meter providers. Tracing uses a
// stdout exporter when enabled (development); metrics are exported through
// the Prometheus registry returned in the providers.
func InitOTel(cfg config.ObservabilityConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	logger = logger.With(slog.String("component", "otel"))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
		semconv.ServiceVersion(contracts.Version),
	)

	traceOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.TracingEnabled {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("failed to create trace exporter: %w", err)
		}
		traceOpts = append(traceOpts, sdktrace.WithBatcher(exporter))
	}
	tracerProvider := sdktrace.NewTracerProvider(traceOpts...)
	otel.SetTracerProvider(tracerProvider)

	registry := prometheus.NewRegistry()
	meterOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	if cfg.MetricsEnabled {
		promExporter, err := otelprom.New(otelprom.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
		}
		meterOpts = append(meterOpts, sdkmetric.WithReader(promExporter))
	}
	meterProvider := sdkmetric.NewMeterProvider(meterOpts...)
	otel.SetMeterProvider(meterProvider)

	logger.Info("observability initialized",
		slog.Bool("metrics_enabled", cfg.MetricsEnabled),
		slog.Bool("tracing_enabled", cfg.TracingEnabled))

	return &OTelProviders{
		TracerProvider: tracerProvider,
		MeterProvider:  meterProvider,
		Meter:          meterProvider.Meter(ServiceName),
		Registry:       registry,
		logger:         logger,
	}, nil
}

// Shutdown flushes and stops the providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var firstErr error

	if err := p.TracerProvider.Shutdown(ctx); err != nil {
		firstErr = err
		p.logger.Error("tracer provider shutdown failed", slog.String("error", err.Error()))
	}
	if err := p.MeterProvider.Shutdown(ctx); err != nil {
		if firstErr == nil {
			firstErr = err
		}
		p.logger.Error("meter provider shutdown failed", slog.String("error", err.Error()))
	}

	return firstErr
}

// BusinessMetrics holds the instruments the dashboard pipeline reports to.
type BusinessMetrics struct {
	PipelineRunsTotal     metric.Int64Counter
	PipelineFailuresTotal metric.Int64Counter
	StageDuration         metric.Float64Histogram
	DatasetLoadsTotal     metric.Int64Counter
	CacheHitsTotal        metric.Int64Counter
	CacheMissesTotal      metric.Int64Counter
	WebSocketClients      metric.Int64UpDownCounter
}

// CreateBusinessMetrics registers the pipeline instruments on the meter.
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	runs, err := meter.Int64Counter("databoard_pipeline_runs_total",
		metric.WithDescription("Pipeline runs started, by board"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline runs counter: %w", err)
	}

	failures, err := meter.Int64Counter("databoard_pipeline_failures_total",
		metric.WithDescription("Pipeline runs failed, by stage and error kind"))
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline failures counter: %w", err)
	}

	stageDuration, err := meter.Float64Histogram("databoard_stage_duration_seconds",
		metric.WithDescription("Per-stage execution duration"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, fmt.Errorf("failed to create stage duration histogram: %w", err)
	}

	datasetLoads, err := meter.Int64Counter("databoard_dataset_loads_total",
		metric.WithDescription("Dataset loads from disk, by outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset loads counter: %w", err)
	}

	cacheHits, err := meter.Int64Counter("databoard_dataset_cache_hits_total",
		metric.WithDescription("Dataset cache hits"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	cacheMisses, err := meter.Int64Counter("databoard_dataset_cache_misses_total",
		metric.WithDescription("Dataset cache misses"))
	if err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	wsClients, err := meter.Int64UpDownCounter("databoard_websocket_clients",
		metric.WithDescription("Connected WebSocket clients"))
	if err != nil {
		return nil, fmt.Errorf("failed to create websocket clients counter: %w", err)
	}

	return &BusinessMetrics{
		PipelineRunsTotal:     runs,
		PipelineFailuresTotal: failures,
		StageDuration:         stageDuration,
		DatasetLoadsTotal:     datasetLoads,
		CacheHitsTotal:        cacheHits,
		CacheMissesTotal:      cacheMisses,
		WebSocketClients:      wsClients,
	}, nil
}
