package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"travel-orchestrator/internal/common/config"
	"travel-orchestrator/internal/common/logger"
)

// Observability owns the process-wide meter and tracer providers.
type Observability struct {
	meterProvider  *metric.MeterProvider
	tracerProvider *sdktrace.TracerProvider
	jobCounter     otelmetric.Int64Counter
	jobDuration    otelmetric.Float64Histogram
	log            logger.Logger
}

// New installs the global providers. Metrics go to the default Prometheus
// registry; spans go to Jaeger when an endpoint is configured and are
// dropped otherwise.
func New(cfg config.ObservabilityConfig, log logger.Logger) (*Observability, error) {
	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	mp := metric.NewMeterProvider(metric.WithReader(exporter), metric.WithResource(res))
	otel.SetMeterProvider(mp)

	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if cfg.JaegerEndpoint != "" {
		je, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(cfg.JaegerEndpoint)))
		if err != nil {
			return nil, fmt.Errorf("create jaeger exporter: %w", err)
		}
		tpOpts = append(tpOpts, sdktrace.WithBatcher(je))
	}
	tp := sdktrace.NewTracerProvider(tpOpts...)
	otel.SetTracerProvider(tp)

	meter := mp.Meter(cfg.ServiceName)
	jobCounter, err := meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	)
	if err != nil {
		return nil, err
	}
	jobDuration, err := meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	log.Info("Observability initialized", map[string]interface{}{
		"serviceName": cfg.ServiceName,
		"tracing":     cfg.JaegerEndpoint != "",
	})
	return &Observability{
		meterProvider:  mp,
		tracerProvider: tp,
		jobCounter:     jobCounter,
		jobDuration:    jobDuration,
		log:            log,
	}, nil
}

// TracerProvider is handed to the plan executor.
func (o *Observability) TracerProvider() trace.TracerProvider {
	return o.tracerProvider
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("taskType", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, d time.Duration, status string) {
	o.jobDuration.Record(ctx, float64(d.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("taskType", taskType),
		attribute.String("status", status),
	))
}

// Shutdown flushes pending spans and stops both providers.
func (o *Observability) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		o.log.Warn("Tracer provider shutdown failed", map[string]interface{}{"error": err})
	}
	if err := o.meterProvider.Shutdown(ctx); err != nil {
		o.log.Warn("Meter provider shutdown failed", map[string]interface{}{"error": err})
	}
}
