// Package telemetry wires optional OpenTelemetry tracing and metrics around
// suite runs. Everything here tolerates a nil receiver so the rest of the
// code never branches on whether telemetry is configured.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	oteltrace "go.opentelemetry.io/otel/trace"
)

type Config struct {
	OTLPEndpoint string
	ServiceName  string
	SampleRatio  float64
}

type Telemetry struct {
	Tracer oteltrace.Tracer
	Meter  metric.Meter

	traceProvider *sdktrace.TracerProvider

	samplesCollected metric.Int64Counter
	protocolErrors   metric.Int64Counter
	scenarioDuration metric.Int64Histogram
}

// Setup builds the tracer and meter. Without an OTLP endpoint spans stay
// local and unexported, which costs nothing.
func Setup(ctx context.Context, cfg Config) (*Telemetry, error) {
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "probe-accuracy"
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, fmt.Errorf("build otel resource: %w", err)
	}
	ratio := cfg.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	sampler := sdktrace.TraceIDRatioBased(ratio)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	if cfg.OTLPEndpoint != "" {
		exporter, exportErr := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if exportErr != nil {
			return nil, fmt.Errorf("create otlp trace exporter: %w", exportErr)
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
			sdktrace.WithSampler(sampler),
		)
	} else {
		slog.Debug("otel trace exporter not configured; using local tracer provider")
	}
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	meter := otel.Meter(serviceName)
	tracer := otel.Tracer(serviceName)
	samplesCollected, _ := meter.Int64Counter("probe_samples_total")
	protocolErrors, _ := meter.Int64Counter("probe_protocol_errors_total")
	scenarioDuration, _ := meter.Int64Histogram("probe_scenario_duration_ms")

	return &Telemetry{
		Tracer:           tracer,
		Meter:            meter,
		traceProvider:    tp,
		samplesCollected: samplesCollected,
		protocolErrors:   protocolErrors,
		scenarioDuration: scenarioDuration,
	}, nil
}

func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.traceProvider == nil {
		return nil
	}
	return t.traceProvider.Shutdown(ctx)
}

// StartScenario opens a span for one scenario; the returned func records the
// duration and outcome.
func (t *Telemetry) StartScenario(ctx context.Context, name string) (context.Context, func(error)) {
	if t == nil {
		return ctx, func(error) {}
	}
	start := time.Now()
	ctx, span := t.Tracer.Start(ctx, "scenario."+name)
	return ctx, func(err error) {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		t.scenarioDuration.Record(ctx, time.Since(start).Milliseconds(),
			metric.WithAttributes(attribute.String("scenario", name)))
	}
}

func (t *Telemetry) AddSamples(ctx context.Context, n int) {
	if t == nil {
		return
	}
	t.samplesCollected.Add(ctx, int64(n))
}

func (t *Telemetry) AddProtocolErrors(ctx context.Context, n int) {
	if t == nil || n == 0 {
		return
	}
	t.protocolErrors.Add(ctx, int64(n))
}
