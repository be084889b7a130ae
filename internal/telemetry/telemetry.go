package telemetry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Config selects where spans and metrics go.
type Config struct {
	// OTLPEndpoint is host:port or a URL of an OTLP/HTTP collector. Empty keeps
	// the global no-op provider.
	OTLPEndpoint string
	ServiceName  string
}

// Shutdown flushes and stops the providers.
type Shutdown func(ctx context.Context) error

// Setup installs global tracer and meter providers exporting over OTLP/HTTP.
func Setup(ctx context.Context, cfg Config) (Shutdown, error) {
	if cfg.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }, nil
	}

	spans, err := otlptrace.New(ctx, otlptracehttp.NewClient(endpointOptions(cfg.OTLPEndpoint)...))
	if err != nil {
		return nil, fmt.Errorf("create otlp span exporter: %w", err)
	}
	metrics, err := otlpmetrichttp.New(ctx, metricEndpointOptions(cfg.OTLPEndpoint)...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	return install(spans, sdkmetric.NewPeriodicReader(metrics), cfg.ServiceName), nil
}

func install(exporter sdktrace.SpanExporter, reader sdkmetric.Reader, serviceName string) Shutdown {
	if serviceName == "" {
		serviceName = "bookbank"
	}
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))

	tracers := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	meters := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tracers)
	otel.SetMeterProvider(meters)

	return func(ctx context.Context) error {
		return errors.Join(tracers.Shutdown(ctx), meters.Shutdown(ctx))
	}
}

func endpointOptions(endpoint string) []otlptracehttp.Option {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint), otlptracehttp.WithInsecure()}
	case strings.HasPrefix(endpoint, "https://"):
		return []otlptracehttp.Option{otlptracehttp.WithEndpointURL(endpoint)}
	default:
		return []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint), otlptracehttp.WithInsecure()}
	}
}

func metricEndpointOptions(endpoint string) []otlpmetrichttp.Option {
	switch {
	case strings.HasPrefix(endpoint, "http://"):
		return []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(endpoint), otlpmetrichttp.WithInsecure()}
	case strings.HasPrefix(endpoint, "https://"):
		return []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(endpoint)}
	default:
		return []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(endpoint), otlpmetrichttp.WithInsecure()}
	}
}
