package observe

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Option configures telemetry initialisation.
type Option func(*settings)

type settings struct {
	serviceName    string
	serviceVersion string
	spanExporter   sdktrace.SpanExporter
}

// WithServiceName overrides the service name reported in telemetry.
// Defaults to "fluentia".
func WithServiceName(name string) Option {
	return func(s *settings) {
		s.serviceName = name
	}
}

// WithServiceVersion sets the service version reported in telemetry.
func WithServiceVersion(version string) Option {
	return func(s *settings) {
		s.serviceVersion = version
	}
}

// WithSpanExporter attaches a span exporter (typically OTLP in production).
// Without one, spans are recorded in-process only, which still drives the
// correlation IDs and per-request log fields.
func WithSpanExporter(exp sdktrace.SpanExporter) Option {
	return func(s *settings) {
		s.spanExporter = exp
	}
}

// Init wires the global OpenTelemetry providers: a meter provider backed by
// the Prometheus exporter bridge (scraped via /metrics) and a tracer provider
// with the optional span exporter. The returned function flushes and shuts
// both down; defer it from main.
func Init(ctx context.Context, opts ...Option) (func(context.Context) error, error) {
	s := settings{serviceName: "fluentia"}
	for _, o := range opts {
		o(&s)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(s.serviceName),
			semconv.ServiceVersion(s.serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("observe: build resource: %w", err)
	}

	mp, err := newMeterProvider(res)
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp)

	tp := newTracerProvider(res, s.spanExporter)
	otel.SetTracerProvider(tp)

	return func(ctx context.Context) error {
		return errors.Join(mp.Shutdown(ctx), tp.Shutdown(ctx))
	}, nil
}

func newMeterProvider(res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	bridge, err := promexporter.New()
	if err != nil {
		return nil, fmt.Errorf("observe: prometheus exporter: %w", err)
	}
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(bridge),
	), nil
}

func newTracerProvider(res *resource.Resource, exp sdktrace.SpanExporter) *sdktrace.TracerProvider {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	return sdktrace.NewTracerProvider(opts...)
}
