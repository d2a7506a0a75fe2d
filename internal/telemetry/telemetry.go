// Package telemetry configures OpenTelemetry tracing for the service.
package telemetry

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Init configures an OTLP trace provider when an endpoint is provided and
// returns a shutdown func plus an HTTP middleware wrapping handlers in
// server spans. Without an endpoint both are no-ops.
func Init(ctx context.Context, serviceName, endpoint string) (func(context.Context) error, func(http.Handler) http.Handler, error) {
	noopMW := func(next http.Handler) http.Handler { return next }
	if endpoint == "" {
		return func(context.Context) error { return nil }, noopMW, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(endpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return nil, nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	mw := func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName)
	}

	return tp.Shutdown, mw, nil
}
