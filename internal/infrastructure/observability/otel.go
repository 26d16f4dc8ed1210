package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/zatekoja/hospital-booking-core"

// Metrics holds all application metrics. Compensation failures get their
// own counter: they are the one condition that breaks the appointment/
// payment consistency invariant and must never blend into the general
// failure counts.
type Metrics struct {
	RequestCount         metric.Int64Counter
	RequestDuration      metric.Float64Histogram
	BookingAttempts      metric.Int64Counter
	BookingConflicts     metric.Int64Counter
	SettlementFailures   metric.Int64Counter
	CompensationFailures metric.Int64Counter
	SagaDuration         metric.Float64Histogram
}

// Setup initializes OpenTelemetry trace and metric providers
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	shutdown := func(ctx context.Context) error {
		if err := tracerProvider.Shutdown(ctx); err != nil {
			return err
		}
		return meterProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics creates the application metric instruments
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(tracerName)

	requestCount, err := meter.Int64Counter(
		"http.request.count",
		metric.WithDescription("Number of HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	bookingAttempts, err := meter.Int64Counter(
		"booking.attempts",
		metric.WithDescription("Number of booking saga runs"),
	)
	if err != nil {
		return nil, err
	}

	bookingConflicts, err := meter.Int64Counter(
		"booking.conflicts",
		metric.WithDescription("Number of bookings rejected because the slot was taken"),
	)
	if err != nil {
		return nil, err
	}

	settlementFailures, err := meter.Int64Counter(
		"booking.settlement.failures",
		metric.WithDescription("Number of settlements that failed and were compensated"),
	)
	if err != nil {
		return nil, err
	}

	compensationFailures, err := meter.Int64Counter(
		"booking.compensation.failures",
		metric.WithDescription("Number of rollbacks that failed, requiring manual reconciliation"),
	)
	if err != nil {
		return nil, err
	}

	sagaDuration, err := meter.Float64Histogram(
		"booking.saga.duration",
		metric.WithDescription("Booking saga duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCount:         requestCount,
		RequestDuration:      requestDuration,
		BookingAttempts:      bookingAttempts,
		BookingConflicts:     bookingConflicts,
		SettlementFailures:   settlementFailures,
		CompensationFailures: compensationFailures,
		SagaDuration:         sagaDuration,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName)
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordRequestMetric records an HTTP request metric
func RecordRequestMetric(ctx context.Context, metrics *Metrics, method, path string, statusCode int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.route", path),
		attribute.Int("http.status_code", statusCode),
	}

	metrics.RequestCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.RequestDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordSagaOutcome records one booking saga run and its terminal state
func RecordSagaOutcome(ctx context.Context, metrics *Metrics, method string, outcome string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("payment.method", method),
		attribute.String("saga.outcome", outcome),
	}

	metrics.BookingAttempts.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.SagaDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordConflict records a booking rejected because the slot was taken
func RecordConflict(ctx context.Context, metrics *Metrics, providerID string) {
	if metrics == nil {
		return
	}
	metrics.BookingConflicts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider.id", providerID),
	))
}

// RecordSettlementFailure records a settlement failure
func RecordSettlementFailure(ctx context.Context, metrics *Metrics, method string) {
	if metrics == nil {
		return
	}
	metrics.SettlementFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment.method", method),
	))
}

// RecordCompensationFailure records a failed rollback
func RecordCompensationFailure(ctx context.Context, metrics *Metrics, appointmentID string) {
	if metrics == nil {
		return
	}
	metrics.CompensationFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("appointment.id", appointmentID),
	))
}
