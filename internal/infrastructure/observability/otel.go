package observability

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
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

const instrumentationName = "github.com/recipify/diversity-guard"

// Metrics holds all application metrics
type Metrics struct {
	AdmissionCount     metric.Int64Counter
	SimilarityScore    metric.Float64Histogram
	StoreOpDuration    metric.Float64Histogram
	GenerationAttempts metric.Int64Histogram
	EmbeddingBatchSize metric.Int64Histogram
	CacheHitCount      metric.Int64Counter
	CacheMissCount     metric.Int64Counter
}

// Setup initializes OpenTelemetry
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

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace provider
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	// Set up metric exporter
	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	// Set up meter provider
	meterProvider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter,
			sdkmetric.WithInterval(15*time.Second),
		)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, err
	}

	// Shutdown function
	shutdown := func(ctx context.Context) error {
		return errors.Join(
			tracerProvider.Shutdown(ctx),
			meterProvider.Shutdown(ctx),
		)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	admissionCount, err := meter.Int64Counter(
		"guard.admission.count",
		metric.WithDescription("Number of admission decisions by outcome"),
	)
	if err != nil {
		return nil, err
	}

	similarityScore, err := meter.Float64Histogram(
		"guard.similarity.max",
		metric.WithDescription("Highest similarity score found per evaluation"),
	)
	if err != nil {
		return nil, err
	}

	storeOpDuration, err := meter.Float64Histogram(
		"store.operation.duration",
		metric.WithDescription("Avoid-list store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	generationAttempts, err := meter.Int64Histogram(
		"generation.attempts",
		metric.WithDescription("Generation attempts consumed per request"),
	)
	if err != nil {
		return nil, err
	}

	embeddingBatchSize, err := meter.Int64Histogram(
		"embedding.batch.size",
		metric.WithDescription("Texts embedded per provider call"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCount, err := meter.Int64Counter(
		"cache.hit.count",
		metric.WithDescription("Number of cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMissCount, err := meter.Int64Counter(
		"cache.miss.count",
		metric.WithDescription("Number of cache misses"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		AdmissionCount:     admissionCount,
		SimilarityScore:    similarityScore,
		StoreOpDuration:    storeOpDuration,
		GenerationAttempts: generationAttempts,
		EmbeddingBatchSize: embeddingBatchSize,
		CacheHitCount:      cacheHitCount,
		CacheMissCount:     cacheMissCount,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}

// RecordAdmission records one admission decision
func RecordAdmission(ctx context.Context, metrics *Metrics, outcome, requestKind string, maxSimilarity float64) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("guard.outcome", outcome),
		attribute.String("guard.request_kind", requestKind),
	}

	metrics.AdmissionCount.Add(ctx, 1, metric.WithAttributes(attrs...))
	metrics.SimilarityScore.Record(ctx, maxSimilarity, metric.WithAttributes(attrs...))
}

// RecordStoreMetric records an avoid-list store operation metric
func RecordStoreMetric(ctx context.Context, metrics *Metrics, operation, backend string, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("store.operation", operation),
		attribute.String("store.backend", backend),
	}
	metrics.StoreOpDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
}

// RecordGenerationAttempts records how many attempts a generation request consumed
func RecordGenerationAttempts(ctx context.Context, metrics *Metrics, attempts int, admitted bool) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.Bool("generation.admitted", admitted),
	}
	metrics.GenerationAttempts.Record(ctx, int64(attempts), metric.WithAttributes(attrs...))
}

// RecordEmbeddingBatch records the size of one embedding provider call
func RecordEmbeddingBatch(ctx context.Context, metrics *Metrics, provider string, size int) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("embedding.provider", provider),
	}
	metrics.EmbeddingBatchSize.Record(ctx, int64(size), metric.WithAttributes(attrs...))
}

// RecordCacheHit records a cache hit
func RecordCacheHit(ctx context.Context, metrics *Metrics, key string) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("cache.key", key),
	}
	metrics.CacheHitCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordCacheMiss records a cache miss
func RecordCacheMiss(ctx context.Context, metrics *Metrics, key string) {
	if metrics == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("cache.key", key),
	}
	metrics.CacheMissCount.Add(ctx, 1, metric.WithAttributes(attrs...))
}
