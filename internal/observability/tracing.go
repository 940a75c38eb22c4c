// Package observability provides OpenTelemetry tracing, a Prometheus-
// style metrics registry, and audit logging for the attribute graph and
// the server that hosts it.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TracerName is the tracer name used for all spans in this package.
	TracerName = "github.com/efebarandurmaz/anvil/attrgraph"
)

// TracingConfig configures OpenTelemetry tracing.
type TracingConfig struct {
	// ServiceName is the name of the service (default: "attrgraphd")
	ServiceName string

	// ServiceVersion is the version of the service
	ServiceVersion string

	// Environment is the deployment environment (dev, staging, prod)
	Environment string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317")
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0, default: 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "attrgraphd",
		ServiceVersion: "0.1.0",
		Environment:    "development",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{
			tracer: otel.Tracer(TracerName),
		}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(), // Use TLS in production
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	switch {
	case cfg.SampleRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	case cfg.SampleRate <= 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Shutdown gracefully shuts down the tracer provider.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// SpanKind constants for attribute-graph operations.
const (
	SpanKindTransaction = "transaction"
	SpanKindRecompute   = "recompute"
	SpanKindSinkSync    = "sink_sync"
)

// StartTransactionSpan starts a span covering one graph transaction,
// identified by its observer-notification label.
func StartTransactionSpan(ctx context.Context, note string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, "attrgraph.transaction",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("attrgraph.span.kind", SpanKindTransaction),
			attribute.String("attrgraph.transaction.note", note),
		),
	)
}

// StartRecomputeSpan starts a span covering one rule node's
// re-evaluation.
func StartRecomputeSpan(ctx context.Context, nodeName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, fmt.Sprintf("attrgraph.recompute.%s", nodeName),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("attrgraph.span.kind", SpanKindRecompute),
			attribute.String("attrgraph.node.name", nodeName),
		),
	)
}

// RecordRecomputeResult annotates a recompute span with whether this
// was the node's first evaluation and how many outgoing edges were
// fanned pending as a result.
func RecordRecomputeResult(span trace.Span, initial bool, fannedOut int) {
	span.SetAttributes(
		attribute.Bool("attrgraph.recompute.initial", initial),
		attribute.Int("attrgraph.recompute.fanned_out", fannedOut),
	)
}

// StartSinkSyncSpan starts a span covering one push of a snapshot to an
// external sink (a Neo4j mirror, a Qdrant index, a Temporal archive).
func StartSinkSyncSpan(ctx context.Context, sinkName string, nodeCount, edgeCount int) (context.Context, trace.Span) {
	tracer := otel.Tracer(TracerName)
	return tracer.Start(ctx, fmt.Sprintf("attrgraph.sink.%s", sinkName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("attrgraph.span.kind", SpanKindSinkSync),
			attribute.String("attrgraph.sink.name", sinkName),
			attribute.Int("attrgraph.sink.node_count", nodeCount),
			attribute.Int("attrgraph.sink.edge_count", edgeCount),
		),
	)
}

// RecordSinkLatency records how long a sink sync took.
func RecordSinkLatency(span trace.Span, d time.Duration) {
	span.SetAttributes(attribute.Int64("attrgraph.sink.duration_ms", d.Milliseconds()))
}

// RecordError records an error on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
