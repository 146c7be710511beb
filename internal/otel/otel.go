package otel

import (
	"context"
	"sync"

	eventbus "github.com/gqlpipe/gqlpipe/internal/eventbus"
	events "github.com/gqlpipe/gqlpipe/internal/events"
	reqid "github.com/gqlpipe/gqlpipe/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithInsecure()))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	sub := &subscriber{tracer: otel.Tracer("gqlpipe")}
	sub.register()

	return tp.Shutdown, nil
}

type subscriber struct {
	tracer     trace.Tracer
	chainSpans sync.Map // rid -> trace.Span
	httpSpans  sync.Map // rid -> trace.Span
}

func (s *subscriber) register() {
	eventbus.Subscribe(func(ctx context.Context, e events.ChainKickOff) {
		rid, _ := reqid.FromContext(ctx)
		_, span := s.tracer.Start(ctx, "chain.request")
		span.SetAttributes(attribute.String("graphql.operation.name", e.Operation))
		s.chainSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ChainProceed) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.chainSpans.Load(rid); ok {
			v.(trace.Span).AddEvent("interceptor.dispatch",
				trace.WithAttributes(attribute.Int("chain.index", e.Index)))
		}
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ChainRetry) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.chainSpans.Load(rid); ok {
			v.(trace.Span).AddEvent("chain.retry")
		}
	})

	eventbus.Subscribe(func(ctx context.Context, e events.ChainDeliver) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.chainSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.HTTPRequestStart) {
		rid, _ := reqid.FromContext(ctx)
		parent := ctx
		if v, ok := s.chainSpans.Load(rid); ok {
			parent = trace.ContextWithSpan(ctx, v.(trace.Span))
		}
		_, span := s.tracer.Start(parent, "http.client")
		span.SetAttributes(
			attribute.String("http.url", e.Endpoint),
			attribute.String("graphql.operation.name", e.Operation),
		)
		s.httpSpans.Store(rid, span)
	})

	eventbus.Subscribe(func(ctx context.Context, e events.HTTPRequestFinish) {
		rid, _ := reqid.FromContext(ctx)
		v, ok := s.httpSpans.LoadAndDelete(rid)
		if !ok {
			return
		}
		span := v.(trace.Span)
		span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
		if e.Err != nil {
			span.RecordError(e.Err)
		}
		span.End()
	})

	eventbus.Subscribe(func(ctx context.Context, e events.CacheHit) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.chainSpans.Load(rid); ok {
			v.(trace.Span).AddEvent("cache.hit", trace.WithAttributes(attribute.String("cache.key", e.Key)))
		}
	})

	eventbus.Subscribe(func(ctx context.Context, e events.CacheMiss) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.chainSpans.Load(rid); ok {
			v.(trace.Span).AddEvent("cache.miss", trace.WithAttributes(attribute.String("cache.key", e.Key)))
		}
	})

	eventbus.Subscribe(func(ctx context.Context, e events.CacheWrite) {
		rid, _ := reqid.FromContext(ctx)
		if v, ok := s.chainSpans.Load(rid); ok {
			v.(trace.Span).AddEvent("cache.write", trace.WithAttributes(attribute.String("cache.key", e.Key)))
		}
	})
}
