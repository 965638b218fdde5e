package operations

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"metaorder/internal/infrastructure"
	"metaorder/pkg/contracts/domain"
)

const (
	SpanInstrument = "instrument.process"
)

// InstrumentTracer provides OpenTelemetry instrumentation for instrument jobs
type InstrumentTracer struct {
	tracer  trace.Tracer
	metrics *infrastructure.BatchMetrics
}

// NewInstrumentTracer creates a tracer from the batch providers. A nil
// providers value gives a tracer that records nothing.
func NewInstrumentTracer(providers *infrastructure.OTelProviders) (*InstrumentTracer, error) {
	if providers == nil {
		return &InstrumentTracer{tracer: tracenoop.NewTracerProvider().Tracer(infrastructure.MeterName)}, nil
	}

	metrics, err := infrastructure.NewBatchMetrics(providers.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch metrics: %w", err)
	}

	return &InstrumentTracer{
		tracer:  providers.Tracer,
		metrics: metrics,
	}, nil
}

// TraceInstrument starts the span covering one instrument job
func (it *InstrumentTracer) TraceInstrument(ctx context.Context, instrument string) (context.Context, trace.Span) {
	return it.tracer.Start(ctx, SpanInstrument,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("instrument", instrument),
			attribute.String("trace_id", infrastructure.GetTraceID(ctx)),
		),
	)
}

// TraceStage runs fn inside a child span named after the stage
func (it *InstrumentTracer) TraceStage(ctx context.Context, stage string, fn func(context.Context) error) error {
	ctx, span := it.tracer.Start(ctx, "instrument."+stage, trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	span.SetAttributes(attribute.Float64("stage.duration_seconds", time.Since(start).Seconds()))
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// RecordCompletion sets the outcome on the instrument span and records the
// batch metrics for it
func (it *InstrumentTracer) RecordCompletion(ctx context.Context, span trace.Span, res *InstrumentResult) {
	span.SetAttributes(
		attribute.String("instrument.status", string(res.Status)),
		attribute.Int("instrument.records", res.Records),
		attribute.Int("instrument.trades", res.Stats.Retained),
		attribute.Int("instrument.buyer_rows", res.Rows(domain.SideBuyer)),
		attribute.Int("instrument.seller_rows", res.Rows(domain.SideSeller)),
		attribute.Float64("instrument.duration_seconds", res.Duration.Seconds()),
	)

	switch res.Status {
	case StatusFailed:
		if res.Err != nil {
			span.RecordError(res.Err)
		}
		span.SetStatus(codes.Error, res.ErrorMessage())
	default:
		span.SetStatus(codes.Ok, string(res.Status))
	}

	it.metrics.RecordInstrument(ctx, string(res.Status), res.Duration)
	if res.Stats.Input > 0 {
		it.metrics.RecordNormalized(ctx, res.Stats.Retained, res.Stats.SelfTrades)
	}
	if res.Written != nil {
		for _, side := range domain.Sides {
			it.metrics.RecordRows(ctx, string(side), res.Written.Rows[side])
		}
	}
}
