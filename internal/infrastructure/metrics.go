package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Instrument outcome labels
const (
	StatusSuccess = "success"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// BatchMetrics holds the metrics recorded while processing instruments.
// A nil *BatchMetrics records nothing.
type BatchMetrics struct {
	InstrumentsTotal   metric.Int64Counter
	TradesNormalized   metric.Int64Counter
	TradesDropped      metric.Int64Counter
	RowsWritten        metric.Int64Counter
	InstrumentDuration metric.Float64Histogram
}

// NewBatchMetrics creates the batch instruments on meter
func NewBatchMetrics(meter metric.Meter) (*BatchMetrics, error) {
	instrumentsTotal, err := meter.Int64Counter(
		"metaorder_instruments_total",
		metric.WithDescription("Instruments processed, by outcome"),
	)
	if err != nil {
		return nil, err
	}

	tradesNormalized, err := meter.Int64Counter(
		"metaorder_trades_normalized_total",
		metric.WithDescription("Trades retained by the normalizer"),
	)
	if err != nil {
		return nil, err
	}

	tradesDropped, err := meter.Int64Counter(
		"metaorder_trades_dropped_total",
		metric.WithDescription("Trades dropped by the normalizer, by reason"),
	)
	if err != nil {
		return nil, err
	}

	rowsWritten, err := meter.Int64Counter(
		"metaorder_rows_written_total",
		metric.WithDescription("Trader statistic rows written, by side"),
	)
	if err != nil {
		return nil, err
	}

	instrumentDuration, err := meter.Float64Histogram(
		"metaorder_instrument_duration_seconds",
		metric.WithDescription("Wall time spent on one instrument"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &BatchMetrics{
		InstrumentsTotal:   instrumentsTotal,
		TradesNormalized:   tradesNormalized,
		TradesDropped:      tradesDropped,
		RowsWritten:        rowsWritten,
		InstrumentDuration: instrumentDuration,
	}, nil
}

// RecordInstrument records the outcome and duration of one instrument
func (m *BatchMetrics) RecordInstrument(ctx context.Context, status string, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.InstrumentsTotal.Add(ctx, 1, attrs)
	m.InstrumentDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordNormalized records retained and dropped trade counts
func (m *BatchMetrics) RecordNormalized(ctx context.Context, retained, selfTrades int) {
	if m == nil {
		return
	}
	m.TradesNormalized.Add(ctx, int64(retained))
	if selfTrades > 0 {
		m.TradesDropped.Add(ctx, int64(selfTrades),
			metric.WithAttributes(attribute.String("reason", "self_trade")))
	}
}

// RecordRows records rows written for one side
func (m *BatchMetrics) RecordRows(ctx context.Context, side string, rows int) {
	if m == nil {
		return
	}
	m.RowsWritten.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("side", side)))
}
