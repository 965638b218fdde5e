package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"metaorder/internal/dataprocessing"
	"metaorder/internal/errors"
	"metaorder/internal/exporter"
	"metaorder/internal/infrastructure"
	"metaorder/pkg/contracts/domain"
)

// InstrumentProcessor runs load, compute and export for one instrument
type InstrumentProcessor struct {
	source     TradeSource
	pipeline   *dataprocessing.Pipeline
	exporter   *exporter.StatsExporter
	tracer     *InstrumentTracer
	writeDaily bool
	logger     *slog.Logger
}

// NewInstrumentProcessor wires the stages of an instrument job
func NewInstrumentProcessor(source TradeSource, pipeline *dataprocessing.Pipeline, exp *exporter.StatsExporter,
	tracer *InstrumentTracer, writeDaily bool, logger *slog.Logger) *InstrumentProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer, _ = NewInstrumentTracer(nil)
	}
	return &InstrumentProcessor{
		source:     source,
		pipeline:   pipeline,
		exporter:   exp,
		tracer:     tracer,
		writeDaily: writeDaily,
		logger:     infrastructure.WithComponent(logger, "processor"),
	}
}

// Process handles one instrument. It never returns nil; failures are
// reported in the result. An instrument without usable trades is skipped.
func (p *InstrumentProcessor) Process(ctx context.Context, instrument string) *InstrumentResult {
	start := time.Now()
	ctx, span := p.tracer.TraceInstrument(ctx, instrument)
	defer span.End()

	logger := infrastructure.WithInstrument(p.logger, instrument)
	res := &InstrumentResult{Instrument: instrument}

	err := p.run(ctx, instrument, res)
	res.Duration = time.Since(start)

	switch {
	case err == nil:
		res.Status = StatusSuccess
		logger.InfoContext(ctx, "Instrument processed",
			slog.Int("records", res.Records),
			slog.Int("trades", res.Stats.Retained),
			slog.Int("self_trades", res.Stats.SelfTrades),
			slog.Int("degenerate_days", res.Diagnostics.DegenerateDays),
			slog.Int("buyer_rows", res.Rows(domain.SideBuyer)),
			slog.Int("seller_rows", res.Rows(domain.SideSeller)),
			slog.Duration("duration", res.Duration))
	case errors.IsEmptyInput(err):
		res.Status = StatusSkipped
		res.Err = err
		logger.WarnContext(ctx, "Instrument skipped",
			slog.Int("records", res.Records),
			slog.String("reason", err.Error()))
	default:
		res.Status = StatusFailed
		res.Err = fmt.Errorf("instrument %s: %w", instrument, err)
		logger.ErrorContext(ctx, "Instrument failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", res.Duration))
	}

	p.tracer.RecordCompletion(ctx, span, res)
	return res
}

func (p *InstrumentProcessor) run(ctx context.Context, instrument string, res *InstrumentResult) error {
	var records []domain.RawTradeRecord
	err := p.tracer.TraceStage(ctx, StageLoad, func(ctx context.Context) error {
		var err error
		records, err = p.source.Load(ctx, instrument)
		return err
	})
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	res.Records = len(records)

	var result *dataprocessing.Result
	err = p.tracer.TraceStage(ctx, StageCompute, func(ctx context.Context) error {
		var err error
		result, err = p.pipeline.Run(ctx, records)
		return err
	})
	if err != nil {
		return err
	}
	res.Stats = result.Stats
	res.Diagnostics = result.Diagnostics

	return p.tracer.TraceStage(ctx, StageExport, func(ctx context.Context) error {
		written, err := p.exporter.Export(ctx, instrument, exporter.Tables{
			Buyers:       result.Buyers,
			Sellers:      result.Sellers,
			Daily:        result.Daily,
			IncludeDaily: p.writeDaily,
		})
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}
		res.Written = written
		res.DailyPath = written.DailyPath
		return nil
	})
}
