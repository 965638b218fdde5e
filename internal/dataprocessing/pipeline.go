package dataprocessing

import (
	"context"
	"log/slog"

	"metaorder/pkg/contracts/domain"
)

// Diagnostics counts soft failures observed while computing one instrument
type Diagnostics struct {
	Days           int
	DegenerateDays int // days without a defined volatility
	UnjoinedTrades int // trades dropped with their degenerate day
	Metaorders     map[domain.Side]int
	NonFiniteRows  map[domain.Side]int
}

// Result holds both trader tables and the per-day overview of one instrument
type Result struct {
	Buyers      []domain.TraderStatRow
	Sellers     []domain.TraderStatRow
	Daily       []domain.DailySummary
	Stats       NormalizeStats
	Diagnostics Diagnostics
}

// Rows returns the table of a side
func (r *Result) Rows(side domain.Side) []domain.TraderStatRow {
	if side == domain.SideSeller {
		return r.Sellers
	}
	return r.Buyers
}

// Pipeline chains normalization, day aggregation and the trader statistics
// for both sides. It holds no state between runs.
type Pipeline struct {
	logger      *slog.Logger
	methodology domain.Methodology
}

// NewPipeline creates a pipeline for the given methodology
func NewPipeline(methodology domain.Methodology, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if methodology == "" {
		methodology = domain.MethodologySession
	}
	return &Pipeline{
		logger:      logger.With("component", "pipeline"),
		methodology: methodology,
	}
}

// Methodology returns the methodology the pipeline computes with
func (p *Pipeline) Methodology() domain.Methodology {
	return p.methodology
}

// Run computes the buyer and seller tables for one instrument's records.
// Cancellation is checked between stages.
func (p *Pipeline) Run(ctx context.Context, records []domain.RawTradeRecord) (*Result, error) {
	trades, stats, err := Normalize(records)
	if err != nil {
		return nil, err
	}
	p.logger.DebugContext(ctx, "Normalized trades",
		slog.Int("input", stats.Input),
		slog.Int("retained", stats.Retained),
		slog.Int("self_trades", stats.SelfTrades),
		slog.Int("missing_buyer", stats.MissingBuyer),
		slog.Int("missing_seller", stats.MissingSeller),
		slog.Int("invalid_time", stats.InvalidTime),
		slog.Int("invalid_price", stats.InvalidPrice),
		slog.Int("invalid_volume", stats.InvalidVolume))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	aggs := joinDaily(DailyVolume(trades), DailyVolatility(trades, p.methodology))
	diag := Diagnostics{
		Days:          len(aggs),
		Metaorders:    make(map[domain.Side]int, len(domain.Sides)),
		NonFiniteRows: make(map[domain.Side]int, len(domain.Sides)),
	}
	for _, a := range aggs {
		if !a.StdValid {
			diag.DegenerateDays++
		}
	}

	joined := JoinDayAggregates(trades, aggs)
	diag.UnjoinedTrades = len(trades) - len(joined)
	p.logger.DebugContext(ctx, "Aggregated days",
		slog.Int("days", diag.Days),
		slog.Int("degenerate_days", diag.DegenerateDays),
		slog.Int("joined_trades", len(joined)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result := &Result{
		Daily: summarize(trades, aggs),
		Stats: stats,
	}
	for _, side := range domain.Sides {
		metaorders := Metaorders(joined, side)
		rows, dropped := traderStats(metaorders, p.methodology)
		diag.Metaorders[side] = len(metaorders)
		diag.NonFiniteRows[side] = dropped
		if side == domain.SideSeller {
			result.Sellers = rows
		} else {
			result.Buyers = rows
		}
		p.logger.DebugContext(ctx, "Computed trader statistics",
			slog.String("side", string(side)),
			slog.Int("metaorders", len(metaorders)),
			slog.Int("rows", len(rows)),
			slog.Int("non_finite", dropped))
	}
	result.Diagnostics = diag

	return result, nil
}
