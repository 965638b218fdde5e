// Package dataprocessing turns raw tick records into per-trader daily
// statistics. It is pure and synchronous: every stage takes a slice and
// returns a new one, and nothing here touches the file system.
//
// # Stages
//
//  1. Normalize: decode the fractional-day timestamps, extract buyer and
//     seller ids from the flag string, drop self-trades.
//  2. Day aggregation: total volume and log-return volatility per day
//     (DailyVolume, DailyVolatility, DayAggregates).
//  3. Trader statistics: group each side's trades into daily metaorders and
//     derive volume share, price impact, duration and day volatility
//     (JoinDayAggregates, Metaorders, TraderStats).
//
// Pipeline runs all three for one instrument:
//
//	p := dataprocessing.NewPipeline(domain.MethodologySession, logger)
//	result, err := p.Run(ctx, records)
//	if errors.IsEmptyInput(err) {
//	    // skip the instrument
//	}
//
// # Methodology
//
// MethodologySession takes returns across day boundaries and reports the
// raw absolute price change. MethodologyNormalized resets returns every day
// and divides the price change by the day's volatility.
package dataprocessing
