package dataprocessing

import (
	"math"
	"sort"
	"time"

	"metaorder/pkg/contracts/domain"
)

// DayVolume is the total traded volume of one day
type DayVolume struct {
	Day    time.Time
	Volume float64
}

// DayVolatility is the sample standard deviation of one day's log returns.
// Valid is false when the day has fewer than two returns or zero variance.
type DayVolatility struct {
	Day     time.Time
	Std     float64
	Valid   bool
	Returns int
}

// DailyVolume sums volume per day. Days are returned in ascending order.
func DailyVolume(trades []domain.CanonicalTrade) []DayVolume {
	totals := make(map[time.Time]float64)
	for _, t := range trades {
		totals[t.Day] += t.Volume
	}

	days := distinctDays(trades)
	out := make([]DayVolume, len(days))
	for i, d := range days {
		out[i] = DayVolume{Day: d, Volume: totals[d]}
	}
	return out
}

// DailyVolatility computes per-day realized volatility from log returns
// ln(p_t/p_{t-1}) over trades in timestamp order. With MethodologySession the
// previous trade may belong to the previous day; with MethodologyNormalized
// returns never cross a day boundary. Non-finite returns are skipped.
func DailyVolatility(trades []domain.CanonicalTrade, methodology domain.Methodology) []DayVolatility {
	returns := make(map[time.Time][]float64)

	ordered := chronological(trades)
	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]
		if methodology.ResetsAtDayBoundary() && !prev.Day.Equal(cur.Day) {
			continue
		}
		r := math.Log(cur.Price / prev.Price)
		if math.IsNaN(r) || math.IsInf(r, 0) {
			continue
		}
		returns[cur.Day] = append(returns[cur.Day], r)
	}

	days := distinctDays(trades)
	out := make([]DayVolatility, len(days))
	for i, d := range days {
		std, ok := nonDegenerateStd(returns[d])
		out[i] = DayVolatility{Day: d, Std: std, Valid: ok, Returns: len(returns[d])}
	}
	return out
}

// DayAggregates joins daily volume and volatility. Every day of trades is
// present; days with undefined volatility have StdValid set to false.
func DayAggregates(trades []domain.CanonicalTrade, methodology domain.Methodology) []domain.DayAggregate {
	return joinDaily(DailyVolume(trades), DailyVolatility(trades, methodology))
}

func joinDaily(volumes []DayVolume, vols []DayVolatility) []domain.DayAggregate {
	byDay := make(map[time.Time]DayVolatility, len(vols))
	for _, v := range vols {
		byDay[v.Day] = v
	}

	out := make([]domain.DayAggregate, 0, len(volumes))
	for _, v := range volumes {
		vol, ok := byDay[v.Day]
		if !ok {
			continue
		}
		out = append(out, domain.DayAggregate{
			Day:       v.Day,
			DayVolume: v.Volume,
			DayStd:    vol.Std,
			StdValid:  vol.Valid,
		})
	}
	return out
}

// DailySummaries returns one overview row per day: trade count, volume,
// return volatility and the sample standard deviation of prices.
func DailySummaries(trades []domain.CanonicalTrade, methodology domain.Methodology) []domain.DailySummary {
	return summarize(trades, DayAggregates(trades, methodology))
}

func summarize(trades []domain.CanonicalTrade, aggs []domain.DayAggregate) []domain.DailySummary {
	counts := make(map[time.Time]int64)
	prices := make(map[time.Time][]float64)
	for _, t := range trades {
		counts[t.Day]++
		prices[t.Day] = append(prices[t.Day], t.Price)
	}

	out := make([]domain.DailySummary, len(aggs))
	for i, a := range aggs {
		s := domain.DailySummary{
			Day:        a.Day,
			TradeCount: counts[a.Day],
			DayVolume:  a.DayVolume,
		}
		if a.StdValid {
			std := a.DayStd
			s.DayStd = &std
		}
		if std, ok := sampleStd(prices[a.Day]); ok {
			s.DayPriceStd = &std
		}
		out[i] = s
	}
	return out
}

// chronological returns a copy of trades stably sorted by timestamp
func chronological(trades []domain.CanonicalTrade) []domain.CanonicalTrade {
	ordered := make([]domain.CanonicalTrade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})
	return ordered
}

func distinctDays(trades []domain.CanonicalTrade) []time.Time {
	seen := make(map[time.Time]struct{})
	days := make([]time.Time, 0)
	for _, t := range trades {
		if _, ok := seen[t.Day]; ok {
			continue
		}
		seen[t.Day] = struct{}{}
		days = append(days, t.Day)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// sampleStd is the n-1 standard deviation; undefined below two values
func sampleStd(xs []float64) (float64, bool) {
	n := len(xs)
	if n < 2 {
		return 0, false
	}

	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / float64(n)

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1)), true
}

// nonDegenerateStd is sampleStd that also treats constant input as undefined
func nonDegenerateStd(xs []float64) (float64, bool) {
	if len(xs) < 2 {
		return 0, false
	}
	constant := true
	for _, x := range xs[1:] {
		if x != xs[0] {
			constant = false
			break
		}
	}
	if constant {
		return 0, false
	}
	return sampleStd(xs)
}
