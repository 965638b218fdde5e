package dataprocessing

import (
	"math"
	"sort"
	"time"

	"metaorder/pkg/contracts/domain"
)

// JoinDayAggregates attaches day volume and volatility to each trade.
// Trades whose day is missing from aggs or has no defined volatility are
// dropped. Input order is preserved.
func JoinDayAggregates(trades []domain.CanonicalTrade, aggs []domain.DayAggregate) []domain.JoinedTrade {
	byDay := make(map[time.Time]domain.DayAggregate, len(aggs))
	for _, a := range aggs {
		byDay[a.Day] = a
	}

	joined := make([]domain.JoinedTrade, 0, len(trades))
	for _, t := range trades {
		a, ok := byDay[t.Day]
		if !ok || !a.StdValid {
			continue
		}
		joined = append(joined, domain.JoinedTrade{
			CanonicalTrade: t,
			DayVolume:      a.DayVolume,
			DayStd:         a.DayStd,
		})
	}
	return joined
}

type groupKey struct {
	day    time.Time
	trader int64
}

// Metaorders groups joined trades by day and the side's trader id. Trades
// without an id on that side are ignored. Within a group the first and last
// trades by timestamp (ties in input order) give the start and end prices.
// The result is sorted by day, then trader id.
func Metaorders(joined []domain.JoinedTrade, side domain.Side) []domain.Metaorder {
	groups := make(map[groupKey][]domain.JoinedTrade)
	keys := make([]groupKey, 0)
	for _, t := range joined {
		id := t.TraderFor(side)
		if !id.Valid {
			continue
		}
		k := groupKey{day: t.Day, trader: id.Value}
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], t)
	}

	sort.Slice(keys, func(i, j int) bool {
		if !keys[i].day.Equal(keys[j].day) {
			return keys[i].day.Before(keys[j].day)
		}
		return keys[i].trader < keys[j].trader
	})

	out := make([]domain.Metaorder, 0, len(keys))
	for _, k := range keys {
		out = append(out, buildMetaorder(k, groups[k]))
	}
	return out
}

func buildMetaorder(k groupKey, members []domain.JoinedTrade) domain.Metaorder {
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Timestamp.Before(members[j].Timestamp)
	})

	first, last := members[0], members[len(members)-1]
	var volume float64
	for _, m := range members {
		volume += m.Volume
	}

	return domain.Metaorder{
		Day:         k.day,
		TraderID:    k.trader,
		StartPrice:  first.Price,
		EndPrice:    last.Price,
		TotalVolume: volume,
		Start:       first.Timestamp,
		End:         last.Timestamp,
		Duration:    last.Timestamp.Sub(first.Timestamp).Seconds(),
		PriceImpact: math.Abs(last.Price - first.Price),
		TradeCount:  len(members),
		DayVolume:   first.DayVolume,
		DayStd:      first.DayStd,
	}
}

// TraderStats derives the output rows for one side. Rows with a NaN or
// infinite field are dropped.
func TraderStats(joined []domain.JoinedTrade, side domain.Side, methodology domain.Methodology) []domain.TraderStatRow {
	rows, _ := traderStats(Metaorders(joined, side), methodology)
	return rows
}

// traderStats also returns how many rows were dropped as non-finite
func traderStats(metaorders []domain.Metaorder, methodology domain.Methodology) ([]domain.TraderStatRow, int) {
	rows := make([]domain.TraderStatRow, 0, len(metaorders))
	dropped := 0
	for _, m := range metaorders {
		impact := m.PriceImpact
		if methodology.NormalizesImpact() {
			impact = m.PriceImpact / m.DayStd
		}
		row := domain.TraderStatRow{
			VolumePct:         m.TotalVolume / m.DayVolume,
			PriceImpactPct:    impact,
			MetaorderDuration: m.Duration,
			DayStd:            m.DayStd,
		}
		if !isFinite(row.VolumePct, row.PriceImpactPct, row.MetaorderDuration, row.DayStd) {
			dropped++
			continue
		}
		rows = append(rows, row)
	}
	return rows, dropped
}

func isFinite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
