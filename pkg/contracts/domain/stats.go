package domain

import (
	"fmt"
	"time"
)

// Methodology binds the volatility and price impact definitions together so
// the two can never be mixed within one run.
type Methodology string

const (
	// MethodologySession takes log returns across day boundaries in strict
	// chronological order and reports raw absolute price impact.
	MethodologySession Methodology = "session"
	// MethodologyNormalized resets log returns at each day boundary and divides
	// price impact by the day's volatility.
	MethodologyNormalized Methodology = "normalized"
)

// ParseMethodology converts a config string into a Methodology
func ParseMethodology(s string) (Methodology, error) {
	switch Methodology(s) {
	case MethodologySession, MethodologyNormalized:
		return Methodology(s), nil
	case "":
		return MethodologySession, nil
	default:
		return "", fmt.Errorf("unknown methodology %q", s)
	}
}

// ResetsAtDayBoundary reports whether log returns are computed per day only
func (m Methodology) ResetsAtDayBoundary() bool {
	return m == MethodologyNormalized
}

// NormalizesImpact reports whether price impact is divided by day volatility
func (m Methodology) NormalizesImpact() bool {
	return m == MethodologyNormalized
}

// DayAggregate holds the day-level aggregates used to scale trader statistics
type DayAggregate struct {
	Day       time.Time
	DayVolume float64
	DayStd    float64
	StdValid  bool // false for days with fewer than two returns or zero variance
}

// JoinedTrade is a canonical trade carrying its day's aggregates
type JoinedTrade struct {
	CanonicalTrade
	DayVolume float64
	DayStd    float64
}

// Metaorder is the activity of one trader on one side during one day
type Metaorder struct {
	Day         time.Time
	TraderID    int64
	StartPrice  float64
	EndPrice    float64
	TotalVolume float64
	Start       time.Time
	End         time.Time
	Duration    float64 // seconds between first and last trade
	PriceImpact float64 // |EndPrice - StartPrice|
	TradeCount  int
	DayVolume   float64
	DayStd      float64
}

// TraderStatRow is one output row of the buyer or seller table.
// Grouping keys are not persisted.
type TraderStatRow struct {
	VolumePct         float64 `parquet:"volume_pct"`
	PriceImpactPct    float64 `parquet:"price_impact_pct"`
	MetaorderDuration float64 `parquet:"metaorder_duration"`
	DayStd            float64 `parquet:"day_std"`
}

// TraderStatColumns is the column order used by flat-file writers
var TraderStatColumns = []string{"volume_pct", "price_impact_pct", "metaorder_duration", "day_std"}

// DailySummary is the per-day overview of an instrument
type DailySummary struct {
	Day         time.Time `parquet:"day"`
	TradeCount  int64     `parquet:"trade_count"`
	DayVolume   float64   `parquet:"day_volume"`
	DayStd      *float64  `parquet:"day_std,optional"`
	DayPriceStd *float64  `parquet:"day_price_std,optional"`
}
