package testutil

import (
	"fmt"
	"math"
	"time"

	"metaorder/pkg/contracts/domain"
)

var xlEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// XLTime converts t into the vendor's fractional day count. Whole days and
// the intra-day fraction are converted separately to keep microsecond precision.
func XLTime(t time.Time) float64 {
	elapsed := t.Sub(xlEpoch)
	day := 24 * time.Hour
	return float64(elapsed/day) + float64(elapsed%day)/float64(day)
}

// Flag builds a raw flag string. A negative id leaves that tag out.
func Flag(seller, buyer int64) string {
	flag := ""
	if seller >= 0 {
		flag += fmt.Sprintf("[BNPP Seller ID]%d", seller)
	}
	if buyer >= 0 {
		flag += fmt.Sprintf("[BNPP Buyer ID]%d", buyer)
	}
	return flag
}

// RawTrade builds one raw tick. A negative id leaves that tag out.
func RawTrade(ts time.Time, price, volume float64, buyer, seller int64) domain.RawTradeRecord {
	return domain.RawTradeRecord{
		XLTime:     XLTime(ts),
		Price:      price,
		Volume:     volume,
		RawFlag:    Flag(seller, buyer),
		StringFlag: "",
	}
}

// At returns a UTC timestamp on the given day
func At(year int, month time.Month, day, hour, minute, second int) time.Time {
	return time.Date(year, month, day, hour, minute, second, 0, time.UTC)
}

// ThreeTradeDay is a single-day scenario: buyer 1 trades at 10:00 and 12:00,
// buyer 2 once at 11:00, seller 9 on every trade.
func ThreeTradeDay() []domain.RawTradeRecord {
	return []domain.RawTradeRecord{
		RawTrade(At(2023, time.March, 1, 10, 0, 0), 100, 10, 1, 9),
		RawTrade(At(2023, time.March, 1, 11, 0, 0), 102, 20, 2, 9),
		RawTrade(At(2023, time.March, 1, 12, 0, 0), 101, 5, 1, 9),
	}
}

// RandomWalk generates n trades per day over days consecutive days, with ids
// drawn from a small pool so that groups span several trades. The sequence
// is deterministic for a given seed.
func RandomWalk(seed int64, days, n int) []domain.RawTradeRecord {
	state := uint64(seed)*6364136223846793005 + 1442695040888963407
	next := func() float64 {
		state = state*6364136223846793005 + 1442695040888963407
		return float64(state>>11) / float64(1<<53)
	}

	price := 100.0
	records := make([]domain.RawTradeRecord, 0, days*n)
	for d := 0; d < days; d++ {
		open := At(2023, time.March, 1+d, 8, 0, 0)
		for i := 0; i < n; i++ {
			price *= math.Exp((next() - 0.5) * 0.01)
			ts := open.Add(time.Duration(i) * time.Minute)
			buyer := int64(next() * 5)
			seller := int64(next() * 5)
			records = append(records, RawTrade(ts, price, 1+math.Floor(next()*20), buyer, seller))
		}
	}
	return records
}

// NullableTrade is a raw tick as dataframe exports write it, with every
// column optional
type NullableTrade struct {
	XLTime     *float64 `parquet:"xltime,optional"`
	Price      *float64 `parquet:"trade-price,optional"`
	Volume     *float64 `parquet:"trade-volume,optional"`
	RawFlag    *string  `parquet:"trade-rawflag,optional"`
	StringFlag *string  `parquet:"trade-stringflag,optional"`
}

// Nullable converts records for writing, turning NaN into null
func Nullable(records []domain.RawTradeRecord) []NullableTrade {
	optional := func(v float64) *float64 {
		if math.IsNaN(v) {
			return nil
		}
		return &v
	}
	out := make([]NullableTrade, len(records))
	for i, r := range records {
		flag := r.RawFlag
		out[i] = NullableTrade{
			XLTime:  optional(r.XLTime),
			Price:   optional(r.Price),
			Volume:  optional(r.Volume),
			RawFlag: &flag,
		}
	}
	return out
}
