package dataprocessing

import (
	"math"
	"regexp"
	"strconv"
	"sync"
	"time"

	"metaorder/internal/errors"
	"metaorder/pkg/contracts/domain"
)

// Flag tags carrying the counterparty identifiers
const (
	SellerTag = "BNPP Seller ID"
	BuyerTag  = "BNPP Buyer ID"
)

// xlEpoch is day zero of the vendor's fractional day count
var xlEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

var (
	tagPatternsMu sync.RWMutex
	tagPatterns   = map[string]*regexp.Regexp{
		SellerTag: regexp.MustCompile(`\[BNPP Seller ID\](\d+)`),
		BuyerTag:  regexp.MustCompile(`\[BNPP Buyer ID\](\d+)`),
	}
)

// NormalizeStats counts what the normalizer saw and discarded
type NormalizeStats struct {
	Input         int
	Retained      int
	MissingBuyer  int // rows without a parseable buyer tag
	MissingSeller int // rows without a parseable seller tag
	SelfTrades    int
	InvalidTime   int // missing or non-positive day count
	InvalidPrice  int // missing or non-positive price
	InvalidVolume int // missing or negative volume
}

// Discarded returns the number of rows dropped for any reason
func (s NormalizeStats) Discarded() int {
	return s.SelfTrades + s.InvalidTime + s.InvalidPrice + s.InvalidVolume
}

// XLTimeToTime converts a fractional day count since 1899-12-30 into UTC,
// rounded to the microsecond.
func XLTimeToTime(x float64) time.Time {
	whole := math.Floor(x)
	micros := math.Round((x - whole) * float64(24*time.Hour/time.Microsecond))
	return xlEpoch.
		Add(time.Duration(whole) * 24 * time.Hour).
		Add(time.Duration(micros) * time.Microsecond)
}

// ExtractTraderID returns the digits following "[tag]" in flag. The first
// match wins; a missing tag or an id that does not fit int64 is absent.
func ExtractTraderID(flag, tag string) domain.TraderID {
	m := tagPattern(tag).FindStringSubmatch(flag)
	if m == nil {
		return domain.TraderID{}
	}
	v, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return domain.TraderID{}
	}
	return domain.NewTraderID(v)
}

func tagPattern(tag string) *regexp.Regexp {
	tagPatternsMu.RLock()
	re, ok := tagPatterns[tag]
	tagPatternsMu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(`\[` + regexp.QuoteMeta(tag) + `\](\d+)`)
	tagPatternsMu.Lock()
	tagPatterns[tag] = re
	tagPatternsMu.Unlock()
	return re
}

// TruncateDay returns midnight UTC of t's calendar date
func TruncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Normalize decodes timestamps and counterparties and drops self-trades.
// Trades where both ids are absent count as self-trades. Rows with a missing
// time, price or volume (NaN, as loaded from nulls) are dropped as well.
// Output preserves input order. An empty input, or one where nothing survives, is an
// EMPTY_INPUT error.
func Normalize(records []domain.RawTradeRecord) ([]domain.CanonicalTrade, NormalizeStats, error) {
	stats := NormalizeStats{Input: len(records)}
	if len(records) == 0 {
		return nil, stats, errors.NewEmptyInputError("no trade records")
	}

	trades := make([]domain.CanonicalTrade, 0, len(records))
	for _, r := range records {
		switch {
		case !isFinite(r.XLTime) || r.XLTime <= 0:
			stats.InvalidTime++
			continue
		case !isFinite(r.Price) || r.Price <= 0:
			stats.InvalidPrice++
			continue
		case !isFinite(r.Volume) || r.Volume < 0:
			stats.InvalidVolume++
			continue
		}

		seller := ExtractTraderID(r.RawFlag, SellerTag)
		buyer := ExtractTraderID(r.RawFlag, BuyerTag)
		if !seller.Valid {
			stats.MissingSeller++
		}
		if !buyer.Valid {
			stats.MissingBuyer++
		}

		ts := XLTimeToTime(r.XLTime)
		trade := domain.CanonicalTrade{
			Timestamp: ts,
			Day:       TruncateDay(ts),
			Price:     r.Price,
			Volume:    r.Volume,
			BuyerID:   buyer,
			SellerID:  seller,
		}
		if trade.IsSelfTrade() {
			stats.SelfTrades++
			continue
		}
		trades = append(trades, trade)
	}

	stats.Retained = len(trades)
	if len(trades) == 0 {
		return nil, stats, errors.NewEmptyInputError("all trades filtered").
			WithContext("self_trades", stats.SelfTrades).
			WithContext("invalid_rows", stats.InvalidTime+stats.InvalidPrice+stats.InvalidVolume)
	}
	return trades, stats, nil
}
