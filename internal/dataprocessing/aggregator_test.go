package dataprocessing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaorder/internal/shared/testutil"
	"metaorder/pkg/contracts/domain"
)

var (
	day1 = testutil.At(2023, time.March, 1, 0, 0, 0)
	day2 = testutil.At(2023, time.March, 2, 0, 0, 0)
)

func trade(ts time.Time, price, volume float64, buyer, seller int64) domain.CanonicalTrade {
	t := domain.CanonicalTrade{
		Timestamp: ts,
		Day:       TruncateDay(ts),
		Price:     price,
		Volume:    volume,
	}
	if buyer >= 0 {
		t.BuyerID = domain.NewTraderID(buyer)
	}
	if seller >= 0 {
		t.SellerID = domain.NewTraderID(seller)
	}
	return t
}

// twoDays has day 1 prices 100, 110, 99 and day 2 prices 100, 105, 110
func twoDays() []domain.CanonicalTrade {
	return []domain.CanonicalTrade{
		trade(day1.Add(10*time.Hour), 100, 1, 1, 2),
		trade(day1.Add(11*time.Hour), 110, 2, 1, 2),
		trade(day1.Add(12*time.Hour), 99, 3, 2, 1),
		trade(day2.Add(10*time.Hour), 100, 4, 1, 2),
		trade(day2.Add(11*time.Hour), 105, 5, 1, 2),
		trade(day2.Add(12*time.Hour), 110, 6, 3, 1),
	}
}

func stdOf(xs ...float64) float64 {
	mean := 0.0
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	ss := 0.0
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)-1))
}

func TestDailyVolume(t *testing.T) {
	trades := twoDays()
	// shuffled input still yields ascending days
	trades[0], trades[5] = trades[5], trades[0]

	volumes := DailyVolume(trades)
	require.Len(t, volumes, 2)
	assert.True(t, day1.Equal(volumes[0].Day))
	assert.Equal(t, 6.0, volumes[0].Volume)
	assert.True(t, day2.Equal(volumes[1].Day))
	assert.Equal(t, 15.0, volumes[1].Volume)
}

func TestDailyVolatility_Session(t *testing.T) {
	vols := DailyVolatility(twoDays(), domain.MethodologySession)
	require.Len(t, vols, 2)

	assert.True(t, vols[0].Valid)
	assert.Equal(t, 2, vols[0].Returns)
	assert.InDelta(t, stdOf(math.Log(110.0/100), math.Log(99.0/110)), vols[0].Std, 1e-12)

	// the first return of day 2 is taken against the last trade of day 1
	assert.True(t, vols[1].Valid)
	assert.Equal(t, 3, vols[1].Returns)
	assert.InDelta(t, stdOf(math.Log(100.0/99), math.Log(105.0/100), math.Log(110.0/105)), vols[1].Std, 1e-12)
}

func TestDailyVolatility_Normalized(t *testing.T) {
	vols := DailyVolatility(twoDays(), domain.MethodologyNormalized)
	require.Len(t, vols, 2)

	assert.InDelta(t, stdOf(math.Log(110.0/100), math.Log(99.0/110)), vols[0].Std, 1e-12)
	assert.Equal(t, 2, vols[1].Returns)
	assert.InDelta(t, stdOf(math.Log(105.0/100), math.Log(110.0/105)), vols[1].Std, 1e-12)
}

func TestDailyVolatility_UsesTimestampOrder(t *testing.T) {
	trades := twoDays()
	reversed := make([]domain.CanonicalTrade, len(trades))
	for i := range trades {
		reversed[len(trades)-1-i] = trades[i]
	}

	assert.Equal(t,
		DailyVolatility(trades, domain.MethodologySession),
		DailyVolatility(reversed, domain.MethodologySession))
}

func TestDailyVolatility_DegenerateDays(t *testing.T) {
	tests := []struct {
		name        string
		trades      []domain.CanonicalTrade
		methodology domain.Methodology
	}{
		{
			name:        "single trade day",
			trades:      []domain.CanonicalTrade{trade(day1.Add(time.Hour), 100, 1, 1, 2)},
			methodology: domain.MethodologySession,
		},
		{
			name: "one return only",
			trades: []domain.CanonicalTrade{
				trade(day1.Add(time.Hour), 100, 1, 1, 2),
				trade(day1.Add(2*time.Hour), 101, 1, 1, 2),
			},
			methodology: domain.MethodologyNormalized,
		},
		{
			name: "constant price",
			trades: []domain.CanonicalTrade{
				trade(day1.Add(time.Hour), 100, 1, 1, 2),
				trade(day1.Add(2*time.Hour), 100, 1, 1, 2),
				trade(day1.Add(3*time.Hour), 100, 1, 1, 2),
			},
			methodology: domain.MethodologySession,
		},
		{
			name: "non-positive price skipped",
			trades: []domain.CanonicalTrade{
				trade(day1.Add(time.Hour), 100, 1, 1, 2),
				trade(day1.Add(2*time.Hour), 0, 1, 1, 2),
				trade(day1.Add(3*time.Hour), 101, 1, 1, 2),
			},
			methodology: domain.MethodologySession,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vols := DailyVolatility(tt.trades, tt.methodology)
			require.Len(t, vols, 1)
			assert.False(t, vols[0].Valid)
		})
	}
}

func TestDayAggregates(t *testing.T) {
	trades := append(twoDays(), trade(day2.Add(48*time.Hour), 120, 7, 1, 2))

	aggs := DayAggregates(trades, domain.MethodologyNormalized)
	require.Len(t, aggs, 3)

	assert.Equal(t, 6.0, aggs[0].DayVolume)
	assert.True(t, aggs[0].StdValid)
	assert.Equal(t, 15.0, aggs[1].DayVolume)
	assert.True(t, aggs[1].StdValid)

	// a lone trade keeps its volume but has no volatility
	assert.Equal(t, 7.0, aggs[2].DayVolume)
	assert.False(t, aggs[2].StdValid)
}

func TestDailySummaries(t *testing.T) {
	trades := append(twoDays(), trade(day2.Add(48*time.Hour), 120, 7, 1, 2))

	summaries := DailySummaries(trades, domain.MethodologySession)
	require.Len(t, summaries, 3)

	assert.Equal(t, int64(3), summaries[0].TradeCount)
	assert.Equal(t, 6.0, summaries[0].DayVolume)
	require.NotNil(t, summaries[0].DayStd)
	require.NotNil(t, summaries[0].DayPriceStd)
	assert.InDelta(t, stdOf(100, 110, 99), *summaries[0].DayPriceStd, 1e-12)

	assert.Equal(t, int64(1), summaries[2].TradeCount)
	assert.Nil(t, summaries[2].DayPriceStd)
	// one cross-day return is not enough for a volatility estimate
	assert.Nil(t, summaries[2].DayStd)
}

func TestDailyVolume_Conservation(t *testing.T) {
	trades, _, err := Normalize(testutil.RandomWalk(11, 4, 150))
	require.NoError(t, err)

	var total, perDay float64
	for _, tr := range trades {
		total += tr.Volume
	}
	for _, v := range DailyVolume(trades) {
		perDay += v.Volume
	}
	assert.InDelta(t, total, perDay, 1e-9)
}
