package dataprocessing

import (
	"context"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metaorder/internal/errors"
	"metaorder/internal/shared/testutil"
	"metaorder/pkg/contracts/domain"
)

func TestPipeline_Run(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	p := NewPipeline(domain.MethodologySession, logger)

	result, err := p.Run(context.Background(), testutil.ThreeTradeDay())
	require.NoError(t, err)

	std := stdOf(math.Log(102.0/100), math.Log(101.0/102))
	require.Len(t, result.Buyers, 2)
	assert.InDelta(t, 15.0/35, result.Buyers[0].VolumePct, 1e-12)
	assert.Equal(t, 1.0, result.Buyers[0].PriceImpactPct)
	assert.Equal(t, 7200.0, result.Buyers[0].MetaorderDuration)
	assert.InDelta(t, std, result.Buyers[0].DayStd, 1e-12)

	require.Len(t, result.Sellers, 1)
	assert.Equal(t, result.Sellers, result.Rows(domain.SideSeller))
	assert.Equal(t, 1.0, result.Sellers[0].VolumePct)

	require.Len(t, result.Daily, 1)
	assert.Equal(t, int64(3), result.Daily[0].TradeCount)

	assert.Equal(t, 3, result.Stats.Retained)
	assert.Equal(t, 1, result.Diagnostics.Days)
	assert.Equal(t, 0, result.Diagnostics.DegenerateDays)
	assert.Equal(t, 2, result.Diagnostics.Metaorders[domain.SideBuyer])
	assert.Equal(t, 1, result.Diagnostics.Metaorders[domain.SideSeller])

	testutil.AssertLogContains(t, handler, slog.LevelDebug, "Computed trader statistics")
	testutil.AssertLogAttr(t, handler, "component", "pipeline")
	testutil.AssertNoErrors(t, handler)
}

func TestPipeline_DegenerateDayDropped(t *testing.T) {
	records := append(testutil.ThreeTradeDay(),
		testutil.RawTrade(testutil.At(2023, 3, 5, 10, 0, 0), 100, 5, 1, 9))

	result, err := NewPipeline(domain.MethodologyNormalized, nil).Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Diagnostics.Days)
	assert.Equal(t, 1, result.Diagnostics.DegenerateDays)
	assert.Equal(t, 1, result.Diagnostics.UnjoinedTrades)
	assert.Len(t, result.Buyers, 2)
	// the degenerate day still appears in the daily overview
	require.Len(t, result.Daily, 2)
	assert.Nil(t, result.Daily[1].DayStd)
}

func TestPipeline_EmptyInput(t *testing.T) {
	_, err := NewPipeline(domain.MethodologySession, nil).Run(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, errors.IsEmptyInput(err))
}

func TestPipeline_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(domain.MethodologySession, nil).Run(ctx, testutil.ThreeTradeDay())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_Idempotent(t *testing.T) {
	records := testutil.RandomWalk(42, 3, 100)
	p := NewPipeline(domain.MethodologyNormalized, nil)

	first, err := p.Run(context.Background(), records)
	require.NoError(t, err)
	second, err := p.Run(context.Background(), records)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestNewPipeline_DefaultMethodology(t *testing.T) {
	assert.Equal(t, domain.MethodologySession, NewPipeline("", nil).Methodology())
}
