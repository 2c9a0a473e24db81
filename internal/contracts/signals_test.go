package contracts

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 1.0, ClampUnit(3))
	assert.Equal(t, -1.0, ClampUnit(-3))
	assert.Equal(t, 0.25, ClampUnit(0.25))
	assert.Equal(t, 0.0, ClampUnit(math.NaN()))
	assert.Equal(t, 0.0, Clamp(math.NaN(), 0, 100))
	assert.Equal(t, 100.0, Clamp(math.Inf(1), 0, 100))
}

func TestNewSignal_DoesNotShareState(t *testing.T) {
	breakdown := map[Timeframe]TimeframeContribution{
		TimeframeShort: {Score: 0.5, Weight: 1, Weighted: 0.5},
	}
	indicators := IndicatorSet{IndicatorRSI: 0.4}
	results := []FilterResult{{Filter: FilterLiquidity, Passed: true}}

	sig := NewSignal(Signal{
		Instrument: "MSFT",
		Timestamp:  time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		Direction:  DirectionLong,
		Composite:  CompositeScore{Value: 0.5, Breakdown: breakdown},
		Indicators: indicators,
		Robustness: RobustnessReport{Results: results},
		SpecialDay: CalendarMonthlyExpiry,
	})

	breakdown[TimeframeShort] = TimeframeContribution{Score: -1}
	indicators[IndicatorRSI] = -1
	results[0].Passed = false

	assert.Equal(t, 0.5, sig.Composite.Breakdown[TimeframeShort].Score)
	assert.Equal(t, 0.4, sig.Indicators[IndicatorRSI])
	assert.True(t, sig.Robustness.Results[0].Passed)
	assert.True(t, sig.IsSpecialDay)
}

func TestDirection_Sign(t *testing.T) {
	assert.Equal(t, 1.0, DirectionLong.Sign())
	assert.Equal(t, -1.0, DirectionShort.Sign())
	assert.Equal(t, 0.0, DirectionNeutral.Sign())
}

func TestRobustnessReport_FailureReasons(t *testing.T) {
	report := RobustnessReport{
		Passed: 5,
		Results: []FilterResult{
			{Filter: FilterMarketRegime, Passed: false, Reason: ReasonTrendTooWeak},
			{Filter: FilterLiquidity, Passed: true},
			{Filter: FilterExpectancy, Passed: false, Reason: ReasonMissingInput},
		},
	}

	assert.Equal(t, []string{
		"market_regime:trend_too_weak",
		"expectancy:missing_input",
	}, report.FailureReasons())
	assert.False(t, report.AllPassed())
}

func TestNewOpportunity(t *testing.T) {
	sig := NewSignal(Signal{
		Instrument: "NVDA",
		Direction:  DirectionShort,
		EntryPrice: 412.5,
		Composite:  CompositeScore{Value: -0.6},
		Confidence: ConfidenceValue{Value: 72},
		Robustness: RobustnessReport{Score: 100.0 * 6 / 7, Passed: 6, Results: []FilterResult{
			{Filter: FilterTimeOfDay, Reason: ReasonOutsideWindow},
		}},
		Master:     MasterScore{Value: 64, Tier: TierFair},
		ConfigHash: "abc",
	})

	opp := NewOpportunity("opp-1", "run-1", sig)
	assert.Equal(t, "NVDA", opp.Instrument)
	assert.Equal(t, DirectionShort, opp.Direction)
	assert.Equal(t, 412.5, opp.EntryPrice)
	assert.Equal(t, -0.6, opp.Composite)
	assert.Equal(t, TierFair, opp.Tier)
	assert.Equal(t, []string{"time_of_day:outside_trading_window"}, opp.FilterFailures)
	assert.Equal(t, "abc", opp.ConfigHash)
}

func TestBatchResult_Helpers(t *testing.T) {
	res := &BatchResult{
		Signals: []RankedSignal{{Rank: 1}, {Rank: 2}, {Rank: 3}},
		Skipped: []SkippedInstrument{
			{Instrument: "A", Reason: SkipNoPattern},
			{Instrument: "B", Reason: SkipNoPattern},
			{Instrument: "C", Reason: SkipDataInsufficient},
		},
	}

	assert.Equal(t, 3, res.Count())
	assert.Len(t, res.Top(2), 2)
	assert.Len(t, res.Top(10), 3)
	assert.Equal(t, 2, res.SkippedByReason()[SkipNoPattern])
	assert.True(t, res.Signals[1].IsTopRanked(2))
	assert.False(t, res.Signals[2].IsTopRanked(2))
}
