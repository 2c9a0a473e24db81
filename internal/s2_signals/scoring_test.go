package s2_signals

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

func uniformSet(v float64) contracts.IndicatorSet {
	set := contracts.IndicatorSet{}
	for _, name := range contracts.AllIndicators() {
		set[name] = v
	}
	return set
}

func TestTimeframeScorer_Score(t *testing.T) {
	cfg, err := strategyconfig.Default()
	require.NoError(t, err)
	scorer := NewTimeframeScorer(cfg.Scoring, logger.Nop())

	tests := []struct {
		name string
		set  contracts.IndicatorSet
		want float64
	}{
		{"all bullish", uniformSet(1), 1},
		{"all bearish", uniformSet(-1), -1},
		{"flat", uniformSet(0), 0},
		{"empty set", contracts.IndicatorSet{}, 0},
		{"trend only", contracts.IndicatorSet{contracts.IndicatorTrendCross: 1}, 0.20},
		{"rsi against macd", contracts.IndicatorSet{
			contracts.IndicatorRSI:  0.5,
			contracts.IndicatorMACD: -0.5,
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, scorer.Score(tt.set), 1e-9)
		})
	}
}

func TestTimeframeScorer_ClampsOverweight(t *testing.T) {
	scoring := strategyconfig.Scoring{
		Weights: strategyconfig.IndicatorWeights{RSI: 2, TrendCross: 2},
	}
	scorer := NewTimeframeScorer(scoring, logger.Nop())

	assert.Equal(t, 1.0, scorer.Score(uniformSet(1)))
	assert.Equal(t, -1.0, scorer.Score(uniformSet(-1)))
}

func TestBlender_Blend(t *testing.T) {
	cfg, err := strategyconfig.Default()
	require.NoError(t, err)
	blender := NewBlender(cfg.Modes, cfg.Scoring, logger.Nop())

	t.Run("swing all present", func(t *testing.T) {
		scores := map[contracts.Timeframe]float64{
			contracts.TimeframeShort:  1.0,
			contracts.TimeframeMedium: 0.5,
			contracts.TimeframeLong:   -0.5,
		}
		c, err := blender.Blend("swing", scores)
		require.NoError(t, err)

		// 0.5*1 + 0.3*0.5 + 0.2*(-0.5)
		assert.InDelta(t, 0.55, c.Value, 1e-9)
		assert.Empty(t, c.Missing)
		assert.InDelta(t, 0.5, c.Breakdown[contracts.TimeframeShort].Weighted, 1e-9)
		assert.InDelta(t, -0.1, c.Breakdown[contracts.TimeframeLong].Weighted, 1e-9)
		assert.Equal(t, "swing", c.Mode)
	})

	t.Run("missing long is redistributed", func(t *testing.T) {
		scores := map[contracts.Timeframe]float64{
			contracts.TimeframeShort:  0.8,
			contracts.TimeframeMedium: 0.8,
		}
		c, err := blender.Blend("swing", scores)
		require.NoError(t, err)

		// 같은 점수면 재분배 후에도 그대로
		assert.InDelta(t, 0.8, c.Value, 1e-9)
		assert.Equal(t, []contracts.Timeframe{contracts.TimeframeLong}, c.Missing)
		assert.InDelta(t, 0.625, c.Breakdown[contracts.TimeframeShort].Weight, 1e-9)
		assert.InDelta(t, 0.375, c.Breakdown[contracts.TimeframeMedium].Weight, 1e-9)
	})

	t.Run("single timeframe gets full weight", func(t *testing.T) {
		c, err := blender.Blend("positional", map[contracts.Timeframe]float64{
			contracts.TimeframeLong: -0.4,
		})
		require.NoError(t, err)
		assert.InDelta(t, -0.4, c.Value, 1e-9)
		assert.InDelta(t, 1.0, c.Breakdown[contracts.TimeframeLong].Weight, 1e-9)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := blender.Blend("scalping", map[contracts.Timeframe]float64{
			contracts.TimeframeShort: 0.1,
		})
		assert.Error(t, err)
	})

	t.Run("no scores", func(t *testing.T) {
		_, err := blender.Blend("swing", nil)
		assert.Error(t, err)
	})
}

func TestBlender_ZeroWeightFallback(t *testing.T) {
	modes := strategyconfig.Modes{}
	modes.SetDefaults()
	modes.Swing = strategyconfig.ModeProfile{Short: 1, Primary: contracts.TimeframeShort}
	blender := NewBlender(modes, strategyconfig.Scoring{NeutralBand: 0.1}, logger.Nop())

	weights, err := blender.EffectiveWeights("swing", []contracts.Timeframe{
		contracts.TimeframeMedium,
		contracts.TimeframeLong,
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, weights[contracts.TimeframeMedium], 1e-9)
	assert.InDelta(t, 0.5, weights[contracts.TimeframeLong], 1e-9)
}

func TestBlender_Direction(t *testing.T) {
	blender := NewBlender(strategyconfig.Modes{}, strategyconfig.Scoring{NeutralBand: 0.1}, logger.Nop())

	assert.Equal(t, contracts.DirectionLong, blender.Direction(0.1))
	assert.Equal(t, contracts.DirectionLong, blender.Direction(0.9))
	assert.Equal(t, contracts.DirectionShort, blender.Direction(-0.1))
	assert.Equal(t, contracts.DirectionNeutral, blender.Direction(0.05))
	assert.Equal(t, contracts.DirectionNeutral, blender.Direction(-0.0999))
	assert.Equal(t, contracts.DirectionNeutral, blender.Direction(0))
}

func TestBlendIndicators(t *testing.T) {
	sets := map[contracts.Timeframe]contracts.IndicatorSet{
		contracts.TimeframeShort: uniformSet(1),
		contracts.TimeframeLong:  uniformSet(-1),
	}
	weights := map[contracts.Timeframe]float64{
		contracts.TimeframeShort: 0.75,
		contracts.TimeframeLong:  0.25,
	}

	out := BlendIndicators(sets, weights)
	require.Len(t, out, len(contracts.AllIndicators()))
	for _, name := range contracts.AllIndicators() {
		assert.InDelta(t, 0.5, out[name], 1e-9, name)
	}
}

func TestConfidenceEstimator(t *testing.T) {
	cfg, err := strategyconfig.Default()
	require.NoError(t, err)
	est := NewConfidenceEstimator(cfg.Confidence, logger.Nop())
	asOf := time.Date(2025, 3, 4, 10, 0, 0, 0, time.UTC)

	t.Run("fully aligned long", func(t *testing.T) {
		got := est.Estimate(uniformSet(1), contracts.DirectionLong, nil, asOf)
		assert.InDelta(t, 100, got.Value, 1e-9)
		assert.InDelta(t, 1, got.Agreement, 1e-9)
		assert.InDelta(t, 1, got.Momentum, 1e-9)
		assert.InDelta(t, 1, got.VolumeSupport, 1e-9)
		assert.Equal(t, 1.0, got.SpecialDayMult)
	})

	t.Run("opposed to direction", func(t *testing.T) {
		got := est.Estimate(uniformSet(1), contracts.DirectionShort, nil, asOf)
		// every pillar runs against the call
		assert.Zero(t, got.Value)
		assert.Zero(t, got.Agreement)
		assert.Zero(t, got.Momentum)
		assert.Zero(t, got.VolumeSupport)
	})

	t.Run("momentum against the call adds nothing", func(t *testing.T) {
		set := uniformSet(0)
		set[contracts.IndicatorRSI] = -1
		set[contracts.IndicatorMACD] = -1
		set[contracts.IndicatorTrendCross] = -1
		got := est.Estimate(set, contracts.DirectionLong, nil, asOf)
		assert.Zero(t, got.Momentum)
		assert.Zero(t, got.Value)
	})

	t.Run("partially opposed momentum nets out", func(t *testing.T) {
		set := uniformSet(0)
		set[contracts.IndicatorRSI] = 0.9
		set[contracts.IndicatorMACD] = 0.6
		set[contracts.IndicatorTrendCross] = -0.3
		got := est.Estimate(set, contracts.DirectionLong, nil, asOf)
		assert.InDelta(t, 0.4, got.Momentum, 1e-9)
	})

	t.Run("single strong indicator is a small share", func(t *testing.T) {
		set := uniformSet(0)
		set[contracts.IndicatorStructure] = 0.9
		got := est.Estimate(set, contracts.DirectionLong, nil, asOf)
		assert.InDelta(t, 1.0/8, got.Agreement, 1e-9)
		assert.InDelta(t, 40.0/8, got.Value, 1e-9)
	})

	t.Run("nothing material", func(t *testing.T) {
		got := est.Estimate(uniformSet(0.2), contracts.DirectionLong, nil, asOf)
		assert.Zero(t, got.Agreement)
		// momentum 0.2*35 + volume (0.2 surge + vwap 1)/2 * 25
		assert.InDelta(t, 0.2*35+0.6*25, got.Value, 1e-9)
	})

	t.Run("mixed agreement", func(t *testing.T) {
		set := uniformSet(0)
		set[contracts.IndicatorRSI] = 0.8
		set[contracts.IndicatorMACD] = 0.6
		set[contracts.IndicatorStructure] = 0.5
		set[contracts.IndicatorBandPosition] = -0.9
		got := est.Estimate(set, contracts.DirectionLong, nil, asOf)
		// 3 of 8 indicators are material and agree
		assert.InDelta(t, 3.0/8, got.Agreement, 1e-9)
	})

	t.Run("event inside window", func(t *testing.T) {
		event := &contracts.EventRisk{Name: "earnings", ScheduledAt: asOf.Add(24 * time.Hour)}
		got := est.Estimate(uniformSet(1), contracts.DirectionLong, event, asOf)
		assert.InDelta(t, 85, got.Value, 1e-9)
		assert.Equal(t, 15.0, got.EventPenalty)
	})

	t.Run("event just passed", func(t *testing.T) {
		event := &contracts.EventRisk{Name: "earnings", ScheduledAt: asOf.Add(-12 * time.Hour)}
		got := est.Estimate(uniformSet(1), contracts.DirectionLong, event, asOf)
		assert.Equal(t, 15.0, got.EventPenalty)
	})

	t.Run("event outside window", func(t *testing.T) {
		event := &contracts.EventRisk{Name: "earnings", ScheduledAt: asOf.Add(72 * time.Hour)}
		got := est.Estimate(uniformSet(1), contracts.DirectionLong, event, asOf)
		assert.Zero(t, got.EventPenalty)
		assert.InDelta(t, 100, got.Value, 1e-9)
	})

	t.Run("penalty never goes below zero", func(t *testing.T) {
		event := &contracts.EventRisk{Name: "fomc", ScheduledAt: asOf}
		got := est.Estimate(uniformSet(0), contracts.DirectionLong, event, asOf)
		assert.Equal(t, 0.0, got.Value)
	})
}
