package s4_context

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/s1_indicators"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg, err := strategyconfig.Default()
	require.NoError(t, err)
	return NewEngine(cfg.Context, cfg.Indicators.RSIPeriod, logger.Nop())
}

func neutralInputs() Inputs {
	return Inputs{
		Direction:    contracts.DirectionLong,
		Regime:       RegimeRanging,
		Risk:         RiskMedium,
		Confirmation: 0.5,
	}
}

func seriesFrom(closes, volumes []float64) contracts.TimeframeSeries {
	start := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	bars := make([]contracts.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = contracts.PriceBar{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c,
			High:      c + 0.5,
			Low:       c - 0.5,
			Close:     c,
			Volume:    volumes[i],
		}
	}
	return contracts.TimeframeSeries{Timeframe: contracts.TimeframeMedium, Bars: bars}
}

func TestValue(t *testing.T) {
	e := newTestEngine(t)

	tests := []struct {
		name   string
		mutate func(in *Inputs)
		want   float64
	}{
		{"neutral baseline", func(in *Inputs) {}, 2.5},
		{"vwap half", func(in *Inputs) { in.VWAPScore = 0.5 }, 3.0},
		{"volume against", func(in *Inputs) { in.VolumeScore = -1 }, 1.5},
		{"one divergence", func(in *Inputs) { in.PriceVolumeDivergence = true }, 2.0},
		{"two divergences", func(in *Inputs) {
			in.PriceVolumeDivergence = true
			in.PriceRSIDivergence = true
		}, 1.5},
		{"trending with direction", func(in *Inputs) { in.Regime = RegimeTrendingUp }, 2.75},
		{"trending against direction", func(in *Inputs) { in.Regime = RegimeTrendingDown }, 2.5},
		{"volatile", func(in *Inputs) { in.Regime = RegimeVolatile }, 2.25},
		{"low risk", func(in *Inputs) { in.Risk = RiskLow }, 2.6},
		{"high risk", func(in *Inputs) { in.Risk = RiskHigh }, 2.25},
		{"full confirmation", func(in *Inputs) { in.Confirmation = 1 }, 3.0},
		{"no confirmation", func(in *Inputs) { in.Confirmation = 0 }, 2.0},
		{"everything bullish clamps at 5", func(in *Inputs) {
			in.VWAPScore = 1
			in.VolumeScore = 1
			in.Regime = RegimeTrendingUp
			in.Risk = RiskLow
			in.Confirmation = 1
		}, 5.0},
		{"everything bearish clamps at 0", func(in *Inputs) {
			in.VWAPScore = -1
			in.VolumeScore = -1
			in.PriceVolumeDivergence = true
			in.PriceRSIDivergence = true
			in.Regime = RegimeVolatile
			in.Risk = RiskHigh
			in.Confirmation = 0
		}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := neutralInputs()
			tt.mutate(&in)
			assert.InDelta(t, tt.want, e.Value(in), 1e-9)
		})
	}
}

func TestScore_Momentum(t *testing.T) {
	e := newTestEngine(t)
	in := neutralInputs()

	first := e.Score("005930", in, nil)
	assert.InDelta(t, 2.5, first.Value, 1e-9)
	assert.Zero(t, first.Momentum)

	down := e.Score("005930", in, &contracts.Evaluation{ContextValue: 3.0})
	assert.InDelta(t, -0.5, down.Momentum, 1e-9)

	in.VWAPScore, in.VolumeScore, in.Confirmation = 1, 1, 1
	up := e.Score("005930", in, &contracts.Evaluation{ContextValue: 1.0})
	assert.Equal(t, 1.0, up.Momentum)
	assert.InDelta(t, 100, up.Scaled(), 1e-9)
}

func TestDerive_PriceVolumeDivergence(t *testing.T) {
	e := newTestEngine(t)

	n := 60
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = 100 + float64(i)
		volumes[i] = 10000 - 100*float64(i)
	}
	series := seriesFrom(closes, volumes)

	in := e.Derive(series, s1_indicators.MarketSnapshot{}, contracts.IndicatorSet{}, contracts.DirectionLong, nil)
	assert.True(t, in.PriceVolumeDivergence)
	// 단조 상승은 RSI도 함께 유지
	assert.False(t, in.PriceRSIDivergence)

	short := e.Derive(series, s1_indicators.MarketSnapshot{}, contracts.IndicatorSet{}, contracts.DirectionShort, nil)
	assert.False(t, short.PriceVolumeDivergence)
}

func TestDerive_PriceRSIDivergence(t *testing.T) {
	e := newTestEngine(t)

	// 강한 지그재그 상승 뒤 약한 상승: 가격은 높아지고 RSI는 낮아짐
	n := 60
	closes := make([]float64, n)
	volumes := make([]float64, n)
	closes[0] = 100
	volumes[0] = 1000
	for i := 1; i < n; i++ {
		var step float64
		switch {
		case i < 50 && i%2 == 1:
			step = 2
		case i < 50:
			step = -1
		case i%2 == 1:
			step = 1
		default:
			step = -0.9
		}
		closes[i] = closes[i-1] + step
		volumes[i] = 1000
	}

	in := e.Derive(seriesFrom(closes, volumes), s1_indicators.MarketSnapshot{}, contracts.IndicatorSet{}, contracts.DirectionLong, nil)
	assert.True(t, in.PriceRSIDivergence)
	assert.False(t, in.PriceVolumeDivergence)
}

func TestDerive_LabelsAndScores(t *testing.T) {
	e := newTestEngine(t)
	series := seriesFrom([]float64{100, 101}, []float64{1000, 1000})

	tests := []struct {
		name   string
		snap   s1_indicators.MarketSnapshot
		regime Regime
		risk   RiskLevel
	}{
		{"volatile", s1_indicators.MarketSnapshot{ATRPct: 0.05, ADX: 40}, RegimeVolatile, RiskHigh},
		{"trending up", s1_indicators.MarketSnapshot{ATRPct: 0.02, ADX: 30, Close: 105, SMAShort: 100}, RegimeTrendingUp, RiskMedium},
		{"trending down", s1_indicators.MarketSnapshot{ATRPct: 0.01, ADX: 30, Close: 95, SMAShort: 100}, RegimeTrendingDown, RiskLow},
		{"ranging", s1_indicators.MarketSnapshot{ATRPct: 0.02, ADX: 15}, RegimeRanging, RiskMedium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := e.Derive(series, tt.snap, contracts.IndicatorSet{}, contracts.DirectionLong, nil)
			assert.Equal(t, tt.regime, in.Regime)
			assert.Equal(t, tt.risk, in.Risk)
		})
	}

	set := contracts.IndicatorSet{
		contracts.IndicatorVWAP:        0.4,
		contracts.IndicatorVolumeSurge: -0.6,
	}
	scores := map[contracts.Timeframe]float64{
		contracts.TimeframeShort:  0.5,
		contracts.TimeframeMedium: 0.3,
		contracts.TimeframeLong:   -0.2,
	}
	in := e.Derive(series, s1_indicators.MarketSnapshot{}, set, contracts.DirectionShort, scores)
	assert.InDelta(t, -0.4, in.VWAPScore, 1e-9)
	assert.InDelta(t, 0.6, in.VolumeScore, 1e-9)
	assert.InDelta(t, 1.0/3, in.Confirmation, 1e-9)
	// 짧은 시리즈는 다이버전스 판단 안 함
	assert.Zero(t, in.Divergences())
}
