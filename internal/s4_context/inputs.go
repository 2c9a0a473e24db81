package s4_context

import (
	"math"

	"github.com/markcheno/go-talib"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/s1_indicators"
)

// Regime is the market-regime label of the primary timeframe
type Regime string

const (
	RegimeTrendingUp   Regime = "trending_up"
	RegimeTrendingDown Regime = "trending_down"
	RegimeRanging      Regime = "ranging"
	RegimeVolatile     Regime = "volatile"
)

// RiskLevel is the volatility-based risk label
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Inputs are the market-structure readings the context score is built from
type Inputs struct {
	Direction             contracts.Direction
	VWAPScore             float64 // -1 ~ 1, direction-aligned
	VolumeScore           float64 // -1 ~ 1, direction-aligned
	PriceVolumeDivergence bool
	PriceRSIDivergence    bool
	Regime                Regime
	Risk                  RiskLevel
	Confirmation          float64 // 0 ~ 1, share of timeframes agreeing with direction
}

// Divergences returns the number of active divergence warnings
func (in Inputs) Divergences() int {
	n := 0
	if in.PriceVolumeDivergence {
		n++
	}
	if in.PriceRSIDivergence {
		n++
	}
	return n
}

// Derive reads the context inputs from the primary timeframe and the per-timeframe scores
func (e *Engine) Derive(
	series contracts.TimeframeSeries,
	snap s1_indicators.MarketSnapshot,
	set contracts.IndicatorSet,
	dir contracts.Direction,
	scores map[contracts.Timeframe]float64,
) Inputs {
	want := dir.Sign()
	closes := series.Closes()

	return Inputs{
		Direction:             dir,
		VWAPScore:             contracts.ClampUnit(set.Get(contracts.IndicatorVWAP) * want),
		VolumeScore:           contracts.ClampUnit(set.Get(contracts.IndicatorVolumeSurge) * want),
		PriceVolumeDivergence: e.priceVolumeDivergence(closes, series.Volumes(), want),
		PriceRSIDivergence:    e.priceRSIDivergence(closes, want),
		Regime:                e.regime(snap),
		Risk:                  e.risk(snap),
		Confirmation:          confirmation(scores, want),
	}
}

// priceVolumeDivergence: price trending with the signal on a falling volume trend
func (e *Engine) priceVolumeDivergence(closes, volumes []float64, want float64) bool {
	l := e.cfg.DivergenceLookback
	if want == 0 || len(closes) < l+1 {
		return false
	}
	priceSlope := lastFinite(talib.LinearRegSlope(closes, l))
	volumeSlope := lastFinite(talib.LinearRegSlope(volumes, l))
	return priceSlope*want > 0 && volumeSlope < 0
}

// priceRSIDivergence: price extends in the signal direction while RSI retreats
func (e *Engine) priceRSIDivergence(closes []float64, want float64) bool {
	l := e.cfg.DivergenceLookback
	if want == 0 || len(closes) < e.rsiPeriod+l+1 {
		return false
	}
	rsi := talib.Rsi(closes, e.rsiPeriod)
	n := len(closes)
	priceMove := (closes[n-1] - closes[n-l]) * want
	rsiMove := (rsi[n-1] - rsi[n-l]) * want
	if math.IsNaN(rsiMove) {
		return false
	}
	return priceMove > 0 && rsiMove < 0
}

// regime: volatility first, then trend strength with the side taken from the short MA
func (e *Engine) regime(snap s1_indicators.MarketSnapshot) Regime {
	switch {
	case snap.ATRPct >= e.cfg.VolatileATRPct:
		return RegimeVolatile
	case snap.ADX >= e.cfg.TrendingADX && snap.Close >= snap.SMAShort:
		return RegimeTrendingUp
	case snap.ADX >= e.cfg.TrendingADX:
		return RegimeTrendingDown
	}
	return RegimeRanging
}

func (e *Engine) risk(snap s1_indicators.MarketSnapshot) RiskLevel {
	switch {
	case snap.ATRPct <= e.cfg.LowRiskATRPct:
		return RiskLow
	case snap.ATRPct >= e.cfg.HighRiskATRPct:
		return RiskHigh
	}
	return RiskMedium
}

func confirmation(scores map[contracts.Timeframe]float64, want float64) float64 {
	if len(scores) == 0 || want == 0 {
		return 0
	}
	agree := 0
	for _, s := range scores {
		if s*want > 0 {
			agree++
		}
	}
	return float64(agree) / float64(len(scores))
}

func lastFinite(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	v := values[len(values)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
