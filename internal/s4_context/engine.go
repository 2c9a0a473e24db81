package s4_context

import (
	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// Engine computes the institutional-context score (0-5) and its momentum
// ⭐ SSOT: 컨텍스트 점수 계산은 여기서만
type Engine struct {
	cfg       strategyconfig.Context
	rsiPeriod int
	logger    *logger.Logger
}

// NewEngine creates a new context engine
func NewEngine(cfg strategyconfig.Context, rsiPeriod int, log *logger.Logger) *Engine {
	return &Engine{
		cfg:       cfg,
		rsiPeriod: rsiPeriod,
		logger:    log,
	}
}

// Value computes the context score from its inputs.
// baseline + VWAP/volume contributions - divergence penalties + regime/risk/confirmation modulation, clamped to [0, 5].
func (e *Engine) Value(in Inputs) float64 {
	v := e.cfg.Baseline
	v += e.cfg.VWAPMaxContribution * contracts.ClampUnit(in.VWAPScore)
	v += e.cfg.VolumeMaxContribution * contracts.ClampUnit(in.VolumeScore)

	// 다이버전스는 감점만
	v -= e.cfg.DivergencePenalty * float64(in.Divergences())

	v += e.regimeModulation(in.Regime, in.Direction)
	v += e.riskModulation(in.Risk)

	// 0.5 = 중립
	v += e.cfg.ConfirmationWeight * (2*contracts.Clamp(in.Confirmation, 0, 1) - 1)

	return contracts.Clamp(v, 0, 5)
}

// Score computes value and momentum; momentum is 0 without a prior evaluation
func (e *Engine) Score(instrument string, in Inputs, prior *contracts.Evaluation) contracts.ContextScore {
	score := contracts.ContextScore{Value: e.Value(in)}
	if prior != nil {
		score.Momentum = contracts.ClampUnit(score.Value - prior.ContextValue)
	}

	e.logger.WithFields(map[string]interface{}{
		"stage":       contracts.StageContext.ShortName(),
		"instrument":  instrument,
		"regime":      in.Regime,
		"risk":        in.Risk,
		"divergences": in.Divergences(),
		"context":     score.Value,
		"momentum":    score.Momentum,
	}).Debug("Computed context score")

	return score
}

func (e *Engine) regimeModulation(r Regime, dir contracts.Direction) float64 {
	switch {
	case r == RegimeVolatile:
		return -e.cfg.VolatilePenalty
	case r == RegimeTrendingUp && dir == contracts.DirectionLong,
		r == RegimeTrendingDown && dir == contracts.DirectionShort:
		return e.cfg.TrendingBonus
	}
	return 0
}

func (e *Engine) riskModulation(r RiskLevel) float64 {
	switch r {
	case RiskLow:
		return e.cfg.LowRiskBonus
	case RiskHigh:
		return -e.cfg.HighRiskPenalty
	}
	return 0
}
