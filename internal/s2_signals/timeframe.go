package s2_signals

import (
	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// TimeframeScorer reduces one IndicatorSet to a single directional score
// ⭐ SSOT: 타임프레임 점수 계산은 여기서만
type TimeframeScorer struct {
	weights strategyconfig.IndicatorWeights
	logger  *logger.Logger
}

// NewTimeframeScorer creates a new timeframe scorer
func NewTimeframeScorer(cfg strategyconfig.Scoring, log *logger.Logger) *TimeframeScorer {
	return &TimeframeScorer{
		weights: cfg.Weights,
		logger:  log,
	}
}

// Score returns the weighted sum of the indicator values, clamped to [-1, 1].
// Absent indicators count as 0.
func (s *TimeframeScorer) Score(set contracts.IndicatorSet) float64 {
	score := 0.0
	for _, name := range contracts.AllIndicators() {
		score += s.weights.Of(name) * set.Get(name)
	}
	return contracts.ClampUnit(score)
}

// ScoreAll scores every timeframe of an instrument
func (s *TimeframeScorer) ScoreAll(sets map[contracts.Timeframe]contracts.IndicatorSet) map[contracts.Timeframe]float64 {
	scores := make(map[contracts.Timeframe]float64, len(sets))
	for tf, set := range sets {
		scores[tf] = s.Score(set)
	}
	return scores
}

// BlendIndicators averages each indicator across timeframes with the given weights.
// Used for confidence and for the Signal's explainability payload.
func BlendIndicators(sets map[contracts.Timeframe]contracts.IndicatorSet, weights map[contracts.Timeframe]float64) contracts.IndicatorSet {
	out := make(contracts.IndicatorSet, len(contracts.AllIndicators()))
	for _, name := range contracts.AllIndicators() {
		v := 0.0
		for tf, set := range sets {
			v += weights[tf] * set.Get(name)
		}
		out[name] = contracts.ClampUnit(v)
	}
	return out
}
