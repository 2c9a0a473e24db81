package s2_signals

import (
	"fmt"
	"math"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// Blender combines timeframe scores with the weight triple of a trading mode
type Blender struct {
	modes       strategyconfig.Modes
	neutralBand float64
	logger      *logger.Logger
}

// NewBlender creates a new composite blender
func NewBlender(modes strategyconfig.Modes, scoring strategyconfig.Scoring, log *logger.Logger) *Blender {
	return &Blender{
		modes:       modes,
		neutralBand: scoring.NeutralBand,
		logger:      log,
	}
}

// EffectiveWeights returns the mode weights of the present timeframes, rescaled to sum to 1.
// 누락된 타임프레임의 가중치는 남은 타임프레임에 비례 재분배
func (b *Blender) EffectiveWeights(mode string, present []contracts.Timeframe) (map[contracts.Timeframe]float64, error) {
	profile, ok := b.modes.Profile(mode)
	if !ok {
		return nil, fmt.Errorf("unknown trading mode %q", mode)
	}
	if len(present) == 0 {
		return nil, fmt.Errorf("no timeframe scores to blend")
	}

	total := 0.0
	for _, tf := range present {
		total += profile.Weight(tf)
	}

	weights := make(map[contracts.Timeframe]float64, len(present))
	for _, tf := range present {
		if total > 0 {
			weights[tf] = profile.Weight(tf) / total
		} else {
			// 남은 타임프레임이 모두 가중치 0이면 균등 분배
			weights[tf] = 1 / float64(len(present))
		}
	}
	return weights, nil
}

// Blend returns the mode-weighted composite with every contribution retained
func (b *Blender) Blend(mode string, scores map[contracts.Timeframe]float64) (contracts.CompositeScore, error) {
	var present, missing []contracts.Timeframe
	for _, tf := range contracts.AllTimeframes() {
		if _, ok := scores[tf]; ok {
			present = append(present, tf)
		} else {
			missing = append(missing, tf)
		}
	}

	weights, err := b.EffectiveWeights(mode, present)
	if err != nil {
		return contracts.CompositeScore{}, err
	}

	composite := contracts.CompositeScore{
		Mode:      mode,
		Breakdown: make(map[contracts.Timeframe]contracts.TimeframeContribution, len(present)),
		Missing:   missing,
	}
	for _, tf := range present {
		score := contracts.ClampUnit(scores[tf])
		weighted := score * weights[tf]
		composite.Breakdown[tf] = contracts.TimeframeContribution{
			Score:    score,
			Weight:   weights[tf],
			Weighted: weighted,
		}
		composite.Value += weighted
	}
	composite.Value = contracts.ClampUnit(composite.Value)

	b.logger.WithFields(map[string]interface{}{
		"stage":     contracts.StageScoring.ShortName(),
		"mode":      mode,
		"composite": composite.Value,
		"missing":   len(missing),
	}).Debug("Blended timeframe scores")

	return composite, nil
}

// Direction maps a composite onto LONG/SHORT, NEUTRAL inside the neutral band
func (b *Blender) Direction(composite float64) contracts.Direction {
	switch {
	case math.Abs(composite) < b.neutralBand:
		return contracts.DirectionNeutral
	case composite > 0:
		return contracts.DirectionLong
	default:
		return contracts.DirectionShort
	}
}
