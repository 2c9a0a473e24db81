package selection

import (
	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// MasterInputs are the six dimensions on their native scales
type MasterInputs struct {
	Confidence    float64 // 0 ~ 100
	Composite     float64 // -1 ~ 1
	Robustness    float64 // 0 ~ 100
	Context       contracts.ContextScore
	NewsSentiment *float64 // -1 ~ 1, nil = not supplied
}

// MasterAggregator implements S5: six-dimension master score
// ⭐ SSOT: 마스터 점수와 티어는 여기서만
// 순위/품질 지표일 뿐, 방향을 바꾸거나 방출을 막지 않음
type MasterAggregator struct {
	cfg    strategyconfig.Master
	logger *logger.Logger
}

// NewMasterAggregator creates a new master score aggregator
func NewMasterAggregator(cfg strategyconfig.Master, log *logger.Logger) *MasterAggregator {
	return &MasterAggregator{
		cfg:    cfg,
		logger: log,
	}
}

// Scale maps every dimension onto 0-100
func (a *MasterAggregator) Scale(in MasterInputs) map[contracts.MasterDimension]float64 {
	news := a.cfg.NeutralNews
	if in.NewsSentiment != nil {
		news = unitTo100(*in.NewsSentiment)
	}
	return map[contracts.MasterDimension]float64{
		contracts.DimensionConfidence:      contracts.Clamp(in.Confidence, 0, 100),
		contracts.DimensionTechnical:       unitTo100(in.Composite),
		contracts.DimensionRobustness:      contracts.Clamp(in.Robustness, 0, 100),
		contracts.DimensionContext:         contracts.Clamp(in.Context.Scaled(), 0, 100),
		contracts.DimensionContextMomentum: unitTo100(in.Context.Momentum),
		contracts.DimensionNews:            contracts.Clamp(news, 0, 100),
	}
}

// Aggregate computes the weighted master score and its tier
func (a *MasterAggregator) Aggregate(instrument string, in MasterInputs) contracts.MasterScore {
	scaled := a.Scale(in)

	score := contracts.MasterScore{
		Breakdown: make(map[contracts.MasterDimension]contracts.DimensionContribution, len(scaled)),
	}
	for _, dim := range Dimensions() {
		pct := a.cfg.WeightsPct.Of(dim)
		weighted := scaled[dim] * float64(pct) / 100
		score.Breakdown[dim] = contracts.DimensionContribution{
			Input:     scaled[dim],
			WeightPct: pct,
			Weighted:  weighted,
		}
		score.Value += weighted
	}
	score.Value = contracts.Clamp(score.Value, 0, 100)
	score.Tier = a.Tier(score.Value)

	a.logger.WithFields(map[string]interface{}{
		"stage":      contracts.StageMaster.ShortName(),
		"instrument": instrument,
		"master":     score.Value,
		"tier":       score.Tier,
	}).Debug("Computed master score")

	return score
}

// Tier maps a master score onto its interpretation band
func (a *MasterAggregator) Tier(value float64) contracts.Tier {
	switch {
	case value >= a.cfg.Tiers.Strong:
		return contracts.TierStrong
	case value >= a.cfg.Tiers.Good:
		return contracts.TierGood
	case value >= a.cfg.Tiers.Fair:
		return contracts.TierFair
	}
	return contracts.TierWeak
}

// Dimensions returns the master dimensions in reporting order
func Dimensions() []contracts.MasterDimension {
	return []contracts.MasterDimension{
		contracts.DimensionConfidence,
		contracts.DimensionTechnical,
		contracts.DimensionRobustness,
		contracts.DimensionContext,
		contracts.DimensionContextMomentum,
		contracts.DimensionNews,
	}
}

// unitTo100 rescales [-1, 1] onto [0, 100]
func unitTo100(v float64) float64 {
	return (contracts.ClampUnit(v) + 1) * 50
}
