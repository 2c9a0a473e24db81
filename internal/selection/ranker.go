package selection

import (
	"sort"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// Ranker orders emitted signals once every instrument has finished
// ⭐ SSOT: 랭킹 로직은 여기서만
type Ranker struct {
	logger *logger.Logger
}

// NewRanker creates a new ranker
func NewRanker(logger *logger.Logger) *Ranker {
	return &Ranker{
		logger: logger,
	}
}

// Rank sorts signals descending by the requested key and assigns 1-based ranks.
// Ties break on instrument id so the order is reproducible.
func (r *Ranker) Rank(signals []contracts.Signal, by contracts.RankBy) []contracts.RankedSignal {
	ranked := make([]contracts.RankedSignal, 0, len(signals))
	for _, s := range signals {
		ranked = append(ranked, contracts.RankedSignal{Signal: s})
	}

	key := keyFunc(by)
	sort.SliceStable(ranked, func(i, j int) bool {
		ki, kj := key(ranked[i].Signal), key(ranked[j].Signal)
		if ki != kj {
			return ki > kj
		}
		return ranked[i].Signal.Instrument < ranked[j].Signal.Instrument
	})

	// Assign ranks
	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	if len(ranked) > 0 {
		r.logger.WithFields(map[string]interface{}{
			"rank_by":   by,
			"total":     len(ranked),
			"top_score": key(ranked[0].Signal),
			"top":       ranked[0].Signal.Instrument,
		}).Info("Ranking completed")
	}

	return ranked
}

// keyFunc returns the sort key; composite ranks by strength in either direction
func keyFunc(by contracts.RankBy) func(contracts.Signal) float64 {
	if by == contracts.RankByComposite {
		return func(s contracts.Signal) float64 {
			if s.Composite.Value < 0 {
				return -s.Composite.Value
			}
			return s.Composite.Value
		}
	}
	return func(s contracts.Signal) float64 {
		return s.Master.Value
	}
}

var _ contracts.Ranker = (*Ranker)(nil)
