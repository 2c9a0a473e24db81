package contracts

import "time"

// RankBy selects the key used to order emitted signals
type RankBy string

const (
	RankByComposite RankBy = "composite"
	RankByMaster    RankBy = "master"
)

// RankedSignal is a Signal with its 1-based position in the run
// ⭐ SSOT: 랭킹 결과 전달
type RankedSignal struct {
	Rank   int    `json:"rank"`
	Signal Signal `json:"signal"`
}

// IsTopRanked checks if the signal is in top N ranks
func (r *RankedSignal) IsTopRanked(n int) bool {
	return r.Rank <= n && r.Rank > 0
}

// SkippedInstrument is an instrument that produced no Signal, with its reason code
type SkippedInstrument struct {
	Instrument string     `json:"instrument"`
	Reason     SkipReason `json:"reason"`
	Detail     string     `json:"detail,omitempty"`
}

// BatchResult is the complete output of one scoring run
type BatchResult struct {
	RunID      string              `json:"run_id"`
	AsOf       time.Time           `json:"as_of"`
	RankBy     RankBy              `json:"rank_by"`
	ConfigHash string              `json:"config_hash"`
	Signals    []RankedSignal      `json:"signals"`
	Skipped    []SkippedInstrument `json:"skipped"`
	Cancelled  bool                `json:"cancelled"`
	Duration   time.Duration       `json:"duration"`
}

// Count returns the number of emitted signals
func (b *BatchResult) Count() int {
	return len(b.Signals)
}

// Top returns at most n signals from the head of the ranking
func (b *BatchResult) Top(n int) []RankedSignal {
	if n > len(b.Signals) {
		n = len(b.Signals)
	}
	return b.Signals[:n]
}

// SkippedByReason counts skipped instruments per reason code
func (b *BatchResult) SkippedByReason() map[SkipReason]int {
	counts := make(map[SkipReason]int)
	for _, s := range b.Skipped {
		counts[s.Reason]++
	}
	return counts
}

// Opportunity is the outcome-logging record emitted for each Signal
type Opportunity struct {
	ID               string        `json:"id"`
	RunID            string        `json:"run_id"`
	Instrument       string        `json:"instrument"`
	Timestamp        time.Time     `json:"timestamp"`
	Direction        Direction     `json:"direction"`
	Pattern          string        `json:"pattern"`
	EntryPrice       float64       `json:"entry_price"`
	Composite        float64       `json:"composite"`
	Confidence       float64       `json:"confidence"`
	Robustness       float64       `json:"robustness"`
	RobustnessMom    float64       `json:"robustness_momentum"`
	Context          float64       `json:"context"`
	ContextMomentum  float64       `json:"context_momentum"`
	MasterScore      float64       `json:"master_score"`
	Tier             Tier          `json:"tier"`
	SpecialDay       CalendarClass `json:"special_day"`
	PositionFraction float64       `json:"position_fraction"`
	FilterFailures   []string      `json:"filter_failures"`
	ConfigHash       string        `json:"config_hash"`
}

// NewOpportunity flattens a Signal into an opportunity record
func NewOpportunity(id, runID string, s Signal) Opportunity {
	return Opportunity{
		ID:               id,
		RunID:            runID,
		Instrument:       s.Instrument,
		Timestamp:        s.Timestamp,
		Direction:        s.Direction,
		Pattern:          s.Pattern,
		EntryPrice:       s.EntryPrice,
		Composite:        s.Composite.Value,
		Confidence:       s.Confidence.Value,
		Robustness:       s.Robustness.Score,
		RobustnessMom:    s.Robustness.Momentum,
		Context:          s.Context.Value,
		ContextMomentum:  s.Context.Momentum,
		MasterScore:      s.Master.Value,
		Tier:             s.Master.Tier,
		SpecialDay:       s.SpecialDay,
		PositionFraction: s.PositionFraction,
		FilterFailures:   s.Robustness.FailureReasons(),
		ConfigHash:       s.ConfigHash,
	}
}
