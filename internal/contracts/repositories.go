package contracts

import (
	"context"
	"time"
)

// ⭐ SSOT: Repository 인터페이스 정의는 여기서만

// BarSource supplies already-acquired bars for a set of instruments.
// Acquisition itself (providers, caching, rate limits) lives outside this module.
type BarSource interface {
	LoadSeries(ctx context.Context, instrument string, tf Timeframe, interval string, limit int, asOf time.Time) (TimeframeSeries, error)
	ListInstruments(ctx context.Context, asOf time.Time) ([]string, error)
}

// OpportunityLogger receives one record per emitted Signal for later outcome tracking
type OpportunityLogger interface {
	LogOpportunities(ctx context.Context, opps []Opportunity) error
}

// Evaluation is the per-instrument state kept between runs for momentum
type Evaluation struct {
	Instrument     string    `json:"instrument"`
	EvaluatedAt    time.Time `json:"evaluated_at"`
	FiltersPassed  int       `json:"filters_passed"`
	ContextValue   float64   `json:"context_value"`
	CompositeValue float64   `json:"composite_value"`
}

// HistorySnapshot is the read-only prior-evaluation view handed to workers
type HistorySnapshot map[string]Evaluation

// Prior returns the previous evaluation for the instrument, if any
func (h HistorySnapshot) Prior(instrument string) (Evaluation, bool) {
	ev, ok := h[instrument]
	return ev, ok
}

// HistoryStore persists the last evaluation per instrument.
// Load returns a snapshot; Save is only called after a batch completes.
type HistoryStore interface {
	Load(ctx context.Context, instruments []string) (HistorySnapshot, error)
	Save(ctx context.Context, evaluations []Evaluation) error
}
