package contracts

import (
	"math"
	"time"
)

// Indicator names one bounded feature produced by the indicator extractor
type Indicator string

const (
	IndicatorRSI          Indicator = "rsi"           // momentum oscillator
	IndicatorTrendCross   Indicator = "trend_cross"   // fast/slow EMA crossover state
	IndicatorMACD         Indicator = "macd"          // histogram normalized by ATR
	IndicatorVolumeSurge  Indicator = "volume_surge"  // signed volume surge ratio
	IndicatorStructure    Indicator = "structure"     // higher-high / lower-low quality
	IndicatorBandPosition Indicator = "band_position" // Bollinger %B mapped to [-1,1]
	IndicatorOpeningRange Indicator = "opening_range" // opening range breakout
	IndicatorVWAP         Indicator = "vwap_dev"      // deviation from rolling VWAP
)

// AllIndicators returns the fixed indicator order used for reporting
func AllIndicators() []Indicator {
	return []Indicator{
		IndicatorRSI,
		IndicatorTrendCross,
		IndicatorMACD,
		IndicatorVolumeSurge,
		IndicatorStructure,
		IndicatorBandPosition,
		IndicatorOpeningRange,
		IndicatorVWAP,
	}
}

// MomentumIndicators is the subset used for momentum conviction
func MomentumIndicators() []Indicator {
	return []Indicator{IndicatorRSI, IndicatorMACD, IndicatorTrendCross}
}

// IndicatorSet maps indicator name to a value in [-1, 1]
type IndicatorSet map[Indicator]float64

// Get returns the indicator value, or 0 when absent
func (s IndicatorSet) Get(name Indicator) float64 {
	return s[name]
}

// Clone returns an independent copy
func (s IndicatorSet) Clone() IndicatorSet {
	out := make(IndicatorSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Direction is the directional call of a Signal
type Direction string

const (
	DirectionLong    Direction = "LONG"
	DirectionShort   Direction = "SHORT"
	DirectionNeutral Direction = "NEUTRAL"
)

// Sign returns +1 for LONG, -1 for SHORT, 0 otherwise
func (d Direction) Sign() float64 {
	switch d {
	case DirectionLong:
		return 1
	case DirectionShort:
		return -1
	}
	return 0
}

// TimeframeContribution is one timeframe's share of the composite
type TimeframeContribution struct {
	Score    float64 `json:"score"`    // TimeframeScore (-1.0 ~ 1.0)
	Weight   float64 `json:"weight"`   // effective weight after redistribution
	Weighted float64 `json:"weighted"` // Score * Weight
}

// CompositeScore is the mode-weighted blend of timeframe scores
type CompositeScore struct {
	Value     float64                             `json:"value"` // -1.0 ~ 1.0
	Mode      string                              `json:"mode"`
	Breakdown map[Timeframe]TimeframeContribution `json:"breakdown"`
	Missing   []Timeframe                         `json:"missing,omitempty"`
}

// ConfidenceValue is a 0-100 reliability estimate with its sub-components
type ConfidenceValue struct {
	Value          float64 `json:"value"`            // 0 ~ 100
	Agreement      float64 `json:"agreement"`        // 0 ~ 1
	Momentum       float64 `json:"momentum"`         // 0 ~ 1
	VolumeSupport  float64 `json:"volume_support"`   // 0 ~ 1
	EventPenalty   float64 `json:"event_penalty"`    // points subtracted
	SpecialDayMult float64 `json:"special_day_mult"` // 1.0 on ordinary days
}

// ContextScore is the institutional-context score and its momentum
type ContextScore struct {
	Value    float64 `json:"value"`    // 0 ~ 5
	Momentum float64 `json:"momentum"` // -1 ~ 1
}

// Scaled returns the context value on a 0-100 scale
func (c ContextScore) Scaled() float64 {
	return c.Value * 20
}

// Tier is the interpretation band of a master score
type Tier string

const (
	TierStrong Tier = "STRONG"
	TierGood   Tier = "GOOD"
	TierFair   Tier = "FAIR"
	TierWeak   Tier = "WEAK"
)

// MasterDimension names one of the six master-score inputs
type MasterDimension string

const (
	DimensionConfidence      MasterDimension = "confidence"
	DimensionTechnical       MasterDimension = "technical"
	DimensionRobustness      MasterDimension = "robustness"
	DimensionContext         MasterDimension = "context"
	DimensionContextMomentum MasterDimension = "context_momentum"
	DimensionNews            MasterDimension = "news"
)

// DimensionContribution is one dimension's scaled input and weighted share
type DimensionContribution struct {
	Input     float64 `json:"input"`      // 0 ~ 100
	WeightPct int     `json:"weight_pct"` // integer percent
	Weighted  float64 `json:"weighted"`   // Input * WeightPct / 100
}

// MasterScore is the six-dimension quality/ranking metric.
// It never changes a Signal's direction and never gates emission.
type MasterScore struct {
	Value     float64                                   `json:"value"` // 0 ~ 100
	Tier      Tier                                      `json:"tier"`
	Breakdown map[MasterDimension]DimensionContribution `json:"breakdown"`
}

// CalendarClass is the special-day classification of a trading date
type CalendarClass string

const (
	CalendarOrdinary        CalendarClass = "ordinary"
	CalendarWeeklyExpiry    CalendarClass = "weekly_expiry"
	CalendarMonthlyExpiry   CalendarClass = "monthly_expiry"
	CalendarQuarterlyExpiry CalendarClass = "quarterly_expiry"
	CalendarMacroEvent      CalendarClass = "macro_event"
)

// PersistenceState is the outcome of the persistence state machine
type PersistenceState string

const (
	PersistenceNone      PersistenceState = "NONE"
	PersistenceCandidate PersistenceState = "CANDIDATE"
	PersistenceConfirmed PersistenceState = "CONFIRMED"
	PersistenceDiscarded PersistenceState = "DISCARDED"
)

// PersistenceOutcome records how a candidate pattern was resolved
type PersistenceOutcome struct {
	State    PersistenceState `json:"state"`
	HeldBars int              `json:"held_bars"` // consecutive bars ending at the latest bar
	Required int              `json:"required"`
}

// Signal is the immutable per-instrument scoring result.
// Re-scoring produces a new Signal; NewSignal copies every map it is given.
type Signal struct {
	Instrument       string             `json:"instrument"`
	Timestamp        time.Time          `json:"timestamp"`
	Direction        Direction          `json:"direction"`
	Pattern          string             `json:"pattern"`
	EntryPrice       float64            `json:"entry_price"`
	Composite        CompositeScore     `json:"composite"`
	Confidence       ConfidenceValue    `json:"confidence"`
	Robustness       RobustnessReport   `json:"robustness"`
	Context          ContextScore       `json:"context"`
	Master           MasterScore        `json:"master"`
	Indicators       IndicatorSet       `json:"indicators"` // blended across timeframes
	SpecialDay       CalendarClass      `json:"special_day"`
	IsSpecialDay     bool               `json:"is_special_day"`
	PositionFraction float64            `json:"position_fraction"`
	Persistence      PersistenceOutcome `json:"persistence"`
	ConfigHash       string             `json:"config_hash,omitempty"`
}

// NewSignal builds a Signal that shares no mutable state with its inputs
func NewSignal(s Signal) Signal {
	out := s

	out.Composite.Breakdown = make(map[Timeframe]TimeframeContribution, len(s.Composite.Breakdown))
	for k, v := range s.Composite.Breakdown {
		out.Composite.Breakdown[k] = v
	}
	out.Composite.Missing = append([]Timeframe(nil), s.Composite.Missing...)

	out.Robustness.Results = append([]FilterResult(nil), s.Robustness.Results...)

	out.Master.Breakdown = make(map[MasterDimension]DimensionContribution, len(s.Master.Breakdown))
	for k, v := range s.Master.Breakdown {
		out.Master.Breakdown[k] = v
	}

	out.Indicators = s.Indicators.Clone()
	out.IsSpecialDay = s.SpecialDay != "" && s.SpecialDay != CalendarOrdinary
	return out
}

// Clamp bounds v to [lo, hi]; NaN resolves to the midpoint-neutral 0 clamped into range
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit bounds v to [-1, 1]
func ClampUnit(v float64) float64 {
	return Clamp(v, -1, 1)
}
