package contracts

// FilterID identifies one of the seven robustness filters
type FilterID string

const (
	FilterMarketRegime       FilterID = "market_regime"
	FilterVolumeConfirmation FilterID = "volume_confirmation"
	FilterTimeOfDay          FilterID = "time_of_day"
	FilterLiquidity          FilterID = "liquidity"
	FilterEventSafety        FilterID = "event_safety"
	FilterTimeframeAlignment FilterID = "timeframe_alignment"
	FilterExpectancy         FilterID = "expectancy"
)

// FilterCount is the fixed denominator of the robustness score
const FilterCount = 7

// AllFilters returns filters in evaluation order
func AllFilters() []FilterID {
	return []FilterID{
		FilterMarketRegime,
		FilterVolumeConfirmation,
		FilterTimeOfDay,
		FilterLiquidity,
		FilterEventSafety,
		FilterTimeframeAlignment,
		FilterExpectancy,
	}
}

// FailureReason is the diagnostic code of a failed filter
type FailureReason string

const (
	ReasonNone              FailureReason = ""
	ReasonMissingInput      FailureReason = "missing_input"
	ReasonTrendTooWeak      FailureReason = "trend_too_weak"
	ReasonVolumeBelowBand   FailureReason = "volume_below_band"
	ReasonVolumeAboveBand   FailureReason = "volume_above_band"
	ReasonOutsideWindow     FailureReason = "outside_trading_window"
	ReasonIlliquid          FailureReason = "illiquid"
	ReasonRecentVolumeSpike FailureReason = "recent_volume_spike"
	ReasonMisaligned        FailureReason = "timeframes_misaligned"
	ReasonLowExpectancy     FailureReason = "expectancy_below_min"
)

// FilterResult is the outcome of one robustness filter
type FilterResult struct {
	Filter FilterID      `json:"filter"`
	Passed bool          `json:"passed"`
	Reason FailureReason `json:"reason,omitempty"`
	Detail string        `json:"detail,omitempty"`
}

// RobustnessReport aggregates the seven filters.
// Score = passed/7*100 exactly, no partial credit.
type RobustnessReport struct {
	Score    float64        `json:"score"`    // 0 ~ 100
	Passed   int            `json:"passed"`   // 0 ~ 7
	Momentum float64        `json:"momentum"` // -1 ~ 1
	Results  []FilterResult `json:"results"`
}

// FailureReasons returns "filter:reason" codes for every failed filter, in order
func (r RobustnessReport) FailureReasons() []string {
	reasons := make([]string, 0)
	for _, res := range r.Results {
		if !res.Passed {
			reasons = append(reasons, string(res.Filter)+":"+string(res.Reason))
		}
	}
	return reasons
}

// AllPassed checks if every filter passed
func (r RobustnessReport) AllPassed() bool {
	return r.Passed == FilterCount
}
