package s3_robustness

import (
	"fmt"

	"github.com/wonny/aegis-signal/internal/contracts"
)

// =============================================================================
// Filters (평가 순서 = contracts.AllFilters)
// =============================================================================

func pass(id contracts.FilterID) contracts.FilterResult {
	return contracts.FilterResult{Filter: id, Passed: true}
}

func fail(id contracts.FilterID, reason contracts.FailureReason, format string, args ...interface{}) contracts.FilterResult {
	return contracts.FilterResult{
		Filter: id,
		Passed: false,
		Reason: reason,
		Detail: fmt.Sprintf(format, args...),
	}
}

func missing(id contracts.FilterID, field string) contracts.FilterResult {
	err := &contracts.FilterEvaluationError{Filter: id, Field: field}
	return contracts.FilterResult{
		Filter: id,
		Passed: false,
		Reason: contracts.ReasonMissingInput,
		Detail: err.Error(),
	}
}

// marketRegime: ADX strictly above the trend-strength threshold
func (p *Pipeline) marketRegime(in Input) contracts.FilterResult {
	id := contracts.FilterMarketRegime
	if in.Snapshot == nil {
		return missing(id, "snapshot")
	}
	if in.Snapshot.ADX <= p.cfg.ADXMin {
		return fail(id, contracts.ReasonTrendTooWeak, "adx %.2f <= %.2f", in.Snapshot.ADX, p.cfg.ADXMin)
	}
	return pass(id)
}

// volumeConfirmation: latest volume within [min, max] multiple of its rolling average
func (p *Pipeline) volumeConfirmation(in Input) contracts.FilterResult {
	id := contracts.FilterVolumeConfirmation
	if in.Snapshot == nil {
		return missing(id, "snapshot")
	}
	ratio := in.Snapshot.VolumeRatio
	switch {
	case ratio < p.cfg.VolumeRatioMin:
		return fail(id, contracts.ReasonVolumeBelowBand, "volume ratio %.2f < %.2f", ratio, p.cfg.VolumeRatioMin)
	case ratio > p.cfg.VolumeRatioMax:
		return fail(id, contracts.ReasonVolumeAboveBand, "volume ratio %.2f > %.2f", ratio, p.cfg.VolumeRatioMax)
	}
	return pass(id)
}

// timeOfDay: latest bar timestamp inside the liquid trading window (exchange time)
func (p *Pipeline) timeOfDay(in Input) contracts.FilterResult {
	id := contracts.FilterTimeOfDay
	if in.Snapshot == nil || in.Snapshot.Timestamp.IsZero() {
		return missing(id, "timestamp")
	}
	local := in.Snapshot.Timestamp.In(p.loc)
	minute := local.Hour()*60 + local.Minute()
	if minute < p.windowStart || minute > p.windowEnd {
		return fail(id, contracts.ReasonOutsideWindow, "%s outside %s-%s",
			local.Format("15:04"), p.cfg.TradingWindow.Start, p.cfg.TradingWindow.End)
	}
	return pass(id)
}

// liquidity: rolling average volume at or above the minimum
func (p *Pipeline) liquidity(in Input) contracts.FilterResult {
	id := contracts.FilterLiquidity
	if in.Snapshot == nil {
		return missing(id, "snapshot")
	}
	if in.Snapshot.AvgVolume < p.cfg.MinAvgVolume {
		return fail(id, contracts.ReasonIlliquid, "avg volume %.0f < %.0f", in.Snapshot.AvgVolume, p.cfg.MinAvgVolume)
	}
	return pass(id)
}

// eventSafety: no bar in the recent lookback spiked above the configured multiple
func (p *Pipeline) eventSafety(in Input) contracts.FilterResult {
	id := contracts.FilterEventSafety
	if in.Snapshot == nil || len(in.Snapshot.VolumeRatios) == 0 {
		return missing(id, "volume_ratios")
	}
	spike := in.Snapshot.MaxVolumeRatio(p.cfg.EventLookbackBars)
	if spike > p.cfg.EventSpikeMultiple {
		return fail(id, contracts.ReasonRecentVolumeSpike, "volume spike %.2fx > %.2fx in last %d bars",
			spike, p.cfg.EventSpikeMultiple, p.cfg.EventLookbackBars)
	}
	return pass(id)
}

// timeframeAlignment: close > short MA > long MA for LONG, the mirror for SHORT.
// A neutral direction accepts either ordering.
func (p *Pipeline) timeframeAlignment(in Input) contracts.FilterResult {
	id := contracts.FilterTimeframeAlignment
	if in.Snapshot == nil || in.Snapshot.SMAShort <= 0 || in.Snapshot.SMALong <= 0 {
		return missing(id, "moving_averages")
	}
	s := in.Snapshot
	bullish := s.Close > s.SMAShort && s.SMAShort > s.SMALong
	bearish := s.Close < s.SMAShort && s.SMAShort < s.SMALong

	var aligned bool
	switch in.Direction {
	case contracts.DirectionLong:
		aligned = bullish
	case contracts.DirectionShort:
		aligned = bearish
	default:
		aligned = bullish || bearish
	}
	if !aligned {
		return fail(id, contracts.ReasonMisaligned, "close %.2f sma_short %.2f sma_long %.2f for %s",
			s.Close, s.SMAShort, s.SMALong, in.Direction)
	}
	return pass(id)
}

// expectancy: backtested win rate of the pattern strictly above the minimum
func (p *Pipeline) expectancy(in Input) contracts.FilterResult {
	id := contracts.FilterExpectancy
	if in.WinRates == nil {
		return missing(id, "win_rates")
	}
	rate, ok := in.WinRates[in.Pattern]
	if !ok {
		return missing(id, "win_rates."+in.Pattern)
	}
	if rate <= p.cfg.WinRateMin {
		return fail(id, contracts.ReasonLowExpectancy, "win rate %.2f <= %.2f", rate, p.cfg.WinRateMin)
	}
	return pass(id)
}
