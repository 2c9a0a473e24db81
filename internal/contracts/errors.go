package contracts

import (
	"errors"
	"fmt"
)

// DataInsufficientError is returned when a series is shorter than the largest lookback
type DataInsufficientError struct {
	Instrument string
	Timeframe  Timeframe
	Required   int
	Available  int
}

func (e *DataInsufficientError) Error() string {
	return fmt.Sprintf("insufficient data for %s/%s: need %d bars, have %d",
		e.Instrument, e.Timeframe, e.Required, e.Available)
}

// InvalidInputError is returned for malformed or out-of-range bar fields
type InvalidInputError struct {
	Instrument string
	Timeframe  Timeframe
	Index      int
	Field      string
	Reason     string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input for %s/%s bar[%d].%s: %s",
		e.Instrument, e.Timeframe, e.Index, e.Field, e.Reason)
}

// FilterEvaluationError marks a robustness filter whose required input is absent.
// The filter is recorded as failed, it is never dropped from the denominator.
type FilterEvaluationError struct {
	Filter FilterID
	Field  string
}

func (e *FilterEvaluationError) Error() string {
	return fmt.Sprintf("filter %s: required input %q is missing", e.Filter, e.Field)
}

// SkipReason is the reason code attached to an instrument that produced no Signal
type SkipReason string

const (
	SkipDataInsufficient  SkipReason = "DATA_INSUFFICIENT"
	SkipInvalidInput      SkipReason = "INVALID_INPUT"
	SkipNoPattern         SkipReason = "NO_PATTERN"
	SkipPersistenceFailed SkipReason = "PERSISTENCE_FAILED"
	SkipRobustnessVeto    SkipReason = "ROBUSTNESS_VETO"
	SkipCancelled         SkipReason = "CANCELLED"
	SkipInternal          SkipReason = "INTERNAL_ERROR"
)

// SkipError carries a skip decision that is not a data error (no pattern, veto, ...)
type SkipError struct {
	Reason SkipReason
	Detail string
}

func (e *SkipError) Error() string {
	if e.Detail == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Detail)
}

// ReasonFor maps a per-instrument error onto its skip reason code
func ReasonFor(err error) SkipReason {
	var insufficient *DataInsufficientError
	var invalid *InvalidInputError
	var skip *SkipError

	switch {
	case errors.As(err, &insufficient):
		return SkipDataInsufficient
	case errors.As(err, &invalid):
		return SkipInvalidInput
	case errors.As(err, &skip):
		return skip.Reason
	default:
		return SkipInternal
	}
}
