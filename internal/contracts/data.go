package contracts

import (
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
)

// Timeframe identifies one of the three bar intervals scored per instrument
type Timeframe string

const (
	TimeframeShort  Timeframe = "short"
	TimeframeMedium Timeframe = "medium"
	TimeframeLong   Timeframe = "long"
)

// AllTimeframes returns timeframes in blend order (short → long)
func AllTimeframes() []Timeframe {
	return []Timeframe{TimeframeShort, TimeframeMedium, TimeframeLong}
}

// IsValid checks if the timeframe is one of the known intervals
func (t Timeframe) IsValid() bool {
	switch t {
	case TimeframeShort, TimeframeMedium, TimeframeLong:
		return true
	}
	return false
}

// PriceBar is one OHLCV bar supplied by the acquisition side
// ⭐ SSOT: 바 데이터 구조는 여기서만 정의
type PriceBar struct {
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Open      float64   `json:"open" validate:"gt=0"`
	High      float64   `json:"high" validate:"gt=0,gtefield=Low"`
	Low       float64   `json:"low" validate:"gt=0"`
	Close     float64   `json:"close" validate:"gt=0"`
	Volume    float64   `json:"volume" validate:"gte=0"`
}

// consistency checks what struct tags cannot: finite values and open/close inside [low, high].
// Returns the offending field and reason, or "" when the bar is sound.
func (b PriceBar) consistency() (string, string) {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"Open", b.Open}, {"High", b.High}, {"Low", b.Low}, {"Close", b.Close}, {"Volume", b.Volume},
	} {
		if math.IsInf(f.value, 0) || math.IsNaN(f.value) {
			return f.name, fmt.Sprintf("must be finite (value %v)", f.value)
		}
	}
	if b.Open < b.Low || b.Open > b.High {
		return "Open", fmt.Sprintf("outside [low, high] (%v not in [%v, %v])", b.Open, b.Low, b.High)
	}
	if b.Close < b.Low || b.Close > b.High {
		return "Close", fmt.Sprintf("outside [low, high] (%v not in [%v, %v])", b.Close, b.Low, b.High)
	}
	return "", ""
}

// TrueRange returns high-low for the bar (no gap adjustment)
func (b PriceBar) TrueRange() float64 {
	return b.High - b.Low
}

// TimeframeSeries is an ordered (oldest first) bar sequence for one interval
type TimeframeSeries struct {
	Timeframe Timeframe  `json:"timeframe"`
	Interval  string     `json:"interval,omitempty"` // e.g. "15m", "1h", "1d"
	Bars      []PriceBar `json:"bars"`
}

// Len returns the number of bars
func (s TimeframeSeries) Len() int {
	return len(s.Bars)
}

// Last returns the most recent bar
func (s TimeframeSeries) Last() (PriceBar, bool) {
	if len(s.Bars) == 0 {
		return PriceBar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

// Closes returns close prices in series order
func (s TimeframeSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Highs returns high prices in series order
func (s TimeframeSeries) Highs() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

// Lows returns low prices in series order
func (s TimeframeSeries) Lows() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}

// Volumes returns volumes in series order
func (s TimeframeSeries) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

var barValidator = validator.New()

// Validate checks every bar's fields and strict timestamp ordering.
// Returns *InvalidInputError on the first violation.
func (s TimeframeSeries) Validate(instrument string) error {
	if !s.Timeframe.IsValid() {
		return &InvalidInputError{
			Instrument: instrument,
			Timeframe:  s.Timeframe,
			Field:      "timeframe",
			Reason:     fmt.Sprintf("unknown timeframe %q", s.Timeframe),
		}
	}

	for i, bar := range s.Bars {
		if err := barValidator.Struct(bar); err != nil {
			field, reason := describeValidation(err)
			return &InvalidInputError{
				Instrument: instrument,
				Timeframe:  s.Timeframe,
				Index:      i,
				Field:      field,
				Reason:     reason,
			}
		}
		if field, reason := bar.consistency(); field != "" {
			return &InvalidInputError{
				Instrument: instrument,
				Timeframe:  s.Timeframe,
				Index:      i,
				Field:      field,
				Reason:     reason,
			}
		}

		if i > 0 && !bar.Timestamp.After(s.Bars[i-1].Timestamp) {
			return &InvalidInputError{
				Instrument: instrument,
				Timeframe:  s.Timeframe,
				Index:      i,
				Field:      "timestamp",
				Reason:     "bars must be strictly increasing in time",
			}
		}
	}

	return nil
}

func describeValidation(err error) (string, string) {
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fe.Field(), fmt.Sprintf("failed %s=%s (value %v)", fe.Tag(), fe.Param(), fe.Value())
		}
		return fe.Field(), fmt.Sprintf("failed %s (value %v)", fe.Tag(), fe.Value())
	}
	return "", err.Error()
}
