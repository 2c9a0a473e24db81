package contracts

import "time"

// EventRisk describes a scheduled earnings/news event near the scoring date
type EventRisk struct {
	Name        string    `json:"name"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// InstrumentInput is the read-only per-instrument snapshot handed to a worker
type InstrumentInput struct {
	ID     string                        `json:"id"`
	Series map[Timeframe]TimeframeSeries `json:"series"`

	// Optional inputs: nil means "not supplied", never a default value
	NewsSentiment *float64       `json:"news_sentiment,omitempty"` // -1 ~ 1
	Calendar      *CalendarClass `json:"calendar,omitempty"`
	EventRisk     *EventRisk     `json:"event_risk,omitempty"`
}

// Has checks if a series for the timeframe is present and non-empty
func (in *InstrumentInput) Has(tf Timeframe) bool {
	s, ok := in.Series[tf]
	return ok && len(s.Bars) > 0
}

// BatchRequest is the input of one scoring run
type BatchRequest struct {
	AsOf        time.Time          `json:"as_of"`
	Instruments []InstrumentInput  `json:"instruments"`
	RankBy      RankBy             `json:"rank_by"`
	Calendar    *CalendarClass     `json:"calendar,omitempty"`  // applies when an instrument has none
	WinRates    map[string]float64 `json:"win_rates,omitempty"` // pattern label → backtested win rate
}

// Universe returns the instrument ids in request order
func (r *BatchRequest) Universe() []string {
	ids := make([]string, len(r.Instruments))
	for i, in := range r.Instruments {
		ids[i] = in.ID
	}
	return ids
}
