package finalize

import (
	"fmt"
	"time"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
)

// Classifier derives the special-day class of a trading date when the caller supplies none.
// Priority: macro event > quarterly expiry > monthly expiry > weekly expiry > ordinary.
type Classifier struct {
	weekly         *time.Weekday
	monthlyWeekday time.Weekday
	monthlyNth     int // 0 = last occurrence in the month
	quarterMonths  map[time.Month]bool
	macroDates     map[string]bool
	loc            *time.Location
}

// NewClassifier builds a classifier from calendar rules in the exchange timezone
func NewClassifier(cfg strategyconfig.Calendar, loc *time.Location) (*Classifier, error) {
	if loc == nil {
		loc = time.UTC
	}
	c := &Classifier{
		monthlyNth:    cfg.MonthlyExpiryNth,
		quarterMonths: make(map[time.Month]bool, len(cfg.QuarterMonths)),
		macroDates:    make(map[string]bool, len(cfg.MacroEventDates)),
		loc:           loc,
	}

	if cfg.WeeklyExpiryWeekday != "" {
		wd, err := strategyconfig.ParseWeekday(cfg.WeeklyExpiryWeekday)
		if err != nil {
			return nil, fmt.Errorf("weekly expiry weekday: %w", err)
		}
		c.weekly = &wd
	}

	wd, err := strategyconfig.ParseWeekday(cfg.MonthlyExpiryWeekday)
	if err != nil {
		return nil, fmt.Errorf("monthly expiry weekday: %w", err)
	}
	c.monthlyWeekday = wd

	for _, m := range cfg.QuarterMonths {
		c.quarterMonths[time.Month(m)] = true
	}
	for _, d := range cfg.MacroEventDates {
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return nil, fmt.Errorf("macro event date %q: %w", d, err)
		}
		c.macroDates[d] = true
	}
	return c, nil
}

// Classify returns the calendar class of the date t falls on (exchange time)
func (c *Classifier) Classify(t time.Time) contracts.CalendarClass {
	local := t.In(c.loc)

	if c.macroDates[local.Format("2006-01-02")] {
		return contracts.CalendarMacroEvent
	}
	if c.IsMonthlyExpiry(local) {
		if c.quarterMonths[local.Month()] {
			return contracts.CalendarQuarterlyExpiry
		}
		return contracts.CalendarMonthlyExpiry
	}
	if c.weekly != nil && local.Weekday() == *c.weekly {
		return contracts.CalendarWeeklyExpiry
	}
	return contracts.CalendarOrdinary
}

// IsMonthlyExpiry checks if t is the configured nth (or last) expiry weekday of its month
func (c *Classifier) IsMonthlyExpiry(t time.Time) bool {
	local := t.In(c.loc)
	return sameDay(local, MonthlyExpiry(local.Year(), local.Month(), c.monthlyWeekday, c.monthlyNth, c.loc))
}

// MonthlyExpiry returns the nth weekday of the month, or the last one when nth is 0
func MonthlyExpiry(year int, month time.Month, wd time.Weekday, nth int, loc *time.Location) time.Time {
	if nth <= 0 {
		last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc)
		back := (int(last.Weekday()) - int(wd) + 7) % 7
		return last.AddDate(0, 0, -back)
	}
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	ahead := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, ahead+7*(nth-1))
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
