package finalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

func defaultConfig(t *testing.T) *strategyconfig.Config {
	t.Helper()
	cfg, err := strategyconfig.Default()
	require.NoError(t, err)
	return cfg
}

func holds(pattern ...bool) (int, Condition) {
	return len(pattern), func(i int) bool { return pattern[i] }
}

func TestPersistence_Validate(t *testing.T) {
	v := NewPersistenceValidator(defaultConfig(t).Persistence, logger.Nop())

	tests := []struct {
		name    string
		pattern []bool
		state   contracts.PersistenceState
		held    int
	}{
		{"no pattern on latest bar", []bool{true, true, false}, contracts.PersistenceNone, 0},
		{"latest bar only", []bool{false, false, true}, contracts.PersistenceDiscarded, 1},
		{"two consecutive bars", []bool{false, true, true}, contracts.PersistenceConfirmed, 2},
		{"long run", []bool{true, true, true, true, true}, contracts.PersistenceConfirmed, 2},
		{"gap before latest", []bool{true, false, true}, contracts.PersistenceDiscarded, 1},
		{"single bar series", []bool{true}, contracts.PersistenceDiscarded, 1},
		{"empty series", nil, contracts.PersistenceNone, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, cond := holds(tt.pattern...)
			out := v.Validate(n, cond)
			assert.Equal(t, tt.state, out.State)
			assert.Equal(t, tt.held, out.HeldBars)
			assert.Equal(t, 2, out.Required)
			assert.Equal(t, tt.state == contracts.PersistenceConfirmed, Confirmed(out))
		})
	}
}

func TestPersistence_ConfigurableLookback(t *testing.T) {
	v := NewPersistenceValidator(strategyconfig.Persistence{ConfirmBars: 3}, logger.Nop())

	n, cond := holds(false, true, true)
	assert.Equal(t, contracts.PersistenceDiscarded, v.Validate(n, cond).State)

	n, cond = holds(true, true, true)
	assert.Equal(t, contracts.PersistenceConfirmed, v.Validate(n, cond).State)
}

func TestPersistence_CrossoverOnLatestBarOnly(t *testing.T) {
	cfg := defaultConfig(t)
	v := NewPersistenceValidator(cfg.Persistence, logger.Nop())

	// 꾸준한 하락 뒤 마지막 봉에서만 급등 → 골든크로스는 최신 봉에만 존재
	n := 60
	closes := make([]float64, n)
	for i := 0; i < n-1; i++ {
		closes[i] = 100 - 0.5*float64(i)
	}
	closes[n-1] = 120

	cond := CrossoverCondition(closes, cfg.Indicators.EMAFast, cfg.Indicators.EMASlow, contracts.DirectionLong)
	require.True(t, cond(n-1), "crossover must exist on the latest bar")
	require.False(t, cond(n-2), "crossover must not exist on the prior bar")

	out := v.Validate(n, cond)
	assert.Equal(t, contracts.PersistenceDiscarded, out.State)
	assert.False(t, Confirmed(out))
}

func TestPersistence_SustainedTrendConfirms(t *testing.T) {
	cfg := defaultConfig(t)
	v := NewPersistenceValidator(cfg.Persistence, logger.Nop())

	n := 60
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	long := CrossoverCondition(closes, cfg.Indicators.EMAFast, cfg.Indicators.EMASlow, contracts.DirectionLong)
	assert.Equal(t, contracts.PersistenceConfirmed, v.Validate(n, long).State)

	short := CrossoverCondition(closes, cfg.Indicators.EMAFast, cfg.Indicators.EMASlow, contracts.DirectionShort)
	assert.Equal(t, contracts.PersistenceNone, v.Validate(n, short).State)

	neutral := CrossoverCondition(closes, cfg.Indicators.EMAFast, cfg.Indicators.EMASlow, contracts.DirectionNeutral)
	assert.False(t, neutral(n-1))

	// 워밍업 구간은 성립하지 않음
	assert.False(t, long(0))
	assert.False(t, long(n))
}

func TestPatternLabel(t *testing.T) {
	assert.Equal(t, "ema_cross_long", PatternLabel(contracts.DirectionLong))
	assert.Equal(t, "ema_cross_short", PatternLabel(contracts.DirectionShort))
	assert.Empty(t, PatternLabel(contracts.DirectionNeutral))
}

func TestSpecialDay_Adjust(t *testing.T) {
	cfg := defaultConfig(t)
	a := NewSpecialDayAdjuster(cfg.SpecialDay, cfg.Position, logger.Nop())
	base := contracts.ConfidenceValue{Value: 90, Agreement: 0.8, SpecialDayMult: 1}

	tests := []struct {
		class      contracts.CalendarClass
		confidence float64
		position   float64
	}{
		{contracts.CalendarOrdinary, 90, 1.0},
		{contracts.CalendarWeeklyExpiry, 76.5, 0.7},
		{contracts.CalendarMonthlyExpiry, 67.5, 0.5},
		{contracts.CalendarQuarterlyExpiry, 54, 0.3},
		{contracts.CalendarMacroEvent, 63, 0.5},
	}
	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			adj := a.Adjust(tt.class, base)
			assert.Equal(t, tt.class, adj.Class)
			assert.InDelta(t, tt.confidence, adj.Confidence.Value, 1e-9)
			assert.InDelta(t, tt.position, adj.PositionFraction, 1e-9)
			// 나머지 구성요소는 그대로
			assert.Equal(t, 0.8, adj.Confidence.Agreement)
		})
	}

	// 입력 값은 변경되지 않음
	assert.Equal(t, 90.0, base.Value)
}

func TestSpecialDay_UnknownAndEmptyClass(t *testing.T) {
	cfg := defaultConfig(t)
	a := NewSpecialDayAdjuster(cfg.SpecialDay, cfg.Position, logger.Nop())
	base := contracts.ConfidenceValue{Value: 70}

	adj := a.Adjust("triple_witching", base)
	assert.Equal(t, contracts.CalendarOrdinary, adj.Class)
	assert.InDelta(t, 70, adj.Confidence.Value, 1e-9)

	adj = a.Adjust("", base)
	assert.Equal(t, contracts.CalendarOrdinary, adj.Class)
	assert.Equal(t, 1.0, adj.PositionFraction)
}

func TestSpecialDay_BaseFraction(t *testing.T) {
	cfg := defaultConfig(t)
	a := NewSpecialDayAdjuster(cfg.SpecialDay, strategyconfig.Position{BaseFraction: 0.5}, logger.Nop())

	adj := a.Adjust(contracts.CalendarQuarterlyExpiry, contracts.ConfidenceValue{Value: 90})
	assert.InDelta(t, 0.15, adj.PositionFraction, 1e-9)
}

func TestClassifier_Classify(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Calendar.MacroEventDates = []string{"2025-01-16"}
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	c, err := NewClassifier(cfg.Calendar, loc)
	require.NoError(t, err)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 10, 0, 0, 0, loc)
	}

	tests := []struct {
		name string
		at   time.Time
		want contracts.CalendarClass
	}{
		{"second thursday of march", day(2025, time.March, 13), contracts.CalendarQuarterlyExpiry},
		{"second thursday of april", day(2025, time.April, 10), contracts.CalendarMonthlyExpiry},
		{"other thursday", day(2025, time.April, 17), contracts.CalendarWeeklyExpiry},
		{"wednesday", day(2025, time.April, 16), contracts.CalendarOrdinary},
		{"macro date beats weekly", day(2025, time.January, 16), contracts.CalendarMacroEvent},
		{"utc evening is next day in seoul", time.Date(2025, time.March, 12, 16, 0, 0, 0, time.UTC), contracts.CalendarQuarterlyExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.at))
		})
	}
}

func TestClassifier_NoWeeklyExpiry(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Calendar.WeeklyExpiryWeekday = ""

	c, err := NewClassifier(cfg.Calendar, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, contracts.CalendarOrdinary, c.Classify(time.Date(2025, time.April, 17, 10, 0, 0, 0, time.UTC)))
}

func TestClassifier_InvalidRules(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Calendar.MonthlyExpiryWeekday = "Funday"
	_, err := NewClassifier(cfg.Calendar, time.UTC)
	assert.Error(t, err)

	cfg = defaultConfig(t)
	cfg.Calendar.MacroEventDates = []string{"16/01/2025"}
	_, err = NewClassifier(cfg.Calendar, time.UTC)
	assert.Error(t, err)
}

func TestMonthlyExpiry(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		nth   int
		want  int
	}{
		{"2nd thursday mar 2025", 2025, time.March, 2, 13},
		{"1st thursday may 2025", 2025, time.May, 1, 1},
		{"last thursday feb 2025", 2025, time.February, 0, 27},
		{"last thursday jul 2025", 2025, time.July, 0, 31},
		{"last thursday dec 2025", 2025, time.December, 0, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MonthlyExpiry(tt.year, tt.month, time.Thursday, tt.nth, time.UTC)
			assert.Equal(t, tt.month, got.Month())
			assert.Equal(t, tt.want, got.Day())
			assert.Equal(t, time.Thursday, got.Weekday())
		})
	}
}
