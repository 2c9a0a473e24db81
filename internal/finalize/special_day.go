package finalize

import (
	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// Adjustment is the special-day outcome applied to a signal
type Adjustment struct {
	Class            contracts.CalendarClass
	Confidence       contracts.ConfidenceValue
	PositionFraction float64
}

// SpecialDayAdjuster implements S7: calendar class → confidence/position multipliers
// 순수 룩업, 상태 없음
type SpecialDayAdjuster struct {
	table        strategyconfig.SpecialDay
	baseFraction float64
	logger       *logger.Logger
}

// NewSpecialDayAdjuster creates a new special-day adjuster
func NewSpecialDayAdjuster(table strategyconfig.SpecialDay, position strategyconfig.Position, log *logger.Logger) *SpecialDayAdjuster {
	return &SpecialDayAdjuster{
		table:        table,
		baseFraction: position.BaseFraction,
		logger:       log,
	}
}

// Adjust scales confidence and the base position fraction by the class multipliers.
// An unknown class is treated as ordinary.
func (a *SpecialDayAdjuster) Adjust(class contracts.CalendarClass, conf contracts.ConfidenceValue) Adjustment {
	if class == "" {
		class = contracts.CalendarOrdinary
	}
	mult, ok := a.table.For(class)
	if !ok {
		a.logger.WithFields(map[string]interface{}{
			"stage": contracts.StageSpecialDay.ShortName(),
			"class": class,
		}).Warn("Unknown calendar class, treating as ordinary")
		class = contracts.CalendarOrdinary
		mult = a.table.Ordinary
	}

	adjusted := conf
	adjusted.Value = contracts.Clamp(conf.Value*mult.Confidence, 0, 100)
	adjusted.SpecialDayMult = mult.Confidence

	return Adjustment{
		Class:            class,
		Confidence:       adjusted,
		PositionFraction: contracts.Clamp(a.baseFraction*mult.Position, 0, 1),
	}
}
