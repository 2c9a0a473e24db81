package finalize

import (
	"github.com/markcheno/go-talib"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// Condition reports whether the pattern's defining condition holds at bar i
type Condition func(i int) bool

// PersistenceValidator implements S6: CANDIDATE → CONFIRMED | DISCARDED
// ⭐ SSOT: 패턴 지속성 판정은 여기서만
type PersistenceValidator struct {
	confirmBars int
	logger      *logger.Logger
}

// NewPersistenceValidator creates a new persistence validator
func NewPersistenceValidator(cfg strategyconfig.Persistence, log *logger.Logger) *PersistenceValidator {
	return &PersistenceValidator{
		confirmBars: cfg.ConfirmBars,
		logger:      log,
	}
}

// Validate runs the state machine over the last n bars.
//
//	latest bar fails            → NONE (no candidate)
//	held < confirmBars          → DISCARDED
//	held >= confirmBars         → CONFIRMED
func (v *PersistenceValidator) Validate(n int, cond Condition) contracts.PersistenceOutcome {
	out := contracts.PersistenceOutcome{
		State:    contracts.PersistenceNone,
		Required: v.confirmBars,
	}
	if n <= 0 || !cond(n-1) {
		return out
	}

	// CANDIDATE: 최신 봉에서 패턴 감지, 연속 유지 봉 수 확인
	out.State = contracts.PersistenceCandidate
	for i := n - 1; i >= 0 && cond(i); i-- {
		out.HeldBars++
		if out.HeldBars >= v.confirmBars {
			break
		}
	}

	if out.HeldBars >= v.confirmBars {
		out.State = contracts.PersistenceConfirmed
	} else {
		out.State = contracts.PersistenceDiscarded
	}
	return out
}

// Confirmed checks if the outcome allows emission
func Confirmed(out contracts.PersistenceOutcome) bool {
	return out.State == contracts.PersistenceConfirmed
}

// PatternLabel names the crossover pattern of a direction (win-rate table key)
func PatternLabel(dir contracts.Direction) string {
	switch dir {
	case contracts.DirectionLong:
		return "ema_cross_long"
	case contracts.DirectionShort:
		return "ema_cross_short"
	}
	return ""
}

// CrossoverCondition is the fast/slow EMA ordering in the signal's direction.
// Bars inside the EMA warm-up never hold.
func CrossoverCondition(closes []float64, fast, slow int, dir contracts.Direction) Condition {
	want := dir.Sign()
	if want == 0 || len(closes) < slow {
		return func(int) bool { return false }
	}
	fastEMA := talib.Ema(closes, fast)
	slowEMA := talib.Ema(closes, slow)
	warmup := slow - 1

	return func(i int) bool {
		if i < warmup || i >= len(closes) {
			return false
		}
		return (fastEMA[i]-slowEMA[i])*want > 0
	}
}
