package strategyconfig

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

var (
	fieldValidator = newFieldValidator()
	hhmmPattern    = regexp.MustCompile(`^\d{2}:\d{2}$`)
)

// newFieldValidator reports fields by their YAML path instead of Go names
func newFieldValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === 필드 범위 (struct tag) ===
	if err := fieldValidator.Struct(cfg); err != nil {
		return toValidationError(err)
	}

	// === Meta ===
	if _, err := time.LoadLocation(cfg.Meta.Timezone); err != nil {
		return ValidationError{"meta.timezone", err.Error()}
	}

	// === Modes ===
	for _, name := range []string{"intraday", "swing", "positional"} {
		profile, _ := cfg.Modes.Profile(name)
		if err := validateWeightsSum([]float64{profile.Short, profile.Medium, profile.Long}, 1.0, 1e-6); err != nil {
			return ValidationError{"modes." + name, err.Error()}
		}
	}

	// === Indicators ===
	ind := cfg.Indicators
	if ind.EMAFast >= ind.EMASlow {
		return ValidationError{"indicators", "ema_fast must be < ema_slow"}
	}
	if ind.MACDFast >= ind.MACDSlow {
		return ValidationError{"indicators", "macd_fast must be < macd_slow"}
	}
	if ind.SMAShort >= ind.SMALong {
		return ValidationError{"indicators", "sma_short must be < sma_long"}
	}

	// === Scoring ===
	if err := validateWeightsSum(cfg.Scoring.Weights.Values(), 1.0, 1e-6); err != nil {
		return ValidationError{"scoring.weights", err.Error()}
	}

	// === Confidence ===
	c := cfg.Confidence
	if err := validateWeightsSum([]float64{c.AgreementWeight, c.MomentumWeight, c.VolumeWeight}, 1.0, 1e-6); err != nil {
		return ValidationError{"confidence", "pillar weights " + err.Error()}
	}

	// === Robustness ===
	r := cfg.Robustness
	if r.VolumeRatioMin >= r.VolumeRatioMax {
		return ValidationError{"robustness", "volume_ratio_min must be < volume_ratio_max"}
	}
	if err := validateHHMM(r.TradingWindow.Start); err != nil {
		return ValidationError{"robustness.trading_window.start", err.Error()}
	}
	if err := validateHHMM(r.TradingWindow.End); err != nil {
		return ValidationError{"robustness.trading_window.end", err.Error()}
	}
	startTime, _ := time.Parse("15:04", r.TradingWindow.Start)
	endTime, _ := time.Parse("15:04", r.TradingWindow.End)
	if !startTime.Before(endTime) {
		return ValidationError{"robustness.trading_window", "start must be before end"}
	}

	// === Context ===
	if cfg.Context.LowRiskATRPct >= cfg.Context.HighRiskATRPct {
		return ValidationError{"context", "low_risk_atr_pct must be < high_risk_atr_pct"}
	}

	// === Master ===
	if cfg.Master.WeightsPct.Sum() != 100 {
		return ValidationError{"master.weights_pct", fmt.Sprintf("must sum to 100, got %d", cfg.Master.WeightsPct.Sum())}
	}
	t := cfg.Master.Tiers
	if !(t.Fair < t.Good && t.Good < t.Strong) {
		return ValidationError{"master.tiers", "must satisfy fair < good < strong"}
	}

	// === Calendar ===
	if cfg.Calendar.WeeklyExpiryWeekday != "" {
		if _, err := ParseWeekday(cfg.Calendar.WeeklyExpiryWeekday); err != nil {
			return ValidationError{"calendar.weekly_expiry_weekday", err.Error()}
		}
	}
	if _, err := ParseWeekday(cfg.Calendar.MonthlyExpiryWeekday); err != nil {
		return ValidationError{"calendar.monthly_expiry_weekday", err.Error()}
	}

	// === Pool ===
	if cfg.Pool.MinWorkers > cfg.Pool.MaxWorkers {
		return ValidationError{"pool", "min_workers must be <= max_workers"}
	}

	return nil
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	// 거래량 밴드가 너무 좁으면 필터 통과가 거의 불가능
	if cfg.Robustness.VolumeRatioMax-cfg.Robustness.VolumeRatioMin < 0.1 {
		warnings = append(warnings, Warning{
			Code:    "NARROW_VOLUME_BAND",
			Message: "volume ratio band < 0.1: 거래량 필터가 거의 통과하지 않음",
		})
	}

	// veto 정책은 필터 하나만 실패해도 시그널 제외
	if cfg.Robustness.Policy == "veto" {
		warnings = append(warnings, Warning{
			Code:    "ROBUSTNESS_VETO",
			Message: "robustness policy=veto: 7개 필터 전부 통과한 종목만 시그널 생성",
		})
	}

	if cfg.Persistence.ConfirmBars > 5 {
		warnings = append(warnings, Warning{
			Code:    "SLOW_CONFIRMATION",
			Message: "confirm_bars > 5: 시그널 확정 지연",
		})
	}

	if cfg.Robustness.WinRateMin < 0.5 {
		warnings = append(warnings, Warning{
			Code:    "LOW_WIN_RATE",
			Message: "win_rate_min < 50%: 기대값 필터가 음의 기대값 패턴을 통과시킴",
		})
	}

	return warnings
}

// ParseWeekday parses an English weekday name (case-insensitive)
func ParseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// === Helper Functions ===

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]

	// "Config.robustness.adx_min" → "robustness.adx_min"
	field := fe.Namespace()
	if idx := strings.Index(field, "."); idx >= 0 {
		field = field[idx+1:]
	}

	msg := "failed " + fe.Tag()
	if fe.Param() != "" {
		msg += "=" + fe.Param()
	}
	return ValidationError{field, fmt.Sprintf("%s (got %v)", msg, fe.Value())}
}

func validateHHMM(s string) error {
	if !hhmmPattern.MatchString(s) {
		return errors.New("must be HH:MM format")
	}
	_, err := time.Parse("15:04", s)
	return err
}

func validateWeightsSum(weights []float64, target float64, epsilon float64) error {
	if len(weights) == 0 {
		return errors.New("must not be empty")
	}
	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	if math.Abs(sum-target) > epsilon {
		return fmt.Errorf("must sum to %.2f, got %.4f", target, sum)
	}
	return nil
}
