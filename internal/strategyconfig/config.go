package strategyconfig

import (
	"github.com/wonny/aegis-signal/internal/contracts"
)

// Config는 시그널 스코어링 전략의 전체 설정
// ⭐ SSOT: 모든 임계값은 여기서만 정의 (코드 내 매직넘버 금지)
type Config struct {
	Meta        Meta        `yaml:"meta" json:"meta"`
	Mode        string      `yaml:"mode" json:"mode" default:"swing" validate:"oneof=intraday swing positional"`
	Modes       Modes       `yaml:"modes" json:"modes"`
	Indicators  Indicators  `yaml:"indicators" json:"indicators"`
	Scoring     Scoring     `yaml:"scoring" json:"scoring"`
	Confidence  Confidence  `yaml:"confidence" json:"confidence"`
	Robustness  Robustness  `yaml:"robustness" json:"robustness"`
	Context     Context     `yaml:"context" json:"context"`
	Master      Master      `yaml:"master" json:"master"`
	Persistence Persistence `yaml:"persistence" json:"persistence"`
	SpecialDay  SpecialDay  `yaml:"special_day" json:"special_day"`
	Calendar    Calendar    `yaml:"calendar" json:"calendar"`
	Position    Position    `yaml:"position" json:"position"`
	Pool        Pool        `yaml:"pool" json:"pool"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id" default:"aegis_signal_v1" validate:"required"`
	Version    string `yaml:"version" json:"version" default:"1.0.0"`
	Timezone   string `yaml:"timezone" json:"timezone" default:"Asia/Seoul" validate:"required"`
}

type Window struct {
	Start string `yaml:"start" json:"start"` // HH:MM
	End   string `yaml:"end" json:"end"`     // HH:MM
}

// ModeProfile is the blend weight triple and primary timeframe of one trading mode
type ModeProfile struct {
	Short   float64             `yaml:"short" json:"short" validate:"gte=0,lte=1"`
	Medium  float64             `yaml:"medium" json:"medium" validate:"gte=0,lte=1"`
	Long    float64             `yaml:"long" json:"long" validate:"gte=0,lte=1"`
	Primary contracts.Timeframe `yaml:"primary" json:"primary" validate:"oneof=short medium long"`
}

// Weight returns the configured weight of a timeframe
func (p ModeProfile) Weight(tf contracts.Timeframe) float64 {
	switch tf {
	case contracts.TimeframeShort:
		return p.Short
	case contracts.TimeframeMedium:
		return p.Medium
	case contracts.TimeframeLong:
		return p.Long
	}
	return 0
}

// Sum returns the sum of the weight triple
func (p ModeProfile) Sum() float64 {
	return p.Short + p.Medium + p.Long
}

// Modes 모드 → 가중치 룩업 테이블 (조건 분기 대신 테이블)
type Modes struct {
	Intraday   ModeProfile `yaml:"intraday" json:"intraday"`
	Swing      ModeProfile `yaml:"swing" json:"swing"`
	Positional ModeProfile `yaml:"positional" json:"positional"`
}

// SetDefaults fills profiles left empty by the YAML document
func (m *Modes) SetDefaults() {
	if m.Intraday == (ModeProfile{}) {
		m.Intraday = ModeProfile{Short: 0.6, Medium: 0.3, Long: 0.1, Primary: contracts.TimeframeShort}
	}
	if m.Swing == (ModeProfile{}) {
		m.Swing = ModeProfile{Short: 0.5, Medium: 0.3, Long: 0.2, Primary: contracts.TimeframeMedium}
	}
	if m.Positional == (ModeProfile{}) {
		m.Positional = ModeProfile{Short: 0.2, Medium: 0.3, Long: 0.5, Primary: contracts.TimeframeLong}
	}
}

// Profile looks up a mode by name
func (m Modes) Profile(mode string) (ModeProfile, bool) {
	switch mode {
	case "intraday":
		return m.Intraday, true
	case "swing":
		return m.Swing, true
	case "positional":
		return m.Positional, true
	}
	return ModeProfile{}, false
}

// Indicators S1: 지표 룩백
type Indicators struct {
	RSIPeriod         int     `yaml:"rsi_period" json:"rsi_period" default:"14" validate:"gte=2"`
	EMAFast           int     `yaml:"ema_fast" json:"ema_fast" default:"9" validate:"gte=2"`
	EMASlow           int     `yaml:"ema_slow" json:"ema_slow" default:"21" validate:"gte=2"`
	TrendScalePct     float64 `yaml:"trend_scale_pct" json:"trend_scale_pct" default:"0.02" validate:"gt=0"` // EMA 괴리율 → ±1
	MACDFast          int     `yaml:"macd_fast" json:"macd_fast" default:"12" validate:"gte=2"`
	MACDSlow          int     `yaml:"macd_slow" json:"macd_slow" default:"26" validate:"gte=2"`
	MACDSignal        int     `yaml:"macd_signal" json:"macd_signal" default:"9" validate:"gte=1"`
	ATRPeriod         int     `yaml:"atr_period" json:"atr_period" default:"14" validate:"gte=2"`
	ADXPeriod         int     `yaml:"adx_period" json:"adx_period" default:"14" validate:"gte=2"`
	BandPeriod        int     `yaml:"band_period" json:"band_period" default:"20" validate:"gte=2"`
	BandStdDev        float64 `yaml:"band_stddev" json:"band_stddev" default:"2.0" validate:"gt=0"`
	VolumePeriod      int     `yaml:"volume_period" json:"volume_period" default:"20" validate:"gte=2"`
	StructureLookback int     `yaml:"structure_lookback" json:"structure_lookback" default:"20" validate:"gte=3"`
	VWAPPeriod        int     `yaml:"vwap_period" json:"vwap_period" default:"20" validate:"gte=2"`
	VWAPScalePct      float64 `yaml:"vwap_scale_pct" json:"vwap_scale_pct" default:"0.02" validate:"gt=0"`
	OpeningRangeBars  int     `yaml:"opening_range_bars" json:"opening_range_bars" default:"3" validate:"gte=1"`
	SMAShort          int     `yaml:"sma_short" json:"sma_short" default:"20" validate:"gte=2"`
	SMALong           int     `yaml:"sma_long" json:"sma_long" default:"50" validate:"gte=2"`
}

// MinBars returns the largest lookback any indicator needs
func (i Indicators) MinBars() int {
	need := []int{
		i.RSIPeriod + 1,
		i.EMASlow,
		i.MACDSlow + i.MACDSignal,
		i.ATRPeriod + 1,
		2 * i.ADXPeriod,
		i.BandPeriod,
		i.VolumePeriod + 1,
		i.StructureLookback,
		i.VWAPPeriod,
		i.SMALong,
	}
	max := 0
	for _, n := range need {
		if n > max {
			max = n
		}
	}
	return max
}

// IndicatorWeights 타임프레임 점수용 지표 가중치 (합 = 1.0)
type IndicatorWeights struct {
	RSI          float64 `yaml:"rsi" json:"rsi" default:"0.15" validate:"gte=0"`
	TrendCross   float64 `yaml:"trend_cross" json:"trend_cross" default:"0.20" validate:"gte=0"`
	MACD         float64 `yaml:"macd" json:"macd" default:"0.15" validate:"gte=0"`
	VolumeSurge  float64 `yaml:"volume_surge" json:"volume_surge" default:"0.10" validate:"gte=0"`
	Structure    float64 `yaml:"structure" json:"structure" default:"0.15" validate:"gte=0"`
	BandPosition float64 `yaml:"band_position" json:"band_position" default:"0.10" validate:"gte=0"`
	OpeningRange float64 `yaml:"opening_range" json:"opening_range" default:"0.05" validate:"gte=0"`
	VWAP         float64 `yaml:"vwap_dev" json:"vwap_dev" default:"0.10" validate:"gte=0"`
}

// Of returns the weight of one indicator
func (w IndicatorWeights) Of(name contracts.Indicator) float64 {
	switch name {
	case contracts.IndicatorRSI:
		return w.RSI
	case contracts.IndicatorTrendCross:
		return w.TrendCross
	case contracts.IndicatorMACD:
		return w.MACD
	case contracts.IndicatorVolumeSurge:
		return w.VolumeSurge
	case contracts.IndicatorStructure:
		return w.Structure
	case contracts.IndicatorBandPosition:
		return w.BandPosition
	case contracts.IndicatorOpeningRange:
		return w.OpeningRange
	case contracts.IndicatorVWAP:
		return w.VWAP
	}
	return 0
}

// Values returns weights in contracts.AllIndicators order
func (w IndicatorWeights) Values() []float64 {
	out := make([]float64, 0, 8)
	for _, name := range contracts.AllIndicators() {
		out = append(out, w.Of(name))
	}
	return out
}

// Scoring S2: 타임프레임 점수 및 방향
type Scoring struct {
	Weights     IndicatorWeights `yaml:"weights" json:"weights"`
	NeutralBand float64          `yaml:"neutral_band" json:"neutral_band" default:"0.1" validate:"gte=0,lt=1"`
}

// Confidence 신뢰도 3개 기둥
type Confidence struct {
	Materiality      float64 `yaml:"materiality" json:"materiality" default:"0.3" validate:"gte=0,lt=1"`
	AgreementWeight  float64 `yaml:"agreement_weight" json:"agreement_weight" default:"0.40" validate:"gte=0,lte=1"`
	MomentumWeight   float64 `yaml:"momentum_weight" json:"momentum_weight" default:"0.35" validate:"gte=0,lte=1"`
	VolumeWeight     float64 `yaml:"volume_weight" json:"volume_weight" default:"0.25" validate:"gte=0,lte=1"`
	EventWindowHours int     `yaml:"event_window_hours" json:"event_window_hours" default:"48" validate:"gte=0"`
	EventPenalty     float64 `yaml:"event_penalty" json:"event_penalty" default:"15" validate:"gte=0,lte=100"`
}

// Robustness S3: 7개 필터 임계값
type Robustness struct {
	Policy             string  `yaml:"policy" json:"policy" default:"quality" validate:"oneof=quality veto"`
	ADXMin             float64 `yaml:"adx_min" json:"adx_min" default:"20" validate:"gte=0,lte=100"`
	VolumeRatioMin     float64 `yaml:"volume_ratio_min" json:"volume_ratio_min" default:"1.2" validate:"gt=0"`
	VolumeRatioMax     float64 `yaml:"volume_ratio_max" json:"volume_ratio_max" default:"1.5" validate:"gt=0"`
	TradingWindow      Window  `yaml:"trading_window" json:"trading_window"`
	MinAvgVolume       float64 `yaml:"min_avg_volume" json:"min_avg_volume" default:"100000" validate:"gte=0"`
	EventSpikeMultiple float64 `yaml:"event_spike_multiple" json:"event_spike_multiple" default:"3.0" validate:"gt=1"`
	EventLookbackBars  int     `yaml:"event_lookback_bars" json:"event_lookback_bars" default:"10" validate:"gte=1"`
	WinRateMin         float64 `yaml:"win_rate_min" json:"win_rate_min" default:"0.5" validate:"gte=0,lte=1"`
}

// SetDefaults fills the trading window (KRX 정규장 중 유동성 구간)
func (r *Robustness) SetDefaults() {
	if r.TradingWindow.Start == "" {
		r.TradingWindow.Start = "09:15"
	}
	if r.TradingWindow.End == "" {
		r.TradingWindow.End = "15:00"
	}
}

// Context S4: 기관 컨텍스트 점수
type Context struct {
	Baseline              float64 `yaml:"baseline" json:"baseline" default:"2.5" validate:"gte=0,lte=5"`
	VWAPMaxContribution   float64 `yaml:"vwap_max_contribution" json:"vwap_max_contribution" default:"1.0" validate:"gte=0"`
	VolumeMaxContribution float64 `yaml:"volume_max_contribution" json:"volume_max_contribution" default:"1.0" validate:"gte=0"`
	DivergencePenalty     float64 `yaml:"divergence_penalty" json:"divergence_penalty" default:"0.5" validate:"gte=0"`
	DivergenceLookback    int     `yaml:"divergence_lookback" json:"divergence_lookback" default:"5" validate:"gte=2"`
	TrendingBonus         float64 `yaml:"trending_bonus" json:"trending_bonus" default:"0.25" validate:"gte=0"`
	VolatilePenalty       float64 `yaml:"volatile_penalty" json:"volatile_penalty" default:"0.25" validate:"gte=0"`
	LowRiskBonus          float64 `yaml:"low_risk_bonus" json:"low_risk_bonus" default:"0.1" validate:"gte=0"`
	HighRiskPenalty       float64 `yaml:"high_risk_penalty" json:"high_risk_penalty" default:"0.25" validate:"gte=0"`
	ConfirmationWeight    float64 `yaml:"confirmation_weight" json:"confirmation_weight" default:"0.5" validate:"gte=0"`
	TrendingADX           float64 `yaml:"trending_adx" json:"trending_adx" default:"25" validate:"gte=0,lte=100"`
	VolatileATRPct        float64 `yaml:"volatile_atr_pct" json:"volatile_atr_pct" default:"0.04" validate:"gt=0"`
	LowRiskATRPct         float64 `yaml:"low_risk_atr_pct" json:"low_risk_atr_pct" default:"0.015" validate:"gt=0"`
	HighRiskATRPct        float64 `yaml:"high_risk_atr_pct" json:"high_risk_atr_pct" default:"0.035" validate:"gt=0"`
}

// MasterWeights 마스터 점수 가중치 (정수 퍼센트, 합 = 100)
type MasterWeights struct {
	Confidence      int `yaml:"confidence" json:"confidence" default:"25" validate:"gte=0,lte=100"`
	Technical       int `yaml:"technical" json:"technical" default:"25" validate:"gte=0,lte=100"`
	Robustness      int `yaml:"robustness" json:"robustness" default:"20" validate:"gte=0,lte=100"`
	Context         int `yaml:"context" json:"context" default:"15" validate:"gte=0,lte=100"`
	ContextMomentum int `yaml:"context_momentum" json:"context_momentum" default:"10" validate:"gte=0,lte=100"`
	News            int `yaml:"news" json:"news" default:"5" validate:"gte=0,lte=100"`
}

// Sum returns total weight (should be 100)
func (w MasterWeights) Sum() int {
	return w.Confidence + w.Technical + w.Robustness + w.Context + w.ContextMomentum + w.News
}

// Of returns the weight of one dimension
func (w MasterWeights) Of(dim contracts.MasterDimension) int {
	switch dim {
	case contracts.DimensionConfidence:
		return w.Confidence
	case contracts.DimensionTechnical:
		return w.Technical
	case contracts.DimensionRobustness:
		return w.Robustness
	case contracts.DimensionContext:
		return w.Context
	case contracts.DimensionContextMomentum:
		return w.ContextMomentum
	case contracts.DimensionNews:
		return w.News
	}
	return 0
}

// TierCutoffs 티어 경계 (이상)
type TierCutoffs struct {
	Strong float64 `yaml:"strong" json:"strong" default:"80" validate:"gt=0,lte=100"`
	Good   float64 `yaml:"good" json:"good" default:"70" validate:"gt=0,lte=100"`
	Fair   float64 `yaml:"fair" json:"fair" default:"60" validate:"gt=0,lte=100"`
}

// Master S5: 6차원 마스터 점수
type Master struct {
	WeightsPct  MasterWeights `yaml:"weights_pct" json:"weights_pct"`
	Tiers       TierCutoffs   `yaml:"tiers" json:"tiers"`
	NeutralNews float64       `yaml:"neutral_news" json:"neutral_news" default:"50" validate:"gte=0,lte=100"`
}

// Persistence S6: 패턴 지속성
type Persistence struct {
	ConfirmBars int `yaml:"confirm_bars" json:"confirm_bars" default:"2" validate:"gte=2"`
}

// Multiplier 특수일 배수
type Multiplier struct {
	Confidence float64 `yaml:"confidence" json:"confidence" validate:"gte=0,lte=1"`
	Position   float64 `yaml:"position" json:"position" validate:"gte=0,lte=1"`
}

// SpecialDay S7: 달력 분류 → 배수 룩업
type SpecialDay struct {
	Ordinary        Multiplier `yaml:"ordinary" json:"ordinary"`
	WeeklyExpiry    Multiplier `yaml:"weekly_expiry" json:"weekly_expiry"`
	MonthlyExpiry   Multiplier `yaml:"monthly_expiry" json:"monthly_expiry"`
	QuarterlyExpiry Multiplier `yaml:"quarterly_expiry" json:"quarterly_expiry"`
	MacroEvent      Multiplier `yaml:"macro_event" json:"macro_event"`
}

// SetDefaults fills multipliers left empty by the YAML document
func (s *SpecialDay) SetDefaults() {
	if s.Ordinary == (Multiplier{}) {
		s.Ordinary = Multiplier{Confidence: 1.0, Position: 1.0}
	}
	if s.WeeklyExpiry == (Multiplier{}) {
		s.WeeklyExpiry = Multiplier{Confidence: 0.85, Position: 0.7}
	}
	if s.MonthlyExpiry == (Multiplier{}) {
		s.MonthlyExpiry = Multiplier{Confidence: 0.75, Position: 0.5}
	}
	if s.QuarterlyExpiry == (Multiplier{}) {
		s.QuarterlyExpiry = Multiplier{Confidence: 0.6, Position: 0.3}
	}
	if s.MacroEvent == (Multiplier{}) {
		s.MacroEvent = Multiplier{Confidence: 0.7, Position: 0.5}
	}
}

// For looks up the multiplier of a calendar class
func (s SpecialDay) For(class contracts.CalendarClass) (Multiplier, bool) {
	switch class {
	case contracts.CalendarOrdinary, "":
		return s.Ordinary, true
	case contracts.CalendarWeeklyExpiry:
		return s.WeeklyExpiry, true
	case contracts.CalendarMonthlyExpiry:
		return s.MonthlyExpiry, true
	case contracts.CalendarQuarterlyExpiry:
		return s.QuarterlyExpiry, true
	case contracts.CalendarMacroEvent:
		return s.MacroEvent, true
	}
	return Multiplier{}, false
}

// Calendar 특수일 분류 규칙 (호출자가 분류를 주지 않을 때)
type Calendar struct {
	WeeklyExpiryWeekday  string   `yaml:"weekly_expiry_weekday" json:"weekly_expiry_weekday" default:"Thursday"` // 빈 값 = 주간 만기 없음
	MonthlyExpiryWeekday string   `yaml:"monthly_expiry_weekday" json:"monthly_expiry_weekday" default:"Thursday" validate:"required"`
	MonthlyExpiryNth     int      `yaml:"monthly_expiry_nth" json:"monthly_expiry_nth" default:"2" validate:"gte=0,lte=4"` // 0 = 마지막 주
	QuarterMonths        []int    `yaml:"quarter_months" json:"quarter_months" default:"[3,6,9,12]" validate:"dive,gte=1,lte=12"`
	MacroEventDates      []string `yaml:"macro_event_dates" json:"macro_event_dates" default:"[]" validate:"dive,datetime=2006-01-02"`
}

// Position 포지션 비중
type Position struct {
	BaseFraction float64 `yaml:"base_fraction" json:"base_fraction" default:"1.0" validate:"gt=0,lte=1"`
}

// Pool 워커 풀 크기
type Pool struct {
	MinWorkers        int `yaml:"min_workers" json:"min_workers" default:"6" validate:"gte=1"`
	MaxWorkers        int `yaml:"max_workers" json:"max_workers" default:"12" validate:"gte=1"`
	PerWorkerUniverse int `yaml:"per_worker_universe" json:"per_worker_universe" default:"10" validate:"gte=1"`
	Workers           int `yaml:"workers" json:"workers" validate:"gte=0"` // 0 = 유니버스 크기 기준 자동
}

// Size returns the worker count for a universe of n instruments
func (p Pool) Size(n int) int {
	if n <= 0 {
		return 0
	}
	size := p.Workers
	if size <= 0 {
		per := p.PerWorkerUniverse
		if per <= 0 {
			per = 1
		}
		size = n / per
		if size < p.MinWorkers {
			size = p.MinWorkers
		}
		if size > p.MaxWorkers {
			size = p.MaxWorkers
		}
	}
	if size > n {
		size = n
	}
	return size
}
