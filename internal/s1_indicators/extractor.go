package s1_indicators

import (
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// MarketSnapshot holds the raw (un-normalized) readings of the latest bar.
// Robustness filters and the context engine read thresholds against these.
type MarketSnapshot struct {
	Timeframe    contracts.Timeframe `json:"timeframe"`
	Timestamp    time.Time           `json:"timestamp"`
	Close        float64             `json:"close"`
	RSI          float64             `json:"rsi"` // 0 ~ 100
	ADX          float64             `json:"adx"` // 0 ~ 100
	ATR          float64             `json:"atr"`
	ATRPct       float64             `json:"atr_pct"` // ATR / close
	SMAShort     float64             `json:"sma_short"`
	SMALong      float64             `json:"sma_long"`
	VWAP         float64             `json:"vwap"`
	LastVolume   float64             `json:"last_volume"`
	AvgVolume    float64             `json:"avg_volume"`    // 직전 N봉 평균 (최신 봉 제외)
	VolumeRatio  float64             `json:"volume_ratio"`  // LastVolume / AvgVolume, 0 when undefined
	VolumeRatios []float64           `json:"volume_ratios"` // trailing per-bar ratios, oldest first
}

// MaxVolumeRatio returns the largest ratio among the last n bars
func (s MarketSnapshot) MaxVolumeRatio(n int) float64 {
	ratios := s.VolumeRatios
	if n < len(ratios) {
		ratios = ratios[len(ratios)-n:]
	}
	max := 0.0
	for _, r := range ratios {
		if r > max {
			max = r
		}
	}
	return max
}

// Extraction is the result of one timeframe pass
type Extraction struct {
	Timeframe  contracts.Timeframe
	Indicators contracts.IndicatorSet
	Snapshot   MarketSnapshot
}

// Extractor computes bounded indicator features from a bar series
// ⭐ SSOT: 지표 계산은 여기서만
type Extractor struct {
	cfg    strategyconfig.Indicators
	loc    *time.Location // exchange timezone, session boundaries are local dates
	logger *logger.Logger
}

// NewExtractor creates a new indicator extractor (nil loc = UTC)
func NewExtractor(cfg strategyconfig.Indicators, loc *time.Location, log *logger.Logger) *Extractor {
	if loc == nil {
		loc = time.UTC
	}
	return &Extractor{
		cfg:    cfg,
		loc:    loc,
		logger: log,
	}
}

// MinBars returns the bar count required by the largest lookback
func (e *Extractor) MinBars() int {
	return e.cfg.MinBars()
}

// Extract computes the IndicatorSet and raw snapshot of one series.
// Degenerate inputs (zero volume, zero range) resolve to 0, never an error.
func (e *Extractor) Extract(instrument string, series contracts.TimeframeSeries) (*Extraction, error) {
	if err := series.Validate(instrument); err != nil {
		return nil, err
	}

	n := series.Len()
	if need := e.MinBars(); n < need {
		return nil, &contracts.DataInsufficientError{
			Instrument: instrument,
			Timeframe:  series.Timeframe,
			Required:   need,
			Available:  n,
		}
	}

	closes := series.Closes()
	highs := series.Highs()
	lows := series.Lows()
	volumes := series.Volumes()
	last, _ := series.Last()

	atr := finite(lastOf(talib.Atr(highs, lows, closes, e.cfg.ATRPeriod)))
	rsiRaw := e.rawRSI(closes)
	volRatios, avgVol := e.volumeRatios(volumes)

	set := contracts.IndicatorSet{
		contracts.IndicatorRSI:          e.rsi(rsiRaw),
		contracts.IndicatorTrendCross:   e.trendCross(closes),
		contracts.IndicatorMACD:         e.macd(closes, atr),
		contracts.IndicatorVolumeSurge:  e.volumeSurge(closes, volumes, avgVol),
		contracts.IndicatorStructure:    e.structure(highs, lows),
		contracts.IndicatorBandPosition: e.bandPosition(closes),
		contracts.IndicatorOpeningRange: e.openingRange(series.Bars),
		contracts.IndicatorVWAP:         e.vwapDeviation(series.Bars),
	}
	for k, v := range set {
		set[k] = contracts.ClampUnit(v)
	}

	snap := MarketSnapshot{
		Timeframe:    series.Timeframe,
		Timestamp:    last.Timestamp,
		Close:        last.Close,
		RSI:          rsiRaw,
		ADX:          finite(lastOf(talib.Adx(highs, lows, closes, e.cfg.ADXPeriod))),
		ATR:          atr,
		ATRPct:       safeDiv(atr, last.Close),
		SMAShort:     finite(lastOf(talib.Sma(closes, e.cfg.SMAShort))),
		SMALong:      finite(lastOf(talib.Sma(closes, e.cfg.SMALong))),
		VWAP:         e.vwap(series.Bars),
		LastVolume:   last.Volume,
		AvgVolume:    avgVol,
		VolumeRatio:  safeDiv(last.Volume, avgVol),
		VolumeRatios: volRatios,
	}

	e.logger.WithFields(map[string]interface{}{
		"stage":      contracts.StageIndicators.ShortName(),
		"instrument": instrument,
		"timeframe":  series.Timeframe,
		"bars":       n,
		"rsi":        set[contracts.IndicatorRSI],
		"trend":      set[contracts.IndicatorTrendCross],
		"macd":       set[contracts.IndicatorMACD],
		"adx":        snap.ADX,
		"vol_ratio":  snap.VolumeRatio,
	}).Debug("Extracted indicators")

	return &Extraction{
		Timeframe:  series.Timeframe,
		Indicators: set,
		Snapshot:   snap,
	}, nil
}

// rawRSI returns Wilder RSI on the 0-100 scale, 50 for a flat window
func (e *Extractor) rawRSI(closes []float64) float64 {
	window := closes[len(closes)-e.cfg.RSIPeriod-1:]
	if rangeOf(window) == 0 {
		return 50
	}
	rsi := lastOf(talib.Rsi(closes, e.cfg.RSIPeriod))
	if math.IsNaN(rsi) || math.IsInf(rsi, 0) {
		return 50
	}
	return rsi
}

// rsi maps RSI 0~100 onto -1~1 around the 50 midline
func (e *Extractor) rsi(raw float64) float64 {
	return (raw - 50) / 50
}

// trendCross scales the fast/slow EMA gap so TrendScalePct maps to ±1
func (e *Extractor) trendCross(closes []float64) float64 {
	fast := lastOf(talib.Ema(closes, e.cfg.EMAFast))
	slow := lastOf(talib.Ema(closes, e.cfg.EMASlow))
	gap := safeDiv(fast-slow, slow)
	return gap / e.cfg.TrendScalePct
}

// macd normalizes the histogram by ATR so it is comparable across price levels
func (e *Extractor) macd(closes []float64, atr float64) float64 {
	if atr <= 0 {
		return 0
	}
	_, _, hist := talib.Macd(closes, e.cfg.MACDFast, e.cfg.MACDSlow, e.cfg.MACDSignal)
	return math.Tanh(finite(lastOf(hist)) / atr)
}

// volumeRatios returns per-bar volume / preceding-average ratios and the latest baseline average
func (e *Extractor) volumeRatios(volumes []float64) ([]float64, float64) {
	p := e.cfg.VolumePeriod
	n := len(volumes)
	sma := talib.Sma(volumes, p)

	// sma[i-1] = bars i-p .. i-1, i.e. the average preceding bar i
	avg := finite(sma[n-2])

	count := p
	if n-p < count {
		count = n - p
	}
	ratios := make([]float64, 0, count)
	for i := n - count; i < n; i++ {
		ratios = append(ratios, safeDiv(volumes[i], finite(sma[i-1])))
	}
	return ratios, avg
}

// volumeSurge signs the surge above average volume by the latest bar's direction
func (e *Extractor) volumeSurge(closes, volumes []float64, avg float64) float64 {
	n := len(volumes)
	lastVol := volumes[n-1]
	if lastVol == 0 || avg <= 0 {
		return 0
	}
	ratio := lastVol / avg
	dir := sign(closes[n-1] - closes[n-2])
	return dir * math.Tanh(math.Max(ratio-1, 0))
}

// structure counts higher-highs/higher-lows against lower-highs/lower-lows
func (e *Extractor) structure(highs, lows []float64) float64 {
	n := len(highs)
	start := n - e.cfg.StructureLookback
	bull, bear := 0, 0
	for i := start + 1; i < n; i++ {
		switch {
		case highs[i] > highs[i-1]:
			bull++
		case highs[i] < highs[i-1]:
			bear++
		}
		switch {
		case lows[i] > lows[i-1]:
			bull++
		case lows[i] < lows[i-1]:
			bear++
		}
	}
	pairs := 2 * (e.cfg.StructureLookback - 1)
	return float64(bull-bear) / float64(pairs)
}

// bandPosition maps Bollinger %B (0 at lower, 1 at upper) onto -1~1
func (e *Extractor) bandPosition(closes []float64) float64 {
	upper, _, lower := talib.BBands(closes, e.cfg.BandPeriod, e.cfg.BandStdDev, e.cfg.BandStdDev, talib.SMA)
	up, lo := lastOf(upper), lastOf(lower)
	last := closes[len(closes)-1]
	width := up - lo
	// 분산 계산 오차로 생기는 미세 폭은 폭 0으로 취급
	if !(width > last*1e-9) {
		return 0
	}
	pctB := (last - lo) / width
	return 2*pctB - 1
}

// openingRange measures the latest close against the first bars of its own session.
// Sessions are split on the exchange-local date. Daily or coarser series have no
// intra-session range and return 0.
func (e *Extractor) openingRange(bars []contracts.PriceBar) float64 {
	last := bars[len(bars)-1]
	y, m, d := last.Timestamp.In(e.loc).Date()

	start := len(bars) - 1
	for start > 0 {
		py, pm, pd := bars[start-1].Timestamp.In(e.loc).Date()
		if py != y || pm != m || pd != d {
			break
		}
		start--
	}
	session := bars[start:]
	k := e.cfg.OpeningRangeBars
	if len(session) <= k {
		return 0
	}

	orHigh, orLow := session[0].High, session[0].Low
	for _, b := range session[1:k] {
		orHigh = math.Max(orHigh, b.High)
		orLow = math.Min(orLow, b.Low)
	}
	width := orHigh - orLow
	if width <= 0 {
		return 0
	}

	switch {
	case last.Close > orHigh:
		return (last.Close - orHigh) / width
	case last.Close < orLow:
		return (last.Close - orLow) / width
	}
	return 0
}

// vwap returns the rolling typical-price VWAP, 0 when the window has no volume
func (e *Extractor) vwap(bars []contracts.PriceBar) float64 {
	window := bars[len(bars)-e.cfg.VWAPPeriod:]
	var pv, vol float64
	for _, b := range window {
		typical := (b.High + b.Low + b.Close) / 3
		pv += typical * b.Volume
		vol += b.Volume
	}
	return safeDiv(pv, vol)
}

// vwapDeviation scales the close/VWAP gap so VWAPScalePct maps to ±1
func (e *Extractor) vwapDeviation(bars []contracts.PriceBar) float64 {
	last := bars[len(bars)-1]
	if last.Volume == 0 {
		return 0
	}
	vwap := e.vwap(bars)
	if vwap <= 0 {
		return 0
	}
	return (last.Close - vwap) / vwap / e.cfg.VWAPScalePct
}

// === Helper Functions ===

func lastOf(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return finite(a / b)
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

func rangeOf(values []float64) float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}
