package s3_robustness

import (
	"fmt"
	"time"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/s1_indicators"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
)

// Policy values of strategyconfig.Robustness.Policy
const (
	PolicyQuality = "quality" // 실패 필터는 점수만 깎음 (기본)
	PolicyVeto    = "veto"    // 필터 하나라도 실패하면 종목 제외
)

// Input is everything the seven filters read for one instrument
type Input struct {
	Instrument string
	Snapshot   *s1_indicators.MarketSnapshot // primary timeframe, nil = not available
	Direction  contracts.Direction
	Pattern    string
	WinRates   map[string]float64    // pattern → backtested win rate, nil = not supplied
	Prior      *contracts.Evaluation // previous evaluation, nil = first run
}

// Pipeline evaluates the seven robustness filters
// ⭐ SSOT: 필터 임계값 판정은 여기서만
type Pipeline struct {
	cfg         strategyconfig.Robustness
	loc         *time.Location
	windowStart int // minutes since midnight
	windowEnd   int
	logger      *logger.Logger
}

// NewPipeline creates a new robustness pipeline.
// loc is the exchange timezone the trading window is expressed in.
func NewPipeline(cfg strategyconfig.Robustness, loc *time.Location, log *logger.Logger) (*Pipeline, error) {
	start, err := parseClock(cfg.TradingWindow.Start)
	if err != nil {
		return nil, fmt.Errorf("trading window start: %w", err)
	}
	end, err := parseClock(cfg.TradingWindow.End)
	if err != nil {
		return nil, fmt.Errorf("trading window end: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Pipeline{
		cfg:         cfg,
		loc:         loc,
		windowStart: start,
		windowEnd:   end,
		logger:      log,
	}, nil
}

// Evaluate runs every filter in order and aggregates the report.
// A filter whose input is missing fails with missing_input; it still counts in the denominator.
func (p *Pipeline) Evaluate(in Input) contracts.RobustnessReport {
	checks := []func(Input) contracts.FilterResult{
		p.marketRegime,
		p.volumeConfirmation,
		p.timeOfDay,
		p.liquidity,
		p.eventSafety,
		p.timeframeAlignment,
		p.expectancy,
	}

	report := contracts.RobustnessReport{
		Results: make([]contracts.FilterResult, 0, contracts.FilterCount),
	}
	for _, check := range checks {
		res := check(in)
		if res.Passed {
			report.Passed++
		}
		report.Results = append(report.Results, res)
	}

	report.Score = Score(report.Passed)
	if in.Prior != nil {
		report.Momentum = Momentum(report.Passed, in.Prior.FiltersPassed)
	}

	p.logger.WithFields(map[string]interface{}{
		"stage":      contracts.StageRobustness.ShortName(),
		"instrument": in.Instrument,
		"passed":     report.Passed,
		"score":      report.Score,
		"momentum":   report.Momentum,
		"failures":   report.FailureReasons(),
	}).Debug("Evaluated robustness filters")

	return report
}

// Vetoes reports whether the configured policy blocks emission for this report
func (p *Pipeline) Vetoes(report contracts.RobustnessReport) bool {
	return p.cfg.Policy == PolicyVeto && !report.AllPassed()
}

// Score converts a pass count into the 0-100 robustness score
func Score(passed int) float64 {
	return float64(passed) / contracts.FilterCount * 100
}

// Momentum is the change in pass count since the prior evaluation, over 7
func Momentum(now, prev int) float64 {
	return contracts.ClampUnit(float64(now-prev) / contracts.FilterCount)
}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid HH:MM %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
