package brain

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/finalize"
	"github.com/wonny/aegis-signal/internal/s1_indicators"
	"github.com/wonny/aegis-signal/internal/s2_signals"
	"github.com/wonny/aegis-signal/internal/s3_robustness"
	"github.com/wonny/aegis-signal/internal/s4_context"
	"github.com/wonny/aegis-signal/internal/selection"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/logger"
	"github.com/wonny/aegis-signal/pkg/metrics"
)

// Dependencies are the optional collaborators of a scoring run.
// Every field may be left nil.
type Dependencies struct {
	History contracts.HistoryStore      // momentum history, nil = no momentum
	Sink    contracts.OpportunityLogger // opportunity records, nil = not logged
	Metrics *metrics.Recorder
	Workers int // overrides the pool size when > 0
}

// Orchestrator coordinates the per-instrument S1 → S7 pipeline over a batch
// ⭐ SSOT: 배치 조율은 여기서만
type Orchestrator struct {
	cfg        *strategyconfig.Config
	configHash string
	profile    strategyconfig.ModeProfile

	// Stage components
	extractor   *s1_indicators.Extractor
	scorer      *s2_signals.TimeframeScorer
	blender     *s2_signals.Blender
	confidence  *s2_signals.ConfidenceEstimator
	robustness  *s3_robustness.Pipeline
	context     *s4_context.Engine
	master      *selection.MasterAggregator
	persistence *finalize.PersistenceValidator
	classifier  *finalize.Classifier
	adjuster    *finalize.SpecialDayAdjuster
	ranker      *selection.Ranker

	history contracts.HistoryStore
	sink    contracts.OpportunityLogger
	metrics *metrics.Recorder
	workers int

	beforeScore func(in *contracts.InstrumentInput) // test hook

	logger *logger.Logger
}

// NewOrchestrator wires every stage from one validated strategy config
func NewOrchestrator(cfg *strategyconfig.Config, deps Dependencies, log *logger.Logger) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("strategy config is required")
	}

	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return nil, fmt.Errorf("hash strategy config: %w", err)
	}

	profile, ok := cfg.Modes.Profile(cfg.Mode)
	if !ok {
		return nil, fmt.Errorf("unknown trading mode %q", cfg.Mode)
	}

	loc, err := time.LoadLocation(cfg.Meta.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Meta.Timezone, err)
	}

	robustness, err := s3_robustness.NewPipeline(cfg.Robustness, loc, log)
	if err != nil {
		return nil, fmt.Errorf("robustness pipeline: %w", err)
	}

	classifier, err := finalize.NewClassifier(cfg.Calendar, loc)
	if err != nil {
		return nil, fmt.Errorf("calendar classifier: %w", err)
	}

	return &Orchestrator{
		cfg:         cfg,
		configHash:  hash,
		profile:     profile,
		extractor:   s1_indicators.NewExtractor(cfg.Indicators, loc, log),
		scorer:      s2_signals.NewTimeframeScorer(cfg.Scoring, log),
		blender:     s2_signals.NewBlender(cfg.Modes, cfg.Scoring, log),
		confidence:  s2_signals.NewConfidenceEstimator(cfg.Confidence, log),
		robustness:  robustness,
		context:     s4_context.NewEngine(cfg.Context, cfg.Indicators.RSIPeriod, log),
		master:      selection.NewMasterAggregator(cfg.Master, log),
		persistence: finalize.NewPersistenceValidator(cfg.Persistence, log),
		classifier:  classifier,
		adjuster:    finalize.NewSpecialDayAdjuster(cfg.SpecialDay, cfg.Position, log),
		ranker:      selection.NewRanker(log),
		history:     deps.History,
		sink:        deps.Sink,
		metrics:     deps.Metrics,
		workers:     deps.Workers,
		logger:      log,
	}, nil
}

// ConfigHash returns the hash stamped on every signal of this orchestrator
func (o *Orchestrator) ConfigHash() string {
	return o.configHash
}

// PoolSize returns the worker count used for a universe of n instruments
func (o *Orchestrator) PoolSize(n int) int {
	pool := o.cfg.Pool
	if o.workers > 0 {
		pool.Workers = o.workers
	}
	return pool.Size(n)
}

// outcome is one worker's result, written only by that worker
type outcome struct {
	signal     *contracts.Signal
	evaluation *contracts.Evaluation
	err        error
	started    bool
}

// Run scores every instrument of the request and ranks the emitted signals.
//
// 규칙:
//   - 종목 하나의 실패(에러/패닉)는 배치를 중단하지 않고 skipped 로 기록
//   - 랭킹은 모든 종목 결과가 모인 뒤에만 계산
//   - 히스토리는 배치가 끝난 뒤에만 저장 (워커는 읽기 전용 스냅샷만 봄)
//   - 취소 시 끝나지 않은 종목은 CANCELLED, 완료된 신호만 반환하고 ctx.Err() 반환
func (o *Orchestrator) Run(ctx context.Context, req contracts.BatchRequest) (*contracts.BatchResult, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := o.logger.WithRun(runID)

	rankBy := req.RankBy
	if rankBy == "" {
		rankBy = contracts.RankByMaster
	}
	if rankBy != contracts.RankByMaster && rankBy != contracts.RankByComposite {
		return nil, fmt.Errorf("unknown rank key %q", rankBy)
	}

	result := &contracts.BatchResult{
		RunID:      runID,
		AsOf:       req.AsOf,
		RankBy:     rankBy,
		ConfigHash: o.configHash,
		Signals:    make([]contracts.RankedSignal, 0),
		Skipped:    make([]contracts.SkippedInstrument, 0),
	}

	n := len(req.Instruments)
	workers := o.PoolSize(n)

	log.WithFields(map[string]interface{}{
		"universe": n,
		"workers":  workers,
		"mode":     o.cfg.Mode,
		"rank_by":  rankBy,
		"config":   o.configHash[:12],
	}).Info("Starting scoring run")

	snapshot := o.loadHistory(ctx, req.Universe(), log)

	outcomes := make([]outcome, n)
	g := new(errgroup.Group)
	g.SetLimit(max(workers, 1))
	for i := range req.Instruments {
		if ctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			outcomes[i] = o.runInstrument(ctx, &req.Instruments[i], &req, snapshot)
			return nil
		})
	}
	_ = g.Wait()

	signals := make([]contracts.Signal, 0, n)
	evaluations := make([]contracts.Evaluation, 0, n)
	for i, out := range outcomes {
		id := req.Instruments[i].ID
		if !out.started {
			out.err = &contracts.SkipError{Reason: contracts.SkipCancelled, Detail: "batch cancelled before scoring"}
		}
		if out.evaluation != nil {
			evaluations = append(evaluations, *out.evaluation)
		}
		if out.err != nil {
			reason := contracts.ReasonFor(out.err)
			result.Skipped = append(result.Skipped, contracts.SkippedInstrument{
				Instrument: id,
				Reason:     reason,
				Detail:     out.err.Error(),
			})
			o.metrics.RecordSkipped(string(reason))
			continue
		}
		signals = append(signals, *out.signal)
		o.recordSignal(*out.signal)
	}

	result.Signals = o.ranker.Rank(signals, rankBy)
	result.Duration = time.Since(start)
	o.metrics.ObserveRun(n, result.Duration.Seconds())

	if err := ctx.Err(); err != nil {
		result.Cancelled = true
		log.WithFields(map[string]interface{}{
			"emitted": len(result.Signals),
			"skipped": len(result.Skipped),
		}).Warn("Scoring run cancelled, history and opportunities not committed")
		return result, err
	}

	var errs []error
	if err := o.saveHistory(ctx, evaluations); err != nil {
		errs = append(errs, err)
	}
	if err := o.logOpportunities(ctx, runID, result.Signals); err != nil {
		errs = append(errs, err)
	}

	log.WithFields(map[string]interface{}{
		"emitted":  len(result.Signals),
		"skipped":  len(result.Skipped),
		"reasons":  result.SkippedByReason(),
		"duration": result.Duration.Seconds(),
	}).Info("Scoring run completed")

	return result, errors.Join(errs...)
}

// runInstrument isolates one instrument: cancellation and panics become skip reasons
func (o *Orchestrator) runInstrument(
	ctx context.Context,
	in *contracts.InstrumentInput,
	req *contracts.BatchRequest,
	snapshot contracts.HistorySnapshot,
) (out outcome) {
	start := time.Now()
	out.started = true

	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(map[string]interface{}{
				"instrument": in.ID,
				"panic":      fmt.Sprint(r),
				"stack":      string(debug.Stack()),
			}).Error("Recovered panic while scoring instrument")
			out = outcome{
				started: true,
				err:     &contracts.SkipError{Reason: contracts.SkipInternal, Detail: fmt.Sprintf("panic: %v", r)},
			}
		}

		label := "scored"
		if out.err != nil {
			label = strings.ToLower(string(contracts.ReasonFor(out.err)))
		}
		o.metrics.ObserveInstrument(label, time.Since(start).Seconds())
	}()

	if err := ctx.Err(); err != nil {
		out.err = &contracts.SkipError{Reason: contracts.SkipCancelled, Detail: err.Error()}
		return out
	}
	if o.beforeScore != nil {
		o.beforeScore(in)
	}

	var prior *contracts.Evaluation
	if ev, ok := snapshot.Prior(in.ID); ok {
		prior = &ev
	}

	out.signal, out.evaluation, out.err = o.score(in, req, prior)
	return out
}

// score runs S1 → S7 for one instrument.
// The evaluation is returned whenever robustness and context were computed, even on a skip.
func (o *Orchestrator) score(
	in *contracts.InstrumentInput,
	req *contracts.BatchRequest,
	prior *contracts.Evaluation,
) (*contracts.Signal, *contracts.Evaluation, error) {
	// S1: Indicators
	set, err := o.extractor.ExtractAll(in, o.profile.Primary)
	if err != nil {
		return nil, nil, err
	}
	snap := set.Snapshot()
	primary := in.Series[set.Primary]
	if primary.Timeframe == "" {
		primary.Timeframe = set.Primary
	}

	// S2: Timeframe scores, composite, direction
	scores := o.scorer.ScoreAll(set.Indicators())
	composite, err := o.blender.Blend(o.cfg.Mode, scores)
	if err != nil {
		return nil, nil, err
	}
	dir := o.blender.Direction(composite.Value)
	if dir == contracts.DirectionNeutral {
		return nil, nil, &contracts.SkipError{
			Reason: contracts.SkipNoPattern,
			Detail: fmt.Sprintf("composite %.3f inside neutral band", composite.Value),
		}
	}

	weights := make(map[contracts.Timeframe]float64, len(composite.Breakdown))
	for tf, c := range composite.Breakdown {
		weights[tf] = c.Weight
	}
	blended := s2_signals.BlendIndicators(set.Indicators(), weights)

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = snap.Timestamp
	}
	confidence := o.confidence.Estimate(blended, dir, in.EventRisk, asOf)

	// S3: Robustness
	pattern := finalize.PatternLabel(dir)
	report := o.robustness.Evaluate(s3_robustness.Input{
		Instrument: in.ID,
		Snapshot:   &snap,
		Direction:  dir,
		Pattern:    pattern,
		WinRates:   req.WinRates,
		Prior:      prior,
	})

	// S4: Context
	ctxInputs := o.context.Derive(primary, snap, blended, dir, scores)
	ctxScore := o.context.Score(in.ID, ctxInputs, prior)

	evaluation := &contracts.Evaluation{
		Instrument:     in.ID,
		EvaluatedAt:    snap.Timestamp,
		FiltersPassed:  report.Passed,
		ContextValue:   ctxScore.Value,
		CompositeValue: composite.Value,
	}

	if o.robustness.Vetoes(report) {
		return nil, evaluation, &contracts.SkipError{
			Reason: contracts.SkipRobustnessVeto,
			Detail: strings.Join(report.FailureReasons(), ","),
		}
	}

	// S5: Master (pre special-day confidence)
	master := o.master.Aggregate(in.ID, selection.MasterInputs{
		Confidence:    confidence.Value,
		Composite:     composite.Value,
		Robustness:    report.Score,
		Context:       ctxScore,
		NewsSentiment: in.NewsSentiment,
	})

	// S6: Persistence
	closes := primary.Closes()
	persistence := o.persistence.Validate(len(closes),
		finalize.CrossoverCondition(closes, o.cfg.Indicators.EMAFast, o.cfg.Indicators.EMASlow, dir))
	if !finalize.Confirmed(persistence) {
		return nil, evaluation, &contracts.SkipError{
			Reason: contracts.SkipPersistenceFailed,
			Detail: fmt.Sprintf("%s held %d/%d bars", persistence.State, persistence.HeldBars, persistence.Required),
		}
	}

	// S7: Special day
	adj := o.adjuster.Adjust(o.calendarClass(in, req, snap.Timestamp), confidence)

	signal := contracts.NewSignal(contracts.Signal{
		Instrument:       in.ID,
		Timestamp:        snap.Timestamp,
		Direction:        dir,
		Pattern:          pattern,
		EntryPrice:       snap.Close,
		Composite:        composite,
		Confidence:       adj.Confidence,
		Robustness:       report,
		Context:          ctxScore,
		Master:           master,
		Indicators:       blended,
		SpecialDay:       adj.Class,
		PositionFraction: adj.PositionFraction,
		Persistence:      persistence,
		ConfigHash:       o.configHash,
	})

	return &signal, evaluation, nil
}

// calendarClass: instrument override > request override > derived from the bar date
func (o *Orchestrator) calendarClass(in *contracts.InstrumentInput, req *contracts.BatchRequest, at time.Time) contracts.CalendarClass {
	switch {
	case in.Calendar != nil:
		return *in.Calendar
	case req.Calendar != nil:
		return *req.Calendar
	}
	return o.classifier.Classify(at)
}

func (o *Orchestrator) loadHistory(ctx context.Context, ids []string, log *logger.Logger) contracts.HistorySnapshot {
	if o.history == nil {
		return contracts.HistorySnapshot{}
	}
	snapshot, err := o.history.Load(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("Failed to load evaluation history, momentum resets to 0")
		return contracts.HistorySnapshot{}
	}
	return snapshot
}

func (o *Orchestrator) saveHistory(ctx context.Context, evaluations []contracts.Evaluation) error {
	if o.history == nil || len(evaluations) == 0 {
		return nil
	}
	if err := o.history.Save(ctx, evaluations); err != nil {
		return fmt.Errorf("save evaluation history: %w", err)
	}
	return nil
}

func (o *Orchestrator) logOpportunities(ctx context.Context, runID string, ranked []contracts.RankedSignal) error {
	if o.sink == nil || len(ranked) == 0 {
		return nil
	}
	opps := make([]contracts.Opportunity, 0, len(ranked))
	for _, r := range ranked {
		opps = append(opps, contracts.NewOpportunity(uuid.NewString(), runID, r.Signal))
	}
	if err := o.sink.LogOpportunities(ctx, opps); err != nil {
		return fmt.Errorf("log opportunities: %w", err)
	}
	return nil
}

func (o *Orchestrator) recordSignal(s contracts.Signal) {
	o.metrics.RecordScored(string(s.Master.Tier), s.Master.Value)
	for _, res := range s.Robustness.Results {
		if !res.Passed {
			o.metrics.RecordFilterFailure(string(res.Filter), string(res.Reason))
		}
	}
}

var _ contracts.Scorer = (*Orchestrator)(nil)
