package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-signal/internal/brain"
	"github.com/wonny/aegis-signal/internal/contracts"
	"github.com/wonny/aegis-signal/internal/data/repos"
	"github.com/wonny/aegis-signal/internal/history"
	"github.com/wonny/aegis-signal/internal/publish"
	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/config"
	"github.com/wonny/aegis-signal/pkg/database"
	"github.com/wonny/aegis-signal/pkg/httputil"
	"github.com/wonny/aegis-signal/pkg/logger"
	"github.com/wonny/aegis-signal/pkg/metrics"
	"github.com/wonny/aegis-signal/pkg/redis"
)

// scoreCmd represents the score command
var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "배치 스코어링 실행",
	Long: `종목 유니버스를 한 번 스코어링하고 랭킹된 시그널을 출력합니다.

입력:
  --input     BatchRequest JSON 파일 (instruments, win_rates, calendar ...)
  --source db PostgreSQL signals.price_bars 에서 바 로드

출력:
  랭킹된 시그널 표 + 제외 종목(사유 코드), --json 이면 BatchResult JSON
  기회 기록은 설정된 싱크(Postgres/Kafka/로그)로 전송

Example:
  go run ./cmd/quant score --input bars.json
  go run ./cmd/quant score --input bars.json --rank-by composite --top 20
  go run ./cmd/quant score --source db --instruments 005930,000660 --as-of 2025-03-04T15:30:00+09:00`,
	RunE: runScore,
}

var (
	// Score flags
	scoreInput       string
	scoreSource      string
	scoreAsOf        string
	scoreInstruments []string
	scoreRankBy      string
	scoreMode        string
	scoreBars        int
	scoreTop         int
	scoreJSON        bool
)

func init() {
	rootCmd.AddCommand(scoreCmd)

	// Flags
	scoreCmd.Flags().StringVar(&scoreInput, "input", "", "BatchRequest JSON 파일 경로")
	scoreCmd.Flags().StringVar(&scoreSource, "source", "file", "바 데이터 소스 (file|db)")
	scoreCmd.Flags().StringVar(&scoreAsOf, "as-of", "", "기준 시각 (RFC3339, 기본: 입력값 또는 지금)")
	scoreCmd.Flags().StringSliceVar(&scoreInstruments, "instruments", nil, "종목 코드 목록 (db 소스, 기본: 전체)")
	scoreCmd.Flags().StringVar(&scoreRankBy, "rank-by", "", "랭킹 기준 (composite|master, 기본: SCORER_RANK_BY)")
	scoreCmd.Flags().StringVar(&scoreMode, "mode", "", "트레이딩 모드 덮어쓰기 (intraday|swing|positional)")
	scoreCmd.Flags().IntVar(&scoreBars, "bars", 200, "타임프레임별 로드할 바 개수 (db 소스)")
	scoreCmd.Flags().IntVar(&scoreTop, "top", 0, "상위 N개만 출력 (0 = 전체)")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "BatchResult JSON 출력")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, log, strategy, err := loadRuntime()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if scoreMode != "" {
		strategy.Mode = scoreMode
		if err := strategyconfig.Validate(strategy); err != nil {
			return fmt.Errorf("mode %q: %w", scoreMode, err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Scorer.Timeout)
	defer cancel()

	// Database (bar source and/or opportunity sink)
	var db *database.DB
	if scoreSource == "db" || cfg.Database.Enabled() {
		db, err = database.New(cfg)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()
	}

	req, err := buildRequest(ctx, cfg, strategy, db, log)
	if err != nil {
		return err
	}

	store, closeStore, err := openHistory(cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	sink, closeSink, err := openSinks(cfg, db, log)
	if err != nil {
		return err
	}
	defer closeSink()

	var rec *metrics.Recorder
	if cfg.Metrics.Enabled {
		rec = metrics.New().WithHTTPClient(httputil.New(5*time.Second, log).WithRetry(2, 200*time.Millisecond))
	}

	orchestrator, err := brain.NewOrchestrator(strategy, brain.Dependencies{
		History: store,
		Sink:    sink,
		Metrics: rec,
		Workers: cfg.Scorer.Workers,
	}, log)
	if err != nil {
		return fmt.Errorf("init orchestrator: %w", err)
	}

	result, runErr := orchestrator.Run(ctx, req)
	if result != nil {
		if scoreJSON {
			if err := printJSON(result); err != nil {
				return err
			}
		} else {
			printRunResult(result, scoreTop)
		}
	}

	if rec != nil && cfg.Metrics.PushgatewayURL != "" {
		pushCtx, pushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer pushCancel()
		if err := rec.Push(pushCtx, cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
			log.WithError(err).Warn("Failed to push metrics")
		}
	}

	if runErr != nil {
		return fmt.Errorf("scoring run: %w", runErr)
	}
	return nil
}

// buildRequest reads the batch from a JSON file or from Postgres
func buildRequest(ctx context.Context, cfg *config.Config, strategy *strategyconfig.Config, db *database.DB, log *logger.Logger) (contracts.BatchRequest, error) {
	var req contracts.BatchRequest

	switch scoreSource {
	case "file":
		if scoreInput == "" {
			return req, fmt.Errorf("--input is required for file source")
		}
		data, err := os.ReadFile(scoreInput)
		if err != nil {
			return req, fmt.Errorf("read input: %w", err)
		}
		if err := json.Unmarshal(data, &req); err != nil {
			return req, fmt.Errorf("decode input %s: %w", scoreInput, err)
		}

	case "db":
		asOf := time.Now()
		if scoreAsOf != "" {
			parsed, err := time.Parse(time.RFC3339, scoreAsOf)
			if err != nil {
				return req, fmt.Errorf("invalid --as-of: %w", err)
			}
			asOf = parsed
		}
		limit := scoreBars
		if need := strategy.Indicators.MinBars(); limit < need {
			limit = need
		}
		loader := brain.NewLoader(repos.NewBarRepository(db.Pool), brain.DefaultIntervals(), limit, log)
		inputs, err := loader.Load(ctx, scoreInstruments, asOf)
		if err != nil {
			return req, fmt.Errorf("load bars: %w", err)
		}
		req.Instruments = inputs
		req.AsOf = asOf

	default:
		return req, fmt.Errorf("unknown source %q (file|db)", scoreSource)
	}

	if scoreAsOf != "" && scoreSource == "file" {
		parsed, err := time.Parse(time.RFC3339, scoreAsOf)
		if err != nil {
			return req, fmt.Errorf("invalid --as-of: %w", err)
		}
		req.AsOf = parsed
	}

	switch {
	case scoreRankBy != "":
		req.RankBy = contracts.RankBy(strings.ToLower(scoreRankBy))
	case req.RankBy == "":
		req.RankBy = contracts.RankBy(cfg.Scorer.RankBy)
	}

	return req, nil
}

// openHistory picks Redis when enabled, otherwise a process-local store
func openHistory(cfg *config.Config, log *logger.Logger) (contracts.HistoryStore, func(), error) {
	if !cfg.Redis.Enabled {
		return history.NewMemoryStore(), func() {}, nil
	}

	client, err := redis.New(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to redis: %w", err)
	}
	cache := redis.NewCache(client, "aegis:signal")
	closeFn := func() {
		if err := client.Close(); err != nil {
			log.WithError(err).Warn("Failed to close redis client")
		}
	}
	return history.NewRedisStore(cache, cfg.Redis.TTL, log), closeFn, nil
}

// openSinks fans opportunities out to Postgres and Kafka when configured, the log otherwise
func openSinks(cfg *config.Config, db *database.DB, log *logger.Logger) (contracts.OpportunityLogger, func(), error) {
	var sinks []contracts.OpportunityLogger
	closeFn := func() {}

	if db != nil {
		sinks = append(sinks, repos.NewOpportunityRepository(db.Pool))
	}

	if cfg.Kafka.Enabled {
		publisher, err := publish.NewKafkaPublisher(cfg.Kafka, log)
		if err != nil {
			return nil, nil, fmt.Errorf("kafka publisher: %w", err)
		}
		sinks = append(sinks, publisher)
		closeFn = func() {
			if err := publisher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close kafka publisher")
			}
		}
	}

	if len(sinks) == 0 {
		sinks = append(sinks, publish.NewLogSink(log))
	}

	return publish.NewMultiSink(sinks...), closeFn, nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
