package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/config"
	"github.com/wonny/aegis-signal/pkg/logger"
)

var (
	// Global flags
	strategyPath string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "Aegis Signal - 멀티 타임프레임 시그널 스코어링 엔진",
	Long: `Aegis Signal Unified CLI

이미 수집된 OHLCV 바를 받아 종목별 시그널을 계산하고 랭킹합니다.
S1 지표 → S2 점수/신뢰도 → S3 견고성 → S4 컨텍스트 → S5 마스터 → S6 지속성 → S7 특수일

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant score --input bars.json
  go run ./cmd/quant score --source db --as-of 2025-03-04T15:30:00+09:00
  go run ./cmd/quant config validate
  go run ./cmd/quant check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyPath, "strategy", "", "strategy YAML (default: STRATEGY_PATH)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
}

// loadRuntime loads process config, the stderr logger and the strategy config
func loadRuntime() (*config.Config, *logger.Logger, *strategyconfig.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, err
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// stdout은 결과 출력용
	log := logger.NewWithWriter(cfg, os.Stderr)

	path := strategyPath
	if path == "" {
		path = cfg.Scorer.StrategyPath
	}
	strategy, _, err := strategyconfig.Load(path)
	if err != nil {
		return cfg, log, nil, err
	}

	for _, w := range strategyconfig.Warn(strategy) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	return cfg, log, strategy, nil
}
