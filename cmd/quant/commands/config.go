package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/aegis-signal/internal/strategyconfig"
	"github.com/wonny/aegis-signal/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "전략 설정 검증/해시/덤프",
	Long: `전략 YAML 을 다룹니다.

모든 임계값은 YAML 한 곳에서만 정의되며 (SSOT),
시그널마다 설정 해시가 기록되어 재현성을 보장합니다.

Example:
  go run ./cmd/quant config validate
  go run ./cmd/quant config hash --strategy config/strategy/aegis_signal_v1.yaml
  go run ./cmd/quant config dump`,
}

var (
	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "전략 YAML 검증 (경고 포함)",
		RunE:  runConfigValidate,
	}

	configHashCmd = &cobra.Command{
		Use:   "hash",
		Short: "유효 설정의 SHA-256 해시 출력",
		RunE:  runConfigHash,
	}

	configDumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "기본값이 적용된 유효 설정을 YAML 로 출력",
		RunE:  runConfigDump,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configHashCmd)
	configCmd.AddCommand(configDumpCmd)
}

// loadStrategy reads the strategy YAML only (no process-level side effects)
func loadStrategy() (*strategyconfig.Config, string, error) {
	path := strategyPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, "", fmt.Errorf("load config: %w", err)
		}
		path = cfg.Scorer.StrategyPath
	}
	strategy, _, err := strategyconfig.Load(path)
	if err != nil {
		return nil, path, err
	}
	return strategy, path, nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	strategy, path, err := loadStrategy()
	if err != nil {
		PrintError(fmt.Sprintf("%s: %v", path, err))
		return err
	}

	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash config: %w", err)
	}

	PrintSuccess(fmt.Sprintf("%s is valid", path))
	PrintKeyValue("Strategy", strategy.Meta.StrategyID, 10)
	PrintKeyValue("Version", strategy.Meta.Version, 10)
	PrintKeyValue("Mode", strategy.Mode, 10)
	PrintKeyValue("Policy", strategy.Robustness.Policy, 10)
	PrintKeyValue("Hash", hash, 10)

	for _, w := range strategyconfig.Warn(strategy) {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}
	return nil
}

func runConfigHash(cmd *cobra.Command, args []string) error {
	strategy, _, err := loadStrategy()
	if err != nil {
		return err
	}
	hash, err := strategyconfig.Hash(strategy)
	if err != nil {
		return fmt.Errorf("hash config: %w", err)
	}
	fmt.Println(hash)
	return nil
}

func runConfigDump(cmd *cobra.Command, args []string) error {
	strategy, _, err := loadStrategy()
	if err != nil {
		return err
	}
	out, err := strategyconfig.Dump(strategy)
	if err != nil {
		return fmt.Errorf("dump config: %w", err)
	}
	_, err = os.Stdout.Write(out)
	return err
}
