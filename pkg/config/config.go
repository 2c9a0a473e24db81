package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all process configuration for the scorer
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
// 스코어링 임계값은 여기가 아니라 internal/strategyconfig (YAML)
type Config struct {
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis (momentum history)
	Redis RedisConfig

	// Kafka (opportunity publishing)
	Kafka KafkaConfig

	// Scorer
	Scorer ScorerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	Metrics MetricsConfig
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	TTL      time.Duration // history entry lifetime
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled checks if a database URL is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// KafkaConfig holds Kafka producer configuration
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Enabled      bool
	BatchTimeout time.Duration
}

// ScorerConfig holds scoring-run settings
type ScorerConfig struct {
	StrategyPath string // YAML 전략 설정 경로
	Workers      int    // 0 = 유니버스 크기 기준 자동
	RankBy       string // composite | master
	Timeout      time.Duration
}

// MetricsConfig holds Prometheus settings
type MetricsConfig struct {
	Enabled        bool
	PushgatewayURL string // 비어 있으면 push 생략
	Job            string
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "aegis_signal"),
			User:            getEnv("DB_USER", "aegis_signal"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			TTL:      getEnvAsDuration("REDIS_HISTORY_TTL", "168h"),
		},

		// Kafka
		Kafka: KafkaConfig{
			Brokers:      getEnvAsList("KAFKA_BROKERS", "localhost:9092"),
			Topic:        getEnv("KAFKA_TOPIC", "signal.opportunities"),
			Enabled:      getEnvAsBool("KAFKA_ENABLED", false),
			BatchTimeout: getEnvAsDuration("KAFKA_BATCH_TIMEOUT", "50ms"),
		},

		// Scorer
		Scorer: ScorerConfig{
			StrategyPath: getEnv("STRATEGY_PATH", "config/strategy/aegis_signal_v1.yaml"),
			Workers:      getEnvAsInt("SCORER_WORKERS", 0),
			RankBy:       getEnv("SCORER_RANK_BY", "master"),
			Timeout:      getEnvAsDuration("SCORER_TIMEOUT", "5m"),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		Metrics: MetricsConfig{
			Enabled:        getEnvAsBool("METRICS_ENABLED", true),
			PushgatewayURL: getEnv("METRICS_PUSHGATEWAY_URL", ""),
			Job:            getEnv("METRICS_JOB", "aegis_signal_scorer"),
		},
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if configuration values are consistent
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scorer.RankBy != "composite" && c.Scorer.RankBy != "master" {
		return fmt.Errorf("SCORER_RANK_BY must be one of: composite, master")
	}

	if c.Scorer.Workers < 0 {
		return fmt.Errorf("SCORER_WORKERS must be >= 0")
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return fmt.Errorf("KAFKA_BROKERS and KAFKA_TOPIC are required when KAFKA_ENABLED")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList splits a comma-separated value, dropping empty entries
func getEnvAsList(key string, defaultValue string) []string {
	valueStr := getEnv(key, defaultValue)
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
