package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External sources
	GridPortal GridPortalConfig

	// Pipeline defaults
	Pipeline PipelineConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
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

// GridPortalConfig holds the public grid portal client configuration
type GridPortalConfig struct {
	BaseURL        string
	TimeoutSeconds int
	RatePerSecond  int // 초당 요청 한도
}

// PipelineConfig holds forecast pipeline defaults
// CLI 플래그가 지정되면 플래그가 우선한다
type PipelineConfig struct {
	Series      string // 수요 시계열 이름
	P           int
	D           int
	Q           int
	Horizon     int
	CapacityMW  float64
	PricePerMWh float64
	Confidence  float64
	HistoryDays int // 적합에 사용할 이력 일수 (0 = 전체)
	ExportDir   string
}

// SchedulerConfig holds scheduled run configuration
type SchedulerConfig struct {
	Enabled  bool
	CronSpec string // 초 필드 포함 (robfig/cron WithSeconds)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "helios"),
			User:            getEnv("DB_USER", "helios"),
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
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		// External sources
		GridPortal: GridPortalConfig{
			BaseURL:        getEnv("GRID_PORTAL_BASE_URL", "https://power.kpx.or.kr"),
			TimeoutSeconds: getEnvAsInt("GRID_PORTAL_TIMEOUT_SECONDS", 10),
			RatePerSecond:  getEnvAsInt("GRID_PORTAL_RATE_PER_SECOND", 2),
		},

		// Pipeline defaults
		Pipeline: PipelineConfig{
			Series:      getEnv("PIPELINE_SERIES", "demand_synthetic"),
			P:           getEnvAsInt("PIPELINE_AR_ORDER", 5),
			D:           getEnvAsInt("PIPELINE_DIFF_ORDER", 1),
			Q:           getEnvAsInt("PIPELINE_MA_ORDER", 0),
			Horizon:     getEnvAsInt("PIPELINE_HORIZON_DAYS", 90),
			CapacityMW:  getEnvAsFloat("PIPELINE_CAPACITY_MW", 120),
			PricePerMWh: getEnvAsFloat("PIPELINE_PRICE_PER_MWH", 50),
			Confidence:  getEnvAsFloat("PIPELINE_VAR_CONFIDENCE", 0.95),
			HistoryDays: getEnvAsInt("PIPELINE_HISTORY_DAYS", 0),
			ExportDir:   getEnv("PIPELINE_EXPORT_DIR", "output"),
		},

		// Scheduler
		Scheduler: SchedulerConfig{
			Enabled:  getEnvAsBool("SCHEDULER_ENABLED", true),
			CronSpec: getEnv("SCHEDULER_CRON", "0 0 6 * * *"), // 매일 06:00
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Database URL is required
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Pipeline.Horizon < 1 {
		return fmt.Errorf("PIPELINE_HORIZON_DAYS must be >= 1")
	}
	if c.Pipeline.Confidence <= 0 || c.Pipeline.Confidence >= 1 {
		return fmt.Errorf("PIPELINE_VAR_CONFIDENCE must be between 0 and 1 exclusive")
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
			filepath.Join(exeDir, "..", "..", ".env"),
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
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
