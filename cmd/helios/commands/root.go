package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/database"
	"github.com/wonny/helios/pkg/logger"
)

var (
	// Global flags
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "helios",
	Short: "Helios - 전력 수요 예측/리스크 파이프라인",
	Long: `Helios Unified CLI

일별 전력 수요를 ARIMA로 예측하고, 발전 포지션의 손익을 시뮬레이션한 뒤
경험적 VaR로 리스크를 계산하는 파이프라인.

Usage:
  go run ./cmd/helios [command]

Examples:
  go run ./cmd/helios generate
  go run ./cmd/helios run
  go run ./cmd/helios api
  go run ./cmd/helios scheduler start`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug 레벨 로그 출력")
}

// newLogger builds the CLI logger from config (verbose 플래그가 레벨을 덮어씀)
func newLogger(cfg *config.Config) *logger.Logger {
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	return logger.New(logger.Config{
		Level:  level,
		Format: cfg.LogFormat,
		Env:    cfg.Env,
	})
}

// initDeps loads config, creates the logger and connects to the database
// 대부분의 커맨드가 공유하는 초기화 경로
func initDeps() (*config.Config, *logger.Logger, *database.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg)

	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	return cfg, log, db, nil
}
