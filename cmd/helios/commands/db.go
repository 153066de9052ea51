package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/internal/store"
)

// dbCmd represents the db command group
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "데이터베이스 관리",
	Long:  `데이터베이스 스키마 초기화 등의 명령어를 제공합니다.`,
}

// dbInitCmd represents the db init subcommand
var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "스키마 초기화",
	Long: `energy 스키마와 테이블을 생성합니다.

생성되는 테이블:
- energy.demand_observations : 일별 수요 이력 (series, observed_at PK)
- energy.pipeline_runs       : 파이프라인 실행 기록
- energy.run_steps           : 실행별 시점 단위 예측/손익

이미 존재하면 아무것도 하지 않습니다 (IF NOT EXISTS).

Example:
  go run ./cmd/helios db init`,
	RunE: runDBInit,
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.AddCommand(dbInitCmd)
}

func runDBInit(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Helios Schema Init ===")

	ctx := cmd.Context()

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()
	_ = cfg
	_ = log

	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	PrintSuccess("Schema is up to date")
	return nil
}
