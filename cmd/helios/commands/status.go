package commands

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/internal/store"
	"github.com/wonny/helios/pkg/redis"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "시스템 상태 점검",
	Long: `데이터베이스/Redis 연결과 저장된 데이터 현황을 점검합니다.

표시 정보:
- DB 연결 상태 및 커넥션 풀 통계
- Redis 연결 상태
- 저장된 수요 시계열 목록과 관측치 수
- 최신 파이프라인 실행 요약

Example:
  go run ./cmd/helios status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Helios System Status ===")

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()
	_ = log

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	fmt.Printf("\nEnvironment: %s\n", cfg.Env)
	fmt.Printf("Database: %s\n", maskDatabaseURL(cfg.Database.URL))

	// DB health
	fmt.Println("\n🗄  Database")
	PrintSeparator()
	health, err := db.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	PrintKeyValue("Healthy", fmt.Sprintf("%v", health.Healthy), 14)
	PrintKeyValue("Response Time", health.ResponseTime.String(), 14)
	PrintKeyValue("Connections", fmt.Sprintf("%d/%d (idle %d)",
		health.Stats.TotalConns, health.Stats.MaxConns, health.Stats.IdleConns), 14)

	// Redis health
	fmt.Println("\n⚡ Redis")
	PrintSeparator()
	redisClient, err := redis.New(cfg.Redis)
	switch {
	case err != nil:
		PrintKeyValue("Status", fmt.Sprintf("error (%v)", err), 14)
	case !redisClient.Enabled():
		PrintKeyValue("Status", "disabled", 14)
	default:
		if err := redisClient.Ping(ctx); err != nil {
			PrintKeyValue("Status", fmt.Sprintf("error (%v)", err), 14)
		} else {
			PrintKeyValue("Status", "ok", 14)
		}
		redisClient.Close()
	}

	// Demand series inventory
	fmt.Println("\n📊 Demand Series")
	PrintSeparator()
	demandRepo := store.NewDemandRepository(db.Pool)
	seriesNames, err := demandRepo.ListSeries(ctx)
	if err != nil {
		return fmt.Errorf("list series: %w", err)
	}

	if len(seriesNames) == 0 {
		fmt.Println("   (none — run 'generate' or 'fetch' first)")
	} else {
		widths := []int{24, 8, 22}
		PrintTableHeader([]string{"Series", "Count", "Latest"}, widths)
		for _, name := range seriesNames {
			count, err := demandRepo.Count(ctx, name)
			if err != nil {
				return fmt.Errorf("count %s: %w", name, err)
			}

			latest := "-"
			if obs, found, err := demandRepo.GetLatest(ctx, name); err == nil && found {
				latest = fmt.Sprintf("%s  %.1f", obs.Timestamp.Format("2006-01-02"), obs.Value)
			}

			PrintTableRow([]string{name, fmt.Sprintf("%d", count), latest}, widths)
		}
	}

	// Latest run
	fmt.Println("\n🏁 Latest Run")
	PrintSeparator()
	runRepo := store.NewRunRepository(db.Pool)
	run, err := runRepo.GetLatestRun(ctx, cfg.Pipeline.Series)
	switch {
	case errors.Is(err, store.ErrRunNotFound):
		fmt.Printf("   (no runs for %s yet)\n", cfg.Pipeline.Series)
	case err != nil:
		return fmt.Errorf("get latest run: %w", err)
	default:
		PrintKeyValue("Run ID", run.RunID, 12)
		PrintKeyValue("Status", string(run.Status), 12)
		PrintKeyValue("Spec", run.Spec.String(), 12)
		PrintKeyValue("Total PnL", fmt.Sprintf("%.2f", run.TotalPnL), 12)
		PrintKeyValue("VaR", fmt.Sprintf("%.2f @ %.2f", run.VaR.Value, run.VaR.Confidence), 12)
		PrintKeyValue("Finished", run.FinishedAt.Format("2006-01-02 15:04:05"), 12)
	}

	fmt.Println()
	PrintSuccess("Status check completed")
	return nil
}

// maskDatabaseURL hides the password in a connection URL for display
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable)"
	}
	return u.Redacted()
}
