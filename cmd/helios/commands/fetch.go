package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/internal/external/gridportal"
	"github.com/wonny/helios/internal/store"
	"github.com/wonny/helios/pkg/httputil"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "전력거래소 포털에서 수요 실적 수집",
	Long: `전력거래소 공개 포털에서 일별 수요 실적을 수집하여 저장합니다.

이 명령어는:
- 포털 일별 수요 페이지를 페이지네이션으로 순회
- 레이트 리밋(초당 요청 수) 준수
- 기존 날짜는 업서트 (재실행 안전)

Example:
  go run ./cmd/helios fetch
  go run ./cmd/helios fetch --from 2026-01-01 --to 2026-03-31
  go run ./cmd/helios fetch --series demand_actual --from 2026-06-01`,
	RunE: runFetch,
}

var (
	fetchSeries string
	fetchFrom   string
	fetchTo     string
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVar(&fetchSeries, "series", "demand_actual", "저장할 시계열 이름")
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "시작 날짜 (YYYY-MM-DD, 기본: 30일 전)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "종료 날짜 (YYYY-MM-DD, 기본: 오늘)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Helios Demand Fetcher ===")

	ctx := cmd.Context()

	// 날짜 파싱
	to := time.Now().UTC().Truncate(24 * time.Hour)
	from := to.AddDate(0, 0, -30)
	var err error

	if fetchFrom != "" {
		from, err = time.Parse("2006-01-02", fetchFrom)
		if err != nil {
			return fmt.Errorf("invalid from date: %w", err)
		}
	}
	if fetchTo != "" {
		to, err = time.Parse("2006-01-02", fetchTo)
		if err != nil {
			return fmt.Errorf("invalid to date: %w", err)
		}
	}
	if to.Before(from) {
		return fmt.Errorf("to date %s is before from date %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	fmt.Printf("📅 Period: %s ~ %s\n\n", from.Format("2006-01-02"), to.Format("2006-01-02"))

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	httpClient := httputil.New(log)
	client := gridportal.NewClient(cfg.GridPortal, httpClient, log)

	ts, err := client.FetchDailyDemand(ctx, from, to)
	if err != nil {
		if errors.Is(err, gridportal.ErrNoData) {
			PrintWarning("No demand data published for the requested period")
			return nil
		}
		return fmt.Errorf("fetch daily demand: %w", err)
	}

	repo := store.NewDemandRepository(db.Pool)
	if err := repo.SaveSeries(ctx, fetchSeries, "gridportal", ts); err != nil {
		return fmt.Errorf("save series: %w", err)
	}

	last := ts.Last()
	fmt.Println()
	PrintKeyValue("Series", fetchSeries, 12)
	PrintKeyValue("Observations", fmt.Sprintf("%d", ts.Len()), 12)
	PrintKeyValue("Latest", fmt.Sprintf("%s  %.1f MW", last.Timestamp.Format("2006-01-02"), last.Value), 12)

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Fetched and saved %d observations", ts.Len()))
	return nil
}
