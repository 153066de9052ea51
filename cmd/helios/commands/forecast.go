package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/internal/forecast"
	"github.com/wonny/helios/internal/store"
)

// forecastCmd represents the forecast command
var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "ARIMA 적합 및 예측 (저장 없음)",
	Long: `저장된 수요 이력에 ARIMA 모형을 적합하고 예측값을 출력합니다.

파이프라인 실행과 달리 결과를 저장하지 않는 탐색용 명령어입니다.
차수를 바꿔가며 AIC/BIC를 비교할 때 사용합니다.

Example:
  go run ./cmd/helios forecast
  go run ./cmd/helios forecast --series demand_actual -p 2 -d 1 -q 1
  go run ./cmd/helios forecast --horizon 7 --history 365`,
	RunE: runForecast,
}

var (
	fcSeries  string
	fcP       int
	fcD       int
	fcQ       int
	fcHorizon int
	fcHistory int
)

// 출력할 최대 예측 행 수
const maxForecastRows = 14

func init() {
	rootCmd.AddCommand(forecastCmd)

	forecastCmd.Flags().StringVar(&fcSeries, "series", "demand_synthetic", "적합할 시계열 이름")
	forecastCmd.Flags().IntVarP(&fcP, "ar-order", "p", 5, "AR 차수")
	forecastCmd.Flags().IntVarP(&fcD, "diff-order", "d", 1, "차분 차수")
	forecastCmd.Flags().IntVarP(&fcQ, "ma-order", "q", 0, "MA 차수")
	forecastCmd.Flags().IntVar(&fcHorizon, "horizon", 30, "예측 지평 (일)")
	forecastCmd.Flags().IntVar(&fcHistory, "history", 0, "적합에 사용할 최근 일수 (0 = 전체)")
}

func runForecast(cmd *cobra.Command, args []string) error {
	spec := contracts.ModelSpec{P: fcP, D: fcD, Q: fcQ}

	fmt.Printf("=== Helios Forecast: %s on %s ===\n\n", spec.String(), fcSeries)

	ctx := cmd.Context()

	if fcHorizon < 1 {
		return fmt.Errorf("horizon must be >= 1")
	}

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()
	_ = cfg

	// 이력 로드
	repo := store.NewDemandRepository(db.Pool)

	var history contracts.TimeSeries
	if fcHistory > 0 {
		history, err = repo.GetRecent(ctx, fcSeries, fcHistory)
	} else {
		history, err = repo.GetSeries(ctx, fcSeries)
	}
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	fmt.Printf("📊 History: %d observations\n\n", history.Len())

	// 적합
	engine := forecast.NewEngine(log.Zerolog())
	model, err := engine.Fit(history, spec)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	summary := model.Summary()

	fmt.Println("Model Summary")
	PrintSeparator()
	PrintKeyValue("Spec", summary.Spec.String(), 12)
	if spec.D == 0 {
		PrintKeyValue("Constant", fmt.Sprintf("%.4f", summary.Constant), 12)
	}
	if len(summary.AR) > 0 {
		PrintKeyValue("AR", formatCoeffs(summary.AR), 12)
	}
	if len(summary.MA) > 0 {
		PrintKeyValue("MA", formatCoeffs(summary.MA), 12)
	}
	PrintKeyValue("Sigma²", fmt.Sprintf("%.4f", summary.Sigma2), 12)
	PrintKeyValue("LogLik", fmt.Sprintf("%.2f", summary.LogLik), 12)
	PrintKeyValue("AIC", fmt.Sprintf("%.2f", summary.AIC), 12)
	PrintKeyValue("BIC", fmt.Sprintf("%.2f", summary.BIC), 12)
	PrintKeyValue("Iterations", fmt.Sprintf("%d", summary.Iterations), 12)

	// 예측
	result := model.Forecast(fcHorizon)

	fmt.Println()
	fmt.Printf("Forecast (%d days)\n", fcHorizon)
	widths := []int{12, 14}
	PrintTableHeader([]string{"Date", "Demand (MW)"}, widths)

	rows := len(result.Points)
	if rows > maxForecastRows {
		rows = maxForecastRows
	}
	for _, p := range result.Points[:rows] {
		PrintTableRow([]string{
			p.Timestamp.Format("2006-01-02"),
			fmt.Sprintf("%.2f", p.Value),
		}, widths)
	}
	if len(result.Points) > rows {
		fmt.Printf("… %d more\n", len(result.Points)-rows)
	}

	fmt.Println()
	PrintSuccess("Forecast completed (not persisted)")
	return nil
}

func formatCoeffs(coeffs []float64) string {
	parts := make([]string, len(coeffs))
	for i, c := range coeffs {
		parts[i] = fmt.Sprintf("%.4f", c)
	}
	return strings.Join(parts, ", ")
}
