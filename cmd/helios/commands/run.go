package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/internal/export"
	"github.com/wonny/helios/internal/forecast"
	"github.com/wonny/helios/internal/pipeline"
	"github.com/wonny/helios/internal/portfolio"
	"github.com/wonny/helios/internal/risk"
	"github.com/wonny/helios/internal/store"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "전체 파이프라인 실행",
	Long: `예측 파이프라인을 한 번 실행합니다.

단계:
  load     - 수요 이력 로드
  forecast - ARIMA 적합 및 예측
  simulate - 발전 포지션 손익 시뮬레이션
  risk     - 경험적 VaR 계산
  persist  - 실행 기록 저장
  export   - CSV 내보내기

플래그를 지정하지 않으면 설정(.env) 기본값을 사용합니다.

Example:
  go run ./cmd/helios run
  go run ./cmd/helios run --series demand_actual --horizon 30
  go run ./cmd/helios run -p 2 -d 1 -q 1 --capacity 80 --no-export`,
	RunE: runPipeline,
}

var (
	runSeries      string
	runP           int
	runD           int
	runQ           int
	runHorizon     int
	runCapacity    float64
	runPrice       float64
	runConfidence  float64
	runHistoryDays int
	runExportDir   string
	runNoExport    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSeries, "series", "", "수요 시계열 이름")
	runCmd.Flags().IntVarP(&runP, "ar-order", "p", 0, "AR 차수")
	runCmd.Flags().IntVarP(&runD, "diff-order", "d", 0, "차분 차수")
	runCmd.Flags().IntVarP(&runQ, "ma-order", "q", 0, "MA 차수")
	runCmd.Flags().IntVar(&runHorizon, "horizon", 0, "예측 지평 (일)")
	runCmd.Flags().Float64Var(&runCapacity, "capacity", 0, "발전 용량 (MW)")
	runCmd.Flags().Float64Var(&runPrice, "price", 0, "전력 단가 (통화/MWh)")
	runCmd.Flags().Float64Var(&runConfidence, "confidence", 0, "VaR 신뢰수준 (0~1)")
	runCmd.Flags().IntVar(&runHistoryDays, "history", 0, "적합에 사용할 최근 일수 (0 = 전체)")
	runCmd.Flags().StringVar(&runExportDir, "export-dir", "", "CSV 출력 디렉터리")
	runCmd.Flags().BoolVar(&runNoExport, "no-export", false, "CSV 내보내기 생략")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Helios Pipeline Run ===")

	ctx := cmd.Context()

	cfg, log, db, err := initDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	// 설정 기본값 위에 명시된 플래그만 적용
	runConfig := pipeline.RunConfig{
		Series:      cfg.Pipeline.Series,
		Spec:        contracts.ModelSpec{P: cfg.Pipeline.P, D: cfg.Pipeline.D, Q: cfg.Pipeline.Q},
		Horizon:     cfg.Pipeline.Horizon,
		Position:    contracts.Position{CapacityMW: cfg.Pipeline.CapacityMW, PricePerMWh: cfg.Pipeline.PricePerMWh},
		Confidence:  cfg.Pipeline.Confidence,
		HistoryDays: cfg.Pipeline.HistoryDays,
	}
	exportDir := cfg.Pipeline.ExportDir

	flags := cmd.Flags()
	if flags.Changed("series") {
		runConfig.Series = runSeries
	}
	if flags.Changed("ar-order") {
		runConfig.Spec.P = runP
	}
	if flags.Changed("diff-order") {
		runConfig.Spec.D = runD
	}
	if flags.Changed("ma-order") {
		runConfig.Spec.Q = runQ
	}
	if flags.Changed("horizon") {
		runConfig.Horizon = runHorizon
	}
	if flags.Changed("capacity") {
		runConfig.Position.CapacityMW = runCapacity
	}
	if flags.Changed("price") {
		runConfig.Position.PricePerMWh = runPrice
	}
	if flags.Changed("confidence") {
		runConfig.Confidence = runConfidence
	}
	if flags.Changed("history") {
		runConfig.HistoryDays = runHistoryDays
	}
	if flags.Changed("export-dir") {
		exportDir = runExportDir
	}

	fmt.Println()
	PrintKeyValue("Series", runConfig.Series, 12)
	PrintKeyValue("Spec", runConfig.Spec.String(), 12)
	PrintKeyValue("Horizon", fmt.Sprintf("%d days", runConfig.Horizon), 12)
	PrintKeyValue("Position", fmt.Sprintf("%.1f MW @ %.2f/MWh",
		runConfig.Position.CapacityMW, runConfig.Position.PricePerMWh), 12)
	PrintKeyValue("Confidence", fmt.Sprintf("%.2f", runConfig.Confidence), 12)
	fmt.Println()

	if err := store.EnsureSchema(ctx, db.Pool); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	// 파이프라인 조립
	demandRepo := store.NewDemandRepository(db.Pool)
	runRepo := store.NewRunRepository(db.Pool)

	var exporter pipeline.Exporter
	if !runNoExport {
		exporter = export.NewWriter(exportDir, log.Zerolog())
	}

	runner := pipeline.NewRunner(
		forecast.NewEngine(log.Zerolog()),
		portfolio.NewSimulator(log.Zerolog()),
		risk.NewEngine(log.Zerolog()),
		demandRepo,
		runRepo,
		exporter,
		log,
	)

	result, err := runner.Run(ctx, runConfig)
	if err != nil {
		if result != nil && len(result.CompletedStages) > 0 {
			fmt.Printf("Completed stages: %s\n", strings.Join(result.CompletedStages, " → "))
		}
		return fmt.Errorf("pipeline run: %w", err)
	}

	run := result.Run

	PrintDoubleSeparator()
	fmt.Println("  Pipeline Result")
	PrintSeparator()
	PrintKeyValue("Run ID", run.RunID, 12)
	PrintKeyValue("Status", string(run.Status), 12)
	PrintKeyValue("Stages", strings.Join(result.CompletedStages, " → "), 12)
	PrintKeyValue("History", fmt.Sprintf("%d observations", run.HistoryCount), 12)
	PrintKeyValue("AIC / BIC", fmt.Sprintf("%.2f / %.2f", run.Model.AIC, run.Model.BIC), 12)
	PrintKeyValue("Total PnL", fmt.Sprintf("%.2f", run.TotalPnL), 12)
	PrintKeyValue("VaR", fmt.Sprintf("%.2f @ %.2f", run.VaR.Value, run.VaR.Confidence), 12)
	if result.ExportPath != "" {
		PrintKeyValue("Export", result.ExportPath, 12)
	}
	PrintKeyValue("Duration", result.Duration.Truncate(time.Millisecond).String(), 12)
	PrintSeparator()

	// 예측 결과 앞부분
	widths := []int{12, 14, 14}
	fmt.Println()
	PrintTableHeader([]string{"Date", "Forecast (MW)", "PnL"}, widths)
	rows := len(run.Steps)
	if rows > 5 {
		rows = 5
	}
	for _, step := range run.Steps[:rows] {
		PrintTableRow([]string{
			step.Timestamp.Format("2006-01-02"),
			fmt.Sprintf("%.2f", step.ForecastValue),
			fmt.Sprintf("%.2f", step.PnLValue),
		}, widths)
	}
	if len(run.Steps) > rows {
		fmt.Printf("… %d more\n", len(run.Steps)-rows)
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Pipeline completed in %s", result.Duration.Truncate(time.Millisecond)))
	return nil
}
