package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/helios/internal/export"
	"github.com/wonny/helios/internal/external/gridportal"
	"github.com/wonny/helios/internal/forecast"
	"github.com/wonny/helios/internal/pipeline"
	"github.com/wonny/helios/internal/portfolio"
	"github.com/wonny/helios/internal/risk"
	"github.com/wonny/helios/internal/scheduler"
	"github.com/wonny/helios/internal/scheduler/jobs"
	"github.com/wonny/helios/internal/store"
	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/httputil"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `스케줄러를 시작하거나 작업을 관리합니다.

이 명령어는:
- 스케줄러 데몬 시작
- 등록된 작업 조회
- 작업 실행 이력 조회

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행
  status  - 작업 실행 상태 조회

Example:
  go run ./cmd/helios scheduler start
  go run ./cmd/helios scheduler list
  go run ./cmd/helios scheduler run pipeline_run`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- demand_fetch: 매일 05:30 (포털 수요 실적 수집)
- pipeline_run: 매일 06:00 (예측 파이프라인 실행, SCHEDULER_CRON으로 변경 가능)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runSchedulerStart,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listSchedulerJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runSchedulerJob,
	}

	schedulerStatusCmd = &cobra.Command{
		Use:   "status",
		Short: "작업 실행 상태 조회",
		RunE:  showSchedulerStatus,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
	schedulerCmd.AddCommand(schedulerStatusCmd)
}

func runSchedulerStart(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Helios Scheduler ===")

	sched, cfg, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if !cfg.Scheduler.Enabled {
		PrintWarning("Scheduler is disabled by config (SCHEDULER_ENABLED=false)")
		return nil
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listSchedulerJobs(cmd *cobra.Command, args []string) error {
	sched, _, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Println("Registered jobs:")
	for _, jobName := range sched.GetAllJobs() {
		fmt.Printf("  - %s\n", jobName)
	}

	return nil
}

func runSchedulerJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, _, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	if err := sched.RunJob(jobName); err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	fmt.Println("Job started (running in background)")
	return nil
}

func showSchedulerStatus(cmd *cobra.Command, args []string) error {
	sched, _, err := initScheduler()
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	stats := sched.GetJobStats()

	fmt.Println("Job Statistics:")
	fmt.Println()

	for jobName, stat := range stats {
		fmt.Printf("📊 %s\n", jobName)
		fmt.Printf("   Schedule: %s\n", stat.Schedule)
		fmt.Printf("   Total Runs: %d\n", stat.TotalRuns)
		fmt.Printf("   Success: %d (%.1f%%)\n", stat.SuccessCount, stat.SuccessRate*100)
		fmt.Printf("   Failures: %d\n", stat.FailureCount)

		if stat.LastRun != nil {
			fmt.Printf("   Last Run: %s\n", stat.LastRun.Format("2006-01-02 15:04:05"))
		}
		if stat.LastSuccess != nil {
			fmt.Printf("   Last Success: %s\n", stat.LastSuccess.Format("2006-01-02 15:04:05"))
		}
		if stat.LastFailure != nil {
			fmt.Printf("   Last Failure: %s\n", stat.LastFailure.Format("2006-01-02 15:04:05"))
		}

		fmt.Println()
	}

	return nil
}

func initScheduler() (*scheduler.Scheduler, *config.Config, error) {
	// 1. Load config, logger, database
	cfg, log, db, err := initDeps()
	if err != nil {
		return nil, nil, err
	}

	// 2. Create HTTP client and portal client
	httpClient := httputil.New(log)
	portalClient := gridportal.NewClient(cfg.GridPortal, httpClient, log)

	// 3. Create repositories
	demandRepo := store.NewDemandRepository(db.Pool)
	runRepo := store.NewRunRepository(db.Pool)

	// 4. Create pipeline runner
	exporter := export.NewWriter(cfg.Pipeline.ExportDir, log.Zerolog())
	runner := pipeline.NewRunner(
		forecast.NewEngine(log.Zerolog()),
		portfolio.NewSimulator(log.Zerolog()),
		risk.NewEngine(log.Zerolog()),
		demandRepo,
		runRepo,
		exporter,
		log,
	)

	// 5. Create scheduler and register jobs
	sched := scheduler.New(log)

	if err := sched.AddJob(jobs.NewDemandFetchJob(portalClient, demandRepo, "demand_actual", log)); err != nil {
		return nil, nil, fmt.Errorf("add demand_fetch job: %w", err)
	}
	if err := sched.AddJob(jobs.NewPipelineJob(runner, cfg.Pipeline, cfg.Scheduler.CronSpec, log)); err != nil {
		return nil, nil, fmt.Errorf("add pipeline_run job: %w", err)
	}

	return sched, cfg, nil
}
