// Package jobs 스케줄러에 등록되는 작업 구현을 모아둡니다.
package jobs

import (
	"context"
	"fmt"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/internal/pipeline"
	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/logger"
)

// PipelineRunner 파이프라인 실행기 (pipeline.Runner가 구현)
type PipelineRunner interface {
	Run(ctx context.Context, config pipeline.RunConfig) (*pipeline.RunResult, error)
}

// 기본 스케줄: 매일 06:00 (수요 수집 이후)
const defaultPipelineSchedule = "0 0 6 * * *"

// PipelineJob runs the full forecast pipeline on schedule
// ⭐ SSOT: 파이프라인 주기 실행은 이 Job에서만
type PipelineJob struct {
	runner   PipelineRunner
	config   config.PipelineConfig
	schedule string
	logger   *logger.Logger
}

// NewPipelineJob creates a new pipeline job
// schedule이 비어 있으면 기본 스케줄 사용
func NewPipelineJob(runner PipelineRunner, cfg config.PipelineConfig, schedule string, log *logger.Logger) *PipelineJob {
	if schedule == "" {
		schedule = defaultPipelineSchedule
	}

	return &PipelineJob{
		runner:   runner,
		config:   cfg,
		schedule: schedule,
		logger:   log.WithComponent("jobs.pipeline_run"),
	}
}

// Name returns the job name
func (j *PipelineJob) Name() string {
	return "pipeline_run"
}

// Schedule returns the cron schedule
func (j *PipelineJob) Schedule() string {
	return j.schedule
}

// Run executes the full pipeline with the configured parameters
func (j *PipelineJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled pipeline run")

	runConfig := pipeline.RunConfig{
		Series:      j.config.Series,
		Spec:        contracts.ModelSpec{P: j.config.P, D: j.config.D, Q: j.config.Q},
		Horizon:     j.config.Horizon,
		Position:    contracts.Position{CapacityMW: j.config.CapacityMW, PricePerMWh: j.config.PricePerMWh},
		Confidence:  j.config.Confidence,
		HistoryDays: j.config.HistoryDays,
	}

	result, err := j.runner.Run(ctx, runConfig)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    result.Run.RunID,
		"total_pnl": result.Run.TotalPnL,
		"var":       result.Run.VaR.Value,
		"duration":  result.Duration.Seconds(),
	}).Info("Scheduled pipeline run completed successfully")

	return nil
}
