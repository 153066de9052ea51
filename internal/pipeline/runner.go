// Package pipeline 수요 예측 → 포지션 손익 → 리스크 평가 파이프라인을 조율합니다.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/internal/forecast"
	"github.com/wonny/helios/internal/portfolio"
	"github.com/wonny/helios/internal/risk"
	"github.com/wonny/helios/pkg/logger"
)

// DemandStore 수요 이력 조회 (store.DemandRepository가 구현)
type DemandStore interface {
	GetSeries(ctx context.Context, series string) (contracts.TimeSeries, error)
	GetRecent(ctx context.Context, series string, days int) (contracts.TimeSeries, error)
}

// RunStore 실행 기록 저장 (store.RunRepository가 구현)
type RunStore interface {
	SaveRun(ctx context.Context, run *contracts.PipelineRun) error
}

// Exporter 실행 결과 파일 내보내기 (export.Writer가 구현)
type Exporter interface {
	WriteRun(run *contracts.PipelineRun) (string, error)
}

// Runner coordinates the forecast → position → risk pipeline
// ⭐ SSOT: 파이프라인 조율은 여기서만
type Runner struct {
	// Stage components
	forecastEngine *forecast.Engine
	simulator      *portfolio.Simulator
	riskEngine     *risk.Engine

	// Storage
	demandStore DemandStore
	runStore    RunStore
	exporter    Exporter // nil이면 파일 내보내기 생략

	logger *logger.Logger
}

// RunConfig holds configuration for a pipeline run
type RunConfig struct {
	Series      string
	Spec        contracts.ModelSpec
	Horizon     int
	Position    contracts.Position
	Confidence  float64
	HistoryDays int // 0이면 전체 이력 사용
}

// RunResult holds the results of a complete pipeline run
type RunResult struct {
	Run             *contracts.PipelineRun
	CompletedStages []string
	ExportPath      string
	Duration        time.Duration
}

// NewRunner creates a new pipeline runner
func NewRunner(
	forecastEngine *forecast.Engine,
	simulator *portfolio.Simulator,
	riskEngine *risk.Engine,
	demandStore DemandStore,
	runStore RunStore,
	exporter Exporter,
	log *logger.Logger,
) *Runner {
	return &Runner{
		forecastEngine: forecastEngine,
		simulator:      simulator,
		riskEngine:     riskEngine,
		demandStore:    demandStore,
		runStore:       runStore,
		exporter:       exporter,
		logger:         log.WithComponent("pipeline.runner"),
	}
}

// Run executes the complete pipeline
// load → forecast → simulate → risk → persist/export
// 어느 단계든 실패하면 즉시 중단하고 실패 기록을 남긴다
func (r *Runner) Run(ctx context.Context, config RunConfig) (*RunResult, error) {
	startTime := time.Now()

	run := &contracts.PipelineRun{
		RunID:      uuid.New().String(),
		Series:     config.Series,
		Spec:       config.Spec,
		Horizon:    config.Horizon,
		Position:   config.Position,
		Confidence: config.Confidence,
		Status:     contracts.RunStatusFailed,
		StartedAt:  startTime,
	}

	result := &RunResult{
		Run:             run,
		CompletedStages: make([]string, 0),
	}

	// 이후 모든 스테이지 로그에 run_id가 붙는다
	runLog := r.logger.WithRun(run.RunID)

	runLog.WithFields(map[string]interface{}{
		"series":     config.Series,
		"spec":       config.Spec.String(),
		"horizon":    config.Horizon,
		"confidence": config.Confidence,
	}).Info("Starting pipeline run")

	// Stage 1: Load History
	history, err := r.loadHistory(ctx, config, runLog)
	if err != nil {
		return r.fail(ctx, result, fmt.Errorf("load stage failed: %w", err))
	}
	run.HistoryCount = history.Len()
	result.CompletedStages = append(result.CompletedStages, "load")

	// Stage 2: Forecast
	model, forecastResult, err := r.runForecast(history, config, runLog)
	if err != nil {
		return r.fail(ctx, result, fmt.Errorf("forecast stage failed: %w", err))
	}
	run.Model = model.Summary()
	result.CompletedStages = append(result.CompletedStages, "forecast")

	// Stage 3: Simulate PnL
	pnl, err := r.runSimulation(forecastResult, config, runLog)
	if err != nil {
		return r.fail(ctx, result, fmt.Errorf("simulate stage failed: %w", err))
	}
	run.TotalPnL = pnl.Total()
	run.Steps = buildSteps(forecastResult, pnl)
	result.CompletedStages = append(result.CompletedStages, "simulate")

	// Stage 4: Value at Risk
	varMetric, err := r.runRisk(pnl, config, runLog)
	if err != nil {
		return r.fail(ctx, result, fmt.Errorf("risk stage failed: %w", err))
	}
	run.VaR = varMetric
	result.CompletedStages = append(result.CompletedStages, "risk")

	// Stage 5: Persist + Export
	run.Status = contracts.RunStatusCompleted
	run.FinishedAt = time.Now()

	if err := r.runStore.SaveRun(ctx, run); err != nil {
		run.Status = contracts.RunStatusFailed
		return result, fmt.Errorf("persist stage failed: %w", err)
	}
	result.CompletedStages = append(result.CompletedStages, "persist")

	if r.exporter != nil {
		path, err := r.exporter.WriteRun(run)
		if err != nil {
			return result, fmt.Errorf("export stage failed: %w", err)
		}
		result.ExportPath = path
		result.CompletedStages = append(result.CompletedStages, "export")
	}

	result.Duration = time.Since(startTime)

	runLog.WithFields(map[string]interface{}{
		"duration":  result.Duration.Seconds(),
		"stages":    len(result.CompletedStages),
		"total_pnl": run.TotalPnL,
		"var":       run.VaR.Value,
	}).Info("Pipeline run completed successfully")

	return result, nil
}

// loadHistory executes stage 1: 수요 이력 적재
func (r *Runner) loadHistory(ctx context.Context, config RunConfig, log *logger.Logger) (contracts.TimeSeries, error) {
	log.Info("Running stage: load history")

	var history contracts.TimeSeries
	var err error

	if config.HistoryDays > 0 {
		history, err = r.demandStore.GetRecent(ctx, config.Series, config.HistoryDays)
	} else {
		history, err = r.demandStore.GetSeries(ctx, config.Series)
	}
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("load demand history: %w", err)
	}

	log.WithFields(map[string]interface{}{
		"series":       config.Series,
		"observations": history.Len(),
	}).Info("Stage load completed")

	return history, nil
}

// runForecast executes stage 2: 모델 적합 + 예측
func (r *Runner) runForecast(history contracts.TimeSeries, config RunConfig, log *logger.Logger) (*forecast.Model, contracts.ForecastResult, error) {
	log.Info("Running stage: forecast")

	if config.Horizon < 1 {
		return nil, contracts.ForecastResult{}, fmt.Errorf("%w: horizon must be >= 1, got %d",
			forecast.ErrInvalidSpec, config.Horizon)
	}

	model, err := r.forecastEngine.Fit(history, config.Spec)
	if err != nil {
		return nil, contracts.ForecastResult{}, err
	}

	forecastResult := model.Forecast(config.Horizon)

	summary := model.Summary()
	log.WithFields(map[string]interface{}{
		"spec":       config.Spec.String(),
		"sigma2":     summary.Sigma2,
		"aic":        summary.AIC,
		"iterations": summary.Iterations,
		"steps":      forecastResult.Len(),
	}).Info("Stage forecast completed")

	return model, forecastResult, nil
}

// runSimulation executes stage 3: 손익 시뮬레이션
func (r *Runner) runSimulation(forecastResult contracts.ForecastResult, config RunConfig, log *logger.Logger) (contracts.PnLSeries, error) {
	log.Info("Running stage: simulate")

	pnl, err := r.simulator.Simulate(forecastResult, config.Position)
	if err != nil {
		return contracts.PnLSeries{}, err
	}

	log.WithFields(map[string]interface{}{
		"steps":     pnl.Len(),
		"total_pnl": pnl.Total(),
	}).Info("Stage simulate completed")

	return pnl, nil
}

// runRisk executes stage 4: VaR 계산
func (r *Runner) runRisk(pnl contracts.PnLSeries, config RunConfig, log *logger.Logger) (contracts.RiskMetric, error) {
	log.Info("Running stage: risk")

	varMetric, err := r.riskEngine.ValueAtRisk(pnl, config.Confidence)
	if err != nil {
		return contracts.RiskMetric{}, err
	}

	log.WithFields(map[string]interface{}{
		"confidence": varMetric.Confidence,
		"var":        varMetric.Value,
	}).Info("Stage risk completed")

	return varMetric, nil
}

// fail 실패 기록을 남기고 원래 오류를 그대로 반환
// 실패 기록 저장 자체가 실패해도 파이프라인 오류를 덮지 않는다
func (r *Runner) fail(ctx context.Context, result *RunResult, stageErr error) (*RunResult, error) {
	run := result.Run
	run.Status = contracts.RunStatusFailed
	run.FinishedAt = time.Now()
	result.Duration = run.FinishedAt.Sub(run.StartedAt)

	runLog := r.logger.WithRun(run.RunID)
	if err := r.runStore.SaveRun(ctx, run); err != nil {
		runLog.WithError(err).Warn("Failed to record failed run")
	}

	runLog.WithFields(map[string]interface{}{
		"stages": len(result.CompletedStages),
		"error":  stageErr.Error(),
	}).Error("Pipeline run failed")

	return result, stageErr
}

// buildSteps 예측 경로와 손익 경로를 시점별 행으로 결합
// 두 경로는 같은 타임스탬프를 공유한다 (시뮬레이터 계약)
func buildSteps(forecastResult contracts.ForecastResult, pnl contracts.PnLSeries) []contracts.RunStep {
	steps := make([]contracts.RunStep, forecastResult.Len())
	for i, fp := range forecastResult.Points {
		steps[i] = contracts.RunStep{
			Timestamp:     fp.Timestamp,
			ForecastValue: fp.Value,
			PnLValue:      pnl.Points[i].Value,
		}
	}
	return steps
}
