package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/helios/internal/contracts"
)

// ErrRunNotFound 해당 실행 기록 없음
var ErrRunNotFound = errors.New("run not found")

const runColumns = `run_id, series, ar_order, diff_order, ma_order, horizon_days,
	capacity_mw, price_per_mwh, confidence, history_count,
	constant_term, ar_coeffs, ma_coeffs, sigma2, log_lik, aic, bic,
	observations, iterations, var_value, total_pnl, status, started_at, finished_at`

// RunRepository 파이프라인 실행 기록 저장소
type RunRepository struct {
	pool *pgxpool.Pool
}

// NewRunRepository 새 저장소 생성
func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

// SaveRun 실행 기록과 시점별 행을 단일 트랜잭션으로 저장
// ⭐ SSOT: 실행 기록 저장은 이 함수에서만
func (r *RunRepository) SaveRun(ctx context.Context, run *contracts.PipelineRun) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	runQuery := `
		INSERT INTO energy.pipeline_runs (` + runColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)`

	_, err = tx.Exec(ctx, runQuery,
		run.RunID, run.Series, run.Spec.P, run.Spec.D, run.Spec.Q, run.Horizon,
		run.Position.CapacityMW, run.Position.PricePerMWh, run.Confidence, run.HistoryCount,
		run.Model.Constant, run.Model.AR, run.Model.MA, run.Model.Sigma2, run.Model.LogLik,
		run.Model.AIC, run.Model.BIC, run.Model.Observations, run.Model.Iterations,
		run.VaR.Value, run.TotalPnL, string(run.Status), run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(run.Steps) > 0 {
		batch := &pgx.Batch{}
		stepQuery := `
			INSERT INTO energy.run_steps (run_id, step_date, forecast_value, pnl_value)
			VALUES ($1, $2, $3, $4)`

		for _, step := range run.Steps {
			batch.Queue(stepQuery, run.RunID, step.Timestamp, step.ForecastValue, step.PnLValue)
		}

		br := tx.SendBatch(ctx, batch)
		for range run.Steps {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("insert run step: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("close step batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}

// GetRun 실행 ID로 조회 (시점별 행 포함)
func (r *RunRepository) GetRun(ctx context.Context, runID string) (*contracts.PipelineRun, error) {
	query := `SELECT ` + runColumns + ` FROM energy.pipeline_runs WHERE run_id = $1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, runID))
	if err != nil {
		return nil, err
	}

	steps, err := r.GetRunSteps(ctx, run.RunID)
	if err != nil {
		return nil, err
	}
	run.Steps = steps

	return run, nil
}

// GetLatestRun 시계열의 가장 최근 실행 조회 (시점별 행 포함)
func (r *RunRepository) GetLatestRun(ctx context.Context, series string) (*contracts.PipelineRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM energy.pipeline_runs
		WHERE series = $1
		ORDER BY started_at DESC
		LIMIT 1`

	run, err := scanRun(r.pool.QueryRow(ctx, query, series))
	if err != nil {
		return nil, err
	}

	steps, err := r.GetRunSteps(ctx, run.RunID)
	if err != nil {
		return nil, err
	}
	run.Steps = steps

	return run, nil
}

// ListRuns 최근 실행 목록 (시점별 행 제외)
func (r *RunRepository) ListRuns(ctx context.Context, series string, limit int) ([]contracts.PipelineRun, error) {
	query := `
		SELECT ` + runColumns + `
		FROM energy.pipeline_runs
		WHERE series = $1
		ORDER BY started_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, series, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []contracts.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return runs, nil
}

// GetRunSteps 실행의 시점별 예측/손익 행 조회
func (r *RunRepository) GetRunSteps(ctx context.Context, runID string) ([]contracts.RunStep, error) {
	query := `
		SELECT step_date, forecast_value, pnl_value
		FROM energy.run_steps
		WHERE run_id = $1
		ORDER BY step_date`

	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query run steps: %w", err)
	}
	defer rows.Close()

	var steps []contracts.RunStep
	for rows.Next() {
		var step contracts.RunStep
		if err := rows.Scan(&step.Timestamp, &step.ForecastValue, &step.PnLValue); err != nil {
			return nil, fmt.Errorf("scan run step: %w", err)
		}
		steps = append(steps, step)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return steps, nil
}

// scanRun 단일 행을 PipelineRun으로 변환
func scanRun(row pgx.Row) (*contracts.PipelineRun, error) {
	var run contracts.PipelineRun
	var status string

	err := row.Scan(
		&run.RunID, &run.Series, &run.Spec.P, &run.Spec.D, &run.Spec.Q, &run.Horizon,
		&run.Position.CapacityMW, &run.Position.PricePerMWh, &run.Confidence, &run.HistoryCount,
		&run.Model.Constant, &run.Model.AR, &run.Model.MA, &run.Model.Sigma2, &run.Model.LogLik,
		&run.Model.AIC, &run.Model.BIC, &run.Model.Observations, &run.Model.Iterations,
		&run.VaR.Value, &run.TotalPnL, &status, &run.StartedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Status = contracts.RunStatus(status)
	run.Model.Spec = run.Spec
	run.VaR.Confidence = run.Confidence

	return &run, nil
}
