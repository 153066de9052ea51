package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// =============================================================================
// Schema - energy.* 테이블 정의
// =============================================================================

// ⭐ SSOT: energy 스키마 DDL은 여기서만
// 마이그레이션 도구 없이 CLI/스케줄러 시작 시 보장한다
var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS energy`,

	`CREATE TABLE IF NOT EXISTS energy.demand_observations (
		series      TEXT             NOT NULL,
		observed_at DATE             NOT NULL,
		demand_mw   DOUBLE PRECISION NOT NULL,
		source      TEXT             NOT NULL DEFAULT 'synthetic',
		created_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		updated_at  TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
		PRIMARY KEY (series, observed_at)
	)`,

	`CREATE TABLE IF NOT EXISTS energy.pipeline_runs (
		run_id        TEXT             PRIMARY KEY,
		series        TEXT             NOT NULL,
		ar_order      INT              NOT NULL,
		diff_order    INT              NOT NULL,
		ma_order      INT              NOT NULL,
		horizon_days  INT              NOT NULL,
		capacity_mw   DOUBLE PRECISION NOT NULL,
		price_per_mwh DOUBLE PRECISION NOT NULL,
		confidence    DOUBLE PRECISION NOT NULL,
		history_count INT              NOT NULL,
		constant_term DOUBLE PRECISION NOT NULL,
		ar_coeffs     DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
		ma_coeffs     DOUBLE PRECISION[] NOT NULL DEFAULT '{}',
		sigma2        DOUBLE PRECISION NOT NULL,
		log_lik       DOUBLE PRECISION NOT NULL,
		aic           DOUBLE PRECISION NOT NULL,
		bic           DOUBLE PRECISION NOT NULL,
		observations  INT              NOT NULL,
		iterations    INT              NOT NULL,
		var_value     DOUBLE PRECISION NOT NULL,
		total_pnl     DOUBLE PRECISION NOT NULL,
		status        TEXT             NOT NULL,
		started_at    TIMESTAMPTZ      NOT NULL,
		finished_at   TIMESTAMPTZ      NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_pipeline_runs_series_started
		ON energy.pipeline_runs (series, started_at DESC)`,

	`CREATE TABLE IF NOT EXISTS energy.run_steps (
		run_id         TEXT             NOT NULL REFERENCES energy.pipeline_runs(run_id) ON DELETE CASCADE,
		step_date      DATE             NOT NULL,
		forecast_value DOUBLE PRECISION NOT NULL,
		pnl_value      DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, step_date)
	)`,
}

// EnsureSchema 스키마와 테이블 생성 (이미 있으면 무시)
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
