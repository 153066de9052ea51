package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/helios/internal/contracts"
)

// DemandRepository 일별 수요 관측 저장소
type DemandRepository struct {
	pool *pgxpool.Pool
}

// NewDemandRepository 새 저장소 생성
func NewDemandRepository(pool *pgxpool.Pool) *DemandRepository {
	return &DemandRepository{pool: pool}
}

// SaveSeries 시계열 일괄 upsert
// ⭐ SSOT: 수요 관측 저장은 이 함수에서만
func (r *DemandRepository) SaveSeries(ctx context.Context, series, source string, ts contracts.TimeSeries) error {
	if ts.Len() == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	query := `
		INSERT INTO energy.demand_observations
			(series, observed_at, demand_mw, source)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (series, observed_at) DO UPDATE SET
			demand_mw = EXCLUDED.demand_mw,
			source = EXCLUDED.source,
			updated_at = NOW()`

	for _, obs := range ts.Observations {
		batch.Queue(query, series, obs.Timestamp, obs.Value, source)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range ts.Observations {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert observation: %w", err)
		}
	}

	return nil
}

// GetSeries 시계열 전체 조회 (시간 오름차순)
func (r *DemandRepository) GetSeries(ctx context.Context, series string) (contracts.TimeSeries, error) {
	query := `
		SELECT observed_at, demand_mw
		FROM energy.demand_observations
		WHERE series = $1
		ORDER BY observed_at`

	rows, err := r.pool.Query(ctx, query, series)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("query series: %w", err)
	}

	return scanSeries(rows)
}

// GetSeriesRange 기간 조회 (from <= t <= to)
func (r *DemandRepository) GetSeriesRange(ctx context.Context, series string, from, to time.Time) (contracts.TimeSeries, error) {
	query := `
		SELECT observed_at, demand_mw
		FROM energy.demand_observations
		WHERE series = $1 AND observed_at BETWEEN $2 AND $3
		ORDER BY observed_at`

	rows, err := r.pool.Query(ctx, query, series, from, to)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("query series range: %w", err)
	}

	return scanSeries(rows)
}

// GetRecent 최근 days일 조회 (시간 오름차순)
func (r *DemandRepository) GetRecent(ctx context.Context, series string, days int) (contracts.TimeSeries, error) {
	query := `
		SELECT observed_at, demand_mw
		FROM (
			SELECT observed_at, demand_mw
			FROM energy.demand_observations
			WHERE series = $1
			ORDER BY observed_at DESC
			LIMIT $2
		) recent
		ORDER BY observed_at`

	rows, err := r.pool.Query(ctx, query, series, days)
	if err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("query recent series: %w", err)
	}

	return scanSeries(rows)
}

// GetLatest 마지막 관측 조회
// 관측이 없으면 found=false
func (r *DemandRepository) GetLatest(ctx context.Context, series string) (contracts.Observation, bool, error) {
	query := `
		SELECT observed_at, demand_mw
		FROM energy.demand_observations
		WHERE series = $1
		ORDER BY observed_at DESC
		LIMIT 1`

	var obs contracts.Observation
	err := r.pool.QueryRow(ctx, query, series).Scan(&obs.Timestamp, &obs.Value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contracts.Observation{}, false, nil
		}
		return contracts.Observation{}, false, fmt.Errorf("query latest observation: %w", err)
	}

	return obs, true, nil
}

// Count 시계열 관측치 수
func (r *DemandRepository) Count(ctx context.Context, series string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM energy.demand_observations WHERE series = $1`, series,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count observations: %w", err)
	}

	return count, nil
}

// ListSeries 저장된 시계열 이름 목록
func (r *DemandRepository) ListSeries(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT series FROM energy.demand_observations ORDER BY series`)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan series name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return names, nil
}

// scanSeries 조회 결과를 TimeSeries로 변환
func scanSeries(rows pgx.Rows) (contracts.TimeSeries, error) {
	defer rows.Close()

	var observations []contracts.Observation
	for rows.Next() {
		var obs contracts.Observation
		if err := rows.Scan(&obs.Timestamp, &obs.Value); err != nil {
			return contracts.TimeSeries{}, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, obs)
	}

	if err := rows.Err(); err != nil {
		return contracts.TimeSeries{}, fmt.Errorf("rows error: %w", err)
	}

	return contracts.TimeSeries{Observations: observations}, nil
}
