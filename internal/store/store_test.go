package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/pkg/config"
	"github.com/wonny/helios/pkg/database"
)

// 통합 테스트: DATABASE_URL이 있을 때만 실행
func testDB(t *testing.T) *database.DB {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(db.Close)

	if err := EnsureSchema(context.Background(), db.Pool); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}

	return db
}

func TestDemandRepository_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewDemandRepository(db.Pool)

	series := "test_roundtrip_" + uuid.New().String()[:8]
	t.Cleanup(func() {
		db.Pool.Exec(ctx, `DELETE FROM energy.demand_observations WHERE series = $1`, series)
	})

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ts := contracts.DailySeriesFrom(start, []float64{100.5, 98.2, 103.7})

	if err := repo.SaveSeries(ctx, series, "synthetic", ts); err != nil {
		t.Fatalf("SaveSeries: %v", err)
	}

	// upsert: 같은 날짜 다시 저장해도 중복 없이 갱신
	if err := repo.SaveSeries(ctx, series, "synthetic", ts); err != nil {
		t.Fatalf("SaveSeries (upsert): %v", err)
	}

	got, err := repo.GetSeries(ctx, series)
	if err != nil {
		t.Fatalf("GetSeries: %v", err)
	}
	if got.Len() != 3 {
		t.Fatalf("len = %d, want 3", got.Len())
	}
	for i, obs := range got.Observations {
		if obs.Value != ts.Observations[i].Value {
			t.Errorf("value[%d] = %v, want %v", i, obs.Value, ts.Observations[i].Value)
		}
	}

	count, err := repo.Count(ctx, series)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	latest, found, err := repo.GetLatest(ctx, series)
	if err != nil {
		t.Fatalf("GetLatest: %v", err)
	}
	if !found {
		t.Fatal("expected latest observation")
	}
	if latest.Value != 103.7 {
		t.Errorf("latest = %v, want 103.7", latest.Value)
	}

	recent, err := repo.GetRecent(ctx, series, 2)
	if err != nil {
		t.Fatalf("GetRecent: %v", err)
	}
	if recent.Len() != 2 {
		t.Fatalf("recent len = %d, want 2", recent.Len())
	}
	if recent.Observations[0].Value != 98.2 {
		t.Errorf("recent[0] = %v, want 98.2 (ascending order)", recent.Observations[0].Value)
	}
}

func TestRunRepository_RoundTrip(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewRunRepository(db.Pool)

	series := "test_run_" + uuid.New().String()[:8]
	runID := uuid.New().String()
	t.Cleanup(func() {
		db.Pool.Exec(ctx, `DELETE FROM energy.pipeline_runs WHERE run_id = $1`, runID)
	})

	started := time.Now().UTC().Truncate(time.Millisecond)
	run := &contracts.PipelineRun{
		RunID:        runID,
		Series:       series,
		Spec:         contracts.ModelSpec{P: 5, D: 1, Q: 0},
		Horizon:      2,
		Position:     contracts.Position{CapacityMW: 120, PricePerMWh: 50},
		Confidence:   0.95,
		HistoryCount: 730,
		Model: contracts.ModelSummary{
			Spec:         contracts.ModelSpec{P: 5, D: 1, Q: 0},
			AR:           []float64{0.1, 0.2, 0.3, 0.4, 0.5},
			MA:           []float64{},
			Sigma2:       24.5,
			LogLik:       -2190.3,
			AIC:          4392.6,
			BIC:          4420.1,
			Observations: 729,
			Iterations:   311,
		},
		VaR:      contracts.RiskMetric{Confidence: 0.95, Value: -812.4},
		TotalPnL: 35120.8,
		Steps: []contracts.RunStep{
			{Timestamp: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), ForecastValue: 104.2, PnLValue: 790.0},
			{Timestamp: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), ForecastValue: 105.1, PnLValue: 745.0},
		},
		Status:     contracts.RunStatusCompleted,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
	}

	if err := repo.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	got, err := repo.GetRun(ctx, runID)
	if err != nil {
		t.Fatalf("GetRun: %v", err)
	}

	if got.Series != series {
		t.Errorf("series = %s, want %s", got.Series, series)
	}
	if got.Spec != run.Spec {
		t.Errorf("spec = %+v, want %+v", got.Spec, run.Spec)
	}
	if len(got.Model.AR) != 5 || got.Model.AR[4] != 0.5 {
		t.Errorf("ar coeffs = %v", got.Model.AR)
	}
	if got.VaR.Value != run.VaR.Value {
		t.Errorf("var = %v, want %v", got.VaR.Value, run.VaR.Value)
	}
	if got.Status != contracts.RunStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if len(got.Steps) != 2 {
		t.Fatalf("steps len = %d, want 2", len(got.Steps))
	}
	if got.Steps[1].PnLValue != 745.0 {
		t.Errorf("step pnl = %v, want 745.0", got.Steps[1].PnLValue)
	}

	latest, err := repo.GetLatestRun(ctx, series)
	if err != nil {
		t.Fatalf("GetLatestRun: %v", err)
	}
	if latest.RunID != runID {
		t.Errorf("latest run = %s, want %s", latest.RunID, runID)
	}
}

func TestRunRepository_NotFound(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	repo := NewRunRepository(db.Pool)

	_, err := repo.GetRun(ctx, uuid.New().String())
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("err = %v, want ErrRunNotFound", err)
	}
}
