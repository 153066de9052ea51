package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wonny/helios/internal/contracts"
	"github.com/wonny/helios/internal/demand"
	"github.com/wonny/helios/internal/forecast"
	"github.com/wonny/helios/internal/portfolio"
	"github.com/wonny/helios/internal/risk"
	"github.com/wonny/helios/pkg/logger"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeDemandStore struct {
	series     contracts.TimeSeries
	err        error
	recentDays int
}

func (f *fakeDemandStore) GetSeries(ctx context.Context, series string) (contracts.TimeSeries, error) {
	return f.series, f.err
}

func (f *fakeDemandStore) GetRecent(ctx context.Context, series string, days int) (contracts.TimeSeries, error) {
	f.recentDays = days
	return f.series, f.err
}

type fakeRunStore struct {
	saved []*contracts.PipelineRun
	err   error
}

func (f *fakeRunStore) SaveRun(ctx context.Context, run *contracts.PipelineRun) error {
	f.saved = append(f.saved, run)
	return f.err
}

type fakeExporter struct {
	path string
	err  error
	got  *contracts.PipelineRun
}

func (f *fakeExporter) WriteRun(run *contracts.PipelineRun) (string, error) {
	f.got = run
	return f.path, f.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "test", Level: "error"})
}

func flatSeries(n int, value float64) contracts.TimeSeries {
	values := make([]float64, n)
	for i := range values {
		values[i] = value
	}
	return contracts.DailySeriesFrom(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), values)
}

func newTestRunner(store *fakeDemandStore, runs *fakeRunStore, exp Exporter) *Runner {
	log := testLogger()
	zl := zerolog.Nop()
	return NewRunner(
		forecast.NewEngine(zl),
		portfolio.NewSimulator(zl),
		risk.NewEngine(zl),
		store, runs, exp,
		log,
	)
}

func baseConfig() RunConfig {
	return RunConfig{
		Series:     "demand_synthetic",
		Spec:       contracts.ModelSpec{P: 0, D: 1, Q: 0},
		Horizon:    3,
		Position:   contracts.Position{CapacityMW: 120, PricePerMWh: 50},
		Confidence: 0.95,
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestRunner_Run_Completed(t *testing.T) {
	store := &fakeDemandStore{series: flatSeries(10, 100)}
	runs := &fakeRunStore{}
	exp := &fakeExporter{path: "output/demand_synthetic_abc.csv"}

	runner := newTestRunner(store, runs, exp)

	result, err := runner.Run(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	run := result.Run
	if run.Status != contracts.RunStatusCompleted {
		t.Errorf("status = %s, want completed", run.Status)
	}
	if len(run.RunID) != 36 {
		t.Errorf("run_id = %q, want uuid", run.RunID)
	}
	if run.HistoryCount != 10 {
		t.Errorf("history_count = %d, want 10", run.HistoryCount)
	}

	wantStages := []string{"load", "forecast", "simulate", "risk", "persist", "export"}
	if len(result.CompletedStages) != len(wantStages) {
		t.Fatalf("stages = %v, want %v", result.CompletedStages, wantStages)
	}
	for i, stage := range wantStages {
		if result.CompletedStages[i] != stage {
			t.Errorf("stage[%d] = %s, want %s", i, result.CompletedStages[i], stage)
		}
	}

	// (0,1,0) on a flat series forecasts the last value: pnl = (120-100)*50 per step
	if len(run.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(run.Steps))
	}
	for i, step := range run.Steps {
		if step.ForecastValue != 100 {
			t.Errorf("step[%d] forecast = %v, want 100", i, step.ForecastValue)
		}
		if step.PnLValue != 1000 {
			t.Errorf("step[%d] pnl = %v, want 1000", i, step.PnLValue)
		}
	}
	if run.TotalPnL != 3000 {
		t.Errorf("total_pnl = %v, want 3000", run.TotalPnL)
	}
	if run.VaR.Value != 1000 {
		t.Errorf("var = %v, want 1000", run.VaR.Value)
	}
	if run.VaR.Confidence != 0.95 {
		t.Errorf("var confidence = %v, want 0.95", run.VaR.Confidence)
	}

	// Forecast timestamps continue the history day by day
	wantFirst := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	if !run.Steps[0].Timestamp.Equal(wantFirst) {
		t.Errorf("first step timestamp = %v, want %v", run.Steps[0].Timestamp, wantFirst)
	}

	if len(runs.saved) != 1 || runs.saved[0] != run {
		t.Error("completed run not persisted")
	}
	if exp.got != run {
		t.Error("run not exported")
	}
	if result.ExportPath != exp.path {
		t.Errorf("export path = %s, want %s", result.ExportPath, exp.path)
	}
}

func TestRunner_Run_LoadFailure(t *testing.T) {
	loadErr := errors.New("series not found")
	store := &fakeDemandStore{err: loadErr}
	runs := &fakeRunStore{}

	runner := newTestRunner(store, runs, nil)

	result, err := runner.Run(context.Background(), baseConfig())
	if !errors.Is(err, loadErr) {
		t.Fatalf("err = %v, want wrapped %v", err, loadErr)
	}

	if len(result.CompletedStages) != 0 {
		t.Errorf("stages = %v, want none", result.CompletedStages)
	}
	if result.Run.Status != contracts.RunStatusFailed {
		t.Errorf("status = %s, want failed", result.Run.Status)
	}
	if len(runs.saved) != 1 {
		t.Errorf("failed run not recorded: saved = %d", len(runs.saved))
	}
}

func TestRunner_Run_ForecastFailure(t *testing.T) {
	store := &fakeDemandStore{series: flatSeries(3, 100)}
	runs := &fakeRunStore{}

	runner := newTestRunner(store, runs, nil)

	config := baseConfig()
	config.Spec = contracts.ModelSpec{P: 5, D: 1, Q: 0} // needs 7 observations

	result, err := runner.Run(context.Background(), config)
	if !errors.Is(err, forecast.ErrInsufficientData) {
		t.Fatalf("err = %v, want ErrInsufficientData", err)
	}

	if len(result.CompletedStages) != 1 || result.CompletedStages[0] != "load" {
		t.Errorf("stages = %v, want [load]", result.CompletedStages)
	}
	if result.Run.Status != contracts.RunStatusFailed {
		t.Errorf("status = %s, want failed", result.Run.Status)
	}
}

func TestRunner_Run_InvalidHorizon(t *testing.T) {
	store := &fakeDemandStore{series: flatSeries(10, 100)}
	runs := &fakeRunStore{}

	runner := newTestRunner(store, runs, nil)

	config := baseConfig()
	config.Horizon = 0

	_, err := runner.Run(context.Background(), config)
	if !errors.Is(err, forecast.ErrInvalidSpec) {
		t.Fatalf("err = %v, want ErrInvalidSpec", err)
	}
}

func TestRunner_Run_InvalidConfidence(t *testing.T) {
	store := &fakeDemandStore{series: flatSeries(10, 100)}
	runs := &fakeRunStore{}

	runner := newTestRunner(store, runs, nil)

	config := baseConfig()
	config.Confidence = 1.5

	result, err := runner.Run(context.Background(), config)
	if !errors.Is(err, risk.ErrInvalidConfidence) {
		t.Fatalf("err = %v, want ErrInvalidConfidence", err)
	}

	wantStages := []string{"load", "forecast", "simulate"}
	if len(result.CompletedStages) != len(wantStages) {
		t.Errorf("stages = %v, want %v", result.CompletedStages, wantStages)
	}
}

func TestRunner_Run_PersistFailure(t *testing.T) {
	store := &fakeDemandStore{series: flatSeries(10, 100)}
	runs := &fakeRunStore{err: errors.New("connection refused")}

	runner := newTestRunner(store, runs, nil)

	result, err := runner.Run(context.Background(), baseConfig())
	if err == nil {
		t.Fatal("expected persist error")
	}
	if result.Run.Status != contracts.RunStatusFailed {
		t.Errorf("status = %s, want failed", result.Run.Status)
	}
}

func TestRunner_Run_ExportFailure(t *testing.T) {
	store := &fakeDemandStore{series: flatSeries(10, 100)}
	runs := &fakeRunStore{}
	exp := &fakeExporter{err: errors.New("disk full")}

	runner := newTestRunner(store, runs, exp)

	result, err := runner.Run(context.Background(), baseConfig())
	if err == nil {
		t.Fatal("expected export error")
	}

	// 저장까지는 성공한 실행이므로 기록은 완료 상태
	if result.Run.Status != contracts.RunStatusCompleted {
		t.Errorf("status = %s, want completed (persisted before export)", result.Run.Status)
	}
}

func TestRunner_Run_NilExporter(t *testing.T) {
	store := &fakeDemandStore{series: flatSeries(10, 100)}
	runs := &fakeRunStore{}

	runner := newTestRunner(store, runs, nil)

	result, err := runner.Run(context.Background(), baseConfig())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.ExportPath != "" {
		t.Errorf("export path = %s, want empty", result.ExportPath)
	}
	for _, stage := range result.CompletedStages {
		if stage == "export" {
			t.Error("export stage should be skipped without exporter")
		}
	}
}

func TestRunner_Run_SyntheticEndToEnd(t *testing.T) {
	// 시드 고정한 2년치 합성 수요로 전체 체인 회귀 검증
	genCfg := demand.DefaultGeneratorConfig()
	genCfg.Seed = 42
	series, err := demand.NewGenerator(genCfg, zerolog.Nop()).Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	store := &fakeDemandStore{series: series}
	runs := &fakeRunStore{}
	runner := newTestRunner(store, runs, nil)

	result, err := runner.Run(context.Background(), RunConfig{
		Series:     "demand_synthetic",
		Spec:       contracts.ModelSpec{P: 5, D: 1, Q: 0},
		Horizon:    90,
		Position:   contracts.Position{CapacityMW: 120, PricePerMWh: 50},
		Confidence: 0.95,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	run := result.Run
	if run.Status != contracts.RunStatusCompleted {
		t.Fatalf("status = %s, want completed", run.Status)
	}
	if len(run.Steps) != 90 {
		t.Fatalf("steps = %d, want 90", len(run.Steps))
	}

	last := series.Last().Timestamp
	if !run.Steps[0].Timestamp.Equal(last.AddDate(0, 0, 1)) {
		t.Errorf("first step = %v, want %v", run.Steps[0].Timestamp, last.AddDate(0, 0, 1))
	}

	// 예측은 마지막 수요 수준(~105MW) 근처에 머물러야 한다
	minF, maxF := math.Inf(1), math.Inf(-1)
	var sumF float64
	for i, step := range run.Steps {
		if step.ForecastValue < 80 || step.ForecastValue > 130 {
			t.Fatalf("step[%d] forecast = %v, outside (80, 130)", i, step.ForecastValue)
		}
		minF = math.Min(minF, step.ForecastValue)
		maxF = math.Max(maxF, step.ForecastValue)
		sumF += step.ForecastValue
	}
	meanF := sumF / float64(len(run.Steps))

	// VaR 부호/크기: (용량 − 평균예측)×가격 기준선에서 예측 분산폭 이내
	baseline := (120 - meanF) * 50
	dispersion := (maxF - minF) * 50
	if run.VaR.Value <= 0 {
		t.Errorf("var = %v, want positive (capacity above forecast demand)", run.VaR.Value)
	}
	if diff := math.Abs(run.VaR.Value - baseline); diff > dispersion+1e-6 {
		t.Errorf("var = %v vs baseline %v: diff %v exceeds dispersion %v",
			run.VaR.Value, baseline, diff, dispersion)
	}
	if run.VaR.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", run.VaR.Confidence)
	}
	if run.Model.Iterations <= 0 {
		t.Errorf("iterations = %d, want > 0", run.Model.Iterations)
	}
}

func TestRunner_Run_HistoryDays(t *testing.T) {
	store := &fakeDemandStore{series: flatSeries(10, 100)}
	runs := &fakeRunStore{}

	runner := newTestRunner(store, runs, nil)

	config := baseConfig()
	config.HistoryDays = 5

	if _, err := runner.Run(context.Background(), config); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if store.recentDays != 5 {
		t.Errorf("GetRecent days = %d, want 5", store.recentDays)
	}
}
