package contracts

import "time"

// =============================================================================
// Pipeline Run - 실행 기록 계약
// =============================================================================

// RunStatus 파이프라인 실행 상태
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunStep 예측 구간의 한 시점 (출력 테이블의 한 행)
// 컬럼 계약: timestamp | forecast_value | pnl_value
type RunStep struct {
	Timestamp     time.Time `json:"timestamp"`
	ForecastValue float64   `json:"forecast_value"`
	PnLValue      float64   `json:"pnl_value"`
}

// PipelineRun 파이프라인 1회 실행 기록
// ⭐ SSOT: 재현성을 위해 입력 전체(시계열 키, 차수, 포지션, 신뢰수준)를 기록
type PipelineRun struct {
	RunID        string       `json:"run_id"`        // uuid
	Series       string       `json:"series"`        // 수요 시계열 키
	Spec         ModelSpec    `json:"spec"`          // ARIMA 차수
	Horizon      int          `json:"horizon"`       // 예측 지평 (일)
	Position     Position     `json:"position"`      // 발전 포지션
	Confidence   float64      `json:"confidence"`    // VaR 신뢰수준
	HistoryCount int          `json:"history_count"` // 입력 관측치 수
	Model        ModelSummary `json:"model"`         // 적합 요약
	VaR          RiskMetric   `json:"var"`           // 리스크 지표
	TotalPnL     float64      `json:"total_pnl"`     // 구간 합계 손익
	Steps        []RunStep    `json:"steps"`         // 시점별 예측/손익
	Status       RunStatus    `json:"status"`
	StartedAt    time.Time    `json:"started_at"`
	FinishedAt   time.Time    `json:"finished_at"`
}

// Duration 실행 소요 시간
func (r *PipelineRun) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
