package risk

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/wonny/helios/internal/contracts"
)

// =============================================================================
// Risk Engine - 경험적 Value at Risk
// =============================================================================

var (
	// ErrInvalidConfidence 신뢰수준이 (0, 1) 밖임
	ErrInvalidConfidence = errors.New("invalid confidence level")
	// ErrEmptySeries 손익 시계열이 비어 있음
	ErrEmptySeries = errors.New("empty pnl series")
)

// Engine 경험적 VaR 엔진
// ⭐ SSOT: 리스크 지표 계산은 반드시 이 엔진을 거친다
type Engine struct {
	log zerolog.Logger
}

// NewEngine 리스크 엔진 생성
func NewEngine(log zerolog.Logger) *Engine {
	return &Engine{
		log: log.With().Str("component", "risk.engine").Logger(),
	}
}

// ValueAtRisk 손익 분포의 (1-confidence) 백분위수
// 손익 부호를 그대로 유지한다: 손실 구간이면 음수, 전부 이익이면 양수
// 입력 시계열은 변경하지 않는다
func (e *Engine) ValueAtRisk(pnl contracts.PnLSeries, confidence float64) (contracts.RiskMetric, error) {
	if math.IsNaN(confidence) || confidence <= 0 || confidence >= 1 {
		return contracts.RiskMetric{}, fmt.Errorf("%w: got %v, need 0 < confidence < 1",
			ErrInvalidConfidence, confidence)
	}
	if pnl.Len() == 0 {
		return contracts.RiskMetric{}, ErrEmptySeries
	}

	sorted := append([]float64(nil), pnl.Values()...)
	sort.Float64s(sorted)

	value := Percentile(sorted, (1-confidence)*100)

	e.log.Debug().
		Float64("confidence", confidence).
		Int("observations", pnl.Len()).
		Float64("var", value).
		Msg("value at risk computed")

	return contracts.RiskMetric{Confidence: confidence, Value: value}, nil
}
