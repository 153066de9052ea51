package contracts

import (
	"math"
	"time"
)

// Position 발전 포지션 (고정 용량 + 고정 단가)
// ⭐ 계약: Portfolio는 (용량 - 예측수요) × 단가의 결정적 손익만 산출
// CapacityMW: 보유 발전 용량 (MW, 0 이상)
// PricePerMWh: 계약 단가 (음수 허용: 마이너스 가격 시장)
type Position struct {
	CapacityMW  float64 `json:"capacity_mw"`
	PricePerMWh float64 `json:"price_per_mwh"`
}

// IsValid 포지션 유효성 (용량 0 이상, 값 유한)
func (p Position) IsValid() bool {
	if math.IsNaN(p.CapacityMW) || math.IsInf(p.CapacityMW, 0) || p.CapacityMW < 0 {
		return false
	}
	if math.IsNaN(p.PricePerMWh) || math.IsInf(p.PricePerMWh, 0) {
		return false
	}
	return true
}

// PnLPoint 단일 시점 손익
type PnLPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PnLSeries 예측 구간 손익 시계열
// ⭐ SSOT: Portfolio → Risk 전달 계약
// 예측 결과와 같은 길이, 같은 타임스탬프
type PnLSeries struct {
	Points []PnLPoint `json:"points"`
}

// Len 손익 시점 수
func (s PnLSeries) Len() int {
	return len(s.Points)
}

// Values 손익값 배열 복사본
func (s PnLSeries) Values() []float64 {
	values := make([]float64, len(s.Points))
	for i, p := range s.Points {
		values[i] = p.Value
	}
	return values
}

// Total 구간 합계 손익
func (s PnLSeries) Total() float64 {
	var sum float64
	for _, p := range s.Points {
		sum += p.Value
	}
	return sum
}
