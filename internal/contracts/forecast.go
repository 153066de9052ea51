package contracts

import "time"

// ForecastPoint 단일 예측 시점 (타임스탬프 + 예측값)
type ForecastPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// ForecastResult 다단계 예측 결과
// ⭐ SSOT: Forecast → Portfolio 전달 계약
// 길이 == horizon, 타임스탬프는 이력 마지막 날 다음 날부터 하루 간격으로 연속
type ForecastResult struct {
	Points []ForecastPoint `json:"points"`
}

// Len 예측 시점 수
func (f ForecastResult) Len() int {
	return len(f.Points)
}

// Values 예측값 배열 복사본
func (f ForecastResult) Values() []float64 {
	values := make([]float64, len(f.Points))
	for i, p := range f.Points {
		values[i] = p.Value
	}
	return values
}

// Mean 예측값 평균 (리포트용)
func (f ForecastResult) Mean() float64 {
	if len(f.Points) == 0 {
		return 0
	}
	var sum float64
	for _, p := range f.Points {
		sum += p.Value
	}
	return sum / float64(len(f.Points))
}
