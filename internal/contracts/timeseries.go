package contracts

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// =============================================================================
// TimeSeries - 일별 시계열 계약
// =============================================================================

var ErrInvalidSeries = errors.New("invalid time series")

// Observation 단일 관측치 (타임스탬프 + 값)
type Observation struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// TimeSeries 시간 오름차순 관측 시계열
// ⭐ SSOT: 수요 이력/예측 입력은 모두 이 타입으로 전달
// 불변 조건: 타임스탬프 강한 오름차순(중복 금지), 값은 유한 실수, 최소 1개 관측
type TimeSeries struct {
	Observations []Observation `json:"observations"`
}

// NewTimeSeries 검증을 거친 시계열 생성
func NewTimeSeries(observations []Observation) (TimeSeries, error) {
	ts := TimeSeries{Observations: observations}
	if err := ts.Validate(); err != nil {
		return TimeSeries{}, err
	}
	return ts, nil
}

// DailySeriesFrom 시작일부터 하루 간격 시계열 생성 (테스트/생성기용)
func DailySeriesFrom(start time.Time, values []float64) TimeSeries {
	observations := make([]Observation, len(values))
	day := start.UTC().Truncate(24 * time.Hour)
	for i, v := range values {
		observations[i] = Observation{Timestamp: day, Value: v}
		day = day.AddDate(0, 0, 1)
	}
	return TimeSeries{Observations: observations}
}

// Validate 불변 조건 검사
func (ts TimeSeries) Validate() error {
	if len(ts.Observations) == 0 {
		return fmt.Errorf("%w: no observations", ErrInvalidSeries)
	}

	for i, obs := range ts.Observations {
		if math.IsNaN(obs.Value) || math.IsInf(obs.Value, 0) {
			return fmt.Errorf("%w: non-finite value at index %d", ErrInvalidSeries, i)
		}
		if i == 0 {
			continue
		}
		if !obs.Timestamp.After(ts.Observations[i-1].Timestamp) {
			return fmt.Errorf("%w: timestamps not strictly increasing at index %d", ErrInvalidSeries, i)
		}
	}

	return nil
}

// Len 관측치 수
func (ts TimeSeries) Len() int {
	return len(ts.Observations)
}

// Values 값 배열 복사본
func (ts TimeSeries) Values() []float64 {
	values := make([]float64, len(ts.Observations))
	for i, obs := range ts.Observations {
		values[i] = obs.Value
	}
	return values
}

// Last 마지막 관측치
// 빈 시계열이면 zero Observation 반환 (호출 전 Validate 필요)
func (ts TimeSeries) Last() Observation {
	if len(ts.Observations) == 0 {
		return Observation{}
	}
	return ts.Observations[len(ts.Observations)-1]
}

// Window 기간 필터 (from <= t <= to)
func (ts TimeSeries) Window(from, to time.Time) TimeSeries {
	var filtered []Observation
	for _, obs := range ts.Observations {
		if obs.Timestamp.Before(from) || obs.Timestamp.After(to) {
			continue
		}
		filtered = append(filtered, obs)
	}
	return TimeSeries{Observations: filtered}
}
