package portfolio

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/helios/internal/contracts"
)

// =============================================================================
// Portfolio Simulator - 예측 수요 대비 포지션 손익 계산
// =============================================================================

var (
	// ErrInvalidPosition 포지션 파라미터가 유효하지 않음
	ErrInvalidPosition = errors.New("invalid position")
	// ErrEmptyForecast 예측 경로가 비어 있음
	ErrEmptyForecast = errors.New("empty forecast")
)

// Simulator 결정적 손익 시뮬레이터
// ⭐ SSOT: 포지션 손익 계산은 반드시 이 시뮬레이터를 거친다
// 난수나 내부 상태 없이 같은 입력에 항상 같은 결과를 낸다
type Simulator struct {
	log zerolog.Logger
}

// NewSimulator 시뮬레이터 생성
func NewSimulator(log zerolog.Logger) *Simulator {
	return &Simulator{
		log: log.With().Str("component", "portfolio.simulator").Logger(),
	}
}

// Simulate 예측 경로의 각 시점 손익 계산
// 시점별 손익 = (설비용량 MW - 예측 수요) × MWh당 가격
// 타임스탬프는 예측 경로를 그대로 따른다
func (s *Simulator) Simulate(forecast contracts.ForecastResult, position contracts.Position) (contracts.PnLSeries, error) {
	if !position.IsValid() {
		return contracts.PnLSeries{}, fmt.Errorf("%w: capacity=%v price=%v",
			ErrInvalidPosition, position.CapacityMW, position.PricePerMWh)
	}
	if forecast.Len() == 0 {
		return contracts.PnLSeries{}, ErrEmptyForecast
	}

	points := make([]contracts.PnLPoint, forecast.Len())
	for i, fp := range forecast.Points {
		points[i] = contracts.PnLPoint{
			Timestamp: fp.Timestamp,
			Value:     (position.CapacityMW - fp.Value) * position.PricePerMWh,
		}
	}

	series := contracts.PnLSeries{Points: points}

	s.log.Debug().
		Int("steps", series.Len()).
		Float64("capacity_mw", position.CapacityMW).
		Float64("price_per_mwh", position.PricePerMWh).
		Float64("total_pnl", series.Total()).
		Msg("simulation complete")

	return series, nil
}
