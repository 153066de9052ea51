package forecast

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wonny/helios/internal/contracts"
)

// =============================================================================
// Forecast Engine - ARIMA 적합 + 다단계 수요 예측
// =============================================================================

var (
	// ErrInvalidSpec 모델 차수 또는 horizon이 유효하지 않음
	ErrInvalidSpec = errors.New("invalid model spec")
	// ErrInsufficientData 관측 수가 p+d+q+1 미만
	ErrInsufficientData = errors.New("insufficient data for estimation")
	// ErrNonConvergence 최적화가 수렴 조건에 도달하지 못함
	ErrNonConvergence = errors.New("optimizer failed to converge")
)

// Engine ARIMA 예측 엔진
// ⭐ SSOT: 수요 예측 모델 적합은 반드시 이 엔진을 거친다
// 내부 상태가 없어 여러 고루틴에서 동시에 사용해도 안전하다
type Engine struct {
	optimizer Optimizer
	log       zerolog.Logger
}

// NewEngine 기본 Nelder-Mead 최적화로 엔진 생성
func NewEngine(log zerolog.Logger) *Engine {
	return NewEngineWithOptimizer(DefaultOptimizer(), log)
}

// NewEngineWithOptimizer 최적화 전략을 지정하는 생성자
func NewEngineWithOptimizer(opt Optimizer, log zerolog.Logger) *Engine {
	return &Engine{
		optimizer: opt,
		log:       log.With().Str("component", "forecast.engine").Logger(),
	}
}

// FitAndForecast 이력에 모델을 적합한 뒤 horizon일 예측
// 예측 타임스탬프는 이력 마지막 날의 다음 날부터 일 단위로 이어진다
func (e *Engine) FitAndForecast(history contracts.TimeSeries, spec contracts.ModelSpec, horizon int) (contracts.ForecastResult, error) {
	if horizon < 1 {
		return contracts.ForecastResult{}, fmt.Errorf("%w: horizon must be >= 1, got %d", ErrInvalidSpec, horizon)
	}

	model, err := e.Fit(history, spec)
	if err != nil {
		return contracts.ForecastResult{}, err
	}

	return model.Forecast(horizon), nil
}

// Fit CSS(조건부 제곱합) 방식으로 ARIMA(p,d,q) 적합
// 절차: d차 차분 → 초기치(AR 라그 회귀) → 음의 로그우도 최소화 → 잔차/통계 계산
func (e *Engine) Fit(history contracts.TimeSeries, spec contracts.ModelSpec) (*Model, error) {
	if !spec.IsValid() {
		return nil, fmt.Errorf("%w: orders must be non-negative, got %s", ErrInvalidSpec, spec)
	}
	if err := history.Validate(); err != nil {
		return nil, err
	}
	if history.Len() < spec.MinObservations() {
		return nil, fmt.Errorf("%w: got %d observations, need at least %d for %s",
			ErrInsufficientData, history.Len(), spec.MinObservations(), spec)
	}

	e.log.Debug().
		Str("spec", spec.String()).
		Int("observations", history.Len()).
		Msg("fitting model")

	diffed, tails := difference(history.Values(), spec.D)

	m := &Model{
		spec:     spec,
		diffed:   diffed,
		tails:    tails,
		lastTime: history.Last().Timestamp,
	}

	if spec.NumParams() == 0 {
		// 순수 차분 모델: 추정할 파라미터가 없어 차분값이 곧 잔차
		m.residuals = append([]float64(nil), diffed...)
	} else {
		init := initialParams(diffed, spec)
		objective := func(params []float64) float64 {
			return cssNegLogLik(diffed, spec, params)
		}

		params, iterations, err := e.optimizer.Minimize(objective, init)
		if err != nil {
			e.log.Warn().Err(err).Str("spec", spec.String()).Msg("estimation failed")
			return nil, err
		}

		m.iterations = iterations
		m.setParams(params)
		m.residuals = cssResiduals(diffed, spec, params)
	}

	m.computeFitStats()
	if !isFinite(m.sigma2) {
		return nil, fmt.Errorf("%w: non-finite residual variance", ErrNonConvergence)
	}

	e.log.Debug().
		Str("spec", spec.String()).
		Float64("sigma2", m.sigma2).
		Float64("aic", m.aic).
		Int("iterations", m.iterations).
		Msg("model fitted")

	return m, nil
}
