package forecast

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Optimizer 수치 최적화 전략
// 기본 구현은 Nelder-Mead 단체 탐색이며 테스트에서 교체 가능
type Optimizer interface {
	// Minimize 목적함수를 init에서 시작해 최소화
	// 최적 파라미터 벡터와 주 반복 횟수를 반환
	Minimize(objective func([]float64) float64, init []float64) ([]float64, int, error)
}

// NelderMead 도함수 없는 단체 탐색 최적화
type NelderMead struct {
	MaxIterations  int     // 주 반복 한도
	MaxEvaluations int     // 목적함수 평가 한도
	Tolerance      float64 // 수렴 판정 절대 허용 오차
	ConvergeIters  int     // 허용 오차를 유지해야 하는 반복 수
}

// DefaultOptimizer 기본 Nelder-Mead 설정
func DefaultOptimizer() *NelderMead {
	return &NelderMead{
		MaxIterations:  2000,
		MaxEvaluations: 10000,
		Tolerance:      1e-10,
		ConvergeIters:  150,
	}
}

// Minimize gonum Nelder-Mead 실행
func (nm *NelderMead) Minimize(objective func([]float64) float64, init []float64) ([]float64, int, error) {
	if len(init) == 0 {
		return []float64{}, 0, nil
	}

	problem := optimize.Problem{Func: objective}
	settings := &optimize.Settings{
		MajorIterations: nm.MaxIterations,
		FuncEvaluations: nm.MaxEvaluations,
		Converger: &optimize.FunctionConverge{
			Absolute:   nm.Tolerance,
			Iterations: nm.ConvergeIters,
		},
	}

	x0 := make([]float64, len(init))
	copy(x0, init)

	result, err := optimize.Minimize(problem, x0, settings, &optimize.NelderMead{})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrNonConvergence, err)
	}

	iters := result.Stats.MajorIterations

	switch result.Status {
	case optimize.IterationLimit, optimize.FunctionEvaluationLimit, optimize.RuntimeLimit,
		optimize.Failure, optimize.NotTerminated:
		return nil, iters, fmt.Errorf("%w: terminated with status %v", ErrNonConvergence, result.Status)
	}

	if !isFinite(result.F) {
		return nil, iters, fmt.Errorf("%w: non-finite objective %v", ErrNonConvergence, result.F)
	}
	for _, v := range result.X {
		if !isFinite(v) {
			return nil, iters, fmt.Errorf("%w: non-finite parameter estimate", ErrNonConvergence)
		}
	}

	return result.X, iters, nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
