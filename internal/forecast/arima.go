package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/wonny/helios/internal/contracts"
)

// =============================================================================
// ARIMA 내부 연산 - 차분, 조건부 잔차, 재적분
// =============================================================================

// Model 적합이 끝난 ARIMA(p,d,q) 모델
// Engine.Fit이 생성하며, 적합에 사용한 이력 기준으로만 예측한다
type Model struct {
	spec     contracts.ModelSpec
	constant float64
	ar       []float64
	ma       []float64

	diffed    []float64 // d차 차분 시계열
	residuals []float64 // 조건부 잔차 (처음 p개는 0)
	tails     []float64 // 차분 단계별 마지막 관측값 (재적분용)
	lastTime  time.Time

	sigma2     float64
	logLik     float64
	aic        float64
	bic        float64
	iterations int
}

// Forecast horizon일 다단계 점 예측
// 차분 스케일에서 재귀 예측 후 원 스케일로 복원하며,
// 타임스탬프는 이력 마지막 날의 다음 날부터 일 단위로 이어진다
func (m *Model) Forecast(horizon int) contracts.ForecastResult {
	extended := append([]float64(nil), m.diffed...)

	forecasts := make([]float64, horizon)
	for h := 0; h < horizon; h++ {
		t := len(extended)
		next := m.constant
		for i, phi := range m.ar {
			if k := t - 1 - i; k >= 0 {
				next += phi * extended[k]
			}
		}
		for j, theta := range m.ma {
			// 미래 시점 잔차는 기대값 0
			if k := t - 1 - j; k >= 0 && k < len(m.residuals) {
				next += theta * m.residuals[k]
			}
		}
		forecasts[h] = next
		extended = append(extended, next)
	}

	restored := integrate(forecasts, m.tails)

	points := make([]contracts.ForecastPoint, horizon)
	ts := m.lastTime
	for i, v := range restored {
		ts = ts.AddDate(0, 0, 1)
		points[i] = contracts.ForecastPoint{Timestamp: ts, Value: v}
	}

	return contracts.ForecastResult{Points: points}
}

// Summary 적합 결과 요약
func (m *Model) Summary() contracts.ModelSummary {
	return contracts.ModelSummary{
		Spec:         m.spec,
		Constant:     m.constant,
		AR:           append([]float64(nil), m.ar...),
		MA:           append([]float64(nil), m.ma...),
		Sigma2:       m.sigma2,
		LogLik:       m.logLik,
		AIC:          m.aic,
		BIC:          m.bic,
		Observations: len(m.diffed),
		Iterations:   m.iterations,
	}
}

// Residuals 조건부 잔차 복사본
func (m *Model) Residuals() []float64 {
	return append([]float64(nil), m.residuals...)
}

func (m *Model) setParams(params []float64) {
	c, ar, ma := unpackParams(m.spec, params)
	m.constant = c
	m.ar = append([]float64(nil), ar...)
	m.ma = append([]float64(nil), ma...)
}

// computeFitStats 잔차 기반 분산/우도/정보량 계산
// 처음 p개 관측은 조건 구간이라 유효 표본에서 제외
func (m *Model) computeFitStats() {
	nEff := len(m.diffed) - m.spec.P
	if nEff <= 0 {
		m.sigma2 = math.NaN()
		return
	}

	var ssr float64
	for _, e := range m.residuals[m.spec.P:] {
		ssr += e * e
	}
	m.sigma2 = ssr / float64(nEff)

	sigma2 := m.sigma2
	if sigma2 <= 0 {
		sigma2 = 1e-300 // 완전 적합 방어
	}
	m.logLik = -0.5 * float64(nEff) * (math.Log(2*math.Pi) + math.Log(sigma2) + 1)

	k := float64(m.spec.NumParams() + 1) // +1 = sigma2
	m.aic = -2*m.logLik + 2*k
	m.bic = -2*m.logLik + k*math.Log(float64(nEff))
}

// difference d차 차분
// 반환: 차분 시계열, 각 차분 단계의 마지막 관측값 (길이 d)
func difference(values []float64, d int) ([]float64, []float64) {
	current := append([]float64(nil), values...)
	tails := make([]float64, 0, d)
	for k := 0; k < d; k++ {
		tails = append(tails, current[len(current)-1])
		next := make([]float64, len(current)-1)
		for i := 1; i < len(current); i++ {
			next[i-1] = current[i] - current[i-1]
		}
		current = next
	}
	return current, tails
}

// integrate 차분 역변환 - 예측값을 원 스케일로 누적 복원
func integrate(forecasts []float64, tails []float64) []float64 {
	out := append([]float64(nil), forecasts...)
	for k := len(tails) - 1; k >= 0; k-- {
		prev := tails[k]
		for i := range out {
			prev += out[i]
			out[i] = prev
		}
	}
	return out
}

// unpackParams 파라미터 벡터 분해: [c?, φ1..φp, θ1..θq]
// 상수항은 d == 0일 때만 존재
func unpackParams(spec contracts.ModelSpec, params []float64) (constant float64, ar, ma []float64) {
	idx := 0
	if spec.D == 0 && len(params) > 0 {
		constant = params[0]
		idx = 1
	}
	ar = params[idx : idx+spec.P]
	ma = params[idx+spec.P : idx+spec.P+spec.Q]
	return constant, ar, ma
}

// cssResiduals 조건부 잔차 재귀
// e_t = w_t - c - Σφ_i·w_{t-i} - Σθ_j·e_{t-j}, 처음 p개는 0으로 고정
func cssResiduals(w []float64, spec contracts.ModelSpec, params []float64) []float64 {
	c, ar, ma := unpackParams(spec, params)
	resid := make([]float64, len(w))
	for t := spec.P; t < len(w); t++ {
		pred := c
		for i, phi := range ar {
			pred += phi * w[t-1-i]
		}
		for j, theta := range ma {
			if k := t - 1 - j; k >= 0 {
				pred += theta * resid[k]
			}
		}
		resid[t] = w[t] - pred
	}
	return resid
}

// cssNegLogLik 집중형 가우시안 음의 로그우도 (σ²를 SSR/n으로 치환)
// 발산 파라미터는 +Inf를 돌려줘 단체 탐색이 밖으로 밀려나게 한다
func cssNegLogLik(w []float64, spec contracts.ModelSpec, params []float64) float64 {
	resid := cssResiduals(w, spec, params)
	nEff := len(w) - spec.P
	if nEff <= 0 {
		return math.Inf(1)
	}

	var ssr float64
	for _, e := range resid[spec.P:] {
		ssr += e * e
	}
	if math.IsNaN(ssr) || math.IsInf(ssr, 0) {
		return math.Inf(1)
	}
	if ssr <= 0 {
		ssr = 1e-300
	}

	sigma2 := ssr / float64(nEff)
	return 0.5 * float64(nEff) * (math.Log(2*math.Pi) + math.Log(sigma2) + 1)
}

// initialParams 최적화 초기치
// AR 계수는 라그 회귀 최소제곱(QR), MA 계수는 0, 상수항은 표본 평균
func initialParams(w []float64, spec contracts.ModelSpec) []float64 {
	params := make([]float64, spec.NumParams())
	withConstant := spec.D == 0

	if withConstant {
		params[0] = meanOf(w)
	}
	if spec.P == 0 {
		return params
	}

	rows := len(w) - spec.P
	cols := spec.P
	if withConstant {
		cols++
	}
	if rows < cols {
		return params
	}

	X := mat.NewDense(rows, cols, nil)
	y := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		col := 0
		if withConstant {
			X.Set(r, 0, 1)
			col = 1
		}
		for i := 0; i < spec.P; i++ {
			X.Set(r, col+i, w[spec.P+r-1-i])
		}
		y.SetVec(r, w[spec.P+r])
	}

	var qr mat.QR
	qr.Factorize(X)
	var beta mat.VecDense
	if err := qr.SolveVecTo(&beta, false, y); err != nil {
		return params // 특이 행렬이면 0 초기치 유지
	}

	offset := 0
	if withConstant {
		params[0] = beta.AtVec(0)
		offset = 1
	}
	for i := 0; i < spec.P; i++ {
		params[offset+i] = beta.AtVec(offset + i)
	}
	return params
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
