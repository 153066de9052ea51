package contracts

import "fmt"

// =============================================================================
// ARIMA Model Spec & Summary
// =============================================================================

// ModelSpec ARIMA(p,d,q) 차수
// ⭐ SSOT: 모델 차수는 호출자가 소유하는 불변 값
// P: AR 차수, D: 차분 횟수, Q: MA 차수 (모두 0 이상)
type ModelSpec struct {
	P int `json:"p"`
	D int `json:"d"`
	Q int `json:"q"`
}

// DefaultModelSpec 기본 차수 ARIMA(5,1,0)
func DefaultModelSpec() ModelSpec {
	return ModelSpec{P: 5, D: 1, Q: 0}
}

// IsValid 차수 유효성 (음수 금지)
func (s ModelSpec) IsValid() bool {
	return s.P >= 0 && s.D >= 0 && s.Q >= 0
}

// MinObservations 추정에 필요한 최소 관측치 수 (p+d+q+1)
func (s ModelSpec) MinObservations() int {
	return s.P + s.D + s.Q + 1
}

// NumParams 추정 파라미터 수 (상수항은 d==0일 때만 포함)
func (s ModelSpec) NumParams() int {
	n := s.P + s.Q
	if s.D == 0 {
		n++
	}
	return n
}

// String "ARIMA(p,d,q)" 표기
func (s ModelSpec) String() string {
	return fmt.Sprintf("ARIMA(%d,%d,%d)", s.P, s.D, s.Q)
}

// ModelSummary 적합 결과 요약 (저장/조회용)
// 계수와 적합 통계만 담는 순수 데이터; 예측 상태는 포함하지 않음
type ModelSummary struct {
	Spec         ModelSpec `json:"spec"`
	Constant     float64   `json:"constant"`      // 상수항 (d>0이면 0)
	AR           []float64 `json:"ar"`            // AR 계수 φ1..φp
	MA           []float64 `json:"ma"`            // MA 계수 θ1..θq
	Sigma2       float64   `json:"sigma2"`        // 잔차 분산 추정치
	LogLik       float64   `json:"log_lik"`       // 조건부 로그우도
	AIC          float64   `json:"aic"`
	BIC          float64   `json:"bic"`
	Observations int       `json:"observations"`  // 차분 후 관측치 수
	Iterations   int       `json:"iterations"`    // 최적화 반복 수
}
