package contracts

// RiskMetric 경험적 분위수 기반 리스크 지표
// ⭐ SSOT: 부호 규약 - Value는 손익 분포의 (1-confidence) 분위수 그대로
// (음수 = 해당 신뢰수준에서의 손실 수준; 손실을 양수로 뒤집지 않음)
type RiskMetric struct {
	Confidence float64 `json:"confidence"` // 신뢰수준 (0,1) 개구간 (예: 0.95)
	Value      float64 `json:"value"`      // 손익의 (1-confidence)×100 백분위수
}
