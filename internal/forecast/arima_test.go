package forecast

import (
	"math"
	"testing"

	"github.com/wonny/helios/internal/contracts"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestDifference(t *testing.T) {
	tests := []struct {
		name      string
		values    []float64
		d         int
		want      []float64
		wantTails []float64
	}{
		{
			name:      "no differencing",
			values:    []float64{1, 2, 4},
			d:         0,
			want:      []float64{1, 2, 4},
			wantTails: []float64{},
		},
		{
			name:      "first difference",
			values:    []float64{1, 2, 4, 7},
			d:         1,
			want:      []float64{1, 2, 3},
			wantTails: []float64{7},
		},
		{
			name:      "second difference",
			values:    []float64{1, 2, 4, 7, 11},
			d:         2,
			want:      []float64{1, 1, 1},
			wantTails: []float64{11, 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, tails := difference(tt.values, tt.d)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !almostEqual(got[i], tt.want[i], 1e-12) {
					t.Errorf("got[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
			if len(tails) != len(tt.wantTails) {
				t.Fatalf("tails len = %d, want %d", len(tails), len(tt.wantTails))
			}
			for i := range tails {
				if !almostEqual(tails[i], tt.wantTails[i], 1e-12) {
					t.Errorf("tails[%d] = %v, want %v", i, tails[i], tt.wantTails[i])
				}
			}
		})
	}
}

func TestIntegrate_RestoresQuadratic(t *testing.T) {
	// y_t = t² 의 2차 차분은 상수 2
	history := []float64{0, 1, 4, 9, 16, 25}
	diffed, tails := difference(history, 2)
	for i, v := range diffed {
		if !almostEqual(v, 2, 1e-12) {
			t.Fatalf("diffed[%d] = %v, want 2", i, v)
		}
	}

	restored := integrate([]float64{2, 2, 2}, tails)
	want := []float64{36, 49, 64}
	for i := range want {
		if !almostEqual(restored[i], want[i], 1e-9) {
			t.Errorf("restored[%d] = %v, want %v", i, restored[i], want[i])
		}
	}
}

func TestCSSResiduals(t *testing.T) {
	tests := []struct {
		name   string
		w      []float64
		spec   contracts.ModelSpec
		params []float64
		want   []float64
	}{
		{
			name:   "ar1 without constant",
			w:      []float64{1, 2, 3},
			spec:   contracts.ModelSpec{P: 1, D: 1, Q: 0},
			params: []float64{0.5},
			want:   []float64{0, 1.5, 2},
		},
		{
			name:   "ma1 with constant",
			w:      []float64{1, 2, 3},
			spec:   contracts.ModelSpec{P: 0, D: 0, Q: 1},
			params: []float64{0, 0.5},
			want:   []float64{1, 1.5, 2.25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cssResiduals(tt.w, tt.spec, tt.params)
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if !almostEqual(got[i], tt.want[i], 1e-12) {
					t.Errorf("resid[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestUnpackParams(t *testing.T) {
	specD0 := contracts.ModelSpec{P: 2, D: 0, Q: 1}
	c, ar, ma := unpackParams(specD0, []float64{10, 0.5, -0.2, 0.3})
	if c != 10 {
		t.Errorf("constant = %v, want 10", c)
	}
	if len(ar) != 2 || ar[0] != 0.5 || ar[1] != -0.2 {
		t.Errorf("ar = %v, want [0.5 -0.2]", ar)
	}
	if len(ma) != 1 || ma[0] != 0.3 {
		t.Errorf("ma = %v, want [0.3]", ma)
	}

	// 차분 모델은 상수항 없음
	specD1 := contracts.ModelSpec{P: 1, D: 1, Q: 1}
	c, ar, ma = unpackParams(specD1, []float64{0.7, 0.1})
	if c != 0 {
		t.Errorf("constant = %v, want 0", c)
	}
	if len(ar) != 1 || ar[0] != 0.7 {
		t.Errorf("ar = %v, want [0.7]", ar)
	}
	if len(ma) != 1 || ma[0] != 0.1 {
		t.Errorf("ma = %v, want [0.1]", ma)
	}
}

func TestInitialParams_LagRegression(t *testing.T) {
	// 잡음 없는 AR(1): y_t = 0.8·y_{t-1}, 라그 회귀가 정확히 복원해야 함
	w := make([]float64, 30)
	w[0] = 100
	for i := 1; i < len(w); i++ {
		w[i] = 0.8 * w[i-1]
	}

	params := initialParams(w, contracts.ModelSpec{P: 1, D: 0, Q: 0})
	if len(params) != 2 {
		t.Fatalf("params len = %d, want 2", len(params))
	}
	if !almostEqual(params[0], 0, 1e-6) {
		t.Errorf("constant = %v, want ~0", params[0])
	}
	if !almostEqual(params[1], 0.8, 1e-6) {
		t.Errorf("ar[0] = %v, want ~0.8", params[1])
	}
}

func TestCSSNegLogLik_NonFiniteGuard(t *testing.T) {
	w := []float64{1, 2, 3, 4, 5}
	spec := contracts.ModelSpec{P: 1, D: 0, Q: 0}

	got := cssNegLogLik(w, spec, []float64{math.NaN(), 0.5})
	if !math.IsInf(got, 1) {
		t.Errorf("loglik with NaN params = %v, want +Inf", got)
	}
}
