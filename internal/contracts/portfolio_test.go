package contracts

import (
	"math"
	"testing"
	"time"
)

func TestPosition_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		position Position
		want     bool
	}{
		{
			name:     "standard position",
			position: Position{CapacityMW: 120, PricePerMWh: 50},
			want:     true,
		},
		{
			name:     "zero capacity",
			position: Position{CapacityMW: 0, PricePerMWh: 50},
			want:     true,
		},
		{
			name:     "negative price allowed",
			position: Position{CapacityMW: 120, PricePerMWh: -10},
			want:     true,
		},
		{
			name:     "negative capacity",
			position: Position{CapacityMW: -1, PricePerMWh: 50},
			want:     false,
		},
		{
			name:     "NaN capacity",
			position: Position{CapacityMW: math.NaN(), PricePerMWh: 50},
			want:     false,
		},
		{
			name:     "infinite price",
			position: Position{CapacityMW: 120, PricePerMWh: math.Inf(-1)},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.position.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPnLSeries_Total(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := PnLSeries{Points: []PnLPoint{
		{Timestamp: base, Value: -10},
		{Timestamp: base.AddDate(0, 0, 1), Value: 5},
		{Timestamp: base.AddDate(0, 0, 2), Value: 20},
	}}

	if got := series.Total(); got != 15 {
		t.Errorf("Total() = %v, want 15", got)
	}
	if got := series.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}

	values := series.Values()
	if len(values) != 3 || values[0] != -10 {
		t.Errorf("Values() = %v, want [-10 5 20]", values)
	}
}
