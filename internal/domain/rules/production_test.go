package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveOutput(t *testing.T) {
	tests := []struct {
		name        string
		quantity    int
		reliability int
		popularity  int
		want        int
	}{
		{"altair reference", 1000, 85, 70, 595},
		{"perfect machine", 1000, 100, 100, 1000},
		{"floors the result", 3, 85, 70, 1},
		{"zero quantity", 0, 85, 70, 0},
		{"zero reliability", 1000, 0, 70, 0},
		{"zero popularity", 1000, 85, 0, 0},
		{"negative quantity", -10, 85, 70, 0},
		{"single unit low stats", 1, 10, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectiveOutput(tt.quantity, tt.reliability, tt.popularity))
		})
	}
}

func TestEffectiveOutputMonotonic(t *testing.T) {
	// Non-decreasing in each argument independently.
	base := EffectiveOutput(500, 60, 60)
	assert.GreaterOrEqual(t, EffectiveOutput(501, 60, 60), base)
	assert.GreaterOrEqual(t, EffectiveOutput(500, 61, 60), base)
	assert.GreaterOrEqual(t, EffectiveOutput(500, 60, 61), base)
}

func TestMonthlyProfit(t *testing.T) {
	assert.Equal(t, int64(87465), MonthlyProfit(595, 147))
	assert.Equal(t, int64(0), MonthlyProfit(0, 147))
}

func TestPerSecondRate(t *testing.T) {
	// Any producing machine accrues at least one unit per interval.
	assert.Equal(t, 1, PerSecondRate(595))
	assert.Equal(t, 1, PerSecondRate(SecondsPerMonth))
	assert.Equal(t, 2, PerSecondRate(2*SecondsPerMonth))
}

func TestClampPercent(t *testing.T) {
	assert.Equal(t, 0, ClampPercent(-5))
	assert.Equal(t, 0, ClampPercent(0))
	assert.Equal(t, 42, ClampPercent(42))
	assert.Equal(t, 100, ClampPercent(100))
	assert.Equal(t, 100, ClampPercent(105))
}
