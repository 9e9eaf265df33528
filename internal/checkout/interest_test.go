// internal/checkout/interest_test.go
package checkout

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestComputeInterest(t *testing.T) {
	tests := []struct {
		name      string
		principal string
		rate      string
		days      int
		expected  string
	}{
		{"ninety days at twelve percent", "1000000", "12", 90, "29589.04"},
		{"one year at ten percent", "500000", "10", 365, "50000"},
		{"zero rate", "1000000", "0", 90, "0"},
		{"zero days", "1000000", "12", 0, "0"},
		{"negative days", "1000000", "12", -5, "0"},
		{"zero principal", "0", "12", 90, "0"},
		{"negative rate", "1000000", "-1", 90, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeInterest(decimal.RequireFromString(tt.principal), decimal.RequireFromString(tt.rate), tt.days)
			assert.True(t, decimal.RequireFromString(tt.expected).Equal(got), "got %s", got)
		})
	}
}

func TestTotalPayable(t *testing.T) {
	total := TotalPayable(decimal.NewFromInt(1000000), decimal.NewFromInt(12), 90)
	assert.Equal(t, "1029589.04", total.StringFixed(2))

	total = TotalPayable(decimal.NewFromInt(450000), decimal.Zero, 30)
	assert.True(t, decimal.NewFromInt(450000).Equal(total))
}

func TestComputeInterestMonotonic(t *testing.T) {
	base := ComputeInterest(decimal.NewFromInt(100000), decimal.NewFromInt(5), 30)

	for _, principal := range []int64{100000, 100001, 250000, 1000000} {
		got := ComputeInterest(decimal.NewFromInt(principal), decimal.NewFromInt(5), 30)
		assert.True(t, got.GreaterThanOrEqual(base))
		base = got
	}

	base = decimal.Zero
	for _, rate := range []string{"0", "0.5", "5", "12", "36"} {
		got := ComputeInterest(decimal.NewFromInt(100000), decimal.RequireFromString(rate), 30)
		assert.True(t, got.GreaterThanOrEqual(base))
		base = got
	}

	base = decimal.Zero
	for _, days := range []int{0, 1, 30, 90, 365, 3650} {
		got := ComputeInterest(decimal.NewFromInt(100000), decimal.NewFromInt(12), days)
		assert.True(t, got.GreaterThanOrEqual(base))
		base = got
	}
}
