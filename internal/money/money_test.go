package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRound2(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{1234.5649, 1234.56},
		{1234.565, 1234.57},
		{2.675, 2.68},
		{-2.675, -2.68},
		{0, 0},
		{1979.1666666, 1979.17},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Round2(tt.in), 1e-9, "Round2(%v)", tt.in)
	}
}

func TestRound4(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1979.1667, Round4(1979.16666666), 1e-9)
	assert.InDelta(t, -0.1235, Round4(-0.12345), 1e-9)
}

func TestRoundToGrid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   float64
		want float64
	}{
		{0.06, 0.06},          // already on grid
		{0.0433, 0.04375},     // 34.64 -> 35 eighths of a percent
		{0.0525, 0.0525},      // 42 eighths
		{0.0500625, 0.05},     // rounds down
		{0.000625, 0.00125},   // exact half rounds away from zero
		{0.0851, 0.085},       // 68.08 -> 68
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, RoundToGrid(tt.in), 1e-12, "RoundToGrid(%v)", tt.in)
	}
}

func TestEqualWithin(t *testing.T) {
	t.Parallel()

	assert.True(t, EqualWithin(100.00, 100.99, Tolerance))
	assert.True(t, EqualWithin(100.00, 101.00, Tolerance))
	assert.False(t, EqualWithin(100.00, 101.01, Tolerance))
	assert.True(t, EqualWithin(0.085, 0.08505, RateTolerance))
	assert.False(t, EqualWithin(0.085, 0.0852, RateTolerance))
}

func TestSumTolerance(t *testing.T) {
	t.Parallel()

	// Small totals fall back to the $1 floor.
	assert.InDelta(t, 1.0, SumTolerance(20), 1e-9)
	// Large totals use 2%.
	assert.InDelta(t, 3000.0, SumTolerance(150000), 1e-9)
	assert.InDelta(t, 3000.0, SumTolerance(-150000), 1e-9)
}

func TestFormatUSD(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "$1,234,567.89", FormatUSD(1234567.89))
	assert.Equal(t, "-$1,234.56", FormatUSD(-1234.56))
	assert.Equal(t, "$0.00", FormatUSD(0))
	assert.Equal(t, "$250,000", FormatUSDWhole(250000))
}

func TestFormatPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "8.25%", FormatPercent(0.0825, 2))
	assert.Equal(t, "6.500%", FormatPercent(0.065, 3))
	assert.Equal(t, "1.27x", FormatRatio(1.27))
}
