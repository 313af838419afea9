package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$1,234.56", 1234.56, true},
		{"(1,234)", -1234, true},
		{"12.5%", 0.125, true},
		{"1234.56", 1234.56, true},
		{"  $  45,000  ", 45000, true},
		{"-$500", -500, true},
		{"($2,500.00)", -2500, true},
		{"0", 0, true},
		{"0.00", 0, true},
		{"100%", 1, true},
		{"(5%)", -0.05, true},
		{"", 0, false},
		{"   ", 0, false},
		{"N/A", 0, false},
		{"$", 0, false},
		{"12.5.6", 0, false},
		{"1/2/2023", 0, false},
		{"abc123", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseNumber(%q) ok", tt.in)
		if tt.ok {
			assert.InDelta(t, tt.want, got, 1e-9, "ParseNumber(%q)", tt.in)
		}
	}
}

func TestParseNumberRejectsNonFinite(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"Inf", "-Inf", "NaN", "inf"} {
		_, ok := ParseNumber(in)
		assert.False(t, ok, "ParseNumber(%q) should reject non-finite", in)
	}
}
