package structuring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyPaymentInterestOnly(t *testing.T) {
	t.Parallel()
	// A 250k revolver at 9.5% accrues interest on the full commitment.
	assert.Equal(t, 1979.17, MonthlyPayment(250000, 0.095, 0, true))
}

func TestMonthlyPaymentAmortizing(t *testing.T) {
	t.Parallel()
	// The textbook 30-year case: 200k at 6% is 1199.10.
	assert.Equal(t, 1199.10, MonthlyPayment(200000, 0.06, 360, false))
}

func TestMonthlyPaymentZeroRate(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 2500.0, MonthlyPayment(120000, 0, 48, false))
}

func TestMonthlyPaymentNoSchedule(t *testing.T) {
	t.Parallel()
	// No amortization schedule behaves like interest-only even without the
	// flag.
	assert.Equal(t, 500.0, MonthlyPayment(100000, 0.06, 0, false))
}

func TestMonthlyPaymentNonPositivePrincipal(t *testing.T) {
	t.Parallel()
	assert.Zero(t, MonthlyPayment(0, 0.08, 360, false))
	assert.Zero(t, MonthlyPayment(-5000, 0.08, 360, false))
}
