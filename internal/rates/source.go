// Package rates resolves base-rate indices (prime, SOFR, treasury) for the
// structuring engine. Sources are read-only; the engine never writes rates.
package rates

import (
	"context"

	"github.com/meridianlending/underwrite/internal/model"
)

// Source supplies the current value of a base-rate index as a fraction
// (0.085 means 8.5%).
type Source interface {
	Name() string
	GetBaseRate(ctx context.Context, kind model.BaseRateKind) (float64, error)
}
