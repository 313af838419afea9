package rates

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/meridianlending/underwrite/internal/model"
)

// Published fallback values, used when config supplies no override.
const (
	DefaultPrime    = 0.085
	DefaultSOFR     = 0.0533
	DefaultTreasury = 0.0425
)

// Static serves a fixed rate table. It is the fallback source and the one
// deterministic runs pin.
type Static struct {
	table map[model.BaseRateKind]float64
}

// NewStatic builds a Static source from the published defaults with any
// overrides applied on top. Override values must be fractions.
func NewStatic(overrides map[model.BaseRateKind]float64) *Static {
	table := map[model.BaseRateKind]float64{
		model.BaseRatePrime:    DefaultPrime,
		model.BaseRateSOFR:     DefaultSOFR,
		model.BaseRateTreasury: DefaultTreasury,
	}
	for k, v := range overrides {
		if _, ok := table[k]; ok && v > 0 {
			table[k] = v
		}
	}
	return &Static{table: table}
}

// Name implements Source.
func (s *Static) Name() string { return "static" }

// GetBaseRate implements Source.
func (s *Static) GetBaseRate(_ context.Context, kind model.BaseRateKind) (float64, error) {
	v, ok := s.table[kind]
	if !ok {
		return 0, eris.Errorf("rates: unknown base rate kind %q", kind)
	}
	return v, nil
}
