package prognosis

import (
	"context"

	"github.com/devskill-org/gridplan/grid"
	"github.com/devskill-org/gridplan/schederr"
	"github.com/devskill-org/gridplan/units"
)

// Vectors holds the per-step price and generation samples materialized over
// a Grid: spec.md §4.2.
type Vectors struct {
	Price []units.EuroPerWh // price[i], EUR/Wh average over step i
	Gen   []units.WattHour  // gen[i], energy generated during step i
}

// Sample materializes price and generation vectors over g. genProvider may
// be nil, in which case Gen is all zero — "zero if no generation provider
// was supplied" per spec.md §4.2.
func Sample(ctx context.Context, g *grid.Grid, priceProvider Provider[units.EuroPerWh], genProvider Provider[units.WattHour]) (*Vectors, error) {
	n := g.Steps()
	v := &Vectors{
		Price: make([]units.EuroPerWh, n),
		Gen:   make([]units.WattHour, n),
	}

	for i := 0; i < n; i++ {
		start := g.TimeOf(i)
		end := g.TimeOf(i + 1)

		price, err := priceProvider.Sample(ctx, start, end)
		if err != nil {
			return nil, &schederr.PrognosisUnavailableError{Step: i, Err: err}
		}
		v.Price[i] = price

		if genProvider != nil {
			gen, err := genProvider.Sample(ctx, start, end)
			if err != nil {
				return nil, &schederr.PrognosisUnavailableError{Step: i, Err: err}
			}
			v.Gen[i] = gen
		}
	}

	return v, nil
}
