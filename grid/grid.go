// Package grid discretizes a planning horizon into a finite sequence of
// equal-length timesteps and maps between wall-clock instants and step
// indices, the way the teacher's entsoe package maps wall clock ranges to
// ENTSO-E publication periods.
package grid

import (
	"time"

	"github.com/devskill-org/gridplan/schederr"
	"github.com/devskill-org/gridplan/utils"
)

// Grid partitions [start, start+horizon) into equal steps of length Step.
type Grid struct {
	start time.Time
	step  time.Duration
	steps int
}

// New constructs a Grid. horizon must be a positive multiple of step.
func New(start time.Time, horizon time.Duration, step time.Duration) (*Grid, error) {
	if step <= 0 {
		return nil, &schederr.InvalidHorizonError{Message: "timestep must be positive"}
	}
	if horizon <= 0 {
		return nil, &schederr.InvalidHorizonError{Message: "horizon must be positive"}
	}
	if horizon%step != 0 {
		return nil, &schederr.InvalidHorizonError{
			Message: "horizon is not an integer multiple of the timestep",
		}
	}

	return &Grid{
		start: utils.SnapToGrid(start, step),
		step:  step,
		steps: int(horizon / step),
	}, nil
}

// NewSpanning builds the smallest Grid that covers every instant in spans,
// extended to the latest end among them, per spec.md §4.1: the horizon is
// the union of all action windows and the prognosis range.
func NewSpanning(step time.Duration, start time.Time, spans ...time.Time) (*Grid, error) {
	if step <= 0 {
		return nil, &schederr.InvalidHorizonError{Message: "timestep must be positive"}
	}
	latest := start
	for _, s := range spans {
		if s.After(latest) {
			latest = s
		}
	}
	horizon := latest.Sub(start)
	if horizon <= 0 {
		return nil, &schederr.InvalidHorizonError{Message: "horizon implied by inputs is empty"}
	}
	// Snap the horizon up to the next multiple of step so every window fits.
	if rem := horizon % step; rem != 0 {
		horizon += step - rem
	}
	return New(start, horizon, step)
}

// Steps returns N, the number of timesteps in the grid.
func (g *Grid) Steps() int { return g.steps }

// Step returns Δ.
func (g *Grid) Step() time.Duration { return g.step }

// Start returns t0.
func (g *Grid) Start() time.Time { return g.start }

// End returns t0+H, the instant immediately after the last step.
func (g *Grid) End() time.Time { return g.start.Add(time.Duration(g.steps) * g.step) }

// TimeOf returns the start instant of step i.
func (g *Grid) TimeOf(i int) time.Time {
	return g.start.Add(time.Duration(i) * g.step)
}

// StepOf floors t to the index of the step that contains it. It returns an
// error if t falls outside [start, end].
func (g *Grid) StepOf(t time.Time) (int, error) {
	if t.Before(g.start) || t.After(g.End()) {
		return 0, &schederr.InvalidHorizonError{
			Message: "instant lies outside the representable horizon",
		}
	}
	i := int(t.Sub(g.start) / g.step)
	if i >= g.steps {
		i = g.steps - 1
	}
	return i, nil
}

// StepsFor converts a duration into a whole number of steps, failing if the
// duration is not an exact multiple of Δ.
func (g *Grid) StepsFor(d time.Duration) (int, error) {
	if d < 0 {
		return 0, &schederr.InvalidInputError{Field: "duration", Message: "must be non-negative"}
	}
	if d%g.step != 0 {
		return 0, &schederr.InvalidInputError{
			Field:   "duration",
			Message: "must be an integer multiple of the grid timestep",
		}
	}
	return int(d / g.step), nil
}

// WindowSteps converts a [start, end) wall-clock window into step-coordinate
// bounds [i0, i1), snapping both edges to the grid as spec.md §3 requires.
func (g *Grid) WindowSteps(start, end time.Time) (i0, i1 int, err error) {
	if !end.After(start) {
		return 0, 0, &schederr.InvalidInputError{Field: "window", Message: "end must be after start"}
	}
	i0, err = g.StepOf(start)
	if err != nil {
		return 0, 0, err
	}
	// end is exclusive; if it lands exactly on a step edge that's i1,
	// otherwise round up to cover the partial step.
	offset := end.Sub(g.start)
	i1f := offset / g.step
	i1 = int(i1f)
	if offset%g.step != 0 {
		i1++
	}
	if i1 > g.steps {
		return 0, 0, &schederr.InvalidHorizonError{Message: "window extends beyond the horizon"}
	}
	return i0, i1, nil
}
