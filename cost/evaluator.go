// Package cost computes the total grid cost of a schedule.State, or the
// incremental cost delta a proposed move would induce, per spec.md §4.5.
package cost

import (
	"time"

	"github.com/devskill-org/gridplan/moves"
	"github.com/devskill-org/gridplan/prognosis"
	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/schederr"
	"github.com/devskill-org/gridplan/units"
)

// Tolerance bounds the drift allowed between an incrementally-tracked
// running total and a full-horizon recomputation before it is treated as a
// numerical bug (spec.md §4.5, §7: Numerical).
const Tolerance = 1e-6

// Evaluator computes J = Σ_i D[i]·price[i]·Δ, crediting export at the same
// price as import unless a separate sell-price vector is supplied — the
// core assumes symmetric pricing (spec.md §4.5, §9 open question (a)).
type Evaluator struct {
	Price []units.EuroPerWh
	Step  time.Duration
}

// NewEvaluator builds an Evaluator from sampled prognosis vectors.
func NewEvaluator(vectors *prognosis.Vectors, step time.Duration) *Evaluator {
	return &Evaluator{Price: vectors.Price, Step: step}
}

func (e *Evaluator) costAt(i int, d units.Watt) units.Euro {
	energy := d.Over(e.Step)
	imported := energy.Max(0)
	exported := energy.Min(0)
	return imported.At(e.Price[i]) + exported.At(e.Price[i])
}

// Full recomputes the total cost over the whole horizon without relying on
// any cached delta history — used for the periodic audit and for scoring
// the initial state.
func (e *Evaluator) Full(state *schedule.State) units.Euro {
	var total units.Euro
	for i, d := range state.Demand {
		total += e.costAt(i, d)
	}
	return total
}

// Delta computes ΔJ = J(new) − J(old) for the exact set of steps mv would
// touch, without mutating state (spec.md §4.5: "the evaluator computes ΔJ
// ... without scanning the whole horizon").
func (e *Evaluator) Delta(state *schedule.State, mv moves.Move) units.Euro {
	switch mv.Kind {
	case moves.ShiftConstant:
		return e.deltaShiftConstant(state, mv)
	case moves.ReallocateVariable:
		return e.deltaTransfer(state, mv.I, mv.J, mv.Delta, false)
	case moves.PerturbBattery:
		return e.deltaTransfer(state, mv.I, mv.J, mv.Delta, true)
	default:
		return 0
	}
}

func (e *Evaluator) deltaShiftConstant(state *schedule.State, mv moves.Move) units.Euro {
	cs := state.Spec.Constants[mv.Index]
	old := state.StartStep[mv.Index]
	if old == mv.NewStart {
		return 0
	}

	var delta units.Euro
	for i := old; i < old+cs.DurationSteps; i++ {
		oldD := state.Demand[i]
		newD := oldD - cs.Power
		delta += e.costAt(i, newD) - e.costAt(i, oldD)
	}
	for i := mv.NewStart; i < mv.NewStart+cs.DurationSteps; i++ {
		oldD := state.Demand[i]
		newD := oldD + cs.Power
		delta += e.costAt(i, newD) - e.costAt(i, oldD)
	}
	return delta
}

// deltaTransfer handles both ReallocateVariable (D[i] -= δ, D[j] += δ) and
// PerturbBattery (D[i] += δ, D[j] -= δ): a signed transfer of δ between two
// steps, differing only in sign convention.
func (e *Evaluator) deltaTransfer(state *schedule.State, i, j int, delta units.Watt, battery bool) units.Euro {
	if delta == 0 {
		return 0
	}
	var di, dj units.Watt
	if battery {
		di, dj = delta, -delta
	} else {
		di, dj = -delta, delta
	}

	oldDi, oldDj := state.Demand[i], state.Demand[j]
	newDi, newDj := oldDi+di, oldDj+dj

	return (e.costAt(i, newDi) - e.costAt(i, oldDi)) + (e.costAt(j, newDj) - e.costAt(j, oldDj))
}

// Audit compares a running incremental total against a full recomputation
// and returns a NumericalError if they have drifted beyond Tolerance — the
// periodic check spec.md §4.5 recommends to catch incremental-cost bugs.
func (e *Evaluator) Audit(state *schedule.State, runningTotal units.Euro) error {
	full := e.Full(state)
	drift := float64(full - runningTotal)
	if drift < 0 {
		drift = -drift
	}
	if drift > Tolerance {
		return &schederr.NumericalError{
			Incremental: float64(runningTotal),
			FullHorizon: float64(full),
			Tolerance:   Tolerance,
		}
	}
	return nil
}
