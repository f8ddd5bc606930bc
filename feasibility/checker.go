// Package feasibility verifies the hard constraints of spec.md §3 whenever
// a move is proposed. The checker never mutates state: it only reads the
// current arrays and a preallocated scratch buffer, so a rejected move
// leaves the state untouched, as spec.md §4.4 requires.
package feasibility

import (
	"github.com/devskill-org/gridplan/moves"
	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/units"
)

// Checker holds the scratch buffers reused across calls so that checking a
// move never allocates (spec.md §5, §9: "no heap churn inside the hot
// loop").
type Checker struct {
	chargeScratch []units.WattHour
}

// NewChecker builds a Checker sized for a grid of n steps.
func NewChecker(n int) *Checker {
	return &Checker{chargeScratch: make([]units.WattHour, n+1)}
}

const energyTolerance = 1e-6

// Check reports whether applying mv to state would keep it feasible. It
// never mutates state.
func (c *Checker) Check(state *schedule.State, mv moves.Move) bool {
	switch mv.Kind {
	case moves.ShiftConstant:
		return c.checkShiftConstant(state, mv)
	case moves.ReallocateVariable:
		return c.checkReallocateVariable(state, mv)
	case moves.PerturbBattery:
		return c.checkPerturbBattery(state, mv)
	default:
		return false
	}
}

func (c *Checker) checkShiftConstant(state *schedule.State, mv moves.Move) bool {
	cs := state.Spec.Constants[mv.Index]
	if mv.NewStart < cs.EarliestStep {
		return false
	}
	if mv.NewStart+cs.DurationSteps > cs.LatestStep {
		return false
	}
	// No cross-load conflict is modeled (spec.md §4.4): overlapping loads
	// are allowed, only energy pricing is evaluated. No further check.
	return true
}

func (c *Checker) checkReallocateVariable(state *schedule.State, mv moves.Move) bool {
	vs := state.Spec.Variables[mv.Index]
	if mv.I < vs.WindowStart || mv.I >= vs.WindowEnd || mv.J < vs.WindowStart || mv.J >= vs.WindowEnd {
		return false
	}
	if mv.I == mv.J {
		return false
	}
	newXi := state.Alloc[mv.Index][mv.I] - mv.Delta
	newXj := state.Alloc[mv.Index][mv.J] + mv.Delta
	if newXi < -energyTolerance || newXj > vs.MaxPower+units.Watt(energyTolerance) {
		return false
	}
	// Total energy is preserved by construction (x_i -= δ, x_j += δ); no
	// further check needed beyond the per-step bounds above.
	return true
}

func (c *Checker) checkPerturbBattery(state *schedule.State, mv moves.Move) bool {
	bs := state.Spec.Batteries[mv.Index]
	n := len(state.Flow[mv.Index])
	if mv.I < 0 || mv.I >= n || mv.J < 0 || mv.J >= n || mv.I == mv.J {
		return false
	}

	newFi := state.Flow[mv.Index][mv.I] + mv.Delta
	newFj := state.Flow[mv.Index][mv.J] - mv.Delta
	if newFi > bs.MaxCharge+units.Watt(energyTolerance) || newFi < -bs.MaxDischarge-units.Watt(energyTolerance) {
		return false
	}
	if newFj > bs.MaxCharge+units.Watt(energyTolerance) || newFj < -bs.MaxDischarge-units.Watt(energyTolerance) {
		return false
	}

	from := mv.I
	if mv.J < from {
		from = mv.J
	}

	step := state.Spec.Grid.Step()
	charge := c.chargeScratch[:len(state.Flow[mv.Index])+1]
	copy(charge, state.Charge[mv.Index])

	for k := from; k < n; k++ {
		flow := state.Flow[mv.Index][k]
		switch k {
		case mv.I:
			flow = newFi
		case mv.J:
			flow = newFj
		}
		charge[k+1] = charge[k] + flow.Over(step)
		if charge[k+1] < -units.WattHour(energyTolerance) || charge[k+1] > bs.Capacity+units.WattHour(energyTolerance) {
			return false
		}
	}
	return true
}
