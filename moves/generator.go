// Package moves proposes random neighbor states for the annealer: shifting
// a constant action's start step, reallocating a slice of a variable
// action's energy between two steps, or perturbing a battery's flow at two
// steps. Move selection follows spec.md §4.6: equal probability across the
// enabled categories, then uniform within.
package moves

import (
	"math/rand"

	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/units"
)

// Kind identifies which category of move a Move describes.
type Kind int

const (
	ShiftConstant Kind = iota
	ReallocateVariable
	PerturbBattery
)

// Move is a proposed, not-yet-applied perturbation of a schedule.State.
type Move struct {
	Kind     Kind
	Index    int // index into Spec.Constants / Variables / Batteries
	NewStart int // ShiftConstant: proposed new start step

	I, J  int        // ReallocateVariable / PerturbBattery: the two affected steps
	Delta units.Watt // ReallocateVariable / PerturbBattery: signed transfer amount
}

// Generator draws random moves against a fixed Spec using a seeded RNG, for
// reproducibility (spec.md §4.6: "the RNG is seedable").
type Generator struct {
	spec *schedule.Spec
	rng  *rand.Rand

	variableCandidates []int // indices of variable actions with a window of >= 2 steps
	batteryCandidates  []int // indices of batteries, when N >= 2
}

// NewGenerator builds a Generator for spec, seeded with seed.
func NewGenerator(spec *schedule.Spec, seed int64) *Generator {
	g := &Generator{
		spec: spec,
		rng:  rand.New(rand.NewSource(seed)),
	}
	for i, v := range spec.Variables {
		if v.WindowEnd-v.WindowStart >= 2 {
			g.variableCandidates = append(g.variableCandidates, i)
		}
	}
	if spec.Grid.Steps() >= 2 {
		for i := range spec.Batteries {
			g.batteryCandidates = append(g.batteryCandidates, i)
		}
	}
	return g
}

// Next proposes a single move against state. ok is false only when no
// category is enabled (no constant actions, no reallocatable variable
// actions, and no batteries) — an empty instance has nothing to search.
func (g *Generator) Next(state *schedule.State) (Move, bool) {
	var categories []Kind
	if len(g.spec.Constants) > 0 {
		categories = append(categories, ShiftConstant)
	}
	if len(g.variableCandidates) > 0 {
		categories = append(categories, ReallocateVariable)
	}
	if len(g.batteryCandidates) > 0 {
		categories = append(categories, PerturbBattery)
	}
	if len(categories) == 0 {
		return Move{}, false
	}

	switch categories[g.rng.Intn(len(categories))] {
	case ShiftConstant:
		return g.shiftConstant(), true
	case ReallocateVariable:
		return g.reallocateVariable(state), true
	default:
		return g.perturbBattery(state), true
	}
}

func (g *Generator) shiftConstant() Move {
	idx := g.rng.Intn(len(g.spec.Constants))
	cs := g.spec.Constants[idx]
	lastStart := cs.LatestStep - cs.DurationSteps
	span := lastStart - cs.EarliestStep + 1
	newStart := cs.EarliestStep
	if span > 1 {
		newStart += g.rng.Intn(span)
	}
	return Move{Kind: ShiftConstant, Index: idx, NewStart: newStart}
}

func (g *Generator) reallocateVariable(state *schedule.State) Move {
	idx := g.variableCandidates[g.rng.Intn(len(g.variableCandidates))]
	vs := g.spec.Variables[idx]
	windowSteps := vs.WindowEnd - vs.WindowStart

	i := vs.WindowStart + g.rng.Intn(windowSteps)
	j := i
	for j == i {
		j = vs.WindowStart + g.rng.Intn(windowSteps)
	}

	xi := state.Alloc[idx][i]
	xj := state.Alloc[idx][j]
	deltaMax := xi
	if headroom := vs.MaxPower - xj; headroom < deltaMax {
		deltaMax = headroom
	}
	if deltaMax <= 0 {
		return Move{Kind: ReallocateVariable, Index: idx, I: i, J: j, Delta: 0}
	}
	delta := units.Watt(g.rng.Float64()) * deltaMax
	return Move{Kind: ReallocateVariable, Index: idx, I: i, J: j, Delta: delta}
}

func (g *Generator) perturbBattery(state *schedule.State) Move {
	idx := g.batteryCandidates[g.rng.Intn(len(g.batteryCandidates))]
	bs := g.spec.Batteries[idx]
	n := g.spec.Grid.Steps()

	i := g.rng.Intn(n)
	j := i
	for j == i {
		j = g.rng.Intn(n)
	}

	fi := state.Flow[idx][i]
	fj := state.Flow[idx][j]

	// δ range from f_i += δ staying within rate bounds...
	lo := -bs.MaxDischarge - fi
	hi := bs.MaxCharge - fi
	// ...intersected with f_j -= δ staying within rate bounds.
	if loJ := fj - bs.MaxCharge; loJ > lo {
		lo = loJ
	}
	if hiJ := fj + bs.MaxDischarge; hiJ < hi {
		hi = hiJ
	}
	if hi <= lo {
		return Move{Kind: PerturbBattery, Index: idx, I: i, J: j, Delta: 0}
	}
	delta := lo + units.Watt(g.rng.Float64())*(hi-lo)
	return Move{Kind: PerturbBattery, Index: idx, I: i, J: j, Delta: delta}
}
