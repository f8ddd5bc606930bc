package schedule

import (
	"github.com/devskill-org/gridplan/schederr"
	"github.com/devskill-org/gridplan/units"
)

// State is a candidate solution: a start step for every constant action, an
// allocation vector for every variable action, and a flow vector (with
// derived charge levels) for every battery. It also carries the net-demand
// vector D and the per-category contributions that compose it, all kept
// current as moves are applied (spec.md §4.3).
type State struct {
	Spec *Spec

	StartStep []int          // per constant action
	Alloc     [][]units.Watt // per variable action, length N, zero outside its window
	Flow      [][]units.Watt // per battery, length N
	Charge    [][]units.WattHour // per battery, length N+1; Charge[b][0] is always InitialCharge

	constContribution    []units.Watt // Σ constant-on-i, aggregated over steps
	variableContribution []units.Watt // Σ variable allocation, aggregated over steps
	batteryContribution  []units.Watt // Σ battery flow, aggregated over steps
	genPower             []units.Watt // generation expressed as average power per step

	Demand []units.Watt // D[i], positive = import, negative = export
}

// NewState builds the initial feasible state described in spec.md §4.7:
// each constant action at its earliest feasible step, each variable action
// allocated uniformly and clipped at its power cap, each battery idle.
func NewState(spec *Spec, gen []units.WattHour) (*State, error) {
	n := spec.Grid.Steps()
	step := spec.Grid.Step()

	s := &State{
		Spec:                 spec,
		StartStep:            make([]int, len(spec.Constants)),
		Alloc:                make([][]units.Watt, len(spec.Variables)),
		Flow:                 make([][]units.Watt, len(spec.Batteries)),
		Charge:               make([][]units.WattHour, len(spec.Batteries)),
		constContribution:    make([]units.Watt, n),
		variableContribution: make([]units.Watt, n),
		batteryContribution:  make([]units.Watt, n),
		genPower:             make([]units.Watt, n),
		Demand:               make([]units.Watt, n),
	}

	for i := 0; i < n; i++ {
		if gen != nil {
			s.genPower[i] = units.Watt(float64(gen[i]) / step.Hours())
		}
	}

	for ci, cs := range spec.Constants {
		s.StartStep[ci] = cs.EarliestStep
		for i := cs.EarliestStep; i < cs.EarliestStep+cs.DurationSteps; i++ {
			s.constContribution[i] += cs.Power
		}
	}

	for vi, vs := range spec.Variables {
		s.Alloc[vi] = make([]units.Watt, n)
		windowSteps := vs.WindowEnd - vs.WindowStart
		if windowSteps <= 0 {
			continue
		}
		uniform := units.Watt(float64(vs.TotalEnergy) / step.Hours() / float64(windowSteps))
		remaining := vs.TotalEnergy
		for i := vs.WindowStart; i < vs.WindowEnd; i++ {
			x := uniform
			if x > vs.MaxPower {
				x = vs.MaxPower
			}
			s.Alloc[vi][i] = x
			remaining -= x.Over(step)
		}
		// Redistribute any residual (rounding, or window shorter than it
		// takes to reach total at uniform-clipped rate) onto steps with
		// spare headroom under MaxPower.
		for i := vs.WindowStart; i < vs.WindowEnd && remaining > units.WattHour(1e-9); i++ {
			headroom := (vs.MaxPower - s.Alloc[vi][i]).Over(step)
			if headroom <= 0 {
				continue
			}
			take := headroom
			if take > remaining {
				take = remaining
			}
			s.Alloc[vi][i] += units.Watt(float64(take) / step.Hours())
			remaining -= take
		}
		if remaining > units.WattHour(1e-6) {
			return nil, &schederr.InfeasibleInstanceError{
				Entity:  vs.ID,
				Message: "could not allocate total energy within per-step power cap",
			}
		}
		for i := vs.WindowStart; i < vs.WindowEnd; i++ {
			s.variableContribution[i] += s.Alloc[vi][i]
		}
	}

	for bi, bs := range spec.Batteries {
		s.Flow[bi] = make([]units.Watt, n)
		charge := make([]units.WattHour, n+1)
		charge[0] = bs.InitialCharge
		for i := 0; i < n; i++ {
			charge[i+1] = charge[i]
		}
		s.Charge[bi] = charge
	}

	for i := 0; i < n; i++ {
		s.recomputeDemandAt(i)
	}

	return s, nil
}

func (s *State) recomputeDemandAt(i int) {
	s.Demand[i] = s.Spec.Baseline[i] + s.constContribution[i] + s.variableContribution[i] +
		s.batteryContribution[i] - s.genPower[i]
}

// ShiftConstant moves constant action idx to a new start step, updating the
// aggregated contribution and net demand over the union of the old and new
// covered ranges. Callers must have already established feasibility.
func (s *State) ShiftConstant(idx, newStart int) {
	cs := s.Spec.Constants[idx]
	old := s.StartStep[idx]
	if old == newStart {
		return
	}
	for i := old; i < old+cs.DurationSteps; i++ {
		s.constContribution[i] -= cs.Power
		s.recomputeDemandAt(i)
	}
	for i := newStart; i < newStart+cs.DurationSteps; i++ {
		s.constContribution[i] += cs.Power
		s.recomputeDemandAt(i)
	}
	s.StartStep[idx] = newStart
}

// ReallocateVariable moves delta of allocation from step i to step j for
// variable action idx.
func (s *State) ReallocateVariable(idx, i, j int, delta units.Watt) {
	if delta == 0 {
		return
	}
	s.Alloc[idx][i] -= delta
	s.Alloc[idx][j] += delta
	s.variableContribution[i] -= delta
	s.variableContribution[j] += delta
	s.recomputeDemandAt(i)
	s.recomputeDemandAt(j)
}

// PerturbBattery adds delta to flow at step i and subtracts it at step j for
// battery idx, then recomputes the charge-level cache from
// min(i,j)+1 through N (spec.md §4.4: bounds are re-checked from the first
// perturbed step through N).
func (s *State) PerturbBattery(idx, i, j int, delta units.Watt) {
	if delta == 0 {
		return
	}
	s.Flow[idx][i] += delta
	s.Flow[idx][j] -= delta
	s.batteryContribution[i] += delta
	s.batteryContribution[j] -= delta
	s.recomputeDemandAt(i)
	s.recomputeDemandAt(j)

	from := i
	if j < from {
		from = j
	}
	s.RecomputeChargeFrom(idx, from)
}

// RecomputeChargeFrom walks the charge recurrence q_{k+1} = q_k + f_k·Δ
// forward from step `from`, refreshing the cached Charge slice for battery
// idx. Exported so the feasibility checker can refresh the cache into its
// own scratch buffer without duplicating the recurrence logic.
func (s *State) RecomputeChargeFrom(idx, from int) {
	step := s.Spec.Grid.Step()
	charge := s.Charge[idx]
	flow := s.Flow[idx]
	for k := from; k < len(flow); k++ {
		charge[k+1] = charge[k] + flow[k].Over(step)
	}
}

// Clone returns a deep copy of the state, used for infrequent best-state
// snapshots (spec.md §4.7) — not called from the per-iteration hot path.
func (s *State) Clone() *State {
	n := len(s.Demand)
	c := &State{
		Spec:                 s.Spec,
		StartStep:            append([]int(nil), s.StartStep...),
		Alloc:                make([][]units.Watt, len(s.Alloc)),
		Flow:                 make([][]units.Watt, len(s.Flow)),
		Charge:               make([][]units.WattHour, len(s.Charge)),
		constContribution:    append([]units.Watt(nil), s.constContribution...),
		variableContribution: append([]units.Watt(nil), s.variableContribution...),
		batteryContribution:  append([]units.Watt(nil), s.batteryContribution...),
		genPower:             append([]units.Watt(nil), s.genPower...),
		Demand:               make([]units.Watt, n),
	}
	copy(c.Demand, s.Demand)
	for i, a := range s.Alloc {
		c.Alloc[i] = append([]units.Watt(nil), a...)
	}
	for i, f := range s.Flow {
		c.Flow[i] = append([]units.Watt(nil), f...)
	}
	for i, ch := range s.Charge {
		c.Charge[i] = append([]units.WattHour(nil), ch...)
	}
	return c
}
