package schedule

import (
	"time"

	"github.com/devskill-org/gridplan/grid"
	"github.com/devskill-org/gridplan/schederr"
	"github.com/devskill-org/gridplan/units"
)

// ConstantSpec is a ConstantAction compiled to step coordinates.
type ConstantSpec struct {
	ID            string
	EarliestStep  int // earliest step at which the action may start
	LatestStep    int // one past the last step the action may end on (exclusive)
	DurationSteps int
	Power         units.Watt
}

// VariableSpec is a VariableAction compiled to step coordinates.
type VariableSpec struct {
	ID          string
	WindowStart int // inclusive
	WindowEnd   int // exclusive
	TotalEnergy units.WattHour
	MaxPower    units.Watt
}

// BatterySpec is a Battery, unchanged but grouped with the others.
type BatterySpec struct {
	ID            string
	Capacity      units.WattHour
	MaxCharge     units.Watt
	MaxDischarge  units.Watt
	InitialCharge units.WattHour
}

// Spec is the validated, step-coordinate compilation of a scheduling
// problem: the immutable part of a solve, shared by every candidate State.
type Spec struct {
	Grid      *grid.Grid
	Constants []ConstantSpec
	Variables []VariableSpec
	Batteries []BatterySpec
	Baseline  []units.Watt // per-step baseline power from past actions
}

// NewSpec validates and compiles the caller's entities against g. It
// performs the eager validation spec.md §7 requires: InvalidInput for
// malformed entities, InfeasibleInstance for entities that can never be
// placed regardless of search (e.g. a variable action whose energy exceeds
// its window's power-time budget).
func NewSpec(g *grid.Grid, constants []ConstantAction, variables []VariableAction, batteries []Battery, past []PastAction) (*Spec, error) {
	spec := &Spec{
		Grid:     g,
		Baseline: make([]units.Watt, g.Steps()),
	}

	seen := make(map[string]bool)

	for _, pa := range past {
		if pa.Duration < 0 {
			return nil, &schederr.InvalidInputError{Field: pa.ID, Message: "past action duration must be non-negative"}
		}
		durSteps, err := g.StepsFor(pa.Duration)
		if err != nil {
			return nil, err
		}

		paEnd := pa.Start.Add(pa.Duration)
		if !paEnd.After(g.Start()) || pa.Start.After(g.End()) {
			// Entirely outside the horizon: contributes nothing.
			continue
		}

		startStep := 0
		if !pa.Start.Before(g.Start()) {
			startStep, err = g.StepOf(pa.Start)
			if err != nil {
				startStep = 0
			}
		}
		end := startStep + durSteps
		if end > g.Steps() {
			end = g.Steps()
		}
		for i := startStep; i < end; i++ {
			spec.Baseline[i] += pa.Power
		}
	}

	for _, ca := range constants {
		if seen[ca.ID] {
			return nil, &schederr.InvalidInputError{Field: ca.ID, Message: "duplicate identifier"}
		}
		seen[ca.ID] = true

		if !ca.LatestEnd.After(ca.EarliestStart) {
			return nil, &schederr.InvalidInputError{Field: ca.ID, Message: "latest-end must be after earliest-start"}
		}
		durSteps, err := g.StepsFor(ca.Duration)
		if err != nil {
			return nil, err
		}
		if durSteps <= 0 {
			return nil, &schederr.InvalidInputError{Field: ca.ID, Message: "duration must be positive"}
		}
		if ca.Duration > 24*time.Hour {
			return nil, &schederr.InvalidInputError{Field: ca.ID, Message: "duration must not exceed 24h"}
		}
		earliestStep, latestStep, err := g.WindowSteps(ca.EarliestStart, ca.LatestEnd)
		if err != nil {
			return nil, err
		}
		if earliestStep+durSteps > latestStep {
			return nil, &schederr.InfeasibleInstanceError{Entity: ca.ID, Message: "no placement fits earliest-start..latest-end"}
		}

		spec.Constants = append(spec.Constants, ConstantSpec{
			ID:            ca.ID,
			EarliestStep:  earliestStep,
			LatestStep:    latestStep,
			DurationSteps: durSteps,
			Power:         ca.Power,
		})
	}

	for _, va := range variables {
		if seen[va.ID] {
			return nil, &schederr.InvalidInputError{Field: va.ID, Message: "duplicate identifier"}
		}
		seen[va.ID] = true

		if va.MaxPower < 0 {
			return nil, &schederr.InvalidInputError{Field: va.ID, Message: "max power must be non-negative"}
		}
		if va.TotalEnergy < 0 {
			return nil, &schederr.InvalidInputError{Field: va.ID, Message: "total energy must be non-negative"}
		}
		windowStart, windowEnd, err := g.WindowSteps(va.WindowStart, va.WindowEnd)
		if err != nil {
			return nil, err
		}
		steps := windowEnd - windowStart
		budget := va.MaxPower.Over(g.Step()) * units.WattHour(steps)
		if va.TotalEnergy > budget {
			return nil, &schederr.InfeasibleInstanceError{
				Entity:  va.ID,
				Message: "total energy exceeds window capacity at max power",
			}
		}

		spec.Variables = append(spec.Variables, VariableSpec{
			ID:          va.ID,
			WindowStart: windowStart,
			WindowEnd:   windowEnd,
			TotalEnergy: va.TotalEnergy,
			MaxPower:    va.MaxPower,
		})
	}

	for _, b := range batteries {
		if seen[b.ID] {
			return nil, &schederr.InvalidInputError{Field: b.ID, Message: "duplicate identifier"}
		}
		seen[b.ID] = true

		if b.Capacity < 0 {
			return nil, &schederr.InvalidInputError{Field: b.ID, Message: "capacity must be non-negative"}
		}
		if b.MaxCharge < 0 || b.MaxDischarge < 0 {
			return nil, &schederr.InvalidInputError{Field: b.ID, Message: "charge/discharge rates must be non-negative"}
		}
		if b.InitialCharge < 0 || b.InitialCharge > b.Capacity {
			return nil, &schederr.InvalidInputError{Field: b.ID, Message: "initial charge must lie within [0, capacity]"}
		}

		spec.Batteries = append(spec.Batteries, BatterySpec{
			ID:            b.ID,
			Capacity:      b.Capacity,
			MaxCharge:     b.MaxCharge,
			MaxDischarge:  b.MaxDischarge,
			InitialCharge: b.InitialCharge,
		})
	}

	return spec, nil
}
