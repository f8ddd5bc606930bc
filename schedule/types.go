// Package schedule holds the scheduling data model: the caller-facing
// entity types (spec.md §3), their compiled step-coordinate Spec, and the
// mutable State the annealer searches over.
package schedule

import (
	"time"

	"github.com/devskill-org/gridplan/units"
)

// ConstantAction is a deferrable load of fixed shape: only its start time is
// a decision variable.
type ConstantAction struct {
	ID            string
	EarliestStart time.Time
	LatestEnd     time.Time
	Duration      time.Duration
	Power         units.Watt
}

// VariableAction is a flexible load whose per-step consumption is a
// decision vector, subject to a total-energy requirement and a per-step
// power cap.
type VariableAction struct {
	ID          string
	WindowStart time.Time
	WindowEnd   time.Time
	TotalEnergy units.WattHour
	MaxPower    units.Watt
}

// Battery is a storage element with rate and capacity limits.
type Battery struct {
	ID            string
	Capacity      units.WattHour
	MaxCharge     units.Watt
	MaxDischarge  units.Watt
	InitialCharge units.WattHour
}

// PastAction is an already-committed load that contributes to the fixed
// baseline demand curve only; it is not a decision variable.
type PastAction struct {
	ID       string
	Start    time.Time
	Duration time.Duration
	Power    units.Watt
}
