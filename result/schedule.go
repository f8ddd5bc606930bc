// Package result materializes a schedule.State into the view external
// callers consume: answers addressed by the action/battery identifiers
// supplied at build time and by wall-clock timestamp, rather than by the
// internal step-coordinate arrays (spec.md §4.8).
package result

import (
	"time"

	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/units"
)

// Schedule is the read-only, identifier-addressed view of a solved State.
type Schedule struct {
	grid *schedule.Spec

	constants map[string]assignedConstant
	variables map[string]assignedVariable
	batteries map[string]assignedBattery
}

type assignedConstant struct {
	start time.Time
	end   time.Time
	power units.Watt
}

type assignedVariable struct {
	windowStart time.Time
	alloc       []units.Watt // per grid step
}

type assignedBattery struct {
	flow   []units.Watt     // per grid step
	charge []units.WattHour // per grid step + 1
}

// From builds a Schedule view from a converged State.
func From(state *schedule.State) *Schedule {
	spec := state.Spec
	s := &Schedule{
		grid:      spec,
		constants: make(map[string]assignedConstant, len(spec.Constants)),
		variables: make(map[string]assignedVariable, len(spec.Variables)),
		batteries: make(map[string]assignedBattery, len(spec.Batteries)),
	}

	for i, cs := range spec.Constants {
		start := spec.Grid.TimeOf(state.StartStep[i])
		s.constants[cs.ID] = assignedConstant{
			start: start,
			end:   start.Add(time.Duration(cs.DurationSteps) * spec.Grid.Step()),
			power: cs.Power,
		}
	}
	for i, vs := range spec.Variables {
		s.variables[vs.ID] = assignedVariable{
			windowStart: spec.Grid.TimeOf(0),
			alloc:       append([]units.Watt(nil), state.Alloc[i]...),
		}
	}
	for i, bs := range spec.Batteries {
		s.batteries[bs.ID] = assignedBattery{
			flow:   append([]units.Watt(nil), state.Flow[i]...),
			charge: append([]units.WattHour(nil), state.Charge[i]...),
		}
	}
	return s
}

// ConstantWindow reports the assigned [start, end) interval for a constant
// action, and false if id is unknown.
func (s *Schedule) ConstantWindow(id string) (start, end time.Time, ok bool) {
	c, found := s.constants[id]
	if !found {
		return time.Time{}, time.Time{}, false
	}
	return c.start, c.end, true
}

// VariablePowerAt reports the assigned power draw of a variable action at
// timestamp t: zero outside its window, absent (ok=false) if id is unknown
// or t falls outside the solved horizon.
func (s *Schedule) VariablePowerAt(id string, t time.Time) (power units.Watt, ok bool) {
	v, found := s.variables[id]
	if !found {
		return 0, false
	}
	step, err := s.grid.Grid.StepOf(t)
	if err != nil {
		return 0, false
	}
	if step < 0 || step >= len(v.alloc) {
		return 0, true
	}
	return v.alloc[step], true
}

// BatteryStateAt reports the assigned charge level and average flow rate
// of a battery at timestamp t (flow positive = charging). ok is false if id
// is unknown or t falls outside the solved horizon.
func (s *Schedule) BatteryStateAt(id string, t time.Time) (charge units.WattHour, flow units.Watt, ok bool) {
	b, found := s.batteries[id]
	if !found {
		return 0, 0, false
	}
	step, err := s.grid.Grid.StepOf(t)
	if err != nil {
		return 0, 0, false
	}
	if step < 0 || step >= len(b.flow) {
		return 0, 0, false
	}
	return b.charge[step], b.flow[step], true
}

// ConstantIDs lists the identifiers of every assigned constant action.
func (s *Schedule) ConstantIDs() []string {
	ids := make([]string, 0, len(s.constants))
	for id := range s.constants {
		ids = append(ids, id)
	}
	return ids
}

// VariableIDs lists the identifiers of every assigned variable action.
func (s *Schedule) VariableIDs() []string {
	ids := make([]string, 0, len(s.variables))
	for id := range s.variables {
		ids = append(ids, id)
	}
	return ids
}

// BatteryIDs lists the identifiers of every assigned battery.
func (s *Schedule) BatteryIDs() []string {
	ids := make([]string, 0, len(s.batteries))
	for id := range s.batteries {
		ids = append(ids, id)
	}
	return ids
}
