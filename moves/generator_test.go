package moves

import (
	"testing"
	"time"

	"github.com/devskill-org/gridplan/grid"
	"github.com/devskill-org/gridplan/schedule"
)

func buildSpec(t *testing.T) (*schedule.Spec, *schedule.State) {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := grid.New(start, 4*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}

	constants := []schedule.ConstantAction{{
		ID: "a", EarliestStart: start, LatestEnd: start.Add(4 * time.Hour),
		Duration: time.Hour, Power: 500,
	}}
	variables := []schedule.VariableAction{{
		ID: "ev", WindowStart: start, WindowEnd: start.Add(4 * time.Hour),
		TotalEnergy: 2000, MaxPower: 1000,
	}}
	batteries := []schedule.Battery{{
		ID: "batt", Capacity: 2000, MaxCharge: 1000, MaxDischarge: 1000, InitialCharge: 500,
	}}

	spec, err := schedule.NewSpec(g, constants, variables, batteries, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	state, err := schedule.NewState(spec, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return spec, state
}

func TestGeneratorProducesInRangeMoves(t *testing.T) {
	spec, state := buildSpec(t)
	gen := NewGenerator(spec, 42)

	for i := 0; i < 500; i++ {
		mv, ok := gen.Next(state)
		if !ok {
			t.Fatalf("expected a move to be generated")
		}
		switch mv.Kind {
		case ShiftConstant:
			cs := spec.Constants[mv.Index]
			if mv.NewStart < cs.EarliestStep || mv.NewStart+cs.DurationSteps > cs.LatestStep {
				t.Errorf("ShiftConstant NewStart=%d out of range [%d, %d]", mv.NewStart, cs.EarliestStep, cs.LatestStep-cs.DurationSteps)
			}
		case ReallocateVariable:
			vs := spec.Variables[mv.Index]
			if mv.I == mv.J {
				t.Errorf("ReallocateVariable picked identical steps")
			}
			if mv.I < vs.WindowStart || mv.I >= vs.WindowEnd || mv.J < vs.WindowStart || mv.J >= vs.WindowEnd {
				t.Errorf("ReallocateVariable steps outside window")
			}
			if mv.Delta < 0 {
				t.Errorf("ReallocateVariable delta negative: %v", mv.Delta)
			}
		case PerturbBattery:
			if mv.I == mv.J {
				t.Errorf("PerturbBattery picked identical steps")
			}
		}
	}
}

func TestGeneratorDeterministicWithSeed(t *testing.T) {
	spec, state := buildSpec(t)

	g1 := NewGenerator(spec, 7)
	g2 := NewGenerator(spec, 7)

	for i := 0; i < 50; i++ {
		m1, _ := g1.Next(state)
		m2, _ := g2.Next(state)
		if m1 != m2 {
			t.Fatalf("moves diverged at iteration %d: %+v vs %+v", i, m1, m2)
		}
	}
}

func TestGeneratorNoMoveForEmptyInstance(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := grid.New(start, 4*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	spec, err := schedule.NewSpec(g, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	state, err := schedule.NewState(spec, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	gen := NewGenerator(spec, 1)
	if _, ok := gen.Next(state); ok {
		t.Errorf("expected no move for an empty instance")
	}
}
