package feasibility

import (
	"testing"
	"time"

	"github.com/devskill-org/gridplan/grid"
	"github.com/devskill-org/gridplan/moves"
	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/units"
)

func buildState(t *testing.T) *schedule.State {
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
		ID: "batt", Capacity: 2000, MaxCharge: 1000, MaxDischarge: 1000, InitialCharge: 1000,
	}}
	spec, err := schedule.NewSpec(g, constants, variables, batteries, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	state, err := schedule.NewState(spec, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	return state
}

func TestCheckShiftConstant(t *testing.T) {
	state := buildState(t)
	checker := NewChecker(4)

	if !checker.Check(state, moves.Move{Kind: moves.ShiftConstant, Index: 0, NewStart: 3}) {
		t.Errorf("expected in-range shift to be feasible")
	}
	if checker.Check(state, moves.Move{Kind: moves.ShiftConstant, Index: 0, NewStart: 4}) {
		t.Errorf("expected out-of-range shift to be rejected")
	}
}

func TestCheckReallocateVariableRejectsOverCap(t *testing.T) {
	state := buildState(t)
	checker := NewChecker(4)

	mv := moves.Move{Kind: moves.ReallocateVariable, Index: 0, I: 1, J: 0, Delta: 10000}
	if checker.Check(state, mv) {
		t.Errorf("expected oversized reallocation to be rejected")
	}
}

func TestCheckReallocateVariableAcceptsSmallShift(t *testing.T) {
	state := buildState(t)
	checker := NewChecker(4)

	x0 := state.Alloc[0][0]
	mv := moves.Move{Kind: moves.ReallocateVariable, Index: 0, I: 0, J: 1, Delta: units.Watt(1)}
	if x0 < 1 {
		t.Skip("not enough allocation at step 0 to test a positive shift")
	}
	if !checker.Check(state, mv) {
		t.Errorf("expected small in-bounds reallocation to be feasible")
	}
	// Checker must not mutate.
	if state.Alloc[0][0] != x0 {
		t.Errorf("state mutated by Check: Alloc[0][0] = %v, want %v", state.Alloc[0][0], x0)
	}
}

func TestCheckPerturbBatteryRejectsCapacityOverflow(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := grid.New(start, 4*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	batteries := []schedule.Battery{{
		ID: "batt", Capacity: 2000, MaxCharge: 1000, MaxDischarge: 1000, InitialCharge: 1900,
	}}
	spec, err := schedule.NewSpec(g, nil, nil, batteries, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	state, err := schedule.NewState(spec, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	checker := NewChecker(4)

	// Charging at the full rate for one step pushes charge to 2900, well
	// past the 2000 capacity, even though the rate itself is in bounds.
	mv := moves.Move{Kind: moves.PerturbBattery, Index: 0, I: 0, J: 3, Delta: units.Watt(1000)}
	if checker.Check(state, mv) {
		t.Errorf("expected capacity-overflowing perturbation to be rejected")
	}
}

func TestCheckPerturbBatteryAcceptsSmallFlow(t *testing.T) {
	state := buildState(t)
	checker := NewChecker(4)

	mv := moves.Move{Kind: moves.PerturbBattery, Index: 0, I: 0, J: 1, Delta: units.Watt(100)}
	if !checker.Check(state, mv) {
		t.Errorf("expected small battery perturbation to be feasible")
	}
	if state.Flow[0][0] != 0 || state.Flow[0][1] != 0 {
		t.Errorf("Check must not mutate Flow")
	}
}
