package result

import (
	"testing"
	"time"

	"github.com/devskill-org/gridplan/grid"
	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/units"
)

func buildResultFixture(t *testing.T) *schedule.State {
	t.Helper()
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := grid.New(start, 4*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	constants := []schedule.ConstantAction{{
		ID: "dishwasher", EarliestStart: start, LatestEnd: start.Add(4 * time.Hour),
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
	return state
}

func TestConstantWindowReflectsStartStep(t *testing.T) {
	state := buildResultFixture(t)
	state.ShiftConstant(0, 2)

	sched := From(state)
	start, end, ok := sched.ConstantWindow("dishwasher")
	if !ok {
		t.Fatalf("expected dishwasher to be found")
	}
	wantStart := time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantStart.Add(time.Hour)) {
		t.Errorf("end = %v, want %v", end, wantStart.Add(time.Hour))
	}

	if _, _, ok := sched.ConstantWindow("unknown"); ok {
		t.Errorf("expected unknown id to be absent")
	}
}

func TestVariablePowerAtMatchesAllocation(t *testing.T) {
	state := buildResultFixture(t)
	sched := From(state)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	power, ok := sched.VariablePowerAt("ev", start)
	if !ok {
		t.Fatalf("expected ev to be found")
	}
	if power != state.Alloc[0][0] {
		t.Errorf("power = %v, want %v", power, state.Alloc[0][0])
	}

	if _, ok := sched.VariablePowerAt("unknown", start); ok {
		t.Errorf("expected unknown id to be absent")
	}
}

func TestBatteryStateAtMatchesFlowAndCharge(t *testing.T) {
	state := buildResultFixture(t)
	state.PerturbBattery(0, 0, 3, units.Watt(200))
	sched := From(state)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	charge, flow, ok := sched.BatteryStateAt("batt", start)
	if !ok {
		t.Fatalf("expected batt to be found")
	}
	if flow != state.Flow[0][0] {
		t.Errorf("flow = %v, want %v", flow, state.Flow[0][0])
	}
	if charge != state.Charge[0][0] {
		t.Errorf("charge = %v, want %v", charge, state.Charge[0][0])
	}
}

func TestIDsList(t *testing.T) {
	state := buildResultFixture(t)
	sched := From(state)

	if ids := sched.ConstantIDs(); len(ids) != 1 || ids[0] != "dishwasher" {
		t.Errorf("ConstantIDs = %v", ids)
	}
	if ids := sched.VariableIDs(); len(ids) != 1 || ids[0] != "ev" {
		t.Errorf("VariableIDs = %v", ids)
	}
	if ids := sched.BatteryIDs(); len(ids) != 1 || ids[0] != "batt" {
		t.Errorf("BatteryIDs = %v", ids)
	}
}
