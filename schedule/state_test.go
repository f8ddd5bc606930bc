package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/devskill-org/gridplan/grid"
	"github.com/devskill-org/gridplan/schederr"
	"github.com/devskill-org/gridplan/units"
)

func mustGrid(t *testing.T, start time.Time, horizon, step time.Duration) *grid.Grid {
	t.Helper()
	g, err := grid.New(start, horizon, step)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}
	return g
}

func TestNewStateConstantActionPlacedAtEarliestStep(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := mustGrid(t, start, 24*time.Hour, time.Hour)

	ca := ConstantAction{
		ID:            "dishwasher",
		EarliestStart: start,
		LatestEnd:     start.Add(24 * time.Hour),
		Duration:      time.Hour,
		Power:         1000,
	}
	spec, err := NewSpec(g, []ConstantAction{ca}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}

	st, err := NewState(spec, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if st.StartStep[0] != 0 {
		t.Errorf("StartStep[0] = %d, want 0 (earliest feasible step)", st.StartStep[0])
	}
	if st.Demand[0] != 1000 {
		t.Errorf("Demand[0] = %v, want 1000", st.Demand[0])
	}
}

func TestNewStateVariableActionUniformAllocation(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := mustGrid(t, start, 4*time.Hour, time.Hour)

	va := VariableAction{
		ID:          "ev",
		WindowStart: start,
		WindowEnd:   start.Add(4 * time.Hour),
		TotalEnergy: 2000,
		MaxPower:    1000,
	}
	spec, err := NewSpec(g, nil, []VariableAction{va}, nil, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	st, err := NewState(spec, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	var total units.WattHour
	for i := 0; i < 4; i++ {
		x := st.Alloc[0][i]
		if x < 0 || x > va.MaxPower {
			t.Errorf("Alloc[%d] = %v out of [0, MaxPower]", i, x)
		}
		total += x.Over(g.Step())
	}
	if total != va.TotalEnergy {
		t.Errorf("total allocated = %v, want %v", total, va.TotalEnergy)
	}
}

func TestNewSpecInfeasibleVariableAction(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := mustGrid(t, start, 4*time.Hour, time.Hour)

	va := VariableAction{
		ID:          "overload",
		WindowStart: start,
		WindowEnd:   start.Add(2 * time.Hour),
		TotalEnergy: 3000,
		MaxPower:    1000,
	}
	_, err := NewSpec(g, nil, []VariableAction{va}, nil, nil)
	if err == nil {
		t.Fatalf("expected infeasible-instance error")
	}
	var infeasible *schederr.InfeasibleInstanceError
	if !errors.As(err, &infeasible) {
		t.Fatalf("expected InfeasibleInstanceError, got %T: %v", err, err)
	}
}

func TestNewStateBatteryStartsIdleAndFeasible(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := mustGrid(t, start, 4*time.Hour, time.Hour)

	b := Battery{
		ID:            "house-battery",
		Capacity:      2000,
		MaxCharge:     1000,
		MaxDischarge:  1000,
		InitialCharge: 0,
	}
	spec, err := NewSpec(g, nil, nil, []Battery{b}, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	st, err := NewState(spec, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	for i := 0; i <= g.Steps(); i++ {
		if st.Charge[0][i] != 0 {
			t.Errorf("Charge[0][%d] = %v, want 0", i, st.Charge[0][i])
		}
	}
}

func TestPastActionRaisesBaseline(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := mustGrid(t, start, 4*time.Hour, time.Hour)

	past := PastAction{ID: "fridge", Start: start, Duration: time.Hour, Power: 5000}
	spec, err := NewSpec(g, nil, nil, nil, []PastAction{past})
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	if spec.Baseline[0] != 5000 {
		t.Errorf("Baseline[0] = %v, want 5000", spec.Baseline[0])
	}
	for i := 1; i < g.Steps(); i++ {
		if spec.Baseline[i] != 0 {
			t.Errorf("Baseline[%d] = %v, want 0", i, spec.Baseline[i])
		}
	}
}

func TestShiftConstantUpdatesDemandOverUnionOfRanges(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g := mustGrid(t, start, 4*time.Hour, time.Hour)

	ca := ConstantAction{
		ID:            "a",
		EarliestStart: start,
		LatestEnd:     start.Add(4 * time.Hour),
		Duration:      time.Hour,
		Power:         1000,
	}
	spec, err := NewSpec(g, []ConstantAction{ca}, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewSpec: %v", err)
	}
	st, err := NewState(spec, nil)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}

	st.ShiftConstant(0, 2)
	if st.Demand[0] != 0 {
		t.Errorf("Demand[0] = %v, want 0 after shift away", st.Demand[0])
	}
	if st.Demand[2] != 1000 {
		t.Errorf("Demand[2] = %v, want 1000 after shift into step 2", st.Demand[2])
	}
}
