package grid

import (
	"testing"
	"time"
)

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	tm, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse time: %v", err)
	}
	return tm
}

func TestNew(t *testing.T) {
	start := mustTime(t, "2026-01-01T00:00:00Z")

	tests := []struct {
		name    string
		horizon time.Duration
		step    time.Duration
		wantN   int
		wantErr bool
	}{
		{"24h at 1h step", 24 * time.Hour, time.Hour, 24, false},
		{"24h at 15m step", 24 * time.Hour, 15 * time.Minute, 96, false},
		{"non-multiple horizon", 25 * time.Hour, 24 * time.Hour, 0, true},
		{"zero horizon", 0, time.Hour, 0, true},
		{"negative step", time.Hour, -time.Minute, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(start, tt.horizon, tt.step)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if g.Steps() != tt.wantN {
				t.Errorf("Steps() = %d, want %d", g.Steps(), tt.wantN)
			}
		})
	}
}

func TestTimeOfAndStepOf(t *testing.T) {
	start := mustTime(t, "2026-01-01T00:00:00Z")
	g, err := New(start, 4*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	for i := 0; i < g.Steps(); i++ {
		ts := g.TimeOf(i)
		got, err := g.StepOf(ts)
		if err != nil {
			t.Fatalf("StepOf(%v): %v", ts, err)
		}
		if got != i {
			t.Errorf("StepOf(TimeOf(%d)) = %d, want %d", i, got, i)
		}
	}

	// Midpoint of a step floors to that step.
	mid := start.Add(90 * time.Minute)
	idx, err := g.StepOf(mid)
	if err != nil {
		t.Fatalf("StepOf: %v", err)
	}
	if idx != 1 {
		t.Errorf("StepOf(mid) = %d, want 1", idx)
	}

	if _, err := g.StepOf(start.Add(-time.Minute)); err == nil {
		t.Errorf("expected error for instant before horizon")
	}
}

func TestWindowSteps(t *testing.T) {
	start := mustTime(t, "2026-01-01T00:00:00Z")
	g, err := New(start, 24*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	i0, i1, err := g.WindowSteps(start.Add(2*time.Hour), start.Add(5*time.Hour))
	if err != nil {
		t.Fatalf("WindowSteps: %v", err)
	}
	if i0 != 2 || i1 != 5 {
		t.Errorf("WindowSteps = (%d,%d), want (2,5)", i0, i1)
	}

	if _, _, err := g.WindowSteps(start.Add(23*time.Hour), start.Add(26*time.Hour)); err == nil {
		t.Errorf("expected error for window beyond horizon")
	}
}

func TestStepsFor(t *testing.T) {
	start := mustTime(t, "2026-01-01T00:00:00Z")
	g, err := New(start, 24*time.Hour, 15*time.Minute)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	n, err := g.StepsFor(time.Hour)
	if err != nil {
		t.Fatalf("StepsFor: %v", err)
	}
	if n != 4 {
		t.Errorf("StepsFor(1h) = %d, want 4", n)
	}

	if _, err := g.StepsFor(10 * time.Minute); err == nil {
		t.Errorf("expected error for non-multiple duration")
	}
}

func TestNewSpanning(t *testing.T) {
	start := mustTime(t, "2026-01-01T00:00:00Z")
	g, err := NewSpanning(time.Hour, start,
		start.Add(10*time.Hour),
		start.Add(23*time.Hour+30*time.Minute),
	)
	if err != nil {
		t.Fatalf("NewSpanning: %v", err)
	}
	if g.Steps() != 24 {
		t.Errorf("Steps() = %d, want 24 (rounded up to cover 23:30)", g.Steps())
	}
}
