package store

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestSaveAndLoadRun exercises the save/load round trip against a real
// Postgres instance. Skipped unless TEST_POSTGRES_CONN is set.
func TestSaveAndLoadRun(t *testing.T) {
	connString := os.Getenv("TEST_POSTGRES_CONN")
	if connString == "" {
		t.Skip("Skipping test: TEST_POSTGRES_CONN not set")
	}

	s, err := Open(connString)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	run := Run{
		SolvedAt:       start,
		Seed:           42,
		Iterations:     1000,
		Reason:         "min_temperature",
		InitialCostEUR: 1.23,
		FinalCostEUR:   0.98,
		Steps: []StepRecord{
			{Timestamp: start, DemandW: 500, PriceEUR: 0.0002},
			{Timestamp: start.Add(time.Hour), DemandW: -200, PriceEUR: 0.0001},
		},
	}

	id, err := s.SaveRun(ctx, run)
	if err != nil {
		t.Fatalf("SaveRun: %v", err)
	}

	loaded, err := s.LoadRun(ctx, id)
	if err != nil {
		t.Fatalf("LoadRun: %v", err)
	}
	if loaded.Seed != run.Seed || loaded.Reason != run.Reason {
		t.Errorf("loaded run = %+v, want seed/reason to match %+v", loaded, run)
	}
	if len(loaded.Steps) != len(run.Steps) {
		t.Fatalf("loaded %d steps, want %d", len(loaded.Steps), len(run.Steps))
	}
}
