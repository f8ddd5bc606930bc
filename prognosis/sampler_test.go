package prognosis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/devskill-org/gridplan/grid"
	"github.com/devskill-org/gridplan/schederr"
	"github.com/devskill-org/gridplan/units"
)

func TestSampleWithConstantProviders(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := grid.New(start, 4*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}

	price := Constant(units.EuroPerWh(0.00001))
	v, err := Sample(context.Background(), g, price, nil)
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}
	if len(v.Price) != 4 || len(v.Gen) != 4 {
		t.Fatalf("vector length mismatch: %d / %d", len(v.Price), len(v.Gen))
	}
	for i, p := range v.Price {
		if p != units.EuroPerWh(0.00001) {
			t.Errorf("Price[%d] = %v, want 0.00001", i, p)
		}
		if v.Gen[i] != 0 {
			t.Errorf("Gen[%d] = %v, want 0 (no generation provider)", i, v.Gen[i])
		}
	}
}

func TestSamplePropagatesProviderFailure(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	g, err := grid.New(start, 2*time.Hour, time.Hour)
	if err != nil {
		t.Fatalf("grid.New: %v", err)
	}

	boom := errors.New("upstream down")
	price := ProviderFunc[units.EuroPerWh](func(_ context.Context, _, _ time.Time) (units.EuroPerWh, error) {
		return 0, boom
	})

	_, err = Sample(context.Background(), g, price, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	var pu *schederr.PrognosisUnavailableError
	if !errors.As(err, &pu) {
		t.Fatalf("expected PrognosisUnavailableError, got %T: %v", err, err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped upstream error")
	}
}
