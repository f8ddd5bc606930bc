package main

import (
	"strings"
	"testing"
)

const sampleScenarioJSON = `{
	"start": "2026-01-01T00:00:00Z",
	"horizon": "4h0m0s",
	"constants": [
		{"id": "dishwasher", "earliest_start": "2026-01-01T00:00:00Z", "latest_end": "2026-01-01T04:00:00Z", "duration": "1h0m0s", "power_w": 1500}
	],
	"variables": [
		{"id": "ev", "window_start": "2026-01-01T00:00:00Z", "window_end": "2026-01-01T04:00:00Z", "total_energy_wh": 4000, "max_power_w": 3000}
	],
	"batteries": [
		{"ID": "home", "Capacity": 10000, "MaxCharge": 3000, "MaxDischarge": 3000, "InitialCharge": 5000}
	],
	"flat_price_eur_per_mwh": 50
}`

func TestLoadScenarioFromReader(t *testing.T) {
	scen, err := LoadScenarioFromReader(strings.NewReader(sampleScenarioJSON))
	if err != nil {
		t.Fatalf("LoadScenarioFromReader: %v", err)
	}
	if len(scen.Constants) != 1 || scen.Constants[0].ID != "dishwasher" {
		t.Fatalf("unexpected constants: %+v", scen.Constants)
	}
	if len(scen.Batteries) != 1 || scen.Batteries[0].ID != "home" {
		t.Fatalf("unexpected batteries: %+v", scen.Batteries)
	}

	constants, err := scen.compileConstants()
	if err != nil {
		t.Fatalf("compileConstants: %v", err)
	}
	if constants[0].Duration.String() != "1h0m0s" {
		t.Errorf("Duration = %s, want 1h0m0s", constants[0].Duration)
	}
}

func TestCompileConstantsRejectsBadDuration(t *testing.T) {
	scen := &Scenario{Constants: []ConstantActionJSON{{ID: "x", Duration: "not-a-duration"}}}
	if _, err := scen.compileConstants(); err == nil {
		t.Errorf("expected error for malformed duration")
	}
}
