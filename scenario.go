package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/devskill-org/gridplan/schedule"
	"github.com/devskill-org/gridplan/units"
)

// Scenario is the on-disk description of one solve: the horizon and the
// entities to schedule, in the shape solver.Instance needs once their
// durations are parsed. JSON analog of the entity types in schedule/types.go.
type Scenario struct {
	Start   time.Time     `json:"start"`
	Horizon time.Duration `json:"horizon"`

	Constants []ConstantActionJSON `json:"constants,omitempty"`
	Variables []VariableActionJSON `json:"variables,omitempty"`
	Batteries []schedule.Battery   `json:"batteries,omitempty"`
	Past      []PastActionJSON     `json:"past,omitempty"`

	// EntsoeToken, if set, fetches live day-ahead prices. Otherwise
	// FlatPriceEURPerMWh is used for every step.
	EntsoeToken        string  `json:"entsoe_token,omitempty"`
	EntsoeURLFormat    string  `json:"entsoe_url_format,omitempty"`
	EntsoeLocation     string  `json:"entsoe_location,omitempty"`
	FlatPriceEURPerMWh float64 `json:"flat_price_eur_per_mwh,omitempty"`

	// SolarPeakPowerW enables the clear-sky solar forecast provider when
	// positive; weather attenuation additionally requires WeatherUserAgent.
	SolarPeakPowerW   float64 `json:"solar_peak_power_w,omitempty"`
	WeatherUserAgent  string  `json:"weather_user_agent,omitempty"`
}

// ConstantActionJSON mirrors schedule.ConstantAction with a readable
// duration string.
type ConstantActionJSON struct {
	ID            string    `json:"id"`
	EarliestStart time.Time `json:"earliest_start"`
	LatestEnd     time.Time `json:"latest_end"`
	Duration      string    `json:"duration"`
	PowerW        float64   `json:"power_w"`
}

func (c ConstantActionJSON) compile() (schedule.ConstantAction, error) {
	d, err := time.ParseDuration(c.Duration)
	if err != nil {
		return schedule.ConstantAction{}, fmt.Errorf("constant %q: invalid duration %q: %w", c.ID, c.Duration, err)
	}
	return schedule.ConstantAction{
		ID:            c.ID,
		EarliestStart: c.EarliestStart,
		LatestEnd:     c.LatestEnd,
		Duration:      d,
		Power:         units.Watt(c.PowerW),
	}, nil
}

// VariableActionJSON mirrors schedule.VariableAction.
type VariableActionJSON struct {
	ID              string    `json:"id"`
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	TotalEnergyWh   float64   `json:"total_energy_wh"`
	MaxPowerW       float64   `json:"max_power_w"`
}

func (v VariableActionJSON) compile() schedule.VariableAction {
	return schedule.VariableAction{
		ID:          v.ID,
		WindowStart: v.WindowStart,
		WindowEnd:   v.WindowEnd,
		TotalEnergy: units.WattHour(v.TotalEnergyWh),
		MaxPower:    units.Watt(v.MaxPowerW),
	}
}

// PastActionJSON mirrors schedule.PastAction.
type PastActionJSON struct {
	ID       string    `json:"id"`
	Start    time.Time `json:"start"`
	Duration string    `json:"duration"`
	PowerW   float64   `json:"power_w"`
}

func (p PastActionJSON) compile() (schedule.PastAction, error) {
	d, err := time.ParseDuration(p.Duration)
	if err != nil {
		return schedule.PastAction{}, fmt.Errorf("past action %q: invalid duration %q: %w", p.ID, p.Duration, err)
	}
	return schedule.PastAction{
		ID:       p.ID,
		Start:    p.Start,
		Duration: d,
		Power:    units.Watt(p.PowerW),
	}, nil
}

// LoadScenario reads and parses a Scenario from a JSON file.
func LoadScenario(filename string) (*Scenario, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening scenario file: %w", err)
	}
	defer f.Close()
	return LoadScenarioFromReader(f)
}

// LoadScenarioFromReader reads and parses a Scenario from r.
func LoadScenarioFromReader(r io.Reader) (*Scenario, error) {
	var s Scenario
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("decoding scenario JSON: %w", err)
	}
	return &s, nil
}

// compileConstants, compileVariables, and compilePast convert the JSON
// entity lists to their schedule equivalents.
func (s *Scenario) compileConstants() ([]schedule.ConstantAction, error) {
	out := make([]schedule.ConstantAction, 0, len(s.Constants))
	for _, c := range s.Constants {
		ca, err := c.compile()
		if err != nil {
			return nil, err
		}
		out = append(out, ca)
	}
	return out, nil
}

func (s *Scenario) compileVariables() []schedule.VariableAction {
	out := make([]schedule.VariableAction, 0, len(s.Variables))
	for _, v := range s.Variables {
		out = append(out, v.compile())
	}
	return out
}

func (s *Scenario) compilePast() ([]schedule.PastAction, error) {
	out := make([]schedule.PastAction, 0, len(s.Past))
	for _, p := range s.Past {
		pa, err := p.compile()
		if err != nil {
			return nil, err
		}
		out = append(out, pa)
	}
	return out, nil
}
