// Package solver assembles a grid, a compiled scheduling instance, price
// and generation prognoses, and the annealer into one entry point: Solve.
package solver

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/devskill-org/gridplan/anneal"
)

// Config is the flat, JSON-tagged configuration for one solve: a struct
// of overridable defaults plus Validate/Load/Save.
type Config struct {
	GridStep time.Duration `json:"grid_step"` // discretization step, e.g. 15m

	Seed                   int64   `json:"seed"`
	InitialTempSamples     int     `json:"initial_temp_samples"`
	InitialTempMultiplier  float64 `json:"initial_temp_multiplier"`
	CoolingRate            float64 `json:"cooling_rate"`
	StepsPerTemp           int     `json:"steps_per_temp"`
	MinTemperature         float64 `json:"min_temperature"`
	MaxIterations          int     `json:"max_iterations"`
	StallLimit             int     `json:"stall_limit"`
	AuditInterval          int     `json:"audit_interval"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	HealthCheckPort int `json:"health_check_port"` // 0 = disabled
}

// DefaultConfig mirrors anneal.DefaultParams, adding the solve-level
// settings the annealer doesn't own.
func DefaultConfig() *Config {
	p := anneal.DefaultParams()
	return &Config{
		GridStep:              15 * time.Minute,
		Seed:                  p.Seed,
		InitialTempSamples:    p.InitialTempSamples,
		InitialTempMultiplier: p.InitialTempMultiplier,
		CoolingRate:           p.CoolingRate,
		StepsPerTemp:          p.StepsPerTemp,
		MinTemperature:        p.MinTemperature,
		MaxIterations:         p.MaxIterations,
		StallLimit:            p.StallLimit,
		AuditInterval:         p.AuditInterval,
		Latitude:              56.9496, // Riga, Latvia
		Longitude:             24.1052,
		HealthCheckPort:       0,
	}
}

// annealParams extracts the anneal.Params embedded in c.
func (c *Config) annealParams() anneal.Params {
	return anneal.Params{
		Seed:                  c.Seed,
		InitialTempSamples:    c.InitialTempSamples,
		InitialTempMultiplier: c.InitialTempMultiplier,
		CoolingRate:           c.CoolingRate,
		StepsPerTemp:          c.StepsPerTemp,
		MinTemperature:        c.MinTemperature,
		MaxIterations:         c.MaxIterations,
		StallLimit:            c.StallLimit,
		AuditInterval:         c.AuditInterval,
	}
}

// Validate checks that c's values make sense before a solve starts.
func (c *Config) Validate() error {
	if c.GridStep <= 0 {
		return fmt.Errorf("grid_step must be greater than 0, got: %s", c.GridStep)
	}
	if c.InitialTempSamples <= 0 {
		return fmt.Errorf("initial_temp_samples must be greater than 0, got: %d", c.InitialTempSamples)
	}
	if c.InitialTempMultiplier <= 0 {
		return fmt.Errorf("initial_temp_multiplier must be greater than 0, got: %f", c.InitialTempMultiplier)
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		return fmt.Errorf("cooling_rate must be in (0, 1), got: %f", c.CoolingRate)
	}
	if c.StepsPerTemp <= 0 {
		return fmt.Errorf("steps_per_temp must be greater than 0, got: %d", c.StepsPerTemp)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be greater than 0, got: %d", c.MaxIterations)
	}
	if c.StallLimit <= 0 {
		return fmt.Errorf("stall_limit must be greater than 0, got: %d", c.StallLimit)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got: %f", c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got: %f", c.Longitude)
	}
	if c.HealthCheckPort < 0 || c.HealthCheckPort > 65535 {
		return fmt.Errorf("health_check_port must be between 0 and 65535, got: %d", c.HealthCheckPort)
	}
	return nil
}

// LoadConfig loads a Config from a JSON file, applying defaults first.
func LoadConfig(filename string) (*Config, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads a Config from an io.Reader, applying defaults
// first so the caller only needs to specify overrides.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	config := DefaultConfig()

	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("failed to decode config JSON: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveConfig saves c to a JSON file.
func (c *Config) SaveConfig(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	return c.SaveConfigToWriter(file)
}

// SaveConfigToWriter saves c to an io.Writer.
func (c *Config) SaveConfigToWriter(writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config JSON: %w", err)
	}
	return nil
}

// String returns a JSON representation of c for logging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// MarshalJSON renders GridStep as a human-readable duration string
// ("15m0s") instead of a raw nanosecond count.
func (c *Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(&struct {
		*Alias
		GridStep string `json:"grid_step"`
	}{
		Alias:    (*Alias)(c),
		GridStep: c.GridStep.String(),
	})
}

// UnmarshalJSON accepts GridStep as a duration string.
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := &struct {
		*Alias
		GridStep string `json:"grid_step"`
	}{
		Alias: (*Alias)(c),
	}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if aux.GridStep != "" {
		d, err := time.ParseDuration(aux.GridStep)
		if err != nil {
			return fmt.Errorf("invalid grid_step: %w", err)
		}
		c.GridStep = d
	}

	return nil
}
