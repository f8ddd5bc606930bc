// Package units provides newtype wrappers for the physical quantities the
// scheduler reasons about, so that power, energy, price and cost cannot be
// mixed up at compile time. At runtime every type is a plain float64.
package units

import "time"

// Watt is an instantaneous power quantity.
type Watt float64

// WattHour is an energy quantity.
type WattHour float64

// EuroPerWh is a price per unit of energy.
type EuroPerWh float64

// Euro is a monetary cost.
type Euro float64

// Over returns the energy drawn by a constant power p sustained for d.
func (p Watt) Over(d time.Duration) WattHour {
	return WattHour(float64(p) * d.Hours())
}

// At prices an energy quantity at the given rate.
func (e WattHour) At(price EuroPerWh) Euro {
	return Euro(float64(e) * float64(price))
}

// Add, Sub, Min, Max, Abs for WattHour — Min and Max split a step's net
// energy into import and export in package cost.
func (e WattHour) Add(o WattHour) WattHour { return e + o }
func (e WattHour) Sub(o WattHour) WattHour { return e - o }

func (e WattHour) Max(o WattHour) WattHour {
	if e > o {
		return e
	}
	return o
}

func (e WattHour) Min(o WattHour) WattHour {
	if e < o {
		return e
	}
	return o
}

func (e WattHour) Abs() WattHour {
	if e < 0 {
		return -e
	}
	return e
}

func (c Euro) Add(o Euro) Euro { return c + o }
func (c Euro) Sub(o Euro) Euro { return c - o }
