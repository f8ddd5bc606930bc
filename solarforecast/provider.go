// Package solarforecast estimates photovoltaic generation from sun
// position, attenuated by forecast cloud coverage — grounded on the sun
// position example (suncalc) and the MET Norway cloud-fraction forecast.
package solarforecast

import (
	"context"
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/devskill-org/gridplan/units"
)

// CloudCoverage reports the forecast cloud area fraction, in percent
// [0,100], at a wall-clock instant. meteo.ForecastCache satisfies this.
type CloudCoverage interface {
	CloudCoverageAt(t time.Time) (float64, error)
}

// clearSkyAttenuation is the generation loss fraction attributed to full
// (100%) cloud cover; a clear sky (0%) applies none.
const clearSkyAttenuation = 0.75

// Provider estimates average generation power over a grid step as
// peakPower * sin(solar altitude) * (1 - clearSkyAttenuation * cloudFraction),
// a standard simplified clear-sky model, then integrates it into an energy
// figure for the step (prognosis.Provider[units.WattHour]).
type Provider struct {
	Latitude, Longitude float64
	PeakPower           units.Watt
	Clouds              CloudCoverage // nil assumes a clear sky
}

// New builds a Provider for a site at (lat, lng) with the given installed
// peak power. clouds may be nil to assume clear skies.
func New(lat, lng float64, peakPower units.Watt, clouds CloudCoverage) *Provider {
	return &Provider{Latitude: lat, Longitude: lng, PeakPower: peakPower, Clouds: clouds}
}

// Sample implements prognosis.Provider[units.WattHour].
func (p *Provider) Sample(_ context.Context, start, end time.Time) (units.WattHour, error) {
	mid := start.Add(end.Sub(start) / 2)
	pos := suncalc.GetPosition(mid, p.Latitude, p.Longitude)
	if pos.Altitude <= 0 {
		return 0, nil
	}

	power := p.PeakPower * units.Watt(math.Sin(pos.Altitude))

	if p.Clouds != nil {
		cloudPct, err := p.Clouds.CloudCoverageAt(mid)
		if err != nil {
			return 0, err
		}
		attenuation := 1.0 - clearSkyAttenuation*(cloudPct/100.0)
		if attenuation < 0 {
			attenuation = 0
		}
		power = units.Watt(float64(power) * attenuation)
	}

	if power < 0 {
		power = 0
	}
	return power.Over(end.Sub(start)), nil
}
