package meteo

import (
	"fmt"
	"sync"
	"time"
)

// ForecastCache wraps a Client with a single cached Forecast for one
// location, refreshed on demand. The MET Norway API expects to be polled
// at most a few times an hour per location, so repeated per-timestep
// lookups within a solve must reuse one fetched forecast rather than
// issuing a request per grid step.
type ForecastCache struct {
	client   *Client
	location Location

	mu       sync.Mutex
	forecast *METJSONForecast
	fetched  time.Time
	maxAge   time.Duration
}

// NewForecastCache builds a cache that refetches the forecast once every
// maxAge (0 disables staleness checking, always reusing the first fetch).
func NewForecastCache(client *Client, location Location, maxAge time.Duration) *ForecastCache {
	return &ForecastCache{client: client, location: location, maxAge: maxAge}
}

// CloudCoverageAt returns the forecast cloud area fraction, in percent
// [0,100], for the timeseries entry nearest to t. It refreshes the
// underlying forecast if the cache is empty or stale.
func (c *ForecastCache) CloudCoverageAt(t time.Time) (float64, error) {
	forecast, err := c.ensureForecast()
	if err != nil {
		return 0, err
	}

	entry, found := nearestTimeStep(forecast, t)
	if !found {
		return 0, &ValidationError{Field: "time", Message: fmt.Sprintf("no forecast entry near %s", t)}
	}
	if entry.Data == nil || entry.Data.Instant == nil || entry.Data.Instant.Details == nil ||
		entry.Data.Instant.Details.CloudAreaFraction == nil {
		return 0, &ValidationError{Field: "cloud_area_fraction", Message: "forecast entry carries no cloud coverage"}
	}
	return *entry.Data.Instant.Details.CloudAreaFraction, nil
}

func (c *ForecastCache) ensureForecast() (*METJSONForecast, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.forecast != nil && (c.maxAge <= 0 || time.Since(c.fetched) < c.maxAge) {
		return c.forecast, nil
	}

	forecast, err := c.client.GetCompact(QueryParams{Location: c.location})
	if err != nil {
		return nil, &NetworkError{Operation: "GetCompact", Err: err}
	}
	c.forecast = forecast
	c.fetched = time.Now()
	return c.forecast, nil
}

// nearestTimeStep returns the timeseries entry whose Time is closest to t.
func nearestTimeStep(forecast *METJSONForecast, t time.Time) (ForecastTimeStep, bool) {
	if forecast.Properties == nil || len(forecast.Properties.Timeseries) == 0 {
		return ForecastTimeStep{}, false
	}
	best := forecast.Properties.Timeseries[0]
	bestDiff := abs(t.Sub(best.Time))
	for _, step := range forecast.Properties.Timeseries[1:] {
		if d := abs(t.Sub(step.Time)); d < bestDiff {
			best, bestDiff = step, d
		}
	}
	return best, true
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
