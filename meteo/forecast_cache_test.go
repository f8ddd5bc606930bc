package meteo

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func floatPtr(f float64) *float64 { return &f }

func TestForecastCacheCloudCoverageAtNearestEntry(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	forecast := METJSONForecast{
		Type: "Feature",
		Properties: &Forecast{
			Timeseries: []ForecastTimeStep{
				{Time: base, Data: &ForecastTimeStepData{Instant: &ForecastInstantData{
					Details: &ForecastTimeInstant{CloudAreaFraction: floatPtr(20)},
				}}},
				{Time: base.Add(time.Hour), Data: &ForecastTimeStepData{Instant: &ForecastInstantData{
					Details: &ForecastTimeInstant{CloudAreaFraction: floatPtr(80)},
				}}},
			},
		},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(forecast)
	}))
	defer server.Close()

	client := NewClient("gridplan-test/1.0")
	client.SetBaseURL(server.URL)

	cache := NewForecastCache(client, Location{Latitude: 56.95, Longitude: 24.1}, 0)

	cc, err := cache.CloudCoverageAt(base.Add(10 * time.Minute))
	if err != nil {
		t.Fatalf("CloudCoverageAt: %v", err)
	}
	if cc != 20 {
		t.Errorf("CloudCoverageAt() = %v, want 20 (nearest to first entry)", cc)
	}

	cc, err = cache.CloudCoverageAt(base.Add(55 * time.Minute))
	if err != nil {
		t.Fatalf("CloudCoverageAt: %v", err)
	}
	if cc != 80 {
		t.Errorf("CloudCoverageAt() = %v, want 80 (nearest to second entry)", cc)
	}
}

func TestForecastCacheReusesFetchWithinMaxAge(t *testing.T) {
	base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		forecast := METJSONForecast{
			Properties: &Forecast{Timeseries: []ForecastTimeStep{
				{Time: base, Data: &ForecastTimeStepData{Instant: &ForecastInstantData{
					Details: &ForecastTimeInstant{CloudAreaFraction: floatPtr(50)},
				}}},
			}},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(forecast)
	}))
	defer server.Close()

	client := NewClient("gridplan-test/1.0")
	client.SetBaseURL(server.URL)
	cache := NewForecastCache(client, Location{Latitude: 56.95, Longitude: 24.1}, time.Hour)

	if _, err := cache.CloudCoverageAt(base); err != nil {
		t.Fatalf("CloudCoverageAt: %v", err)
	}
	if _, err := cache.CloudCoverageAt(base); err != nil {
		t.Fatalf("CloudCoverageAt: %v", err)
	}
	if requests != 1 {
		t.Errorf("expected a single fetch within maxAge, got %d requests", requests)
	}
}
