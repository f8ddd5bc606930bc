package entsoe

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestPriceProviderSampleConvertsToEuroPerWh(t *testing.T) {
	doc, err := DecodeEnergyPricesXML(strings.NewReader(sampleXMLResponse))
	if err != nil {
		t.Fatalf("DecodeEnergyPricesXML: %v", err)
	}

	p := &PriceProvider{doc: doc}

	start := doc.TimeSeries[0].Period.TimeInterval.Start
	price, err := p.Sample(context.Background(), start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("Sample: %v", err)
	}

	eurPerMWh, found := doc.LookupPriceByTime(start)
	if !found {
		t.Fatalf("fixture document has no price at %s", start)
	}
	want := eurPerMWh / 1_000_000
	if float64(price) != want {
		t.Errorf("Sample() = %v, want %v", price, want)
	}
}

func TestPriceProviderSampleErrorsOutsideDocument(t *testing.T) {
	doc, err := DecodeEnergyPricesXML(strings.NewReader(sampleXMLResponse))
	if err != nil {
		t.Fatalf("DecodeEnergyPricesXML: %v", err)
	}
	p := &PriceProvider{doc: doc}

	farFuture := doc.TimeSeries[0].Period.TimeInterval.End.Add(365 * 24 * time.Hour)
	if _, err := p.Sample(context.Background(), farFuture, farFuture.Add(time.Hour)); err == nil {
		t.Errorf("expected an error for a time outside the published document")
	}
}
