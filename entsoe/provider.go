package entsoe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devskill-org/gridplan/units"
)

// PriceProvider adapts the ENTSO-E day-ahead document to a
// prognosis.Provider[units.EuroPerWh]: it fetches the published document for
// "today" (and tomorrow, once the afternoon publication window has passed)
// on first use and serves every subsequent Sample from the cached document,
// since ENTSO-E publishes a document once per day rather than per query.
type PriceProvider struct {
	token     string
	urlFormat string
	location  *time.Location

	mu  sync.Mutex
	doc *PublicationMarketDocument
}

// NewPriceProvider builds a PriceProvider against the ENTSO-E transparency
// platform. location is the market's publication timezone (spec.md's
// "published at 00:00" note), e.g. CET.
func NewPriceProvider(token, urlFormat string, location *time.Location) *PriceProvider {
	return &PriceProvider{token: token, urlFormat: urlFormat, location: location}
}

// Sample returns the day-ahead price in effect at the start of [start, end),
// converted from the published EUR/MWh to EuroPerWh.
func (p *PriceProvider) Sample(ctx context.Context, start, end time.Time) (units.EuroPerWh, error) {
	doc, err := p.ensureDocument(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetching ENTSO-E day-ahead prices: %w", err)
	}

	eurPerMWh, found := doc.LookupPriceByTime(start)
	if !found {
		return 0, fmt.Errorf("no ENTSO-E day-ahead price published for %s", start.Format(time.RFC3339))
	}
	return units.EuroPerWh(eurPerMWh / 1_000_000), nil
}

func (p *PriceProvider) ensureDocument(ctx context.Context) (*PublicationMarketDocument, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc != nil {
		return p.doc, nil
	}
	doc, err := DownloadPublicationMarketData(ctx, p.token, p.urlFormat, p.location)
	if err != nil {
		return nil, err
	}
	p.doc = doc
	return p.doc, nil
}
