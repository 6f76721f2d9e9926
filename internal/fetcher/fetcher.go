package fetcher

import (
	"context"

	"futureswatch/internal/market"
)

// QuoteSource retrieves the latest quotes for a list of vendor symbols.
// Symbols the vendor did not answer for are absent from the map.
type QuoteSource interface {
	Fetch(ctx context.Context, symbols []string) (map[string]market.QuoteSample, error)
}
