package ratesource

import (
	"context"

	"github.com/shopspring/decimal"
)

// RateSource fetches current quotes for a base currency from an external API.
// The returned map is keyed by quote currency code; only the entries the
// caller asks about are trusted, anything else in the payload is ignored.
type RateSource interface {
	FetchRates(ctx context.Context, baseCurrencyCode string) (map[string]decimal.Decimal, error)
}
