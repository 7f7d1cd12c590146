package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateSource identifies where an exchange rate record came from.
type RateSource string

const (
	RateSourceAPI     RateSource = "api"
	RateSourceManual  RateSource = "manual"
	RateSourcePartner RateSource = "partner"
)

// ExchangeRate is a single append-only quote for a currency pair. Records are
// never mutated or hard-deleted after creation; a bad quote is excluded from
// "latest" by flipping Active off.
type ExchangeRate struct {
	ExchangeRateID    string          `json:"exchangeRateID"`
	BaseCurrencyCode  string          `json:"baseCurrencyCode"`  // collateral currency
	QuoteCurrencyCode string          `json:"quoteCurrencyCode"` // loan currency
	Rate              decimal.Decimal `json:"rate"`              // always > 0
	Source            RateSource      `json:"source"`
	Active            bool            `json:"active"`
	Confidence        decimal.Decimal `json:"confidence"`
	Spread            decimal.Decimal `json:"spread"`
	SetBy             string          `json:"setBy,omitempty"` // actor identity for manual rates
	AuditFields
}

// Age reports how old the quote is relative to now.
func (r ExchangeRate) Age(now time.Time) time.Duration {
	return now.Sub(r.CreatedAt)
}

// RateAnalytics summarizes the active rate history of a pair since some time.
type RateAnalytics struct {
	BaseCurrencyCode  string          `json:"baseCurrencyCode"`
	QuoteCurrencyCode string          `json:"quoteCurrencyCode"`
	Count             int             `json:"count"`
	Latest            decimal.Decimal `json:"latest"`
	Min               decimal.Decimal `json:"min"`
	Max               decimal.Decimal `json:"max"`
	Mean              decimal.Decimal `json:"mean"`
	// Volatility is the population standard deviation of the sampled rates.
	// Defined as zero for fewer than two samples.
	Volatility decimal.Decimal `json:"volatility"`
}
