package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is the database representation of a rate record.
type ExchangeRate struct {
	ExchangeRateID    string          `db:"exchange_rate_id"`
	BaseCurrencyCode  string          `db:"base_currency_code"`
	QuoteCurrencyCode string          `db:"quote_currency_code"`
	Rate              decimal.Decimal `db:"rate"`
	Source            string          `db:"source"`
	Active            bool            `db:"active"`
	Confidence        decimal.Decimal `db:"confidence"`
	Spread            decimal.Decimal `db:"spread"`
	SetBy             string          `db:"set_by"`
	CreatedAt         time.Time       `db:"created_at"`
	CreatedBy         string          `db:"created_by"`
	LastUpdatedAt     time.Time       `db:"last_updated_at"`
	LastUpdatedBy     string          `db:"last_updated_by"`
}
