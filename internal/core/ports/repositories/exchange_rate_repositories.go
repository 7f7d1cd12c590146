package repositories

import (
	"context"
	"time"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
)

// ExchangeRateReader defines read operations for exchange rate data
type ExchangeRateReader interface {
	// FindLatestRate retrieves the most recent active rate for a currency pair.
	FindLatestRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error)

	// ListRatesSince retrieves all active rates for a pair created at or after
	// the given time, newest first.
	ListRatesSince(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) ([]domain.ExchangeRate, error)
}

// ExchangeRateWriter defines write operations for exchange rate data.
// Rate records are append-only: there is no update, only insert and
// soft-deactivation.
type ExchangeRateWriter interface {
	// SaveExchangeRate persists a new exchange rate record.
	SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error

	// DeactivateExchangeRate excludes a rate record from "latest" without
	// erasing history.
	DeactivateExchangeRate(ctx context.Context, rateID string, actor string, now time.Time) error
}

// ExchangeRateRepositoryFacade combines all exchange rate-related repository interfaces
// This is a facade for clients that need access to all operations
type ExchangeRateRepositoryFacade interface {
	ExchangeRateReader
	ExchangeRateWriter
}
