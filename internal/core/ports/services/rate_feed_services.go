package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
)

// RateFeedReaderSvc defines read operations over the exchange rate feed.
type RateFeedReaderSvc interface {
	// LatestRate returns the most recent active rate for the pair, or
	// apperrors.ErrNoRateAvailable if none exists.
	LatestRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error)

	// LatestFreshRate is LatestRate with a staleness bound: a rate older than
	// maxAge fails with apperrors.ErrRateStale. Admission decisions use this,
	// display reads use LatestRate.
	LatestFreshRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, maxAge time.Duration) (*domain.ExchangeRate, error)

	// RateHistory returns the active rate records for the pair since a time,
	// newest first.
	RateHistory(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) ([]domain.ExchangeRate, error)

	// RateAnalytics summarizes the rate history since a time.
	RateAnalytics(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) (*domain.RateAnalytics, error)
}

// RateFeedWriterSvc defines operations that append to the rate history.
type RateFeedWriterSvc interface {
	// FetchAndStoreRate pulls a quote from the external source and persists it
	// with source=api. On any fetch or validation failure nothing is stored.
	FetchAndStoreRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error)

	// SetManualRate appends a manual override rate. Prior records are kept;
	// "latest" naturally supersedes.
	SetManualRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, rate decimal.Decimal, actor string) (*domain.ExchangeRate, error)

	// DeactivateRate soft-deactivates a bad quote so it is no longer "latest".
	DeactivateRate(ctx context.Context, rateID string, actor string) error
}

// RateFeedSvcFacade combines all rate feed service interfaces.
type RateFeedSvcFacade interface {
	RateFeedReaderSvc
	RateFeedWriterSvc
}
