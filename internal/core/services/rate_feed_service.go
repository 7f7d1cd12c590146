package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	portsrate "github.com/stablelend/micro_lending_app/internal/core/ports/ratesource"
	portsrepo "github.com/stablelend/micro_lending_app/internal/core/ports/repositories"
)

// analyticsScale is the decimal scale for derived analytics values (mean,
// volatility). Stored rates keep their source precision untouched.
const analyticsScale = 12

// RateFeedService maintains the append-only exchange rate history: pulls from
// the external source, accepts manual overrides, and answers freshness-bounded
// reads for loan admission.
type RateFeedService struct {
	BaseService
	rateRepo portsrepo.ExchangeRateRepositoryFacade
	source   portsrate.RateSource
}

// NewRateFeedService creates a new RateFeedService.
func NewRateFeedService(rateRepo portsrepo.ExchangeRateRepositoryFacade, source portsrate.RateSource) *RateFeedService {
	return &RateFeedService{
		rateRepo: rateRepo,
		source:   source,
	}
}

// FetchAndStoreRate pulls the current quote for the pair from the external
// source and appends it with source=api. On any fetch or validation failure
// nothing is stored and the previous rate stays current.
func (s *RateFeedService) FetchAndStoreRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error) {
	baseCurrencyCode = strings.ToUpper(baseCurrencyCode)
	quoteCurrencyCode = strings.ToUpper(quoteCurrencyCode)

	rates, err := s.source.FetchRates(ctx, baseCurrencyCode)
	if err != nil {
		s.LogError(ctx, err, "rate fetch failed", "base", baseCurrencyCode)
		return nil, err
	}

	quote, ok := rates[quoteCurrencyCode]
	if !ok {
		return nil, fmt.Errorf("%w: no quote for %s", apperrors.ErrInvalidRateResponse, quoteCurrencyCode)
	}
	if quote.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: quote for %s is not positive", apperrors.ErrInvalidRateResponse, quoteCurrencyCode)
	}

	now := time.Now()
	rate := domain.ExchangeRate{
		ExchangeRateID:    uuid.NewString(),
		BaseCurrencyCode:  baseCurrencyCode,
		QuoteCurrencyCode: quoteCurrencyCode,
		Rate:              quote,
		Source:            domain.RateSourceAPI,
		Active:            true,
		Confidence:        decimal.NewFromInt(1),
		Spread:            decimal.Zero,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     "rate-feed",
			LastUpdatedAt: now,
			LastUpdatedBy: "rate-feed",
		},
	}

	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		return nil, fmt.Errorf("failed to store fetched rate: %w", err)
	}

	s.LogInfo(ctx, "stored fetched exchange rate",
		"base", baseCurrencyCode, "quote", quoteCurrencyCode, "rate", quote.String())
	return &rate, nil
}

// SetManualRate appends a manual override for the pair. Prior records are
// kept; the new record supersedes by recency.
func (s *RateFeedService) SetManualRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, rate decimal.Decimal, actor string) (*domain.ExchangeRate, error) {
	baseCurrencyCode = strings.ToUpper(baseCurrencyCode)
	quoteCurrencyCode = strings.ToUpper(quoteCurrencyCode)

	if rate.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: rate must be positive", apperrors.ErrInvalidRate)
	}
	if baseCurrencyCode == quoteCurrencyCode {
		return nil, fmt.Errorf("%w: base and quote currency codes cannot be the same", apperrors.ErrValidation)
	}

	now := time.Now()
	record := domain.ExchangeRate{
		ExchangeRateID:    uuid.NewString(),
		BaseCurrencyCode:  baseCurrencyCode,
		QuoteCurrencyCode: quoteCurrencyCode,
		Rate:              rate,
		Source:            domain.RateSourceManual,
		Active:            true,
		Confidence:        decimal.NewFromInt(1),
		Spread:            decimal.Zero,
		SetBy:             actor,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     actor,
			LastUpdatedAt: now,
			LastUpdatedBy: actor,
		},
	}

	if err := s.rateRepo.SaveExchangeRate(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store manual rate: %w", err)
	}

	s.LogInfo(ctx, "stored manual exchange rate",
		"base", baseCurrencyCode, "quote", quoteCurrencyCode, "rate", rate.String(), "set_by", actor)
	return &record, nil
}

// DeactivateRate soft-deactivates a bad quote so it is no longer "latest".
// History is never erased.
func (s *RateFeedService) DeactivateRate(ctx context.Context, rateID string, actor string) error {
	if err := s.rateRepo.DeactivateExchangeRate(ctx, rateID, actor, time.Now()); err != nil {
		return err
	}
	s.LogInfo(ctx, "deactivated exchange rate", "rate_id", rateID, "actor", actor)
	return nil
}

// LatestRate returns the most recent active rate for the pair.
func (s *RateFeedService) LatestRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error) {
	rate, err := s.rateRepo.FindLatestRate(ctx, baseCurrencyCode, quoteCurrencyCode)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s/%s", apperrors.ErrNoRateAvailable, baseCurrencyCode, quoteCurrencyCode)
		}
		return nil, fmt.Errorf("failed to get latest rate: %w", err)
	}
	return rate, nil
}

// LatestFreshRate is LatestRate with a staleness bound. A rate older than
// maxAge must not be used for loan admission, so it fails here rather than
// silently pricing with outdated data.
func (s *RateFeedService) LatestFreshRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, maxAge time.Duration) (*domain.ExchangeRate, error) {
	rate, err := s.LatestRate(ctx, baseCurrencyCode, quoteCurrencyCode)
	if err != nil {
		return nil, err
	}
	if age := rate.Age(time.Now()); age > maxAge {
		return nil, fmt.Errorf("%w: %s/%s is %s old, max age %s",
			apperrors.ErrRateStale, baseCurrencyCode, quoteCurrencyCode, age.Truncate(time.Second), maxAge)
	}
	return rate, nil
}

// RateHistory returns the active rate records for the pair since a time,
// newest first.
func (s *RateFeedService) RateHistory(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) ([]domain.ExchangeRate, error) {
	return s.rateRepo.ListRatesSince(ctx, baseCurrencyCode, quoteCurrencyCode, since)
}

// RateAnalytics summarizes the rate history since a time. Volatility is the
// population standard deviation, defined as zero for fewer than two samples.
func (s *RateFeedService) RateAnalytics(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) (*domain.RateAnalytics, error) {
	rates, err := s.rateRepo.ListRatesSince(ctx, baseCurrencyCode, quoteCurrencyCode, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates for analytics: %w", err)
	}

	analytics := &domain.RateAnalytics{
		BaseCurrencyCode:  strings.ToUpper(baseCurrencyCode),
		QuoteCurrencyCode: strings.ToUpper(quoteCurrencyCode),
		Count:             len(rates),
	}
	if len(rates) == 0 {
		return analytics, nil
	}

	// Rates arrive newest first.
	analytics.Latest = rates[0].Rate
	analytics.Min = rates[0].Rate
	analytics.Max = rates[0].Rate

	sum := decimal.Zero
	for _, r := range rates {
		if r.Rate.LessThan(analytics.Min) {
			analytics.Min = r.Rate
		}
		if r.Rate.GreaterThan(analytics.Max) {
			analytics.Max = r.Rate
		}
		sum = sum.Add(r.Rate)
	}
	count := decimal.NewFromInt(int64(len(rates)))
	analytics.Mean = sum.DivRound(count, analyticsScale)

	if len(rates) < 2 {
		analytics.Volatility = decimal.Zero
		return analytics, nil
	}

	sumSquares := decimal.Zero
	for _, r := range rates {
		diff := r.Rate.Sub(analytics.Mean)
		sumSquares = sumSquares.Add(diff.Mul(diff))
	}
	variance := sumSquares.DivRound(count, 2*analyticsScale)
	analytics.Volatility = decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())).Round(analyticsScale)

	return analytics, nil
}
