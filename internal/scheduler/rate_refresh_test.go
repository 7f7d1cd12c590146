package scheduler_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	"github.com/stablelend/micro_lending_app/internal/scheduler"
)

// stubRateFeed counts fetches and can be told to fail.
type stubRateFeed struct {
	mu      sync.Mutex
	fetches int
	err     error
}

func (s *stubRateFeed) FetchAndStoreRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ExchangeRate{
		BaseCurrencyCode:  baseCurrencyCode,
		QuoteCurrencyCode: quoteCurrencyCode,
		Rate:              decimal.RequireFromString("0.0025"),
		Source:            domain.RateSourceAPI,
		Active:            true,
	}, nil
}

func (s *stubRateFeed) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *stubRateFeed) SetManualRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, rate decimal.Decimal, actor string) (*domain.ExchangeRate, error) {
	return nil, nil
}

func (s *stubRateFeed) DeactivateRate(ctx context.Context, rateID string, actor string) error {
	return nil
}

func (s *stubRateFeed) LatestRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error) {
	return nil, apperrors.ErrNoRateAvailable
}

func (s *stubRateFeed) LatestFreshRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, maxAge time.Duration) (*domain.ExchangeRate, error) {
	return nil, apperrors.ErrNoRateAvailable
}

func (s *stubRateFeed) RateHistory(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) ([]domain.ExchangeRate, error) {
	return nil, nil
}

func (s *stubRateFeed) RateAnalytics(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) (*domain.RateAnalytics, error) {
	return nil, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRateRefresher_RefreshOnce(t *testing.T) {
	feed := &stubRateFeed{}
	refresher := scheduler.NewRateRefresher(feed, "GLD", "IDR", time.Hour, discardLogger())

	refresher.RefreshOnce(context.Background())

	assert.Equal(t, 1, feed.fetchCount())
}

func TestRateRefresher_StartFetchesImmediatelyAndTicks(t *testing.T) {
	feed := &stubRateFeed{}
	refresher := scheduler.NewRateRefresher(feed, "GLD", "IDR", 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresher.Start(ctx)

	assert.Eventually(t, func() bool {
		return feed.fetchCount() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRateRefresher_SurvivesSourceFailures(t *testing.T) {
	feed := &stubRateFeed{err: apperrors.ErrRateSourceUnavailable}
	refresher := scheduler.NewRateRefresher(feed, "GLD", "IDR", 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	refresher.Start(ctx)

	// The loop keeps ticking even though every fetch fails.
	assert.Eventually(t, func() bool {
		return feed.fetchCount() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestRateRefresher_StopsOnCancel(t *testing.T) {
	feed := &stubRateFeed{}
	refresher := scheduler.NewRateRefresher(feed, "GLD", "IDR", 10*time.Millisecond, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	refresher.Start(ctx)

	assert.Eventually(t, func() bool { return feed.fetchCount() >= 1 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(30 * time.Millisecond)
	settled := feed.fetchCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, feed.fetchCount())
}
