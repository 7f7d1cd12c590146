package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
)

// RateRefresher periodically pulls the exchange rate for the configured pair
// so admission decisions always have a fresh quote to work with. A failed
// refresh only logs; the previous rate stays current until the next tick.
type RateRefresher struct {
	rateFeed          portssvc.RateFeedSvcFacade
	baseCurrencyCode  string
	quoteCurrencyCode string
	interval          time.Duration
	logger            *slog.Logger
}

// NewRateRefresher creates a refresher for a single currency pair.
func NewRateRefresher(rateFeed portssvc.RateFeedSvcFacade, baseCurrencyCode, quoteCurrencyCode string, interval time.Duration, logger *slog.Logger) *RateRefresher {
	return &RateRefresher{
		rateFeed:          rateFeed,
		baseCurrencyCode:  baseCurrencyCode,
		quoteCurrencyCode: quoteCurrencyCode,
		interval:          interval,
		logger:            logger,
	}
}

// Start launches the refresh loop in its own goroutine and returns. The loop
// stops when ctx is cancelled. The first refresh happens immediately so a
// fresh deployment is not stuck rateless until the first tick.
func (r *RateRefresher) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *RateRefresher) run(ctx context.Context) {
	r.logger.Info("rate refresher started",
		slog.String("base", r.baseCurrencyCode),
		slog.String("quote", r.quoteCurrencyCode),
		slog.Duration("interval", r.interval))

	r.RefreshOnce(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("rate refresher stopped")
			return
		case <-ticker.C:
			r.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce performs a single fetch-and-store. Failures are logged and
// swallowed: the loop must survive a flaky source.
func (r *RateRefresher) RefreshOnce(ctx context.Context) {
	rate, err := r.rateFeed.FetchAndStoreRate(ctx, r.baseCurrencyCode, r.quoteCurrencyCode)
	if err != nil {
		level := slog.LevelError
		if errors.Is(err, apperrors.ErrRateSourceUnavailable) {
			// Transient outages are routine; keep them below the alert level.
			level = slog.LevelWarn
		}
		r.logger.Log(ctx, level, "rate refresh failed",
			slog.String("base", r.baseCurrencyCode),
			slog.String("quote", r.quoteCurrencyCode),
			slog.String("error", err.Error()))
		return
	}
	r.logger.Debug("rate refreshed",
		slog.String("base", r.baseCurrencyCode),
		slog.String("quote", r.quoteCurrencyCode),
		slog.String("rate", rate.Rate.String()))
}
