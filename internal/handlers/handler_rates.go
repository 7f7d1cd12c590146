package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
	"github.com/stablelend/micro_lending_app/internal/dto"
	"github.com/stablelend/micro_lending_app/internal/middleware"
)

// defaultHistoryWindow is how far back history and analytics reads look when
// the caller does not pass an explicit "since".
const defaultHistoryWindow = 24 * time.Hour

// exchangeRateHandler handles HTTP requests related to the exchange rate feed.
type exchangeRateHandler struct {
	rateFeedService portssvc.RateFeedSvcFacade
}

func newExchangeRateHandler(rfs portssvc.RateFeedSvcFacade) *exchangeRateHandler {
	return &exchangeRateHandler{rateFeedService: rfs}
}

// registerExchangeRateRoutes registers routes related to exchange rates.
func registerExchangeRateRoutes(rg *gin.RouterGroup, rateFeedService portssvc.RateFeedSvcFacade) {
	h := newExchangeRateHandler(rateFeedService)

	exchangeRates := rg.Group("/exchange-rates")
	{
		exchangeRates.GET("/:base/:quote/latest", h.getLatestRate)
		exchangeRates.GET("/:base/:quote/history", h.getRateHistory)
		exchangeRates.GET("/:base/:quote/analytics", h.getRateAnalytics)
		exchangeRates.POST("", h.setManualRate)
		exchangeRates.DELETE("/:rateID", h.deactivateRate)
	}
}

func pairParams(c *gin.Context) (string, string, error) {
	base := c.Param("base")
	quote := c.Param("quote")
	if len(base) != 3 || len(quote) != 3 {
		return "", "", fmt.Errorf("%w: currency codes must be 3 letters", apperrors.ErrValidation)
	}
	return base, quote, nil
}

func sinceParam(c *gin.Context) (time.Time, error) {
	raw := c.Query("since")
	if raw == "" {
		return time.Now().Add(-defaultHistoryWindow), nil
	}
	since, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: since must be RFC3339", apperrors.ErrValidation)
	}
	return since, nil
}

// getLatestRate returns the most recent active rate for the pair.
func (h *exchangeRateHandler) getLatestRate(c *gin.Context) {
	base, quote, err := pairParams(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rate, err := h.rateFeedService.LatestRate(c.Request.Context(), base, quote)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToExchangeRateResponse(rate))
}

// getRateHistory returns the active rate records since a time, newest first.
func (h *exchangeRateHandler) getRateHistory(c *gin.Context) {
	base, quote, err := pairParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	since, err := sinceParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	rates, err := h.rateFeedService.RateHistory(c.Request.Context(), base, quote, since)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListExchangeRateResponse(rates))
}

// getRateAnalytics summarizes the rate history since a time.
func (h *exchangeRateHandler) getRateAnalytics(c *gin.Context) {
	base, quote, err := pairParams(c)
	if err != nil {
		respondError(c, err)
		return
	}
	since, err := sinceParam(c)
	if err != nil {
		respondError(c, err)
		return
	}

	analytics, err := h.rateFeedService.RateAnalytics(c.Request.Context(), base, quote, since)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRateAnalyticsResponse(analytics, since))
}

// setManualRate appends a manual override rate.
func (h *exchangeRateHandler) setManualRate(c *gin.Context) {
	var req dto.SetManualRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	actor, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	rate, err := h.rateFeedService.SetManualRate(c.Request.Context(), req.BaseCurrencyCode, req.QuoteCurrencyCode, req.Rate, actor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToExchangeRateResponse(rate))
}

// deactivateRate soft-deactivates a bad quote.
func (h *exchangeRateHandler) deactivateRate(c *gin.Context) {
	actor, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	if err := h.rateFeedService.DeactivateRate(c.Request.Context(), c.Param("rateID"), actor); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
