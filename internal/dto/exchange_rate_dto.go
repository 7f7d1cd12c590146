package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
)

// SetManualRateRequest defines the structure for inserting a manual exchange rate.
type SetManualRateRequest struct {
	BaseCurrencyCode  string          `json:"baseCurrencyCode" binding:"required,len=3,uppercase"`
	QuoteCurrencyCode string          `json:"quoteCurrencyCode" binding:"required,len=3,uppercase"`
	Rate              decimal.Decimal `json:"rate" binding:"required"` // positivity enforced in the service
}

// ExchangeRateResponse defines the structure for API responses containing exchange rate details.
type ExchangeRateResponse struct {
	ExchangeRateID    string          `json:"exchangeRateID"`
	BaseCurrencyCode  string          `json:"baseCurrencyCode"`
	QuoteCurrencyCode string          `json:"quoteCurrencyCode"`
	Rate              decimal.Decimal `json:"rate"`
	Source            string          `json:"source"`
	Active            bool            `json:"active"`
	SetBy             string          `json:"setBy,omitempty"`
	CreatedAt         time.Time       `json:"createdAt"`
}

// ToExchangeRateResponse converts a domain.ExchangeRate to ExchangeRateResponse DTO
func ToExchangeRateResponse(rate *domain.ExchangeRate) ExchangeRateResponse {
	return ExchangeRateResponse{
		ExchangeRateID:    rate.ExchangeRateID,
		BaseCurrencyCode:  rate.BaseCurrencyCode,
		QuoteCurrencyCode: rate.QuoteCurrencyCode,
		Rate:              rate.Rate,
		Source:            string(rate.Source),
		Active:            rate.Active,
		SetBy:             rate.SetBy,
		CreatedAt:         rate.CreatedAt,
	}
}

// ToListExchangeRateResponse converts a slice of domain.ExchangeRate to response DTOs.
func ToListExchangeRateResponse(rates []domain.ExchangeRate) []ExchangeRateResponse {
	responses := make([]ExchangeRateResponse, len(rates))
	for i := range rates {
		responses[i] = ToExchangeRateResponse(&rates[i])
	}
	return responses
}

// RateAnalyticsResponse carries rate history statistics for a currency pair.
type RateAnalyticsResponse struct {
	BaseCurrencyCode  string          `json:"baseCurrencyCode"`
	QuoteCurrencyCode string          `json:"quoteCurrencyCode"`
	Since             time.Time       `json:"since"`
	Count             int             `json:"count"`
	Latest            decimal.Decimal `json:"latest"`
	Min               decimal.Decimal `json:"min"`
	Max               decimal.Decimal `json:"max"`
	Mean              decimal.Decimal `json:"mean"`
	Volatility        decimal.Decimal `json:"volatility"`
}

// ToRateAnalyticsResponse converts domain analytics to the response DTO.
func ToRateAnalyticsResponse(a *domain.RateAnalytics, since time.Time) RateAnalyticsResponse {
	return RateAnalyticsResponse{
		BaseCurrencyCode:  a.BaseCurrencyCode,
		QuoteCurrencyCode: a.QuoteCurrencyCode,
		Since:             since,
		Count:             a.Count,
		Latest:            a.Latest,
		Min:               a.Min,
		Max:               a.Max,
		Mean:              a.Mean,
		Volatility:        a.Volatility,
	}
}
