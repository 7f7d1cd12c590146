package mapping

import (
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	"github.com/stablelend/micro_lending_app/internal/models"
)

// ToModelExchangeRate converts a domain ExchangeRate to a model ExchangeRate
func ToModelExchangeRate(d domain.ExchangeRate) models.ExchangeRate {
	return models.ExchangeRate{
		ExchangeRateID:    d.ExchangeRateID,
		BaseCurrencyCode:  d.BaseCurrencyCode,
		QuoteCurrencyCode: d.QuoteCurrencyCode,
		Rate:              d.Rate,
		Source:            string(d.Source),
		Active:            d.Active,
		Confidence:        d.Confidence,
		Spread:            d.Spread,
		SetBy:             d.SetBy,
		CreatedAt:         d.CreatedAt,
		CreatedBy:         d.CreatedBy,
		LastUpdatedAt:     d.LastUpdatedAt,
		LastUpdatedBy:     d.LastUpdatedBy,
	}
}

// ToDomainExchangeRate converts a model ExchangeRate to a domain ExchangeRate
func ToDomainExchangeRate(m models.ExchangeRate) domain.ExchangeRate {
	return domain.ExchangeRate{
		ExchangeRateID:    m.ExchangeRateID,
		BaseCurrencyCode:  m.BaseCurrencyCode,
		QuoteCurrencyCode: m.QuoteCurrencyCode,
		Rate:              m.Rate,
		Source:            domain.RateSource(m.Source),
		Active:            m.Active,
		Confidence:        m.Confidence,
		Spread:            m.Spread,
		SetBy:             m.SetBy,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
}
