package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	"github.com/stablelend/micro_lending_app/internal/models"
	"github.com/stablelend/micro_lending_app/internal/utils/mapping"
)

const exchangeRateColumns = `
	exchange_rate_id, base_currency_code, quote_currency_code, rate, source,
	active, confidence, spread, set_by,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxExchangeRateRepository implements the exchange rate repository facade
// using pgxpool. The table is append-only: inserts and soft-deactivation only.
type PgxExchangeRateRepository struct {
	BaseRepository
}

// NewExchangeRateRepository creates a new PgxExchangeRateRepository.
func NewExchangeRateRepository(db *pgxpool.Pool) *PgxExchangeRateRepository {
	return &PgxExchangeRateRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

// SaveExchangeRate inserts a new exchange rate record.
func (r *PgxExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	modelRate := mapping.ToModelExchangeRate(rate)
	modelRate.BaseCurrencyCode = strings.ToUpper(modelRate.BaseCurrencyCode)
	modelRate.QuoteCurrencyCode = strings.ToUpper(modelRate.QuoteCurrencyCode)

	query := `
		INSERT INTO exchange_rates (` + exchangeRateColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.Pool.Exec(ctx, query,
		modelRate.ExchangeRateID, modelRate.BaseCurrencyCode, modelRate.QuoteCurrencyCode,
		modelRate.Rate, modelRate.Source, modelRate.Active, modelRate.Confidence,
		modelRate.Spread, modelRate.SetBy,
		modelRate.CreatedAt, modelRate.CreatedBy, modelRate.LastUpdatedAt, modelRate.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("error inserting exchange rate: %w", err)
	}
	return nil
}

// FindLatestRate retrieves the most recent active rate for a currency pair.
func (r *PgxExchangeRateRepository) FindLatestRate(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string) (*domain.ExchangeRate, error) {
	query := `
		SELECT ` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE base_currency_code = $1 AND quote_currency_code = $2 AND active = TRUE
		ORDER BY created_at DESC
		LIMIT 1`

	var modelRate models.ExchangeRate
	err := r.Pool.QueryRow(ctx, query, strings.ToUpper(baseCurrencyCode), strings.ToUpper(quoteCurrencyCode)).Scan(
		&modelRate.ExchangeRateID, &modelRate.BaseCurrencyCode, &modelRate.QuoteCurrencyCode,
		&modelRate.Rate, &modelRate.Source, &modelRate.Active, &modelRate.Confidence,
		&modelRate.Spread, &modelRate.SetBy,
		&modelRate.CreatedAt, &modelRate.CreatedBy, &modelRate.LastUpdatedAt, &modelRate.LastUpdatedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error finding latest exchange rate: %w", err)
	}

	domainRate := mapping.ToDomainExchangeRate(modelRate)
	return &domainRate, nil
}

// ListRatesSince retrieves all active rates for a pair created at or after the
// given time, newest first.
func (r *PgxExchangeRateRepository) ListRatesSince(ctx context.Context, baseCurrencyCode, quoteCurrencyCode string, since time.Time) ([]domain.ExchangeRate, error) {
	query := `
		SELECT ` + exchangeRateColumns + `
		FROM exchange_rates
		WHERE base_currency_code = $1 AND quote_currency_code = $2 AND active = TRUE
		  AND created_at >= $3
		ORDER BY created_at DESC`

	rows, err := r.Pool.Query(ctx, query, strings.ToUpper(baseCurrencyCode), strings.ToUpper(quoteCurrencyCode), since)
	if err != nil {
		return nil, fmt.Errorf("error listing exchange rates: %w", err)
	}
	defer rows.Close()

	var rates []domain.ExchangeRate
	for rows.Next() {
		var modelRate models.ExchangeRate
		err := rows.Scan(
			&modelRate.ExchangeRateID, &modelRate.BaseCurrencyCode, &modelRate.QuoteCurrencyCode,
			&modelRate.Rate, &modelRate.Source, &modelRate.Active, &modelRate.Confidence,
			&modelRate.Spread, &modelRate.SetBy,
			&modelRate.CreatedAt, &modelRate.CreatedBy, &modelRate.LastUpdatedAt, &modelRate.LastUpdatedBy,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning exchange rate: %w", err)
		}
		rates = append(rates, mapping.ToDomainExchangeRate(modelRate))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exchange rates: %w", err)
	}

	return rates, nil
}

// DeactivateExchangeRate flips the active flag off so the record is excluded
// from "latest" without erasing history.
func (r *PgxExchangeRateRepository) DeactivateExchangeRate(ctx context.Context, rateID string, actor string, now time.Time) error {
	query := `
		UPDATE exchange_rates
		SET active = FALSE, last_updated_at = $2, last_updated_by = $3
		WHERE exchange_rate_id = $1`

	tag, err := r.Pool.Exec(ctx, query, rateID, now, actor)
	if err != nil {
		return fmt.Errorf("error deactivating exchange rate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
