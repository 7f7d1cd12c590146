package ratesource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
)

// ratesPayload is the wire shape of the external rate API:
// a base currency and a mapping of currency codes to rates.
type ratesPayload struct {
	Base  string                     `json:"base"`
	Rates map[string]json.RawMessage `json:"rates"`
}

// HTTPRateSource fetches quotes from an external rate API over HTTP.
// Every request carries a bounded timeout; a slow source surfaces as
// apperrors.ErrRateSourceUnavailable, never as an indefinite hang.
type HTTPRateSource struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// NewHTTPRateSource creates a rate source client for the given endpoint.
func NewHTTPRateSource(baseURL string, timeout time.Duration) *HTTPRateSource {
	return &HTTPRateSource{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// FetchRates requests current quotes for the base currency. Only positive
// numeric entries are returned; a payload without a usable rates mapping fails
// with apperrors.ErrInvalidRateResponse.
func (s *HTTPRateSource) FetchRates(ctx context.Context, baseCurrencyCode string) (map[string]decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	reqURL := fmt.Sprintf("%s?base=%s", s.baseURL, url.QueryEscape(baseCurrencyCode))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: building request: %v", apperrors.ErrRateSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrRateSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", apperrors.ErrRateSourceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", apperrors.ErrRateSourceUnavailable, resp.StatusCode, string(body))
	}

	var payload ratesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidRateResponse, err)
	}
	if len(payload.Rates) == 0 {
		return nil, fmt.Errorf("%w: missing rates mapping", apperrors.ErrInvalidRateResponse)
	}

	rates := make(map[string]decimal.Decimal, len(payload.Rates))
	for code, raw := range payload.Rates {
		// Decode through the raw JSON text so the decimal keeps the source's
		// exact digits instead of round-tripping through float64.
		var rate decimal.Decimal
		if err := json.Unmarshal(raw, &rate); err != nil {
			return nil, fmt.Errorf("%w: rate for %s is not numeric", apperrors.ErrInvalidRateResponse, code)
		}
		if rate.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: rate for %s is not positive", apperrors.ErrInvalidRateResponse, code)
		}
		rates[code] = rate
	}
	return rates, nil
}
