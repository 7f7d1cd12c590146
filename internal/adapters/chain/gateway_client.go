package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	portschain "github.com/stablelend/micro_lending_app/internal/core/ports/chain"
)

// GatewayClient talks to the custody gateway fronting the collateral
// contract. The gateway exposes the contract's reads and mutations as a JSON
// API; a revert is reported as an error status and surfaces here as
// apperrors.ErrContractCallFailed.
//
// Every call carries a bounded timeout. A timed-out mutation is ambiguous
// (it may have been broadcast); the orchestrator resolves ambiguity by
// re-reading account state, never by retrying the mutation.
type GatewayClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	timeout time.Duration
}

// NewGatewayClient creates a contract gateway client.
func NewGatewayClient(baseURL, apiKey string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

var _ portschain.CollateralContract = (*GatewayClient)(nil)

type accountPayload struct {
	UserID        string          `json:"userId"`
	Balance       decimal.Decimal `json:"balance"`
	Debt          decimal.Decimal `json:"debt"`
	TotalBorrowed decimal.Decimal `json:"totalBorrowed"`
	TotalRepaid   decimal.Decimal `json:"totalRepaid"`
	Active        bool            `json:"active"`
}

type mutationPayload struct {
	ConfirmationRef string `json:"confirmationRef"`
	LoanID          string `json:"loanId,omitempty"`
}

type amountPayload struct {
	Amount decimal.Decimal `json:"amount"`
}

// AccountSnapshot reads the user's full on-chain position in one call.
func (g *GatewayClient) AccountSnapshot(ctx context.Context, userID string) (*domain.CollateralAccount, error) {
	var payload accountPayload
	if err := g.call(ctx, http.MethodGet, "/v1/accounts/"+url.PathEscape(userID), nil, &payload); err != nil {
		return nil, err
	}
	return &domain.CollateralAccount{
		UserID:        userID,
		Balance:       payload.Balance,
		Debt:          payload.Debt,
		TotalBorrowed: payload.TotalBorrowed,
		TotalRepaid:   payload.TotalRepaid,
		Active:        payload.Active,
	}, nil
}

// WalletBalance reads the user's off-chain-asset wallet balance.
func (g *GatewayClient) WalletBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var payload amountPayload
	if err := g.call(ctx, http.MethodGet, "/v1/wallets/"+url.PathEscape(userID)+"/balance", nil, &payload); err != nil {
		return decimal.Zero, err
	}
	return payload.Amount, nil
}

// IsTransactionConfirmed reports whether a transaction reference is confirmed.
func (g *GatewayClient) IsTransactionConfirmed(ctx context.Context, txRef string) (bool, error) {
	var payload struct {
		Confirmed bool `json:"confirmed"`
	}
	if err := g.call(ctx, http.MethodGet, "/v1/transactions/"+url.PathEscape(txRef), nil, &payload); err != nil {
		return false, err
	}
	return payload.Confirmed, nil
}

// Deposit moves amount from the user's wallet into the contract.
func (g *GatewayClient) Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*portschain.MutationResult, error) {
	body := map[string]interface{}{"amount": amount}
	var payload mutationPayload
	if err := g.call(ctx, http.MethodPost, "/v1/accounts/"+url.PathEscape(userID)+"/deposit", body, &payload); err != nil {
		return nil, err
	}
	return &portschain.MutationResult{ConfirmationRef: payload.ConfirmationRef}, nil
}

// Withdraw releases collateral back to the user's wallet.
func (g *GatewayClient) Withdraw(ctx context.Context, userID string, amount, rate decimal.Decimal) (*portschain.MutationResult, error) {
	body := map[string]interface{}{"amount": amount, "rate": rate}
	var payload mutationPayload
	if err := g.call(ctx, http.MethodPost, "/v1/accounts/"+url.PathEscape(userID)+"/withdraw", body, &payload); err != nil {
		return nil, err
	}
	return &portschain.MutationResult{ConfirmationRef: payload.ConfirmationRef}, nil
}

// RequestLoan opens a loan position and returns the contract-assigned loan id.
func (g *GatewayClient) RequestLoan(ctx context.Context, userID string, amount, rate decimal.Decimal) (*portschain.LoanResult, error) {
	body := map[string]interface{}{"amount": amount, "rate": rate}
	var payload mutationPayload
	if err := g.call(ctx, http.MethodPost, "/v1/accounts/"+url.PathEscape(userID)+"/loans", body, &payload); err != nil {
		return nil, err
	}
	return &portschain.LoanResult{ConfirmationRef: payload.ConfirmationRef, ChainLoanID: payload.LoanID}, nil
}

// MaxBorrowable asks the contract for its own borrow-limit computation.
func (g *GatewayClient) MaxBorrowable(ctx context.Context, balance, rate decimal.Decimal) (decimal.Decimal, error) {
	path := fmt.Sprintf("/v1/compute/max-borrowable?balance=%s&rate=%s", balance, rate)
	var payload amountPayload
	if err := g.call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return decimal.Zero, err
	}
	return payload.Amount, nil
}

// RequiredCollateral asks the contract for its own collateral-requirement computation.
func (g *GatewayClient) RequiredCollateral(ctx context.Context, amount, rate decimal.Decimal) (decimal.Decimal, error) {
	path := fmt.Sprintf("/v1/compute/required-collateral?amount=%s&rate=%s", amount, rate)
	var payload amountPayload
	if err := g.call(ctx, http.MethodGet, path, nil, &payload); err != nil {
		return decimal.Zero, err
	}
	return payload.Amount, nil
}

func (g *GatewayClient) call(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encoding request: %v", apperrors.ErrContractCallFailed, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%w: building request: %v", apperrors.ErrContractCallFailed, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.apiKey != "" {
		req.Header.Set("X-Api-Key", g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		// Includes timeouts and cancellation: keep the cause visible so the
		// orchestrator can distinguish an ambiguous timeout from a plain revert.
		return fmt.Errorf("%w: %v", apperrors.ErrContractCallFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", apperrors.ErrContractCallFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d: %s", apperrors.ErrContractCallFailed, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("%w: decoding response: %v", apperrors.ErrContractCallFailed, err)
		}
	}
	return nil
}
