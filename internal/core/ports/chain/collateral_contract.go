package chain

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
)

// MutationResult is the receipt of a state-changing contract call.
type MutationResult struct {
	ConfirmationRef string
}

// LoanResult is the receipt of a loan-opening contract call, carrying the
// identifier the contract assigned to the loan.
type LoanResult struct {
	ConfirmationRef string
	ChainLoanID     string
}

// CollateralContract is the read/write boundary to the custodial contract.
// The contract is the oracle of truth for balances and debt; this core never
// reimplements its accounting, only pre-flights admission against its reads.
//
// Mutations must never be auto-retried: a timed-out call may already have been
// broadcast, and retrying risks double-submission. Callers re-read account
// state to resolve ambiguous outcomes.
type CollateralContract interface {
	// AccountSnapshot reads balance, debt, cumulative totals and the active
	// flag for a user in one call.
	AccountSnapshot(ctx context.Context, userID string) (*domain.CollateralAccount, error)

	// WalletBalance reads the user's off-chain-asset wallet balance available
	// for deposit.
	WalletBalance(ctx context.Context, userID string) (decimal.Decimal, error)

	// IsTransactionConfirmed reports whether a transaction reference is
	// confirmed on-chain.
	IsTransactionConfirmed(ctx context.Context, txRef string) (bool, error)

	// Deposit moves amount from the user's wallet into the custodial contract.
	Deposit(ctx context.Context, userID string, amount decimal.Decimal) (*MutationResult, error)

	// Withdraw releases amount of collateral back to the user's wallet.
	Withdraw(ctx context.Context, userID string, amount, rate decimal.Decimal) (*MutationResult, error)

	// RequestLoan opens a loan position on-chain and returns the assigned
	// loan identifier.
	RequestLoan(ctx context.Context, userID string, amount, rate decimal.Decimal) (*LoanResult, error)

	// MaxBorrowable and RequiredCollateral are the contract's own pure
	// computations, used as a cross-check against the local LTV engine.
	MaxBorrowable(ctx context.Context, balance, rate decimal.Decimal) (decimal.Decimal, error)
	RequiredCollateral(ctx context.Context, amount, rate decimal.Decimal) (decimal.Decimal, error)
}
