package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
	"github.com/stablelend/micro_lending_app/internal/dto"
)

// CollateralSvcFacade is the deposit/withdraw/loan-request orchestrator. Every
// mutating operation runs its read-check-mutate sequence under a per-user lock.
type CollateralSvcFacade interface {
	// Deposit admits and executes a collateral deposit, returning the re-read
	// account snapshot.
	Deposit(ctx context.Context, userID string, amount decimal.Decimal, txRef string) (*domain.CollateralAccount, error)

	// Withdraw admits and executes a collateral withdrawal, returning the
	// re-read account snapshot.
	Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*domain.CollateralAccount, error)

	// RequestLoan admits a loan request, executes the on-chain mutation and
	// records the off-chain loan.
	RequestLoan(ctx context.Context, userID string, req dto.RequestLoanRequest) (*domain.Loan, error)

	// GetAccount returns the current on-chain snapshot (display read, unlocked).
	GetAccount(ctx context.Context, userID string) (*domain.CollateralAccount, error)

	// Quote answers how much a given collateral amount could borrow at the
	// current rate.
	Quote(ctx context.Context, collateralAmount decimal.Decimal) (*dto.LoanQuoteResponse, error)

	// BorrowingCapacity reports the user's current headroom.
	BorrowingCapacity(ctx context.Context, userID string) (*domain.BorrowingCapacity, error)

	// DebtSummary aggregates the user's loans by status together with the
	// on-chain position and available collateral.
	DebtSummary(ctx context.Context, userID string) (*dto.DebtSummaryResponse, error)
}
