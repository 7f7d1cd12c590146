package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
)

// CreateLoanParams carries everything the lifecycle manager needs to record a
// newly admitted loan. Balance is the on-chain collateral balance at request
// time, used to re-validate the amount against the LTV limit.
type CreateLoanParams struct {
	UserID          string
	ChainLoanID     string
	Balance         decimal.Decimal
	Collateral      decimal.Decimal
	Amount          decimal.Decimal
	RateAtRequest   decimal.Decimal
	LTVRatio        decimal.Decimal
	BankDestination domain.BankDestination
}

// TransitionPayload carries the side data attached during a status transition.
type TransitionPayload struct {
	// Actor is the identity performing the transition (partner name or user id).
	Actor string

	PartnerOrderID string
	TransferID     string
	Repayment      *domain.Repayment
	Liquidation    *domain.Liquidation
}

// LoanReaderSvc defines read operations over loan records.
type LoanReaderSvc interface {
	// GetLoan returns a loan owned by userID; foreign loans surface as not found.
	GetLoan(ctx context.Context, loanID, userID string) (*domain.Loan, error)

	// ListUserLoans returns a user's loans, newest first.
	ListUserLoans(ctx context.Context, userID string, limit, offset int) ([]domain.Loan, error)

	// ListPendingLoans is the partner-facing queue of pending loans, newest
	// first, paginated by page/limit (page starts at 1).
	ListPendingLoans(ctx context.Context, page, limit int) ([]domain.Loan, error)

	// AggregateLoansByStatus groups a user's loans by status with summed
	// amount and collateral.
	AggregateLoansByStatus(ctx context.Context, userID string) ([]domain.LoanStatusSummary, error)
}

// LoanWriterSvc owns the loan state machine. It is the sole writer of Status.
type LoanWriterSvc interface {
	// CreateLoan validates the request against the LTV engine and inserts a
	// pending loan with a collision-free identifier and a due date fixed at
	// creation.
	CreateLoan(ctx context.Context, params CreateLoanParams) (*domain.Loan, error)

	// TransitionLoan applies a status transition, rejecting anything outside
	// the allowed table with apperrors.ErrIllegalTransition.
	TransitionLoan(ctx context.Context, loanID string, target domain.LoanStatus, payload TransitionPayload) (*domain.Loan, error)

	// CancelLoan is the user-initiated pending->cancelled transition. The
	// actor must be the loan owner.
	CancelLoan(ctx context.Context, loanID, userID string) (*domain.Loan, error)
}

// LoanSvcFacade combines all loan service interfaces.
type LoanSvcFacade interface {
	LoanReaderSvc
	LoanWriterSvc
}
