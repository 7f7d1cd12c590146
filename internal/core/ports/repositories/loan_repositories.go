package repositories

import (
	"context"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
)

// LoanReader defines read operations for loan data
type LoanReader interface {
	// FindLoanByID retrieves a loan by its identifier.
	FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error)

	// ListLoansByUser retrieves a user's loans, newest first.
	ListLoansByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Loan, error)

	// ListLoansByStatus retrieves loans in a given status, newest first.
	ListLoansByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]domain.Loan, error)

	// SummarizeLoansByUser groups a user's loans by status, summing amount and
	// collateral fields.
	SummarizeLoansByUser(ctx context.Context, userID string) ([]domain.LoanStatusSummary, error)
}

// LoanWriter defines write operations for loan data. Every write is a single
// atomic update to one loan record; collateral truth lives on-chain, so no
// multi-record transactions are needed.
type LoanWriter interface {
	// SaveLoan persists a new loan record.
	SaveLoan(ctx context.Context, loan domain.Loan) error

	// UpdateLoan updates a single existing loan record (status, partner
	// references, repayment and liquidation payloads).
	UpdateLoan(ctx context.Context, loan domain.Loan) error
}

// LoanRepositoryFacade combines all loan-related repository interfaces
type LoanRepositoryFacade interface {
	LoanReader
	LoanWriter
}
