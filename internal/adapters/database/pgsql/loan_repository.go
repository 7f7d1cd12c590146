package pgsql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	"github.com/stablelend/micro_lending_app/internal/models"
	"github.com/stablelend/micro_lending_app/internal/utils/mapping"
)

const loanColumns = `
	loan_id, user_id, chain_loan_id, collateral, collateral_value, amount,
	rate_at_request, ltv_ratio, status, partner_order_id, transfer_id,
	bank_code, bank_account_no, bank_account_name, due_date,
	repaid_amount, repaid_at, repay_confirmation_id,
	liquidation_price, liquidation_ref, liquidated_at,
	created_at, created_by, last_updated_at, last_updated_by`

// PgxLoanRepository implements the loan repository facade using pgxpool.
type PgxLoanRepository struct {
	BaseRepository
}

// NewLoanRepository creates a new PgxLoanRepository.
func NewLoanRepository(db *pgxpool.Pool) *PgxLoanRepository {
	return &PgxLoanRepository{
		BaseRepository: BaseRepository{Pool: db},
	}
}

func scanLoan(row pgx.Row) (*models.Loan, error) {
	var m models.Loan
	err := row.Scan(
		&m.LoanID, &m.UserID, &m.ChainLoanID, &m.Collateral, &m.CollateralValue, &m.Amount,
		&m.RateAtRequest, &m.LTVRatio, &m.Status, &m.PartnerOrderID, &m.TransferID,
		&m.BankCode, &m.BankAccountNo, &m.BankAccountName, &m.DueDate,
		&m.RepaidAmount, &m.RepaidAt, &m.RepayConfirmID,
		&m.LiquidationPrice, &m.LiquidationRef, &m.LiquidatedAt,
		&m.CreatedAt, &m.CreatedBy, &m.LastUpdatedAt, &m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveLoan inserts a new loan record.
func (r *PgxLoanRepository) SaveLoan(ctx context.Context, loan domain.Loan) error {
	m := mapping.ToModelLoan(loan)
	query := `
		INSERT INTO loans (` + loanColumns + `
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		          $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`
	_, err := r.Pool.Exec(ctx, query,
		m.LoanID, m.UserID, m.ChainLoanID, m.Collateral, m.CollateralValue, m.Amount,
		m.RateAtRequest, m.LTVRatio, m.Status, m.PartnerOrderID, m.TransferID,
		m.BankCode, m.BankAccountNo, m.BankAccountName, m.DueDate,
		m.RepaidAmount, m.RepaidAt, m.RepayConfirmID,
		m.LiquidationPrice, m.LiquidationRef, m.LiquidatedAt,
		m.CreatedAt, m.CreatedBy, m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("error inserting loan: %w", err)
	}
	return nil
}

// UpdateLoan updates a single loan record in place.
func (r *PgxLoanRepository) UpdateLoan(ctx context.Context, loan domain.Loan) error {
	m := mapping.ToModelLoan(loan)
	query := `
		UPDATE loans SET
			status = $2, partner_order_id = $3, transfer_id = $4,
			repaid_amount = $5, repaid_at = $6, repay_confirmation_id = $7,
			liquidation_price = $8, liquidation_ref = $9, liquidated_at = $10,
			last_updated_at = $11, last_updated_by = $12
		WHERE loan_id = $1`

	tag, err := r.Pool.Exec(ctx, query,
		m.LoanID, m.Status, m.PartnerOrderID, m.TransferID,
		m.RepaidAmount, m.RepaidAt, m.RepayConfirmID,
		m.LiquidationPrice, m.LiquidationRef, m.LiquidatedAt,
		m.LastUpdatedAt, m.LastUpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("error updating loan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// FindLoanByID retrieves a loan by its identifier.
func (r *PgxLoanRepository) FindLoanByID(ctx context.Context, loanID string) (*domain.Loan, error) {
	query := `SELECT ` + loanColumns + ` FROM loans WHERE loan_id = $1`

	m, err := scanLoan(r.Pool.QueryRow(ctx, query, loanID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("error finding loan: %w", err)
	}

	loan := mapping.ToDomainLoan(*m)
	return &loan, nil
}

// ListLoansByUser retrieves a user's loans, newest first.
func (r *PgxLoanRepository) ListLoansByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.listLoans(ctx, query, userID, limit, offset)
}

// ListLoansByStatus retrieves loans in a given status, newest first.
func (r *PgxLoanRepository) ListLoansByStatus(ctx context.Context, status domain.LoanStatus, limit, offset int) ([]domain.Loan, error) {
	query := `
		SELECT ` + loanColumns + `
		FROM loans
		WHERE status = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.listLoans(ctx, query, string(status), limit, offset)
}

func (r *PgxLoanRepository) listLoans(ctx context.Context, query string, args ...interface{}) ([]domain.Loan, error) {
	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing loans: %w", err)
	}
	defer rows.Close()

	var loans []domain.Loan
	for rows.Next() {
		m, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning loan: %w", err)
		}
		loans = append(loans, mapping.ToDomainLoan(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loans: %w", err)
	}

	return loans, nil
}

// SummarizeLoansByUser groups a user's loans by status, summing amount and
// collateral fields.
func (r *PgxLoanRepository) SummarizeLoansByUser(ctx context.Context, userID string) ([]domain.LoanStatusSummary, error) {
	query := `
		SELECT status, COUNT(*), COALESCE(SUM(amount), 0), COALESCE(SUM(collateral), 0)
		FROM loans
		WHERE user_id = $1
		GROUP BY status`

	rows, err := r.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("error summarizing loans: %w", err)
	}
	defer rows.Close()

	var summaries []domain.LoanStatusSummary
	for rows.Next() {
		var s domain.LoanStatusSummary
		var status string
		if err := rows.Scan(&status, &s.Count, &s.TotalAmount, &s.TotalCollateral); err != nil {
			return nil, fmt.Errorf("error scanning loan summary: %w", err)
		}
		s.Status = domain.LoanStatus(status)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating loan summaries: %w", err)
	}

	return summaries, nil
}
