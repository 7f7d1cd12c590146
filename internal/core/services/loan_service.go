package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	portsrepo "github.com/stablelend/micro_lending_app/internal/core/ports/repositories"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
	"github.com/stablelend/micro_lending_app/internal/utils"
	"github.com/stablelend/micro_lending_app/internal/utils/ltv"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// LoanService owns the loan lifecycle: creation of pending loans and every
// status transition. It is the sole writer of Loan.Status; partner callbacks
// and user cancellations both funnel through TransitionLoan so the transition
// table is enforced in exactly one place.
type LoanService struct {
	BaseService
	loanRepo        portsrepo.LoanRepositoryFacade
	loanTermDays    int
	loanScale       int32
	collateralScale int32
}

// NewLoanService creates a new LoanService. loanTermDays fixes the due date
// horizon applied at creation.
func NewLoanService(loanRepo portsrepo.LoanRepositoryFacade, loanTermDays int, loanScale, collateralScale int32) *LoanService {
	return &LoanService{
		loanRepo:        loanRepo,
		loanTermDays:    loanTermDays,
		loanScale:       loanScale,
		collateralScale: collateralScale,
	}
}

// CreateLoan validates the request against the collateral arithmetic and
// inserts a pending loan. The rate and LTV ratio are locked into the record so
// later rate movement never reprices an existing loan.
func (s *LoanService) CreateLoan(ctx context.Context, params portssvc.CreateLoanParams) (*domain.Loan, error) {
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: loan amount must be positive", apperrors.ErrValidation)
	}
	if params.RateAtRequest.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: rate must be positive", apperrors.ErrValidation)
	}
	if params.LTVRatio.LessThanOrEqual(decimal.Zero) || params.LTVRatio.GreaterThan(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("%w: ltv ratio must be in (0, 1]", apperrors.ErrValidation)
	}

	maxBorrowable := ltv.MaxBorrowable(params.Balance, params.RateAtRequest, params.LTVRatio, s.loanScale)
	if params.Amount.GreaterThan(maxBorrowable) {
		return nil, fmt.Errorf("%w: requested %s, limit %s",
			apperrors.ErrExceedsBorrowingCapacity, params.Amount, maxBorrowable)
	}

	now := time.Now()
	loanID, err := utils.NewLoanReference(now)
	if err != nil {
		return nil, fmt.Errorf("failed to generate loan reference: %w", err)
	}
	loan := domain.Loan{
		LoanID:          loanID,
		UserID:          params.UserID,
		ChainLoanID:     params.ChainLoanID,
		Collateral:      params.Collateral,
		CollateralValue: params.Collateral.Mul(params.RateAtRequest).RoundFloor(s.loanScale),
		Amount:          params.Amount,
		RateAtRequest:   params.RateAtRequest,
		LTVRatio:        params.LTVRatio,
		Status:          domain.LoanPending,
		BankDestination: params.BankDestination,
		DueDate:         now.AddDate(0, 0, s.loanTermDays),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     params.UserID,
			LastUpdatedAt: now,
			LastUpdatedBy: params.UserID,
		},
	}

	if err := s.loanRepo.SaveLoan(ctx, loan); err != nil {
		return nil, fmt.Errorf("failed to save loan: %w", err)
	}

	s.LogInfo(ctx, "created pending loan",
		"loan_id", loan.LoanID, "user_id", loan.UserID, "amount", loan.Amount.String())
	return &loan, nil
}

// TransitionLoan applies a status transition. Anything outside the transition
// table is rejected; a repayment or liquidation target additionally requires
// its payload record.
func (s *LoanService) TransitionLoan(ctx context.Context, loanID string, target domain.LoanStatus, payload portssvc.TransitionPayload) (*domain.Loan, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", apperrors.ErrValidation, target)
	}

	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	if !loan.Status.CanTransitionTo(target) {
		if target == domain.LoanRepaid {
			return nil, fmt.Errorf("%w: loan %s is %s", apperrors.ErrNotRepayable, loanID, loan.Status)
		}
		if target == domain.LoanCancelled {
			return nil, fmt.Errorf("%w: loan %s is %s", apperrors.ErrNotCancellable, loanID, loan.Status)
		}
		return nil, fmt.Errorf("%w: %s -> %s", apperrors.ErrIllegalTransition, loan.Status, target)
	}

	switch target {
	case domain.LoanRepaid:
		if payload.Repayment == nil {
			return nil, fmt.Errorf("%w: repayment details required", apperrors.ErrValidation)
		}
		if payload.Repayment.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("%w: repayment amount must be positive", apperrors.ErrValidation)
		}
		loan.Repayment = payload.Repayment
	case domain.LoanLiquidated:
		if payload.Liquidation == nil {
			return nil, fmt.Errorf("%w: liquidation details required", apperrors.ErrValidation)
		}
		loan.Liquidation = payload.Liquidation
	}

	if payload.PartnerOrderID != "" {
		loan.PartnerOrderID = payload.PartnerOrderID
	}
	if payload.TransferID != "" {
		loan.TransferID = payload.TransferID
	}

	previous := loan.Status
	loan.Status = target
	loan.LastUpdatedAt = time.Now()
	loan.LastUpdatedBy = payload.Actor

	if err := s.loanRepo.UpdateLoan(ctx, *loan); err != nil {
		return nil, fmt.Errorf("failed to update loan: %w", err)
	}

	s.LogInfo(ctx, "loan status transitioned",
		"loan_id", loanID, "from", string(previous), "to", string(target), "actor", payload.Actor)
	return loan, nil
}

// CancelLoan is the user-initiated pending->cancelled transition. Loans owned
// by another user surface as not found.
func (s *LoanService) CancelLoan(ctx context.Context, loanID, userID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return s.TransitionLoan(ctx, loanID, domain.LoanCancelled, portssvc.TransitionPayload{Actor: userID})
}

// GetLoan returns a loan owned by userID; foreign loans surface as not found.
func (s *LoanService) GetLoan(ctx context.Context, loanID, userID string) (*domain.Loan, error) {
	loan, err := s.loanRepo.FindLoanByID(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return loan, nil
}

// ListUserLoans returns a user's loans, newest first.
func (s *LoanService) ListUserLoans(ctx context.Context, userID string, limit, offset int) ([]domain.Loan, error) {
	limit = clampLimit(limit)
	if offset < 0 {
		offset = 0
	}
	return s.loanRepo.ListLoansByUser(ctx, userID, limit, offset)
}

// ListPendingLoans is the partner-facing queue of pending loans, newest first.
func (s *LoanService) ListPendingLoans(ctx context.Context, page, limit int) ([]domain.Loan, error) {
	limit = clampLimit(limit)
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit
	return s.loanRepo.ListLoansByStatus(ctx, domain.LoanPending, limit, offset)
}

// AggregateLoansByStatus groups a user's loans by status with summed amount
// and collateral.
func (s *LoanService) AggregateLoansByStatus(ctx context.Context, userID string) ([]domain.LoanStatusSummary, error) {
	return s.loanRepo.SummarizeLoansByUser(ctx, userID)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultPageLimit
	}
	if limit > maxPageLimit {
		return maxPageLimit
	}
	return limit
}
