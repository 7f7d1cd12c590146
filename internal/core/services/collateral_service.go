package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	portschain "github.com/stablelend/micro_lending_app/internal/core/ports/chain"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
	"github.com/stablelend/micro_lending_app/internal/dto"
	"github.com/stablelend/micro_lending_app/internal/utils/ltv"
	"github.com/stablelend/micro_lending_app/internal/utils/userlock"
)

// CollateralConfig carries the lending parameters applied to every admission
// decision.
type CollateralConfig struct {
	// BaseCurrencyCode is the collateral currency, QuoteCurrencyCode the loan
	// currency of the single supported pair.
	BaseCurrencyCode  string
	QuoteCurrencyCode string

	// LTVRatio is the platform-wide loan-to-value ratio in (0, 1].
	LTVRatio decimal.Decimal

	// MaxRateAge bounds how old a rate may be for admission decisions.
	MaxRateAge time.Duration

	CollateralScale int32
	LoanScale       int32
}

// CollateralService orchestrates deposits, withdrawals and loan requests
// against the on-chain contract. The contract is the source of truth for
// balances; this service reads fresh state, applies the admission rules and
// only then issues the mutating call.
//
// Every mutating operation serializes on a per-user lock so two concurrent
// requests cannot both pass admission against the same stale snapshot.
type CollateralService struct {
	BaseService
	contract portschain.CollateralContract
	rateFeed portssvc.RateFeedReaderSvc
	loanSvc  portssvc.LoanSvcFacade
	locks    *userlock.Registry
	cfg      CollateralConfig
}

// NewCollateralService creates a new CollateralService.
func NewCollateralService(contract portschain.CollateralContract, rateFeed portssvc.RateFeedReaderSvc, loanSvc portssvc.LoanSvcFacade, locks *userlock.Registry, cfg CollateralConfig) *CollateralService {
	return &CollateralService{
		contract: contract,
		rateFeed: rateFeed,
		loanSvc:  loanSvc,
		locks:    locks,
		cfg:      cfg,
	}
}

// Deposit admits and executes a collateral deposit, returning the re-read
// account snapshot. When txRef is supplied it must already be confirmed
// on-chain.
func (s *CollateralService) Deposit(ctx context.Context, userID string, amount decimal.Decimal, txRef string) (*domain.CollateralAccount, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: deposit amount must be positive", apperrors.ErrValidation)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	account, err := s.contract.AccountSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrAccountNotActive, userID)
	}

	wallet, err := s.contract.WalletBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wallet.LessThan(amount) {
		return nil, fmt.Errorf("%w: wallet holds %s, deposit needs %s",
			apperrors.ErrInsufficientBalance, wallet, amount)
	}

	if txRef != "" {
		confirmed, err := s.contract.IsTransactionConfirmed(ctx, txRef)
		if err != nil {
			return nil, err
		}
		if !confirmed {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrTransactionNotConfirmed, txRef)
		}
	}

	result, err := s.contract.Deposit(ctx, userID, amount)
	if err != nil {
		s.reportFailedMutation(ctx, userID, "deposit", err)
		return nil, err
	}

	s.LogInfo(ctx, "collateral deposited",
		"user_id", userID, "amount", amount.String(), "confirmation_ref", result.ConfirmationRef)
	return s.contract.AccountSnapshot(ctx, userID)
}

// Withdraw admits and executes a collateral withdrawal, returning the re-read
// account snapshot. With outstanding debt the withdrawal must leave enough
// collateral behind at the current rate; with no debt only the balance bounds
// it.
func (s *CollateralService) Withdraw(ctx context.Context, userID string, amount decimal.Decimal) (*domain.CollateralAccount, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: withdrawal amount must be positive", apperrors.ErrValidation)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	account, err := s.contract.AccountSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrAccountNotActive, userID)
	}
	if account.Balance.LessThan(amount) {
		return nil, fmt.Errorf("%w: balance %s, withdrawal %s",
			apperrors.ErrInsufficientBalance, account.Balance, amount)
	}

	rate := decimal.Zero
	fresh, rateErr := s.rateFeed.LatestFreshRate(ctx, s.cfg.BaseCurrencyCode, s.cfg.QuoteCurrencyCode, s.cfg.MaxRateAge)
	if rateErr != nil {
		// Without debt the withdrawal is safe at any price, so a missing or
		// stale rate only blocks indebted accounts.
		if account.Debt.IsPositive() {
			return nil, rateErr
		}
		s.LogWarn(ctx, "withdrawing without a fresh rate, account has no debt",
			"user_id", userID, "reason", rateErr.Error())
	} else {
		rate = fresh.Rate
	}

	if account.Debt.IsPositive() {
		if err := ltv.HeadroomAfterWithdrawal(account.Balance, account.Debt, amount, rate, s.cfg.LTVRatio, s.cfg.CollateralScale); err != nil {
			return nil, err
		}
	}

	result, err := s.contract.Withdraw(ctx, userID, amount, rate)
	if err != nil {
		s.reportFailedMutation(ctx, userID, "withdraw", err)
		return nil, err
	}

	s.LogInfo(ctx, "collateral withdrawn",
		"user_id", userID, "amount", amount.String(), "confirmation_ref", result.ConfirmationRef)
	return s.contract.AccountSnapshot(ctx, userID)
}

// RequestLoan admits a loan request against fresh on-chain state and a fresh
// rate, executes the contract mutation and records the pending loan.
func (s *CollateralService) RequestLoan(ctx context.Context, userID string, req dto.RequestLoanRequest) (*domain.Loan, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: loan amount must be positive", apperrors.ErrValidation)
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	account, err := s.contract.AccountSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !account.Active {
		return nil, fmt.Errorf("%w: user %s", apperrors.ErrAccountNotActive, userID)
	}

	fresh, err := s.rateFeed.LatestFreshRate(ctx, s.cfg.BaseCurrencyCode, s.cfg.QuoteCurrencyCode, s.cfg.MaxRateAge)
	if err != nil {
		return nil, err
	}
	rate := fresh.Rate

	available := ltv.AvailableToBorrow(account.Balance, account.Debt, rate, s.cfg.LTVRatio, s.cfg.LoanScale)
	if req.Amount.GreaterThan(available) {
		return nil, fmt.Errorf("%w: requested %s, available %s",
			apperrors.ErrExceedsBorrowingCapacity, req.Amount, available)
	}

	// Cross-check against the contract's own limit and admit on the smaller
	// of the two. A mismatch means the contract's parameters have drifted
	// from ours and is worth a warning either way.
	localMax := ltv.MaxBorrowable(account.Balance, rate, s.cfg.LTVRatio, s.cfg.LoanScale)
	chainMax, chainErr := s.contract.MaxBorrowable(ctx, account.Balance, rate)
	if chainErr != nil {
		s.LogWarn(ctx, "contract max-borrowable check unavailable",
			"user_id", userID, "reason", chainErr.Error())
	} else if !chainMax.Equal(localMax) {
		s.LogWarn(ctx, "contract borrow limit differs from local computation",
			"user_id", userID, "local", localMax.String(), "contract", chainMax.String())
		if chainMax.LessThan(localMax) {
			chainAvailable := chainMax.Sub(account.Debt)
			if req.Amount.GreaterThan(chainAvailable) {
				return nil, fmt.Errorf("%w: requested %s, contract allows %s",
					apperrors.ErrExceedsBorrowingCapacity, req.Amount, chainAvailable)
			}
		}
	}

	requiredCollateral := ltv.RequiredCollateral(req.Amount, rate, s.cfg.LTVRatio, s.cfg.CollateralScale)
	if requiredCollateral.GreaterThan(account.Balance) {
		return nil, fmt.Errorf("%w: need %s, balance %s",
			apperrors.ErrInsufficientCollateral, requiredCollateral, account.Balance)
	}

	result, err := s.contract.RequestLoan(ctx, userID, req.Amount, rate)
	if err != nil {
		s.reportFailedMutation(ctx, userID, "request_loan", err)
		return nil, err
	}

	loan, err := s.loanSvc.CreateLoan(ctx, portssvc.CreateLoanParams{
		UserID:        userID,
		ChainLoanID:   result.ChainLoanID,
		Balance:       account.Balance,
		Collateral:    requiredCollateral,
		Amount:        req.Amount,
		RateAtRequest: rate,
		LTVRatio:      s.cfg.LTVRatio,
		BankDestination: domain.BankDestination{
			BankCode:      req.BankDestination.BankCode,
			AccountNumber: req.BankDestination.AccountNumber,
			AccountName:   req.BankDestination.AccountName,
		},
	})
	if err != nil {
		// The contract position exists but the off-chain record failed. This
		// needs operator reconciliation, not a retry of the mutation.
		s.LogError(ctx, err, "loan recorded on-chain but not off-chain",
			"user_id", userID, "chain_loan_id", result.ChainLoanID, "confirmation_ref", result.ConfirmationRef)
		return nil, fmt.Errorf("failed to record loan %s: %w", result.ChainLoanID, err)
	}

	s.LogInfo(ctx, "loan requested",
		"user_id", userID, "loan_id", loan.LoanID, "chain_loan_id", loan.ChainLoanID, "amount", loan.Amount.String())
	return loan, nil
}

// GetAccount returns the current on-chain snapshot. Display read, unlocked.
func (s *CollateralService) GetAccount(ctx context.Context, userID string) (*domain.CollateralAccount, error) {
	return s.contract.AccountSnapshot(ctx, userID)
}

// Quote answers how much a given collateral amount could borrow at the
// current rate, without touching any account.
func (s *CollateralService) Quote(ctx context.Context, collateralAmount decimal.Decimal) (*dto.LoanQuoteResponse, error) {
	if collateralAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: collateral amount must be positive", apperrors.ErrValidation)
	}

	fresh, err := s.rateFeed.LatestFreshRate(ctx, s.cfg.BaseCurrencyCode, s.cfg.QuoteCurrencyCode, s.cfg.MaxRateAge)
	if err != nil {
		return nil, err
	}

	return &dto.LoanQuoteResponse{
		CollateralAmount: collateralAmount,
		Rate:             fresh.Rate,
		LTVRatio:         s.cfg.LTVRatio,
		MaxBorrowable:    ltv.MaxBorrowable(collateralAmount, fresh.Rate, s.cfg.LTVRatio, s.cfg.LoanScale),
	}, nil
}

// BorrowingCapacity reports the user's current headroom at the fresh rate.
func (s *CollateralService) BorrowingCapacity(ctx context.Context, userID string) (*domain.BorrowingCapacity, error) {
	account, err := s.contract.AccountSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	fresh, err := s.rateFeed.LatestFreshRate(ctx, s.cfg.BaseCurrencyCode, s.cfg.QuoteCurrencyCode, s.cfg.MaxRateAge)
	if err != nil {
		return nil, err
	}

	return &domain.BorrowingCapacity{
		Balance:           account.Balance,
		Debt:              account.Debt,
		Rate:              fresh.Rate,
		LTVRatio:          s.cfg.LTVRatio,
		MaxBorrowable:     ltv.MaxBorrowable(account.Balance, fresh.Rate, s.cfg.LTVRatio, s.cfg.LoanScale),
		AvailableToBorrow: ltv.AvailableToBorrow(account.Balance, account.Debt, fresh.Rate, s.cfg.LTVRatio, s.cfg.LoanScale),
	}, nil
}

// DebtSummary aggregates the user's loans by status together with the
// on-chain position, locked collateral and remaining headroom.
func (s *CollateralService) DebtSummary(ctx context.Context, userID string) (*dto.DebtSummaryResponse, error) {
	account, err := s.contract.AccountSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries, err := s.loanSvc.AggregateLoansByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}

	locked := decimal.Zero
	byStatus := make([]dto.LoanStatusSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		switch summary.Status {
		case domain.LoanPending, domain.LoanApproved, domain.LoanFunded:
			locked = locked.Add(summary.TotalCollateral)
		}
		byStatus = append(byStatus, dto.LoanStatusSummaryResponse{
			Status:          string(summary.Status),
			Count:           summary.Count,
			TotalAmount:     summary.TotalAmount,
			TotalCollateral: summary.TotalCollateral,
		})
	}

	availableCollateral := account.Balance.Sub(locked)
	if availableCollateral.IsNegative() {
		availableCollateral = decimal.Zero
	}

	// Display read: an older rate is acceptable here and a missing one just
	// zeroes the headroom figure.
	availableToBorrow := decimal.Zero
	if latest, err := s.rateFeed.LatestRate(ctx, s.cfg.BaseCurrencyCode, s.cfg.QuoteCurrencyCode); err == nil {
		availableToBorrow = ltv.AvailableToBorrow(account.Balance, account.Debt, latest.Rate, s.cfg.LTVRatio, s.cfg.LoanScale)
	}

	return &dto.DebtSummaryResponse{
		Balance:             account.Balance,
		Debt:                account.Debt,
		LockedCollateral:    locked,
		AvailableCollateral: availableCollateral,
		AvailableToBorrow:   availableToBorrow,
		ByStatus:            byStatus,
	}, nil
}

// reportFailedMutation re-reads account state after a failed contract call. A
// timed-out call may still have landed, so the fresh snapshot goes to the log
// for reconciliation; the mutation itself is never retried here.
func (s *CollateralService) reportFailedMutation(ctx context.Context, userID, operation string, cause error) {
	account, err := s.contract.AccountSnapshot(ctx, userID)
	if err != nil {
		s.LogError(ctx, cause, "contract mutation failed, state re-read also failed",
			"user_id", userID, "operation", operation, "reread_error", err.Error())
		return
	}
	s.LogError(ctx, cause, "contract mutation failed",
		"user_id", userID, "operation", operation,
		"balance", account.Balance.String(), "debt", account.Debt.String())
}
