package apperrors

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrUnauthorized indicates a missing or invalid credential.
var ErrUnauthorized = errors.New("unauthorized")

// Admission errors: business-rule rejections computed from fresh on-chain
// reads before any mutating call is issued.
var (
	// ErrInsufficientBalance indicates the wallet balance cannot cover the requested deposit.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientCollateral indicates the deposited collateral cannot back the requested loan.
	ErrInsufficientCollateral = errors.New("insufficient collateral")

	// ErrExceedsBorrowingCapacity indicates the requested loan would push total debt above the LTV limit.
	ErrExceedsBorrowingCapacity = errors.New("exceeds borrowing capacity")

	// ErrInsufficientCollateralAfterWithdrawal indicates the withdrawal would leave
	// outstanding debt under-collateralized. Wrapped by CollateralShortfallError,
	// which carries the numeric shortfall.
	ErrInsufficientCollateralAfterWithdrawal = errors.New("insufficient collateral after withdrawal")

	// ErrAccountNotActive indicates the on-chain account is not active for borrowing.
	ErrAccountNotActive = errors.New("account not active")
)

// External-dependency errors: surfaced to the caller as retryable failures.
// Mutations are never auto-retried; the caller must re-query state first.
var (
	// ErrContractCallFailed indicates the custodial contract call reverted or the gateway failed.
	ErrContractCallFailed = errors.New("contract call failed")

	// ErrRateSourceUnavailable indicates the external rate API could not be reached or timed out.
	ErrRateSourceUnavailable = errors.New("rate source unavailable")

	// ErrInvalidRateResponse indicates the rate API responded with an unusable payload.
	ErrInvalidRateResponse = errors.New("invalid rate response")

	// ErrNoRateAvailable indicates no active exchange rate exists for the currency pair.
	ErrNoRateAvailable = errors.New("no rate available")

	// ErrRateStale indicates the latest rate is older than the configured max age
	// and must not be used for loan admission.
	ErrRateStale = errors.New("rate is stale")

	// ErrTransactionNotConfirmed indicates a supplied transaction reference is not confirmed on-chain.
	ErrTransactionNotConfirmed = errors.New("transaction not confirmed")

	// ErrInvalidRate indicates a manually supplied exchange rate is not positive.
	ErrInvalidRate = errors.New("invalid rate")
)

// State-machine errors: ordering violations on the loan lifecycle. Always
// fatal to the request, never retried.
var (
	// ErrIllegalTransition indicates a loan status transition outside the allowed table.
	ErrIllegalTransition = errors.New("illegal loan status transition")

	// ErrNotRepayable indicates a repayment was reported for a loan that is not approved or funded.
	ErrNotRepayable = errors.New("loan is not repayable")

	// ErrNotCancellable indicates a cancellation attempt on a non-pending loan.
	ErrNotCancellable = errors.New("loan is not cancellable")
)

// CollateralShortfallError reports how much collateral is missing for an
// operation to be admissible. It wraps ErrInsufficientCollateralAfterWithdrawal
// so callers can match with errors.Is while still reading the numbers.
type CollateralShortfallError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *CollateralShortfallError) Error() string {
	return fmt.Sprintf("%v: required %s, available %s, shortfall %s",
		ErrInsufficientCollateralAfterWithdrawal, e.Required, e.Available, e.Shortfall)
}

func (e *CollateralShortfallError) Unwrap() error {
	return ErrInsufficientCollateralAfterWithdrawal
}

// Kind returns the machine-readable error kind for an application error, used
// by handlers to populate the "kind" field of error responses.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInvalidRate):
		return "invalid_rate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrInsufficientCollateral):
		return "insufficient_collateral"
	case errors.Is(err, ErrExceedsBorrowingCapacity):
		return "exceeds_borrowing_capacity"
	case errors.Is(err, ErrInsufficientCollateralAfterWithdrawal):
		return "insufficient_collateral_after_withdrawal"
	case errors.Is(err, ErrAccountNotActive):
		return "account_not_active"
	case errors.Is(err, ErrContractCallFailed):
		return "contract_call_failed"
	case errors.Is(err, ErrRateSourceUnavailable):
		return "rate_source_unavailable"
	case errors.Is(err, ErrInvalidRateResponse):
		return "invalid_rate_response"
	case errors.Is(err, ErrNoRateAvailable):
		return "no_rate_available"
	case errors.Is(err, ErrRateStale):
		return "rate_stale"
	case errors.Is(err, ErrTransactionNotConfirmed):
		return "transaction_not_confirmed"
	case errors.Is(err, ErrIllegalTransition):
		return "illegal_transition"
	case errors.Is(err, ErrNotRepayable):
		return "not_repayable"
	case errors.Is(err, ErrNotCancellable):
		return "not_cancellable"
	default:
		return "internal"
	}
}
