package ltv

import (
	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
)

// This package is the single source of truth for collateral arithmetic.
// Every admission decision must go through these functions; duplicating the
// math inline elsewhere is a correctness hazard.
//
// All values are fixed-point decimals with explicit scale per currency.
// Rounding direction is part of the contract: borrow limits round DOWN,
// collateral requirements round UP.

// divisionGuardDigits is the extra precision used for intermediate division
// before applying the final ceiling. The result is verified and bumped by one
// unit when the truncated quotient would under-collateralize.
const divisionGuardDigits = 8

// MaxBorrowable returns the largest loan-currency amount a collateral balance
// can back: balance * rate * ltvRatio, floored to the loan currency's scale.
// Flooring is mandatory; rounding up would let a user borrow above the true
// collateral limit.
func MaxBorrowable(balance, rate, ltvRatio decimal.Decimal, loanScale int32) decimal.Decimal {
	return balance.Mul(rate).Mul(ltvRatio).RoundFloor(loanScale)
}

// RequiredCollateral returns the smallest collateral-currency amount that
// backs loanAmount: loanAmount / (rate * ltvRatio), ceiled to the collateral
// currency's scale. Ceiling is mandatory; rounding down would
// under-collateralize the loan.
func RequiredCollateral(loanAmount, rate, ltvRatio decimal.Decimal, collateralScale int32) decimal.Decimal {
	if loanAmount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	denominator := rate.Mul(ltvRatio)
	required := loanAmount.DivRound(denominator, collateralScale+divisionGuardDigits).RoundCeil(collateralScale)

	// The guarded division can still truncate a quotient whose exact value
	// needs more digits. Verify the invariant required*rate*ltv >= loanAmount
	// and bump by one collateral unit if it does not hold.
	if required.Mul(denominator).LessThan(loanAmount) {
		required = required.Add(decimal.New(1, -collateralScale))
	}
	return required
}

// AvailableToBorrow returns the remaining borrowing headroom given existing
// debt, never below zero.
func AvailableToBorrow(balance, existingDebt, rate, ltvRatio decimal.Decimal, loanScale int32) decimal.Decimal {
	available := MaxBorrowable(balance, rate, ltvRatio, loanScale).Sub(existingDebt)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// HeadroomAfterWithdrawal admits a withdrawal only if the collateral left
// behind still covers the outstanding debt at the applied LTV. On rejection it
// returns a CollateralShortfallError carrying the numeric shortfall for the
// caller to surface.
func HeadroomAfterWithdrawal(balance, debt, withdrawAmount, rate, ltvRatio decimal.Decimal, collateralScale int32) error {
	required := RequiredCollateral(debt, rate, ltvRatio, collateralScale)
	remaining := balance.Sub(withdrawAmount)
	if remaining.LessThan(required) {
		return &apperrors.CollateralShortfallError{
			Required:  required,
			Available: remaining,
			Shortfall: required.Sub(remaining),
		}
	}
	return nil
}
