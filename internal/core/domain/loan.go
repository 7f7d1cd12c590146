package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the closed set of loan lifecycle states.
type LoanStatus string

const (
	LoanPending    LoanStatus = "PENDING"
	LoanApproved   LoanStatus = "APPROVED"
	LoanFunded     LoanStatus = "FUNDED"
	LoanRejected   LoanStatus = "REJECTED"
	LoanCancelled  LoanStatus = "CANCELLED"
	LoanRepaid     LoanStatus = "REPAID"
	LoanLiquidated LoanStatus = "LIQUIDATED"
)

// allowedTransitions is the full transition table. Anything not listed here is
// illegal and must be rejected, not silently applied.
var allowedTransitions = map[LoanStatus][]LoanStatus{
	LoanPending:  {LoanApproved, LoanFunded, LoanRejected, LoanCancelled},
	LoanApproved: {LoanRepaid, LoanLiquidated},
	LoanFunded:   {LoanRepaid, LoanLiquidated},
}

// CanTransitionTo reports whether moving from s to target is legal.
func (s LoanStatus) CanTransitionTo(target LoanStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status ends the loan lifecycle.
func (s LoanStatus) IsTerminal() bool {
	switch s {
	case LoanRepaid, LoanLiquidated, LoanCancelled, LoanRejected:
		return true
	}
	return false
}

// Valid reports whether s is a member of the status enumeration.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanPending, LoanApproved, LoanFunded, LoanRejected, LoanCancelled, LoanRepaid, LoanLiquidated:
		return true
	}
	return false
}

// Repayment records a confirmed repayment reported by the settlement partner.
type Repayment struct {
	Amount         decimal.Decimal `json:"amount"`
	ConfirmationID string          `json:"confirmationID"`
	RepaidAt       time.Time       `json:"repaidAt"`
}

// Liquidation records a liquidation event. Liquidation execution happens
// elsewhere; this core only records it.
type Liquidation struct {
	Price        decimal.Decimal `json:"price"`
	ReferenceID  string          `json:"referenceID"`
	LiquidatedAt time.Time       `json:"liquidatedAt"`
}

// BankDestination is the partner-side disbursement target for a loan.
type BankDestination struct {
	BankCode      string `json:"bankCode"`
	AccountNumber string `json:"accountNumber"`
	AccountName   string `json:"accountName"`
}

// Loan is the off-chain record of a collateralized loan. Collateral truth
// lives on-chain; this record tracks the lifecycle and the terms locked at
// request time.
type Loan struct {
	LoanID          string          `json:"loanID"`
	UserID          string          `json:"userID"`
	ChainLoanID     string          `json:"chainLoanID"` // identifier assigned by the custodial contract
	Collateral      decimal.Decimal `json:"collateral"`  // collateral currency units locked for this loan
	CollateralValue decimal.Decimal `json:"collateralValue"`
	Amount          decimal.Decimal `json:"amount"` // requested amount in the loan currency
	RateAtRequest   decimal.Decimal `json:"rateAtRequest"`
	LTVRatio        decimal.Decimal `json:"ltvRatio"`
	Status          LoanStatus      `json:"status"`
	PartnerOrderID  string          `json:"partnerOrderID,omitempty"`
	TransferID      string          `json:"transferID,omitempty"`
	BankDestination BankDestination `json:"bankDestination"`
	DueDate         time.Time       `json:"dueDate"`
	Repayment       *Repayment      `json:"repayment,omitempty"`
	Liquidation     *Liquidation    `json:"liquidation,omitempty"`
	AuditFields
}

// LoanStatusSummary aggregates a user's loans for a single status.
type LoanStatusSummary struct {
	Status          LoanStatus      `json:"status"`
	Count           int             `json:"count"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TotalCollateral decimal.Decimal `json:"totalCollateral"`
}
