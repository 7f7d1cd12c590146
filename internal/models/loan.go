package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Loan is the database representation of a loan record. Optional lifecycle
// payloads (partner references, repayment, liquidation) are nullable columns.
type Loan struct {
	LoanID           string           `db:"loan_id"`
	UserID           string           `db:"user_id"`
	ChainLoanID      string           `db:"chain_loan_id"`
	Collateral       decimal.Decimal  `db:"collateral"`
	CollateralValue  decimal.Decimal  `db:"collateral_value"`
	Amount           decimal.Decimal  `db:"amount"`
	RateAtRequest    decimal.Decimal  `db:"rate_at_request"`
	LTVRatio         decimal.Decimal  `db:"ltv_ratio"`
	Status           string           `db:"status"`
	PartnerOrderID   *string          `db:"partner_order_id"`
	TransferID       *string          `db:"transfer_id"`
	BankCode         string           `db:"bank_code"`
	BankAccountNo    string           `db:"bank_account_no"`
	BankAccountName  string           `db:"bank_account_name"`
	DueDate          time.Time        `db:"due_date"`
	RepaidAmount     *decimal.Decimal `db:"repaid_amount"`
	RepaidAt         *time.Time       `db:"repaid_at"`
	RepayConfirmID   *string          `db:"repay_confirmation_id"`
	LiquidationPrice *decimal.Decimal `db:"liquidation_price"`
	LiquidationRef   *string          `db:"liquidation_ref"`
	LiquidatedAt     *time.Time       `db:"liquidated_at"`
	CreatedAt        time.Time        `db:"created_at"`
	CreatedBy        string           `db:"created_by"`
	LastUpdatedAt    time.Time        `db:"last_updated_at"`
	LastUpdatedBy    string           `db:"last_updated_by"`
}
