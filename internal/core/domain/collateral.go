package domain

import "github.com/shopspring/decimal"

// CollateralAccount is a point-in-time snapshot of a user's on-chain position.
// The custodial contract is the system of record; this struct only carries a
// read back to callers and into admission checks.
type CollateralAccount struct {
	UserID        string          `json:"userID"`
	Balance       decimal.Decimal `json:"balance"` // collateral currency units on deposit
	Debt          decimal.Decimal `json:"debt"`    // outstanding debt in the loan currency
	TotalBorrowed decimal.Decimal `json:"totalBorrowed"`
	TotalRepaid   decimal.Decimal `json:"totalRepaid"`
	Active        bool            `json:"active"`
}

// BorrowingCapacity is the answer to "how much can this user borrow right now".
type BorrowingCapacity struct {
	Balance           decimal.Decimal `json:"balance"`
	Debt              decimal.Decimal `json:"debt"`
	Rate              decimal.Decimal `json:"rate"`
	LTVRatio          decimal.Decimal `json:"ltvRatio"`
	MaxBorrowable     decimal.Decimal `json:"maxBorrowable"`
	AvailableToBorrow decimal.Decimal `json:"availableToBorrow"`
}
