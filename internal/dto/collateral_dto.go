package dto

import (
	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
)

// DepositRequest defines the structure for a collateral deposit.
type DepositRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,dpositive"`
	// TxRef is an optional on-chain transaction reference; when supplied it
	// must be confirmed before the deposit is admitted.
	TxRef string `json:"txRef"`
}

// WithdrawRequest defines the structure for a collateral withdrawal.
type WithdrawRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,dpositive"`
}

// CollateralAccountResponse is the on-chain position returned after
// collateral operations and on balance queries.
type CollateralAccountResponse struct {
	UserID        string          `json:"userID"`
	Balance       decimal.Decimal `json:"balance"`
	Debt          decimal.Decimal `json:"debt"`
	TotalBorrowed decimal.Decimal `json:"totalBorrowed"`
	TotalRepaid   decimal.Decimal `json:"totalRepaid"`
	Active        bool            `json:"active"`
}

// ToCollateralAccountResponse converts a domain snapshot to the response DTO.
func ToCollateralAccountResponse(account *domain.CollateralAccount) CollateralAccountResponse {
	return CollateralAccountResponse{
		UserID:        account.UserID,
		Balance:       account.Balance,
		Debt:          account.Debt,
		TotalBorrowed: account.TotalBorrowed,
		TotalRepaid:   account.TotalRepaid,
		Active:        account.Active,
	}
}

// BorrowingCapacityResponse reports current borrowing headroom.
type BorrowingCapacityResponse struct {
	Balance           decimal.Decimal `json:"balance"`
	Debt              decimal.Decimal `json:"debt"`
	Rate              decimal.Decimal `json:"rate"`
	LTVRatio          decimal.Decimal `json:"ltvRatio"`
	MaxBorrowable     decimal.Decimal `json:"maxBorrowable"`
	AvailableToBorrow decimal.Decimal `json:"availableToBorrow"`
}

// ToBorrowingCapacityResponse converts domain capacity to the response DTO.
func ToBorrowingCapacityResponse(c *domain.BorrowingCapacity) BorrowingCapacityResponse {
	return BorrowingCapacityResponse{
		Balance:           c.Balance,
		Debt:              c.Debt,
		Rate:              c.Rate,
		LTVRatio:          c.LTVRatio,
		MaxBorrowable:     c.MaxBorrowable,
		AvailableToBorrow: c.AvailableToBorrow,
	}
}
