package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
)

// RequestLoanRequest defines the structure for a user loan request.
type RequestLoanRequest struct {
	Amount          decimal.Decimal        `json:"amount" binding:"required,dpositive"`
	BankDestination BankDestinationRequest `json:"bankDestination" binding:"required"`
}

// BankDestinationRequest is the disbursement target supplied with a loan request.
type BankDestinationRequest struct {
	BankCode      string `json:"bankCode" binding:"required"`
	AccountNumber string `json:"accountNumber" binding:"required"`
	AccountName   string `json:"accountName" binding:"required"`
}

// PartnerStatusRequest is the partner callback pushing a loan status.
type PartnerStatusRequest struct {
	Status         string `json:"status" binding:"required,oneof=approved funded rejected"`
	PartnerOrderID string `json:"partnerOrderID"`
}

// PartnerRepaymentRequest is the partner callback confirming a repayment.
type PartnerRepaymentRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required,dpositive"`
	ConfirmationID string          `json:"confirmationID" binding:"required"`
	RepaidAt       *time.Time      `json:"repaidAt"`
}

// PartnerTransferRequest is the partner callback reporting a completed bank transfer.
type PartnerTransferRequest struct {
	TransferID    string          `json:"transferID" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required,dpositive"`
	BankCode      string          `json:"bankCode" binding:"required"`
	AccountNumber string          `json:"accountNumber" binding:"required"`
	AccountName   string          `json:"accountName"`
}

// LoanResponse defines the structure for API responses containing loan details.
type LoanResponse struct {
	LoanID          string              `json:"loanID"`
	UserID          string              `json:"userID"`
	ChainLoanID     string              `json:"chainLoanID,omitempty"`
	Collateral      decimal.Decimal     `json:"collateral"`
	CollateralValue decimal.Decimal     `json:"collateralValue"`
	Amount          decimal.Decimal     `json:"amount"`
	RateAtRequest   decimal.Decimal     `json:"rateAtRequest"`
	LTVRatio        decimal.Decimal     `json:"ltvRatio"`
	Status          string              `json:"status"`
	PartnerOrderID  string              `json:"partnerOrderID,omitempty"`
	TransferID      string              `json:"transferID,omitempty"`
	DueDate         time.Time           `json:"dueDate"`
	Repayment       *domain.Repayment   `json:"repayment,omitempty"`
	Liquidation     *domain.Liquidation `json:"liquidation,omitempty"`
	CreatedAt       time.Time           `json:"createdAt"`
}

// ToLoanResponse converts a domain.Loan to LoanResponse DTO
func ToLoanResponse(loan *domain.Loan) LoanResponse {
	return LoanResponse{
		LoanID:          loan.LoanID,
		UserID:          loan.UserID,
		ChainLoanID:     loan.ChainLoanID,
		Collateral:      loan.Collateral,
		CollateralValue: loan.CollateralValue,
		Amount:          loan.Amount,
		RateAtRequest:   loan.RateAtRequest,
		LTVRatio:        loan.LTVRatio,
		Status:          string(loan.Status),
		PartnerOrderID:  loan.PartnerOrderID,
		TransferID:      loan.TransferID,
		DueDate:         loan.DueDate,
		Repayment:       loan.Repayment,
		Liquidation:     loan.Liquidation,
		CreatedAt:       loan.CreatedAt,
	}
}

// ToListLoanResponse converts a slice of domain.Loan to response DTOs.
func ToListLoanResponse(loans []domain.Loan) []LoanResponse {
	responses := make([]LoanResponse, len(loans))
	for i := range loans {
		responses[i] = ToLoanResponse(&loans[i])
	}
	return responses
}

// LoanQuoteResponse answers "how much could this collateral borrow right now".
type LoanQuoteResponse struct {
	CollateralAmount decimal.Decimal `json:"collateralAmount"`
	Rate             decimal.Decimal `json:"rate"`
	LTVRatio         decimal.Decimal `json:"ltvRatio"`
	MaxBorrowable    decimal.Decimal `json:"maxBorrowable"`
}

// LoanStatusSummaryResponse is one status bucket of a user's debt summary.
type LoanStatusSummaryResponse struct {
	Status          string          `json:"status"`
	Count           int             `json:"count"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	TotalCollateral decimal.Decimal `json:"totalCollateral"`
}

// DebtSummaryResponse aggregates a user's loans by status together with the
// current on-chain position and remaining headroom.
type DebtSummaryResponse struct {
	Balance             decimal.Decimal             `json:"balance"`
	Debt                decimal.Decimal             `json:"debt"`
	LockedCollateral    decimal.Decimal             `json:"lockedCollateral"`
	AvailableCollateral decimal.Decimal             `json:"availableCollateral"`
	AvailableToBorrow   decimal.Decimal             `json:"availableToBorrow"`
	ByStatus            []LoanStatusSummaryResponse `json:"byStatus"`
}
