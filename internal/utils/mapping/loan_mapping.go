package mapping

import (
	"github.com/stablelend/micro_lending_app/internal/core/domain"
	"github.com/stablelend/micro_lending_app/internal/models"
)

// ToModelLoan converts a domain Loan to a model Loan
func ToModelLoan(d domain.Loan) models.Loan {
	m := models.Loan{
		LoanID:          d.LoanID,
		UserID:          d.UserID,
		ChainLoanID:     d.ChainLoanID,
		Collateral:      d.Collateral,
		CollateralValue: d.CollateralValue,
		Amount:          d.Amount,
		RateAtRequest:   d.RateAtRequest,
		LTVRatio:        d.LTVRatio,
		Status:          string(d.Status),
		BankCode:        d.BankDestination.BankCode,
		BankAccountNo:   d.BankDestination.AccountNumber,
		BankAccountName: d.BankDestination.AccountName,
		DueDate:         d.DueDate,
		CreatedAt:       d.CreatedAt,
		CreatedBy:       d.CreatedBy,
		LastUpdatedAt:   d.LastUpdatedAt,
		LastUpdatedBy:   d.LastUpdatedBy,
	}
	if d.PartnerOrderID != "" {
		m.PartnerOrderID = &d.PartnerOrderID
	}
	if d.TransferID != "" {
		m.TransferID = &d.TransferID
	}
	if d.Repayment != nil {
		m.RepaidAmount = &d.Repayment.Amount
		m.RepaidAt = &d.Repayment.RepaidAt
		m.RepayConfirmID = &d.Repayment.ConfirmationID
	}
	if d.Liquidation != nil {
		m.LiquidationPrice = &d.Liquidation.Price
		m.LiquidationRef = &d.Liquidation.ReferenceID
		m.LiquidatedAt = &d.Liquidation.LiquidatedAt
	}
	return m
}

// ToDomainLoan converts a model Loan to a domain Loan
func ToDomainLoan(m models.Loan) domain.Loan {
	d := domain.Loan{
		LoanID:          m.LoanID,
		UserID:          m.UserID,
		ChainLoanID:     m.ChainLoanID,
		Collateral:      m.Collateral,
		CollateralValue: m.CollateralValue,
		Amount:          m.Amount,
		RateAtRequest:   m.RateAtRequest,
		LTVRatio:        m.LTVRatio,
		Status:          domain.LoanStatus(m.Status),
		BankDestination: domain.BankDestination{
			BankCode:      m.BankCode,
			AccountNumber: m.BankAccountNo,
			AccountName:   m.BankAccountName,
		},
		DueDate: m.DueDate,
		AuditFields: domain.AuditFields{
			CreatedAt:     m.CreatedAt,
			CreatedBy:     m.CreatedBy,
			LastUpdatedAt: m.LastUpdatedAt,
			LastUpdatedBy: m.LastUpdatedBy,
		},
	}
	if m.PartnerOrderID != nil {
		d.PartnerOrderID = *m.PartnerOrderID
	}
	if m.TransferID != nil {
		d.TransferID = *m.TransferID
	}
	if m.RepaidAmount != nil && m.RepaidAt != nil && m.RepayConfirmID != nil {
		d.Repayment = &domain.Repayment{
			Amount:         *m.RepaidAmount,
			RepaidAt:       *m.RepaidAt,
			ConfirmationID: *m.RepayConfirmID,
		}
	}
	if m.LiquidationPrice != nil && m.LiquidationRef != nil && m.LiquidatedAt != nil {
		d.Liquidation = &domain.Liquidation{
			Price:        *m.LiquidationPrice,
			ReferenceID:  *m.LiquidationRef,
			LiquidatedAt: *m.LiquidatedAt,
		}
	}
	return d
}
