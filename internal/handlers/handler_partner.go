package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stablelend/micro_lending_app/internal/core/domain"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
	"github.com/stablelend/micro_lending_app/internal/dto"
	"github.com/stablelend/micro_lending_app/internal/middleware"
	"github.com/stablelend/micro_lending_app/pkg/config"
)

// partnerActor is the audit identity recorded for partner-initiated
// transitions.
const partnerActor = "partner"

var partnerStatusTargets = map[string]domain.LoanStatus{
	"approved": domain.LoanApproved,
	"funded":   domain.LoanFunded,
	"rejected": domain.LoanRejected,
}

// partnerHandler handles the settlement partner's callbacks. The partner
// drives approvals, funding, rejections and repayments; every push funnels
// through the lifecycle service's transition table.
type partnerHandler struct {
	loanService portssvc.LoanSvcFacade
}

func newPartnerHandler(ls portssvc.LoanSvcFacade) *partnerHandler {
	return &partnerHandler{loanService: ls}
}

// registerPartnerRoutes registers the shared-secret-guarded partner routes.
func registerPartnerRoutes(r *gin.Engine, cfg *config.Config, loanService portssvc.LoanSvcFacade) {
	h := newPartnerHandler(loanService)

	partner := r.Group("/partner/v1", middleware.PartnerAuthMiddleware(cfg.PartnerAPISecret))
	{
		partner.GET("/loans/pending", h.listPendingLoans)
		partner.POST("/loans/:loanID/status", h.pushStatus)
		partner.POST("/loans/:loanID/repayment", h.pushRepayment)
		partner.POST("/loans/:loanID/transfer", h.pushTransfer)
	}
}

// listPendingLoans is the partner's work queue.
func (h *partnerHandler) listPendingLoans(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	loans, err := h.loanService.ListPendingLoans(c.Request.Context(), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListLoanResponse(loans))
}

// pushStatus applies an approved/funded/rejected callback.
func (h *partnerHandler) pushStatus(c *gin.Context) {
	var req dto.PartnerStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	// Binding's oneof constraint guarantees the lookup hits.
	target := partnerStatusTargets[req.Status]

	loan, err := h.loanService.TransitionLoan(c.Request.Context(), c.Param("loanID"), target, portssvc.TransitionPayload{
		Actor:          partnerActor,
		PartnerOrderID: req.PartnerOrderID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}

// pushRepayment records a confirmed repayment and closes the loan.
func (h *partnerHandler) pushRepayment(c *gin.Context) {
	var req dto.PartnerRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	repaidAt := time.Now()
	if req.RepaidAt != nil {
		repaidAt = *req.RepaidAt
	}

	loan, err := h.loanService.TransitionLoan(c.Request.Context(), c.Param("loanID"), domain.LoanRepaid, portssvc.TransitionPayload{
		Actor: partnerActor,
		Repayment: &domain.Repayment{
			Amount:         req.Amount,
			ConfirmationID: req.ConfirmationID,
			RepaidAt:       repaidAt,
		},
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}

// pushTransfer records the completed bank disbursement and marks the loan
// funded.
func (h *partnerHandler) pushTransfer(c *gin.Context) {
	var req dto.PartnerTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	loan, err := h.loanService.TransitionLoan(c.Request.Context(), c.Param("loanID"), domain.LoanFunded, portssvc.TransitionPayload{
		Actor:      partnerActor,
		TransferID: req.TransferID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}
