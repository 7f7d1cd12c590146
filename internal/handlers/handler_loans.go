package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
	"github.com/stablelend/micro_lending_app/internal/dto"
	"github.com/stablelend/micro_lending_app/internal/middleware"
)

// loanHandler handles user-facing loan routes. Requesting a loan goes through
// the collateral orchestrator; reads and cancellation go to the lifecycle
// service directly.
type loanHandler struct {
	collateralService portssvc.CollateralSvcFacade
	loanService       portssvc.LoanSvcFacade
}

func newLoanHandler(cs portssvc.CollateralSvcFacade, ls portssvc.LoanSvcFacade) *loanHandler {
	return &loanHandler{collateralService: cs, loanService: ls}
}

// registerLoanRoutes registers user-facing loan routes.
func registerLoanRoutes(rg *gin.RouterGroup, collateralService portssvc.CollateralSvcFacade, loanService portssvc.LoanSvcFacade) {
	h := newLoanHandler(collateralService, loanService)

	loans := rg.Group("/loans")
	{
		loans.POST("", h.requestLoan)
		loans.GET("", h.listLoans)
		loans.GET("/:loanID", h.getLoan)
		loans.POST("/:loanID/cancel", h.cancelLoan)
	}
}

// requestLoan admits and executes a new loan request.
func (h *loanHandler) requestLoan(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.RequestLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	loan, err := h.collateralService.RequestLoan(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToLoanResponse(loan))
}

// listLoans returns the caller's loans, newest first.
func (h *loanHandler) listLoans(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	loans, err := h.loanService.ListUserLoans(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToListLoanResponse(loans))
}

// getLoan returns one of the caller's loans.
func (h *loanHandler) getLoan(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	loan, err := h.loanService.GetLoan(c.Request.Context(), c.Param("loanID"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}

// cancelLoan cancels one of the caller's pending loans.
func (h *loanHandler) cancelLoan(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	loan, err := h.loanService.CancelLoan(c.Request.Context(), c.Param("loanID"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToLoanResponse(loan))
}
