package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	portssvc "github.com/stablelend/micro_lending_app/internal/core/ports/services"
	"github.com/stablelend/micro_lending_app/internal/dto"
	"github.com/stablelend/micro_lending_app/internal/middleware"
)

// collateralHandler handles collateral account operations for the
// authenticated user.
type collateralHandler struct {
	collateralService portssvc.CollateralSvcFacade
}

func newCollateralHandler(cs portssvc.CollateralSvcFacade) *collateralHandler {
	return &collateralHandler{collateralService: cs}
}

// registerCollateralRoutes registers collateral account routes.
func registerCollateralRoutes(rg *gin.RouterGroup, collateralService portssvc.CollateralSvcFacade) {
	h := newCollateralHandler(collateralService)

	collateral := rg.Group("/collateral")
	{
		collateral.GET("/account", h.getAccount)
		collateral.POST("/deposit", h.deposit)
		collateral.POST("/withdraw", h.withdraw)
		collateral.GET("/capacity", h.getCapacity)
		collateral.GET("/quote", h.getQuote)
		collateral.GET("/debt-summary", h.getDebtSummary)
	}
}

// getAccount returns the caller's on-chain collateral position.
func (h *collateralHandler) getAccount(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	account, err := h.collateralService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCollateralAccountResponse(account))
}

// deposit moves wallet funds into the collateral contract.
func (h *collateralHandler) deposit(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	account, err := h.collateralService.Deposit(c.Request.Context(), userID, req.Amount, req.TxRef)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCollateralAccountResponse(account))
}

// withdraw releases collateral back to the caller's wallet.
func (h *collateralHandler) withdraw(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	account, err := h.collateralService.Withdraw(c.Request.Context(), userID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCollateralAccountResponse(account))
}

// getCapacity reports the caller's current borrowing headroom.
func (h *collateralHandler) getCapacity(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	capacity, err := h.collateralService.BorrowingCapacity(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBorrowingCapacityResponse(capacity))
}

// getQuote answers how much a hypothetical collateral amount could borrow.
func (h *collateralHandler) getQuote(c *gin.Context) {
	raw := c.Query("collateralAmount")
	if raw == "" {
		respondError(c, fmt.Errorf("%w: collateralAmount query parameter required", apperrors.ErrValidation))
		return
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		respondError(c, fmt.Errorf("%w: collateralAmount must be numeric", apperrors.ErrValidation))
		return
	}

	quote, err := h.collateralService.Quote(c.Request.Context(), amount)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, quote)
}

// getDebtSummary aggregates the caller's loans by status with the on-chain
// position.
func (h *collateralHandler) getDebtSummary(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		respondError(c, apperrors.ErrUnauthorized)
		return
	}

	summary, err := h.collateralService.DebtSummary(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
