package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stablelend/micro_lending_app/internal/apperrors"
	"github.com/stablelend/micro_lending_app/internal/middleware"
)

// ErrorResponse is the error body returned by every handler. Kind is the
// machine-readable error class clients branch on; Error is human-readable.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// respondError maps an application error to its HTTP status and writes the
// uniform error body. The mapping lives here so handlers never pick status
// codes individually.
func respondError(c *gin.Context, err error) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	status := statusFor(err)

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", slog.Int("status", status), slog.String("error", err.Error()))
	} else {
		logger.Warn("request rejected", slog.Int("status", status), slog.String("error", err.Error()))
	}

	c.JSON(status, ErrorResponse{Error: err.Error(), Kind: apperrors.Kind(err)})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidRate):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrDuplicate),
		errors.Is(err, apperrors.ErrIllegalTransition),
		errors.Is(err, apperrors.ErrNotRepayable),
		errors.Is(err, apperrors.ErrNotCancellable):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrInsufficientBalance),
		errors.Is(err, apperrors.ErrInsufficientCollateral),
		errors.Is(err, apperrors.ErrExceedsBorrowingCapacity),
		errors.Is(err, apperrors.ErrInsufficientCollateralAfterWithdrawal),
		errors.Is(err, apperrors.ErrAccountNotActive),
		errors.Is(err, apperrors.ErrTransactionNotConfirmed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrContractCallFailed),
		errors.Is(err, apperrors.ErrRateSourceUnavailable),
		errors.Is(err, apperrors.ErrInvalidRateResponse):
		return http.StatusBadGateway
	case errors.Is(err, apperrors.ErrNoRateAvailable),
		errors.Is(err, apperrors.ErrRateStale):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// bindError wraps a JSON binding failure so it maps to 400 with the
// validation kind.
func bindError(err error) error {
	return &bindFailure{cause: err}
}

type bindFailure struct {
	cause error
}

func (b *bindFailure) Error() string {
	return "invalid request format: " + b.cause.Error()
}

func (b *bindFailure) Unwrap() error {
	return apperrors.ErrValidation
}
