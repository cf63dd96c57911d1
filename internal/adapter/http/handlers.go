package http

import (
	"errors"
	"net/http"
	"time"

	domain "nftlend-backend/internal/domain/loan"

	"github.com/labstack/echo/v4"
)

type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// errorStatus maps the loan error taxonomy onto HTTP codes: unknown loans
// are 404, wrong-status operations 409, rejected business inputs 422,
// collaborator failures 502, anything else 400.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrInsufficientCollateral),
		errors.Is(err, domain.ErrOverpaymentRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCollateralLockFailed),
		errors.Is(err, domain.ErrDisbursementFailed),
		errors.Is(err, domain.ErrTransferFailed),
		errors.Is(err, domain.ErrLiquidationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
