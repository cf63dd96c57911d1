package http

import (
	"errors"
	"net/http"
	"strconv"

	domain "nftlend-backend/internal/domain/loan"
	"nftlend-backend/internal/usecase/loan"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type originateReq struct {
	Borrower        string `json:"borrower" validate:"required,hex32"`
	NFTCollateralID uint64 `json:"nft_collateral_id" validate:"required"`
	LoanAmount      string `json:"loan_amount" validate:"required,amount"`
	InterestRateBps uint32 `json:"interest_rate_bps" validate:"lte=60000"`
	DurationMonths  uint32 `json:"duration_months" validate:"required,gte=1,lte=600"`
}

type paymentReq struct {
	Amount string `json:"amount" validate:"required,amount"`
}

func (h *LoanHandler) Originate(c echo.Context) error {
	var req originateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	amount, err := decimal.NewFromString(req.LoanAmount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_amount"})
	}

	dto, err := h.uc.Originate(c.Request().Context(), loan.OriginateInput{
		Borrower:        req.Borrower,
		NFTCollateralID: req.NFTCollateralID,
		LoanAmount:      amount,
		InterestRateBps: req.InterestRateBps,
		DurationMonths:  req.DurationMonths,
	})
	if err != nil {
		return c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	dto, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ListBorrowerLoans(c echo.Context) error {
	borrower := c.Param("borrower_id")
	if !reHex32.MatchString(borrower) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid borrower_id"})
	}
	dtos, err := h.uc.ListByBorrower(c.Request().Context(), borrower)
	if err != nil {
		return c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dtos)
}

func (h *LoanHandler) MakePayment(c echo.Context) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	var req paymentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: "validation failed", Details: ToFieldErrors(err)})
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid amount"})
	}

	dto, err := h.uc.MakePayment(c.Request().Context(), loanID, amount)
	if err != nil {
		return c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) CheckDefault(c echo.Context) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	dto, err := h.uc.CheckDefault(c.Request().Context(), loanID)
	if err != nil {
		// A failed liquidation does not undo the recorded default; report
		// both so the caller can retry via the liquidate endpoint.
		if dto != nil && errors.Is(err, domain.ErrLiquidationFailed) {
			return c.JSON(http.StatusBadGateway, map[string]any{"error": err.Error(), "loan": dto})
		}
		return c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) Liquidate(c echo.Context) error {
	loanID, err := parseLoanID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid loan_id"})
	}
	dto, err := h.uc.Liquidate(c.Request().Context(), loanID)
	if err != nil {
		return c.JSON(errorStatus(err), ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, dto)
}

func parseLoanID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("loan_id"), 10, 64)
}
