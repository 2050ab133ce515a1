package http

import (
	"errors"
	"net/http"

	domain "loans-service/internal/domain/loan"
	"loans-service/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

const defaultLoanDays = 14

type LoanHandler struct{ uc *loan.Usecase }

func NewLoanHandler(uc *loan.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type createLoanReq struct {
	UserID string `json:"user_id" validate:"required,notblank,max=128"`
	BookID string `json:"book_id" validate:"required,notblank,max=128"`
	// Days is optional; out-of-range values are rejected by the workflow.
	Days *int `json:"days"`
}

type returnLoanResp struct {
	Message string        `json:"message"`
	Loan    *loan.LoanDTO `json:"loan"`
}

func (h *LoanHandler) CreateLoan(c echo.Context) error {
	var req createLoanReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	days := defaultLoanDays
	if req.Days != nil {
		days = *req.Days
	}

	dto, err := h.uc.Create(c.Request().Context(), loan.CreateLoanInput{
		UserID: req.UserID,
		BookID: req.BookID,
		Days:   days,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	dto, err := h.uc.Get(c.Request().Context(), c.Param("loan_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) ReturnLoan(c echo.Context) error {
	loanID := c.Param("loan_id")
	if loanID == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing loan_id path param"})
	}
	dto, err := h.uc.Return(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, returnLoanResp{Message: "loan returned", Loan: dto})
}

// DebugLoans lists the ids of every stored loan.
func (h *LoanHandler) DebugLoans(c echo.Context) error {
	summary, err := h.uc.Summary(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, summary)
}

// Eligibility failures go out as 400 and lookup failures as 404, both with
// the bare sentinel text. Everything else is a 500 with no detail.
var (
	badRequestErrs = []error{
		domain.ErrInvalidDuration,
		domain.ErrUserNotActive,
		domain.ErrLoanLimitExceeded,
		domain.ErrBookNotAvailable,
	}
	notFoundErrs = []error{
		domain.ErrLoanNotFound,
		domain.ErrLoanNotActive,
	}
)

func writeError(c echo.Context, err error) error {
	for _, target := range badRequestErrs {
		if errors.Is(err, target) {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: target.Error()})
		}
	}
	for _, target := range notFoundErrs {
		if errors.Is(err, target) {
			return c.JSON(http.StatusNotFound, ErrorResponse{Error: target.Error()})
		}
	}
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}
