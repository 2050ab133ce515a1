package http

import (
	"net/http"
	"time"

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

// Register mounts every route on e. mutating wraps the endpoints that change
// loan state, it may be nil.
func Register(e *echo.Echo, h *Handler, loans *LoanHandler, mutating echo.MiddlewareFunc) {
	var mw []echo.MiddlewareFunc
	if mutating != nil {
		mw = append(mw, mutating)
	}

	e.GET("/health", h.Health)

	api := e.Group("/api")
	api.POST("/loans", loans.CreateLoan, mw...)
	api.GET("/loans/:loan_id", loans.GetLoan)
	api.POST("/loans/:loan_id/return", loans.ReturnLoan, mw...)
	api.GET("/debug/loans", loans.DebugLoans)
}
