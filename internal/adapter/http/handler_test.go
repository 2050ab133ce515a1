package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestHealth_ReturnsOKWithRFC3339NanoUTC(t *testing.T) {
	e := echo.New()
	h := NewHandler()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	start := time.Now().UTC()
	if err := h.Health(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	ct := rec.Header().Get(echo.HeaderContentType)
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		t.Fatalf("expected Content-Type application/json, got %q", ct)
	}

	var body struct {
		Status string `json:"status"`
		Time   string `json:"time"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v; raw=%s", err, rec.Body.String())
	}
	if body.Status != "ok" {
		t.Fatalf(`expected status "ok", got %q`, body.Status)
	}
	parsed, err := time.Parse(time.RFC3339Nano, body.Time)
	if err != nil {
		t.Fatalf("time not RFC3339Nano: %v (value=%q)", err, body.Time)
	}
	now := time.Now().UTC()
	if parsed.Before(start.Add(-2*time.Second)) || parsed.After(now.Add(2*time.Second)) {
		t.Fatalf("time not within expected window: parsed=%v start=%v now=%v", parsed, start, now)
	}
}

func TestRegister_RoutesAndMutatingMiddleware(t *testing.T) {
	e := newEchoWithValidator()
	var wrapped []string
	mark := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			wrapped = append(wrapped, c.Request().Method+" "+c.Path())
			return next(c)
		}
	}
	Register(e, NewHandler(), newLoanHandler(&deps{}), mark)

	do := func(method, path, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := do(http.MethodGet, "/health", ""); code != http.StatusOK {
		t.Fatalf("GET /health = %d", code)
	}
	if code := do(http.MethodPost, "/api/loans", `{"user_id":"u1","book_id":"b1","days":5}`); code != http.StatusCreated {
		t.Fatalf("POST /api/loans = %d", code)
	}
	if code := do(http.MethodGet, "/api/loans/loan-1", ""); code != http.StatusOK {
		t.Fatalf("GET /api/loans/loan-1 = %d", code)
	}
	if code := do(http.MethodPost, "/api/loans/loan-1/return", ""); code != http.StatusOK {
		t.Fatalf("POST return = %d", code)
	}
	if code := do(http.MethodGet, "/api/debug/loans", ""); code != http.StatusOK {
		t.Fatalf("GET /api/debug/loans = %d", code)
	}

	want := []string{"POST /api/loans", "POST /api/loans/:loan_id/return"}
	if len(wrapped) != len(want) || wrapped[0] != want[0] || wrapped[1] != want[1] {
		t.Fatalf("middleware ran on %v, want %v", wrapped, want)
	}
}

func TestRegister_NilMiddleware(t *testing.T) {
	e := newEchoWithValidator()
	Register(e, NewHandler(), newLoanHandler(&deps{}), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/debug/loans", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
