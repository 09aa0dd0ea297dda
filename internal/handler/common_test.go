package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/rewear-exchange/internal/ledger"
)

func mapError(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := ledgerError(c, err); err != nil {
		t.Fatalf("ledgerError returned error: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	return rec, body
}

func TestLedgerErrorInsufficientPoints(t *testing.T) {
	rec, body := mapError(t, &ledger.InsufficientPointsError{Required: 450, Available: 300})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if body["deficit"] != float64(150) {
		t.Errorf("deficit = %v, want 150", body["deficit"])
	}
	if body["required"] != float64(450) || body["available"] != float64(300) {
		t.Errorf("unexpected payload: %v", body)
	}
}

func TestLedgerErrorInvalidTransition(t *testing.T) {
	rec, body := mapError(t, &ledger.InvalidTransitionError{From: "proposed", To: "completed"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if body["from"] != "proposed" || body["to"] != "completed" {
		t.Errorf("unexpected payload: %v", body)
	}
}

func TestLedgerErrorUnauthorized(t *testing.T) {
	rec, _ := mapError(t, &ledger.UnauthorizedError{ActorID: 7, Action: "approve items"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestLedgerErrorNotFound(t *testing.T) {
	rec, body := mapError(t, &ledger.NotFoundError{Kind: "item", ID: "12"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if body["error"] != "item not found" {
		t.Errorf("error = %v, want \"item not found\"", body["error"])
	}
}

func TestLedgerErrorSentinels(t *testing.T) {
	rec, _ := mapError(t, ledger.ErrItemNotAvailable)
	if rec.Code != http.StatusConflict {
		t.Errorf("not-available status = %d, want 409", rec.Code)
	}
	rec, _ = mapError(t, ledger.ErrBackendUnavailable)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("backend-unavailable status = %d, want 503", rec.Code)
	}
	rec, _ = mapError(t, errors.New("boom"))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("unknown error status = %d, want 500", rec.Code)
	}
}

func TestGetUserIDConversions(t *testing.T) {
	e := echo.New()
	for _, tc := range []struct {
		val  interface{}
		want uint64
	}{
		{uint64(5), 5},
		{int(6), 6},
		{int64(7), 7},
		{float64(8), 8}, // JWT numeric claims decode as float64
		{"9", 9},
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		c := e.NewContext(req, httptest.NewRecorder())
		c.Set("user_id", tc.val)
		got, err := getUserID(c)
		if err != nil || got != tc.want {
			t.Errorf("getUserID(%T %v) = %d, %v; want %d", tc.val, tc.val, got, err, tc.want)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if _, err := getUserID(c); err == nil {
		t.Errorf("missing user_id should error")
	}
}
