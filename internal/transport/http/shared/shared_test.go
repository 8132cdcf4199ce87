package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	domainauth "tipsheet/internal/domain/auth"
	"tipsheet/internal/domain/timesheet"
)

func TestValidator(t *testing.T) {
	v := NewValidator()
	v.Required("name", " ", "is required")
	if _, ok := v.Amount("amount", json.Number("1.234")); ok {
		t.Fatal("expected too many decimal places")
	}
	if _, ok := v.Date("date", "2026-02-30", time.UTC); ok {
		t.Fatal("expected invalid date")
	}
	if _, ok := v.Date("date", "2026-02-28", time.UTC); !ok {
		t.Fatal("expected valid date")
	}

	issues := v.Issues()
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %v", issues)
	}
	if issues[0].Field != "amount" || issues[1].Field != "date" || issues[2].Field != "name" {
		t.Fatalf("expected issues sorted by field, got %v", issues)
	}

	rec := httptest.NewRecorder()
	if !v.Reject(rec, "req-1") {
		t.Fatal("expected rejection")
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"field":"amount"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestAmount(t *testing.T) {
	cases := map[string]bool{"500": true, "0": true, "12.50": true, "-1": false, "1.005": false, "abc": false, "": false,
		"1e400": false, "1000000000": true, "1000000000.01": false, "1e9": true}
	for raw, ok := range cases {
		v := NewValidator()
		if _, got := v.Amount("totalTips", json.Number(raw)); got != ok {
			t.Fatalf("%q: expected ok=%v, issues %v", raw, ok, v.Issues())
		}
	}
}

func TestWriteError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domainauth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{fmt.Errorf("%w: \"9\"", timesheet.ErrInvalidTimeFormat), http.StatusBadRequest, "invalid_time_format"},
		{fmt.Errorf("%w: bad", timesheet.ErrInvalidInput), http.StatusBadRequest, "validation_error"},
		{timesheet.ErrDuplicateEntry, http.StatusConflict, "duplicate_entry"},
		{timesheet.ErrMonthClosed, http.StatusConflict, "month_closed"},
		{timesheet.ErrNoHoursRecorded, http.StatusUnprocessableEntity, "no_hours_recorded"},
		{timesheet.ErrTipsNotFound, http.StatusNotFound, "tips_not_found"},
		{fmt.Errorf("write: %w", timesheet.ErrStoreUnavailable), http.StatusServiceUnavailable, "store_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, "req")
		if rec.Code != tc.status || !strings.Contains(rec.Body.String(), `"code":"`+tc.code+`"`) {
			t.Fatalf("%v: expected %d %s, got %d %s", tc.err, tc.status, tc.code, rec.Code, rec.Body.String())
		}
		if tc.status == http.StatusServiceUnavailable && rec.Header().Get("Retry-After") == "" {
			t.Fatal("expected Retry-After on store outage")
		}
	}
}
