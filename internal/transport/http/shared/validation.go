package shared

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tipsheet/internal/domain/timesheet"
	"tipsheet/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{issues: make([]ValidationIssue, 0, 4)}
}

func (v *Validator) Add(field, reason string) {
	if v == nil {
		return
	}
	field = strings.TrimSpace(field)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{
		Field:  field,
		Reason: reason,
	})
}

func (v *Validator) Required(field, value, reason string) {
	if strings.TrimSpace(value) == "" {
		v.Add(field, reason)
	}
}

func (v *Validator) Date(field, raw string, loc *time.Location) (time.Time, bool) {
	parsed, err := ParseDate(raw, loc)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

// Amount parses a non-negative money amount given as a JSON number or a
// numeric string, bounded by timesheet.MaxTotalTips.
func (v *Validator) Amount(field string, raw json.Number) (decimal.Decimal, bool) {
	if strings.TrimSpace(raw.String()) == "" {
		v.Add(field, "is required")
		return decimal.Zero, false
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(raw.String()))
	if err != nil {
		v.Add(field, "must be a number")
		return decimal.Zero, false
	}
	if amount.IsNegative() {
		v.Add(field, "must not be negative")
		return decimal.Zero, false
	}
	if amount.GreaterThan(timesheet.MaxTotalTips) {
		v.Add(field, "must not exceed "+timesheet.MaxTotalTips.String())
		return decimal.Zero, false
	}
	if amount.Exponent() < -2 {
		v.Add(field, "must have at most 2 decimal places")
		return decimal.Zero, false
	}
	return amount, true
}

func (v *Validator) HasIssues() bool {
	return v != nil && len(v.issues) > 0
}

func (v *Validator) Issues() []ValidationIssue {
	if v == nil || len(v.issues) == 0 {
		return nil
	}
	out := make([]ValidationIssue, len(v.issues))
	copy(out, v.issues)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(
		w,
		http.StatusBadRequest,
		"validation_error",
		"payload validation failed",
		map[string]any{"fields": issues},
		requestID,
	)
}

// DecodeJSON decodes a single JSON object, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func FailPayload(w http.ResponseWriter, requestID string) {
	api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
}
