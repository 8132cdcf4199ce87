package shared

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "tipsheet/internal/domain/auth"
	"tipsheet/internal/domain/timesheet"
	"tipsheet/internal/transport/http/api"
)

const retryAfterSeconds = "5"

// WriteError maps a domain failure to the response envelope. Messages never
// reveal roster contents.
func WriteError(w http.ResponseWriter, r *http.Request, err error, requestID string) {
	switch {
	case errors.Is(err, domainauth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
	case errors.Is(err, timesheet.ErrInvalidTimeFormat):
		api.Fail(w, http.StatusBadRequest, "invalid_time_format", "time must be HH:MM in 24-hour format", requestID)
	case errors.Is(err, timesheet.ErrInvalidInput):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, timesheet.ErrDuplicateEntry):
		api.Fail(w, http.StatusConflict, "duplicate_entry", "hours already submitted for this date", requestID)
	case errors.Is(err, timesheet.ErrMonthClosed):
		api.Fail(w, http.StatusConflict, "month_closed", "this month is closed for submissions", requestID)
	case errors.Is(err, timesheet.ErrNoHoursRecorded):
		api.Fail(w, http.StatusUnprocessableEntity, "no_hours_recorded", "no hours recorded for this date", requestID)
	case errors.Is(err, timesheet.ErrTipsNotFound):
		api.Fail(w, http.StatusNotFound, "tips_not_found", "no tips recorded for this date", requestID)
	case timesheet.Retryable(err):
		slog.Warn("backing store unavailable", "path", r.URL.Path, "requestId", requestID, "err", err)
		w.Header().Set("Retry-After", retryAfterSeconds)
		api.Fail(w, http.StatusServiceUnavailable, "store_unavailable", "service temporarily unavailable, please retry", requestID)
	default:
		slog.Error("request failed", "path", r.URL.Path, "requestId", requestID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
