package timesheethandler

import (
	"encoding/json"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tipsheet/internal/auth"
	domainauth "tipsheet/internal/domain/auth"
	"tipsheet/internal/domain/timesheet"
	"tipsheet/internal/requestctx"
	"tipsheet/internal/transport/http/api"
	"tipsheet/internal/transport/http/middleware"
	"tipsheet/internal/transport/http/shared"
)

type Handler struct {
	Hours *timesheet.Service
	Auth  *domainauth.Service
}

func NewHandler(hours *timesheet.Service, authSvc *domainauth.Service) *Handler {
	return &Handler{Hours: hours, Auth: authSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.With(middleware.RequirePermission(auth.PermHoursSubmit)).Post("/hours", h.handleSubmitHours)
	r.With(middleware.RequirePermission(auth.PermHoursRead)).Get("/manager/hours/{date}", h.handleHoursForDate)
}

type hoursRequest struct {
	Date     string `json:"date"`
	ClockIn  string `json:"clockIn"`
	ClockOut string `json:"clockOut"`
}

type entryResponse struct {
	Employee    string      `json:"employee"`
	Date        string      `json:"date"`
	Sheet       string      `json:"sheet"`
	ClockIn     string      `json:"clockIn"`
	ClockOut    string      `json:"clockOut"`
	HoursWorked json.Number `json:"hoursWorked"`
}

type employeeHours struct {
	Name  string      `json:"name"`
	Hours json.Number `json:"hours"`
}

func number(d decimal.Decimal, places int32) json.Number {
	return json.Number(d.StringFixed(places))
}

func (h *Handler) handleSubmitHours(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	var payload hoursRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, requestID)
		return
	}

	date := h.Hours.Today()
	v := shared.NewValidator()
	if payload.Date != "" {
		date, _ = v.Date("date", payload.Date, h.Hours.Location())
	}
	v.Required("clockIn", payload.ClockIn, "is required")
	v.Required("clockOut", payload.ClockOut, "is required")
	if v.Reject(w, requestID) {
		return
	}

	// The token outlives roster edits; a removed employee may not submit.
	name, err := h.Auth.EmployeeActive(r.Context(), user.Name)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	entry, err := h.Hours.SubmitHours(r.Context(), name, date, payload.ClockIn, payload.ClockOut)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	api.Created(w, entryResponse{
		Employee:    entry.Employee,
		Date:        entry.Date.Format("2006-01-02"),
		Sheet:       timesheet.SheetTitle(entry.Date),
		ClockIn:     entry.ClockIn,
		ClockOut:    entry.ClockOut,
		HoursWorked: number(entry.Hours, 2),
	}, requestID)
}

func (h *Handler) handleHoursForDate(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	v := shared.NewValidator()
	date, _ := v.Date("date", chi.URLParam(r, "date"), h.Hours.Location())
	if v.Reject(w, requestID) {
		return
	}

	hours, err := h.Hours.HoursForDate(r.Context(), date)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}

	names := make([]string, 0, len(hours))
	total := decimal.Zero
	for name, value := range hours {
		names = append(names, name)
		total = total.Add(value)
	}
	sort.Strings(names)
	employees := make([]employeeHours, 0, len(names))
	for _, name := range names {
		employees = append(employees, employeeHours{Name: name, Hours: number(hours[name], 2)})
	}

	api.Success(w, map[string]any{
		"date":       date.Format("2006-01-02"),
		"sheet":      timesheet.SheetTitle(date),
		"employees":  employees,
		"totalHours": number(total, 2),
	}, requestID)
}
