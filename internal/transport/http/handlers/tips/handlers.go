package tipshandler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"tipsheet/internal/auth"
	"tipsheet/internal/domain/timesheet"
	"tipsheet/internal/platform/report"
	"tipsheet/internal/requestctx"
	"tipsheet/internal/transport/http/api"
	"tipsheet/internal/transport/http/middleware"
	"tipsheet/internal/transport/http/shared"
)

// Notifier is told about every successful tip submission.
type Notifier interface {
	EnqueuePayoutSummary(daily timesheet.DailyTips)
}

type Handler struct {
	Hours  *timesheet.Service
	Notify Notifier
}

func NewHandler(hours *timesheet.Service, notify Notifier) *Handler {
	return &Handler{Hours: hours, Notify: notify}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/manager/tips", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermTipsWrite)).Post("/", h.handleSubmitTips)
		r.With(middleware.RequirePermission(auth.PermTipsRead)).Get("/{date}", h.handleDailyTotals)
		r.With(middleware.RequirePermission(auth.PermTipsRead)).Get("/{date}/report.pdf", h.handleReport)
	})
}

type tipsRequest struct {
	Date      string      `json:"date"`
	TotalTips json.Number `json:"totalTips"`
}

type payoutLine struct {
	Name   string      `json:"name"`
	Hours  json.Number `json:"hours"`
	Payout json.Number `json:"payout"`
}

type dailyResponse struct {
	Date       string       `json:"date"`
	Sheet      string       `json:"sheet"`
	TotalTips  json.Number  `json:"totalTips"`
	TotalHours json.Number  `json:"totalHours"`
	TipRate    json.Number  `json:"tipRate"`
	Payouts    []payoutLine `json:"payouts"`
}

func number(d decimal.Decimal, places int32) json.Number {
	return json.Number(d.StringFixed(places))
}

func toResponse(daily timesheet.DailyTips) dailyResponse {
	p := daily.Payouts
	lines := make([]payoutLine, 0, len(p.ByEmployee))
	for _, name := range p.Employees() {
		lines = append(lines, payoutLine{Name: name, Hours: number(p.Hours[name], 2), Payout: number(p.ByEmployee[name], 2)})
	}
	return dailyResponse{
		Date:       daily.Date.Format("2006-01-02"),
		Sheet:      daily.Sheet,
		TotalTips:  number(p.TotalTips, 2),
		TotalHours: number(p.TotalHours, 2),
		TipRate:    number(p.TipRate, 4),
		Payouts:    lines,
	}
}

func (h *Handler) handleSubmitTips(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload tipsRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, requestID)
		return
	}

	v := shared.NewValidator()
	date := h.Hours.Today()
	if payload.Date != "" {
		date, _ = v.Date("date", payload.Date, h.Hours.Location())
	}
	total, _ := v.Amount("totalTips", payload.TotalTips)
	if v.Reject(w, requestID) {
		return
	}

	daily, err := h.Hours.SubmitDailyTips(r.Context(), date, total)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	if h.Notify != nil {
		h.Notify.EnqueuePayoutSummary(daily)
	}
	api.Success(w, toResponse(daily), requestID)
}

func (h *Handler) dailyTotals(w http.ResponseWriter, r *http.Request) (timesheet.DailyTips, bool) {
	requestID := requestctx.GetRequestID(r.Context())
	v := shared.NewValidator()
	date, _ := v.Date("date", chi.URLParam(r, "date"), h.Hours.Location())
	if v.Reject(w, requestID) {
		return timesheet.DailyTips{}, false
	}
	daily, err := h.Hours.DailyTotals(r.Context(), date)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return timesheet.DailyTips{}, false
	}
	return daily, true
}

func (h *Handler) handleDailyTotals(w http.ResponseWriter, r *http.Request) {
	daily, ok := h.dailyTotals(w, r)
	if !ok {
		return
	}
	api.Success(w, toResponse(daily), requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	daily, ok := h.dailyTotals(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.DailyPayouts(&buf, daily); err != nil {
		shared.WriteError(w, r, err, requestctx.GetRequestID(r.Context()))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="tips-`+daily.Date.Format("2006-01-02")+`.pdf"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
