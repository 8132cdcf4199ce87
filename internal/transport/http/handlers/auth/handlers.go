package authhandler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"tipsheet/internal/auth"
	domainauth "tipsheet/internal/domain/auth"
	"tipsheet/internal/requestctx"
	"tipsheet/internal/transport/http/api"
	"tipsheet/internal/transport/http/shared"
)

type Handler struct {
	Auth *domainauth.Service
}

func NewHandler(svc *domainauth.Service) *Handler {
	return &Handler{Auth: svc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/verify", h.HandleVerify)
	r.Post("/manager/auth", h.HandleManagerAuth)
}

type verifyRequest struct {
	Name string `json:"name"`
	PIN  string `json:"pin"`
}

type managerRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload verifyRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, requestID)
		return
	}

	name, err := h.Auth.VerifyEmployee(r.Context(), payload.Name, payload.PIN)
	if err != nil {
		shared.WriteError(w, r, err, requestID)
		return
	}
	h.issue(w, name, auth.RoleEmployee, requestID)
}

func (h *Handler) HandleManagerAuth(w http.ResponseWriter, r *http.Request) {
	requestID := requestctx.GetRequestID(r.Context())
	var payload managerRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		shared.FailPayload(w, requestID)
		return
	}

	if !h.Auth.VerifyManager(payload.Password) {
		shared.WriteError(w, r, domainauth.ErrInvalidCredentials, requestID)
		return
	}
	h.issue(w, "manager", auth.RoleManager, requestID)
}

func (h *Handler) issue(w http.ResponseWriter, name, role, requestID string) {
	session, err := h.Auth.IssueSession(name, role)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}
	api.Success(w, sessionResponse{
		Token:     session.Token,
		Name:      session.Name,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt.UTC(),
	}, requestID)
}
