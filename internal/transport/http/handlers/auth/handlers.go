package authhandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/auth"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Service interface {
	Login(ctx context.Context, email, password string) (auth.LoginResult, error)
}

type Handler struct {
	Service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{Service: service}
}

// RegisterRoutes mounts the public auth routes. They sit outside RequireAuth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/login", h.HandleLogin)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	var payload loginRequest
	if err := shared.DecodeJSON(r, &payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
		return
	}
	v := shared.NewValidator()
	v.Required("email", payload.Email, "is required")
	if strings.TrimSpace(payload.Email) != "" {
		if _, err := mail.ParseAddress(strings.TrimSpace(payload.Email)); err != nil {
			v.Add("email", "must be a valid email address")
		}
	}
	v.Required("password", payload.Password, "is required")
	if v.Reject(w, requestID) {
		return
	}

	result, err := h.Service.Login(r.Context(), payload.Email, payload.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
		return
	}
	if err != nil {
		slog.Warn("login failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "token_error", "failed to issue token", requestID)
		return
	}
	api.Success(w, result, requestID)
}
