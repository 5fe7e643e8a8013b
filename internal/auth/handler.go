package auth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/resinflow/resinflow/internal/platform/httpx"
	"github.com/resinflow/resinflow/internal/shared"
)

// Handler wires the authentication endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the auth handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers /auth endpoints. Login stays public, logout and
// the identity probe sit behind the token middleware.
func (h *Handler) MountRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Post("/login", h.login)
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/logout", h.logout)
		r.Get("/me", h.me)
	})
}

type loginRequest struct {
	WorkingID string `json:"working_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.Validation("Working ID and password are required"))
		return
	}
	session, err := h.service.Login(r.Context(), req.WorkingID, req.Password)
	if err != nil {
		h.logger.Warn("login rejected", slog.String("working_id", req.WorkingID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		httpx.Message(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	if err := h.service.Logout(r.Context(), token); err != nil {
		h.logger.Error("logout", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Logged out")
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user := shared.UserFromContext(r.Context())
	if user == nil {
		httpx.Message(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}
