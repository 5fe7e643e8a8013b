package staff

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// Handler wires the staff endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the staff handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers /staff endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type staffRequest struct {
	Position  string `json:"position" validate:"required"`
	Name      string `json:"name" validate:"required"`
	WorkingID string `json:"working_id" validate:"required"`
	Password  string `json:"password" validate:"required"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list staff", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if records == nil {
		records = []Staff{}
	}
	httpx.JSON(w, http.StatusOK, records)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create staff", slog.Any("error", err), slog.String("working_id", in.WorkingID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := h.decode(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update staff", slog.Any("error", err), slog.Int64("staff_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete staff", slog.Any("error", err), slog.Int64("staff_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Staff deleted successfully")
}

func (h *Handler) decode(r *http.Request) (Input, error) {
	var req staffRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return Input{}, err
	}
	if err := h.validate.Struct(req); err != nil {
		return Input{}, httpx.Validation("Position, name, working ID and password are required")
	}
	return Input{
		Position:  req.Position,
		Name:      req.Name,
		WorkingID: req.WorkingID,
		Password:  req.Password,
	}, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.Validation("Invalid id")
	}
	return id, nil
}
