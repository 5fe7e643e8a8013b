package masterdata

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// Handler wires the color and material endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the master-data handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountColorRoutes registers /colors endpoints.
func (h *Handler) MountColorRoutes(r chi.Router) {
	r.Get("/", h.listColors)
	r.Post("/", h.createColor)
	r.Delete("/{id}", h.deleteColor)
}

// MountMaterialRoutes registers /materials endpoints.
func (h *Handler) MountMaterialRoutes(r chi.Router) {
	r.Get("/", h.listMaterials)
	r.Post("/", h.createMaterial)
	r.Put("/{id}", h.updateMaterial)
	r.Delete("/{id}", h.deleteMaterial)
}

type createColorRequest struct {
	ColorName string `json:"color_name" validate:"required"`
}

type materialRequest struct {
	MaterialGrade string  `json:"material_grade" validate:"required"`
	MaterialCode  *string `json:"material_code"`
}

func (h *Handler) listColors(w http.ResponseWriter, r *http.Request) {
	colors, err := h.service.ListColors(r.Context())
	if err != nil {
		h.logger.Error("list colors", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if colors == nil {
		colors = []Color{}
	}
	httpx.JSON(w, http.StatusOK, colors)
}

func (h *Handler) createColor(w http.ResponseWriter, r *http.Request) {
	var req createColorRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.Validation("Color name is required"))
		return
	}
	color, err := h.service.CreateColor(r.Context(), req.ColorName)
	if err != nil {
		h.logger.Error("create color", slog.Any("error", err), slog.String("color_name", req.ColorName))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, color)
}

func (h *Handler) deleteColor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	outcome, err := h.service.DeleteColor(r.Context(), id)
	if err != nil {
		h.logger.Error("delete color", slog.Any("error", err), slog.Int64("color_id", id))
		httpx.RespondError(w, err)
		return
	}
	if outcome == OutcomeDeactivated {
		httpx.Message(w, http.StatusOK, "Color deactivated; it remains on historical stock entries")
		return
	}
	httpx.Message(w, http.StatusOK, "Color deleted successfully")
}

func (h *Handler) listMaterials(w http.ResponseWriter, r *http.Request) {
	materials, err := h.service.ListMaterials(r.Context())
	if err != nil {
		h.logger.Error("list materials", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if materials == nil {
		materials = []Material{}
	}
	httpx.JSON(w, http.StatusOK, materials)
}

func (h *Handler) createMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.Validation("Material grade is required"))
		return
	}
	material, err := h.service.CreateMaterial(r.Context(), req.MaterialGrade, req.MaterialCode)
	if err != nil {
		h.logger.Error("create material", slog.Any("error", err), slog.String("material_grade", req.MaterialGrade))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, material)
}

func (h *Handler) updateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req materialRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.Validation("Material grade is required"))
		return
	}
	material, err := h.service.UpdateMaterial(r.Context(), id, req.MaterialGrade, req.MaterialCode)
	if err != nil {
		h.logger.Error("update material", slog.Any("error", err), slog.Int64("material_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, material)
}

func (h *Handler) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	outcome, err := h.service.DeleteMaterial(r.Context(), id)
	if err != nil {
		h.logger.Error("delete material", slog.Any("error", err), slog.Int64("material_id", id))
		httpx.RespondError(w, err)
		return
	}
	if outcome == OutcomeDeactivated {
		httpx.Message(w, http.StatusOK, "Material deactivated; existing raw stock entries keep the historical grade")
		return
	}
	httpx.Message(w, http.StatusOK, "Material deleted successfully")
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.Validation("Invalid id")
	}
	return id, nil
}
