package products

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/resinflow/resinflow/internal/masterdata"
	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// Handler wires the product endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the products handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountSapRoutes registers /sap-products endpoints.
func (h *Handler) MountSapRoutes(r chi.Router) {
	r.Get("/", h.listSap)
	r.Post("/", h.createSap)
	r.Put("/{name}", h.updateSap)
	r.Delete("/{name}", h.deleteSap)
}

// MountEntryRoutes registers /entry-products endpoints.
func (h *Handler) MountEntryRoutes(r chi.Router) {
	r.Get("/", h.listEntries)
	r.Post("/", h.createEntry)
	r.Put("/{id}", h.updateEntry)
	r.Delete("/{id}", h.deleteEntry)
}

type sapRequest struct {
	SapName         string  `json:"sap_name" validate:"required"`
	NewSapName      string  `json:"new_sap_name"`
	PartDescription string  `json:"part_description" validate:"required"`
	Unit            string  `json:"unit" validate:"required"`
	Color           *string `json:"color"`
	Remarks         *string `json:"remarks"`
}

type entryProductRequest struct {
	ClientName   string          `json:"client_name" validate:"required"`
	ProductName  string          `json:"product_name" validate:"required"`
	ProductColor string          `json:"product_color" validate:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Date         string          `json:"date" validate:"required"`
}

func (h *Handler) listSap(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListSap(r.Context())
	if err != nil {
		h.logger.Error("list sap products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []SapProduct{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createSap(w http.ResponseWriter, r *http.Request) {
	var req sapRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.Validation("SAP name, part description and unit are required"))
		return
	}
	created, err := h.service.CreateSap(r.Context(), SapInput{
		SapName:         req.SapName,
		PartDescription: req.PartDescription,
		Unit:            req.Unit,
		Color:           req.Color,
		Remarks:         req.Remarks,
	})
	if err != nil {
		h.logger.Error("create sap product", slog.Any("error", err), slog.String("sap_name", req.SapName))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// updateSap keys the row by the path name. A rename passes the new name in
// new_sap_name; sap_name alone keeps the current one.
func (h *Handler) updateSap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	var req sapRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if req.NewSapName != "" {
		req.SapName = req.NewSapName
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.RespondError(w, httpx.Validation("SAP name, part description and unit are required"))
		return
	}
	updated, err := h.service.UpdateSap(r.Context(), name, SapInput{
		SapName:         req.SapName,
		PartDescription: req.PartDescription,
		Unit:            req.Unit,
		Color:           req.Color,
		Remarks:         req.Remarks,
	})
	if err != nil {
		h.logger.Error("update sap product", slog.Any("error", err), slog.String("sap_name", name))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteSap(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	outcome, err := h.service.DeleteSap(r.Context(), name)
	if err != nil {
		h.logger.Error("delete sap product", slog.Any("error", err), slog.String("sap_name", name))
		httpx.RespondError(w, err)
		return
	}
	if outcome == masterdata.OutcomeDeactivated {
		httpx.Message(w, http.StatusOK, "SAP product deactivated; it remains on existing entries")
		return
	}
	httpx.Message(w, http.StatusOK, "SAP product deleted successfully")
}

func (h *Handler) listEntries(w http.ResponseWriter, r *http.Request) {
	out, err := h.service.ListEntries(r.Context())
	if err != nil {
		h.logger.Error("list entry products", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if out == nil {
		out = []EntryProduct{}
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) createEntry(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeEntry(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	created, err := h.service.CreateEntry(r.Context(), in)
	if err != nil {
		h.logger.Error("create entry product", slog.Any("error", err), slog.String("product_name", in.ProductName))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

func (h *Handler) updateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := h.decodeEntry(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	updated, err := h.service.UpdateEntry(r.Context(), id, in)
	if err != nil {
		h.logger.Error("update entry product", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *Handler) deleteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteEntry(r.Context(), id); err != nil {
		h.logger.Error("delete entry product", slog.Any("error", err), slog.Int64("id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Entry deleted successfully")
}

func (h *Handler) decodeEntry(r *http.Request) (EntryInput, error) {
	var req entryProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return EntryInput{}, err
	}
	if err := h.validate.Struct(req); err != nil {
		return EntryInput{}, httpx.Validation("Client name, product name, product color, quantity and date are required")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return EntryInput{}, httpx.Validation("Date must be formatted as YYYY-MM-DD")
	}
	return EntryInput{
		ClientName:   req.ClientName,
		ProductName:  req.ProductName,
		ProductColor: req.ProductColor,
		Quantity:     req.Quantity,
		Date:         date,
	}, nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpx.Validation("Invalid id")
	}
	return id, nil
}
