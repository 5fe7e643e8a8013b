package rawstock

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// Handler wires the raw stock endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *validator.Validate
}

// NewHandler constructs the raw stock handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: validator.New()}
}

// MountRoutes registers /raw-stock endpoints.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Put("/{id}", h.update)
	r.Delete("/{id}", h.delete)
	r.Delete("/{id}/color/{detailId}", h.deleteLine)
	r.Get("/material-grades", h.materialGrades)
	r.Get("/material/{grade}/colors", h.colorsByGrade)
}

type lineRequest struct {
	ColorID   *int64          `json:"color_id"`
	ColorName string          `json:"color_name"`
	IsCustom  bool            `json:"is_custom"`
	Kgs       decimal.Decimal `json:"kgs"`
	RatePerKg decimal.Decimal `json:"rate_per_kg"`
}

type entryRequest struct {
	MaterialGrade string        `json:"material_grade" validate:"required"`
	MaterialCode  *string       `json:"material_code"`
	VendorName    *string       `json:"vendor_name"`
	InvoiceNumber string        `json:"invoice_number" validate:"required"`
	InvoiceDate   string        `json:"invoice_date" validate:"required"`
	Remarks       *string       `json:"remarks"`
	Colors        []lineRequest `json:"colors" validate:"required,min=1"`
}

type createResponse struct {
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list raw stock", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSON(w, http.StatusOK, entries)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	in, err := h.decodeEntry(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	orderID, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create raw stock entry", slog.Any("error", err),
			slog.String("invoice_number", in.InvoiceNumber))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, createResponse{Message: "Raw stock entry created", OrderID: orderID})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	in, err := h.decodeEntry(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Update(r.Context(), orderID, in); err != nil {
		h.logger.Error("update raw stock entry", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Raw stock entry updated")
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), orderID); err != nil {
		h.logger.Error("delete raw stock entry", slog.Any("error", err), slog.Int64("order_id", orderID))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Raw stock entry deleted")
}

func (h *Handler) deleteLine(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathInt64(r, "id")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	detailID, err := pathInt64(r, "detailId")
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.DeleteLine(r.Context(), orderID, detailID); err != nil {
		h.logger.Error("delete raw stock line", slog.Any("error", err),
			slog.Int64("order_id", orderID), slog.Int64("detail_id", detailID))
		httpx.RespondError(w, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Color entry deleted")
}

func (h *Handler) materialGrades(w http.ResponseWriter, r *http.Request) {
	grades, err := h.service.MaterialGrades(r.Context())
	if err != nil {
		h.logger.Error("list material grades", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if grades == nil {
		grades = []string{}
	}
	httpx.JSON(w, http.StatusOK, grades)
}

func (h *Handler) colorsByGrade(w http.ResponseWriter, r *http.Request) {
	grade := chi.URLParam(r, "grade")
	colors, err := h.service.ColorsByGrade(r.Context(), grade)
	if err != nil {
		h.logger.Error("list colors by grade", slog.Any("error", err), slog.String("grade", grade))
		httpx.RespondError(w, err)
		return
	}
	if colors == nil {
		colors = []GradeColor{}
	}
	httpx.JSON(w, http.StatusOK, colors)
}

// decodeEntry parses and validates a create/update payload into an
// EntryInput ready for the service.
func (h *Handler) decodeEntry(r *http.Request) (EntryInput, error) {
	var req entryRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return EntryInput{}, err
	}
	if err := h.validate.Struct(req); err != nil {
		return EntryInput{}, httpx.Validation("Material grade, invoice number, invoice date and at least one color line are required")
	}
	invoiceDate, err := time.Parse("2006-01-02", req.InvoiceDate)
	if err != nil {
		return EntryInput{}, httpx.Validation("Invoice date must be formatted as YYYY-MM-DD")
	}
	in := EntryInput{
		MaterialGrade: req.MaterialGrade,
		MaterialCode:  req.MaterialCode,
		VendorName:    req.VendorName,
		InvoiceNumber: req.InvoiceNumber,
		InvoiceDate:   invoiceDate,
		Remarks:       req.Remarks,
		Lines:         make([]LineInput, 0, len(req.Colors)),
	}
	for _, line := range req.Colors {
		in.Lines = append(in.Lines, LineInput{
			ColorID:   line.ColorID,
			ColorName: line.ColorName,
			IsCustom:  line.IsCustom,
			Kgs:       line.Kgs,
			RatePerKg: line.RatePerKg,
		})
	}
	return in, nil
}

func pathInt64(r *http.Request, key string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil || v <= 0 {
		return 0, httpx.Validation("Invalid id")
	}
	return v, nil
}
