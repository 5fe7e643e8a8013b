package rawstock

import (
	"context"
	"strconv"
	"strings"

	"github.com/resinflow/resinflow/internal/masterdata"
	"github.com/resinflow/resinflow/internal/platform/httpx"
	"github.com/resinflow/resinflow/internal/shared"
)

// Store abstracts repository usage for the service.
type Store interface {
	List(ctx context.Context) ([]Entry, error)
	MaterialGrades(ctx context.Context) ([]string, error)
	ColorsByGrade(ctx context.Context, grade string) ([]GradeColor, error)
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the raw stock aggregate rules. Every mutation keeps
// the stored totals equal to the sums over the detail rows.
type Service struct {
	store Store
	audit AuditPort
}

// NewService constructs a Service.
func NewService(store Store, audit AuditPort) *Service {
	return &Service{store: store, audit: audit}
}

// List returns every aggregate with its detail lines, newest first.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.store.List(ctx)
}

// MaterialGrades lists the distinct grades referenced by entries.
func (s *Service) MaterialGrades(ctx context.Context) ([]string, error) {
	return s.store.MaterialGrades(ctx)
}

// ColorsByGrade lists the colors referenced by entries of one grade.
func (s *Service) ColorsByGrade(ctx context.Context, grade string) ([]GradeColor, error) {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return nil, httpx.Validation("Material grade is required")
	}
	return s.store.ColorsByGrade(ctx, grade)
}

// Create validates the request, resolves the referenced master rows and
// inserts the aggregate with its lines in one transaction. Totals are
// derived from the lines before anything is written.
func (s *Service) Create(ctx context.Context, in EntryInput) (int64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	totals := ComputeTotals(in.Lines)

	var orderID int64
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if _, err := tx.ResolveMaterial(ctx, in.MaterialGrade, in.MaterialCode); err != nil {
			return err
		}
		id, err := tx.InsertEntry(ctx, recordFromInput(in, totals))
		if err != nil {
			return err
		}
		if err := s.insertLines(ctx, tx, id, in); err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, "rawstock:entry_create", orderID, map[string]any{
		"material_grade": in.MaterialGrade,
		"invoice_number": in.InvoiceNumber,
		"lines":          len(in.Lines),
	})
	return orderID, nil
}

// Update replaces the whole aggregate: the entry row is rewritten and the
// previous detail set is discarded before the new lines are inserted, so
// the stored rows always mirror the request exactly.
func (s *Service) Update(ctx context.Context, orderID int64, in EntryInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	totals := ComputeTotals(in.Lines)

	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if _, err := tx.ResolveMaterial(ctx, in.MaterialGrade, in.MaterialCode); err != nil {
			return err
		}
		found, err := tx.UpdateEntry(ctx, orderID, recordFromInput(in, totals))
		if err != nil {
			return err
		}
		if !found {
			return httpx.NotFound("Raw stock entry not found")
		}
		prevColors, err := tx.ListEntryColorIDs(ctx, orderID)
		if err != nil {
			return err
		}
		if err := tx.DeleteDetails(ctx, orderID); err != nil {
			return err
		}
		if err := s.insertLines(ctx, tx, orderID, in); err != nil {
			return err
		}
		return sweepOrphans(ctx, tx, prevColors)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "rawstock:entry_update", orderID, map[string]any{
		"material_grade": in.MaterialGrade,
		"lines":          len(in.Lines),
	})
	return nil
}

// Delete removes an aggregate with its lines and sweeps any custom colors
// the deleted lines were the last reference to.
func (s *Service) Delete(ctx context.Context, orderID int64) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		colorIDs, err := tx.ListEntryColorIDs(ctx, orderID)
		if err != nil {
			return err
		}
		found, err := tx.DeleteEntry(ctx, orderID)
		if err != nil {
			return err
		}
		if !found {
			return httpx.NotFound("Raw stock entry not found")
		}
		return sweepOrphans(ctx, tx, colorIDs)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "rawstock:entry_delete", orderID, nil)
	return nil
}

// DeleteLine removes one color line from an aggregate, sweeps the color if
// the line was its last reference, and recomputes the stored totals.
func (s *Service) DeleteLine(ctx context.Context, orderID, detailID int64) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		colorID, found, err := tx.GetDetailColor(ctx, orderID, detailID)
		if err != nil {
			return err
		}
		if !found {
			return httpx.NotFound("Color entry not found")
		}
		if _, err := tx.DeleteDetail(ctx, orderID, detailID); err != nil {
			return err
		}
		if colorID != nil {
			if err := tx.DeleteCustomColorIfOrphan(ctx, *colorID); err != nil {
				return err
			}
		}
		return tx.RecomputeTotals(ctx, orderID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "rawstock:line_delete", orderID, map[string]any{"detail_id": detailID})
	return nil
}

// insertLines resolves each line's color and writes the detail rows. Lines
// naming the same color (case-insensitively) share one master row, so the
// resolver is consulted once per distinct name.
func (s *Service) insertLines(ctx context.Context, tx TxStore, orderID int64, in EntryInput) error {
	resolved := make(map[string]int64)
	for _, line := range in.Lines {
		colorID := line.ColorID
		if colorID == nil {
			key := masterdata.FoldName(line.ColorName)
			id, ok := resolved[key]
			if !ok {
				var err error
				id, err = tx.ResolveColor(ctx, line.ColorName, line.IsCustom)
				if err != nil {
					return err
				}
				resolved[key] = id
			}
			colorID = &id
		}
		if err := tx.InsertDetail(ctx, orderID, colorID, line.Kgs, line.RatePerKg, in.MaterialGrade); err != nil {
			return err
		}
	}
	return nil
}

// sweepOrphans removes any custom color in ids that no detail row still
// references. Runs after the referencing rows are gone.
func sweepOrphans(ctx context.Context, tx TxStore, ids []int64) error {
	for _, id := range ids {
		if err := tx.DeleteCustomColorIfOrphan(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func recordFromInput(in EntryInput, totals Totals) EntryRecord {
	return EntryRecord{
		MaterialGrade: strings.TrimSpace(in.MaterialGrade),
		MaterialCode:  in.MaterialCode,
		VendorName:    in.VendorName,
		InvoiceNumber: strings.TrimSpace(in.InvoiceNumber),
		InvoiceDate:   in.InvoiceDate,
		Remarks:       in.Remarks,
		TotalKgs:      totals.Kgs,
		TotalAmount:   totals.Amount,
	}
}

func (s *Service) record(ctx context.Context, action string, orderID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if user := shared.UserFromContext(ctx); user != nil {
		actorID = user.ID
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "raw_stock_entry",
		EntityID: strconv.FormatInt(orderID, 10),
		Meta:     meta,
	})
}
