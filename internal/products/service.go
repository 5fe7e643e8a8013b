package products

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
	ListSap(ctx context.Context) ([]SapProduct, error)
	ListEntries(ctx context.Context) ([]EntryProduct, error)
	InsertEntry(ctx context.Context, in EntryInput) (EntryProduct, error)
	UpdateEntry(ctx context.Context, id int64, in EntryInput) (EntryProduct, bool, error)
	DeleteEntry(ctx context.Context, id int64) (bool, error)
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the product master and finished goods rules.
type Service struct {
	store Store
	audit AuditPort
}

// NewService constructs a Service.
func NewService(store Store, audit AuditPort) *Service {
	return &Service{store: store, audit: audit}
}

// ListSap returns the active product master.
func (s *Service) ListSap(ctx context.Context) ([]SapProduct, error) {
	return s.store.ListSap(ctx)
}

// CreateSap adds a product master row. A row with the same name, active
// or not, blocks the create.
func (s *Service) CreateSap(ctx context.Context, in SapInput) (SapProduct, error) {
	if err := in.Validate(); err != nil {
		return SapProduct{}, err
	}
	in = in.trimmed()

	var created SapProduct
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if _, exists, err := tx.FindSapByName(ctx, in.SapName); err != nil {
			return err
		} else if exists {
			return httpx.Conflict("SAP product already exists")
		}
		p, err := tx.InsertSap(ctx, in)
		if err != nil {
			return err
		}
		created = p
		return nil
	})
	if err != nil {
		return SapProduct{}, err
	}
	s.record(ctx, "products:sap_create", created.ID, map[string]any{"sap_name": created.SapName})
	return created, nil
}

// UpdateSap rewrites a product master row keyed by its current name.
func (s *Service) UpdateSap(ctx context.Context, name string, in SapInput) (SapProduct, error) {
	if err := in.Validate(); err != nil {
		return SapProduct{}, err
	}
	in = in.trimmed()

	var updated SapProduct
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if !strings.EqualFold(in.SapName, name) {
			if _, exists, err := tx.FindSapByName(ctx, in.SapName); err != nil {
				return err
			} else if exists {
				return httpx.Conflict("SAP product already exists")
			}
		}
		p, found, err := tx.UpdateSap(ctx, name, in)
		if err != nil {
			return err
		}
		if !found {
			return httpx.NotFound("SAP product not found")
		}
		updated = p
		return nil
	})
	if err != nil {
		return SapProduct{}, err
	}
	s.record(ctx, "products:sap_update", updated.ID, map[string]any{"sap_name": updated.SapName})
	return updated, nil
}

// DeleteSap soft deletes a product still named by finished goods entries
// and hard deletes an unused one.
func (s *Service) DeleteSap(ctx context.Context, name string) (masterdata.DeleteOutcome, error) {
	var outcome masterdata.DeleteOutcome
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		product, found, err := tx.FindSapByName(ctx, name)
		if err != nil {
			return err
		}
		if !found {
			return httpx.NotFound("SAP product not found")
		}
		lifecycle := masterdata.ReferencedEntity{
			IsReferenced: func(ctx context.Context) (bool, error) {
				count, err := tx.CountSapRefs(ctx, product.SapName)
				return count > 0, err
			},
			SoftDelete: func(ctx context.Context) error { return tx.DeactivateSap(ctx, product.SapName) },
			HardDelete: func(ctx context.Context) error { return tx.DeleteSap(ctx, product.SapName) },
		}
		outcome, err = lifecycle.Delete(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, "products:sap_delete", 0, map[string]any{"sap_name": name})
	return outcome, nil
}

// ListEntries returns the finished goods entries.
func (s *Service) ListEntries(ctx context.Context) ([]EntryProduct, error) {
	return s.store.ListEntries(ctx)
}

// CreateEntry adds a finished goods entry.
func (s *Service) CreateEntry(ctx context.Context, in EntryInput) (EntryProduct, error) {
	if err := in.Validate(); err != nil {
		return EntryProduct{}, err
	}
	created, err := s.store.InsertEntry(ctx, in)
	if err != nil {
		return EntryProduct{}, err
	}
	s.record(ctx, "products:entry_create", created.ID, map[string]any{"product_name": created.ProductName})
	return created, nil
}

// UpdateEntry rewrites a finished goods entry.
func (s *Service) UpdateEntry(ctx context.Context, id int64, in EntryInput) (EntryProduct, error) {
	if err := in.Validate(); err != nil {
		return EntryProduct{}, err
	}
	updated, found, err := s.store.UpdateEntry(ctx, id, in)
	if err != nil {
		return EntryProduct{}, err
	}
	if !found {
		return EntryProduct{}, httpx.NotFound("Entry not found")
	}
	s.record(ctx, "products:entry_update", id, nil)
	return updated, nil
}

// DeleteEntry removes a finished goods entry.
func (s *Service) DeleteEntry(ctx context.Context, id int64) error {
	found, err := s.store.DeleteEntry(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return httpx.NotFound("Entry not found")
	}
	s.record(ctx, "products:entry_delete", id, nil)
	return nil
}

func (in SapInput) trimmed() SapInput {
	in.SapName = strings.TrimSpace(in.SapName)
	in.PartDescription = strings.TrimSpace(in.PartDescription)
	in.Unit = strings.TrimSpace(in.Unit)
	return in
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
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
		Entity:   "sap_product",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
