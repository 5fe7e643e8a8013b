package masterdata

import (
	"context"
	"strconv"
	"strings"

	"github.com/resinflow/resinflow/internal/platform/httpx"
	"github.com/resinflow/resinflow/internal/shared"
)

// Store abstracts repository usage for the service.
type Store interface {
	ListActiveColors(ctx context.Context) ([]Color, error)
	ListActiveMaterials(ctx context.Context) ([]Material, error)
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// TxStore exposes the transactional operations used by the service.
type TxStore interface {
	GetColor(ctx context.Context, id int64) (Color, error)
	FindActiveColorByName(ctx context.Context, name string) (Color, bool, error)
	ResolveOrCreateColor(ctx context.Context, name string, custom bool) (int64, error)
	CountColorRefs(ctx context.Context, id int64) (int64, error)
	DeactivateColor(ctx context.Context, id int64) error
	DeleteColor(ctx context.Context, id int64) error

	GetMaterial(ctx context.Context, id int64) (Material, error)
	FindMaterialByKey(ctx context.Context, grade string, code *string, excludeID int64) (Material, bool, error)
	ResolveOrCreateMaterial(ctx context.Context, grade string, code *string) (int64, error)
	UpdateMaterial(ctx context.Context, id int64, grade string, code *string) error
	CascadeMaterialRename(ctx context.Context, old Material, grade string, code *string) error
	CountMaterialRefs(ctx context.Context, grade string, code *string) (int64, error)
	DeactivateMaterial(ctx context.Context, id int64) error
	DeleteMaterial(ctx context.Context, id int64) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service implements the master-data consistency rules.
type Service struct {
	store Store
	audit AuditPort
}

// NewService constructs a Service.
func NewService(store Store, audit AuditPort) *Service {
	return &Service{store: store, audit: audit}
}

// ListColors returns active colors, predefined first.
func (s *Service) ListColors(ctx context.Context) ([]Color, error) {
	return s.store.ListActiveColors(ctx)
}

// CreateColor adds a color or reactivates an inactive row with the same
// name. A sequential duplicate of an active color is rejected; a concurrent
// duplicate resolves to the winner's row.
func (s *Service) CreateColor(ctx context.Context, name string) (Color, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Color{}, httpx.Validation("Color name is required")
	}

	var created Color
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if _, exists, err := tx.FindActiveColorByName(ctx, name); err != nil {
			return err
		} else if exists {
			return httpx.Conflict("Color already exists")
		}
		id, err := tx.ResolveOrCreateColor(ctx, name, true)
		if err != nil {
			return err
		}
		color, err := tx.GetColor(ctx, id)
		if err != nil {
			return err
		}
		created = color
		return nil
	})
	if err != nil {
		return Color{}, err
	}
	s.record(ctx, "masterdata:color_create", "color", created.ID, map[string]any{"color_name": created.Name})
	return created, nil
}

// DeleteColor soft deletes a color still referenced by stock lines and hard
// deletes an orphaned one.
func (s *Service) DeleteColor(ctx context.Context, id int64) (DeleteOutcome, error) {
	var outcome DeleteOutcome
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if _, err := tx.GetColor(ctx, id); err != nil {
			return err
		}
		lifecycle := ReferencedEntity{
			IsReferenced: func(ctx context.Context) (bool, error) {
				count, err := tx.CountColorRefs(ctx, id)
				return count > 0, err
			},
			SoftDelete: func(ctx context.Context) error { return tx.DeactivateColor(ctx, id) },
			HardDelete: func(ctx context.Context) error { return tx.DeleteColor(ctx, id) },
		}
		var err error
		outcome, err = lifecycle.Delete(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, "masterdata:color_delete", "color", id, map[string]any{"outcome": outcomeLabel(outcome)})
	return outcome, nil
}

// ListMaterials returns active materials ordered by grade then code.
func (s *Service) ListMaterials(ctx context.Context) ([]Material, error) {
	return s.store.ListActiveMaterials(ctx)
}

// CreateMaterial adds a material or reactivates an inactive row with the
// same (grade, code) identity.
func (s *Service) CreateMaterial(ctx context.Context, grade string, code *string) (Material, error) {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return Material{}, httpx.Validation("Material grade is required")
	}
	code = normalizeCode(code)

	var created Material
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if existing, exists, err := tx.FindMaterialByKey(ctx, grade, code, 0); err != nil {
			return err
		} else if exists && existing.IsActive {
			return httpx.Conflict("Material with this grade and code combination already exists")
		}
		id, err := tx.ResolveOrCreateMaterial(ctx, grade, code)
		if err != nil {
			return err
		}
		material, err := tx.GetMaterial(ctx, id)
		if err != nil {
			return err
		}
		created = material
		return nil
	})
	if err != nil {
		return Material{}, err
	}
	s.record(ctx, "masterdata:material_create", "material", created.ID, map[string]any{"material_grade": created.Grade})
	return created, nil
}

// UpdateMaterial renames a material's identity and cascades the rename into
// every historical stock row still carrying the old identity. All five
// steps share one transaction.
func (s *Service) UpdateMaterial(ctx context.Context, id int64, grade string, code *string) (Material, error) {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return Material{}, httpx.Validation("Material grade is required")
	}
	code = normalizeCode(code)

	var updated Material
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		old, err := tx.GetMaterial(ctx, id)
		if err != nil {
			return err
		}
		if other, exists, err := tx.FindMaterialByKey(ctx, grade, code, id); err != nil {
			return err
		} else if exists {
			// The unique index covers inactive rows too, so the rename is
			// rejected either way; an inactive match gets its own message
			// because it is not visible in the material listing.
			if !other.IsActive {
				return httpx.Conflict("This grade and code combination belongs to a deactivated material; create it to reactivate")
			}
			return httpx.Conflict("Another material with this grade and code combination already exists")
		}
		if err := tx.UpdateMaterial(ctx, id, grade, code); err != nil {
			return err
		}
		if err := tx.CascadeMaterialRename(ctx, old, grade, code); err != nil {
			return err
		}
		updated, err = tx.GetMaterial(ctx, id)
		return err
	})
	if err != nil {
		return Material{}, err
	}
	s.record(ctx, "masterdata:material_update", "material", id, map[string]any{"material_grade": grade})
	return updated, nil
}

// DeleteMaterial soft deletes a material referenced by stock entries and
// hard deletes an orphaned one.
func (s *Service) DeleteMaterial(ctx context.Context, id int64) (DeleteOutcome, error) {
	var outcome DeleteOutcome
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		material, err := tx.GetMaterial(ctx, id)
		if err != nil {
			return err
		}
		lifecycle := ReferencedEntity{
			IsReferenced: func(ctx context.Context) (bool, error) {
				count, err := tx.CountMaterialRefs(ctx, material.Grade, material.Code)
				return count > 0, err
			},
			SoftDelete: func(ctx context.Context) error { return tx.DeactivateMaterial(ctx, id) },
			HardDelete: func(ctx context.Context) error { return tx.DeleteMaterial(ctx, id) },
		}
		outcome, err = lifecycle.Delete(ctx)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.record(ctx, "masterdata:material_delete", "material", id, map[string]any{"outcome": outcomeLabel(outcome)})
	return outcome, nil
}

func (s *Service) record(ctx context.Context, action, entity string, id int64, meta map[string]any) {
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
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}

func outcomeLabel(outcome DeleteOutcome) string {
	if outcome == OutcomeDeactivated {
		return "deactivated"
	}
	return "removed"
}

// normalizeCode trims the code and collapses empty strings to absent.
func normalizeCode(code *string) *string {
	if code == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*code)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
