package staff

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/resinflow/resinflow/internal/platform/httpx"
	"github.com/resinflow/resinflow/internal/shared"
)

// Store abstracts repository usage for the service.
type Store interface {
	List(ctx context.Context) ([]Staff, error)
	WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Input carries one create/update staff request.
type Input struct {
	Position  string
	Name      string
	WorkingID string
	Password  string
}

// Service keeps staff records and their login accounts in step. Every
// staff write also writes the mirrored users row inside one transaction.
type Service struct {
	store Store
	audit AuditPort
}

// NewService constructs a Service.
func NewService(store Store, audit AuditPort) *Service {
	return &Service{store: store, audit: audit}
}

// List returns every staff record.
func (s *Service) List(ctx context.Context) ([]Staff, error) {
	return s.store.List(ctx)
}

// Create adds a staff record plus its login account.
func (s *Service) Create(ctx context.Context, in Input) (Staff, error) {
	in, err := normalize(in)
	if err != nil {
		return Staff{}, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return Staff{}, err
	}

	var created Staff
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		if taken, err := tx.WorkingIDExists(ctx, in.WorkingID, 0); err != nil {
			return err
		} else if taken {
			return httpx.Conflict("Working ID already exists")
		}
		rec, err := tx.Insert(ctx, in.Position, in.Name, in.WorkingID, hash)
		if err != nil {
			return err
		}
		if err := tx.UpsertUser(ctx, in.Name, RoleForPosition(in.Position), in.WorkingID, hash); err != nil {
			return err
		}
		created = rec
		return nil
	})
	if err != nil {
		return Staff{}, err
	}
	s.record(ctx, "staff:create", created.ID, map[string]any{"working_id": created.WorkingID})
	return created, nil
}

// Update rewrites a staff record and keeps the login account in step,
// following a working id change if there is one.
func (s *Service) Update(ctx context.Context, id int64, in Input) (Staff, error) {
	in, err := normalize(in)
	if err != nil {
		return Staff{}, err
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return Staff{}, err
	}

	var updated Staff
	err = s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		old, found, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return httpx.NotFound("Staff not found")
		}
		if in.WorkingID != old.WorkingID {
			if taken, err := tx.WorkingIDExists(ctx, in.WorkingID, id); err != nil {
				return err
			} else if taken {
				return httpx.Conflict("Working ID already exists")
			}
		}
		rec, found, err := tx.Update(ctx, id, in.Position, in.Name, in.WorkingID, hash)
		if err != nil {
			return err
		}
		if !found {
			return httpx.NotFound("Staff not found")
		}
		if err := tx.RenameUser(ctx, old.WorkingID, in.Name, RoleForPosition(in.Position), in.WorkingID, hash); err != nil {
			return err
		}
		updated = rec
		return nil
	})
	if err != nil {
		return Staff{}, err
	}
	s.record(ctx, "staff:update", id, map[string]any{"working_id": updated.WorkingID})
	return updated, nil
}

// Delete removes a staff record and its login account.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx TxStore) error {
		rec, found, err := tx.Get(ctx, id)
		if err != nil {
			return err
		}
		if !found {
			return httpx.NotFound("Staff not found")
		}
		if _, err := tx.Delete(ctx, id); err != nil {
			return err
		}
		return tx.DeleteUser(ctx, rec.WorkingID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, "staff:delete", id, nil)
	return nil
}

func normalize(in Input) (Input, error) {
	in.Position = strings.TrimSpace(in.Position)
	in.Name = strings.TrimSpace(in.Name)
	in.WorkingID = strings.TrimSpace(in.WorkingID)
	if in.Position == "" || in.Name == "" || in.WorkingID == "" || in.Password == "" {
		return Input{}, httpx.Validation("Position, name, working ID and password are required")
	}
	return in, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
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
		Entity:   "staff",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
