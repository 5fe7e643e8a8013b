package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resinflow/resinflow/internal/platform/db"
)

// Repository persists staff records and their mirrored login accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxStore exposes the transactional operations used by the service.
type TxStore interface {
	WorkingIDExists(ctx context.Context, workingID string, excludeStaffID int64) (bool, error)
	Insert(ctx context.Context, position, name, workingID, passwordHash string) (Staff, error)
	Get(ctx context.Context, id int64) (Staff, bool, error)
	Update(ctx context.Context, id int64, position, name, workingID, passwordHash string) (Staff, bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	UpsertUser(ctx context.Context, name, role, workingID, passwordHash string) error
	RenameUser(ctx context.Context, oldWorkingID, name, role, workingID, passwordHash string) error
	DeleteUser(ctx context.Context, workingID string) error
}

// WithTx runs fn against a transactional store.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{q: tx})
	})
}

// List returns every staff record, newest first.
func (r *Repository) List(ctx context.Context) ([]Staff, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT staff_id, position, name, working_id, created_at
		 FROM staff ORDER BY created_at DESC, staff_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("staff: list: %w", err)
	}
	defer rows.Close()

	var records []Staff
	for rows.Next() {
		var s Staff
		if err := rows.Scan(&s.ID, &s.Position, &s.Name, &s.WorkingID, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("staff: scan: %w", err)
		}
		records = append(records, s)
	}
	return records, rows.Err()
}

type txStore struct {
	q pgx.Tx
}

func (s *txStore) WorkingIDExists(ctx context.Context, workingID string, excludeStaffID int64) (bool, error) {
	var exists bool
	err := s.q.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM users u
		   WHERE u.working_id = $1
		   AND NOT EXISTS (SELECT 1 FROM staff st WHERE st.working_id = u.working_id AND st.staff_id = $2)
		 )`, workingID, excludeStaffID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("staff: check working id: %w", err)
	}
	return exists, nil
}

func (s *txStore) Insert(ctx context.Context, position, name, workingID, passwordHash string) (Staff, error) {
	var rec Staff
	err := s.q.QueryRow(ctx,
		`INSERT INTO staff (position, name, working_id, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING staff_id, position, name, working_id, created_at`,
		position, name, workingID, passwordHash,
	).Scan(&rec.ID, &rec.Position, &rec.Name, &rec.WorkingID, &rec.CreatedAt)
	if err != nil {
		return Staff{}, fmt.Errorf("staff: insert: %w", err)
	}
	return rec, nil
}

func (s *txStore) Get(ctx context.Context, id int64) (Staff, bool, error) {
	var rec Staff
	err := s.q.QueryRow(ctx,
		`SELECT staff_id, position, name, working_id, created_at FROM staff WHERE staff_id = $1`, id,
	).Scan(&rec.ID, &rec.Position, &rec.Name, &rec.WorkingID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, false, nil
	}
	if err != nil {
		return Staff{}, false, fmt.Errorf("staff: get: %w", err)
	}
	return rec, true, nil
}

func (s *txStore) Update(ctx context.Context, id int64, position, name, workingID, passwordHash string) (Staff, bool, error) {
	var rec Staff
	err := s.q.QueryRow(ctx,
		`UPDATE staff SET position = $1, name = $2, working_id = $3, password_hash = $4
		 WHERE staff_id = $5
		 RETURNING staff_id, position, name, working_id, created_at`,
		position, name, workingID, passwordHash, id,
	).Scan(&rec.ID, &rec.Position, &rec.Name, &rec.WorkingID, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Staff{}, false, nil
	}
	if err != nil {
		return Staff{}, false, fmt.Errorf("staff: update: %w", err)
	}
	return rec, true, nil
}

func (s *txStore) Delete(ctx context.Context, id int64) (bool, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM staff WHERE staff_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("staff: delete: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *txStore) UpsertUser(ctx context.Context, name, role, workingID, passwordHash string) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO users (name, role, working_id, password_hash, is_active)
		 VALUES ($1, $2, $3, $4, TRUE)
		 ON CONFLICT (working_id) DO UPDATE
		 SET name = EXCLUDED.name, role = EXCLUDED.role, password_hash = EXCLUDED.password_hash, is_active = TRUE`,
		name, role, workingID, passwordHash)
	if err != nil {
		return fmt.Errorf("staff: upsert user: %w", err)
	}
	return nil
}

func (s *txStore) RenameUser(ctx context.Context, oldWorkingID, name, role, workingID, passwordHash string) error {
	_, err := s.q.Exec(ctx,
		`UPDATE users SET name = $1, role = $2, working_id = $3, password_hash = $4
		 WHERE working_id = $5`,
		name, role, workingID, passwordHash, oldWorkingID)
	if err != nil {
		return fmt.Errorf("staff: rename user: %w", err)
	}
	return nil
}

func (s *txStore) DeleteUser(ctx context.Context, workingID string) error {
	_, err := s.q.Exec(ctx, `DELETE FROM users WHERE working_id = $1`, workingID)
	if err != nil {
		return fmt.Errorf("staff: delete user: %w", err)
	}
	return nil
}
