package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// Repository loads account rows from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindByWorkingID fetches an account by its working id.
func (r *Repository) FindByWorkingID(ctx context.Context, workingID string) (User, error) {
	var u User
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, working_id, name, role, password_hash, is_active, created_at
		 FROM users WHERE working_id = $1`, workingID).
		Scan(&u.ID, &u.WorkingID, &u.Name, &u.Role, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, httpx.ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("auth: find user: %w", err)
	}
	return u, nil
}
