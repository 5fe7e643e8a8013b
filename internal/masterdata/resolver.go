package masterdata

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"

	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and pgx.Tx,
// so resolution can run standalone or inside a caller's transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Resolver turns name-like identifiers into stable master-row ids, creating
// or reactivating rows as needed without ever duplicating an active name.
type Resolver struct{}

// NewResolver constructs a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// FoldName normalizes a name for case-insensitive comparison, matching the
// LOWER() collation used by the unique indexes.
func FoldName(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// ResolveOrCreateColor returns the id of the color matching name
// (case-insensitive). An inactive match is reactivated; a missing name is
// inserted. When a concurrent insert wins the unique race, the winner's id
// is re-resolved instead of surfacing the constraint violation.
func (r *Resolver) ResolveOrCreateColor(ctx context.Context, q Querier, name string, custom bool) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, httpx.Validation("Color name is required")
	}

	id, found, err := r.findColorByName(ctx, q, name)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	// ON CONFLICT keeps a lost insert race from aborting the enclosing
	// transaction; the duplicate simply yields no row.
	err = q.QueryRow(ctx,
		`INSERT INTO colors (color_name, is_custom, is_active) VALUES ($1, $2, TRUE)
		 ON CONFLICT DO NOTHING
		 RETURNING color_id`,
		name, custom,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("masterdata: insert color: %w", err)
	}

	// Lost the insert race; the winner's committed row is visible to this
	// statement under read committed.
	id, found, err = r.findColorByName(ctx, q, name)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("masterdata: color %q vanished after conflicting insert", name)
	}
	return id, nil
}

// findColorByName matches any row regardless of activity and reactivates an
// inactive match before returning it.
func (r *Resolver) findColorByName(ctx context.Context, q Querier, name string) (int64, bool, error) {
	var (
		id     int64
		active bool
	)
	err := q.QueryRow(ctx,
		`SELECT color_id, is_active FROM colors WHERE LOWER(color_name) = LOWER($1)`,
		name,
	).Scan(&id, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("masterdata: find color: %w", err)
	}
	if !active {
		if _, err := q.Exec(ctx, `UPDATE colors SET is_active = TRUE WHERE color_id = $1`, id); err != nil {
			return 0, false, fmt.Errorf("masterdata: reactivate color: %w", err)
		}
	}
	return id, true, nil
}

// ResolveOrCreateMaterial mirrors color resolution keyed by the
// (grade, code) pair.
func (r *Resolver) ResolveOrCreateMaterial(ctx context.Context, q Querier, grade string, code *string) (int64, error) {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return 0, httpx.Validation("Material grade is required")
	}

	id, found, err := r.findMaterialByKey(ctx, q, grade, code)
	if err != nil {
		return 0, err
	}
	if found {
		return id, nil
	}

	err = q.QueryRow(ctx,
		`INSERT INTO materials (material_grade, material_code, is_active) VALUES ($1, $2, TRUE)
		 ON CONFLICT DO NOTHING
		 RETURNING material_id`,
		grade, code,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("masterdata: insert material: %w", err)
	}

	id, found, err = r.findMaterialByKey(ctx, q, grade, code)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("masterdata: material %q vanished after conflicting insert", grade)
	}
	return id, nil
}

func (r *Resolver) findMaterialByKey(ctx context.Context, q Querier, grade string, code *string) (int64, bool, error) {
	var (
		id     int64
		active bool
	)
	err := q.QueryRow(ctx,
		`SELECT material_id, is_active FROM materials WHERE material_grade = $1 AND material_code IS NOT DISTINCT FROM $2`,
		grade, code,
	).Scan(&id, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("masterdata: find material: %w", err)
	}
	if !active {
		if _, err := q.Exec(ctx, `UPDATE materials SET is_active = TRUE WHERE material_id = $1`, id); err != nil {
			return 0, false, fmt.Errorf("masterdata: reactivate material: %w", err)
		}
	}
	return id, true, nil
}
