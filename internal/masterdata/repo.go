package masterdata

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/resinflow/resinflow/internal/platform/db"
	"github.com/resinflow/resinflow/internal/platform/httpx"
)

// Repository persists master data in PostgreSQL.
type Repository struct {
	pool     *pgxpool.Pool
	resolver *Resolver
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, resolver *Resolver) *Repository {
	return &Repository{pool: pool, resolver: resolver}
}

const colorColumns = `color_id, color_name, is_custom, is_active, created_at`

const materialColumns = `material_id, material_grade, material_code, is_active, created_at`

// ListActiveColors returns active colors, predefined rows first.
func (r *Repository) ListActiveColors(ctx context.Context) ([]Color, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+colorColumns+` FROM colors WHERE is_active ORDER BY is_custom, color_name`)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list colors: %w", err)
	}
	defer rows.Close()
	return scanColors(rows)
}

// ListActiveMaterials returns active materials ordered by grade then code.
func (r *Repository) ListActiveMaterials(ctx context.Context) ([]Material, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE is_active ORDER BY material_grade, material_code`)
	if err != nil {
		return nil, fmt.Errorf("masterdata: list materials: %w", err)
	}
	defer rows.Close()
	return scanMaterials(rows)
}

// WithTx runs fn against a transactional store.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{q: tx, resolver: r.resolver})
	})
}

type txStore struct {
	q        Querier
	resolver *Resolver
}

func (s *txStore) GetColor(ctx context.Context, id int64) (Color, error) {
	var c Color
	err := s.q.QueryRow(ctx,
		`SELECT `+colorColumns+` FROM colors WHERE color_id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.IsCustom, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Color{}, httpx.NotFound("Color not found")
	}
	if err != nil {
		return Color{}, fmt.Errorf("masterdata: get color: %w", err)
	}
	return c, nil
}

func (s *txStore) FindActiveColorByName(ctx context.Context, name string) (Color, bool, error) {
	var c Color
	err := s.q.QueryRow(ctx,
		`SELECT `+colorColumns+` FROM colors WHERE LOWER(color_name) = LOWER($1) AND is_active`, name,
	).Scan(&c.ID, &c.Name, &c.IsCustom, &c.IsActive, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Color{}, false, nil
	}
	if err != nil {
		return Color{}, false, fmt.Errorf("masterdata: find active color: %w", err)
	}
	return c, true, nil
}

func (s *txStore) ResolveOrCreateColor(ctx context.Context, name string, custom bool) (int64, error) {
	return s.resolver.ResolveOrCreateColor(ctx, s.q, name, custom)
}

func (s *txStore) CountColorRefs(ctx context.Context, id int64) (int64, error) {
	var count int64
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM entry_raw_stock_details WHERE color_id = $1`, id,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("masterdata: count color refs: %w", err)
	}
	return count, nil
}

func (s *txStore) DeactivateColor(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `UPDATE colors SET is_active = FALSE WHERE color_id = $1`, id)
	if err != nil {
		return fmt.Errorf("masterdata: deactivate color: %w", err)
	}
	return nil
}

func (s *txStore) DeleteColor(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM colors WHERE color_id = $1`, id)
	if err != nil {
		return fmt.Errorf("masterdata: delete color: %w", err)
	}
	return nil
}

func (s *txStore) GetMaterial(ctx context.Context, id int64) (Material, error) {
	var m Material
	err := s.q.QueryRow(ctx,
		`SELECT `+materialColumns+` FROM materials WHERE material_id = $1`, id,
	).Scan(&m.ID, &m.Grade, &m.Code, &m.IsActive, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Material{}, httpx.NotFound("Material not found")
	}
	if err != nil {
		return Material{}, fmt.Errorf("masterdata: get material: %w", err)
	}
	return m, nil
}

func (s *txStore) FindMaterialByKey(ctx context.Context, grade string, code *string, excludeID int64) (Material, bool, error) {
	var m Material
	err := s.q.QueryRow(ctx,
		`SELECT `+materialColumns+` FROM materials
		 WHERE material_grade = $1 AND material_code IS NOT DISTINCT FROM $2 AND material_id <> $3`,
		grade, code, excludeID,
	).Scan(&m.ID, &m.Grade, &m.Code, &m.IsActive, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Material{}, false, nil
	}
	if err != nil {
		return Material{}, false, fmt.Errorf("masterdata: find material by key: %w", err)
	}
	return m, true, nil
}

func (s *txStore) ResolveOrCreateMaterial(ctx context.Context, grade string, code *string) (int64, error) {
	return s.resolver.ResolveOrCreateMaterial(ctx, s.q, grade, code)
}

func (s *txStore) UpdateMaterial(ctx context.Context, id int64, grade string, code *string) error {
	tag, err := s.q.Exec(ctx,
		`UPDATE materials SET material_grade = $1, material_code = $2 WHERE material_id = $3`,
		grade, code, id)
	if err != nil {
		return fmt.Errorf("masterdata: update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return httpx.NotFound("Material not found")
	}
	return nil
}

// CascadeMaterialRename pushes the new identity into every historical stock
// row still carrying the old one. Detail rows denormalize only the grade.
func (s *txStore) CascadeMaterialRename(ctx context.Context, old Material, grade string, code *string) error {
	_, err := s.q.Exec(ctx,
		`UPDATE entry_raw_stock SET material_grade = $1, material_code = $2
		 WHERE material_grade = $3 AND material_code IS NOT DISTINCT FROM $4`,
		grade, code, old.Grade, old.Code)
	if err != nil {
		return fmt.Errorf("masterdata: cascade rename into entries: %w", err)
	}
	_, err = s.q.Exec(ctx,
		`UPDATE entry_raw_stock_details SET material_grade = $1 WHERE material_grade = $2`,
		grade, old.Grade)
	if err != nil {
		return fmt.Errorf("masterdata: cascade rename into details: %w", err)
	}
	return nil
}

func (s *txStore) CountMaterialRefs(ctx context.Context, grade string, code *string) (int64, error) {
	var count int64
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM entry_raw_stock
		 WHERE material_grade = $1 AND material_code IS NOT DISTINCT FROM $2`,
		grade, code,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("masterdata: count material refs: %w", err)
	}
	return count, nil
}

func (s *txStore) DeactivateMaterial(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `UPDATE materials SET is_active = FALSE WHERE material_id = $1`, id)
	if err != nil {
		return fmt.Errorf("masterdata: deactivate material: %w", err)
	}
	return nil
}

func (s *txStore) DeleteMaterial(ctx context.Context, id int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM materials WHERE material_id = $1`, id)
	if err != nil {
		return fmt.Errorf("masterdata: delete material: %w", err)
	}
	return nil
}

func scanColors(rows pgx.Rows) ([]Color, error) {
	var colors []Color
	for rows.Next() {
		var c Color
		if err := rows.Scan(&c.ID, &c.Name, &c.IsCustom, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}

func scanMaterials(rows pgx.Rows) ([]Material, error) {
	var materials []Material
	for rows.Next() {
		var m Material
		if err := rows.Scan(&m.ID, &m.Grade, &m.Code, &m.IsActive, &m.CreatedAt); err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}
