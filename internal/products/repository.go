package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/resinflow/resinflow/internal/platform/db"
)

const sapColumns = `product_id, sap_name, part_description, unit, color, remarks, is_custom, is_active`

// Repository persists the product master and finished goods entries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxStore exposes the transactional operations used by the service.
type TxStore interface {
	FindSapByName(ctx context.Context, name string) (SapProduct, bool, error)
	InsertSap(ctx context.Context, in SapInput) (SapProduct, error)
	UpdateSap(ctx context.Context, name string, in SapInput) (SapProduct, bool, error)
	CountSapRefs(ctx context.Context, name string) (int64, error)
	DeactivateSap(ctx context.Context, name string) error
	DeleteSap(ctx context.Context, name string) error
}

// WithTx runs fn against a transactional store.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{q: tx})
	})
}

// ListSap returns active product master rows, predefined first.
func (r *Repository) ListSap(ctx context.Context) ([]SapProduct, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sapColumns+` FROM sap_products WHERE is_active ORDER BY is_custom, sap_name`)
	if err != nil {
		return nil, fmt.Errorf("products: list sap: %w", err)
	}
	defer rows.Close()

	var out []SapProduct
	for rows.Next() {
		p, err := scanSap(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListEntries returns finished goods entries, newest first.
func (r *Repository) ListEntries(ctx context.Context) ([]EntryProduct, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, client_name, product_name, product_color, quantity, date, created_at
		 FROM entry_products ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("products: list entries: %w", err)
	}
	defer rows.Close()

	var out []EntryProduct
	for rows.Next() {
		var (
			e        EntryProduct
			quantity pgtype.Numeric
			date     pgtype.Date
		)
		err := rows.Scan(&e.ID, &e.ClientName, &e.ProductName, &e.ProductColor, &quantity, &date, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("products: scan entry: %w", err)
		}
		e.Quantity = numericToDecimal(quantity)
		e.Date = date.Time
		out = append(out, e)
	}
	return out, rows.Err()
}

// InsertEntry adds a finished goods entry.
func (r *Repository) InsertEntry(ctx context.Context, in EntryInput) (EntryProduct, error) {
	var (
		e        EntryProduct
		quantity pgtype.Numeric
		date     pgtype.Date
	)
	err := r.pool.QueryRow(ctx,
		`INSERT INTO entry_products (client_name, product_name, product_color, quantity, date)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, client_name, product_name, product_color, quantity, date, created_at`,
		in.ClientName, in.ProductName, in.ProductColor,
		decimalToNumeric(in.Quantity), pgtype.Date{Time: in.Date, Valid: true},
	).Scan(&e.ID, &e.ClientName, &e.ProductName, &e.ProductColor, &quantity, &date, &e.CreatedAt)
	if err != nil {
		return EntryProduct{}, fmt.Errorf("products: insert entry: %w", err)
	}
	e.Quantity = numericToDecimal(quantity)
	e.Date = date.Time
	return e, nil
}

// UpdateEntry rewrites a finished goods entry.
func (r *Repository) UpdateEntry(ctx context.Context, id int64, in EntryInput) (EntryProduct, bool, error) {
	var (
		e        EntryProduct
		quantity pgtype.Numeric
		date     pgtype.Date
	)
	err := r.pool.QueryRow(ctx,
		`UPDATE entry_products
		 SET client_name = $1, product_name = $2, product_color = $3, quantity = $4, date = $5
		 WHERE id = $6
		 RETURNING id, client_name, product_name, product_color, quantity, date, created_at`,
		in.ClientName, in.ProductName, in.ProductColor,
		decimalToNumeric(in.Quantity), pgtype.Date{Time: in.Date, Valid: true}, id,
	).Scan(&e.ID, &e.ClientName, &e.ProductName, &e.ProductColor, &quantity, &date, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return EntryProduct{}, false, nil
	}
	if err != nil {
		return EntryProduct{}, false, fmt.Errorf("products: update entry: %w", err)
	}
	e.Quantity = numericToDecimal(quantity)
	e.Date = date.Time
	return e, true, nil
}

// DeleteEntry removes a finished goods entry.
func (r *Repository) DeleteEntry(ctx context.Context, id int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM entry_products WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("products: delete entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

type txStore struct {
	q pgx.Tx
}

func (s *txStore) FindSapByName(ctx context.Context, name string) (SapProduct, bool, error) {
	p, err := scanSap(s.q.QueryRow(ctx,
		`SELECT `+sapColumns+` FROM sap_products WHERE LOWER(sap_name) = LOWER($1)`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return SapProduct{}, false, nil
	}
	if err != nil {
		return SapProduct{}, false, err
	}
	return p, true, nil
}

func (s *txStore) InsertSap(ctx context.Context, in SapInput) (SapProduct, error) {
	p, err := scanSap(s.q.QueryRow(ctx,
		`INSERT INTO sap_products (sap_name, part_description, unit, color, remarks, is_custom, is_active)
		 VALUES ($1, $2, $3, $4, $5, TRUE, TRUE)
		 RETURNING `+sapColumns,
		in.SapName, in.PartDescription, in.Unit, in.Color, in.Remarks))
	if err != nil {
		return SapProduct{}, fmt.Errorf("products: insert sap: %w", err)
	}
	return p, nil
}

func (s *txStore) UpdateSap(ctx context.Context, name string, in SapInput) (SapProduct, bool, error) {
	p, err := scanSap(s.q.QueryRow(ctx,
		`UPDATE sap_products
		 SET sap_name = $1, part_description = $2, unit = $3, color = $4, remarks = $5
		 WHERE LOWER(sap_name) = LOWER($6)
		 RETURNING `+sapColumns,
		in.SapName, in.PartDescription, in.Unit, in.Color, in.Remarks, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return SapProduct{}, false, nil
	}
	if err != nil {
		return SapProduct{}, false, fmt.Errorf("products: update sap: %w", err)
	}
	return p, true, nil
}

func (s *txStore) CountSapRefs(ctx context.Context, name string) (int64, error) {
	var count int64
	err := s.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM entry_products WHERE LOWER(product_name) = LOWER($1)`, name,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("products: count sap refs: %w", err)
	}
	return count, nil
}

func (s *txStore) DeactivateSap(ctx context.Context, name string) error {
	_, err := s.q.Exec(ctx,
		`UPDATE sap_products SET is_active = FALSE WHERE LOWER(sap_name) = LOWER($1)`, name)
	if err != nil {
		return fmt.Errorf("products: deactivate sap: %w", err)
	}
	return nil
}

func (s *txStore) DeleteSap(ctx context.Context, name string) error {
	_, err := s.q.Exec(ctx,
		`DELETE FROM sap_products WHERE LOWER(sap_name) = LOWER($1)`, name)
	if err != nil {
		return fmt.Errorf("products: delete sap: %w", err)
	}
	return nil
}

func scanSap(row pgx.Row) (SapProduct, error) {
	var p SapProduct
	err := row.Scan(&p.ID, &p.SapName, &p.PartDescription, &p.Unit, &p.Color, &p.Remarks, &p.IsCustom, &p.IsActive)
	if err != nil {
		return SapProduct{}, err
	}
	return p, nil
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
