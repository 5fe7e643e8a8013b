package rawstock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/resinflow/resinflow/internal/masterdata"
	"github.com/resinflow/resinflow/internal/platform/db"
)

// Repository persists raw stock aggregates in PostgreSQL.
type Repository struct {
	pool     *pgxpool.Pool
	resolver *masterdata.Resolver
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool, resolver *masterdata.Resolver) *Repository {
	return &Repository{pool: pool, resolver: resolver}
}

// EntryRecord is the aggregate row shape written by the transactional store.
type EntryRecord struct {
	MaterialGrade string
	MaterialCode  *string
	VendorName    *string
	InvoiceNumber string
	InvoiceDate   time.Time
	Remarks       *string
	TotalKgs      decimal.Decimal
	TotalAmount   decimal.Decimal
}

// TxStore exposes the transactional operations used by the service.
type TxStore interface {
	ResolveColor(ctx context.Context, name string, custom bool) (int64, error)
	ResolveMaterial(ctx context.Context, grade string, code *string) (int64, error)
	InsertEntry(ctx context.Context, rec EntryRecord) (int64, error)
	UpdateEntry(ctx context.Context, orderID int64, rec EntryRecord) (bool, error)
	DeleteEntry(ctx context.Context, orderID int64) (bool, error)
	DeleteDetails(ctx context.Context, orderID int64) error
	InsertDetail(ctx context.Context, orderID int64, colorID *int64, kgs, rate decimal.Decimal, grade string) error
	GetDetailColor(ctx context.Context, orderID, detailID int64) (*int64, bool, error)
	DeleteDetail(ctx context.Context, orderID, detailID int64) (bool, error)
	ListEntryColorIDs(ctx context.Context, orderID int64) ([]int64, error)
	DeleteCustomColorIfOrphan(ctx context.Context, colorID int64) error
	RecomputeTotals(ctx context.Context, orderID int64) error
}

// WithTx runs fn against a transactional store.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxStore) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txStore{q: tx, resolver: r.resolver})
	})
}

// List returns every aggregate, newest first, with its ordered detail rows.
// Colors are left-joined so removed masters render as "Unknown".
func (r *Repository) List(ctx context.Context) ([]Entry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT order_id, material_grade, material_code, vendor_name, invoice_number,
		        invoice_date, total_kgs, total_amount, remarks, created_at
		 FROM entry_raw_stock ORDER BY created_at DESC, order_id DESC`)
	if err != nil {
		return nil, fmt.Errorf("rawstock: list entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	index := make(map[int64]int)
	for rows.Next() {
		var (
			e           Entry
			invoiceDate pgtype.Date
			totalKgs    pgtype.Numeric
			totalAmount pgtype.Numeric
		)
		err := rows.Scan(&e.OrderID, &e.MaterialGrade, &e.MaterialCode, &e.VendorName,
			&e.InvoiceNumber, &invoiceDate, &totalKgs, &totalAmount, &e.Remarks, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("rawstock: scan entry: %w", err)
		}
		e.InvoiceDate = invoiceDate.Time
		e.TotalKgs = numericToDecimal(totalKgs)
		e.TotalAmount = numericToDecimal(totalAmount)
		e.Details = []Detail{}
		index[e.OrderID] = len(entries)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rawstock: list entries: %w", err)
	}

	detailRows, err := r.pool.Query(ctx,
		`SELECT d.detail_id, d.order_id, d.color_id, COALESCE(c.color_name, 'Unknown'),
		        d.kgs, d.rate_per_kg, d.material_grade
		 FROM entry_raw_stock_details d
		 LEFT JOIN colors c ON c.color_id = d.color_id
		 ORDER BY d.order_id, d.detail_id`)
	if err != nil {
		return nil, fmt.Errorf("rawstock: list details: %w", err)
	}
	defer detailRows.Close()

	for detailRows.Next() {
		var (
			d    Detail
			kgs  pgtype.Numeric
			rate pgtype.Numeric
		)
		err := detailRows.Scan(&d.DetailID, &d.OrderID, &d.ColorID, &d.ColorName, &kgs, &rate, &d.MaterialGrade)
		if err != nil {
			return nil, fmt.Errorf("rawstock: scan detail: %w", err)
		}
		d.Kgs = numericToDecimal(kgs)
		d.RatePerKg = numericToDecimal(rate)
		if i, ok := index[d.OrderID]; ok {
			entries[i].Details = append(entries[i].Details, d)
		}
	}
	if err := detailRows.Err(); err != nil {
		return nil, fmt.Errorf("rawstock: list details: %w", err)
	}
	return entries, nil
}

// MaterialGrades lists the distinct grades used by existing entries.
func (r *Repository) MaterialGrades(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT material_grade FROM entry_raw_stock ORDER BY material_grade`)
	if err != nil {
		return nil, fmt.Errorf("rawstock: material grades: %w", err)
	}
	defer rows.Close()

	var grades []string
	for rows.Next() {
		var grade string
		if err := rows.Scan(&grade); err != nil {
			return nil, err
		}
		grades = append(grades, grade)
	}
	return grades, rows.Err()
}

// ColorsByGrade lists the colors referenced by entries of one grade.
func (r *Repository) ColorsByGrade(ctx context.Context, grade string) ([]GradeColor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT c.color_id, c.color_name, c.is_custom
		 FROM entry_raw_stock_details d
		 JOIN colors c ON c.color_id = d.color_id
		 WHERE d.material_grade = $1
		 ORDER BY c.color_name`, grade)
	if err != nil {
		return nil, fmt.Errorf("rawstock: colors by grade: %w", err)
	}
	defer rows.Close()

	var colors []GradeColor
	for rows.Next() {
		var c GradeColor
		if err := rows.Scan(&c.ColorID, &c.ColorName, &c.IsCustom); err != nil {
			return nil, err
		}
		colors = append(colors, c)
	}
	return colors, rows.Err()
}

type txStore struct {
	q        masterdata.Querier
	resolver *masterdata.Resolver
}

func (s *txStore) ResolveColor(ctx context.Context, name string, custom bool) (int64, error) {
	return s.resolver.ResolveOrCreateColor(ctx, s.q, name, custom)
}

func (s *txStore) ResolveMaterial(ctx context.Context, grade string, code *string) (int64, error) {
	return s.resolver.ResolveOrCreateMaterial(ctx, s.q, grade, code)
}

func (s *txStore) InsertEntry(ctx context.Context, rec EntryRecord) (int64, error) {
	var orderID int64
	err := s.q.QueryRow(ctx,
		`INSERT INTO entry_raw_stock
		   (material_grade, material_code, vendor_name, invoice_number, invoice_date, total_kgs, total_amount, remarks)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING order_id`,
		rec.MaterialGrade, rec.MaterialCode, rec.VendorName, rec.InvoiceNumber,
		pgtype.Date{Time: rec.InvoiceDate, Valid: true},
		decimalToNumeric(rec.TotalKgs), decimalToNumeric(rec.TotalAmount), rec.Remarks,
	).Scan(&orderID)
	if err != nil {
		return 0, fmt.Errorf("rawstock: insert entry: %w", err)
	}
	return orderID, nil
}

func (s *txStore) UpdateEntry(ctx context.Context, orderID int64, rec EntryRecord) (bool, error) {
	tag, err := s.q.Exec(ctx,
		`UPDATE entry_raw_stock
		 SET material_grade = $1, material_code = $2, vendor_name = $3, invoice_number = $4,
		     invoice_date = $5, total_kgs = $6, total_amount = $7, remarks = $8
		 WHERE order_id = $9`,
		rec.MaterialGrade, rec.MaterialCode, rec.VendorName, rec.InvoiceNumber,
		pgtype.Date{Time: rec.InvoiceDate, Valid: true},
		decimalToNumeric(rec.TotalKgs), decimalToNumeric(rec.TotalAmount), rec.Remarks, orderID)
	if err != nil {
		return false, fmt.Errorf("rawstock: update entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *txStore) DeleteEntry(ctx context.Context, orderID int64) (bool, error) {
	tag, err := s.q.Exec(ctx, `DELETE FROM entry_raw_stock WHERE order_id = $1`, orderID)
	if err != nil {
		return false, fmt.Errorf("rawstock: delete entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *txStore) DeleteDetails(ctx context.Context, orderID int64) error {
	_, err := s.q.Exec(ctx, `DELETE FROM entry_raw_stock_details WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("rawstock: delete details: %w", err)
	}
	return nil
}

func (s *txStore) InsertDetail(ctx context.Context, orderID int64, colorID *int64, kgs, rate decimal.Decimal, grade string) error {
	_, err := s.q.Exec(ctx,
		`INSERT INTO entry_raw_stock_details (order_id, color_id, kgs, rate_per_kg, material_grade)
		 VALUES ($1, $2, $3, $4, $5)`,
		orderID, colorID, decimalToNumeric(kgs), decimalToNumeric(rate), grade)
	if err != nil {
		return fmt.Errorf("rawstock: insert detail: %w", err)
	}
	return nil
}

func (s *txStore) GetDetailColor(ctx context.Context, orderID, detailID int64) (*int64, bool, error) {
	var colorID *int64
	err := s.q.QueryRow(ctx,
		`SELECT color_id FROM entry_raw_stock_details WHERE detail_id = $1 AND order_id = $2`,
		detailID, orderID,
	).Scan(&colorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("rawstock: get detail: %w", err)
	}
	return colorID, true, nil
}

func (s *txStore) DeleteDetail(ctx context.Context, orderID, detailID int64) (bool, error) {
	tag, err := s.q.Exec(ctx,
		`DELETE FROM entry_raw_stock_details WHERE detail_id = $1 AND order_id = $2`,
		detailID, orderID)
	if err != nil {
		return false, fmt.Errorf("rawstock: delete detail: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (s *txStore) ListEntryColorIDs(ctx context.Context, orderID int64) ([]int64, error) {
	rows, err := s.q.Query(ctx,
		`SELECT DISTINCT color_id FROM entry_raw_stock_details
		 WHERE order_id = $1 AND color_id IS NOT NULL`, orderID)
	if err != nil {
		return nil, fmt.Errorf("rawstock: list entry colors: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteCustomColorIfOrphan removes a custom color that no detail row
// references anymore. Predefined colors are never swept.
func (s *txStore) DeleteCustomColorIfOrphan(ctx context.Context, colorID int64) error {
	_, err := s.q.Exec(ctx,
		`DELETE FROM colors c WHERE c.color_id = $1 AND c.is_custom
		 AND NOT EXISTS (SELECT 1 FROM entry_raw_stock_details d WHERE d.color_id = c.color_id)`,
		colorID)
	if err != nil {
		return fmt.Errorf("rawstock: sweep orphan color: %w", err)
	}
	return nil
}

// RecomputeTotals rereads the post-mutation detail rows and persists the
// derived sums on the aggregate.
func (s *txStore) RecomputeTotals(ctx context.Context, orderID int64) error {
	_, err := s.q.Exec(ctx,
		`UPDATE entry_raw_stock SET
		   total_kgs = totals.kgs, total_amount = totals.amount
		 FROM (
		   SELECT COALESCE(SUM(kgs), 0) AS kgs, COALESCE(SUM(kgs * rate_per_kg), 0) AS amount
		   FROM entry_raw_stock_details WHERE order_id = $1
		 ) AS totals
		 WHERE order_id = $1`, orderID)
	if err != nil {
		return fmt.Errorf("rawstock: recompute totals: %w", err)
	}
	return nil
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
