package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	jobmetrics "github.com/resinflow/resinflow/internal/jobs"
)

const (
	// TaskStockTotalsIntegrity recomputes and repairs raw stock totals.
	TaskStockTotalsIntegrity = "stock:totals_integrity"

	repairConcurrency = 4
)

// TotalsIntegrityPayload carries scheduling metadata.
type TotalsIntegrityPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewTotalsIntegrityTask constructs an Asynq task for the integrity scan.
func NewTotalsIntegrityTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(TotalsIntegrityPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockTotalsIntegrity, body, asynq.Queue(QueueDefault)), nil
}

// Drift is one aggregate whose stored totals disagree with the sums over
// its detail rows.
type Drift struct {
	OrderID       int64
	StoredKgs     decimal.Decimal
	DerivedKgs    decimal.Decimal
	StoredAmount  decimal.Decimal
	DerivedAmount decimal.Decimal
}

// IntegrityStore is the persistence port for the integrity job.
type IntegrityStore interface {
	ListDrift(ctx context.Context) ([]Drift, error)
	RepairTotals(ctx context.Context, orderID int64) error
}

// TotalsIntegrityJob scans every aggregate, logs drifted totals and
// repairs them from the detail rows.
type TotalsIntegrityJob struct {
	store   IntegrityStore
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewTotalsIntegrityJob constructs the integrity job.
func NewTotalsIntegrityJob(store IntegrityStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *TotalsIntegrityJob {
	return &TotalsIntegrityJob{store: store, logger: logger, metrics: metrics}
}

// Handle processes TaskStockTotalsIntegrity tasks.
func (j *TotalsIntegrityJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload TotalsIntegrityPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("totals_integrity")
	return tracker.End(j.Run(ctx))
}

// Run executes one integrity scan.
func (j *TotalsIntegrityJob) Run(ctx context.Context) error {
	drifted, err := j.store.ListDrift(ctx)
	if err != nil {
		return fmt.Errorf("jobs: list drift: %w", err)
	}
	if len(drifted) == 0 {
		j.logger.Info("stock totals verified", slog.Int("drifted", 0))
		return nil
	}

	for _, d := range drifted {
		j.logger.Warn("stock totals drift",
			slog.Int64("order_id", d.OrderID),
			slog.String("stored_kgs", d.StoredKgs.String()),
			slog.String("derived_kgs", d.DerivedKgs.String()),
			slog.String("stored_amount", d.StoredAmount.String()),
			slog.String("derived_amount", d.DerivedAmount.String()))
	}
	j.metrics.AddDrift(len(drifted))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(repairConcurrency)
	for _, d := range drifted {
		orderID := d.OrderID
		g.Go(func() error {
			if err := j.store.RepairTotals(ctx, orderID); err != nil {
				return fmt.Errorf("jobs: repair totals for %d: %w", orderID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	j.logger.Info("stock totals repaired", slog.Int("drifted", len(drifted)))
	return nil
}

// PGIntegrityStore implements IntegrityStore against PostgreSQL.
type PGIntegrityStore struct {
	pool *pgxpool.Pool
}

// NewPGIntegrityStore constructs the PostgreSQL-backed store.
func NewPGIntegrityStore(pool *pgxpool.Pool) *PGIntegrityStore {
	return &PGIntegrityStore{pool: pool}
}

// ListDrift returns every aggregate whose stored totals differ from the
// sums over its detail rows.
func (s *PGIntegrityStore) ListDrift(ctx context.Context) ([]Drift, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT e.order_id, e.total_kgs, d.kgs, e.total_amount, d.amount
		 FROM entry_raw_stock e
		 JOIN LATERAL (
		   SELECT COALESCE(SUM(kgs), 0) AS kgs, COALESCE(SUM(kgs * rate_per_kg), 0) AS amount
		   FROM entry_raw_stock_details WHERE order_id = e.order_id
		 ) d ON TRUE
		 WHERE e.total_kgs <> d.kgs OR e.total_amount <> d.amount`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Drift
	for rows.Next() {
		var (
			d                           Drift
			storedKgs, derivedKgs       pgtype.Numeric
			storedAmount, derivedAmount pgtype.Numeric
		)
		if err := rows.Scan(&d.OrderID, &storedKgs, &derivedKgs, &storedAmount, &derivedAmount); err != nil {
			return nil, err
		}
		d.StoredKgs, d.DerivedKgs = numericToDecimal(storedKgs), numericToDecimal(derivedKgs)
		d.StoredAmount, d.DerivedAmount = numericToDecimal(storedAmount), numericToDecimal(derivedAmount)
		out = append(out, d)
	}
	return out, rows.Err()
}

// RepairTotals rewrites one aggregate's totals from its detail rows.
func (s *PGIntegrityStore) RepairTotals(ctx context.Context, orderID int64) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE entry_raw_stock SET
		   total_kgs = totals.kgs, total_amount = totals.amount
		 FROM (
		   SELECT COALESCE(SUM(kgs), 0) AS kgs, COALESCE(SUM(kgs * rate_per_kg), 0) AS amount
		   FROM entry_raw_stock_details WHERE order_id = $1
		 ) AS totals
		 WHERE order_id = $1`, orderID)
	return err
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
