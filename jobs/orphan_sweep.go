package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	jobmetrics "github.com/resinflow/resinflow/internal/jobs"
)

const (
	// TaskColorsOrphanSweep removes inactive custom colors nothing references.
	TaskColorsOrphanSweep = "colors:orphan_sweep"
)

// OrphanSweepPayload carries scheduling metadata.
type OrphanSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewOrphanSweepTask constructs an Asynq task for the orphan sweep.
func NewOrphanSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(OrphanSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskColorsOrphanSweep, body, asynq.Queue(QueueDefault)), nil
}

// SweepStore is the persistence port for the orphan sweep.
type SweepStore interface {
	SweepOrphanColors(ctx context.Context) (int64, error)
}

// OrphanSweepJob hard-deletes soft-deleted custom colors whose last detail
// reference is gone. Inline cleanup already covers the common paths, the
// sweep catches leftovers from crashed transactions or manual data fixes.
// Active rows are never touched: a freshly created color that has not been
// used in a stock entry yet stays listable until someone deletes it.
type OrphanSweepJob struct {
	store   SweepStore
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// NewOrphanSweepJob constructs the sweep job.
func NewOrphanSweepJob(store SweepStore, logger *slog.Logger, metrics *jobmetrics.Metrics) *OrphanSweepJob {
	return &OrphanSweepJob{store: store, logger: logger, metrics: metrics}
}

// Handle processes TaskColorsOrphanSweep tasks.
func (j *OrphanSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload OrphanSweepPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	tracker := j.metrics.Track("orphan_sweep")
	return tracker.End(j.Run(ctx))
}

// Run executes one sweep.
func (j *OrphanSweepJob) Run(ctx context.Context) error {
	swept, err := j.store.SweepOrphanColors(ctx)
	if err != nil {
		return fmt.Errorf("jobs: sweep orphan colors: %w", err)
	}
	j.logger.Info("orphan colors swept", slog.Int64("removed", swept))
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGSweepStore implements SweepStore against PostgreSQL.
type PGSweepStore struct {
	db execer
}

// NewPGSweepStore constructs the PostgreSQL-backed store.
func NewPGSweepStore(pool *pgxpool.Pool) *PGSweepStore {
	return &PGSweepStore{db: pool}
}

// SweepOrphanColors deletes every inactive custom color without a detail
// reference and reports how many went.
func (s *PGSweepStore) SweepOrphanColors(ctx context.Context) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM colors c
		 WHERE c.is_custom
		 AND NOT c.is_active
		 AND NOT EXISTS (SELECT 1 FROM entry_raw_stock_details d WHERE d.color_id = c.color_id)`)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
