package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/resinflow/resinflow/internal/jobs"
)

type fakeIntegrityStore struct {
	mu       sync.Mutex
	drift    []Drift
	listErr  error
	repaired []int64
}

func (f *fakeIntegrityStore) ListDrift(ctx context.Context) ([]Drift, error) {
	return f.drift, f.listErr
}

func (f *fakeIntegrityStore) RepairTotals(ctx context.Context, orderID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.repaired = append(f.repaired, orderID)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMetrics(t *testing.T) *jobmetrics.Metrics {
	t.Helper()
	return jobmetrics.NewMetrics(prometheus.NewRegistry())
}

func driftFor(orderID int64) Drift {
	return Drift{
		OrderID:       orderID,
		StoredKgs:     decimal.NewFromInt(100),
		DerivedKgs:    decimal.NewFromInt(90),
		StoredAmount:  decimal.NewFromInt(1000),
		DerivedAmount: decimal.NewFromInt(900),
	}
}

func TestTotalsIntegrityRepairsEveryDriftedAggregate(t *testing.T) {
	store := &fakeIntegrityStore{drift: []Drift{driftFor(1), driftFor(2), driftFor(3)}}
	job := NewTotalsIntegrityJob(store, testLogger(), testMetrics(t))

	require.NoError(t, job.Run(context.Background()))
	require.ElementsMatch(t, []int64{1, 2, 3}, store.repaired)
}

func TestTotalsIntegrityNoDriftNoRepairs(t *testing.T) {
	store := &fakeIntegrityStore{}
	job := NewTotalsIntegrityJob(store, testLogger(), testMetrics(t))

	require.NoError(t, job.Run(context.Background()))
	require.Empty(t, store.repaired)
}

func TestTotalsIntegrityPropagatesListError(t *testing.T) {
	boom := errors.New("boom")
	store := &fakeIntegrityStore{listErr: boom}
	job := NewTotalsIntegrityJob(store, testLogger(), testMetrics(t))

	require.ErrorIs(t, job.Run(context.Background()), boom)
}

func TestTotalsIntegrityHandleRejectsBadPayload(t *testing.T) {
	store := &fakeIntegrityStore{}
	job := NewTotalsIntegrityJob(store, testLogger(), testMetrics(t))

	task := asynq.NewTask(TaskStockTotalsIntegrity, []byte("{not json"))
	err := job.Handle(context.Background(), task)
	require.ErrorIs(t, err, asynq.SkipRetry)
	require.Empty(t, store.repaired)
}

func TestTotalsIntegrityHandleRunsScan(t *testing.T) {
	store := &fakeIntegrityStore{drift: []Drift{driftFor(9)}}
	job := NewTotalsIntegrityJob(store, testLogger(), testMetrics(t))

	task, err := NewTotalsIntegrityTask(time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, []int64{9}, store.repaired)
}
