package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fulfillment-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeJobStore struct {
	jobs     map[int64]*models.PrintJob
	printers map[int64]*models.Printer
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		jobs:     make(map[int64]*models.PrintJob),
		printers: make(map[int64]*models.Printer),
	}
}

func (f *fakeJobStore) ListDuePrintJobs(ctx context.Context, limit int) ([]models.PrintJob, error) {
	var due []models.PrintJob
	now := time.Now()
	for _, job := range f.jobs {
		if job.Status == models.PrintJobStatusPending && !job.NextAttemptAt.After(now) {
			due = append(due, *job)
		}
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (f *fakeJobStore) GetPrinter(ctx context.Context, id int64) (*models.Printer, error) {
	p, ok := f.printers[id]
	if !ok {
		return nil, &models.NotFoundError{Resource: "printer", ID: id}
	}
	return p, nil
}

func (f *fakeJobStore) MarkPrintJobSent(ctx context.Context, id int64) error {
	f.jobs[id].Status = models.PrintJobStatusSent
	return nil
}

func (f *fakeJobStore) MarkPrintJobFailed(ctx context.Context, id int64, errMsg string, nextAttempt time.Time, terminal bool) (*models.PrintJob, error) {
	job := f.jobs[id]
	job.RetryCount++
	job.LastError = &errMsg
	job.NextAttemptAt = nextAttempt
	if terminal {
		job.Status = models.PrintJobStatusFailed
	}
	return job, nil
}

type fakeTransport struct {
	failures  int
	delivered [][]byte
	calls     int
}

func (t *fakeTransport) Deliver(ctx context.Context, addr string, payload []byte) error {
	t.calls++
	if t.calls <= t.failures {
		return &models.DispatchError{PrinterAddr: addr, Err: errors.New("connection refused")}
	}
	t.delivered = append(t.delivered, payload)
	return nil
}

func testConfig() DispatchConfig {
	return DispatchConfig{
		MaxAttempts:     3,
		BackoffBase:     time.Millisecond,
		BackoffCap:      10 * time.Millisecond,
		DispatchTimeout: time.Second,
		PollInterval:    time.Second,
		BatchSize:       20,
	}
}

func seedJob(store *fakeJobStore) *models.PrintJob {
	store.printers[7] = &models.Printer{ID: 7, Address: "10.0.0.5:9100"}
	job := &models.PrintJob{
		ID:        1,
		AreaID:    2,
		PrinterID: 7,
		JobType:   models.PrintJobTypeKitchen,
		Status:    models.PrintJobStatusPending,
		Payload:   []byte("ticket"),
	}
	store.jobs[1] = job
	return job
}

func TestDispatchDelivers(t *testing.T) {
	store := newFakeJobStore()
	seedJob(store)
	transport := &fakeTransport{}

	w := NewDispatchWorker(store, transport, nil, testConfig(), nil)
	require.NoError(t, w.dispatchDue(context.Background()))

	assert.Equal(t, models.PrintJobStatusSent, store.jobs[1].Status)
	require.Len(t, transport.delivered, 1)
	assert.Equal(t, []byte("ticket"), transport.delivered[0])
}

func TestDispatchSchedulesRetry(t *testing.T) {
	store := newFakeJobStore()
	seedJob(store)
	transport := &fakeTransport{failures: 1}

	w := NewDispatchWorker(store, transport, nil, testConfig(), nil)

	before := time.Now()
	require.NoError(t, w.dispatchDue(context.Background()))

	job := store.jobs[1]
	assert.Equal(t, models.PrintJobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	require.NotNil(t, job.LastError)
	assert.Contains(t, *job.LastError, "connection refused")
	assert.True(t, job.NextAttemptAt.After(before))
}

func TestDispatchParksAfterMaxAttempts(t *testing.T) {
	store := newFakeJobStore()
	seedJob(store)
	transport := &fakeTransport{failures: 10}

	w := NewDispatchWorker(store, transport, nil, testConfig(), nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		store.jobs[1].NextAttemptAt = time.Now().Add(-time.Second)
		require.NoError(t, w.dispatchDue(ctx))
	}

	job := store.jobs[1]
	assert.Equal(t, models.PrintJobStatusFailed, job.Status)
	assert.Equal(t, 3, job.RetryCount)

	// A parked job never comes back as due.
	store.jobs[1].NextAttemptAt = time.Now().Add(-time.Second)
	require.NoError(t, w.dispatchDue(ctx))
	assert.Equal(t, 3, transport.calls)
}

func TestDispatchRecoversAfterManualRetry(t *testing.T) {
	store := newFakeJobStore()
	seedJob(store)
	transport := &fakeTransport{failures: 3}

	w := NewDispatchWorker(store, transport, nil, testConfig(), nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		store.jobs[1].NextAttemptAt = time.Now().Add(-time.Second)
		require.NoError(t, w.dispatchDue(ctx))
	}
	require.Equal(t, models.PrintJobStatusFailed, store.jobs[1].Status)

	// Operator resets the job; the printer is back.
	store.jobs[1].Status = models.PrintJobStatusPending
	store.jobs[1].NextAttemptAt = time.Now().Add(-time.Second)
	require.NoError(t, w.dispatchDue(ctx))

	assert.Equal(t, models.PrintJobStatusSent, store.jobs[1].Status)
}

func TestBackoff(t *testing.T) {
	base := 500 * time.Millisecond
	limit := 30 * time.Second

	assert.Equal(t, 500*time.Millisecond, Backoff(1, base, limit))
	assert.Equal(t, time.Second, Backoff(2, base, limit))
	assert.Equal(t, 2*time.Second, Backoff(3, base, limit))
	assert.Equal(t, limit, Backoff(10, base, limit))

	// Out-of-range attempts clamp to the first delay.
	assert.Equal(t, base, Backoff(0, base, limit))
}
