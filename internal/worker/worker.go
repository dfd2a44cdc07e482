package worker

import (
	"context"
	"encoding/json"
	"time"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/printer"
	"fulfillment-service/internal/redisclient"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// JobStore is the slice of the store the dispatch worker needs.
type JobStore interface {
	ListDuePrintJobs(ctx context.Context, limit int) ([]models.PrintJob, error)
	GetPrinter(ctx context.Context, id int64) (*models.Printer, error)
	MarkPrintJobSent(ctx context.Context, id int64) error
	MarkPrintJobFailed(ctx context.Context, id int64, errMsg string, nextAttempt time.Time, terminal bool) (*models.PrintJob, error)
}

// DispatchConfig tunes the retry behaviour of the dispatch worker.
type DispatchConfig struct {
	MaxAttempts     int
	BackoffBase     time.Duration
	BackoffCap      time.Duration
	DispatchTimeout time.Duration
	PollInterval    time.Duration
	BatchSize       int
}

// DispatchWorker delivers queued print jobs in the background. Failures
// are retried with exponential backoff up to MaxAttempts; beyond that the
// job is parked as FAILED for an operator and surfaced as an event.
type DispatchWorker struct {
	store     JobStore
	transport printer.Transport
	publisher *broker.EventPublisher
	cfg       DispatchConfig
	nudge     <-chan struct{}
	logger    *zap.Logger
}

// NewDispatchWorker creates a new dispatch worker
func NewDispatchWorker(store JobStore, transport printer.Transport, publisher *broker.EventPublisher, cfg DispatchConfig, nudge <-chan struct{}) *DispatchWorker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 20
	}
	return &DispatchWorker{
		store:     store,
		transport: transport,
		publisher: publisher,
		cfg:       cfg,
		nudge:     nudge,
		logger:    util.GetLogger(),
	}
}

// Start runs the dispatch loop until the context is cancelled.
func (w *DispatchWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting print dispatch worker")

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Print dispatch worker stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-w.nudge:
		}

		if err := w.dispatchDue(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("Dispatch pass failed", zap.Error(err))
		}
	}
}

// dispatchDue delivers one batch of due jobs.
func (w *DispatchWorker) dispatchDue(ctx context.Context) error {
	jobs, err := w.store.ListDuePrintJobs(ctx, w.cfg.BatchSize)
	if err != nil {
		return err
	}

	for i := range jobs {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.dispatch(ctx, &jobs[i])
	}
	return nil
}

// dispatch attempts delivery of a single job and records the outcome.
func (w *DispatchWorker) dispatch(ctx context.Context, job *models.PrintJob) {
	p, err := w.store.GetPrinter(ctx, job.PrinterID)
	if err != nil {
		w.recordFailure(ctx, job, err)
		return
	}

	start := time.Now()
	attemptCtx, cancel := context.WithTimeout(ctx, w.cfg.DispatchTimeout)
	err = w.transport.Deliver(attemptCtx, p.Address, job.Payload)
	cancel()
	util.PrintDispatchLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		w.recordFailure(ctx, job, err)
		return
	}

	if err := w.store.MarkPrintJobSent(ctx, job.ID); err != nil {
		w.logger.Error("Failed to mark job sent",
			zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}

	util.PrintJobsSentTotal.Inc()
	w.logger.Info("Print job delivered",
		zap.Int64("job_id", job.ID),
		zap.String("printer", p.Address))
}

// recordFailure bumps the retry count and either schedules the next
// attempt or parks the job terminally.
func (w *DispatchWorker) recordFailure(ctx context.Context, job *models.PrintJob, cause error) {
	attempts := job.RetryCount + 1
	terminal := attempts >= w.cfg.MaxAttempts
	next := time.Now().Add(Backoff(attempts, w.cfg.BackoffBase, w.cfg.BackoffCap))

	updated, err := w.store.MarkPrintJobFailed(ctx, job.ID, cause.Error(), next, terminal)
	if err != nil {
		w.logger.Error("Failed to record dispatch failure",
			zap.Int64("job_id", job.ID), zap.Error(err))
		return
	}

	if terminal {
		util.PrintJobsFailedTotal.WithLabelValues("true").Inc()
		w.logger.Error("Print job failed terminally",
			zap.Int64("job_id", job.ID),
			zap.Int("retry_count", updated.RetryCount),
			zap.Error(cause))
		w.publishJobFailed(ctx, updated, cause)
		return
	}

	util.PrintJobsFailedTotal.WithLabelValues("false").Inc()
	w.logger.Warn("Print job delivery failed, will retry",
		zap.Int64("job_id", job.ID),
		zap.Int("retry_count", updated.RetryCount),
		zap.Time("next_attempt", next),
		zap.Error(cause))
}

func (w *DispatchWorker) publishJobFailed(ctx context.Context, job *models.PrintJob, cause error) {
	if w.publisher == nil {
		return
	}

	event := &models.PrintJobFailedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypePrintJobFailed,
			Timestamp: time.Now(),
		},
		JobID:      job.ID,
		AreaID:     job.AreaID,
		PrinterID:  job.PrinterID,
		RetryCount: job.RetryCount,
		LastError:  cause.Error(),
	}
	if err := w.publisher.PublishPrintJobFailed(ctx, event); err != nil {
		w.logger.Error("Failed to publish PrintJobFailed event", zap.Error(err))
	}
}

// Backoff computes the delay before the given attempt number: exponential
// from base, capped at limit.
func Backoff(attempt int, base, limit time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	if d > limit {
		return limit
	}
	return d
}

// NotificationWorker relays domain events from the broker to the
// per-area redis channels consumed by connected displays. The core's
// responsibility ends at the relay; it knows nothing about clients.
type NotificationWorker struct {
	consumer *broker.Consumer
	redis    *redisclient.Client
	logger   *zap.Logger
}

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, redis *redisclient.Client) *NotificationWorker {
	return &NotificationWorker{
		consumer: consumer,
		redis:    redis,
		logger:   util.GetLogger(),
	}
}

// Start consumes events until the context is cancelled.
func (w *NotificationWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting notification worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *NotificationWorker) Stop() error {
	w.logger.Info("Stopping notification worker")
	return w.consumer.Close()
}

// areaEvent is the minimal shape the relay needs from any event.
type areaEvent struct {
	models.BaseEvent
	AreaID int64 `json:"area_id"`
}

func (w *NotificationWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var event areaEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		w.logger.Warn("Dropping malformed event", zap.Error(err))
		return nil
	}

	// Events without an area (day lifecycle) have no display channel.
	if event.AreaID == 0 {
		return nil
	}

	if err := w.redis.PublishAreaEvent(ctx, event.AreaID, msg.Value); err != nil {
		w.logger.Error("Failed to relay event",
			zap.String("event_type", event.EventType),
			zap.Int64("area_id", event.AreaID),
			zap.Error(err))
		return err
	}
	return nil
}
