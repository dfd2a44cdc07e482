package service

import (
	"context"
	"fmt"

	"fulfillment-service/internal/models"
	"fulfillment-service/internal/printer"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"go.uber.org/zap"
)

// PrintService is the front end of the dispatch engine: it persists jobs
// as PENDING and nudges the dispatch worker. Delivery itself never
// happens on the caller's goroutine.
type PrintService struct {
	store    *store.Store
	renderer printer.Renderer
	logger   *zap.Logger
	nudge    chan struct{}
}

// NewPrintService creates a new print service
func NewPrintService(store *store.Store, renderer printer.Renderer) *PrintService {
	return &PrintService{
		store:    store,
		renderer: renderer,
		logger:   util.GetLogger(),
		nudge:    make(chan struct{}, 1),
	}
}

// Nudge wakes the dispatch worker without blocking. The worker also
// polls, so a dropped nudge only delays dispatch.
func (s *PrintService) Nudge() {
	select {
	case s.nudge <- struct{}{}:
	default:
	}
}

// NudgeChan exposes the wake-up channel to the dispatch worker.
func (s *PrintService) NudgeChan() <-chan struct{} {
	return s.nudge
}

// EnqueueTestPrint enqueues a printer test job. Not bound to any order.
func (s *PrintService) EnqueueTestPrint(ctx context.Context, printerID int64) (*models.PrintJob, error) {
	ctx, span := util.StartSpan(ctx, "PrintService.EnqueueTestPrint")
	defer span.End()

	p, err := s.store.GetPrinter(ctx, printerID)
	if err != nil {
		return nil, err
	}

	payload, err := s.renderer.RenderTest(p.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to render test print: %w", err)
	}

	job := &models.PrintJob{
		OrgID:     p.OrgID,
		AreaID:    p.AreaID,
		PrinterID: p.ID,
		JobType:   models.PrintJobTypeTest,
		Payload:   payload,
	}
	if err := s.store.CreatePrintJob(ctx, job); err != nil {
		return nil, err
	}

	util.PrintJobsEnqueuedTotal.WithLabelValues(models.PrintJobTypeTest).Inc()
	s.Nudge()

	s.logger.Info("Test print enqueued",
		zap.Int64("job_id", job.ID),
		zap.Int64("printer_id", printerID))
	return job, nil
}

// Retry puts a job back to PENDING for a manual re-attempt, regardless of
// how many attempts it already burned.
func (s *PrintService) Retry(ctx context.Context, jobID int64) (*models.PrintJob, error) {
	ctx, span := util.StartSpan(ctx, "PrintService.Retry")
	defer span.End()

	job, err := s.store.ResetPrintJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	s.Nudge()
	s.logger.Info("Print job manually retried",
		zap.Int64("job_id", job.ID),
		zap.Int("retry_count", job.RetryCount))
	return job, nil
}

// GetJob retrieves a print job by ID
func (s *PrintService) GetJob(ctx context.Context, jobID int64) (*models.PrintJob, error) {
	return s.store.GetPrintJob(ctx, jobID)
}

// ListJobs retrieves an area's jobs filtered by status, for the operator
// view of the dispatch queue.
func (s *PrintService) ListJobs(ctx context.Context, areaID int64, status string) ([]models.PrintJob, error) {
	switch status {
	case models.PrintJobStatusPending, models.PrintJobStatusSent, models.PrintJobStatusFailed:
	default:
		return nil, &models.ValidationError{Field: "status", Reason: "unknown print job status"}
	}
	return s.store.ListPrintJobsByStatus(ctx, areaID, status)
}
