package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// insertPrintJobTx persists a job as PENDING inside the caller's
// transaction. The destination is already resolved: enqueue-time printer
// selection means later printer reconfiguration never redirects a queued job.
func insertPrintJobTx(ctx context.Context, tx *sqlx.Tx, job *models.PrintJob) error {
	return tx.GetContext(ctx, job, `
		INSERT INTO print_jobs (org_id, area_id, order_id, printer_id, job_type, status, payload, next_attempt_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, status, retry_count, next_attempt_at, created_at`,
		job.OrgID, job.AreaID, job.OrderID, job.PrinterID, job.JobType,
		models.PrintJobStatusPending, job.Payload)
}

// CreatePrintJob persists a standalone job (e.g. a test print).
func (s *Store) CreatePrintJob(ctx context.Context, job *models.PrintJob) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertPrintJobTx(ctx, tx, job); err != nil {
		return fmt.Errorf("failed to create print job: %w", err)
	}
	return tx.Commit()
}

// GetPrintJob retrieves a print job by ID
func (s *Store) GetPrintJob(ctx context.Context, id int64) (*models.PrintJob, error) {
	var job models.PrintJob
	err := s.db.GetContext(ctx, &job, "SELECT * FROM print_jobs WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "print job", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListDuePrintJobs retrieves PENDING jobs whose next attempt time has
// passed, oldest first.
func (s *Store) ListDuePrintJobs(ctx context.Context, limit int) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT * FROM print_jobs
		WHERE status = $1 AND next_attempt_at <= NOW()
		ORDER BY next_attempt_at
		LIMIT $2`,
		models.PrintJobStatusPending, limit)
	return jobs, err
}

// ListPrintJobsByStatus retrieves jobs of an area filtered by status, for
// the operator view of the dispatch queue.
func (s *Store) ListPrintJobsByStatus(ctx context.Context, areaID int64, status string) ([]models.PrintJob, error) {
	var jobs []models.PrintJob
	err := s.db.SelectContext(ctx, &jobs, `
		SELECT * FROM print_jobs
		WHERE area_id = $1 AND status = $2
		ORDER BY created_at DESC`,
		areaID, status)
	return jobs, err
}

// MarkPrintJobSent records a successful delivery.
func (s *Store) MarkPrintJobSent(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE print_jobs
		SET status = $1, attempted_at = NOW(), completed_at = NOW(), last_error = NULL
		WHERE id = $2`,
		models.PrintJobStatusSent, id)
	return err
}

// MarkPrintJobFailed records a failed delivery attempt: bumps the retry
// count, stores the error, and either schedules the next attempt or, when
// terminal, parks the job as FAILED for an operator.
func (s *Store) MarkPrintJobFailed(ctx context.Context, id int64, errMsg string, nextAttempt time.Time, terminal bool) (*models.PrintJob, error) {
	status := models.PrintJobStatusPending
	if terminal {
		status = models.PrintJobStatusFailed
	}

	var job models.PrintJob
	err := s.db.GetContext(ctx, &job, `
		UPDATE print_jobs
		SET status = $1, retry_count = retry_count + 1, last_error = $2,
			attempted_at = NOW(), next_attempt_at = $3
		WHERE id = $4
		RETURNING *`,
		status, errMsg, nextAttempt, id)
	if err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}
	return &job, nil
}

// ResetPrintJob puts a job back to PENDING for an immediate manual retry,
// regardless of how many attempts it already burned.
func (s *Store) ResetPrintJob(ctx context.Context, id int64) (*models.PrintJob, error) {
	var job models.PrintJob
	err := s.db.GetContext(ctx, &job, `
		UPDATE print_jobs
		SET status = $1, next_attempt_at = NOW()
		WHERE id = $2
		RETURNING *`,
		models.PrintJobStatusPending, id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "print job", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to reset print job: %w", err)
	}
	return &job, nil
}
