package store

import (
	"context"
	"database/sql"
	"fmt"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// OpenDay creates a new OPEN day for the organization. The "at most one
// open day" invariant is carried by a partial unique index on
// operational_days(org_id) WHERE status = 'OPEN', so two concurrent opens
// cannot both succeed.
func (s *Store) OpenDay(ctx context.Context, orgID int64, actor string) (*models.OperationalDay, error) {
	var day models.OperationalDay
	err := s.db.GetContext(ctx, &day, `
		INSERT INTO operational_days (org_id, status, opened_by, started_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING *`,
		orgID, models.DayStatusOpen, actor)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, &models.ConflictError{Resource: "operational day", Reason: "a day is already open for this organization"}
		}
		return nil, fmt.Errorf("failed to open day: %w", err)
	}
	return &day, nil
}

// GetDay retrieves a day by ID
func (s *Store) GetDay(ctx context.Context, id int64) (*models.OperationalDay, error) {
	var day models.OperationalDay
	err := s.db.GetContext(ctx, &day, "SELECT * FROM operational_days WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "operational day", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// GetOpenDay retrieves the currently open day for an organization.
// Returns nil without error when no day is open.
func (s *Store) GetOpenDay(ctx context.Context, orgID int64) (*models.OperationalDay, error) {
	var day models.OperationalDay
	err := s.db.GetContext(ctx, &day,
		"SELECT * FROM operational_days WHERE org_id = $1 AND status = $2",
		orgID, models.DayStatusOpen)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &day, nil
}

// CloseDayTx closes the day, stamping the closing actor and end time and
// computing total sales as the sum of the day's non-cancelled orders.
func (s *Store) CloseDayTx(ctx context.Context, dayID int64, actor string) (*models.OperationalDay, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var day models.OperationalDay
	err = tx.GetContext(ctx, &day,
		"SELECT * FROM operational_days WHERE id = $1 FOR UPDATE", dayID)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "operational day", ID: dayID}
	}
	if err != nil {
		return nil, err
	}
	if day.Status == models.DayStatusClosed {
		return nil, &models.ConflictError{Resource: "operational day", Reason: "day already closed"}
	}

	var totalSales int64
	err = tx.GetContext(ctx, &totalSales, `
		SELECT COALESCE(SUM(total_amount), 0) FROM orders
		WHERE day_id = $1 AND status <> $2`,
		dayID, models.OrderStatusCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to compute total sales: %w", err)
	}

	err = tx.GetContext(ctx, &day, `
		UPDATE operational_days
		SET status = $1, closed_by = $2, ended_at = NOW(), total_sales = $3
		WHERE id = $4
		RETURNING *`,
		models.DayStatusClosed, actor, totalSales, dayID)
	if err != nil {
		return nil, fmt.Errorf("failed to close day: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &day, nil
}

// nextSequenceTx atomically increments the per-(area, day) sequence,
// creating the row on first use. A single upsert statement, so concurrent
// callers never observe the same value.
func nextSequenceTx(ctx context.Context, tx *sqlx.Tx, areaID, dayID int64) (int64, error) {
	var seq int64
	err := tx.GetContext(ctx, &seq, `
		INSERT INTO area_day_sequences (area_id, day_id, last_value)
		VALUES ($1, $2, 1)
		ON CONFLICT (area_id, day_id)
		DO UPDATE SET last_value = area_day_sequences.last_value + 1
		RETURNING last_value`,
		areaID, dayID)
	return seq, err
}

// NextDisplayNumber draws the next display number for an (area, day) pair
// outside of an order transaction.
func (s *Store) NextDisplayNumber(ctx context.Context, areaID, dayID int64, areaCode string) (string, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	seq, err := nextSequenceTx(ctx, tx, areaID, dayID)
	if err != nil {
		return "", fmt.Errorf("failed to increment sequence: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return models.FormatDisplayNumber(areaCode, seq), nil
}
