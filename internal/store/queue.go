package store

import (
	"context"
	"database/sql"
	"fmt"

	"fulfillment-service/internal/models"
)

// CallNextTicket atomically reads and advances the area's ticket counter,
// recording the called number, station, and timestamp. The row is created
// on first call. Single upsert statement: all expressions read the row's
// prior values, so two racing callers get distinct tickets.
func (s *Store) CallNextTicket(ctx context.Context, areaID, stationID int64) (*models.QueueState, error) {
	var state models.QueueState
	err := s.db.GetContext(ctx, &state, `
		INSERT INTO queue_states (area_id, next_number, last_called, last_station_id, last_called_at)
		VALUES ($1, 2, 1, $2, NOW())
		ON CONFLICT (area_id)
		DO UPDATE SET
			last_called     = queue_states.next_number,
			next_number     = queue_states.next_number + 1,
			last_station_id = $2,
			last_called_at  = NOW()
		RETURNING *`,
		areaID, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to call next ticket: %w", err)
	}
	return &state, nil
}

// CallSpecificTicket records an arbitrary number as last called without
// touching the counter, creating the row on first use. Used to re-call a
// skipped ticket.
func (s *Store) CallSpecificTicket(ctx context.Context, areaID, stationID, number int64) (*models.QueueState, error) {
	var state models.QueueState
	err := s.db.GetContext(ctx, &state, `
		INSERT INTO queue_states (area_id, next_number, last_called, last_station_id, last_called_at)
		VALUES ($1, 1, $2, $3, NOW())
		ON CONFLICT (area_id)
		DO UPDATE SET
			last_called     = $2,
			last_station_id = $3,
			last_called_at  = NOW()
		RETURNING *`,
		areaID, number, stationID)
	if err != nil {
		return nil, fmt.Errorf("failed to call ticket: %w", err)
	}
	return &state, nil
}

// ResetQueue resets the counter to startNumber and clears the last-called
// state. Administrative action only.
func (s *Store) ResetQueue(ctx context.Context, areaID, startNumber int64) (*models.QueueState, error) {
	var state models.QueueState
	err := s.db.GetContext(ctx, &state, `
		INSERT INTO queue_states (area_id, next_number, reset_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (area_id)
		DO UPDATE SET
			next_number     = $2,
			last_called     = NULL,
			last_station_id = NULL,
			last_called_at  = NULL,
			reset_at        = NOW()
		RETURNING *`,
		areaID, startNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to reset queue: %w", err)
	}
	return &state, nil
}

// GetQueueState retrieves the queue state for an area. Returns a zero
// state with NextNumber 1 when the area has never issued a ticket.
func (s *Store) GetQueueState(ctx context.Context, areaID int64) (*models.QueueState, error) {
	var state models.QueueState
	err := s.db.GetContext(ctx, &state, "SELECT * FROM queue_states WHERE area_id = $1", areaID)
	if err == sql.ErrNoRows {
		return &models.QueueState{AreaID: areaID, NextNumber: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}
