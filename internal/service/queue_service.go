package service

import (
	"context"
	"time"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/redisclient"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QueueService issues and tracks walk-up ticket numbers per area,
// independent of the order flow.
type QueueService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewQueueService creates a new queue service
func NewQueueService(store *store.Store, redis *redisclient.Client, eventPublisher *broker.EventPublisher) *QueueService {
	return &QueueService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// CallNext draws the next ticket for the area and announces it from the
// given calling station.
func (s *QueueService) CallNext(ctx context.Context, areaID, stationID int64) (*models.QueueState, error) {
	ctx, span := util.StartSpan(ctx, "QueueService.CallNext")
	defer span.End()

	area, err := s.store.GetArea(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if !area.QueueEnabled {
		return nil, &models.InvalidStateError{Resource: "area", Current: "queue disabled",
			Reason: "queueing is not enabled for this area"}
	}

	state, err := s.store.CallNextTicket(ctx, areaID, stationID)
	if err != nil {
		return nil, err
	}

	util.TicketsCalledTotal.Inc()
	s.announce(ctx, areaID, stationID, *state.LastCalled)
	return state, nil
}

// CallSpecific re-announces an arbitrary ticket number without touching
// the counter. Used for skipped tickets.
func (s *QueueService) CallSpecific(ctx context.Context, areaID, stationID, number int64) (*models.QueueState, error) {
	ctx, span := util.StartSpan(ctx, "QueueService.CallSpecific")
	defer span.End()

	if number < 1 {
		return nil, &models.ValidationError{Field: "number", Reason: "must be at least 1"}
	}

	state, err := s.store.CallSpecificTicket(ctx, areaID, stationID, number)
	if err != nil {
		return nil, err
	}

	util.TicketsCalledTotal.Inc()
	s.announce(ctx, areaID, stationID, number)
	return state, nil
}

// Reset resets the area's counter and clears the last-called state.
// Administrative action; in-flight orders are unaffected.
func (s *QueueService) Reset(ctx context.Context, areaID, startNumber int64) (*models.QueueState, error) {
	ctx, span := util.StartSpan(ctx, "QueueService.Reset")
	defer span.End()

	if startNumber < 1 {
		return nil, &models.ValidationError{Field: "start_number", Reason: "must be at least 1"}
	}

	state, err := s.store.ResetQueue(ctx, areaID, startNumber)
	if err != nil {
		return nil, err
	}

	util.QueueResetsTotal.Inc()
	s.logger.Info("Queue reset",
		zap.Int64("area_id", areaID),
		zap.Int64("start_number", startNumber))

	if err := s.redis.ClearLastCalled(ctx, areaID); err != nil {
		s.logger.Warn("Failed to clear queue cache", zap.Error(err))
	}

	event := &models.QueueResetEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeQueueReset,
			Timestamp: time.Now(),
		},
		AreaID:      areaID,
		StartNumber: startNumber,
	}
	if err := s.eventPublisher.PublishQueueReset(ctx, event); err != nil {
		s.logger.Error("Failed to publish QueueReset event", zap.Error(err))
	}

	return state, nil
}

// Respeak re-announces the current last-called ticket for the station.
// No counter mutation.
func (s *QueueService) Respeak(ctx context.Context, areaID, stationID int64) (*models.QueueState, error) {
	ctx, span := util.StartSpan(ctx, "QueueService.Respeak")
	defer span.End()

	state, err := s.store.GetQueueState(ctx, areaID)
	if err != nil {
		return nil, err
	}
	if state.LastCalled == nil {
		return nil, &models.InvalidStateError{Resource: "queue", Current: "empty",
			Reason: "no ticket has been called yet"}
	}

	s.announce(ctx, areaID, stationID, *state.LastCalled)
	return state, nil
}

// State retrieves the queue state of an area.
func (s *QueueService) State(ctx context.Context, areaID int64) (*models.QueueState, error) {
	return s.store.GetQueueState(ctx, areaID)
}

// announce publishes the ticket-called event and refreshes the display
// cache. Failures are logged, never propagated: the ticket is committed.
func (s *QueueService) announce(ctx context.Context, areaID, stationID, number int64) {
	event := &models.TicketCalledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeTicketCalled,
			Timestamp: time.Now(),
		},
		AreaID:    areaID,
		StationID: stationID,
		Number:    number,
	}
	if err := s.eventPublisher.PublishTicketCalled(ctx, event); err != nil {
		s.logger.Error("Failed to publish TicketCalled event", zap.Error(err))
	}

	if err := s.redis.CacheLastCalled(ctx, areaID, number, stationID); err != nil {
		s.logger.Warn("Failed to cache last-called ticket", zap.Error(err))
	}
}
