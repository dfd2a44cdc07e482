package service

import (
	"context"
	"time"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DayService owns the operational day ledger: the single open/closed
// cycle per organization and the per-area daily numbering.
type DayService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewDayService creates a new day service
func NewDayService(store *store.Store, eventPublisher *broker.EventPublisher) *DayService {
	return &DayService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// OpenDay opens a new operational day for the organization. Fails with a
// conflict when one is already open.
func (s *DayService) OpenDay(ctx context.Context, orgID int64, actor string) (*models.OperationalDay, error) {
	ctx, span := util.StartSpan(ctx, "DayService.OpenDay")
	defer span.End()

	if actor == "" {
		return nil, &models.ValidationError{Field: "actor", Reason: "required"}
	}

	day, err := s.store.OpenDay(ctx, orgID, actor)
	if err != nil {
		return nil, err
	}

	util.DaysOpenedTotal.Inc()
	s.logger.Info("Operational day opened",
		zap.Int64("day_id", day.ID),
		zap.Int64("org_id", orgID),
		zap.String("opened_by", actor))

	event := &models.DayOpenedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDayOpened,
			Timestamp: time.Now(),
		},
		DayID:    day.ID,
		OrgID:    orgID,
		OpenedBy: actor,
	}
	if err := s.eventPublisher.PublishDayOpened(ctx, event); err != nil {
		s.logger.Error("Failed to publish DayOpened event", zap.Error(err))
	}

	return day, nil
}

// CloseDay closes the day and computes its total sales.
func (s *DayService) CloseDay(ctx context.Context, dayID int64, actor string) (*models.OperationalDay, error) {
	ctx, span := util.StartSpan(ctx, "DayService.CloseDay")
	defer span.End()

	if actor == "" {
		return nil, &models.ValidationError{Field: "actor", Reason: "required"}
	}

	day, err := s.store.CloseDayTx(ctx, dayID, actor)
	if err != nil {
		return nil, err
	}

	util.DaysClosedTotal.Inc()

	var totalSales int64
	if day.TotalSales != nil {
		totalSales = *day.TotalSales
	}
	s.logger.Info("Operational day closed",
		zap.Int64("day_id", day.ID),
		zap.String("closed_by", actor),
		zap.Int64("total_sales", totalSales))

	event := &models.DayClosedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeDayClosed,
			Timestamp: time.Now(),
		},
		DayID:      day.ID,
		OrgID:      day.OrgID,
		ClosedBy:   actor,
		TotalSales: totalSales,
	}
	if err := s.eventPublisher.PublishDayClosed(ctx, event); err != nil {
		s.logger.Error("Failed to publish DayClosed event", zap.Error(err))
	}

	return day, nil
}

// CurrentDay retrieves the open day of an organization, nil when closed.
func (s *DayService) CurrentDay(ctx context.Context, orgID int64) (*models.OperationalDay, error) {
	return s.store.GetOpenDay(ctx, orgID)
}

// NextDisplayNumber draws the next display number for an area against
// the currently open day. The only supported way to obtain one.
func (s *DayService) NextDisplayNumber(ctx context.Context, areaID int64) (string, error) {
	ctx, span := util.StartSpan(ctx, "DayService.NextDisplayNumber")
	defer span.End()

	area, err := s.store.GetArea(ctx, areaID)
	if err != nil {
		return "", err
	}

	day, err := s.store.GetOpenDay(ctx, area.OrgID)
	if err != nil {
		return "", err
	}
	if day == nil {
		return "", &models.InvalidStateError{Resource: "day", Current: "none",
			Reason: "no open day for this organization"}
	}

	return s.store.NextDisplayNumber(ctx, areaID, day.ID, area.Code)
}
