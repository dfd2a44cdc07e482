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

// KitchenService tracks per-station confirmations and aggregates them
// into the order-level ready decision.
type KitchenService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewKitchenService creates a new kitchen service
func NewKitchenService(store *store.Store, eventPublisher *broker.EventPublisher) *KitchenService {
	return &KitchenService{
		store:          store,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ComputeStations returns the stations an order must pass through: those
// serving the category of at least one positive-quantity item.
func ComputeStations(items []models.OrderItem, stations []models.Station) []*models.Station {
	categories := make(map[int64]bool)
	for _, item := range items {
		if item.Quantity > 0 {
			categories[item.CategoryID] = true
		}
	}

	var routed []*models.Station
	for i := range stations {
		for _, cat := range stations[i].Categories {
			if categories[cat] {
				routed = append(routed, &stations[i])
				break
			}
		}
	}
	return routed
}

// ItemsForStation filters the order's items down to those the station is
// responsible for.
func ItemsForStation(items []models.OrderItem, station *models.Station) []models.OrderItem {
	serves := make(map[int64]bool, len(station.Categories))
	for _, cat := range station.Categories {
		serves[cat] = true
	}

	var out []models.OrderItem
	for _, item := range items {
		if item.Quantity > 0 && serves[item.CategoryID] {
			out = append(out, item)
		}
	}
	return out
}

// ToggleItem sets one item's confirmation flag. Idempotent: toggling to
// the current value changes nothing.
func (s *KitchenService) ToggleItem(ctx context.Context, orderID, itemID int64, confirmed bool) (*models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "KitchenService.ToggleItem")
	defer span.End()

	order, item, err := s.store.SetItemConfirmedTx(ctx, orderID, itemID, confirmed)
	if err != nil {
		return nil, err
	}

	util.ItemsConfirmedTotal.Inc()

	event := &models.ItemConfirmedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeItemConfirmed,
			Timestamp: time.Now(),
		},
		OrderID:   order.ID,
		AreaID:    order.AreaID,
		ItemID:    item.ID,
		Confirmed: item.Confirmed,
	}
	if err := s.eventPublisher.PublishItemConfirmed(ctx, event); err != nil {
		s.logger.Error("Failed to publish ItemConfirmed event", zap.Error(err))
	}

	return item, nil
}

// CompleteStation marks the station done for the order, gated on all of
// its items being confirmed. When it was the last required station the
// order advances to READY in the same unit of work.
func (s *KitchenService) CompleteStation(ctx context.Context, orderID, stationID int64) (*models.Order, bool, error) {
	ctx, span := util.StartSpan(ctx, "KitchenService.CompleteStation")
	defer span.End()

	order, ready, err := s.store.CompleteStationTx(ctx, orderID, stationID)
	if err != nil {
		return nil, false, err
	}

	util.StationsCompletedTotal.Inc()
	s.logger.Info("Station completed",
		zap.Int64("order_id", orderID),
		zap.Int64("station_id", stationID),
		zap.Bool("order_ready", ready))

	event := &models.StationCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeStationCompleted,
			Timestamp: time.Now(),
		},
		OrderID:    order.ID,
		AreaID:     order.AreaID,
		StationID:  stationID,
		OrderReady: ready,
	}
	if err := s.eventPublisher.PublishStationCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish StationCompleted event", zap.Error(err))
	}

	if ready {
		util.OrdersReadyTotal.Inc()
		statusEvent := &models.OrderStatusChangedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderStatusChanged,
				Timestamp: time.Now(),
			},
			OrderID:       order.ID,
			AreaID:        order.AreaID,
			OldStatus:     models.OrderStatusPreparing,
			NewStatus:     order.Status,
			DisplayNumber: order.DisplayNumber,
		}
		if err := s.eventPublisher.PublishOrderStatusChanged(ctx, statusEvent); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}

	return order, ready, nil
}

// ReopenStation clears a station's completion while the order is still
// PREPARING. Once the order is READY the decision is final.
func (s *KitchenService) ReopenStation(ctx context.Context, orderID, stationID int64) error {
	ctx, span := util.StartSpan(ctx, "KitchenService.ReopenStation")
	defer span.End()

	return s.store.ReopenStationTx(ctx, orderID, stationID)
}

// StationOrders retrieves the PREPARING orders routed to a station.
func (s *KitchenService) StationOrders(ctx context.Context, stationID int64) ([]models.Order, error) {
	return s.store.ListOrdersForStation(ctx, stationID)
}

// Station retrieves a station with its category assignments.
func (s *KitchenService) Station(ctx context.Context, stationID int64) (*models.Station, error) {
	return s.store.GetStation(ctx, stationID)
}
