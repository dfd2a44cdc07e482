package broker

import (
	"context"
	"fmt"

	"fulfillment-service/internal/models"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderStatusChanged publishes OrderStatusChanged event
func (ep *EventPublisher) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishItemConfirmed publishes ItemConfirmed event
func (ep *EventPublisher) PublishItemConfirmed(ctx context.Context, event *models.ItemConfirmedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishStationCompleted publishes StationCompleted event
func (ep *EventPublisher) PublishStationCompleted(ctx context.Context, event *models.StationCompletedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTicketCalled publishes TicketCalled event
func (ep *EventPublisher) PublishTicketCalled(ctx context.Context, event *models.TicketCalledEvent) error {
	key := fmt.Sprintf("area-%d", event.AreaID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishQueueReset publishes QueueReset event
func (ep *EventPublisher) PublishQueueReset(ctx context.Context, event *models.QueueResetEvent) error {
	key := fmt.Sprintf("area-%d", event.AreaID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishDayOpened publishes DayOpened event
func (ep *EventPublisher) PublishDayOpened(ctx context.Context, event *models.DayOpenedEvent) error {
	key := fmt.Sprintf("org-%d", event.OrgID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishDayClosed publishes DayClosed event
func (ep *EventPublisher) PublishDayClosed(ctx context.Context, event *models.DayClosedEvent) error {
	key := fmt.Sprintf("org-%d", event.OrgID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPrintJobFailed publishes PrintJobFailed event
func (ep *EventPublisher) PublishPrintJobFailed(ctx context.Context, event *models.PrintJobFailedEvent) error {
	key := fmt.Sprintf("area-%d", event.AreaID)
	return ep.producer.PublishEvent(ctx, key, event)
}
