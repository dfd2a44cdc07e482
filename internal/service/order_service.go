package service

import (
	"context"
	"fmt"
	"time"

	"fulfillment-service/internal/broker"
	"fulfillment-service/internal/models"
	"fulfillment-service/internal/printer"
	"fulfillment-service/internal/redisclient"
	"fulfillment-service/internal/store"
	"fulfillment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService owns the order lifecycle. Every transition is guarded here
// and committed together with its side effects (display number, print
// jobs) by the store's transactional methods.
type OrderService struct {
	store          *store.Store
	redis          *redisclient.Client
	eventPublisher *broker.EventPublisher
	printService   *PrintService
	renderer       printer.Renderer
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	redis *redisclient.Client,
	eventPublisher *broker.EventPublisher,
	printService *PrintService,
	renderer printer.Renderer,
) *OrderService {
	return &OrderService{
		store:          store,
		redis:          redis,
		eventPublisher: eventPublisher,
		printService:   printService,
		renderer:       renderer,
		logger:         util.GetLogger(),
	}
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	OrgID        int64              `json:"org_id" binding:"required"`
	AreaID       int64              `json:"area_id" binding:"required"`
	Items        []OrderItemRequest `json:"items" binding:"required,min=1"`
	GuestCount   int                `json:"guest_count"`
	Takeaway     bool               `json:"takeaway"`
	CustomerName string             `json:"customer_name"`
	TableNumber  string             `json:"table_number"`
	ExternalRef  string             `json:"external_ref,omitempty"`
}

// OrderItemRequest represents an item in an order
type OrderItemRequest struct {
	MenuItemID int64  `json:"menu_item_id" binding:"required"`
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	Notes      string `json:"notes"`
}

// CreateOrder creates a staff-entered order in PENDING.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	return s.createOrder(ctx, req, models.OrderStatusPending, nil)
}

// ImportPreOrder creates an order imported from an external pre-order
// channel in PREORDER. The platform reference dedupes resubmissions.
func (s *OrderService) ImportPreOrder(ctx context.Context, req *CreateOrderRequest) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ImportPreOrder")
	defer span.End()

	if req.ExternalRef == "" {
		return nil, &models.ValidationError{Field: "external_ref", Reason: "required for imported orders"}
	}

	claimed, err := s.redis.SetImportKey(ctx, req.ExternalRef, 24*time.Hour)
	if err != nil {
		s.logger.Warn("Import key check failed, falling back to database",
			zap.String("external_ref", req.ExternalRef), zap.Error(err))
	} else if !claimed {
		existing, err := s.store.GetOrderByExternalRef(ctx, req.ExternalRef)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Duplicate pre-order import",
				zap.String("external_ref", req.ExternalRef),
				zap.Int64("order_id", existing.ID))
			return existing, nil
		}
	}

	order, err := s.createOrder(ctx, req, models.OrderStatusPreOrder, &req.ExternalRef)
	if err != nil {
		_ = s.redis.ReleaseImportKey(ctx, req.ExternalRef)
		return nil, err
	}
	return order, nil
}

func (s *OrderService) createOrder(ctx context.Context, req *CreateOrderRequest, status string, externalRef *string) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, &models.ValidationError{Field: "items", Reason: "order must contain at least one item"}
	}
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, &models.ValidationError{Field: "quantity", Reason: "must be at least 1"}
		}
	}

	area, err := s.store.GetArea(ctx, req.AreaID)
	if err != nil {
		return nil, err
	}

	menuIDs := make([]int64, len(req.Items))
	for i, item := range req.Items {
		menuIDs[i] = item.MenuItemID
	}
	menuItems, err := s.store.GetMenuItemsByIDs(ctx, menuIDs)
	if err != nil {
		return nil, err
	}
	if len(menuItems) != len(uniqueIDs(menuIDs)) {
		return nil, &models.ValidationError{Field: "items", Reason: "unknown menu item"}
	}

	menuByID := make(map[int64]*models.MenuItem, len(menuItems))
	for i := range menuItems {
		menuByID[menuItems[i].ID] = &menuItems[i]
	}

	var total int64
	items := make([]models.OrderItem, len(req.Items))
	for i, item := range req.Items {
		menu := menuByID[item.MenuItemID]
		items[i] = models.OrderItem{
			MenuItemID: menu.ID,
			CategoryID: menu.CategoryID,
			Quantity:   item.Quantity,
			UnitPrice:  menu.Price,
			Notes:      item.Notes,
		}
		total += menu.Price * int64(item.Quantity)
	}

	order := &models.Order{
		OrgID:        area.OrgID,
		AreaID:       area.ID,
		Status:       status,
		TotalAmount:  total,
		GuestCount:   req.GuestCount,
		Takeaway:     req.Takeaway,
		CustomerName: req.CustomerName,
		TableNumber:  req.TableNumber,
		ExternalRef:  externalRef,
	}

	if err := s.store.CreateOrderTx(ctx, order, items); err != nil {
		util.OrderTransitionsFailed.WithLabelValues("create_failed").Inc()
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("area_id", order.AreaID),
		zap.String("status", order.Status))

	return order, nil
}

// MarkPaid confirms payment: guards the order, attaches the open day,
// assigns the display number, and enqueues the receipt, all in a single
// unit of work. The order stays in its prior state on any failure.
func (s *OrderService) MarkPaid(ctx context.Context, orderID int64, paymentMethod string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.MarkPaid")
	defer span.End()

	if paymentMethod == "" {
		return nil, &models.ValidationError{Field: "payment_method", Reason: "required"}
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, &models.ValidationError{Field: "items", Reason: "order has no items"}
	}
	if !order.Takeaway && order.GuestCount < 1 {
		return nil, &models.ValidationError{Field: "guest_count", Reason: "must be at least 1 for dine-in"}
	}

	area, err := s.store.GetArea(ctx, order.AreaID)
	if err != nil {
		return nil, err
	}

	day, err := s.store.GetOpenDay(ctx, order.OrgID)
	if err != nil {
		return nil, err
	}
	if day == nil {
		return nil, &models.InvalidStateError{Resource: "day", Current: "none",
			Reason: "no open day for this organization"}
	}

	var receipt *models.PrintJob
	if area.CashierPrinterID != nil {
		payload, err := s.renderer.RenderReceipt(order, items)
		if err != nil {
			return nil, fmt.Errorf("failed to render receipt: %w", err)
		}
		receipt = &models.PrintJob{
			OrgID:     order.OrgID,
			AreaID:    order.AreaID,
			OrderID:   &order.ID,
			PrinterID: *area.CashierPrinterID,
			JobType:   models.PrintJobTypeReceipt,
			Payload:   payload,
		}
	} else {
		s.logger.Warn("No cashier printer configured, skipping receipt",
			zap.Int64("area_id", area.ID))
	}

	oldStatus := order.Status
	order, err = s.store.PayOrderTx(ctx, orderID, paymentMethod, day, area.Code, receipt)
	if err != nil {
		util.OrderTransitionsFailed.WithLabelValues("pay_rejected").Inc()
		return nil, err
	}

	util.OrdersPaidTotal.Inc()
	if receipt != nil {
		util.PrintJobsEnqueuedTotal.WithLabelValues(models.PrintJobTypeReceipt).Inc()
		s.printService.Nudge()
	}

	s.publishStatusChanged(ctx, order, oldStatus)
	return order, nil
}

// StartPreparing moves a paid order into preparation: computes the
// station routing and enqueues the kitchen tickets in the same unit of
// work as the status flip. With KDS disabled for the area, the order
// skips straight to READY.
func (s *OrderService) StartPreparing(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.StartPreparing")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	area, err := s.store.GetArea(ctx, order.AreaID)
	if err != nil {
		return nil, err
	}

	var stations []models.Station
	if area.KDSEnabled {
		stations, err = s.store.GetStationsByArea(ctx, area.ID)
		if err != nil {
			return nil, err
		}
	}

	routed := ComputeStations(items, stations)
	stationIDs := make([]int64, len(routed))
	stationByID := make(map[int64]*models.Station, len(routed))
	for i := range routed {
		stationIDs[i] = routed[i].ID
		stationByID[routed[i].ID] = routed[i]
	}

	jobs, err := s.buildKitchenJobs(order, items, area, routed)
	if err != nil {
		return nil, err
	}

	oldStatus := order.Status
	order, err = s.store.StartPreparingTx(ctx, orderID, stationIDs, jobs)
	if err != nil {
		util.OrderTransitionsFailed.WithLabelValues("prepare_rejected").Inc()
		return nil, err
	}

	for _, job := range jobs {
		util.PrintJobsEnqueuedTotal.WithLabelValues(job.JobType).Inc()
	}
	if len(jobs) > 0 {
		s.printService.Nudge()
	}
	if order.Status == models.OrderStatusReady {
		util.OrdersReadyTotal.Inc()
	}

	s.logger.Info("Order routed to stations",
		zap.Int64("order_id", order.ID),
		zap.Int64s("stations", stationIDs))

	s.publishStatusChanged(ctx, order, oldStatus)
	return order, nil
}

// buildKitchenJobs renders the kitchen tickets and resolves their
// destinations. Printer selection happens here, at enqueue time: a later
// printer reconfiguration never redirects jobs already queued.
func (s *OrderService) buildKitchenJobs(order *models.Order, items []models.OrderItem, area *models.Area, routed []*models.Station) ([]*models.PrintJob, error) {
	if len(routed) == 0 {
		return nil, nil
	}

	// Consolidated mode: one ticket with everything at the cash register.
	if area.PrintAtCashier {
		if area.CashierPrinterID == nil {
			s.logger.Warn("Print-at-cashier enabled but no cashier printer",
				zap.Int64("area_id", area.ID))
			return nil, nil
		}
		payload, err := s.renderer.RenderKitchenTicket(order, items, area.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to render kitchen ticket: %w", err)
		}
		return []*models.PrintJob{{
			OrgID:     order.OrgID,
			AreaID:    order.AreaID,
			OrderID:   &order.ID,
			PrinterID: *area.CashierPrinterID,
			JobType:   models.PrintJobTypeKitchen,
			Payload:   payload,
		}}, nil
	}

	var jobs []*models.PrintJob
	for _, station := range routed {
		if station.PrinterID == nil {
			continue
		}
		stationItems := ItemsForStation(items, station)
		payload, err := s.renderer.RenderKitchenTicket(order, stationItems, station.Name)
		if err != nil {
			return nil, fmt.Errorf("failed to render kitchen ticket: %w", err)
		}
		jobs = append(jobs, &models.PrintJob{
			OrgID:     order.OrgID,
			AreaID:    order.AreaID,
			OrderID:   &order.ID,
			PrinterID: *station.PrinterID,
			JobType:   models.PrintJobTypeKitchen,
			Payload:   payload,
		})
	}
	return jobs, nil
}

// CompletePickup confirms the customer picked up the order.
func (s *OrderService) CompletePickup(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CompletePickup")
	defer span.End()

	order, err := s.store.CompleteOrderPickup(ctx, orderID)
	if err != nil {
		util.OrderTransitionsFailed.WithLabelValues("pickup_rejected").Inc()
		return nil, err
	}

	util.OrdersCompletedTotal.Inc()
	s.publishStatusChanged(ctx, order, models.OrderStatusReady)
	return order, nil
}

// Cancel cancels the order from any non-terminal state. No print or
// routing side effects fire after cancellation.
func (s *OrderService) Cancel(ctx context.Context, orderID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.Cancel")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	oldStatus := order.Status

	order, err = s.store.CancelOrder(ctx, orderID)
	if err != nil {
		util.OrderTransitionsFailed.WithLabelValues("cancel_rejected").Inc()
		return nil, err
	}

	util.OrdersCancelledTotal.Inc()
	s.publishStatusChanged(ctx, order, oldStatus)
	return order, nil
}

// GetOrder retrieves an order with its items and station statuses.
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, []models.OrderItem, []models.OrderStationStatus, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	statuses, err := s.store.GetStationStatuses(ctx, orderID)
	if err != nil {
		return nil, nil, nil, err
	}
	return order, items, statuses, nil
}

// ListActiveOrders retrieves the non-terminal orders of an area.
func (s *OrderService) ListActiveOrders(ctx context.Context, areaID int64) ([]models.Order, error) {
	return s.store.ListActiveOrdersByArea(ctx, areaID)
}

// publishStatusChanged emits the transition event and refreshes the
// status cache. Failures here are logged, never propagated: the
// transition is already committed.
func (s *OrderService) publishStatusChanged(ctx context.Context, order *models.Order, oldStatus string) {
	event := &models.OrderStatusChangedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderStatusChanged,
			Timestamp: time.Now(),
		},
		OrderID:       order.ID,
		AreaID:        order.AreaID,
		OldStatus:     oldStatus,
		NewStatus:     order.Status,
		DisplayNumber: order.DisplayNumber,
	}

	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
	}

	displayNumber := ""
	if order.DisplayNumber != nil {
		displayNumber = *order.DisplayNumber
	}
	if err := s.redis.CacheOrderStatus(ctx, order.ID, order.Status, displayNumber); err != nil {
		s.logger.Warn("Failed to cache order status", zap.Error(err))
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
