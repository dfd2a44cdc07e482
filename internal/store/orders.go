package store

import (
	"context"
	"database/sql"
	"fmt"

	"fulfillment-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateOrderTx creates a new order together with its items in a single
// transaction. Item unit prices are snapshots supplied by the caller.
func (s *Store) CreateOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO orders (org_id, area_id, status, total_amount, guest_count, takeaway,
			customer_name, table_number, external_ref)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`

	err = tx.GetContext(ctx, order, query,
		order.OrgID, order.AreaID, order.Status, order.TotalAmount, order.GuestCount,
		order.Takeaway, order.CustomerName, order.TableNumber, order.ExternalRef)
	if err != nil {
		if isUniqueViolation(err) {
			return &models.ConflictError{Resource: "order", Reason: "external reference already imported"}
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err = tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO order_items (order_id, menu_item_id, category_id, quantity, unit_price, notes)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			items[i].OrderID, items[i].MenuItemID, items[i].CategoryID,
			items[i].Quantity, items[i].UnitPrice, items[i].Notes)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return tx.Commit()
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "order", ID: id}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByExternalRef retrieves an imported order by its platform
// reference. Returns nil without error when no such order exists.
func (s *Store) GetOrderByExternalRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE external_ref = $1", ref)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// GetStationStatuses retrieves the per-station confirmation rows for an order
func (s *Store) GetStationStatuses(ctx context.Context, orderID int64) ([]models.OrderStationStatus, error) {
	var statuses []models.OrderStationStatus
	err := s.db.SelectContext(ctx, &statuses,
		"SELECT * FROM order_station_statuses WHERE order_id = $1 ORDER BY station_id", orderID)
	return statuses, err
}

// ListActiveOrdersByArea retrieves non-terminal orders for an area
func (s *Store) ListActiveOrdersByArea(ctx context.Context, areaID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE area_id = $1 AND status NOT IN ($2, $3)
		ORDER BY created_at`,
		areaID, models.OrderStatusCompleted, models.OrderStatusCancelled)
	return orders, err
}

// ListOrdersForStation retrieves PREPARING orders that have at least one
// item routed to the station. Feed for the KDS board.
func (s *Store) ListOrdersForStation(ctx context.Context, stationID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders, `
		SELECT DISTINCT o.* FROM orders o
		JOIN order_items oi ON oi.order_id = o.id
		JOIN station_categories sc ON sc.category_id = oi.category_id
		WHERE sc.station_id = $1 AND oi.quantity > 0 AND o.status = $2
		ORDER BY o.id`,
		stationID, models.OrderStatusPreparing)
	return orders, err
}

// getOrderForUpdate locks the order row for the remainder of the
// transaction. Every aggregate read and status flip for one order goes
// through this lock so concurrent confirmations serialize.
func getOrderForUpdate(ctx context.Context, tx *sqlx.Tx, orderID int64) (*models.Order, error) {
	var order models.Order
	err := tx.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return nil, &models.NotFoundError{Resource: "order", ID: orderID}
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// PayOrderTx moves the order to PAID: attaches the open day, assigns the
// display number from the per-area daily sequence, and persists the
// receipt print job, all in one transaction. The order is left untouched
// on any failure.
func (s *Store) PayOrderTx(ctx context.Context, orderID int64, paymentMethod string, day *models.OperationalDay, areaCode string, receipt *models.PrintJob) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusPreOrder {
		return nil, &models.InvalidStateError{Resource: "order", Current: order.Status, Reason: "only pending orders can be paid"}
	}
	if day.Status != models.DayStatusOpen {
		return nil, &models.InvalidStateError{Resource: "day", Current: day.Status, Reason: "orders can only attach to the open day"}
	}

	dayID := order.DayID
	displayNumber := order.DisplayNumber
	if dayID == nil {
		seq, err := nextSequenceTx(ctx, tx, order.AreaID, day.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to assign display number: %w", err)
		}
		n := models.FormatDisplayNumber(areaCode, seq)
		dayID = &day.ID
		displayNumber = &n
	}

	err = tx.GetContext(ctx, order, `
		UPDATE orders
		SET status = $1, payment_method = $2, day_id = $3, display_number = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING *`,
		models.OrderStatusPaid, paymentMethod, dayID, displayNumber, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if receipt != nil {
		if err := insertPrintJobTx(ctx, tx, receipt); err != nil {
			return nil, fmt.Errorf("failed to enqueue receipt: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

// StartPreparingTx moves the order to PREPARING, precomputes the
// per-station confirmation rows, and persists the kitchen ticket jobs in
// the same transaction.
func (s *Store) StartPreparingTx(ctx context.Context, orderID int64, stationIDs []int64, jobs []*models.PrintJob) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPaid {
		return nil, &models.InvalidStateError{Resource: "order", Current: order.Status, Reason: "only paid orders can start preparation"}
	}

	for _, stationID := range stationIDs {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_station_statuses (order_id, station_id, confirmed)
			VALUES ($1, $2, FALSE)
			ON CONFLICT (order_id, station_id) DO NOTHING`,
			orderID, stationID)
		if err != nil {
			return nil, fmt.Errorf("failed to create station status: %w", err)
		}
	}

	// An order with no routed stations is immediately eligible for pickup.
	next := models.OrderStatusPreparing
	if len(stationIDs) == 0 {
		next = models.OrderStatusReady
	}

	err = tx.GetContext(ctx, order, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING *`, next, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	for _, job := range jobs {
		if err := insertPrintJobTx(ctx, tx, job); err != nil {
			return nil, fmt.Errorf("failed to enqueue kitchen ticket: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

// transitionOrder performs a simple guarded status flip with no side
// effects. The row lock serializes racing transitions: the loser re-reads
// the new status and fails the guard.
func (s *Store) transitionOrder(ctx context.Context, orderID int64, expected []string, next string) (*models.Order, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	order, err := getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, err
	}

	ok := false
	for _, st := range expected {
		if order.Status == st {
			ok = true
			break
		}
	}
	if !ok {
		return nil, &models.InvalidStateError{Resource: "order", Current: order.Status,
			Reason: fmt.Sprintf("cannot transition to %s", next)}
	}

	err = tx.GetContext(ctx, order, `
		UPDATE orders SET status = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING *`, next, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return order, nil
}

// CompleteOrderPickup confirms pickup: READY -> COMPLETED.
func (s *Store) CompleteOrderPickup(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.transitionOrder(ctx, orderID,
		[]string{models.OrderStatusReady}, models.OrderStatusCompleted)
}

// CancelOrder cancels the order from any non-terminal state.
func (s *Store) CancelOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return s.transitionOrder(ctx, orderID,
		[]string{models.OrderStatusPreOrder, models.OrderStatusPending, models.OrderStatusPaid,
			models.OrderStatusPreparing, models.OrderStatusReady},
		models.OrderStatusCancelled)
}

// SetItemConfirmedTx toggles one item's confirmation flag under the order
// row lock. The operation is idempotent: setting an item to its current
// value is a no-op beyond the timestamp. Un-confirming an item also
// reopens the completion of the stations serving its category, so a
// station can never read complete while one of its items is pending.
func (s *Store) SetItemConfirmedTx(ctx context.Context, orderID, itemID int64, confirmed bool) (*models.Order, *models.OrderItem, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	order, err := getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.Status != models.OrderStatusPreparing {
		return nil, nil, &models.InvalidStateError{Resource: "order", Current: order.Status,
			Reason: "items can only be confirmed while preparing"}
	}

	var item models.OrderItem
	err = tx.GetContext(ctx, &item, `
		UPDATE order_items SET confirmed = $1
		WHERE id = $2 AND order_id = $3
		RETURNING *`, confirmed, itemID, orderID)
	if err == sql.ErrNoRows {
		return nil, nil, &models.NotFoundError{Resource: "order item", ID: itemID}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update item: %w", err)
	}

	if !confirmed {
		_, err = tx.ExecContext(ctx, `
			UPDATE order_station_statuses oss
			SET confirmed = FALSE, updated_at = NOW()
			FROM station_categories sc
			JOIN stations st ON st.id = sc.station_id
			WHERE oss.order_id = $1
			  AND oss.station_id = sc.station_id
			  AND sc.category_id = $2
			  AND st.area_id = $3`,
			orderID, item.CategoryID, order.AreaID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to reopen station: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return order, &item, nil
}

// CompleteStationTx marks a station done for an order. Gated on every
// item routed to that station reading confirmed. When the last required
// station completes, the order flips to READY in the same transaction and
// ready=true is returned.
//
// The required station set is recomputed from the current item rows, so an
// item-set change after PREPARING is picked up here; station rows that
// became irrelevant are vacuously satisfied.
func (s *Store) CompleteStationTx(ctx context.Context, orderID, stationID int64) (*models.Order, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback()

	order, err := getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return nil, false, err
	}
	if order.Status != models.OrderStatusPreparing {
		return nil, false, &models.InvalidStateError{Resource: "order", Current: order.Status,
			Reason: "station completion only applies while preparing"}
	}

	var unconfirmed int
	err = tx.GetContext(ctx, &unconfirmed, `
		SELECT COUNT(*) FROM order_items oi
		JOIN station_categories sc ON sc.category_id = oi.category_id
		WHERE oi.order_id = $1 AND sc.station_id = $2
		  AND oi.quantity > 0 AND NOT oi.confirmed`,
		orderID, stationID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check station items: %w", err)
	}
	if unconfirmed > 0 {
		return nil, false, &models.ConflictError{Resource: "station",
			Reason: fmt.Sprintf("%d items still pending", unconfirmed)}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_station_statuses (order_id, station_id, confirmed)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (order_id, station_id)
		DO UPDATE SET confirmed = TRUE, updated_at = NOW()`,
		orderID, stationID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to mark station complete: %w", err)
	}

	required, err := requiredStationsTx(ctx, tx, orderID, order.AreaID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to compute required stations: %w", err)
	}

	ready := true
	for _, id := range required {
		var confirmed bool
		err = tx.GetContext(ctx, &confirmed, `
			SELECT confirmed FROM order_station_statuses
			WHERE order_id = $1 AND station_id = $2`, orderID, id)
		if err == sql.ErrNoRows {
			ready = false
			break
		}
		if err != nil {
			return nil, false, err
		}
		if !confirmed {
			ready = false
			break
		}
	}

	if ready {
		err = tx.GetContext(ctx, order, `
			UPDATE orders SET status = $1, updated_at = NOW()
			WHERE id = $2
			RETURNING *`, models.OrderStatusReady, orderID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to update order: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, err
	}
	return order, ready, nil
}

// ReopenStationTx clears a station's completion for an order. Only valid
// while the order is still PREPARING: once READY or later the routing
// decision is a one-way ratchet and undo is rejected.
func (s *Store) ReopenStationTx(ctx context.Context, orderID, stationID int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	order, err := getOrderForUpdate(ctx, tx, orderID)
	if err != nil {
		return err
	}
	if order.Status != models.OrderStatusPreparing {
		return &models.InvalidStateError{Resource: "order", Current: order.Status,
			Reason: "completed routing cannot be reopened"}
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE order_station_statuses SET confirmed = FALSE, updated_at = NOW()
		WHERE order_id = $1 AND station_id = $2`, orderID, stationID)
	if err != nil {
		return fmt.Errorf("failed to reopen station: %w", err)
	}

	return tx.Commit()
}
