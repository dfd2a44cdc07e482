package models

import (
	"fmt"
	"time"
)

// Area represents a serving zone (a food stand) within an organization.
type Area struct {
	ID               int64  `db:"id" json:"id"`
	OrgID            int64  `db:"org_id" json:"org_id"`
	Name             string `db:"name" json:"name"`
	Code             string `db:"code" json:"code"`
	KDSEnabled       bool   `db:"kds_enabled" json:"kds_enabled"`
	QueueEnabled     bool   `db:"queue_enabled" json:"queue_enabled"`
	PrintAtCashier   bool   `db:"print_at_cashier" json:"print_at_cashier"`
	CashierPrinterID *int64 `db:"cashier_printer_id" json:"cashier_printer_id,omitempty"`
}

// Printer represents a physical or virtual print destination.
type Printer struct {
	ID      int64  `db:"id" json:"id"`
	OrgID   int64  `db:"org_id" json:"org_id"`
	AreaID  int64  `db:"area_id" json:"area_id"`
	Name    string `db:"name" json:"name"`
	Address string `db:"address" json:"address"`
}

// Station represents a preparation point (KDS station) within an area.
// Categories holds the IDs of the menu categories the station serves.
type Station struct {
	ID         int64   `db:"id" json:"id"`
	AreaID     int64   `db:"area_id" json:"area_id"`
	Name       string  `db:"name" json:"name"`
	PrinterID  *int64  `db:"printer_id" json:"printer_id,omitempty"`
	Categories []int64 `db:"-" json:"categories,omitempty"`
}

// MenuItem represents an item on the menu. Prices are in minor units.
type MenuItem struct {
	ID         int64  `db:"id" json:"id"`
	CategoryID int64  `db:"category_id" json:"category_id"`
	Name       string `db:"name" json:"name"`
	Price      int64  `db:"price" json:"price"`
}

// Order represents a customer order
type Order struct {
	ID            int64     `db:"id" json:"id"`
	OrgID         int64     `db:"org_id" json:"org_id"`
	AreaID        int64     `db:"area_id" json:"area_id"`
	DayID         *int64    `db:"day_id" json:"day_id,omitempty"`
	DisplayNumber *string   `db:"display_number" json:"display_number,omitempty"`
	Status        string    `db:"status" json:"status"`
	TotalAmount   int64     `db:"total_amount" json:"total_amount"`
	PaymentMethod *string   `db:"payment_method" json:"payment_method,omitempty"`
	GuestCount    int       `db:"guest_count" json:"guest_count"`
	Takeaway      bool      `db:"takeaway" json:"takeaway"`
	CustomerName  string    `db:"customer_name" json:"customer_name,omitempty"`
	TableNumber   string    `db:"table_number" json:"table_number,omitempty"`
	ExternalRef   *string   `db:"external_ref" json:"external_ref,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem represents an item line in an order. UnitPrice is a snapshot
// taken at order time; later menu price changes never touch it.
type OrderItem struct {
	ID         int64  `db:"id" json:"id"`
	OrderID    int64  `db:"order_id" json:"order_id"`
	MenuItemID int64  `db:"menu_item_id" json:"menu_item_id"`
	CategoryID int64  `db:"category_id" json:"category_id"`
	Quantity   int    `db:"quantity" json:"quantity"`
	UnitPrice  int64  `db:"unit_price" json:"unit_price"`
	Notes      string `db:"notes" json:"notes,omitempty"`
	Confirmed  bool   `db:"confirmed" json:"confirmed"`
}

// OrderStationStatus records whether a station has finished all of its
// items for an order. One row per (order, station) pair.
type OrderStationStatus struct {
	OrderID   int64     `db:"order_id" json:"order_id"`
	StationID int64     `db:"station_id" json:"station_id"`
	Confirmed bool      `db:"confirmed" json:"confirmed"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OperationalDay is the open/closed accounting period orders attach to.
// At most one OPEN day may exist per organization.
type OperationalDay struct {
	ID         int64      `db:"id" json:"id"`
	OrgID      int64      `db:"org_id" json:"org_id"`
	Status     string     `db:"status" json:"status"`
	OpenedBy   string     `db:"opened_by" json:"opened_by"`
	ClosedBy   *string    `db:"closed_by" json:"closed_by,omitempty"`
	StartedAt  time.Time  `db:"started_at" json:"started_at"`
	EndedAt    *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	TotalSales *int64     `db:"total_sales" json:"total_sales,omitempty"`
}

// AreaDaySequence backs the per-area daily display numbers. One row per
// (area, day) pair, created on first use.
type AreaDaySequence struct {
	AreaID    int64 `db:"area_id" json:"area_id"`
	DayID     int64 `db:"day_id" json:"day_id"`
	LastValue int64 `db:"last_value" json:"last_value"`
}

// QueueState holds the walk-up ticket counter for an area. Singleton per area.
type QueueState struct {
	AreaID        int64      `db:"area_id" json:"area_id"`
	NextNumber    int64      `db:"next_number" json:"next_number"`
	LastCalled    *int64     `db:"last_called" json:"last_called,omitempty"`
	LastStationID *int64     `db:"last_station_id" json:"last_station_id,omitempty"`
	LastCalledAt  *time.Time `db:"last_called_at" json:"last_called_at,omitempty"`
	ResetAt       *time.Time `db:"reset_at" json:"reset_at,omitempty"`
}

// PrintJob is a unit of dispatch work. OrderID is nullable: test prints
// are not bound to an order. Payload is opaque to this service.
type PrintJob struct {
	ID            int64      `db:"id" json:"id"`
	OrgID         int64      `db:"org_id" json:"org_id"`
	AreaID        int64      `db:"area_id" json:"area_id"`
	OrderID       *int64     `db:"order_id" json:"order_id,omitempty"`
	PrinterID     int64      `db:"printer_id" json:"printer_id"`
	JobType       string     `db:"job_type" json:"job_type"`
	Status        string     `db:"status" json:"status"`
	Payload       []byte     `db:"payload" json:"-"`
	RetryCount    int        `db:"retry_count" json:"retry_count"`
	LastError     *string    `db:"last_error" json:"last_error,omitempty"`
	NextAttemptAt time.Time  `db:"next_attempt_at" json:"next_attempt_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	AttemptedAt   *time.Time `db:"attempted_at" json:"attempted_at,omitempty"`
	CompletedAt   *time.Time `db:"completed_at" json:"completed_at,omitempty"`
}

// Order statuses
const (
	OrderStatusPreOrder  = "PREORDER"
	OrderStatusPending   = "PENDING"
	OrderStatusPaid      = "PAID"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Day statuses
const (
	DayStatusOpen   = "OPEN"
	DayStatusClosed = "CLOSED"
)

// Print job statuses
const (
	PrintJobStatusPending = "PENDING"
	PrintJobStatusSent    = "SENT"
	PrintJobStatusFailed  = "FAILED"
)

// Print job types
const (
	PrintJobTypeReceipt = "RECEIPT"
	PrintJobTypeKitchen = "KITCHEN"
	PrintJobTypeTest    = "TEST"
)

// IsTerminal reports whether the order can no longer change state.
func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusCancelled
}

// FormatDisplayNumber builds the human-readable per-area order number,
// e.g. "BAR-014".
func FormatDisplayNumber(areaCode string, seq int64) string {
	return fmt.Sprintf("%s-%03d", areaCode, seq)
}
