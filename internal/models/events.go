package models

import "time"

// Event types
const (
	EventTypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	EventTypeItemConfirmed      = "ORDER_ITEM_CONFIRMED"
	EventTypeStationCompleted   = "STATION_COMPLETED"
	EventTypeTicketCalled       = "QUEUE_TICKET_CALLED"
	EventTypeQueueReset         = "QUEUE_RESET"
	EventTypeDayOpened          = "DAY_OPENED"
	EventTypeDayClosed          = "DAY_CLOSED"
	EventTypePrintJobFailed     = "PRINT_JOB_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderStatusChangedEvent published on every order state transition
type OrderStatusChangedEvent struct {
	BaseEvent
	OrderID       int64   `json:"order_id"`
	AreaID        int64   `json:"area_id"`
	OldStatus     string  `json:"old_status"`
	NewStatus     string  `json:"new_status"`
	DisplayNumber *string `json:"display_number,omitempty"`
}

// ItemConfirmedEvent published when a station operator toggles an item
type ItemConfirmedEvent struct {
	BaseEvent
	OrderID   int64 `json:"order_id"`
	AreaID    int64 `json:"area_id"`
	ItemID    int64 `json:"item_id"`
	Confirmed bool  `json:"confirmed"`
}

// StationCompletedEvent published when a station finishes all of its
// items for an order
type StationCompletedEvent struct {
	BaseEvent
	OrderID    int64 `json:"order_id"`
	AreaID     int64 `json:"area_id"`
	StationID  int64 `json:"station_id"`
	OrderReady bool  `json:"order_ready"`
}

// TicketCalledEvent published when a calling station summons a ticket
type TicketCalledEvent struct {
	BaseEvent
	AreaID    int64 `json:"area_id"`
	StationID int64 `json:"station_id"`
	Number    int64 `json:"number"`
}

// QueueResetEvent published on administrative queue reset
type QueueResetEvent struct {
	BaseEvent
	AreaID      int64 `json:"area_id"`
	StartNumber int64 `json:"start_number"`
}

// DayOpenedEvent published when an operational day opens
type DayOpenedEvent struct {
	BaseEvent
	DayID    int64  `json:"day_id"`
	OrgID    int64  `json:"org_id"`
	OpenedBy string `json:"opened_by"`
}

// DayClosedEvent published when an operational day closes
type DayClosedEvent struct {
	BaseEvent
	DayID      int64  `json:"day_id"`
	OrgID      int64  `json:"org_id"`
	ClosedBy   string `json:"closed_by"`
	TotalSales int64  `json:"total_sales"`
}

// PrintJobFailedEvent published when a job exhausts its retry budget
type PrintJobFailedEvent struct {
	BaseEvent
	JobID      int64  `json:"job_id"`
	AreaID     int64  `json:"area_id"`
	PrinterID  int64  `json:"printer_id"`
	RetryCount int    `json:"retry_count"`
	LastError  string `json:"last_error"`
}
