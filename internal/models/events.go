package models

import "time"

// Event types
const (
	EventTypeLowStock          = "LOW_STOCK"
	EventTypePurchaseCommitted = "PURCHASE_COMMITTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// LowStockEvent is published when a stock decrement crosses a product's
// low-stock threshold. The broadcast topic is keyed by product name.
type LowStockEvent struct {
	BaseEvent
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
}

// PurchaseCommittedEvent is published after a checkout commits, for
// downstream reporting consumers.
type PurchaseCommittedEvent struct {
	BaseEvent
	BillID      int64 `json:"bill_id"`
	CashierID   int64 `json:"cashier_id"`
	TotalAmount int64 `json:"total_amount"`
	LineCount   int   `json:"line_count"`
}
