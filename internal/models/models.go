package models

import "time"

// Product represents a pharmacy catalog item. Monetary values are in
// minor currency units. Stock is mutated only through the stock adjuster.
type Product struct {
	ID                int64     `db:"id" json:"id"`
	SKU               string    `db:"sku" json:"sku"`
	Name              string    `db:"name" json:"name"`
	UnitPrice         int64     `db:"unit_price" json:"unit_price"`
	Stock             int       `db:"stock" json:"stock"`
	LowStockThreshold int       `db:"low_stock_threshold" json:"low_stock_threshold"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// PurchaseBill is the header record of one completed checkout.
// Immutable once committed.
type PurchaseBill struct {
	ID              int64     `db:"id" json:"id"`
	BillNo          string    `db:"bill_no" json:"bill_no"`
	CashierID       int64     `db:"cashier_id" json:"cashier_id"`
	CustomerID      *int64    `db:"customer_id" json:"customer_id,omitempty"`
	CustomerName    *string   `db:"customer_name" json:"customer_name,omitempty"`
	CustomerContact *string   `db:"customer_contact" json:"customer_contact,omitempty"`
	NetTotal        int64     `db:"net_total" json:"net_total"`
	TotalAmount     int64     `db:"total_amount" json:"total_amount"`
	TotalDiscount   int64     `db:"total_discount" json:"total_discount"`
	AmountReceived  int64     `db:"amount_received" json:"amount_received"`
	RemainAmount    int64     `db:"remain_amount" json:"remain_amount"`
	IdempotencyKey  *string   `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// PurchaseLine is one product-and-quantity entry within a bill.
// Lines are owned by their bill and cascade-deleted with it.
type PurchaseLine struct {
	ID        int64 `db:"id" json:"id"`
	BillID    int64 `db:"bill_id" json:"bill_id"`
	ProductID int64 `db:"product_id" json:"product_id"`
	Quantity  int   `db:"quantity" json:"quantity"`
	UnitPrice int64 `db:"unit_price" json:"unit_price"`
	Discount  int64 `db:"discount" json:"discount"`
	LineTotal int64 `db:"line_total" json:"line_total"`
}

// ThresholdCrossing is raised the instant a decrement takes a product
// from above its threshold to at-or-below it. Ephemeral, never persisted.
type ThresholdCrossing struct {
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
}

// LeaveRequest is an HR leave record, plain CRUD outside the purchase engine.
type LeaveRequest struct {
	ID         int64     `db:"id" json:"id"`
	EmployeeID int64     `db:"employee_id" json:"employee_id"`
	StartDate  time.Time `db:"start_date" json:"start_date"`
	EndDate    time.Time `db:"end_date" json:"end_date"`
	Reason     string    `db:"reason" json:"reason"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Leave request statuses
const (
	LeaveStatusPending  = "PENDING"
	LeaveStatusApproved = "APPROVED"
	LeaveStatusRejected = "REJECTED"
)
