package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order statuses accepted on ingest.
const (
	StatusCreated   = "created"
	StatusPaid      = "paid"
	StatusShipped   = "shipped"
	StatusDelivered = "delivered"
)

var orderStatuses = map[string]struct{}{
	StatusCreated:   {},
	StatusPaid:      {},
	StatusShipped:   {},
	StatusDelivered: {},
}

// IsValidOrderStatus reports whether s is one of the accepted order statuses.
func IsValidOrderStatus(s string) bool {
	_, ok := orderStatuses[s]
	return ok
}

// OrderStatuses returns the accepted status values in a stable order.
func OrderStatuses() []string {
	return []string{StatusCreated, StatusPaid, StatusShipped, StatusDelivered}
}

// Order is one validated order record with its line items.
type Order struct {
	ID            OrderID
	TenantID      TenantID
	CustomerName  string
	CustomerEmail *string
	TotalAmount   decimal.Decimal
	Status        string
	CreatedAt     time.Time
	Items         []OrderItem
}

// OrderItem is one line item of an order.
type OrderItem struct {
	ProductID ProductID
	Quantity  int
	Price     decimal.Decimal
}
