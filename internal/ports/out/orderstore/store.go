package orderstore

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoppulse/order-ingest-api/internal/domain"
)

// ErrConstraintViolation is returned (wrapped) when a batch fails a storage
// constraint such as a duplicate order id or an unknown product reference.
var ErrConstraintViolation = errors.New("storage constraint violated")

// OrderRow is one order insert tuple together with its line item tuples.
type OrderRow struct {
	ID            domain.OrderID
	TenantID      domain.TenantID
	CustomerName  string
	CustomerEmail *string
	TotalAmount   decimal.Decimal
	Status        string
	CreatedAt     time.Time
	Items         []ItemRow
}

// ItemRow is one line item insert tuple. The parent order id comes from the
// enclosing OrderRow.
type ItemRow struct {
	ProductID domain.ProductID
	Quantity  int
	Price     decimal.Decimal
}

// Store persists order rows.
//
// InsertBatch writes every order and line item in rows within a single
// transaction: either the whole batch is durably committed or none of it is.
// Orders are written before their line items to satisfy referential
// constraints. An empty batch is a no-op.
type Store interface {
	InsertBatch(ctx context.Context, rows []OrderRow) error
	CountOrders(ctx context.Context) (int, error)
}
