package ingest

import (
	"context"
	"fmt"

	"github.com/shoppulse/order-ingest-api/internal/domain"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/orderstore"
)

// DefaultBatchSize is the flush threshold used when none is configured.
const DefaultBatchSize = 5000

// FlushOutcome reports one storage flush. Exactly one of Committed and
// Failed is non-zero; Err is the batch-scoped error entry on failure.
type FlushOutcome struct {
	Committed int
	Failed    int
	Err       *RowError
}

// BatchInserter groups validated orders into bounded batches and commits each
// batch as one transaction. A failed batch is isolated: its rows are counted
// failed and the pipeline continues with the next batch.
type BatchInserter struct {
	store orderstore.Store
	size  int

	rows  []orderstore.OrderRow
	first int // 1-based stream position of the first buffered row
	last  int // stream position of the last buffered row
}

func NewBatchInserter(store orderstore.Store, size int) *BatchInserter {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &BatchInserter{store: store, size: size}
}

// Add buffers a validated order occupying the given 1-based stream position
// and flushes when the batch reaches its size threshold. The returned outcome
// is nil when no flush happened.
func (b *BatchInserter) Add(ctx context.Context, o domain.Order, rowNumber int) *FlushOutcome {
	if len(b.rows) == 0 {
		b.first = rowNumber
	}
	b.last = rowNumber
	b.rows = append(b.rows, toOrderRow(o))
	if len(b.rows) >= b.size {
		return b.flush(ctx)
	}
	return nil
}

// Flush commits any buffered trailing batch. Nil when the buffer is empty.
func (b *BatchInserter) Flush(ctx context.Context) *FlushOutcome {
	if len(b.rows) == 0 {
		return nil
	}
	return b.flush(ctx)
}

func (b *BatchInserter) flush(ctx context.Context) *FlushOutcome {
	rows := b.rows
	first, last := b.first, b.last
	b.rows = nil

	if err := b.store.InsertBatch(ctx, rows); err != nil {
		return &FlushOutcome{
			Failed: len(rows),
			Err: &RowError{
				Type:   "batch_db_error",
				Detail: fmt.Sprintf("batch of %d rows (input rows %d-%d) failed: %v", len(rows), first, last, err),
			},
		}
	}
	return &FlushOutcome{Committed: len(rows)}
}

func toOrderRow(o domain.Order) orderstore.OrderRow {
	row := orderstore.OrderRow{
		ID:            o.ID,
		TenantID:      o.TenantID,
		CustomerName:  o.CustomerName,
		CustomerEmail: o.CustomerEmail,
		TotalAmount:   o.TotalAmount,
		Status:        o.Status,
		CreatedAt:     o.CreatedAt,
		Items:         make([]orderstore.ItemRow, 0, len(o.Items)),
	}
	for _, it := range o.Items {
		row.Items = append(row.Items, orderstore.ItemRow{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return row
}
