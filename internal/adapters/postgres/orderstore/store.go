package orderstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/shoppulse/order-ingest-api/internal/adapters/postgres"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/orderstore"
)

// Store is a Postgres implementation of orderstore.Store over the orders and
// order_items tables.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// InsertBatch writes the whole batch inside one transaction, orders first so
// line items can reference them. Any failure rolls the batch back.
func (s *Store) InsertBatch(ctx context.Context, rows []orderstore.OrderRow) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	if len(rows) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		b := &pgx.Batch{}
		queued := 0
		for _, row := range rows {
			b.Queue(`
				INSERT INTO orders (id, tenant_id, customer_name, customer_email, total_amount, status, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`,
				string(row.ID),
				string(row.TenantID),
				row.CustomerName,
				row.CustomerEmail,
				row.TotalAmount.StringFixed(2),
				row.Status,
				row.CreatedAt.UTC(),
			)
			queued++
		}
		for _, row := range rows {
			for _, it := range row.Items {
				b.Queue(`
					INSERT INTO order_items (order_id, product_id, quantity, price)
					VALUES ($1, $2, $3, $4)
				`,
					string(row.ID),
					string(it.ProductID),
					it.Quantity,
					it.Price.StringFixed(2),
				)
				queued++
			}
		}

		br := tx.SendBatch(ctx, b)
		for i := 0; i < queued; i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				if pe, ok := postgres.AsPgError(err); ok &&
					(pe.Code == postgres.UniqueViolationCode || pe.Code == postgres.ForeignKeyViolationCode) {
					return fmt.Errorf("%w: %s", orderstore.ErrConstraintViolation, pe.Message)
				}
				return err
			}
		}
		return br.Close()
	})
}

func (s *Store) CountOrders(ctx context.Context) (int, error) {
	if s.pool == nil {
		return 0, errors.New("nil postgres pool")
	}
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
