package orderstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/shoppulse/order-ingest-api/internal/domain"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/orderstore"
)

// Store is an in-memory implementation of orderstore.Store.
// It is safe for concurrent use.
//
// It enforces order-id uniqueness always, and product references when a
// product set has been seeded, so storage-constraint failures behave like the
// relational backends.
type Store struct {
	mu     sync.RWMutex
	orders map[domain.OrderID]orderstore.OrderRow

	products        map[domain.ProductID]struct{}
	enforceProducts bool
}

func NewStore() *Store {
	return &Store{
		orders:   make(map[domain.OrderID]orderstore.OrderRow),
		products: make(map[domain.ProductID]struct{}),
	}
}

// SeedProducts registers known product references and turns on referential
// checks for line items.
func (s *Store) SeedProducts(ids ...domain.ProductID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enforceProducts = true
	for _, id := range ids {
		s.products[id] = struct{}{}
	}
}

func (s *Store) InsertBatch(ctx context.Context, rows []orderstore.OrderRow) error {
	_ = ctx
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check the whole batch before writing anything: a batch is committed in
	// full or not at all.
	seen := make(map[domain.OrderID]struct{}, len(rows))
	for _, row := range rows {
		if _, dup := s.orders[row.ID]; dup {
			return fmt.Errorf("%w: order %s already exists", orderstore.ErrConstraintViolation, row.ID)
		}
		if _, dup := seen[row.ID]; dup {
			return fmt.Errorf("%w: duplicate order %s within batch", orderstore.ErrConstraintViolation, row.ID)
		}
		seen[row.ID] = struct{}{}
		if s.enforceProducts {
			for _, it := range row.Items {
				if _, ok := s.products[it.ProductID]; !ok {
					return fmt.Errorf("%w: unknown product %s", orderstore.ErrConstraintViolation, it.ProductID)
				}
			}
		}
	}
	for _, row := range rows {
		s.orders[row.ID] = cloneRow(row)
	}
	return nil
}

func (s *Store) CountOrders(ctx context.Context) (int, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders), nil
}

// Get returns one stored order row, for tests and diagnostics.
func (s *Store) Get(id domain.OrderID) (orderstore.OrderRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.orders[id]
	if !ok {
		return orderstore.OrderRow{}, false
	}
	return cloneRow(row), true
}

func cloneRow(row orderstore.OrderRow) orderstore.OrderRow {
	out := row
	if row.CustomerEmail != nil {
		v := *row.CustomerEmail
		out.CustomerEmail = &v
	}
	out.Items = append([]orderstore.ItemRow(nil), row.Items...)
	return out
}
