package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shoppulse/order-ingest-api/internal/domain"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/ledgerstore"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/orderstore"
)

func TestStore_MoneyRoundTripsExactly(t *testing.T) {
	s := newMemoryStore(t)
	defer s.Close()

	// 0.1 + 0.2 style amounts must survive storage without float drift.
	row := orderstore.OrderRow{
		ID:           "o1",
		TenantID:     "t1",
		CustomerName: "Pat Doe",
		TotalAmount:  decimal.RequireFromString("0.30"),
		Status:       domain.StatusCreated,
		CreatedAt:    time.Unix(100, 0).UTC(),
	}
	if err := s.InsertBatch(context.Background(), []orderstore.OrderRow{row}); err != nil {
		t.Fatalf("InsertBatch() err=%v", err)
	}

	got, err := s.TotalAmount(context.Background(), "o1")
	if err != nil {
		t.Fatalf("TotalAmount() err=%v", err)
	}
	if got.StringFixed(2) != "0.30" {
		t.Fatalf("total=%s", got)
	}
}

func TestStore_CreatedAtRoundTrips(t *testing.T) {
	s := newMemoryStore(t)
	defer s.Close()

	created := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	rec := ledgerstore.Record{
		Key:         "k1",
		Fingerprint: "fp",
		State:       ledgerstore.StatePending,
		CreatedAt:   created,
	}
	if err := s.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create() err=%v", err)
	}

	got, ok, err := s.Get(context.Background(), "k1")
	if err != nil || !ok {
		t.Fatalf("Get(): ok=%v err=%v", ok, err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at=%v, want %v", got.CreatedAt, created)
	}
}

func TestStore_ItemsRolledBackWithOrders(t *testing.T) {
	s := newMemoryStore(t)
	defer s.Close()

	mk := func(id domain.OrderID) orderstore.OrderRow {
		return orderstore.OrderRow{
			ID:           id,
			TenantID:     "t1",
			CustomerName: "Pat Doe",
			TotalAmount:  decimal.RequireFromString("20.00"),
			Status:       domain.StatusPaid,
			CreatedAt:    time.Unix(100, 0).UTC(),
			Items: []orderstore.ItemRow{
				{ProductID: "p1", Quantity: 2, Price: decimal.RequireFromString("10.00")},
			},
		}
	}

	// First batch commits, second batch reuses o1 and must roll back whole.
	if err := s.InsertBatch(context.Background(), []orderstore.OrderRow{mk("o1")}); err != nil {
		t.Fatalf("first InsertBatch() err=%v", err)
	}
	if err := s.InsertBatch(context.Background(), []orderstore.OrderRow{mk("o2"), mk("o1")}); err == nil {
		t.Fatalf("duplicate batch committed")
	}

	if n, _ := s.CountOrders(context.Background()); n != 1 {
		t.Fatalf("orders=%d", n)
	}
	var items int
	if err := s.db.QueryRowContext(context.Background(), `SELECT count(*) FROM order_items`).Scan(&items); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if items != 1 {
		t.Fatalf("items=%d, want orphaned items rolled back", items)
	}
}
