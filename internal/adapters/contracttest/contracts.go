// Package contracttest holds port contract suites shared by every storage
// backend. Each adapter package runs them against its own factory so memory,
// sqlite and postgres stay behaviorally interchangeable.
package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shoppulse/order-ingest-api/internal/domain"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/ledgerstore"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/orderstore"
)

type CleanupFunc = func()

type LedgerStoreFactory func(t *testing.T) (ledgerstore.Store, CleanupFunc)
type OrderStoreFactory func(t *testing.T) (orderstore.Store, CleanupFunc)

func RunLedgerStore(t *testing.T, newStore LedgerStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	rec := ledgerstore.Record{
		Key:         "req-" + uuid.NewString(),
		Fingerprint: "fp-abc",
		State:       ledgerstore.StatePending,
		CreatedAt:   time.Unix(1234, 0).UTC(),
	}
	if err := store.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, ok, err := store.Get(ctx, rec.Key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("Get ok=false, want true")
	}
	if got.Fingerprint != rec.Fingerprint || got.State != ledgerstore.StatePending {
		t.Fatalf("Get=%+v, want pending record with fingerprint %q", got, rec.Fingerprint)
	}
	if !got.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("CreatedAt=%v, want %v", got.CreatedAt, rec.CreatedAt)
	}

	// Atomic create-if-absent: a second create for the same key must lose.
	dup := rec
	dup.Fingerprint = "fp-other"
	if err := store.Create(ctx, dup); !errors.Is(err, ledgerstore.ErrKeyExists) {
		t.Fatalf("duplicate Create err=%v, want ErrKeyExists", err)
	}

	// The losing create must not have mutated the stored fingerprint.
	got, _, err = store.Get(ctx, rec.Key)
	if err != nil {
		t.Fatalf("Get after dup: %v", err)
	}
	if got.Fingerprint != rec.Fingerprint {
		t.Fatalf("fingerprint changed to %q after losing create", got.Fingerprint)
	}

	summary := []byte(`{"rows_received":3,"rows_inserted":3}`)
	if err := store.Complete(ctx, rec.Key, 200, summary); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, ok, err = store.Get(ctx, rec.Key)
	if err != nil || !ok {
		t.Fatalf("Get after Complete: ok=%v err=%v", ok, err)
	}
	if got.State != ledgerstore.StateCompleted || got.StatusCode != 200 || string(got.Summary) != string(summary) {
		t.Fatalf("completed record=%+v, want stored summary verbatim", got)
	}

	if err := store.Complete(ctx, "missing-"+uuid.NewString(), 200, nil); !errors.Is(err, ledgerstore.ErrNotFound) {
		t.Fatalf("Complete missing key err=%v, want ErrNotFound", err)
	}

	if _, ok, err := store.Get(ctx, "absent-"+uuid.NewString()); err != nil || ok {
		t.Fatalf("Get absent: ok=%v err=%v, want false,nil", ok, err)
	}
}

func RunOrderStore(t *testing.T, newStore OrderStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	base, err := store.CountOrders(ctx)
	if err != nil {
		t.Fatalf("CountOrders: %v", err)
	}

	tenant := domain.TenantID(uuid.NewString())
	a := newOrderRow(tenant)
	b := newOrderRow(tenant)
	if err := store.InsertBatch(ctx, []orderstore.OrderRow{a, b}); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if n, _ := store.CountOrders(ctx); n != base+2 {
		t.Fatalf("CountOrders=%d, want %d", n, base+2)
	}

	// Empty batch is a no-op.
	if err := store.InsertBatch(ctx, nil); err != nil {
		t.Fatalf("InsertBatch(nil): %v", err)
	}

	// Batch atomicity: one duplicate poisons the whole batch; the fresh rows
	// around it must not be committed either.
	c := newOrderRow(tenant)
	dup := a
	d := newOrderRow(tenant)
	err = store.InsertBatch(ctx, []orderstore.OrderRow{c, dup, d})
	if !errors.Is(err, orderstore.ErrConstraintViolation) {
		t.Fatalf("InsertBatch with duplicate err=%v, want ErrConstraintViolation", err)
	}
	if n, _ := store.CountOrders(ctx); n != base+2 {
		t.Fatalf("CountOrders=%d after failed batch, want %d (full rollback)", n, base+2)
	}

	// A subsequent clean batch still commits.
	if err := store.InsertBatch(ctx, []orderstore.OrderRow{c}); err != nil {
		t.Fatalf("InsertBatch after failure: %v", err)
	}
	if n, _ := store.CountOrders(ctx); n != base+3 {
		t.Fatalf("CountOrders=%d, want %d", n, base+3)
	}
}

func newOrderRow(tenant domain.TenantID) orderstore.OrderRow {
	email := "buyer@example.com"
	return orderstore.OrderRow{
		ID:            domain.OrderID(uuid.NewString()),
		TenantID:      tenant,
		CustomerName:  "Pat Doe",
		CustomerEmail: &email,
		TotalAmount:   decimal.RequireFromString("129.90"),
		Status:        domain.StatusCreated,
		CreatedAt:     time.Unix(5000, 0).UTC(),
		Items: []orderstore.ItemRow{
			{ProductID: domain.ProductID(uuid.NewString()), Quantity: 2, Price: decimal.RequireFromString("64.95")},
		},
	}
}
