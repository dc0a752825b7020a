package ledgerstore

import (
	"context"
	"testing"
	"time"

	"github.com/shoppulse/order-ingest-api/internal/ports/out/ledgerstore"
)

func TestStore_SummaryIsolatedFromCaller(t *testing.T) {
	t.Parallel()

	s := NewStore()
	rec := ledgerstore.Record{
		Key:         "k1",
		Fingerprint: "fp",
		State:       ledgerstore.StatePending,
		CreatedAt:   time.Unix(100, 0).UTC(),
	}
	if err := s.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create() err=%v", err)
	}

	summary := []byte(`{"rows_inserted":1}`)
	if err := s.Complete(context.Background(), "k1", 200, summary); err != nil {
		t.Fatalf("Complete() err=%v", err)
	}

	// Mutating the caller's slice must not reach the stored record.
	summary[0] = 'X'
	got, ok, err := s.Get(context.Background(), "k1")
	if err != nil || !ok {
		t.Fatalf("Get(): ok=%v err=%v", ok, err)
	}
	if string(got.Summary) != `{"rows_inserted":1}` {
		t.Fatalf("summary=%s", got.Summary)
	}

	// And mutating the returned copy must not reach the store either.
	got.Summary[0] = 'Y'
	again, _, _ := s.Get(context.Background(), "k1")
	if string(again.Summary) != `{"rows_inserted":1}` {
		t.Fatalf("summary after mutation=%s", again.Summary)
	}
}

func TestStore_ConcurrentCreateSingleWinner(t *testing.T) {
	t.Parallel()

	s := NewStore()
	const goroutines = 16
	wins := make(chan struct{}, goroutines)
	done := make(chan struct{})

	for i := 0; i < goroutines; i++ {
		go func() {
			err := s.Create(context.Background(), ledgerstore.Record{
				Key:       "shared",
				State:     ledgerstore.StatePending,
				CreatedAt: time.Unix(100, 0).UTC(),
			})
			if err == nil {
				wins <- struct{}{}
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < goroutines; i++ {
		<-done
	}
	if len(wins) != 1 {
		t.Fatalf("winners=%d, want exactly 1", len(wins))
	}
}
