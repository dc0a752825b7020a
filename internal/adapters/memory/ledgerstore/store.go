package ledgerstore

import (
	"context"
	"sync"

	"github.com/shoppulse/order-ingest-api/internal/ports/out/ledgerstore"
)

// Store is an in-memory implementation of ledgerstore.Store.
// It is safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	recs map[string]ledgerstore.Record
}

func NewStore() *Store {
	return &Store{recs: make(map[string]ledgerstore.Record)}
}

func (s *Store) Get(ctx context.Context, key string) (ledgerstore.Record, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[key]
	if !ok {
		return ledgerstore.Record{}, false, nil
	}
	return cloneRecord(rec), true, nil
}

func (s *Store) Create(ctx context.Context, rec ledgerstore.Record) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[rec.Key]; ok {
		return ledgerstore.ErrKeyExists
	}
	s.recs[rec.Key] = cloneRecord(rec)
	return nil
}

func (s *Store) Complete(ctx context.Context, key string, statusCode int, summary []byte) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[key]
	if !ok {
		return ledgerstore.ErrNotFound
	}
	rec.State = ledgerstore.StateCompleted
	rec.StatusCode = statusCode
	rec.Summary = append([]byte(nil), summary...)
	s.recs[key] = rec
	return nil
}

func cloneRecord(rec ledgerstore.Record) ledgerstore.Record {
	out := rec
	if rec.Summary != nil {
		out.Summary = append([]byte(nil), rec.Summary...)
	}
	return out
}
