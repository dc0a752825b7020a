package ledgerstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/shoppulse/order-ingest-api/internal/adapters/postgres"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/ledgerstore"
)

// Store is a Postgres implementation of ledgerstore.Store backed by the
// ingest_idempotency_keys table. Create relies on the primary key for its
// create-if-absent semantics.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Get(ctx context.Context, key string) (ledgerstore.Record, bool, error) {
	if s.pool == nil {
		return ledgerstore.Record{}, false, errors.New("nil postgres pool")
	}
	row := s.pool.QueryRow(ctx, `
		SELECT fingerprint, state, status_code, summary, created_at
		FROM ingest_idempotency_keys
		WHERE key = $1
	`, key)

	rec := ledgerstore.Record{Key: key}
	var state string
	if err := row.Scan(&rec.Fingerprint, &state, &rec.StatusCode, &rec.Summary, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledgerstore.Record{}, false, nil
		}
		return ledgerstore.Record{}, false, err
	}
	rec.State = ledgerstore.State(state)
	rec.CreatedAt = rec.CreatedAt.UTC()
	return rec, true, nil
}

func (s *Store) Create(ctx context.Context, rec ledgerstore.Record) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO ingest_idempotency_keys (key, fingerprint, state, status_code, summary, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
		rec.Key,
		rec.Fingerprint,
		string(rec.State),
		rec.StatusCode,
		rec.Summary,
		rec.CreatedAt.UTC(),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return ledgerstore.ErrKeyExists
		}
		return err
	}
	return nil
}

func (s *Store) Complete(ctx context.Context, key string, statusCode int, summary []byte) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE ingest_idempotency_keys
		SET state = $2, status_code = $3, summary = $4
		WHERE key = $1
	`, key, string(ledgerstore.StateCompleted), statusCode, summary)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ledgerstore.ErrNotFound
	}
	return nil
}
