// Package testutil opens a migrated Postgres pool for adapter tests. Tests
// are skipped unless TEST_DATABASE_URL points at a disposable database.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS orders (
	id             UUID PRIMARY KEY,
	tenant_id      UUID NOT NULL,
	customer_name  VARCHAR(255) NOT NULL,
	customer_email VARCHAR(254),
	total_amount   NUMERIC(10,2) NOT NULL,
	status         VARCHAR(50) NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS order_items (
	id         BIGSERIAL PRIMARY KEY,
	order_id   UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
	product_id UUID NOT NULL,
	quantity   INTEGER NOT NULL CHECK (quantity >= 1),
	price      NUMERIC(10,2) NOT NULL
);
CREATE TABLE IF NOT EXISTS ingest_idempotency_keys (
	key         VARCHAR(255) PRIMARY KEY,
	fingerprint VARCHAR(64) NOT NULL,
	state       VARCHAR(16) NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	summary     BYTEA,
	created_at  TIMESTAMPTZ NOT NULL
);
`

// OpenMigratedPool connects to TEST_DATABASE_URL, applies the schema, and
// truncates all tables so each test starts clean. The pool is closed on test
// cleanup.
func OpenMigratedPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping postgres adapter tests")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE order_items, orders, ingest_idempotency_keys`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return pool
}
