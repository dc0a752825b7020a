// Package sqlite provides a SQLite-backed implementation of both storage
// ports: the idempotency record store and the order store. It is the
// single-file deployment backend; the same patterns apply to Postgres with
// only dialect differences.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/shoppulse/order-ingest-api/internal/ports/out/ledgerstore"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/orderstore"
)

// Store implements ledgerstore.Store and orderstore.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: SQLite serializes writers anyway, and a pool would give
	// each :memory: connection its own database.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		tenant_id TEXT NOT NULL,
		customer_name TEXT NOT NULL,
		customer_email TEXT,
		total_amount TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_orders_tenant_created
		ON orders(tenant_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_orders_tenant_status
		ON orders(tenant_id, status);

	CREATE TABLE IF NOT EXISTS order_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		order_id TEXT NOT NULL REFERENCES orders(id),
		product_id TEXT NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		price TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_order_items_order
		ON order_items(order_id);

	CREATE TABLE IF NOT EXISTS ingest_idempotency_keys (
		key TEXT PRIMARY KEY,
		fingerprint TEXT NOT NULL,
		state TEXT NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		summary BLOB,
		created_at TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// --- ledgerstore.Store ---

func (s *Store) Get(ctx context.Context, key string) (ledgerstore.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT fingerprint, state, status_code, summary, created_at
		FROM ingest_idempotency_keys
		WHERE key = ?
	`, key)

	rec := ledgerstore.Record{Key: key}
	var state, createdAt string
	if err := row.Scan(&rec.Fingerprint, &state, &rec.StatusCode, &rec.Summary, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledgerstore.Record{}, false, nil
		}
		return ledgerstore.Record{}, false, err
	}
	rec.State = ledgerstore.State(state)
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return ledgerstore.Record{}, false, fmt.Errorf("parse created_at: %w", err)
	}
	rec.CreatedAt = t
	return rec, true, nil
}

func (s *Store) Create(ctx context.Context, rec ledgerstore.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ingest_idempotency_keys (key, fingerprint, state, status_code, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		rec.Key,
		rec.Fingerprint,
		string(rec.State),
		rec.StatusCode,
		rec.Summary,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isConstraintErr(err) {
			return ledgerstore.ErrKeyExists
		}
		return err
	}
	return nil
}

func (s *Store) Complete(ctx context.Context, key string, statusCode int, summary []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE ingest_idempotency_keys
		SET state = ?, status_code = ?, summary = ?
		WHERE key = ?
	`, string(ledgerstore.StateCompleted), statusCode, summary, key)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledgerstore.ErrNotFound
	}
	return nil
}

// --- orderstore.Store ---

func (s *Store) InsertBatch(ctx context.Context, rows []orderstore.OrderRow) error {
	if len(rows) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	orderStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO orders (id, tenant_id, customer_name, customer_email, total_amount, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer orderStmt.Close()

	itemStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO order_items (order_id, product_id, quantity, price)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer itemStmt.Close()

	for _, row := range rows {
		_, err := orderStmt.ExecContext(ctx,
			string(row.ID),
			string(row.TenantID),
			row.CustomerName,
			row.CustomerEmail,
			row.TotalAmount.StringFixed(2),
			row.Status,
			row.CreatedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return wrapConstraint(err)
		}
	}
	for _, row := range rows {
		for _, it := range row.Items {
			_, err := itemStmt.ExecContext(ctx,
				string(row.ID),
				string(it.ProductID),
				it.Quantity,
				it.Price.StringFixed(2),
			)
			if err != nil {
				return wrapConstraint(err)
			}
		}
	}
	return tx.Commit()
}

func (s *Store) CountOrders(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM orders`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// TotalAmount returns one stored order's total, for tests and diagnostics.
func (s *Store) TotalAmount(ctx context.Context, orderID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var raw string
	if err := s.db.QueryRowContext(ctx, `SELECT total_amount FROM orders WHERE id = ?`, orderID).Scan(&raw); err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(raw)
}

func isConstraintErr(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.Code == sqlite3.ErrConstraint
}

func wrapConstraint(err error) error {
	if isConstraintErr(err) {
		return fmt.Errorf("%w: %v", orderstore.ErrConstraintViolation, err)
	}
	return err
}
