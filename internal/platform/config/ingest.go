package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shoppulse/order-ingest-api/internal/domain"
)

// IngestConfig configures the ingestion pipeline and the idempotency ledger.
//
// The tenant every ingested row is attributed to is deployment-provided:
// request-level tenant resolution is an external concern.
type IngestConfig struct {
	TenantID domain.TenantID

	BatchSize    int
	MaxBodyBytes int64
	MaxErrors    int

	ReserveMaxAttempts   int
	ReserveBackoff       time.Duration
	PendingTakeoverAfter time.Duration
}

func LoadIngestConfigFromEnv() (IngestConfig, error) {
	tenant := os.Getenv("DEFAULT_TENANT_ID")
	if tenant == "" {
		return IngestConfig{}, fmt.Errorf("missing required env var: DEFAULT_TENANT_ID")
	}
	if _, err := uuid.Parse(tenant); err != nil {
		return IngestConfig{}, fmt.Errorf("DEFAULT_TENANT_ID must be a UUID: %w", err)
	}

	// Defaults that make local/dev/test behavior predictable.
	cfg := IngestConfig{
		TenantID:             domain.TenantID(tenant),
		BatchSize:            5000,
		MaxBodyBytes:         64 << 20,
		MaxErrors:            100,
		ReserveMaxAttempts:   5,
		ReserveBackoff:       100 * time.Millisecond,
		PendingTakeoverAfter: 30 * time.Second,
	}

	if v := os.Getenv("INGEST_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return IngestConfig{}, fmt.Errorf("INGEST_BATCH_SIZE must be a positive integer")
		}
		cfg.BatchSize = n
	}
	if v := os.Getenv("INGEST_MAX_BODY_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return IngestConfig{}, fmt.Errorf("INGEST_MAX_BODY_BYTES must be a positive integer")
		}
		cfg.MaxBodyBytes = n
	}
	if v := os.Getenv("INGEST_MAX_ERRORS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return IngestConfig{}, fmt.Errorf("INGEST_MAX_ERRORS must be a positive integer")
		}
		cfg.MaxErrors = n
	}
	if v := os.Getenv("IDEMPOTENCY_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return IngestConfig{}, fmt.Errorf("IDEMPOTENCY_MAX_ATTEMPTS must be a positive integer")
		}
		cfg.ReserveMaxAttempts = n
	}
	if v := os.Getenv("IDEMPOTENCY_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return IngestConfig{}, fmt.Errorf("IDEMPOTENCY_RETRY_BACKOFF must be a duration (e.g. 100ms): %w", err)
		}
		cfg.ReserveBackoff = d
	}
	if v := os.Getenv("IDEMPOTENCY_PENDING_TAKEOVER"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return IngestConfig{}, fmt.Errorf("IDEMPOTENCY_PENDING_TAKEOVER must be a duration (e.g. 30s): %w", err)
		}
		cfg.PendingTakeoverAfter = d
	}

	return cfg, nil
}
