package config

import (
	"strings"
	"testing"
	"time"
)

const tenantID = "11111111-2222-3333-4444-555555555555"

func TestLoadIngestConfig_Defaults(t *testing.T) {
	t.Setenv("DEFAULT_TENANT_ID", tenantID)

	cfg, err := LoadIngestConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadIngestConfigFromEnv() err=%v", err)
	}
	if string(cfg.TenantID) != tenantID {
		t.Fatalf("tenant=%s", cfg.TenantID)
	}
	if cfg.BatchSize != 5000 || cfg.MaxBodyBytes != 64<<20 || cfg.MaxErrors != 100 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.ReserveMaxAttempts != 5 || cfg.ReserveBackoff != 100*time.Millisecond || cfg.PendingTakeoverAfter != 30*time.Second {
		t.Fatalf("ledger cfg=%+v", cfg)
	}
}

func TestLoadIngestConfig_Overrides(t *testing.T) {
	t.Setenv("DEFAULT_TENANT_ID", tenantID)
	t.Setenv("INGEST_BATCH_SIZE", "250")
	t.Setenv("INGEST_MAX_BODY_BYTES", "1048576")
	t.Setenv("INGEST_MAX_ERRORS", "10")
	t.Setenv("IDEMPOTENCY_MAX_ATTEMPTS", "8")
	t.Setenv("IDEMPOTENCY_RETRY_BACKOFF", "25ms")
	t.Setenv("IDEMPOTENCY_PENDING_TAKEOVER", "2m")

	cfg, err := LoadIngestConfigFromEnv()
	if err != nil {
		t.Fatalf("LoadIngestConfigFromEnv() err=%v", err)
	}
	if cfg.BatchSize != 250 || cfg.MaxBodyBytes != 1<<20 || cfg.MaxErrors != 10 {
		t.Fatalf("cfg=%+v", cfg)
	}
	if cfg.ReserveMaxAttempts != 8 || cfg.ReserveBackoff != 25*time.Millisecond || cfg.PendingTakeoverAfter != 2*time.Minute {
		t.Fatalf("ledger cfg=%+v", cfg)
	}
}

func TestLoadIngestConfig_MissingTenant(t *testing.T) {
	t.Setenv("DEFAULT_TENANT_ID", "")

	_, err := LoadIngestConfigFromEnv()
	if err == nil || !strings.Contains(err.Error(), "DEFAULT_TENANT_ID") {
		t.Fatalf("err=%v", err)
	}
}

func TestLoadIngestConfig_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"DEFAULT_TENANT_ID":         "not-a-uuid",
		"INGEST_BATCH_SIZE":         "0",
		"INGEST_MAX_BODY_BYTES":     "-1",
		"INGEST_MAX_ERRORS":         "many",
		"IDEMPOTENCY_MAX_ATTEMPTS":  "0",
		"IDEMPOTENCY_RETRY_BACKOFF": "fast",
	}
	for key, bad := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv("DEFAULT_TENANT_ID", tenantID)
			t.Setenv(key, bad)
			if _, err := LoadIngestConfigFromEnv(); err == nil {
				t.Fatalf("want error for %s=%q", key, bad)
			}
		})
	}
}
