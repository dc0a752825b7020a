package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shoppulse/order-ingest-api/internal/adapters/httpapi"
	memledgerstore "github.com/shoppulse/order-ingest-api/internal/adapters/memory/ledgerstore"
	memorderstore "github.com/shoppulse/order-ingest-api/internal/adapters/memory/orderstore"
	postgres "github.com/shoppulse/order-ingest-api/internal/adapters/postgres"
	pgledgerstore "github.com/shoppulse/order-ingest-api/internal/adapters/postgres/ledgerstore"
	pgorderstore "github.com/shoppulse/order-ingest-api/internal/adapters/postgres/orderstore"
	"github.com/shoppulse/order-ingest-api/internal/adapters/sqlite"
	"github.com/shoppulse/order-ingest-api/internal/app/idem"
	"github.com/shoppulse/order-ingest-api/internal/app/ingest"
	platformclock "github.com/shoppulse/order-ingest-api/internal/platform/clock"
	"github.com/shoppulse/order-ingest-api/internal/platform/config"
	"github.com/shoppulse/order-ingest-api/internal/platform/metrics"
	ledgerstoreport "github.com/shoppulse/order-ingest-api/internal/ports/out/ledgerstore"
	orderstoreport "github.com/shoppulse/order-ingest-api/internal/ports/out/orderstore"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	port := getenv("PORT", "8080")

	cfg, err := config.LoadIngestConfigFromEnv()
	if err != nil {
		log.Fatalf("invalid ingest config: %v", err)
	}

	clk := platformclock.NewSystemClock()

	storageBackend := getenv("STORAGE_BACKEND", "memory")
	var (
		ledgerStore ledgerstoreport.Store
		orderStore  orderstoreport.Store
		cleanup     func()
	)

	switch storageBackend {
	case "postgres":
		dsn := os.Getenv("DATABASE_URL")
		pool, err := postgres.NewPool(context.Background(), dsn, postgres.PoolOptions{})
		if err != nil {
			log.Fatalf("invalid postgres config: %v", err)
		}
		cleanup = pool.Close

		ledgerStore = pgledgerstore.NewStore(pool)
		orderStore = pgorderstore.NewStore(pool)
	case "sqlite":
		path := getenv("SQLITE_PATH", "./shoppulse.db")
		store, err := sqlite.New(path)
		if err != nil {
			log.Fatalf("open sqlite store: %v", err)
		}
		cleanup = func() { _ = store.Close() }

		ledgerStore = store
		orderStore = store
	default:
		ledgerStore = memledgerstore.NewStore()
		orderStore = memorderstore.NewStore()
	}

	if cleanup != nil {
		defer cleanup()
	}

	ledger := idem.NewLedger(ledgerStore, clk)
	ledger.MaxAttempts = cfg.ReserveMaxAttempts
	ledger.Backoff = cfg.ReserveBackoff
	ledger.PendingTakeoverAfter = cfg.PendingTakeoverAfter

	col := metrics.NewCollector()
	svc := ingest.NewService(ledger, orderStore, clk, col, ingest.Config{
		TenantID:  cfg.TenantID,
		BatchSize: cfg.BatchSize,
		MaxErrors: cfg.MaxErrors,
	})

	api := httpapi.NewServer(svc, col, logger)
	api.MaxBodyBytes = cfg.MaxBodyBytes

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           httpapi.NewRouter(api),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("api listening", "port", port, "backend", storageBackend, "batch_size", cfg.BatchSize)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
