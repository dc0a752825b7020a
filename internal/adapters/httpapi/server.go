package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/shoppulse/order-ingest-api/internal/app/ingest"
	"github.com/shoppulse/order-ingest-api/internal/platform/metrics"
)

// IdempotencyKeyHeader carries the client's deduplication token.
const IdempotencyKeyHeader = "Idempotency-Key"

const defaultMaxBodyBytes = 64 << 20

// Server is the HTTP adapter for the ingestion pipeline.
type Server struct {
	Ingest  *ingest.Service
	Metrics *metrics.Collector

	// MaxBodyBytes bounds the request body; zero applies the default.
	MaxBodyBytes int64

	Log *slog.Logger
}

func NewServer(svc *ingest.Service, col *metrics.Collector, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{Ingest: svc, Metrics: col, Log: log}
}

// handleIngestOrders is POST /api/v1/ingest/orders.
func (s *Server) handleIngestOrders(w http.ResponseWriter, r *http.Request) {
	maxBytes := s.MaxBodyBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBodyBytes
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				"request body exceeds the configured limit", nil)
			return
		}
		writeError(w, r, http.StatusBadRequest, "INVALID_PAYLOAD", "could not read request body", nil)
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	res, err := s.Ingest.Ingest(r.Context(), key, body)
	if err != nil {
		var ae *ingest.Error
		if errors.As(err, &ae) {
			writeError(w, r, ae.Status, ae.Code, ae.Message, ae.Details)
			return
		}
		s.Log.Error("ingest failed", "err", err)
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if res.Replayed {
		w.Header().Set("Idempotent-Replayed", "true")
	}
	w.WriteHeader(res.StatusCode)
	_, _ = w.Write(res.Body)
}

// handleMetrics is GET /metricz.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Metrics.Snapshot())
}
