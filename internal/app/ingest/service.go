package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shoppulse/order-ingest-api/internal/app/idem"
	"github.com/shoppulse/order-ingest-api/internal/domain"
	"github.com/shoppulse/order-ingest-api/internal/platform/metrics"
	clockport "github.com/shoppulse/order-ingest-api/internal/ports/out/clock"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/orderstore"
)

// Config carries the per-deployment knobs of the ingestion pipeline. The
// tenant is explicit configuration, never ambient process state.
type Config struct {
	TenantID  domain.TenantID
	BatchSize int
	// MaxErrors bounds the error list in a summary; counts stay exact.
	MaxErrors int
}

// DefaultMaxErrors is used when Config.MaxErrors is zero.
const DefaultMaxErrors = 100

// Service is the ingestion pipeline: it deduplicates the request through the
// idempotency ledger, streams records through validation into bounded
// transactional batches, and finalizes the ledger with the summary.
type Service struct {
	ledger *idem.Ledger
	store  orderstore.Store
	clk    clockport.Clock
	col    *metrics.Collector
	cfg    Config

	newOrderID func() domain.OrderID
}

func NewService(ledger *idem.Ledger, store orderstore.Store, clk clockport.Clock, col *metrics.Collector, cfg Config) *Service {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultMaxErrors
	}
	return &Service{
		ledger: ledger,
		store:  store,
		clk:    clk,
		col:    col,
		cfg:    cfg,
		newOrderID: func() domain.OrderID {
			return domain.OrderID(uuid.NewString())
		},
	}
}

// Ingest runs one bulk ingestion request. key may be empty (no
// deduplication). The returned error is an *Error for client-attributable
// failures (conflict, malformed payload); any other error is internal.
func (s *Service) Ingest(ctx context.Context, key string, body []byte) (Result, error) {
	start := s.clk.Now()

	// Reject malformed JSON before reserving anything: no ledger record may
	// exist for a body the stream cannot fully read.
	if !json.Valid(body) {
		return Result{}, &Error{
			Status:  http.StatusBadRequest,
			Code:    "INVALID_PAYLOAD",
			Message: "request body is not valid JSON",
		}
	}

	dec, err := s.ledger.Reserve(ctx, key, body)
	if err != nil {
		return Result{}, err
	}

	switch dec.Outcome {
	case idem.OutcomeHit:
		s.col.ReplayServed()
		return Result{StatusCode: dec.StatusCode, Body: dec.Summary, Replayed: true}, nil
	case idem.OutcomeConflict:
		s.col.ConflictRejected()
		return Result{}, &Error{
			Status:  http.StatusConflict,
			Code:    "IDEMPOTENCY_CONFLICT",
			Message: dec.Reason,
		}
	}

	sum := s.run(ctx, key, body, start)

	respBody, err := json.Marshal(sum)
	if err != nil {
		return Result{}, fmt.Errorf("marshal summary: %w", err)
	}
	status := http.StatusOK
	if sum.RowsInserted == 0 {
		status = http.StatusBadRequest
	}
	if err := s.ledger.Finalize(ctx, dec, status, respBody); err != nil {
		return Result{}, err
	}
	return Result{StatusCode: status, Body: respBody, Summary: &sum}, nil
}

// run is the streaming pass: one record at a time through validation into
// the batch inserter. Every failure class ends up in the summary, structural
// payload errors included, so the caller always finalizes a keyed run and an
// identical retry replays instead of finding a stranded PENDING record.
func (s *Service) run(ctx context.Context, key string, body []byte, start time.Time) Summary {
	src := NewJSONSource(bytes.NewReader(body))
	batch := NewBatchInserter(s.store, s.cfg.BatchSize)

	sum := Summary{Errors: []RowError{}}
	if key != "" {
		sum.IdempotencyKey = &key
	}

	for {
		raw, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// The body already passed json.Valid, so this is a shape problem
			// (no orders array, orders not an array): deterministic for this
			// payload, recorded like any other failure.
			s.appendError(&sum, RowError{Type: "invalid_payload", Detail: err.Error()})
			break
		}

		sum.RowsReceived++
		s.col.RowsReceived(1)

		order, ferrs := ValidateRecord(raw)
		if len(ferrs) > 0 {
			sum.RowsFailed++
			s.col.RowsFailed(1)
			s.appendError(&sum, RowError{RowNumber: sum.RowsReceived, Fields: ferrs})
			continue
		}

		if order.ID == "" {
			order.ID = s.newOrderID()
		}
		order.TenantID = s.cfg.TenantID
		order.CreatedAt = s.clk.Now()

		s.applyFlush(&sum, batch.Add(ctx, order, sum.RowsReceived))
	}

	s.applyFlush(&sum, batch.Flush(ctx))

	sum.ProcessingTime = fmt.Sprintf("%.2fs", s.clk.Now().Sub(start).Seconds())
	return sum
}

func (s *Service) applyFlush(sum *Summary, out *FlushOutcome) {
	if out == nil {
		return
	}
	sum.RowsInserted += out.Committed
	sum.RowsFailed += out.Failed
	if out.Err != nil {
		s.col.BatchFailed()
		s.col.RowsFailed(int64(out.Failed))
		s.appendError(sum, *out.Err)
		return
	}
	s.col.BatchCommitted()
	s.col.RowsInserted(int64(out.Committed))
}

// appendError adds an error entry unless the bounded list is full; the first
// overflow is marked once so readers know entries were dropped.
func (s *Service) appendError(sum *Summary, e RowError) {
	switch {
	case len(sum.Errors) < s.cfg.MaxErrors:
		sum.Errors = append(sum.Errors, e)
	case len(sum.Errors) == s.cfg.MaxErrors:
		sum.Errors = append(sum.Errors, RowError{
			Type:   "error_limit_reached",
			Detail: fmt.Sprintf("additional errors omitted after the first %d", s.cfg.MaxErrors),
		})
	}
}
