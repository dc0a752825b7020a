package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	memledger "github.com/shoppulse/order-ingest-api/internal/adapters/memory/ledgerstore"
	memorders "github.com/shoppulse/order-ingest-api/internal/adapters/memory/orderstore"
	"github.com/shoppulse/order-ingest-api/internal/app/idem"
	"github.com/shoppulse/order-ingest-api/internal/app/ingest"
	"github.com/shoppulse/order-ingest-api/internal/platform/metrics"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestRouter(t *testing.T, maxBody int64) (http.Handler, *memorders.Store) {
	t.Helper()

	clk := fixedClock{t: time.Unix(1700000000, 0).UTC()}
	ledger := idem.NewLedger(memledger.NewStore(), clk)
	ledger.Backoff = time.Millisecond
	orders := memorders.NewStore()
	col := metrics.NewCollector()
	svc := ingest.NewService(ledger, orders, clk, col, ingest.Config{
		TenantID: "11111111-2222-3333-4444-555555555555",
	})

	srv := NewServer(svc, col, nil)
	srv.MaxBodyBytes = maxBody
	return NewRouter(srv), orders
}

func ingestRequest(body string, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest/orders", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	return req
}

const validBody = `{"orders":[{
	"customer_name": "Ada Lovelace",
	"total_amount": "100.00",
	"status": "paid",
	"items": [{"product_id": "7b1d2f4e-9c3a-4d5e-8f60-1a2b3c4d5e6f", "quantity": 1, "price": "100.00"}]
}]}`

func TestIngestOrders_OK(t *testing.T) {
	t.Parallel()

	router, orders := newTestRouter(t, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ingestRequest(validBody, ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type=%q", ct)
	}

	var sum struct {
		RowsReceived int `json:"rows_received"`
		RowsInserted int `json:"rows_inserted"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if sum.RowsReceived != 1 || sum.RowsInserted != 1 {
		t.Fatalf("summary=%+v", sum)
	}
	if n, _ := orders.CountOrders(context.Background()); n != 1 {
		t.Fatalf("stored=%d", n)
	}
}

func TestIngestOrders_ReplayHeader(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, 0)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, ingestRequest(validBody, "key-1"))
	if first.Code != http.StatusOK {
		t.Fatalf("first status=%d", first.Code)
	}
	if first.Header().Get("Idempotent-Replayed") != "" {
		t.Fatalf("first response marked replayed")
	}

	second := httptest.NewRecorder()
	router.ServeHTTP(second, ingestRequest(validBody, "key-1"))
	if second.Code != http.StatusOK {
		t.Fatalf("second status=%d", second.Code)
	}
	if second.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("replay header missing")
	}
	if !bytes.Equal(second.Body.Bytes(), first.Body.Bytes()) {
		t.Fatalf("replay body differs:\n%s\n%s", second.Body, first.Body)
	}
}

func TestIngestOrders_ConflictEnvelope(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, 0)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, ingestRequest(validBody, "key-1"))

	other := `{"orders":[{"customer_name":"Other","total_amount":"1.00","status":"created","items":[]}]}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ingestRequest(other, "key-1"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body)
	}
	var env struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Code != "IDEMPOTENCY_CONFLICT" || env.Error.Message == "" {
		t.Fatalf("envelope=%+v", env)
	}
	if env.Error.RequestID == "" {
		t.Fatalf("request_id missing from envelope")
	}
}

func TestIngestOrders_MalformedBody(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ingestRequest(`{broken`, "key-1"))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", rec.Code)
	}
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error.Code != "INVALID_PAYLOAD" {
		t.Fatalf("code=%q", env.Error.Code)
	}
}

func TestIngestOrders_BodyTooLarge(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, 64)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, ingestRequest(validBody, ""))

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, 0)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}
	if body, _ := io.ReadAll(rec.Body); string(body) != "ok" {
		t.Fatalf("body=%q", body)
	}
}

func TestMetricz(t *testing.T) {
	t.Parallel()

	router, _ := newTestRouter(t, 0)

	ok := httptest.NewRecorder()
	router.ServeHTTP(ok, ingestRequest(validBody, ""))
	if ok.Code != http.StatusOK {
		t.Fatalf("ingest status=%d", ok.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metricz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d", rec.Code)
	}

	var snap metrics.Snapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if snap.RowsReceived != 1 || snap.RowsInserted != 1 || snap.BatchesCommitted != 1 {
		t.Fatalf("snapshot=%+v", snap)
	}
}
