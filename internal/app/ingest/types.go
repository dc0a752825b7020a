package ingest

import (
	"bytes"
	"encoding/json"
)

// Amount is a raw monetary field. Clients send money either as a JSON string
// ("99.90") or a bare number; both are kept as their source text so no value
// is rounded through a float before validation.
type Amount string

func (a *Amount) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = Amount(s)
		return nil
	}
	// Number, null or garbage: keep the raw text, validation decides.
	*a = Amount(bytes.TrimSpace(b))
	return nil
}

// RecordInput is the shape of one raw order element in the client payload.
type RecordInput struct {
	OrderID       string      `json:"order_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	TotalAmount   Amount      `json:"total_amount"`
	Status        string      `json:"status"`
	Items         []ItemInput `json:"items"`
}

// ItemInput is one raw line item.
type ItemInput struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
	Price     Amount `json:"price"`
}

// RowError is one entry of a summary's error list: either a validation
// failure keyed by the 1-based stream position, or a batch-scoped storage
// failure carrying a type and detail.
type RowError struct {
	RowNumber int               `json:"row_number,omitempty"`
	Type      string            `json:"type,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Fields    map[string]string `json:"errors,omitempty"`
}

// Summary is the final accounting of one ingestion run. It is marshalled
// once; the resulting bytes are both the response body and the payload stored
// for idempotent replay.
type Summary struct {
	RowsReceived   int        `json:"rows_received"`
	RowsInserted   int        `json:"rows_inserted"`
	RowsFailed     int        `json:"rows_failed"`
	ProcessingTime string     `json:"processing_time"`
	IdempotencyKey *string    `json:"idempotency_key"`
	Errors         []RowError `json:"errors"`
}

// Result is what the transport layer writes back: a status signal plus the
// exact body bytes. Replayed is set when the body came from the ledger.
type Result struct {
	StatusCode int
	Body       []byte
	Replayed   bool
	Summary    *Summary
}
