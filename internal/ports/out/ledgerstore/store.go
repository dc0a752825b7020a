package ledgerstore

import (
	"context"
	"errors"
	"time"
)

// State of an idempotency record.
type State string

const (
	// StatePending marks a key that has been reserved but whose run has not
	// completed. A record left in this state means the run was aborted.
	StatePending State = "PENDING"
	// StateCompleted marks a key whose final response is stored for replay.
	StateCompleted State = "COMPLETED"
)

// ErrKeyExists is returned by Create when a record for the key already
// exists. Callers treat it as losing the reservation race.
var ErrKeyExists = errors.New("idempotency key already exists")

// ErrNotFound is returned by Complete when no record exists for the key.
var ErrNotFound = errors.New("idempotency record not found")

// Record is the durable state of one idempotency key.
//
// The fingerprint never changes after creation; Summary holds the exact
// response bytes of the original run so replays are byte-identical.
type Record struct {
	Key         string
	Fingerprint string
	State       State
	StatusCode  int
	Summary     []byte
	CreatedAt   time.Time
}

// Store persists idempotency records. Create must be atomic create-if-absent:
// of two concurrent calls for the same key exactly one succeeds, the other
// receives ErrKeyExists. Records are never deleted by this store (retention
// is an external policy).
type Store interface {
	Get(ctx context.Context, key string) (Record, bool, error)
	Create(ctx context.Context, rec Record) error
	Complete(ctx context.Context, key string, statusCode int, summary []byte) error
}
