package idem

import (
	"context"
	"errors"
	"fmt"
	"time"

	clockport "github.com/shoppulse/order-ingest-api/internal/ports/out/clock"
	"github.com/shoppulse/order-ingest-api/internal/ports/out/ledgerstore"
)

// Outcome of reserving an idempotency key.
type Outcome int

const (
	// OutcomePassthrough means no key was supplied; the run proceeds without
	// deduplication and no ledger writes occur.
	OutcomePassthrough Outcome = iota
	// OutcomeMiss means the key was reserved; the caller must run the
	// pipeline and finalize with the resulting response.
	OutcomeMiss
	// OutcomeHit means the key was already completed with the same payload;
	// the stored response is returned verbatim.
	OutcomeHit
	// OutcomeConflict means the key was reused with a different payload, or
	// a concurrent reservation never resolved within the retry budget.
	OutcomeConflict
)

// Decision is the result of Reserve. For OutcomeHit, StatusCode and Summary
// carry the stored response of the original run unmodified. For
// OutcomeConflict, Reason is a short client-facing explanation.
type Decision struct {
	Outcome    Outcome
	StatusCode int
	Summary    []byte
	Reason     string

	key      string
	reserved bool
}

// Reserved reports whether this decision holds a reservation that Finalize
// will complete.
func (d Decision) Reserved() bool { return d.reserved }

// Ledger implements the two-phase idempotency protocol over a durable record
// store: reserve the key atomically before processing, finalize it with the
// response after a full run.
type Ledger struct {
	store ledgerstore.Store
	clk   clockport.Clock

	// MaxAttempts bounds how many times Reserve re-reads the record after
	// losing a create race or finding a pending reservation. Backoff is the
	// sleep between attempts.
	MaxAttempts int
	Backoff     time.Duration

	// PendingTakeoverAfter is the age past which a PENDING record is treated
	// as abandoned (its run crashed or was cancelled mid-stream) and the key
	// is re-reserved instead of waited on.
	PendingTakeoverAfter time.Duration

	sleep func(ctx context.Context, d time.Duration) error
}

func NewLedger(store ledgerstore.Store, clk clockport.Clock) *Ledger {
	return &Ledger{
		store:                store,
		clk:                  clk,
		MaxAttempts:          5,
		Backoff:              100 * time.Millisecond,
		PendingTakeoverAfter: 30 * time.Second,
		sleep:                sleepCtx,
	}
}

// Reserve deduplicates one logical request identified by key.
//
// An empty key yields OutcomePassthrough. Otherwise the payload fingerprint
// is compared against any stored record: a completed record with a matching
// fingerprint replays as OutcomeHit, a mismatched fingerprint is
// OutcomeConflict, and an absent record is claimed atomically as OutcomeMiss.
// Create races and still-pending matching records are retried with backoff up
// to MaxAttempts before surfacing a conflict-class decision.
func (l *Ledger) Reserve(ctx context.Context, key string, body []byte) (Decision, error) {
	if key == "" {
		return Decision{Outcome: OutcomePassthrough}, nil
	}
	fp, err := Fingerprint(body)
	if err != nil {
		return Decision{}, err
	}

	for attempt := 1; ; attempt++ {
		rec, ok, err := l.store.Get(ctx, key)
		if err != nil {
			return Decision{}, fmt.Errorf("idempotency lookup: %w", err)
		}
		switch {
		case ok && rec.Fingerprint != fp:
			return Decision{
				Outcome: OutcomeConflict,
				Reason:  "idempotency key reused with a different payload",
			}, nil
		case ok && rec.State == ledgerstore.StateCompleted:
			return Decision{
				Outcome:    OutcomeHit,
				StatusCode: rec.StatusCode,
				Summary:    rec.Summary,
			}, nil
		case ok:
			// Matching fingerprint, still PENDING. If the record is old
			// enough its run is considered abandoned and this request takes
			// over the reservation; otherwise wait for the holder to finish.
			if l.clk.Now().Sub(rec.CreatedAt) >= l.PendingTakeoverAfter {
				return Decision{Outcome: OutcomeMiss, key: key, reserved: true}, nil
			}
		default:
			err := l.store.Create(ctx, ledgerstore.Record{
				Key:         key,
				Fingerprint: fp,
				State:       ledgerstore.StatePending,
				CreatedAt:   l.clk.Now(),
			})
			if err == nil {
				return Decision{Outcome: OutcomeMiss, key: key, reserved: true}, nil
			}
			if !errors.Is(err, ledgerstore.ErrKeyExists) {
				return Decision{}, fmt.Errorf("idempotency reserve: %w", err)
			}
			// Lost the create race; re-read and converge on the winner.
		}

		if attempt >= l.MaxAttempts {
			return Decision{
				Outcome: OutcomeConflict,
				Reason:  "a concurrent request with this idempotency key is still in progress",
			}, nil
		}
		if err := l.sleep(ctx, l.Backoff); err != nil {
			return Decision{}, err
		}
	}
}

// Finalize stores the response for the reserved key and transitions the
// record to COMPLETED. It is an explicit no-op for decisions that hold no
// reservation (passthrough, hit, conflict). A run that dies before calling
// it leaves the record PENDING until the takeover age passes.
func (l *Ledger) Finalize(ctx context.Context, dec Decision, statusCode int, summary []byte) error {
	if !dec.reserved {
		return nil
	}
	if err := l.store.Complete(ctx, dec.key, statusCode, summary); err != nil {
		return fmt.Errorf("idempotency finalize: %w", err)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
