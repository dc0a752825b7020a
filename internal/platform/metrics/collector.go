package metrics

import (
	"sync/atomic"
	"time"
)

// Collector gathers ingest counters with atomic, lock-free updates. All
// methods are safe on a nil receiver so instrumentation can be optional.
type Collector struct {
	rowsReceived     atomic.Int64
	rowsInserted     atomic.Int64
	rowsFailed       atomic.Int64
	batchesCommitted atomic.Int64
	batchesFailed    atomic.Int64
	replaysServed    atomic.Int64
	conflicts        atomic.Int64

	startTime time.Time
}

func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

func (c *Collector) RowsReceived(n int64) {
	if c != nil {
		c.rowsReceived.Add(n)
	}
}

func (c *Collector) RowsInserted(n int64) {
	if c != nil {
		c.rowsInserted.Add(n)
	}
}

func (c *Collector) RowsFailed(n int64) {
	if c != nil {
		c.rowsFailed.Add(n)
	}
}

func (c *Collector) BatchCommitted() {
	if c != nil {
		c.batchesCommitted.Add(1)
	}
}

func (c *Collector) BatchFailed() {
	if c != nil {
		c.batchesFailed.Add(1)
	}
}

func (c *Collector) ReplayServed() {
	if c != nil {
		c.replaysServed.Add(1)
	}
}

func (c *Collector) ConflictRejected() {
	if c != nil {
		c.conflicts.Add(1)
	}
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	RowsReceived      int64   `json:"rows_received"`
	RowsInserted      int64   `json:"rows_inserted"`
	RowsFailed        int64   `json:"rows_failed"`
	BatchesCommitted  int64   `json:"batches_committed"`
	BatchesFailed     int64   `json:"batches_failed"`
	ReplaysServed     int64   `json:"replays_served"`
	ConflictsRejected int64   `json:"conflicts_rejected"`
	Uptime            string  `json:"uptime"`
	RowsPerSecond     float64 `json:"rows_per_second"`
}

// Snapshot returns a consistent view of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	elapsed := time.Since(c.startTime)
	inserted := c.rowsInserted.Load()

	var throughput float64
	if elapsed.Seconds() > 0 {
		throughput = float64(inserted) / elapsed.Seconds()
	}

	return Snapshot{
		RowsReceived:      c.rowsReceived.Load(),
		RowsInserted:      inserted,
		RowsFailed:        c.rowsFailed.Load(),
		BatchesCommitted:  c.batchesCommitted.Load(),
		BatchesFailed:     c.batchesFailed.Load(),
		ReplaysServed:     c.replaysServed.Load(),
		ConflictsRejected: c.conflicts.Load(),
		Uptime:            elapsed.Round(time.Second).String(),
		RowsPerSecond:     throughput,
	}
}
