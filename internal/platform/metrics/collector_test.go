package metrics

import (
	"sync"
	"testing"
)

func TestCollector_Counters(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	c.RowsReceived(10)
	c.RowsInserted(7)
	c.RowsFailed(3)
	c.BatchCommitted()
	c.BatchCommitted()
	c.BatchFailed()
	c.ReplayServed()
	c.ConflictRejected()

	s := c.Snapshot()
	if s.RowsReceived != 10 || s.RowsInserted != 7 || s.RowsFailed != 3 {
		t.Fatalf("snapshot=%+v", s)
	}
	if s.BatchesCommitted != 2 || s.BatchesFailed != 1 {
		t.Fatalf("snapshot=%+v", s)
	}
	if s.ReplaysServed != 1 || s.ConflictsRejected != 1 {
		t.Fatalf("snapshot=%+v", s)
	}
}

func TestCollector_NilReceiverSafe(t *testing.T) {
	t.Parallel()

	var c *Collector
	c.RowsReceived(1)
	c.BatchCommitted()
	if s := c.Snapshot(); s.RowsReceived != 0 {
		t.Fatalf("snapshot=%+v", s)
	}
}

func TestCollector_ConcurrentUpdates(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.RowsReceived(1)
				c.RowsInserted(1)
			}
		}()
	}
	wg.Wait()

	s := c.Snapshot()
	if s.RowsReceived != 1000 || s.RowsInserted != 1000 {
		t.Fatalf("snapshot=%+v", s)
	}
}
