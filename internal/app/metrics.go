package app

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"
)

// Op identifies a timed document operation.
type Op uint8

const (
	OpInsert Op = iota
	OpDelete
	OpReplace
	OpBatch
	OpUndo
	OpRedo
	OpCheck
	OpVerify
	opCount
)

// String returns the operation name.
func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	case OpReplace:
		return "replace"
	case OpBatch:
		return "batch"
	case OpUndo:
		return "undo"
	case OpRedo:
		return "redo"
	case OpCheck:
		return "check"
	case OpVerify:
		return "verify"
	default:
		return "unknown"
	}
}

type opCounter struct {
	count   atomic.Uint64
	totalNs atomic.Int64
	maxNs   atomic.Int64
}

func (c *opCounter) record(ns int64) {
	c.count.Add(1)
	c.totalNs.Add(ns)

	// Update max (atomic compare-and-swap loop)
	for {
		old := c.maxNs.Load()
		if ns <= old {
			break
		}
		if c.maxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Metrics tracks operation counts and timings. All methods are safe for
// concurrent use.
type Metrics struct {
	ops [opCount]opCounter

	// misses counts undo/redo requests with nothing to apply.
	misses atomic.Uint64

	// Start time for uptime calculation
	startTime atomic.Int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.startTime.Store(time.Now().UnixNano())
	return m
}

// Record records one operation of the given duration.
func (m *Metrics) Record(op Op, duration time.Duration) {
	if op >= opCount {
		return
	}
	m.ops[op].record(duration.Nanoseconds())
}

// RecordMiss records an undo or redo with nothing to apply.
func (m *Metrics) RecordMiss() {
	m.misses.Add(1)
}

// Snapshot returns a snapshot of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Uptime: time.Since(time.Unix(0, m.startTime.Load())),
		Misses: m.misses.Load(),
	}
	for op := range s.Ops {
		c := &m.ops[op]
		st := OpStats{
			Count:   c.count.Load(),
			TotalNs: c.totalNs.Load(),
			MaxNs:   c.maxNs.Load(),
		}
		if st.Count > 0 {
			st.AvgNs = st.TotalNs / int64(st.Count)
		}
		s.Ops[op] = st
	}
	return s
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	for op := range m.ops {
		m.ops[op].count.Store(0)
		m.ops[op].totalNs.Store(0)
		m.ops[op].maxNs.Store(0)
	}
	m.misses.Store(0)
	m.startTime.Store(time.Now().UnixNano())
}

// OpStats summarizes one operation kind.
type OpStats struct {
	Count   uint64
	TotalNs int64
	AvgNs   int64
	MaxNs   int64
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	Uptime time.Duration
	Ops    [opCount]OpStats
	Misses uint64
}

// Op returns the stats of one operation kind.
func (s MetricsSnapshot) Op(op Op) OpStats {
	if op >= opCount {
		return OpStats{}
	}
	return s.Ops[op]
}

// Edits returns the number of edit operations of any kind.
func (s MetricsSnapshot) Edits() uint64 {
	return s.Ops[OpInsert].Count + s.Ops[OpDelete].Count + s.Ops[OpReplace].Count + s.Ops[OpBatch].Count
}

// WriteTo prints one line per operation kind that ran.
func (s MetricsSnapshot) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for op, st := range s.Ops {
		if st.Count == 0 {
			continue
		}
		n, err := fmt.Fprintf(w, "%-7s count=%d avg=%s max=%s\n",
			Op(op), st.Count, time.Duration(st.AvgNs), time.Duration(st.MaxNs))
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	n, err := fmt.Fprintf(w, "misses  %d\nelapsed %s\n", s.Misses, s.Uptime.Round(time.Millisecond))
	total += int64(n)
	return total, err
}

// Timer provides a simple way to measure elapsed time.
type Timer struct {
	start time.Time
}

// StartTimer creates a new timer.
func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Elapsed returns the elapsed time since the timer started.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

// Stop returns the elapsed time and resets the timer.
func (t *Timer) Stop() time.Duration {
	elapsed := t.Elapsed()
	t.start = time.Now()
	return elapsed
}
