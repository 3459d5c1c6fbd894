package pipeline

import (
	"sync/atomic"
	"time"
)

// State names the phase a rebuild run is in. Exposed on the admin status
// endpoint.
type State string

const (
	StateIdle        State = "idle"
	StateConnecting  State = "connecting"
	StatePreparing   State = "preparing_index"
	StateStreaming   State = "streaming"
	StateFinalizing  State = "finalizing"
	StateCuttingOver State = "cutting_over"
	StateDone        State = "done"
	StateFailed      State = "failed"
)

// Progress is the live counter set for a run. All methods are safe to call
// concurrently; the admin server reads snapshots while the pipeline writes.
type Progress struct {
	state     atomic.Value // State
	total     atomic.Int64
	processed atomic.Int64
	errors    atomic.Int64
	batches   atomic.Int64
	startedAt atomic.Value // time.Time
}

// Snapshot is a point-in-time view of a run, JSON-shaped for the status
// endpoint.
type Snapshot struct {
	State          State   `json:"state"`
	Total          int64   `json:"total"`
	Processed      int64   `json:"processed"`
	Errors         int64   `json:"errors"`
	Batches        int64   `json:"batches"`
	StartedAt      string  `json:"started_at,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
}

// NewProgress returns a tracker in the idle state.
func NewProgress() *Progress {
	p := &Progress{}
	p.state.Store(StateIdle)
	return p
}

func (p *Progress) setState(s State) {
	p.state.Store(s)
}

func (p *Progress) start(total int64) {
	p.total.Store(total)
	p.processed.Store(0)
	p.errors.Store(0)
	p.batches.Store(0)
	p.startedAt.Store(time.Now())
}

func (p *Progress) addProcessed(n int64) { p.processed.Add(n) }
func (p *Progress) addErrors(n int64)    { p.errors.Add(n) }
func (p *Progress) addBatch()            { p.batches.Add(1) }

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Snapshot {
	snap := Snapshot{
		State:     p.state.Load().(State),
		Total:     p.total.Load(),
		Processed: p.processed.Load(),
		Errors:    p.errors.Load(),
		Batches:   p.batches.Load(),
	}
	if started, ok := p.startedAt.Load().(time.Time); ok && !started.IsZero() {
		snap.StartedAt = started.UTC().Format(time.RFC3339)
		snap.ElapsedSeconds = time.Since(started).Seconds()
	}
	return snap
}
