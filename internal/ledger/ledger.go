// Package ledger accumulates confirmed violation records for a processing run
// and serialises them on demand. Records are appended in confirmation order,
// never mutated, and cleared only by an explicit reset between runs.
package ledger

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// ViolationRecord is one confirmed lane violation. Immutable once created.
type ViolationRecord struct {
	Identity     string    `json:"vehicle_id"`
	Class        string    `json:"vehicle_class"`
	FrameIndex   int64     `json:"frame_index"`
	RecordedAt   time.Time `json:"recorded_at"`
	EvidencePath string    `json:"evidence_path"`
}

// Ledger is the append-only in-memory record sequence for one run. Append may
// be called while the API serves snapshots, so access is mutex-guarded.
type Ledger struct {
	mu      sync.Mutex
	runID   string
	records []ViolationRecord
}

// NewLedger creates an empty ledger with a fresh run ID.
func NewLedger() *Ledger {
	return &Ledger{runID: uuid.NewString()}
}

// RunID returns the identifier of the current run.
func (l *Ledger) RunID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.runID
}

// Append adds a record at the end of the sequence.
func (l *Ledger) Append(rec ViolationRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, rec)
}

// Records returns a snapshot copy in confirmation order.
func (l *Ledger) Records() []ViolationRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]ViolationRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Len returns the number of accumulated records.
func (l *Ledger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Reset clears all records and starts a new run.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = nil
	l.runID = uuid.NewString()
}
