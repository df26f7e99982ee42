// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package ops

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"sync"
	"time"

	"github.com/deskpilot/deskpilot/lib/clock"
)

// Status is the lifecycle of an operation record.
type Status string

const (
	// StatusRunning means the transition is still in flight.
	StatusRunning Status = "running"

	// StatusSucceeded is terminal success.
	StatusSucceeded Status = "succeeded"

	// StatusFailed is terminal failure; the Error field explains why.
	StatusFailed Status = "failed"
)

const (
	// DefaultMaxRecords caps the registry size. Least-recently-updated
	// records are evicted first once the cap is exceeded.
	DefaultMaxRecords = 500

	// minMaxRecords is the floor for the record cap.
	minMaxRecords = 10

	// DefaultTTL prunes records not updated within this window.
	DefaultTTL = 24 * time.Hour

	// minTTL is the floor for the record TTL.
	minTTL = time.Minute

	// maxPhaseEntries bounds the per-operation phase ring. Older
	// entries are discarded once the ring is full.
	maxPhaseEntries = 200
)

// PhaseEntry is one progress heartbeat within an operation.
type PhaseEntry struct {
	Phase     string         `json:"phase"`
	Message   string         `json:"message"`
	Progress  int            `json:"progress"`
	Timestamp time.Time      `json:"timestamp"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Record is a point-in-time copy of an operation's state. The tracker
// only ever hands out copies; callers can hold them as long as they
// like.
type Record struct {
	OperationID string         `json:"operation_id"`
	Kind        string         `json:"kind"`
	Status      Status         `json:"status"`
	SessionDir  string         `json:"session_dir,omitempty"`
	Progress    int            `json:"progress"`
	Message     string         `json:"message"`
	Error       string         `json:"error,omitempty"`
	Result      map[string]any `json:"result,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Phases      []PhaseEntry   `json:"phases"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Tracker is the bounded operation registry. All access is serialized
// by one mutex; no method blocks on anything external.
type Tracker struct {
	mu      sync.Mutex
	clk     clock.Clock
	records map[string]*Record

	maxRecords int
	ttl        time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaxRecords overrides the record cap (floor 10).
func WithMaxRecords(n int) Option {
	return func(t *Tracker) {
		if n < minMaxRecords {
			n = minMaxRecords
		}
		t.maxRecords = n
	}
}

// WithTTL overrides the record TTL (floor one minute).
func WithTTL(d time.Duration) Option {
	return func(t *Tracker) {
		if d < minTTL {
			d = minTTL
		}
		t.ttl = d
	}
}

// NewTracker constructs a Tracker with the given clock and options.
func NewTracker(clk clock.Clock, options ...Option) *Tracker {
	tracker := &Tracker{
		clk:        clk,
		records:    make(map[string]*Record),
		maxRecords: DefaultMaxRecords,
		ttl:        DefaultTTL,
	}
	for _, option := range options {
		option(tracker)
	}
	return tracker
}

// Create registers a new running operation and returns its opaque id.
// Pruning runs on every create so the registry stays bounded without
// a background goroutine.
func (t *Tracker) Create(kind, sessionDir string, metadata map[string]any) string {
	id := "op-" + randomHex(6)
	now := t.clk.Now()

	record := &Record{
		OperationID: id,
		Kind:        kind,
		Status:      StatusRunning,
		SessionDir:  sessionDir,
		Progress:    0,
		Message:     "started",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if len(metadata) > 0 {
		record.Metadata = copyMap(metadata)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.pruneLocked(now)
	t.records[id] = record
	return id
}

// Heartbeat appends a phase entry and advances progress. Progress is
// clamped to 0..100. Unknown ids are silently ignored.
func (t *Tracker) Heartbeat(id, phase, message string, progress int, extra map[string]any) {
	if progress < 0 {
		progress = 0
	} else if progress > 100 {
		progress = 100
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.records[id]
	if !ok || record.Status != StatusRunning {
		return
	}

	now := t.clk.Now()
	record.UpdatedAt = now
	record.Progress = progress
	record.Message = message

	entry := PhaseEntry{
		Phase:     phase,
		Message:   message,
		Progress:  progress,
		Timestamp: now,
	}
	if len(extra) > 0 {
		entry.Extra = copyMap(extra)
	}
	record.Phases = append(record.Phases, entry)
	if len(record.Phases) > maxPhaseEntries {
		record.Phases = record.Phases[len(record.Phases)-maxPhaseEntries:]
	}
}

// Complete marks the operation succeeded with progress 100. Terminal
// and single-use: later Complete or Fail calls on the same id are
// no-ops, as are calls with unknown ids.
func (t *Tracker) Complete(id string, result map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.records[id]
	if !ok || record.Status != StatusRunning {
		return
	}
	record.Status = StatusSucceeded
	record.Progress = 100
	record.Message = "completed"
	record.UpdatedAt = t.clk.Now()
	if result != nil {
		record.Result = copyMap(result)
	}
}

// Fail marks the operation failed. Terminal and single-use, like
// Complete.
func (t *Tracker) Fail(id, errorMessage string, result map[string]any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.records[id]
	if !ok || record.Status != StatusRunning {
		return
	}
	record.Status = StatusFailed
	record.Message = "failed"
	record.Error = errorMessage
	record.UpdatedAt = t.clk.Now()
	if result != nil {
		record.Result = copyMap(result)
	}
}

// Get returns a copy of the operation record, or false when the id is
// unknown or already evicted.
func (t *Tracker) Get(id string) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	record, ok := t.records[id]
	if !ok {
		return Record{}, false
	}
	return record.copy(), true
}

// List returns up to limit records, most recently updated first.
func (t *Tracker) List(limit int) []Record {
	if limit < 1 {
		limit = 1
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	all := make([]Record, 0, len(t.records))
	for _, record := range t.records {
		all = append(all, record.copy())
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].UpdatedAt.After(all[j].UpdatedAt)
	})
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// pruneLocked removes expired records, then evicts the
// least-recently-updated records until the count is under the cap.
// Must be called with t.mu held.
func (t *Tracker) pruneLocked(now time.Time) {
	cutoff := now.Add(-t.ttl)
	for id, record := range t.records {
		if record.UpdatedAt.Before(cutoff) {
			delete(t.records, id)
		}
	}
	if len(t.records) < t.maxRecords {
		return
	}

	ordered := make([]*Record, 0, len(t.records))
	for _, record := range t.records {
		ordered = append(ordered, record)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].UpdatedAt.Before(ordered[j].UpdatedAt)
	})
	// Evict down to one below the cap so the record being created
	// fits without immediately exceeding it.
	excess := len(t.records) - t.maxRecords + 1
	for _, record := range ordered[:excess] {
		delete(t.records, record.OperationID)
	}
}

// copy returns a detached copy of the record, including its phase
// slice and maps.
func (r *Record) copy() Record {
	out := *r
	if r.Phases != nil {
		out.Phases = make([]PhaseEntry, len(r.Phases))
		copy(out.Phases, r.Phases)
		for i := range out.Phases {
			out.Phases[i].Extra = copyMap(out.Phases[i].Extra)
		}
	}
	out.Result = copyMap(r.Result)
	out.Metadata = copyMap(r.Metadata)
	return out
}

func copyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// randomHex returns n random bytes hex-encoded. Operation ids do not
// need to be unguessable, but crypto/rand avoids any seeding concerns.
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the platform is broken.
		panic("ops: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
