// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package ops

import (
	"strings"
	"testing"
	"time"

	"github.com/deskpilot/deskpilot/lib/clock"
)

func TestCreateAssignsIDAndDefaults(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	tracker := NewTracker(clk)

	id := tracker.Create("shutdown", "/sessions/abc", map[string]any{"requested_by": "agent"})
	if !strings.HasPrefix(id, "op-") || len(id) != len("op-")+12 {
		t.Fatalf("operation id %q should be op- plus 12 hex characters", id)
	}

	record, ok := tracker.Get(id)
	if !ok {
		t.Fatal("record should exist after create")
	}
	if record.Status != StatusRunning {
		t.Errorf("status = %s, want running", record.Status)
	}
	if record.Progress != 0 {
		t.Errorf("progress = %d, want 0", record.Progress)
	}
	if record.Kind != "shutdown" || record.SessionDir != "/sessions/abc" {
		t.Errorf("kind/dir = %s/%s", record.Kind, record.SessionDir)
	}
	if record.Metadata["requested_by"] != "agent" {
		t.Errorf("metadata not carried: %v", record.Metadata)
	}
}

func TestHeartbeatClampsAndRecordsPhases(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	tracker := NewTracker(clk)
	id := tracker.Create("resume", "", nil)

	tracker.Heartbeat(id, "prepare", "preparing target", -5, nil)
	tracker.Heartbeat(id, "handover", "handing over", 250, nil)

	record, _ := tracker.Get(id)
	if len(record.Phases) != 2 {
		t.Fatalf("phases = %d, want 2", len(record.Phases))
	}
	if record.Phases[0].Progress != 0 {
		t.Errorf("negative progress should clamp to 0, got %d", record.Phases[0].Progress)
	}
	if record.Phases[1].Progress != 100 || record.Progress != 100 {
		t.Errorf("excess progress should clamp to 100, got %d/%d", record.Phases[1].Progress, record.Progress)
	}
}

func TestHeartbeatUnknownIDIsNoOp(t *testing.T) {
	tracker := NewTracker(clock.Fake(time.Unix(1000, 0)))
	tracker.Heartbeat("op-000000000000", "phase", "msg", 50, nil)
	if got := tracker.List(10); len(got) != 0 {
		t.Errorf("heartbeat on unknown id should not create a record, got %d", len(got))
	}
}

func TestPhaseRingBounded(t *testing.T) {
	tracker := NewTracker(clock.Fake(time.Unix(1000, 0)))
	id := tracker.Create("shutdown", "", nil)

	for i := 0; i < maxPhaseEntries+50; i++ {
		tracker.Heartbeat(id, "step", "working", i%100, nil)
	}

	record, _ := tracker.Get(id)
	if len(record.Phases) != maxPhaseEntries {
		t.Fatalf("phase ring = %d entries, want %d", len(record.Phases), maxPhaseEntries)
	}
	// The oldest 50 entries are gone; the last entry is the newest.
	if record.Phases[len(record.Phases)-1].Progress != (maxPhaseEntries+49)%100 {
		t.Errorf("newest phase entry progress = %d", record.Phases[len(record.Phases)-1].Progress)
	}
}

func TestCompleteIsTerminalAndSingleUse(t *testing.T) {
	tracker := NewTracker(clock.Fake(time.Unix(1000, 0)))
	id := tracker.Create("shutdown", "", nil)

	tracker.Complete(id, map[string]any{"suspended": true})
	record, _ := tracker.Get(id)
	if record.Status != StatusSucceeded || record.Progress != 100 {
		t.Fatalf("status/progress = %s/%d after complete", record.Status, record.Progress)
	}

	// Later transitions and heartbeats are no-ops on a terminal record.
	tracker.Fail(id, "late failure", nil)
	tracker.Heartbeat(id, "zombie", "late", 10, nil)
	record, _ = tracker.Get(id)
	if record.Status != StatusSucceeded || record.Progress != 100 {
		t.Errorf("terminal record mutated: %s/%d", record.Status, record.Progress)
	}
	if record.Result["suspended"] != true {
		t.Errorf("result payload lost: %v", record.Result)
	}
}

func TestFailRecordsError(t *testing.T) {
	tracker := NewTracker(clock.Fake(time.Unix(1000, 0)))
	id := tracker.Create("resume", "", nil)

	tracker.Fail(id, "target session is not suspended", nil)
	record, _ := tracker.Get(id)
	if record.Status != StatusFailed {
		t.Fatalf("status = %s, want failed", record.Status)
	}
	if record.Error != "target session is not suspended" {
		t.Errorf("error = %q", record.Error)
	}

	tracker.Complete(id, nil)
	record, _ = tracker.Get(id)
	if record.Status != StatusFailed {
		t.Errorf("complete after fail should be a no-op, status = %s", record.Status)
	}
}

func TestTTLPruneOnCreate(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	tracker := NewTracker(clk, WithTTL(time.Hour))

	stale := tracker.Create("shutdown", "", nil)
	clk.Advance(30 * time.Minute)
	fresh := tracker.Create("resume", "", nil)
	clk.Advance(45 * time.Minute)

	// stale is now 75 minutes old, fresh only 45. Creating a third
	// record triggers the prune.
	tracker.Create("recording", "", nil)

	if _, ok := tracker.Get(stale); ok {
		t.Error("expired record should be pruned on create")
	}
	if _, ok := tracker.Get(fresh); !ok {
		t.Error("record within TTL should survive")
	}
}

func TestCapacityEvictsLeastRecentlyUpdated(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	tracker := NewTracker(clk, WithMaxRecords(10))

	ids := make([]string, 10)
	for i := range ids {
		ids[i] = tracker.Create("shutdown", "", nil)
		clk.Advance(time.Second)
	}

	// Touch the oldest record so it is no longer the LRU victim.
	tracker.Heartbeat(ids[0], "step", "still going", 50, nil)
	clk.Advance(time.Second)

	overflow := tracker.Create("resume", "", nil)

	if _, ok := tracker.Get(ids[1]); ok {
		t.Error("least-recently-updated record should be evicted at capacity")
	}
	if _, ok := tracker.Get(ids[0]); !ok {
		t.Error("recently heartbeated record should survive eviction")
	}
	if _, ok := tracker.Get(overflow); !ok {
		t.Error("newly created record should exist")
	}
}

func TestMaxRecordsFloor(t *testing.T) {
	tracker := NewTracker(clock.Fake(time.Unix(1000, 0)), WithMaxRecords(1))
	if tracker.maxRecords != minMaxRecords {
		t.Errorf("maxRecords = %d, want floor %d", tracker.maxRecords, minMaxRecords)
	}

	tracker = NewTracker(clock.Fake(time.Unix(1000, 0)), WithTTL(time.Second))
	if tracker.ttl != minTTL {
		t.Errorf("ttl = %s, want floor %s", tracker.ttl, minTTL)
	}
}

func TestListOrdersByRecency(t *testing.T) {
	clk := clock.Fake(time.Unix(1000, 0))
	tracker := NewTracker(clk)

	first := tracker.Create("shutdown", "", nil)
	clk.Advance(time.Second)
	second := tracker.Create("resume", "", nil)
	clk.Advance(time.Second)
	tracker.Heartbeat(first, "step", "touched", 10, nil)

	records := tracker.List(10)
	if len(records) != 2 {
		t.Fatalf("list returned %d records", len(records))
	}
	if records[0].OperationID != first || records[1].OperationID != second {
		t.Errorf("list order = %s, %s; want most recently updated first",
			records[0].OperationID, records[1].OperationID)
	}

	if got := tracker.List(1); len(got) != 1 {
		t.Errorf("list limit not applied: %d records", len(got))
	}
}

func TestGetReturnsDetachedCopy(t *testing.T) {
	tracker := NewTracker(clock.Fake(time.Unix(1000, 0)))
	id := tracker.Create("shutdown", "", map[string]any{"key": "value"})
	tracker.Heartbeat(id, "step", "working", 10, map[string]any{"detail": 1})

	record, _ := tracker.Get(id)
	record.Metadata["key"] = "mutated"
	record.Phases[0].Message = "mutated"
	record.Phases[0].Extra["detail"] = 2

	again, _ := tracker.Get(id)
	if again.Metadata["key"] != "value" {
		t.Error("metadata mutation leaked into the tracker")
	}
	if again.Phases[0].Message != "working" || again.Phases[0].Extra["detail"] != 1 {
		t.Error("phase mutation leaked into the tracker")
	}
}
