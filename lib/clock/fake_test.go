// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeNow(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)

	if got := fake.Now(); !got.Equal(start) {
		t.Errorf("Now = %v, want %v", got, start)
	}

	fake.Advance(90 * time.Second)
	if got := fake.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("Now after Advance = %v, want %v", got, start.Add(90*time.Second))
	}
}

func TestFakeAfterFiresOnAdvance(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	ch := fake.After(time.Minute)

	select {
	case <-ch:
		t.Fatal("After fired before the clock advanced")
	default:
	}

	fake.Advance(time.Minute)
	select {
	case <-ch:
	default:
		t.Fatal("After did not fire once the clock advanced past the deadline")
	}
}

func TestFakeAfterNonPositive(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) should fire immediately")
	}
}

func TestFakeAfterFuncRunsOnAdvance(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	fired := false
	fake.AfterFunc(30*time.Second, func() { fired = true })

	fake.Advance(29 * time.Second)
	if fired {
		t.Fatal("callback ran before the deadline")
	}
	fake.Advance(time.Second)
	if !fired {
		t.Fatal("callback did not run after the deadline")
	}
}

func TestFakeAfterFuncStop(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	fired := false
	timer := fake.AfterFunc(time.Minute, func() { fired = true })

	if !timer.Stop() {
		t.Fatal("Stop on a pending timer should return true")
	}
	fake.Advance(2 * time.Minute)
	if fired {
		t.Fatal("stopped timer still fired")
	}
	if timer.Stop() {
		t.Error("second Stop should return false")
	}
}

func TestFakeAfterFuncImmediate(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	fired := false
	fake.AfterFunc(0, func() { fired = true })
	if !fired {
		t.Fatal("AfterFunc(0) should run synchronously")
	}
}

func TestFakeFiresInDeadlineOrder(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	var order []string
	fake.AfterFunc(2*time.Second, func() { order = append(order, "second") })
	fake.AfterFunc(time.Second, func() { order = append(order, "first") })

	fake.Advance(5 * time.Second)
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Errorf("fire order = %v, want [first second]", order)
	}
}

func TestFakePendingCount(t *testing.T) {
	fake := Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	fake.After(time.Minute)
	timer := fake.AfterFunc(time.Minute, func() {})
	if got := fake.PendingCount(); got != 2 {
		t.Errorf("PendingCount = %d, want 2", got)
	}

	timer.Stop()
	if got := fake.PendingCount(); got != 1 {
		t.Errorf("PendingCount after Stop = %d, want 1", got)
	}

	fake.Advance(time.Minute)
	if got := fake.PendingCount(); got != 0 {
		t.Errorf("PendingCount after Advance = %d, want 0", got)
	}
}
