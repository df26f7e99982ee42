// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts time operations for testability. Production code
// injects Real(); tests inject Fake() with deterministic time control.
//
// Lease expiry, challenge-token TTLs, operation-record eviction, and
// delayed termination signals all read time through a Clock so tests
// never have to sleep.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc waits for duration d, then calls f in its own
	// goroutine. The returned Timer can cancel the pending call with
	// Stop. If d <= 0, f runs immediately.
	AfterFunc(d time.Duration, f func()) *Timer

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}

// Timer represents a scheduled AfterFunc call.
type Timer struct {
	stopFunc func() bool
}

// Stop prevents the timer from firing. Returns true if the call stops
// the timer, false if it has already fired or been stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }
