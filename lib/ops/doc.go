// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package ops tracks long-running lifecycle transitions (shutdown,
// resume, recording start/stop) in a capacity- and TTL-bounded
// in-memory registry. The lifecycle coordinator records phase-level
// progress here; external callers poll by operation id.
//
// The tracker never drives a transition. It is pure bookkeeping: an
// evicted or unknown id makes heartbeats silent no-ops rather than
// errors, because a poller racing an eviction is not a bug.
package ops
