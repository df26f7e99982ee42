// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package authority arbitrates input control between the human
// operator and the autonomous agent. One Authority instance per
// process owns the live ControlState record; every mutation goes
// through its methods under a single lock, and callers only ever see
// detached snapshots.
//
// Agent control over an interactive session is time-bounded: a grant
// requires an explicit human acknowledgement plus a fresh single-use
// challenge token, and produces a lease the agent must renew. Lease
// expiry and a STOP_NOW operator intent are evaluated lazily inside
// CheckAccess, so no background timer is needed for correctness.
package authority
