// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package lifecycle coordinates session transitions: suspend, resume
// (with atomic handover between sessions), and instance shutdown.
//
// All suspend/resume work serializes through one transition lock so
// two transitions can never interleave. Shutdown takes a separate
// guard so a duplicate request inside the guard window is detected and
// answered instead of re-executed. Every transition is tracked as an
// operation and audited into the session's lifecycle log.
//
// The resume path is the only one that performs compensating writes:
// once transition markers are down, any failure restores both
// sessions' durable state and the active-session pointer exactly as
// they were before the attempt.
package lifecycle
