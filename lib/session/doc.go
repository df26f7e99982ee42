// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package session is the durable store for session directories. Each
// session lives in its own directory under the store root and carries
// small state files (session.state, session.mode,
// session.control_mode), a JSON manifest with a keyed fingerprint, an
// optional transition marker, and an append-only JSONL audit log.
//
// The manifest and the transition marker are written atomically (write
// to a temporary file, fsync, rename) so readers never observe a
// partial file, even across a crash mid-handover. State file writes
// fail closed: a write error always propagates to the caller.
package session
