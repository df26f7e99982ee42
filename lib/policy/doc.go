// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package policy computes the effective control mode from the
// instance and session policy scopes and validates whole-system
// configuration combinations (runtime mode, lifecycle modes, control
// modes, build intent, named use-case and performance profiles).
//
// Everything in this package is pure: no state, no I/O. The control
// authority and the lifecycle coordinator consult it synchronously
// before admitting a mode change, and the daemon runs Validate at
// startup so a misconfigured instance refuses to come up with every
// violation reported at once.
package policy
