// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source with a real
// implementation and a deterministic fake for tests.
package clock
