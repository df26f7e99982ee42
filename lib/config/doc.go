// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads deskpilot runtime configuration.
//
// Configuration resolves in three layers: compiled defaults, an
// optional YAML file (DESKPILOT_CONFIG or an explicit path), and
// DESKPILOT_* environment variables, which win. Path values may use
// ${VAR} and ${VAR:-default} expansion.
//
// Validate delegates to the policy guard and returns the full ordered
// violation list, so a caller sees every problem at once instead of
// the first.
package config
