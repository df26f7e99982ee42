// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "strings"

// ControlMode is a control policy scope value. Two independent scopes
// exist (instance-wide and per-session); the effective mode is derived
// from both, never set directly.
type ControlMode string

const (
	// HumanOnly disables agent control entirely. Human veto is
	// absolute: if either scope is human-only, the effective mode is
	// human-only.
	HumanOnly ControlMode = "human-only"

	// AgentOnly grants the agent standing control. Non-interactive
	// sessions under agent-only need no lease.
	AgentOnly ControlMode = "agent-only"

	// Hybrid arbitrates between human and agent: the agent drives
	// only under an acknowledged, unexpired lease.
	Hybrid ControlMode = "hybrid"
)

// RuntimeMode describes whether the runtime exposes a human input
// surface.
type RuntimeMode string

const (
	// Interactive runtimes present a desktop a human can drive.
	Interactive RuntimeMode = "interactive"

	// Headless runtimes have no human input surface.
	Headless RuntimeMode = "headless"
)

// LifecycleMode describes how a session or instance terminates.
type LifecycleMode string

const (
	// Persistent sessions may suspend and resume indefinitely.
	Persistent LifecycleMode = "persistent"

	// Oneshot sessions end permanently at "completed" and can never
	// be revived.
	Oneshot LifecycleMode = "oneshot"
)

// BuildIntent identifies the build flavor the instance was produced
// for.
type BuildIntent string

const (
	// IntentRelease is the standard release build.
	IntentRelease BuildIntent = "rel"

	// IntentReleaseRunner is the unattended runner build. Release
	// runners never expose a human surface.
	IntentReleaseRunner BuildIntent = "rel-runner"
)

// NormalizeControlMode lowercases and trims a raw value, substituting
// fallback when the input is empty.
func NormalizeControlMode(raw string, fallback ControlMode) ControlMode {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return fallback
	}
	return ControlMode(value)
}

// NormalizeRuntimeMode lowercases and trims a raw value, substituting
// fallback when the input is empty.
func NormalizeRuntimeMode(raw string, fallback RuntimeMode) RuntimeMode {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return fallback
	}
	return RuntimeMode(value)
}

// NormalizeLifecycleMode lowercases and trims a raw value,
// substituting fallback when the input is empty.
func NormalizeLifecycleMode(raw string, fallback LifecycleMode) LifecycleMode {
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return fallback
	}
	return LifecycleMode(value)
}

// Valid reports whether the control mode is a known value.
func (m ControlMode) Valid() bool {
	return m == HumanOnly || m == AgentOnly || m == Hybrid
}

// Valid reports whether the runtime mode is a known value.
func (m RuntimeMode) Valid() bool {
	return m == Interactive || m == Headless
}

// Valid reports whether the lifecycle mode is a known value.
func (m LifecycleMode) Valid() bool {
	return m == Persistent || m == Oneshot
}

// Valid reports whether the build intent is a known value.
func (i BuildIntent) Valid() bool {
	return i == IntentRelease || i == IntentReleaseRunner
}

// EffectiveControlMode combines the instance and session scopes into
// the resolved policy. Human-only wins over everything; agent-only
// wins over hybrid.
func EffectiveControlMode(instance, session ControlMode) ControlMode {
	if instance == HumanOnly || session == HumanOnly {
		return HumanOnly
	}
	if instance == AgentOnly || session == AgentOnly {
		return AgentOnly
	}
	return Hybrid
}

// DefaultControlMode returns the control mode an instance or session
// defaults to under the given runtime: headless runtimes default to
// agent-only (there is nobody to hand over to), interactive runtimes
// to hybrid.
func DefaultControlMode(runtime RuntimeMode) ControlMode {
	if runtime == Headless {
		return AgentOnly
	}
	return Hybrid
}
