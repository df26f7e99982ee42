// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"time"

	"github.com/deskpilot/deskpilot/lib/policy"
)

// Controller identifies who is currently driving input.
type Controller string

const (
	// ControllerUser means the human operator drives input.
	ControllerUser Controller = "user"

	// ControllerAgent means the autonomous agent drives input.
	ControllerAgent Controller = "agent"
)

// UserIntent is the operator's declared override signal.
type UserIntent string

const (
	// IntentWait lets the agent continue undisturbed.
	IntentWait UserIntent = "wait"

	// IntentSafeInterrupt asks the agent to yield at the next safe
	// point. Advisory: the authority records it but does not revoke.
	IntentSafeInterrupt UserIntent = "safe_interrupt"

	// IntentStopNow revokes the agent immediately.
	IntentStopNow UserIntent = "stop_now"
)

// Valid reports whether the intent is a known value.
func (i UserIntent) Valid() bool {
	switch i {
	case IntentWait, IntentSafeInterrupt, IntentStopNow:
		return true
	}
	return false
}

// AgentStatus is the agent's self-reported execution state, carried in
// the control record for operator visibility.
type AgentStatus string

const (
	AgentIdle     AgentStatus = "idle"
	AgentRunning  AgentStatus = "running"
	AgentPaused   AgentStatus = "paused"
	AgentStopping AgentStatus = "stopping"
	AgentStopped  AgentStatus = "stopped"
)

// ControlState is the authority's full state record. Callers receive
// it only as a detached copy from Snapshot.
type ControlState struct {
	SessionID   string      `json:"session_id"`
	Interactive bool        `json:"interactive"`
	Controller  Controller  `json:"controller"`
	LeaseExpiry *time.Time  `json:"lease_expiry,omitempty"`
	UserIntent  UserIntent  `json:"user_intent"`
	AgentStatus AgentStatus `json:"agent_status"`

	InstanceControlMode  policy.ControlMode `json:"instance_control_mode"`
	SessionControlMode   policy.ControlMode `json:"session_control_mode"`
	EffectiveControlMode policy.ControlMode `json:"effective_control_mode"`

	LastUserActivity  time.Time `json:"last_user_activity"`
	LastAgentActivity time.Time `json:"last_agent_activity"`
}
