// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package authority

import (
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/deskpilot/deskpilot/lib/clock"
	"github.com/deskpilot/deskpilot/lib/fault"
	"github.com/deskpilot/deskpilot/lib/policy"
)

const (
	// DefaultChallengeTTL is how long an issued challenge token stays
	// valid when the caller does not specify a TTL.
	DefaultChallengeTTL = 30 * time.Second

	// minChallengeTTL is the floor for challenge TTLs.
	minChallengeTTL = 5 * time.Second

	// DefaultLeaseSeconds is the lease length used when a grant or
	// renew request does not specify one.
	DefaultLeaseSeconds = 300
)

// challenge is the outstanding single-use grant token. Never persisted.
type challenge struct {
	token   string
	expires time.Time
}

// Authority is the single arbiter of input control for one instance.
// All state lives behind one mutex; no method blocks while holding it.
type Authority struct {
	mu        sync.Mutex
	clk       clock.Clock
	logger    *slog.Logger
	state     ControlState
	challenge *challenge
}

// New constructs an Authority with conservative defaults: user in
// control, no lease, hybrid policy at both scopes, session unbound.
func New(clk clock.Clock, logger *slog.Logger) *Authority {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Authority{
		clk:    clk,
		logger: logger,
		state: ControlState{
			SessionID:            "unknown",
			Controller:           ControllerUser,
			UserIntent:           IntentWait,
			AgentStatus:          AgentIdle,
			InstanceControlMode:  policy.Hybrid,
			SessionControlMode:   policy.Hybrid,
			EffectiveControlMode: policy.Hybrid,
		},
	}
}

// SetInstanceMode updates the process-wide control policy scope and
// recomputes the effective mode.
func (a *Authority) SetInstanceMode(mode policy.ControlMode) error {
	if !mode.Valid() {
		return fault.Authorization("unknown control mode %q", mode)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.InstanceControlMode = mode
	a.recomputeEffectiveLocked()
	return nil
}

// SetSessionMode updates the per-session control policy scope and
// recomputes the effective mode.
func (a *Authority) SetSessionMode(mode policy.ControlMode) error {
	if !mode.Valid() {
		return fault.Authorization("unknown control mode %q", mode)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.SessionControlMode = mode
	a.recomputeEffectiveLocked()
	return nil
}

// BindSession rebinds the authority to a session, carrying the
// session's interactivity and its control policy scope. Becoming
// interactive while the agent held control revokes the agent; a
// non-interactive session under hybrid or agent-only policy puts the
// agent in control implicitly, with no lease.
func (a *Authority) BindSession(sessionID string, interactive bool, sessionMode policy.ControlMode) error {
	if !sessionMode.Valid() {
		return fault.Authorization("unknown control mode %q", sessionMode)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	wasAgent := a.state.Controller == ControllerAgent
	a.state.SessionID = sessionID
	a.state.Interactive = interactive
	a.state.SessionControlMode = sessionMode
	a.recomputeEffectiveLocked()

	switch {
	case !interactive && a.state.EffectiveControlMode != policy.HumanOnly:
		a.state.Controller = ControllerAgent
		a.state.LeaseExpiry = nil
	case interactive && wasAgent && a.state.EffectiveControlMode != policy.AgentOnly:
		a.revokeLocked("session became interactive")
	}

	a.logger.Info("authority bound to session",
		"session_id", sessionID,
		"interactive", interactive,
		"effective_control_mode", a.state.EffectiveControlMode)
	return nil
}

// recomputeEffectiveLocked derives the effective mode and enforces the
// controller invariants it implies. Any flip clears the lease: a grant
// made under the old policy does not survive a policy change.
func (a *Authority) recomputeEffectiveLocked() {
	previous := a.state.EffectiveControlMode
	effective := policy.EffectiveControlMode(a.state.InstanceControlMode, a.state.SessionControlMode)
	a.state.EffectiveControlMode = effective

	if effective == policy.AgentOnly {
		a.state.Controller = ControllerAgent
		a.state.LeaseExpiry = nil
	} else {
		a.state.Controller = ControllerUser
		a.state.LeaseExpiry = nil
	}
	if previous != effective {
		a.logger.Info("effective control mode changed",
			"previous", previous, "effective", effective,
			"controller", a.state.Controller)
	}
}

// IssueChallenge creates a fresh single-use grant token, discarding
// any prior unconsumed token. TTL defaults to 30 seconds and is
// floored at 5.
func (a *Authority) IssueChallenge(ttl time.Duration) (token string, expires time.Time) {
	if ttl <= 0 {
		ttl = DefaultChallengeTTL
	}
	if ttl < minChallengeTTL {
		ttl = minChallengeTTL
	}
	token = randomToken()
	expires = a.clk.Now().Add(ttl)

	a.mu.Lock()
	a.challenge = &challenge{token: token, expires: expires}
	a.mu.Unlock()

	a.logger.Info("grant challenge issued", "ttl", ttl)
	return token, expires
}

// Grant hands input control to the agent. It requires an explicit
// human acknowledgement and the outstanding challenge token; the token
// is consumed by the attempt whether or not it succeeds. The
// acknowledgement check runs first and does not consume the token.
func (a *Authority) Grant(leaseSeconds int, userAck bool, token string) error {
	if leaseSeconds <= 0 {
		leaseSeconds = DefaultLeaseSeconds
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !userAck {
		return fault.Authorization("grant requires explicit user acknowledgement")
	}

	outstanding := a.challenge
	a.challenge = nil
	switch {
	case outstanding == nil:
		return fault.Authorization("no outstanding grant challenge")
	case a.clk.Now().After(outstanding.expires):
		return fault.Authorization("grant challenge expired")
	case token != outstanding.token:
		return fault.Authorization("grant challenge token mismatch")
	}

	if a.state.EffectiveControlMode == policy.HumanOnly {
		return fault.Authorization("control mode %s does not permit agent control", policy.HumanOnly)
	}

	if !a.state.Interactive {
		// Agent access is implicit on non-interactive sessions; the
		// grant is a successful no-op and no lease is minted.
		return nil
	}

	expiry := a.clk.Now().Add(time.Duration(leaseSeconds) * time.Second)
	a.state.Controller = ControllerAgent
	a.state.LeaseExpiry = &expiry
	a.state.UserIntent = IntentWait
	a.state.AgentStatus = AgentRunning

	a.logger.Info("agent control granted",
		"session_id", a.state.SessionID,
		"lease_seconds", leaseSeconds)
	return nil
}

// Renew extends the agent's lease. Fails unless the agent currently
// holds control, and always fails under a STOP_NOW intent.
func (a *Authority) Renew(leaseSeconds int) error {
	if leaseSeconds <= 0 {
		leaseSeconds = DefaultLeaseSeconds
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.state.Controller != ControllerAgent {
		return fault.Authorization("agent does not hold control")
	}
	if a.state.UserIntent == IntentStopNow {
		return fault.Authorization("user intent is stop_now")
	}
	if a.state.LeaseExpiry == nil {
		// Non-interactive agent control carries no lease; renewal is
		// a successful no-op.
		return nil
	}

	expiry := a.clk.Now().Add(time.Duration(leaseSeconds) * time.Second)
	a.state.LeaseExpiry = &expiry
	return nil
}

// Revoke returns control to the user unconditionally: lease cleared,
// agent marked stopping. Idempotent.
func (a *Authority) Revoke(reason string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.revokeLocked(reason)
}

func (a *Authority) revokeLocked(reason string) {
	alreadyUser := a.state.Controller == ControllerUser && a.state.LeaseExpiry == nil
	a.state.Controller = ControllerUser
	a.state.LeaseExpiry = nil
	a.state.AgentStatus = AgentStopping
	if !alreadyUser {
		a.logger.Info("agent control revoked",
			"session_id", a.state.SessionID,
			"reason", reason)
	}
}

// ReportUserActivity records human input. Human input always
// interrupts: if the agent holds control under a policy that allows
// human control at all, it is revoked immediately.
func (a *Authority) ReportUserActivity() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.LastUserActivity = a.clk.Now()
	if a.state.Controller == ControllerAgent && a.state.EffectiveControlMode != policy.AgentOnly {
		a.revokeLocked("user activity")
	}
}

// ReportAgentActivity records an agent input timestamp.
func (a *Authority) ReportAgentActivity() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.LastAgentActivity = a.clk.Now()
}

// LastActivity returns the most recent activity timestamp from either
// party, for the external inactivity monitor.
func (a *Authority) LastActivity() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.state.LastAgentActivity.After(a.state.LastUserActivity) {
		return a.state.LastAgentActivity
	}
	return a.state.LastUserActivity
}

// SetAgentStatus records the agent's self-reported execution state.
func (a *Authority) SetAgentStatus(status AgentStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.AgentStatus = status
}

// SetUserIntent records the operator's override signal. STOP_NOW
// revokes the agent synchronously.
func (a *Authority) SetUserIntent(intent UserIntent) error {
	if !intent.Valid() {
		return fault.Authorization("unknown user intent %q", intent)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.UserIntent = intent
	if intent == IntentStopNow {
		a.revokeLocked("user intent stop_now")
	}
	return nil
}

// CheckAccess is the authorization predicate consulted before every
// agent-initiated action. It is a mutating check: lease expiry and a
// pending STOP_NOW intent revoke the agent lazily here.
func (a *Authority) CheckAccess() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state.EffectiveControlMode {
	case policy.HumanOnly:
		return false
	case policy.AgentOnly:
		return a.state.Controller == ControllerAgent
	}

	// Hybrid. Non-interactive sessions have no human surface to
	// arbitrate against.
	if !a.state.Interactive {
		return true
	}
	if a.state.Controller != ControllerAgent {
		return false
	}
	if a.state.UserIntent == IntentStopNow {
		a.revokeLocked("user intent stop_now")
		return false
	}
	if a.state.LeaseExpiry == nil || a.clk.Now().After(*a.state.LeaseExpiry) {
		a.revokeLocked("lease expired")
		return false
	}
	return true
}

// Snapshot returns a detached copy of the control state.
func (a *Authority) Snapshot() ControlState {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := a.state
	if a.state.LeaseExpiry != nil {
		expiry := *a.state.LeaseExpiry
		out.LeaseExpiry = &expiry
	}
	return out
}

// randomToken returns a URL-safe single-use challenge token.
func randomToken() string {
	buf := make([]byte, 18)
	if _, err := rand.Read(buf); err != nil {
		panic("authority: reading random bytes: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
