// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"github.com/deskpilot/deskpilot/lib/authority"
	"github.com/deskpilot/deskpilot/lib/clock"
	"github.com/deskpilot/deskpilot/lib/fault"
	"github.com/deskpilot/deskpilot/lib/ops"
	"github.com/deskpilot/deskpilot/lib/policy"
	"github.com/deskpilot/deskpilot/lib/runner"
	"github.com/deskpilot/deskpilot/lib/session"
	"github.com/deskpilot/deskpilot/lib/version"
)

const (
	// DefaultStepTimeout bounds each external shutdown step.
	DefaultStepTimeout = 10 * time.Second

	// DefaultHandoverTimeout bounds the whole shutdown of the
	// previously active session during a resume handover.
	DefaultHandoverTimeout = 30 * time.Second

	// DefaultShutdownGuardTTL is how long a shutdown request blocks
	// duplicates.
	DefaultShutdownGuardTTL = 120 * time.Second
)

// Transition marker phases.
const (
	phaseTargetPrepare = "resume_target_prepare"
	phaseHandoverOut   = "resume_handover_out"
)

// Recorder is the session-recording collaborator. Stop failures abort
// a suspend; on shutdown they aggregate with step failures instead.
type Recorder interface {
	Stop(ctx context.Context) error
	Running(sessionDir string) bool
}

// ShutdownMode selects between graceful and immediate shutdown.
type ShutdownMode string

const (
	// Graceful runs the full shutdown plan before scheduling SIGTERM.
	Graceful ShutdownMode = "graceful"

	// PowerOff skips the plan and schedules SIGKILL.
	PowerOff ShutdownMode = "poweroff"
)

// Options wires a Coordinator's collaborators. Store, Authority,
// Tracker, Runner, and Clock are required.
type Options struct {
	Store     *session.Store
	Authority *authority.Authority
	Tracker   *ops.Tracker
	Runner    runner.Runner
	Recorder  Recorder
	Clock     clock.Clock
	Logger    *slog.Logger

	Plan        Plan
	RuntimeMode policy.RuntimeMode

	// DefaultControlMode is applied to sessions without a control-mode
	// file.
	DefaultControlMode policy.ControlMode

	// AllowHeadlessHybrid is passed through to the policy guard when a
	// control-mode change is re-validated.
	AllowHeadlessHybrid bool

	StepTimeout      time.Duration
	HandoverTimeout  time.Duration
	ShutdownGuardTTL time.Duration

	// SignalFunc delivers the final termination signal. The default
	// signals pid 1 of the sandbox.
	SignalFunc func(sig unix.Signal) error
}

// Coordinator serializes session lifecycle transitions.
type Coordinator struct {
	// transitionMu serializes suspend and resume. Never held across
	// Shutdown, which only needs the guard below.
	transitionMu sync.Mutex

	// shutdownMu guards the duplicate-shutdown record only.
	shutdownMu     sync.Mutex
	shutdownAt     time.Time
	shutdownMode   ShutdownMode
	shutdownOpID   string
	shutdownExpiry time.Duration

	store     *session.Store
	auth      *authority.Authority
	tracker   *ops.Tracker
	run       runner.Runner
	recorder  Recorder
	clk       clock.Clock
	logger    *slog.Logger
	plan      Plan
	runtime   policy.RuntimeMode
	defaultCM policy.ControlMode

	allowHeadlessHybrid bool

	stepTimeout     time.Duration
	handoverTimeout time.Duration
	signal          func(sig unix.Signal) error
}

// New builds a Coordinator, filling defaulted options.
func New(opts Options) *Coordinator {
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.StepTimeout <= 0 {
		opts.StepTimeout = DefaultStepTimeout
	}
	if opts.HandoverTimeout <= 0 {
		opts.HandoverTimeout = DefaultHandoverTimeout
	}
	if opts.ShutdownGuardTTL <= 0 {
		opts.ShutdownGuardTTL = DefaultShutdownGuardTTL
	}
	if opts.SignalFunc == nil {
		opts.SignalFunc = func(sig unix.Signal) error { return unix.Kill(1, sig) }
	}
	if opts.DefaultControlMode == "" {
		opts.DefaultControlMode = policy.DefaultControlMode(opts.RuntimeMode)
	}
	if len(opts.Plan.RuntimeSteps) == 0 && len(opts.Plan.ComponentSteps) == 0 {
		opts.Plan = DefaultPlan()
	}
	return &Coordinator{
		store:               opts.Store,
		auth:                opts.Authority,
		tracker:             opts.Tracker,
		run:                 opts.Runner,
		recorder:            opts.Recorder,
		clk:                 opts.Clock,
		logger:              opts.Logger,
		plan:                opts.Plan,
		runtime:             opts.RuntimeMode,
		defaultCM:           opts.DefaultControlMode,
		allowHeadlessHybrid: opts.AllowHeadlessHybrid,
		stepTimeout:         opts.StepTimeout,
		handoverTimeout:     opts.HandoverTimeout,
		shutdownExpiry:      opts.ShutdownGuardTTL,
		signal:              opts.SignalFunc,
	}
}

// SuspendRequest describes one suspend call.
type SuspendRequest struct {
	SessionDir string

	// StopRecorder stops an active recording first; a stop failure
	// aborts the suspend.
	StopRecorder bool

	// RuntimeShutdown runs the plan's runtime steps before the state
	// write; any step failure aborts with state unchanged.
	RuntimeShutdown bool

	// Override permits suspending a session other than the active one.
	Override bool
}

// Suspend transitions a session to suspended (or completed, for a
// oneshot lifecycle). Returns the tracking operation id; legality
// failures are rejected before an operation is created.
func (c *Coordinator) Suspend(ctx context.Context, req SuspendRequest) (string, error) {
	if err := c.store.WithinRoot(req.SessionDir); err != nil {
		return "", fault.Conflict("", "invalid session directory: %v", err)
	}

	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	dir := req.SessionDir
	state := c.store.ReadState(dir)
	if state == session.StateCompleted {
		return "", fault.Conflict(string(state), "completed session cannot be suspended")
	}
	if active, ok := c.store.ActiveSessionDir(); ok && active != dir && !req.Override {
		return "", fault.Conflict(string(state), "session is not the active session (use override to suspend anyway)")
	}

	opID := c.tracker.Create("suspend", dir, nil)
	c.tracker.Heartbeat(opID, "validate", "transition admitted", 10, nil)

	if req.StopRecorder && c.recorder != nil && c.recorder.Running(dir) {
		c.tracker.Heartbeat(opID, "recorder", "stopping recorder", 25, nil)
		if err := c.recorder.Stop(ctx); err != nil {
			failure := fault.StepFailure("recorder stop failed", []string{"recorder"})
			c.store.AppendEvent(dir, "suspend", "recorder stop failed", map[string]any{"error": err.Error()})
			c.tracker.Fail(opID, failure.Error(), nil)
			return opID, failure
		}
		c.store.AppendEvent(dir, "suspend", "recorder stopped", nil)
	}

	if req.RuntimeShutdown {
		if failed := c.runSteps(ctx, dir, opID, c.plan.RuntimeSteps, 30, 70); len(failed) > 0 {
			failure := fault.StepFailure("graceful runtime shutdown failed", failed)
			c.tracker.Fail(opID, failure.Error(), map[string]any{"failed_steps": failed})
			return opID, failure
		}
	}

	newState := session.StateSuspended
	if c.store.ReadLifecycleMode(dir) == policy.Oneshot {
		newState = session.StateCompleted
	}
	c.tracker.Heartbeat(opID, "persist", "writing session state", 85, nil)
	if err := c.store.WriteState(dir, newState); err != nil {
		c.tracker.Fail(opID, err.Error(), nil)
		return opID, err
	}
	if active, ok := c.store.ActiveSessionDir(); ok && active == dir {
		if err := c.store.ClearActiveSession(); err != nil {
			c.tracker.Fail(opID, err.Error(), nil)
			return opID, err
		}
	}

	c.store.AppendEvent(dir, "suspend", "session suspended", map[string]any{
		"operation_id": opID,
		"new_state":    string(newState),
	})
	c.logger.Info("session suspended", "session_dir", dir, "new_state", newState, "operation_id", opID)
	c.tracker.Complete(opID, map[string]any{"state": string(newState)})
	return opID, nil
}

// ResumeResult reports the outcome of a resume call.
type ResumeResult struct {
	OperationID string

	// AlreadyActive is true when the target was already the active
	// session; nothing was changed.
	AlreadyActive bool
}

// Resume activates a session, atomically handing over from the
// currently active one if necessary.
func (c *Coordinator) Resume(ctx context.Context, sessionID string) (ResumeResult, error) {
	target, err := c.store.Resolve(sessionID)
	if err != nil {
		return ResumeResult{}, fault.Conflict("", "invalid session id: %v", err)
	}
	return c.resumeDir(ctx, target)
}

// ResumeDir is Resume for callers that address sessions by directory.
func (c *Coordinator) ResumeDir(ctx context.Context, dir string) (ResumeResult, error) {
	if err := c.store.WithinRoot(dir); err != nil {
		return ResumeResult{}, fault.Conflict("", "invalid session directory: %v", err)
	}
	return c.resumeDir(ctx, dir)
}

func (c *Coordinator) resumeDir(ctx context.Context, target string) (ResumeResult, error) {
	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	if _, err := os.Stat(target); err != nil {
		if os.IsNotExist(err) {
			return ResumeResult{}, fault.Conflict("", "unknown session %s", sessionIDOf(target))
		}
		return ResumeResult{}, fmt.Errorf("checking session directory: %w", err)
	}

	state := c.store.ReadState(target)
	if state == session.StateCompleted && c.store.ReadLifecycleMode(target) == policy.Oneshot {
		return ResumeResult{}, fault.Conflict(string(state), "completed oneshot session can never resume")
	}

	if manifest, err := c.store.ReadManifest(target); err == nil {
		if version.NewerThan(manifest.SchemaVersion, version.ManifestSchema) {
			return ResumeResult{}, fault.Conflict(string(state),
				"session schema version %s is newer than this build supports (%s)",
				manifest.SchemaVersion, version.ManifestSchema)
		}
	}

	source, hasSource := c.store.ActiveSessionDir()
	if hasSource && source == target {
		opID := c.tracker.Create("resume", target, nil)
		c.tracker.Complete(opID, map[string]any{"already_active": true})
		return ResumeResult{OperationID: opID, AlreadyActive: true}, nil
	}

	opID := c.tracker.Create("resume", target, nil)
	c.tracker.Heartbeat(opID, "validate", "transition admitted", 10, nil)

	// Wind down the outgoing session before touching any durable
	// state: recorder first (an in-flight recording must never be
	// abandoned), then the full shutdown plan. A timeout or step
	// failure here aborts the resume with nothing to roll back.
	if hasSource {
		if c.recorder != nil && c.recorder.Running(source) {
			c.tracker.Heartbeat(opID, "recorder", "stopping recorder", 15, nil)
			if err := c.recorder.Stop(ctx); err != nil {
				failure := fault.StepFailure("handover shutdown of active session failed", []string{"recorder"})
				c.store.AppendEvent(source, "handover", "recorder stop failed", map[string]any{"error": err.Error()})
				c.tracker.Fail(opID, failure.Error(), map[string]any{"failed_steps": []string{"recorder"}})
				return ResumeResult{OperationID: opID}, failure
			}
			c.store.AppendEvent(source, "handover", "recorder stopped", nil)
		}

		handoverCtx, cancel := context.WithTimeout(ctx, c.handoverTimeout)
		failed := c.runSteps(handoverCtx, source, opID, c.plan.RuntimeSteps, 20, 30)
		failed = append(failed, c.runSteps(handoverCtx, source, opID, c.plan.ComponentSteps, 30, 40)...)
		cancel()
		if len(failed) > 0 {
			failure := fault.StepFailure("handover shutdown of active session failed", failed)
			c.tracker.Fail(opID, failure.Error(), map[string]any{"failed_steps": failed})
			return ResumeResult{OperationID: opID}, failure
		}
	}

	if err := c.store.EnsureLayout(target, c.runtime); err != nil {
		c.tracker.Fail(opID, err.Error(), nil)
		return ResumeResult{OperationID: opID}, err
	}

	// Snapshot everything the rollback contract must restore.
	priorTargetState := c.store.ReadState(target)
	var priorSourceState session.State
	if hasSource {
		priorSourceState = c.store.ReadState(source)
	}

	c.tracker.Heartbeat(opID, "marker", "writing transition markers", 50, nil)
	if err := c.store.WriteMarker(target, session.Marker{
		Phase:   phaseTargetPrepare,
		Context: map[string]string{"operation_id": opID},
	}); err != nil {
		c.tracker.Fail(opID, err.Error(), nil)
		return ResumeResult{OperationID: opID}, err
	}
	if hasSource {
		if err := c.store.WriteMarker(source, session.Marker{
			Phase:   phaseHandoverOut,
			Context: map[string]string{"operation_id": opID, "target": target},
		}); err != nil {
			c.store.ClearMarker(target)
			c.tracker.Fail(opID, err.Error(), nil)
			return ResumeResult{OperationID: opID}, err
		}
	}

	if err := c.activate(target, source, hasSource, opID); err != nil {
		c.rollback(target, priorTargetState, source, priorSourceState, hasSource)
		c.store.AppendEvent(target, "resume", "resume rolled back", map[string]any{
			"operation_id": opID,
			"error":        err.Error(),
		})
		c.tracker.Fail(opID, err.Error(), nil)
		return ResumeResult{OperationID: opID}, err
	}

	controlMode := c.store.ReadControlMode(target, c.defaultCM)
	if err := c.auth.BindSession(sessionIDOf(target), c.runtime == policy.Interactive, controlMode); err != nil {
		c.logger.Warn("authority rebind failed", "session_dir", target, "error", err)
	}

	c.store.ClearMarker(target)
	if hasSource {
		c.store.ClearMarker(source)
	}
	c.store.AppendEvent(target, "resume", "session resumed", map[string]any{"operation_id": opID})
	c.logger.Info("session resumed", "session_dir", target, "operation_id", opID)
	c.tracker.Complete(opID, map[string]any{"session_dir": target})
	return ResumeResult{OperationID: opID}, nil
}

// activate performs the durable writes of a resume in order: suspend
// the outgoing session, repoint the instance, mark the target active.
func (c *Coordinator) activate(target, source string, hasSource bool, opID string) error {
	c.tracker.Heartbeat(opID, "activate", "switching active session", 70, nil)

	if hasSource {
		outState := session.StateSuspended
		if c.store.ReadLifecycleMode(source) == policy.Oneshot {
			outState = session.StateCompleted
		}
		if err := c.store.WriteState(source, outState); err != nil {
			return fmt.Errorf("suspending outgoing session: %w", err)
		}
		c.store.AppendEvent(source, "handover", "session handed over", map[string]any{
			"operation_id": opID,
			"target":       target,
		})
	}
	if err := c.store.SetActiveSession(target); err != nil {
		return fmt.Errorf("binding active session: %w", err)
	}
	if err := c.store.WriteState(target, session.StateActive); err != nil {
		return fmt.Errorf("activating target session: %w", err)
	}
	return nil
}

// rollback restores both sessions' durable state and the active
// pointer to their pre-transition snapshot, then clears the markers.
// Restore failures are logged; the original error still propagates
// from the caller.
func (c *Coordinator) rollback(target string, priorTarget session.State, source string, priorSource session.State, hasSource bool) {
	if err := c.store.WriteState(target, priorTarget); err != nil {
		c.logger.Error("rollback: restoring target state", "session_dir", target, "error", err)
	}
	if hasSource {
		if err := c.store.WriteState(source, priorSource); err != nil {
			c.logger.Error("rollback: restoring source state", "session_dir", source, "error", err)
		}
		if err := c.store.SetActiveSession(source); err != nil {
			c.logger.Error("rollback: restoring active pointer", "session_dir", source, "error", err)
		}
	} else {
		if err := c.store.ClearActiveSession(); err != nil {
			c.logger.Error("rollback: clearing active pointer", "error", err)
		}
	}
	c.store.ClearMarker(target)
	if hasSource {
		c.store.ClearMarker(source)
	}
}

// SetSessionControlMode changes a session's control policy scope.
// The target must be the active session unless allowInactive is set.
// The resulting combination is re-validated through the policy guard
// before anything is persisted; when the target is the active session
// the live authority picks up the new scope immediately.
func (c *Coordinator) SetSessionControlMode(sessionID string, mode policy.ControlMode, allowInactive bool) error {
	dir, err := c.store.Resolve(sessionID)
	if err != nil {
		return fault.Conflict("", "invalid session id: %v", err)
	}

	c.transitionMu.Lock()
	defer c.transitionMu.Unlock()

	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fault.Conflict("", "unknown session %s", sessionID)
		}
		return fmt.Errorf("checking session directory: %w", err)
	}

	active, hasActive := c.store.ActiveSessionDir()
	isActive := hasActive && active == dir
	if !isActive && !allowInactive {
		return fault.Conflict(string(c.store.ReadState(dir)),
			"session %s is not the active session (use allow-inactive to change it anyway)", sessionID)
	}

	snapshot := c.auth.Snapshot()
	violations := policy.Validate(policy.Input{
		RuntimeMode:          string(c.runtime),
		SessionLifecycleMode: string(c.store.ReadLifecycleMode(dir)),
		InstanceControlMode:  string(snapshot.InstanceControlMode),
		SessionControlMode:   string(mode),
		AllowHeadlessHybrid:  c.allowHeadlessHybrid,
	})
	if len(violations) > 0 {
		return fault.Admission("control mode change rejected", violations)
	}

	if err := c.store.WriteControlMode(dir, mode); err != nil {
		return err
	}
	if isActive {
		if err := c.auth.SetSessionMode(mode); err != nil {
			return err
		}
	}

	c.store.AppendEvent(dir, "control", "session control mode changed", map[string]any{
		"control_mode":   string(mode),
		"active_session": isActive,
	})
	c.logger.Info("session control mode changed",
		"session_id", sessionID, "control_mode", mode, "active", isActive)
	return nil
}

// ShutdownRequest describes one shutdown call.
type ShutdownRequest struct {
	Mode ShutdownMode

	// Delay postpones the final termination signal, giving callers
	// time to collect the operation result.
	Delay time.Duration
}

// ShutdownResult reports a shutdown request's disposition.
type ShutdownResult struct {
	OperationID string

	// AlreadyInProgress is true when a shutdown was already running
	// inside the guard window; Mode then reports the original mode
	// and OperationID the original operation.
	AlreadyInProgress bool

	Mode ShutdownMode
}

// Shutdown winds the instance down. A duplicate request within the
// guard TTL returns the in-flight shutdown instead of re-running any
// step.
func (c *Coordinator) Shutdown(ctx context.Context, req ShutdownRequest) (ShutdownResult, error) {
	if req.Mode != PowerOff {
		req.Mode = Graceful
	}

	c.shutdownMu.Lock()
	now := c.clk.Now()
	if !c.shutdownAt.IsZero() && now.Sub(c.shutdownAt) < c.shutdownExpiry {
		result := ShutdownResult{
			OperationID:       c.shutdownOpID,
			AlreadyInProgress: true,
			Mode:              c.shutdownMode,
		}
		c.shutdownMu.Unlock()
		c.logger.Info("duplicate shutdown request ignored", "mode", result.Mode, "operation_id", result.OperationID)
		return result, nil
	}
	opID := c.tracker.Create("shutdown", "", map[string]any{"mode": string(req.Mode)})
	c.shutdownAt = now
	c.shutdownMode = req.Mode
	c.shutdownOpID = opID
	c.shutdownMu.Unlock()

	if req.Mode == PowerOff {
		return c.powerOff(opID, req.Delay)
	}
	return c.gracefulShutdown(ctx, opID, req.Delay)
}

func (c *Coordinator) powerOff(opID string, delay time.Duration) (ShutdownResult, error) {
	if err := c.store.WriteInstanceState("powering_off", string(PowerOff)); err != nil {
		c.tracker.Fail(opID, err.Error(), nil)
		return ShutdownResult{OperationID: opID, Mode: PowerOff}, err
	}
	if delay < 0 {
		delay = 0
	}
	c.tracker.Heartbeat(opID, "signal", "scheduling SIGKILL", 90, map[string]any{"delay": delay.String()})
	c.scheduleSignal(unix.SIGKILL, delay)

	if active, ok := c.store.ActiveSessionDir(); ok {
		c.store.AppendEvent(active, "shutdown", "power-off requested", map[string]any{"operation_id": opID})
	}
	c.logger.Info("power-off scheduled", "delay", delay, "operation_id", opID)
	c.tracker.Complete(opID, map[string]any{"mode": string(PowerOff)})
	return ShutdownResult{OperationID: opID, Mode: PowerOff}, nil
}

func (c *Coordinator) gracefulShutdown(ctx context.Context, opID string, delay time.Duration) (ShutdownResult, error) {
	result := ShutdownResult{OperationID: opID, Mode: Graceful}
	if err := c.store.WriteInstanceState("shutting_down", string(Graceful)); err != nil {
		c.tracker.Fail(opID, err.Error(), nil)
		return result, err
	}

	active, hasActive := c.store.ActiveSessionDir()
	var failed []string

	if c.recorder != nil && hasActive && c.recorder.Running(active) {
		c.tracker.Heartbeat(opID, "recorder", "stopping recorder", 20, nil)
		if err := c.recorder.Stop(ctx); err != nil {
			failed = append(failed, "recorder")
			c.store.AppendEvent(active, "shutdown", "recorder stop failed", map[string]any{"error": err.Error()})
		} else {
			c.store.AppendEvent(active, "shutdown", "recorder stopped", nil)
		}
	}

	auditDir := active
	failed = append(failed, c.runSteps(ctx, auditDir, opID, c.plan.RuntimeSteps, 30, 60)...)
	failed = append(failed, c.runSteps(ctx, auditDir, opID, c.plan.ComponentSteps, 60, 85)...)

	if len(failed) > 0 {
		failure := fault.StepFailure("graceful shutdown failed", failed)
		c.logger.Error("graceful shutdown failed; termination signal not scheduled", "failed_steps", failed)
		c.tracker.Fail(opID, failure.Error(), map[string]any{"failed_steps": failed})
		return result, failure
	}

	if delay <= 0 {
		delay = time.Second
	}
	c.tracker.Heartbeat(opID, "signal", "scheduling SIGTERM", 95, map[string]any{"delay": delay.String()})
	c.scheduleSignal(unix.SIGTERM, delay)

	if hasActive {
		c.store.AppendEvent(active, "shutdown", "graceful shutdown complete", map[string]any{"operation_id": opID})
	}
	c.logger.Info("graceful shutdown complete", "delay", delay, "operation_id", opID)
	c.tracker.Complete(opID, map[string]any{"mode": string(Graceful)})
	return result, nil
}

// scheduleSignal delivers sig after delay via the injected clock, so
// tests can observe and fire the pending timer deterministically.
func (c *Coordinator) scheduleSignal(sig unix.Signal, delay time.Duration) {
	c.clk.AfterFunc(delay, func() {
		if err := c.signal(sig); err != nil {
			c.logger.Error("delivering termination signal", "signal", sig, "error", err)
		}
	})
}

// runSteps executes steps in order, auditing each one and spreading
// tracker progress between startPct and endPct. Returns the names of
// failed steps.
func (c *Coordinator) runSteps(ctx context.Context, auditDir, opID string, steps []Step, startPct, endPct int) []string {
	var failed []string
	for i, step := range steps {
		progress := startPct
		if len(steps) > 0 {
			progress = startPct + (endPct-startPct)*(i+1)/len(steps)
		}
		c.tracker.Heartbeat(opID, step.Name, "running "+step.Name, progress, nil)

		timeout := step.Timeout
		if timeout <= 0 {
			timeout = c.stepTimeout
		}
		result := c.run.Run(ctx, step.Argv, timeout)

		extra := map[string]any{"step": step.Name, "ok": result.OK}
		if !result.OK {
			extra["error"] = result.Err
			failed = append(failed, step.Name)
			c.logger.Warn("shutdown step failed", "step", step.Name, "error", result.Err)
		}
		if auditDir != "" {
			c.store.AppendEvent(auditDir, "step", "shutdown step "+step.Name, extra)
		}
	}
	return failed
}

// sessionIDOf extracts the session id from its directory path.
func sessionIDOf(dir string) string {
	return filepath.Base(dir)
}
