// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Deskpilotd is the deskpilot instance daemon. It owns the control
// authority, the session store, and the lifecycle coordinator for one
// sandboxed desktop instance.
//
// On startup:
//  1. Loads configuration (DESKPILOT_* environment plus an optional
//     YAML file) and validates it through the policy guard. Every
//     violation is reported; any violation is fatal.
//  2. Opens the session store, ensures the default session exists,
//     and reports any transition marker left by a crashed handover.
//  3. Resumes the default (or previously active) session and binds
//     the control authority to it.
//  4. Waits for SIGINT/SIGTERM, then runs a graceful coordinator
//     shutdown.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/deskpilot/deskpilot/lib/authority"
	"github.com/deskpilot/deskpilot/lib/clock"
	"github.com/deskpilot/deskpilot/lib/config"
	"github.com/deskpilot/deskpilot/lib/fault"
	"github.com/deskpilot/deskpilot/lib/lifecycle"
	"github.com/deskpilot/deskpilot/lib/ops"
	"github.com/deskpilot/deskpilot/lib/runner"
	"github.com/deskpilot/deskpilot/lib/session"
	"github.com/deskpilot/deskpilot/lib/version"
)

// markerMaxAge bounds how old a crash marker can be and still be
// worth reporting at startup.
const markerMaxAge = 24 * time.Hour

// recorderControl adapts the session recorder to the coordinator:
// liveness comes from the session's recorder pid file, stop goes
// through the recorder's control command.
type recorderControl struct {
	run  runner.Runner
	wait time.Duration
}

func (r recorderControl) Running(sessionDir string) bool {
	return session.RecorderRunning(sessionDir)
}

func (r recorderControl) Stop(ctx context.Context) error {
	result := r.run.Run(ctx, []string{"recorder-ctl", "stop"}, r.wait)
	if !result.OK {
		return fmt.Errorf("stopping recorder: %s", result.Err)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   string
		shutdownWait time.Duration
		showVersion  bool
	)
	flag.StringVar(&configPath, "config", "", "path to deskpilot.yaml (default: $DESKPILOT_CONFIG)")
	flag.DurationVar(&shutdownWait, "shutdown-wait", 5*time.Second, "delay between graceful shutdown and process termination")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("deskpilotd %s\n", version.Info())
		return nil
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if configPath == "" {
		configPath = os.Getenv("DESKPILOT_CONFIG")
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return err
	}
	if violations := cfg.Validate(); len(violations) > 0 {
		for _, violation := range violations {
			logger.Error("configuration rejected", "violation", violation)
		}
		return fmt.Errorf("configuration rejected with %d violation(s)", len(violations))
	}
	logger.Info("configuration admitted",
		"runtime_mode", cfg.RuntimeMode,
		"instance_control_mode", cfg.InstanceControlMode,
		"session_root", cfg.SessionRoot,
		"version", version.Info())

	clk := clock.Real()
	store, err := session.NewStore(cfg.SessionRoot, clk, logger)
	if err != nil {
		return err
	}

	auth := authority.New(clk, logger)
	if err := auth.SetInstanceMode(cfg.InstanceControlPolicy()); err != nil {
		return err
	}

	tracker := ops.NewTracker(clk,
		ops.WithMaxRecords(cfg.OperationCap),
		ops.WithTTL(cfg.OperationTTL))

	plan := lifecycle.DefaultPlan()
	if cfg.ShutdownPlanFile != "" {
		plan, err = lifecycle.LoadPlan(cfg.ShutdownPlanFile)
		if err != nil {
			return err
		}
		logger.Info("shutdown plan loaded", "path", cfg.ShutdownPlanFile)
	}

	coordinator := lifecycle.New(lifecycle.Options{
		Store:               store,
		Authority:           auth,
		Tracker:             tracker,
		Runner:              runner.ExecRunner{},
		Recorder:            recorderControl{run: runner.ExecRunner{}, wait: cfg.StepTimeout},
		Clock:               clk,
		Logger:              logger,
		Plan:                plan,
		RuntimeMode:         cfg.RuntimePolicy(),
		DefaultControlMode:  cfg.SessionControlPolicy(),
		AllowHeadlessHybrid: cfg.AllowHeadlessHybrid,
		StepTimeout:         cfg.StepTimeout,
		HandoverTimeout:     cfg.HandoverTimeout,
		ShutdownGuardTTL:    cfg.ShutdownGuardTTL,
	})

	// Decide which session to bring up: a previously active session
	// wins over the configured default.
	sessionID := cfg.DefaultSessionID
	if active, ok := store.ActiveSessionDir(); ok {
		sessionID = sessionIDFromDir(active)
		logger.Info("adopting previously active session", "session_id", sessionID)
	}
	sessionDir, err := store.CreateSession(sessionID, cfg.SessionLifecyclePolicy(), cfg.SessionControlPolicy(), cfg.RuntimePolicy())
	if err != nil {
		return fmt.Errorf("ensuring session %s: %w", sessionID, err)
	}

	// A transition marker at startup means a previous process died
	// mid-handover after the durable writes began.
	if marker, present, err := store.CheckMarker(sessionDir, markerMaxAge); err != nil {
		logger.Warn("transition marker unreadable", "session_dir", sessionDir, "error", err)
	} else if present {
		logger.Warn("incomplete transition detected from previous run",
			"session_id", marker.SessionID,
			"phase", marker.Phase,
			"started_at", marker.StartedAt)
		store.AppendEvent(sessionDir, "recovery", "stale transition marker found", map[string]any{
			"phase": marker.Phase,
		})
		if err := store.ClearMarker(sessionDir); err != nil {
			return err
		}
	}

	result, err := coordinator.Resume(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("activating session %s: %w", sessionID, err)
	}
	logger.Info("session active",
		"session_id", sessionID,
		"operation_id", result.OperationID,
		"already_active", result.AlreadyActive)

	<-ctx.Done()
	stop()
	logger.Info("termination signal received, shutting down")

	// The signal context is spent; give the shutdown its own bounded
	// context.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HandoverTimeout+shutdownWait)
	defer cancel()
	shutdown, err := coordinator.Shutdown(shutdownCtx, lifecycle.ShutdownRequest{
		Mode:  lifecycle.Graceful,
		Delay: shutdownWait,
	})
	if err != nil {
		var stepErr *fault.Error
		if errors.As(err, &stepErr) {
			logger.Error("graceful shutdown incomplete", "failed_steps", stepErr.FailedSteps)
		}
		return err
	}
	logger.Info("shutdown complete", "operation_id", shutdown.OperationID)
	return nil
}

func sessionIDFromDir(dir string) string {
	return filepath.Base(dir)
}
