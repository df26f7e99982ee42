// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/deskpilot/deskpilot/lib/policy"
)

// Per-session file and directory names.
const (
	stateFile       = "session.state"
	modeFile        = "session.mode"
	controlModeFile = "session.control_mode"
	manifestFile    = "session.json"
	markerFile      = "session.transition.json"
	recorderPIDFile = "recorder.pid"

	logsDir        = "logs"
	auditLogFile   = "logs/lifecycle.jsonl"
	screenshotsDir = "screenshots"
	scriptsDir     = "scripts"
	userDir        = "user"
)

// Store-root file names.
const (
	pointerFile       = "active_session"
	currentLink       = "current"
	instanceStateFile = "instance.state.json"
)

// State is the durable lifecycle state of a session.
type State string

const (
	// StateActive marks the one session currently bound to the
	// instance.
	StateActive State = "active"

	// StateSuspended marks a session that can be resumed later.
	StateSuspended State = "suspended"

	// StateCompleted is terminal. A completed oneshot session is
	// never revived.
	StateCompleted State = "completed"
)

// ValidateID rejects session ids that could escape the store root.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("session id is empty")
	}
	if strings.ContainsAny(id, "/\\") || strings.Contains(id, "..") {
		return fmt.Errorf("session id %q contains path elements", id)
	}
	return nil
}

// Resolve maps a session id to its directory under the store root.
func (s *Store) Resolve(id string) (string, error) {
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, id), nil
}

// WithinRoot verifies that dir names a directory confined to the store
// root. Lifecycle callers accept raw directory paths from requests, so
// this runs before any durable mutation.
func (s *Store) WithinRoot(dir string) error {
	rel, err := filepath.Rel(s.root, dir)
	if err != nil {
		return fmt.Errorf("resolving %s against session root: %w", dir, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("directory %s is outside the session root", dir)
	}
	return nil
}

// ReadState returns the session's durable state. A missing or
// unreadable state file reads as suspended: only an explicit marker
// makes a session active.
func (s *Store) ReadState(dir string) State {
	raw, err := os.ReadFile(filepath.Join(dir, stateFile))
	if err != nil {
		return StateSuspended
	}
	switch State(strings.TrimSpace(string(raw))) {
	case StateActive:
		return StateActive
	case StateCompleted:
		return StateCompleted
	default:
		return StateSuspended
	}
}

// WriteState records the session's durable state. Fails closed: any
// write error propagates.
func (s *Store) WriteState(dir string, state State) error {
	path := filepath.Join(dir, stateFile)
	if err := os.WriteFile(path, []byte(string(state)+"\n"), 0644); err != nil {
		return fmt.Errorf("writing session state %s: %w", path, err)
	}
	return nil
}

// ReadLifecycleMode returns the session's lifecycle mode; missing
// reads as persistent.
func (s *Store) ReadLifecycleMode(dir string) policy.LifecycleMode {
	raw, err := os.ReadFile(filepath.Join(dir, modeFile))
	if err != nil {
		return policy.Persistent
	}
	return policy.NormalizeLifecycleMode(strings.TrimSpace(string(raw)), policy.Persistent)
}

// WriteLifecycleMode records the session's lifecycle mode.
func (s *Store) WriteLifecycleMode(dir string, mode policy.LifecycleMode) error {
	path := filepath.Join(dir, modeFile)
	if err := os.WriteFile(path, []byte(string(mode)+"\n"), 0644); err != nil {
		return fmt.Errorf("writing session mode %s: %w", path, err)
	}
	return nil
}

// ReadControlMode returns the session's control-mode policy scope, or
// fallback when the file is missing or holds an unknown value.
func (s *Store) ReadControlMode(dir string, fallback policy.ControlMode) policy.ControlMode {
	raw, err := os.ReadFile(filepath.Join(dir, controlModeFile))
	if err != nil {
		return fallback
	}
	return policy.NormalizeControlMode(strings.TrimSpace(string(raw)), fallback)
}

// WriteControlMode records the session's control-mode policy scope.
func (s *Store) WriteControlMode(dir string, mode policy.ControlMode) error {
	path := filepath.Join(dir, controlModeFile)
	if err := os.WriteFile(path, []byte(string(mode)+"\n"), 0644); err != nil {
		return fmt.Errorf("writing session control mode %s: %w", path, err)
	}
	return nil
}

// writeFileAtomic writes data to path via a temporary file in the same
// directory, fsyncing before the rename so readers never observe a
// partial file.
func writeFileAtomic(path string, data []byte) error {
	temporaryPath := path + ".tmp"

	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary file: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary file: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming into place: %w", err)
	}

	// Sync the parent directory so the rename survives power loss.
	if parent, err := os.Open(filepath.Dir(path)); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}
