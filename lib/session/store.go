// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/deskpilot/deskpilot/lib/clock"
	"github.com/deskpilot/deskpilot/lib/fault"
	"github.com/deskpilot/deskpilot/lib/policy"
)

// Store manages session directories under one root. It is safe for
// concurrent use in the sense that every method is a self-contained
// filesystem operation; transition-level atomicity is the lifecycle
// coordinator's job.
type Store struct {
	root   string
	clk    clock.Clock
	logger *slog.Logger
}

// NewStore creates a Store rooted at root, creating the root directory
// if needed.
func NewStore(root string, clk clock.Clock, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	absolute, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving session root: %w", err)
	}
	if err := os.MkdirAll(absolute, 0755); err != nil {
		return nil, fmt.Errorf("creating session root: %w", err)
	}
	return &Store{root: absolute, clk: clk, logger: logger}, nil
}

// Root returns the store's root directory.
func (s *Store) Root() string { return s.root }

// CreateSession initializes a session directory for id. The directory
// is staged under a temporary name and renamed into place, so a crash
// mid-initialization never leaves a half-built session behind.
//
// An existing session is adopted as-is, except a completed oneshot
// session, which is never reused.
func (s *Store) CreateSession(id string, lifecycle policy.LifecycleMode, controlMode policy.ControlMode, runtimeMode policy.RuntimeMode) (string, error) {
	dir, err := s.Resolve(id)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(dir); err == nil {
		state := s.ReadState(dir)
		if state == StateCompleted && s.ReadLifecycleMode(dir) == policy.Oneshot {
			return "", fault.Conflict(string(state), "session %s completed its oneshot lifecycle and cannot be reused", id)
		}
		return dir, nil
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("checking session directory: %w", err)
	}

	staging := dir + ".staging-" + randomSuffix()
	if err := s.initSessionDir(staging, id, lifecycle, controlMode, runtimeMode); err != nil {
		os.RemoveAll(staging)
		return "", err
	}
	if err := os.Rename(staging, dir); err != nil {
		os.RemoveAll(staging)
		return "", fmt.Errorf("activating session directory: %w", err)
	}
	s.logger.Info("session created", "session_id", id, "lifecycle_mode", lifecycle)
	return dir, nil
}

func (s *Store) initSessionDir(dir, id string, lifecycle policy.LifecycleMode, controlMode policy.ControlMode, runtimeMode policy.RuntimeMode) error {
	for _, sub := range []string{logsDir, screenshotsDir, scriptsDir, userDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("creating session subdirectory %s: %w", sub, err)
		}
	}
	if err := s.WriteState(dir, StateSuspended); err != nil {
		return err
	}
	if err := s.WriteLifecycleMode(dir, lifecycle); err != nil {
		return err
	}
	if err := s.WriteControlMode(dir, controlMode); err != nil {
		return err
	}
	return s.WriteManifest(dir, Manifest{
		SessionID:     id,
		RuntimeMode:   string(runtimeMode),
		LifecycleMode: string(lifecycle),
	})
}

// EnsureLayout recreates any missing session subdirectories and the
// manifest. Used when resuming a session whose directory was pruned of
// auxiliary files.
func (s *Store) EnsureLayout(dir string, runtimeMode policy.RuntimeMode) error {
	for _, sub := range []string{logsDir, screenshotsDir, scriptsDir, userDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0755); err != nil {
			return fmt.Errorf("creating session subdirectory %s: %w", sub, err)
		}
	}
	if _, err := s.ReadManifest(dir); os.IsNotExist(err) {
		return s.WriteManifest(dir, Manifest{
			SessionID:     filepath.Base(dir),
			RuntimeMode:   string(runtimeMode),
			LifecycleMode: string(s.ReadLifecycleMode(dir)),
		})
	} else if err != nil {
		return err
	}
	return nil
}

// ActiveSessionDir returns the directory the active-session pointer
// names, or false when no session is active.
func (s *Store) ActiveSessionDir() (string, bool) {
	raw, err := os.ReadFile(filepath.Join(s.root, pointerFile))
	if err != nil {
		return "", false
	}
	dir := strings.TrimSpace(string(raw))
	if dir == "" {
		return "", false
	}
	return dir, true
}

// SetActiveSession atomically points the instance at dir and relinks
// the working-directory symlink.
func (s *Store) SetActiveSession(dir string) error {
	if err := writeFileAtomic(filepath.Join(s.root, pointerFile), []byte(dir+"\n")); err != nil {
		return fmt.Errorf("writing active-session pointer: %w", err)
	}
	return s.relinkCurrent(dir)
}

// ClearActiveSession removes the active-session pointer and the
// working-directory symlink. Idempotent.
func (s *Store) ClearActiveSession() error {
	if err := os.Remove(filepath.Join(s.root, pointerFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing active-session pointer: %w", err)
	}
	if err := os.Remove(filepath.Join(s.root, currentLink)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing current-session link: %w", err)
	}
	return nil
}

// relinkCurrent repoints root/current at dir via a staged symlink and
// rename, so the link never dangles mid-switch.
func (s *Store) relinkCurrent(dir string) error {
	link := filepath.Join(s.root, currentLink)
	staging := link + ".tmp"
	os.Remove(staging)
	if err := os.Symlink(dir, staging); err != nil {
		return fmt.Errorf("staging current-session link: %w", err)
	}
	if err := os.Rename(staging, link); err != nil {
		os.Remove(staging)
		return fmt.Errorf("relinking current session: %w", err)
	}
	return nil
}

// InstanceState records the instance-wide lifecycle state, written
// during shutdown so supervisors can distinguish a deliberate stop
// from a crash.
type InstanceState struct {
	State     string    `json:"state"`
	Mode      string    `json:"mode,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// WriteInstanceState atomically records the instance lifecycle state.
func (s *Store) WriteInstanceState(state, mode string) error {
	payload := InstanceState{State: state, Mode: mode, UpdatedAt: s.clk.Now().UTC()}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling instance state: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(filepath.Join(s.root, instanceStateFile), data); err != nil {
		return fmt.Errorf("writing instance state: %w", err)
	}
	return nil
}

// ReadInstanceState returns the recorded instance state, or false when
// none was written.
func (s *Store) ReadInstanceState() (InstanceState, bool) {
	data, err := os.ReadFile(filepath.Join(s.root, instanceStateFile))
	if err != nil {
		return InstanceState{}, false
	}
	var state InstanceState
	if err := json.Unmarshal(data, &state); err != nil {
		return InstanceState{}, false
	}
	return state, true
}

// CleanupSessions prunes old session directories: anything whose state
// file has not changed within ttl, then the oldest beyond maxSessions.
// The active session and staging directories are never touched.
// Returns the ids of removed sessions.
func (s *Store) CleanupSessions(maxSessions int, ttl time.Duration) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("listing session root: %w", err)
	}
	active, _ := s.ActiveSessionDir()

	type candidate struct {
		dir      string
		modified time.Time
	}
	var candidates []candidate
	for _, entry := range entries {
		if !entry.IsDir() || strings.Contains(entry.Name(), ".staging-") {
			continue
		}
		dir := filepath.Join(s.root, entry.Name())
		if dir == active {
			continue
		}
		modified := s.clk.Now()
		if info, err := os.Stat(filepath.Join(dir, stateFile)); err == nil {
			modified = info.ModTime()
		}
		candidates = append(candidates, candidate{dir: dir, modified: modified})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modified.Before(candidates[j].modified)
	})

	var removed []string
	cutoff := s.clk.Now().Add(-ttl)
	keep := candidates[:0]
	for _, c := range candidates {
		if ttl > 0 && c.modified.Before(cutoff) {
			if err := os.RemoveAll(c.dir); err != nil {
				return removed, fmt.Errorf("removing expired session %s: %w", c.dir, err)
			}
			removed = append(removed, filepath.Base(c.dir))
			continue
		}
		keep = append(keep, c)
	}
	if maxSessions > 0 {
		for len(keep) > maxSessions {
			victim := keep[0]
			keep = keep[1:]
			if err := os.RemoveAll(victim.dir); err != nil {
				return removed, fmt.Errorf("removing excess session %s: %w", victim.dir, err)
			}
			removed = append(removed, filepath.Base(victim.dir))
		}
	}
	if len(removed) > 0 {
		s.logger.Info("session cleanup", "removed", removed)
	}
	return removed, nil
}

func randomSuffix() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		panic("session: reading random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
