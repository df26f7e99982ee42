// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Marker records an in-flight session transition. It is written
// atomically before any state-mutating step of a resume or handover
// and removed once the transition completes or rolls back. A marker
// found on startup means a previous process died mid-transition.
type Marker struct {
	// Phase names the transition step in flight, e.g.
	// "resume_target_prepare" or "resume_handover_out".
	Phase string `json:"phase"`

	// SessionID is the session the marker belongs to.
	SessionID string `json:"session_id"`

	// StartedAt is when the transition began. CheckMarker uses it to
	// discard ancient markers left by unrelated restarts.
	StartedAt time.Time `json:"started_at"`

	// Context carries transition-specific detail for diagnostics.
	Context map[string]string `json:"context,omitempty"`
}

// WriteMarker atomically writes the transition marker for a session.
func (s *Store) WriteMarker(dir string, marker Marker) error {
	if marker.StartedAt.IsZero() {
		marker.StartedAt = s.clk.Now().UTC()
	}
	if marker.SessionID == "" {
		marker.SessionID = filepath.Base(dir)
	}
	data, err := json.MarshalIndent(marker, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling transition marker: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(filepath.Join(dir, markerFile), data); err != nil {
		return fmt.Errorf("writing transition marker: %w", err)
	}
	return nil
}

// ReadMarker reads a session's transition marker. A missing file
// returns an error wrapping os.ErrNotExist.
func (s *Store) ReadMarker(dir string) (Marker, error) {
	path := filepath.Join(dir, markerFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return Marker{}, err
	}
	var marker Marker
	if err := json.Unmarshal(data, &marker); err != nil {
		return Marker{}, fmt.Errorf("parsing transition marker %s: %w", path, err)
	}
	return marker, nil
}

// CheckMarker reports whether a recent transition marker exists.
// Returns the marker and true when one exists and started within
// maxAge of now. A missing or stale marker returns false with no
// error; any other read failure is returned so callers can distinguish
// "no marker" from "marker unreadable".
func (s *Store) CheckMarker(dir string, maxAge time.Duration) (Marker, bool, error) {
	marker, err := s.ReadMarker(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Marker{}, false, nil
		}
		return Marker{}, false, err
	}
	if s.clk.Now().Sub(marker.StartedAt) > maxAge {
		return Marker{}, false, nil
	}
	return marker, true, nil
}

// ClearMarker removes a session's transition marker. Idempotent: a
// missing marker is not an error.
func (s *Store) ClearMarker(dir string) error {
	err := os.Remove(filepath.Join(dir, markerFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing transition marker: %w", err)
	}
	return nil
}
