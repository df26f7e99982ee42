// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/deskpilot/deskpilot/lib/version"
)

// Event is one line of the per-session lifecycle audit log.
type Event struct {
	SchemaVersion string         `json:"schema_version"`
	Timestamp     time.Time      `json:"timestamp"`
	EpochMS       int64          `json:"epoch_ms"`
	SessionID     string         `json:"session_id"`
	Kind          string         `json:"kind"`
	Message       string         `json:"message"`
	Extra         map[string]any `json:"extra,omitempty"`
}

// AppendEvent appends a lifecycle event to the session's audit log.
// Audit failures are logged and swallowed: losing an audit line must
// never fail the transition that produced it.
func (s *Store) AppendEvent(dir, kind, message string, extra map[string]any) {
	now := s.clk.Now().UTC()
	event := Event{
		SchemaVersion: version.EventSchema,
		Timestamp:     now,
		EpochMS:       now.UnixMilli(),
		SessionID:     filepath.Base(dir),
		Kind:          kind,
		Message:       message,
		Extra:         extra,
	}
	if err := s.appendEvent(dir, event); err != nil {
		s.logger.Warn("audit append failed",
			"session_dir", dir, "kind", kind, "error", err)
	}
}

func (s *Store) appendEvent(dir string, event Event) error {
	if err := os.MkdirAll(filepath.Join(dir, logsDir), 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}
	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling audit event: %w", err)
	}
	line = append(line, '\n')

	path := filepath.Join(dir, auditLogFile)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer file.Close()
	if _, err := file.Write(line); err != nil {
		return fmt.Errorf("appending audit event: %w", err)
	}
	return nil
}

// TailEvents returns up to limit events from the end of the session's
// audit log, oldest first. A missing log reads as empty. Unparsable
// lines are skipped.
func (s *Store) TailEvents(dir string, limit int) ([]Event, error) {
	if limit < 1 {
		limit = 1
	}
	file, err := os.Open(filepath.Join(dir, auditLogFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer file.Close()

	var events []Event
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var event Event
		if err := json.Unmarshal(scanner.Bytes(), &event); err != nil {
			continue
		}
		events = append(events, event)
		if len(events) > limit {
			events = events[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading audit log: %w", err)
	}
	return events, nil
}
