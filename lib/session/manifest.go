// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/zeebo/blake3"

	"github.com/deskpilot/deskpilot/lib/version"
)

// manifestDomain keys the manifest fingerprint so it can never collide
// with hashes computed for any other purpose.
const manifestDomain = "deskpilot.session.manifest"

// Manifest is the per-session JSON descriptor. The fingerprint is a
// keyed BLAKE3 hash over the core identity fields; a mismatch means
// the manifest was hand-edited or corrupted.
type Manifest struct {
	SchemaVersion string    `json:"schema_version"`
	SessionID     string    `json:"session_id"`
	RuntimeMode   string    `json:"runtime_mode"`
	LifecycleMode string    `json:"lifecycle_mode"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Fingerprint   string    `json:"fingerprint"`
}

// fingerprint computes the keyed hash of the manifest's core fields.
func (m *Manifest) fingerprint() string {
	key := make([]byte, 32)
	copy(key, manifestDomain)
	hasher, err := blake3.NewKeyed(key)
	if err != nil {
		// NewKeyed only fails on a key length other than 32.
		panic("session: building keyed hasher: " + err.Error())
	}
	core := strings.Join([]string{
		m.SchemaVersion,
		m.SessionID,
		m.RuntimeMode,
		m.LifecycleMode,
		m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, "\n")
	hasher.Write([]byte(core))
	return hex.EncodeToString(hasher.Sum(nil))
}

// Verify reports whether the stored fingerprint matches the core
// fields.
func (m *Manifest) Verify() bool {
	return m.Fingerprint == m.fingerprint()
}

// WriteManifest stamps the update time and fingerprint and writes the
// manifest atomically.
func (s *Store) WriteManifest(dir string, manifest Manifest) error {
	if manifest.SchemaVersion == "" {
		manifest.SchemaVersion = version.ManifestSchema
	}
	if manifest.CreatedAt.IsZero() {
		manifest.CreatedAt = s.clk.Now().UTC()
	}
	manifest.UpdatedAt = s.clk.Now().UTC()
	manifest.Fingerprint = manifest.fingerprint()

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling session manifest: %w", err)
	}
	data = append(data, '\n')
	if err := writeFileAtomic(filepath.Join(dir, manifestFile), data); err != nil {
		return fmt.Errorf("writing session manifest: %w", err)
	}
	return nil
}

// ReadManifest reads and parses the session manifest. A missing file
// returns an error wrapping os.ErrNotExist.
func (s *Store) ReadManifest(dir string) (Manifest, error) {
	path := filepath.Join(dir, manifestFile)
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("parsing session manifest %s: %w", path, err)
	}
	return manifest, nil
}
