// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// RecorderRunning reports whether a session recorder process is alive
// for the session directory, based on its pid file and a signal-0
// probe. A stale or unparsable pid file reads as not running.
func RecorderRunning(dir string) bool {
	raw, err := os.ReadFile(filepath.Join(dir, recorderPIDFile))
	if err != nil {
		return false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return false
	}
	err = unix.Kill(pid, 0)
	// EPERM means the process exists but belongs to another user.
	return err == nil || errors.Is(err, unix.EPERM)
}
