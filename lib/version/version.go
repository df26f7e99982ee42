// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package version provides build version information for deskpilot
// binaries, plus the durable schema versions stamped into session
// manifests and audit events.
//
// Build information is injected at build time via -ldflags, for example:
//
//	go build -ldflags "-X github.com/deskpilot/deskpilot/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version

import (
	"fmt"
	"runtime"
	"strconv"
)

// These variables are set via -ldflags at build time.
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

// ManifestSchema is the schema version written into session manifests.
// A manifest written by a build with a numerically newer schema must
// not be resumed by this build.
const ManifestSchema = "3"

// EventSchema is the schema version written into audit log events.
const EventSchema = "1"

// NewerThan reports whether schema version a is numerically newer than
// b. Unparsable versions compare as zero, so a corrupt manifest never
// reads as "from the future".
func NewerThan(a, b string) bool {
	return parseSchema(a) > parseSchema(b)
}

func parseSchema(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number.
func Short() string {
	return Version
}

// Commit returns the git commit SHA.
func Commit() string {
	return GitCommit
}
