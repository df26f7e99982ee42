// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deskpilot/deskpilot/lib/clock"
	"github.com/deskpilot/deskpilot/lib/policy"
	"github.com/deskpilot/deskpilot/lib/runner"
	"github.com/deskpilot/deskpilot/lib/session"
)

func TestRecorderControlRunning(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC))
	store, err := session.NewStore(t.TempDir(), clk, nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	dir, err := store.CreateSession("sess-a", policy.Persistent, policy.Hybrid, policy.Interactive)
	if err != nil {
		t.Fatal(err)
	}

	rec := recorderControl{run: runner.NewFake(), wait: time.Second}
	if rec.Running(dir) {
		t.Error("no pid file means no recorder")
	}

	// Pid 1 always exists.
	if err := os.WriteFile(filepath.Join(dir, "recorder.pid"), []byte("1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if !rec.Running(dir) {
		t.Error("live pid file should report running")
	}
}

func TestRecorderControlStop(t *testing.T) {
	fake := runner.NewFake()
	rec := recorderControl{run: fake, wait: time.Second}

	if err := rec.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !fake.Ran("recorder-ctl") {
		t.Errorf("stop should invoke recorder-ctl, ran %v", fake.CommandLine())
	}

	fake.ScriptFailure("recorder-ctl", "recorder wedged")
	err := rec.Stop(context.Background())
	if err == nil || !strings.Contains(err.Error(), "stopping recorder") {
		t.Errorf("failed stop should report an error, got %v", err)
	}
}
