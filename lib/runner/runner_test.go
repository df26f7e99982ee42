// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestExecRunnerSuccess(t *testing.T) {
	result := ExecRunner{}.Run(context.Background(), []string{"true"}, time.Second)
	if !result.OK || result.ExitCode != 0 || result.Err != "" {
		t.Errorf("true: %+v", result)
	}
}

func TestExecRunnerCapturesOutput(t *testing.T) {
	result := ExecRunner{}.Run(context.Background(), []string{"sh", "-c", "echo out; echo err >&2"}, time.Second)
	if !result.OK {
		t.Fatalf("sh: %+v", result)
	}
	if strings.TrimSpace(result.Stdout) != "out" || strings.TrimSpace(result.Stderr) != "err" {
		t.Errorf("stdout=%q stderr=%q", result.Stdout, result.Stderr)
	}
}

func TestExecRunnerNonZeroExit(t *testing.T) {
	result := ExecRunner{}.Run(context.Background(), []string{"false"}, time.Second)
	if result.OK || result.ExitCode != 1 {
		t.Errorf("false: %+v", result)
	}
	if !strings.Contains(result.Err, "exited 1") {
		t.Errorf("err = %q", result.Err)
	}
}

func TestExecRunnerNotFound(t *testing.T) {
	result := ExecRunner{}.Run(context.Background(), []string{"deskpilot-no-such-binary"}, time.Second)
	if result.OK || result.ExitCode != -1 {
		t.Errorf("missing binary: %+v", result)
	}
	if !strings.Contains(result.Err, "not found") {
		t.Errorf("err = %q", result.Err)
	}
}

func TestExecRunnerTimeout(t *testing.T) {
	result := ExecRunner{}.Run(context.Background(), []string{"sleep", "5"}, 50*time.Millisecond)
	if result.OK {
		t.Fatal("timed-out command must not report OK")
	}
	if !strings.Contains(result.Err, "timed out") {
		t.Errorf("err = %q", result.Err)
	}
}

func TestExecRunnerEmptyCommand(t *testing.T) {
	result := ExecRunner{}.Run(context.Background(), nil, time.Second)
	if result.OK || result.Err == "" {
		t.Errorf("empty argv: %+v", result)
	}
}

func TestFakeScripting(t *testing.T) {
	fake := NewFake()
	fake.ScriptFailure("compositor-stop", "no compositor")

	if result := fake.Run(context.Background(), []string{"recorder-stop"}, time.Second); !result.OK {
		t.Errorf("unscripted command should succeed: %+v", result)
	}
	if result := fake.Run(context.Background(), []string{"compositor-stop", "--now"}, time.Second); result.OK {
		t.Errorf("scripted failure should fail: %+v", result)
	}

	if !fake.Ran("compositor-stop") || fake.Ran("display-stop") {
		t.Error("call recording is wrong")
	}
	lines := fake.CommandLine()
	if len(lines) != 2 || lines[1] != "compositor-stop --now" {
		t.Errorf("command lines = %v", lines)
	}
}
