// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Package runner executes external shutdown and stop steps with
// per-call timeouts. The lifecycle coordinator only depends on the
// Runner interface; tests substitute the Fake.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// Result is the outcome of one external command.
type Result struct {
	// OK is true when the command ran and exited zero.
	OK bool

	Stdout   string
	Stderr   string
	ExitCode int

	// Err describes why the command could not run or did not exit
	// cleanly: binary not found, timeout, or the exit status.
	Err string
}

// Runner runs one external command to completion.
type Runner interface {
	Run(ctx context.Context, argv []string, timeout time.Duration) Result
}

// ExecRunner runs commands with os/exec under a per-call timeout.
type ExecRunner struct{}

// Run executes argv and waits for it, bounded by timeout (when
// positive) and by ctx. A timed-out command is killed and reported
// with a timeout error rather than its partial exit status.
func (ExecRunner) Run(ctx context.Context, argv []string, timeout time.Duration) Result {
	if len(argv) == 0 {
		return Result{ExitCode: -1, Err: "empty command"}
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
	}
	switch {
	case err == nil:
		result.OK = true
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
		result.Err = fmt.Sprintf("command %s timed out after %s", argv[0], timeout)
	case errors.Is(err, exec.ErrNotFound):
		result.ExitCode = -1
		result.Err = fmt.Sprintf("command %s not found", argv[0])
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.Err = fmt.Sprintf("command %s exited %d", argv[0], result.ExitCode)
		} else {
			result.ExitCode = -1
			result.Err = fmt.Sprintf("running command %s: %v", argv[0], err)
		}
	}
	return result
}
