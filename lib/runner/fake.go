// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package runner

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Call records one Run invocation made against a Fake.
type Call struct {
	Argv    []string
	Timeout time.Duration
}

// Fake is a scriptable Runner for tests. Results are keyed by the
// command name (argv[0]); unscripted commands succeed.
type Fake struct {
	mu      sync.Mutex
	results map[string]Result
	calls   []Call
}

// NewFake returns an empty Fake; every command succeeds until
// scripted otherwise.
func NewFake() *Fake {
	return &Fake{results: make(map[string]Result)}
}

// Script sets the result returned for a command name.
func (f *Fake) Script(command string, result Result) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[command] = result
}

// ScriptFailure makes a command fail with the given stderr text.
func (f *Fake) ScriptFailure(command, stderr string) {
	f.Script(command, Result{OK: false, Stderr: stderr, ExitCode: 1,
		Err: "command " + command + " exited 1"})
}

// Run records the call and returns the scripted result.
func (f *Fake) Run(_ context.Context, argv []string, timeout time.Duration) Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Argv: append([]string(nil), argv...), Timeout: timeout})
	if len(argv) == 0 {
		return Result{ExitCode: -1, Err: "empty command"}
	}
	if result, ok := f.results[argv[0]]; ok {
		return result
	}
	return Result{OK: true}
}

// Calls returns a copy of the recorded invocations.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// Ran reports whether any recorded call's argv starts with command.
func (f *Fake) Ran(command string) bool {
	for _, call := range f.Calls() {
		if len(call.Argv) > 0 && call.Argv[0] == command {
			return true
		}
	}
	return false
}

// CommandLine returns the recorded invocations as joined strings, for
// order assertions.
func (f *Fake) CommandLine() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, call := range calls {
		lines[i] = strings.Join(call.Argv, " ")
	}
	return lines
}
