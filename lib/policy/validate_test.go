// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"strings"
	"testing"
)

func containsViolation(violations []string, fragment string) bool {
	for _, v := range violations {
		if strings.Contains(v, fragment) {
			return true
		}
	}
	return false
}

func TestValidateHeadlessHumanOnlyBlocked(t *testing.T) {
	violations := Validate(Input{
		RuntimeMode:           "headless",
		InstanceLifecycleMode: "persistent",
		SessionLifecycleMode:  "persistent",
		InstanceControlMode:   "human-only",
		SessionControlMode:    "human-only",
		BuildIntent:           "rel",
	})
	if !containsViolation(violations, "headless runtime cannot be human-only") {
		t.Errorf("expected headless/human-only violation, got %v", violations)
	}
}

func TestValidateHeadlessHybridRequiresOverride(t *testing.T) {
	input := Input{
		RuntimeMode:           "headless",
		InstanceLifecycleMode: "persistent",
		SessionLifecycleMode:  "persistent",
		InstanceControlMode:   "hybrid",
		SessionControlMode:    "hybrid",
		BuildIntent:           "rel",
	}

	blocked := Validate(input)
	if !containsViolation(blocked, "headless + hybrid is blocked") {
		t.Errorf("expected headless/hybrid violation without override, got %v", blocked)
	}

	input.AllowHeadlessHybrid = true
	if allowed := Validate(input); len(allowed) != 0 {
		t.Errorf("headless/hybrid with override should validate, got %v", allowed)
	}
}

func TestValidateReleaseRunnerCannotBeInteractive(t *testing.T) {
	violations := Validate(Input{
		RuntimeMode:           "interactive",
		InstanceLifecycleMode: "persistent",
		SessionLifecycleMode:  "persistent",
		InstanceControlMode:   "hybrid",
		SessionControlMode:    "hybrid",
		BuildIntent:           "rel-runner",
	})
	if !containsViolation(violations, "rel-runner does not support an interactive runtime") {
		t.Errorf("expected rel-runner/interactive violation, got %v", violations)
	}
}

func TestValidateUnknownEnumsAllReported(t *testing.T) {
	violations := Validate(Input{
		RuntimeMode:           "cloudy",
		InstanceLifecycleMode: "forever",
		SessionLifecycleMode:  "forever",
		InstanceControlMode:   "turbo",
		SessionControlMode:    "turbo",
		BuildIntent:           "debug",
	})
	// Every bad field shows up in one pass.
	for _, fragment := range []string{
		"runtime mode", "instance lifecycle mode", "session lifecycle mode",
		"instance control mode", "session control mode", "build intent",
	} {
		if !containsViolation(violations, fragment) {
			t.Errorf("missing violation for %s in %v", fragment, violations)
		}
	}
}

func TestValidateDefaultsAreAdmissible(t *testing.T) {
	// Empty input normalizes to headless + hybrid/hybrid, which is
	// blocked without the override. That is deliberate: an unattended
	// instance must opt in to hybrid.
	violations := Validate(Input{})
	if !containsViolation(violations, "headless + hybrid is blocked") {
		t.Errorf("expected default headless/hybrid block, got %v", violations)
	}

	violations = Validate(Input{InstanceControlMode: "agent-only"})
	if len(violations) != 0 {
		t.Errorf("headless agent-only should validate, got %v", violations)
	}
}

func TestValidateBarePerformanceProfile(t *testing.T) {
	violations := Validate(Input{
		InstanceControlMode: "agent-only",
		PerformanceProfile:  "warp-speed",
	})
	if !containsViolation(violations, "performance profile must be one of") {
		t.Errorf("expected unknown performance profile violation, got %v", violations)
	}
}
