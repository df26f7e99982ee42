// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "testing"

// inputForProfile builds a Validate input matching the profile's
// canonical values, paired with the given performance profile.
func inputForProfile(p UseCaseProfile, performance PerformanceProfile) Input {
	return Input{
		RuntimeMode:           string(p.RuntimeMode),
		InstanceLifecycleMode: string(p.InstanceLifecycle),
		SessionLifecycleMode:  string(p.SessionLifecycle),
		InstanceControlMode:   string(p.InstanceControlMode),
		SessionControlMode:    string(p.SessionControlMode),
		BuildIntent:           "rel",
		AllowHeadlessHybrid:   false,
		UseCaseProfile:        p.Name,
		PerformanceProfile:    string(performance),
	}
}

func TestAllUseCaseDefaultPerformanceCombinationsValidate(t *testing.T) {
	for _, name := range UseCaseProfileNames() {
		profile, err := ResolveUseCaseProfile(name)
		if err != nil {
			t.Fatalf("ResolveUseCaseProfile(%s): %v", name, err)
		}
		violations := Validate(inputForProfile(profile, profile.DefaultPerformance))
		if len(violations) != 0 {
			t.Errorf("%s with default performance: %v", name, violations)
		}
	}
}

func TestAllDeclaredAllowedPerformanceCombinationsValidate(t *testing.T) {
	for _, name := range UseCaseProfileNames() {
		profile, err := ResolveUseCaseProfile(name)
		if err != nil {
			t.Fatalf("ResolveUseCaseProfile(%s): %v", name, err)
		}
		for _, performance := range profile.AllowedPerformance {
			violations := Validate(inputForProfile(profile, performance))
			if len(violations) != 0 {
				t.Errorf("%s + %s: %v", name, performance, violations)
			}
		}
	}
}

func TestEmptyPerformanceResolvesToDefault(t *testing.T) {
	profile, err := ResolveUseCaseProfile("ci-gate")
	if err != nil {
		t.Fatalf("ResolveUseCaseProfile: %v", err)
	}
	violations := Validate(inputForProfile(profile, ""))
	if len(violations) != 0 {
		t.Errorf("empty performance profile should resolve to the default: %v", violations)
	}
}

func TestDisallowedPerformanceForUseCase(t *testing.T) {
	// ci-gate deliberately excludes diagnostic: a CI gate must not
	// absorb diagnostic overhead.
	profile, err := ResolveUseCaseProfile("ci-gate")
	if err != nil {
		t.Fatalf("ResolveUseCaseProfile: %v", err)
	}
	violations := Validate(inputForProfile(profile, Diagnostic))
	if !containsViolation(violations, "is not allowed for use-case profile ci-gate") {
		t.Errorf("expected performance allow-list violation, got %v", violations)
	}
}

func TestUseCaseRuntimeMismatch(t *testing.T) {
	profile, err := ResolveUseCaseProfile("supervised-agent")
	if err != nil {
		t.Fatalf("ResolveUseCaseProfile: %v", err)
	}
	input := inputForProfile(profile, Balanced)
	input.RuntimeMode = "headless"
	input.AllowHeadlessHybrid = true

	violations := Validate(input)
	if !containsViolation(violations, "requires runtime mode interactive") {
		t.Errorf("expected runtime mismatch violation, got %v", violations)
	}
}

func TestLegacyAliasResolves(t *testing.T) {
	profile, err := ResolveUseCaseProfile("human-desktop")
	if err != nil {
		t.Fatalf("alias human-desktop should resolve: %v", err)
	}
	if profile.Name != "human-interactive" {
		t.Errorf("alias resolved to %s, want human-interactive", profile.Name)
	}

	input := inputForProfile(profile, LowLatency)
	input.UseCaseProfile = "human-desktop"
	if violations := Validate(input); len(violations) != 0 {
		t.Errorf("alias profile should validate, got %v", violations)
	}
}

func TestUnknownProfileFailsClosed(t *testing.T) {
	if _, err := ResolveUseCaseProfile("quantum-desktop"); err == nil {
		t.Fatal("unknown profile name should be an error")
	}

	violations := Validate(Input{
		RuntimeMode:         "headless",
		InstanceControlMode: "agent-only",
		SessionControlMode:  "agent-only",
		UseCaseProfile:      "quantum-desktop",
	})
	if !containsViolation(violations, "unknown use-case profile") {
		t.Errorf("expected unknown profile violation, got %v", violations)
	}
}
