// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"strings"
)

// Input is a whole-system configuration combination presented for
// admission. Raw string fields are normalized (trimmed, lowercased,
// defaulted) before checking so callers can pass environment values
// straight through.
type Input struct {
	RuntimeMode           string
	InstanceLifecycleMode string
	SessionLifecycleMode  string
	InstanceControlMode   string
	SessionControlMode    string
	BuildIntent           string
	AllowHeadlessHybrid   bool
	UseCaseProfile        string
	PerformanceProfile    string
}

// Validate checks a configuration combination and returns an ordered
// list of human-readable violations. An empty list means the
// combination is admissible. All violations detectable from the input
// are reported at once so an operator fixes a broken deployment in one
// pass instead of replaying it error by error.
func Validate(input Input) []string {
	var violations []string

	runtime := NormalizeRuntimeMode(input.RuntimeMode, Headless)
	instanceLifecycle := NormalizeLifecycleMode(input.InstanceLifecycleMode, Persistent)
	sessionLifecycle := NormalizeLifecycleMode(input.SessionLifecycleMode, Persistent)
	instanceControl := NormalizeControlMode(input.InstanceControlMode, Hybrid)
	sessionControl := NormalizeControlMode(input.SessionControlMode, Hybrid)
	intent := BuildIntent(strings.ToLower(strings.TrimSpace(input.BuildIntent)))
	if intent == "" {
		intent = IntentRelease
	}

	if !runtime.Valid() {
		violations = append(violations, fmt.Sprintf(
			"runtime mode must be one of [headless interactive] (got %q)", runtime))
	}
	if !instanceLifecycle.Valid() {
		violations = append(violations, fmt.Sprintf(
			"instance lifecycle mode must be one of [oneshot persistent] (got %q)", instanceLifecycle))
	}
	if !sessionLifecycle.Valid() {
		violations = append(violations, fmt.Sprintf(
			"session lifecycle mode must be one of [oneshot persistent] (got %q)", sessionLifecycle))
	}
	if !instanceControl.Valid() {
		violations = append(violations, fmt.Sprintf(
			"instance control mode must be one of [agent-only human-only hybrid] (got %q)", instanceControl))
	}
	if !sessionControl.Valid() {
		violations = append(violations, fmt.Sprintf(
			"session control mode must be one of [agent-only human-only hybrid] (got %q)", sessionControl))
	}
	if !intent.Valid() {
		violations = append(violations, fmt.Sprintf(
			"build intent must be one of [rel rel-runner] (got %q)", intent))
	}

	effective := EffectiveControlMode(instanceControl, sessionControl)

	if intent == IntentReleaseRunner && runtime == Interactive {
		violations = append(violations,
			"build intent rel-runner does not support an interactive runtime; use headless")
	}

	if runtime == Headless && effective == HumanOnly {
		violations = append(violations,
			"invalid combination: headless runtime cannot be human-only (no interactive human control surface)")
	}

	if runtime == Headless && effective == Hybrid && !input.AllowHeadlessHybrid {
		violations = append(violations,
			"invalid combination: headless + hybrid is blocked by default; "+
				"set the allow-headless-hybrid override only if you accept reduced human takeover guarantees")
	}

	if strings.TrimSpace(input.UseCaseProfile) != "" {
		violations = append(violations, validateUseCase(
			input.UseCaseProfile, input.PerformanceProfile,
			runtime, instanceLifecycle, sessionLifecycle, instanceControl, sessionControl)...)
	} else if raw := strings.TrimSpace(input.PerformanceProfile); raw != "" {
		performance := PerformanceProfile(strings.ToLower(raw))
		if !performance.Valid() {
			violations = append(violations, fmt.Sprintf(
				"performance profile must be one of [balanced diagnostic low-latency max-quality] (got %q)", raw))
		}
	}

	return violations
}

// validateUseCase checks every field against the named profile's
// canonical values. A use-case profile is all-or-nothing: partial
// matches are misconfigurations, not customizations.
func validateUseCase(
	useCaseName, performanceName string,
	runtime RuntimeMode,
	instanceLifecycle, sessionLifecycle LifecycleMode,
	instanceControl, sessionControl ControlMode,
) []string {
	profile, err := ResolveUseCaseProfile(useCaseName)
	if err != nil {
		return []string{err.Error()}
	}

	var violations []string
	if runtime != profile.RuntimeMode {
		violations = append(violations, fmt.Sprintf(
			"use-case profile %s requires runtime mode %s (got %s)",
			profile.Name, profile.RuntimeMode, runtime))
	}
	if instanceLifecycle != profile.InstanceLifecycle {
		violations = append(violations, fmt.Sprintf(
			"use-case profile %s requires instance lifecycle mode %s (got %s)",
			profile.Name, profile.InstanceLifecycle, instanceLifecycle))
	}
	if sessionLifecycle != profile.SessionLifecycle {
		violations = append(violations, fmt.Sprintf(
			"use-case profile %s requires session lifecycle mode %s (got %s)",
			profile.Name, profile.SessionLifecycle, sessionLifecycle))
	}
	if instanceControl != profile.InstanceControlMode {
		violations = append(violations, fmt.Sprintf(
			"use-case profile %s requires instance control mode %s (got %s)",
			profile.Name, profile.InstanceControlMode, instanceControl))
	}
	if sessionControl != profile.SessionControlMode {
		violations = append(violations, fmt.Sprintf(
			"use-case profile %s requires session control mode %s (got %s)",
			profile.Name, profile.SessionControlMode, sessionControl))
	}

	performance := profile.DefaultPerformance
	if raw := strings.TrimSpace(performanceName); raw != "" {
		performance = PerformanceProfile(strings.ToLower(raw))
	}
	if !performance.Valid() {
		violations = append(violations, fmt.Sprintf(
			"performance profile must be one of [balanced diagnostic low-latency max-quality] (got %q)", performanceName))
	} else if !profile.allowsPerformance(performance) {
		violations = append(violations, fmt.Sprintf(
			"performance profile %s is not allowed for use-case profile %s (allowed: %s)",
			performance, profile.Name, joinPerformance(profile.AllowedPerformance)))
	}

	return violations
}

func joinPerformance(profiles []PerformanceProfile) string {
	names := make([]string, len(profiles))
	for i, p := range profiles {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}
