// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import (
	"fmt"
	"sort"
	"strings"
)

// PerformanceProfile names a tuning preset for the capture and input
// pipeline. The policy guard only checks that a profile is allowed for
// the selected use case; the presets themselves live outside this
// package.
type PerformanceProfile string

const (
	// LowLatency minimizes input-to-display delay.
	LowLatency PerformanceProfile = "low-latency"

	// Balanced is the general-purpose default.
	Balanced PerformanceProfile = "balanced"

	// Diagnostic records maximal detail for debugging at the cost of
	// overhead.
	Diagnostic PerformanceProfile = "diagnostic"

	// MaxQuality favors capture fidelity over latency.
	MaxQuality PerformanceProfile = "max-quality"
)

// Valid reports whether the performance profile is a known value.
func (p PerformanceProfile) Valid() bool {
	switch p {
	case LowLatency, Balanced, Diagnostic, MaxQuality:
		return true
	}
	return false
}

// UseCaseProfile pins every configuration field to a canonical value.
// Selecting a named use case means the whole combination is audited as
// a unit: any field that deviates from the canonical value is a
// violation, and only performance profiles in the allow-list may be
// paired with it.
type UseCaseProfile struct {
	Name                string
	RuntimeMode         RuntimeMode
	InstanceLifecycle   LifecycleMode
	SessionLifecycle    LifecycleMode
	InstanceControlMode ControlMode
	SessionControlMode  ControlMode
	DefaultPerformance  PerformanceProfile
	AllowedPerformance  []PerformanceProfile
}

// useCaseProfiles is the canonical table. Names are stable identifiers
// referenced by deployment tooling; changing a row is a compatibility
// break for every environment that pins the name.
var useCaseProfiles = map[string]UseCaseProfile{
	"human-interactive": {
		Name:                "human-interactive",
		RuntimeMode:         Interactive,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: HumanOnly,
		SessionControlMode:  HumanOnly,
		DefaultPerformance:  LowLatency,
		AllowedPerformance:  []PerformanceProfile{LowLatency, Balanced},
	},
	"human-exploratory": {
		Name:                "human-exploratory",
		RuntimeMode:         Interactive,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: HumanOnly,
		SessionControlMode:  HumanOnly,
		DefaultPerformance:  Balanced,
		AllowedPerformance:  []PerformanceProfile{Balanced, LowLatency, MaxQuality},
	},
	"human-debug-input": {
		Name:                "human-debug-input",
		RuntimeMode:         Interactive,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: HumanOnly,
		SessionControlMode:  HumanOnly,
		DefaultPerformance:  Diagnostic,
		AllowedPerformance:  []PerformanceProfile{Diagnostic, Balanced},
	},
	"agent-batch": {
		Name:                "agent-batch",
		RuntimeMode:         Headless,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: AgentOnly,
		SessionControlMode:  AgentOnly,
		DefaultPerformance:  Balanced,
		AllowedPerformance:  []PerformanceProfile{Balanced, LowLatency},
	},
	"agent-timing-critical": {
		Name:                "agent-timing-critical",
		RuntimeMode:         Headless,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: AgentOnly,
		SessionControlMode:  AgentOnly,
		DefaultPerformance:  LowLatency,
		AllowedPerformance:  []PerformanceProfile{LowLatency},
	},
	"agent-forensic": {
		Name:                "agent-forensic",
		RuntimeMode:         Headless,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: AgentOnly,
		SessionControlMode:  AgentOnly,
		DefaultPerformance:  Diagnostic,
		AllowedPerformance:  []PerformanceProfile{Diagnostic, MaxQuality},
	},
	"supervised-agent": {
		Name:                "supervised-agent",
		RuntimeMode:         Interactive,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: Hybrid,
		SessionControlMode:  Hybrid,
		DefaultPerformance:  Balanced,
		AllowedPerformance:  []PerformanceProfile{Balanced, LowLatency},
	},
	"incident-supervision": {
		Name:                "incident-supervision",
		RuntimeMode:         Interactive,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: Hybrid,
		SessionControlMode:  Hybrid,
		DefaultPerformance:  Diagnostic,
		AllowedPerformance:  []PerformanceProfile{Diagnostic, Balanced},
	},
	"demo-training": {
		Name:                "demo-training",
		RuntimeMode:         Interactive,
		InstanceLifecycle:   Persistent,
		SessionLifecycle:    Persistent,
		InstanceControlMode: Hybrid,
		SessionControlMode:  Hybrid,
		DefaultPerformance:  MaxQuality,
		AllowedPerformance:  []PerformanceProfile{MaxQuality, Balanced},
	},
	"ci-gate": {
		Name:                "ci-gate",
		RuntimeMode:         Headless,
		InstanceLifecycle:   Oneshot,
		SessionLifecycle:    Oneshot,
		InstanceControlMode: AgentOnly,
		SessionControlMode:  AgentOnly,
		DefaultPerformance:  Balanced,
		AllowedPerformance:  []PerformanceProfile{Balanced, LowLatency},
	},
}

// useCaseAliases maps retired profile names to their current
// canonical name. Resolution fails closed: a name in neither table is
// an error, never a pass-through.
var useCaseAliases = map[string]string{
	"human-desktop": "human-interactive",
}

// ResolveUseCaseProfile looks up a use-case profile by canonical name
// or declared alias. Matching is case-insensitive.
func ResolveUseCaseProfile(name string) (UseCaseProfile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := useCaseAliases[key]; ok {
		key = canonical
	}
	profile, ok := useCaseProfiles[key]
	if !ok {
		return UseCaseProfile{}, fmt.Errorf(
			"unknown use-case profile %q (known: %s)", name, strings.Join(UseCaseProfileNames(), ", "))
	}
	return profile, nil
}

// UseCaseProfileNames returns the canonical profile names, sorted.
func UseCaseProfileNames() []string {
	names := make([]string, 0, len(useCaseProfiles))
	for name := range useCaseProfiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// allowsPerformance reports whether the performance profile is in the
// use case's allow-list.
func (p UseCaseProfile) allowsPerformance(performance PerformanceProfile) bool {
	for _, allowed := range p.AllowedPerformance {
		if allowed == performance {
			return true
		}
	}
	return false
}
