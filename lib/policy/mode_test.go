// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package policy

import "testing"

func TestEffectiveControlModeTruthTable(t *testing.T) {
	// Human-only wins over everything; agent-only wins over hybrid.
	cases := []struct {
		instance ControlMode
		session  ControlMode
		want     ControlMode
	}{
		{HumanOnly, HumanOnly, HumanOnly},
		{HumanOnly, AgentOnly, HumanOnly},
		{HumanOnly, Hybrid, HumanOnly},
		{AgentOnly, HumanOnly, HumanOnly},
		{AgentOnly, AgentOnly, AgentOnly},
		{AgentOnly, Hybrid, AgentOnly},
		{Hybrid, HumanOnly, HumanOnly},
		{Hybrid, AgentOnly, AgentOnly},
		{Hybrid, Hybrid, Hybrid},
	}
	for _, c := range cases {
		if got := EffectiveControlMode(c.instance, c.session); got != c.want {
			t.Errorf("EffectiveControlMode(%s, %s) = %s, want %s",
				c.instance, c.session, got, c.want)
		}
	}
}

func TestNormalizeControlMode(t *testing.T) {
	if got := NormalizeControlMode("  Human-Only ", Hybrid); got != HumanOnly {
		t.Errorf("NormalizeControlMode trims and lowercases, got %q", got)
	}
	if got := NormalizeControlMode("", AgentOnly); got != AgentOnly {
		t.Errorf("NormalizeControlMode empty should fall back, got %q", got)
	}
	// Unknown values pass through so Validate can report them.
	if got := NormalizeControlMode("turbo", Hybrid); got != ControlMode("turbo") {
		t.Errorf("NormalizeControlMode unknown = %q, want pass-through", got)
	}
}

func TestDefaultControlMode(t *testing.T) {
	if got := DefaultControlMode(Headless); got != AgentOnly {
		t.Errorf("DefaultControlMode(headless) = %s, want agent-only", got)
	}
	if got := DefaultControlMode(Interactive); got != Hybrid {
		t.Errorf("DefaultControlMode(interactive) = %s, want hybrid", got)
	}
}
