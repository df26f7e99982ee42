// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shutdown-plan.jsonc")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPlanParsesJSONC(t *testing.T) {
	path := writePlanFile(t, `{
		// Wind down the compositor before the display server.
		"runtime_steps": [
			{"name": "compositor", "argv": ["compositor-ctl", "stop"], "timeout_seconds": 15},
			{"name": "display", "argv": ["display-ctl", "stop"]},
		],
		"component_steps": [
			{"name": "input-bridge", "argv": ["input-bridge-ctl", "stop"]},
		],
	}`)

	plan, err := LoadPlan(path)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if len(plan.RuntimeSteps) != 2 || len(plan.ComponentSteps) != 1 {
		t.Fatalf("steps = %d/%d", len(plan.RuntimeSteps), len(plan.ComponentSteps))
	}
	if plan.RuntimeSteps[0].Timeout != 15*time.Second {
		t.Errorf("timeout = %s", plan.RuntimeSteps[0].Timeout)
	}
	if plan.RuntimeSteps[1].Timeout != 0 {
		t.Errorf("unset timeout should stay zero (coordinator default applies), got %s", plan.RuntimeSteps[1].Timeout)
	}
}

func TestLoadPlanRejectsBadSteps(t *testing.T) {
	cases := map[string]string{
		"missing name":     `{"runtime_steps": [{"argv": ["x"]}]}`,
		"empty argv":       `{"runtime_steps": [{"name": "x"}]}`,
		"negative timeout": `{"component_steps": [{"name": "x", "argv": ["x"], "timeout_seconds": -1}]}`,
	}
	for label, content := range cases {
		if _, err := LoadPlan(writePlanFile(t, content)); err == nil {
			t.Errorf("%s: LoadPlan should fail", label)
		}
	}
}

func TestLoadPlanMissingFile(t *testing.T) {
	if _, err := LoadPlan(filepath.Join(t.TempDir(), "absent.jsonc")); err == nil {
		t.Error("missing plan file should be an error")
	}
}

func TestDefaultPlanNonEmpty(t *testing.T) {
	plan := DefaultPlan()
	if len(plan.RuntimeSteps) == 0 || len(plan.ComponentSteps) == 0 {
		t.Error("default plan should cover runtime and component steps")
	}
	for _, step := range append(plan.RuntimeSteps, plan.ComponentSteps...) {
		if step.Name == "" || len(step.Argv) == 0 {
			t.Errorf("malformed default step %+v", step)
		}
	}
}
