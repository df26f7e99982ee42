// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package lifecycle

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"
)

// Step is one external graceful-shutdown command.
type Step struct {
	// Name identifies the step in audit events and failure lists.
	Name string

	// Argv is the command to run.
	Argv []string

	// Timeout bounds the step; zero means the coordinator's default
	// step timeout.
	Timeout time.Duration
}

// Plan is the ordered set of graceful-shutdown steps. Runtime steps
// wind down the sandboxed desktop runtime itself and run on suspend,
// handover, and shutdown; component steps stop auxiliary services and
// run only on full instance shutdown.
type Plan struct {
	RuntimeSteps   []Step
	ComponentSteps []Step
}

// DefaultPlan is the compiled-in shutdown plan for the standard
// sandboxed desktop runtime.
func DefaultPlan() Plan {
	return Plan{
		RuntimeSteps: []Step{
			{Name: "compositor", Argv: []string{"compositor-ctl", "stop"}},
			{Name: "display", Argv: []string{"display-ctl", "stop"}},
		},
		ComponentSteps: []Step{
			{Name: "input-bridge", Argv: []string{"input-bridge-ctl", "stop"}},
			{Name: "stream-gateway", Argv: []string{"stream-gateway-ctl", "stop"}},
		},
	}
}

// planFile is the on-disk shape of an authored plan. Plan files are
// JSONC so operators can comment their overrides.
type planFile struct {
	RuntimeSteps   []planStep `json:"runtime_steps"`
	ComponentSteps []planStep `json:"component_steps"`
}

type planStep struct {
	Name           string   `json:"name"`
	Argv           []string `json:"argv"`
	TimeoutSeconds int      `json:"timeout_seconds"`
}

// LoadPlan reads an authored shutdown plan from a JSONC file.
func LoadPlan(path string) (Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("reading shutdown plan: %w", err)
	}

	var file planFile
	if err := json.Unmarshal(jsonc.ToJSON(data), &file); err != nil {
		return Plan{}, fmt.Errorf("parsing shutdown plan %s: %w", path, err)
	}

	plan := Plan{
		RuntimeSteps:   make([]Step, 0, len(file.RuntimeSteps)),
		ComponentSteps: make([]Step, 0, len(file.ComponentSteps)),
	}
	for _, raw := range file.RuntimeSteps {
		step, err := raw.compile()
		if err != nil {
			return Plan{}, fmt.Errorf("shutdown plan %s, runtime step: %w", path, err)
		}
		plan.RuntimeSteps = append(plan.RuntimeSteps, step)
	}
	for _, raw := range file.ComponentSteps {
		step, err := raw.compile()
		if err != nil {
			return Plan{}, fmt.Errorf("shutdown plan %s, component step: %w", path, err)
		}
		plan.ComponentSteps = append(plan.ComponentSteps, step)
	}
	return plan, nil
}

func (p planStep) compile() (Step, error) {
	if p.Name == "" {
		return Step{}, fmt.Errorf("step has no name")
	}
	if len(p.Argv) == 0 {
		return Step{}, fmt.Errorf("step %s has an empty argv", p.Name)
	}
	if p.TimeoutSeconds < 0 {
		return Step{}, fmt.Errorf("step %s has a negative timeout", p.Name)
	}
	return Step{
		Name:    p.Name,
		Argv:    append([]string(nil), p.Argv...),
		Timeout: time.Duration(p.TimeoutSeconds) * time.Second,
	}, nil
}
