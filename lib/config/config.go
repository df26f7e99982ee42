// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/deskpilot/deskpilot/lib/policy"
)

// Config is the deskpilot instance configuration.
type Config struct {
	// RuntimeMode selects interactive or headless operation.
	RuntimeMode string `yaml:"runtime_mode"`

	// InstanceLifecycleMode and SessionLifecycleMode default new
	// sessions and the instance itself to persistent or oneshot.
	InstanceLifecycleMode string `yaml:"instance_lifecycle_mode"`
	SessionLifecycleMode  string `yaml:"session_lifecycle_mode"`

	// InstanceControlMode and SessionControlMode are the two control
	// policy scopes. Empty values default by runtime mode: headless
	// runs agent-only, interactive runs hybrid.
	InstanceControlMode string `yaml:"instance_control_mode"`
	SessionControlMode  string `yaml:"session_control_mode"`

	// AllowHeadlessHybrid permits the headless + hybrid combination
	// the policy guard otherwise blocks.
	AllowHeadlessHybrid bool `yaml:"allow_headless_hybrid"`

	// BuildIntent identifies the build flavor (rel, rel-runner).
	BuildIntent string `yaml:"build_intent"`

	// UseCaseProfile and PerformanceProfile name the deployment
	// profile; both optional.
	UseCaseProfile     string `yaml:"use_case_profile"`
	PerformanceProfile string `yaml:"performance_profile"`

	// SessionRoot is the directory holding session directories.
	SessionRoot string `yaml:"session_root"`

	// DefaultSessionID is the session ensured at startup.
	DefaultSessionID string `yaml:"default_session_id"`

	// ShutdownPlanFile optionally overrides the compiled-in shutdown
	// plan with an authored JSONC plan.
	ShutdownPlanFile string `yaml:"shutdown_plan_file"`

	// StepTimeout bounds each external shutdown step. Duration fields
	// are authored as strings ("10s") and parsed out of the YAML
	// document by LoadFile, since YAML has no duration type.
	StepTimeout time.Duration `yaml:"-"`

	// HandoverTimeout bounds the whole outgoing-session shutdown
	// during a resume handover.
	HandoverTimeout time.Duration `yaml:"-"`

	// ShutdownGuardTTL is the duplicate-shutdown detection window.
	ShutdownGuardTTL time.Duration `yaml:"-"`

	// OperationCap and OperationTTL bound the operation tracker.
	OperationCap int           `yaml:"operation_cap"`
	OperationTTL time.Duration `yaml:"-"`
}

// Default returns the compiled-in configuration base.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		RuntimeMode:           string(policy.Interactive),
		InstanceLifecycleMode: string(policy.Persistent),
		SessionLifecycleMode:  string(policy.Persistent),
		BuildIntent:           string(policy.IntentRelease),
		SessionRoot:           filepath.Join(homeDir, ".local", "state", "deskpilot", "sessions"),
		DefaultSessionID:      "default",
		StepTimeout:           10 * time.Second,
		HandoverTimeout:       30 * time.Second,
		ShutdownGuardTTL:      120 * time.Second,
		OperationCap:          500,
		OperationTTL:          24 * time.Hour,
	}
}

// Load builds the configuration from defaults, the file named by
// DESKPILOT_CONFIG (when set), and DESKPILOT_* environment overrides.
func Load() (*Config, error) {
	return LoadFile(os.Getenv("DESKPILOT_CONFIG"))
}

// LoadFile builds the configuration from defaults, the given YAML file
// (optional: an empty path skips the file layer), and environment
// overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		if err := cfg.applyFileDurations(data); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	if err := cfg.applyEnvironment(os.Getenv); err != nil {
		return nil, err
	}
	cfg.normalize()
	cfg.expandVariables()
	return cfg, nil
}

// applyFileDurations parses the duration-valued YAML keys.
func (c *Config) applyFileDurations(data []byte) error {
	var raw struct {
		StepTimeout      string `yaml:"step_timeout"`
		HandoverTimeout  string `yaml:"handover_timeout"`
		ShutdownGuardTTL string `yaml:"shutdown_guard_ttl"`
		OperationTTL     string `yaml:"operation_ttl"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, entry := range []struct {
		key    string
		value  string
		target *time.Duration
	}{
		{"step_timeout", raw.StepTimeout, &c.StepTimeout},
		{"handover_timeout", raw.HandoverTimeout, &c.HandoverTimeout},
		{"shutdown_guard_ttl", raw.ShutdownGuardTTL, &c.ShutdownGuardTTL},
		{"operation_ttl", raw.OperationTTL, &c.OperationTTL},
	} {
		if entry.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(entry.value)
		if err != nil {
			return fmt.Errorf("%s: %w", entry.key, err)
		}
		*entry.target = parsed
	}
	return nil
}

// applyEnvironment overlays DESKPILOT_* variables onto the config.
// The lookup function is injected so tests need not mutate the real
// environment.
func (c *Config) applyEnvironment(lookup func(string) string) error {
	setString := func(key string, target *string) {
		if value := lookup(key); value != "" {
			*target = value
		}
	}
	setString("DESKPILOT_RUNTIME_MODE", &c.RuntimeMode)
	setString("DESKPILOT_INSTANCE_LIFECYCLE_MODE", &c.InstanceLifecycleMode)
	setString("DESKPILOT_SESSION_LIFECYCLE_MODE", &c.SessionLifecycleMode)
	setString("DESKPILOT_INSTANCE_CONTROL_MODE", &c.InstanceControlMode)
	setString("DESKPILOT_SESSION_CONTROL_MODE", &c.SessionControlMode)
	setString("DESKPILOT_BUILD_INTENT", &c.BuildIntent)
	setString("DESKPILOT_USE_CASE_PROFILE", &c.UseCaseProfile)
	setString("DESKPILOT_PERFORMANCE_PROFILE", &c.PerformanceProfile)
	setString("DESKPILOT_SESSION_ROOT", &c.SessionRoot)
	setString("DESKPILOT_DEFAULT_SESSION_ID", &c.DefaultSessionID)
	setString("DESKPILOT_SHUTDOWN_PLAN_FILE", &c.ShutdownPlanFile)

	if value := lookup("DESKPILOT_ALLOW_HEADLESS_HYBRID"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("DESKPILOT_ALLOW_HEADLESS_HYBRID: %w", err)
		}
		c.AllowHeadlessHybrid = parsed
	}

	for _, entry := range []struct {
		key    string
		target *time.Duration
	}{
		{"DESKPILOT_STEP_TIMEOUT", &c.StepTimeout},
		{"DESKPILOT_HANDOVER_TIMEOUT", &c.HandoverTimeout},
		{"DESKPILOT_SHUTDOWN_GUARD_TTL", &c.ShutdownGuardTTL},
		{"DESKPILOT_OPERATION_TTL", &c.OperationTTL},
	} {
		if value := lookup(entry.key); value != "" {
			parsed, err := time.ParseDuration(value)
			if err != nil {
				return fmt.Errorf("%s: %w", entry.key, err)
			}
			*entry.target = parsed
		}
	}

	if value := lookup("DESKPILOT_OPERATION_CAP"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("DESKPILOT_OPERATION_CAP: %w", err)
		}
		c.OperationCap = parsed
	}
	return nil
}

// normalize fills mode fields that default by runtime mode.
func (c *Config) normalize() {
	c.RuntimeMode = strings.ToLower(strings.TrimSpace(c.RuntimeMode))
	runtime := policy.NormalizeRuntimeMode(c.RuntimeMode, policy.Interactive)
	if c.InstanceControlMode == "" {
		c.InstanceControlMode = string(policy.DefaultControlMode(runtime))
	}
	if c.SessionControlMode == "" {
		c.SessionControlMode = string(policy.DefaultControlMode(runtime))
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in path
// values.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.SessionRoot = expandVars(c.SessionRoot, vars)
	c.ShutdownPlanFile = expandVars(c.ShutdownPlanFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate runs the policy guard over the configured combination and
// returns every violation found.
func (c *Config) Validate() []string {
	return policy.Validate(policy.Input{
		RuntimeMode:           c.RuntimeMode,
		InstanceLifecycleMode: c.InstanceLifecycleMode,
		SessionLifecycleMode:  c.SessionLifecycleMode,
		InstanceControlMode:   c.InstanceControlMode,
		SessionControlMode:    c.SessionControlMode,
		BuildIntent:           c.BuildIntent,
		AllowHeadlessHybrid:   c.AllowHeadlessHybrid,
		UseCaseProfile:        c.UseCaseProfile,
		PerformanceProfile:    c.PerformanceProfile,
	})
}

// RuntimePolicy returns the parsed runtime mode.
func (c *Config) RuntimePolicy() policy.RuntimeMode {
	return policy.NormalizeRuntimeMode(c.RuntimeMode, policy.Interactive)
}

// InstanceControlPolicy returns the parsed instance control mode.
func (c *Config) InstanceControlPolicy() policy.ControlMode {
	return policy.NormalizeControlMode(c.InstanceControlMode, policy.DefaultControlMode(c.RuntimePolicy()))
}

// SessionControlPolicy returns the parsed session control mode.
func (c *Config) SessionControlPolicy() policy.ControlMode {
	return policy.NormalizeControlMode(c.SessionControlMode, policy.DefaultControlMode(c.RuntimePolicy()))
}

// SessionLifecyclePolicy returns the parsed session lifecycle mode.
func (c *Config) SessionLifecyclePolicy() policy.LifecycleMode {
	return policy.NormalizeLifecycleMode(c.SessionLifecycleMode, policy.Persistent)
}
