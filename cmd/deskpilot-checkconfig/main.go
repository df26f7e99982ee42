// Copyright 2026 The Deskpilot Authors
// SPDX-License-Identifier: Apache-2.0

// Deskpilot-checkconfig validates a deskpilot configuration without
// starting the daemon. It loads the same layers the daemon does
// (defaults, optional YAML file, DESKPILOT_* environment), optionally
// overlays one or more env-files, and runs the policy guard.
//
// Exit codes: 0 when the configuration is admissible, 2 when the
// policy guard reports violations, 1 on any other error.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/deskpilot/deskpilot/lib/config"
	"github.com/deskpilot/deskpilot/lib/policy"
	"github.com/deskpilot/deskpilot/lib/version"
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	var (
		configPath  string
		envFiles    []string
		jsonOutput  bool
		listNames   bool
		showVersion bool
	)

	flagSet := pflag.NewFlagSet("deskpilot-checkconfig", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "path to deskpilot.yaml (default: $DESKPILOT_CONFIG)")
	flagSet.StringArrayVar(&envFiles, "env-file", nil, "env-file to overlay before validation (repeatable, later files win)")
	flagSet.BoolVar(&jsonOutput, "json", false, "emit the verdict as JSON")
	flagSet.BoolVar(&listNames, "list-profiles", false, "list known use-case profiles and exit")
	flagSet.BoolVar(&showVersion, "version", false, "print version information and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return 0, nil
		}
		return 1, err
	}

	if showVersion {
		fmt.Printf("deskpilot-checkconfig %s\n", version.Info())
		return 0, nil
	}
	if listNames {
		for _, name := range policy.UseCaseProfileNames() {
			fmt.Println(name)
		}
		return 0, nil
	}

	for _, path := range envFiles {
		if err := applyEnvFile(path); err != nil {
			return 1, err
		}
	}

	if configPath == "" {
		configPath = os.Getenv("DESKPILOT_CONFIG")
	}
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return 1, err
	}

	violations := cfg.Validate()
	if jsonOutput {
		verdict := struct {
			Valid      bool     `json:"valid"`
			Violations []string `json:"violations,omitempty"`
		}{Valid: len(violations) == 0, Violations: violations}
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(verdict); err != nil {
			return 1, err
		}
	} else if len(violations) == 0 {
		fmt.Println("configuration OK")
	} else {
		fmt.Printf("configuration rejected (%d violation(s)):\n", len(violations))
		for _, violation := range violations {
			fmt.Printf("  - %s\n", violation)
		}
	}

	if len(violations) > 0 {
		return 2, nil
	}
	return 0, nil
}

// applyEnvFile loads KEY=VALUE lines into the process environment.
// Blank lines and #-comments are skipped; quotes around values are
// stripped.
func applyEnvFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening env-file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("%s:%d: expected KEY=VALUE", path, lineNumber)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, `"'`)
		if key == "" {
			return fmt.Errorf("%s:%d: empty key", path, lineNumber)
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading env-file %s: %w", path, err)
	}
	return nil
}
