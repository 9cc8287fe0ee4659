// Package main provides tests for the sceneqa CLI.
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/sceneqa/internal/cli"
	"github.com/leapstack-labs/sceneqa/internal/cli/commands"
	"github.com/leapstack-labs/sceneqa/internal/cli/config"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := execute(t, "version")
	if err != nil {
		t.Errorf("version command error = %v", err)
	}
	if !strings.Contains(output, "sceneqa") {
		t.Errorf("version output should contain 'sceneqa', got: %s", output)
	}
}

func TestHelpCommand(t *testing.T) {
	output, err := execute(t, "--help")
	if err != nil {
		t.Errorf("help command error = %v", err)
	}

	expectedCommands := []string{"check", "rules", "collections", "history", "serve"}
	for _, expected := range expectedCommands {
		if !strings.Contains(output, expected) {
			t.Errorf("help output should contain '%s', got: %s", expected, output)
		}
	}
}

func TestCheckCommand(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	scene := `
nodes:
  - {name: "|pCube1", type: transform}
  - {name: "|pCube1|pCubeShape1", type: mesh}
  - {name: "|grp", type: transform}
`
	if err := os.WriteFile(filepath.Join(tmpDir, "scene.yaml"), []byte(scene), 0o600); err != nil {
		t.Fatal(err)
	}

	// |grp is an empty transform, an error-level finding
	output, err := execute(t, "check", "scene.yaml", "--collection", "modelling", "--no-history", "-o", "json")
	if !errors.Is(err, commands.ErrIssuesFound) {
		t.Fatalf("check command error = %v, want ErrIssuesFound\n%s", err, output)
	}

	var report struct {
		Collection string `json:"collection"`
		Results    []struct {
			RuleID string   `json:"rule_id"`
			Items  []string `json:"items"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, output)
	}
	if report.Collection != "modelling" {
		t.Errorf("collection = %q, want modelling", report.Collection)
	}
	var found bool
	for _, r := range report.Results {
		if r.RuleID == "SC08" {
			found = len(r.Items) == 1 && r.Items[0] == "|grp"
		}
	}
	if !found {
		t.Errorf("SC08 should flag |grp, got: %+v", report.Results)
	}
}

func TestUnknownCommand(t *testing.T) {
	if _, err := execute(t, "lint"); err == nil {
		t.Error("expected an error for an unknown command")
	}
}
