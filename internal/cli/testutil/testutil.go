// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/leapstack-labs/sceneqa/internal/cli/output"
)

// SetupTestProject creates a temporary project holding scene.yaml and, when
// cfgDoc is not empty, a sceneqa.yaml. It changes into the project directory
// for the rest of the test and returns the scene path.
func SetupTestProject(t *testing.T, sceneDoc, cfgDoc string) string {
	t.Helper()

	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	path := filepath.Join(tmpDir, "scene.yaml")
	if err := os.WriteFile(path, []byte(sceneDoc), 0o600); err != nil {
		t.Fatalf("failed to create scene.yaml: %v", err)
	}
	if cfgDoc != "" {
		if err := os.WriteFile(filepath.Join(tmpDir, "sceneqa.yaml"), []byte(cfgDoc), 0o600); err != nil {
			t.Fatalf("failed to create sceneqa.yaml: %v", err)
		}
	}
	return path
}

// WriteRule writes a scripted rule file into dir, creating it when needed.
func WriteRule(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o750); err != nil {
		t.Fatalf("failed to create %s: %v", dir, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("failed to create %s: %v", name, err)
	}
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}
