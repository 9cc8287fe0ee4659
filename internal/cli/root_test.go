package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/cli/commands"
	"github.com/leapstack-labs/sceneqa/internal/cli/config"
)

const scene = `
nodes:
  - {name: "|box", type: transform}
  - name: curve1
    type: animCurveTL
    keys: [{time: 1, value: 0}, {time: 10, value: 5}]
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"check", "rules", "collections", "history", "serve", "version", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestRootCmd_Groups(t *testing.T) {
	cmd := NewRootCmd()
	groups := map[string]string{}
	for _, c := range cmd.Commands() {
		groups[c.Name()] = c.GroupID
	}
	assert.Equal(t, GroupChecks, groups["check"])
	assert.Equal(t, GroupChecks, groups["rules"])
	assert.Equal(t, GroupRuns, groups["serve"])
	assert.Empty(t, groups["version"])

	out, err := run(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "Checking:")
	assert.Contains(t, out, "Runs and services:")
}

func TestRootCmd_Version(t *testing.T) {
	out, err := run(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "sceneqa "+Version)
}

func TestRootCmd_Completion(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "sceneqa")

	_, err = run(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestRootCmd_Check(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.yaml"), []byte(scene), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sceneqa.yaml"), []byte("scene: scene.yaml\n"), 0o600))

	out, err := run(t, "check", "--category", "Animation", "-o", "markdown", "--state", "history.db")
	require.NoError(t, err)
	assert.Contains(t, out, "- **AN01** (`warning`): curve1")
	assert.FileExists(t, filepath.Join(dir, "history.db"))

	out, err = run(t, "history", "-o", "json", "--state", "history.db")
	require.NoError(t, err)
	assert.Contains(t, out, `"runs"`)
}

func TestRootCmd_Verbose(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sceneqa.yaml"), []byte("log_level: info\n"), 0o600))

	out, err := run(t, "collections", "-v", "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "Using config file: ")
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sceneqa.yaml"), []byte("output: html\n"), 0o600))

	_, err := run(t, "rules")
	require.Error(t, err)
}

func TestRootCmd_IssuesFound(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scene.yaml"), []byte(scene), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sceneqa.yaml"), []byte("urgency:\n  AN01: error\n"), 0o600))

	_, err := run(t, "check", "scene.yaml", "--category", "Animation", "--no-history", "-o", "json")
	require.ErrorIs(t, err, commands.ErrIssuesFound)
}
