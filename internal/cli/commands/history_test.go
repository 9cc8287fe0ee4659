package commands

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryCommand_Empty(t *testing.T) {
	setupProject(t, cleanScene, "")

	out, err := execute(t, NewHistoryCommand(), "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded yet.")
}

func TestHistoryCommand_ListAndShow(t *testing.T) {
	path := setupProject(t, staticScene, "")

	out, err := execute(t, NewCheckCommand(), path, "--category", "Animation", "--format", "json")
	require.ErrorIs(t, err, ErrIssuesFound)
	runID := checkJSON(t, out).RunID
	require.NotEmpty(t, runID)

	out, err = execute(t, NewHistoryCommand(), "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "# Runs")
	assert.Contains(t, out, runID)
	assert.Contains(t, out, "issues")

	out, err = execute(t, NewHistoryCommand(), runID, "--format", "json")
	require.NoError(t, err)
	var detail struct {
		ID       string `json:"id"`
		Errors   int    `json:"errors"`
		Warnings int    `json:"warnings"`
		Findings []struct {
			RuleID string `json:"rule_id"`
		} `json:"findings"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &detail))
	assert.Equal(t, runID, detail.ID)
	assert.Equal(t, 1, detail.Errors)
	assert.Equal(t, 2, detail.Warnings)
	assert.NotEmpty(t, detail.Findings)

	out, err = execute(t, NewHistoryCommand(), runID, "--format", "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Scene: "+path)
}

func TestHistoryCommand_UnknownRun(t *testing.T) {
	setupProject(t, cleanScene, "")

	_, err := execute(t, NewHistoryCommand(), "does-not-exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `run "does-not-exist" not found`)
}
