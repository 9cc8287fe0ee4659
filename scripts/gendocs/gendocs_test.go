package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sceneqa/internal/cli"
)

func readDoc(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test output
	require.NoError(t, err)
	return string(data)
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	index := readDoc(t, filepath.Join(dir, "index.md"))
	assert.Contains(t, index, generatedHeader)
	assert.Contains(t, index, "## Checking\n\n| Command | Description |\n| --- | --- |\n| [`check`](/cli/check) |")
	assert.Contains(t, index, "## Runs and services")
	assert.Contains(t, index, "## Other")
	assert.Contains(t, index, "| `SCENEQA_SERVER_PORT` | `server.port` |")
	assert.NotContains(t, index, "SCENEQA_URGENCY")
	assert.Contains(t, index, "| `--output`, `-o` |  | `output` |")
	assert.Contains(t, index, "| `1` | `qa rules could not run` |")

	check := readDoc(t, filepath.Join(dir, "check.md"))
	assert.Contains(t, check, "sceneqa check [scene]")
	assert.Contains(t, check, "| `--collection` |  | `collection` |")
	assert.Contains(t, check, "| `--fix` | false |  |")
	assert.Contains(t, check, "## Global Options")
	assert.Contains(t, check, "| `1` | `qa issues found` |")
	assert.Contains(t, check, "sceneqa check shot010.yaml --collection animation")

	serve := readDoc(t, filepath.Join(dir, "serve.md"))
	assert.NotContains(t, serve, "## Exit Status")
}

func TestGroupCommands(t *testing.T) {
	groups := groupCommands(cli.NewRootCmd())
	require.Len(t, groups, 3)

	var titles []string
	for _, g := range groups {
		titles = append(titles, g.title)
	}
	assert.Equal(t, []string{"Checking", "Runs and services", "Other"}, titles)
	assert.Equal(t, "check", groups[0].cmds[0].Name())
}

func TestDedent(t *testing.T) {
	assert.Equal(t, "# a\nsceneqa check\n\n  nested", dedent("  # a\n  sceneqa check\n\n    nested\n"))
}

func TestGenerateRuleDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateRuleDocs(dir))

	index := readDoc(t, filepath.Join(dir, "index.md"))
	assert.Contains(t, index, "**48 rules**")
	assert.Contains(t, index, "[Render Stats](/rules/render-stats)")
	assert.Contains(t, index, "| `look-dev` |")

	anim := readDoc(t, filepath.Join(dir, "animation.md"))
	assert.Contains(t, anim, "## AN03 - Sub-Frame Animation {#AN03}")
	assert.Contains(t, anim, "`tolerance`")
	assert.FileExists(t, filepath.Join(dir, "render-stats.md"))
}

func TestGenerateSchemaDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateSchemaDocs(dir))

	doc := readDoc(t, filepath.Join(dir, "configuration.md"))
	assert.Contains(t, doc, "## Run History")
	assert.Contains(t, doc, "| `state_path` | string | `.sceneqa/history.db` |")
	assert.Contains(t, doc, "| `server.port` | int | `8766` |")
}

func TestMarkdownWriter_Table(t *testing.T) {
	w := NewMarkdownWriter()
	w.Table([]string{"A", "B"}, [][]string{{"x|y", "z"}})
	assert.Equal(t, "| A | B |\n| --- | --- |\n| x\\|y | z |\n\n", string(w.Bytes()))

	w = NewMarkdownWriter()
	w.Table([]string{"A"}, nil)
	assert.Empty(t, w.Bytes())
}

func TestCategorySlug(t *testing.T) {
	assert.Equal(t, "render-stats", categorySlug("Render Stats"))
	assert.Equal(t, "uv", categorySlug("UV"))
}
