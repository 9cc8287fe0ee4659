package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/sceneqa/internal/cli/config"
)

// generateSchemaDocs generates the sceneqa.yaml reference.
func generateSchemaDocs(outDir string) error {
	log.Printf("Generating schema docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if err := generateConfigurationDoc(outDir); err != nil {
		return fmt.Errorf("failed to generate configuration.md: %w", err)
	}
	log.Printf("  Generated configuration.md")

	return nil
}

// ConfigField represents a configuration field definition.
type ConfigField struct {
	Name        string
	Type        string
	Default     string
	Description string
	Category    string // "project", "rules", "history", "output", "server"
}

// getConfigSchema returns the configuration schema definition, mirroring
// config.Config.
func getConfigSchema() []ConfigField {
	return []ConfigField{
		{Name: "scene", Type: "string", Description: "Scene snapshot checked when no scene argument is given", Category: "project"},
		{Name: "collection", Type: "string", Description: "Collection loaded by check and serve", Category: "project"},
		{Name: "selection_only", Type: "bool", Default: "false", Description: "Restrict selectable rules to the active selection", Category: "project"},

		{Name: "rules_dir", Type: "string", Default: config.DefaultRulesDir, Description: "Directory of scripted .star rules", Category: "rules"},
		{Name: "disabled_rules", Type: "[]string", Description: "Rule IDs that never run", Category: "rules"},
		{Name: "urgency", Type: "map[string]string", Description: "Per-rule urgency override (error, warning, none)", Category: "rules"},
		{Name: "rule_options", Type: "map[string]map[string]any", Description: "Per-rule options read by the detectors", Category: "rules"},
		{Name: "collections", Type: "map[string][]string", Description: "Extra collections; a name that exists replaces the built-in one", Category: "rules"},

		{Name: "state_path", Type: "string", Default: config.DefaultStateFile, Description: "SQLite run history file", Category: "history"},
		{Name: "state_driver", Type: "string", Default: config.DefaultStateDriver, Description: "History store driver: sqlite or postgres", Category: "history"},
		{Name: "state_dsn", Type: "string", Description: "Postgres connection string, environment variables expanded", Category: "history"},

		{Name: "output", Type: "string", Default: config.DefaultOutput, Description: "Output format: auto, text, markdown, json", Category: "output"},
		{Name: "verbose", Type: "bool", Default: "false", Description: "Debug logging and config file report", Category: "output"},
		{Name: "log_level", Type: "string", Default: config.DefaultLogLevel, Description: "Log level: debug, info, warn, error", Category: "output"},
		{Name: "log_format", Type: "string", Default: config.DefaultLogFormat, Description: "Log format: text or json", Category: "output"},

		{Name: "server.port", Type: "int", Default: strconv.Itoa(config.DefaultServerPort), Description: "Port of the HTTP API", Category: "server"},
		{Name: "server.watch", Type: "bool", Default: "false", Description: "Reload the scene and scripted rules on change", Category: "server"},
	}
}

var configSections = []struct {
	category string
	title    string
	intro    string
}{
	{"project", "Project", "What a check runs against."},
	{"rules", "Rules", "Which rules run and how they are tuned."},
	{"history", "Run History", "Where check runs, findings and fixes are recorded."},
	{"output", "Output and Logging", ""},
	{"server", "Server", "Settings of `sceneqa serve`, nested under `server`."},
}

// generateConfigurationDoc generates the configuration reference page.
func generateConfigurationDoc(outDir string) error {
	w := NewMarkdownWriter()

	w.Frontmatter("Configuration", "sceneqa configuration reference")
	w.GeneratedMarker()

	w.Header(1, "Configuration")
	w.Paragraph("sceneqa reads `sceneqa.yaml` from the working directory or the closest parent directory. " +
		"Relative paths in the file resolve against the directory holding it.")

	fields := getConfigSchema()
	for _, sec := range configSections {
		w.Header(2, sec.title)
		if sec.intro != "" {
			w.Paragraph(sec.intro)
		}
		var rows [][]string
		for _, f := range fields {
			if f.Category != sec.category {
				continue
			}
			defVal := "-"
			if f.Default != "" {
				defVal = InlineCode(f.Default)
			}
			rows = append(rows, []string{InlineCode(f.Name), f.Type, defVal, f.Description})
		}
		w.Table([]string{"Field", "Type", "Default", "Description"}, rows)
	}

	w.Header(2, "Full Configuration Example")
	w.CodeBlock("yaml", `# sceneqa.yaml
scene: shots/sh010.yaml
collection: animation

rules_dir: rules
disabled_rules: [SC07]
urgency:
  AN03: error
rule_options:
  SC02:
    node_types: [transform, joint, locator]
  AN05:
    size: 0.01

collections:
  layout: [Animation, Scene]

state_driver: postgres
state_dsn: postgres://qa:${QA_DB_PASSWORD}@db/qa

server:
  port: 8766
  watch: true`)

	filename := filepath.Join(outDir, "configuration.md")
	return os.WriteFile(filename, w.Bytes(), 0600)
}
