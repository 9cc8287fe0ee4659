// Package config provides configuration management for the sceneqa CLI.
//
// Settings are layered with koanf: built-in defaults, a .env file, the
// sceneqa.yaml project file, SCENEQA_ environment variables and finally the
// flags the user changed on the command line.
package config

import (
	"fmt"
	"maps"
	"slices"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Port  int  `koanf:"port"`
	Watch bool `koanf:"watch"`
}

// Config holds all CLI configuration options.
type Config struct {
	Scene         string `koanf:"scene"`
	Collection    string `koanf:"collection"`
	SelectionOnly bool   `koanf:"selection_only"`

	StatePath   string `koanf:"state_path"`
	StateDriver string `koanf:"state_driver"`
	StateDSN    string `koanf:"state_dsn"`

	RulesDir string `koanf:"rules_dir"`

	OutputFormat string `koanf:"output"`
	Verbose      bool   `koanf:"verbose"`
	LogLevel     string `koanf:"log_level"`
	LogFormat    string `koanf:"log_format"`

	DisabledRules []string                  `koanf:"disabled_rules"`
	Urgency       map[string]string         `koanf:"urgency"`
	RuleOptions   map[string]map[string]any `koanf:"rule_options"`
	Collections   map[string][]string       `koanf:"collections"`

	Server ServerConfig `koanf:"server"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// Default configuration values.
const (
	DefaultStateFile   = ".sceneqa/history.db"
	DefaultStateDriver = "sqlite"
	DefaultRulesDir    = "rules"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultLogLevel    = "warn"
	DefaultLogFormat   = "text"
	DefaultServerPort  = 8766
)

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	return &Config{
		StatePath:    DefaultStateFile,
		StateDriver:  DefaultStateDriver,
		RulesDir:     DefaultRulesDir,
		OutputFormat: DefaultOutput,
		LogLevel:     DefaultLogLevel,
		LogFormat:    DefaultLogFormat,
		Server:       ServerConfig{Port: DefaultServerPort},
	}
}

// QAConfig converts the rule settings into the orchestrator's config.
func (c *Config) QAConfig() (*qa.Config, error) {
	out := qa.NewConfig()
	for _, id := range c.DisabledRules {
		out.Disable(id)
	}
	for id, level := range c.Urgency {
		u, ok := qa.ParseUrgency(level)
		if !ok {
			return nil, fmt.Errorf("urgency.%s: invalid urgency %q (want none, warning or error)", id, level)
		}
		out.SetUrgency(id, u)
	}
	for id, opts := range c.RuleOptions {
		out.SetOptions(id, opts)
	}
	return out, nil
}

// Catalog returns the built-in catalog with configured collections merged in.
// Configured collections are applied in name order.
func (c *Config) Catalog() *qa.Catalog {
	cat := qa.DefaultCatalog()
	if len(c.Collections) == 0 {
		return cat
	}
	extra := make([]qa.Collection, 0, len(c.Collections))
	for _, name := range slices.Sorted(maps.Keys(c.Collections)) {
		extra = append(extra, qa.Collection{Name: name, Categories: c.Collections[name]})
	}
	return cat.With(extra...)
}
