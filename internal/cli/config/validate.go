package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/sceneqa/internal/cli/output"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !output.Mode(c.OutputFormat).Valid() {
		return fmt.Errorf("invalid output format %q (want auto, text, markdown or json)", c.OutputFormat)
	}
	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q (want debug, info, warn or error)", c.LogLevel)
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log_format %q (want text or json)", c.LogFormat)
	}
	switch c.StateDriver {
	case "sqlite":
	case "postgres":
		if c.StateDSN == "" {
			return fmt.Errorf("state_dsn is required when state_driver is postgres")
		}
	default:
		return fmt.Errorf("invalid state_driver %q (want sqlite or postgres)", c.StateDriver)
	}
	for id, level := range c.Urgency {
		if _, ok := qa.ParseUrgency(level); !ok {
			return fmt.Errorf("urgency.%s: invalid urgency %q (want none, warning or error)", id, level)
		}
	}
	for name, cats := range c.Collections {
		if len(cats) == 0 {
			return fmt.Errorf("collections.%s: at least one category is required", name)
		}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	return nil
}

// ValidateScene checks that a scene path was given and exists.
func ValidateScene(path string) error {
	if path == "" {
		return fmt.Errorf("no scene given\nHint: pass a scene snapshot or set scene in sceneqa.yaml")
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("scene does not exist: %s", path)
	}
	return nil
}
