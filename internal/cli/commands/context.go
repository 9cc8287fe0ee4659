package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sceneqa/internal/cli/config"
	"github.com/leapstack-labs/sceneqa/internal/cli/output"
	"github.com/leapstack-labs/sceneqa/internal/state"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks" // register built-in rules
	"github.com/leapstack-labs/sceneqa/pkg/qa/script"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
// format overrides the configured output mode when set.
func NewCommandContext(cmd *cobra.Command, format string) *CommandContext {
	cfg := *getConfig()
	mode := output.Mode(cfg.OutputFormat)
	if format != "" {
		mode = output.Mode(format)
	}
	return &CommandContext{
		Cfg:      &cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// getConfig returns the current configuration, or the defaults when the
// command runs without the root command's config loading.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// Registry returns the built-in rules extended with the scripted rules found
// in the configured rules directory.
func (c *CommandContext) Registry() (*qa.Registry, error) {
	rules, err := script.NewLoader(c.Cfg.RulesDir, c.Logger).Load()
	if err != nil {
		return nil, err
	}
	return qa.Default().Extend(rules...)
}

// Options assembles orchestrator options from the configuration.
func (c *CommandContext) Options() (qa.Options, error) {
	reg, err := c.Registry()
	if err != nil {
		return qa.Options{}, err
	}
	qc, err := c.Cfg.QAConfig()
	if err != nil {
		return qa.Options{}, err
	}
	return qa.Options{
		Registry:      reg,
		Catalog:       c.Cfg.Catalog(),
		Config:        qc,
		Logger:        c.Logger,
		SelectionOnly: c.Cfg.SelectionOnly,
	}, nil
}

// OpenStore opens and migrates the run history store.
func (c *CommandContext) OpenStore(ctx context.Context) (*state.Store, error) {
	dsn := c.Cfg.StateDSN
	if c.Cfg.StateDriver == state.DriverSQLite {
		dsn = c.Cfg.StatePath
		if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create state directory: %w", err)
			}
		}
	}
	store, err := state.Open(ctx, c.Cfg.StateDriver, dsn, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// scenePath picks the scene from the arguments or the configuration.
func scenePath(cfg *config.Config, args []string) (string, error) {
	path := cfg.Scene
	if len(args) > 0 {
		path = args[0]
	}
	if err := config.ValidateScene(path); err != nil {
		return "", err
	}
	return path, nil
}
