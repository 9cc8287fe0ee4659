package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sceneqa/internal/server"
	"github.com/leapstack-labs/sceneqa/internal/state"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	Watch     bool
	NoHistory bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "Serve a scene over the JSON API",
		Long: `Start an HTTP server exposing the orchestrator of one scene.

Endpoints:
  GET  /api/collections             list collections
  POST /api/collections/{name}/load load a collection
  POST /api/run                     run every loaded rule
  GET  /api/results                 latest results
  POST /api/rules/{id}/fix          fix one item ({"item": "..."})
  POST /api/rules/{id}/fix-all      fix every item of a rule
  POST /api/reset                   clear results
  POST /api/undo                    undo the last fix
  POST /api/save                    write fixes back to the scene file
  GET  /metrics                     Prometheus metrics

Requests are handled one at a time. With --watch a change to the scene file
reloads it and discards fixes that were not saved.`,
		Example: `  # Serve on the default port
  sceneqa serve shot010.yaml

  # Reload the scene and scripted rules when they change
  sceneqa serve shot010.yaml --watch --port 9000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, args, opts)
		},
	}
	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8766)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Reload when the scene or scripted rules change")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record runs in the history store")
	return cmd
}

func runServe(cmd *cobra.Command, args []string, opts *ServeOptions) error {
	cmdCtx := NewCommandContext(cmd, "")
	cfg := cmdCtx.Cfg

	path, err := scenePath(cfg, args)
	if err != nil {
		return err
	}

	port := cfg.Server.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	watch := cfg.Server.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	qopts, err := cmdCtx.Options()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *state.Store
	if !opts.NoHistory {
		store, err = cmdCtx.OpenStore(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	srv, err := server.New(server.Config{
		ScenePath:  path,
		Collection: cfg.Collection,
		Options:    qopts,
		Store:      store,
		Port:       port,
		Watch:      watch,
		WatchPaths: []string{cfg.RulesDir},
		Logger:     cmdCtx.Logger,
		LoadRules: func() (*qa.Registry, error) {
			return cmdCtx.Registry()
		},
	})
	if err != nil {
		return err
	}
	return srv.Serve(ctx)
}
