package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sceneqa/internal/cli/output"
	"github.com/leapstack-labs/sceneqa/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Format string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded check runs",
		Long: `List recent check runs from the history store, or show the findings and
fix attempts of a single run.`,
		Example: `  # Recent runs
  sceneqa history

  # One run in detail
  sceneqa history 6f1c2a9e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRun(cmd, args[0], opts)
			}
			return listRuns(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")
	return cmd
}

func listRuns(cmd *cobra.Command, opts *HistoryOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer

	store, err := cmdCtx.OpenStore(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(cmd.Context(), opts.Limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"runs": runs})
	}
	if len(runs) == 0 {
		r.Println("No runs recorded yet.")
		return nil
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.Scene,
			run.Collection,
			string(run.Status),
			strconv.Itoa(run.Errors),
			strconv.Itoa(run.Warnings),
		})
	}
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println("# Runs")
		r.Println("")
	}
	r.Table([]string{"Run", "Started", "Scene", "Collection", "Status", "Errors", "Warnings"}, rows)
	return nil
}

// RunDetail is the JSON output of a single run.
type RunDetail struct {
	*state.Run
	Findings []state.Finding `json:"findings"`
	Fixes    []state.Fix     `json:"fixes"`
}

func showRun(cmd *cobra.Command, id string, opts *HistoryOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	store, err := cmdCtx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.GetRun(ctx, id)
	if errors.Is(err, state.ErrRunNotFound) {
		return fmt.Errorf("run %q not found", id)
	}
	if err != nil {
		return err
	}
	findings, err := store.Findings(ctx, id)
	if err != nil {
		return err
	}
	fixes, err := store.Fixes(ctx, id)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(RunDetail{Run: run, Findings: findings, Fixes: fixes})
	}

	header := fmt.Sprintf("Run %s", run.ID)
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println("# " + header)
	} else {
		r.Println(r.Styles().Header1.Render(header))
	}
	r.Println("")
	r.Printf("Scene: %s\nCollection: %s\nStatus: %s\nStarted: %s\n\n",
		run.Scene, run.Collection, run.Status, run.StartedAt.Local().Format(time.DateTime))

	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		msg := f.Message
		if f.Reason != "" {
			msg = f.Reason
		}
		rows = append(rows, []string{f.RuleID, f.Urgency, f.Status, strconv.Itoa(f.Items), msg})
	}
	r.Table([]string{"Rule", "Urgency", "Status", "Items", "Message"}, rows)

	if len(fixes) > 0 {
		r.Println("")
		fixRows := make([][]string, 0, len(fixes))
		for _, f := range fixes {
			result := "failed"
			switch {
			case f.Skipped:
				result = "skipped"
			case f.Success:
				result = "fixed"
			}
			fixRows = append(fixRows, []string{f.RuleID, f.Item, result, f.Reason})
		}
		r.Table([]string{"Rule", "Item", "Result", "Reason"}, fixRows)
	}
	return nil
}
