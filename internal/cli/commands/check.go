package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sceneqa/internal/cli/output"
	"github.com/leapstack-labs/sceneqa/internal/state"
	"github.com/leapstack-labs/sceneqa/internal/watch"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// ErrIssuesFound is returned by check when error-level findings remain.
var ErrIssuesFound = errors.New("qa issues found")

// ErrRulesUnavailable is returned by check when no error-level findings remain
// but at least one rule could not read the scene.
var ErrRulesUnavailable = errors.New("qa rules could not run")

// maxListedItems caps the items printed per rule in text and markdown output.
const maxListedItems = 10

// CheckOptions holds options for the check command.
type CheckOptions struct {
	Collection    string
	Categories    []string
	SelectionOnly bool
	Fix           bool
	Write         bool
	Watch         bool
	NoHistory     bool
	Format        string
}

// CheckReport is the outcome of one check run.
type CheckReport struct {
	Scene      string          `json:"scene"`
	Collection string          `json:"collection,omitempty"`
	Categories []string        `json:"categories"`
	RunID      string          `json:"run_id,omitempty"`
	Results    []*qa.Result    `json:"results"`
	Fixes      []qa.FixSummary `json:"fixes,omitempty"`
	Errors      int             `json:"errors"`
	Warnings    int             `json:"warnings"`
	Unavailable int             `json:"unavailable"`
}

// Err maps the report to the command's exit error.
func (r *CheckReport) Err() error {
	switch {
	case r.Errors > 0:
		return ErrIssuesFound
	case r.Unavailable > 0:
		return ErrRulesUnavailable
	}
	return nil
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	opts := &CheckOptions{}
	cmd := &cobra.Command{
		Use:   "check [scene]",
		Short: "Run QA rules against a scene snapshot",
		Long: `Load a collection (or explicit categories), run every enabled rule against
the scene and report the findings.

With --fix every fixable finding is resolved and the rules are run again.
--write saves the fixed scene back to the snapshot file.

The command fails when error-level findings remain or when a rule could not
run against the scene, which makes it usable as a publish gate in scripts
and CI.`,
		Example: `  # Run the animation collection
  sceneqa check shot010.yaml --collection animation

  # Run two categories only
  sceneqa check shot010.yaml --category Skinning,Rigging

  # Fix what can be fixed and save the scene
  sceneqa check shot010.yaml --collection rigging --fix --write

  # Re-run whenever the snapshot changes
  sceneqa check shot010.yaml --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Collection, "collection", "", "Collection to load")
	cmd.Flags().StringSliceVar(&opts.Categories, "category", nil, "Categories to load instead of a collection")
	cmd.Flags().BoolVar(&opts.SelectionOnly, "selection-only", false, "Only check the active selection")
	cmd.Flags().BoolVar(&opts.Fix, "fix", false, "Fix every fixable finding")
	cmd.Flags().BoolVar(&opts.Write, "write", false, "Save the fixed scene (requires --fix)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Re-run when the scene or scripted rules change")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Do not record the run in the history store")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")
	cmd.MarkFlagsMutuallyExclusive("collection", "category")
	cmd.MarkFlagsMutuallyExclusive("watch", "write")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string, opts *CheckOptions) error {
	if opts.Write && !opts.Fix {
		return fmt.Errorf("--write requires --fix")
	}
	cmdCtx := NewCommandContext(cmd, opts.Format)

	// Flags win over the configuration even when the root command did not
	// load them.
	if cmd.Flags().Changed("collection") {
		cmdCtx.Cfg.Collection = opts.Collection
	}
	if cmd.Flags().Changed("selection-only") {
		cmdCtx.Cfg.SelectionOnly = opts.SelectionOnly
	}

	path, err := scenePath(cmdCtx.Cfg, args)
	if err != nil {
		return err
	}

	if !opts.Watch {
		report, err := checkScene(cmd.Context(), cmdCtx, path, opts)
		if err != nil {
			return err
		}
		if err := renderReport(cmdCtx.Renderer, report); err != nil {
			return err
		}
		return report.Err()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchScene(ctx, cmdCtx, path, opts)
}

func watchScene(ctx context.Context, cmdCtx *CommandContext, path string, opts *CheckOptions) error {
	r := cmdCtx.Renderer
	run := func() {
		report, err := checkScene(ctx, cmdCtx, path, opts)
		if err != nil {
			r.Warning(err.Error())
			return
		}
		if err := renderReport(r, report); err != nil {
			r.Warning(err.Error())
		}
	}

	w, err := watch.New([]string{path, cmdCtx.Cfg.RulesDir}, watch.DefaultDebounce, cmdCtx.Logger)
	if err != nil {
		return err
	}
	run()
	r.Println(r.Styles().Muted.Render("Watching for changes. Press Ctrl+C to stop."))
	return w.Run(ctx, func(_ context.Context, changed []string) {
		r.Println("")
		r.Println(r.Styles().Muted.Render(fmt.Sprintf("[%s] change detected: %s", time.Now().Format("15:04:05"), strings.Join(changed, ", "))))
		run()
	})
}

// checkScene loads the scene, runs the selected rules, optionally fixes and
// saves, and records the run.
func checkScene(ctx context.Context, cmdCtx *CommandContext, path string, opts *CheckOptions) (*CheckReport, error) {
	g, err := scene.LoadFile(path)
	if err != nil {
		return nil, err
	}
	qopts, err := cmdCtx.Options()
	if err != nil {
		return nil, err
	}
	orch := qa.NewOrchestrator(g, &qopts)

	switch {
	case len(opts.Categories) > 0:
		err = orch.LoadCategories(opts.Categories...)
	case cmdCtx.Cfg.Collection != "":
		err = orch.LoadCollection(cmdCtx.Cfg.Collection)
	default:
		err = orch.LoadCategories(qopts.Registry.AllCategories()...)
	}
	if err != nil {
		return nil, err
	}

	if _, err := orch.RunAll(); err != nil {
		return nil, err
	}

	var fixes []qa.FixSummary
	if opts.Fix {
		for _, res := range orch.Results() {
			if !res.Fixable || res.State() == qa.UrgencyNone {
				continue
			}
			summary, err := orch.FixAll(res.RuleID)
			if err != nil {
				return nil, err
			}
			fixes = append(fixes, summary)
		}
		if len(fixes) > 0 {
			if _, err := orch.RunAll(); err != nil {
				return nil, err
			}
		}
	}

	if opts.Write && len(fixes) > 0 {
		if err := g.SaveFile(path); err != nil {
			return nil, err
		}
		cmdCtx.Logger.Info("scene saved", "path", path)
	}

	report := &CheckReport{
		Scene:      path,
		Collection: orch.Collection(),
		Categories: orch.Categories(),
		Results:    orch.Results(),
		Fixes:      fixes,
	}
	for _, res := range report.Results {
		if res.Status == qa.StatusUnavailable {
			report.Unavailable++
			continue
		}
		switch res.State() {
		case qa.UrgencyError:
			report.Errors++
		case qa.UrgencyWarning:
			report.Warnings++
		}
	}

	if !opts.NoHistory {
		if err := recordCheck(ctx, cmdCtx, report); err != nil {
			cmdCtx.Logger.Warn("failed to record run", "error", err)
			cmdCtx.Renderer.Warning("run not recorded: " + err.Error())
		}
	}
	return report, nil
}

func recordCheck(ctx context.Context, cmdCtx *CommandContext, report *CheckReport) error {
	store, err := cmdCtx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	run, err := store.CreateRun(ctx, report.Scene, report.Collection)
	if err != nil {
		return err
	}
	report.RunID = run.ID
	if err := store.SaveResults(ctx, run.ID, report.Results); err != nil {
		return err
	}
	for _, summary := range report.Fixes {
		for _, outcome := range summary.Outcomes {
			if err := store.RecordFix(ctx, run.ID, outcome); err != nil {
				return err
			}
		}
	}
	status, msg := state.RunStatusPassed, ""
	switch {
	case report.Errors+report.Warnings > 0:
		status = state.RunStatusIssues
	case report.Unavailable > 0:
		status = state.RunStatusFailed
	}
	if report.Unavailable > 0 {
		msg = fmt.Sprintf("%d rule(s) unavailable", report.Unavailable)
	}
	return store.CompleteRun(ctx, run.ID, status, msg)
}

func renderReport(r *output.Renderer, report *CheckReport) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(report)
	case output.ModeMarkdown:
		renderReportMarkdown(r, report)
	default:
		renderReportText(r, report)
	}
	return nil
}

func reportTitle(report *CheckReport) string {
	if report.Collection != "" {
		return fmt.Sprintf("%s (%s)", report.Scene, report.Collection)
	}
	return report.Scene
}

func resultRows(report *CheckReport) [][]string {
	rows := make([][]string, 0, len(report.Results))
	for _, res := range report.Results {
		rows = append(rows, []string{res.RuleID, res.Name, statusLabel(res), strconv.Itoa(len(res.Items)), resultMessage(res)})
	}
	return rows
}

func statusLabel(res *qa.Result) string {
	if res.Status == qa.StatusUnavailable {
		return "unavailable"
	}
	if res.State() == qa.UrgencyNone {
		return "ok"
	}
	return res.State().String()
}

func resultMessage(res *qa.Result) string {
	switch {
	case res.Status == qa.StatusUnavailable:
		return res.Reason
	case len(res.Items) == 0:
		return ""
	default:
		return res.Message
	}
}

func listedItems(items []qa.Item) string {
	if len(items) <= maxListedItems {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:maxListedItems], ", ") + fmt.Sprintf(", ... (%d more)", len(items)-maxListedItems)
}

func renderReportText(r *output.Renderer, report *CheckReport) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Scene QA: " + reportTitle(report)))
	r.Println("")
	r.Table([]string{"Rule", "Name", "Status", "Items", "Message"}, resultRows(report))

	for _, res := range report.Results {
		if len(res.Items) == 0 || res.Status != qa.StatusAvailable {
			continue
		}
		r.Printf("  %s %s\n", urgencyStyle(styles, res.State()).Render(res.RuleID), styles.Muted.Render(listedItems(res.Items)))
	}
	renderFixesText(r, report.Fixes)

	r.Println("")
	summary := reportSummary(report)
	switch {
	case report.Errors > 0 || report.Unavailable > 0:
		r.Println(styles.Error.Render(summary))
	case report.Warnings > 0:
		r.Println(styles.Warning.Render(summary))
	default:
		r.Success("all checks passed")
	}
	if report.RunID != "" {
		r.Println(styles.Muted.Render("run " + report.RunID))
	}
}

func renderFixesText(r *output.Renderer, fixes []qa.FixSummary) {
	if len(fixes) == 0 {
		return
	}
	styles := r.Styles()
	r.Println("")
	r.Println(styles.Bold.Render("Fixes"))
	for _, f := range fixes {
		r.Printf("  %s  %d fixed", f.RuleID, f.Succeeded)
		if len(f.Failed) > 0 {
			r.Printf(", %s", styles.Error.Render(fmt.Sprintf("%d failed", len(f.Failed))))
		}
		r.Println("")
		for _, o := range f.Failed {
			r.Println(styles.Muted.Render(fmt.Sprintf("      %s: %s", o.Item, o.Reason)))
		}
	}
}

func renderReportMarkdown(r *output.Renderer, report *CheckReport) {
	r.Println("# Scene QA: " + reportTitle(report))
	r.Println("")
	r.Table([]string{"Rule", "Name", "Status", "Items", "Message"}, resultRows(report))
	r.Println("")

	var failing []*qa.Result
	for _, res := range report.Results {
		if len(res.Items) > 0 && res.Status == qa.StatusAvailable {
			failing = append(failing, res)
		}
	}
	if len(failing) > 0 {
		r.Println("## Findings")
		r.Println("")
		for _, res := range failing {
			r.Printf("- **%s** (`%s`): %s\n", res.RuleID, res.State(), listedItems(res.Items))
		}
		r.Println("")
	}

	if len(report.Fixes) > 0 {
		r.Println("## Fixes")
		r.Println("")
		for _, f := range report.Fixes {
			r.Printf("- **%s**: %d fixed, %d failed\n", f.RuleID, f.Succeeded, len(f.Failed))
			for _, o := range f.Failed {
				r.Printf("  - `%s`: %s\n", o.Item, o.Reason)
			}
		}
		r.Println("")
	}

	r.Printf("**%s**\n", reportSummary(report))
}

func reportSummary(report *CheckReport) string {
	s := fmt.Sprintf("%d error(s), %d warning(s)", report.Errors, report.Warnings)
	if report.Unavailable > 0 {
		s += fmt.Sprintf(", %d unavailable", report.Unavailable)
	}
	return s
}
