package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sceneqa/internal/cli/output"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Category string // Filter by category
	Verbose  bool   // Show descriptions
	Format   string // Output format
}

// RuleInfo describes a rule for listings.
type RuleInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Urgency     qa.Urgency `json:"urgency"`
	Categories  []string   `json:"categories"`
	Description string     `json:"description,omitempty"`
	ConfigKeys  []string   `json:"config_keys,omitempty"`
	Fixable     bool       `json:"fixable"`
	Selectable  bool       `json:"selectable"`
}

func newRuleInfo(r qa.Rule) RuleInfo {
	return RuleInfo{
		ID:          r.ID(),
		Name:        r.Name(),
		Urgency:     r.Urgency(),
		Categories:  r.Categories(),
		Description: r.Description(),
		ConfigKeys:  r.ConfigKeys(),
		Fixable:     r.Fixable(),
		Selectable:  r.Selectable(),
	}
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [rule-id]",
		Short: "List available QA rules",
		Long: `List every registered QA rule, grouped by category.

Built-in rules are listed together with the scripted rules found in the
configured rules directory.

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # List all rules
  sceneqa rules

  # Show details for a specific rule
  sceneqa rules AN01

  # List the rules of one category
  sceneqa rules --category Skinning

  # Output as JSON
  sceneqa rules --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showRule(cmd, args[0], opts)
			}
			return listRules(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "Filter by category")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "V", false, "Show rule descriptions")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json, markdown")

	return cmd
}

// ruleGroup is one category with its rules.
type ruleGroup struct {
	Category string     `json:"category"`
	Rules    []RuleInfo `json:"rules"`
}

func listRules(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer

	reg, err := cmdCtx.Registry()
	if err != nil {
		return err
	}

	categories := reg.AllCategories()
	if opts.Category != "" {
		if !reg.HasCategory(opts.Category) {
			return fmt.Errorf("category %q not found (available: %s)", opts.Category, strings.Join(categories, ", "))
		}
		categories = []string{opts.Category}
	}

	groups := make([]ruleGroup, 0, len(categories))
	for _, cat := range categories {
		g := ruleGroup{Category: cat}
		for _, rule := range reg.RulesForCategory(cat) {
			g.Rules = append(g.Rules, newRuleInfo(rule))
		}
		groups = append(groups, g)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return listRulesJSON(r, groups, reg.Count())
	case output.ModeMarkdown:
		return listRulesMarkdown(r, groups, opts.Verbose)
	default:
		return listRulesText(r, groups, reg.Count(), opts.Verbose)
	}
}

func showRule(cmd *cobra.Command, ruleID string, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer

	reg, err := cmdCtx.Registry()
	if err != nil {
		return err
	}
	rule, ok := reg.Get(ruleID)
	if !ok {
		return fmt.Errorf("rule %q not found", ruleID)
	}
	info := newRuleInfo(rule)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(info)
	case output.ModeMarkdown:
		return showRuleMarkdown(r, &info)
	default:
		return showRuleText(r, &info)
	}
}

// listRulesText outputs rules in styled text format.
func listRulesText(r *output.Renderer, groups []ruleGroup, total int, verbose bool) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("QA Rules (%d)", total)))
	r.Println("")

	for _, g := range groups {
		r.Println(styles.Header2.Render(g.Category))
		for _, rule := range g.Rules {
			fix := ""
			if rule.Fixable {
				fix = styles.Muted.Render(" [fix]")
			}
			r.Printf("  %s  %s - %s%s\n",
				styles.Muted.Render(rule.ID),
				rule.Name,
				urgencyStyle(styles, rule.Urgency).Render(rule.Urgency.String()),
				fix,
			)
			if verbose && rule.Description != "" {
				r.Println(styles.Muted.Render("      " + rule.Description))
			}
		}
		r.Println("")
	}

	r.Println(styles.Muted.Render("Use 'sceneqa rules <rule-id>' for details"))
	r.Println("")
	return nil
}

// listRulesMarkdown outputs rules in markdown format.
func listRulesMarkdown(r *output.Renderer, groups []ruleGroup, verbose bool) error {
	r.Println("# QA Rules")
	r.Println("")

	for _, g := range groups {
		r.Println("## " + g.Category)
		r.Println("")
		for _, rule := range g.Rules {
			r.Printf("- **%s** - %s (`%s`)\n", rule.ID, rule.Name, rule.Urgency)
			if verbose && rule.Description != "" {
				r.Println("  " + rule.Description)
			}
		}
		r.Println("")
	}
	return nil
}

// RulesJSONOutput is the JSON output structure for rules listing.
type RulesJSONOutput struct {
	Categories []ruleGroup `json:"categories"`
	Total      int         `json:"total"`
}

func listRulesJSON(r *output.Renderer, groups []ruleGroup, total int) error {
	return r.JSON(RulesJSONOutput{Categories: groups, Total: total})
}

// showRuleText displays detailed rule info in text format.
func showRuleText(r *output.Renderer, rule *RuleInfo) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render(fmt.Sprintf("%s - %s", rule.ID, rule.Name)))
	r.Println("")

	r.Printf("  %s: %s\n", styles.Bold.Render("Categories"), strings.Join(rule.Categories, ", "))
	r.Printf("  %s: %s\n", styles.Bold.Render("Urgency"), urgencyStyle(styles, rule.Urgency).Render(rule.Urgency.String()))
	r.Printf("  %s: %s\n", styles.Bold.Render("Fixable"), yesNo(rule.Fixable))
	r.Printf("  %s: %s\n", styles.Bold.Render("Selectable"), yesNo(rule.Selectable))
	r.Println("")

	if rule.Description != "" {
		r.Println(styles.Bold.Render("Description"))
		r.Println("  " + rule.Description)
		r.Println("")
	}

	if len(rule.ConfigKeys) > 0 {
		r.Println(styles.Bold.Render("Configuration"))
		r.Printf("  Options: %s\n", strings.Join(rule.ConfigKeys, ", "))
		r.Println("")
	}
	return nil
}

// showRuleMarkdown displays detailed rule info in markdown format.
func showRuleMarkdown(r *output.Renderer, rule *RuleInfo) error {
	r.Printf("# %s - %s\n\n", rule.ID, rule.Name)
	r.Printf("**Categories:** %s | **Urgency:** `%s` | **Fixable:** %s\n\n",
		strings.Join(rule.Categories, ", "), rule.Urgency, yesNo(rule.Fixable))
	if rule.Description != "" {
		r.Println(rule.Description)
		r.Println("")
	}
	if len(rule.ConfigKeys) > 0 {
		r.Println("## Configuration")
		r.Println("")
		r.Printf("Options: `%s`\n", strings.Join(rule.ConfigKeys, "`, `"))
		r.Println("")
	}
	return nil
}

func urgencyStyle(styles *output.Styles, u qa.Urgency) lipgloss.Style {
	switch u {
	case qa.UrgencyError:
		return styles.Error
	case qa.UrgencyWarning:
		return styles.Warning
	default:
		return styles.Muted
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
