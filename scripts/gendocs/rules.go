package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
	_ "github.com/leapstack-labs/sceneqa/pkg/qa/checks" // register built-in rules
)

// generateRuleDocs generates the rule index and one page per category.
func generateRuleDocs(outDir string) error {
	log.Printf("Generating rule docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	reg := qa.Default()
	catalog := qa.DefaultCatalog()

	if err := generateRulesIndex(outDir, reg, catalog); err != nil {
		return err
	}
	log.Printf("  Generated index.md")

	for _, cat := range reg.AllCategories() {
		if err := generateCategoryPage(outDir, cat, reg.RulesForCategory(cat)); err != nil {
			return err
		}
		log.Printf("  Generated %s.md", categorySlug(cat))
	}
	return nil
}

// categorySlug turns "Render Stats" into "render-stats".
func categorySlug(cat string) string {
	return strings.ToLower(strings.Join(strings.Fields(cat), "-"))
}

// generateRulesIndex generates the overview page.
func generateRulesIndex(outDir string, reg *qa.Registry, catalog *qa.Catalog) error {
	w := NewMarkdownWriter()

	w.Frontmatter("QA Rules", "Built-in scene QA rules")
	w.GeneratedMarker()

	w.Header(1, "QA Rules")
	w.Paragraph(fmt.Sprintf("sceneqa ships **%d rules** in **%d categories**.", reg.Count(), len(reg.AllCategories())))

	w.Header(2, "Urgency")
	w.Table(
		[]string{"Urgency", "Description"},
		[][]string{
			{InlineCode("error"), "Blocks a publish; check exits non-zero"},
			{InlineCode("warning"), "Should be reviewed"},
			{InlineCode("none"), "Reported for information only"},
		},
	)

	w.Header(2, "Categories")
	var rows [][]string
	for _, cat := range reg.AllCategories() {
		link := fmt.Sprintf("[%s](/rules/%s)", cat, categorySlug(cat))
		rows = append(rows, []string{link, fmt.Sprint(len(reg.RulesForCategory(cat)))})
	}
	w.Table([]string{"Category", "Rules"}, rows)

	w.Header(2, "Collections")
	w.Paragraph("A collection is the ordered list of categories one department checks.")
	rows = nil
	for _, col := range catalog.Collections() {
		rows = append(rows, []string{InlineCode(col.Name), strings.Join(col.Categories, ", ")})
	}
	w.Table([]string{"Collection", "Categories"}, rows)

	w.Header(2, "Configuration")
	w.Paragraph("Rules can be tuned in `sceneqa.yaml`:")
	w.CodeBlock("yaml", `disabled_rules: [SC07]   # never run
urgency:
  AN03: error            # override urgency
rule_options:
  AN05:
    size: 0.01           # rule-specific option`)

	return os.WriteFile(filepath.Join(outDir, "index.md"), w.Bytes(), 0600)
}

// generateCategoryPage documents every rule of one category.
func generateCategoryPage(outDir, cat string, rules []qa.Rule) error {
	w := NewMarkdownWriter()

	w.Frontmatter(cat+" Rules", cat+" QA rules")
	w.GeneratedMarker()

	w.Header(1, cat+" Rules")
	for _, rule := range rules {
		writeRuleDoc(w, rule)
	}

	return os.WriteFile(filepath.Join(outDir, categorySlug(cat)+".md"), w.Bytes(), 0600)
}

// writeRuleDoc writes detailed documentation for a single rule.
func writeRuleDoc(w *MarkdownWriter, rule qa.Rule) {
	w.Line(fmt.Sprintf("## %s - %s {#%s}", rule.ID(), rule.Name(), rule.ID()))
	w.Newline()

	w.Line(fmt.Sprintf("**Urgency:** %s | **Fixable:** %s | **Selectable:** %s",
		InlineCode(rule.Urgency().String()), yesNo(rule.Fixable()), yesNo(rule.Selectable())))
	w.Newline()

	if desc := rule.Description(); desc != "" {
		w.Paragraph(cleanDescription(desc))
	}

	w.Line("**Message:** " + InlineCode(rule.Message()))
	w.Newline()

	if cats := rule.Categories(); len(cats) > 1 {
		w.Line("**Also in:** " + strings.Join(cats, ", "))
		w.Newline()
	}

	if keys := rule.ConfigKeys(); len(keys) > 0 {
		w.Header(3, "Configuration")
		w.Paragraph(fmt.Sprintf("This rule accepts the following options: %s",
			InlineCode(strings.Join(keys, ", "))))
	}

	w.Line("---")
	w.Newline()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
