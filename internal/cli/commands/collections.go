package commands

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/sceneqa/internal/cli/output"
	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

// CollectionInfo describes a collection for listings.
type CollectionInfo struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Rules      int      `json:"rules"`
	Missing    []string `json:"missing_categories,omitempty"`
}

// NewCollectionsCommand creates the collections command.
func NewCollectionsCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "collections",
		Short: "List rule collections",
		Long: `List the collections a check can load, with their categories and the
number of enabled rules they run.

Collections come from the built-in catalog and the collections section of
sceneqa.yaml. A configured collection replaces a built-in one of the same name.`,
		Example: `  sceneqa collections
  sceneqa collections --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollections(cmd, format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: text, json, markdown")
	return cmd
}

func runCollections(cmd *cobra.Command, format string) error {
	cmdCtx := NewCommandContext(cmd, format)
	r := cmdCtx.Renderer

	opts, err := cmdCtx.Options()
	if err != nil {
		return err
	}
	infos := describeCollections(opts.Catalog, opts.Registry, opts.Config)

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(map[string]any{"collections": infos})
	}

	title := cases.Title(language.English)
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		cats := strings.Join(info.Categories, ", ")
		if len(info.Missing) > 0 {
			cats += " (no rules: " + strings.Join(info.Missing, ", ") + ")"
		}
		rows = append(rows, []string{title.String(info.Name), info.Name, cats, strconv.Itoa(info.Rules)})
	}

	if r.EffectiveMode() == output.ModeText {
		r.Println(r.Styles().Header1.Render("Collections"))
	} else {
		r.Println("# Collections")
		r.Println("")
	}
	r.Table([]string{"Collection", "Key", "Categories", "Rules"}, rows)
	return nil
}

// describeCollections counts the distinct enabled rules behind each collection.
func describeCollections(cat *qa.Catalog, reg *qa.Registry, cfg *qa.Config) []CollectionInfo {
	infos := make([]CollectionInfo, 0, len(cat.Names()))
	for _, col := range cat.Collections() {
		info := CollectionInfo{Name: col.Name, Categories: col.Categories}
		seen := make(map[string]bool)
		for _, c := range col.Categories {
			if !reg.HasCategory(c) {
				info.Missing = append(info.Missing, c)
				continue
			}
			for _, rule := range reg.RulesForCategory(c) {
				if cfg.IsDisabled(rule.ID()) || seen[rule.ID()] {
					continue
				}
				seen[rule.ID()] = true
				info.Rules++
			}
		}
		infos = append(infos, info)
	}
	return infos
}
