package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/sceneqa/internal/cli"
	"github.com/leapstack-labs/sceneqa/internal/cli/commands"
	"github.com/leapstack-labs/sceneqa/internal/cli/config"
)

// exitStatus lists what a non-zero exit means. cmd/sceneqa exits 1 on every
// error; the sentinel message printed on stderr tells the cases apart.
var exitStatus = [][]string{
	{InlineCode("0"), "", "No error-level findings and every rule ran"},
	{InlineCode("1"), InlineCode(commands.ErrIssuesFound.Error()), "Error-level findings remain, after fixing when `--fix` is set"},
	{InlineCode("1"), InlineCode(commands.ErrRulesUnavailable.Error()), "At least one rule failed against the scene"},
	{InlineCode("1"), "", "The command itself failed"},
}

// commandGroup is one section of the index, in the order help prints them.
type commandGroup struct {
	title string
	cmds  []*cobra.Command
}

func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)
	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	groups := groupCommands(root)
	if err := writeDoc(filepath.Join(outDir, "index.md"), cliIndex(root, groups)); err != nil {
		return fmt.Errorf("failed to generate index: %w", err)
	}
	for _, g := range groups {
		for _, cmd := range g.cmds {
			if err := writeDoc(filepath.Join(outDir, cmd.Name()+".md"), commandPage(cmd)); err != nil {
				return fmt.Errorf("failed to generate page for %s: %w", cmd.Name(), err)
			}
			log.Printf("  Generated %s.md", cmd.Name())
		}
	}
	return nil
}

func writeDoc(path string, w *MarkdownWriter) error {
	return os.WriteFile(path, w.Bytes(), 0600)
}

// groupCommands sorts the documented commands into root's groups. Ungrouped
// commands land in a trailing "Other" group.
func groupCommands(root *cobra.Command) []commandGroup {
	var groups []commandGroup
	index := make(map[string]int)
	for _, g := range root.Groups() {
		index[g.ID] = len(groups)
		groups = append(groups, commandGroup{title: strings.TrimSuffix(g.Title, ":")})
	}
	other := commandGroup{title: "Other"}
	for _, cmd := range root.Commands() {
		if !cmd.IsAvailableCommand() {
			continue
		}
		if i, ok := index[cmd.GroupID]; ok {
			groups[i].cmds = append(groups[i].cmds, cmd)
			continue
		}
		other.cmds = append(other.cmds, cmd)
	}
	if len(other.cmds) > 0 {
		groups = append(groups, other)
	}
	return groups
}

func cliIndex(root *cobra.Command, groups []commandGroup) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line interface reference for sceneqa")
	w.GeneratedMarker()

	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)
	w.CodeBlock("bash", "go install github.com/leapstack-labs/sceneqa/cmd/sceneqa@latest")

	for _, g := range groups {
		w.Header(2, g.title)
		var rows [][]string
		for _, cmd := range g.cmds {
			rows = append(rows, []string{
				fmt.Sprintf("[%s](/cli/%s)", InlineCode(cmd.Name()), cmd.Name()),
				cleanDescription(cmd.Short),
			})
		}
		w.Table([]string{"Command", "Description"}, rows)
	}

	w.Header(2, "Global Options")
	writeFlagsTable(w, root.PersistentFlags())

	w.Header(2, "Configuration")
	w.Paragraph(fmt.Sprintf("Settings come from %s (searched upward from the working directory), "+
		"then %s-prefixed environment variables, then the flags the user set. "+
		"Only flags with a config key reach the configuration; the rest are read by their command.",
		InlineCode("sceneqa.yaml"), InlineCode(config.EnvPrefix)))
	var envRows [][]string
	for _, f := range getConfigSchema() {
		if strings.HasPrefix(f.Type, "map") {
			continue
		}
		envRows = append(envRows, []string{InlineCode(config.EnvVar(f.Name)), InlineCode(f.Name), f.Description})
	}
	w.Table([]string{"Variable", "Key", "Description"}, envRows)

	w.Header(2, "Exit Status")
	w.Table([]string{"Code", "Error", "Meaning"}, exitStatus)
	return w
}

func commandPage(cmd *cobra.Command) *MarkdownWriter {
	w := NewMarkdownWriter()
	w.Frontmatter(cmd.Name(), cmd.Short)
	w.GeneratedMarker()

	w.Header(1, cmd.Name())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	w.Header(2, "Usage")
	w.CodeBlock("bash", cmd.UseLine())

	if len(cmd.Aliases) > 0 {
		w.Paragraph("Aliases: " + strings.Join(cmd.Aliases, ", "))
	}
	if cmd.HasLocalFlags() {
		w.Header(2, "Options")
		writeFlagsTable(w, cmd.LocalFlags())
	}
	if cmd.HasInheritedFlags() {
		w.Header(2, "Global Options")
		writeFlagsTable(w, cmd.InheritedFlags())
	}
	if cmd.Example != "" {
		w.Header(2, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
	if cmd.Name() == "check" {
		w.Header(2, "Exit Status")
		w.Table([]string{"Code", "Error", "Meaning"}, exitStatus)
	}
	return w
}

// writeFlagsTable lists flags with the config key each one sets, if any.
func writeFlagsTable(w *MarkdownWriter, flags *pflag.FlagSet) {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		option := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			option += ", " + InlineCode("-"+f.Shorthand)
		}
		def := f.DefValue
		if def != "" && def != "[]" && f.Value.Type() != "bool" {
			def = InlineCode(def)
		}
		if def == "[]" {
			def = ""
		}
		key := ""
		if k, ok := config.FlagKey(f.Name); ok {
			key = InlineCode(k)
		}
		rows = append(rows, []string{option, def, key, cleanDescription(f.Usage)})
	})
	w.Table([]string{"Option", "Default", "Config Key", "Description"}, rows)
}

// dedent strips the indentation cobra examples carry.
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		if n := len(l) - len(strings.TrimLeft(l, " \t")); indent < 0 || n < indent {
			indent = n
		}
	}
	for i, l := range lines {
		if len(l) >= indent && indent > 0 {
			lines[i] = l[indent:]
		}
	}
	return strings.Join(lines, "\n")
}
