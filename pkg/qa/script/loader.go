// Package script loads rules written in Starlark.
//
// Every .star file in the rules directory may call the predeclared rule()
// builtin any number of times:
//
//	def _find():
//	    return [n for n in scene.ls(types = ["transform"]) if n.endswith("_tmp")]
//
//	rule(
//	    id = "ST01",
//	    name = "Temporary Nodes",
//	    message = "{0} temporary node(s) in the scene",
//	    categories = ["Scene"],
//	    detect = _find,
//	    fix = scene.delete,
//	)
//
// Detectors run on a fresh thread per call with the rule environment bound,
// so the scene module always talks to the adapter the orchestrator is using.
package script

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"go.starlark.net/starlark"

	"github.com/leapstack-labs/sceneqa/pkg/qa"
)

// Loader scans a directory for .star rule files.
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a loader for dir. A nil logger discards script output.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{dir: dir, logger: logger}
}

// Load executes every .star file in the directory, in lexical order, and
// returns the rules they declare. A missing directory yields no rules.
func (l *Loader) Load() ([]qa.Rule, error) {
	info, err := os.Stat(l.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to access rules directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("rules path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*.star"))
	if err != nil {
		return nil, fmt.Errorf("failed to scan rules directory: %w", err)
	}

	var rules []qa.Rule
	for _, file := range files {
		defs, err := l.LoadFile(file)
		if err != nil {
			return nil, err
		}
		for _, def := range defs {
			rules = append(rules, qa.WrapRuleDef(def))
		}
	}
	return rules, nil
}

// LoadFile executes a single rule file and returns its rule definitions.
func (l *Loader) LoadFile(path string) ([]qa.RuleDef, error) {
	src, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the configured rules directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err)}
	}

	var decls []qa.RuleDef
	thread := &starlark.Thread{
		Name: "load:" + filepath.Base(path),
		Print: func(_ *starlark.Thread, msg string) {
			l.logger.Debug(msg, "file", path)
		},
	}
	thread.SetLocal(declsKey, &decls)

	globals, err := starlark.ExecFileOptions(fileOptions, thread, path, src, predeclared())
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("starlark execution error: %v", err)}
	}
	globals.Freeze()

	for i := range decls {
		if err := decls[i].Validate(); err != nil {
			return nil, &LoadError{File: path, Message: err.Error()}
		}
	}
	l.logger.Debug("loaded rule file", "file", path, "rules", len(decls))
	return decls, nil
}

// LoadError reports a rule file that could not be loaded.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("rules/%s: %s", filepath.Base(e.File), e.Message)
}
