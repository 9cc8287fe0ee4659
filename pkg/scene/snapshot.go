package scene

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Snapshot is the YAML document describing a scene.
type Snapshot struct {
	// Types extends the type hierarchy: child type -> parent type.
	Types       map[string]string `yaml:"types,omitempty"`
	Nodes       []Node            `yaml:"nodes"`
	Connections []Connection      `yaml:"connections,omitempty"`
	Namespaces  []string          `yaml:"namespaces,omitempty"`
	Selection   []string          `yaml:"selection,omitempty"`
}

// Load decodes a snapshot and builds a Graph from it.
func Load(r io.Reader) (*Graph, error) {
	var snap Snapshot
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&snap); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to decode scene snapshot: %w", err)
	}
	return snap.Build()
}

// LoadFile reads a snapshot from path.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the user on purpose
	if err != nil {
		return nil, fmt.Errorf("failed to open scene %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	g, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Build creates a Graph holding the snapshot contents.
func (s *Snapshot) Build() (*Graph, error) {
	g := NewGraph()
	for typ, parent := range s.Types {
		g.DefineType(typ, parent)
	}
	for i, n := range s.Nodes {
		if err := g.AddNode(n); err != nil {
			return nil, fmt.Errorf("nodes[%d]: %w", i, err)
		}
	}
	for i, c := range s.Connections {
		if err := g.Connect(c.From, c.To); err != nil {
			return nil, fmt.Errorf("connections[%d]: %w", i, err)
		}
	}
	for _, ns := range s.Namespaces {
		g.AddNamespace(ns)
	}
	g.Select(s.Selection...)
	return g, nil
}

// Snapshot captures the current contents of the graph.
func (g *Graph) Snapshot() *Snapshot {
	snap := &Snapshot{
		Nodes:       g.Nodes(),
		Connections: g.AllConnections(),
		Namespaces:  append([]string(nil), g.st.namespaces...),
		Selection:   g.Selection(),
	}
	for typ, parent := range g.parents {
		if defaultTypeParents[typ] == parent {
			continue
		}
		if snap.Types == nil {
			snap.Types = make(map[string]string)
		}
		snap.Types[typ] = parent
	}
	return snap
}

// Save encodes the graph as a YAML snapshot.
func (g *Graph) Save(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(g.Snapshot()); err != nil {
		return fmt.Errorf("failed to encode scene snapshot: %w", err)
	}
	return enc.Close()
}

// SaveFile writes the graph to path.
func (g *Graph) SaveFile(path string) error {
	f, err := os.Create(path) //nolint:gosec // G304: path is supplied by the user on purpose
	if err != nil {
		return fmt.Errorf("failed to create scene %s: %w", path, err)
	}
	if err := g.Save(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
