package testutil

import (
	"strings"
	"testing"

	"github.com/leapstack-labs/sceneqa/pkg/scene"
)

// NewScene builds an in-memory graph from a YAML snapshot document.
// It fails the test on any decode error.
func NewScene(t testing.TB, doc string) *scene.Graph {
	t.Helper()
	g, err := scene.Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load scene: %v", err)
	}
	return g
}

// MustAdd inserts nodes into g, failing the test on error.
func MustAdd(t testing.TB, g *scene.Graph, nodes ...scene.Node) {
	t.Helper()
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatalf("add %s: %v", n.Name, err)
		}
	}
}

// MustConnect links plug pairs given as from, to, from, to...
func MustConnect(t testing.TB, g *scene.Graph, plugs ...string) {
	t.Helper()
	if len(plugs)%2 != 0 {
		t.Fatalf("MustConnect needs plug pairs, got %d plugs", len(plugs))
	}
	for i := 0; i < len(plugs); i += 2 {
		if err := g.Connect(plugs[i], plugs[i+1]); err != nil {
			t.Fatalf("connect %s -> %s: %v", plugs[i], plugs[i+1], err)
		}
	}
}
