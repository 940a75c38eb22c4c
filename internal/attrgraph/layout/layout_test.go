package layout

import (
	"testing"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

func TestScenarioF_LayoutCollaborator(t *testing.T) {
	g := attrgraph.New(nil)
	tree := Build(g, Size{W: 200, H: 100})

	first := tree.Body.Read(g)

	tree.Root.Write(g, Size{W: 300, H: 100})

	second := tree.Body.Read(g)

	if first == second {
		t.Fatalf("expected two distinct frame values, got %+v twice", first)
	}
	if first.W != 200 || second.W != 300 {
		t.Fatalf("unexpected frame widths: first=%d second=%d", first.W, second.W)
	}

	gv := g.Snapshot()
	for _, n := range gv.Nodes {
		if n.PotentiallyDirty {
			t.Errorf("node %s should be clean after second read", n.Name)
		}
	}
	for _, e := range gv.Edges {
		if e.Pending {
			t.Errorf("edge %s -> %s should not be pending after second read", e.From, e.To)
		}
	}
}
