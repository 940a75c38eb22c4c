package export

import (
	"strings"
	"testing"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

func buildSample() *attrgraph.Graph {
	g := attrgraph.New(nil)
	x := attrgraph.CreateInput(g, "x", 2)
	y := attrgraph.CreateInput(g, "y", 3)
	sum := attrgraph.CreateRule(g, "sum", func(g *attrgraph.Graph) int {
		return x.Read(g) + y.Read(g)
	})
	sum.Read(g)
	return g
}

func TestDOTRendersNodesAndEdges(t *testing.T) {
	g := buildSample()
	out := DOT(g.Snapshot())

	if !strings.Contains(out, "digraph attrgraph") {
		t.Fatal("expected digraph header")
	}
	if !strings.Contains(out, `label="sum (5)"`) {
		t.Errorf("expected sum node label with cached value, got:\n%s", out)
	}
	if !strings.Contains(out, "shape=rect") {
		t.Error("expected sum node rendered with shape=rect (isRule)")
	}
	if strings.Contains(out, "style=dashed") {
		t.Error("graph is fully clean; no dashed styling expected")
	}
}

func TestDOTMarksDirtyAndPendingAsDashed(t *testing.T) {
	g := attrgraph.New(nil)
	x := attrgraph.CreateInput(g, "x", 2)
	sum := attrgraph.CreateRule(g, "sum", func(g *attrgraph.Graph) int {
		return x.Read(g) + 1
	})
	sum.Read(g)
	x.Write(g, 10)

	out := DOT(g.Snapshot())
	if !strings.Contains(out, "style=dashed") {
		t.Errorf("expected dashed styling for dirty node/pending edge, got:\n%s", out)
	}
}

func TestMermaidRendersArrowsAndShapes(t *testing.T) {
	g := buildSample()
	out := Mermaid(g.Snapshot())

	if !strings.Contains(out, "graph LR") {
		t.Fatal("expected mermaid header")
	}
	if !strings.Contains(out, "-->") {
		t.Error("expected at least one solid arrow")
	}
}

func TestJSONRoundTripsShape(t *testing.T) {
	g := buildSample()
	data, err := JSON(g.Snapshot())
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty JSON output")
	}
}

func TestStatsCountsPendingAndDirty(t *testing.T) {
	g := attrgraph.New(nil)
	x := attrgraph.CreateInput(g, "x", 2)
	sum := attrgraph.CreateRule(g, "sum", func(g *attrgraph.Graph) int {
		return x.Read(g) + 1
	})
	sum.Read(g)
	x.Write(g, 10)

	out := Stats(g.Snapshot())
	if !strings.Contains(out, "Dirty:   1") {
		t.Errorf("expected one dirty node reported, got:\n%s", out)
	}
	if !strings.Contains(out, "Pending: 1") {
		t.Errorf("expected one pending edge reported, got:\n%s", out)
	}
}

func TestSanitizeIDStripsNonAlphanumerics(t *testing.T) {
	if got := sanitizeID("n-1.2"); got != "n12" {
		t.Errorf("sanitizeID(%q) = %q, want %q", "n-1.2", got, "n12")
	}
}

func TestEscapeLabelEscapesQuotes(t *testing.T) {
	if got := escapeLabel(`say "hi"`); got != `say \"hi\"` {
		t.Errorf("escapeLabel: got %q", got)
	}
}
