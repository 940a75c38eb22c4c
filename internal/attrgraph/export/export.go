// Package export renders an attrgraph snapshot to the textual formats
// the debugger collaborator's rendering contract specifies: Graphviz
// DOT, Mermaid, and JSON, plus a human-readable stats summary.
package export

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

// DOT renders a snapshot as a Graphviz DOT digraph. Each node line has
// the form `<id> [label="<name> (<value>)", style=<solid|dashed>,
// shape=<rect|ellipse>, color=<red|black>]`: dashed means
// potentiallyDirty, shape=rect means isRule, color=red means isCurrent.
// Each edge line is `<from> -> <to> [style=<solid|dashed>]`, dashed
// meaning pending.
func DOT(gv attrgraph.GraphValue) string {
	var b strings.Builder
	b.WriteString("digraph attrgraph {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\"];\n\n")

	for _, n := range gv.Nodes {
		b.WriteString(fmt.Sprintf(
			"  %s [label=\"%s\", style=%s, shape=%s, color=%s];\n",
			sanitizeID(n.ID),
			escapeLabel(fmt.Sprintf("%s (%s)", n.Name, n.Value)),
			style(n.PotentiallyDirty),
			nodeShape(n.IsRule),
			nodeColor(n.IsCurrent),
		))
	}
	b.WriteString("\n")
	for _, e := range gv.Edges {
		b.WriteString(fmt.Sprintf("  %s -> %s [style=%s];\n",
			sanitizeID(e.From), sanitizeID(e.To), style(e.Pending)))
	}

	b.WriteString("}\n")
	return b.String()
}

// Mermaid renders a snapshot as a Mermaid flowchart: rule nodes are
// rectangles, input nodes rounded, nodes on the evaluation stack get a
// red stroke, and pending edges are dotted arrows. A node's
// potentiallyDirty flag is not rendered.
func Mermaid(gv attrgraph.GraphValue) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	for _, n := range gv.Nodes {
		id := sanitizeID(n.ID)
		label := escapeLabel(fmt.Sprintf("%s (%s)", n.Name, n.Value))
		if n.IsRule {
			b.WriteString(fmt.Sprintf("  %s[\"%s\"]\n", id, label))
		} else {
			b.WriteString(fmt.Sprintf("  %s(\"%s\")\n", id, label))
		}
		if n.IsCurrent {
			b.WriteString(fmt.Sprintf("  style %s stroke:#f00,stroke-width:2px\n", id))
		}
	}
	for _, e := range gv.Edges {
		arrow := "-->"
		if e.Pending {
			arrow = "-.->"
		}
		b.WriteString(fmt.Sprintf("  %s %s %s\n", sanitizeID(e.From), arrow, sanitizeID(e.To)))
	}

	return b.String()
}

// JSON serializes a snapshot as indented JSON.
func JSON(gv attrgraph.GraphValue) ([]byte, error) {
	return json.MarshalIndent(gv, "", "  ")
}

// Stats returns a human-readable summary of a snapshot: node/edge
// counts, how many nodes are currently dirty, and how many edges are
// currently pending.
func Stats(gv attrgraph.GraphValue) string {
	var b strings.Builder
	var rules, inputs, dirty, current int
	for _, n := range gv.Nodes {
		if n.IsRule {
			rules++
		} else {
			inputs++
		}
		if n.PotentiallyDirty {
			dirty++
		}
		if n.IsCurrent {
			current++
		}
	}
	var pending int
	for _, e := range gv.Edges {
		if e.Pending {
			pending++
		}
	}

	b.WriteString("Attribute Graph Snapshot\n")
	b.WriteString("========================\n\n")
	b.WriteString(fmt.Sprintf("Nodes:   %d total (%d input, %d rule)\n", len(gv.Nodes), inputs, rules))
	b.WriteString(fmt.Sprintf("  Dirty:   %d\n", dirty))
	b.WriteString(fmt.Sprintf("  Current: %d (on evaluation stack)\n", current))
	b.WriteString(fmt.Sprintf("Edges:   %d total\n", len(gv.Edges)))
	b.WriteString(fmt.Sprintf("  Pending: %d\n", pending))
	return b.String()
}

func style(dashed bool) string {
	if dashed {
		return "dashed"
	}
	return "solid"
}

func nodeShape(isRule bool) string {
	if isRule {
		return "rect"
	}
	return "ellipse"
}

func nodeColor(isCurrent bool) string {
	if isCurrent {
		return "red"
	}
	return "black"
}

// sanitizeID restricts an identifier to alphanumerics, per the rendering
// contract, by dropping every other rune.
func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, s)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
