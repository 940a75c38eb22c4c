// Package layout is a small worked example of the attribute graph's
// external collaborator: a size flows in as an input, and a fixed tree
// of rules derives frames for a header and body region from it. It is
// not a renderer — nothing here draws pixels — it only demonstrates how
// a consumer wires rules on top of the core engine.
package layout

import "github.com/efebarandurmaz/anvil/internal/attrgraph"

// Size is a width/height pair, the root input of the layout tree.
type Size struct {
	W, H int
}

// Frame is a rectangle derived from a Size by the rule tree below.
type Frame struct {
	X, Y, W, H int
}

const headerHeight = 32

// Tree holds the handles for a root/header/body layout: one input and
// two rules, wired so writing to Root and reading Header or Body
// exercises the graph's recompute path end to end.
type Tree struct {
	Root   attrgraph.InputHandle[Size]
	Header attrgraph.RuleHandle[Frame]
	Body   attrgraph.RuleHandle[Frame]
}

// Build constructs a layout tree rooted at an input named "size" with
// the given initial value.
func Build(g *attrgraph.Graph, initial Size) Tree {
	root := attrgraph.CreateInput(g, "size", initial)
	header := attrgraph.CreateRule(g, "header", func(g *attrgraph.Graph) Frame {
		s := root.Read(g)
		return Frame{X: 0, Y: 0, W: s.W, H: headerHeight}
	})
	body := attrgraph.CreateRule(g, "body", func(g *attrgraph.Graph) Frame {
		s := root.Read(g)
		h := header.Read(g)
		return Frame{X: 0, Y: h.H, W: s.W, H: s.H - h.H}
	})
	return Tree{Root: root, Header: header, Body: body}
}
