package attrgraph

import "fmt"

// NodeValue is one node's structural state at the moment of a snapshot.
type NodeValue struct {
	ID               string
	Name             string
	PotentiallyDirty bool
	Value            string
	IsRule           bool
	IsCurrent        bool
}

// EdgeValue is one edge's structural state at the moment of a snapshot.
type EdgeValue struct {
	From    string
	To      string
	Pending bool
}

// GraphValue is an immutable structural description of a graph, produced
// by Snapshot for debugging. It never triggers recomputation: cached
// values are reported as-is, including absent ones.
type GraphValue struct {
	Nodes []NodeValue
	Edges []EdgeValue
}

func nodeValueID(id nodeID) string {
	return fmt.Sprintf("n%d", id)
}

// Snapshot returns an immutable structural view of the graph: every
// node's identity, name, dirty flag, a best-effort rendering of its
// cached value (or "<nil>" if absent), whether it's a rule, and whether
// it's currently on the evaluation stack; and every outgoing edge of
// every node. Nodes and edges are reported in insertion order, so two
// snapshots of an unchanged graph render identically.
func (g *Graph) Snapshot() GraphValue {
	var gv GraphValue
	for _, n := range g.nodes {
		gv.Nodes = append(gv.Nodes, NodeValue{
			ID:               nodeValueID(n.id),
			Name:             n.name,
			PotentiallyDirty: n.potentiallyDirty,
			Value:            renderValue(n),
			IsRule:           n.kind == kindRule,
			IsCurrent:        n.onStack,
		})
		for _, e := range n.outgoing {
			gv.Edges = append(gv.Edges, EdgeValue{
				From:    nodeValueID(n.id),
				To:      nodeValueID(e.to),
				Pending: e.pending,
			})
		}
	}
	return gv
}

func renderValue(n *node) string {
	if !n.hasCache {
		return "<nil>"
	}
	return fmt.Sprintf("%v", n.value)
}
