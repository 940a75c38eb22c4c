package attrgraph

// nodeID is a stable index into the graph's node arena. IDs are never
// reused and never renumbered, so they remain valid identities for the
// lifetime of the graph (§3: "stable identity distinguishable across the
// graph's lifetime").
type nodeID int

type nodeKind int

const (
	kindInput nodeKind = iota
	kindRule
)

// outEdge is one outgoing edge, stored by value in the producer's own
// slice. The consumer is addressed by ID; the pending flag lives here,
// on the producer side, because step 1 of recompute always reaches it
// through the producer.
type outEdge struct {
	to      nodeID
	pending bool
}

// inRef locates one incoming edge: the producer that owns it and the
// slot in that producer's outgoing slice. Following (producer, slot)
// reaches the same outEdge a consumer's read captured, without nodes
// holding pointers into each other (see the arena note in the design
// notes this engine follows).
type inRef struct {
	producer nodeID
	slot     int
}

// node is the type-erased representation every arena slot holds. Typed
// access happens only through InputHandle/RuleHandle, which know the
// concrete value type and assert it back out of value.
type node struct {
	id       nodeID
	name     string
	kind     nodeKind
	rule     func(*Graph) any
	value    any
	hasCache bool

	potentiallyDirty bool
	onStack          bool

	outgoing []outEdge
	incoming []inRef
}
