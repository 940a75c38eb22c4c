// Package attrgraph implements an incremental attribute graph: nodes hold
// either a directly-assigned input value or a value computed by a rule
// closure, dependencies between them are captured automatically as rules
// run, and a two-level dirty protocol keeps cached rule values coherent
// without re-running anything until a consumer actually asks for it.
package attrgraph

// Observer is invoked once per transaction, after the transaction's block
// has run (or failed). note is a short label identifying what happened; g
// is the graph itself, so the observer can call g.Snapshot() to capture a
// structural trace of the step that just completed.
type Observer func(note string, g *Graph)

// Graph owns every node and the evaluation stack used to capture
// dependencies while rules run. All operations are single-threaded;
// callers sharing a Graph across goroutines must serialize access
// themselves.
type Graph struct {
	nodes    []*node
	stack    []nodeID
	observer Observer
}

// New constructs an empty graph. obs may be nil, in which case
// transactions run without notifying anyone.
func New(obs Observer) *Graph {
	return &Graph{observer: obs}
}

// SetObserver replaces the transaction observer.
func (g *Graph) SetObserver(obs Observer) {
	g.observer = obs
}

func (g *Graph) node(id nodeID) *node {
	return g.nodes[id]
}

// Transaction brackets block with a single observer notification tagged
// note, firing on every exit path including a panic propagating out of
// block. Transactions nest: a Transaction called from inside another
// still produces its own notification when it exits. This is the
// mechanism callers use to group several writes under one label in an
// observer trace.
func (g *Graph) Transaction(note string, block func()) {
	g.transaction(note, block)
}

// transaction is the unexported engine, used internally by every
// mutation so the sole-notification-path contract holds even for steps
// the public API doesn't name directly (dependency capture, dirty
// propagation, rule evaluation).
func (g *Graph) transaction(note string, block func()) {
	defer func() {
		if g.observer != nil {
			g.observer(note, g)
		}
	}()
	block()
}

func (g *Graph) newNode(name string, kind nodeKind) nodeID {
	id := nodeID(len(g.nodes))
	g.nodes = append(g.nodes, &node{id: id, name: name, kind: kind})
	return id
}

// createInput appends a new input node pre-populated with value and
// emits one "CreateInput" notification.
func (g *Graph) createInput(name string, value any) nodeID {
	var id nodeID
	g.transaction("CreateInput", func() {
		id = g.newNode(name, kindInput)
		n := g.node(id)
		n.value = value
		n.hasCache = true
	})
	return id
}

// createRule appends a new rule node bound to f. The cache starts empty
// and no dependencies are known until the rule is first evaluated.
func (g *Graph) createRule(name string, f func(*Graph) any) nodeID {
	var id nodeID
	g.transaction("CreateRule", func() {
		id = g.newNode(name, kindRule)
		g.node(id).rule = f
	})
	return id
}

// writeInput overwrites an input node's cached value and fans dirtiness
// out to every downstream node. Writing to a rule node is a usage error.
func (g *Graph) writeInput(id nodeID, value any) error {
	n := g.node(id)
	if n.kind != kindInput {
		return ErrWriteToRule
	}
	g.transaction(n.name+" wrappedValue: set", func() {
		n.value = value
		// outEdge is stored by value in n.outgoing; write pending through
		// the slice index so the mutation is visible to later reads.
		for i := range n.outgoing {
			n.outgoing[i].pending = true
		}
		for _, e := range n.outgoing {
			g.setPotentiallyDirty(e.to, true)
		}
	})
	return nil
}

// setPotentiallyDirty is the single source of invalidation (§4.3). It is
// idempotent: a no-op transition produces no transaction, so a DAG walk
// over shared producers terminates once every reachable node is already
// marked.
func (g *Graph) setPotentiallyDirty(id nodeID, dirty bool) {
	n := g.node(id)
	if n.potentiallyDirty == dirty {
		return
	}
	if dirty {
		g.transaction(n.name+" set dirty", func() {
			n.potentiallyDirty = true
		})
		for _, e := range n.outgoing {
			g.setPotentiallyDirty(e.to, true)
		}
		return
	}
	// true -> false only ever happens from inside recompute, once the
	// node has reconciled every upstream dependency; it is silent by
	// design (§4.3), so no transaction fires here.
	n.potentiallyDirty = false
}

// read runs the five-step pull-based recompute procedure (§4.4) and
// returns the node's up-to-date value.
func (g *Graph) read(id nodeID) any {
	// Step 1: dependency capture against whoever is currently evaluating.
	if len(g.stack) > 0 {
		g.captureDependency(id, g.stack[len(g.stack)-1])
	}
	return g.recompute(id)
}

// recompute runs steps 2-5 of the recompute procedure for id, without
// the dependency capture of step 1.
func (g *Graph) recompute(id nodeID) any {
	n := g.node(id)

	// Step 2: short-circuit.
	if n.kind == kindInput {
		return n.value
	}
	if n.hasCache && !n.potentiallyDirty {
		return n.value
	}

	// Step 3: reconcile inputs by recursively ensuring every existing
	// producer is current. This refreshes values and pending flags; it
	// does not itself create edges, because it recurses through
	// recompute, which skips step 1.
	for _, ref := range n.incoming {
		g.recompute(ref.producer)
	}

	// Step 4: decide whether re-evaluation is needed.
	hasPending := false
	for _, ref := range n.incoming {
		e := g.node(ref.producer).outgoing[ref.slot]
		if e.to != id {
			panicInvariant("edge mirroring: %q's incoming edge from %q points at node %d", n.name, g.node(ref.producer).name, e.to)
		}
		if e.pending {
			hasPending = true
		}
	}
	n.potentiallyDirty = false

	// Step 5: re-evaluate conditionally.
	if hasPending || !n.hasCache {
		g.evaluateRule(id)
	} else {
		g.transaction(n.name+" rec: no-pending", func() {})
	}

	return n.value
}

// captureDependency ensures an edge exists from producer to consumer,
// creating one if needed, or resetting pending on one that already
// exists and was just traversed again (§4.4 step 1).
func (g *Graph) captureDependency(producer, consumer nodeID) {
	p := g.node(producer)
	for slot := range p.outgoing {
		if p.outgoing[slot].to == consumer {
			g.transaction(p.name+" rec: resetting edge", func() {
				p.outgoing[slot].pending = false
			})
			return
		}
	}
	g.transaction(p.name+" rec: adding edge", func() {
		slot := len(p.outgoing)
		p.outgoing = append(p.outgoing, outEdge{to: consumer})
		c := g.node(consumer)
		c.incoming = append(c.incoming, inRef{producer: producer, slot: slot})
	})
}

// evaluateRule pushes id onto the evaluation stack, invokes its rule,
// stores the result, and pops the stack on every exit path including a
// panic propagating out of the rule. If this was not the node's first
// evaluation, every outgoing edge is marked pending so downstream
// consumers re-check on their next read.
func (g *Graph) evaluateRule(id nodeID) {
	n := g.node(id)
	if n.kind != kindRule {
		panicInvariant("recomputation entered for input node %q", n.name)
	}

	g.transaction(n.name+" rec: push", func() {
		g.stack = append(g.stack, id)
		n.onStack = true
	})

	initial := !n.hasCache

	defer func() {
		g.transaction(n.name+" rec: pop", func() {
			top := g.stack[len(g.stack)-1]
			if top != id {
				panicInvariant("pop mismatch: top is %d, expected %d", top, id)
			}
			g.stack = g.stack[:len(g.stack)-1]
			n.onStack = false
		})
	}()

	g.transaction(n.name+" rec: evaluate rule", func() {
		n.value = n.rule(g)
		n.hasCache = true
	})

	if !initial {
		g.transaction(n.name+" rec: fan-out pending", func() {
			for i := range n.outgoing {
				n.outgoing[i].pending = true
			}
		})
	}
}
