package attrgraph

// InputHandle is a typed reference to an input node holding a value of
// type T. It is the only way callers read or write that node; the
// underlying node ID is type-erased inside the graph's arena.
type InputHandle[T any] struct {
	id nodeID
}

// RuleHandle is a typed reference to a rule node producing a value of
// type T. Unlike InputHandle it has no Write method: writing to a rule
// is a compile-time impossibility for typed callers, not just a runtime
// check (though the graph still rejects it defensively if reached
// through untyped paths — see ErrWriteToRule).
type RuleHandle[T any] struct {
	id nodeID
}

// CreateInput constructs an input node pre-populated with value.
func CreateInput[T any](g *Graph, name string, value T) InputHandle[T] {
	id := g.createInput(name, value)
	return InputHandle[T]{id: id}
}

// CreateRule constructs a rule node bound to f. f runs with g so it can
// read other handles; every read it performs while this rule is on top
// of the evaluation stack becomes a captured dependency.
func CreateRule[T any](g *Graph, name string, f func(g *Graph) T) RuleHandle[T] {
	id := g.createRule(name, func(g *Graph) any {
		return f(g)
	})
	return RuleHandle[T]{id: id}
}

// Read ensures the node is up to date and returns its cached value.
func (h InputHandle[T]) Read(g *Graph) T {
	return g.read(h.id).(T)
}

// Write overwrites the input's value and fans dirtiness out to every
// node that transitively depends on it.
func (h InputHandle[T]) Write(g *Graph, value T) {
	if err := g.writeInput(h.id, value); err != nil {
		// InputHandle's node ID always refers to an input by construction,
		// so this can only fire if the graph's internal bookkeeping has
		// been corrupted elsewhere.
		panicInvariant("write through InputHandle failed: %v", err)
	}
}

// Read ensures the node is up to date, re-evaluating its rule if needed,
// and returns its cached value.
func (h RuleHandle[T]) Read(g *Graph) T {
	return g.read(h.id).(T)
}

// ID exposes the handle's stable node identity, e.g. for building
// diagnostics keyed off a snapshot.
func (h InputHandle[T]) ID() int { return int(h.id) }

// ID exposes the handle's stable node identity.
func (h RuleHandle[T]) ID() int { return int(h.id) }
