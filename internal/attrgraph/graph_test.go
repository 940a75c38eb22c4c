package attrgraph

import "testing"

func traceObserver(trace *[]string) Observer {
	return func(note string, g *Graph) {
		*trace = append(*trace, note)
	}
}

func TestScenarioA_IndependentInputs(t *testing.T) {
	g := New(nil)
	x := CreateInput(g, "x", 2)
	y := CreateInput(g, "y", 3)
	sum := CreateRule(g, "sum", func(g *Graph) int {
		return x.Read(g) + y.Read(g)
	})

	if got := sum.Read(g); got != 5 {
		t.Fatalf("sum = %d, want 5", got)
	}

	gv := g.Snapshot()
	var sumNode NodeValue
	for _, n := range gv.Nodes {
		if n.Name == "sum" {
			sumNode = n
		}
	}
	if !sumNode.IsRule {
		t.Error("sum should be a rule node")
	}
	if sumNode.PotentiallyDirty {
		t.Error("sum should be clean after read")
	}
	for _, e := range gv.Edges {
		if e.To == sumNode.ID && e.Pending {
			t.Errorf("edge %s -> %s should not be pending", e.From, e.To)
		}
	}
}

func TestScenarioB_WritePropagates(t *testing.T) {
	g := New(nil)
	x := CreateInput(g, "x", 2)
	y := CreateInput(g, "y", 3)
	sum := CreateRule(g, "sum", func(g *Graph) int {
		return x.Read(g) + y.Read(g)
	})
	if got := sum.Read(g); got != 5 {
		t.Fatalf("sum = %d, want 5", got)
	}

	x.Write(g, 10)

	gv := g.Snapshot()
	var xID, sumID string
	var sumDirty bool
	var sumValueBeforeRead string
	for _, n := range gv.Nodes {
		switch n.Name {
		case "x":
			xID = n.ID
		case "sum":
			sumID = n.ID
			sumDirty = n.PotentiallyDirty
			sumValueBeforeRead = n.Value
		}
	}
	if !sumDirty {
		t.Error("sum should be potentiallyDirty before read")
	}
	if sumValueBeforeRead != "5" {
		t.Errorf("sum cache should still read 5 before recompute, got %s", sumValueBeforeRead)
	}
	found := false
	for _, e := range gv.Edges {
		if e.From == xID && e.To == sumID {
			found = true
			if !e.Pending {
				t.Error("x -> sum edge should be pending before read")
			}
		}
	}
	if !found {
		t.Fatal("expected edge x -> sum")
	}

	if got := sum.Read(g); got != 13 {
		t.Fatalf("sum = %d, want 13", got)
	}

	gv = g.Snapshot()
	for _, n := range gv.Nodes {
		if n.Name == "sum" && n.PotentiallyDirty {
			t.Error("sum should be clean after read")
		}
	}
	for _, e := range gv.Edges {
		if e.From == xID && e.To == sumID && e.Pending {
			t.Error("x -> sum edge should not be pending after read")
		}
	}
}

func TestScenarioC_Chain(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) * 2 })
	c := CreateRule(g, "c", func(g *Graph) int { return b.Read(g) + 1 })

	if got := c.Read(g); got != 3 {
		t.Fatalf("c = %d, want 3", got)
	}

	a.Write(g, 5)

	if got := c.Read(g); got != 11 {
		t.Fatalf("c = %d, want 11", got)
	}

	gv := g.Snapshot()
	for _, n := range gv.Nodes {
		if n.PotentiallyDirty {
			t.Errorf("node %s should be clean, got dirty", n.Name)
		}
	}
	for _, e := range gv.Edges {
		if e.Pending {
			t.Errorf("edge %s -> %s should not be pending", e.From, e.To)
		}
	}
}

func TestScenarioD_SharedProducer(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) + 1 })
	c := CreateRule(g, "c", func(g *Graph) int { return a.Read(g) + 2 })
	d := CreateRule(g, "d", func(g *Graph) int { return b.Read(g) + c.Read(g) })

	if got := d.Read(g); got != 5 {
		t.Fatalf("d = %d, want 5", got)
	}

	a.Write(g, 10)

	if got := d.Read(g); got != 23 {
		t.Fatalf("d = %d, want 23", got)
	}

	gv := g.Snapshot()
	if len(gv.Edges) != 4 {
		t.Fatalf("expected exactly 4 edges, got %d: %+v", len(gv.Edges), gv.Edges)
	}
}

func TestScenarioE_ObserverTrace(t *testing.T) {
	var trace []string
	g := New(traceObserver(&trace))
	x := CreateInput(g, "x", 2)
	y := CreateInput(g, "y", 3)
	sum := CreateRule(g, "sum", func(g *Graph) int {
		return x.Read(g) + y.Read(g)
	})

	sum.Read(g)

	pushIdx, popIdx, evalIdx := -1, -1, -1
	for i, note := range trace {
		switch note {
		case "sum rec: push":
			if pushIdx == -1 {
				pushIdx = i
			}
		case "sum rec: pop":
			if popIdx == -1 {
				popIdx = i
			}
		case "sum rec: evaluate rule":
			if evalIdx == -1 {
				evalIdx = i
			}
		}
	}
	if pushIdx == -1 || popIdx == -1 || evalIdx == -1 {
		t.Fatalf("trace missing expected labels: %v", trace)
	}
	if !(pushIdx < evalIdx && evalIdx < popIdx) {
		t.Fatalf("expected push < evaluate rule < pop, got push=%d eval=%d pop=%d", pushIdx, evalIdx, popIdx)
	}
}

func TestInvariant_EdgeMirroring(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) + 1 })
	b.Read(g)

	for _, n := range g.nodes {
		for _, e := range n.outgoing {
			to := g.node(e.to)
			found := false
			for _, ref := range to.incoming {
				if ref.producer == n.id {
					found = true
				}
			}
			if !found {
				t.Errorf("edge %s -> %s missing from incoming side", n.name, to.name)
			}
		}
	}
}

func TestInvariant_DirtyClosure(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) + 1 })
	c := CreateRule(g, "c", func(g *Graph) int { return b.Read(g) + 1 })
	c.Read(g)

	a.Write(g, 2)

	gv := g.Snapshot()
	for _, n := range gv.Nodes {
		if n.Name == "b" || n.Name == "c" {
			if !n.PotentiallyDirty {
				t.Errorf("%s should be potentiallyDirty after write to a", n.Name)
			}
		}
	}
}

func TestInvariant_IdempotentRead(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) + 1 })

	first := b.Read(g)
	snapBefore := g.Snapshot()
	second := b.Read(g)
	snapAfter := g.Snapshot()

	if first != second {
		t.Fatalf("repeated read returned different values: %d vs %d", first, second)
	}
	if len(snapBefore.Nodes) != len(snapAfter.Nodes) || len(snapBefore.Edges) != len(snapAfter.Edges) {
		t.Fatal("repeated read changed graph shape")
	}
	for i := range snapBefore.Nodes {
		if snapBefore.Nodes[i] != snapAfter.Nodes[i] {
			t.Errorf("node %s changed between idempotent reads", snapBefore.Nodes[i].Name)
		}
	}
	for i := range snapBefore.Edges {
		if snapBefore.Edges[i] != snapAfter.Edges[i] {
			t.Errorf("edge %d changed between idempotent reads", i)
		}
	}
}

func TestInvariant_CleanAfterRead(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) + 1 })
	b.Read(g)

	gv := g.Snapshot()
	for _, n := range gv.Nodes {
		if n.Name == "b" && n.PotentiallyDirty {
			t.Error("b should be clean after read")
		}
	}
	for _, e := range gv.Edges {
		if e.Pending {
			t.Error("no edge should be pending after b's first clean read")
		}
	}
}

func TestInvariant_NoPhantomEdges(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int {
		// reads a twice in the same evaluation
		return a.Read(g) + a.Read(g)
	})
	b.Read(g)

	gv := g.Snapshot()
	if len(gv.Edges) != 1 {
		t.Fatalf("expected exactly one edge for a repeated read within one rule, got %d", len(gv.Edges))
	}
}

func TestInvariant_InitialEvalDoesNotMarkPending(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) + 1 })
	c := CreateRule(g, "c", func(g *Graph) int { return b.Read(g) + 1 })

	c.Read(g)

	gv := g.Snapshot()
	for _, e := range gv.Edges {
		if e.Pending {
			t.Errorf("edge %s -> %s should not be pending after first evaluation", e.From, e.To)
		}
	}
}

func TestInvariant_WriteFansOutPending(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) + 1 })
	c := CreateRule(g, "c", func(g *Graph) int { return a.Read(g) + 2 })
	b.Read(g)
	c.Read(g)

	a.Write(g, 5)

	gv := g.Snapshot()
	pendingCount := 0
	for _, e := range gv.Edges {
		if e.Pending {
			pendingCount++
		}
	}
	if pendingCount != 2 {
		t.Fatalf("expected both of a's outgoing edges pending after write, got %d", pendingCount)
	}
}

func TestWriteToRuleIsRejected(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	b := CreateRule(g, "b", func(g *Graph) int { return a.Read(g) + 1 })
	b.Read(g)

	if err := g.writeInput(b.id, 99); err != ErrWriteToRule {
		t.Fatalf("expected ErrWriteToRule, got %v", err)
	}
}

func TestReadOutsideRuleCapturesNoDependency(t *testing.T) {
	g := New(nil)
	a := CreateInput(g, "a", 1)
	_ = a.Read(g)

	gv := g.Snapshot()
	if len(gv.Edges) != 0 {
		t.Fatalf("top-level read should capture no edges, got %d", len(gv.Edges))
	}
}
