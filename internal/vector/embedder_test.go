package vector

import (
	"context"
	"testing"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

type fakeIndex struct {
	upserted []Document
}

func (f *fakeIndex) Upsert(ctx context.Context, docs []Document) error {
	f.upserted = append(f.upserted, docs...)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, vec []float32, topK int) ([]SearchResult, error) {
	return nil, nil
}

func (f *fakeIndex) Close() error { return nil }

func TestEmbed_Deterministic(t *testing.T) {
	a := embed("sum (5)")
	b := embed("sum (5)")
	if len(a) != VectorDim || len(b) != VectorDim {
		t.Fatalf("expected vectors of length %d", VectorDim)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embed is not deterministic at index %d: %v != %v", i, a[i], b[i])
		}
	}
}

func TestEmbed_DifferentTextsDiffer(t *testing.T) {
	a := embed("sum (5)")
	b := embed("product (42)")
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected distinct texts to produce distinct vectors")
	}
}

func TestEmbed_L2Normalized(t *testing.T) {
	v := embed("sum (5) with several distinct tokens")
	var normSq float32
	for _, x := range v {
		normSq += x * x
	}
	if normSq < 0.99 || normSq > 1.01 {
		t.Errorf("expected unit-length vector, got squared norm %f", normSq)
	}
}

func TestEmbed_EmptyText(t *testing.T) {
	v := embed("")
	for i, x := range v {
		if x != 0 {
			t.Errorf("expected zero vector for empty text, index %d = %f", i, x)
		}
	}
}

func TestQuery_MatchesEmbed(t *testing.T) {
	a := Query("sum (5)")
	b := embed("sum (5)")
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("Query and embed diverged at index %d", i)
		}
	}
}

func TestIndexer_IndexSnapshot(t *testing.T) {
	g := attrgraph.New(nil)
	x := attrgraph.CreateInput(g, "x", 2)
	sum := attrgraph.CreateRule(g, "sum", func(g *attrgraph.Graph) int {
		return x.Read(g) + 1
	})
	sum.Read(g)

	gv := g.Snapshot()
	idx := &fakeIndex{}
	indexer := NewIndexer(idx)

	if err := indexer.IndexSnapshot(context.Background(), gv); err != nil {
		t.Fatalf("IndexSnapshot failed: %v", err)
	}

	if len(idx.upserted) != len(gv.Nodes) {
		t.Fatalf("expected %d upserted documents, got %d", len(gv.Nodes), len(idx.upserted))
	}

	for i, doc := range idx.upserted {
		if len(doc.Vector) != VectorDim {
			t.Errorf("document %d: expected vector of length %d, got %d", i, VectorDim, len(doc.Vector))
		}
		if doc.Metadata["node_id"] == "" {
			t.Errorf("document %d: expected node_id metadata", i)
		}
	}
}

func TestIndexer_IndexSnapshot_Empty(t *testing.T) {
	idx := &fakeIndex{}
	indexer := NewIndexer(idx)

	if err := indexer.IndexSnapshot(context.Background(), attrgraph.GraphValue{}); err != nil {
		t.Fatalf("IndexSnapshot on empty snapshot failed: %v", err)
	}
	if len(idx.upserted) != 0 {
		t.Errorf("expected no documents upserted, got %d", len(idx.upserted))
	}
}
