package vector

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

// VectorDim is the fixed dimensionality of the hashed bag-of-words
// vectors produced for node text. There is no embedding model in this
// domain; feature hashing gives a cheap, dependency-free way to turn a
// node's name/value text into something a vector index can search over.
const VectorDim = 64

// Indexer embeds each node in a snapshot and upserts it into a
// SearchIndex, so a developer can later query "which nodes look like
// this" over a graph too large to read in full.
type Indexer struct {
	index SearchIndex
}

// NewIndexer wraps a SearchIndex.
func NewIndexer(index SearchIndex) *Indexer {
	return &Indexer{index: index}
}

// IndexSnapshot embeds every node's "<name> (<value>)" text and upserts
// the result, tagging each document with the node's rule/dirty flags as
// metadata so a hit can be filtered without a second lookup.
func (ix *Indexer) IndexSnapshot(ctx context.Context, gv attrgraph.GraphValue) error {
	docs := make([]Document, len(gv.Nodes))
	for i, n := range gv.Nodes {
		text := fmt.Sprintf("%s (%s)", n.Name, n.Value)
		docs[i] = Document{
			ID:      newUUID(),
			Content: text,
			Vector:  embed(text),
			Metadata: map[string]string{
				"node_id": n.ID,
				"is_rule": fmt.Sprintf("%v", n.IsRule),
				"dirty":   fmt.Sprintf("%v", n.PotentiallyDirty),
			},
		}
	}
	return ix.index.Upsert(ctx, docs)
}

// Query embeds text the same way IndexSnapshot does and returns the
// vector callers should pass to SearchIndex.Search.
func Query(text string) []float32 {
	return embed(text)
}

// embed hashes each whitespace-separated token of text into one of
// VectorDim buckets and L2-normalizes the result, giving a coarse
// bag-of-words vector cheap enough to compute on every snapshot.
func embed(text string) []float32 {
	v := make([]float32, VectorDim)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		v[hashToken(tok)%VectorDim]++
	}
	var norm float32
	for _, x := range v {
		norm += x * x
	}
	if norm == 0 {
		return v
	}
	scale := float32(1) / sqrt32(norm)
	for i := range v {
		v[i] *= scale
	}
	return v
}

func hashToken(s string) int {
	h := 2166136261 // FNV-1a offset basis
	for i := 0; i < len(s); i++ {
		h ^= int(s[i])
		h *= 16777619
	}
	if h < 0 {
		h = -h
	}
	return h
}

func sqrt32(x float32) float32 {
	// Newton's method; avoids pulling in math for a single call site and
	// keeps embed() allocation-free apart from the output slice.
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 32; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

func newUUID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80

	var out [36]byte
	hex.Encode(out[0:8], b[0:4])
	out[8] = '-'
	hex.Encode(out[9:13], b[4:6])
	out[13] = '-'
	hex.Encode(out[14:18], b[6:8])
	out[18] = '-'
	hex.Encode(out[19:23], b[8:10])
	out[23] = '-'
	hex.Encode(out[24:36], b[10:16])
	return string(out[:])
}
