// Package vector defines a semantic search index over a graph snapshot's
// node text, used to find nodes whose debug rendering resembles a query
// when a snapshot has grown too large to read in full.
package vector

import "context"

// Document is one node's indexed text and feature vector.
type Document struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]string
}

// SearchResult is a single match from a similarity search.
type SearchResult struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]string
}

// SearchIndex provides vector storage and similarity search over
// indexed node documents.
type SearchIndex interface {
	// Upsert inserts or updates documents.
	Upsert(ctx context.Context, docs []Document) error
	// Search finds the top-k most similar documents to vector.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	// Close releases resources.
	Close() error
}
