// Package graph defines the debug-mirror boundary: an external, best-
// effort destination a graph snapshot can be pushed to for browsing.
// A SnapshotSink is never the source of truth for the attribute graph —
// it only reflects what Snapshot reported at the moment it was called.
package graph

import (
	"context"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

// SnapshotSink mirrors a GraphValue into an external store for
// debugging. Implementations must treat the snapshot as authoritative
// input and never feed state back into the attribute graph.
type SnapshotSink interface {
	// StoreSnapshot mirrors every node and edge in gv.
	StoreSnapshot(ctx context.Context, gv attrgraph.GraphValue) error
	// Close releases resources held by the sink.
	Close(ctx context.Context) error
}
