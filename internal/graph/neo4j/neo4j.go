// Package neo4j mirrors attribute-graph snapshots into Neo4j so a
// developer can browse a large graph's structure with Cypher or a
// graph-browser UI instead of reading a DOT dump.
package neo4j

import (
	"context"
	"fmt"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
	"github.com/efebarandurmaz/anvil/internal/graph"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Sink implements graph.SnapshotSink using Neo4j.
type Sink struct {
	driver neo4j.DriverWithContext
}

// New dials uri and verifies connectivity before returning.
func New(ctx context.Context, uri, username, password string) (*Sink, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Sink{driver: driver}, nil
}

// StoreSnapshot merges gv into the mirrored graph: every node is merged
// as an (:AttrNode) keyed by its snapshot ID, and every edge as a
// [:DEPENDS_ON] relationship carrying the pending flag. Nodes and
// relationships already in Neo4j that are absent from gv are left in
// place.
func (s *Sink) StoreSnapshot(ctx context.Context, gv attrgraph.GraphValue) error {
	session := s.driver.NewSession(ctx, neo4j.SessionConfig{})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, n := range gv.Nodes {
			_, err := tx.Run(ctx,
				"MERGE (n:AttrNode {id: $id}) "+
					"SET n.name = $name, n.dirty = $dirty, n.value = $value, n.isRule = $isRule, n.isCurrent = $isCurrent",
				map[string]any{
					"id":        n.ID,
					"name":      n.Name,
					"dirty":     n.PotentiallyDirty,
					"value":     n.Value,
					"isRule":    n.IsRule,
					"isCurrent": n.IsCurrent,
				})
			if err != nil {
				return nil, err
			}
		}
		for _, e := range gv.Edges {
			_, err := tx.Run(ctx,
				"MATCH (a:AttrNode {id: $from}), (b:AttrNode {id: $to}) "+
					"MERGE (a)-[r:DEPENDS_ON]->(b) SET r.pending = $pending",
				map[string]any{"from": e.From, "to": e.To, "pending": e.Pending})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

// Close releases the underlying driver.
func (s *Sink) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}

// Ping re-verifies connectivity to Neo4j, for use by a health checker.
func (s *Sink) Ping(ctx context.Context) error {
	return s.driver.VerifyConnectivity(ctx)
}

var _ graph.SnapshotSink = (*Sink)(nil)
