package dashboard

import (
	"time"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

// Emitter turns graph activity into stored records and broadcast events.
// It is safe to use from multiple goroutines.
type Emitter struct {
	store *Store
	hub   *Hub
}

// NewEmitter creates a new event emitter.
func NewEmitter(store *Store, hub *Hub) *Emitter {
	return &Emitter{store: store, hub: hub}
}

// Observer returns an attrgraph.Observer that records every transaction
// the graph notifies on and broadcasts the resulting snapshot to
// connected dashboard clients. Wire it in with attrgraph.New or
// Graph.SetObserver.
func (e *Emitter) Observer() attrgraph.Observer {
	return e.TransactionObserved
}

// TransactionObserved records one transaction and broadcasts the graph's
// current snapshot. Called from the graph's Observer callback, so it
// must not itself call back into the graph.
func (e *Emitter) TransactionObserved(note string, g *attrgraph.Graph) {
	gv := g.Snapshot()

	dirtied := 0
	for _, n := range gv.Nodes {
		if n.PotentiallyDirty {
			dirtied++
		}
	}

	rec := e.store.AddTransaction(TransactionRecord{
		Note:         note,
		Timestamp:    time.Now(),
		NodeCount:    len(gv.Nodes),
		EdgeCount:    len(gv.Edges),
		RulesDirtied: dirtied,
	})
	e.store.SetLatestSnapshot(gv)

	e.hub.Broadcast(&Event{
		Type:      "transaction",
		Timestamp: rec.Timestamp,
		Data:      rec,
	})

	e.hub.Broadcast(&Event{
		Type:      "snapshot",
		Timestamp: rec.Timestamp,
		Data:      gv,
	})
}

// SinkSynced records a push of a snapshot to an external sink and
// broadcasts a "sink.sync" event.
func (e *Emitter) SinkSynced(sink string, nodeCount, edgeCount int, d time.Duration, err error) {
	rec := SinkSyncRecord{
		Sink:      sink,
		Timestamp: time.Now(),
		Duration:  d,
		NodeCount: nodeCount,
		EdgeCount: edgeCount,
	}
	if err != nil {
		rec.Error = err.Error()
	}

	e.store.AddSinkSync(rec)

	e.hub.Broadcast(&Event{
		Type:      "sink.sync",
		Timestamp: rec.Timestamp,
		Data:      rec,
	})
}
