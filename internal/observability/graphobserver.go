package observability

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

// GraphObserver turns a graph's transaction notifications into
// OpenTelemetry spans, Prometheus-style metrics, and audit log entries.
// The graph's Observer carries only a short note string and the graph
// itself (attrgraph.Observer), so GraphObserver recovers structure from
// the note's naming convention (e.g. "<node> rec: push" / "rec: pop"
// bracket one rule's re-evaluation) rather than from a richer event
// type; a rule panic is not distinguishable from the note alone, so
// LogRuleFailure is exercised only by internal/observability's own
// tests, not by this observer.
//
// Wire Observe in with Graph.SetObserver, typically chained alongside a
// dashboard emitter via Chain.
type GraphObserver struct {
	ctx     context.Context
	metrics *GraphMetrics
	audit   *AuditLogger

	mu        sync.Mutex
	recompute map[string]time.Time
	seen      map[string]bool
}

// NewGraphObserver builds an observer recording to metrics and audit.
// ctx is used as the parent context for span and audit calls, since
// attrgraph.Observer itself carries no context.
func NewGraphObserver(ctx context.Context, metrics *GraphMetrics, audit *AuditLogger) *GraphObserver {
	return &GraphObserver{
		ctx:       ctx,
		metrics:   metrics,
		audit:     audit,
		recompute: make(map[string]time.Time),
		seen:      make(map[string]bool),
	}
}

// Observe is an attrgraph.Observer.
func (o *GraphObserver) Observe(note string, g *attrgraph.Graph) {
	o.metrics.TransactionsTotal.Inc()

	switch {
	case note == "CreateInput" || note == "CreateRule":
		o.onCreate(note == "CreateRule", g)
	case strings.HasSuffix(note, " rec: push"):
		o.onPush(strings.TrimSuffix(note, " rec: push"))
	case strings.HasSuffix(note, " rec: pop"):
		o.onPop(strings.TrimSuffix(note, " rec: pop"), g)
	case strings.HasSuffix(note, " set dirty"):
		o.metrics.DirtyPropagations.Inc()
	case strings.HasSuffix(note, " rec: adding edge"):
		o.metrics.EdgesCreatedTotal.Inc()
	case strings.HasSuffix(note, " wrappedValue: set"):
		o.onWrite(strings.TrimSuffix(note, " wrappedValue: set"), g)
	}
}

// onCreate logs the node just appended to the graph. CreateInput and
// CreateRule notifications carry no node name of their own, so the
// newly created node is the snapshot's last one.
func (o *GraphObserver) onCreate(isRule bool, g *attrgraph.Graph) {
	gv := g.Snapshot()
	if len(gv.Nodes) == 0 {
		return
	}
	n := gv.Nodes[len(gv.Nodes)-1]
	o.audit.LogNodeCreate(o.ctx, n.Name, isRule)
}

func (o *GraphObserver) onPush(name string) {
	o.mu.Lock()
	o.recompute[name] = time.Now()
	o.mu.Unlock()
}

func (o *GraphObserver) onWrite(name string, g *attrgraph.Graph) {
	o.audit.LogInputWrite(o.ctx, name, countPendingOut(g.Snapshot(), name))
}

// onPop closes out the span/metric/audit trio opened by the matching
// push, using the elapsed time between the two notifications as the
// recompute's duration.
func (o *GraphObserver) onPop(name string, g *attrgraph.Graph) {
	o.mu.Lock()
	start, tracked := o.recompute[name]
	delete(o.recompute, name)
	initial := !o.seen[name]
	o.seen[name] = true
	o.mu.Unlock()

	var d time.Duration
	if tracked {
		d = time.Since(start)
	}
	fannedOut := countPendingOut(g.Snapshot(), name)

	_, span := StartRecomputeSpan(o.ctx, name)
	RecordRecomputeResult(span, initial, fannedOut)
	span.End()

	o.metrics.RecordRecompute(d, nil)
	o.audit.LogRuleEvaluate(o.ctx, name, d, initial)
}

// countPendingOut returns how many of name's outgoing edges are pending
// in gv, looking name's node ID up by name first since EdgeValue only
// carries IDs.
func countPendingOut(gv attrgraph.GraphValue, name string) int {
	var id string
	for _, n := range gv.Nodes {
		if n.Name == name {
			id = n.ID
			break
		}
	}
	if id == "" {
		return 0
	}
	count := 0
	for _, e := range gv.Edges {
		if e.From == id && e.Pending {
			count++
		}
	}
	return count
}

// Chain combines several attrgraph.Observer values into one that calls
// each in turn, so a graph can be wired with a dashboard emitter and a
// GraphObserver at once via a single Graph.SetObserver call. A nil
// observer in the list is skipped.
func Chain(observers ...attrgraph.Observer) attrgraph.Observer {
	return func(note string, g *attrgraph.Graph) {
		for _, obs := range observers {
			if obs != nil {
				obs(note, g)
			}
		}
	}
}
