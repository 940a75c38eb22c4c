package dashboard

import (
	"sync"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
)

const (
	maxTransactions = 1000
	maxSinkSyncs    = 1000
)

// Store provides thread-safe in-memory storage for recent transaction
// and sink-sync history, plus the latest graph snapshot.
type Store struct {
	mu sync.RWMutex

	transactions []TransactionRecord
	sinkSyncs    []SinkSyncRecord
	seq          int

	latest        attrgraph.GraphValue
	hasLatest     bool
	totalDirtied  int
}

// NewStore creates a new Store instance.
func NewStore() *Store {
	return &Store{
		transactions: make([]TransactionRecord, 0, maxTransactions),
		sinkSyncs:    make([]SinkSyncRecord, 0, maxSinkSyncs),
	}
}

// AddTransaction appends a transaction record, assigning it the next
// sequence number, and evicts the oldest record past maxTransactions.
func (s *Store) AddTransaction(rec TransactionRecord) TransactionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	rec.Seq = s.seq
	s.totalDirtied += rec.RulesDirtied

	s.transactions = append(s.transactions, rec)
	if len(s.transactions) > maxTransactions {
		s.transactions = s.transactions[len(s.transactions)-maxTransactions:]
	}

	return rec
}

// AddSinkSync appends a sink-sync record, evicting the oldest past
// maxSinkSyncs.
func (s *Store) AddSinkSync(rec SinkSyncRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sinkSyncs = append(s.sinkSyncs, rec)
	if len(s.sinkSyncs) > maxSinkSyncs {
		s.sinkSyncs = s.sinkSyncs[len(s.sinkSyncs)-maxSinkSyncs:]
	}
}

// SetLatestSnapshot records the graph's current structural snapshot.
func (s *Store) SetLatestSnapshot(gv attrgraph.GraphValue) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.latest = gv
	s.hasLatest = true
}

// LatestSnapshot returns the most recently recorded snapshot.
func (s *Store) LatestSnapshot() (attrgraph.GraphValue, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.latest, s.hasLatest
}

// ListTransactions returns recorded transactions, most recent first,
// capped at limit (0 means no cap).
func (s *Store) ListTransactions(limit int) []TransactionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]TransactionRecord, 0, len(s.transactions))
	for i := len(s.transactions) - 1; i >= 0; i-- {
		out = append(out, s.transactions[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// ListSinkSyncs returns recorded sink syncs, most recent first, capped
// at limit (0 means no cap).
func (s *Store) ListSinkSyncs(limit int) []SinkSyncRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]SinkSyncRecord, 0, len(s.sinkSyncs))
	for i := len(s.sinkSyncs) - 1; i >= 0; i-- {
		out = append(out, s.sinkSyncs[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// GetStats computes aggregate statistics over recorded history.
func (s *Store) GetStats() *Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{
		TotalTransactions: len(s.transactions),
		TotalSinkSyncs:    len(s.sinkSyncs),
	}

	for _, sync := range s.sinkSyncs {
		if sync.Error != "" {
			stats.TotalSinkErrors++
		}
	}

	if s.hasLatest {
		stats.LatestNodeCount = len(s.latest.Nodes)
		stats.LatestEdgeCount = len(s.latest.Edges)
	}

	if len(s.transactions) > 0 {
		dirtied := 0
		for _, tx := range s.transactions {
			dirtied += tx.RulesDirtied
		}
		stats.AvgRulesDirtied = float64(dirtied) / float64(len(s.transactions))
	}

	return stats
}
