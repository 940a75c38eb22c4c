package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/efebarandurmaz/anvil/internal/attrgraph/export"
)

// Config holds dashboard server configuration.
type Config struct {
	ListenAddr string // e.g. ":9090"
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{ListenAddr: ":9090"}
}

// Server is the dashboard HTTP server.
type Server struct {
	config *Config
	store  *Store
	hub    *Hub
	server *http.Server
}

// NewServer creates a new dashboard server.
func NewServer(config *Config, store *Store, hub *Hub) *Server {
	s := &Server{
		config: config,
		store:  store,
		hub:    hub,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/transactions", s.handleTransactions)
	mux.HandleFunc("/api/sinks", s.handleSinkSyncs)
	mux.HandleFunc("/api/snapshot", s.handleSnapshotJSON)
	mux.HandleFunc("/api/snapshot.dot", s.handleSnapshotDOT)
	mux.HandleFunc("/api/snapshot.mmd", s.handleSnapshotMermaid)
	mux.HandleFunc("/api/stats", s.handleStats)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/events", s.handleSSE)

	handler := corsMiddleware(loggingMiddleware(mux))

	s.server = &http.Server{
		Addr:         config.ListenAddr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Start begins serving the dashboard.
func (s *Server) Start() error {
	slog.Info("starting dashboard server", "addr", s.config.ListenAddr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard server error: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	slog.Info("stopping dashboard server")
	return s.server.Shutdown(ctx)
}

// handleTransactions handles GET /api/transactions
func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := parseLimit(r, 100)
	respondJSON(w, s.store.ListTransactions(limit))
}

// handleSinkSyncs handles GET /api/sinks
func (s *Server) handleSinkSyncs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := parseLimit(r, 100)
	respondJSON(w, s.store.ListSinkSyncs(limit))
}

// handleSnapshotJSON handles GET /api/snapshot
func (s *Server) handleSnapshotJSON(w http.ResponseWriter, r *http.Request) {
	gv, ok := s.store.LatestSnapshot()
	if !ok {
		http.Error(w, "no snapshot recorded yet", http.StatusNotFound)
		return
	}
	respondJSON(w, gv)
}

// handleSnapshotDOT handles GET /api/snapshot.dot
func (s *Server) handleSnapshotDOT(w http.ResponseWriter, r *http.Request) {
	gv, ok := s.store.LatestSnapshot()
	if !ok {
		http.Error(w, "no snapshot recorded yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	fmt.Fprint(w, export.DOT(gv))
}

// handleSnapshotMermaid handles GET /api/snapshot.mmd
func (s *Server) handleSnapshotMermaid(w http.ResponseWriter, r *http.Request) {
	gv, ok := s.store.LatestSnapshot()
	if !ok {
		http.Error(w, "no snapshot recorded yet", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, export.Mermaid(gv))
}

// handleStats handles GET /api/stats
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, s.store.GetStats())
}

// handleHealth handles GET /api/health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	respondJSON(w, map[string]string{
		"status": "ok",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleSSE handles GET /api/events (Server-Sent Events)
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	client, err := NewClient(s.hub, w)
	if err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	s.hub.Register(client)
	defer s.hub.Unregister(client)

	slog.Info("dashboard SSE client connected")

	connEvent := &Event{Type: "connected", Timestamp: time.Now()}
	data, _ := json.Marshal(connEvent)
	client.send(data)

	go client.KeepAlive(30 * time.Second)

	<-r.Context().Done()
	slog.Info("dashboard SSE client disconnected")
}

func parseLimit(r *http.Request, def int) int {
	limit := def
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	return limit
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

// corsMiddleware adds CORS headers for local development
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}
