// Command attrgraphd runs a long-lived attribute graph alongside its
// debug surface: the SSE dashboard, optional Neo4j/Qdrant mirroring,
// optional OTLP tracing, and an optional Temporal worker for archiving
// snapshots out of process.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/efebarandurmaz/anvil/internal/attrgraph"
	"github.com/efebarandurmaz/anvil/internal/config"
	"github.com/efebarandurmaz/anvil/internal/dashboard"
	graphsink "github.com/efebarandurmaz/anvil/internal/graph"
	"github.com/efebarandurmaz/anvil/internal/graph/neo4j"
	"github.com/efebarandurmaz/anvil/internal/observability"
	"github.com/efebarandurmaz/anvil/internal/server"
	temporalmod "github.com/efebarandurmaz/anvil/internal/temporal"
	"github.com/efebarandurmaz/anvil/internal/vector"
	"github.com/efebarandurmaz/anvil/internal/vector/qdrant"

	temporalclient "go.temporal.io/sdk/client"
)

// sinkSyncInterval is how often the running graph's snapshot is pushed
// to the configured Neo4j sink and Qdrant index, when either is wired.
const sinkSyncInterval = 10 * time.Second

func main() {
	configPath := "configs/attrgraphd.yaml"
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("config load failed (%v), using defaults", err)
		cfg = &config.Config{}
	}

	ctx := context.Background()

	tracingCfg := &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: cfg.Tracing.ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		SampleRate:     cfg.Tracing.SampleRate,
	}
	tracerProvider, err := observability.InitTracing(ctx, tracingCfg)
	if err != nil {
		log.Fatalf("tracing: %v", err)
	}
	defer tracerProvider.Shutdown(ctx)

	dashCfg := dashboard.DefaultConfig()
	if cfg.Dashboard.ListenAddr != "" {
		dashCfg.ListenAddr = cfg.Dashboard.ListenAddr
	}
	dash := dashboard.New(dashCfg)

	metrics := observability.NewGraphMetrics()
	auditLogger, err := observability.NewAuditLogger(observability.DefaultAuditConfig())
	if err != nil {
		log.Fatalf("audit logger: %v", err)
	}
	graphObserver := observability.NewGraphObserver(ctx, metrics, auditLogger)

	// dash.Attach isn't used here since it unconditionally replaces
	// whatever observer is already on g; the dashboard's own emitter is
	// chained in explicitly instead so graphObserver keeps observing too.
	g := attrgraph.New(observability.Chain(dash.Emitter.Observer(), graphObserver.Observe))

	health := server.NewHealthServer(&server.HealthConfig{Version: "attrgraphd"})
	shutdown := server.NewShutdownHandler(nil)

	shutdown.RegisterHook("dashboard", 10, func(ctx context.Context) error {
		return dash.Server.Stop(ctx)
	})
	shutdown.RegisterHook("audit-logger", 70, func(ctx context.Context) error {
		return auditLogger.Close()
	})
	shutdown.RegisterHook("tracing", 80, func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	})

	var sink graphsink.SnapshotSink
	var indexer *vector.Indexer

	if cfg.Graph.URI != "" {
		neo4jSink, err := neo4j.New(ctx, cfg.Graph.URI, cfg.Graph.Username, cfg.Graph.Password)
		if err != nil {
			log.Fatalf("neo4j sink: %v", err)
		}
		sink = neo4jSink
		health.RegisterCheck("neo4j", server.Neo4jHealthChecker(neo4jSink.Ping))
		shutdown.RegisterHook("neo4j-sink", 60, func(ctx context.Context) error {
			return neo4jSink.Close(ctx)
		})
		slog.Info("neo4j sink configured", "uri", cfg.Graph.URI)
	}

	if cfg.Vector.Host != "" {
		index, err := qdrant.New(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection)
		if err != nil {
			log.Fatalf("qdrant index: %v", err)
		}
		indexer = vector.NewIndexer(index)
		health.RegisterCheck("qdrant", server.QdrantHealthChecker(index.Ping))
		shutdown.RegisterHook("search-index", 50, server.SearchIndexShutdownHook(index.Close).Fn)
		slog.Info("qdrant index configured", "host", cfg.Vector.Host, "port", cfg.Vector.Port)
	}

	if sink != nil || indexer != nil {
		go runSinkSyncLoop(shutdown.ShutdownCh(), g, sink, indexer, metrics, auditLogger, dash.Emitter)
	}

	if cfg.Temporal.Host != "" {
		c, err := temporalclient.Dial(temporalclient.Options{
			HostPort:  cfg.Temporal.Host,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			log.Fatalf("temporal client: %v", err)
		}
		w, err := temporalmod.StartWorker(c, cfg.Temporal.TaskQueue)
		if err != nil {
			log.Fatalf("temporal worker: %v", err)
		}
		shutdown.RegisterHook("temporal-worker", 20, func(ctx context.Context) error {
			w.Stop()
			c.Close()
			return nil
		})
		slog.Info("temporal worker started", "task_queue", cfg.Temporal.TaskQueue)
	}

	shutdown.RegisterHook("health-server", 5, func(ctx context.Context) error {
		health.Shutdown()
		return nil
	})
	shutdown.Start()

	go func() {
		if err := dash.Server.Start(); err != nil {
			log.Printf("dashboard server: %v", err)
		}
	}()

	healthAddr := ":8081"
	go func() {
		if err := health.ListenAndServe(healthAddr); err != nil {
			log.Printf("health server: %v", err)
		}
	}()

	health.SetReady(true)
	fmt.Printf("attrgraphd started, dashboard listening on %s, health on %s\n", dashCfg.ListenAddr, healthAddr)

	shutdown.Wait()
	fmt.Println("attrgraphd stopped")
}

// runSinkSyncLoop periodically pushes g's current snapshot to sink and
// indexer, whichever are non-nil, until done is closed. Each push is
// traced, metered, audited, and reported to the dashboard the same way
// regardless of which sink it targets.
func runSinkSyncLoop(done <-chan struct{}, g *attrgraph.Graph, sink graphsink.SnapshotSink, indexer *vector.Indexer, metrics *observability.GraphMetrics, audit *observability.AuditLogger, emitter *dashboard.Emitter) {
	ticker := time.NewTicker(sinkSyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			gv := g.Snapshot()
			if sink != nil {
				syncSnapshot(context.Background(), "neo4j", gv, metrics, audit, emitter, func(ctx context.Context) error {
					return sink.StoreSnapshot(ctx, gv)
				})
			}
			if indexer != nil {
				syncSnapshot(context.Background(), "qdrant", gv, metrics, audit, emitter, func(ctx context.Context) error {
					return indexer.IndexSnapshot(ctx, gv)
				})
			}
		}
	}
}

// syncSnapshot runs fn (a push of gv to one external sink named
// sinkName), recording the attempt as a span, a metric, an audit
// entry, and a dashboard sink-sync event.
func syncSnapshot(ctx context.Context, sinkName string, gv attrgraph.GraphValue, metrics *observability.GraphMetrics, audit *observability.AuditLogger, emitter *dashboard.Emitter, fn func(context.Context) error) {
	spanCtx, span := observability.StartSinkSyncSpan(ctx, sinkName, len(gv.Nodes), len(gv.Edges))
	defer span.End()

	start := time.Now()
	err := fn(spanCtx)
	d := time.Since(start)

	observability.RecordSinkLatency(span, d)
	if err != nil {
		observability.RecordError(span, err)
	}

	metrics.RecordSinkSync(d, err)
	if err != nil {
		audit.LogSinkError(spanCtx, sinkName, err)
	} else {
		audit.LogSinkSync(spanCtx, sinkName, len(gv.Nodes), len(gv.Edges), d)
	}
	emitter.SinkSynced(sinkName, len(gv.Nodes), len(gv.Edges), d, err)
}
