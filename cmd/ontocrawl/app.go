package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/c360studio/ontocrawl/config"
	"github.com/c360studio/ontocrawl/crawler"
	"github.com/c360studio/ontocrawl/export"
	"github.com/c360studio/ontocrawl/graph"
	"github.com/c360studio/ontocrawl/llm"
	"github.com/c360studio/ontocrawl/ontology"
	"github.com/c360studio/ontocrawl/oracle"
	"github.com/c360studio/ontocrawl/storage"
	"github.com/c360studio/ontocrawl/taxonomy"
)

// App wires configuration into one crawl pipeline.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	table    *taxonomy.Table
	store    *storage.AnswerStore
	registry *prometheus.Registry
	metrics  *oracle.Metrics
	tracer   trace.TracerProvider

	shutdown []func(context.Context) error
}

// NewApp loads the taxonomy and opens the cache.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	table := taxonomy.Default()
	if cfg.Taxonomy.File != "" {
		t, err := taxonomy.Load(cfg.Taxonomy.File)
		if err != nil {
			return nil, err
		}
		table = t
	} else if err := table.Validate(); err != nil {
		return nil, fmt.Errorf("built-in taxonomy: %w", err)
	}

	storeOpts := []storage.StoreOption{storage.WithLogger(logger)}
	if cfg.Cache.MemoryEntries > 0 {
		storeOpts = append(storeOpts, storage.WithMemoryEntries(cfg.Cache.MemoryEntries))
	}
	store, err := storage.NewAnswerStore(cfg.Cache.Dir, storeOpts...)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	app := &App{
		cfg:      cfg,
		logger:   logger,
		table:    table,
		store:    store,
		registry: registry,
		metrics:  oracle.NewMetrics(registry),
		tracer:   noop.NewTracerProvider(),
	}

	if cfg.Tracing.Enabled {
		exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		app.tracer = tp
		app.shutdown = append(app.shutdown, tp.Shutdown)
	}
	return app, nil
}

// Close flushes tracing and stops any metrics server.
func (a *App) Close(ctx context.Context) {
	for i := len(a.shutdown) - 1; i >= 0; i-- {
		if err := a.shutdown[i](ctx); err != nil {
			a.logger.Warn("Shutdown step failed", "error", err)
		}
	}
}

// ServeMetrics exposes /metrics on addr until Close.
func (a *App) ServeMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "addr", addr, "error", err)
		}
	}()
	a.logger.Info("Serving metrics", "addr", addr)
	a.shutdown = append(a.shutdown, srv.Shutdown)
}

// liveOracle builds the LLM-backed oracle from the endpoint config.
func (a *App) liveOracle() oracle.Oracle {
	retry := llm.DefaultRetryConfig()
	retry.MaxAttempts = a.cfg.Oracle.MaxAttempts

	client := llm.NewClient(a.cfg.Oracle.Endpoint,
		llm.WithRetryConfig(retry),
		llm.WithHTTPClient(&http.Client{Timeout: a.cfg.Oracle.Timeout}),
		llm.WithLogger(a.logger))
	return oracle.NewLLMOracle(client)
}

// Result is the outcome of one Build.
type Result struct {
	Report   *crawler.Report
	Document export.Document
	Output   []byte
}

// Build runs the traversal against the cache, asking o on every miss, and
// serializes the graph. A crawl error still returns the partial result.
func (a *App) Build(ctx context.Context, o oracle.Oracle) (*Result, error) {
	gw := oracle.NewGateway(a.store, o,
		oracle.WithMetrics(a.metrics),
		oracle.WithTracerProvider(a.tracer),
		oracle.WithLogger(a.logger))
	builder := ontology.NewBuilder(a.cfg.Namespace)

	engine := crawler.New(a.table, gw, builder,
		crawler.WithLogger(a.logger),
		crawler.WithFailFast(a.cfg.Crawl.FailFast),
		crawler.WithLanguage(a.cfg.Crawl.Language))

	report, runErr := engine.Run(ctx)
	stats := gw.Stats()
	report.CacheHits = stats.Hits
	report.OracleCalls = stats.Calls

	res := &Result{Report: report, Document: export.Document(builder.Entities())}
	if runErr != nil {
		return res, runErr
	}

	out, err := a.exporter().Export(res.Document, a.cfg.Output.Format)
	if err != nil {
		return res, err
	}
	res.Output = out
	return res, nil
}

func (a *App) exporter() *export.RDFExporter {
	return export.NewRDFExporter(a.cfg.Output.Profile, a.cfg.Namespace)
}

// WriteOutput writes the serialized document to the configured path.
func (a *App) WriteOutput(res *Result) error {
	if err := export.WriteFile(a.cfg.Output.Path, res.Output); err != nil {
		return err
	}
	a.logger.Info("Wrote ontology",
		"path", a.cfg.Output.Path,
		"format", a.cfg.Output.Format,
		"entities", len(res.Document))
	return nil
}

// PublishSinks mirrors the document into the configured graph stores.
// Every configured sink is attempted; errors are joined.
func (a *App) PublishSinks(ctx context.Context, doc export.Document) error {
	var errs []error

	if url := a.cfg.Sinks.NATS.URL; url != "" {
		nc, err := graph.Connect(url)
		if err != nil {
			errs = append(errs, err)
		} else {
			pub := graph.NewPublisher(nc,
				graph.WithSubject(a.cfg.Sinks.NATS.Subject),
				graph.WithExporter(a.exporter()),
				graph.WithLogger(a.logger))
			if _, err := pub.Publish(ctx, doc); err != nil {
				a.logger.Error("NATS publish failed", "error", err)
				errs = append(errs, err)
			}
			nc.Close()
		}
	}

	if uri := a.cfg.Sinks.Neo4j.URI; uri != "" {
		neo := a.cfg.Sinks.Neo4j
		driver, err := graph.OpenNeo4j(ctx, graph.Neo4jConfig{
			URI:      uri,
			User:     neo.User,
			Password: neo.Password,
			Database: neo.Database,
		})
		if err != nil {
			errs = append(errs, err)
		} else {
			mirror := graph.NewNeo4jMirror(driver, neo.Database, a.logger)
			if err := mirror.Sync(ctx, doc); err != nil {
				a.logger.Error("Neo4j sync failed", "error", err)
				errs = append(errs, err)
			}
			_ = mirror.Close(ctx)
		}
	}

	return errors.Join(errs...)
}

// logReport summarizes a run.
func (a *App) logReport(r *crawler.Report) {
	a.logger.Info("Crawl summary",
		"run_id", r.RunID,
		"concepts", r.Concepts,
		"classes", r.Classes,
		"properties", r.Properties,
		"cache_hits", r.CacheHits,
		"oracle_calls", r.OracleCalls,
		"revisits", r.Revisits,
		"skipped", len(r.Failures),
		"collisions", len(r.Collisions),
		"duration", r.Duration)
	for _, f := range r.Failures {
		a.logger.Warn("Skipped branch", "category", f.Category, "concept", f.Concept, "error", f.Err)
	}
}
