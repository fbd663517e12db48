package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/c360studio/ontocrawl/llm"
	"github.com/c360studio/ontocrawl/storage"
)

const tracerName = "github.com/c360studio/ontocrawl/oracle"

// Stats counts gateway outcomes over its lifetime.
type Stats struct {
	Hits   int
	Calls  int
	Errors int
	// Rejected counts oracle replies the caller's validator refused.
	Rejected int
}

// Gateway answers (category, concept) questions at most once per cache
// directory: a cached answer is returned verbatim, otherwise the oracle is
// asked once and its raw reply persisted if it passes validation. Oracle
// failures are returned as is and never retried here.
type Gateway struct {
	store   *storage.AnswerStore
	oracle  Oracle
	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
	stats   Stats
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) GatewayOption {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) GatewayOption {
	return func(g *Gateway) {
		g.tracer = tp.Tracer(tracerName)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// NewGateway creates a gateway over store and oracle.
func NewGateway(store *storage.AnswerStore, oracle Oracle, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		store:  store,
		oracle: oracle,
		tracer: otel.Tracer(tracerName),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = NewMetrics(nil)
	}
	return g
}

// Stats returns the counts so far.
func (g *Gateway) Stats() Stats { return g.stats }

// Complete returns the answer for (category, concept). When validate is
// non-nil it runs on every answer, cached or fresh, and its error is
// returned unchanged. A fresh reply that fails validation is not persisted,
// so a later run asks the oracle again.
func (g *Gateway) Complete(ctx context.Context, category, concept, systemPrompt, userPrompt string,
	format *llm.ResponseFormat, validate func(answer string) error) (string, error) {
	ctx, span := g.tracer.Start(ctx, "oracle.complete", trace.WithAttributes(
		attribute.String("ontocrawl.category", category),
		attribute.String("ontocrawl.concept", concept),
	))
	defer span.End()

	key := storage.Key{Category: category, Concept: concept}
	cached, err := g.store.Get(key)
	switch {
	case err == nil:
		g.stats.Hits++
		g.metrics.cacheHits.WithLabelValues(category).Inc()
		span.SetAttributes(attribute.Bool("ontocrawl.cache_hit", true))
		g.logger.Debug("Cache hit", "category", category, "concept", concept)
		if validate != nil {
			if err := validate(string(cached)); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "cached answer invalid")
				return "", err
			}
		}
		return string(cached), nil
	case !errors.Is(err, storage.ErrNotFound):
		span.RecordError(err)
		span.SetStatus(codes.Error, "cache read failed")
		return "", fmt.Errorf("read cache: %w", err)
	}

	g.metrics.cacheMisses.WithLabelValues(category).Inc()
	span.SetAttributes(attribute.Bool("ontocrawl.cache_hit", false))

	g.stats.Calls++
	g.metrics.oracleCalls.WithLabelValues(category).Inc()
	start := time.Now()
	answer, err := g.oracle.Ask(ctx, Question{
		Category:     category,
		Concept:      concept,
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Format:       format,
	})
	g.metrics.duration.WithLabelValues(category).Observe(time.Since(start).Seconds())
	if err != nil {
		g.stats.Errors++
		g.metrics.oracleErrors.WithLabelValues(category).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "oracle failed")
		return "", err
	}

	if validate != nil {
		if err := validate(answer); err != nil {
			g.stats.Rejected++
			g.metrics.rejected.WithLabelValues(category).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, "answer rejected")
			g.logger.Warn("Oracle answer rejected, not cached", "category", category, "concept", concept, "error", err)
			return "", err
		}
	}

	if err := g.store.Put(key, []byte(answer)); err != nil {
		if !errors.Is(err, storage.ErrExists) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "cache write failed")
			return "", fmt.Errorf("persist answer: %w", err)
		}
		// Another writer got there first; its answer is authoritative.
		existing, getErr := g.store.Get(key)
		if getErr != nil {
			return "", fmt.Errorf("read cache: %w", getErr)
		}
		g.logger.Warn("Answer cached concurrently, using existing entry", "category", category, "concept", concept)
		return string(existing), nil
	}

	g.logger.Info("Oracle answered", "category", category, "concept", concept,
		"duration", time.Since(start).Round(time.Millisecond))
	return answer, nil
}
