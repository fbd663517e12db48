// Package graph mirrors a finished ontology into downstream graph stores:
// a NATS ingest subject and an optional Neo4j database.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/ontocrawl/export"
)

// GraphIngestSubject is the default subject for entity ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// Conn is the subset of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

// Publisher sends every entity of a document to a NATS subject.
type Publisher struct {
	conn     Conn
	subject  string
	exporter *export.RDFExporter
	logger   *slog.Logger
	now      func() time.Time
}

// PublisherOption configures a Publisher.
type PublisherOption func(*Publisher)

// WithSubject overrides GraphIngestSubject.
func WithSubject(subject string) PublisherOption {
	return func(p *Publisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) PublisherOption {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithExporter sets the exporter whose profile shapes the triples.
func WithExporter(e *export.RDFExporter) PublisherOption {
	return func(p *Publisher) {
		p.exporter = e
	}
}

// NewPublisher wraps an open connection.
func NewPublisher(conn Conn, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		conn:     conn,
		subject:  GraphIngestSubject,
		exporter: export.NewRDFExporter(export.ProfileOWL, ""),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Connect dials a NATS server.
func Connect(url string) (*nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("ontocrawl"))
	if err != nil {
		return nil, fmt.Errorf("connect nats %s: %w", url, err)
	}
	return nc, nil
}

// Publish sends one message per entity, in document order, then flushes.
// It returns the number of messages sent.
func (p *Publisher) Publish(ctx context.Context, doc export.Document) (int, error) {
	if p.conn == nil {
		return 0, nil
	}

	now := p.now()
	sent := 0
	for _, ent := range doc {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		payload := &EntityPayload{
			EntityID_:  ent.ID,
			TripleData: p.exporter.MessageTriples(ent, now),
			UpdatedAt:  now,
		}
		if err := payload.Validate(); err != nil {
			return sent, fmt.Errorf("entity %s: %w", ent.ID, err)
		}
		data, err := json.Marshal(payload)
		if err != nil {
			return sent, fmt.Errorf("marshal entity %s: %w", ent.ID, err)
		}
		if err := p.conn.Publish(p.subject, data); err != nil {
			return sent, fmt.Errorf("publish entity %s: %w", ent.ID, err)
		}
		sent++
	}

	if err := p.conn.FlushWithContext(ctx); err != nil {
		return sent, fmt.Errorf("flush nats: %w", err)
	}
	p.logger.Info("Published ontology", "subject", p.subject, "entities", sent)
	return sent, nil
}
