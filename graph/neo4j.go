package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/c360studio/ontocrawl/export"
	"github.com/c360studio/ontocrawl/ontology"
	"github.com/c360studio/ontocrawl/vocabulary/owl"
)

// Neo4jConfig locates a Neo4j database.
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
	Database string
	Timeout  time.Duration
}

// OpenNeo4j creates a driver and verifies connectivity.
func OpenNeo4j(ctx context.Context, cfg Neo4jConfig) (neo4j.DriverWithContext, error) {
	user := cfg.User
	if user == "" {
		user = "neo4j"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(user, cfg.Password, ""), func(c *neo4j.Config) {
		c.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j: init driver: %w", err)
	}

	vctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(vctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j: verify connectivity: %w", err)
	}
	return driver, nil
}

// Statement is one parameterized Cypher query.
type Statement struct {
	Cypher string
	Params map[string]any
}

const (
	mergeClassesCypher = `
UNWIND $classes AS c
MERGE (n:OntologyClass {iri: c.iri})
SET n.name = c.name, n.labels = c.labels, n.comment = c.comment, n.synced_at = $synced_at
`
	mergeSubclassCypher = `
UNWIND $rels AS r
MERGE (a:OntologyClass {iri: r.from})
MERGE (b:OntologyClass {iri: r.to})
MERGE (a)-[:SUBCLASS_OF]->(b)
`
	mergeRelatesCypher = `
UNWIND $rels AS r
MERGE (a:OntologyClass {iri: r.from})
MERGE (b:OntologyClass {iri: r.to})
MERGE (a)-[e:RELATES {property: r.property}]->(b)
SET e.name = r.name
`
)

// Statements builds the Cypher that mirrors doc: class nodes, subclass edges,
// and one RELATES edge per property domain and range pair. Empty groups are
// omitted.
func Statements(doc export.Document, syncedAt time.Time) []Statement {
	var classes, subclass, relates []map[string]any
	for _, ent := range doc {
		switch ent.Kind {
		case ontology.KindClass:
			classes = append(classes, map[string]any{
				"iri":     ent.ID,
				"name":    ent.Name,
				"labels":  texts(ent.Values(owl.Label)),
				"comment": firstText(ent.Values(owl.Comment)),
			})
			for _, parent := range ent.Values(owl.SubClassOf) {
				subclass = append(subclass, map[string]any{"from": ent.ID, "to": parent.Ref})
			}
		case ontology.KindObjectProperty:
			for _, d := range ent.Values(owl.Domain) {
				for _, r := range ent.Values(owl.Range) {
					relates = append(relates, map[string]any{
						"from":     d.Ref,
						"to":       r.Ref,
						"property": ent.ID,
						"name":     ent.Name,
					})
				}
			}
		}
	}

	var stmts []Statement
	if len(classes) > 0 {
		stmts = append(stmts, Statement{Cypher: mergeClassesCypher, Params: map[string]any{
			"classes":   classes,
			"synced_at": syncedAt.UTC().Format(time.RFC3339Nano),
		}})
	}
	if len(subclass) > 0 {
		stmts = append(stmts, Statement{Cypher: mergeSubclassCypher, Params: map[string]any{"rels": subclass}})
	}
	if len(relates) > 0 {
		stmts = append(stmts, Statement{Cypher: mergeRelatesCypher, Params: map[string]any{"rels": relates}})
	}
	return stmts
}

func texts(vals []ontology.Value) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.Text
	}
	return out
}

func firstText(vals []ontology.Value) string {
	if len(vals) == 0 {
		return ""
	}
	return vals[0].Text
}

// Neo4jMirror writes a document into Neo4j.
type Neo4jMirror struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *slog.Logger
}

// NewNeo4jMirror wraps an open driver.
func NewNeo4jMirror(driver neo4j.DriverWithContext, database string, logger *slog.Logger) *Neo4jMirror {
	if logger == nil {
		logger = slog.Default()
	}
	return &Neo4jMirror{driver: driver, database: database, logger: logger}
}

// Sync merges doc in one write transaction. Re-syncing the same document
// is idempotent.
func (m *Neo4jMirror) Sync(ctx context.Context, doc export.Document) error {
	stmts := Statements(doc, time.Now())
	if len(stmts) == 0 {
		return nil
	}

	session := m.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: m.database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	q := `CREATE CONSTRAINT ontology_class_iri_unique IF NOT EXISTS FOR (n:OntologyClass) REQUIRE n.iri IS UNIQUE`
	if res, err := session.Run(ctx, q, nil); err != nil {
		m.logger.Warn("neo4j schema init failed (continuing)", "error", err)
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		for _, s := range stmts {
			res, err := tx.Run(ctx, s.Cypher, s.Params)
			if err != nil {
				return nil, err
			}
			if _, err := res.Consume(ctx); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("neo4j sync: %w", err)
	}
	m.logger.Info("Mirrored ontology to neo4j", "statements", len(stmts), "entities", len(doc))
	return nil
}

// Close releases the driver.
func (m *Neo4jMirror) Close(ctx context.Context) error {
	return m.driver.Close(ctx)
}
