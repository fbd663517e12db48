package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontocrawl/export"
	"github.com/c360studio/ontocrawl/ontology"
	"github.com/c360studio/ontocrawl/vocabulary/owl"
)

const ns = "http://example.org/woodworking"

func sampleDoc(t *testing.T) export.Document {
	t.Helper()
	b := ontology.NewBuilder(ns)
	mt, err := b.NewClass("Mortise and Tenon")
	require.NoError(t, err)
	require.NoError(t, b.AppendSubClassOf(mt, "joints"))
	require.NoError(t, b.AppendLabel(mt, "Mortise and Tenon", ""))
	require.NoError(t, b.AppendLabel(mt, "M and T", ""))
	require.NoError(t, b.AppendComment(mt, "A classic joint.", ""))

	p, err := b.NewObjectProperty("Mortise and Tenon_has_operations")
	require.NoError(t, err)
	require.NoError(t, b.AppendDomain(p, "Mortise and Tenon"))
	require.NoError(t, b.AppendRange(p, "Chiseling"))
	require.NoError(t, b.AppendRange(p, "Sawing"))
	return export.Document(b.Entities())
}

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs     []published
	flushed  int
	failOn   int
	flushErr error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.failOn > 0 && len(c.msgs)+1 == c.failOn {
		return errors.New("connection closed")
	}
	c.msgs = append(c.msgs, published{subject, data})
	return nil
}

func (c *fakeConn) FlushWithContext(context.Context) error {
	c.flushed++
	return c.flushErr
}

func TestPublisher_PublishesEveryEntity(t *testing.T) {
	conn := &fakeConn{}
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	p := NewPublisher(conn)
	p.now = func() time.Time { return at }

	n, err := p.Publish(context.Background(), sampleDoc(t))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 1, conn.flushed)
	require.Len(t, conn.msgs, 3)

	var msg EntityPayload
	require.NoError(t, json.Unmarshal(conn.msgs[1].data, &msg))
	assert.Equal(t, GraphIngestSubject, conn.msgs[1].subject)
	assert.Equal(t, ns+"#Mortise_And_Tenon", msg.EntityID())
	assert.True(t, msg.UpdatedAt.Equal(at))
	require.Len(t, msg.Triples(), 5)
	assert.Equal(t, owl.RDFType, msg.Triples()[0].Predicate)
	assert.Equal(t, owl.ClassClass, msg.Triples()[0].Object)
	assert.Equal(t, owl.RDFSSubClassOf, msg.Triples()[1].Predicate)
	assert.Equal(t, ns+"#Joints", msg.Triples()[1].Object)
}

func TestPublisher_CustomSubjectAndProfile(t *testing.T) {
	conn := &fakeConn{}
	p := NewPublisher(conn,
		WithSubject("ontology.ingest"),
		WithExporter(export.NewRDFExporter(export.ProfileSKOS, ns)))

	_, err := p.Publish(context.Background(), sampleDoc(t))
	require.NoError(t, err)

	var msg EntityPayload
	require.NoError(t, json.Unmarshal(conn.msgs[1].data, &msg))
	assert.Equal(t, "ontology.ingest", conn.msgs[1].subject)
	// rdf:type, subClassOf, 2 labels, comment, prefLabel, altLabel
	assert.Len(t, msg.Triples(), 7)
}

func TestPublisher_PublishError(t *testing.T) {
	conn := &fakeConn{failOn: 2}
	n, err := NewPublisher(conn).Publish(context.Background(), sampleDoc(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Mortise_And_Tenon")
	assert.Equal(t, 1, n)
	assert.Zero(t, conn.flushed)
}

func TestPublisher_FlushError(t *testing.T) {
	conn := &fakeConn{flushErr: errors.New("timeout")}
	_, err := NewPublisher(conn).Publish(context.Background(), sampleDoc(t))
	assert.ErrorContains(t, err, "flush nats")
}

func TestPublisher_NilConnIsNoop(t *testing.T) {
	n, err := NewPublisher(nil).Publish(context.Background(), sampleDoc(t))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEntityPayload_Validate(t *testing.T) {
	assert.Error(t, (&EntityPayload{}).Validate())

	doc := sampleDoc(t)
	triples := export.NewRDFExporter(export.ProfileOWL, ns).MessageTriples(doc[1], time.Now())
	assert.Error(t, (&EntityPayload{EntityID_: doc[1].ID}).Validate())
	assert.NoError(t, (&EntityPayload{EntityID_: doc[1].ID, TripleData: triples}).Validate())
	assert.Error(t, (&EntityPayload{EntityID_: doc[2].ID, TripleData: triples}).Validate())
}

func TestStatements(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	stmts := Statements(sampleDoc(t), at)
	require.Len(t, stmts, 3)

	classes := stmts[0].Params["classes"].([]map[string]any)
	require.Len(t, classes, 1)
	assert.Equal(t, ns+"#Mortise_And_Tenon", classes[0]["iri"])
	assert.Equal(t, "Mortise and Tenon", classes[0]["name"])
	assert.Equal(t, []string{"Mortise And Tenon", "M And T"}, classes[0]["labels"])
	assert.Equal(t, "A classic joint.", classes[0]["comment"])
	assert.Equal(t, "2026-03-04T05:06:07Z", stmts[0].Params["synced_at"])

	sub := stmts[1].Params["rels"].([]map[string]any)
	assert.Equal(t, []map[string]any{{"from": ns + "#Mortise_And_Tenon", "to": ns + "#Joints"}}, sub)
	assert.Contains(t, stmts[1].Cypher, "SUBCLASS_OF")

	rel := stmts[2].Params["rels"].([]map[string]any)
	require.Len(t, rel, 2)
	assert.Equal(t, ns+"#Chiseling", rel[0]["to"])
	assert.Equal(t, ns+"#Sawing", rel[1]["to"])
	assert.Equal(t, ns+"#Mortise_And_Tenon_has_operations", rel[1]["property"])
	assert.Contains(t, stmts[2].Cypher, "RELATES")
}

func TestStatements_HeaderOnly(t *testing.T) {
	doc := export.Document(ontology.NewBuilder(ns).Entities())
	assert.Empty(t, Statements(doc, time.Now()))
}
