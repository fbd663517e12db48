package oracle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/c360studio/ontocrawl/llm"
	"github.com/c360studio/ontocrawl/storage"
)

// countingOracle returns canned answers and records every question.
type countingOracle struct {
	answers   map[string]string
	err       error
	questions []Question
}

func (o *countingOracle) Ask(_ context.Context, q Question) (string, error) {
	o.questions = append(o.questions, q)
	if o.err != nil {
		return "", o.err
	}
	return o.answers[q.Category+"/"+q.Concept], nil
}

func newStore(t *testing.T, dir string) *storage.AnswerStore {
	t.Helper()
	s, err := storage.NewAnswerStore(dir)
	require.NoError(t, err)
	return s
}

const dovetail = `{"name":"Dovetail","aliases":[],"description":"Interlocking pins and tails.","operations":["Sawing"]}`

func TestGateway_CacheMissCallsOracleOnceAndPersists(t *testing.T) {
	dir := t.TempDir()
	o := &countingOracle{answers: map[string]string{"joints/Dovetail": dovetail}}
	reg := prometheus.NewRegistry()
	g := NewGateway(newStore(t, dir), o, WithMetrics(NewMetrics(reg)))

	format := &llm.ResponseFormat{Name: "joints", Schema: &llm.JSONSchema{Type: "object"}}
	got, err := g.Complete(context.Background(), "joints", "Dovetail", "system", "Describe Dovetail", format, nil)
	require.NoError(t, err)
	assert.Equal(t, dovetail, got)

	require.Len(t, o.questions, 1)
	q := o.questions[0]
	assert.Equal(t, "system", q.SystemPrompt)
	assert.Equal(t, "Describe Dovetail", q.UserPrompt)
	assert.Same(t, format, q.Format)

	onDisk, err := os.ReadFile(filepath.Join(dir, "joints", "Dovetail"))
	require.NoError(t, err)
	assert.Equal(t, dovetail, string(onDisk))

	assert.Equal(t, Stats{Calls: 1}, g.Stats())
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.cacheMisses.WithLabelValues("joints")))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.oracleCalls.WithLabelValues("joints")))
}

func TestGateway_IdempotentAcrossRuns(t *testing.T) {
	dir := t.TempDir()
	o := &countingOracle{answers: map[string]string{"joints/Dovetail": dovetail}}

	first, err := NewGateway(newStore(t, dir), o).Complete(context.Background(), "joints", "Dovetail", "s", "u", nil, nil)
	require.NoError(t, err)

	// A fresh store and gateway over the same directory model a second run.
	second := NewGateway(newStore(t, dir), o)
	again, err := second.Complete(context.Background(), "joints", "Dovetail", "s", "u", nil, nil)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Len(t, o.questions, 1)
	assert.Equal(t, Stats{Hits: 1}, second.Stats())
}

func TestGateway_ExistingFileIsReturnedVerbatim(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tools"), 0o755))
	raw := "  {\"name\": \"Saw\"}\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tools", "Saw"), []byte(raw), 0o644))

	o := &countingOracle{}
	g := NewGateway(newStore(t, dir), o)
	got, err := g.Complete(context.Background(), "tools", "Saw", "s", "u", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Empty(t, o.questions)
}

func TestGateway_OracleErrorSurfacesUnchangedAndIsNotCached(t *testing.T) {
	dir := t.TempDir()
	transport := llm.NewTransientError(errors.New("connection refused"))
	o := &countingOracle{err: transport}
	g := NewGateway(newStore(t, dir), o)

	_, err := g.Complete(context.Background(), "joints", "Bridle", "s", "u", nil, nil)
	require.Error(t, err)
	assert.Same(t, transport, err)
	assert.Len(t, o.questions, 1, "no retry")

	_, statErr := os.Stat(filepath.Join(dir, "joints", "Bridle"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, Stats{Calls: 1, Errors: 1}, g.Stats())
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.oracleErrors.WithLabelValues("joints")))
}

func TestGateway_OfflineOracle(t *testing.T) {
	g := NewGateway(newStore(t, t.TempDir()), OfflineOracle{})
	_, err := g.Complete(context.Background(), "tools", "Plane", "s", "u", nil, nil)
	assert.ErrorIs(t, err, ErrOffline)
}

func TestGateway_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	o := &countingOracle{answers: map[string]string{"tools/Plane": `{}`}}
	g := NewGateway(newStore(t, t.TempDir()), o, WithTracerProvider(tp))

	for i := 0; i < 2; i++ {
		_, err := g.Complete(context.Background(), "tools", "Plane", "s", "u", nil, nil)
		require.NoError(t, err)
	}

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "oracle.complete", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.Bool("ontocrawl.cache_hit", false))
	assert.Contains(t, spans[1].Attributes(), attribute.Bool("ontocrawl.cache_hit", true))
	assert.Contains(t, spans[1].Attributes(), attribute.String("ontocrawl.concept", "Plane"))
}

var errTruncated = errors.New("truncated")

// rejectTruncated refuses answers that do not end with a closing brace.
func rejectTruncated(answer string) error {
	if !strings.HasSuffix(strings.TrimSpace(answer), "}") {
		return errTruncated
	}
	return nil
}

func TestGateway_RejectedAnswerIsNotCached(t *testing.T) {
	dir := t.TempDir()
	o := &countingOracle{answers: map[string]string{"joints/Dovetail": `{"name":"Dovetail","aliases":[`}}
	reg := prometheus.NewRegistry()
	g := NewGateway(newStore(t, dir), o, WithMetrics(NewMetrics(reg)))

	_, err := g.Complete(context.Background(), "joints", "Dovetail", "s", "u", nil, rejectTruncated)
	require.ErrorIs(t, err, errTruncated)

	_, statErr := os.Stat(filepath.Join(dir, "joints", "Dovetail"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Equal(t, Stats{Calls: 1, Rejected: 1}, g.Stats())
	assert.Equal(t, 1.0, testutil.ToFloat64(g.metrics.rejected.WithLabelValues("joints")))

	// The oracle recovers; the next ask reaches it and the answer is kept.
	o.answers["joints/Dovetail"] = dovetail
	got, err := g.Complete(context.Background(), "joints", "Dovetail", "s", "u", nil, rejectTruncated)
	require.NoError(t, err)
	assert.Equal(t, dovetail, got)
	assert.Len(t, o.questions, 2)

	onDisk, err := os.ReadFile(filepath.Join(dir, "joints", "Dovetail"))
	require.NoError(t, err)
	assert.Equal(t, dovetail, string(onDisk))
}

func TestGateway_InvalidCachedAnswerIsReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tools"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tools", "Saw"), []byte(`{"name":`), 0o644))

	o := &countingOracle{}
	g := NewGateway(newStore(t, dir), o)
	_, err := g.Complete(context.Background(), "tools", "Saw", "s", "u", nil, rejectTruncated)
	assert.ErrorIs(t, err, errTruncated)
	assert.Empty(t, o.questions, "a hand-edited entry is never replaced behind the user's back")
	assert.Equal(t, Stats{Hits: 1}, g.Stats())
}
