package crawler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontocrawl/ontology"
	"github.com/c360studio/ontocrawl/oracle"
	"github.com/c360studio/ontocrawl/storage"
	"github.com/c360studio/ontocrawl/taxonomy"
)

// countingOracle answers from a fixed map and counts every question.
type countingOracle struct {
	answers map[string]string
	asked   int
}

func (o *countingOracle) Ask(_ context.Context, q oracle.Question) (string, error) {
	o.asked++
	return o.answers[q.Category+"/"+q.Concept], nil
}

func crawlOnce(t *testing.T, dir string, o oracle.Oracle) (*Report, *ontology.Builder, oracle.Stats) {
	t.Helper()
	store, err := storage.NewAnswerStore(dir)
	require.NoError(t, err)
	gw := oracle.NewGateway(store, o)
	b := ontology.NewBuilder(ns)

	report, err := New(taxonomy.Default(), gw, b).Run(context.Background())
	require.NoError(t, err)
	return report, b, gw.Stats()
}

func TestRun_SecondCrawlServedFromCache(t *testing.T) {
	dir := t.TempDir()
	live := &countingOracle{answers: woodworkingAnswers()}

	_, first, stats := crawlOnce(t, dir, live)
	// Sawing and its tools are asked once and then served from cache.
	assert.Equal(t, 8, live.asked)
	assert.Equal(t, 8, stats.Calls)
	assert.Equal(t, 3, stats.Hits)

	_, second, stats := crawlOnce(t, dir, oracle.OfflineOracle{})
	assert.Zero(t, stats.Calls)
	assert.Equal(t, 11, stats.Hits)

	require.Equal(t, first.Len(), second.Len())
	for i, e := range first.Entities() {
		got := second.Entities()[i]
		assert.Equal(t, e.ID, got.ID)
		assert.Equal(t, e.Slots(), got.Slots())
	}
}

func TestRun_OfflineOracleFailsOnColdCache(t *testing.T) {
	store, err := storage.NewAnswerStore(t.TempDir())
	require.NoError(t, err)
	gw := oracle.NewGateway(store, oracle.OfflineOracle{})

	_, err = New(taxonomy.Default(), gw, ontology.NewBuilder(ns)).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, oracle.ErrOffline)
	assert.Contains(t, err.Error(), "root/root")
}

// flakyOracle returns a truncated reply the first time a key is asked.
type flakyOracle struct {
	answers map[string]string
	flaky   string
	asked   map[string]int
}

func (o *flakyOracle) Ask(_ context.Context, q oracle.Question) (string, error) {
	key := q.Category + "/" + q.Concept
	o.asked[key]++
	answer := o.answers[key]
	if key == o.flaky && o.asked[key] == 1 {
		return answer[:len(answer)/2], nil
	}
	return answer, nil
}

func TestRun_MalformedAnswerIsAskedAgainOnNextRun(t *testing.T) {
	dir := t.TempDir()
	o := &flakyOracle{answers: woodworkingAnswers(), flaky: "joints/Dovetail", asked: map[string]int{}}

	first, b, stats := crawlOnce(t, dir, o)
	require.Len(t, first.Failures, 1)
	assert.Equal(t, "Dovetail", first.Failures[0].Concept)
	assert.ErrorIs(t, first.Failures[0].Err, taxonomy.ErrMalformedAnswer)
	assert.Equal(t, 1, stats.Rejected)
	assert.Equal(t, 1, o.asked["joints/Dovetail"])
	for _, e := range b.Entities() {
		assert.NotEqual(t, ns+"#Dovetail", e.ID)
	}

	second, b, stats := crawlOnce(t, dir, o)
	assert.Empty(t, second.Failures)
	assert.Equal(t, 2, o.asked["joints/Dovetail"])
	assert.Equal(t, 1, stats.Calls, "only the rejected concept reaches the oracle")
	findEntity(t, b, ns+"#Dovetail")

	_, _, stats = crawlOnce(t, dir, oracle.OfflineOracle{})
	assert.Zero(t, stats.Calls)
}
