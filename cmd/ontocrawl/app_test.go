package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/ontocrawl/config"
	"github.com/c360studio/ontocrawl/oracle"
)

// fixtureOracle answers from a fixed map keyed by "category/concept".
type fixtureOracle struct {
	answers map[string]string
	asked   int
}

func (o *fixtureOracle) Ask(_ context.Context, q oracle.Question) (string, error) {
	o.asked++
	return o.answers[q.Category+"/"+q.Concept], nil
}

func woodworking() *fixtureOracle {
	return &fixtureOracle{answers: map[string]string{
		"root/root":          `{"name":"root","aliases":[],"description":"N/A","joints":["Dovetail"]}`,
		"joints/Dovetail":    `{"name":"Dovetail","aliases":["Dovetail Joint"],"description":"Interlocking pins and tails.","operations":["Sawing"]}`,
		"operations/Sawing":  `{"name":"Sawing","aliases":[],"description":"Cutting with a saw.","tools":["Dovetail Saw"]}`,
		"tools/Dovetail Saw": `{"name":"Dovetail Saw","aliases":[],"description":"A fine backed saw."}`,
	}}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Cache.Dir = filepath.Join(dir, "cache")
	cfg.Output.Path = filepath.Join(dir, "out", "ontology.jsonld")
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestApp_BuildThenRebuildFromCache(t *testing.T) {
	cfg := testConfig(t)
	app, err := NewApp(cfg, quietLogger())
	require.NoError(t, err)
	defer app.Close(context.Background())

	live := woodworking()
	res, err := app.Build(context.Background(), live)
	require.NoError(t, err)
	assert.Equal(t, 4, live.asked)
	assert.Equal(t, 4, res.Report.OracleCalls)
	assert.Zero(t, res.Report.CacheHits)
	assert.Contains(t, string(res.Output), cfg.Namespace+"#Dovetail_Saw")

	require.NoError(t, app.WriteOutput(res))
	onDisk, err := os.ReadFile(cfg.Output.Path)
	require.NoError(t, err)
	assert.Equal(t, res.Output, onDisk)

	again, err := app.Build(context.Background(), oracle.OfflineOracle{})
	require.NoError(t, err)
	assert.Zero(t, again.Report.OracleCalls)
	assert.Equal(t, 4, again.Report.CacheHits)
	assert.Equal(t, res.Output, again.Output)
}

func TestApp_BuildOfflineColdCache(t *testing.T) {
	app, err := NewApp(testConfig(t), quietLogger())
	require.NoError(t, err)

	res, err := app.Build(context.Background(), oracle.OfflineOracle{})
	require.ErrorIs(t, err, oracle.ErrOffline)
	require.NotNil(t, res)
	assert.Nil(t, res.Output)
	assert.Zero(t, res.Report.Concepts)
}

func TestApp_PublishSinksNoneConfigured(t *testing.T) {
	app, err := NewApp(testConfig(t), quietLogger())
	require.NoError(t, err)
	assert.NoError(t, app.PublishSinks(context.Background(), nil))
}

// cli runs the root command in an isolated home and env directory.
type cli struct {
	dir   string
	cache string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	c := &cli{dir: dir, cache: filepath.Join(dir, "cache")}

	cfgPath := filepath.Join(dir, "ontocrawl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("namespace: http://example.org/test\n"), 0o644))
	return c
}

// seed fills the cache by crawling with the fixture oracle.
func (c *cli) seed(t *testing.T) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Namespace = "http://example.org/test"
	cfg.Cache.Dir = c.cache
	app, err := NewApp(cfg, quietLogger())
	require.NoError(t, err)
	_, err = app.Build(context.Background(), woodworking())
	require.NoError(t, err)
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	base := []string{
		"--config", filepath.Join(c.dir, "ontocrawl.yaml"),
		"--env-dir", c.dir,
		"--cache-dir", c.cache,
		"--log-level", "error",
	}
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append(args, base...))
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_Version(t *testing.T) {
	c := newCLI(t)
	out, err := c.run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "ontocrawl version "+Version+" (build: "+BuildTime+")\n", out)
}

func TestCLI_ExportTurtleFromExtension(t *testing.T) {
	c := newCLI(t)
	c.seed(t)

	out := filepath.Join(c.dir, "doc", "woodworking.ttl")
	_, err := c.run(t, "export", "--no-sinks", "-o", out)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, "<http://example.org/test#Dovetail>")
	assert.Contains(t, doc, "a <http://www.w3.org/2002/07/owl#Class>")
	assert.Contains(t, doc, `"Dovetail Joint"@en`)
}

func TestCLI_ExportColdCacheFails(t *testing.T) {
	c := newCLI(t)

	out := filepath.Join(c.dir, "ontology.jsonld")
	_, err := c.run(t, "export", "--no-sinks", "-o", out)
	require.Error(t, err)
	assert.ErrorIs(t, err, oracle.ErrOffline)
	assert.NoFileExists(t, out)
}

func TestCLI_UnknownFormat(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "export", "--no-sinks", "--format", "rdfxml")
	require.Error(t, err)
}

func TestCLI_CacheListAndShow(t *testing.T) {
	c := newCLI(t)
	c.seed(t)

	out, err := c.run(t, "cache", "ls")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "joints/Dovetail "))
	assert.True(t, strings.HasPrefix(lines[3], "tools/Dovetail Saw "))

	out, err = c.run(t, "cache", "ls", "--match", "tools/*")
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(out, "\n"))

	out, err = c.run(t, "cache", "show", "operations", "Sawing")
	require.NoError(t, err)
	assert.Equal(t, woodworking().answers["operations/Sawing"]+"\n", out)

	_, err = c.run(t, "cache", "show", "tools", "Plane")
	assert.Error(t, err)
}

func TestCLI_CacheRemove(t *testing.T) {
	c := newCLI(t)
	c.seed(t)

	out, err := c.run(t, "cache", "rm", "tools", "Dovetail Saw")
	require.NoError(t, err)
	assert.Equal(t, "removed tools/Dovetail Saw\n", out)

	_, err = c.run(t, "cache", "show", "tools", "Dovetail Saw")
	assert.Error(t, err)

	_, err = c.run(t, "cache", "rm", "tools", "Dovetail Saw")
	assert.Error(t, err)

	// Export now misses the removed answer.
	_, err = c.run(t, "export", "--no-sinks", "-o", filepath.Join(c.dir, "out.jsonld"))
	assert.ErrorIs(t, err, oracle.ErrOffline)
}

func TestCLI_TaxonomySchema(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "taxonomy", "schema", "operations")
	require.NoError(t, err)
	assert.Contains(t, out, `"tools"`)
	assert.Contains(t, out, `"additionalProperties": false`)

	_, err = c.run(t, "taxonomy", "schema", "fasteners")
	assert.Error(t, err)

	out, err = c.run(t, "taxonomy")
	require.NoError(t, err)
	assert.Contains(t, out, "root: root")
}
