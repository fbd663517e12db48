// Package config provides configuration loading and management for ontocrawl.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/ontocrawl/export"
	"github.com/c360studio/ontocrawl/llm"
	"github.com/c360studio/ontocrawl/ontology"
)

// Config represents the complete ontocrawl configuration
type Config struct {
	// Namespace is the ontology IRI; entity IRIs are Namespace#Name.
	Namespace string         `yaml:"namespace"`
	Oracle    OracleConfig   `yaml:"oracle"`
	Cache     CacheConfig    `yaml:"cache"`
	Taxonomy  TaxonomyConfig `yaml:"taxonomy"`
	Output    OutputConfig   `yaml:"output"`
	Crawl     CrawlConfig    `yaml:"crawl"`
	Sinks     SinksConfig    `yaml:"sinks"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Tracing   TracingConfig  `yaml:"tracing"`
}

// OracleConfig configures the LLM endpoint
type OracleConfig struct {
	Endpoint llm.EndpointConfig `yaml:"endpoint"`
	// Timeout bounds a single oracle call
	Timeout time.Duration `yaml:"timeout"`
	// MaxAttempts enables transport retries; 1 means none
	MaxAttempts int `yaml:"max_attempts"`
}

// CacheConfig configures the answer cache
type CacheConfig struct {
	// Dir is the cache root; answers live at Dir/<category>/<concept>
	Dir string `yaml:"dir"`
	// MemoryEntries sizes the in-memory LRU front (0 = default)
	MemoryEntries int `yaml:"memory_entries"`
}

// TaxonomyConfig selects the category table
type TaxonomyConfig struct {
	// File is a YAML table; empty uses the built-in woodworking table
	File string `yaml:"file"`
}

// OutputConfig configures the ontology document
type OutputConfig struct {
	Path    string         `yaml:"path"`
	Format  export.Format  `yaml:"format"`
	Profile export.Profile `yaml:"profile"`
}

// CrawlConfig configures traversal policy
type CrawlConfig struct {
	// FailFast aborts on malformed answers and illegal names instead of
	// skipping the branch
	FailFast bool `yaml:"fail_fast"`
	// Language tags labels and comments (default "en")
	Language string `yaml:"language"`
}

// SinksConfig configures optional downstream graph stores
type SinksConfig struct {
	NATS  NATSConfig  `yaml:"nats"`
	Neo4j Neo4jConfig `yaml:"neo4j"`
}

// NATSConfig configures the NATS connection (empty URL = disabled)
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// Neo4jConfig configures the Neo4j mirror (empty URI = disabled)
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// MetricsConfig configures the prometheus endpoint
type MetricsConfig struct {
	// Addr serves /metrics during a crawl when set (e.g. ":9090")
	Addr string `yaml:"addr"`
}

// TracingConfig configures OpenTelemetry
type TracingConfig struct {
	// Enabled writes spans to stderr
	Enabled bool `yaml:"enabled"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Namespace: "http://example.org/woodworking",
		Oracle: OracleConfig{
			Endpoint: llm.EndpointConfig{
				Provider:  "openai",
				Model:     "gpt-4o-mini",
				MaxTokens: 4096,
			},
			Timeout:     2 * time.Minute,
			MaxAttempts: 1,
		},
		Cache: CacheConfig{
			Dir: "cache",
		},
		Output: OutputConfig{
			Path:    "ontology.jsonld",
			Format:  export.FormatJSONLD,
			Profile: export.ProfileOWL,
		},
		Crawl: CrawlConfig{
			Language: ontology.DefaultLanguage,
		},
		Sinks: SinksConfig{
			NATS: NATSConfig{Subject: "graph.ingest.entity"},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return errors.New("namespace is required")
	}
	u, err := url.Parse(c.Namespace)
	if err != nil || u.Scheme == "" || u.Fragment != "" || u.RawQuery != "" {
		return fmt.Errorf("namespace %q must be an absolute IRI without query or fragment", c.Namespace)
	}
	if err := c.Oracle.Endpoint.Validate(); err != nil {
		return fmt.Errorf("oracle.endpoint: %w", err)
	}
	if c.Oracle.Timeout < 0 {
		return errors.New("oracle.timeout must not be negative")
	}
	if c.Oracle.MaxAttempts < 1 {
		return errors.New("oracle.max_attempts must be at least 1")
	}
	if c.Cache.Dir == "" {
		return errors.New("cache.dir is required")
	}
	if c.Cache.MemoryEntries < 0 {
		return errors.New("cache.memory_entries must not be negative")
	}
	if c.Output.Path == "" {
		return errors.New("output.path is required")
	}
	if _, ok := export.GetFormatInfo(c.Output.Format); !ok {
		return fmt.Errorf("output.format %q is not supported", c.Output.Format)
	}
	if _, ok := export.Profiles[c.Output.Profile]; !ok {
		return fmt.Errorf("output.profile %q is not supported", c.Output.Profile)
	}
	if c.Crawl.Language == "" {
		return errors.New("crawl.language is required")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Namespace != "" {
		c.Namespace = other.Namespace
	}

	// Oracle
	ep := other.Oracle.Endpoint
	if ep.Provider != "" {
		c.Oracle.Endpoint.Provider = ep.Provider
	}
	if ep.URL != "" {
		c.Oracle.Endpoint.URL = ep.URL
	}
	if ep.Model != "" {
		c.Oracle.Endpoint.Model = ep.Model
	}
	if ep.MaxTokens != 0 {
		c.Oracle.Endpoint.MaxTokens = ep.MaxTokens
	}
	if ep.Temperature != nil {
		t := *ep.Temperature
		c.Oracle.Endpoint.Temperature = &t
	}
	if other.Oracle.Timeout != 0 {
		c.Oracle.Timeout = other.Oracle.Timeout
	}
	if other.Oracle.MaxAttempts != 0 {
		c.Oracle.MaxAttempts = other.Oracle.MaxAttempts
	}

	// Cache
	if other.Cache.Dir != "" {
		c.Cache.Dir = other.Cache.Dir
	}
	if other.Cache.MemoryEntries != 0 {
		c.Cache.MemoryEntries = other.Cache.MemoryEntries
	}

	// Taxonomy
	if other.Taxonomy.File != "" {
		c.Taxonomy.File = other.Taxonomy.File
	}

	// Output
	if other.Output.Path != "" {
		c.Output.Path = other.Output.Path
	}
	if other.Output.Format != "" {
		c.Output.Format = other.Output.Format
	}
	if other.Output.Profile != "" {
		c.Output.Profile = other.Output.Profile
	}

	// Crawl
	if other.Crawl.FailFast {
		c.Crawl.FailFast = true
	}
	if other.Crawl.Language != "" {
		c.Crawl.Language = other.Crawl.Language
	}

	// Sinks
	if other.Sinks.NATS.URL != "" {
		c.Sinks.NATS.URL = other.Sinks.NATS.URL
	}
	if other.Sinks.NATS.Subject != "" {
		c.Sinks.NATS.Subject = other.Sinks.NATS.Subject
	}
	if other.Sinks.Neo4j.URI != "" {
		c.Sinks.Neo4j.URI = other.Sinks.Neo4j.URI
	}
	if other.Sinks.Neo4j.User != "" {
		c.Sinks.Neo4j.User = other.Sinks.Neo4j.User
	}
	if other.Sinks.Neo4j.Password != "" {
		c.Sinks.Neo4j.Password = other.Sinks.Neo4j.Password
	}
	if other.Sinks.Neo4j.Database != "" {
		c.Sinks.Neo4j.Database = other.Sinks.Neo4j.Database
	}

	// Observability
	if other.Metrics.Addr != "" {
		c.Metrics.Addr = other.Metrics.Addr
	}
	if other.Tracing.Enabled {
		c.Tracing.Enabled = true
	}
}
