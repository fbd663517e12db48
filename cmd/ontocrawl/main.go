// Package main provides the ontocrawl binary entry point.
// Ontocrawl builds an OWL ontology by walking a category taxonomy and asking
// an LLM about every concept it finds, caching each answer on disk.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/c360studio/ontocrawl/llm/providers"

	"github.com/c360studio/ontocrawl/config"
	"github.com/c360studio/ontocrawl/export"
	"github.com/c360studio/ontocrawl/oracle"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "ontocrawl"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	envDir     string
	namespace  string
	cacheDir   string
	taxonomy   string
	output     string
	format     string
	profile    string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "LLM-driven ontology crawler",
		Long: `Ontocrawl builds an OWL ontology by walking a taxonomy of categories
depth-first and asking an LLM to describe every concept it meets.

Every answer is cached on disk under <cache>/<category>/<concept>, so a
second run over the same cache makes no LLM calls and produces the same
document. Hand-edited cache files are picked up by "export" and "watch".`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML); default searches for ontocrawl.yaml")
	pf.StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&g.envDir, "env-dir", ".", "Directory holding .env files")
	pf.StringVar(&g.namespace, "namespace", "", "Ontology namespace IRI")
	pf.StringVar(&g.cacheDir, "cache-dir", "", "Answer cache directory")
	pf.StringVar(&g.taxonomy, "taxonomy", "", "Taxonomy table (YAML); default is the built-in woodworking table")
	pf.StringVarP(&g.output, "output", "o", "", "Output document path")
	pf.StringVar(&g.format, "format", "", "Output format (jsonld, turtle, ntriples); default from the output extension")
	pf.StringVar(&g.profile, "profile", "", "Export profile (owl, skos)")

	cmd.AddCommand(
		crawlCmd(g),
		exportCmd(g),
		watchCmd(g),
		cacheCmd(g),
		taxonomyCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)
	return cmd
}

// setupLogger configures the default slog logger on stderr.
func setupLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// loadConfig reads env files and layered config, then applies flags.
func loadConfig(cmd *cobra.Command, g *globalFlags, logger *slog.Logger) (*config.Config, error) {
	loaded, err := config.LoadEnvFiles(g.envDir)
	if err != nil {
		return nil, err
	}
	for _, path := range loaded {
		logger.Debug("Loaded env file", "path", path)
	}

	var opts []config.LoaderOption
	if g.configPath != "" {
		opts = append(opts, config.WithConfigFile(g.configPath))
	}
	cfg, err := config.NewLoader(logger, opts...).Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("namespace") {
		cfg.Namespace = g.namespace
	}
	if flags.Changed("cache-dir") {
		cfg.Cache.Dir = g.cacheDir
	}
	if flags.Changed("taxonomy") {
		cfg.Taxonomy.File = g.taxonomy
	}
	if flags.Changed("output") {
		cfg.Output.Path = g.output
		if !flags.Changed("format") {
			cfg.Output.Format = export.FormatForPath(g.output, cfg.Output.Format)
		}
	}
	if flags.Changed("format") {
		f, err := export.ParseFormat(g.format)
		if err != nil {
			return nil, err
		}
		cfg.Output.Format = f
	}
	if flags.Changed("profile") {
		cfg.Output.Profile = export.Profile(g.profile)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newApp is the common prologue of every subcommand.
func newApp(cmd *cobra.Command, g *globalFlags) (*App, error) {
	logger := setupLogger(g.logLevel)
	cfg, err := loadConfig(cmd, g, logger)
	if err != nil {
		return nil, err
	}
	return NewApp(cfg, logger)
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

func crawlCmd(g *globalFlags) *cobra.Command {
	var (
		failFast    bool
		metricsAddr string
		tracing     bool
		noSinks     bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the taxonomy, asking the LLM on every cache miss",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(g.logLevel)
			cfg, err := loadConfig(cmd, g, logger)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("fail-fast") {
				cfg.Crawl.FailFast = failFast
			}
			if metricsAddr != "" {
				cfg.Metrics.Addr = metricsAddr
			}
			if tracing {
				cfg.Tracing.Enabled = true
			}

			app, err := NewApp(cfg, logger)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			defer app.Close(context.Background())

			if cfg.Metrics.Addr != "" {
				app.ServeMetrics(cfg.Metrics.Addr)
			}

			res, err := app.Build(ctx, app.liveOracle())
			app.logReport(res.Report)
			if err != nil {
				return fmt.Errorf("crawl: %w", err)
			}
			if err := app.WriteOutput(res); err != nil {
				return err
			}
			if noSinks {
				return nil
			}
			return app.PublishSinks(ctx, res.Document)
		},
	}

	cmd.Flags().BoolVar(&failFast, "fail-fast", false, "Abort on malformed answers and illegal names instead of skipping the branch")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve prometheus /metrics on this address during the crawl")
	cmd.Flags().BoolVar(&tracing, "trace", false, "Write OpenTelemetry spans to stderr")
	cmd.Flags().BoolVar(&noSinks, "no-sinks", false, "Skip the NATS and Neo4j sinks")
	return cmd
}

func exportCmd(g *globalFlags) *cobra.Command {
	var noSinks bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Rebuild the ontology from cached answers only",
		Long: `Export replays the traversal against the cache without contacting the
LLM. A concept missing from the cache fails the export.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			defer app.Close(context.Background())

			res, err := app.Build(ctx, oracle.OfflineOracle{})
			app.logReport(res.Report)
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			if err := app.WriteOutput(res); err != nil {
				return err
			}
			if noSinks {
				return nil
			}
			return app.PublishSinks(ctx, res.Document)
		},
	}
	cmd.Flags().BoolVar(&noSinks, "no-sinks", false, "Skip the NATS and Neo4j sinks")
	return cmd
}

func taxonomyCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxonomy",
		Short: "Print the active taxonomy table as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			data, err := app.table.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "schema <category>",
		Short: "Print the JSON schema the LLM must answer with for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd, g)
			if err != nil {
				return err
			}
			schema, err := app.table.Schema(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(schema)
		},
	})
	return cmd
}
