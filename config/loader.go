package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/c360studio/ontocrawl/export"
)

const (
	// ProjectConfigFile is the name of the project-level config file
	ProjectConfigFile = "ontocrawl.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/ontocrawl"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
	// EnvName selects the environment file .env.<name>.local
	EnvName = "ONTOCRAWL_ENV"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
	// explicit replaces the project config search when set
	explicit string
	// home and dir override the user home and working directory in tests
	home string
	dir  string
	env  func(string) (string, bool)
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithConfigFile uses path as the project config instead of searching.
func WithConfigFile(path string) LoaderOption {
	return func(l *Loader) {
		l.explicit = path
	}
}

// WithHomeDir overrides the user home directory.
func WithHomeDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.home = dir
	}
}

// WithWorkDir sets the directory the project config search starts from.
func WithWorkDir(dir string) LoaderOption {
	return func(l *Loader) {
		l.dir = dir
	}
}

// WithEnv replaces os.LookupEnv.
func WithEnv(lookup func(string) (string, bool)) LoaderOption {
	return func(l *Loader) {
		l.env = lookup
	}
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger, opts ...LoaderOption) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	l := &Loader{logger: logger, env: os.LookupEnv}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/ontocrawl/config.yaml)
// 3. Project config (ontocrawl.yaml in current or parent directories)
// 4. Environment variables
func (l *Loader) Load() (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	if userConfigPath := l.userConfigPath(); userConfigPath != "" {
		if userConfig, err := LoadFromFile(userConfigPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
			config.Merge(userConfig)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
		}
	}

	// Load project config
	if l.explicit != "" {
		projectConfig, err := LoadFromFile(l.explicit)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded config file", slog.String("path", l.explicit))
		config.Merge(projectConfig)
	} else if projectConfigPath := l.findProjectConfig(); projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	if err := l.applyEnv(config); err != nil {
		return nil, err
	}

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv overrides fields from environment variables.
func (l *Loader) applyEnv(c *Config) error {
	str := func(key string, dst *string) {
		if v, ok := l.env(key); ok && v != "" {
			*dst = v
		}
	}
	str("ONTOCRAWL_NAMESPACE", &c.Namespace)
	str("ONTOCRAWL_PROVIDER", &c.Oracle.Endpoint.Provider)
	str("ONTOCRAWL_MODEL", &c.Oracle.Endpoint.Model)
	str("ONTOCRAWL_ENDPOINT", &c.Oracle.Endpoint.URL)
	str("ONTOCRAWL_CACHE_DIR", &c.Cache.Dir)
	str("ONTOCRAWL_TAXONOMY", &c.Taxonomy.File)
	str("ONTOCRAWL_OUTPUT", &c.Output.Path)
	str("NATS_URL", &c.Sinks.NATS.URL)
	str("NEO4J_URI", &c.Sinks.Neo4j.URI)
	str("NEO4J_USER", &c.Sinks.Neo4j.User)
	str("NEO4J_PASSWORD", &c.Sinks.Neo4j.Password)
	str("NEO4J_DATABASE", &c.Sinks.Neo4j.Database)

	if v, ok := l.env("ONTOCRAWL_FORMAT"); ok && v != "" {
		f, err := export.ParseFormat(v)
		if err != nil {
			return fmt.Errorf("ONTOCRAWL_FORMAT: %w", err)
		}
		c.Output.Format = f
	}
	if v, ok := l.env("ONTOCRAWL_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("ONTOCRAWL_TIMEOUT: %w", err)
		}
		c.Oracle.Timeout = d
	}
	if v, ok := l.env("ONTOCRAWL_FAIL_FAST"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ONTOCRAWL_FAIL_FAST: %w", err)
		}
		c.Crawl.FailFast = b
	}
	return nil
}

// LoadEnvFiles loads .env.<ONTOCRAWL_ENV>.local and then .env from dir.
// Variables already set are never overwritten, so the first file wins.
// Missing files are ignored.
func LoadEnvFiles(dir string) ([]string, error) {
	var candidates []string
	if name := os.Getenv(EnvName); name != "" {
		candidates = append(candidates, filepath.Join(dir, ".env."+name+".local"))
	}
	candidates = append(candidates, filepath.Join(dir, ".env"))

	var loaded []string
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("load %s: %w", path, err)
		}
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// EnsureUserConfig creates the user config file with defaults if it doesn't exist
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()
	if userConfigPath == "" {
		return errors.New("cannot determine home directory")
	}

	// Check if it already exists
	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	// Create default config
	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home := l.home
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return ""
		}
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for ontocrawl.yaml in current and parent directories
func (l *Loader) findProjectConfig() string {
	dir := l.dir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return ""
		}
		dir = cwd
	}

	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}
