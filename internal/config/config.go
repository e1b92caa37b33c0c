// Package config loads codegraph settings from an optional YAML file, a .env
// file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/dshills/codegraph-mcp/internal/embedder"
	"github.com/dshills/codegraph-mcp/internal/indexer"
	"github.com/dshills/codegraph-mcp/internal/ranker"
)

// Environment variables
const (
	EnvConfigFile   = "CODEGRAPH_CONFIG"
	EnvDBPath       = "CODEGRAPH_DB_PATH"
	EnvWorkers      = "CODEGRAPH_WORKERS"
	EnvMaxFileSize  = "CODEGRAPH_MAX_FILE_SIZE"
	EnvLogLevel     = "CODEGRAPH_LOG_LEVEL"
	EnvSummaryModel = "CODEGRAPH_SUMMARY_MODEL"
	EnvExtractor    = "CODEGRAPH_EXTRACTOR"
)

// Extraction strategies
const (
	ExtractorPatterns = "patterns"
	ExtractorSyntax   = "syntax"
)

// DefaultDBPath is the default location for the database. An empty path
// disables persistence.
const DefaultDBPath = "~/.codegraph/index.db"

// Config holds every setting of the server and CLI
type Config struct {
	DBPath      string    `yaml:"db_path"`
	Workers     int       `yaml:"workers"`
	MaxFileSize int64     `yaml:"max_file_size"`
	MaxFiles    int       `yaml:"max_files"`
	LogLevel    string    `yaml:"log_level"`
	ExtraIgnore []string  `yaml:"extra_ignore"`
	Extractor   string    `yaml:"extractor"`
	Embedding   Embedding `yaml:"embedding"`
	Summary     Summary   `yaml:"summary"`
}

// Embedding selects the embedding provider
type Embedding struct {
	Provider  string `yaml:"provider"`
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	CacheSize int    `yaml:"cache_size"`
}

// Summary configures detailed summaries. They are off unless a model is set.
type Summary struct {
	Model      string `yaml:"model"`
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	MaxMethods int    `yaml:"max_methods"`
}

// Enabled reports whether detailed summaries were requested
func (s Summary) Enabled() bool {
	return s.Model != ""
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DBPath:      DefaultDBPath,
		Workers:     runtime.NumCPU(),
		MaxFileSize: indexer.DefaultMaxFileSize,
		MaxFiles:    ranker.DefaultMaxFiles,
		LogLevel:    "info",
		Extractor:   ExtractorPatterns,
		Embedding: Embedding{
			CacheSize: embedder.DefaultCacheSize,
		},
	}
}

// Load reads .env from the working directory, then the YAML file named by
// CODEGRAPH_CONFIG, then environment overrides, and validates the result
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile merges the YAML file at path into c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides c with any environment variables that are set
func (c *Config) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvDBPath); ok {
		c.DBPath = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	if v := os.Getenv(EnvMaxFileSize); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvMaxFileSize, err)
		}
		c.MaxFileSize = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvSummaryModel); v != "" {
		c.Summary.Model = v
	}
	if v := os.Getenv(EnvExtractor); v != "" {
		c.Extractor = strings.ToLower(v)
	}

	if v := os.Getenv(embedder.EnvProvider); v != "" {
		c.Embedding.Provider = strings.ToLower(v)
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = embedder.DetectProvider()
	}
	if c.Embedding.APIKey == "" {
		switch c.Embedding.Provider {
		case embedder.ProviderJina:
			c.Embedding.APIKey = os.Getenv(embedder.EnvJinaAPIKey)
		case embedder.ProviderOpenAI:
			c.Embedding.APIKey = os.Getenv(embedder.EnvOpenAIAPIKey)
		}
	}
	if c.Summary.APIKey == "" {
		c.Summary.APIKey = os.Getenv(embedder.EnvOpenAIAPIKey)
	}
	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	var errs []error
	if c.Workers <= 0 {
		errs = append(errs, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.MaxFileSize <= 0 {
		errs = append(errs, fmt.Errorf("max_file_size must be positive, got %d", c.MaxFileSize))
	}
	if c.MaxFiles <= 0 {
		errs = append(errs, fmt.Errorf("max_files must be positive, got %d", c.MaxFiles))
	}
	if c.Embedding.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("embedding.cache_size cannot be negative"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch c.Extractor {
	case ExtractorPatterns, ExtractorSyntax:
	default:
		errs = append(errs, fmt.Errorf("unknown extractor %q", c.Extractor))
	}

	switch c.Embedding.Provider {
	case embedder.ProviderLocal, "":
	case embedder.ProviderJina, embedder.ProviderOpenAI:
		if c.Embedding.APIKey == "" {
			errs = append(errs, fmt.Errorf("embedding provider %s requires an API key", c.Embedding.Provider))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider))
	}

	if c.Summary.Enabled() && c.Summary.APIKey == "" {
		errs = append(errs, fmt.Errorf("summary model %s requires an API key", c.Summary.Model))
	}

	return errors.Join(errs...)
}

// ResolvedDBPath expands a leading ~ in DBPath
func (c *Config) ResolvedDBPath() (string, error) {
	if c.DBPath == "" || !strings.HasPrefix(c.DBPath, "~") {
		return c.DBPath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(c.DBPath, "~")), nil
}

// EmbedderConfig converts the embedding section for embedder.New
func (c *Config) EmbedderConfig() embedder.Config {
	return embedder.Config{
		Provider:  c.Embedding.Provider,
		APIKey:    c.Embedding.APIKey,
		Model:     c.Embedding.Model,
		BaseURL:   c.Embedding.BaseURL,
		CacheSize: c.Embedding.CacheSize,
	}
}

// Logger returns a text logger writing to w at the configured level
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
