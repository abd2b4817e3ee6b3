// Package config loads the TOML configuration file and applies
// defaults for anything left unset.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Provider names accepted in the embedding and llm sections.
const (
	ProviderOllama    = "ollama"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Default values applied when the config file omits them.
const (
	DefaultHost         = "127.0.0.1"
	DefaultPort         = 8080
	DefaultIndexBackend = "sqlite"
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 20
	DefaultDebounceMS   = 500
	DefaultEmbedRPS     = 10
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Storage   StorageConfig   `toml:"storage"`
	Embedding EmbeddingConfig `toml:"embedding"`
	LLM       LLMConfig       `toml:"llm"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Watch     WatchConfig     `toml:"watch"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StorageConfig configures where local state lives.
type StorageConfig struct {
	// DataDir holds the SQLite databases (default: ~/.docvault/data).
	DataDir string `toml:"data_dir"`

	// Index selects the vector index backend: "sqlite" or "memory".
	Index string `toml:"index"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is "ollama" or "openai".
	Provider string `toml:"provider"`

	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Model      string `toml:"model"`
	Dimensions int    `toml:"dimensions"`

	// RequestsPerSecond caps embedding calls during ingestion.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// IsConfigured reports whether an embedding provider is set.
func (c EmbeddingConfig) IsConfigured() bool {
	return c.Provider != ""
}

// LLMConfig configures the answer-generation provider. Optional:
// without it queries return sources only.
type LLMConfig struct {
	// Provider is "ollama", "openai" or "anthropic".
	Provider string `toml:"provider"`

	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// IsConfigured reports whether an LLM provider is set.
func (c LLMConfig) IsConfigured() bool {
	return c.Provider != ""
}

// ChunkingConfig configures the sliding-window chunker.
type ChunkingConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

// WatchConfig configures the directory watcher.
type WatchConfig struct {
	// DebounceMS is how long to wait after the last write event
	// before ingesting a file, in milliseconds.
	DebounceMS int `toml:"debounce_ms"`
}

// DefaultPath returns the default config file location
// (~/.docvault/config.toml).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".docvault", "config.toml"), nil
}

// Load reads the config file at path. An empty path means the default
// location; a missing file at the default location is not an error and
// yields the built-in defaults.
func Load(path string) (*Config, error) {
	usingDefault := path == ""
	if usingDefault {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && usingDefault:
		// No config file yet: run on defaults.
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Storage.Index == "" {
		c.Storage.Index = DefaultIndexBackend
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = ProviderOllama
	}
	if c.Embedding.RequestsPerSecond == 0 {
		c.Embedding.RequestsPerSecond = DefaultEmbedRPS
	}
	if c.Chunking.Size == 0 {
		c.Chunking.Size = DefaultChunkSize
	}
	if c.Chunking.Overlap == 0 {
		c.Chunking.Overlap = DefaultChunkOverlap
	}
	if c.Watch.DebounceMS == 0 {
		c.Watch.DebounceMS = DefaultDebounceMS
	}
}

func (c *Config) validate() error {
	if c.Storage.Index != "sqlite" && c.Storage.Index != "memory" {
		return fmt.Errorf("storage.index must be \"sqlite\" or \"memory\", got %q", c.Storage.Index)
	}
	switch c.Embedding.Provider {
	case ProviderOllama, ProviderOpenAI:
	default:
		return fmt.Errorf("embedding.provider must be %q or %q, got %q",
			ProviderOllama, ProviderOpenAI, c.Embedding.Provider)
	}
	if c.LLM.IsConfigured() {
		switch c.LLM.Provider {
		case ProviderOllama, ProviderOpenAI, ProviderAnthropic:
		default:
			return fmt.Errorf("llm.provider must be %q, %q or %q, got %q",
				ProviderOllama, ProviderOpenAI, ProviderAnthropic, c.LLM.Provider)
		}
	}
	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be in [0, size), got %d", c.Chunking.Overlap)
	}
	return nil
}
