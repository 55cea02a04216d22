package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// OpenAIConfig holds connection details for an OpenAI-compatible API.
type OpenAIConfig struct {
	BaseURL     string `yaml:"base_url"`
	APIKeyEnv   string `yaml:"api_key_env"`
	Model       string `yaml:"model"`
	TimeoutSecs int    `yaml:"timeout_secs"`
}

// Timeout returns TimeoutSecs as a duration.
func (c OpenAIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type      string        `yaml:"type"` // hash or openai
	Dimension int           `yaml:"dimension"`
	OpenAI    *OpenAIConfig `yaml:"openai,omitempty"`
}

// ChunkerConfig configures how documents are split into chunks.
type ChunkerConfig struct {
	Type     string `yaml:"type"`
	MaxChars int    `yaml:"max_chars"`
}

// IndexConfig configures the vector index and retrieval.
type IndexConfig struct {
	Dir             string `yaml:"dir"`
	OverfetchFactor int    `yaml:"overfetch_factor"`
	DefaultTopK     int    `yaml:"default_top_k"`
}

// DocumentsConfig configures the document database and upload storage.
type DocumentsConfig struct {
	DBPath    string `yaml:"db_path"`
	UploadDir string `yaml:"upload_dir"`
}

// AnswererConfig selects and configures the answer generator.
type AnswererConfig struct {
	Type         string        `yaml:"type"` // extractive or openai
	MaxSentences int           `yaml:"max_sentences"`
	OpenAI       *OpenAIConfig `yaml:"openai,omitempty"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	MaxUploadMB      int    `yaml:"max_upload_mb"`
	ShutdownTimeoutS int    `yaml:"shutdown_timeout_secs"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Log       LogConfig       `yaml:"log"`
	Embedder  EmbedderConfig  `yaml:"embedder"`
	Chunker   ChunkerConfig   `yaml:"chunker"`
	Index     IndexConfig     `yaml:"index"`
	Documents DocumentsConfig `yaml:"documents"`
	Answerer  AnswererConfig  `yaml:"answerer"`
	Server    ServerConfig    `yaml:"server"`
}

// Validate reports settings that cannot work.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "hash", "openai":
	default:
		return fmt.Errorf("config: unknown embedder type %q", c.Embedder.Type)
	}
	switch c.Answerer.Type {
	case "extractive", "openai":
	default:
		return fmt.Errorf("config: unknown answerer type %q", c.Answerer.Type)
	}
	if c.Chunker.Type != "line" {
		return fmt.Errorf("config: unknown chunker type %q", c.Chunker.Type)
	}
	if c.Embedder.Dimension <= 0 {
		return fmt.Errorf("config: embedder dimension must be positive, got %d", c.Embedder.Dimension)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("config: %w", err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./docrag.yaml first, then ~/.config/docrag/config.yaml.
// If neither exists, it writes defaults to ~/.config/docrag/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "docrag.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := DefaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// DefaultUserConfigPath returns ~/.config/docrag/config.yaml.
func DefaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "docrag", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig { return defaultConfig() }

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Log:       LogConfig{Level: "info", Format: "text"},
		Embedder:  EmbedderConfig{Type: "hash", Dimension: 384},
		Chunker:   ChunkerConfig{Type: "line", MaxChars: 500},
		Index:     IndexConfig{Dir: "data/index", OverfetchFactor: 5, DefaultTopK: 3},
		Documents: DocumentsConfig{DBPath: "data/docrag.db", UploadDir: "data/uploads"},
		Answerer:  AnswererConfig{Type: "extractive", MaxSentences: 3},
		Server:    ServerConfig{Addr: ":8080", MaxUploadMB: 32, ShutdownTimeoutS: 10},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = def.Log.Format
	}
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Chunker.Type == "" {
		cfg.Chunker.Type = def.Chunker.Type
	}
	if cfg.Chunker.MaxChars <= 0 {
		cfg.Chunker.MaxChars = def.Chunker.MaxChars
	}
	if cfg.Index.Dir == "" {
		cfg.Index.Dir = def.Index.Dir
	}
	if cfg.Index.OverfetchFactor <= 0 {
		cfg.Index.OverfetchFactor = def.Index.OverfetchFactor
	}
	if cfg.Index.DefaultTopK <= 0 {
		cfg.Index.DefaultTopK = def.Index.DefaultTopK
	}
	if cfg.Documents.DBPath == "" {
		cfg.Documents.DBPath = def.Documents.DBPath
	}
	if cfg.Documents.UploadDir == "" {
		cfg.Documents.UploadDir = def.Documents.UploadDir
	}
	if cfg.Answerer.Type == "" {
		cfg.Answerer.Type = def.Answerer.Type
	}
	if cfg.Answerer.MaxSentences <= 0 {
		cfg.Answerer.MaxSentences = def.Answerer.MaxSentences
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = def.Server.MaxUploadMB
	}
	if cfg.Server.ShutdownTimeoutS <= 0 {
		cfg.Server.ShutdownTimeoutS = def.Server.ShutdownTimeoutS
	}

	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Embedder.OpenAI, "text-embedding-3-small", 30)
		if cfg.Embedder.Dimension <= 0 {
			cfg.Embedder.Dimension = 1536
		}
	}
	if cfg.Embedder.Dimension <= 0 {
		cfg.Embedder.Dimension = def.Embedder.Dimension
	}
	if cfg.Answerer.Type == "openai" {
		if cfg.Answerer.OpenAI == nil {
			cfg.Answerer.OpenAI = &OpenAIConfig{}
		}
		applyOpenAIDefaults(cfg.Answerer.OpenAI, "gpt-4o-mini", 60)
	}
}

func applyOpenAIDefaults(c *OpenAIConfig, model string, timeout int) {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openai.com/v1"
	}
	if c.APIKeyEnv == "" {
		c.APIKeyEnv = "OPENAI_API_KEY"
	}
	if c.Model == "" {
		c.Model = model
	}
	if c.TimeoutSecs == 0 {
		c.TimeoutSecs = timeout
	}
}
