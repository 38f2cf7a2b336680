package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
	"runnerrag/internal/domain"
)

// Config holds all configuration for the knowledge base tool.
type Config struct {
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Index     IndexConfig     `yaml:"index"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Retrieve  RetrieveConfig  `yaml:"retrieve"`
	Watch     WatchConfig     `yaml:"watch"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// KnowledgeConfig describes where source documents live and which files count.
type KnowledgeConfig struct {
	Dir          string   `yaml:"dir"`
	TextPatterns []string `yaml:"text_patterns"` // read as UTF-8
	RichPatterns []string `yaml:"rich_patterns"` // read through the document reader
}

// ChunkingConfig holds the chunk policy, in characters.
type ChunkingConfig struct {
	MaxChars int `yaml:"max_chars"`
	Overlap  int `yaml:"overlap"`
}

// IndexConfig holds vector collection configuration.
type IndexConfig struct {
	Backend    string `yaml:"backend"` // "bolt", "sqlite", "memory"
	DataDir    string `yaml:"data_dir"`
	Collection string `yaml:"collection"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider         string `yaml:"provider"` // "openai", "openai-compatible", "ollama", "local"
	Model            string `yaml:"model"`
	BaseURL          string `yaml:"base_url,omitempty"`
	APIKey           string `yaml:"api_key,omitempty"`
	APIKeyEnv        string `yaml:"api_key_env"`
	Dimension        int    `yaml:"dimension"`
	TimeoutSecs      int    `yaml:"timeout_secs"`
	MaxRequestInputs int    `yaml:"max_request_inputs"`
	CacheSize        int    `yaml:"cache_size"`
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK int `yaml:"top_k"`
}

// WatchConfig holds knowledge directory watch settings.
type WatchConfig struct {
	DebounceMS int `yaml:"debounce_ms"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Knowledge: KnowledgeConfig{
			Dir:          "knowledge",
			TextPatterns: []string{"*.md", "*.txt"},
			RichPatterns: []string{"*.docx"},
		},
		Chunking: ChunkingConfig{
			MaxChars: 1200,
			Overlap:  200,
		},
		Index: IndexConfig{
			Backend:    "bolt",
			DataDir:    ".runnerrag",
			Collection: "runner_kb",
		},
		Embedding: EmbeddingConfig{
			Provider:         "openai",
			Model:            "text-embedding-3-small",
			APIKeyEnv:        "OPENAI_API_KEY",
			Dimension:        1536,
			TimeoutSecs:      60,
			MaxRequestInputs: 2048,
			CacheSize:        256,
		},
		Retrieve: RetrieveConfig{
			TopK: 3,
		},
		Watch: WatchConfig{
			DebounceMS: 1000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for runnerrag.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "runnerrag.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".runnerrag", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	if c.Chunking.MaxChars <= 0 || c.Chunking.Overlap < 0 || c.Chunking.MaxChars-c.Chunking.Overlap <= 0 {
		return fmt.Errorf("%w: max_chars=%d overlap=%d", domain.ErrInvalidChunkConfig, c.Chunking.MaxChars, c.Chunking.Overlap)
	}
	switch c.Index.Backend {
	case "bolt", "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported index backend: %s", c.Index.Backend)
	}
	if strings.TrimSpace(c.Index.Collection) == "" {
		return fmt.Errorf("index collection name is empty")
	}
	if c.Retrieve.TopK <= 0 {
		return fmt.Errorf("retrieve top_k must be positive, got %d", c.Retrieve.TopK)
	}
	return nil
}

// ResolveAPIKey returns the explicit api_key, falling back to the api_key_env variable.
func (e EmbeddingConfig) ResolveAPIKey() (string, error) {
	if key := strings.TrimSpace(e.APIKey); key != "" {
		return key, nil
	}
	if e.APIKeyEnv != "" {
		if key := strings.TrimSpace(os.Getenv(e.APIKeyEnv)); key != "" {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: set %s or embedding.api_key", domain.ErrMissingCredential, e.APIKeyEnv)
}

// KnowledgeDir resolves the knowledge directory against root.
func (c *Config) KnowledgeDir(root string) string {
	return resolve(root, c.Knowledge.Dir)
}

// DataDir resolves the index data directory against root.
func (c *Config) DataDir(root string) string {
	return resolve(root, c.Index.DataDir)
}

// IndexDBPath returns the path to the bbolt collection file.
func IndexDBPath(dataDir string) string {
	return filepath.Join(dataDir, "index.db")
}

// SQLitePath returns the path to the sqlite collection file.
func SQLitePath(dataDir string) string {
	return filepath.Join(dataDir, "index.sqlite")
}

// EnsureDataDir ensures the data directory exists.
func EnsureDataDir(dataDir string) error {
	return os.MkdirAll(dataDir, 0755)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
