package embedding

import (
	"fmt"
	"time"

	"runnerrag/config"
	"runnerrag/internal/port"
)

// NewFromConfig builds the configured embedder. A missing credential is
// reported here, before any index is opened.
func NewFromConfig(cfg config.EmbeddingConfig) (port.Embedder, error) {
	opts := Options{
		BaseURL:   cfg.BaseURL,
		Dimension: cfg.Dimension,
		Timeout:   time.Duration(cfg.TimeoutSecs) * time.Second,
		MaxInputs: cfg.MaxRequestInputs,
	}

	switch cfg.Provider {
	case "openai", "":
		key, err := cfg.ResolveAPIKey()
		if err != nil {
			return nil, err
		}
		return NewOpenAIEmbedder(key, cfg.Model, opts)
	case "openai-compatible":
		key, err := cfg.ResolveAPIKey()
		if err != nil {
			return nil, err
		}
		return NewOpenAICompatibleEmbedder(key, cfg.Model, opts)
	case "ollama":
		return NewOllamaEmbedder(cfg.Model, opts)
	case "local":
		return NewLocalEmbedder(cfg.Dimension), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.Provider)
	}
}
