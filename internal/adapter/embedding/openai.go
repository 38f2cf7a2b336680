package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"runnerrag/internal/domain"
)

const defaultMaxRequestInputs = 2048

type OpenAIEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	maxInputs int
	client    *http.Client
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Options tunes an OpenAI-compatible embedder.
type Options struct {
	BaseURL   string
	Dimension int // 0 picks the model's known dimension
	Timeout   time.Duration
	MaxInputs int // inputs per HTTP request
}

func NewOpenAIEmbedder(apiKey, model string, opts Options) (*OpenAIEmbedder, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	return NewOpenAICompatibleEmbedder(apiKey, model, opts)
}

func NewOllamaEmbedder(model string, opts Options) (*OpenAIEmbedder, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:11434/v1"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 120 * time.Second
	}
	if opts.Dimension == 0 {
		switch model {
		case "mxbai-embed-large":
			opts.Dimension = 1024
		case "all-minilm":
			opts.Dimension = 384
		default:
			opts.Dimension = 768
		}
	}
	return NewOpenAICompatibleEmbedder("ollama", model, opts)
}

func NewOpenAICompatibleEmbedder(apiKey, model string, opts Options) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, domain.ErrMissingCredential
	}
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is empty")
	}

	dimension := opts.Dimension
	if dimension == 0 {
		dimension = 1536
		switch model {
		case "text-embedding-3-large":
			dimension = 3072
		case "text-embedding-3-small", "text-embedding-ada-002":
			dimension = 1536
		}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	maxInputs := opts.MaxInputs
	if maxInputs <= 0 {
		maxInputs = defaultMaxRequestInputs
	}

	return &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   opts.BaseURL,
		dimension: dimension,
		maxInputs: maxInputs,
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Embed returns one vector per text. Any failure is reported once, without retry.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	allEmbeddings := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += e.maxInputs {
		end := i + e.maxInputs
		if end > len(texts) {
			end = len(texts)
		}

		embeddings, err := e.embedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingFailed, err)
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Input: texts,
		Model: e.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	start := time.Now()
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, preview(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", preview(body), err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	if len(embResp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(embResp.Data))
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("embedding index %d out of range", data.Index)
		}
		embeddings[data.Index] = data.Embedding
	}
	for i, v := range embeddings {
		if len(v) == 0 {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}

	slog.Debug("embedding request done",
		"model", e.model,
		"inputs", len(texts),
		"tokens", embResp.Usage.TotalTokens,
		"duration", time.Since(start))

	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
