package oracle

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderLocal  = "local"

	DefaultEmbeddingModel  = "text-embedding-3-small"
	DefaultCompletionModel = "gpt-4o-mini"

	OpenAIDimension = 1536
	LocalDimension  = 384

	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

// OpenAIProvider implements Oracle using the OpenAI API.
type OpenAIProvider struct {
	apiKey          string
	embeddingModel  string
	completionModel string
	baseURL         string
	httpClient      *http.Client
	cache           *Cache
}

// NewOpenAIProvider creates an OpenAI-backed oracle.
func NewOpenAIProvider(apiKey string, cache *Cache) (*OpenAIProvider, error) {
	if apiKey == "" {
		apiKey = os.Getenv(EnvOpenAIAPIKey)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: %s not set", ErrNoProviderEnabled, EnvOpenAIAPIKey)
	}

	return &OpenAIProvider{
		apiKey:          apiKey,
		embeddingModel:  DefaultEmbeddingModel,
		completionModel: DefaultCompletionModel,
		baseURL:         "https://api.openai.com/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}, nil
}

func (o *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if o.cache != nil {
		if vec, ok := o.cache.Get(hash); ok {
			return vec, nil
		}
	}

	config := DefaultRetryConfig()
	vec, err := retryWithBackoff(ctx, config, func() ([]float32, error) {
		return o.callEmbeddings(ctx, text)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}

	if o.cache != nil {
		o.cache.Set(hash, vec)
	}
	return vec, nil
}

func (o *OpenAIProvider) callEmbeddings(ctx context.Context, text string) ([]float32, error) {
	reqBody := map[string]interface{}{
		"input": text,
		"model": o.embeddingModel,
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := o.post(ctx, "/embeddings", reqBody, &apiResp); err != nil {
		return nil, err
	}
	if len(apiResp.Data) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", ErrProviderFailed)
	}
	return apiResp.Data[0].Embedding, nil
}

func (o *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	config := DefaultRetryConfig()
	out, err := retryWithBackoff(ctx, config, func() (string, error) {
		return o.callCompletions(ctx, prompt)
	})
	if err != nil {
		return "", fmt.Errorf("%w after %d retries: %v", ErrProviderFailed, MaxRetries, err)
	}
	return out, nil
}

func (o *OpenAIProvider) callCompletions(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": o.completionModel,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"max_tokens": 300,
	}

	var apiResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := o.post(ctx, "/chat/completions", reqBody, &apiResp); err != nil {
		return "", err
	}
	if len(apiResp.Choices) == 0 {
		return "", fmt.Errorf("%w: no completion returned", ErrProviderFailed)
	}
	return apiResp.Choices[0].Message.Content, nil
}

func (o *OpenAIProvider) post(ctx context.Context, path string, reqBody, out interface{}) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", o.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (o *OpenAIProvider) Dimension() int {
	return OpenAIDimension
}

func (o *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIProvider) Close() error {
	o.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider is a deterministic offline oracle. Embeddings are derived
// from the text hash; completions are template summaries. The same input
// always produces the same output, which is what the pipeline's determinism
// guarantee requires when no API key is configured.
type LocalProvider struct {
	cache *Cache
}

// NewLocalProvider creates a local deterministic oracle.
func NewLocalProvider(cache *Cache) (*LocalProvider, error) {
	return &LocalProvider{cache: cache}, nil
}

func (l *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if vec, ok := l.cache.Get(hash); ok {
			return vec, nil
		}
	}

	vector := make([]float32, LocalDimension)
	seed := sha256.Sum256([]byte(text))
	for i := 0; i < LocalDimension; i++ {
		vector[i] = float32(seed[i%len(seed)]^byte(i)) / 255.0
	}

	if l.cache != nil {
		l.cache.Set(hash, vector)
	}
	return vector, nil
}

func (l *LocalProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	// Deterministic template response: echo the most informative lines of
	// the prompt so downstream text matching still has signal.
	lines := strings.Split(prompt, "\n")
	var kept []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasSuffix(line, ":") {
			continue
		}
		kept = append(kept, line)
		if len(kept) == 3 {
			break
		}
	}
	if len(kept) == 0 {
		return "code functionality summary unavailable", nil
	}
	return strings.Join(kept, " "), nil
}

func (l *LocalProvider) Dimension() int {
	return LocalDimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Close() error {
	return nil
}
