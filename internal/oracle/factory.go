package oracle

import (
	"fmt"
	"os"
	"strings"
)

// EnvProvider selects the oracle provider explicitly ("openai" or "local").
const EnvProvider = "DEBIAS_ORACLE_PROVIDER"

// Config holds oracle configuration.
type Config struct {
	Provider  string
	APIKey    string
	CacheSize int
}

// NewFromEnv creates an oracle based on environment variables.
// Priority:
//  1. DEBIAS_ORACLE_PROVIDER (openai, local)
//  2. OPENAI_API_KEY presence
//  3. Default to local
func NewFromEnv() (Oracle, error) {
	provider := strings.ToLower(os.Getenv(EnvProvider))
	apiKey := os.Getenv(EnvOpenAIAPIKey)

	cache := NewCache(10000)

	if provider != "" {
		switch provider {
		case ProviderOpenAI:
			return NewOpenAIProvider(apiKey, cache)
		case ProviderLocal:
			return NewLocalProvider(cache)
		default:
			return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, provider)
		}
	}

	if apiKey != "" {
		return NewOpenAIProvider(apiKey, cache)
	}

	return NewLocalProvider(cache)
}

// New creates an oracle with explicit configuration.
func New(cfg Config) (Oracle, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewOpenAIProvider(cfg.APIKey, cache)
	case ProviderLocal:
		return NewLocalProvider(cache)
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// DetectProvider returns the provider that would be used for the current
// environment.
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	return ProviderLocal
}
