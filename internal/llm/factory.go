package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrMissingAPIKey is returned when a hosted provider has no credential.
var ErrMissingAPIKey = errors.New("missing API key")

// NewProvider creates a new LLM provider based on the given provider type and model.
// Supported provider types: "google", "openai", "ollama".
func NewProvider(ctx context.Context, providerType, model, apiKey string) (Provider, error) {
	switch providerType {
	case "google":
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set GOOGLE_API_KEY or run `krishi auth set google`", ErrMissingAPIKey)
		}
		return NewGoogleProvider(ctx, apiKey, model, "")

	case "openai":
		if apiKey == "" {
			return nil, fmt.Errorf("%w: set OPENAI_API_KEY or run `krishi auth set openai`", ErrMissingAPIKey)
		}
		return NewOpenAIProvider(apiKey, model, ""), nil

	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", providerType)
	}
}
