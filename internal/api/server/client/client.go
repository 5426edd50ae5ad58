package client

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type Provider string

const (
	ProviderGemini Provider = "gemini"
	ProviderOpenAI Provider = "openai"
	ProviderOllama Provider = "ollama"
)

const (
	RoleUser = "user"

	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultOllamaModel = "llama3"
)

// Completer sends a single prompt to a text-generation provider using the
// caller's credential and returns the generated text unmodified.
type Completer interface {
	Complete(ctx context.Context, prompt, apiKey string) (string, error)
}

// ClientConfig holds the configuration for a provider client
type ClientConfig struct {
	Provider Provider
	Model    string
	// BaseURL overrides the provider endpoint. Empty means the provider default.
	BaseURL string
	// Timeout bounds one upstream call. Zero means no bound beyond the request context.
	Timeout time.Duration
}

// New builds the Completer for the configured provider.
func New(config ClientConfig) (Completer, error) {
	switch Provider(strings.ToLower(string(config.Provider))) {
	case ProviderGemini, "":
		return NewGeminiClient(config), nil
	case ProviderOpenAI:
		return NewOpenAIClient(config), nil
	case ProviderOllama:
		return NewOllamaClient(config), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", config.Provider)
	}
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func modelOrDefault(model, fallback string) string {
	if model == "" {
		return fallback
	}
	return model
}
