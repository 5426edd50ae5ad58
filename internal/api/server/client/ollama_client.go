package client

import (
	"context"
	"fmt"
	"time"

	"github.com/bz888/gramfix/internal/logger"
	"github.com/go-resty/resty/v2"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaClient represents a client for a local Ollama server. Ollama has no
// notion of an API key, so a non-empty key is only forwarded as a bearer
// token for deployments that sit behind an authenticating proxy.
type OllamaClient struct {
	model string
	http  *resty.Client
}

func NewOllamaClient(config ClientConfig) *OllamaClient {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	return &OllamaClient{
		model: modelOrDefault(config.Model, DefaultOllamaModel),
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			SetTimeout(config.Timeout),
	}
}

func (c *OllamaClient) Complete(ctx context.Context, prompt, apiKey string) (string, error) {
	localLogger := logger.NewLogger("ollama").WithField("model", c.model)

	var result OllamaChatResponse
	var errResp OllamaErrorResponse
	req := c.http.R().
		SetContext(ctx).
		SetBody(OllamaChatRequest{
			Model:    c.model,
			Messages: []OllamaMessage{{Role: RoleUser, Content: prompt}},
			Stream:   false,
		}).
		SetResult(&result).
		SetError(&errResp)
	if apiKey != "" {
		req.SetAuthToken(apiKey)
	}

	resp, err := req.Post("/api/chat")
	if err != nil {
		localLogger.Error("Failed to request on ollama chat: ", err)
		return "", Classify(err)
	}

	if resp.IsError() {
		message := errResp.Error
		if message == "" {
			message = fmt.Sprintf("received non-200 response: %d", resp.StatusCode())
		}
		kind := kindFromStatus(resp.StatusCode())
		if kind == KindUnknown {
			kind = kindFromMessage(message)
		}
		localLogger.Warn("Chat failed with status ", resp.StatusCode())
		return "", &Error{Kind: kind, Message: message}
	}

	localLogger.Infof("Generated %d chars in %s", len(result.Message.Content), resp.Time().Round(time.Millisecond))
	return result.Message.Content, nil
}
