package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bz888/gramfix/internal/logger"
	"google.golang.org/genai"
)

// GeminiClient calls the Gemini API through the genai SDK. A fresh SDK client
// is built per call because every request carries its own key.
type GeminiClient struct {
	model   string
	baseURL string
	timeout time.Duration
}

func NewGeminiClient(config ClientConfig) *GeminiClient {
	return &GeminiClient{
		model:   modelOrDefault(config.Model, DefaultGeminiModel),
		baseURL: config.BaseURL,
		timeout: config.Timeout,
	}
}

func (c *GeminiClient) Complete(ctx context.Context, prompt, apiKey string) (string, error) {
	localLogger := logger.NewLogger("gemini").WithField("model", c.model)

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	sdk, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: c.baseURL},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}

	contents := []*genai.Content{
		genai.NewContentFromText(prompt, genai.RoleUser),
	}
	resp, err := sdk.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		classified := classifyGemini(err)
		localLogger.Warn("Generation failed (", classified.Kind, ")")
		return "", classified
	}

	text := resp.Text()
	localLogger.Infof("Generated %d chars", len(text))
	return text, nil
}

func classifyGemini(err error) *Error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return Classify(err)
	}

	message := apiErr.Message
	if message == "" {
		message = err.Error()
	}

	kind := kindFromStatus(apiErr.Code)
	for _, detail := range apiErr.Details {
		switch detail["reason"] {
		case reasonKeyInvalid:
			kind = KindAuth
		case reasonQuotaExceeded:
			kind = KindRateLimit
		}
	}
	if kind == KindUnknown && apiErr.Status == statusResourceExhausted {
		kind = KindRateLimit
	}
	if kind == KindUnknown {
		kind = kindFromMessage(err.Error())
	}
	return &Error{Kind: kind, Message: message, Err: err}
}
