package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bz888/gramfix/internal/logger"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient represents a client for the OpenAI API or any server that speaks
// its chat completions protocol
type OpenAIClient struct {
	model   string
	baseURL string
	timeout time.Duration
}

func NewOpenAIClient(config ClientConfig) *OpenAIClient {
	return &OpenAIClient{
		model:   modelOrDefault(config.Model, DefaultOpenAIModel),
		baseURL: config.BaseURL,
		timeout: config.Timeout,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt, apiKey string) (string, error) {
	localLogger := logger.NewLogger("openai").WithField("model", c.model)

	ctx, cancel := withTimeout(ctx, c.timeout)
	defer cancel()

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if c.baseURL != "" {
		opts = append(opts, option.WithBaseURL(c.baseURL))
	}
	sdk := openai.NewClient(opts...)

	resp, err := sdk.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		classified := classifyOpenAI(err)
		localLogger.Warn("Completion failed (", classified.Kind, ")")
		return "", classified
	}

	if len(resp.Choices) == 0 {
		return "", &Error{Kind: KindUnknown, Message: "no completion choices returned"}
	}

	text := resp.Choices[0].Message.Content
	localLogger.Infof("Generated %d chars", len(text))
	return text, nil
}

func classifyOpenAI(err error) *Error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return Classify(err)
	}

	message := apiErr.Message
	if message == "" {
		message = fmt.Sprintf("openai request failed with status %d", apiErr.StatusCode)
	}

	kind := kindFromStatus(apiErr.StatusCode)
	if kind == KindUnknown {
		kind = kindFromMessage(err.Error())
	}
	return &Error{Kind: kind, Message: message, Err: err}
}
