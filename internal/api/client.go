package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bz888/gramfix/internal/api/server/handlers"
	"github.com/bz888/gramfix/internal/logger"
	"github.com/go-resty/resty/v2"
)

const (
	DefaultGatewayURL = "http://localhost:8080"

	networkErrorMessage = "Network error: Please check if the server is running and try again."
)

var localLogger = logger.NewLogger("api client")

// NetworkError means the gateway could not be reached at all.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return networkErrorMessage
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// APIError is an error the gateway answered with.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// IsAuth reports whether the gateway rejected the API key.
func (e *APIError) IsAuth() bool {
	if e.Code != "" {
		return e.Code == handlers.CodeAuth
	}
	return e.Status == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Message), "api key")
}

// IsAuthError reports whether err, or anything it wraps, is a rejected API key.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsAuth()
}

// Client talks to a correction gateway.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultGatewayURL
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetHeader("Content-Type", "application/json"),
	}
}

// Correct sends one correction request. The text is forwarded unchanged.
func (c *Client) Correct(ctx context.Context, text, apiKey string) (string, error) {
	var result handlers.CorrectionResponse
	var errResp handlers.ErrorResponse

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(handlers.CorrectionRequest{Text: text, APIKey: apiKey}).
		SetResult(&result).
		SetError(&errResp).
		Post("/correct")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		localLogger.Error("Failed to reach gateway: ", err)
		return "", &NetworkError{Err: err}
	}

	if resp.IsError() {
		apiErr := &APIError{Status: resp.StatusCode(), Code: errResp.Code, Message: errResp.Error}
		if apiErr.Message == "" {
			apiErr.Message = fmt.Sprintf("API Error: %d - %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
		}
		localLogger.WithField("status", apiErr.Status).Warn("Gateway returned an error: ", apiErr.Code)
		return "", apiErr
	}

	localLogger.Infof("Received %d chars from gateway", len(result.Corrected))
	return result.Corrected, nil
}

// Status asks the gateway for its GET /correct banner.
func (c *Client) Status(ctx context.Context) (string, error) {
	var result handlers.MessageResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&result).
		Get("/correct")
	if err != nil {
		return "", &NetworkError{Err: err}
	}
	if resp.IsError() {
		return "", &APIError{
			Status:  resp.StatusCode(),
			Message: fmt.Sprintf("API Error: %d - %s", resp.StatusCode(), strings.TrimSpace(resp.String())),
		}
	}
	return result.Message, nil
}
