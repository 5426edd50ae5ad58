package handlers

import (
	"errors"
	"net/http"

	"github.com/bz888/gramfix/internal/api/server/client"
)

const (
	msgInvalidKey    = "Invalid API key."
	msgQuotaExceeded = "API quota exceeded, try again later."
	msgFallback      = "An error occurred while processing your request"
)

// ValidationError reports a missing or blank request field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Field + " required"
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: field + " required"}
}

// toResponse maps an error from Correct to the HTTP status and envelope sent
// to the caller.
func toResponse(err error) (int, ErrorResponse) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, ErrorResponse{Error: validationErr.Error(), Code: CodeValidation}
	}

	classified := client.Classify(err)
	switch classified.Kind {
	case client.KindAuth:
		return http.StatusBadRequest, ErrorResponse{Error: msgInvalidKey, Code: CodeAuth}
	case client.KindRateLimit:
		return http.StatusTooManyRequests, ErrorResponse{Error: msgQuotaExceeded, Code: CodeRateLimit}
	}

	message := classified.Message
	if message == "" && classified.Err != nil {
		message = classified.Err.Error()
	}
	if message == "" {
		message = msgFallback
	}
	return http.StatusInternalServerError, ErrorResponse{Error: message, Code: CodeUnknown}
}
