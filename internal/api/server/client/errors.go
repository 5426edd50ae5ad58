package client

import (
	"errors"
	"net/http"
	"strings"
)

// Kind is the coarse category a provider failure is reported as.
type Kind int

const (
	KindUnknown Kind = iota
	KindAuth
	KindRateLimit
)

func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	default:
		return "unknown"
	}
}

const (
	reasonKeyInvalid        = "API_KEY_INVALID"
	reasonQuotaExceeded     = "QUOTA_EXCEEDED"
	statusResourceExhausted = "RESOURCE_EXHAUSTED"
)

// Error is a classified provider failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String() + " error"
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsAuth reports whether err was classified as an invalid credential.
func IsAuth(err error) bool {
	return kindOf(err) == KindAuth
}

// IsRateLimit reports whether err was classified as a quota failure.
func IsRateLimit(err error) bool {
	return kindOf(err) == KindRateLimit
}

func kindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Classify(err).Kind
}

// Classify wraps err in an *Error. Errors that are already classified are
// returned as is; anything else falls back to matching the provider markers in
// the message text.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: kindFromMessage(err.Error()), Message: err.Error(), Err: err}
}

func kindFromMessage(msg string) Kind {
	switch {
	case strings.Contains(msg, reasonKeyInvalid):
		return KindAuth
	case strings.Contains(msg, reasonQuotaExceeded):
		return KindRateLimit
	default:
		return KindUnknown
	}
}

func kindFromStatus(status int) Kind {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuth
	case http.StatusTooManyRequests:
		return KindRateLimit
	default:
		return KindUnknown
	}
}
