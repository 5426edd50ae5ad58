package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bz888/gramfix/internal/api/server/client"
	"github.com/bz888/gramfix/internal/logger"
	"github.com/thedevsaddam/govalidator"
)

const (
	// DefaultMaxBodyBytes caps a correction request body.
	DefaultMaxBodyBytes int64 = 1 << 20

	promptPrefix = "Fix grammar and spelling mistakes in this text, without changing its meaning:\n\n"
	statusText   = "Correction endpoint is working. Use POST to send text for correction."
)

type Handler struct {
	completer    client.Completer
	maxBodyBytes int64
}

func NewHandler(completer client.Completer, maxBodyBytes int64) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &Handler{
		completer:    completer,
		maxBodyBytes: maxBodyBytes,
	}
}

// Correct validates req and asks the provider for a correction of its text
// using the caller's key. The provider's answer is returned verbatim.
func (h *Handler) Correct(ctx context.Context, req CorrectionRequest) (string, error) {
	if strings.TrimSpace(req.Text) == "" {
		return "", required("text")
	}
	if strings.TrimSpace(req.APIKey) == "" {
		return "", required("apiKey")
	}

	text, err := h.completer.Complete(ctx, promptPrefix+req.Text, strings.TrimSpace(req.APIKey))
	if err != nil {
		return "", client.Classify(err)
	}
	return text, nil
}

func (h *Handler) CorrectHandler(w http.ResponseWriter, r *http.Request) {
	localLogger := logger.NewLogger("CorrectHandler")

	req, err := h.decode(w, r)
	if err != nil {
		localLogger.Warn("Rejected request: ", err)
		writeError(w, err)
		return
	}

	corrected, err := h.Correct(r.Context(), req)
	if err != nil {
		status, resp := toResponse(err)
		localLogger.WithField("status", status).Error("Correction failed: ", err)
		writeJSON(w, status, resp)
		return
	}

	localLogger.Infof("Corrected %d chars into %d chars", len(req.Text), len(corrected))
	writeJSON(w, http.StatusOK, CorrectionResponse{Corrected: corrected})
}

// decode reads the body under the size cap and runs the presence rules.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (CorrectionRequest, error) {
	var req CorrectionRequest

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, &ValidationError{Field: "body", Message: "request body too large"}
		}
		return req, &ValidationError{Field: "body", Message: "failed to read request body"}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, required("text")
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	opts := govalidator.Options{
		Request: r,
		Data:    &req,
		Rules: govalidator.MapData{
			"text":   []string{"required"},
			"apiKey": []string{"required"},
		},
		Messages: govalidator.MapData{
			"text":   []string{"required:text required"},
			"apiKey": []string{"required:apiKey required"},
		},
	}
	e := govalidator.New(opts).ValidateJSON()
	for _, field := range []string{"text", "apiKey"} {
		if len(e[field]) != 0 {
			return req, required(field)
		}
	}
	if len(e) != 0 {
		return req, &ValidationError{Field: "body", Message: "invalid JSON body"}
	}
	return req, nil
}

func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: statusText})
}

// PreflightHandler answers CORS preflight requests with an empty body. The
// CORS headers themselves are set by the server middleware.
func (h *Handler) PreflightHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := struct {
		Status string `json:"status"`
	}{
		Status: "ok",
	}
	writeJSON(w, http.StatusOK, status)
}

func writeError(w http.ResponseWriter, err error) {
	status, resp := toResponse(err)
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.NewLogger("writeJSON").Error("Failed to encode response: ", err)
	}
}
