package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bz888/gramfix/internal/api/server/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, prompt, apiKey string) (string, error) {
	args := m.Called(ctx, prompt, apiKey)
	return args.String(0), args.Error(1)
}

func postCorrect(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, map[string]string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/correct", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	h.CorrectHandler(rec, req)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestCorrectValidation(t *testing.T) {
	mockCompleter := new(MockCompleter)
	handler := NewHandler(mockCompleter, 0)

	tests := []struct {
		name  string
		req   CorrectionRequest
		field string
	}{
		{name: "missing text", req: CorrectionRequest{APIKey: "k"}, field: "text"},
		{name: "blank text", req: CorrectionRequest{Text: " \n\t", APIKey: "k"}, field: "text"},
		{name: "blank text and key", req: CorrectionRequest{Text: "  ", APIKey: " "}, field: "text"},
		{name: "missing key", req: CorrectionRequest{Text: "hello"}, field: "apiKey"},
		{name: "blank key", req: CorrectionRequest{Text: "hello", APIKey: "   "}, field: "apiKey"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := handler.Correct(context.Background(), tt.req)

			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr))
			assert.Equal(t, tt.field, validationErr.Field)
			assert.Equal(t, tt.field+" required", validationErr.Error())
		})
	}

	mockCompleter.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestCorrectSendsFixedPromptAndReturnsRawText(t *testing.T) {
	mockCompleter := new(MockCompleter)
	handler := NewHandler(mockCompleter, 0)

	text := "  i has  a apple\n"
	wantPrompt := "Fix grammar and spelling mistakes in this text, without changing its meaning:\n\n" + text
	mockCompleter.On("Complete", mock.Anything, wantPrompt, "AIza-key").
		Return("Here's the corrected text: I have an apple.", nil).Once()

	corrected, err := handler.Correct(context.Background(), CorrectionRequest{Text: text, APIKey: " AIza-key "})
	require.NoError(t, err)
	assert.Equal(t, "Here's the corrected text: I have an apple.", corrected)
	mockCompleter.AssertExpectations(t)
}

func TestCorrectHandlerSuccess(t *testing.T) {
	mockCompleter := new(MockCompleter)
	handler := NewHandler(mockCompleter, 0)
	mockCompleter.On("Complete", mock.Anything, mock.Anything, "key").Return("She goes home.", nil)

	rec, body := postCorrect(t, handler, `{"text":"she go home","apiKey":"key"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"corrected": "She goes home."}, body)
}

func TestCorrectHandlerErrors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		upstream   error
		wantStatus int
		wantError  string
		wantCode   string
	}{
		{
			name:       "missing text",
			body:       `{"apiKey":"key"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "text required",
			wantCode:   CodeValidation,
		},
		{
			name:       "missing key",
			body:       `{"text":"hello"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  "apiKey required",
			wantCode:   CodeValidation,
		},
		{
			name:       "empty body",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantError:  "text required",
			wantCode:   CodeValidation,
		},
		{
			name:       "malformed json",
			body:       `{"text":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid JSON body",
			wantCode:   CodeValidation,
		},
		{
			name:       "invalid key",
			body:       `{"text":"hello","apiKey":"bad"}`,
			upstream:   &client.Error{Kind: client.KindAuth, Message: "API key not valid"},
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid API key.",
			wantCode:   CodeAuth,
		},
		{
			name:       "invalid key marker in message",
			body:       `{"text":"hello","apiKey":"bad"}`,
			upstream:   errors.New("[GoogleGenerativeAI Error]: API_KEY_INVALID"),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid API key.",
			wantCode:   CodeAuth,
		},
		{
			name:       "quota",
			body:       `{"text":"hello","apiKey":"key"}`,
			upstream:   errors.New("QUOTA_EXCEEDED"),
			wantStatus: http.StatusTooManyRequests,
			wantError:  "API quota exceeded, try again later.",
			wantCode:   CodeRateLimit,
		},
		{
			name:       "other failure",
			body:       `{"text":"hello","apiKey":"key"}`,
			upstream:   errors.New("model overloaded"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "model overloaded",
			wantCode:   CodeUnknown,
		},
		{
			name:       "failure without message",
			body:       `{"text":"hello","apiKey":"key"}`,
			upstream:   errors.New(""),
			wantStatus: http.StatusInternalServerError,
			wantError:  "An error occurred while processing your request",
			wantCode:   CodeUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCompleter := new(MockCompleter)
			handler := NewHandler(mockCompleter, 0)
			if tt.upstream != nil {
				mockCompleter.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", tt.upstream).Once()
			}

			rec, body := postCorrect(t, handler, tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantError, body["error"])
			assert.Equal(t, tt.wantCode, body["code"])
			if tt.upstream == nil {
				mockCompleter.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCorrectHandlerRejectsOversizeBody(t *testing.T) {
	mockCompleter := new(MockCompleter)
	handler := NewHandler(mockCompleter, 32)

	rec, body := postCorrect(t, handler, `{"text":"`+strings.Repeat("a", 64)+`","apiKey":"key"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body too large", body["error"])
	mockCompleter.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatusHandler(t *testing.T) {
	handler := NewHandler(new(MockCompleter), 0)
	rec := httptest.NewRecorder()

	handler.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/correct", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Correction endpoint is working. Use POST to send text for correction."}`, rec.Body.String())
}

func TestPreflightHandlerHasEmptyBody(t *testing.T) {
	handler := NewHandler(new(MockCompleter), 0)
	rec := httptest.NewRecorder()

	handler.PreflightHandler(rec, httptest.NewRequest(http.MethodOptions, "/correct", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}
