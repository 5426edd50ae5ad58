package handlers

// CorrectionRequest is the body of POST /correct
type CorrectionRequest struct {
	Text   string `json:"text"`
	APIKey string `json:"apiKey"`
}

// CorrectionResponse is returned when the provider produced text
type CorrectionResponse struct {
	Corrected string `json:"corrected"`
}

// ErrorResponse is the envelope for every failure. Code is additive; clients
// that only read Error keep working.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

const (
	CodeValidation = "validation_error"
	CodeAuth       = "auth_error"
	CodeRateLimit  = "rate_limit_error"
	CodeUnknown    = "unknown_error"
)
