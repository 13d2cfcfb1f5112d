package api

import "time"

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AskResponse carries a generated answer.
type AskResponse struct {
	Answer   string `json:"answer"`
	Intent   string `json:"intent"`
	Quiz     bool   `json:"quiz"`
	Grounded bool   `json:"grounded"`
	Status   string `json:"status"`
	Document string `json:"document,omitempty"`
}

// UploadResponse describes an activated document.
type UploadResponse struct {
	Message   string `json:"message"`
	Document  string `json:"document"`
	Chunks    int    `json:"chunks"`
	Dimension int    `json:"dimension"`
	Summary   string `json:"summary,omitempty"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Exchange is one history entry.
type Exchange struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Document  string    `json:"document,omitempty"`
	Quiz      bool      `json:"quiz"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryResponse lists recent exchanges, newest first.
type HistoryResponse struct {
	Exchanges []Exchange `json:"exchanges"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status string `json:"status"`
}
