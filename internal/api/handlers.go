package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"docrag/internal/domain"
	"docrag/internal/prompt"
	"docrag/internal/service"
)

const (
	// MaxUploadBytes caps the size of an uploaded document.
	MaxUploadBytes     = 10 << 20
	defaultHistorySize = 20
	maxHistorySize     = 200
)

// Handler holds the dependencies for HTTP handlers.
type Handler struct {
	assistant *service.Assistant
}

// NewHandler creates a Handler serving assistant.
func NewHandler(assistant *service.Assistant) *Handler {
	return &Handler{assistant: assistant}
}

// HandleUpload handles POST /api/upload requests.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid upload: "+err.Error())
		return
	}

	file, header, err := r.FormFile("document")
	if errors.Is(err, http.ErrMissingFile) {
		file, header, err = r.FormFile("pdf")
	}
	if err != nil {
		sendError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		sendError(w, http.StatusBadRequest, "Failed to read upload: "+err.Error())
		return
	}
	if !utf8.Valid(data) {
		sendError(w, http.StatusBadRequest, "Document must be UTF-8 text")
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}
	res, err := h.assistant.Upload(r.Context(), tenantFrom(r), name, string(data))
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, UploadResponse{
		Message:   "Document processed successfully",
		Document:  res.Document,
		Chunks:    res.Chunks,
		Dimension: res.Dimension,
		Summary:   res.Summary,
	})
}

// HandleAsk handles POST /api/ask requests.
func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}

	ans, err := h.assistant.Ask(r.Context(), tenantFrom(r), req.Question)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, AskResponse{
		Answer:   ans.Text,
		Intent:   ans.Intent.String(),
		Quiz:     ans.Intent == prompt.IntentQuiz,
		Grounded: ans.Grounded(),
		Status:   ans.Status.String(),
		Document: ans.Document,
	})
}

// HandleReset handles POST /api/reset-pdf requests.
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.assistant.Reset(tenantFrom(r))
	sendJSON(w, http.StatusOK, MessageResponse{Message: "Document cleared"})
}

// HandleHistory handles GET /api/history requests.
func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistorySize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			sendError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistorySize)
	}

	exchanges, err := h.assistant.History(r.Context(), tenantFrom(r), limit)
	if errors.Is(err, service.ErrHistoryDisabled) {
		sendError(w, http.StatusNotFound, "History is disabled")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	resp := HistoryResponse{Exchanges: make([]Exchange, 0, len(exchanges))}
	for _, ex := range exchanges {
		resp.Exchanges = append(resp.Exchanges, Exchange{
			ID:        ex.ID,
			Question:  ex.Question,
			Answer:    ex.Answer,
			Document:  ex.Document,
			Quiz:      ex.Quiz,
			CreatedAt: ex.CreatedAt,
		})
	}
	sendJSON(w, http.StatusOK, resp)
}

// HandleHealth handles GET /health requests.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// statusFor maps an error to the HTTP status reported to clients.
func statusFor(err error) int {
	var perr *domain.ProviderError
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoActiveDocument):
		return http.StatusConflict
	case errors.As(err, &perr):
		if perr.Transient {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	sendError(w, statusFor(err), err.Error())
}

func sendError(w http.ResponseWriter, status int, msg string) {
	sendJSON(w, status, ErrorResponse{Error: msg})
}

// sendJSON writes a JSON response.
func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
