// Package email is the notification sink for order confirmations. It does not
// deliver mail; sent messages are logged and kept in a small outbox that can
// be inspected over HTTP.
package email

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"sync"
	"time"
)

const DefaultOutboxSize = 100

type Message struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

type Handler struct {
	mu     sync.Mutex
	outbox []Message
	limit  int
	logger *slog.Logger
}

func NewHandler(outboxSize int, logger *slog.Logger) *Handler {
	if outboxSize <= 0 {
		outboxSize = DefaultOutboxSize
	}
	return &Handler{
		limit:  outboxSize,
		logger: logger,
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type sendResponse struct {
	Status string `json:"status"`
}

func (h *Handler) HandleSend(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := mail.ParseAddress(req.To); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid recipient address")
		return
	}

	if strings.TrimSpace(req.Subject) == "" {
		h.writeError(w, http.StatusBadRequest, "subject is required")
		return
	}

	h.record(Message{To: req.To, Subject: req.Subject, Body: req.Body, SentAt: time.Now().UTC()})

	h.logger.Info("email sent", "to", req.To, "subject", req.Subject)

	h.writeJSON(w, http.StatusOK, sendResponse{Status: "sent"})
}

// HandleSent lists the outbox, most recent first.
func (h *Handler) HandleSent(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	messages := make([]Message, 0, len(h.outbox))
	for i := len(h.outbox) - 1; i >= 0; i-- {
		messages = append(messages, h.outbox[i])
	}
	h.mu.Unlock()

	h.writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) record(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.outbox = append(h.outbox, m)
	if over := len(h.outbox) - h.limit; over > 0 {
		h.outbox = append([]Message(nil), h.outbox[over:]...)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
