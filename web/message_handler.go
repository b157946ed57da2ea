package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"chat-relay/errors"
	"chat-relay/services"

	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 50

type messageHandler struct {
	responder
	svc services.IMessageService
}

func (h *messageHandler) register(r chi.Router) {
	r.Get("/chats/{chatID}/messages", h.handleHistory)
	r.Post("/chats/{chatID}/messages", h.handleSend)
}

func (h *messageHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultHistoryLimit)
	offset := queryInt(r, "offset", 0)

	messages, err := h.svc.History(r.Context(), identityFrom(r.Context()),
		chi.URLParam(r, "chatID"), limit, offset)
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusOK, messages)
}

func (h *messageHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Content  string `json:"content"`
		ImageURL string `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.error(w, fmt.Errorf("%w: invalid request body", errors.ErrValidation))
		return
	}

	event, err := h.svc.Send(r.Context(), identityFrom(r.Context()), services.SendMessage{
		ChatID:   chi.URLParam(r, "chatID"),
		Content:  payload.Content,
		ImageURL: payload.ImageURL,
	})
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusCreated, event.Message)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}
