package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"

	"github.com/go-chi/chi/v5"
)

type chatHandler struct {
	responder
	svc services.IChatService
}

func (h *chatHandler) register(r chi.Router) {
	r.Get("/chats", h.handleList)
	r.Post("/chats", h.handleCreate)
	r.Get("/chats/{chatID}", h.handleGet)
}

func (h *chatHandler) handleList(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context(), identityFrom(r.Context()))
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusOK, views)
}

// handleCreate opens either a direct or a group chat depending on the type
// field of the payload.
func (h *chatHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Type           domain.ChatType `json:"type"`
		Name           string          `json:"name"`
		ParticipantIDs []string        `json:"participantIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.error(w, fmt.Errorf("%w: invalid request body", errors.ErrValidation))
		return
	}

	identity := identityFrom(r.Context())
	var (
		view domain.ChatView
		err  error
	)
	switch payload.Type {
	case domain.ChatDirect:
		if len(payload.ParticipantIDs) != 1 {
			h.error(w, fmt.Errorf("%w: a direct chat names exactly one other participant", errors.ErrValidation))
			return
		}
		view, err = h.svc.CreateDirect(r.Context(), identity, payload.ParticipantIDs[0])
	case domain.ChatGroup:
		view, err = h.svc.CreateGroup(r.Context(), identity, payload.Name, payload.ParticipantIDs)
	default:
		h.error(w, fmt.Errorf("%w: type must be DIRECT or GROUP", errors.ErrValidation))
		return
	}
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusCreated, view)
}

func (h *chatHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.Get(r.Context(), identityFrom(r.Context()), chi.URLParam(r, "chatID"))
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusOK, view)
}
