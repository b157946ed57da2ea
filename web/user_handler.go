package web

import (
	"net/http"

	"chat-relay/services"

	"github.com/go-chi/chi/v5"
)

type userHandler struct {
	responder
	svc services.IUserService
}

func (h *userHandler) register(r chi.Router) {
	r.Get("/users", h.handleSearch)
	r.Get("/users/{userID}", h.handleGet)
}

// handleSearch matches usernames and emails; no search parameter lists
// accounts up to the configured limit.
func (h *userHandler) handleSearch(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.Search(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusOK, users)
}

func (h *userHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Get(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusOK, user)
}
