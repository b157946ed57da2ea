package web

import (
	"encoding/json"
	"fmt"
	"net/http"

	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/services"

	"github.com/go-chi/chi/v5"
)

type authHandler struct {
	responder
	svc services.IAuthService
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func (h *authHandler) register(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

func (h *authHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.error(w, fmt.Errorf("%w: invalid request body", errors.ErrValidation))
		return
	}

	token, user, err := h.svc.Register(r.Context(), payload)
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusCreated, sessionResponse{Token: string(token), User: user})
}

func (h *authHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.error(w, fmt.Errorf("%w: invalid request body", errors.ErrValidation))
		return
	}

	token, user, err := h.svc.Login(r.Context(), payload)
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusOK, sessionResponse{Token: string(token), User: user})
}

// handleLogout exists for client symmetry. Tokens are stateless, so the
// server has nothing to revoke; clients discard the token on their side.
func (h *authHandler) handleLogout(w http.ResponseWriter, _ *http.Request) {
	h.json(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *authHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Me(r.Context(), identityFrom(r.Context()))
	if err != nil {
		h.error(w, err)
		return
	}
	h.json(w, http.StatusOK, user)
}
