package web

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"chat-relay/errors"
)

type errorBody struct {
	Code  string `json:"code"`
	Error string `json:"error"`
}

// responder writes JSON responses and maps errors onto statuses. Handlers
// embed it so every response shares the one injected logger.
type responder struct {
	log *slog.Logger
}

func (re responder) json(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		re.log.Warn("response encoding failed", "err", err)
	}
}

// error maps the sentinel taxonomy onto statuses and stable error codes.
// Unknown errors become an opaque 500; their detail stays in the logs.
func (re responder) error(w http.ResponseWriter, err error) {
	switch {
	case stderrors.Is(err, errors.ErrValidation):
		re.json(w, http.StatusBadRequest, errorBody{Code: "ValidationError", Error: err.Error()})
	case stderrors.Is(err, errors.ErrAuthentication), stderrors.Is(err, errors.ErrInvalidCredentials):
		re.json(w, http.StatusUnauthorized, errorBody{Code: "AuthenticationError", Error: err.Error()})
	case stderrors.Is(err, errors.ErrForbidden):
		re.json(w, http.StatusForbidden, errorBody{Code: "ForbiddenError", Error: err.Error()})
	case stderrors.Is(err, errors.ErrNotFound):
		re.json(w, http.StatusNotFound, errorBody{Code: "NotFoundError", Error: err.Error()})
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		re.json(w, http.StatusConflict, errorBody{Code: "ConflictError", Error: err.Error()})
	default:
		re.log.Error("request failed", "err", err)
		re.json(w, http.StatusInternalServerError, errorBody{Code: "InternalError", Error: "internal error"})
	}
}
