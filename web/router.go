// Package web exposes the HTTP surface: auth, users, chats, messages,
// image upload and the websocket endpoint, all behind one chi router.
package web

import (
	"log/slog"
	"net/http"

	"chat-relay/auth"
	"chat-relay/observability"
	"chat-relay/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Deps carries everything the router mounts.
type Deps struct {
	Tokens   *auth.TokenService
	Auth     services.IAuthService
	Users    services.IUserService
	Chats    services.IChatService
	Messages services.IMessageService
	Gateway  http.Handler
	Metrics  *observability.Metrics
	Log      *slog.Logger

	UploadDir     string
	MaxUploadSize int64
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	log := deps.Log
	if log == nil {
		log = slog.Default()
	}
	re := responder{log: log}

	authH := &authHandler{responder: re, svc: deps.Auth}
	userH := &userHandler{responder: re, svc: deps.Users}
	chatH := &chatHandler{responder: re, svc: deps.Chats}
	messageH := &messageHandler{responder: re, svc: deps.Messages}
	uploadH := &uploadHandler{responder: re, dir: deps.UploadDir, maxSize: deps.MaxUploadSize}

	r.Route("/api", func(api chi.Router) {
		authH.register(api)

		api.Group(func(private chi.Router) {
			private.Use(requireAuth(deps.Tokens, re))
			private.Get("/me", authH.handleMe)
			userH.register(private)
			chatH.register(private)
			messageH.register(private)
			private.Post("/image", uploadH.handleUpload)
		})
	})

	// Uploaded images and their thumbnails.
	fileServer := http.StripPrefix("/uploads/", http.FileServer(http.Dir(deps.UploadDir)))
	r.Get("/uploads/*", fileServer.ServeHTTP)

	if deps.Gateway != nil {
		r.Get("/ws", deps.Gateway.ServeHTTP)
	}

	r.Get("/debug/stats", func(w http.ResponseWriter, _ *http.Request) {
		re.json(w, http.StatusOK, deps.Metrics.Snapshot())
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		re.json(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
