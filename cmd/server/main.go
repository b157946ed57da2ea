package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/auth"
	"chat-relay/bus"
	"chat-relay/domain"
	"chat-relay/gateway"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/services"
	"chat-relay/web"
	"chat-relay/wordlist"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the server lifecycle, and centralizes
// error reporting. Returning instead of calling os.Exit keeps every defer
// (database close, index flush) running on the way out.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	config, err := internal.Load()
	if err != nil {
		return exitConfig, err
	}

	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: internal.SlogLevel(config.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		logger.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	if err := os.MkdirAll(config.UploadDir, 0o755); err != nil {
		return exitRuntime, fmt.Errorf("upload directory: %w", err)
	}

	// 3. Moderation dictionaries
	words, err := wordlist.Load()
	if err != nil {
		return exitRuntime, fmt.Errorf("wordlist: %w", err)
	}
	moderator, err := moderation.NewModerator(words.Words, charReplacement)
	if err != nil {
		return exitRuntime, fmt.Errorf("moderator: %w", err)
	}
	logger.Info("Moderation dictionaries loaded",
		"words", len(words.Words), "languages", words.Languages)

	// 4. Repositories, event bus and services
	userRepo := repositories.NewUserRepository(db, blugeWriter, logger)
	chatRepo := repositories.NewChatRepository(db, logger)
	messageRepo := repositories.NewMessageRepository(db, logger)

	events := bus.New[domain.MessageEvent](logger, config.EventBufferSize)
	metrics := observability.NewMetrics()
	events.OnDrop(metrics.IncrEventsDropped)
	tokens := auth.NewTokenService(config.JWTSecret, config.AuthTokenDuration)
	guard := services.NewGuard(chatRepo)

	authService := services.NewAuthService(userRepo, tokens)
	userService := services.NewUserService(userRepo, config.SearchLimit)
	chatService := services.NewChatService(chatRepo, userRepo, messageRepo, logger)
	messageService := services.NewMessageService(
		guard, chatRepo, userRepo, messageRepo, &moderator, events, metrics, logger)

	// 5. Transport
	gw := gateway.New(tokens, guard, events, metrics, logger)
	router := web.NewRouter(web.Deps{
		Tokens:        tokens,
		Auth:          authService,
		Users:         userService,
		Chats:         chatService,
		Messages:      messageService,
		Gateway:       gw,
		Metrics:       metrics,
		Log:           logger,
		UploadDir:     config.UploadDir,
		MaxUploadSize: config.MaxUploadSize,
	})

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:              address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 6. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errChan:
		return exitRuntime, err
	}

	// 8. Final Cleanup (Graceful Shutdown)
	// In-flight requests get the shutdown timeout to finish; websocket
	// connections are closed by the server teardown.
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return exitRuntime, fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("Program stopped cleanly")

	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.INFO)
	}

	return options
}
