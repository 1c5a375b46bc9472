// Vigil - Telegram moderation assistant bot
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adelyanov/vigil/internal/api"
	"github.com/adelyanov/vigil/internal/config"
	"github.com/adelyanov/vigil/internal/dispatch"
	"github.com/adelyanov/vigil/internal/identity"
	"github.com/adelyanov/vigil/internal/middleware"
	"github.com/adelyanov/vigil/internal/ops"
	"github.com/adelyanov/vigil/internal/session"
	"github.com/adelyanov/vigil/internal/status"
	"github.com/adelyanov/vigil/internal/store"
	"github.com/adelyanov/vigil/internal/telegram"
	"github.com/adelyanov/vigil/internal/watch"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "webhook", cfg.UseWebhook())

	// Initialize dependencies.
	repo, err := store.NewSQLite(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Database health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database connected")

	client := telegram.NewClient(cfg.BotToken)

	// Fail fast on a bad token before wiring anything else.
	meCtx, cancelMe := context.WithTimeout(context.Background(), 10*time.Second)
	me, err := client.GetMe(meCtx)
	cancelMe()
	if err != nil {
		slog.Error("Bot token check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Authenticated with Telegram", "bot_username", me.Username)

	// Initialize services.
	sessions := session.NewStore()
	resolver := status.NewResolver(cfg.ProbeTimeout)
	feed := ops.NewFeed()

	dispatcher := dispatch.New(sessions, resolver, client, repo, feed, cfg.ReportChatID)
	dispatcher.SetBotUsername(me.Username)

	handleUpdate := makeUpdateHandler(cfg, dispatcher)

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS([]string{"*"}))

	// Operator surface.
	api.NewHandler(repo).RegisterRoutes(r)
	r.Get("/ws/activity", feed.ServeHTTP)

	if cfg.UseWebhook() {
		r.Post("/webhook", telegram.NewWebhookHandler(cfg.WebhookSecret, handleUpdate))
	}

	// Create server.
	// Note: the activity feed holds WebSocket connections open indefinitely,
	// so no write timeout.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	// Start background workers.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session.StartSweeper(ctx, sessions, cfg.SessionTTL)
	watch.StartWatcher(ctx, repo, resolver, client, feed, cfg.WatchInterval)

	// Bring up the update ingress.
	if cfg.UseWebhook() {
		webhookURL := cfg.PublicURL + "/webhook"
		if err := client.SetWebhook(ctx, webhookURL, cfg.WebhookSecret); err != nil {
			slog.Error("Failed to register webhook", "error", err, "url", webhookURL)
			os.Exit(1)
		}
		slog.Info("Webhook registered", "url", webhookURL)
	} else {
		if err := client.DeleteWebhook(ctx); err != nil {
			slog.Warn("Failed to delete stale webhook before polling", "error", err)
		}
		telegram.StartPoller(ctx, client, handleUpdate)
	}

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Let in-flight status probes deliver their result edits.
	dispatcher.Wait()

	slog.Info("Server stopped successfully")
}

// makeUpdateHandler adapts raw Telegram updates into dispatcher inbounds,
// applying the chat allowlist and dropping non-message updates.
func makeUpdateHandler(cfg *config.Config, dispatcher *dispatch.Dispatcher) telegram.UpdateHandler {
	return func(ctx context.Context, u telegram.Update) {
		msg := u.Message
		if msg == nil || msg.Text == "" {
			return
		}
		if msg.From != nil && msg.From.IsBot {
			return
		}
		if !cfg.ChatAllowed(msg.Chat.ID) {
			slog.Warn("Dropping update from non-allowed chat", "chat_id", msg.Chat.ID)
			return
		}

		var senderID int64
		if msg.From != nil {
			senderID = msg.From.ID
		}

		dispatcher.Handle(ctx, dispatch.Inbound{
			ChatID:      msg.Chat.ID,
			SenderID:    senderID,
			SenderLabel: identity.Label(msg.From),
			Text:        msg.Text,
		})
	}
}
