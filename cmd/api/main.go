package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/Jihzza/danielcluckins/internal/api/router"
	"github.com/Jihzza/danielcluckins/internal/booking"
	"github.com/Jihzza/danielcluckins/internal/chat"
	appconfig "github.com/Jihzza/danielcluckins/internal/config"
	"github.com/Jihzza/danielcluckins/internal/conversation"
	"github.com/Jihzza/danielcluckins/internal/notify"
	"github.com/Jihzza/danielcluckins/internal/observability/metrics"
	"github.com/Jihzza/danielcluckins/internal/payments"
	"github.com/Jihzza/danielcluckins/internal/storage"
	"github.com/Jihzza/danielcluckins/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting danielcluckins API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()
	chatMetrics := metrics.NewChatMetrics(nil)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := storage.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	store := storage.NewStore(pool, logger)

	var transcriptStore *conversation.TranscriptStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, chat history disabled", "error", err)
		}
		transcriptStore = conversation.NewTranscriptStore(redisClient, cfg.TranscriptTTL)
	}

	successURL := cfg.PublicBaseURL + cfg.ChatPagePath + "?checkout=success"
	cancelURL := cfg.PublicBaseURL + cfg.ChatPagePath + "?checkout=cancelled"
	checkoutSvc := payments.NewStripeCheckoutService(cfg.StripeSecretKey, successURL, cancelURL, logger).
		WithDryRun(cfg.StripeDryRun)

	var deckNotifier booking.DeckNotifier
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil && cfg.PitchDeckNotifyEmail != "" {
		deckNotifier = notify.NewDeckNotifier(sender, cfg.PitchDeckNotifyEmail, logger)
	}

	executor := booking.NewExecutor(checkoutSvc, store, deckNotifier, chatMetrics, logger)

	var llm conversation.LLMClient
	var primary, fallback conversation.LLMClient
	if cfg.OpenAIAPIKey != "" {
		openaiClient, err := conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			logger.Error("failed to create openai client", "error", err)
			os.Exit(1)
		}
		primary = openaiClient
	}
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			logger.Error("failed to create gemini client", "error", err)
			os.Exit(1)
		}
		defer geminiClient.Close()
		if primary == nil {
			primary = geminiClient
		} else {
			fallback = geminiClient
		}
	}
	if primary != nil {
		llm = conversation.NewFallbackLLMClient(primary, fallback, chatMetrics, logger)
	} else {
		logger.Warn("no LLM provider configured, chat runs in booking-only mode")
	}

	chatService := conversation.NewService(executor, llm, transcriptStore, store, chatMetrics, logger).
		WithHistoryLimit(cfg.HistoryLimit)
	chatHandler := chat.NewHandler(chatService, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		ChatHandler:        chatHandler,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
