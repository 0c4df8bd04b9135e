// Package main provides the appointment bot server entry point.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	tgbot "github.com/go-telegram/bot"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	googlegenai "google.golang.org/genai"

	"github.com/upinformatica/prenotabot/internal/bot"
	"github.com/upinformatica/prenotabot/internal/buildinfo"
	"github.com/upinformatica/prenotabot/internal/calendar"
	"github.com/upinformatica/prenotabot/internal/config"
	"github.com/upinformatica/prenotabot/internal/dialog"
	"github.com/upinformatica/prenotabot/internal/genai"
	"github.com/upinformatica/prenotabot/internal/logger"
	"github.com/upinformatica/prenotabot/internal/metrics"
	"github.com/upinformatica/prenotabot/internal/nlu"
	"github.com/upinformatica/prenotabot/internal/ratelimit"
	"github.com/upinformatica/prenotabot/internal/sentry"
	"github.com/upinformatica/prenotabot/internal/session"
	"github.com/upinformatica/prenotabot/internal/speech"
	"github.com/upinformatica/prenotabot/internal/storage"
	"github.com/upinformatica/prenotabot/internal/telegram"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel)
	log.WithField("version", buildinfo.Version).
		WithField("commit", buildinfo.Commit).
		Info("Starting PrenotaBot Server")

	// Initialize error tracking
	if err := sentry.Initialize(sentry.Config{
		DSN:     cfg.SentryDSN,
		Release: buildinfo.Release(),
		Debug:   cfg.LogLevel == "debug",
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, error tracking disabled")
	} else if sentry.IsEnabled() {
		log.Info("Sentry error tracking enabled")
	}
	defer sentry.Flush(2 * time.Second)

	// All user-facing dates are Italian wall-clock time
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		log.WithError(err).Fatal("Failed to load timezone")
	}

	// Connect to the user profile database
	db, err := storage.New(cfg.SQLitePath())
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	// Create Prometheus registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())

	m := metrics.New(registry)
	log.Info("Metrics initialized")

	// Create calendar client
	calClient, err := calendar.NewClient(cfg.CalendarID, cfg.CredentialsPath, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create calendar client")
	}
	calClient.SetMetrics(m)
	availability := calendar.NewAvailability(calClient, loc, cfg.Bot.MaxSuggestedSlots, log)
	log.WithField("calendar_id", cfg.CalendarID).Info("Calendar client created")

	// Create LLM clients
	openaiClient := openai.NewClient(option.WithAPIKey(cfg.OpenAIAPIKey))

	assistant := genai.NewAssistant(openaiClient, cfg.OpenAIChatModel, cfg.Bot.HistoryDepth, loc, log)
	assistant.SetMetrics(m)

	geminiClient, err := newGeminiClient(cfg)
	if err != nil {
		log.WithError(err).Warn("Failed to create Gemini client, extraction fallback disabled")
	}
	extractor := genai.NewNameExtractor(openaiClient, cfg.OpenAIChatModel, geminiClient, cfg.GeminiExtractModel, log)
	extractor.SetMetrics(m)

	// Create speech services
	transcriber := speech.NewTranscriber(openaiClient, cfg.WhisperModel, log)
	transcriber.SetMetrics(m)

	var synth telegram.Synthesizer
	if s := speech.NewSynthesizer(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoice, log); s != nil {
		s.SetMetrics(m)
		synth = s
		log.Info("Voice synthesis enabled")
	} else {
		log.Info("ElevenLabs API key not configured, voice replies disabled")
	}

	// Create session store with configured TTL
	sessions := session.NewStore(session.StoreConfig{
		TTL:           cfg.SessionTTL,
		CleanupPeriod: time.Minute,
	})
	defer sessions.Stop()
	sessions.OnUpdate(m.SetActiveSessions)

	// Create per-user rate limiter
	limiter := ratelimit.NewPerUserLimiter(ratelimit.PerUserLimiterConfig{
		MaxTokens:     cfg.Bot.UserRateLimitBurst,
		RefillRate:    cfg.Bot.UserRateLimitRefillPerSec,
		CleanupPeriod: 5 * time.Minute,
	})
	defer limiter.Stop()
	limiter.OnDrop(func() { m.RecordRateLimiterDrop("user") })
	limiter.OnUpdate(m.SetActiveRateLimiters)

	// Create dialogue flows
	resolver := nlu.NewResolver(loc)

	bookings := dialog.NewBookingFlow(sessions, availability, calClient, db, resolver, dialog.BookingConfig{
		ConflictBlocking: cfg.ConflictBlocking,
		Duration:         cfg.AppointmentDuration,
	}, log)
	bookings.SetMetrics(m)

	registrations := dialog.NewRegistrationFlow(sessions, db, extractor, log)
	registrations.SetMetrics(m)

	// Create event processor
	processor := bot.NewProcessor(bot.ProcessorConfig{
		Registrations: registrations,
		Bookings:      bookings,
		Sessions:      sessions,
		Profiles:      db,
		Appointments:  availability,
		Assistant:     assistant,
		Transcriber:   transcriber,
		UserLimiter:   limiter,
		Location:      loc,
		Logger:        log,
		BotConfig:     &cfg.Bot,
	})
	log.Info("Event processor created")

	// Create Telegram client and webhook handler
	tb, err := tgbot.New(cfg.TelegramToken)
	if err != nil {
		log.WithError(err).Fatal("Failed to create Telegram bot client")
	}

	sender := telegram.NewSender(tb, synth, log)
	webhookHandler := telegram.NewHandler(telegram.HandlerConfig{
		SecretToken: cfg.WebhookSecretToken,
		Sender:      sender,
		Processor:   processor,
		Metrics:     m,
		Logger:      log,
	})

	// Register the webhook with Telegram
	if cfg.WebhookBaseURL != "" {
		webhookURL := strings.TrimSuffix(cfg.WebhookBaseURL, "/") + cfg.WebhookPath()
		registerCtx, registerCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := telegram.RegisterWebhook(registerCtx, tb, webhookURL, cfg.WebhookSecretToken); err != nil {
			registerCancel()
			log.WithError(err).Fatal("Failed to register webhook")
		}
		registerCancel()
		log.WithField("url", webhookURL).Info("Webhook registered")
	} else {
		log.Warn("Webhook base URL not configured, skipping webhook registration")
	}

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Create Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, cfg, webhookHandler, db, calClient, registry)

	// Create HTTP server with timeouts sized for webhook handling
	// See internal/config/timeouts.go for detailed explanations
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.WebhookHTTPRead,
		WriteTimeout: config.WebhookHTTPWrite,
		IdleTimeout:  config.WebhookHTTPIdle,
	}

	// Start server in goroutine
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Stop accepting new updates first
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	// Drain in-flight update processing
	if err := webhookHandler.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Timeout waiting for update processing to finish")
	}

	// Close database connection
	if err := db.Close(); err != nil {
		log.WithError(err).Error("Failed to close database")
	}

	log.Info("Server stopped")
}

// newGeminiClient creates the optional Gemini fallback client.
func newGeminiClient(cfg *config.Config) (*googlegenai.Client, error) {
	if !cfg.HasGeminiFallback() {
		return nil, nil
	}
	return genai.NewGeminiClient(context.Background(), cfg.GeminiAPIKey)
}
