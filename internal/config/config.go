// Package config provides application configuration management.
// It loads settings from PRENOTA_-prefixed environment variables and
// provides defaults for timeouts, rate limits, and dialog behavior.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Telegram Bot Configuration
	TelegramToken      string // Bot API token from @BotFather
	WebhookBaseURL     string // Public base URL Telegram delivers updates to
	WebhookSecretPath  string // Secret path segment appended to /webhook
	WebhookSecretToken string // X-Telegram-Bot-Api-Secret-Token value (empty = not checked)

	// LLM Configuration
	OpenAIAPIKey string // OpenAI API key for chat, transcription, and name extraction
	GeminiAPIKey string // Gemini API key (fallback name extractor)

	// LLM Model Configuration (optional, defaults apply if empty)
	OpenAIChatModel    string // Model for persona small-talk and name extraction
	GeminiExtractModel string // Fallback Gemini model for name extraction
	WhisperModel       string // Model for voice transcription

	// Speech Synthesis Configuration
	ElevenLabsAPIKey string // ElevenLabs API key (empty = text-only replies)
	ElevenLabsVoice  string // ElevenLabs voice ID

	// Calendar Configuration
	CalendarID       string // Google Calendar ID events are read from and written to
	CredentialsPath  string // Path to the service-account credentials JSON file
	ConflictBlocking bool   // Reject bookings that overlap the user's existing events

	// Dialog Configuration
	SessionTTL          time.Duration // Idle time before an in-progress dialog is dropped
	AppointmentDuration time.Duration // Default appointment length

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Error Tracking
	SentryDSN string // Sentry DSN (empty = disabled)

	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Data Configuration
	DataDir string // Data directory for the SQLite users database

	// Bot Configuration (embedded)
	Bot BotConfig
}

// BotConfig holds bot-specific configuration
type BotConfig struct {
	// Timeouts
	WebhookTimeout time.Duration // Timeout for webhook update processing (see config/timeouts.go)

	// Rate Limits (Token Bucket Algorithm)
	UserRateLimitBurst        float64 // Maximum burst tokens per user (default: 15)
	UserRateLimitRefillPerSec float64 // Tokens refilled per second (default: 0.1 = 1 per 10s)

	// Telegram API Constraints
	MaxMessageLength int // Maximum message length (Telegram API limit: 4096)
	MaxCallbackData  int // Maximum callback data size (Telegram API limit: 64)

	// Business Limits
	MaxSuggestedSlots int // Maximum free slots offered after a conflict (default: 5)
	HistoryDepth      int // Small-talk messages remembered per user (default: 10)
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		// Telegram Bot Configuration
		TelegramToken:      getEnv(EnvTelegramToken, ""),
		WebhookBaseURL:     getEnv(EnvWebhookBaseURL, ""),
		WebhookSecretPath:  getEnv(EnvWebhookSecretPath, ""),
		WebhookSecretToken: getEnv(EnvWebhookSecretToken, ""),

		// LLM Configuration
		OpenAIAPIKey: getEnv(EnvOpenAIAPIKey, ""),
		GeminiAPIKey: getEnv(EnvGeminiAPIKey, ""),

		// LLM Model Configuration (empty values fall back to genai package defaults)
		OpenAIChatModel:    getEnv(EnvOpenAIChatModel, ""),
		GeminiExtractModel: getEnv(EnvGeminiExtractModel, ""),
		WhisperModel:       getEnv(EnvWhisperModel, ""),

		// Speech Synthesis Configuration
		ElevenLabsAPIKey: getEnv(EnvElevenLabsAPIKey, ""),
		ElevenLabsVoice:  getEnv(EnvElevenLabsVoice, "EXAVITQu4vr4xnSDxMaL"),

		// Calendar Configuration
		CalendarID:       getEnv(EnvCalendarID, ""),
		CredentialsPath:  getEnv(EnvCredentialsPath, "credentials.json"),
		ConflictBlocking: getBoolEnv(EnvConflictBlocking, true),

		// Dialog Configuration
		SessionTTL:          getDurationEnv(EnvSessionTTL, SessionIdleTTL),
		AppointmentDuration: getDurationEnv(EnvAppointmentDuration, time.Hour),

		// Metrics Authentication
		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		// Error Tracking
		SentryDSN: getEnv(EnvSentryDSN, ""),

		// Server Configuration
		Port:            getEnv(EnvPort, "8080"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, GracefulShutdown),

		// Data Configuration
		DataDir: getEnv(EnvDataDir, getDefaultDataDir()),

		// Bot Configuration
		Bot: BotConfig{
			WebhookTimeout:            getDurationEnv(EnvWebhookTimeout, WebhookProcessing),
			UserRateLimitBurst:        getFloatEnv(EnvUserRateLimitBurst, 15.0),
			UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateLimitRefill, 0.1), // 1 per 10s
			MaxMessageLength:          TelegramMaxMessageLength,
			MaxCallbackData:           TelegramMaxCallbackDataLength,
			MaxSuggestedSlots:         5,
			HistoryDepth:              10,
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.TelegramToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvTelegramToken))
	}
	if c.CalendarID == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvCalendarID))
	}
	if c.OpenAIAPIKey == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvOpenAIAPIKey))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data dir is required"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSessionTTL, c.SessionTTL))
	}
	if c.AppointmentDuration <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvAppointmentDuration, c.AppointmentDuration))
	}
	if err := c.Bot.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("bot config: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// Validate checks bot configuration bounds
func (c *BotConfig) Validate() error {
	var errs []error

	if c.WebhookTimeout <= 0 {
		errs = append(errs, fmt.Errorf("webhook timeout must be positive, got %v", c.WebhookTimeout))
	}
	if c.UserRateLimitBurst <= 0 {
		errs = append(errs, fmt.Errorf("user rate limit burst must be positive, got %v", c.UserRateLimitBurst))
	}
	if c.UserRateLimitRefillPerSec <= 0 {
		errs = append(errs, fmt.Errorf("user rate limit refill must be positive, got %v", c.UserRateLimitRefillPerSec))
	}
	if c.MaxSuggestedSlots <= 0 {
		errs = append(errs, fmt.Errorf("max suggested slots must be positive, got %d", c.MaxSuggestedSlots))
	}
	if c.HistoryDepth <= 0 {
		errs = append(errs, fmt.Errorf("history depth must be positive, got %d", c.HistoryDepth))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv retrieves boolean environment variable with fallback to default value
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite users database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "users.db")
}

// WebhookPath returns the local route the webhook listens on.
// A secret path segment keeps the endpoint unguessable when no
// secret token is configured.
func (c *Config) WebhookPath() string {
	if c.WebhookSecretPath == "" {
		return "/webhook"
	}
	return "/webhook/" + c.WebhookSecretPath
}

// HasSpeechSynthesis returns true if voice replies can be generated.
func (c *Config) HasSpeechSynthesis() bool {
	return c.ElevenLabsAPIKey != ""
}

// HasGeminiFallback returns true if the Gemini name extractor is configured.
func (c *Config) HasGeminiFallback() bool {
	return c.GeminiAPIKey != ""
}
