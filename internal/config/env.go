// Package config defines environment variable keys for configuration.
package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Core (Required)
	EnvTelegramToken = "PRENOTA_TELEGRAM_TOKEN"
	EnvCalendarID    = "PRENOTA_CALENDAR_ID"
	EnvOpenAIAPIKey  = "PRENOTA_OPENAI_API_KEY"

	// Webhook
	EnvWebhookBaseURL     = "PRENOTA_WEBHOOK_BASE_URL"
	EnvWebhookSecretPath  = "PRENOTA_WEBHOOK_SECRET_PATH"
	EnvWebhookSecretToken = "PRENOTA_WEBHOOK_SECRET_TOKEN"
	EnvWebhookTimeout     = "PRENOTA_WEBHOOK_TIMEOUT"

	// Server
	EnvPort            = "PRENOTA_PORT"
	EnvLogLevel        = "PRENOTA_LOG_LEVEL"
	EnvShutdownTimeout = "PRENOTA_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir = "PRENOTA_DATA_DIR"

	// Calendar
	EnvCredentialsPath  = "PRENOTA_CALENDAR_CREDENTIALS"
	EnvConflictBlocking = "PRENOTA_CONFLICT_BLOCKING"

	// Dialog
	EnvSessionTTL          = "PRENOTA_SESSION_TTL"
	EnvAppointmentDuration = "PRENOTA_APPOINTMENT_DURATION"

	// Rate Limits
	EnvUserRateLimitBurst  = "PRENOTA_USER_RATE_BURST"
	EnvUserRateLimitRefill = "PRENOTA_USER_RATE_REFILL"

	// LLM Feature
	EnvGeminiAPIKey       = "PRENOTA_GEMINI_API_KEY"
	EnvOpenAIChatModel    = "PRENOTA_OPENAI_CHAT_MODEL"
	EnvGeminiExtractModel = "PRENOTA_GEMINI_EXTRACT_MODEL"
	EnvWhisperModel       = "PRENOTA_WHISPER_MODEL"

	// Speech Synthesis Feature
	EnvElevenLabsAPIKey = "PRENOTA_ELEVENLABS_API_KEY"
	EnvElevenLabsVoice  = "PRENOTA_ELEVENLABS_VOICE"

	// Sentry Feature
	EnvSentryDSN = "PRENOTA_SENTRY_DSN"

	// Metrics Auth Feature
	EnvMetricsUsername = "PRENOTA_METRICS_USERNAME"
	EnvMetricsPassword = "PRENOTA_METRICS_PASSWORD"
)
