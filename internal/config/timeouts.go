// Package config provides centralized timeout constants for the application.
//
// These values are tuned around:
//   - Telegram Bot API constraints (webhook acknowledgment, message limits)
//   - External API latencies (OpenAI, ElevenLabs, Google Calendar)
//   - SQLite performance characteristics (WAL mode, busy timeout)
package config

import "time"

// Webhook timeouts
const (
	// WebhookProcessing is the timeout for processing a single webhook update.
	// This includes dialog handling, calendar requests, LLM calls, and
	// optional voice synthesis, so it is generous.
	WebhookProcessing = 60 * time.Second

	// WebhookHTTPRead is the HTTP server read timeout for webhook requests.
	// Telegram sends small JSON payloads except for voice note downloads,
	// which happen on a separate client.
	WebhookHTTPRead = 10 * time.Second

	// WebhookHTTPWrite is the HTTP server write timeout.
	// Should accommodate WebhookProcessing + response serialization.
	WebhookHTTPWrite = 65 * time.Second

	// WebhookHTTPIdle is the HTTP server idle timeout for keep-alive connections.
	WebhookHTTPIdle = 120 * time.Second
)

// External API timeouts
const (
	// CalendarRequest is the timeout for a single Google Calendar API call.
	CalendarRequest = 15 * time.Second

	// CalendarRetryInitial is the initial delay before retrying a failed
	// calendar request. Uses exponential backoff: 1s -> 2s -> 4s.
	CalendarRetryInitial = 1 * time.Second

	// CalendarMaxRetries is the retry budget for calendar requests.
	CalendarMaxRetries = 3

	// LLMRequest is the timeout for chat completions and name extraction.
	LLMRequest = 30 * time.Second

	// TranscribeRequest is the timeout for a Whisper transcription call.
	// Voice notes are short, but upload + processing can take a while.
	TranscribeRequest = 45 * time.Second

	// SynthesizeRequest is the timeout for an ElevenLabs synthesis call.
	SynthesizeRequest = 30 * time.Second
)

// Database timeouts
const (
	// DatabaseBusyTimeout is SQLite busy_timeout pragma value.
	// Handles concurrent write contention from parallel webhook updates.
	DatabaseBusyTimeout = 30 * time.Second

	// DatabaseConnMaxLifetime is the maximum lifetime of database connections.
	// Prevents stale connections and allows connection pool refresh.
	DatabaseConnMaxLifetime = time.Hour
)

// Dialog timing
const (
	// SessionIdleTTL is how long an in-progress dialog survives without
	// a new message before it is dropped.
	SessionIdleTTL = 30 * time.Minute
)

// Background job intervals
const (
	// SessionCleanupInterval is how often idle dialog sessions are swept.
	SessionCleanupInterval = 1 * time.Minute

	// RateLimiterCleanupInterval is how often inactive user rate limiters are cleaned.
	RateLimiterCleanupInterval = 5 * time.Minute
)

// Graceful shutdown
const (
	// GracefulShutdown is the timeout for graceful server shutdown.
	// Allows in-flight requests to complete before forceful termination.
	GracefulShutdown = 30 * time.Second
)
