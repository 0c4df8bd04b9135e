package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Webhook metrics
	WebhookDurationSeconds *prometheus.HistogramVec
	WebhookRequestsTotal   *prometheus.CounterVec

	// Dialog metrics
	DialogOutcomesTotal *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge

	// Calendar metrics
	CalendarRequestsTotal   *prometheus.CounterVec
	CalendarDurationSeconds *prometheus.HistogramVec

	// LLM metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec

	// Speech metrics
	SpeechRequestsTotal   *prometheus.CounterVec
	SpeechDurationSeconds *prometheus.HistogramVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec
	ActiveRateLimiters prometheus.Gauge
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		// Webhook metrics
		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prenota_webhook_duration_seconds",
				Help:    "Webhook processing duration in seconds by update kind",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30}, // LLM + speech calls can be slow
			},
			[]string{"kind"}, // kind: text, voice, button, command
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prenota_webhook_requests_total",
				Help: "Total number of webhook updates by kind and status",
			},
			[]string{"kind", "status"}, // status: success, error
		),

		// Dialog metrics
		DialogOutcomesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prenota_dialog_outcomes_total",
				Help: "Total number of completed dialog flows by flow and outcome",
			},
			[]string{"flow", "outcome"}, // flow: booking, registration; outcome: completed, cancelled, error
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "prenota_active_sessions",
				Help: "Number of in-progress dialog sessions",
			},
		),

		// Calendar metrics
		CalendarRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prenota_calendar_requests_total",
				Help: "Total number of calendar API requests by operation and status",
			},
			[]string{"operation", "status"}, // operation: list, insert
		),

		CalendarDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prenota_calendar_duration_seconds",
				Help:    "Calendar API request duration in seconds by operation",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
			},
			[]string{"operation"},
		),

		// LLM metrics
		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prenota_llm_requests_total",
				Help: "Total number of LLM requests by provider, purpose, and status",
			},
			[]string{"provider", "purpose", "status"}, // purpose: chat, extract
		),

		LLMDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prenota_llm_duration_seconds",
				Help:    "LLM request duration in seconds by provider and purpose",
				Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"provider", "purpose"},
		),

		// Speech metrics
		SpeechRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prenota_speech_requests_total",
				Help: "Total number of speech requests by operation and status",
			},
			[]string{"operation", "status"}, // operation: transcribe, synthesize
		),

		SpeechDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prenota_speech_duration_seconds",
				Help:    "Speech request duration in seconds by operation",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 45},
			},
			[]string{"operation"},
		),

		// Rate limiter metrics
		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "prenota_rate_limiter_dropped_total",
				Help: "Total number of messages dropped by rate limiter",
			},
			[]string{"limiter_type"}, // limiter_type: user
		),

		ActiveRateLimiters: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "prenota_rate_limiter_active",
				Help: "Number of active per-user rate limiters",
			},
		),
	}

	return m
}

// RecordWebhook records a webhook update
func (m *Metrics) RecordWebhook(kind, status string, duration float64) {
	m.WebhookRequestsTotal.WithLabelValues(kind, status).Inc()
	m.WebhookDurationSeconds.WithLabelValues(kind).Observe(duration)
}

// RecordDialogOutcome records a finished dialog flow
func (m *Metrics) RecordDialogOutcome(flow, outcome string) {
	m.DialogOutcomesTotal.WithLabelValues(flow, outcome).Inc()
}

// SetActiveSessions updates the in-progress session gauge
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordCalendarRequest records a calendar API request
func (m *Metrics) RecordCalendarRequest(operation, status string, duration float64) {
	m.CalendarRequestsTotal.WithLabelValues(operation, status).Inc()
	m.CalendarDurationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordLLMRequest records an LLM request
func (m *Metrics) RecordLLMRequest(provider, purpose, status string, duration float64) {
	m.LLMRequestsTotal.WithLabelValues(provider, purpose, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider, purpose).Observe(duration)
}

// RecordSpeechRequest records a transcription or synthesis request
func (m *Metrics) RecordSpeechRequest(operation, status string, duration float64) {
	m.SpeechRequestsTotal.WithLabelValues(operation, status).Inc()
	m.SpeechDurationSeconds.WithLabelValues(operation).Observe(duration)
}

// RecordRateLimiterDrop records a message dropped by rate limiter
func (m *Metrics) RecordRateLimiterDrop(limiterType string) {
	m.RateLimiterDropped.WithLabelValues(limiterType).Inc()
}

// SetActiveRateLimiters updates the active limiter gauge
func (m *Metrics) SetActiveRateLimiters(count int) {
	m.ActiveRateLimiters.Set(float64(count))
}
