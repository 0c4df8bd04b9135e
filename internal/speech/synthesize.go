package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/upinformatica/prenotabot/internal/config"
	"github.com/upinformatica/prenotabot/internal/logger"
)

const (
	defaultElevenLabsBaseURL = "https://api.elevenlabs.io"

	// synthesisModel handles Italian well among the ElevenLabs models.
	synthesisModel = "eleven_multilingual_v2"

	// outputFormat is 44.1kHz 128kbps MP3, which Telegram accepts as a
	// voice note without transcoding.
	outputFormat = "mp3_44100_128"
)

// Synthesizer converts short Italian texts into MP3 audio via the
// ElevenLabs text-to-speech API. It is optional: when no API key is
// configured the bot falls back to plain text replies.
type Synthesizer struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	voiceID    string
	log        *logger.Logger
	metrics    MetricsRecorder
}

// NewSynthesizer creates an ElevenLabs-backed synthesizer. It returns
// nil when apiKey is empty so callers can treat synthesis as disabled.
func NewSynthesizer(apiKey, voiceID string, log *logger.Logger) *Synthesizer {
	if apiKey == "" {
		return nil
	}
	return &Synthesizer{
		httpClient: &http.Client{Timeout: config.SynthesizeRequest},
		baseURL:    defaultElevenLabsBaseURL,
		apiKey:     apiKey,
		voiceID:    voiceID,
		log:        log.WithModule("synthesizer"),
	}
}

// SetMetrics sets the metrics recorder for speech request monitoring
func (s *Synthesizer) SetMetrics(recorder MetricsRecorder) {
	s.metrics = recorder
}

type synthesisRequest struct {
	Text    string `json:"text"`
	ModelID string `json:"model_id"`
}

// Synthesize converts text to MP3 bytes.
func (s *Synthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	body, err := json.Marshal(synthesisRequest{Text: text, ModelID: synthesisModel})
	if err != nil {
		return nil, fmt.Errorf("encoding synthesis request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, config.SynthesizeRequest)
	defer cancel()

	url := fmt.Sprintf("%s/v1/text-to-speech/%s?output_format=%s", s.baseURL, s.voiceID, outputFormat)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", s.apiKey)

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.recordMetric("synthesize", err, time.Since(start))
		return nil, fmt.Errorf("calling text-to-speech API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err := fmt.Errorf("text-to-speech API returned status %d: %s", resp.StatusCode, detail)
		s.recordMetric("synthesize", err, time.Since(start))
		return nil, err
	}

	audio, err := io.ReadAll(resp.Body)
	s.recordMetric("synthesize", err, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("reading synthesized audio: %w", err)
	}

	s.log.WithField("bytes", len(audio)).Debug("speech synthesized")
	return audio, nil
}

func (s *Synthesizer) recordMetric(operation string, err error, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	s.metrics.RecordSpeechRequest(operation, status, elapsed.Seconds())
}
