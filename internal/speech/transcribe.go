// Package speech converts between voice notes and text: transcription
// through OpenAI Whisper and synthesis through the ElevenLabs API.
package speech

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/upinformatica/prenotabot/internal/config"
	domerrors "github.com/upinformatica/prenotabot/internal/errors"
	"github.com/upinformatica/prenotabot/internal/logger"
)

// DefaultWhisperModel is used when no transcription model is configured.
const DefaultWhisperModel = "whisper-1"

// MetricsRecorder defines the interface for recording speech request metrics
type MetricsRecorder interface {
	RecordSpeechRequest(operation, status string, duration float64)
}

// Transcriber turns Telegram voice notes into Italian text.
type Transcriber struct {
	client  openai.Client
	model   string
	log     *logger.Logger
	metrics MetricsRecorder
}

// NewTranscriber creates a Whisper-backed transcriber.
func NewTranscriber(client openai.Client, model string, log *logger.Logger) *Transcriber {
	if model == "" {
		model = DefaultWhisperModel
	}
	return &Transcriber{
		client: client,
		model:  model,
		log:    log.WithModule("transcriber"),
	}
}

// SetMetrics sets the metrics recorder for speech request monitoring
func (t *Transcriber) SetMetrics(recorder MetricsRecorder) {
	t.metrics = recorder
}

// Transcribe converts the given audio bytes to text. The filename's
// extension tells the API which container the audio uses; Telegram
// voice notes arrive as .ogg (Opus).
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if len(audio) == 0 {
		return "", domerrors.ErrInvalidInput
	}
	if filename == "" {
		filename = "voice.ogg"
	}

	ctx, cancel := context.WithTimeout(ctx, config.TranscribeRequest)
	defer cancel()

	start := time.Now()
	resp, err := t.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model:    openai.AudioModel(t.model),
		File:     openai.File(bytes.NewReader(audio), filename, contentTypeFor(filename)),
		Language: openai.String("it"),
	})
	t.recordMetric("transcribe", err, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	t.log.WithField("chars", len(text)).Debug("audio transcribed")
	return text, nil
}

func (t *Transcriber) recordMetric(operation string, err error, elapsed time.Duration) {
	if t.metrics == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	t.metrics.RecordSpeechRequest(operation, status, elapsed.Seconds())
}

func contentTypeFor(filename string) string {
	switch {
	case strings.HasSuffix(filename, ".ogg"), strings.HasSuffix(filename, ".oga"):
		return "audio/ogg"
	case strings.HasSuffix(filename, ".mp3"):
		return "audio/mpeg"
	case strings.HasSuffix(filename, ".wav"):
		return "audio/wav"
	case strings.HasSuffix(filename, ".m4a"):
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
