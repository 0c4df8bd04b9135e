package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"

	"github.com/upinformatica/prenotabot/internal/logger"
)

// MetricsRecorder defines the interface for recording LLM request metrics
type MetricsRecorder interface {
	RecordLLMRequest(provider, purpose, status string, duration float64)
}

// Assistant generates small-talk replies with a warm Italian persona,
// remembering the last few turns of each user's conversation.
type Assistant struct {
	client  openai.Client
	model   string
	history *historyStore
	loc     *time.Location
	log     *logger.Logger
	metrics MetricsRecorder
	now     func() time.Time // overridable for tests
}

// NewAssistant creates the small-talk assistant. historyDepth is the
// number of conversation turns remembered per user.
func NewAssistant(client openai.Client, model string, historyDepth int, loc *time.Location, log *logger.Logger) *Assistant {
	if model == "" {
		model = DefaultChatModel
	}
	return &Assistant{
		client:  client,
		model:   model,
		history: newHistoryStore(historyDepth),
		loc:     loc,
		log:     log.WithModule("assistant"),
		now:     time.Now,
	}
}

// SetMetrics sets the metrics recorder for LLM request monitoring
func (a *Assistant) SetMetrics(recorder MetricsRecorder) {
	a.metrics = recorder
}

// Respond generates a reply to the user's message and records both
// turns in the conversation history.
func (a *Assistant) Respond(ctx context.Context, userID int64, text string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(personaPrompt(a.now().In(a.loc))),
	}
	for _, turn := range a.history.get(userID) {
		switch turn.role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(turn.content))
		default:
			messages = append(messages, openai.UserMessage(turn.content))
		}
	}
	messages = append(messages, openai.UserMessage(text))

	params := openai.ChatCompletionNewParams{
		Model:       a.model,
		Messages:    messages,
		Temperature: openai.Float(0.9), // High temperature keeps the persona lively
		MaxTokens:   openai.Int(150),
	}

	start := time.Now()
	resp, err := a.client.Chat.Completions.New(ctx, params)
	duration := time.Since(start).Seconds()

	if err != nil {
		a.recordMetric("error", duration)
		a.log.WithError(err).WithUserID(userID).Errorf("small-talk generation failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		a.recordMetric("error", duration)
		return "", fmt.Errorf("chat completion returned no content")
	}
	a.recordMetric("success", duration)

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	a.history.add(userID, "user", text)
	a.history.add(userID, "assistant", reply)
	return reply, nil
}

// ClearHistory forgets the user's conversation.
func (a *Assistant) ClearHistory(userID int64) {
	a.history.clear(userID)
}

func (a *Assistant) recordMetric(status string, duration float64) {
	if a.metrics != nil {
		a.metrics.RecordLLMRequest("openai", "chat", status, duration)
	}
}
