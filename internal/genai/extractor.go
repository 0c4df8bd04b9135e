package genai

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/openai/openai-go/v3"
	"google.golang.org/genai"

	"github.com/upinformatica/prenotabot/internal/logger"
)

// NameExtractor isolates a proper name from free text during
// registration. It tries OpenAI first, then Gemini, and finally falls
// back to simple pattern matching so registration keeps working even
// with both providers down.
type NameExtractor struct {
	openaiClient openai.Client
	openaiModel  string
	gemini       *genai.Client // nil when no Gemini key is configured
	geminiModel  string
	log          *logger.Logger
	metrics      MetricsRecorder
}

// NewGeminiClient creates the Gemini client used as the extraction
// fallback provider.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return client, nil
}

// NewNameExtractor creates a name extractor. gemini may be nil.
func NewNameExtractor(openaiClient openai.Client, openaiModel string, gemini *genai.Client, geminiModel string, log *logger.Logger) *NameExtractor {
	if openaiModel == "" {
		openaiModel = DefaultChatModel
	}
	if geminiModel == "" {
		geminiModel = DefaultGeminiExtractModel
	}
	return &NameExtractor{
		openaiClient: openaiClient,
		openaiModel:  openaiModel,
		gemini:       gemini,
		geminiModel:  geminiModel,
		log:          log.WithModule("extractor"),
	}
}

// SetMetrics sets the metrics recorder for LLM request monitoring
func (e *NameExtractor) SetMetrics(recorder MetricsRecorder) {
	e.metrics = recorder
}

// Extract returns the proper name found in text, or false when none
// can be identified by any strategy.
func (e *NameExtractor) Extract(ctx context.Context, text string) (string, bool) {
	if name, err := e.extractOpenAI(ctx, text); err == nil {
		if name != "" {
			return name, true
		}
		// The model answered definitively: there is no name here.
		// Still give the patterns a chance before giving up.
		return fallbackName(text)
	} else {
		e.log.WithError(err).Warnf("openai name extraction failed")
	}

	if e.gemini != nil {
		if name, err := e.extractGemini(ctx, text); err == nil && name != "" {
			return name, true
		} else if err != nil {
			e.log.WithError(err).Warnf("gemini name extraction failed")
		}
	}

	return fallbackName(text)
}

func (e *NameExtractor) extractOpenAI(ctx context.Context, text string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: e.openaiModel,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(extractionPrompt(text)),
		},
		Temperature: openai.Float(0.1), // Low temperature for consistent extraction
		MaxTokens:   openai.Int(50),
	}

	start := time.Now()
	resp, err := e.openaiClient.Chat.Completions.New(ctx, params)
	duration := time.Since(start).Seconds()

	if err != nil {
		e.recordMetric("openai", "error", duration)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		e.recordMetric("openai", "error", duration)
		return "", fmt.Errorf("chat completion returned no choices")
	}
	e.recordMetric("openai", "success", duration)

	return cleanExtractedName(resp.Choices[0].Message.Content), nil
}

func (e *NameExtractor) extractGemini(ctx context.Context, text string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr[float32](0.1), // Low temperature for consistent extraction
		MaxOutputTokens: 50,
	}

	start := time.Now()
	resp, err := e.gemini.Models.GenerateContent(ctx, e.geminiModel, genai.Text(extractionPrompt(text)), config)
	duration := time.Since(start).Seconds()

	if err != nil {
		e.recordMetric("gemini", "error", duration)
		return "", fmt.Errorf("generate content failed: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		e.recordMetric("gemini", "error", duration)
		return "", fmt.Errorf("generate content returned no candidates")
	}
	e.recordMetric("gemini", "success", duration)

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			reply.WriteString(part.Text)
		}
	}
	return cleanExtractedName(reply.String()), nil
}

func (e *NameExtractor) recordMetric(provider, status string, duration float64) {
	if e.metrics != nil {
		e.metrics.RecordLLMRequest(provider, "extract", status, duration)
	}
}

// cleanExtractedName validates and normalizes a model reply. Returns
// "" when the reply is the no-name marker or not a plausible name.
func cleanExtractedName(reply string) string {
	extracted := strings.TrimSpace(reply)
	if extracted == "NESSUN_NOME" || len(extracted) < 2 || len(extracted) > 30 {
		return ""
	}

	cleaned := strings.TrimSpace(nonNameChars.ReplaceAllString(extracted, ""))
	if len(cleaned) < 2 {
		return ""
	}
	return cleaned
}

// Patterns for the last-resort extraction: Italian cue phrases, or the
// whole message being a single name.
var (
	nonNameChars = regexp.MustCompile(`[^a-zA-ZÀ-ÿ\s']`)

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`mi chiamo\s+([a-zà-ÿ\s']+)`),
		regexp.MustCompile(`sono\s+([a-zà-ÿ\s']+)`),
		regexp.MustCompile(`il mio nome è\s+([a-zà-ÿ\s']+)`),
		regexp.MustCompile(`mi chiamano\s+([a-zà-ÿ\s']+)`),
		regexp.MustCompile(`^([a-zà-ÿ']+)$`),
	}
)

// fallbackName extracts a name with cue-phrase patterns alone.
func fallbackName(text string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, pattern := range namePatterns {
		m := pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		name := titleCase(strings.TrimSpace(m[1]))
		if len(name) >= 2 && len(name) <= 30 && !containsDigit(name) {
			return name, true
		}
	}
	return "", false
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
