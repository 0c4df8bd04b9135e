package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-telegram/bot/models"

	"github.com/upinformatica/prenotabot/internal/bot"
	"github.com/upinformatica/prenotabot/internal/dialog"
	"github.com/upinformatica/prenotabot/internal/logger"
	"github.com/upinformatica/prenotabot/internal/metrics"
)

// secretTokenHeader carries the webhook secret Telegram echoes back on
// every delivery when one was registered with SetWebhook.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Processor turns a normalized update into a reply.
type Processor interface {
	Process(ctx context.Context, event bot.Event) dialog.Response
}

// Handler handles Telegram webhook updates. It acknowledges the
// delivery immediately and processes the update asynchronously so slow
// collaborators never stall Telegram's delivery queue.
type Handler struct {
	secretToken string
	sender      *Sender
	processor   Processor
	metrics     *metrics.Metrics
	logger      *logger.Logger
	wg          sync.WaitGroup
}

// HandlerConfig holds configuration for creating a new Handler
type HandlerConfig struct {
	SecretToken string
	Sender      *Sender
	Processor   Processor
	Metrics     *metrics.Metrics
	Logger      *logger.Logger
}

// NewHandler creates a new webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		secretToken: cfg.SecretToken,
		sender:      cfg.Sender,
		processor:   cfg.Processor,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.WithModule("webhook"),
	}
}

// Handle is the Gin handler for the webhook endpoint
func (h *Handler) Handle(c *gin.Context) {
	if h.secretToken != "" && c.GetHeader(secretTokenHeader) != h.secretToken {
		h.logger.Warn("Invalid webhook secret token")
		c.Status(http.StatusUnauthorized)
		return
	}

	var update models.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		h.logger.WithError(err).Error("Failed to decode webhook update")
		c.Status(http.StatusBadRequest)
		return
	}

	// Telegram retries deliveries that do not get a 2xx quickly, so
	// acknowledge first and do the work off the request goroutine.
	c.Status(http.StatusOK)

	start := time.Now()
	h.metrics.RecordWebhook("update", "received", 0)

	h.wg.Go(func() {
		defer func() {
			if r := recover(); r != nil {
				h.logger.WithField("panic", r).Error("Panic in async update processing")
			}
		}()

		h.processUpdate(context.Background(), &update, start)
	})
}

// processUpdate handles a single webhook update asynchronously
func (h *Handler) processUpdate(ctx context.Context, update *models.Update, start time.Time) {
	event, callbackID, ok := h.buildEvent(ctx, update)
	if !ok {
		h.logger.WithField("update_id", update.ID).Debug("Unsupported update type")
		return
	}

	log := h.logger.WithUserID(event.UserID).WithField("update_id", update.ID)

	if callbackID != "" {
		h.sender.AnswerCallback(ctx, callbackID)
	}

	resp := h.processor.Process(ctx, event)

	kind := string(event.Kind)
	status := "success"
	if err := h.sender.Send(ctx, event.ChatID, event.DisplayName, resp); err != nil {
		status = "send_error"
		log.WithError(err).Error("Failed to send reply")
	}
	h.metrics.RecordWebhook(kind, status, time.Since(start).Seconds())

	log.WithField("kind", kind).
		WithField("duration_ms", time.Since(start).Milliseconds()).
		Info("Update processed")
}

// buildEvent normalizes a Telegram update. The second return value is
// the callback query ID to acknowledge, when present.
func (h *Handler) buildEvent(ctx context.Context, update *models.Update) (bot.Event, string, bool) {
	if cb := update.CallbackQuery; cb != nil {
		chatID := cb.From.ID
		if cb.Message.Message != nil {
			chatID = cb.Message.Message.Chat.ID
		}
		return bot.Event{
			UserID:      cb.From.ID,
			ChatID:      chatID,
			DisplayName: cb.From.FirstName,
			Kind:        bot.EventButton,
			Payload:     cb.Data,
		}, cb.ID, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return bot.Event{}, "", false
	}

	event := bot.Event{
		UserID:      msg.From.ID,
		ChatID:      msg.Chat.ID,
		DisplayName: msg.From.FirstName,
	}

	switch {
	case msg.Voice != nil:
		event.Kind = bot.EventVoice
		event.AudioName = "voice.ogg"
		audio, err := h.sender.DownloadVoice(ctx, msg.Voice.FileID)
		if err != nil {
			// Leave Audio empty so the processor reports the
			// transcription failure to the user.
			h.logger.WithError(err).WithUserID(event.UserID).Error("Failed to download voice note")
		}
		event.Audio = audio
	case strings.HasPrefix(msg.Text, "/"):
		event.Kind = bot.EventCommand
		event.Payload = commandWord(msg.Text)
	case msg.Text != "":
		event.Kind = bot.EventText
		event.Payload = msg.Text
	default:
		return bot.Event{}, "", false
	}

	return event, "", true
}

// commandWord extracts the command from a message like
// "/start@prenotabot arg", dropping the bot mention and arguments.
func commandWord(text string) string {
	word := strings.Fields(text)[0]
	if at := strings.Index(word, "@"); at > 0 {
		word = word[:at]
	}
	return word
}

// Shutdown waits for all async update processing to complete.
// It returns an error if the context is canceled before completion.
func (h *Handler) Shutdown(ctx context.Context) error {
	c := make(chan struct{})
	go func() {
		defer close(c)
		h.wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
