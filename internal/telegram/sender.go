// Package telegram is the Telegram transport: it receives webhook
// updates, normalizes them into processor events and renders dialog
// responses back as messages, voice notes and documents.
package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand"
	"net/http"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"golang.org/x/sync/errgroup"

	"github.com/upinformatica/prenotabot/internal/dialog"
	"github.com/upinformatica/prenotabot/internal/logger"
	"github.com/upinformatica/prenotabot/internal/speech"
)

// api is the slice of the Telegram Bot API the sender uses.
type api interface {
	SendMessage(ctx context.Context, params *tgbot.SendMessageParams) (*models.Message, error)
	SendVoice(ctx context.Context, params *tgbot.SendVoiceParams) (*models.Message, error)
	SendDocument(ctx context.Context, params *tgbot.SendDocumentParams) (*models.Message, error)
	AnswerCallbackQuery(ctx context.Context, params *tgbot.AnswerCallbackQueryParams) (bool, error)
	GetFile(ctx context.Context, params *tgbot.GetFileParams) (*models.File, error)
	FileDownloadLink(f *models.File) string
}

// Synthesizer converts a spoken line to MP3 audio. A nil synthesizer
// disables voice notes.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// Sender renders dialog responses to a chat: Markdown text with the
// inline keyboard, then the voice note, then the attachment. Voice
// synthesis failures degrade to text-only.
type Sender struct {
	bot        api
	synth      Synthesizer
	httpClient *http.Client
	log        *logger.Logger
	pick       func(n int) int // voice variant selector, overridable for tests
}

// NewSender creates a response sender. synth may be nil.
func NewSender(bot api, synth Synthesizer, log *logger.Logger) *Sender {
	return &Sender{
		bot:        bot,
		synth:      synth,
		httpClient: &http.Client{},
		log:        log.WithModule("sender"),
		pick:       rand.Intn,
	}
}

// Send delivers a response to the chat. firstName personalizes the
// spoken line.
func (s *Sender) Send(ctx context.Context, chatID int64, firstName string, resp dialog.Response) error {
	if resp.Text == "" {
		return nil
	}

	params := &tgbot.SendMessageParams{
		ChatID:    chatID,
		Text:      resp.Text,
		ParseMode: models.ParseModeMarkdown,
	}
	if len(resp.Keyboard) > 0 {
		params.ReplyMarkup = toInlineKeyboard(resp.Keyboard)
	}
	if _, err := s.bot.SendMessage(ctx, params); err != nil {
		return fmt.Errorf("sending message: %w", err)
	}

	// Voice synthesis takes a few seconds; the document upload does
	// not have to wait for it.
	var g errgroup.Group
	if s.synth != nil {
		g.Go(func() error {
			s.sendVoiceNote(ctx, chatID, firstName, resp)
			return nil
		})
	}
	if resp.Attachment != nil {
		g.Go(func() error {
			return s.sendAttachment(ctx, chatID, resp.Attachment)
		})
	}
	if err := g.Wait(); err != nil {
		s.log.WithError(err).Error("sending attachment")
	}
	return nil
}

// sendVoiceNote synthesizes and sends the spoken accompaniment.
// Best-effort: any failure leaves the text reply standing alone.
func (s *Sender) sendVoiceNote(ctx context.Context, chatID int64, firstName string, resp dialog.Response) {
	if s.synth == nil {
		return
	}
	line := resp.Voice
	if line == "" {
		if resp.Kind == dialog.KindSmallTalk {
			// Small talk speaks the reply itself.
			line = resp.Text
		} else {
			line = dialog.VoiceLine(resp.Kind, firstName, s.pick)
		}
	}
	line = speech.CleanForVoice(line)
	if line == "" {
		return
	}

	audio, err := s.synth.Synthesize(ctx, line)
	if err != nil {
		s.log.WithError(err).Warn("synthesizing voice note")
		return
	}
	_, err = s.bot.SendVoice(ctx, &tgbot.SendVoiceParams{
		ChatID: chatID,
		Voice:  &models.InputFileUpload{Filename: "risposta.mp3", Data: bytes.NewReader(audio)},
	})
	if err != nil {
		s.log.WithError(err).Warn("sending voice note")
	}
}

func (s *Sender) sendAttachment(ctx context.Context, chatID int64, att *dialog.Attachment) error {
	_, err := s.bot.SendDocument(ctx, &tgbot.SendDocumentParams{
		ChatID:    chatID,
		Document:  &models.InputFileUpload{Filename: att.Filename, Data: bytes.NewReader(att.Data)},
		Caption:   att.Caption,
		ParseMode: models.ParseModeMarkdown,
	})
	if err != nil {
		return fmt.Errorf("sending document %s: %w", att.Filename, err)
	}
	return nil
}

// AnswerCallback acknowledges a button press so the client stops the
// loading spinner.
func (s *Sender) AnswerCallback(ctx context.Context, callbackID string) {
	if _, err := s.bot.AnswerCallbackQuery(ctx, &tgbot.AnswerCallbackQueryParams{CallbackQueryID: callbackID}); err != nil {
		s.log.WithError(err).Debug("answering callback query")
	}
}

// DownloadVoice fetches a voice note's audio bytes by file ID.
func (s *Sender) DownloadVoice(ctx context.Context, fileID string) ([]byte, error) {
	file, err := s.bot.GetFile(ctx, &tgbot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, fmt.Errorf("resolving voice file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.bot.FileDownloadLink(file), nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading voice file: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func toInlineKeyboard(rows [][]dialog.Choice) *models.InlineKeyboardMarkup {
	keyboard := make([][]models.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]models.InlineKeyboardButton, 0, len(row))
		for _, choice := range row {
			buttons = append(buttons, models.InlineKeyboardButton{
				Text:         choice.Label,
				CallbackData: choice.Data,
			})
		}
		keyboard = append(keyboard, buttons)
	}
	return &models.InlineKeyboardMarkup{InlineKeyboard: keyboard}
}
