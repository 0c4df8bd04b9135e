package bot

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/upinformatica/prenotabot/internal/calendar"
	"github.com/upinformatica/prenotabot/internal/config"
	"github.com/upinformatica/prenotabot/internal/dialog"
	"github.com/upinformatica/prenotabot/internal/logger"
	"github.com/upinformatica/prenotabot/internal/nlu"
	"github.com/upinformatica/prenotabot/internal/sentry"
	"github.com/upinformatica/prenotabot/internal/session"
	"github.com/upinformatica/prenotabot/internal/storage"
)

const (
	msgTemporaryError      = "🔧 Si è verificato un errore temporaneo. Riprova tra qualche istante."
	msgRateLimited         = "⏳ Stai inviando troppi messaggi! Aspetta qualche secondo e riprova."
	msgMessageTooLong      = "❌ Messaggio troppo lungo. Riprova con un testo più breve."
	msgTranscriptionFailed = "❌ Non sono riuscito a trascrivere l'audio. Riprova!"
	msgAppointmentsError   = "❌ Errore nel recupero degli appuntamenti."
	msgUnknownCommand      = "❓ Comando non riconosciuto. Usa /start per vedere i comandi disponibili."
	msgHealthy             = "🤖 Bot attivo e funzionante!"
)

// ProfileReader answers registration questions about a user.
type ProfileReader interface {
	IsRegistered(ctx context.Context, userID int64) (bool, error)
	GetUser(ctx context.Context, userID int64) (*storage.User, error)
}

// AppointmentLister returns a user's upcoming appointments.
type AppointmentLister interface {
	Upcoming(ctx context.Context, now time.Time, days int, ownerID int64) ([]calendar.Event, error)
}

// SmallTalker generates conversational replies outside the dialogues.
type SmallTalker interface {
	Respond(ctx context.Context, userID int64, text string) (string, error)
	ClearHistory(userID int64)
}

// Transcriber converts voice note audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// RateLimiter gates events per user.
type RateLimiter interface {
	Allow(userID int64) bool
}

// upcomingDays is the window shown by /appuntamenti.
const upcomingDays = 7

// Processor routes normalized events through the bot's decision
// chain: rate limit, command dispatch, active dialogue, registration
// gate, booking intent, small talk.
type Processor struct {
	registrations *dialog.RegistrationFlow
	bookings      *dialog.BookingFlow
	sessions      *session.Store
	profiles      ProfileReader
	appointments  AppointmentLister
	assistant     SmallTalker
	transcriber   Transcriber
	userLimiter   RateLimiter
	loc           *time.Location
	log           *logger.Logger

	maxMessageLength int

	now func() time.Time // overridable for tests
}

// ProcessorConfig holds configuration for creating a new Processor.
type ProcessorConfig struct {
	Registrations *dialog.RegistrationFlow
	Bookings      *dialog.BookingFlow
	Sessions      *session.Store
	Profiles      ProfileReader
	Appointments  AppointmentLister
	Assistant     SmallTalker
	Transcriber   Transcriber
	UserLimiter   RateLimiter
	Location      *time.Location
	Logger        *logger.Logger
	BotConfig     *config.BotConfig
}

// NewProcessor creates a new event processor.
func NewProcessor(cfg ProcessorConfig) *Processor {
	maxLen := cfg.BotConfig.MaxMessageLength
	if maxLen <= 0 {
		maxLen = config.TelegramMaxMessageLength
	}
	return &Processor{
		registrations:    cfg.Registrations,
		bookings:         cfg.Bookings,
		sessions:         cfg.Sessions,
		profiles:         cfg.Profiles,
		appointments:     cfg.Appointments,
		assistant:        cfg.Assistant,
		transcriber:      cfg.Transcriber,
		userLimiter:      cfg.UserLimiter,
		loc:              cfg.Location,
		log:              cfg.Logger.WithModule("processor"),
		maxMessageLength: maxLen,
		now:              time.Now,
	}
}

// Process handles one inbound event and returns the reply. Panics
// and collaborator errors never escape: the user always gets either
// a real reply or a generic apology.
func (p *Processor) Process(ctx context.Context, event Event) (resp dialog.Response) {
	defer func() {
		if r := recover(); r != nil {
			p.log.WithUserID(event.UserID).WithField("panic", r).Error("panic while processing event")
			sentry.Recover(r)
			resp = dialog.Response{Kind: dialog.KindError, Text: msgTemporaryError}
		}
	}()

	if !p.userLimiter.Allow(event.UserID) {
		p.log.WithUserID(event.UserID).Warn("user rate limited")
		return dialog.Response{Kind: dialog.KindGeneric, Text: msgRateLimited}
	}

	ctx, cancel := context.WithTimeout(ctx, config.WebhookProcessing)
	defer cancel()

	switch event.Kind {
	case EventButton:
		return p.bookings.HandleCallback(ctx, event.UserID, event.Payload)
	case EventCommand:
		return p.processCommand(ctx, event)
	case EventVoice:
		return p.processVoice(ctx, event)
	default:
		return p.processText(ctx, event, event.Payload)
	}
}

func (p *Processor) processVoice(ctx context.Context, event Event) dialog.Response {
	text, err := p.transcriber.Transcribe(ctx, event.Audio, event.AudioName)
	if err != nil {
		p.log.WithUserID(event.UserID).WithError(err).Error("transcribing voice message")
		return dialog.Response{Kind: dialog.KindError, Text: msgTranscriptionFailed}
	}
	if text == "" {
		return dialog.Response{Kind: dialog.KindError, Text: msgTranscriptionFailed}
	}
	p.log.WithUserID(event.UserID).WithField("chars", len(text)).Info("voice message transcribed")
	return p.processText(ctx, event, text)
}

func (p *Processor) processText(ctx context.Context, event Event, text string) dialog.Response {
	text = strings.TrimSpace(text)
	if text == "" {
		return dialog.Response{}
	}
	if utf8.RuneCountInString(text) > p.maxMessageLength {
		p.log.WithUserID(event.UserID).WithField("length", len(text)).Warn("message too long")
		return dialog.Response{Kind: dialog.KindError, Text: msgMessageTooLong}
	}

	// An in-progress dialogue consumes everything.
	if sess := p.sessions.Get(event.UserID); sess != nil {
		if sess.Registration != nil {
			return p.registrations.Handle(ctx, event.UserID, text)
		}
		return p.bookings.Handle(ctx, event.UserID, text)
	}

	registered, err := p.profiles.IsRegistered(ctx, event.UserID)
	if err != nil {
		p.log.WithUserID(event.UserID).WithError(err).Error("checking registration")
		sentry.CaptureExceptionWithContext(ctx, err)
		return dialog.Response{Kind: dialog.KindError, Text: msgTemporaryError}
	}
	if !registered {
		return p.registrations.Start(event.UserID, event.DisplayName)
	}

	if nlu.DetectBookingIntent(text) {
		return p.bookings.StartFromText(event.UserID, text)
	}

	reply, err := p.assistant.Respond(ctx, event.UserID, text)
	if err != nil {
		p.log.WithUserID(event.UserID).WithError(err).Error("generating small-talk reply")
		sentry.CaptureExceptionWithContext(ctx, err)
		return dialog.Response{Kind: dialog.KindError, Text: msgTemporaryError}
	}
	return dialog.Response{Kind: dialog.KindSmallTalk, Text: reply}
}

func (p *Processor) processCommand(ctx context.Context, event Event) dialog.Response {
	command := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(event.Payload), "/"))
	p.log.WithUserID(event.UserID).WithField("command", command).Info("command received")

	switch command {
	case "start":
		p.assistant.ClearHistory(event.UserID)
		user, resp := p.requireRegistered(ctx, event)
		if user == nil {
			return resp
		}
		return dialog.Response{Kind: dialog.KindWelcome, Text: dialog.WelcomeBack(user.DisplayName(), user.TotalAppointments)}

	case "prenota":
		return p.bookings.Start(event.UserID)

	case "appuntamenti":
		events, err := p.appointments.Upcoming(ctx, p.now().In(p.loc), upcomingDays, event.UserID)
		if err != nil {
			p.log.WithUserID(event.UserID).WithError(err).Error("listing appointments")
			return dialog.Response{Kind: dialog.KindError, Text: msgAppointmentsError}
		}
		return dialog.Response{Kind: dialog.KindAppointments, Text: dialog.FormatAppointmentList(events, p.loc)}

	case "profilo":
		user, resp := p.requireRegistered(ctx, event)
		if user == nil {
			return resp
		}
		return dialog.Response{Kind: dialog.KindProfile, Text: dialog.ProfileMessage(user)}

	case "cancella":
		return p.bookings.Cancel(event.UserID)

	case "clear":
		p.assistant.ClearHistory(event.UserID)
		return dialog.Response{Kind: dialog.KindGeneric, Text: dialog.HistoryCleared(event.DisplayName)}

	case "health":
		return dialog.Response{Kind: dialog.KindGeneric, Text: msgHealthy}
	}

	return dialog.Response{Kind: dialog.KindGeneric, Text: msgUnknownCommand}
}

// requireRegistered loads the user's profile, or starts registration
// when there is none. Exactly one of the returns is meaningful.
func (p *Processor) requireRegistered(ctx context.Context, event Event) (*storage.User, dialog.Response) {
	user, err := p.profiles.GetUser(ctx, event.UserID)
	if err != nil {
		p.log.WithUserID(event.UserID).WithError(err).Error("loading profile")
		sentry.CaptureExceptionWithContext(ctx, err)
		return nil, dialog.Response{Kind: dialog.KindError, Text: msgTemporaryError}
	}
	if user == nil {
		return nil, p.registrations.Start(event.UserID, event.DisplayName)
	}
	return user, dialog.Response{}
}
