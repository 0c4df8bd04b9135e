package dialog

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/upinformatica/prenotabot/internal/calendar"
	"github.com/upinformatica/prenotabot/internal/logger"
	"github.com/upinformatica/prenotabot/internal/nlu"
	"github.com/upinformatica/prenotabot/internal/session"
	"github.com/upinformatica/prenotabot/internal/storage"
)

// Availability answers whether a window is free for a user and
// proposes alternatives on the same day.
type Availability interface {
	IsFree(ctx context.Context, start, end time.Time, ownerID int64) (bool, []calendar.Event)
	SuggestSlots(ctx context.Context, day time.Time, duration time.Duration, ownerID int64) []time.Time
}

// EventInserter commits a confirmed appointment to the calendar.
type EventInserter interface {
	InsertEvent(ctx context.Context, event calendar.Event) (string, error)
}

// ProfileStore exposes the registered-user data the flows need.
type ProfileStore interface {
	GetUser(ctx context.Context, userID int64) (*storage.User, error)
	IncrementAppointmentStats(ctx context.Context, userID int64, lastAppointment string) error
}

// MetricsRecorder defines the interface for recording dialog outcome metrics
type MetricsRecorder interface {
	RecordDialogOutcome(flow, outcome string)
}

// BookingConfig tunes the booking dialogue.
type BookingConfig struct {
	// ConflictBlocking refuses occupied windows and proposes free
	// slots instead. When off the user can double-book.
	ConflictBlocking bool

	// Duration is the fixed appointment length.
	Duration time.Duration
}

// BookingFlow drives the three-step booking dialogue: date/time,
// subject, confirmation. It owns the user's session for the duration
// of the dialogue and commits exactly one calendar event on success.
type BookingFlow struct {
	sessions     *session.Store
	availability Availability
	inserter     EventInserter
	profiles     ProfileStore
	resolver     *nlu.Resolver
	cfg          BookingConfig
	log          *logger.Logger
	metrics      MetricsRecorder
	now          func() time.Time // overridable for tests
	pick         func(n int) int  // variant selector, overridable for tests
}

// NewBookingFlow creates the booking dialogue.
func NewBookingFlow(sessions *session.Store, availability Availability, inserter EventInserter, profiles ProfileStore, resolver *nlu.Resolver, cfg BookingConfig, log *logger.Logger) *BookingFlow {
	if cfg.Duration <= 0 {
		cfg.Duration = time.Hour
	}
	return &BookingFlow{
		sessions:     sessions,
		availability: availability,
		inserter:     inserter,
		profiles:     profiles,
		resolver:     resolver,
		cfg:          cfg,
		log:          log.WithModule("booking"),
		now:          time.Now,
		pick:         rand.Intn,
	}
}

// SetMetrics sets the metrics recorder for dialog outcome monitoring
func (f *BookingFlow) SetMetrics(recorder MetricsRecorder) {
	f.metrics = recorder
}

// Start opens the dialogue from an explicit request (/prenota or a
// menu button), with the quick-pick time keyboard.
func (f *BookingFlow) Start(userID int64) Response {
	f.sessions.Put(userID, session.NewBooking(session.StepAwaitingDateTime))
	f.record("started")
	return Response{
		Kind:     KindBookingPrompt,
		Text:     msgBookingIntro,
		Keyboard: quickPickKeyboard(f.now().In(f.resolver.Location())),
	}
}

// StartFromText opens the dialogue from detected booking intent in
// free text. When the triggering text already carries a resolvable
// date the first step is skipped.
func (f *BookingFlow) StartFromText(userID int64, text string) Response {
	loc := f.resolver.Location()
	now := f.now().In(loc)
	f.record("started")

	if dt, ok := f.resolver.Resolve(text, now); ok {
		sess := session.NewBooking(session.StepAwaitingTitle)
		sess.Booking.DateTime = dt
		f.sessions.Put(userID, sess)
		return Response{
			Kind: KindBookingTitle,
			Text: fmt.Sprintf("📅 Perfetto! Ho capito che vuoi prenotare per **%s**.\n\n"+
				"Ora dimmi l'oggetto dell'appuntamento (es: 'Riunione di lavoro', 'Visita medica', ecc.)",
				calendar.FormatEventTime(dt, loc)),
		}
	}

	f.sessions.Put(userID, session.NewBooking(session.StepAwaitingDateTime))
	return Response{Kind: KindBookingPrompt, Text: msgBookingIntentNoDate}
}

// Handle advances the dialogue with the user's next message.
func (f *BookingFlow) Handle(ctx context.Context, userID int64, text string) Response {
	var resp Response
	f.sessions.Update(userID, func(current *session.Session) *session.Session {
		if current == nil || current.Booking == nil {
			resp = Response{Kind: KindError, Text: msgSessionExpired}
			return current
		}
		state := current.Booking
		switch state.Step {
		case session.StepAwaitingDateTime:
			resp = f.stepDateTime(ctx, userID, state, text)
		case session.StepAwaitingTitle:
			resp = f.stepTitle(ctx, userID, state, text)
		case session.StepAwaitingConfirmation:
			var keep bool
			resp, keep = f.stepConfirmation(ctx, userID, state, text)
			if !keep {
				return nil
			}
		}
		return current
	})
	return resp
}

// HandleCallback advances the dialogue with an inline button press.
// Time buttons feed their canonical phrase through the date handler.
func (f *BookingFlow) HandleCallback(ctx context.Context, userID int64, data string) Response {
	switch {
	case data == "cancel_booking":
		f.sessions.Clear(userID)
		f.record("cancelled")
		return Response{Kind: KindBookingCancelled, Text: msgOperationCancelled}

	case strings.HasPrefix(data, "time_"):
		phrase := strings.TrimPrefix(data, "time_")
		var resp Response
		f.sessions.Update(userID, func(current *session.Session) *session.Session {
			if current == nil || current.Booking == nil {
				resp = Response{Kind: KindError, Text: msgSessionExpired}
				return current
			}
			resp = f.stepDateTime(ctx, userID, current.Booking, phrase)
			return current
		})
		return resp

	case data == "confirm_yes" || data == "confirm_no":
		var resp Response
		f.sessions.Update(userID, func(current *session.Session) *session.Session {
			if current == nil || current.Booking == nil {
				resp = Response{Kind: KindError, Text: msgSessionExpired}
				return current
			}
			if data == "confirm_no" {
				f.record("cancelled")
				resp = Response{Kind: KindBookingCancelled, Text: msgBookingCancelledBtn}
				return nil
			}
			if current.Booking.Step != session.StepAwaitingConfirmation {
				resp = Response{Kind: KindGeneric, Text: msgConfirmNotUnderstood}
				return current
			}
			resp = f.commit(ctx, userID, current.Booking)
			return nil
		})
		return resp
	}

	return Response{Kind: KindError, Text: msgUnknownAction}
}

// Cancel aborts an in-progress booking (/cancella).
func (f *BookingFlow) Cancel(userID int64) Response {
	var had bool
	f.sessions.Update(userID, func(current *session.Session) *session.Session {
		if current != nil && current.Booking != nil {
			had = true
			return nil
		}
		return current
	})
	if !had {
		return Response{Kind: KindGeneric, Text: msgNoBookingInProgress}
	}
	f.record("cancelled")
	return Response{Kind: KindBookingCancelled, Text: msgBookingAborted}
}

func (f *BookingFlow) stepDateTime(ctx context.Context, userID int64, state *session.BookingState, text string) Response {
	loc := f.resolver.Location()
	now := f.now().In(loc)

	dt, ok := f.resolver.Resolve(text, now)
	if !ok {
		return Response{Kind: KindBookingPrompt, Text: msgDateNotUnderstood}
	}
	if dt.Before(now) {
		return Response{Kind: KindBookingPrompt, Text: msgPastDate}
	}

	state.DateTime = dt
	if state.Title != "" {
		// A conflict sent the user back here with the subject already
		// collected, so skip straight to the availability check.
		return f.stepTitle(ctx, userID, state, state.Title)
	}
	state.Step = session.StepAwaitingTitle
	return Response{
		Kind: KindBookingTitle,
		Text: fmt.Sprintf("✅ Perfetto! **%s**\n\nOra dimmi l'oggetto dell'appuntamento.", calendar.FormatEventTime(dt, loc)),
	}
}

func (f *BookingFlow) stepTitle(ctx context.Context, userID int64, state *session.BookingState, text string) Response {
	loc := f.resolver.Location()
	state.Title = strings.TrimSpace(text)
	start := state.DateTime
	end := start.Add(f.cfg.Duration)

	if f.cfg.ConflictBlocking {
		if free, conflicts := f.availability.IsFree(ctx, start, end, userID); !free {
			f.log.WithUserID(userID).WithField("conflicts", len(conflicts)).Info("requested slot occupied")
			state.Step = session.StepAwaitingDateTime
			state.DateTime = time.Time{}

			slots := f.availability.SuggestSlots(ctx, start, f.cfg.Duration, userID)
			if len(slots) == 0 {
				return Response{Kind: KindBookingPrompt, Text: msgConflictNoSlots}
			}
			var b strings.Builder
			b.WriteString(msgConflictHeader)
			for i, slot := range slots {
				fmt.Fprintf(&b, "%d. %s\n", i+1, calendar.FormatEventTime(slot, loc))
			}
			b.WriteString("\nClicca uno slot qui sotto oppure dimmi un'altra data.")
			return Response{Kind: KindBookingPrompt, Text: b.String(), Keyboard: slotKeyboard(slots, loc)}
		}
	}

	state.Step = session.StepAwaitingConfirmation
	return Response{
		Kind: KindBookingSummary,
		Text: fmt.Sprintf(
			"📋 **Riepilogo Appuntamento**\n\n"+
				"📅 **Data:** %s\n"+
				"⏰ **Fine:** %s\n"+
				"📝 **Oggetto:** %s\n\n"+
				"🔸 **Clicca un bottone** per confermare o annullare\n"+
				"🔸 **Oppure scrivi/di' 'sì'** per confermare",
			calendar.FormatEventTime(start, loc), end.In(loc).Format("15:04"), state.Title),
		Keyboard: confirmKeyboard(),
	}
}

var affirmatives = map[string]bool{
	"sì": true, "si": true, "yes": true, "ok": true, "conferma": true, "confermo": true,
}

var negatives = map[string]bool{
	"no": true, "annulla": true, "cancel": true,
}

// stepConfirmation returns keep=false when the session is finished,
// whatever the outcome.
func (f *BookingFlow) stepConfirmation(ctx context.Context, userID int64, state *session.BookingState, text string) (Response, bool) {
	switch normalized := strings.ToLower(strings.TrimSpace(text)); {
	case affirmatives[normalized]:
		return f.commit(ctx, userID, state), false
	case negatives[normalized]:
		f.record("cancelled")
		return Response{Kind: KindBookingCancelled, Text: msgBookingCancelled}, false
	default:
		return Response{Kind: KindGeneric, Text: msgConfirmNotUnderstood}, true
	}
}

// commit inserts the calendar event, bumps the user's appointment
// stats and builds the confirmation reply with the ICS attachment.
func (f *BookingFlow) commit(ctx context.Context, userID int64, state *session.BookingState) Response {
	loc := f.resolver.Location()
	start := state.DateTime
	end := start.Add(f.cfg.Duration)

	description := calendar.BotMarker + "\n" + calendar.OwnerTag(userID)
	user, err := f.profiles.GetUser(ctx, userID)
	if err != nil {
		f.log.WithUserID(userID).WithError(err).Warn("loading profile for event description")
	} else if user != nil {
		description += "\n\n" + user.CalendarDescription()
	}

	eventID, err := f.inserter.InsertEvent(ctx, calendar.Event{
		Summary:     state.Title,
		Description: description,
		Start:       start,
		End:         end,
	})
	if err != nil {
		f.log.WithUserID(userID).WithError(err).Error("creating calendar event")
		f.record("error")
		return Response{Kind: KindError, Text: msgCreateEventFailed}
	}

	formatted := calendar.FormatEventTime(start, loc)
	if err := f.profiles.IncrementAppointmentStats(ctx, userID, formatted); err != nil {
		f.log.WithUserID(userID).WithError(err).Warn("updating appointment stats")
	}

	f.log.WithUserID(userID).WithField("event_id", eventID).Info("appointment created")
	f.record("confirmed")

	text := fmt.Sprintf(confirmedVariants[f.pick(len(confirmedVariants))], formatted, state.Title)
	return Response{
		Kind: KindBookingConfirmed,
		Text: text,
		Attachment: &Attachment{
			Filename: calendar.ICSFilename(state.Title, start, loc),
			Caption:  msgICSCaption,
			Data:     calendar.GenerateICS(state.Title, start, end, f.now()),
		},
	}
}

func (f *BookingFlow) record(outcome string) {
	if f.metrics != nil {
		f.metrics.RecordDialogOutcome("booking", outcome)
	}
}
