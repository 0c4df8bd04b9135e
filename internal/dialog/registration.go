package dialog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/upinformatica/prenotabot/internal/logger"
	"github.com/upinformatica/prenotabot/internal/session"
	"github.com/upinformatica/prenotabot/internal/storage"
)

// NameResolver extracts a person's name from free text. The second
// return is false when no plausible name was found.
type NameResolver interface {
	Extract(ctx context.Context, text string) (string, bool)
}

// ProfileWriter persists a completed registration.
type ProfileWriter interface {
	SaveUser(ctx context.Context, user *storage.User) error
}

// RegistrationFlow walks a new user through the six profile fields,
// one message per field, and persists the profile at the end.
type RegistrationFlow struct {
	sessions *session.Store
	profiles ProfileWriter
	names    NameResolver
	log      *logger.Logger
	metrics  MetricsRecorder
	now      func() time.Time // overridable for tests
}

// NewRegistrationFlow creates the registration dialogue.
func NewRegistrationFlow(sessions *session.Store, profiles ProfileWriter, names NameResolver, log *logger.Logger) *RegistrationFlow {
	return &RegistrationFlow{
		sessions: sessions,
		profiles: profiles,
		names:    names,
		log:      log.WithModule("registration"),
		now:      time.Now,
	}
}

// SetMetrics sets the metrics recorder for dialog outcome monitoring
func (f *RegistrationFlow) SetMetrics(recorder MetricsRecorder) {
	f.metrics = recorder
}

// Start opens the registration dialogue for an unregistered user,
// replacing any other session.
func (f *RegistrationFlow) Start(userID int64, telegramName string) Response {
	f.sessions.Put(userID, session.NewRegistration(telegramName))
	f.record("started")
	return Response{
		Kind:  KindRegistrationPrompt,
		Text:  RegistrationIntro(telegramName),
		Voice: fmt.Sprintf("Ciao %s! Benvenuto! Per iniziare mi serve qualche informazione. Come ti chiami?", telegramName),
	}
}

// Handle advances the dialogue with the user's next message.
func (f *RegistrationFlow) Handle(ctx context.Context, userID int64, text string) Response {
	var resp Response
	f.sessions.Update(userID, func(current *session.Session) *session.Session {
		if current == nil || current.Registration == nil {
			resp = Response{Kind: KindError, Text: msgSessionExpired}
			return current
		}
		state := current.Registration
		var done bool
		resp, done = f.step(ctx, userID, state, text)
		if done {
			return nil
		}
		return current
	})
	return resp
}

// step handles one field. done is true when registration finished,
// successfully or not.
func (f *RegistrationFlow) step(ctx context.Context, userID int64, state *session.RegistrationState, text string) (Response, bool) {
	switch state.Step {
	case session.StepNome:
		name, ok := f.names.Extract(ctx, text)
		if !ok {
			return Response{Kind: KindRegistrationPrompt, Text: msgNameNotUnderstood}, false
		}
		state.Nome = name
		state.Step = session.StepCognome
		return Response{
			Kind:  KindRegistrationPrompt,
			Text:  fmt.Sprintf("✅ Perfetto **%s**!\n\nOra dimmi il tuo **cognome**:", name),
			Voice: "Perfetto! Ora dimmi il tuo cognome.",
		}, false

	case session.StepCognome:
		surname, ok := f.names.Extract(ctx, text)
		if !ok {
			return Response{Kind: KindRegistrationPrompt, Text: msgSurnameNotUnderstood}, false
		}
		state.Cognome = surname
		state.Step = session.StepEmail
		return Response{
			Kind:  KindRegistrationPrompt,
			Text:  fmt.Sprintf("✅ **%s %s**\n\nAdesso mi serve la tua **email**:", state.Nome, surname),
			Voice: "Adesso ho bisogno della tua email per poterti contattare se necessario.",
		}, false

	case session.StepEmail:
		email := strings.ToLower(strings.TrimSpace(text))
		if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
			return Response{Kind: KindRegistrationPrompt, Text: msgInvalidEmail}, false
		}
		state.Email = email
		state.Step = session.StepTelefono
		return Response{
			Kind:  KindRegistrationPrompt,
			Text:  msgEmailSaved,
			Voice: "Perfetto! Email registrata. Ora dimmi il tuo numero di telefono.",
		}, false

	case session.StepTelefono:
		phone := strings.TrimSpace(text)
		if phone == "" {
			return Response{Kind: KindRegistrationPrompt, Text: "❌ Non ho capito. Dimmi il tuo **numero di telefono**:"}, false
		}
		state.Telefono = phone
		state.Step = session.StepVia
		return Response{
			Kind:  KindRegistrationPrompt,
			Text:  msgPhoneSaved,
			Voice: "Bene! Numero salvato. Quasi finito, dimmi il tuo indirizzo completo.",
		}, false

	case session.StepVia:
		street := strings.TrimSpace(text)
		if street == "" {
			return Response{Kind: KindRegistrationPrompt, Text: "❌ Non ho capito. Dimmi il tuo **indirizzo** (via e numero civico):"}, false
		}
		state.Via = titleWords(street)
		state.Step = session.StepCitta
		return Response{
			Kind:  KindRegistrationPrompt,
			Text:  msgAddressSaved,
			Voice: "Ottimo! Indirizzo registrato. Ultima cosa, in che città vivi?",
		}, false

	case session.StepCitta:
		city := strings.TrimSpace(text)
		if city == "" {
			return Response{Kind: KindRegistrationPrompt, Text: "❌ Non ho capito. Dimmi la tua **città**:"}, false
		}
		state.Citta = titleWords(city)
		return f.complete(ctx, userID, state), true
	}

	return Response{Kind: KindError, Text: msgSessionExpired}, true
}

func (f *RegistrationFlow) complete(ctx context.Context, userID int64, state *session.RegistrationState) Response {
	user := &storage.User{
		ID:           userID,
		TelegramName: state.TelegramName,
		Nome:         state.Nome,
		Cognome:      state.Cognome,
		Email:        state.Email,
		Telefono:     state.Telefono,
		Via:          state.Via,
		Citta:        state.Citta,
		RegisteredAt: f.now(),
	}
	if err := f.profiles.SaveUser(ctx, user); err != nil {
		f.log.WithUserID(userID).WithError(err).Error("saving registration")
		f.record("error")
		return Response{Kind: KindError, Text: msgRegistrationError}
	}

	f.log.WithUserID(userID).Info("registration completed")
	f.record("completed")
	return Response{Kind: KindRegistrationDone, Text: RegistrationDone(state.Nome, state.Cognome)}
}

func (f *RegistrationFlow) record(outcome string) {
	if f.metrics != nil {
		f.metrics.RecordDialogOutcome("registration", outcome)
	}
}

// titleWords capitalizes each whitespace-separated word, the way the
// profile fields are stored.
func titleWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		if len(runes) > 0 {
			runes[0] = []rune(strings.ToUpper(string(runes[0])))[0]
		}
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
