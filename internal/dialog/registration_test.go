package dialog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/upinformatica/prenotabot/internal/logger"
	"github.com/upinformatica/prenotabot/internal/session"
)

// fakeNames extracts the first word, title-cased, and fails on
// anything containing a question mark.
type fakeNames struct{}

func (fakeNames) Extract(_ context.Context, text string) (string, bool) {
	if strings.Contains(text, "?") {
		return "", false
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "", false
	}
	return titleWords(fields[len(fields)-1]), true
}

type registrationFixture struct {
	flow     *RegistrationFlow
	sessions *session.Store
	profiles *fakeProfiles
}

func newRegistrationFixture(t *testing.T) *registrationFixture {
	t.Helper()
	store := session.NewStore(session.StoreConfig{TTL: time.Hour, CleanupPeriod: time.Hour})
	t.Cleanup(store.Stop)

	profiles := &fakeProfiles{}
	log := logger.NewWithWriter("error", io.Discard)
	flow := NewRegistrationFlow(store, profiles, fakeNames{}, log)
	flow.now = func() time.Time { return time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC) }

	return &registrationFixture{flow: flow, sessions: store, profiles: profiles}
}

func TestRegistrationFullFlow(t *testing.T) {
	fx := newRegistrationFixture(t)
	ctx := context.Background()

	resp := fx.flow.Start(42, "Mario")
	if resp.Kind != KindRegistrationPrompt {
		t.Errorf("Kind = %q, want %q", resp.Kind, KindRegistrationPrompt)
	}
	if !strings.Contains(resp.Text, "Mario") || !strings.Contains(resp.Text, "Come ti chiami") {
		t.Errorf("unexpected intro: %q", resp.Text)
	}

	resp = fx.flow.Handle(ctx, 42, "mi chiamo mario")
	if !strings.Contains(resp.Text, "cognome") {
		t.Errorf("expected surname prompt, got %q", resp.Text)
	}

	resp = fx.flow.Handle(ctx, 42, "rossi")
	if !strings.Contains(resp.Text, "email") {
		t.Errorf("expected email prompt, got %q", resp.Text)
	}

	resp = fx.flow.Handle(ctx, 42, "MARIO.ROSSI@Example.COM")
	if !strings.Contains(resp.Text, "telefono") {
		t.Errorf("expected phone prompt, got %q", resp.Text)
	}

	resp = fx.flow.Handle(ctx, 42, "333 1234567")
	if !strings.Contains(resp.Text, "indirizzo") {
		t.Errorf("expected address prompt, got %q", resp.Text)
	}

	resp = fx.flow.Handle(ctx, 42, "via garibaldi 12")
	if !strings.Contains(resp.Text, "città") {
		t.Errorf("expected city prompt, got %q", resp.Text)
	}

	resp = fx.flow.Handle(ctx, 42, "milano")
	if resp.Kind != KindRegistrationDone {
		t.Fatalf("Kind = %q, want %q", resp.Kind, KindRegistrationDone)
	}
	if !strings.Contains(resp.Text, "Registrazione completata") {
		t.Errorf("unexpected completion text: %q", resp.Text)
	}

	if len(fx.profiles.saved) != 1 {
		t.Fatalf("saved %d users, want 1", len(fx.profiles.saved))
	}
	user := fx.profiles.saved[0]
	if user.ID != 42 || user.TelegramName != "Mario" {
		t.Errorf("identity fields wrong: %+v", user)
	}
	if user.Nome != "Mario" || user.Cognome != "Rossi" {
		t.Errorf("name fields wrong: %+v", user)
	}
	if user.Email != "mario.rossi@example.com" {
		t.Errorf("Email = %q, want lowercased", user.Email)
	}
	if user.Telefono != "333 1234567" {
		t.Errorf("Telefono = %q", user.Telefono)
	}
	if user.Via != "Via Garibaldi 12" || user.Citta != "Milano" {
		t.Errorf("address fields not title-cased: %q / %q", user.Via, user.Citta)
	}
	if user.RegisteredAt.IsZero() {
		t.Error("RegisteredAt not set")
	}

	if fx.sessions.Get(42) != nil {
		t.Error("session should be destroyed after completion")
	}
}

func TestRegistrationNameNotUnderstood(t *testing.T) {
	fx := newRegistrationFixture(t)
	ctx := context.Background()

	fx.flow.Start(42, "Mario")
	resp := fx.flow.Handle(ctx, 42, "???")
	if !strings.Contains(resp.Text, "Non ho capito il tuo nome") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
	if got := fx.sessions.Get(42).Registration.Step; got != session.StepNome {
		t.Errorf("Step = %q, want %q", got, session.StepNome)
	}
}

func TestRegistrationInvalidEmail(t *testing.T) {
	fx := newRegistrationFixture(t)
	ctx := context.Background()

	fx.flow.Start(42, "Mario")
	fx.flow.Handle(ctx, 42, "mario")
	fx.flow.Handle(ctx, 42, "rossi")

	resp := fx.flow.Handle(ctx, 42, "non ce l'ho")
	if !strings.Contains(resp.Text, "Email non valida") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
	if got := fx.sessions.Get(42).Registration.Step; got != session.StepEmail {
		t.Errorf("Step = %q, want %q", got, session.StepEmail)
	}
}

func TestRegistrationSaveFailure(t *testing.T) {
	fx := newRegistrationFixture(t)
	fx.profiles.saveErr = errors.New("disk full")
	ctx := context.Background()

	fx.flow.Start(42, "Mario")
	for _, msg := range []string{"mario", "rossi", "mario@example.com", "333", "via roma 1"} {
		fx.flow.Handle(ctx, 42, msg)
	}

	resp := fx.flow.Handle(ctx, 42, "milano")
	if resp.Kind != KindError {
		t.Errorf("Kind = %q, want %q", resp.Kind, KindError)
	}
	if !strings.Contains(resp.Text, "Errore nella registrazione") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
	if fx.sessions.Get(42) != nil {
		t.Error("session should be destroyed even when saving fails")
	}
}

func TestRegistrationHandleWithoutSession(t *testing.T) {
	fx := newRegistrationFixture(t)

	resp := fx.flow.Handle(context.Background(), 42, "mario")
	if !strings.Contains(resp.Text, "scaduta") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
}

func TestTitleWords(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"via roma 1", "Via Roma 1"},
		{"MILANO", "Milano"},
		{"  reggio   emilia ", "Reggio Emilia"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := titleWords(tt.in); got != tt.want {
			t.Errorf("titleWords(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
