package dialog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/upinformatica/prenotabot/internal/calendar"
	"github.com/upinformatica/prenotabot/internal/logger"
	"github.com/upinformatica/prenotabot/internal/nlu"
	"github.com/upinformatica/prenotabot/internal/session"
	"github.com/upinformatica/prenotabot/internal/storage"
)

type fakeAvailability struct {
	free  bool
	slots []time.Time
}

func (a *fakeAvailability) IsFree(_ context.Context, _, _ time.Time, _ int64) (bool, []calendar.Event) {
	if a.free {
		return true, nil
	}
	return false, []calendar.Event{{Summary: "Occupato"}}
}

func (a *fakeAvailability) SuggestSlots(_ context.Context, _ time.Time, _ time.Duration, _ int64) []time.Time {
	return a.slots
}

type fakeInserter struct {
	events []calendar.Event
	err    error
}

func (i *fakeInserter) InsertEvent(_ context.Context, event calendar.Event) (string, error) {
	if i.err != nil {
		return "", i.err
	}
	i.events = append(i.events, event)
	return "event-1", nil
}

type fakeProfiles struct {
	user        *storage.User
	incremented []string
	saved       []*storage.User
	saveErr     error
}

func (p *fakeProfiles) GetUser(_ context.Context, _ int64) (*storage.User, error) {
	return p.user, nil
}

func (p *fakeProfiles) IncrementAppointmentStats(_ context.Context, _ int64, last string) error {
	p.incremented = append(p.incremented, last)
	return nil
}

func (p *fakeProfiles) SaveUser(_ context.Context, user *storage.User) error {
	if p.saveErr != nil {
		return p.saveErr
	}
	p.saved = append(p.saved, user)
	return nil
}

// testNow is a Wednesday morning in Rome.
func testNow(t *testing.T) time.Time {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Rome")
	if err != nil {
		t.Fatalf("loading timezone: %v", err)
	}
	return time.Date(2026, 9, 2, 10, 0, 0, 0, loc)
}

type bookingFixture struct {
	flow     *BookingFlow
	sessions *session.Store
	avail    *fakeAvailability
	inserter *fakeInserter
	profiles *fakeProfiles
}

func newBookingFixture(t *testing.T, blocking bool) *bookingFixture {
	t.Helper()
	now := testNow(t)
	store := session.NewStore(session.StoreConfig{TTL: time.Hour, CleanupPeriod: time.Hour})
	t.Cleanup(store.Stop)

	avail := &fakeAvailability{free: true}
	inserter := &fakeInserter{}
	profiles := &fakeProfiles{user: &storage.User{
		ID: 42, Nome: "Mario", Cognome: "Rossi",
		Email: "mario@example.com", Telefono: "3331234567",
		Via: "Via Roma 1", Citta: "Milano",
		RegisteredAt: now.AddDate(0, -1, 0),
	}}

	log := logger.NewWithWriter("error", io.Discard)
	flow := NewBookingFlow(store, avail, inserter, profiles, nlu.NewResolver(now.Location()),
		BookingConfig{ConflictBlocking: blocking, Duration: time.Hour}, log)
	flow.now = func() time.Time { return now }
	flow.pick = func(int) int { return 0 }

	return &bookingFixture{flow: flow, sessions: store, avail: avail, inserter: inserter, profiles: profiles}
}

func TestBookingStart(t *testing.T) {
	fx := newBookingFixture(t, true)

	resp := fx.flow.Start(42)
	if resp.Kind != KindBookingPrompt {
		t.Errorf("Kind = %q, want %q", resp.Kind, KindBookingPrompt)
	}
	if len(resp.Keyboard) == 0 {
		t.Fatal("Start() should offer a quick-pick keyboard")
	}
	last := resp.Keyboard[len(resp.Keyboard)-1]
	if len(last) != 1 || last[0].Data != "cancel_booking" {
		t.Errorf("last keyboard row should be the cancel button, got %+v", last)
	}

	sess := fx.sessions.Get(42)
	if sess == nil || sess.Booking == nil || sess.Booking.Step != session.StepAwaitingDateTime {
		t.Errorf("unexpected session after Start: %+v", sess)
	}
}

func TestQuickPickTodayRowOnlyDuringWorkday(t *testing.T) {
	morning := testNow(t)
	evening := morning.Add(9 * time.Hour) // 19:00

	if rows := quickPickKeyboard(morning); len(rows) != 4 {
		t.Errorf("morning keyboard rows = %d, want 4", len(rows))
	}
	if rows := quickPickKeyboard(evening); len(rows) != 3 {
		t.Errorf("evening keyboard rows = %d, want 3 (no today row)", len(rows))
	}
}

func TestBookingStartFromTextWithDate(t *testing.T) {
	fx := newBookingFixture(t, true)

	resp := fx.flow.StartFromText(42, "vorrei prenotare un appuntamento domani alle 15")
	if resp.Kind != KindBookingTitle {
		t.Errorf("Kind = %q, want %q", resp.Kind, KindBookingTitle)
	}
	if !strings.Contains(resp.Text, "03/09/2026 alle 15:00") {
		t.Errorf("response should echo the resolved time, got %q", resp.Text)
	}

	sess := fx.sessions.Get(42)
	if sess == nil || sess.Booking == nil {
		t.Fatal("no booking session after StartFromText")
	}
	if sess.Booking.Step != session.StepAwaitingTitle {
		t.Errorf("Step = %q, want %q", sess.Booking.Step, session.StepAwaitingTitle)
	}
	want := time.Date(2026, 9, 3, 15, 0, 0, 0, testNow(t).Location())
	if !sess.Booking.DateTime.Equal(want) {
		t.Errorf("DateTime = %v, want %v", sess.Booking.DateTime, want)
	}
}

func TestBookingStartFromTextWithoutDate(t *testing.T) {
	fx := newBookingFixture(t, true)

	resp := fx.flow.StartFromText(42, "vorrei fissare un appuntamento")
	if !strings.Contains(resp.Text, "non sono riuscito a capire quando") {
		t.Errorf("unexpected response: %q", resp.Text)
	}
	sess := fx.sessions.Get(42)
	if sess == nil || sess.Booking == nil || sess.Booking.Step != session.StepAwaitingDateTime {
		t.Errorf("unexpected session: %+v", sess)
	}
}

func TestBookingFullFlow(t *testing.T) {
	fx := newBookingFixture(t, true)
	ctx := context.Background()

	fx.flow.Start(42)

	resp := fx.flow.Handle(ctx, 42, "domani alle 15:00")
	if !strings.Contains(resp.Text, "oggetto") {
		t.Errorf("expected subject prompt, got %q", resp.Text)
	}

	resp = fx.flow.Handle(ctx, 42, "Visita di controllo")
	if resp.Kind != KindBookingSummary {
		t.Errorf("Kind = %q, want %q", resp.Kind, KindBookingSummary)
	}
	if !strings.Contains(resp.Text, "Visita di controllo") || !strings.Contains(resp.Text, "16:00") {
		t.Errorf("summary missing details: %q", resp.Text)
	}
	if len(resp.Keyboard) != 1 || resp.Keyboard[0][0].Data != "confirm_yes" {
		t.Errorf("expected confirmation keyboard, got %+v", resp.Keyboard)
	}

	resp = fx.flow.Handle(ctx, 42, "sì")
	if resp.Kind != KindBookingConfirmed {
		t.Fatalf("Kind = %q, want %q", resp.Kind, KindBookingConfirmed)
	}
	if resp.Attachment == nil {
		t.Fatal("confirmation should carry the ICS attachment")
	}
	if !strings.HasSuffix(resp.Attachment.Filename, ".ics") {
		t.Errorf("attachment filename = %q", resp.Attachment.Filename)
	}
	if !strings.Contains(string(resp.Attachment.Data), "BEGIN:VCALENDAR") {
		t.Error("attachment data is not an ICS file")
	}

	if len(fx.inserter.events) != 1 {
		t.Fatalf("inserted %d events, want 1", len(fx.inserter.events))
	}
	event := fx.inserter.events[0]
	if event.Summary != "Visita di controllo" {
		t.Errorf("Summary = %q", event.Summary)
	}
	if !strings.Contains(event.Description, calendar.BotMarker) {
		t.Error("description missing bot marker")
	}
	if !strings.Contains(event.Description, calendar.OwnerTag(42)) {
		t.Error("description missing owner tag")
	}
	if !strings.Contains(event.Description, "Mario") {
		t.Error("description missing client contact block")
	}
	if got := event.End.Sub(event.Start); got != time.Hour {
		t.Errorf("event duration = %v, want 1h", got)
	}

	if len(fx.profiles.incremented) != 1 || fx.profiles.incremented[0] != "03/09/2026 alle 15:00" {
		t.Errorf("appointment stats not bumped: %+v", fx.profiles.incremented)
	}
	if fx.sessions.Get(42) != nil {
		t.Error("session should be cleared after confirmation")
	}
}

func TestBookingRejectsUnresolvableAndPastDates(t *testing.T) {
	fx := newBookingFixture(t, true)
	ctx := context.Background()
	fx.flow.Start(42)

	resp := fx.flow.Handle(ctx, 42, "boh non lo so")
	if !strings.Contains(resp.Text, "Non sono riuscito a capire la data") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}

	resp = fx.flow.Handle(ctx, 42, "oggi alle 9:00") // now is 10:00
	if !strings.Contains(resp.Text, "passato") {
		t.Errorf("expected past-date reply, got %q", resp.Text)
	}

	sess := fx.sessions.Get(42)
	if sess == nil || sess.Booking.Step != session.StepAwaitingDateTime {
		t.Errorf("session should still await a date, got %+v", sess)
	}
}

func TestBookingConflictSuggestsSlots(t *testing.T) {
	fx := newBookingFixture(t, true)
	fx.avail.free = false
	loc := testNow(t).Location()
	fx.avail.slots = []time.Time{
		time.Date(2026, 9, 3, 10, 30, 0, 0, loc),
		time.Date(2026, 9, 3, 11, 0, 0, 0, loc),
	}
	ctx := context.Background()

	fx.flow.Start(42)
	fx.flow.Handle(ctx, 42, "domani alle 15:00")
	resp := fx.flow.Handle(ctx, 42, "Visita")

	if !strings.Contains(resp.Text, "Conflitto di orario") {
		t.Errorf("expected conflict reply, got %q", resp.Text)
	}
	if !strings.Contains(resp.Text, "1. 03/09/2026 alle 10:30") {
		t.Errorf("expected numbered slots, got %q", resp.Text)
	}
	if len(resp.Keyboard) != 3 { // two slots + cancel
		t.Errorf("keyboard rows = %d, want 3", len(resp.Keyboard))
	}
	if resp.Keyboard[0][0].Data != "time_03/09/2026 alle 10:30" {
		t.Errorf("slot button data = %q", resp.Keyboard[0][0].Data)
	}

	sess := fx.sessions.Get(42)
	if sess == nil || sess.Booking.Step != session.StepAwaitingDateTime {
		t.Fatalf("session should return to the date step, got %+v", sess)
	}

	// Picking a suggested slot reuses the kept subject and goes
	// straight to the summary instead of asking for it again.
	fx.avail.free = true
	resp = fx.flow.HandleCallback(ctx, 42, "time_03/09/2026 alle 10:30")
	if resp.Kind != KindBookingSummary {
		t.Fatalf("Kind = %q, want %q", resp.Kind, KindBookingSummary)
	}
	if !strings.Contains(resp.Text, "03/09/2026 alle 10:30") || !strings.Contains(resp.Text, "Visita") {
		t.Errorf("summary should carry the new time and kept subject, got %q", resp.Text)
	}
	if got := fx.sessions.Get(42).Booking.Step; got != session.StepAwaitingConfirmation {
		t.Errorf("Step = %q, want %q", got, session.StepAwaitingConfirmation)
	}

	resp = fx.flow.Handle(ctx, 42, "sì")
	if resp.Kind != KindBookingConfirmed {
		t.Fatalf("Kind = %q, want %q", resp.Kind, KindBookingConfirmed)
	}
	if len(fx.inserter.events) != 1 || fx.inserter.events[0].Summary != "Visita" {
		t.Errorf("expected one event with the kept subject, got %+v", fx.inserter.events)
	}
}

func TestBookingConflictNewDateByText(t *testing.T) {
	fx := newBookingFixture(t, true)
	fx.avail.free = false
	loc := testNow(t).Location()
	fx.avail.slots = []time.Time{time.Date(2026, 9, 3, 10, 30, 0, 0, loc)}
	ctx := context.Background()

	fx.flow.Start(42)
	fx.flow.Handle(ctx, 42, "domani alle 15:00")
	fx.flow.Handle(ctx, 42, "Visita")

	// Typing a different date instead of clicking a slot also skips
	// the subject question.
	fx.avail.free = true
	resp := fx.flow.Handle(ctx, 42, "venerdì alle 11:00")
	if resp.Kind != KindBookingSummary {
		t.Fatalf("Kind = %q, want %q", resp.Kind, KindBookingSummary)
	}
	if !strings.Contains(resp.Text, "Visita") {
		t.Errorf("summary should keep the subject, got %q", resp.Text)
	}
}

func TestBookingConflictWithoutSlots(t *testing.T) {
	fx := newBookingFixture(t, true)
	fx.avail.free = false
	ctx := context.Background()

	fx.flow.Start(42)
	fx.flow.Handle(ctx, 42, "domani alle 15:00")
	resp := fx.flow.Handle(ctx, 42, "Visita")

	if !strings.Contains(resp.Text, "Non ho trovato slot liberi") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
}

func TestBookingConflictBlockingDisabled(t *testing.T) {
	fx := newBookingFixture(t, false)
	fx.avail.free = false
	ctx := context.Background()

	fx.flow.Start(42)
	fx.flow.Handle(ctx, 42, "domani alle 15:00")
	resp := fx.flow.Handle(ctx, 42, "Visita")

	if resp.Kind != KindBookingSummary {
		t.Errorf("Kind = %q, want %q (occupied slot allowed)", resp.Kind, KindBookingSummary)
	}
}

func TestBookingDeclined(t *testing.T) {
	fx := newBookingFixture(t, true)
	ctx := context.Background()

	fx.flow.Start(42)
	fx.flow.Handle(ctx, 42, "domani alle 15:00")
	fx.flow.Handle(ctx, 42, "Visita")

	resp := fx.flow.Handle(ctx, 42, "no")
	if resp.Kind != KindBookingCancelled {
		t.Errorf("Kind = %q, want %q", resp.Kind, KindBookingCancelled)
	}
	if len(fx.inserter.events) != 0 {
		t.Error("declined booking must not insert an event")
	}
	if fx.sessions.Get(42) != nil {
		t.Error("session should be cleared after decline")
	}
}

func TestBookingConfirmationReprompt(t *testing.T) {
	fx := newBookingFixture(t, true)
	ctx := context.Background()

	fx.flow.Start(42)
	fx.flow.Handle(ctx, 42, "domani alle 15:00")
	fx.flow.Handle(ctx, 42, "Visita")

	resp := fx.flow.Handle(ctx, 42, "forse")
	if !strings.Contains(resp.Text, "Non ho capito") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
	if sess := fx.sessions.Get(42); sess == nil || sess.Booking.Step != session.StepAwaitingConfirmation {
		t.Errorf("session should keep awaiting confirmation, got %+v", sess)
	}
}

func TestBookingInsertFailure(t *testing.T) {
	fx := newBookingFixture(t, true)
	fx.inserter.err = errors.New("calendar unavailable")
	ctx := context.Background()

	fx.flow.Start(42)
	fx.flow.Handle(ctx, 42, "domani alle 15:00")
	fx.flow.Handle(ctx, 42, "Visita")

	resp := fx.flow.Handle(ctx, 42, "sì")
	if resp.Kind != KindError {
		t.Errorf("Kind = %q, want %q", resp.Kind, KindError)
	}
	if !strings.Contains(resp.Text, "Errore nella creazione") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
	if fx.sessions.Get(42) != nil {
		t.Error("session should be cleared after an insert failure")
	}
}

func TestBookingCallbacksWithoutSession(t *testing.T) {
	fx := newBookingFixture(t, true)
	ctx := context.Background()

	for _, data := range []string{"time_domani alle 9:00", "confirm_yes", "confirm_no"} {
		resp := fx.flow.HandleCallback(ctx, 42, data)
		if !strings.Contains(resp.Text, "scaduta") {
			t.Errorf("callback %q without session: got %q, want expired reply", data, resp.Text)
		}
	}

	if resp := fx.flow.HandleCallback(ctx, 42, "something_else"); !strings.Contains(resp.Text, "non riconosciuta") {
		t.Errorf("unknown callback reply = %q", resp.Text)
	}
}

func TestBookingConfirmCallback(t *testing.T) {
	fx := newBookingFixture(t, true)
	ctx := context.Background()

	fx.flow.Start(42)
	fx.flow.HandleCallback(ctx, 42, "time_domani alle 14:00")
	fx.flow.Handle(ctx, 42, "Revisione")

	resp := fx.flow.HandleCallback(ctx, 42, "confirm_yes")
	if resp.Kind != KindBookingConfirmed {
		t.Fatalf("Kind = %q, want %q", resp.Kind, KindBookingConfirmed)
	}
	if len(fx.inserter.events) != 1 {
		t.Errorf("inserted %d events, want 1", len(fx.inserter.events))
	}
}

func TestBookingCancelCallback(t *testing.T) {
	fx := newBookingFixture(t, true)
	ctx := context.Background()

	fx.flow.Start(42)
	resp := fx.flow.HandleCallback(ctx, 42, "cancel_booking")
	if !strings.Contains(resp.Text, "annullata") {
		t.Errorf("unexpected reply: %q", resp.Text)
	}
	if fx.sessions.Get(42) != nil {
		t.Error("session should be cleared")
	}
}

func TestBookingCancelCommand(t *testing.T) {
	fx := newBookingFixture(t, true)

	if resp := fx.flow.Cancel(42); !strings.Contains(resp.Text, "Non hai prenotazioni") {
		t.Errorf("cancel without session: %q", resp.Text)
	}

	fx.flow.Start(42)
	if resp := fx.flow.Cancel(42); !strings.Contains(resp.Text, "annullata") {
		t.Errorf("cancel with session: %q", resp.Text)
	}
	if fx.sessions.Get(42) != nil {
		t.Error("session should be cleared")
	}
}
