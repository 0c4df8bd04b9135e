// Package session holds in-progress dialog state per user.
// A user has at most one active session, which is either a booking
// flow or a registration flow, never both. Sessions live in memory
// only and expire after a period of inactivity.
package session

import "time"

// BookingStep identifies the current step of a booking dialog.
type BookingStep string

const (
	StepAwaitingDateTime     BookingStep = "awaiting_datetime"
	StepAwaitingTitle        BookingStep = "awaiting_title"
	StepAwaitingConfirmation BookingStep = "awaiting_confirmation"
)

// RegistrationStep identifies the current field being collected.
type RegistrationStep string

const (
	StepNome     RegistrationStep = "nome"
	StepCognome  RegistrationStep = "cognome"
	StepEmail    RegistrationStep = "email"
	StepTelefono RegistrationStep = "telefono"
	StepVia      RegistrationStep = "via"
	StepCitta    RegistrationStep = "citta"
)

// BookingState carries the data collected so far in a booking dialog.
type BookingState struct {
	Step     BookingStep
	DateTime time.Time // zero until resolved
	Title    string
}

// RegistrationState carries the fields collected so far during
// registration. Fields fill in linearly following Step. TelegramName
// is captured at the start from the sender's profile.
type RegistrationState struct {
	Step         RegistrationStep
	TelegramName string
	Nome         string
	Cognome      string
	Email        string
	Telefono     string
	Via          string
	Citta        string
}

// Session is the per-user dialog state. Exactly one of Booking and
// Registration is non-nil.
type Session struct {
	Booking      *BookingState
	Registration *RegistrationState
}

// NewBooking creates a session at the given booking step.
func NewBooking(step BookingStep) *Session {
	return &Session{Booking: &BookingState{Step: step}}
}

// NewRegistration creates a session at the start of registration.
func NewRegistration(telegramName string) *Session {
	return &Session{Registration: &RegistrationState{Step: StepNome, TelegramName: telegramName}}
}
