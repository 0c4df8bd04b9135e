package storage

import (
	"fmt"
	"time"
)

// User is a registered client profile.
type User struct {
	ID                int64
	TelegramName      string
	Nome              string
	Cognome           string
	Email             string
	Telefono          string
	Via               string
	Citta             string
	RegisteredAt      time.Time
	TotalAppointments int
	LastAppointment   string // formatted date of the latest booking, empty for none
}

// DisplayName returns the client's full name.
func (u *User) DisplayName() string {
	return u.Nome + " " + u.Cognome
}

// ContactInfo returns the profile block shown to the user in chat.
func (u *User) ContactInfo() string {
	return fmt.Sprintf(`👤 %s %s
📧 %s
📱 %s
🏠 %s, %s
📊 Appuntamenti totali: %d`,
		u.Nome, u.Cognome, u.Email, u.Telefono, u.Via, u.Citta, u.TotalAppointments)
}

// CalendarDescription returns the client block embedded into calendar
// event descriptions, so the business side sees who booked.
func (u *User) CalendarDescription() string {
	lastAppointment := u.LastAppointment
	if lastAppointment == "" {
		lastAppointment = "Primo appuntamento"
	}

	return fmt.Sprintf(`═════════════════════════════════════════
👤 INFORMAZIONI CLIENTE
═════════════════════════════════════════

Cliente: %s %s
📧 Email: %s
📱 Telefono: %s
🏠 Indirizzo: %s, %s

📊 Statistiche Cliente:
• Appuntamenti totali: %d
• Ultimo appuntamento: %s
• Cliente dal: %s

═════════════════════════════════════════
⚠️  INFORMAZIONI RISERVATE - UP! Informatica
═════════════════════════════════════════`,
		u.Nome, u.Cognome, u.Email, u.Telefono, u.Via, u.Citta,
		u.TotalAppointments, lastAppointment, u.RegisteredAt.Format("2006-01-02"))
}
