// Package calendar talks to the shared Google Calendar holding all
// appointments. It provides a thin REST client, per-user availability
// checks, and ICS file generation for confirmed bookings.
package calendar

import (
	"fmt"
	"time"
)

// Event is a calendar event in the shared appointment calendar.
type Event struct {
	ID          string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	HTMLLink    string
}

// BotMarker prefixes the description of every event this bot creates.
const BotMarker = "Appuntamento prenotato tramite bot Telegram"

// OwnerTag returns the description tag that scopes an event to a user.
// Listing operations only surface events carrying the caller's tag, so
// users never see each other's appointments.
func OwnerTag(userID int64) string {
	return fmt.Sprintf("[cliente:%d]", userID)
}

// FormatEventTime renders an event start the way replies show it.
func FormatEventTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02/01/2006 alle 15:04")
}
