// Package bot contains the transport-neutral event processor. It
// receives normalized chat events and routes them through rate
// limiting, command dispatch, the active dialogue and the small-talk
// fallback, producing a single reply per event.
package bot

// EventKind classifies an inbound chat event.
type EventKind string

const (
	EventText    EventKind = "text"
	EventCommand EventKind = "command"
	EventButton  EventKind = "button"
	EventVoice   EventKind = "voice"
)

// Event is a normalized inbound event. Payload carries the message
// text, the command name, or the button callback data depending on
// Kind; voice events carry the raw audio instead.
type Event struct {
	UserID      int64
	ChatID      int64
	DisplayName string // sender's first name on the chat platform
	Kind        EventKind
	Payload     string
	Audio       []byte // voice events only
	AudioName   string // voice file name, e.g. "voice.oga"
}
