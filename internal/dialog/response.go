// Package dialog implements the conversational flows of the bot:
// guided registration and the booking dialogue from date to committed
// calendar event. Flows consume plain text (or the canonical phrases
// injected by inline buttons) and produce transport-neutral responses.
package dialog

// ResponseKind classifies a response so the transport can pick a
// matching spoken accompaniment for the voice note.
type ResponseKind string

const (
	KindGeneric            ResponseKind = "generic"
	KindWelcome            ResponseKind = "welcome"
	KindRegistrationPrompt ResponseKind = "registration_prompt"
	KindRegistrationDone   ResponseKind = "registration_done"
	KindBookingPrompt      ResponseKind = "booking_prompt"
	KindBookingTitle       ResponseKind = "booking_title"
	KindBookingSummary     ResponseKind = "booking_summary"
	KindBookingConfirmed   ResponseKind = "booking_confirmed"
	KindBookingCancelled   ResponseKind = "booking_cancelled"
	KindAppointments       ResponseKind = "appointments"
	KindProfile            ResponseKind = "profile"
	KindSmallTalk          ResponseKind = "small_talk"
	KindError              ResponseKind = "error"
)

// Choice is one inline keyboard button. Data is the callback payload;
// time buttons carry a canonical Italian phrase that the date handler
// parses like typed text.
type Choice struct {
	Label string
	Data  string
}

// Attachment is a document sent alongside the reply, currently only
// the ICS calendar file on a successful booking.
type Attachment struct {
	Filename string
	Caption  string
	Data     []byte
}

// Response is the transport-neutral reply of a flow step. Text is
// Markdown. Keyboard rows become inline buttons. Voice, when set,
// overrides the kind-selected spoken line.
type Response struct {
	Kind       ResponseKind
	Text       string
	Voice      string
	Keyboard   [][]Choice
	Attachment *Attachment
}
