// Package nlu provides lightweight Italian natural-language understanding:
// booking intent detection and date/time resolution. Everything here is
// pure and deterministic; no network calls.
package nlu

import "strings"

// bookingKeywords are single words or short fragments whose presence in a
// message signals the user wants to schedule something. Matching is
// case-insensitive substring containment, so false positives are accepted
// in exchange for catching loosely phrased requests.
var bookingKeywords = []string{
	// Direct booking vocabulary
	"prenota", "appuntamento", "prenotare", "prenotazione", "fissare", "fissa",
	"meeting", "incontro", "riunione", "disponibilità", "libero", "impegnato",

	// Expressions about wanting to organize
	"quando sei libero", "quando puoi", "possiamo vederci", "ci vediamo",
	"voglio vederti", "dobbiamo incontrarci", "organizziamo", "pianifichiamo",

	// Temporal references that usually accompany a booking request
	"domani alle", "dopodomani alle", "lunedì alle", "martedì alle",
	"mercoledì alle", "giovedì alle", "venerdì alle", "sabato alle", "domenica alle",
	"settimana prossima", "la prossima settimana", "questo weekend",

	// Action verbs
	"voglio prenotare", "devo prenotare", "vorrei prenotare", "posso prenotare",
	"ho bisogno di", "serve un appuntamento", "mi serve",

	// Other indicators
	"calendario", "agenda", "programmare", "slot", "orario",
	"consultazione", "visita", "sessione",
}

// bookingPhrases are full phrases that indicate a booking request even when
// none of the keywords appear.
var bookingPhrases = []string{
	"voglio un appuntamento",
	"ho bisogno di un appuntamento",
	"possiamo fissare",
	"vorrei fissare",
	"devo fissare",
	"prendiamo un appuntamento",
	"fissiamo un incontro",
	"organizziamo un meeting",
	"quando ci possiamo vedere",
	"quando possiamo vederci",
	"sei libero",
	"hai tempo",
	"possiamo incontrarci",
}

// DetectBookingIntent reports whether the message looks like a request to
// schedule an appointment.
func DetectBookingIntent(text string) bool {
	lower := strings.ToLower(text)

	for _, keyword := range bookingKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	for _, phrase := range bookingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
