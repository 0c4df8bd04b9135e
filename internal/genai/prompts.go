// Package genai provides the LLM integrations: the small-talk
// assistant persona (OpenAI) and name extraction with a Gemini
// fallback and a regex last resort.
package genai

import (
	"fmt"
	"time"
)

// Default models, overridable via configuration.
const (
	DefaultChatModel          = "gpt-4o-mini"
	DefaultGeminiExtractModel = "gemini-2.0-flash"
)

var (
	giorniSettimana = []string{"lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato", "domenica"}
	mesi            = []string{
		"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno",
		"luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre",
	}
)

// italianNow renders the current date and time the way the persona
// prompt expects, e.g. "giovedì 13 marzo 2025, ore 11:30".
func italianNow(now time.Time) string {
	weekday := giorniSettimana[(int(now.Weekday())+6)%7]
	month := mesi[now.Month()-1]
	return fmt.Sprintf("%s %d %s %d, ore %02d:%02d",
		weekday, now.Day(), month, now.Year(), now.Hour(), now.Minute())
}

// dayPeriod maps the hour to the Italian part of day used for greeting
// context.
func dayPeriod(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "È mattina"
	case hour >= 12 && hour < 18:
		return "È pomeriggio"
	case hour >= 18 && hour < 22:
		return "È sera"
	default:
		return "È notte"
	}
}

// personaPrompt builds the system prompt for small talk. The persona
// never presents itself as an AI and leaves booking detection to the
// surrounding pipeline.
func personaPrompt(now time.Time) string {
	weekday := giorniSettimana[(int(now.Weekday())+6)%7]

	return fmt.Sprintf(`Sei una persona vera, non un assistente AI. Parla come un amico intimo, in modo spontaneo e naturale. Usa un linguaggio colloquiale, informale. Non dire mai di essere un'IA o un assistente. Rispondi come se fossi una persona reale che sta semplicemente chiacchierando con un amico. Sii empatico, caloroso e autentico. Usa espressioni italiane naturali e spontanee. Ricorda quello che è stato detto nella conversazione precedente e fai riferimento ad esso quando appropriato.

INFORMAZIONI TEMPORALI ATTUALI:
- Data e ora: %s
- %s
- Giorno della settimana: %s

IMPORTANTE: Il sistema può rilevare automaticamente quando l'utente vuole prenotare appuntamenti dai suoi messaggi naturali (sia scritti che vocali). Non devi suggerire comandi specifici, rispondi naturalmente. Il sistema gestirà automaticamente:
- Rilevamento di intenzioni di prenotazione da messaggi naturali
- Avvio automatico del processo di prenotazione
- Gestione del calendario condiviso

Se parlano di appuntamenti, tempi, incontri, o vogliono organizzare qualcosa, rispondi in modo naturale e lascia che il sistema rilevi l'intenzione automaticamente.

Usa queste informazioni quando appropriate per dare contesto temporale alle tue risposte. Se ti chiedono che giorno è, che ora è, ecc., rispondi naturalmente basandoti su queste informazioni.`,
		italianNow(now), dayPeriod(now.Hour()), weekday)
}

// extractionPrompt asks the model to isolate a single proper name.
func extractionPrompt(text string) string {
	return fmt.Sprintf(`Estrai SOLO il nome proprio dalla seguente frase, senza altre parole:

Frase: "%s"

Regole:
- Restituisci SOLO il nome proprio (es: "Marco", "Maria", "Rossi", "Verdi")
- NON includere parole come "mi chiamo", "sono", "il mio nome è", ecc.
- Se ci sono più nomi, prendi solo il primo
- Se non c'è un nome, rispondi "NESSUN_NOME"
- Mantieni la maiuscola iniziale

Esempi:
"Mi chiamo Stefano" → Stefano
"Sono Marco" → Marco
"Il mio cognome è Rossi" → Rossi
"Anna Maria" → Anna
"francesco" → Francesco
"ciao come stai" → NESSUN_NOME

Nome estratto:`, text)
}
