package dialog

import (
	"fmt"
	"strings"
	"time"

	"github.com/upinformatica/prenotabot/internal/calendar"
	"github.com/upinformatica/prenotabot/internal/storage"
)

// Fixed reply texts, kept close to spoken Italian.
const (
	msgBookingIntro = "📅 **Prenotazione Appuntamento**\n\n" +
		"Quando vuoi prenotare l'appuntamento?\n\n" +
		"Puoi:\n" +
		"🔸 **Cliccare un orario** qui sotto\n" +
		"🔸 **Scrivere/dire** quando vuoi (es: \"domani alle 15:00\")\n\n" +
		"Esempi:\n" +
		"• Domani alle 15:00\n" +
		"• Lunedì alle 10:30\n" +
		"• 25/12 alle 14:00\n" +
		"• Oggi pomeriggio"

	msgBookingIntentNoDate = "📅 Ho capito che vuoi prenotare un appuntamento!\n\n" +
		"Però non sono riuscito a capire quando. Puoi essere più specifico?\n\n" +
		"Ad esempio:\n" +
		"• Domani alle 15:00\n" +
		"• Lunedì prossimo alle 10:30\n" +
		"• 25/12/2024 alle 14:00"

	msgDateNotUnderstood = "❓ Non sono riuscito a capire la data. Prova con:\n" +
		"• Domani alle 15:00\n" +
		"• Lunedì alle 10:30\n" +
		"• 25/12 alle 14:00"

	msgPastDate = "⏰ La data che hai indicato è nel passato! Dimmi una data futura."

	msgConfirmNotUnderstood = "❓ Non ho capito. Scrivi 'sì' per confermare o 'no' per annullare."

	msgBookingCancelled    = "❌ Appuntamento annullato."
	msgBookingCancelledBtn = "❌ Prenotazione annullata. Usa /prenota per ricominciare."
	msgBookingAborted      = "❌ Prenotazione annullata."
	msgOperationCancelled  = "❌ Operazione annullata."
	msgSessionExpired      = "❌ Sessione di prenotazione scaduta. Riprova con /prenota"
	msgCreateEventFailed   = "❌ Errore nella creazione dell'appuntamento."
	msgNoBookingInProgress = "Non hai prenotazioni in corso da annullare."

	msgUnknownAction = "❌ Azione non riconosciuta."

	msgConflictHeader = "⚠️ **Conflitto di orario!**\n\n" +
		"Hai già un impegno in quel momento.\n\n" +
		"Ecco alcuni orari liberi:\n"
	msgConflictNoSlots = "⚠️ **Conflitto di orario!**\n\n" +
		"Hai già un impegno in quel momento.\n\n" +
		"Non ho trovato slot liberi in quella giornata. Dimmi un'altra data."

	msgNoAppointments = "📅 Non hai appuntamenti nei prossimi giorni."

	msgNameNotUnderstood = "❌ Non ho capito il tuo nome. Potresti ripeterlo in modo più chiaro?\n\n" +
		"*Esempio: 'Mi chiamo Marco' oppure semplicemente 'Marco'*"
	msgSurnameNotUnderstood = "❌ Non ho capito il tuo cognome. Potresti ripeterlo?\n\n" +
		"*Esempio: 'Il mio cognome è Rossi' oppure semplicemente 'Rossi'*"
	msgInvalidEmail      = "❌ Email non valida. Riprova con un formato corretto (es: nome@esempio.com):"
	msgEmailSaved        = "✅ Email salvata!\n\nAdesso dimmi il tuo **numero di telefono**:"
	msgPhoneSaved        = "✅ Telefono salvato!\n\nDimmi il tuo **indirizzo** (via e numero civico):"
	msgAddressSaved      = "✅ Indirizzo salvato!\n\nInfine, dimmi la tua **città**:"
	msgRegistrationError = "❌ Errore nella registrazione. Riprova più tardi o contatta l'assistenza."

	msgICSCaption = "📅 **File Calendario**\n\n" +
		"Scarica e apri questo file per aggiungere l'appuntamento al tuo calendario!\n\n" +
		"📱 *Tocca il file → Apri con → Calendario*"
)

// confirmedVariants are the celebratory texts sent after a successful
// booking. Placeholders: formatted time, title.
var confirmedVariants = []string{
	"🎉 **Perfetto! Tutto sistemato!**\n\n📅 Ci vediamo %s\n📝 %s\n\n" +
		"💡 Ora ti mando un file per salvarlo nel tuo calendario personale!\n" +
		"Ti farò anche un promemoria prima dell'appuntamento. A presto! 😊",
	"✨ **Fantastico! Appuntamento prenotato!**\n\n📅 Ti aspetto %s\n📝 %s\n\n" +
		"📱 Ti invio subito un file per aggiungerlo al tuo telefono!\n" +
		"Non preoccuparti, ti ricorderò io prima dell'appuntamento! 👍",
	"🚀 **Eccellente! È fatta!**\n\n📅 Appuntamento fissato per %s\n📝 %s\n\n" +
		"💾 Riceverai un file da salvare nel tuo calendario!\n" +
		"E ovviamente ti avviserò prima che inizi. Ci sentiamo presto! 🎯",
}

// confirmedVoiceVariants are the spoken counterparts. Placeholder: name.
var confirmedVoiceVariants = []string{
	"Perfetto %s! Il tuo appuntamento è confermato. Ti aspetto!",
	"Ottimo %s! Tutto a posto. Ci vediamo presto!",
	"Fantastico! Appuntamento fissato. Sarà un piacere vederti, %s!",
	"Eccellente %s! È tutto sistemato. Non vedo l'ora di incontrarti!",
}

// VoiceLine picks the spoken accompaniment for a response kind. pick
// selects among variants when a kind has more than one line.
func VoiceLine(kind ResponseKind, name string, pick func(n int) int) string {
	if name == "" {
		name = "amico"
	}
	switch kind {
	case KindWelcome:
		return fmt.Sprintf("Ciao %s! Sono qui per aiutarti con i tuoi appuntamenti. Dimmi pure cosa ti serve!", name)
	case KindRegistrationDone:
		return fmt.Sprintf("Perfetto %s! Ora sei registrato e possiamo lavorare insieme. Sono qui per te!", name)
	case KindRegistrationPrompt:
		return "Dimmi il tuo nome, così posso conoscerti meglio!"
	case KindBookingPrompt:
		return fmt.Sprintf("Dimmi quando preferisci, %s. Puoi anche usare i bottoni qui sotto per andare più veloce!", name)
	case KindBookingTitle:
		return "Dimmi brevemente di cosa si tratta, così posso preparare tutto per bene."
	case KindBookingConfirmed:
		line := confirmedVoiceVariants[pick(len(confirmedVoiceVariants))]
		return fmt.Sprintf(line, name)
	case KindBookingCancelled:
		return "Nessun problema! Quando vuoi riprovare, sono qui."
	case KindAppointments:
		return "Ecco i tuoi appuntamenti in programma!"
	case KindProfile:
		return "Questi sono i tuoi dati che ho salvato. Tutto ok?"
	case KindError:
		return "Ops! Qualcosa è andato storto. Proviamo di nuovo insieme, ok?"
	default:
		return fmt.Sprintf("Ecco le informazioni che ti servono, %s!", name)
	}
}

// WelcomeBack is the /start reply for an already registered user.
func WelcomeBack(displayName string, totalAppointments int) string {
	return fmt.Sprintf(
		"🤖 Bentornato **%s**! 🎉\n\n"+
			"📊 Hai già **%d appuntamenti** prenotati\n\n"+
			"**Cosa posso fare per te:**\n"+
			"📝 Rispondere ai tuoi messaggi di testo\n"+
			"🎤 Rispondere ai tuoi messaggi vocali\n"+
			"📅 Gestire i tuoi appuntamenti sul calendario\n\n"+
			"**Comandi disponibili:**\n"+
			"📅 /prenota - Prenota un nuovo appuntamento (con bottoni!)\n"+
			"📋 /appuntamenti - Visualizza SOLO i tuoi appuntamenti\n"+
			"👤 /profilo - Visualizza e modifica i tuoi dati\n"+
			"❌ /cancella - Annulla prenotazione in corso\n"+
			"🔄 /start - Ricomincia da capo\n\n"+
			"Puoi anche dire semplicemente 'voglio prenotare un appuntamento per domani alle 15' e io ti aiuterò!\n\n"+
			"🔊 Ti risponderò sempre con **testo + audio**! 🎧\n\n"+
			"🔒 **Privacy:** I tuoi appuntamenti sono completamente privati - solo tu puoi vederli!",
		displayName, totalAppointments)
}

// RegistrationIntro opens the guided registration for a new user.
func RegistrationIntro(telegramName string) string {
	return fmt.Sprintf(
		"👋 Ciao **%s**! Benvenuto! 🎉\n\n"+
			"Prima di iniziare, ho bisogno di raccogliere alcune informazioni per offrirti un servizio migliore.\n\n"+
			"📝 **Questo mi permetterà di:**\n"+
			"• Identificarti facilmente negli appuntamenti\n"+
			"• Contattarti se necessario\n"+
			"• Offrirti un servizio più personalizzato\n\n"+
			"🔒 **I tuoi dati sono completamente privati e sicuri.**\n\n"+
			"**Iniziamo! Come ti chiami?**\n"+
			"_(Scrivi solo il tuo nome)_",
		telegramName)
}

// RegistrationDone closes registration with the saved full name.
func RegistrationDone(nome, cognome string) string {
	return fmt.Sprintf(
		"🎉 **Registrazione completata!**\n\n"+
			"Benvenuto **%s %s**!\n\n"+
			"✅ I tuoi dati sono stati salvati in sicurezza.\n"+
			"📅 Ora puoi prenotare i tuoi appuntamenti!\n\n"+
			"**Comandi disponibili:**\n"+
			"📅 /prenota - Prenota un appuntamento\n"+
			"📋 /appuntamenti - Vedi i tuoi appuntamenti\n"+
			"👤 /profilo - Visualizza il tuo profilo\n\n"+
			"Puoi anche dire semplicemente: _'Voglio prenotare per domani alle 15'_ e io ti aiuterò! 🚀",
		nome, cognome)
}

// HistoryCleared is the /clear reply.
func HistoryCleared(name string) string {
	return fmt.Sprintf("🧹 Cronologia cancellata, %s!\n\nLa nostra conversazione riparte da zero. 🔄", name)
}

// ProfileMessage renders the /profilo reply.
func ProfileMessage(user *storage.User) string {
	return fmt.Sprintf("👤 **Il tuo profilo:**\n\n%s\n\n_Per modificare i dati, contatta l'amministratore._", user.ContactInfo())
}

// FormatAppointmentList renders the /appuntamenti reply.
func FormatAppointmentList(events []calendar.Event, loc *time.Location) string {
	if len(events) == 0 {
		return msgNoAppointments
	}
	var b strings.Builder
	b.WriteString("📅 **I tuoi prossimi appuntamenti:**\n\n")
	for _, e := range events {
		title := e.Summary
		if title == "" {
			title = "Appuntamento senza titolo"
		}
		fmt.Fprintf(&b, "🕐 %s\n📝 %s\n\n", calendar.FormatEventTime(e.Start, loc), title)
	}
	return b.String()
}

// quickPickKeyboard builds the time shortcuts shown by /prenota. The
// today row appears only while there is still workday left.
func quickPickKeyboard(now time.Time) [][]Choice {
	var rows [][]Choice
	if now.Hour() < 18 {
		rows = append(rows, []Choice{
			{Label: "🌅 Oggi 9:00", Data: "time_oggi alle 9:00"},
			{Label: "🌞 Oggi 14:00", Data: "time_oggi alle 14:00"},
			{Label: "🌆 Oggi 17:00", Data: "time_oggi alle 17:00"},
		})
	}
	rows = append(rows, []Choice{
		{Label: "🌅 Domani 9:00", Data: "time_domani alle 9:00"},
		{Label: "🌞 Domani 14:00", Data: "time_domani alle 14:00"},
		{Label: "🌆 Domani 17:00", Data: "time_domani alle 17:00"},
	})
	rows = append(rows, []Choice{
		{Label: "📅 Lun 10:00", Data: "time_lunedì prossimo alle 10:00"},
		{Label: "📅 Mer 15:00", Data: "time_mercoledì prossimo alle 15:00"},
		{Label: "📅 Ven 16:00", Data: "time_venerdì prossimo alle 16:00"},
	})
	rows = append(rows, []Choice{
		{Label: "❌ Annulla", Data: "cancel_booking"},
	})
	return rows
}

// confirmKeyboard offers the final yes/no buttons.
func confirmKeyboard() [][]Choice {
	return [][]Choice{{
		{Label: "✅ Confermo", Data: "confirm_yes"},
		{Label: "❌ Annulla", Data: "confirm_no"},
	}}
}

// slotKeyboard turns suggested free slots into time buttons carrying
// canonical phrases the date handler understands.
func slotKeyboard(slots []time.Time, loc *time.Location) [][]Choice {
	var rows [][]Choice
	for _, slot := range slots {
		phrase := calendar.FormatEventTime(slot, loc)
		rows = append(rows, []Choice{{Label: "🕐 " + phrase, Data: "time_" + phrase}})
	}
	rows = append(rows, []Choice{{Label: "❌ Annulla", Data: "cancel_booking"}})
	return rows
}
