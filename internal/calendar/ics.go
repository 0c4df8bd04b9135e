package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const icsTimeLayout = "20060102T150405Z"

// companyFooter is appended to the description inside the ICS file the
// user saves on their phone.
const companyFooter = `═══════════════════════════════════════
🏢 UP! INFORMATICA
📧 Email: info@upinformatica.it
🌐 Web: www.upinformatica.it
═══════════════════════════════════════

Ricorda di portare con te eventuali documenti necessari.
Per modifiche o cancellazioni contattaci in anticipo.

Grazie per aver scelto UP! Informatica! 🚀`

// GenerateICS builds an iCalendar file for a confirmed appointment,
// with display alarms 15 minutes and 1 hour before the start.
func GenerateICS(title string, start, end, now time.Time) []byte {
	uid := uuid.NewString()
	startStr := start.UTC().Format(icsTimeLayout)
	endStr := end.UTC().Format(icsTimeLayout)
	createdStr := now.UTC().Format(icsTimeLayout)

	description := fmt.Sprintf("Appuntamento con UP! Informatica\n\n%s\n\n%s", title, companyFooter)

	titleEsc := escapeICS(title)
	descEsc := escapeICS(description)

	var b strings.Builder
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//UP! Informatica//Appointment Bot//IT",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"X-WR-CALNAME:Appuntamenti UP! Informatica",
		"X-WR-CALDESC:Calendario appuntamenti UP! Informatica",
		"BEGIN:VEVENT",
		"UID:" + uid,
		"DTSTART:" + startStr,
		"DTEND:" + endStr,
		"DTSTAMP:" + createdStr,
		"CREATED:" + createdStr,
		"LAST-MODIFIED:" + createdStr,
		"SUMMARY:" + titleEsc,
		"DESCRIPTION:" + descEsc,
		"ORGANIZER;CN=UP! Informatica:MAILTO:info@upinformatica.it",
		"STATUS:CONFIRMED",
		"TRANSP:OPAQUE",
		"BEGIN:VALARM",
		"TRIGGER:-PT15M",
		"ACTION:DISPLAY",
		"DESCRIPTION:Promemoria: " + titleEsc + " tra 15 minuti",
		"END:VALARM",
		"BEGIN:VALARM",
		"TRIGGER:-PT1H",
		"ACTION:DISPLAY",
		"DESCRIPTION:Promemoria: " + titleEsc + " tra 1 ora",
		"END:VALARM",
		"END:VEVENT",
		"END:VCALENDAR",
	}
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}

// ICSFilename derives the attachment filename for an appointment.
func ICSFilename(title string, start time.Time, loc *time.Location) string {
	dateStr := start.In(loc).Format("2006-01-02")
	titleClean := sanitizeFilename(title)
	if titleClean == "" {
		titleClean = "appuntamento"
	}
	return fmt.Sprintf("appuntamento_%s_%s.ics", dateStr, titleClean)
}

var filenameUnsafe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

func sanitizeFilename(title string) string {
	title = strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	title = filenameUnsafe.ReplaceAllString(title, "")
	if len(title) > 30 {
		title = title[:30]
	}
	return title
}

// escapeICS escapes text per RFC 5545: backslash first, then commas,
// semicolons, and newlines.
func escapeICS(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, ";", `\;`)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
