package nlu

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Resolver parses Italian natural-language date/time expressions.
// All results are produced in the resolver's location.
type Resolver struct {
	loc *time.Location
}

// NewResolver creates a resolver anchored to the given location.
func NewResolver(loc *time.Location) *Resolver {
	return &Resolver{loc: loc}
}

// Location returns the resolver's time zone.
func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Date anchor patterns, tried in order. A day/month match wins over the
// relative words even when the digits form an invalid date.
var (
	dayMonthYearRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})(?:/(\d{4}))?`)
	oggiRe         = regexp.MustCompile(`\boggi\b`)
	domaniRe       = regexp.MustCompile(`\bdomani\b`)
	dopodomaniRe   = regexp.MustCompile(`\bdopodomani\b`)
)

// weekdays maps Italian weekday names to Monday-based indexes.
// Ordered slice keeps the scan deterministic.
var weekdays = []struct {
	name string
	day  int
}{
	{"lunedì", 0},
	{"martedì", 1},
	{"mercoledì", 2},
	{"giovedì", 3},
	{"venerdì", 4},
	{"sabato", 5},
	{"domenica", 6},
}

// Time patterns, tried in order after a date anchor is found.
var (
	hourMinuteRe = regexp.MustCompile(`(\d{1,2}):(\d{2})`)
	hourSuffixRe = regexp.MustCompile(`\b(\d{1,2})\s*(?:ore|h)\b`)
	alleHourRe   = regexp.MustCompile(`alle\s+(\d{1,2})(?::(\d{2}))?`)
)

// Resolve extracts a concrete date and time from Italian free text.
// Supported anchors, in priority order: DD/MM or DD/MM/YYYY (current year
// when omitted), "oggi", "domani", "dopodomani", then weekday names with
// strictly-future rollover (1 to 7 days ahead). The anchor defaults to
// 09:00; an independent time scan ("HH:MM", "HH ore", "alle HH") overrides
// it, with out-of-range values silently ignored. Returns false when no
// date anchor is present. Deterministic given now.
func (r *Resolver) Resolve(text string, now time.Time) (time.Time, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	now = now.In(r.loc)

	anchor, ok := r.resolveAnchor(lower, now)
	if !ok {
		return time.Time{}, false
	}

	if hour, minute, found := scanTime(lower); found {
		anchor = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), hour, minute, 0, 0, r.loc)
	}
	return anchor, true
}

func (r *Resolver) resolveAnchor(lower string, now time.Time) (time.Time, bool) {
	// Explicit day/month takes priority and, when matched, suppresses the
	// relative-word anchors even if the digits are not a real date.
	if m := dayMonthYearRe.FindStringSubmatch(lower); m != nil {
		if t, ok := r.parseDayMonthYear(m, now.Year()); ok {
			return t, true
		}
	} else if oggiRe.MatchString(lower) {
		return r.atNine(now), true
	} else if domaniRe.MatchString(lower) {
		return r.atNine(now.AddDate(0, 0, 1)), true
	} else if dopodomaniRe.MatchString(lower) {
		return r.atNine(now.AddDate(0, 0, 2)), true
	}

	// Weekday names roll forward to the next occurrence, never today.
	nowWeekday := (int(now.Weekday()) + 6) % 7 // Monday = 0
	for _, wd := range weekdays {
		if strings.Contains(lower, wd.name) {
			daysAhead := wd.day - nowWeekday
			if daysAhead <= 0 {
				daysAhead += 7
			}
			return r.atNine(now.AddDate(0, 0, daysAhead)), true
		}
	}

	return time.Time{}, false
}

func (r *Resolver) parseDayMonthYear(m []string, defaultYear int) (time.Time, bool) {
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year := defaultYear
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	if month < 1 || month > 12 || day < 1 || day > daysIn(year, time.Month(month)) {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 9, 0, 0, 0, r.loc), true
}

func (r *Resolver) atNine(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 9, 0, 0, 0, r.loc)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// scanTime looks for an explicit time of day. Patterns are tried in order
// and a pattern whose values are out of range does not stop the scan.
func scanTime(lower string) (hour, minute int, found bool) {
	if m := hourMinuteRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute, _ = strconv.Atoi(m[2])
		if validClock(hour, minute) {
			return hour, minute, true
		}
	}
	if m := hourSuffixRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if validClock(hour, 0) {
			return hour, 0, true
		}
	}
	if m := alleHourRe.FindStringSubmatch(lower); m != nil {
		hour, _ = strconv.Atoi(m[1])
		minute = 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if validClock(hour, minute) {
			return hour, minute, true
		}
	}
	return 0, 0, false
}

func validClock(hour, minute int) bool {
	return hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59
}
