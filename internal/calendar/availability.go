package calendar

import (
	"context"
	"strings"
	"time"

	"github.com/upinformatica/prenotabot/internal/logger"
)

// EventLister lists events in a time window. Implemented by Client and
// by test fakes.
type EventLister interface {
	ListEvents(ctx context.Context, from, to time.Time) ([]Event, error)
}

// Availability answers per-user availability questions against the
// shared calendar. Only events tagged with the requesting user's owner
// tag count as conflicts, so one client's bookings never block another's.
type Availability struct {
	lister   EventLister
	log      *logger.Logger
	loc      *time.Location
	maxSlots int
}

// Working hours scanned by SuggestSlots.
const (
	workdayStartHour = 9
	workdayEndHour   = 18
	slotStep         = 30 * time.Minute
)

// NewAvailability creates an availability checker.
func NewAvailability(lister EventLister, loc *time.Location, maxSlots int, log *logger.Logger) *Availability {
	return &Availability{
		lister:   lister,
		log:      log.WithModule("availability"),
		loc:      loc,
		maxSlots: maxSlots,
	}
}

// IsFree reports whether [start, end) is free of the user's own events
// and returns the conflicting ones. A transport failure counts as free.
func (a *Availability) IsFree(ctx context.Context, start, end time.Time, ownerID int64) (bool, []Event) {
	events, err := a.lister.ListEvents(ctx, start, end)
	if err != nil {
		a.log.WithError(err).WithUserID(ownerID).Warnf("availability check failed, assuming free")
		return true, nil
	}

	conflicts := filterByOwner(events, ownerID)
	return len(conflicts) == 0, conflicts
}

// SuggestSlots scans the working hours of the given day in 30-minute
// steps and returns up to maxSlots start times where an appointment of
// the given duration fits without touching the user's existing events.
func (a *Availability) SuggestSlots(ctx context.Context, day time.Time, duration time.Duration, ownerID int64) []time.Time {
	day = day.In(a.loc)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), workdayStartHour, 0, 0, 0, a.loc)
	dayEnd := time.Date(day.Year(), day.Month(), day.Day(), workdayEndHour, 0, 0, 0, a.loc)

	events, err := a.lister.ListEvents(ctx, dayStart, dayEnd)
	if err != nil {
		a.log.WithError(err).WithUserID(ownerID).Warnf("slot suggestion failed")
		return nil
	}
	busy := filterByOwner(events, ownerID)

	var slots []time.Time
	for slot := dayStart; !slot.Add(duration).After(dayEnd); slot = slot.Add(slotStep) {
		if !overlapsAny(slot, slot.Add(duration), busy) {
			slots = append(slots, slot)
			if len(slots) == a.maxSlots {
				break
			}
		}
	}
	return slots
}

// Upcoming returns the user's events starting within the next days,
// ordered by start time.
func (a *Availability) Upcoming(ctx context.Context, now time.Time, days int, ownerID int64) ([]Event, error) {
	events, err := a.lister.ListEvents(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, err
	}
	return filterByOwner(events, ownerID), nil
}

func filterByOwner(events []Event, ownerID int64) []Event {
	tag := OwnerTag(ownerID)
	var owned []Event
	for _, e := range events {
		if strings.Contains(e.Description, tag) {
			owned = append(owned, e)
		}
	}
	return owned
}

func overlapsAny(start, end time.Time, events []Event) bool {
	for _, e := range events {
		if start.Before(e.End) && e.Start.Before(end) {
			return true
		}
	}
	return false
}
