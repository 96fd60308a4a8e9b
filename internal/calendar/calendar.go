// Package calendar renders venue bookings as iCalendar feeds.
package calendar

import (
	"bytes"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/recurrence"
)

const (
	productID = "-//venue-scheduler//bookings//EN"
	// Floating local time: the slot is a wall-clock time at the venue.
	floatingLayout = "20060102T150405"
	uidDomain      = "venue-scheduler"
)

// DefaultEventDuration is the length given to each booked slot in the feed.
const DefaultEventDuration = time.Hour

// Feed is a rendered iCalendar document for one venue.
type Feed struct {
	VenueID   string
	VenueName string
	Body      []byte
}

// Encoder renders bookings as recurring VEVENTs.
type Encoder struct {
	engine   *recurrence.Engine
	location *time.Location
	duration time.Duration
}

// NewEncoder builds an Encoder that interprets slots in loc. A nil loc means
// time.Local and a non-positive duration means DefaultEventDuration.
func NewEncoder(loc *time.Location, duration time.Duration) *Encoder {
	if loc == nil {
		loc = time.Local
	}
	if duration <= 0 {
		duration = DefaultEventDuration
	}
	return &Encoder{engine: recurrence.NewEngine(loc), location: loc, duration: duration}
}

// Render produces the venue's feed. Cancelled bookings are left out; each
// remaining booking becomes one event starting on its first occurrence on or
// after the day it was created.
func (e *Encoder) Render(venue booking.Venue, bookings []booking.Booking, stamp time.Time) ([]byte, error) {
	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(venue.Name)
	cal.SetXWRTimezone(e.location.String())

	for _, b := range bookings {
		if !b.Active() {
			continue
		}
		if err := e.addEvent(cal, venue, b, stamp); err != nil {
			return nil, fmt.Errorf("calendar: booking %s: %w", b.ID, err)
		}
	}
	return []byte(cal.Serialize()), nil
}

func (e *Encoder) addEvent(cal *ics.Calendar, venue booking.Venue, b booking.Booking, stamp time.Time) error {
	anchor := b.CreatedAt
	if anchor.IsZero() {
		anchor = stamp
	}
	first, err := e.engine.NextOccurrence(b.Rule, anchor)
	if err != nil {
		return err
	}
	rule, err := recurrence.RRule(b.Rule)
	if err != nil {
		return err
	}
	start := b.Slot.On(first)

	event := cal.AddEvent(UID(b.ID))
	event.SetDtStampTime(stamp)
	event.SetSummary(b.DJName)
	event.SetLocation(venue.Name)
	event.SetDescription(fmt.Sprintf("%s, %s at %s", b.DJName, b.Rule, b.Slot))
	event.SetProperty(ics.ComponentPropertyUrl, b.StreamingLink)
	event.SetProperty(ics.ComponentPropertyDtStart, start.Format(floatingLayout))
	event.SetProperty(ics.ComponentPropertyDtEnd, start.Add(e.duration).Format(floatingLayout))
	event.SetProperty(ics.ComponentPropertyRrule, rule)
	event.SetProperty(ics.ComponentPropertyStatus, eventStatus(b.Status))
	return nil
}

// UID is the iCalendar UID of a booking's event.
func UID(bookingID string) string {
	return bookingID + "@" + uidDomain
}

func eventStatus(s booking.Status) string {
	if s == booking.StatusConfirmed {
		return string(ics.ObjectStatusConfirmed)
	}
	return string(ics.ObjectStatusTentative)
}

// Event is the subset of a VEVENT read back from a feed.
type Event struct {
	UID     string
	Summary string
	Start   string
	RRule   string
	Status  string
	URL     string
}

// Parse reads the events of a feed produced by Render.
func Parse(body []byte) ([]Event, error) {
	cal, err := ics.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("calendar: parse feed: %w", err)
	}
	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		events = append(events, Event{
			UID:     propertyValue(ve, ics.ComponentPropertyUniqueId),
			Summary: propertyValue(ve, ics.ComponentPropertySummary),
			Start:   propertyValue(ve, ics.ComponentPropertyDtStart),
			RRule:   propertyValue(ve, ics.ComponentPropertyRrule),
			Status:  propertyValue(ve, ics.ComponentPropertyStatus),
			URL:     propertyValue(ve, ics.ComponentPropertyUrl),
		})
	}
	return events, nil
}

func propertyValue(ve *ics.VEvent, prop ics.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}
	return ""
}
