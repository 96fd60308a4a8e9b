package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// ErrInvalidWindow indicates the occurrence window ends before it starts.
var ErrInvalidWindow = errors.New("recurrence: window end precedes start")

var rruleWeekdays = [...]rrule.Weekday{
	time.Sunday:    rrule.SU,
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
}

var icalWeekdays = [...]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// Engine expands recurrence rules into concrete dates.
type Engine struct {
	location *time.Location
}

// NewEngine constructs an Engine that normalizes results to the provided
// location. If loc is nil, the local wall-clock zone is used.
func NewEngine(loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{location: loc}
}

// NextOccurrence returns the first calendar date on or after reference that
// satisfies the rule. The date is returned at the start of the day in
// reference's location.
func NextOccurrence(rule Rule, reference time.Time) (time.Time, error) {
	return NewEngine(reference.Location()).NextOccurrence(rule, reference)
}

// NextOccurrence returns the first date on or after the reference day that
// falls on the rule's weekday and, for week-specific rules, whose
// WeekOfMonth equals the rule's week. The search rolls forward across months
// and today counts when it matches.
func (e *Engine) NextOccurrence(rule Rule, reference time.Time) (time.Time, error) {
	if err := rule.Validate(); err != nil {
		return time.Time{}, err
	}

	loc := e.loc()
	start := civilDate(reference.In(loc))
	r, err := newRRule(rule, start)
	if err != nil {
		return time.Time{}, err
	}

	next := r.After(start, true)
	if next.IsZero() {
		return time.Time{}, fmt.Errorf("recurrence: no occurrence of %s after %s", rule, start.Format(time.DateOnly))
	}
	return inLocation(next, loc), nil
}

// Occurrences lists the start instants of the rule at slot within
// [from, to], both bounds inclusive.
func (e *Engine) Occurrences(rule Rule, slot Slot, from, to time.Time) ([]time.Time, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, ErrInvalidWindow
	}

	loc := e.loc()
	from = from.In(loc)
	to = to.In(loc)

	first := civilDate(from)
	r, err := newRRule(rule, first)
	if err != nil {
		return nil, err
	}

	var out []time.Time
	for _, day := range r.Between(first, civilDate(to), true) {
		at := slot.On(inLocation(day, loc))
		if at.Before(from) || at.After(to) {
			continue
		}
		out = append(out, at)
	}
	return out, nil
}

// RRule renders the rule as an iCalendar RRULE value, e.g. "FREQ=MONTHLY;BYDAY=3WE".
func RRule(rule Rule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", err
	}
	day := icalWeekdays[rule.Weekday]
	if rule.EveryWeek() {
		return "FREQ=WEEKLY;BYDAY=" + day, nil
	}
	return fmt.Sprintf("FREQ=MONTHLY;BYDAY=%d%s", int(rule.Week), day), nil
}

func (e *Engine) loc() *time.Location {
	if e == nil || e.location == nil {
		return time.Local
	}
	return e.location
}

// The n-th weekday of a month always satisfies ceil(day/7) == n, so
// week-specific rules map directly onto MONTHLY;BYDAY=+nXX.
func newRRule(rule Rule, dtstart time.Time) (*rrule.RRule, error) {
	opt := rrule.ROption{Dtstart: dtstart}
	day := rruleWeekdays[rule.Weekday]
	if rule.EveryWeek() {
		opt.Freq = rrule.WEEKLY
		opt.Byweekday = []rrule.Weekday{day}
	} else {
		opt.Freq = rrule.MONTHLY
		opt.Byweekday = []rrule.Weekday{day.Nth(int(rule.Week))}
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("recurrence: build rule %s: %w", rule, err)
	}
	return r, nil
}

// civilDate returns t's calendar date as midnight UTC. Rules expand over
// civil dates; DST transitions only apply once a date is mapped back.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// inLocation carries a civil date back to the start of that day in loc.
func inLocation(day time.Time, loc *time.Location) time.Time {
	y, m, d := day.Date()
	return wallTime(y, m, d, 0, 0, loc)
}
