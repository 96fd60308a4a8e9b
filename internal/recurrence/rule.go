package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Week identifies which week of the month a rule applies to.
// Weeks are numbered 1 through 4 where week n covers days 7n-6 through 7n.
type Week int

// EveryWeek marks a rule that recurs on every occurrence of its weekday.
const EveryWeek Week = -1

// ErrInvalidWeekday indicates the weekday is outside Sunday..Saturday.
var ErrInvalidWeekday = errors.New("recurrence: invalid weekday")

// ErrInvalidWeek indicates the week number is neither 1-4 nor EveryWeek.
var ErrInvalidWeek = errors.New("recurrence: invalid week number")

// ErrInvalidSlot indicates the time slot is not a valid HH:mm wall-clock time.
var ErrInvalidSlot = errors.New("recurrence: invalid time slot")

// Valid reports whether the week is 1-4 or EveryWeek.
func (w Week) Valid() bool {
	return w == EveryWeek || (w >= 1 && w <= 4)
}

func (w Week) String() string {
	if w == EveryWeek {
		return "every"
	}
	return strconv.Itoa(int(w))
}

// ParseWeek accepts "1".."4" or "every" (case-insensitive).
func ParseWeek(value string) (Week, error) {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if trimmed == "every" || trimmed == "-1" {
		return EveryWeek, nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil || !Week(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeek, value)
	}
	return Week(n), nil
}

// WeekOfMonth returns ceil(day/7) for the given date.
func WeekOfMonth(t time.Time) Week {
	return Week((t.Day()-1)/7 + 1)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"friday":    time.Friday,
	"fri":       time.Friday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

// ParseWeekday accepts full or three-letter English day names.
func ParseWeekday(value string) (time.Weekday, error) {
	day, ok := weekdayNames[strings.TrimSpace(strings.ToLower(value))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, value)
	}
	return day, nil
}

// Rule is an abstract recurrence: one weekday in one week of the month, or
// every week.
type Rule struct {
	Weekday time.Weekday
	Week    Week
}

// Validate checks the rule's weekday and week number.
func (r Rule) Validate() error {
	if r.Weekday < time.Sunday || r.Weekday > time.Saturday {
		return ErrInvalidWeekday
	}
	if !r.Week.Valid() {
		return ErrInvalidWeek
	}
	return nil
}

// EveryWeek reports whether the rule recurs weekly.
func (r Rule) EveryWeek() bool {
	return r.Week == EveryWeek
}

func (r Rule) String() string {
	if r.EveryWeek() {
		return "every " + r.Weekday.String()
	}
	return fmt.Sprintf("%s of week %d", r.Weekday, int(r.Week))
}

// Slot is a wall-clock start time within a day.
type Slot struct {
	Hour   int
	Minute int
}

// NewSlot validates hour and minute.
func NewSlot(hour, minute int) (Slot, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Slot{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidSlot, hour, minute)
	}
	return Slot{Hour: hour, Minute: minute}, nil
}

// ParseSlot parses an "HH:mm" string.
func ParseSlot(value string) (Slot, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, value)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, value)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return Slot{}, fmt.Errorf("%w: %q", ErrInvalidSlot, value)
	}
	return NewSlot(hour, minute)
}

// String renders the slot as zero-padded "HH:mm".
func (s Slot) String() string {
	return fmt.Sprintf("%02d:%02d", s.Hour, s.Minute)
}

// On returns the slot's start instant on the date of day.
func (s Slot) On(day time.Time) time.Time {
	y, m, d := day.Date()
	return wallTime(y, m, d, s.Hour, s.Minute, day.Location())
}

// wallTime resolves a wall-clock reading in loc. A reading that falls in a
// DST gap resolves to the instant the clocks skip to, so the result never
// lands on the previous day.
func wallTime(y int, m time.Month, d, hour, min int, loc *time.Location) time.Time {
	t := time.Date(y, m, d, hour, min, 0, 0, loc)
	if ty, tm, td := t.Date(); ty == y && tm == m && td == d && t.Hour() == hour && t.Minute() == min {
		return t
	}
	_, before := t.Add(-12 * time.Hour).Zone()
	wall := time.Date(y, m, d, hour, min, 0, 0, time.UTC)
	return wall.Add(-time.Duration(before) * time.Second).In(loc)
}
