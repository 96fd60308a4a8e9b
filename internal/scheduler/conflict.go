package scheduler

import "github.com/example/venue-scheduler/internal/recurrence"

// Entry is the slice of a booking that participates in conflict detection.
type Entry struct {
	ID      string
	VenueID string
	Rule    recurrence.Rule
	Slot    recurrence.Slot
	// Active is true for Pending and Confirmed bookings.
	Active bool
}

// Overlaps reports whether two active entries claim the same venue slot on
// at least one calendar date. An every-week rule collides with any rule on
// the same weekday; two week-specific rules collide only on equal weeks.
func Overlaps(a, b Entry) bool {
	if !a.Active || !b.Active {
		return false
	}
	if a.VenueID != b.VenueID || a.Slot != b.Slot {
		return false
	}
	if a.Rule.Weekday != b.Rule.Weekday {
		return false
	}
	return a.Rule.EveryWeek() || b.Rule.EveryWeek() || a.Rule.Week == b.Rule.Week
}

// FindConflict returns the first existing entry that overlaps the candidate,
// skipping the entry whose ID equals excludeID. An empty excludeID skips
// nothing.
func FindConflict(candidate Entry, existing []Entry, excludeID string) (Entry, bool) {
	for _, e := range existing {
		if excludeID != "" && e.ID == excludeID {
			continue
		}
		if Overlaps(candidate, e) {
			return e, true
		}
	}
	return Entry{}, false
}

// HasConflict reports whether any existing entry overlaps the candidate.
func HasConflict(candidate Entry, existing []Entry, excludeID string) bool {
	_, found := FindConflict(candidate, existing, excludeID)
	return found
}
