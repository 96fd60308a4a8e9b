package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/example/venue-scheduler/internal/recurrence"
)

func entry(id, venue string, day time.Weekday, week recurrence.Week, hour int) Entry {
	return Entry{
		ID:      id,
		VenueID: venue,
		Rule:    recurrence.Rule{Weekday: day, Week: week},
		Slot:    recurrence.Slot{Hour: hour},
		Active:  true,
	}
}

func TestHasConflict(t *testing.T) {
	t.Parallel()

	fridayWeek2 := entry("b1", "main", time.Friday, 2, 20)
	existing := []Entry{fridayWeek2}

	cases := []struct {
		name      string
		candidate Entry
		excludeID string
		want      bool
	}{
		{name: "same week collides", candidate: entry("new", "main", time.Friday, 2, 20), want: true},
		{name: "every week collides with specific week", candidate: entry("new", "main", time.Friday, recurrence.EveryWeek, 20), want: true},
		{name: "different week is free", candidate: entry("new", "main", time.Friday, 3, 20)},
		{name: "different weekday is free", candidate: entry("new", "main", time.Saturday, 2, 20)},
		{name: "different slot is free", candidate: entry("new", "main", time.Friday, 2, 21)},
		{name: "different venue is free", candidate: entry("new", "side", time.Friday, 2, 20)},
		{name: "excluded id is skipped", candidate: entry("b1", "main", time.Friday, 2, 20), excludeID: "b1"},
		{
			name:      "inactive candidate never collides",
			candidate: Entry{ID: "new", VenueID: "main", Rule: recurrence.Rule{Weekday: time.Friday, Week: 2}, Slot: recurrence.Slot{Hour: 20}},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, HasConflict(tc.candidate, existing, tc.excludeID))
		})
	}
}

func TestHasConflict_IgnoresInactiveExisting(t *testing.T) {
	t.Parallel()

	cancelled := entry("b1", "main", time.Friday, 2, 20)
	cancelled.Active = false

	assert.False(t, HasConflict(entry("new", "main", time.Friday, 2, 20), []Entry{cancelled}, ""))
}

func TestOverlaps_IsSymmetric(t *testing.T) {
	t.Parallel()

	weeks := []recurrence.Week{1, 2, 3, 4, recurrence.EveryWeek}
	var entries []Entry
	for _, venue := range []string{"main", "side"} {
		for _, day := range []time.Weekday{time.Friday, time.Saturday} {
			for _, week := range weeks {
				for _, hour := range []int{20, 22} {
					entries = append(entries, entry(venue+day.String()+week.String(), venue, day, week, hour))
				}
			}
		}
	}

	for _, a := range entries {
		for _, b := range entries {
			assert.Equal(t, Overlaps(a, b), Overlaps(b, a), "%+v vs %+v", a, b)
		}
	}
}

func TestFindConflict_ReturnsConflictingEntry(t *testing.T) {
	t.Parallel()

	existing := []Entry{
		entry("b1", "main", time.Friday, 3, 20),
		entry("b2", "main", time.Friday, recurrence.EveryWeek, 20),
	}

	got, found := FindConflict(entry("new", "main", time.Friday, 1, 20), existing, "")
	assert.True(t, found)
	assert.Equal(t, "b2", got.ID)

	_, found = FindConflict(entry("b2", "main", time.Friday, 1, 20), existing, "b2")
	assert.False(t, found)
}
