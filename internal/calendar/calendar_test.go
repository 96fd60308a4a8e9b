package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/recurrence"
)

var stamp = time.Date(2024, time.January, 1, 8, 0, 0, 0, time.UTC)

func sampleBookings() []booking.Booking {
	created := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)
	return []booking.Booking{
		{
			ID:            "b1",
			DJName:        "DJ Echo",
			StreamingLink: "https://stream.example.com/echo",
			VenueID:       "v-main",
			VenueName:     "Main Room",
			Rule:          recurrence.Rule{Weekday: time.Friday, Week: 2},
			Slot:          recurrence.Slot{Hour: 20},
			Status:        booking.StatusConfirmed,
			CreatedAt:     created,
		},
		{
			ID:            "b2",
			DJName:        "DJ Nova",
			StreamingLink: "https://stream.example.com/nova",
			VenueID:       "v-main",
			VenueName:     "Main Room",
			Rule:          recurrence.Rule{Weekday: time.Wednesday, Week: recurrence.EveryWeek},
			Slot:          recurrence.Slot{Hour: 18, Minute: 30},
			Status:        booking.StatusPending,
			CreatedAt:     created,
		},
		{
			ID:        "b3",
			DJName:    "DJ Gone",
			VenueID:   "v-main",
			Rule:      recurrence.Rule{Weekday: time.Monday, Week: 1},
			Slot:      recurrence.Slot{Hour: 9},
			Status:    booking.StatusCancelled,
			CreatedAt: created,
		},
	}
}

func TestEncoderRender(t *testing.T) {
	t.Parallel()

	venue := booking.Venue{ID: "v-main", Name: "Main Room"}
	body, err := NewEncoder(time.UTC, 0).Render(venue, sampleBookings(), stamp)
	require.NoError(t, err)
	assert.Contains(t, string(body), "X-WR-CALNAME:Main Room")

	events, err := Parse(body)
	require.NoError(t, err)
	require.Len(t, events, 2, "cancelled bookings are omitted")

	byUID := map[string]Event{}
	for _, ev := range events {
		byUID[ev.UID] = ev
	}

	echo := byUID[UID("b1")]
	assert.Equal(t, "DJ Echo", echo.Summary)
	assert.Equal(t, "20240112T200000", echo.Start)
	assert.Equal(t, "FREQ=MONTHLY;BYDAY=2FR", echo.RRule)
	assert.Equal(t, "CONFIRMED", echo.Status)
	assert.Equal(t, "https://stream.example.com/echo", echo.URL)

	nova := byUID[UID("b2")]
	assert.Equal(t, "20240103T183000", nova.Start)
	assert.Equal(t, "FREQ=WEEKLY;BYDAY=WE", nova.RRule)
	assert.Equal(t, "TENTATIVE", nova.Status)
}

func TestEncoderRenderEmptyVenue(t *testing.T) {
	t.Parallel()

	body, err := NewEncoder(time.UTC, time.Hour).Render(booking.Venue{ID: "v", Name: "Quiet"}, nil, stamp)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "BEGIN:VCALENDAR"))

	events, err := Parse(body)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestEncoderRejectsInvalidRule(t *testing.T) {
	t.Parallel()

	bad := sampleBookings()[:1]
	bad[0].Rule.Week = 7
	_, err := NewEncoder(time.UTC, 0).Render(booking.Venue{ID: "v"}, bad, stamp)
	assert.ErrorIs(t, err, recurrence.ErrInvalidWeek)
}

func TestParseRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := Parse([]byte("not a calendar"))
	assert.Error(t, err)
}
