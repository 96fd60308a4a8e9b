package application

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/example/venue-scheduler/internal/booking"
	"github.com/example/venue-scheduler/internal/permission"
)

var testNow = time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock() time.Time { return testNow }

func sequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%02d", prefix, n)
	}
}

func principalFor(role permission.Role) *permission.User {
	set := permission.Defaults(role)
	return &permission.User{Username: strings.ToLower(string(role)), Role: role, Permissions: &set, IsActive: true}
}

// memoryStore is an in-memory implementation of the booking, venue and user
// repositories. Writes are counted so tests can assert nothing was persisted.
type memoryStore struct {
	mu       sync.Mutex
	bookings map[string]booking.Booking
	venues   map[string]booking.Venue
	users    map[string]UserCredentials
	writes   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		bookings: make(map[string]booking.Booking),
		venues:   make(map[string]booking.Venue),
		users:    make(map[string]UserCredentials),
	}
}

func (m *memoryStore) CreateBooking(ctx context.Context, b booking.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; ok {
		return ErrAlreadyExists
	}
	m.bookings[b.ID] = b
	m.writes++
	return nil
}

func (m *memoryStore) UpdateBooking(ctx context.Context, b booking.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[b.ID]; !ok {
		return ErrNotFound
	}
	m.bookings[b.ID] = b
	m.writes++
	return nil
}

func (m *memoryStore) GetBooking(ctx context.Context, id string) (booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return booking.Booking{}, ErrNotFound
	}
	return b, nil
}

func (m *memoryStore) ListBookings(ctx context.Context, filter BookingFilter) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Booking
	for _, b := range m.bookings {
		if filter.VenueID != "" && b.VenueID != filter.VenueID {
			continue
		}
		if filter.DJUsername != "" && !strings.EqualFold(b.DJUsername, filter.DJUsername) {
			continue
		}
		if filter.ActiveOnly && !b.Active() {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) DeleteBooking(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bookings[id]; !ok {
		return ErrNotFound
	}
	delete(m.bookings, id)
	m.writes++
	return nil
}

func (m *memoryStore) CreateVenue(ctx context.Context, v booking.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.venues {
		if existing.ID == v.ID || strings.EqualFold(existing.Name, v.Name) {
			return ErrAlreadyExists
		}
	}
	m.venues[v.ID] = v
	m.writes++
	return nil
}

func (m *memoryStore) UpdateVenue(ctx context.Context, v booking.Venue) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.venues[v.ID]; !ok {
		return ErrNotFound
	}
	m.venues[v.ID] = v
	for id, b := range m.bookings {
		if b.VenueID == v.ID {
			b.VenueName = v.Name
			m.bookings[id] = b
		}
	}
	m.writes++
	return nil
}

func (m *memoryStore) GetVenue(ctx context.Context, id string) (booking.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.venues[id]
	if !ok {
		return booking.Venue{}, ErrNotFound
	}
	return v, nil
}

func (m *memoryStore) ListVenues(ctx context.Context) ([]booking.Venue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]booking.Venue, 0, len(m.venues))
	for _, v := range m.venues {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memoryStore) DeleteVenue(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.venues[id]; !ok {
		return ErrNotFound
	}
	delete(m.venues, id)
	for bid, b := range m.bookings {
		if b.VenueID == id {
			delete(m.bookings, bid)
		}
	}
	m.writes++
	return nil
}

func (m *memoryStore) CreateUser(ctx context.Context, u UserCredentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.User.Username)
	if _, ok := m.users[key]; ok {
		return ErrAlreadyExists
	}
	m.users[key] = u
	m.writes++
	return nil
}

func (m *memoryStore) UpdateUser(ctx context.Context, u UserCredentials) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := strings.ToLower(u.User.Username)
	if _, ok := m.users[key]; !ok {
		return ErrNotFound
	}
	m.users[key] = u
	m.writes++
	return nil
}

func (m *memoryStore) GetUser(ctx context.Context, username string) (UserCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[strings.ToLower(username)]
	if !ok {
		return UserCredentials{}, ErrNotFound
	}
	return u, nil
}

func (m *memoryStore) ListUsers(ctx context.Context) ([]UserCredentials, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]UserCredentials, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *memoryStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func (m *memoryStore) addVenue(id, name string, active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.venues[id] = booking.Venue{ID: id, Name: name, OwnerUsername: "manager", IsActive: active, CreatedAt: testNow}
}

// countingEncoder records how often feeds are rendered.
type countingEncoder struct {
	mu    sync.Mutex
	calls int
}

func (e *countingEncoder) Render(venue booking.Venue, bookings []booking.Booking, stamp time.Time) ([]byte, error) {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	return []byte(fmt.Sprintf("%s:%d", venue.Name, len(bookings))), nil
}

func (e *countingEncoder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}
