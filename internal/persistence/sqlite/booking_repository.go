package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/example/venue-scheduler/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository.
type BookingRepository struct {
	db *sql.DB
}

const bookingColumns = `id, dj_name, dj_username, streaming_link, venue_id, venue_name, day_of_week, week_number, time_slot, status, created_at, updated_at`

// CreateBooking inserts a new booking.
func (r *BookingRepository) CreateBooking(ctx context.Context, booking persistence.Booking) error {
	if booking.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bookings (`+bookingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.DJName,
		booking.DJUsername,
		booking.StreamingLink,
		booking.VenueID,
		booking.VenueName,
		booking.DayOfWeek,
		booking.WeekNumber,
		booking.TimeSlot,
		booking.Status,
		formatTime(booking.CreatedAt),
		formatTime(booking.UpdatedAt),
	)
	return mapError(err)
}

// UpdateBooking replaces every column except id and created_at.
func (r *BookingRepository) UpdateBooking(ctx context.Context, booking persistence.Booking) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE bookings
		SET dj_name = ?, dj_username = ?, streaming_link = ?, venue_id = ?, venue_name = ?,
			day_of_week = ?, week_number = ?, time_slot = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		booking.DJName,
		booking.DJUsername,
		booking.StreamingLink,
		booking.VenueID,
		booking.VenueName,
		booking.DayOfWeek,
		booking.WeekNumber,
		booking.TimeSlot,
		booking.Status,
		formatTime(booking.UpdatedAt),
		booking.ID,
	)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(result)
}

// GetBooking looks up a booking by ID.
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id)
	booking, err := scanBooking(row)
	if err != nil {
		return persistence.Booking{}, mapError(err)
	}
	return booking, nil
}

// ListBookings returns bookings matching filter ordered by weekday, slot and week.
func (r *BookingRepository) ListBookings(ctx context.Context, filter persistence.BookingFilter) ([]persistence.Booking, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.VenueID != "" {
		clauses = append(clauses, "venue_id = ?")
		args = append(args, filter.VenueID)
	}
	if filter.DJUsername != "" {
		clauses = append(clauses, "dj_username = ? COLLATE NOCASE")
		args = append(args, filter.DJUsername)
	}
	if filter.ActiveOnly {
		clauses = append(clauses, "status IN ('Pending', 'Confirmed')")
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(clauses) > 0 {
		query += ` WHERE ` + strings.Join(clauses, " AND ")
	}
	query += ` ORDER BY day_of_week, time_slot, week_number, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var bookings []persistence.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// DeleteBooking removes a booking.
func (r *BookingRepository) DeleteBooking(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(result)
}

func scanBooking(row rowScanner) (persistence.Booking, error) {
	var (
		b         persistence.Booking
		createdAt string
		updatedAt string
	)
	if err := row.Scan(
		&b.ID,
		&b.DJName,
		&b.DJUsername,
		&b.StreamingLink,
		&b.VenueID,
		&b.VenueName,
		&b.DayOfWeek,
		&b.WeekNumber,
		&b.TimeSlot,
		&b.Status,
		&createdAt,
		&updatedAt,
	); err != nil {
		return persistence.Booking{}, err
	}

	var err error
	if b.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if b.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Booking{}, err
	}
	return b, nil
}
