package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/venue-scheduler/internal/persistence"
)

// VenueRepository implements persistence.VenueRepository.
type VenueRepository struct {
	db *sql.DB
}

const venueColumns = `id, name, description, owner_username, is_active, created_at, updated_at`

// CreateVenue inserts a new venue. Names are unique ignoring case.
func (r *VenueRepository) CreateVenue(ctx context.Context, venue persistence.Venue) error {
	if venue.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO venues (`+venueColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		venue.ID,
		venue.Name,
		venue.Description,
		venue.OwnerUsername,
		venue.IsActive,
		formatTime(venue.CreatedAt),
		formatTime(venue.UpdatedAt),
	)
	return mapError(err)
}

// UpdateVenue overwrites the venue and copies its name onto every booking
// that references it, in one transaction.
func (r *VenueRepository) UpdateVenue(ctx context.Context, venue persistence.Venue) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE venues
			SET name = ?, description = ?, owner_username = ?, is_active = ?, updated_at = ?
			WHERE id = ?`,
			venue.Name,
			venue.Description,
			venue.OwnerUsername,
			venue.IsActive,
			formatTime(venue.UpdatedAt),
			venue.ID,
		)
		if err != nil {
			return mapError(err)
		}
		if err := expectOneRow(result); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE bookings SET venue_name = ? WHERE venue_id = ? AND venue_name <> ?`,
			venue.Name, venue.ID, venue.Name,
		)
		return mapError(err)
	})
}

// GetVenue looks up a venue by ID.
func (r *VenueRepository) GetVenue(ctx context.Context, id string) (persistence.Venue, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	venue, err := scanVenue(row)
	if err != nil {
		return persistence.Venue{}, mapError(err)
	}
	return venue, nil
}

// ListVenues returns every venue ordered by name.
func (r *VenueRepository) ListVenues(ctx context.Context) ([]persistence.Venue, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+venueColumns+` FROM venues ORDER BY name, id`)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var venues []persistence.Venue
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	return venues, rows.Err()
}

// DeleteVenue removes a venue and, through the foreign key, its bookings.
func (r *VenueRepository) DeleteVenue(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return mapError(err)
	}
	return expectOneRow(result)
}

func scanVenue(row rowScanner) (persistence.Venue, error) {
	var (
		venue     persistence.Venue
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&venue.ID, &venue.Name, &venue.Description, &venue.OwnerUsername, &venue.IsActive, &createdAt, &updatedAt); err != nil {
		return persistence.Venue{}, err
	}

	var err error
	if venue.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Venue{}, err
	}
	if venue.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Venue{}, err
	}
	return venue, nil
}
