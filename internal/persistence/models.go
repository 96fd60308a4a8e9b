package persistence

import "time"

// User is an account row. PermissionsJSON holds the encoded capability
// matrix; nil means the account has no permission record.
type User struct {
	Username        string
	FullName        string
	Role            string
	PermissionsJSON []byte
	PasswordHash    string
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Venue is a bookable location row.
type Venue struct {
	ID            string
	Name          string
	Description   string
	OwnerUsername string
	IsActive      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Booking is a recurring slot assignment row. WeekNumber is 1-4, or -1 for
// every week. TimeSlot is "HH:mm".
type Booking struct {
	ID            string
	DJName        string
	DJUsername    string
	StreamingLink string
	VenueID       string
	VenueName     string
	DayOfWeek     int
	WeekNumber    int
	TimeSlot      string
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
