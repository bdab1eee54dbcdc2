package booking

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

const (
	MinDurationHours = 1
	MaxDurationHours = 12
)

// Active bookings hold their court interval.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Booking struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"userId"`
	VenueID       int       `db:"venue_id" json:"venueId"`
	CourtID       int       `db:"court_id" json:"courtId"`
	CourtName     string    `db:"court_name" json:"courtName"`
	Sport         string    `db:"sport" json:"sport"`
	Start         time.Time `db:"start_time" json:"dateTime"`
	End           time.Time `db:"end_time" json:"endTime"`
	DurationHours int       `db:"duration_hours" json:"durationHours"`
	Price         float64   `db:"price" json:"price"`
	Status        Status    `db:"status" json:"status" swaggertype:"string" enums:"pending,confirmed,completed,cancelled"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.Start, End: b.End}
}

type CreateBookingRequest struct {
	UserID        int    `json:"userId" binding:"omitempty,min=1"`
	VenueID       int    `json:"venueId" binding:"required,min=1" example:"1"`
	CourtID       string `json:"courtId" binding:"required" example:"Court 1"`
	DateTime      string `json:"dateTime" binding:"required" example:"2025-08-12T18:00:00+05:30"`
	DurationHours int    `json:"durationHours" example:"2"`
}

// Filter narrows ListBookings. Zero values mean "any".
type Filter struct {
	UserID  int    `form:"userId" validate:"omitempty,min=1"`
	VenueID int    `form:"venueId" validate:"omitempty,min=1"`
	Status  Status `form:"status" validate:"omitempty,oneof=pending confirmed completed cancelled"`

	// VisibleTo keeps bookings made by this user or held at venues they own.
	VisibleTo int `form:"-"`
}

// Slot is one bookable hour returned by the availability endpoint.
type Slot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// OverlapError carries the active booking that already holds the interval.
type OverlapError struct {
	Existing Booking
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("court %d is already booked from %s to %s",
		e.Existing.CourtID, e.Existing.Start.Format(time.RFC3339), e.Existing.End.Format(time.RFC3339))
}
