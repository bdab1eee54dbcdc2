package booking

import (
	"context"
	"time"
)

type Repository interface {
	// CreateWithNoOverlap inserts b unless an active booking on the same court
	// overlaps it, in which case it returns *OverlapError.
	CreateWithNoOverlap(ctx context.Context, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	// Cancel returns sql.ErrNoRows when the booking is missing, no longer
	// active or has already started.
	Cancel(ctx context.Context, id int, now time.Time) (*Booking, error)
	CompleteElapsed(ctx context.Context, now time.Time) (int64, error)
	List(ctx context.Context, f Filter) ([]Booking, error)
	ActiveForCourt(ctx context.Context, courtID int, iv Interval) ([]Booking, error)
}
