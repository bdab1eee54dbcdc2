package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quickcourt/internal/apperr"
	"quickcourt/internal/db"

	"github.com/jmoiron/sqlx"
)

const bookingColumns = `id, user_id, venue_id, court_id, court_name, sport, start_time, end_time,
	duration_hours, price, status, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

// CreateWithNoOverlap serialises writers per court with a transaction-scoped
// advisory lock, re-checks overlap under FOR UPDATE and inserts. The
// bookings_no_overlap exclusion constraint backs the check at the storage level.
func (r *repository) CreateWithNoOverlap(ctx context.Context, b *Booking) (*Booking, error) {
	var created Booking

	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(b.CourtID)); err != nil {
			return fmt.Errorf("lock court: %w", err)
		}

		existing, err := activeOverlapping(ctx, tx, b.CourtID, b.Interval(), true)
		if err != nil {
			return err
		}
		if hit := FindConflict(b.Interval(), existing); hit != nil {
			return &OverlapError{Existing: *hit}
		}

		query := `
			INSERT INTO bookings (user_id, venue_id, court_id, court_name, sport, start_time, end_time, duration_hours, price, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING ` + bookingColumns

		return tx.GetContext(ctx, &created, query,
			b.UserID, b.VenueID, b.CourtID, b.CourtName, b.Sport,
			b.Start, b.End, b.DurationHours, b.Price, b.Status,
		)
	})
	if err != nil {
		if db.IsPgError(err, db.ExclusionViolation) {
			return nil, apperr.Conflict("court is already booked for the requested time")
		}
		return nil, err
	}

	return &created, nil
}

func activeOverlapping(ctx context.Context, q sqlx.QueryerContext, courtID int, iv Interval, lock bool) ([]Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE court_id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time`
	if lock {
		query += ` FOR UPDATE`
	}

	var out []Booking
	if err := sqlx.SelectContext(ctx, q, &out, query, courtID, iv.Start, iv.End); err != nil {
		return nil, fmt.Errorf("query overlapping bookings: %w", err)
	}
	return out, nil
}

func (r *repository) ActiveForCourt(ctx context.Context, courtID int, iv Interval) ([]Booking, error) {
	return activeOverlapping(ctx, r.db, courtID, iv, false)
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	var b Booking
	if err := r.db.GetContext(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) Cancel(ctx context.Context, id int, now time.Time) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1
		  AND status IN ('pending', 'confirmed')
		  AND start_time > $2
		RETURNING ` + bookingColumns

	var b Booking
	if err := r.db.GetContext(ctx, &b, query, id, now); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repository) CompleteElapsed(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'completed', updated_at = NOW()
		WHERE status = 'confirmed' AND end_time <= $1`

	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("complete elapsed bookings: %w", err)
	}
	return result.RowsAffected()
}

func (r *repository) List(ctx context.Context, f Filter) ([]Booking, error) {
	var (
		conds []string
		args  []interface{}
	)
	if f.UserID > 0 {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if f.VenueID > 0 {
		args = append(args, f.VenueID)
		conds = append(conds, fmt.Sprintf("venue_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.VisibleTo > 0 {
		args = append(args, f.VisibleTo)
		conds = append(conds, fmt.Sprintf(
			"(user_id = $%[1]d OR venue_id IN (SELECT id FROM venues WHERE owner_id = $%[1]d))", len(args)))
	}

	query := `SELECT ` + bookingColumns + ` FROM bookings`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}
