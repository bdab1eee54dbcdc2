package venue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"quickcourt/internal/apperr"
	"quickcourt/internal/db"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	venueColumns  = `id, owner_id, name, description, about, address, sports, amenities, photos, created_at, updated_at`
	courtColumns  = `id, venue_id, name, sport, price_per_hour, open_time, close_time, created_at, updated_at`
	reviewColumns = `id, venue_id, author, rating, comment, created_at`
)

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func courtNameTaken(name string) error {
	return apperr.Conflict("court %q already exists in this venue", name)
}

// CreateVenue inserts the venue and its initial courts in one transaction.
func (r *repository) CreateVenue(ctx context.Context, v *Venue) (*Venue, error) {
	var created Venue
	err := db.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO venues (owner_id, name, description, about, address, sports, amenities, photos)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING ` + venueColumns

		err := tx.GetContext(ctx, &created, query,
			v.OwnerID, v.Name, v.Description, v.About, v.Address,
			tags(v.Sports), tags(v.Amenities), tags(v.Photos),
		)
		if err != nil {
			return fmt.Errorf("insert venue: %w", err)
		}

		created.Courts = make([]Court, 0, len(v.Courts))
		for _, c := range v.Courts {
			c.VenueID = created.ID
			court, err := insertCourt(ctx, tx, c)
			if err != nil {
				return err
			}
			created.Courts = append(created.Courts, *court)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	created.Reviews = []Review{}
	return &created, nil
}

// tags keeps NULL out of the NOT NULL array columns.
func tags(a pq.StringArray) pq.StringArray {
	if a == nil {
		return pq.StringArray{}
	}
	return a
}

func insertCourt(ctx context.Context, q sqlx.QueryerContext, c Court) (*Court, error) {
	query := `
		INSERT INTO courts (venue_id, name, sport, price_per_hour, open_time, close_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + courtColumns

	var court Court
	err := sqlx.GetContext(ctx, q, &court, query, c.VenueID, c.Name, c.Sport, c.PricePerHour, c.OpenTime, c.CloseTime)
	if err != nil {
		if db.IsPgError(err, db.UniqueViolation) {
			return nil, courtNameTaken(c.Name)
		}
		return nil, fmt.Errorf("insert court: %w", err)
	}
	return &court, nil
}

func (r *repository) ListVenues(ctx context.Context, sport string) ([]Venue, error) {
	query := `
		SELECT ` + venueColumns + `
		FROM venues
		WHERE $1 = '' OR EXISTS (SELECT 1 FROM unnest(sports) s WHERE lower(s) = lower($1))
		ORDER BY id
	`

	var venues []Venue
	if err := r.db.SelectContext(ctx, &venues, query, sport); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	if len(venues) == 0 {
		return []Venue{}, nil
	}

	ids := make([]int64, len(venues))
	for i, v := range venues {
		ids[i] = int64(v.ID)
	}

	var courts []Court
	courtQuery := `SELECT ` + courtColumns + ` FROM courts WHERE venue_id = ANY($1) ORDER BY venue_id, id`
	if err := r.db.SelectContext(ctx, &courts, courtQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}

	byVenue := make(map[int][]Court, len(venues))
	for _, c := range courts {
		byVenue[c.VenueID] = append(byVenue[c.VenueID], c)
	}
	for i := range venues {
		venues[i].Courts = byVenue[venues[i].ID]
		if venues[i].Courts == nil {
			venues[i].Courts = []Court{}
		}
	}

	return venues, nil
}

// GetVenue loads a venue with its courts and reviews. Missing venues yield sql.ErrNoRows.
func (r *repository) GetVenue(ctx context.Context, id int) (*Venue, error) {
	var v Venue
	if err := r.db.GetContext(ctx, &v, `SELECT `+venueColumns+` FROM venues WHERE id = $1`, id); err != nil {
		return nil, err
	}

	v.Courts = []Court{}
	if err := r.db.SelectContext(ctx, &v.Courts, `SELECT `+courtColumns+` FROM courts WHERE venue_id = $1 ORDER BY id`, id); err != nil {
		return nil, fmt.Errorf("load courts: %w", err)
	}

	v.Reviews = []Review{}
	if err := r.db.SelectContext(ctx, &v.Reviews, `SELECT `+reviewColumns+` FROM venue_reviews WHERE venue_id = $1 ORDER BY created_at`, id); err != nil {
		return nil, fmt.Errorf("load reviews: %w", err)
	}

	return &v, nil
}

func (r *repository) DeleteVenue(ctx context.Context, id int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete venue: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *repository) AddCourt(ctx context.Context, c Court) (*Court, error) {
	return insertCourt(ctx, r.db, c)
}

func (r *repository) UpdateCourt(ctx context.Context, c Court) (*Court, error) {
	query := `
		UPDATE courts
		SET name = $3, sport = $4, price_per_hour = $5, open_time = $6, close_time = $7, updated_at = NOW()
		WHERE id = $1 AND venue_id = $2
		RETURNING ` + courtColumns

	var court Court
	err := r.db.GetContext(ctx, &court, query, c.ID, c.VenueID, c.Name, c.Sport, c.PricePerHour, c.OpenTime, c.CloseTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("court")
	}
	if err != nil {
		if db.IsPgError(err, db.UniqueViolation) {
			return nil, courtNameTaken(c.Name)
		}
		return nil, fmt.Errorf("update court: %w", err)
	}
	return &court, nil
}

func (r *repository) AddReview(ctx context.Context, rv Review) (*Review, error) {
	query := `
		INSERT INTO venue_reviews (venue_id, author, rating, comment)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + reviewColumns

	var review Review
	if err := r.db.GetContext(ctx, &review, query, rv.VenueID, rv.Author, rv.Rating, rv.Comment); err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	return &review, nil
}
