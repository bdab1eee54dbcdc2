package venue

import "context"

type Repository interface {
	CreateVenue(ctx context.Context, v *Venue) (*Venue, error)
	ListVenues(ctx context.Context, sport string) ([]Venue, error)
	GetVenue(ctx context.Context, id int) (*Venue, error)
	DeleteVenue(ctx context.Context, id int) (bool, error)
	AddCourt(ctx context.Context, c Court) (*Court, error)
	UpdateCourt(ctx context.Context, c Court) (*Court, error)
	AddReview(ctx context.Context, r Review) (*Review, error)
}
