package venue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"quickcourt/internal/apperr"
	"quickcourt/internal/auth"
	"quickcourt/internal/user"
)

// UserReader resolves review authors.
type UserReader interface {
	GetByID(ctx context.Context, userID int) (*user.User, error)
}

type Service interface {
	GetVenue(ctx context.Context, id int) (*Venue, error)
	ListVenues(ctx context.Context, filter ListFilter) ([]Venue, error)
	FindCourt(ctx context.Context, venueID int, courtRef string) (*Venue, CourtMatch, error)
	CreateVenue(ctx context.Context, owner auth.Identity, req CreateVenueRequest) (*Venue, error)
	AddCourt(ctx context.Context, caller auth.Identity, venueID int, req CreateCourtRequest) (*Court, error)
	UpdateCourt(ctx context.Context, caller auth.Identity, venueID, courtID int, req UpdateCourtRequest) (*Court, error)
	DeleteVenue(ctx context.Context, id int) error
	AddReview(ctx context.Context, userID, venueID int, req CreateReviewRequest) (*Review, error)
}

type service struct {
	repo  Repository
	users UserReader
}

func NewService(repo Repository, users UserReader) Service {
	return &service{repo: repo, users: users}
}

func (s *service) GetVenue(ctx context.Context, id int) (*Venue, error) {
	v, err := s.repo.GetVenue(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("venue")
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *service) ListVenues(ctx context.Context, filter ListFilter) ([]Venue, error) {
	return s.repo.ListVenues(ctx, strings.TrimSpace(filter.Sport))
}

func (s *service) FindCourt(ctx context.Context, venueID int, courtRef string) (*Venue, CourtMatch, error) {
	v, err := s.GetVenue(ctx, venueID)
	if err != nil {
		return nil, CourtMatch{}, err
	}
	match, err := ResolveCourt(v, courtRef)
	if err != nil {
		return nil, CourtMatch{}, err
	}
	return v, match, nil
}

func courtFromRequest(req CreateCourtRequest) (Court, error) {
	hours, err := req.hours()
	if err != nil {
		return Court{}, apperr.Validation("court %q: %s", req.Name, err.Error())
	}
	if req.PricePerHour <= 0 {
		return Court{}, apperr.Validation("court %q: price_per_hour must be positive", req.Name)
	}
	return Court{
		Name:         strings.TrimSpace(req.Name),
		Sport:        strings.TrimSpace(req.Sport),
		PricePerHour: req.PricePerHour,
		OpenTime:     formatClock(hours.Open),
		CloseTime:    formatClock(hours.Close),
	}, nil
}

func (s *service) CreateVenue(ctx context.Context, owner auth.Identity, req CreateVenueRequest) (*Venue, error) {
	v := &Venue{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		About:       req.About,
		Address:     req.Address,
		Sports:      req.Sports,
		Amenities:   req.Amenities,
		Photos:      req.Photos,
	}
	if owner.Role == auth.RoleFacilityOwner {
		id := owner.UserID
		v.OwnerID = &id
	}

	seen := make(map[string]bool, len(req.Courts))
	for _, cr := range req.Courts {
		c, err := courtFromRequest(cr)
		if err != nil {
			return nil, err
		}
		if seen[c.Name] {
			return nil, apperr.Validation("duplicate court name %q", c.Name)
		}
		seen[c.Name] = true
		v.Courts = append(v.Courts, c)
	}

	return s.repo.CreateVenue(ctx, v)
}

// manageable loads the venue and checks the caller may change it.
func (s *service) manageable(ctx context.Context, caller auth.Identity, venueID int) (*Venue, error) {
	v, err := s.GetVenue(ctx, venueID)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && !v.OwnedBy(caller.UserID) {
		return nil, apperr.Forbidden("only the venue owner or an admin can manage its courts")
	}
	return v, nil
}

func (s *service) AddCourt(ctx context.Context, caller auth.Identity, venueID int, req CreateCourtRequest) (*Court, error) {
	if _, err := s.manageable(ctx, caller, venueID); err != nil {
		return nil, err
	}

	c, err := courtFromRequest(req)
	if err != nil {
		return nil, err
	}
	c.VenueID = venueID

	return s.repo.AddCourt(ctx, c)
}

// UpdateCourt changes a court in place. Bookings already made keep their price.
func (s *service) UpdateCourt(ctx context.Context, caller auth.Identity, venueID, courtID int, req UpdateCourtRequest) (*Court, error) {
	v, err := s.manageable(ctx, caller, venueID)
	if err != nil {
		return nil, err
	}

	match, err := ResolveCourt(v, fmt.Sprint(courtID))
	if err != nil || match.Kind != FoundByID {
		return nil, apperr.NotFound("court")
	}
	c := match.Court

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Sport != nil {
		c.Sport = strings.TrimSpace(*req.Sport)
	}
	if req.PricePerHour != nil {
		if *req.PricePerHour <= 0 {
			return nil, apperr.Validation("price_per_hour must be positive")
		}
		c.PricePerHour = *req.PricePerHour
	}
	if req.OperatingHours != nil {
		hours, err := ParseHoursRange(*req.OperatingHours)
		if err != nil {
			return nil, apperr.Validation("%s", err.Error())
		}
		c.OpenTime, c.CloseTime = formatClock(hours.Open), formatClock(hours.Close)
	}

	return s.repo.UpdateCourt(ctx, c)
}

func (s *service) DeleteVenue(ctx context.Context, id int) error {
	deleted, err := s.repo.DeleteVenue(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound("venue")
	}
	return nil
}

func (s *service) AddReview(ctx context.Context, userID, venueID int, req CreateReviewRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	if _, err := s.GetVenue(ctx, venueID); err != nil {
		return nil, err
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.repo.AddReview(ctx, Review{
		VenueID: venueID,
		Author:  author.Name,
		Rating:  req.Rating,
		Comment: strings.TrimSpace(req.Comment),
	})
}
