package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"quickcourt/internal/apperr"
	"quickcourt/internal/auth"
	"quickcourt/internal/events"
	"quickcourt/internal/logger"
	"quickcourt/internal/metrics"
	"quickcourt/internal/user"
	"quickcourt/internal/venue"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type VenueFinder interface {
	GetVenue(ctx context.Context, id int) (*venue.Venue, error)
	FindCourt(ctx context.Context, venueID int, courtRef string) (*venue.Venue, venue.CourtMatch, error)
}

type UserReader interface {
	GetByID(ctx context.Context, userID int) (*user.User, error)
}

// Notifier queues booking emails.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, email, name, venue, court string, start time.Time, hours int, price float64) error
	SendCancellation(ctx context.Context, email, name, venue, court string, start time.Time) error
}

type Service interface {
	CreateBooking(ctx context.Context, userID, venueID int, courtRef string, start time.Time, durationHours int) (*Booking, error)
	CancelBooking(ctx context.Context, bookingID int, requestedBy auth.Identity) (*Booking, error)
	ListBookings(ctx context.Context, f Filter) ([]Booking, error)
	GetBooking(ctx context.Context, bookingID int, caller auth.Identity) (*Booking, error)
	SweepCompletions(ctx context.Context, now time.Time) (int64, error)
	FreeSlots(ctx context.Context, venueID int, courtRef string, date time.Time) ([]Slot, error)
	ExportBookings(ctx context.Context, f Filter, w io.Writer) error
	Location() *time.Location
}

type service struct {
	repo      Repository
	venues    VenueFinder
	users     UserReader
	checker   *Checker
	publisher events.Publisher
	notifier  Notifier
	tracer    trace.Tracer
	now       func() time.Time
}

func NewService(
	repo Repository,
	venues VenueFinder,
	users UserReader,
	checker *Checker,
	publisher events.Publisher,
	notifier Notifier,
) Service {
	return &service{
		repo:      repo,
		venues:    venues,
		users:     users,
		checker:   checker,
		publisher: publisher,
		notifier:  notifier,
		tracer:    otel.Tracer("quickcourt/booking"),
		now:       time.Now,
	}
}

func (s *service) Location() *time.Location {
	return s.checker.Location()
}

func rejectionReason(err error) string {
	switch {
	case apperr.IsValidation(err):
		return "validation"
	case apperr.IsNotFound(err):
		return "not_found"
	case apperr.IsConflict(err):
		return "conflict"
	default:
		return "error"
	}
}

func (s *service) CreateBooking(ctx context.Context, userID, venueID int, courtRef string, start time.Time, durationHours int) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Create", trace.WithAttributes(
		attribute.Int("venue.id", venueID),
		attribute.String("court.ref", courtRef),
		attribute.Int("booking.duration_hours", durationHours),
	))
	defer span.End()

	b, err := s.create(ctx, userID, venueID, courtRef, start, durationHours)
	if err != nil {
		metrics.RecordBookingRejection(rejectionReason(err))
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("booking.id", b.ID))
	return b, nil
}

func (s *service) create(ctx context.Context, userID, venueID int, courtRef string, start time.Time, durationHours int) (*Booking, error) {
	if err := ValidateDuration(durationHours); err != nil {
		return nil, err
	}
	if !start.After(s.now()) {
		return nil, apperr.Validation("cannot book a slot in the past")
	}

	v, match, err := s.venues.FindCourt(ctx, venueID, courtRef)
	if err != nil {
		return nil, err
	}
	court := match.Court

	iv, err := s.checker.Validate(court, start, durationHours)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateWithNoOverlap(ctx, &Booking{
		UserID:        userID,
		VenueID:       v.ID,
		CourtID:       court.ID,
		CourtName:     court.Name,
		Sport:         court.Sport,
		Start:         iv.Start,
		End:           iv.End,
		DurationHours: durationHours,
		Price:         court.PricePerHour * float64(durationHours),
		Status:        StatusConfirmed,
	})
	if err != nil {
		var overlap *OverlapError
		if errors.As(err, &overlap) {
			return nil, s.checker.conflictError(&overlap.Existing)
		}
		return nil, err
	}

	metrics.RecordBooking(created.Sport, created.Price)
	s.publish(ctx, events.BookingCreated, created)

	if u := s.lookupUser(ctx, created.UserID); u != nil {
		if err := s.notifier.SendBookingConfirmation(ctx, u.Email, u.Name, v.Name, created.CourtName,
			created.Start.In(s.checker.loc), created.DurationHours, created.Price); err != nil {
			logger.Warn("queue booking confirmation failed", "booking_id", created.ID, "error", err)
		}
	}

	return created, nil
}

func (s *service) publish(ctx context.Context, key string, b *Booking) {
	if err := s.publisher.Publish(ctx, key, b); err != nil {
		logger.Warn("publish booking event failed", "key", key, "booking_id", b.ID, "error", err)
	}
}

func (s *service) lookupUser(ctx context.Context, id int) *user.User {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		logger.Warn("booking user lookup failed", "user_id", id, "error", err)
		return nil
	}
	return u
}

func (s *service) load(ctx context.Context, id int) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking")
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// authorize allows the booking's user, the venue owner and admins.
func (s *service) authorize(ctx context.Context, b *Booking, caller auth.Identity) error {
	if caller.IsAdmin() || caller.UserID == b.UserID {
		return nil
	}
	if caller.Role == auth.RoleFacilityOwner {
		v, err := s.venues.GetVenue(ctx, b.VenueID)
		if err == nil && v.OwnedBy(caller.UserID) {
			return nil
		}
		if err != nil && !apperr.IsNotFound(err) {
			return err
		}
	}
	return apperr.Forbidden("not allowed to access this booking")
}

func (s *service) CancelBooking(ctx context.Context, bookingID int, requestedBy auth.Identity) (*Booking, error) {
	ctx, span := s.tracer.Start(ctx, "booking.Cancel", trace.WithAttributes(attribute.Int("booking.id", bookingID)))
	defer span.End()

	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, b, requestedBy); err != nil {
		return nil, err
	}

	now := s.now()
	if b.Status.Terminal() {
		return nil, apperr.InvalidState("booking is already %s", b.Status)
	}
	if !b.Start.After(now) {
		return nil, apperr.InvalidState("booking has already started")
	}

	cancelled, err := s.repo.Cancel(ctx, bookingID, now)
	if errors.Is(err, sql.ErrNoRows) {
		// Lost a race with another cancel or the sweeper.
		return nil, apperr.InvalidState("booking can no longer be cancelled")
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.RecordBookingCancellation()
	s.publish(ctx, events.BookingCancelled, cancelled)

	if u := s.lookupUser(ctx, cancelled.UserID); u != nil {
		venueName := ""
		if v, err := s.venues.GetVenue(ctx, cancelled.VenueID); err == nil {
			venueName = v.Name
		}
		if err := s.notifier.SendCancellation(ctx, u.Email, u.Name, venueName, cancelled.CourtName,
			cancelled.Start.In(s.checker.loc)); err != nil {
			logger.Warn("queue cancellation email failed", "booking_id", cancelled.ID, "error", err)
		}
	}

	return cancelled, nil
}

func (s *service) ListBookings(ctx context.Context, f Filter) ([]Booking, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("unknown status %q", f.Status)
	}
	return s.repo.List(ctx, f)
}

func (s *service) GetBooking(ctx context.Context, bookingID int, caller auth.Identity) (*Booking, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, b, caller); err != nil {
		return nil, err
	}
	return b, nil
}

// SweepCompletions marks every confirmed booking that ended at or before now as completed.
func (s *service) SweepCompletions(ctx context.Context, now time.Time) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "booking.SweepCompletions")
	defer span.End()

	n, err := s.repo.CompleteElapsed(ctx, now)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	span.SetAttributes(attribute.Int64("bookings.completed", n))
	if n > 0 {
		metrics.RecordBookingCompletions(n)
		payload := map[string]interface{}{"completed": n, "sweptAt": now}
		if err := s.publisher.Publish(ctx, events.BookingCompleted, payload); err != nil {
			logger.Warn("publish sweep event failed", "error", err)
		}
	}
	return n, nil
}

func (s *service) FreeSlots(ctx context.Context, venueID int, courtRef string, date time.Time) ([]Slot, error) {
	_, match, err := s.venues.FindCourt(ctx, venueID, courtRef)
	if err != nil {
		return nil, err
	}

	h, err := match.Court.Hours()
	if err != nil {
		return nil, fmt.Errorf("court %d has invalid hours: %w", match.Court.ID, err)
	}
	window := s.checker.window(h, date)

	existing, err := s.repo.ActiveForCourt(ctx, match.Court.ID, window)
	if err != nil {
		return nil, err
	}

	return s.checker.FreeSlots(match.Court, date, existing, s.now())
}

func (s *service) ExportBookings(ctx context.Context, f Filter, w io.Writer) error {
	bookings, err := s.ListBookings(ctx, f)
	if err != nil {
		return err
	}
	return writeWorkbook(w, bookings, s.checker.loc)
}
