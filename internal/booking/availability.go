package booking

import (
	"fmt"
	"time"

	"quickcourt/internal/apperr"
	"quickcourt/internal/venue"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps treats touching intervals as disjoint.
func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

func (i Interval) Contains(o Interval) bool {
	return !o.Start.Before(i.Start) && !o.End.After(i.End)
}

// Checker validates requested intervals against court hours in the venue timezone.
type Checker struct {
	loc *time.Location
}

func NewChecker(loc *time.Location) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{loc: loc}
}

func (c *Checker) Location() *time.Location {
	return c.loc
}

func ValidateDuration(hours int) error {
	if hours < MinDurationHours || hours > MaxDurationHours {
		return apperr.Validation("durationHours must be an integer between %d and %d", MinDurationHours, MaxDurationHours)
	}
	return nil
}

// window is the operating interval that opens on the local calendar day of day.
func (c *Checker) window(h venue.Hours, day time.Time) Interval {
	open, close := h.At(day, c.loc)
	return Interval{Start: open, End: close}
}

// Validate checks duration and operating hours and returns the requested interval.
// A window crossing midnight may hold a request that starts after midnight, so
// the previous day's window is tried as well.
func (c *Checker) Validate(court venue.Court, start time.Time, hours int) (Interval, error) {
	if err := ValidateDuration(hours); err != nil {
		return Interval{}, err
	}

	h, err := court.Hours()
	if err != nil {
		return Interval{}, fmt.Errorf("court %d has invalid hours: %w", court.ID, err)
	}

	req := Interval{Start: start, End: start.Add(time.Duration(hours) * time.Hour)}
	local := start.In(c.loc)

	for _, day := range []time.Time{local.AddDate(0, 0, -1), local} {
		if c.window(h, day).Contains(req) {
			return req, nil
		}
	}

	return Interval{}, apperr.Validation("booking %s-%s is outside operating hours %s",
		req.Start.In(c.loc).Format("15:04"), req.End.In(c.loc).Format("15:04"), h)
}

// FindConflict returns the first active booking overlapping iv.
func FindConflict(iv Interval, existing []Booking) *Booking {
	for i := range existing {
		b := &existing[i]
		if b.Status.Active() && b.Interval().Overlaps(iv) {
			return b
		}
	}
	return nil
}

func (c *Checker) conflictError(b *Booking) error {
	return apperr.Conflict("court is already booked from %s to %s",
		b.Start.In(c.loc).Format(time.RFC3339), b.End.In(c.loc).Format(time.RFC3339))
}

// FreeSlots lists the whole-hour slots of the window opening on date that are
// free of active bookings and start after notBefore.
func (c *Checker) FreeSlots(court venue.Court, date time.Time, existing []Booking, notBefore time.Time) ([]Slot, error) {
	h, err := court.Hours()
	if err != nil {
		return nil, fmt.Errorf("court %d has invalid hours: %w", court.ID, err)
	}

	w := c.window(h, date)
	slots := []Slot{}
	for start := w.Start; !start.Add(time.Hour).After(w.End); start = start.Add(time.Hour) {
		iv := Interval{Start: start, End: start.Add(time.Hour)}
		if start.Before(notBefore) || FindConflict(iv, existing) != nil {
			continue
		}
		slots = append(slots, Slot{Start: iv.Start, End: iv.End})
	}
	return slots, nil
}
