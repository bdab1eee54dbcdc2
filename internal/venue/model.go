package venue

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
)

type Venue struct {
	ID          int            `db:"id" json:"id"`
	OwnerID     *int           `db:"owner_id" json:"owner_id,omitempty"`
	Name        string         `db:"name" json:"name"`
	Description string         `db:"description" json:"description"`
	About       string         `db:"about" json:"about"`
	Address     string         `db:"address" json:"address"`
	Sports      pq.StringArray `db:"sports" json:"sports" swaggertype:"array,string"`
	Amenities   pq.StringArray `db:"amenities" json:"amenities" swaggertype:"array,string"`
	Photos      pq.StringArray `db:"photos" json:"photos" swaggertype:"array,string"`
	Courts      []Court        `db:"-" json:"courts"`
	Reviews     []Review       `db:"-" json:"reviews"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// OwnedBy reports whether userID is the recorded facility owner.
func (v *Venue) OwnedBy(userID int) bool {
	return v.OwnerID != nil && *v.OwnerID == userID
}

type Court struct {
	ID           int       `db:"id" json:"id"`
	VenueID      int       `db:"venue_id" json:"venue_id"`
	Name         string    `db:"name" json:"name"`
	Sport        string    `db:"sport" json:"sport"`
	PricePerHour float64   `db:"price_per_hour" json:"price_per_hour"`
	OpenTime     string    `db:"open_time" json:"open_time" example:"06:00"`
	CloseTime    string    `db:"close_time" json:"close_time" example:"22:00"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

func (c *Court) Hours() (Hours, error) {
	return ParseHours(c.OpenTime, c.CloseTime)
}

type Review struct {
	ID        int       `db:"id" json:"id"`
	VenueID   int       `db:"venue_id" json:"venue_id"`
	Author    string    `db:"author" json:"author"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Hours is a daily operating window as offsets from local midnight.
// Close <= Open means the window runs past midnight into the next day.
type Hours struct {
	Open  time.Duration
	Close time.Duration
}

func (h Hours) CrossesMidnight() bool {
	return h.Close <= h.Open
}

// At returns the open and close instants of the window that opens on the
// calendar day of day in loc. Both ends are wall-clock times, so a window on a
// daylight-saving transition day is shorter or longer than usual.
func (h Hours) At(day time.Time, loc *time.Location) (open, close time.Time) {
	y, m, d := day.In(loc).Date()
	open = clockOn(y, m, d, h.Open, loc)
	if h.CrossesMidnight() {
		d++
	}
	return open, clockOn(y, m, d, h.Close, loc)
}

func clockOn(y int, m time.Month, d int, clock time.Duration, loc *time.Location) time.Time {
	mins := int(clock / time.Minute)
	return time.Date(y, m, d, mins/60, mins%60, 0, 0, loc)
}

func (h Hours) String() string {
	return formatClock(h.Open) + "-" + formatClock(h.Close)
}

func formatClock(d time.Duration) string {
	m := int(d / time.Minute)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func parseClock(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("invalid time %q, want HH:MM", s)
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return time.Duration(hh)*time.Hour + time.Duration(mm)*time.Minute, nil
}

func ParseHours(open, close string) (Hours, error) {
	o, err := parseClock(open)
	if err != nil {
		return Hours{}, err
	}
	c, err := parseClock(close)
	if err != nil {
		return Hours{}, err
	}
	return Hours{Open: o, Close: c}, nil
}

// ParseHoursRange accepts the "06:00-22:00" form.
func ParseHoursRange(s string) (Hours, error) {
	open, close, ok := strings.Cut(s, "-")
	if !ok {
		return Hours{}, fmt.Errorf("invalid operating hours %q, want HH:MM-HH:MM", s)
	}
	return ParseHours(open, close)
}

type MatchKind string

const (
	FoundByID   MatchKind = "id"
	FoundByName MatchKind = "name"
)

// CourtMatch is a resolved court together with how the reference matched it.
type CourtMatch struct {
	Court Court
	Kind  MatchKind
}

type CreateCourtRequest struct {
	Name           string  `json:"name" binding:"required,max=255" example:"Court 1"`
	Sport          string  `json:"sport" binding:"required,max=64" example:"badminton"`
	PricePerHour   float64 `json:"price_per_hour" binding:"required,gt=0" example:"1200"`
	OperatingHours string  `json:"operating_hours" example:"06:00-22:00"`
	OpenTime       string  `json:"open_time" example:"06:00"`
	CloseTime      string  `json:"close_time" example:"22:00"`
}

func (r CreateCourtRequest) hours() (Hours, error) {
	if r.OperatingHours != "" {
		return ParseHoursRange(r.OperatingHours)
	}
	return ParseHours(r.OpenTime, r.CloseTime)
}

type UpdateCourtRequest struct {
	Name           *string  `json:"name" binding:"omitempty,min=1,max=255"`
	Sport          *string  `json:"sport" binding:"omitempty,min=1,max=64"`
	PricePerHour   *float64 `json:"price_per_hour" binding:"omitempty,gt=0"`
	OperatingHours *string  `json:"operating_hours"`
}

type CreateVenueRequest struct {
	Name        string               `json:"name" binding:"required,max=255" example:"Smash Arena"`
	Description string               `json:"description" binding:"required"`
	About       string               `json:"about"`
	Address     string               `json:"address" binding:"required"`
	Sports      []string             `json:"sports"`
	Amenities   []string             `json:"amenities"`
	Photos      []string             `json:"photos"`
	Courts      []CreateCourtRequest `json:"courts" binding:"dive"`
}

type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5" example:"5"`
	Comment string `json:"comment" binding:"required,max=2000" example:"Great lighting"`
}

type ListFilter struct {
	Sport string `form:"sport" validate:"omitempty,max=64"`
}
