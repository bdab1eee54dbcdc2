// Package seed loads demo venues and the bootstrap admin account.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"quickcourt/internal/auth"
	"quickcourt/internal/logger"
	"quickcourt/internal/user"
	"quickcourt/internal/venue"

	"github.com/lib/pq"
	"gopkg.in/yaml.v3"
)

type File struct {
	Venues []VenueSpec `yaml:"venues"`
}

type VenueSpec struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	About       string      `yaml:"about"`
	Address     string      `yaml:"address"`
	Sports      []string    `yaml:"sports"`
	Amenities   []string    `yaml:"amenities"`
	Photos      []string    `yaml:"photos"`
	Courts      []CourtSpec `yaml:"courts"`
}

type CourtSpec struct {
	Name           string  `yaml:"name"`
	Sport          string  `yaml:"sport"`
	PricePerHour   float64 `yaml:"price_per_hour"`
	OperatingHours string  `yaml:"operating_hours"`
}

type Admin struct {
	Name     string
	Email    string
	Password string
}

// Parse decodes a seed file and validates every court.
func Parse(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}

	for _, v := range f.Venues {
		if strings.TrimSpace(v.Name) == "" {
			return nil, errors.New("venue without a name")
		}
		seen := map[string]bool{}
		for _, c := range v.Courts {
			if c.Name == "" || c.Sport == "" || c.PricePerHour <= 0 {
				return nil, fmt.Errorf("venue %q: court %q needs name, sport and a positive price", v.Name, c.Name)
			}
			if seen[c.Name] {
				return nil, fmt.Errorf("venue %q: duplicate court %q", v.Name, c.Name)
			}
			seen[c.Name] = true
			if _, err := venue.ParseHoursRange(c.OperatingHours); err != nil {
				return nil, fmt.Errorf("venue %q court %q: %w", v.Name, c.Name, err)
			}
		}
	}
	return &f, nil
}

func (s VenueSpec) toVenue() *venue.Venue {
	v := &venue.Venue{
		Name:        s.Name,
		Description: s.Description,
		About:       s.About,
		Address:     s.Address,
		Sports:      pq.StringArray(s.Sports),
		Amenities:   pq.StringArray(s.Amenities),
		Photos:      pq.StringArray(s.Photos),
	}
	for _, c := range s.Courts {
		h, _ := venue.ParseHoursRange(c.OperatingHours)
		open, close, _ := strings.Cut(h.String(), "-")
		v.Courts = append(v.Courts, venue.Court{
			Name:         c.Name,
			Sport:        c.Sport,
			PricePerHour: c.PricePerHour,
			OpenTime:     open,
			CloseTime:    close,
		})
	}
	return v
}

type venueStore interface {
	ListVenues(ctx context.Context, sport string) ([]venue.Venue, error)
	CreateVenue(ctx context.Context, v *venue.Venue) (*venue.Venue, error)
}

type userStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, name, email, passwordHash, role, avatar string, verified bool) (*user.User, error)
}

// Venues inserts every venue whose name is not present yet and returns how many were created.
func Venues(ctx context.Context, store venueStore, f *File) (int, error) {
	existing, err := store.ListVenues(ctx, "")
	if err != nil {
		return 0, err
	}
	have := make(map[string]bool, len(existing))
	for _, v := range existing {
		have[strings.ToLower(v.Name)] = true
	}

	created := 0
	for _, spec := range f.Venues {
		if have[strings.ToLower(spec.Name)] {
			logger.Info("venue already seeded", "name", spec.Name)
			continue
		}
		v, err := store.CreateVenue(ctx, spec.toVenue())
		if err != nil {
			return created, fmt.Errorf("create venue %q: %w", spec.Name, err)
		}
		logger.Info("venue seeded", "id", v.ID, "name", v.Name, "courts", len(v.Courts))
		created++
	}
	return created, nil
}

// EnsureAdmin creates a verified admin unless the email is already registered.
func EnsureAdmin(ctx context.Context, store userStore, a Admin) (bool, error) {
	if a.Email == "" || len(a.Password) < 6 {
		return false, errors.New("admin email and a password of at least 6 characters are required")
	}
	exists, err := store.EmailExists(ctx, a.Email)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	hash, err := auth.HashPassword(a.Password)
	if err != nil {
		return false, err
	}
	name := a.Name
	if name == "" {
		name = "Admin"
	}
	if _, err := store.Create(ctx, name, a.Email, hash, auth.RoleAdmin, "", true); err != nil {
		return false, fmt.Errorf("create admin: %w", err)
	}
	return true, nil
}
