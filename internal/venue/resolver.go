package venue

import (
	"strconv"
	"strings"

	"quickcourt/internal/apperr"
)

// ResolveCourt finds a court of v by id first, then by exact name.
func ResolveCourt(v *Venue, courtRef string) (CourtMatch, error) {
	ref := strings.TrimSpace(courtRef)

	if id, err := strconv.Atoi(ref); err == nil {
		for _, c := range v.Courts {
			if c.ID == id {
				return CourtMatch{Court: c, Kind: FoundByID}, nil
			}
		}
	}

	for _, c := range v.Courts {
		if c.Name == ref {
			return CourtMatch{Court: c, Kind: FoundByName}, nil
		}
	}

	return CourtMatch{}, apperr.NotFound("court")
}
