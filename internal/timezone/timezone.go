// Package timezone validates IANA zone names and maps GPS coordinates to
// the zone that contains them.
package timezone

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ringsaturn/tzf"
)

// ErrInvalidTimezone is returned for names the zone database does not know.
var ErrInvalidTimezone = errors.New("invalid timezone")

// ErrNoTimezone is returned when no zone covers a coordinate.
var ErrNoTimezone = errors.New("no timezone at location")

// Resolve loads the named zone. The empty name and "Local" are rejected so a
// user record can never silently follow the host clock.
func Resolve(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, name)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidTimezone, name, err)
	}
	return loc, nil
}

// Finder looks up zone names by coordinate.
type Finder struct {
	f tzf.F
}

// NewFinder loads the bundled zone polygons. This takes a moment and a few
// dozen megabytes, so build one Finder at startup and share it.
func NewFinder() (*Finder, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone finder: %w", err)
	}
	return &Finder{f: f}, nil
}

// At returns the IANA zone name for the given latitude and longitude.
func (f *Finder) At(lat, lng float64) (string, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return "", fmt.Errorf("%w: lat=%f lng=%f out of range", ErrNoTimezone, lat, lng)
	}

	name := f.f.GetTimezoneName(lng, lat)
	if name == "" {
		return "", fmt.Errorf("%w: lat=%f lng=%f", ErrNoTimezone, lat, lng)
	}
	return name, nil
}
