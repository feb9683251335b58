// Package geocode turns coordinates into a short human readable address.
package geocode

import (
	"context"
	"errors"
	"strings"
)

// ErrNoResult is returned when the service knows no address for the position
var ErrNoResult = errors.New("geocode: no address found")

// Geocoder performs reverse geocoding
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*Address, error)
}

// Address is the subset of a reverse geocoding result used for captions
type Address struct {
	// Line is the street level part, e.g. "10 Downing Street"
	Line     string
	Locality string
	Country  string
}

// Format joins the non-empty parts with ", "
func (a *Address) Format() string {
	if a == nil {
		return ""
	}
	parts := make([]string, 0, 3)
	for _, s := range []string{a.Line, a.Locality, a.Country} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}
