// Package location supplies the device location used when a photo carries no GPS tags.
package location

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bstardust/piclabel/internal/logger"
	"gopkg.in/yaml.v3"
)

// Coordinates is a WGS84 position in degrees
type Coordinates struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
}

// Valid reports whether the coordinates are inside the WGS84 range
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// Provider reports the last known device location. ok is false when the
// provider has no fix.
type Provider interface {
	LastKnown(ctx context.Context) (c Coordinates, ok bool, err error)
}

// ParseCoordinates parses "lat,lon"
func ParseCoordinates(s string) (Coordinates, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinates{}, fmt.Errorf("expected \"lat,lon\", got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid longitude: %w", err)
	}
	c := Coordinates{Latitude: lat, Longitude: lon}
	if !c.Valid() {
		return Coordinates{}, fmt.Errorf("coordinates out of range: %s", s)
	}
	return c, nil
}

// Static always returns the same fix
type Static struct {
	Coordinates Coordinates
}

func (s Static) LastKnown(ctx context.Context) (Coordinates, bool, error) {
	return s.Coordinates, true, nil
}

// FileRecord is the on-disk layout read by File
type FileRecord struct {
	Coordinates `yaml:",inline"`
	UpdatedAt   time.Time `yaml:"updated_at,omitempty"`
}

// File reads a last-known-location YAML file on every call, so an external
// tool can keep it current. A missing file means no fix.
type File struct {
	Path string
	// MaxAge discards fixes older than this when non-zero
	MaxAge time.Duration
	Now    func() time.Time
}

func (f File) LastKnown(ctx context.Context) (Coordinates, bool, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Coordinates{}, false, nil
		}
		return Coordinates{}, false, fmt.Errorf("failed to read location file: %w", err)
	}

	var rec FileRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return Coordinates{}, false, fmt.Errorf("failed to parse location file %s: %w", f.Path, err)
	}
	if !rec.Valid() {
		return Coordinates{}, false, fmt.Errorf("location file %s: coordinates out of range", f.Path)
	}

	if f.MaxAge > 0 && !rec.UpdatedAt.IsZero() {
		now := time.Now
		if f.Now != nil {
			now = f.Now
		}
		if now().Sub(rec.UpdatedAt) > f.MaxAge {
			logger.Debug("Location file %s is stale (updated %s)", f.Path, rec.UpdatedAt)
			return Coordinates{}, false, nil
		}
	}
	return rec.Coordinates, true, nil
}

// WriteFile stores rec at path in the format File reads
func WriteFile(path string, rec FileRecord) error {
	data, err := yaml.Marshal(rec)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Chain asks its providers from last to first and returns the first fix.
// Provider errors are logged and skipped.
type Chain []Provider

func (c Chain) LastKnown(ctx context.Context) (Coordinates, bool, error) {
	for i := len(c) - 1; i >= 0; i-- {
		if ctx.Err() != nil {
			return Coordinates{}, false, ctx.Err()
		}
		coords, ok, err := c[i].LastKnown(ctx)
		if err != nil {
			logger.Warn("Location provider %d failed: %v", i, err)
			continue
		}
		if ok {
			return coords, true, nil
		}
	}
	return Coordinates{}, false, nil
}
