package imageinfo

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"time"

	"github.com/bstardust/piclabel/internal/exif"
	"github.com/bstardust/piclabel/internal/geocode"
	"github.com/bstardust/piclabel/internal/location"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/internal/metadata"
	"github.com/bstardust/piclabel/pkg/common"
	_ "golang.org/x/image/webp"
)

// Info is the caption record extracted for one image
type Info struct {
	DateTime string `json:"date_time" yaml:"date_time"`
	Location string `json:"location" yaml:"location"`
	// IsLocalDateTime marks DateTime as the device clock instead of EXIF
	IsLocalDateTime bool `json:"is_local_date_time" yaml:"is_local_date_time"`
	// IsLocalLocation marks the coordinates as the device location instead of EXIF GPS
	IsLocalLocation bool `json:"is_local_location" yaml:"is_local_location"`
	// ReverseGeocodeProblem is set when no address could be produced; Location is then ""
	ReverseGeocodeProblem bool `json:"reverse_geocode_problem" yaml:"reverse_geocode_problem"`

	Coordinates *location.Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Orientation int                   `json:"orientation" yaml:"orientation"`
	Width       int                   `json:"width" yaml:"width"`
	Height      int                   `json:"height" yaml:"height"`
}

// Warnings returns the user-facing notes for fallback values
func (i *Info) Warnings() []string {
	var w []string
	if i.IsLocalDateTime {
		w = append(w, "No date in image metadata: using local date")
	}
	if i.ReverseGeocodeProblem {
		w = append(w, "Cannot reverse geocode the location")
	} else if i.IsLocalLocation {
		w = append(w, "No location in image metadata: using local location")
	}
	return w
}

// Extractor extracts caption data from images
type Extractor struct {
	now        func() time.Time
	zone       *time.Location
	dateFormat string
	locations  location.Provider
	geocoder   geocode.Geocoder
	sidecars   bool
}

// Option configures an Extractor
type Option func(*Extractor)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithZone sets the zone EXIF timestamps are interpreted in
func WithZone(zone *time.Location) Option {
	return func(e *Extractor) { e.zone = zone }
}

// WithDateFormat sets the Go layout of the date/time caption
func WithDateFormat(layout string) Option {
	return func(e *Extractor) { e.dateFormat = layout }
}

// WithSidecars toggles reading "<image>.json" sidecars for the date and
// position EXIF lacks
func WithSidecars(enabled bool) Option {
	return func(e *Extractor) { e.sidecars = enabled }
}

// DefaultDateFormat renders weekday, date, year and time
const DefaultDateFormat = "Monday, January 2, 2006 15:04"

// NewExtractor creates a new extractor. locations and geocoder may be nil.
func NewExtractor(locations location.Provider, geocoder geocode.Geocoder, opts ...Option) *Extractor {
	e := &Extractor{
		now:        time.Now,
		zone:       time.Local,
		dateFormat: DefaultDateFormat,
		locations:  locations,
		geocoder:   geocoder,
		sidecars:   true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractFile reads the image at path in fsys. Images that cannot be
// decoded yield a *common.DecodeError; missing EXIF is not an error.
func (e *Extractor) ExtractFile(ctx context.Context, fsys fs.FS, path string) (*Info, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	cfg, _, err := image.DecodeConfig(f)
	f.Close()
	if err != nil {
		return nil, common.NewDecodeError(path, err)
	}

	var data *exif.Data
	f, err = fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	data, err = exif.Extract(f)
	if err != nil {
		logger.Debug("No usable EXIF in %s: %v", path, err)
		data = nil
	}
	if e.sidecars {
		data = e.withSidecar(fsys, path, data)
	}

	info := e.Resolve(ctx, data)
	info.Width, info.Height = cfg.Width, cfg.Height
	if info.Orientation >= 5 {
		info.Width, info.Height = cfg.Height, cfg.Width
	}
	return info, nil
}

// Resolve computes the caption record from EXIF data, falling back to the
// device clock and location. data may be nil.
func (e *Extractor) Resolve(ctx context.Context, data *exif.Data) *Info {
	info := &Info{Orientation: 1}
	if data != nil {
		info.Orientation = data.Orientation
	}

	// Date
	var raw string
	if data != nil {
		raw = data.DateTimeRaw
	}
	if t, err := exif.ParseDateTime(raw, e.zone); err == nil {
		info.DateTime = t.Format(e.dateFormat)
	} else {
		if !errors.Is(err, exif.ErrNoDateTime) {
			logger.Warn("Could not parse EXIF date/time %q: %v", raw, err)
		}
		info.DateTime = e.now().In(e.zone).Format(e.dateFormat)
		info.IsLocalDateTime = true
	}

	// Location
	var coords *location.Coordinates
	if data.HasGPS() {
		coords = &location.Coordinates{Latitude: data.GPS.Latitude, Longitude: data.GPS.Longitude}
	} else {
		info.IsLocalLocation = true
		coords = e.deviceLocation(ctx)
	}
	info.Coordinates = coords

	if coords != nil {
		info.Location = e.reverseGeocode(ctx, *coords)
	}
	if info.Location == "" {
		info.ReverseGeocodeProblem = true
	}
	return info
}

// withSidecar fills the date and GPS missing from data with the values
// of the image's sidecar, if any.
func (e *Extractor) withSidecar(fsys fs.FS, path string, data *exif.Data) *exif.Data {
	needDate := data == nil || data.DateTimeRaw == ""
	needGPS := !data.HasGPS()
	if !needDate && !needGPS {
		return data
	}

	side, err := metadata.Read(fsys, path)
	if err != nil {
		logger.Warn("Ignoring sidecar of %s: %v", path, err)
		return data
	}
	if side == nil {
		return data
	}

	merged := exif.Data{Orientation: 1}
	if data != nil {
		merged = *data
	}
	if t, ok := side.TakenAt(); needDate && ok {
		merged.DateTimeRaw = t.In(e.zone).Format(exif.DateTimeLayout)
	}
	if lat, lon, ok := side.Position(); needGPS && ok {
		merged.GPS = &exif.GPSInfo{Latitude: lat, Longitude: lon}
	}
	return &merged
}

func (e *Extractor) deviceLocation(ctx context.Context) *location.Coordinates {
	if e.locations == nil {
		return nil
	}
	c, ok, err := e.locations.LastKnown(ctx)
	if err != nil {
		logger.Warn("Could not get local location: %v", err)
		return nil
	}
	if !ok {
		return nil
	}
	return &c
}

func (e *Extractor) reverseGeocode(ctx context.Context, c location.Coordinates) string {
	if e.geocoder == nil {
		return ""
	}
	addr, err := e.geocoder.Reverse(ctx, c.Latitude, c.Longitude)
	if err != nil {
		logger.Warn("Could not reverse geocode %s: %v", c, err)
		return ""
	}
	return addr.Format()
}
