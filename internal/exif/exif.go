// internal/exif/exif.go
package exif

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/mknote"
)

// DateTimeLayout is the EXIF "YYYY:MM:DD HH:MM:SS" timestamp layout
const DateTimeLayout = "2006:01:02 15:04:05"

// ErrNoDateTime is returned by ParseDateTime for an empty value
var ErrNoDateTime = errors.New("exif: no date/time value")

func init() {
	exif.RegisterParsers(mknote.All...)
}

// Data represents EXIF metadata
type Data struct {
	// DateTimeRaw is the unparsed capture timestamp, empty when absent
	DateTimeRaw string
	GPS         *GPSInfo
	// Orientation is the EXIF orientation (1..8); 1 when absent or invalid
	Orientation int
	Make        string
	Model       string
}

// GPSInfo represents GPS information from EXIF
type GPSInfo struct {
	Latitude  float64
	Longitude float64
	Altitude  float64
}

// Extract extracts EXIF metadata from a reader
func Extract(r io.Reader) (*Data, error) {
	x, err := exif.Decode(r)
	if err != nil && (x == nil || exif.IsCriticalError(err)) {
		return nil, err
	}

	data := &Data{Orientation: 1}

	// DateTimeOriginal is the capture time; DateTime is rewritten by editors
	data.DateTimeRaw = stringField(x, exif.DateTimeOriginal)
	if data.DateTimeRaw == "" {
		data.DateTimeRaw = stringField(x, exif.DateTime)
	}

	if lat, long, err := x.LatLong(); err == nil {
		data.GPS = &GPSInfo{
			Latitude:  lat,
			Longitude: long,
		}

		if alt, err := x.Get(exif.GPSAltitude); err == nil {
			if num, den, err := alt.Rat2(0); err == nil && den != 0 {
				data.GPS.Altitude = float64(num) / float64(den)
			}
		}
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
			data.Orientation = v
		}
	}

	data.Make = stringField(x, exif.Make)
	data.Model = stringField(x, exif.Model)

	return data, nil
}

// HasGPS reports whether the image carries usable coordinates
func (d *Data) HasGPS() bool {
	return d != nil && d.GPS != nil
}

// ParseDateTime parses an EXIF timestamp in loc. Empty or malformed values
// (including the all-zero "0000:00:00 00:00:00") are errors.
func ParseDateTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(strings.Trim(raw, "\x00"))
	if raw == "" {
		return time.Time{}, ErrNoDateTime
	}
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateTimeLayout, raw, loc)
}

func stringField(x *exif.Exif, field exif.FieldName) string {
	tag, err := x.Get(field)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}
