// Package metadata reads the JSON sidecars Google Photos exports next to
// each image, which carry the capture time and position when the image
// itself has lost its EXIF.
package metadata

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"time"
)

// Sidecar is the part of a sidecar file used for captions
type Sidecar struct {
	Title          string    `json:"title,omitempty"`
	PhotoTakenTime *TimeInfo `json:"photoTakenTime,omitempty"`
	CreationTime   *TimeInfo `json:"creationTime,omitempty"`
	GeoData        *GeoData  `json:"geoData,omitempty"`
	GeoDataExif    *GeoData  `json:"geoDataExif,omitempty"`
}

// TimeInfo represents timestamp information
type TimeInfo struct {
	// Timestamp is Unix seconds as a decimal string
	Timestamp string `json:"timestamp"`
	Formatted string `json:"formatted"`
}

// GeoData represents geographical data
type GeoData struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude,omitempty"`
}

// known reports whether the position was recorded; exports use 0,0 for unknown
func (g *GeoData) known() bool {
	return g != nil && (g.Latitude != 0 || g.Longitude != 0)
}

// Decode parses a sidecar
func Decode(r io.Reader) (*Sidecar, error) {
	var s Sidecar
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode JSON metadata: %w", err)
	}
	return &s, nil
}

// Read returns the sidecar of the image at path in fsys, or nil when the
// image has none.
func Read(fsys fs.FS, path string) (*Sidecar, error) {
	f, err := fsys.Open(path + ".json")
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// TakenAt returns when the photo was taken
func (s *Sidecar) TakenAt() (time.Time, bool) {
	if s == nil || s.PhotoTakenTime == nil {
		return time.Time{}, false
	}
	sec, err := strconv.ParseInt(s.PhotoTakenTime.Timestamp, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// Position returns where the photo was taken, preferring the edited
// position over the one copied from EXIF.
func (s *Sidecar) Position() (lat, lon float64, ok bool) {
	if s == nil {
		return 0, 0, false
	}
	for _, g := range []*GeoData{s.GeoData, s.GeoDataExif} {
		if g.known() {
			return g.Latitude, g.Longitude, true
		}
	}
	return 0, 0, false
}
