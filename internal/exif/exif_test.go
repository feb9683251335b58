package exif

import (
	"bytes"
	"testing"
	"time"

	"github.com/bstardust/piclabel/internal/exif/exiftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	seg := exiftest.Segment(exiftest.Options{
		Orientation: 6,
		DateTime:    "2013:07:14 18:30:05",
		GPS:         &exiftest.LatLon{Lat: 48.8566, Lon: -2.3522},
	})
	img := exiftest.JPEG(exiftest.Image(16, 8), seg)

	data, err := Extract(bytes.NewReader(img))
	require.NoError(t, err)

	assert.Equal(t, "2013:07:14 18:30:05", data.DateTimeRaw)
	assert.Equal(t, 6, data.Orientation)
	require.True(t, data.HasGPS())
	assert.InDelta(t, 48.8566, data.GPS.Latitude, 1e-3)
	assert.InDelta(t, -2.3522, data.GPS.Longitude, 1e-3)
}

func TestExtract_NoExif(t *testing.T) {
	img := exiftest.JPEG(exiftest.Image(8, 8), nil)

	data, err := Extract(bytes.NewReader(img))
	assert.Error(t, err)
	assert.Nil(t, data)
}

func TestExtract_DefaultsOrientation(t *testing.T) {
	seg := exiftest.Segment(exiftest.Options{DateTime: "2020:01:01 00:00:00"})
	data, err := Extract(bytes.NewReader(exiftest.JPEG(exiftest.Image(8, 8), seg)))
	require.NoError(t, err)

	assert.Equal(t, 1, data.Orientation)
	assert.False(t, data.HasGPS())
}

func TestParseDateTime(t *testing.T) {
	loc := time.UTC

	got, err := ParseDateTime("2013:07:14 18:30:05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2013, 7, 14, 18, 30, 5, 0, loc), got)

	got, err = ParseDateTime("2013:07:14 18:30:05\x00", loc)
	require.NoError(t, err)
	assert.Equal(t, 2013, got.Year())

	for _, raw := range []string{"", "   ", "0000:00:00 00:00:00", "2013-07-14 18:30:05", "yesterday"} {
		_, err := ParseDateTime(raw, loc)
		assert.Error(t, err, "input %q", raw)
	}

	_, err = ParseDateTime("", loc)
	assert.ErrorIs(t, err, ErrNoDateTime)
}
