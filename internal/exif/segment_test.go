package exif

import (
	"bytes"
	"image/jpeg"
	"testing"

	"github.com/bstardust/piclabel/internal/exif/exiftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSegment(t *testing.T) {
	seg := exiftest.Segment(exiftest.Options{Orientation: 3})
	img := exiftest.JPEG(exiftest.Image(8, 8), seg)

	got, err := ReadSegment(img)
	require.NoError(t, err)
	assert.Equal(t, seg, got)

	_, err = ReadSegment(exiftest.JPEG(exiftest.Image(8, 8), nil))
	assert.ErrorIs(t, err, ErrNoSegment)

	_, err = ReadSegment([]byte("\x89PNG\r\n"))
	assert.ErrorIs(t, err, ErrNotJPEG)
}

func TestInjectSegment(t *testing.T) {
	plain := exiftest.JPEG(exiftest.Image(8, 8), nil)
	seg := exiftest.Segment(exiftest.Options{Orientation: 8, DateTime: "2021:02:03 04:05:06"})

	out, err := InjectSegment(plain, seg)
	require.NoError(t, err)

	got, err := ReadSegment(out)
	require.NoError(t, err)
	assert.Equal(t, seg, got)

	// still a decodable JPEG
	_, err = jpeg.Decode(bytes.NewReader(out))
	assert.NoError(t, err)

	// replacing keeps exactly one Exif segment
	other := exiftest.Segment(exiftest.Options{Orientation: 1})
	out, err = InjectSegment(out, other)
	require.NoError(t, err)
	got, err = ReadSegment(out)
	require.NoError(t, err)
	assert.Equal(t, other, got)
	assert.Equal(t, 1, bytes.Count(out, []byte("Exif\x00\x00")))

	_, err = InjectSegment(plain, []byte("nope"))
	assert.Error(t, err)
}

func TestResetOrientation(t *testing.T) {
	seg := exiftest.Segment(exiftest.Options{Orientation: 6, DateTime: "2013:07:14 18:30:05"})

	reset, err := ResetOrientation(seg)
	require.NoError(t, err)

	data, err := Extract(bytes.NewReader(exiftest.JPEG(exiftest.Image(8, 8), reset)))
	require.NoError(t, err)
	assert.Equal(t, 1, data.Orientation)
	assert.Equal(t, "2013:07:14 18:30:05", data.DateTimeRaw)

	// original left untouched
	data, err = Extract(bytes.NewReader(exiftest.JPEG(exiftest.Image(8, 8), seg)))
	require.NoError(t, err)
	assert.Equal(t, 6, data.Orientation)

	noOrientation := exiftest.Segment(exiftest.Options{DateTime: "2013:07:14 18:30:05"})
	same, err := ResetOrientation(noOrientation)
	require.NoError(t, err)
	assert.Equal(t, noOrientation, same)
}
