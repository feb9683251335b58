// Package exiftest builds small EXIF-tagged JPEG fixtures for tests.
package exiftest

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"math"
)

const (
	typeASCII    = 2
	typeShort    = 3
	typeLong     = 4
	typeRational = 5
)

// Options selects the tags written into the segment. Zero values are omitted.
type Options struct {
	Orientation int
	DateTime    string
	GPS         *LatLon
}

// LatLon is a signed coordinate pair in degrees
type LatLon struct {
	Lat float64
	Lon float64
}

type entry struct {
	tag   uint16
	typ   uint16
	count uint32
	data  []byte
}

var order = binary.BigEndian

// Segment returns an APP1 payload ("Exif\0\0" + big-endian TIFF)
func Segment(opts Options) []byte {
	var ifd0 []entry
	if opts.Orientation != 0 {
		v := make([]byte, 4)
		order.PutUint16(v, uint16(opts.Orientation))
		ifd0 = append(ifd0, entry{tag: 0x0112, typ: typeShort, count: 1, data: v})
	}
	if opts.DateTime != "" {
		s := append([]byte(opts.DateTime), 0)
		ifd0 = append(ifd0, entry{tag: 0x0132, typ: typeASCII, count: uint32(len(s)), data: s})
	}

	var gps []entry
	if opts.GPS != nil {
		latRef, lonRef := "N", "E"
		if opts.GPS.Lat < 0 {
			latRef = "S"
		}
		if opts.GPS.Lon < 0 {
			lonRef = "W"
		}
		gps = []entry{
			{tag: 0x0001, typ: typeASCII, count: 2, data: []byte{latRef[0], 0, 0, 0}},
			{tag: 0x0002, typ: typeRational, count: 3, data: dms(math.Abs(opts.GPS.Lat))},
			{tag: 0x0003, typ: typeASCII, count: 2, data: []byte{lonRef[0], 0, 0, 0}},
			{tag: 0x0004, typ: typeRational, count: 3, data: dms(math.Abs(opts.GPS.Lon))},
		}
		// placeholder pointer, patched once IFD0's size is known
		ifd0 = append(ifd0, entry{tag: 0x8825, typ: typeLong, count: 1, data: make([]byte, 4)})
	}

	const ifd0Offset = 8
	first := layout(ifd0Offset, ifd0)
	if gps != nil {
		gpsOffset := uint32(ifd0Offset + len(first))
		order.PutUint32(ifd0[len(ifd0)-1].data, gpsOffset)
		first = layout(ifd0Offset, ifd0)
		first = append(first, layout(gpsOffset, gps)...)
	}

	var buf bytes.Buffer
	buf.WriteString("Exif\x00\x00")
	buf.WriteString("MM")
	_ = binary.Write(&buf, order, uint16(42))
	_ = binary.Write(&buf, order, uint32(ifd0Offset))
	buf.Write(first)
	return buf.Bytes()
}

// layout encodes entries as an IFD located at base. Values longer than four
// bytes follow the IFD.
func layout(base uint32, entries []entry) []byte {
	size := 2 + 12*len(entries) + 4
	ifd := make([]byte, size)
	var extra []byte

	order.PutUint16(ifd[0:], uint16(len(entries)))
	for i, e := range entries {
		p := 2 + 12*i
		order.PutUint16(ifd[p:], e.tag)
		order.PutUint16(ifd[p+2:], e.typ)
		order.PutUint32(ifd[p+4:], e.count)
		if len(e.data) <= 4 {
			copy(ifd[p+8:p+12], e.data)
			continue
		}
		order.PutUint32(ifd[p+8:], base+uint32(size)+uint32(len(extra)))
		extra = append(extra, e.data...)
		if len(extra)%2 == 1 {
			extra = append(extra, 0)
		}
	}
	return append(ifd, extra...)
}

func dms(v float64) []byte {
	deg := math.Floor(v)
	minutes := math.Floor((v - deg) * 60)
	seconds := ((v-deg)*60 - minutes) * 60

	out := make([]byte, 24)
	order.PutUint32(out[0:], uint32(deg))
	order.PutUint32(out[4:], 1)
	order.PutUint32(out[8:], uint32(minutes))
	order.PutUint32(out[12:], 1)
	order.PutUint32(out[16:], uint32(math.Round(seconds*10000)))
	order.PutUint32(out[20:], 10000)
	return out
}

// Image returns a w x h image with a left-to-right gradient
func Image(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: 128, B: uint8(y * 255 / h), A: 255})
		}
	}
	return img
}

// JPEG encodes img and, when segment is non-nil, places it right after SOI
func JPEG(img image.Image, segment []byte) []byte {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		panic(err)
	}
	data := buf.Bytes()
	if segment == nil {
		return data
	}

	out := []byte{0xFF, 0xD8, 0xFF, 0xE1, 0, 0}
	order.PutUint16(out[4:], uint16(len(segment)+2))
	out = append(out, segment...)
	return append(out, data[2:]...)
}
