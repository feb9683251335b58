package exif

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1

	tagOrientation = 0x0112
	typeShort      = 3

	maxSegmentPayload = 0xFFFF - 2
)

var exifHeader = []byte("Exif\x00\x00")

// ErrNoSegment is returned when a JPEG stream has no Exif APP1 segment
var ErrNoSegment = errors.New("exif: no APP1 Exif segment")

// ErrNotJPEG is returned for streams that do not start with a JPEG SOI marker
var ErrNotJPEG = errors.New("exif: not a JPEG stream")

type segment struct {
	marker  byte
	start   int // offset of the 0xFF marker byte
	end     int // offset right after the segment
	payload []byte
}

// walkSegments calls fn for every marker segment before the scan data and
// returns the offset where the remaining stream (SOS onwards) starts.
func walkSegments(data []byte, fn func(s segment) bool) (int, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return 0, ErrNotJPEG
	}

	off := 2
	for off+1 < len(data) {
		if data[off] != 0xFF {
			return 0, fmt.Errorf("exif: invalid marker at offset %d", off)
		}
		marker := data[off+1]
		switch {
		case marker == 0xFF:
			off++
			continue
		case marker == markerSOS || marker == markerEOI:
			return off, nil
		case marker >= 0xD0 && marker <= 0xD7, marker == 0x01:
			off += 2
			continue
		}

		if off+4 > len(data) {
			return 0, fmt.Errorf("exif: truncated segment at offset %d", off)
		}
		length := int(binary.BigEndian.Uint16(data[off+2 : off+4]))
		if length < 2 || off+2+length > len(data) {
			return 0, fmt.Errorf("exif: truncated segment at offset %d", off)
		}
		s := segment{
			marker:  marker,
			start:   off,
			end:     off + 2 + length,
			payload: data[off+4 : off+2+length],
		}
		if !fn(s) {
			return s.end, nil
		}
		off = s.end
	}
	return len(data), nil
}

func isExifSegment(s segment) bool {
	return s.marker == markerAPP1 && bytes.HasPrefix(s.payload, exifHeader)
}

// ReadSegment returns a copy of the Exif APP1 payload, "Exif\0\0" header included
func ReadSegment(jpeg []byte) ([]byte, error) {
	var found []byte
	_, err := walkSegments(jpeg, func(s segment) bool {
		if isExifSegment(s) {
			found = append([]byte(nil), s.payload...)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNoSegment
	}
	return found, nil
}

// InjectSegment returns jpeg with payload stored as its Exif APP1 segment.
// Existing Exif segments are dropped; a leading JFIF APP0 stays first.
func InjectSegment(jpeg, payload []byte) ([]byte, error) {
	if !bytes.HasPrefix(payload, exifHeader) {
		return nil, errors.New("exif: payload lacks Exif header")
	}
	if len(payload) > maxSegmentPayload {
		return nil, fmt.Errorf("exif: segment too large (%d bytes)", len(payload))
	}

	app1 := make([]byte, 4, 4+len(payload))
	app1[0], app1[1] = 0xFF, markerAPP1
	binary.BigEndian.PutUint16(app1[2:], uint16(len(payload)+2))
	app1 = append(app1, payload...)

	var out bytes.Buffer
	out.Grow(len(jpeg) + len(app1))
	out.Write([]byte{0xFF, markerSOI})

	written := false
	rest, err := walkSegments(jpeg, func(s segment) bool {
		if !written && s.marker != markerAPP0 {
			out.Write(app1)
			written = true
		}
		if !isExifSegment(s) {
			out.Write(jpeg[s.start:s.end])
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if !written {
		out.Write(app1)
	}
	out.Write(jpeg[rest:])
	return out.Bytes(), nil
}

// ResetOrientation returns a copy of payload with the IFD0 orientation set to
// 1 (top-left). Payloads without an orientation tag are returned unchanged.
func ResetOrientation(payload []byte) ([]byte, error) {
	if !bytes.HasPrefix(payload, exifHeader) {
		return nil, errors.New("exif: payload lacks Exif header")
	}
	out := append([]byte(nil), payload...)
	tiff := out[len(exifHeader):]
	if len(tiff) < 8 {
		return nil, errors.New("exif: truncated TIFF header")
	}

	var order binary.ByteOrder
	switch string(tiff[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, fmt.Errorf("exif: unknown byte order %q", tiff[:2])
	}
	if order.Uint16(tiff[2:4]) != 42 {
		return nil, errors.New("exif: bad TIFF magic")
	}

	ifd := int(order.Uint32(tiff[4:8]))
	if ifd+2 > len(tiff) {
		return nil, errors.New("exif: IFD0 out of range")
	}
	n := int(order.Uint16(tiff[ifd : ifd+2]))
	for i := 0; i < n; i++ {
		p := ifd + 2 + 12*i
		if p+12 > len(tiff) {
			return nil, errors.New("exif: IFD0 entry out of range")
		}
		if order.Uint16(tiff[p:p+2]) != tagOrientation {
			continue
		}
		if order.Uint16(tiff[p+2:p+4]) != typeShort {
			return nil, errors.New("exif: orientation is not a SHORT")
		}
		order.PutUint16(tiff[p+8:p+10], 1)
		break
	}
	return out, nil
}
