// Package render composites the date/location caption onto an image.
package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

var (
	BandColor = color.NRGBA{A: 180}
	TextColor = color.White
)

// Caption is the text drawn on the image
type Caption struct {
	DateTime string
	Location string
}

// Measure returns the ink bounds of s drawn with face
func Measure(face font.Face, s string) Bounds {
	r, _ := font.BoundString(face, s)
	return Bounds{
		Left:   r.Min.X.Floor(),
		Top:    r.Min.Y.Floor(),
		Right:  r.Max.X.Ceil(),
		Bottom: r.Max.Y.Ceil(),
	}
}

// Draw paints the caption band and text on dst and returns the layout used
func Draw(dst draw.Image, c Caption, f *opentype.Font) (Layout, error) {
	b := dst.Bounds()
	size := TextSize(b.Dy())

	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return Layout{}, fmt.Errorf("failed to create font face: %w", err)
	}
	defer face.Close()

	l := ComputeLayout(b.Dx(), b.Dy(), Measure(face, c.DateTime), Measure(face, c.Location))

	draw.Draw(dst, l.Band.Add(b.Min), image.NewUniform(BandColor), image.Point{}, draw.Over)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(TextColor),
		Face: face,
	}
	d.Dot = fixed.P(b.Min.X+l.DateTimeOrigin.X, b.Min.Y+l.DateTimeOrigin.Y)
	d.DrawString(c.DateTime)
	d.Dot = fixed.P(b.Min.X+l.LocationOrigin.X, b.Min.Y+l.LocationOrigin.Y)
	d.DrawString(c.Location)

	return l, nil
}

// Orient applies an EXIF orientation (1..8) and returns a mutable copy
func Orient(img image.Image, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return imaging.Clone(img)
	}
}
