package render

import "image"

// Bounds is the ink box of a string relative to its origin on the
// baseline; Top is negative for glyphs rising above the baseline.
type Bounds struct {
	Left, Top, Right, Bottom int
}

func (b Bounds) Width() int  { return b.Right - b.Left }
func (b Bounds) Height() int { return b.Bottom - b.Top }

// Layout places the caption band and both text origins on the canvas
type Layout struct {
	TextSize int
	Margin   int
	TwoLines bool
	// Band is the translucent rectangle behind the text, anchored at the top
	Band           image.Rectangle
	DateTimeOrigin image.Point
	LocationOrigin image.Point
}

// TextSize is the caption pixel size for a canvas of the given height
func TextSize(height int) int {
	if s := height / 35; s > 0 {
		return s
	}
	return 1
}

// ComputeLayout lays the date/time out left-aligned and the location
// right-aligned. The two strings share one line unless their widths plus
// two text sizes of spacing exceed the canvas width.
func ComputeLayout(width, height int, dateTime, location Bounds) Layout {
	size := TextSize(height)
	margin := size / 5

	l := Layout{
		TextSize: size,
		Margin:   margin,
		TwoLines: dateTime.Width()+size*2+location.Width() > width,
	}

	l.DateTimeOrigin = image.Pt(margin, margin-dateTime.Top)
	locationX := width - location.Right - margin

	var bandHeight int
	if l.TwoLines {
		bandHeight = dateTime.Height() + location.Height() + margin*3
		l.LocationOrigin = image.Pt(locationX, margin+dateTime.Height()+margin-location.Top)
	} else {
		bandHeight = margin*2 + max(dateTime.Height(), location.Height())
		l.LocationOrigin = image.Pt(locationX, margin-location.Top)
	}
	l.Band = image.Rect(0, 0, width, bandHeight)
	return l
}
