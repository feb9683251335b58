// Package labeler draws the caption on an image and saves it as a JPEG.
package labeler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/bstardust/piclabel/internal/exif"
	"github.com/bstardust/piclabel/internal/logger"
	"github.com/bstardust/piclabel/internal/output"
	"github.com/bstardust/piclabel/internal/render"
	"github.com/bstardust/piclabel/pkg/common"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font/opentype"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality of saved images
const DefaultQuality = 85

// Request describes one image to label
type Request struct {
	FS   fs.FS
	Path string
	// Orientation is the EXIF orientation of the source (1..8)
	Orientation int
	Caption     render.Caption
	// Font overrides the labeler's font when set
	Font *opentype.Font
}

// Result is a saved labeled image
type Result struct {
	Source     string
	OutputPath string
	Width      int
	Height     int
	TwoLines   bool
	// Data is the encoded JPEG as written to OutputPath
	Data []byte
}

// Labeler renders and saves labeled images
type Labeler struct {
	font    *opentype.Font
	quality int
	store   *output.Store
}

// New creates a labeler. A quality outside 1..100 uses DefaultQuality.
func New(font *opentype.Font, quality int, store *output.Store) *Labeler {
	if quality < 1 || quality > 100 {
		quality = DefaultQuality
	}
	return &Labeler{font: font, quality: quality, store: store}
}

// Process decodes the source, orients it, draws the caption, and saves a
// JPEG carrying the source's EXIF with orientation reset to top-left.
func (l *Labeler) Process(ctx context.Context, req Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, err := fs.ReadFile(req.FS, req.Path)
	if err != nil {
		return nil, common.NewProcessError(fmt.Sprintf("cannot read %s", req.Path), err)
	}

	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, common.NewDecodeError(req.Path, err)
	}

	canvas := render.Orient(img, req.Orientation)

	font := req.Font
	if font == nil {
		font = l.font
	}
	layout, err := render.Draw(canvas, req.Caption, font)
	if err != nil {
		return nil, common.NewProcessError("cannot draw caption", err)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.JPEG, imaging.JPEGQuality(l.quality)); err != nil {
		return nil, common.NewProcessError("cannot encode JPEG", err)
	}
	out := carryExif(req.Path, src, buf.Bytes())

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := l.store.Save(out)
	if err != nil {
		return nil, common.NewProcessError("cannot save image", err)
	}

	b := canvas.Bounds()
	return &Result{
		Source:     req.Path,
		OutputPath: path,
		Width:      b.Dx(),
		Height:     b.Dy(),
		TwoLines:   layout.TwoLines,
		Data:       out,
	}, nil
}

// carryExif copies the Exif segment of src into encoded. Sources without
// one (or that are not JPEG) leave encoded untouched.
func carryExif(path string, src, encoded []byte) []byte {
	seg, err := exif.ReadSegment(src)
	if err != nil {
		if !errors.Is(err, exif.ErrNoSegment) && !errors.Is(err, exif.ErrNotJPEG) {
			logger.Warn("Could not read EXIF of %s: %v", path, err)
		}
		return encoded
	}
	seg, err = exif.ResetOrientation(seg)
	if err != nil {
		logger.Warn("Dropping EXIF of %s: %v", path, err)
		return encoded
	}
	out, err := exif.InjectSegment(encoded, seg)
	if err != nil {
		logger.Warn("Dropping EXIF of %s: %v", path, err)
		return encoded
	}
	return out
}
