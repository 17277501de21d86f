package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	DefaultMaxDimension    = 800
	DefaultMaxSourcePixels = 50_000_000
)

const processor = resize.Lanczos3

// DecodeOptions bounds the decode stage.
type DecodeOptions struct {
	// MaxDimension caps the larger side of the scaled buffer.
	MaxDimension int
	// MaxSourcePixels is the largest source (width*height) that will be decoded.
	MaxSourcePixels int
}

func (o DecodeOptions) withDefaults() DecodeOptions {
	if o.MaxDimension <= 0 {
		o.MaxDimension = DefaultMaxDimension
	}
	if o.MaxSourcePixels <= 0 {
		o.MaxSourcePixels = DefaultMaxSourcePixels
	}
	return o
}

// ScaleFactor is min(1, limit/width, limit/height). Images are only ever shrunk.
func ScaleFactor(width, height, limit int) float64 {
	f := 1.0
	if r := float64(limit) / float64(width); r < f {
		f = r
	}
	if r := float64(limit) / float64(height); r < f {
		f = r
	}
	return f
}

// ScaledSize returns floor(width*f) x floor(height*f) for f = ScaleFactor,
// computed in integers so the long side lands exactly on limit. Neither side
// drops below 1.
func ScaledSize(width, height, limit int) (int, int) {
	if width <= limit && height <= limit {
		return width, height
	}
	var w, h int
	if width >= height {
		w, h = limit, height*limit/width
	} else {
		w, h = width*limit/height, limit
	}
	return max(w, 1), max(h, 1)
}

// DecodeAndScale reads one encoded image and returns it as a PixelBuffer whose
// larger side is at most opts.MaxDimension, preserving aspect ratio.
// EXIF orientation is applied before scaling.
func DecodeAndScale(ctx context.Context, r io.Reader, opts DecodeOptions) (*PixelBuffer, error) {
	opts = opts.withDefaults()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading source: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoFileSelected
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %s reports %dx%d", ErrSurfaceUnavailable, format, cfg.Width, cfg.Height)
	}
	if cfg.Width*cfg.Height > opts.MaxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixel budget",
			ErrSurfaceUnavailable, cfg.Width, cfg.Height, opts.MaxSourcePixels)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return Scale(img, opts.MaxDimension)
}

// Scale fits img inside limit x limit and converts it to a PixelBuffer.
func Scale(img image.Image, limit int) (*PixelBuffer, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("%w: empty bounds %v", ErrSurfaceUnavailable, b)
	}
	w, h := ScaledSize(b.Dx(), b.Dy(), limit)
	if w != b.Dx() || h != b.Dy() {
		img = resize.Resize(uint(w), uint(h), img, processor)
	}
	return FromNRGBA(imaging.Clone(img)), nil
}
