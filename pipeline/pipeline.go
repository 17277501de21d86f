package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"
)

// Mode selects the renderer.
type Mode string

const (
	ModePixel Mode = "pixel"
	// ModeASCII is the older glyph renderer, kept as a separate mode.
	ModeASCII Mode = "ascii"
)

// ParseMode accepts "pixel" or "ascii" (case-insensitive); "" means pixel.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModePixel:
		return ModePixel, nil
	case ModeASCII:
		return ModeASCII, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// Filename is the download name for output rendered in m.
func (m Mode) Filename() string {
	if m == ModeASCII {
		return "ascii_art.png"
	}
	return "pixel_art.png"
}

// RenderParameters are the user adjustable knobs of a run.
type RenderParameters struct {
	BlockSize     int
	Mode          Mode
	EdgeThreshold float64
}

// DefaultParameters returns block size 10, pixel mode, threshold 20.
func DefaultParameters() RenderParameters {
	return RenderParameters{
		BlockSize:     DefaultBlockSize,
		Mode:          ModePixel,
		EdgeThreshold: DefaultEdgeThreshold,
	}
}

func (p RenderParameters) Validate() error {
	if err := ValidBlockSize(p.BlockSize); err != nil {
		return err
	}
	if p.Mode != ModePixel && p.Mode != ModeASCII {
		return fmt.Errorf("%w: %q", ErrInvalidMode, p.Mode)
	}
	return nil
}

// Output is an encoded PNG ready for display or download.
type Output struct {
	PNG       []byte
	Width     int
	Height    int
	Mode      Mode
	BlockSize int
	Filename  string
}

// DataURI returns the PNG as an inline data: URI.
func (o *Output) DataURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(o.PNG)
}

// Encode writes buf as PNG.
func Encode(buf *PixelBuffer, m Mode, blockSize int) (*Output, error) {
	var b bytes.Buffer
	if err := imaging.Encode(&b, buf.Image(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return &Output{
		PNG:       b.Bytes(),
		Width:     buf.Width,
		Height:    buf.Height,
		Mode:      m,
		BlockSize: blockSize,
		Filename:  m.Filename(),
	}, nil
}

// Stylize runs everything after decode on an already scaled buffer.
// Edge detection and quantization both read src and run concurrently; the
// renderer starts once both are done.
func Stylize(ctx context.Context, src *PixelBuffer, p RenderParameters) (*Output, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if p.Mode == ModeASCII {
		art, err := RenderASCII(src, p.BlockSize)
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return Encode(art, p.Mode, p.BlockSize)
	}

	var (
		mask      *EdgeMask
		quantized *PixelBuffer
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		mask = DetectEdges(src, p.EdgeThreshold)
		return gctx.Err()
	})
	g.Go(func() error {
		quantized = Quantize(src, DefaultPalette)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	art, err := RenderBlocks(quantized, mask, p.BlockSize)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Encode(art, p.Mode, p.BlockSize)
}

// Run decodes r and stylizes it in one call.
func Run(ctx context.Context, r io.Reader, opts DecodeOptions, p RenderParameters) (*Output, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	src, err := DecodeAndScale(ctx, r, opts)
	if err != nil {
		return nil, err
	}
	return Stylize(ctx, src, p)
}
