// Package pipeline turns a photo into block-quantized "pixel art".
//
// A run is four stages over one in-memory buffer: DecodeAndScale, then
// DetectEdges and Quantize (independent, run side by side), then RenderBlocks.
// Every stage is a pure function of its inputs; Session layers request
// ordering and an immutable state record on top for interactive use.
package pipeline

import (
	"fmt"
	"image"
	"image/color"
)

// PixelBuffer is a row-major, non-premultiplied RGBA sample buffer.
// len(Pix) is always Width*Height*4.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed (transparent) buffer.
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrSurfaceUnavailable, width, height)
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*4),
	}, nil
}

// FromNRGBA wraps img without copying when its stride is tight, copying otherwise.
func FromNRGBA(img *image.NRGBA) *PixelBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if img.Stride == w*4 && b.Min == (image.Point{}) {
		return &PixelBuffer{Width: w, Height: h, Pix: img.Pix[:w*h*4]}
	}
	pix := make([]uint8, w*h*4)
	for y := 0; y < h; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(pix[y*w*4:(y+1)*w*4], img.Pix[off:off+w*4])
	}
	return &PixelBuffer{Width: w, Height: h, Pix: pix}
}

// Image views the buffer as an *image.NRGBA sharing the same memory.
func (b *PixelBuffer) Image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &PixelBuffer{Width: b.Width, Height: b.Height, Pix: pix}
}

// Len is the pixel count.
func (b *PixelBuffer) Len() int {
	return b.Width * b.Height
}

func (b *PixelBuffer) offset(x, y int) int {
	return (y*b.Width + x) * 4
}

// At returns the sample at (x, y). Coordinates must be in bounds.
func (b *PixelBuffer) At(x, y int) color.NRGBA {
	i := b.offset(x, y)
	return color.NRGBA{R: b.Pix[i], G: b.Pix[i+1], B: b.Pix[i+2], A: b.Pix[i+3]}
}

// EdgeMask holds one flag per pixel, row-major, for a buffer of the same shape.
type EdgeMask struct {
	Width  int
	Height int
	Edges  []bool
}

// At reports whether (x, y) is an edge. Out of range coordinates are never edges.
func (m *EdgeMask) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Edges[y*m.Width+x]
}

// Count returns the number of edge pixels.
func (m *EdgeMask) Count() int {
	n := 0
	for _, e := range m.Edges {
		if e {
			n++
		}
	}
	return n
}
