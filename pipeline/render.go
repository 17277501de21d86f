package pipeline

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	DefaultBlockSize = 10
	MinBlockSize     = 1
	MaxBlockSize     = 50
)

var (
	// edgeShade darkens edge blocks (30% black).
	edgeShade = color.NRGBA{0, 0, 0, 77}
	// highlight is the corner sheen painted on every block.
	highlight = color.NRGBA{255, 255, 255, 51}
)

// ValidBlockSize reports whether n is within [MinBlockSize, MaxBlockSize].
func ValidBlockSize(n int) error {
	if n < MinBlockSize || n > MaxBlockSize {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidBlockSize, n, MinBlockSize, MaxBlockSize)
	}
	return nil
}

// RenderBlocks paints quantized into a mosaic of blockSize squares. Each block
// takes the colour of its top-left anchor, or a dark overlay when the anchor is
// an edge, then gets a half-size highlight in its top-left corner. Blocks that
// run past the right or bottom edge are clipped.
func RenderBlocks(quantized *PixelBuffer, mask *EdgeMask, blockSize int) (*PixelBuffer, error) {
	if err := ValidBlockSize(blockSize); err != nil {
		return nil, err
	}
	if mask.Width != quantized.Width || mask.Height != quantized.Height {
		return nil, fmt.Errorf("edge mask %dx%d does not match buffer %dx%d",
			mask.Width, mask.Height, quantized.Width, quantized.Height)
	}

	out := quantized.Clone()
	dst := out.Image()
	half := blockSize / 2

	for y := 0; y < out.Height; y += blockSize {
		for x := 0; x < out.Width; x += blockSize {
			block := image.Rect(x, y, x+blockSize, y+blockSize)
			if mask.At(x, y) {
				fill(dst, block, edgeShade, draw.Over)
			} else {
				c := quantized.At(x, y)
				c.A = 255
				fill(dst, block, c, draw.Src)
			}
			if half > 0 {
				fill(dst, image.Rect(x, y, x+half, y+half), highlight, draw.Over)
			}
		}
	}
	return out, nil
}

// fill paints r with c. draw.Draw clips r to dst's bounds.
func fill(dst draw.Image, r image.Rectangle, c color.Color, op draw.Op) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, op)
}
