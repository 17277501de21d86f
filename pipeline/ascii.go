package pipeline

import (
	"image"
	"image/color"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// asciiRamp runs from lightest to darkest glyph.
const asciiRamp = " .:-=+*#%@"

var glyphFace = basicfont.Face7x13

// ASCIIGrid maps buf onto glyphs, one per blockSize x 2*blockSize cell.
// Cells are twice as tall as wide so the text keeps the photo's proportions.
func ASCIIGrid(buf *PixelBuffer, blockSize int) ([][]byte, error) {
	if err := ValidBlockSize(blockSize); err != nil {
		return nil, err
	}
	cw, ch := blockSize, blockSize*2
	cols := (buf.Width + cw - 1) / cw
	rows := (buf.Height + ch - 1) / ch

	grid := make([][]byte, rows)
	for row := range grid {
		grid[row] = make([]byte, cols)
		for col := range grid[row] {
			lum := cellLuminance(buf, image.Rect(col*cw, row*ch, (col+1)*cw, (row+1)*ch))
			idx := int((255 - lum) * float64(len(asciiRamp)-1) / 255)
			grid[row][col] = asciiRamp[idx]
		}
	}
	return grid, nil
}

// ASCIIText renders buf as newline separated rows of glyphs.
func ASCIIText(buf *PixelBuffer, blockSize int) (string, error) {
	grid, err := ASCIIGrid(buf, blockSize)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, row := range grid {
		sb.Write(row)
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// RenderASCII draws the glyph grid in black on white using a 7x13 bitmap face.
func RenderASCII(buf *PixelBuffer, blockSize int) (*PixelBuffer, error) {
	grid, err := ASCIIGrid(buf, blockSize)
	if err != nil {
		return nil, err
	}
	adv := glyphFace.Advance
	lineH := glyphFace.Height
	cols := 0
	if len(grid) > 0 {
		cols = len(grid[0])
	}

	out, err := NewPixelBuffer(cols*adv, len(grid)*lineH)
	if err != nil {
		return nil, err
	}
	dst := out.Image()
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)

	d := &font.Drawer{Dst: dst, Src: image.Black, Face: glyphFace}
	for row, line := range grid {
		d.Dot = fixed.P(0, row*lineH+glyphFace.Ascent)
		d.DrawBytes(line)
	}
	return out, nil
}

// cellLuminance is the mean Rec. 601 luma of r, composited over white.
func cellLuminance(buf *PixelBuffer, r image.Rectangle) float64 {
	r = r.Intersect(image.Rect(0, 0, buf.Width, buf.Height))
	if r.Empty() {
		return 255
	}
	var sum float64
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			sum += luma(buf.At(x, y))
		}
	}
	return sum / float64(r.Dx()*r.Dy())
}

func luma(c color.NRGBA) float64 {
	a := float64(c.A) / 255
	over := func(v uint8) float64 { return float64(v)*a + 255*(1-a) }
	return 0.299*over(c.R) + 0.587*over(c.G) + 0.114*over(c.B)
}
