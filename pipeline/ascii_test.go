package pipeline

import (
	"image/color"
	"strings"
	"testing"
)

func TestASCIITextRamp(t *testing.T) {
	// left half black, right half white
	buf, _ := NewPixelBuffer(20, 10)
	for y := 0; y < 10; y++ {
		for x := 0; x < 20; x++ {
			i := buf.offset(x, y)
			v := uint8(0)
			if x >= 10 {
				v = 255
			}
			buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2], buf.Pix[i+3] = v, v, v, 255
		}
	}

	text, err := ASCIIText(buf, 5)
	if err != nil {
		t.Fatalf("ASCIIText: %v", err)
	}
	if want := "@@  \n"; text != want {
		t.Errorf("ASCIIText = %q, want %q", text, want)
	}
}

func TestASCIITransparentIsBlank(t *testing.T) {
	buf, _ := NewPixelBuffer(4, 8)
	grid, err := ASCIIGrid(buf, 4)
	if err != nil {
		t.Fatalf("ASCIIGrid: %v", err)
	}
	if string(grid[0]) != " " {
		t.Errorf("transparent cell = %q, want blank", grid[0])
	}
}

func TestRenderASCIIDrawsGlyphs(t *testing.T) {
	out, err := RenderASCII(solidBuffer(30, 60, color.NRGBA{0, 0, 0, 255}), 10)
	if err != nil {
		t.Fatalf("RenderASCII: %v", err)
	}
	if out.Width != 3*7 || out.Height != 3*13 {
		t.Fatalf("got %dx%d, want 21x39", out.Width, out.Height)
	}
	dark := 0
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] < 128 {
			dark++
		}
	}
	if dark == 0 {
		t.Error("no glyph pixels drawn")
	}
	if text, _ := ASCIIText(solidBuffer(30, 60, color.NRGBA{0, 0, 0, 255}), 10); strings.Count(text, "@") != 9 {
		t.Errorf("ASCIIText = %q, want a 3x3 block of @", text)
	}
}
