package pipeline

// Quantize returns a copy of buf with every pixel's RGB replaced by its nearest
// palette entry. Alpha is copied through.
func Quantize(buf *PixelBuffer, palette Palette) *PixelBuffer {
	out := &PixelBuffer{Width: buf.Width, Height: buf.Height, Pix: make([]uint8, len(buf.Pix))}

	// Photos repeat colours heavily after scaling; remember answers per RGB.
	seen := make(map[[3]uint8]int, 1024)

	for i := 0; i < len(buf.Pix); i += 4 {
		key := [3]uint8{buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2]}
		idx, ok := seen[key]
		if !ok {
			idx = palette.Nearest(key[0], key[1], key[2])
			seen[key] = idx
		}
		if idx < 0 {
			copy(out.Pix[i:i+4], buf.Pix[i:i+4])
			continue
		}
		c := palette[idx]
		out.Pix[i] = c.R
		out.Pix[i+1] = c.G
		out.Pix[i+2] = c.B
		out.Pix[i+3] = buf.Pix[i+3]
	}
	return out
}
