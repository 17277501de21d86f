package pipeline

// DefaultEdgeThreshold is the red-channel contrast above which a pixel is an edge.
const DefaultEdgeThreshold = 20

// DetectEdges marks interior pixels whose red channel differs from the mean red
// of their 8 neighbours by more than threshold. The 1 pixel border is never
// marked, so buffers narrower or shorter than 3 pixels yield an empty mask.
func DetectEdges(buf *PixelBuffer, threshold float64) *EdgeMask {
	w, h := buf.Width, buf.Height
	mask := &EdgeMask{Width: w, Height: h, Edges: make([]bool, w*h)}

	red := func(x, y int) float64 {
		return float64(buf.Pix[(y*w+x)*4])
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			sum := red(x-1, y-1) + red(x, y-1) + red(x+1, y-1) +
				red(x-1, y) + red(x+1, y) +
				red(x-1, y+1) + red(x, y+1) + red(x+1, y+1)
			diff := red(x, y) - sum/8
			if diff < 0 {
				diff = -diff
			}
			mask.Edges[y*w+x] = diff > threshold
		}
	}
	return mask
}
