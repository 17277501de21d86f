package pipeline

import (
	"image/color"
	"math"
)

// Palette is an ordered list of opaque colours. Order matters: ties in
// Nearest resolve to the earliest entry.
type Palette []color.RGBA

var (
	Red   = color.RGBA{255, 0, 0, 255}
	Green = color.RGBA{0, 255, 0, 255}
	Blue  = color.RGBA{0, 0, 255, 255}
)

// DefaultPalette is the fixed 18 colour palette used for every run.
var DefaultPalette = Palette{
	// skin
	{255, 224, 189, 255},
	{234, 192, 134, 255},
	{198, 134, 66, 255},
	{141, 85, 36, 255},
	// nature
	{34, 139, 34, 255},
	{107, 142, 35, 255},
	{135, 206, 235, 255},
	{139, 69, 19, 255},
	{245, 245, 220, 255},
	// primaries and secondaries
	Red,
	Green,
	Blue,
	{255, 255, 0, 255},
	{0, 255, 255, 255},
	{255, 0, 255, 255},
	{255, 165, 0, 255},
	// neutrals
	{0, 0, 0, 255},
	{255, 255, 255, 255},
}

// ColorDistance is a redmean weighted RGB distance: green counts most, red and
// blue are weighted by the mean red of the two colours.
func ColorDistance(c1, c2 color.RGBA) float64 {
	return math.Sqrt(distanceSq(c1.R, c1.G, c1.B, c2.R, c2.G, c2.B))
}

func distanceSq(r1, g1, b1, r2, g2, b2 uint8) float64 {
	rMean := (float64(r1) + float64(r2)) / 2
	dr := float64(r1) - float64(r2)
	dg := float64(g1) - float64(g2)
	db := float64(b1) - float64(b2)
	return (2+rMean/256)*dr*dr + 4*dg*dg + (2+(255-rMean)/256)*db*db
}

// Nearest returns the index of the entry closest to (r, g, b).
// An empty palette returns -1.
func (p Palette) Nearest(r, g, b uint8) int {
	best, bestDist := -1, math.Inf(1)
	for i, c := range p {
		d := distanceSq(r, g, b, c.R, c.G, c.B)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
