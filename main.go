package main

// PixelBubble

// Turns a photo into pixel art: the image is scaled to fit 800px,
// snapped to a fixed 18 colour palette, cut into blocks and
// shaded where the source has edges

// The pipeline runs in-process (render), behind a loopback gRPC
// stream for a UI shell (serve / upload), or in the browser (wasm/)

import "github.com/kerosiinikone/pixelbubble/cmd"

func main() {
	cmd.Execute()
}
