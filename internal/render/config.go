package render

import "image/color"

// Device screen colors and the logical canvas the screens draw into.
var (
	Foreground = color.RGBA{R: 0xF2, G: 0xF2, B: 0xF2, A: 0xFF} // #f2f2f2
	Background = color.RGBA{R: 0x16, G: 0x16, B: 0x1A, A: 0xFF} // #16161a
	Accent     = color.RGBA{R: 0x00, G: 0xA8, B: 0xFF, A: 0xFF} // #00a8ff

	// Logical canvas size; scaled to framebuffer.
	CanvasWidth  = 1920
	CanvasHeight = 1080
)

// SelectionColor outlines the selected element on the live surface.
var SelectionColor = color.RGBA{R: 0x2B, G: 0x7B, B: 0xFF, A: 0xFF}
