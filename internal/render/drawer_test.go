package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/tdewolff/test"
)

func TestCanvasDrawer(t *testing.T) {
	d := NewCanvasDrawer(200, 100, nil)
	w, h := d.Size()
	test.T(t, w, 200)
	test.T(t, h, 100)

	d.FillBackground()
	test.T(t, d.Canvas.RGBAAt(0, 0), Background)

	m := d.MeasureText("postermaker", TextStyle{Size: 20})
	test.That(t, m.Width > 0 && m.Height > 0)
	d.DrawText("postermaker", 100, 10, TextStyle{Size: 20, Align: TextAlignCenter})

	red := solid(10, 20, color.RGBA{R: 0xFF, A: 0xFF})
	got := d.DrawImageInRect(red, image.Rect(0, 0, 100, 100), ScaleModeFit)
	test.T(t, got, image.Rect(25, 0, 75, 100))
	test.T(t, d.Canvas.RGBAAt(50, 50), color.RGBA{R: 0xFF, A: 0xFF})
	test.T(t, d.Canvas.RGBAAt(10, 50), Background)

	got = d.DrawImageInRect(red, image.Rect(100, 0, 200, 100), ScaleModeFill)
	test.T(t, got, image.Rect(100, 0, 200, 100))
}
