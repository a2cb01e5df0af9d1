package layout

import (
	"image"
	"testing"

	"github.com/tdewolff/test"
)

func TestBoxHelpers(t *testing.T) {
	b := Box{X: 10, Y: 20, W: 100, H: 50}
	test.T(t, b.Inset(5), Box{X: 15, Y: 25, W: 90, H: 40})
	test.T(t, Box{X: 10, Y: 10, W: -5, H: 5}.Normalize(), Box{X: 5, Y: 10, W: 5, H: 5})
	test.T(t, Box{}.Union(b), b)
	test.T(t, b.Union(Box{X: 0, Y: 0, W: 5, H: 5}), Box{X: 0, Y: 0, W: 110, H: 70})
	test.T(t, b.Scale(2), Box{X: 20, Y: 40, W: 200, H: 100})
	test.T(t, Box{X: 0.5, Y: 0.5, W: 1, H: 1}.Rect(), image.Rect(0, 0, 2, 2))
}

func TestGridAndFit(t *testing.T) {
	cells := Grid(image.Rect(0, 0, 100, 100), 2, 2, 0)
	test.T(t, len(cells), 4)
	test.T(t, cells[3], image.Rect(50, 50, 100, 100))
	test.T(t, len(Grid(image.Rect(0, 0, 10, 10), 0, 2, 0)), 0)

	test.T(t, FitRect(image.Rect(0, 0, 200, 100), 100, 100), image.Rect(50, 0, 150, 100))
	test.T(t, Inset(image.Rect(0, 0, 10, 10), 2), image.Rect(2, 2, 8, 8))
}
