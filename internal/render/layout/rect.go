package layout

import (
	"image"
	"math"
)

// Box is a float rectangle in canvas pixels, top-left anchored.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func (b Box) Right() float64  { return b.X + b.W }
func (b Box) Bottom() float64 { return b.Y + b.H }

// Inset shrinks b by d on all sides.
func (b Box) Inset(d float64) Box {
	return Box{X: b.X + d, Y: b.Y + d, W: b.W - 2*d, H: b.H - 2*d}.Normalize()
}

// Normalize flips negative extents so W and H are never below zero.
func (b Box) Normalize() Box {
	if b.W < 0 {
		b.X, b.W = b.X+b.W, -b.W
	}
	if b.H < 0 {
		b.Y, b.H = b.Y+b.H, -b.H
	}
	return b
}

// Union returns the smallest box covering b and o. An empty box is ignored.
func (b Box) Union(o Box) Box {
	if b.W == 0 && b.H == 0 {
		return o
	}
	if o.W == 0 && o.H == 0 {
		return b
	}
	x0, y0 := math.Min(b.X, o.X), math.Min(b.Y, o.Y)
	x1, y1 := math.Max(b.Right(), o.Right()), math.Max(b.Bottom(), o.Bottom())
	return Box{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Scale multiplies every coordinate by k.
func (b Box) Scale(k float64) Box {
	return Box{X: b.X * k, Y: b.Y * k, W: b.W * k, H: b.H * k}
}

// Rect rounds b out to integer pixels.
func (b Box) Rect() image.Rectangle {
	return image.Rect(int(math.Floor(b.X)), int(math.Floor(b.Y)), int(math.Ceil(b.Right())), int(math.Ceil(b.Bottom())))
}

// Inset shrinks rect by paddingPx on all sides.
func Inset(rect image.Rectangle, paddingPx int) image.Rectangle {
	if paddingPx <= 0 {
		return rect
	}
	out := image.Rect(rect.Min.X+paddingPx, rect.Min.Y+paddingPx, rect.Max.X-paddingPx, rect.Max.Y-paddingPx)
	return Normalize(out)
}

// Normalize ensures Min is <= Max on both axes.
func Normalize(rect image.Rectangle) image.Rectangle {
	if rect.Min.X > rect.Max.X {
		rect.Min.X, rect.Max.X = rect.Max.X, rect.Min.X
	}
	if rect.Min.Y > rect.Max.Y {
		rect.Min.Y, rect.Max.Y = rect.Max.Y, rect.Min.Y
	}
	return rect
}

// Grid splits rect into cols x rows cells separated by gapPx, row-major.
func Grid(rect image.Rectangle, cols, rows, gapPx int) []image.Rectangle {
	rect = Normalize(rect)
	if cols <= 0 || rows <= 0 {
		return nil
	}
	cellW := (rect.Dx() - gapPx*(cols-1)) / cols
	cellH := (rect.Dy() - gapPx*(rows-1)) / rows
	if cellW <= 0 || cellH <= 0 {
		return nil
	}
	cells := make([]image.Rectangle, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			x := rect.Min.X + col*(cellW+gapPx)
			y := rect.Min.Y + row*(cellH+gapPx)
			cells = append(cells, image.Rect(x, y, x+cellW, y+cellH))
		}
	}
	return cells
}

// FitRect returns the largest rectangle with the aspect ratio of w:h that fits
// into rect, centered.
func FitRect(rect image.Rectangle, w, h int) image.Rectangle {
	rect = Normalize(rect)
	if w <= 0 || h <= 0 || rect.Empty() {
		return image.Rectangle{}
	}
	scale := math.Min(float64(rect.Dx())/float64(w), float64(rect.Dy())/float64(h))
	fw, fh := int(float64(w)*scale), int(float64(h)*scale)
	x := rect.Min.X + (rect.Dx()-fw)/2
	y := rect.Min.Y + (rect.Dy()-fh)/2
	return image.Rect(x, y, x+fw, y+fh)
}
