package render

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/rook-computer/postermaker/internal/render/layout"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	defaultTextSize = 36
	titleTextSize   = 56
	titleMargin     = 48
)

// CanvasDrawer implements Drawer on an offscreen RGBA canvas.
type CanvasDrawer struct {
	Canvas *image.RGBA
	Fonts  *FontLibrary

	faces map[faceKey]font.Face
}

func NewCanvasDrawer(width, height int, fonts *FontLibrary) *CanvasDrawer {
	if fonts == nil {
		fonts = defaultFonts
	}
	return &CanvasDrawer{
		Canvas: image.NewRGBA(image.Rect(0, 0, width, height)),
		Fonts:  fonts,
		faces:  map[faceKey]font.Face{},
	}
}

func (d *CanvasDrawer) Size() (int, int) {
	b := d.Canvas.Bounds()
	return b.Dx(), b.Dy()
}

func (d *CanvasDrawer) FillBackground() {
	draw.Draw(d.Canvas, d.Canvas.Bounds(), &image.Uniform{C: Background}, image.Point{}, draw.Src)
}

func (d *CanvasDrawer) FillRect(rect image.Rectangle, c color.Color) {
	draw.Draw(d.Canvas, rect, &image.Uniform{C: c}, image.Point{}, draw.Over)
}

func (d *CanvasDrawer) face(style TextStyle) font.Face {
	size := style.Size
	if size <= 0 {
		size = defaultTextSize
	}
	weight := style.Weight
	if weight <= 0 {
		weight = 400
	}
	key := faceKey{"", weight, float64(size)}
	f, ok := d.faces[key]
	if !ok {
		f = d.Fonts.Face("", weight, float64(size))
		d.faces[key] = f
	}
	return f
}

func (d *CanvasDrawer) MeasureText(text string, style TextStyle) TextMetrics {
	face := d.face(style)
	metrics := face.Metrics()
	return TextMetrics{
		Width:      font.MeasureString(face, text).Ceil(),
		Height:     (metrics.Ascent + metrics.Descent).Ceil(),
		Ascent:     metrics.Ascent.Ceil(),
		Descent:    metrics.Descent.Ceil(),
		LineHeight: metrics.Height.Ceil(),
	}
}

func (d *CanvasDrawer) DrawText(text string, x, y int, style TextStyle) TextMetrics {
	m := d.MeasureText(text, style)
	switch style.Align {
	case TextAlignCenter:
		x -= m.Width / 2
	case TextAlignRight:
		x -= m.Width
	}
	fg := style.Color
	if fg == nil {
		fg = Foreground
	}
	drawer := &font.Drawer{Dst: d.Canvas, Src: image.NewUniform(fg), Face: d.face(style)}
	drawer.Dot = fixed.P(x, y+m.Ascent)
	drawer.DrawString(text)
	return m
}

func (d *CanvasDrawer) ImageSize(img image.Image) (int, int) {
	if img == nil {
		return 0, 0
	}
	b := img.Bounds()
	return b.Dx(), b.Dy()
}

func (d *CanvasDrawer) DrawImage(img image.Image, x, y int, opts ImageOpts) {
	if img == nil {
		return
	}
	b := img.Bounds()
	dst := image.Rect(x, y, x+b.Dx(), y+b.Dy())
	if opts.Opacity > 0 && opts.Opacity < 1 {
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(opts.Opacity * 0xFF))})
		draw.DrawMask(d.Canvas, dst, img, b.Min, mask, image.Point{}, draw.Over)
		return
	}
	draw.Draw(d.Canvas, dst, img, b.Min, draw.Over)
}

// DrawImageInRect scales img into rect and returns where it landed.
func (d *CanvasDrawer) DrawImageInRect(img image.Image, rect image.Rectangle, mode ScaleMode) image.Rectangle {
	if img == nil || rect.Empty() {
		return image.Rectangle{}
	}
	b := img.Bounds()
	dst := rect
	switch mode {
	case ScaleModeFit:
		dst = layout.FitRect(rect, b.Dx(), b.Dy())
	case ScaleModeFill:
		scale := math.Max(float64(rect.Dx())/float64(b.Dx()), float64(rect.Dy())/float64(b.Dy()))
		w, h := int(float64(b.Dx())*scale), int(float64(b.Dy())*scale)
		x := rect.Min.X + (rect.Dx()-w)/2
		y := rect.Min.Y + (rect.Dy()-h)/2
		dst = image.Rect(x, y, x+w, y+h)
	}
	clipped := image.NewRGBA(rect)
	draw.Draw(clipped, rect, d.Canvas, rect.Min, draw.Src)
	xdraw.ApproxBiLinear.Scale(clipped, dst, img, b, xdraw.Over, nil)
	draw.Draw(d.Canvas, rect, clipped, rect.Min, draw.Src)
	return dst.Intersect(rect)
}

func (d *CanvasDrawer) DrawTitle(text string) {
	w, _ := d.Size()
	d.DrawText(text, w/2, titleMargin, TextStyle{Size: titleTextSize, Weight: 700, Align: TextAlignCenter, Color: Foreground})
}

func (d *CanvasDrawer) DrawTextCentered(text string) {
	w, h := d.Size()
	m := d.MeasureText(text, TextStyle{})
	d.DrawText(text, w/2, (h-m.Height)/2, TextStyle{Align: TextAlignCenter})
}
