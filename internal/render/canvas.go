package render

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	"github.com/rook-computer/postermaker/internal/background"
	"github.com/rook-computer/postermaker/internal/colors"
	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render/layout"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

var ErrEmptyCanvas = errors.New("canvas has no area")

// ImageSource resolves image references that are ready to draw.
type ImageSource interface {
	Cached(ref string) (image.Image, bool)
}

// RasterOptions control a single rasterization.
type RasterOptions struct {
	// Multiplier scales the scene; 2 doubles every dimension.
	Multiplier float64
	// Transparent skips the background paint.
	Transparent bool
	ShowGuides  bool
	Images      ImageSource
	Fonts       *FontLibrary
	// Selection is outlined when set and present in the scene.
	Selection layout.Role
}

var defaultFonts = NewFontLibrary("")

// Rasterize draws scene into a new RGBA image.
func Rasterize(scene layout.Scene, opts RasterOptions) (*image.RGBA, error) {
	m := opts.Multiplier
	if m <= 0 {
		m = 1
	}
	w, h := int(math.Round(scene.Width*m)), int(math.Round(scene.Height*m))
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyCanvas
	}
	fonts := opts.Fonts
	if fonts == nil {
		fonts = defaultFonts
	}

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	r := &rasterizer{
		dc:     gg.NewContextForRGBA(canvas),
		canvas: canvas,
		m:      m,
		opts:   opts,
		fonts:  fonts,
		faces:  map[faceKey]font.Face{},
	}
	if !opts.Transparent {
		r.paintBackground(scene.Background)
	}
	for _, el := range scene.Elements {
		r.element(el)
	}
	if opts.Selection != "" {
		if el, ok := scene.Find(opts.Selection); ok {
			r.outline(el.Box)
		}
	}
	return canvas, nil
}

type rasterizer struct {
	dc     *gg.Context
	canvas *image.RGBA
	m      float64
	opts   RasterOptions
	fonts  *FontLibrary
	faces  map[faceKey]font.Face
}

func (r *rasterizer) paintBackground(p background.Paint) {
	switch p.Kind {
	case background.Solid:
		r.dc.SetColor(colors.MustParse(p.Color, color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}))
		r.dc.Clear()
	case background.Linear:
		g := gg.NewLinearGradient(p.X1*r.m, p.Y1*r.m, p.X2*r.m, p.Y2*r.m)
		for _, stop := range p.Stops {
			g.AddColorStop(stop.Offset, colors.MustParse(stop.Color, color.RGBA{A: 0xFF}))
		}
		r.dc.SetFillStyle(g)
		r.dc.DrawRectangle(0, 0, float64(r.canvas.Bounds().Dx()), float64(r.canvas.Bounds().Dy()))
		r.dc.Fill()
	}
}

func (r *rasterizer) element(el layout.Element) {
	if el.Guide && !r.opts.ShowGuides {
		return
	}
	box := el.Box.Scale(r.m)
	if el.Image != nil {
		r.image(el.Image, box)
	}
	if el.Fill != "" {
		r.dc.SetColor(colors.MustParse(el.Fill, color.RGBA{A: 0xFF}))
		r.dc.DrawRectangle(box.X, box.Y, box.W, box.H)
		r.dc.Fill()
	}
	if el.Stroke != nil {
		r.stroke(el.Stroke, box)
	}
	if el.Text != nil {
		r.text(el.Text, box)
	}
	if el.QR != "" {
		r.qr(el.QR, box)
	}
	for _, child := range el.Children {
		r.element(child)
	}
}

func (r *rasterizer) image(ref *layout.Image, box layout.Box) {
	if r.opts.Images == nil || ref.Opacity <= 0 {
		return
	}
	src, ok := r.opts.Images.Cached(ref.Ref)
	if !ok {
		return
	}
	dst := box.Rect()
	if dst.Intersect(r.canvas.Bounds()).Empty() {
		return
	}
	// Scaling straight into the canvas only touches the visible part of dst,
	// so a zoomed image costs no more than the canvas itself.
	var opts *xdraw.Options
	if ref.Opacity < 1 {
		alpha := uint8(math.Round(ref.Opacity * 0xFF))
		opts = &xdraw.Options{SrcMask: image.NewUniform(color.Alpha{A: alpha})}
	}
	xdraw.ApproxBiLinear.Scale(r.canvas, dst, src, src.Bounds(), xdraw.Over, opts)
}

func (r *rasterizer) stroke(s *layout.Stroke, box layout.Box) {
	r.dc.SetColor(colors.MustParse(s.Color, color.RGBA{A: 0xFF}))
	r.dc.SetLineWidth(math.Max(s.Width, 1) * r.m)
	dashes := make([]float64, len(s.Dash))
	for i, d := range s.Dash {
		dashes[i] = d * r.m
	}
	r.dc.SetDash(dashes...)
	r.dc.DrawRectangle(box.X, box.Y, box.W, box.H)
	r.dc.Stroke()
	r.dc.SetDash()
}

func (r *rasterizer) face(f layout.Font) font.Face {
	key := faceKey{f.Family, f.Weight, f.Size * r.m}
	face, ok := r.faces[key]
	if !ok {
		face = r.fonts.Face(f.Family, f.Weight, f.Size*r.m)
		r.faces[key] = face
	}
	return face
}

func (r *rasterizer) text(t *layout.Text, box layout.Box) {
	face := r.face(t.Font)
	r.dc.SetFontFace(face)
	r.dc.SetColor(colors.MustParse(t.Color, color.RGBA{A: 0xFF}))

	size := t.Font.Size * r.m
	lineHeight := t.LineHeight * r.m
	ascent := fixedToFloat(face.Metrics().Ascent)
	// center the glyph box within the taller line box
	lead := (lineHeight-size)/2 + math.Min(ascent, size)

	ax := 0.0
	switch t.Align {
	case poster.AlignCenter:
		ax = 0.5
	case poster.AlignRight:
		ax = 1
	}
	x := box.X + ax*box.W
	for i, line := range t.Lines {
		if line == "" {
			continue
		}
		r.dc.DrawStringAnchored(line, x, box.Y+float64(i)*lineHeight+lead, ax, 0)
	}
}

func (r *rasterizer) qr(payload string, box layout.Box) {
	img, err := GenerateQRCodeImage(payload, int(math.Round(box.W)), nil, nil)
	if err != nil || img == nil {
		return
	}
	dst := box.Rect()
	scaled := image.NewRGBA(image.Rect(0, 0, dst.Dx(), dst.Dy()))
	xdraw.NearestNeighbor.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	draw.Draw(r.canvas, dst, scaled, image.Point{}, draw.Over)
}

func (r *rasterizer) outline(b layout.Box) {
	box := b.Scale(r.m)
	r.dc.SetColor(SelectionColor)
	r.dc.SetLineWidth(2 * r.m)
	r.dc.SetDash()
	r.dc.DrawRectangle(box.X-2*r.m, box.Y-2*r.m, box.W+4*r.m, box.H+4*r.m)
	r.dc.Stroke()
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
