package render

import (
	"image"
	"image/color"
	"runtime"
	"testing"

	"github.com/rook-computer/postermaker/internal/background"
	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render/layout"
	"github.com/tdewolff/test"
)

type staticImages map[string]image.Image

func (s staticImages) Cached(ref string) (image.Image, bool) {
	img, ok := s[ref]
	return img, ok
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func whiteScene(w, h float64, elements ...layout.Element) layout.Scene {
	return layout.Scene{
		Width:      w,
		Height:     h,
		Background: background.Paint{Kind: background.Solid, Color: "#ffffff"},
		Elements:   elements,
	}
}

func near(a, b uint8, tolerance int) bool {
	d := int(a) - int(b)
	return d >= -tolerance && d <= tolerance
}

func TestRasterizeSize(t *testing.T) {
	img, err := Rasterize(whiteScene(100, 50), RasterOptions{Multiplier: 2})
	test.Error(t, err)
	test.T(t, img.Bounds(), image.Rect(0, 0, 200, 100))
	test.T(t, img.RGBAAt(150, 80), color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})

	_, err = Rasterize(layout.Scene{}, RasterOptions{})
	test.T(t, err, ErrEmptyCanvas)
}

func TestRasterizeTransparent(t *testing.T) {
	img, err := Rasterize(whiteScene(10, 10), RasterOptions{Transparent: true})
	test.Error(t, err)
	test.T(t, img.RGBAAt(5, 5).A, uint8(0))
}

func TestRasterizeGradient(t *testing.T) {
	paint, ok := background.Parse("linear-gradient(to bottom, #000000, #ffffff)", 10, 100)
	test.That(t, ok)
	img, err := Rasterize(layout.Scene{Width: 10, Height: 100, Background: paint}, RasterOptions{})
	test.Error(t, err)
	top, bottom := img.RGBAAt(5, 0), img.RGBAAt(5, 99)
	test.That(t, top.R < 10, "top should be dark", top)
	test.That(t, bottom.R > 240, "bottom should be light", bottom)
}

func TestRasterizeGuides(t *testing.T) {
	guide := layout.Element{
		Role:   layout.RoleBleed,
		Box:    layout.Box{X: 10, Y: 10, W: 80, H: 80},
		Stroke: &layout.Stroke{Color: "#ff0000", Width: 2},
		Guide:  true,
	}
	scene := whiteScene(100, 100, guide)

	hidden, err := Rasterize(scene, RasterOptions{})
	test.Error(t, err)
	test.T(t, hidden.RGBAAt(10, 50), color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF})

	shown, err := Rasterize(scene, RasterOptions{ShowGuides: true})
	test.Error(t, err)
	px := shown.RGBAAt(10, 50)
	test.That(t, px.R == 0xFF && px.G < 0x80, "guide stroke missing", px)
}

func TestRasterizeImageOpacity(t *testing.T) {
	el := layout.Element{
		Role:  layout.RoleBackgroundImage,
		Box:   layout.Box{W: 10, H: 10},
		Image: &layout.Image{Ref: "red", Opacity: 0.5},
	}
	images := staticImages{"red": solid(4, 4, color.RGBA{R: 0xFF, A: 0xFF})}
	img, err := Rasterize(whiteScene(10, 10, el), RasterOptions{Images: images})
	test.Error(t, err)
	px := img.RGBAAt(5, 5)
	test.T(t, px.R, uint8(0xFF))
	test.That(t, near(px.G, 0x80, 3), "half transparent red over white", px)

	// a missing reference draws nothing
	img, err = Rasterize(whiteScene(10, 10, layout.Element{Image: &layout.Image{Ref: "gone", Opacity: 1}}), RasterOptions{Images: images})
	test.Error(t, err)
	test.T(t, img.RGBAAt(5, 5).G, uint8(0xFF))
}

func TestRasterizeZoomedImageStaysCanvasSized(t *testing.T) {
	src := solid(1000, 10, color.RGBA{R: 0xFF, A: 0xFF})
	for y := 0; y < 10; y++ {
		for x := 500; x < 1000; x++ {
			src.SetRGBA(x, y, color.RGBA{B: 0xFF, A: 0xFF})
		}
	}
	el := layout.Element{
		Role:  layout.RoleBackgroundImage,
		Box:   layout.Box{X: -3950, Y: -3950, W: 8000, H: 8000},
		Image: &layout.Image{Ref: "art", Opacity: 1},
	}
	scene := whiteScene(100, 100, el)
	opts := RasterOptions{Images: staticImages{"art": src}}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	img, err := Rasterize(scene, opts)
	runtime.ReadMemStats(&after)
	test.Error(t, err)

	allocated := after.TotalAlloc - before.TotalAlloc
	test.That(t, allocated < 16<<20, "zoomed image allocated", allocated)
	left, right := img.RGBAAt(20, 50), img.RGBAAt(80, 50)
	test.That(t, left.R == 0xFF && left.B == 0, "left half should be red", left)
	test.That(t, right.B == 0xFF && right.R == 0, "right half should be blue", right)

	// half opacity still blends over the background
	el.Image.Opacity = 0.5
	img, err = Rasterize(whiteScene(100, 100, el), opts)
	test.Error(t, err)
	px := img.RGBAAt(20, 50)
	test.That(t, px.R == 0xFF && near(px.G, 0x80, 3), "half transparent red over white", px)
}

func TestRasterizeText(t *testing.T) {
	el := layout.Element{
		Role: layout.RoleArtist,
		Box:  layout.Box{X: 0, Y: 0, W: 200, H: 40},
		Text: &layout.Text{Lines: []string{"HELLO"}, Font: layout.Font{Size: 30, Weight: 700}, Color: "#000000", Align: poster.AlignLeft, LineHeight: 34.8},
	}
	img, err := Rasterize(whiteScene(200, 40, el), RasterOptions{})
	test.Error(t, err)
	dark := 0
	for y := 0; y < 40; y++ {
		for x := 0; x < 200; x++ {
			if img.RGBAAt(x, y).R < 0x80 {
				dark++
			}
		}
	}
	test.That(t, dark > 50, "text was not drawn", dark)
}

func TestRasterizeSelection(t *testing.T) {
	el := layout.Element{Role: layout.RoleSwatch, Box: layout.Box{X: 20, Y: 20, W: 20, H: 20}, Fill: "#000000"}
	img, err := Rasterize(whiteScene(60, 60, el), RasterOptions{Selection: layout.RoleSwatch})
	test.Error(t, err)
	px := img.RGBAAt(18, 30)
	test.That(t, near(px.R, SelectionColor.R, 4) && near(px.B, SelectionColor.B, 4), "selection outline missing", px)
	test.T(t, img.RGBAAt(30, 30), color.RGBA{A: 0xFF})
}

func TestRasterizeLayoutScene(t *testing.T) {
	cfg := poster.DefaultConfiguration()
	cfg.Label = poster.LabelConfig{Visible: true, Text: "Label", Link: "https://example.com"}
	scene := layout.Layout(cfg, poster.DefaultMetadata(), layout.Inputs{})
	img, err := Rasterize(scene, RasterOptions{Multiplier: 0.5})
	test.Error(t, err)
	test.T(t, img.Bounds(), image.Rect(0, 0, 540, 675))
}

func TestGenerateQRCodeImage(t *testing.T) {
	img, err := GenerateQRCodeImage("", 64, nil, nil)
	test.Error(t, err)
	test.That(t, img == nil)

	img, err = GenerateQRCodeImage("https://example.com", 128, color.RGBA{R: 0xFF, A: 0xFF}, nil)
	test.Error(t, err)
	test.That(t, img.Bounds().Dx() >= 128)
}
