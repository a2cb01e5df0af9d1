package render

import (
	"image"

	"github.com/rook-computer/postermaker/internal/poster"
	"github.com/rook-computer/postermaker/internal/render/layout"
)

// Offline renders posters without a live surface: it waits for the background
// image and the font family before laying out, and never draws guides.
type Offline struct {
	Fonts  *FontLibrary
	Images *ImageLoader
	Logger surfaceLogger
}

// Scene lays out cfg and meta once every resource has settled.
func (o *Offline) Scene(cfg poster.Configuration, meta poster.Metadata) layout.Scene {
	fonts := o.fonts()
	fonts.Load(cfg.FontFamily)

	var info *layout.ImageInfo
	if ref := cfg.BackgroundImage; ref != "" && o.Images != nil {
		img, err := o.Images.Load(ref)
		if err != nil {
			if o.Logger != nil {
				o.Logger.Errorf("images", "background image skipped: %v", err)
			}
		} else {
			b := img.Bounds()
			info = &layout.ImageInfo{Width: b.Dx(), Height: b.Dy()}
		}
	}
	return layout.Layout(cfg, meta, layout.Inputs{Image: info, Measurer: NewFontMeasurer(fonts)})
}

// Rasterize renders cfg and meta at multiplier.
func (o *Offline) Rasterize(cfg poster.Configuration, meta poster.Metadata, multiplier float64) (*image.RGBA, error) {
	opts := RasterOptions{
		Multiplier:  multiplier,
		Transparent: cfg.Export.Transparent,
		Fonts:       o.fonts(),
	}
	if o.Images != nil {
		opts.Images = o.Images
	}
	return Rasterize(o.Scene(cfg, meta), opts)
}

func (o *Offline) fonts() *FontLibrary {
	if o.Fonts == nil {
		return defaultFonts
	}
	return o.Fonts
}
