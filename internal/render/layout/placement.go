package layout

import (
	"github.com/rook-computer/postermaker/internal/poster"
)

// PlaceImage computes where a background image of iw by ih lands on the
// canvas. The result depends only on the natural size, so switching templates
// back and forth never compounds earlier transforms.
func PlaceImage(v Variant, width, height float64, iw, ih int, userScale float64, offset poster.Point) Box {
	if iw <= 0 || ih <= 0 || v.placeImage == nil {
		return Box{}
	}
	p := v.placeImage(width, height, float64(iw), float64(ih))
	s := p.scale
	if userScale > 0 {
		s *= userScale
	}
	w, h := float64(iw)*s, float64(ih)*s
	return Box{
		X: p.anchorX - p.originX*w + offset.Left,
		Y: p.anchorY - p.originY*h + offset.Top,
		W: w,
		H: h,
	}
}

func placeBackgroundImage(cfg poster.Configuration, v Variant, info *ImageInfo) (Element, bool) {
	if cfg.BackgroundImage == "" || info == nil || info.Width <= 0 || info.Height <= 0 {
		return Element{}, false
	}
	userScale := 1.0
	if cfg.BackgroundImageScale != nil {
		userScale = *cfg.BackgroundImageScale
	}
	var offset poster.Point
	if cfg.BackgroundImageOffset != nil {
		offset = *cfg.BackgroundImageOffset
	}
	opacity := pick(cfg.BackgroundImageOpacity, 0, 1)
	box := PlaceImage(v, float64(cfg.Width), float64(cfg.Height), info.Width, info.Height, userScale, offset)
	return Element{
		Role:  RoleBackgroundImage,
		Box:   box,
		Image: &Image{Ref: cfg.BackgroundImage, Opacity: opacity},
	}, true
}
