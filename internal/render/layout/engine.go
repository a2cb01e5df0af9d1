// Package layout computes a poster scene from a configuration and its content.
//
// Layout is a pure function: the same configuration, metadata and inputs always
// produce the same scene. Elements are derived in two passes. The first pass
// places every block from template rules and overrides alone; the second pass
// walks artist, album and tracklist top to bottom and pushes each block below
// the previous one.
package layout

import (
	"strings"

	"github.com/rook-computer/postermaker/internal/background"
	"github.com/rook-computer/postermaker/internal/poster"
)

// ImageInfo is the natural size of a decoded background image.
type ImageInfo struct {
	Width  int
	Height int
}

type Inputs struct {
	// Prior is the background paint of the previous pass. A malformed
	// background token keeps it.
	Prior background.Paint
	// Image is nil while the background image is missing, loading or broken.
	Image    *ImageInfo
	Measurer Measurer
}

// Layout derives the full scene. It never fails; the configuration is
// expected to have passed Validate.
func Layout(cfg poster.Configuration, meta poster.Metadata, in Inputs) Scene {
	m := in.Measurer
	if m == nil {
		m = ApproxMeasurer{}
	}
	v := VariantFor(cfg.Template)
	width, height := float64(cfg.Width), float64(cfg.Height)
	padding := pick(cfg.Padding, 0, DefaultPadding)

	scene := Scene{Width: width, Height: height, Template: v.Template}

	bg := background.State{Width: width, Height: height, Paint: in.Prior}
	background.Apply(&bg, cfg.BackgroundColor)
	scene.Background = bg.Paint

	imageEl, hasImage := placeBackgroundImage(cfg, v, in.Image)
	if hasImage {
		scene.Elements = append(scene.Elements, imageEl)
	}
	if v.Swatches {
		scene.Elements = append(scene.Elements, swatches(cfg.Palette, padding, height)...)
	}

	usable := width - 2*padding
	artist := headline(m, RoleArtist, meta.Artist, cfg, cfg.Artist, headlineRule{
		size:   v.ArtistSize,
		weight: v.ArtistWeight, fallbackSize: fallbackArtistSize, fallbackWeight: DefaultArtistWeight,
		top: v.ArtistTop * height, align: v.Align,
	}, width, padding)
	album := headline(m, RoleAlbum, meta.Album, cfg, cfg.Album, headlineRule{
		size:   v.AlbumSize,
		weight: v.AlbumWeight, fallbackSize: fallbackAlbumSize, fallbackWeight: DefaultAlbumWeight,
		top: v.AlbumTop * height, align: v.Align,
	}, width, padding)

	if v.AvoidImage && hasImage {
		floor := imageEl.Box.Bottom() + MinGap
		pushBelow(&artist, floor)
		pushBelow(&album, floor)
	}

	stack := []*Element{&artist, &album}
	tracklist, hasTracks := tracklistBlock(m, cfg, meta.Tracks, v, width, height, padding, usable)
	if hasTracks {
		stack = append(stack, &tracklist)
	}
	Cascade(stack, MinGap)

	for _, el := range stack {
		scene.Elements = append(scene.Elements, *el)
		if el.Box.Bottom() > height {
			scene.Overflow = true
		}
	}

	if v.Branding {
		scene.Elements = append(scene.Elements, branding(m, cfg, meta, width, height, padding)...)
	}
	if label, ok := labelBlock(m, cfg, meta, height, padding); ok {
		scene.Elements = append(scene.Elements, label)
	}
	scene.Elements = append(scene.Elements, guides(cfg.Print, width, height)...)
	return scene
}

type headlineRule struct {
	size, fallbackSize     float64
	weight, fallbackWeight int
	top                    float64
	align                  poster.Alignment
}

// headline places an uppercased text box that spans the usable width and
// wraps instead of overflowing.
func headline(m Measurer, role Role, text string, cfg poster.Configuration, style poster.ElementStyle, rule headlineRule, width, padding float64) Element {
	align := pick(style.Align, rule.align, poster.AlignLeft)
	font := Font{
		Family: cfg.FontFamily,
		Size:   pick(style.FontSize, rule.size, rule.fallbackSize),
		Weight: pick(style.FontWeight, rule.weight, rule.fallbackWeight),
	}
	anchor, top := anchorX(align, width, padding), rule.top
	if style.Position != nil {
		anchor, top = style.Position.Left, style.Position.Top
	}
	boxWidth := width - 2*padding
	lines := Wrap(m, strings.ToUpper(text), font, boxWidth)
	lineHeight := m.LineHeight(font)
	return Element{
		Role: role,
		Box: Box{
			X: anchor - originFactor(align)*boxWidth,
			Y: top,
			W: boxWidth,
			H: lineHeight * float64(len(lines)),
		},
		Text: &Text{
			Lines:      lines,
			Font:       font,
			Color:      pickColor(style.Color, cfg.TextColor),
			Align:      align,
			LineHeight: lineHeight,
		},
	}
}

// Cascade resolves overlaps in order: each element after the first is moved
// down so its top is at least gap below the bottom of the one before. Earlier
// elements never move.
func Cascade(stack []*Element, gap float64) {
	for i := 1; i < len(stack); i++ {
		pushBelow(stack[i], stack[i-1].Box.Bottom()+gap)
	}
}

func pushBelow(el *Element, floor float64) {
	if el.Box.Y < floor {
		moveBy(el, 0, floor-el.Box.Y)
	}
}

func moveBy(el *Element, dx, dy float64) {
	el.Box.X += dx
	el.Box.Y += dy
	for i := range el.Children {
		moveBy(&el.Children[i], dx, dy)
	}
}
