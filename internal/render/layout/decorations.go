package layout

import (
	"strings"

	"github.com/rook-computer/postermaker/internal/geometry"
	"github.com/rook-computer/postermaker/internal/poster"
)

const (
	paWidth  = 100.0
	paHeight = 50.0

	labelDefaultWidth = 300.0
	labelQRSize       = 96.0

	swatchSize = 60.0
	swatchGap  = 12.0
	maxSwatch  = 5

	BleedColor  = "#ff3b30"
	MarginColor = "#00a8ff"
)

// autoText builds a text element sized to its content.
func autoText(m Measurer, role Role, text string, font Font, color string, align poster.Alignment) Element {
	lines := strings.Split(text, "\n")
	lineHeight := m.LineHeight(font)
	return Element{
		Role: role,
		Box:  Box{W: widest(m, lines, font), H: lineHeight * float64(len(lines))},
		Text: &Text{Lines: lines, Font: font, Color: color, Align: align, LineHeight: lineHeight},
	}
}

// branding is the fixed release-year line and advisory sticker in the
// bottom-right corner.
func branding(m Measurer, cfg poster.Configuration, meta poster.Metadata, width, height, padding float64) []Element {
	color := pickColor("", cfg.TextColor)
	right := width - padding

	info := autoText(m, RoleMetadataInfo, "ALBUM • "+meta.Year, Font{Family: cfg.FontFamily, Size: 18, Weight: 800}, color, poster.AlignRight)
	info.Box.X = right - info.Box.W
	info.Box.Y = height - padding - 75

	rect := Element{
		Role:   RolePARect,
		Box:    Box{X: right - paWidth, Y: height - padding - paHeight, W: paWidth, H: paHeight},
		Stroke: &Stroke{Color: color, Width: 2},
	}

	sticker := autoText(m, RolePAText, "PARENTAL\nADVISORY\nEXPLICIT CONTENT", Font{Family: "Arial Black", Size: 10, Weight: 900}, color, poster.AlignCenter)
	cx, cy := right-paWidth/2, height-padding-paHeight/2
	sticker.Box.X = cx - sticker.Box.W/2
	sticker.Box.Y = cy - sticker.Box.H/2

	return []Element{info, rect, sticker}
}

// labelBlock renders the record label name and catalog line. It sits outside
// the overlap cascade.
func labelBlock(m Measurer, cfg poster.Configuration, meta poster.Metadata, height, padding float64) (Element, bool) {
	label := cfg.Label
	if !label.Visible {
		return Element{}, false
	}
	name := label.Text
	if name == "" {
		name = meta.Label
	}
	year := label.Year
	if year == "" {
		year = meta.Year
	}
	var parts []string
	if label.Catalog != "" {
		parts = append(parts, label.Catalog)
	}
	if year != "" {
		parts = append(parts, year)
	}

	align := pick(label.Align, "", poster.AlignLeft)
	blockWidth := label.Width
	if blockWidth <= 0 {
		blockWidth = labelDefaultWidth
	}
	anchor, top := padding, height-padding-40
	if label.Position != nil {
		anchor, top = label.Position.Left, label.Position.Top
	}
	left := anchor - originFactor(align)*blockWidth
	color := pickColor("", cfg.TextColor)

	block := Element{Role: RoleLabel, Box: Box{X: left, Y: top, W: blockWidth}}
	cursor := top
	addLine := func(role Role, text string, font Font) {
		lines := Wrap(m, text, font, blockWidth)
		lh := m.LineHeight(font)
		child := Element{
			Role: role,
			Box:  Box{X: left, Y: cursor, W: blockWidth, H: lh * float64(len(lines))},
			Text: &Text{Lines: lines, Font: font, Color: color, Align: align, LineHeight: lh},
		}
		cursor = child.Box.Bottom()
		block.Children = append(block.Children, child)
	}
	if name != "" {
		addLine(RoleLabelName, strings.ToUpper(name), Font{Family: cfg.FontFamily, Size: 16, Weight: 700})
	}
	if len(parts) > 0 {
		addLine(RoleLabelMeta, strings.Join(parts, " • "), Font{Family: cfg.FontFamily, Size: 12, Weight: 500})
	}
	if label.Link != "" {
		qrLeft := left + originFactor(align)*(blockWidth-labelQRSize)
		block.Children = append(block.Children, Element{
			Role: RoleLabelQR,
			Box:  Box{X: qrLeft, Y: cursor + 8, W: labelQRSize, H: labelQRSize},
			QR:   label.Link,
		})
		cursor += 8 + labelQRSize
	}
	block.Box.H = cursor - top
	return block, true
}

// guides are the dashed print rectangles. They never reach an export.
func guides(print poster.PrintConfig, width, height float64) []Element {
	dpi := print.DPI
	if dpi <= 0 {
		dpi = geometry.DefaultDPI
	}
	canvas := Box{W: width, H: height}
	var out []Element
	if print.ShowBleed {
		out = append(out, Element{
			Role:   RoleBleed,
			Box:    canvas.Inset(geometry.InsetPixels(print.BleedMm, dpi)),
			Stroke: &Stroke{Color: BleedColor, Width: 1, Dash: []float64{8, 6}},
			Guide:  true,
		})
	}
	if print.ShowMargin {
		out = append(out, Element{
			Role:   RoleMargin,
			Box:    canvas.Inset(geometry.InsetPixels(print.MarginMm, dpi)),
			Stroke: &Stroke{Color: MarginColor, Width: 1, Dash: []float64{4, 4}},
			Guide:  true,
		})
	}
	return out
}

func swatches(palette []string, padding, height float64) []Element {
	var out []Element
	for i, c := range palette {
		if i == maxSwatch {
			break
		}
		out = append(out, Element{
			Role: RoleSwatch,
			Box:  Box{X: padding + float64(i)*(swatchSize+swatchGap), Y: height * 0.52, W: swatchSize, H: swatchSize},
			Fill: c,
		})
	}
	return out
}
