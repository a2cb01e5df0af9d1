package geometry

import "sort"

// CustomPreset selects the configuration's own pixel size.
const CustomPreset = "custom"

type PaperPreset struct {
	Name     string  `json:"name"`
	WidthMm  float64 `json:"widthMm"`
	HeightMm float64 `json:"heightMm"`
}

// PrintPresets are the named paper and social sizes in millimeters.
var PrintPresets = map[string]PaperPreset{
	"a4":        {Name: "A4", WidthMm: 210, HeightMm: 297},
	"a3":        {Name: "A3", WidthMm: 297, HeightMm: 420},
	"a2":        {Name: "A2", WidthMm: 420, HeightMm: 594},
	"letter":    {Name: "Letter", WidthMm: 215.9, HeightMm: 279.4},
	"tabloid":   {Name: "Tabloid", WidthMm: 279.4, HeightMm: 431.8},
	"instagram": {Name: "Instagram Portrait", WidthMm: 108, HeightMm: 135},
	"square":    {Name: "Square", WidthMm: 210, HeightMm: 210},
	"print":     {Name: "Print Standard", WidthMm: 180, HeightMm: 240},
}

// PresetKeys returns the preset identifiers in a stable order.
func PresetKeys() []string {
	keys := make([]string, 0, len(PrintPresets))
	for key := range PrintPresets {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

type Dimensions struct {
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	WidthMm  float64 `json:"widthMm"`
	HeightMm float64 `json:"heightMm"`
}

// ResolveDimensions returns the pixel and millimeter size of a poster.
// A known preset other than "custom" wins over width and height; anything else
// keeps the raw pixel size.
func ResolveDimensions(preset string, dpi float64, width, height int) Dimensions {
	dpi = effectiveDPI(dpi)
	if paper, ok := PrintPresets[preset]; ok && preset != CustomPreset {
		return Dimensions{
			Width:    MillimetersToPixels(paper.WidthMm, dpi),
			Height:   MillimetersToPixels(paper.HeightMm, dpi),
			WidthMm:  paper.WidthMm,
			HeightMm: paper.HeightMm,
		}
	}
	return Dimensions{
		Width:    width,
		Height:   height,
		WidthMm:  PixelsToMillimeters(float64(width), dpi),
		HeightMm: PixelsToMillimeters(float64(height), dpi),
	}
}
