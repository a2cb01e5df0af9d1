// Package geometry converts between physical print units and canvas pixels.
package geometry

import "math"

const (
	mmPerInch = 25.4

	// DefaultDPI is used whenever a print configuration leaves the resolution unset.
	DefaultDPI = 72
)

// MillimetersToPixels converts mm to whole pixels at dpi.
func MillimetersToPixels(mm, dpi float64) int {
	return int(math.Round(mm / mmPerInch * dpi))
}

// PixelsToMillimeters converts px to millimeters at dpi.
func PixelsToMillimeters(px, dpi float64) float64 {
	return px * mmPerInch / dpi
}

// InsetPixels is the unrounded pixel distance for mm at dpi. Print guides use it
// so that thin bleeds keep their sub-pixel position.
func InsetPixels(mm, dpi float64) float64 {
	return mm * dpi / mmPerInch
}

func effectiveDPI(dpi float64) float64 {
	if dpi <= 0 {
		return DefaultDPI
	}
	return dpi
}
