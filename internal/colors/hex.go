// Package colors parses color tokens and derives poster colors from artwork.
package colors

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var named = map[string]color.RGBA{
	"transparent": {},
	"black":       {A: 0xff},
	"white":       {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	"red":         {R: 0xff, A: 0xff},
	"green":       {G: 0x80, A: 0xff},
	"blue":        {B: 0xff, A: 0xff},
	"gray":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"grey":        {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
}

// ParseHex parses #rgb, #rrggbb, #rrggbbaa or a small set of color names.
func ParseHex(token string) (color.RGBA, error) {
	token = strings.TrimSpace(strings.ToLower(token))
	if c, ok := named[token]; ok {
		return c, nil
	}
	hex, ok := strings.CutPrefix(token, "#")
	if !ok {
		return color.RGBA{}, fmt.Errorf("color %q: missing #", token)
	}
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("color %q: bad length", token)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("color %q: %w", token, err)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// MustParse is ParseHex with a fallback for tokens that do not parse.
func MustParse(token string, fallback color.RGBA) color.RGBA {
	c, err := ParseHex(token)
	if err != nil {
		return fallback
	}
	return c
}

// FormatHex renders r, g, b as #rrggbb.
func FormatHex(r, g, b uint8) string {
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}
