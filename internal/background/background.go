// Package background turns a poster background token into paint for the canvas.
//
// A token is either a solid color ("#336699") or a CSS-style linear gradient
// such as "linear-gradient(to bottom right, #000000, #ffffff)". Parsing never
// fails loudly: a malformed gradient leaves the previous paint in place.
package background

import (
	"regexp"
	"strings"
)

type Kind int

const (
	None Kind = iota
	Solid
	Linear
)

type Stop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// Paint is either a solid fill or a linear gradient along (X1,Y1)-(X2,Y2) in
// canvas pixels.
type Paint struct {
	Kind  Kind    `json:"kind"`
	Color string  `json:"color,omitempty"`
	X1    float64 `json:"x1,omitempty"`
	Y1    float64 `json:"y1,omitempty"`
	X2    float64 `json:"x2,omitempty"`
	Y2    float64 `json:"y2,omitempty"`
	Stops []Stop  `json:"stops,omitempty"`
}

// State is the background half of the canvas state.
type State struct {
	Width  float64
	Height float64
	Paint  Paint
}

var gradientPattern = regexp.MustCompile(`linear-gradient\((.*)\)`)

// Apply sets state.Paint from value. Malformed gradients are a no-op.
func Apply(state *State, value string) {
	if state == nil {
		return
	}
	if paint, ok := Parse(value, state.Width, state.Height); ok {
		state.Paint = paint
	}
}

// Parse resolves value for a canvas of w by h. ok is false when value looks like
// a gradient but cannot be understood.
func Parse(value string, w, h float64) (Paint, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "linear-gradient") {
		if value == "" {
			return Paint{}, false
		}
		return Paint{Kind: Solid, Color: value}, true
	}

	match := gradientPattern.FindStringSubmatch(value)
	if match == nil || strings.TrimSpace(match[1]) == "" {
		return Paint{}, false
	}
	parts := strings.Split(match[1], ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	paint := Paint{Kind: Linear, X2: 0, Y2: h}
	if strings.HasPrefix(parts[0], "to ") {
		direction := parts[0]
		parts = parts[1:]
		switch {
		case strings.Contains(direction, "bottom right"):
			paint.X2, paint.Y2 = w, h
		case strings.Contains(direction, "right"):
			paint.X2, paint.Y2 = w, 0
		}
	}

	stops := parts[:0]
	for _, part := range parts {
		if part != "" {
			stops = append(stops, part)
		}
	}
	switch len(stops) {
	case 0:
		return Paint{}, false
	case 1:
		return Paint{Kind: Solid, Color: stops[0]}, true
	}
	last := float64(len(stops) - 1)
	for i, c := range stops {
		paint.Stops = append(paint.Stops, Stop{Offset: float64(i) / last, Color: c})
	}
	return paint, true
}
