package render

import (
	"sync"

	"github.com/rook-computer/postermaker/internal/render/layout"
	"golang.org/x/image/font"
)

// FontMeasurer measures text with the faces the rasterizer will draw with.
type FontMeasurer struct {
	Fonts *FontLibrary

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	family string
	weight int
	size   float64
}

func NewFontMeasurer(fonts *FontLibrary) *FontMeasurer {
	return &FontMeasurer{Fonts: fonts, faces: map[faceKey]font.Face{}}
}

func (m *FontMeasurer) TextWidth(text string, f layout.Font) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := faceKey{f.Family, f.Weight, f.Size}
	face, ok := m.faces[key]
	if !ok {
		face = m.Fonts.Face(f.Family, f.Weight, f.Size)
		m.faces[key] = face
	}
	return fixedToFloat(font.MeasureString(face, text))
}

func (m *FontMeasurer) LineHeight(f layout.Font) float64 {
	return layout.ApproxMeasurer{}.LineHeight(f)
}

// Forget drops cached faces, so a family that finished loading is measured
// with its real glyphs.
func (m *FontMeasurer) Forget() {
	m.mu.Lock()
	m.faces = map[faceKey]font.Face{}
	m.mu.Unlock()
}
