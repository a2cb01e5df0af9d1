package layout

import (
	"github.com/rook-computer/postermaker/internal/background"
	"github.com/rook-computer/postermaker/internal/poster"
)

// Role names an element. Scenes are rebuilt every pass, so the role is the
// only identity an element keeps between passes.
type Role string

const (
	RoleBackgroundImage Role = "background-image"
	RoleArtist          Role = "artist"
	RoleAlbum           Role = "album"
	RoleTracklist       Role = "tracklist"
	RoleTrack           Role = "track"
	RoleLabel           Role = "label"
	RoleLabelName       Role = "label-name"
	RoleLabelMeta       Role = "label-meta"
	RoleLabelQR         Role = "label-qr"
	RoleMetadataInfo    Role = "metadata-info"
	RolePARect          Role = "pa-rect"
	RolePAText          Role = "pa-text"
	RoleSwatch          Role = "swatch"
	RoleBleed           Role = "bleed"
	RoleMargin          Role = "margin"
)

type Font struct {
	Family string  `json:"family"`
	Size   float64 `json:"size"`
	Weight int     `json:"weight"`
}

type Text struct {
	Lines      []string         `json:"lines"`
	Font       Font             `json:"font"`
	Color      string           `json:"color"`
	Align      poster.Alignment `json:"align"`
	LineHeight float64          `json:"lineHeight"`
}

type Stroke struct {
	Color string    `json:"color"`
	Width float64   `json:"width"`
	Dash  []float64 `json:"dash,omitempty"`
}

// Image references pixels the renderer resolves by Ref.
type Image struct {
	Ref     string  `json:"ref"`
	Opacity float64 `json:"opacity"`
}

type Element struct {
	Role     Role      `json:"role"`
	Box      Box       `json:"box"`
	Text     *Text     `json:"text,omitempty"`
	Stroke   *Stroke   `json:"stroke,omitempty"`
	Fill     string    `json:"fill,omitempty"`
	Image    *Image    `json:"image,omitempty"`
	QR       string    `json:"qr,omitempty"`
	Guide    bool      `json:"guide,omitempty"`
	Children []Element `json:"children,omitempty"`
}

// Scene is everything one layout pass produced.
type Scene struct {
	Width      float64          `json:"width"`
	Height     float64          `json:"height"`
	Template   poster.Template  `json:"template"`
	Background background.Paint `json:"background"`
	Elements   []Element        `json:"elements"`
	// Overflow reports that the overlap cascade pushed content past the
	// bottom edge.
	Overflow bool `json:"overflow"`
}

// Find returns the first top-level element with role.
func (s Scene) Find(role Role) (Element, bool) {
	for _, el := range s.Elements {
		if el.Role == role {
			return el, true
		}
	}
	return Element{}, false
}

// Count returns how many top-level elements carry role.
func (s Scene) Count(role Role) int {
	n := 0
	for _, el := range s.Elements {
		if el.Role == role {
			n++
		}
	}
	return n
}
